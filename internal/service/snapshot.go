package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/efreitasn/teamstocks/internal/domain"
	"github.com/efreitasn/teamstocks/internal/store"
)

// SnapshotService records the value of every account once per tick.
type SnapshotService struct {
	store  store.Store
	logger *slog.Logger
}

// NewSnapshotService creates a new SnapshotService.
func NewSnapshotService(st store.Store, logger *slog.Logger) *SnapshotService {
	return &SnapshotService{store: st, logger: logger}
}

// RecordAll values every account at the latest prices and appends one
// snapshot per account stamped at. Prices are read once for the whole run.
// Accounts that cannot be valued are logged and skipped. It returns the
// number of snapshots written.
func (s *SnapshotService) RecordAll(ctx context.Context, at time.Time) (int, error) {
	accounts, err := s.store.ListAccounts(ctx)
	if err != nil {
		return 0, fmt.Errorf("list accounts: %w", err)
	}
	if len(accounts) == 0 {
		return 0, nil
	}
	latest, err := s.store.LatestQuotes(ctx)
	if err != nil {
		return 0, fmt.Errorf("load latest quotes: %w", err)
	}

	snapshots := make([]domain.Snapshot, 0, len(accounts))
	for _, a := range accounts {
		acct, trades, err := s.store.Ledger(ctx, a.AccountID)
		if err != nil {
			s.logger.Warn("snapshot skipped",
				slog.String("account_id", a.AccountID),
				slog.String("error", err.Error()),
			)
			continue
		}
		p, err := valuate(acct, trades, latest, at)
		if err != nil {
			s.logger.Warn("snapshot skipped",
				slog.String("account_id", a.AccountID),
				slog.String("error", err.Error()),
			)
			continue
		}
		snapshots = append(snapshots, domain.Snapshot{
			AccountID: acct.AccountID,
			Value:     domain.RoundMoney(p.AccountValue),
			Timestamp: at,
		})
	}

	if err := s.store.AppendSnapshots(ctx, snapshots); err != nil {
		return 0, fmt.Errorf("append snapshots: %w", err)
	}
	return len(snapshots), nil
}
