package store

import (
	"math"
	"sync"
	"time"

	"github.com/google/btree"

	"github.com/efreitasn/teamstocks/internal/domain"
)

// quoteLess orders an instrument's quotes by timestamp ascending, then
// tick ascending, so Max() is the current price.
func quoteLess(a, b domain.Quote) bool {
	return b.After(a)
}

// quoteSeries is the price history of a single instrument.
type quoteSeries struct {
	tree  *btree.BTreeG[domain.Quote]
	ticks map[int64]struct{}
}

func newQuoteSeries() *quoteSeries {
	const degree = 32
	return &quoteSeries{
		tree:  btree.NewG[domain.Quote](degree, quoteLess),
		ticks: make(map[int64]struct{}),
	}
}

// QuoteStore is a thread-safe in-memory time series of quotes, one
// B-tree per instrument.
type QuoteStore struct {
	mu       sync.RWMutex
	series   map[string]*quoteSeries
	lastTick int64
}

// NewQuoteStore creates an empty QuoteStore.
func NewQuoteStore() *QuoteStore {
	return &QuoteStore{
		series:   make(map[string]*quoteSeries),
		lastTick: -1,
	}
}

// Append inserts the batch atomically. If any quote repeats an
// (instrument, tick) pair, either within the batch or against stored
// quotes, nothing is stored and domain.ErrDuplicateQuote is returned.
func (s *QuoteStore) Append(quotes ...domain.Quote) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]map[int64]struct{})
	for _, q := range quotes {
		if ser, ok := s.series[q.Instrument]; ok {
			if _, dup := ser.ticks[q.Tick]; dup {
				return domain.ErrDuplicateQuote
			}
		}
		if seen[q.Instrument] == nil {
			seen[q.Instrument] = make(map[int64]struct{})
		}
		if _, dup := seen[q.Instrument][q.Tick]; dup {
			return domain.ErrDuplicateQuote
		}
		seen[q.Instrument][q.Tick] = struct{}{}
	}

	for _, q := range quotes {
		ser, ok := s.series[q.Instrument]
		if !ok {
			ser = newQuoteSeries()
			s.series[q.Instrument] = ser
		}
		ser.tree.ReplaceOrInsert(q)
		ser.ticks[q.Tick] = struct{}{}
		if q.Tick > s.lastTick {
			s.lastTick = q.Tick
		}
	}
	return nil
}

// Latest returns the instrument's current quote. It returns
// domain.ErrQuoteNotFound if the instrument has never been quoted.
func (s *QuoteStore) Latest(instrument string) (domain.Quote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ser, ok := s.series[instrument]
	if !ok {
		return domain.Quote{}, domain.ErrQuoteNotFound
	}
	q, ok := ser.tree.Max()
	if !ok {
		return domain.Quote{}, domain.ErrQuoteNotFound
	}
	return q, nil
}

// LatestAsOf returns the newest quote with a timestamp at or before at.
func (s *QuoteStore) LatestAsOf(instrument string, at time.Time) (domain.Quote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ser, ok := s.series[instrument]
	if !ok {
		return domain.Quote{}, domain.ErrQuoteNotFound
	}

	var found domain.Quote
	var hit bool
	pivot := domain.Quote{Timestamp: at, Tick: math.MaxInt64}
	ser.tree.DescendLessOrEqual(pivot, func(q domain.Quote) bool {
		found, hit = q, true
		return false
	})
	if !hit {
		return domain.Quote{}, domain.ErrQuoteNotFound
	}
	return found, nil
}

// LatestAll returns the current quote of every quoted instrument.
func (s *QuoteStore) LatestAll() map[string]domain.Quote {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]domain.Quote, len(s.series))
	for name, ser := range s.series {
		if q, ok := ser.tree.Max(); ok {
			result[name] = q
		}
	}
	return result
}

// History returns the instrument's quotes oldest first. Returns an empty
// slice if the instrument has never been quoted.
func (s *QuoteStore) History(instrument string) []domain.Quote {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ser, ok := s.series[instrument]
	if !ok {
		return []domain.Quote{}
	}
	result := make([]domain.Quote, 0, ser.tree.Len())
	ser.tree.Ascend(func(q domain.Quote) bool {
		result = append(result, q)
		return true
	})
	return result
}

// LastTick returns the highest tick stored, or -1 if empty.
func (s *QuoteStore) LastTick() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastTick
}
