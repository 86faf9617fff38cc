package engine

import (
	"math/rand/v2"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/efreitasn/teamstocks/internal/domain"
)

// SimulatorParams controls the mean-reverting random walk.
type SimulatorParams struct {
	// ReversionStrength pulls the price back toward its anchor by this
	// fraction of the relative deviation on every step.
	ReversionStrength float64
	// VolatilityBase is the maximum per-step relative shock at the anchor.
	// It shrinks linearly as the price moves away from the anchor.
	VolatilityBase float64
	// VolatilityFloor is the minimum per-step relative shock.
	VolatilityFloor float64
	// FloorMult and CeilMult bound the price to
	// [FloorMult × anchor, CeilMult × anchor].
	FloorMult float64
	CeilMult  float64
}

// DefaultSimulatorParams returns the production tuning.
func DefaultSimulatorParams() SimulatorParams {
	return SimulatorParams{
		ReversionStrength: 0.08,
		VolatilityBase:    0.035,
		VolatilityFloor:   0.01,
		FloorMult:         0.25,
		CeilMult:          1.75,
	}
}

// NewRand returns a random source for the simulator. A zero seed picks a
// time-based one.
func NewRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15))
}

// PriceSimulator produces the next price of a simple instrument from its
// current price and its anchor. It keeps one anchor per instrument.
type PriceSimulator struct {
	k         decimal.Decimal
	volBase   decimal.Decimal
	volFloor  decimal.Decimal
	floorMult decimal.Decimal
	ceilMult  decimal.Decimal

	mu      sync.Mutex // protects rng and anchors
	rng     *rand.Rand
	anchors map[string]decimal.Decimal
}

// NewPriceSimulator creates a simulator. rng may be nil, in which case a
// time-seeded source is used.
func NewPriceSimulator(p SimulatorParams, rng *rand.Rand) *PriceSimulator {
	if rng == nil {
		rng = NewRand(0)
	}
	return &PriceSimulator{
		k:         decimal.NewFromFloat(p.ReversionStrength),
		volBase:   decimal.NewFromFloat(p.VolatilityBase),
		volFloor:  decimal.NewFromFloat(p.VolatilityFloor),
		floorMult: decimal.NewFromFloat(p.FloorMult),
		ceilMult:  decimal.NewFromFloat(p.CeilMult),
		rng:       rng,
		anchors:   make(map[string]decimal.Decimal),
	}
}

// SetAnchor sets the anchor of instrument if it has none yet.
func (s *PriceSimulator) SetAnchor(instrument string, anchor decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.anchors[instrument]; !ok && anchor.IsPositive() {
		s.anchors[instrument] = anchor
	}
}

// Anchor returns the anchor of instrument.
func (s *PriceSimulator) Anchor(instrument string) (decimal.Decimal, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.anchors[instrument]
	return a, ok
}

// Step advances instrument from current. The first price observed for an
// instrument without an anchor becomes its anchor.
func (s *PriceSimulator) Step(instrument string, current decimal.Decimal) decimal.Decimal {
	s.SetAnchor(instrument, current)
	anchor, _ := s.Anchor(instrument)
	return s.Next(current, anchor)
}

// Next computes one step of the walk:
//
//	d     = (current - anchor) / anchor
//	vol   = max(volFloor, volBase × (1 - |d|))
//	delta ~ U[-vol, vol)
//	next  = current × (1 - k×d + delta)
//
// The result is rounded to cents and clamped into the anchor band, whose
// bounds are themselves rounded inward. A non-positive anchor is replaced
// by current, or by 1.00 when current is not positive either.
func (s *PriceSimulator) Next(current, anchor decimal.Decimal) decimal.Decimal {
	if !anchor.IsPositive() {
		anchor = current
		if !anchor.IsPositive() {
			anchor = decimal.NewFromInt(1)
		}
	}

	one := decimal.NewFromInt(1)
	dev := current.Sub(anchor).Div(anchor)

	vol := s.volBase.Mul(one.Sub(dev.Abs()))
	if vol.LessThan(s.volFloor) {
		vol = s.volFloor
	}

	s.mu.Lock()
	u := s.rng.Float64()
	s.mu.Unlock()
	delta := decimal.NewFromFloat(2*u - 1).Mul(vol)

	change := s.k.Neg().Mul(dev).Add(delta)
	next := domain.RoundMoney(current.Mul(one.Add(change)))

	low, high := s.band(anchor)
	if next.LessThan(low) {
		next = low
	}
	if next.GreaterThan(high) {
		next = high
	}
	return next
}

// band returns the clamp bounds for anchor rounded inward to cents. The
// lower bound never drops below one cent.
func (s *PriceSimulator) band(anchor decimal.Decimal) (low, high decimal.Decimal) {
	cent := decimal.New(1, -domain.MoneyPlaces)
	low = anchor.Mul(s.floorMult).RoundCeil(domain.MoneyPlaces)
	if low.LessThan(cent) {
		low = cent
	}
	high = anchor.Mul(s.ceilMult).RoundFloor(domain.MoneyPlaces)
	if high.LessThan(low) {
		high = low
	}
	return low, high
}
