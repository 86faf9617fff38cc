package domain

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// InstrumentKind distinguishes single-team instruments from division
// indexes derived from their members.
type InstrumentKind string

const (
	KindSimple    InstrumentKind = "simple"
	KindComposite InstrumentKind = "composite"
)

// Instrument is a tradable simulated entity. Simple instruments carry a
// seed price used the first time they are quoted; composite instruments
// list the simple instruments they average.
type Instrument struct {
	Name      string
	Kind      InstrumentKind
	SeedPrice decimal.Decimal
	Members   []string
}

// Catalog is the static set of known instruments. It is immutable after
// construction and safe for concurrent use.
type Catalog struct {
	byName     map[string]Instrument
	simple     []Instrument
	composites []Instrument
}

// NewCatalog validates the instruments and builds a Catalog. Names must be
// unique, simple instruments need a positive seed price, and every
// composite needs at least one member naming a simple instrument.
func NewCatalog(instruments []Instrument) (*Catalog, error) {
	c := &Catalog{byName: make(map[string]Instrument, len(instruments))}

	for _, inst := range instruments {
		if inst.Name == "" {
			return nil, fmt.Errorf("instrument name must not be empty")
		}
		if _, dup := c.byName[inst.Name]; dup {
			return nil, fmt.Errorf("duplicate instrument %q", inst.Name)
		}
		switch inst.Kind {
		case KindSimple:
			if !inst.SeedPrice.IsPositive() {
				return nil, fmt.Errorf("instrument %q: seed price must be > 0", inst.Name)
			}
			if len(inst.Members) > 0 {
				return nil, fmt.Errorf("instrument %q: simple instruments have no members", inst.Name)
			}
			inst.SeedPrice = RoundMoney(inst.SeedPrice)
		case KindComposite:
			if len(inst.Members) == 0 {
				return nil, fmt.Errorf("composite %q: at least one member is required", inst.Name)
			}
			inst.Members = append([]string(nil), inst.Members...)
		default:
			return nil, fmt.Errorf("instrument %q: unknown kind %q", inst.Name, inst.Kind)
		}
		c.byName[inst.Name] = inst
	}

	for _, inst := range c.byName {
		if inst.Kind == KindSimple {
			c.simple = append(c.simple, inst)
			continue
		}
		for _, m := range inst.Members {
			member, ok := c.byName[m]
			if !ok || member.Kind != KindSimple {
				return nil, fmt.Errorf("composite %q: member %q is not a simple instrument", inst.Name, m)
			}
		}
		c.composites = append(c.composites, inst)
	}

	sort.Slice(c.simple, func(i, j int) bool { return c.simple[i].Name < c.simple[j].Name })
	sort.Slice(c.composites, func(i, j int) bool { return c.composites[i].Name < c.composites[j].Name })
	return c, nil
}

// Get returns the instrument with the given name.
func (c *Catalog) Get(name string) (Instrument, bool) {
	inst, ok := c.byName[name]
	return inst.clone(), ok
}

// Exists returns true if the catalog knows the instrument.
func (c *Catalog) Exists(name string) bool {
	_, ok := c.byName[name]
	return ok
}

// IsComposite returns true if name is a known composite instrument.
func (c *Catalog) IsComposite(name string) bool {
	inst, ok := c.byName[name]
	return ok && inst.Kind == KindComposite
}

// Simple returns the simple instruments sorted by name.
func (c *Catalog) Simple() []Instrument {
	return cloneAll(c.simple)
}

// Composites returns the composite instruments sorted by name. Callers own
// the returned members slices.
func (c *Catalog) Composites() []Instrument {
	return cloneAll(c.composites)
}

func (inst Instrument) clone() Instrument {
	if inst.Members != nil {
		inst.Members = append([]string(nil), inst.Members...)
	}
	return inst
}

func cloneAll(instruments []Instrument) []Instrument {
	out := make([]Instrument, len(instruments))
	for i, inst := range instruments {
		out[i] = inst.clone()
	}
	return out
}
