package catalog

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ConversionMode selects how a value scales when its unit changes.
type ConversionMode string

const (
	// ModeQuantity scales an amount of stock: 2 bags -> 100 kg.
	ModeQuantity ConversionMode = "quantity"
	// ModeRate scales a value expressed per unit: 1000/bag -> 20/kg.
	ModeRate ConversionMode = "rate"
)

// IsValid reports whether m is a known mode
func (m ConversionMode) IsValid() bool {
	return m == ModeQuantity || m == ModeRate
}

// Factor is a composed conversion kept as a fraction so that chained
// conversions divide exactly once when applied.
// One unit of the source equals Num/Den units of the target.
type Factor struct {
	Num decimal.Decimal
	Den decimal.Decimal
}

// IdentityFactor converts a unit into itself
func IdentityFactor() Factor {
	one := decimal.NewFromInt(1)
	return Factor{Num: one, Den: one}
}

// Value collapses the fraction into a single decimal
func (f Factor) Value() decimal.Decimal {
	return f.Num.Div(f.Den)
}

// Inverse swaps the direction of the factor
func (f Factor) Inverse() Factor {
	return Factor{Num: f.Den, Den: f.Num}
}

// ApplyQuantity converts an amount of stock
func (f Factor) ApplyQuantity(q decimal.Decimal) decimal.Decimal {
	return q.Mul(f.Num).Div(f.Den)
}

// ApplyRate converts a per-unit value such as a price or a profit margin
func (f Factor) ApplyRate(r decimal.Decimal) decimal.Decimal {
	return r.Mul(f.Den).Div(f.Num)
}

type unitEdge struct {
	to      uuid.UUID
	factor  decimal.Decimal
	forward bool
}

// UnitGraph is the conversion graph built from a set of units. Each stored
// factor contributes an edge in both directions.
type UnitGraph struct {
	units map[uuid.UUID]*Unit
	edges map[uuid.UUID][]unitEdge
}

// NewUnitGraph indexes units and their stored factors
func NewUnitGraph(units []Unit) *UnitGraph {
	g := &UnitGraph{
		units: make(map[uuid.UUID]*Unit, len(units)),
		edges: make(map[uuid.UUID][]unitEdge, len(units)),
	}
	for i := range units {
		u := &units[i]
		g.units[u.ID] = u
	}
	for _, u := range g.units {
		if !u.StoresFactor() {
			continue
		}
		opp, ok := g.units[*u.OppositeUnitID]
		if !ok || opp.ProductID != u.ProductID {
			continue
		}
		g.edges[u.ID] = append(g.edges[u.ID], unitEdge{to: opp.ID, factor: *u.ConversionFactor, forward: true})
		g.edges[opp.ID] = append(g.edges[opp.ID], unitEdge{to: u.ID, factor: *u.ConversionFactor, forward: false})
	}
	return g
}

// Unit returns a unit in the graph by ID
func (g *UnitGraph) Unit(id uuid.UUID) (*Unit, bool) {
	u, ok := g.units[id]
	return u, ok
}

// Factor finds the composed factor between two units by breadth-first
// search over stored pairs.
// Returns ErrUnitNotDefined for units outside the graph and
// ErrIncompatibleUnits when no path exists or products differ.
func (g *UnitGraph) Factor(from, to uuid.UUID) (Factor, error) {
	src, ok := g.units[from]
	if !ok {
		return Factor{}, unitNotDefined(from)
	}
	dst, ok := g.units[to]
	if !ok {
		return Factor{}, unitNotDefined(to)
	}
	if from == to {
		return IdentityFactor(), nil
	}
	if src.ProductID != dst.ProductID {
		return Factor{}, incompatible(src, dst)
	}

	type step struct {
		id     uuid.UUID
		factor Factor
	}
	visited := map[uuid.UUID]bool{from: true}
	queue := []step{{id: from, factor: IdentityFactor()}}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		for _, e := range g.edges[cur.id] {
			if visited[e.to] {
				continue
			}
			if e.factor.IsZero() {
				panic(fmt.Sprintf("catalog: unit pair %s/%s stores a zero conversion factor", cur.id, e.to))
			}
			next := cur.factor
			if e.forward {
				next.Num = next.Num.Mul(e.factor)
			} else {
				next.Den = next.Den.Mul(e.factor)
			}
			if e.to == to {
				return next, nil
			}
			visited[e.to] = true
			queue = append(queue, step{id: e.to, factor: next})
		}
	}

	return Factor{}, incompatible(src, dst)
}

// ConvertQuantity converts q units of from into units of to.
// Converting a unit into itself returns q unchanged.
func (g *UnitGraph) ConvertQuantity(q decimal.Decimal, from, to uuid.UUID) (decimal.Decimal, error) {
	return g.Convert(q, from, to, ModeQuantity)
}

// ConvertRate converts a value expressed per unit of from into a value per unit of to.
func (g *UnitGraph) ConvertRate(r decimal.Decimal, from, to uuid.UUID) (decimal.Decimal, error) {
	return g.Convert(r, from, to, ModeRate)
}

// Convert dispatches on mode
func (g *UnitGraph) Convert(v decimal.Decimal, from, to uuid.UUID, mode ConversionMode) (decimal.Decimal, error) {
	f, err := g.Factor(from, to)
	if err != nil {
		return decimal.Zero, err
	}
	if from == to {
		return v, nil
	}
	if mode == ModeRate {
		return f.ApplyRate(v), nil
	}
	return f.ApplyQuantity(v), nil
}

func unitNotDefined(id uuid.UUID) error {
	return shared.NewDomainError(shared.CodeUnitNotDefined, fmt.Sprintf("Unit %s is not defined", id))
}

func incompatible(a, b *Unit) error {
	return shared.NewDomainError(shared.CodeIncompatibleUnits, fmt.Sprintf("Cannot convert between %s and %s", a.TypeName, b.TypeName))
}
