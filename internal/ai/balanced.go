package ai

import (
	"github.com/warbots/server/pkg/warbots"
)

// BalancedStrategy runs a steady economy: a handful of scouts, a mixed
// main force at a 2:2:1 medium/heavy/assault ratio, and attacks only
// once a stack reaches striking strength.
type BalancedStrategy struct{}

const (
	balancedScoutTarget    = 7
	balancedAttackStrength = 4
)

func (BalancedStrategy) Name() string { return "balanced" }

func (s *BalancedStrategy) ProduceOrders(v *warbots.PlayerView) warbots.Orders {
	var o warbots.Orders
	s.builds(v, &o)
	s.moves(v, &o)
	return o
}

func (s *BalancedStrategy) builds(v *warbots.PlayerView, o *warbots.Orders) {
	q := newBuildQueue(o, v.Credits)
	counts := countByType(v)

	for _, p := range ownedPlanets(v) {
		// Mining pays for itself in five turns; grab it early.
		if v.Credits > 25 {
			q.building(p, warbots.BuildingMining)
		}
		if counts[warbots.MechLight] < balancedScoutTarget {
			if q.mech(p, warbots.MechLight) {
				counts[warbots.MechLight]++
			}
			continue
		}
		t := s.nextLinePiece(counts)
		if q.mech(p, t) {
			counts[t]++
		}
	}
}

// nextLinePiece keeps the main force near a 2:2:1 medium/heavy/assault mix.
func (s *BalancedStrategy) nextLinePiece(counts map[warbots.MechType]int) warbots.MechType {
	m, h, a := counts[warbots.MechMedium], counts[warbots.MechHeavy], counts[warbots.MechAssault]
	switch {
	case m <= h && m <= 2*a:
		return warbots.MechMedium
	case h <= 2*a:
		return warbots.MechHeavy
	default:
		return warbots.MechAssault
	}
}

func (s *BalancedStrategy) moves(v *warbots.PlayerView, o *warbots.Orders) {
	vis := visibleSet(v)
	for t, group := range stacks(v) {
		targets := targetPlanets(v, t.X, t.Y)
		strong := groupStrength(group) >= balancedAttackStrength

		for _, m := range group {
			if m.Type == warbots.MechLight && len(group) == 1 {
				// Lone scouts push the frontier.
				nx, ny := frontierStep(v, vis, m.X, m.Y)
				if nx != m.X || ny != m.Y {
					o.Moves = append(o.Moves, warbots.MoveOrder{MechID: m.ID, ToX: nx, ToY: ny})
				}
				continue
			}
			if strong && len(targets) > 0 {
				moveMech(o, v.GridSize, m, targets[0].X, targets[0].Y)
				continue
			}
			// Understrength stacks consolidate on the nearest one that
			// would tip them over the threshold.
			if rally, ok := s.rallyPoint(v, t); ok {
				moveMech(o, v.GridSize, m, rally.X, rally.Y)
			}
		}
	}
}

func (s *BalancedStrategy) rallyPoint(v *warbots.PlayerView, from warbots.Tile) (warbots.Tile, bool) {
	best := from
	bestDist := -1
	for t, group := range stacks(v) {
		if t == from || groupStrength(group) < balancedAttackStrength {
			continue
		}
		d := warbots.Chebyshev(from.X, from.Y, t.X, t.Y)
		if bestDist == -1 || d < bestDist {
			best, bestDist = t, d
		}
	}
	return best, bestDist != -1
}
