package ai

import (
	"github.com/warbots/server/pkg/warbots"
)

// ExpansionistStrategy grabs territory: a big scout screen claims
// neutral planets while 3-heavy-plus-1-assault strike groups punch
// through whatever holds the next one.
type ExpansionistStrategy struct{}

const (
	expansionistScoutTarget = 10
	strikeGroupHeavies      = 3
	strikeGroupSize         = 4
	attackMechsPerPlanet    = 4
)

func (ExpansionistStrategy) Name() string { return "expansionist" }

func (s *ExpansionistStrategy) ProduceOrders(v *warbots.PlayerView) warbots.Orders {
	var o warbots.Orders
	s.builds(v, &o)
	s.moves(v, &o)
	return o
}

func (s *ExpansionistStrategy) builds(v *warbots.PlayerView, o *warbots.Orders) {
	q := newBuildQueue(o, v.Credits)
	counts := countByType(v)
	attackCap := attackMechsPerPlanet * len(ownedPlanets(v))

	for _, p := range ownedPlanets(v) {
		if counts[warbots.MechLight] < expansionistScoutTarget {
			if q.mech(p, warbots.MechLight) {
				counts[warbots.MechLight]++
			}
			continue
		}
		if counts[warbots.MechHeavy]+counts[warbots.MechAssault] >= attackCap {
			continue
		}
		// Fill each strike group with heavies before adding its assault.
		if counts[warbots.MechHeavy] < strikeGroupHeavies*(counts[warbots.MechAssault]+1) {
			if q.mech(p, warbots.MechHeavy) {
				counts[warbots.MechHeavy]++
			}
		} else if q.mech(p, warbots.MechAssault) {
			counts[warbots.MechAssault]++
		}
	}
}

func (s *ExpansionistStrategy) moves(v *warbots.PlayerView, o *warbots.Orders) {
	vis := visibleSet(v)
	groups := make(map[warbots.Tile]bool)
	for _, t := range attackGroups(v, strikeGroupSize) {
		groups[t] = true
	}

	claimed := make(map[int]bool)
	for t, group := range stacks(v) {
		targets := targetPlanets(v, t.X, t.Y)
		for _, m := range group {
			if m.Type == warbots.MechLight {
				// Scouts fan out, each toward a different claimable planet.
				if dst, ok := nextUnclaimed(targets, claimed); ok {
					claimed[dst.ID] = true
					moveMech(o, v.GridSize, m, dst.X, dst.Y)
					continue
				}
				nx, ny := frontierStep(v, vis, m.X, m.Y)
				if nx != m.X || ny != m.Y {
					o.Moves = append(o.Moves, warbots.MoveOrder{MechID: m.ID, ToX: nx, ToY: ny})
				}
				continue
			}
			if groups[t] && len(targets) > 0 {
				moveMech(o, v.GridSize, m, targets[0].X, targets[0].Y)
				continue
			}
			// Heavies outside a full group converge on the nearest one.
			if dst, ok := nearestTile(t, groups); ok {
				moveMech(o, v.GridSize, m, dst.X, dst.Y)
			}
		}
	}
}

func nextUnclaimed(targets []warbots.Planet, claimed map[int]bool) (warbots.Planet, bool) {
	for _, p := range targets {
		if !claimed[p.ID] {
			return p, true
		}
	}
	if len(targets) > 0 {
		return targets[0], true
	}
	return warbots.Planet{}, false
}

func nearestTile(from warbots.Tile, set map[warbots.Tile]bool) (warbots.Tile, bool) {
	best := from
	bestDist := -1
	for t := range set {
		if t == from {
			continue
		}
		d := warbots.Chebyshev(from.X, from.Y, t.X, t.Y)
		if bestDist == -1 || d < bestDist {
			best, bestDist = t, d
		}
	}
	return best, bestDist != -1
}
