package ai

import (
	"github.com/warbots/server/pkg/warbots"
)

// DefensiveStrategy turtles: fortifications everywhere, a small scout
// screen, and sorties only in overwhelming force against targets that
// cannot shoot back.
type DefensiveStrategy struct{}

const (
	defensiveScoutCap   = 5
	defensiveSortieSize = 6
)

func (DefensiveStrategy) Name() string { return "defensive" }

func (s *DefensiveStrategy) ProduceOrders(v *warbots.PlayerView) warbots.Orders {
	var o warbots.Orders
	s.builds(v, &o)
	s.moves(v, &o)
	return o
}

func (s *DefensiveStrategy) builds(v *warbots.PlayerView, o *warbots.Orders) {
	q := newBuildQueue(o, v.Credits)
	counts := countByType(v)

	// Forts first, on every owned planet that lacks one.
	for _, p := range ownedPlanets(v) {
		q.building(p, warbots.BuildingFortification)
	}
	for _, p := range ownedPlanets(v) {
		if counts[warbots.MechLight] < defensiveScoutCap {
			if q.mech(p, warbots.MechLight) {
				counts[warbots.MechLight]++
				continue
			}
		}
		if counts[warbots.MechHeavy] <= counts[warbots.MechMedium] {
			if q.mech(p, warbots.MechHeavy) {
				counts[warbots.MechHeavy]++
			}
		} else if q.mech(p, warbots.MechMedium) {
			counts[warbots.MechMedium]++
		}
	}
}

func (s *DefensiveStrategy) moves(v *warbots.PlayerView, o *warbots.Orders) {
	vis := visibleSet(v)
	target, sortie := s.sortieTarget(v)

	for t, group := range stacks(v) {
		offensive := 0
		for _, m := range group {
			if m.Type != warbots.MechLight {
				offensive++
			}
		}

		for _, m := range group {
			if m.Type == warbots.MechLight {
				nx, ny := frontierStep(v, vis, m.X, m.Y)
				if nx != m.X || ny != m.Y {
					o.Moves = append(o.Moves, warbots.MoveOrder{MechID: m.ID, ToX: nx, ToY: ny})
				}
				continue
			}
			if sortie && offensive >= defensiveSortieSize {
				moveMech(o, v.GridSize, m, target.X, target.Y)
				continue
			}
			// Garrison duty: stand on the nearest owned planet.
			if home, ok := s.nearestOwned(v, t); ok {
				moveMech(o, v.GridSize, m, home.X, home.Y)
			}
		}
	}
}

// sortieTarget picks a visible enemy or neutral planet with no mechs
// standing on it. Defensive sorties only hit undefended ground.
func (s *DefensiveStrategy) sortieTarget(v *warbots.PlayerView) (warbots.Planet, bool) {
	occupied := make(map[warbots.Tile]bool)
	for _, m := range enemyMechs(v) {
		occupied[warbots.Tile{X: m.X, Y: m.Y}] = true
	}
	for _, p := range v.Planets {
		if p.Owner == v.Player {
			continue
		}
		if !occupied[warbots.Tile{X: p.X, Y: p.Y}] {
			return p, true
		}
	}
	return warbots.Planet{}, false
}

func (s *DefensiveStrategy) nearestOwned(v *warbots.PlayerView, from warbots.Tile) (warbots.Planet, bool) {
	var best warbots.Planet
	bestDist := -1
	for _, p := range ownedPlanets(v) {
		d := warbots.Chebyshev(from.X, from.Y, p.X, p.Y)
		if bestDist == -1 || d < bestDist {
			best, bestDist = p, d
		}
	}
	return best, bestDist != -1
}
