package ai

import (
	"github.com/warbots/server/pkg/warbots"
)

// GenericStrategy is the budget-adaptive default: fortify the economy,
// then spend whatever is left on the biggest affordable chassis. It
// switches to a homeworld-reclaim posture when the capital falls and
// to a finisher posture when a visible enemy is nearly dead.
type GenericStrategy struct{}

func (GenericStrategy) Name() string { return "generic" }

func (s *GenericStrategy) ProduceOrders(v *warbots.PlayerView) warbots.Orders {
	var o warbots.Orders
	s.builds(v, &o)

	if home, lost := s.lostHomeworld(v); lost {
		s.marchAll(v, &o, home.X, home.Y)
		return o
	}
	if prey, ok := s.weakEnemy(v); ok {
		s.marchAll(v, &o, prey.X, prey.Y)
		return o
	}
	s.moves(v, &o)
	return o
}

func (s *GenericStrategy) builds(v *warbots.PlayerView, o *warbots.Orders) {
	q := newBuildQueue(o, v.Credits)

	// Keep a maintenance reserve so a bad turn does not starve the army.
	reserve := v.Maintenance
	for _, p := range ownedPlanets(v) {
		if q.credits-warbots.BuildingCost(warbots.BuildingFortification) >= reserve && p.Homeworld {
			q.building(p, warbots.BuildingFortification)
		}
		if q.credits-warbots.BuildingCost(warbots.BuildingMining) >= reserve {
			q.building(p, warbots.BuildingMining)
		}
	}
	for _, p := range ownedPlanets(v) {
		for _, t := range []warbots.MechType{warbots.MechAssault, warbots.MechHeavy, warbots.MechMedium, warbots.MechLight} {
			if q.credits-warbots.StatsFor(t).Cost < reserve {
				continue
			}
			if q.mech(p, t) {
				break
			}
		}
	}
}

// lostHomeworld reports whether the player's original capital is
// visible under someone else's flag.
func (s *GenericStrategy) lostHomeworld(v *warbots.PlayerView) (warbots.Planet, bool) {
	for _, p := range v.Planets {
		if p.Homeworld && p.OriginalOwner == v.Player && p.Owner != v.Player {
			return p, true
		}
	}
	return warbots.Planet{}, false
}

// weakEnemy finds a visible enemy down to a couple of mechs that our
// force can roll over.
func (s *GenericStrategy) weakEnemy(v *warbots.PlayerView) (warbots.Tile, bool) {
	byOwner := make(map[int][]warbots.Mech)
	for _, m := range enemyMechs(v) {
		byOwner[m.Owner] = append(byOwner[m.Owner], m)
	}
	mine := groupStrength(ownMechs(v))
	for _, ms := range byOwner {
		if len(ms) <= 2 && mine >= 2*groupStrength(ms) {
			return warbots.Tile{X: ms[0].X, Y: ms[0].Y}, true
		}
	}
	return warbots.Tile{}, false
}

func (s *GenericStrategy) marchAll(v *warbots.PlayerView, o *warbots.Orders, tx, ty int) {
	for _, m := range ownMechs(v) {
		moveMech(o, v.GridSize, m, tx, ty)
	}
}

func (s *GenericStrategy) moves(v *warbots.PlayerView, o *warbots.Orders) {
	vis := visibleSet(v)
	for _, m := range ownMechs(v) {
		targets := targetPlanets(v, m.X, m.Y)
		if m.Type == warbots.MechLight {
			nx, ny := frontierStep(v, vis, m.X, m.Y)
			if nx != m.X || ny != m.Y {
				o.Moves = append(o.Moves, warbots.MoveOrder{MechID: m.ID, ToX: nx, ToY: ny})
			}
			continue
		}
		if len(targets) > 0 {
			moveMech(o, v.GridSize, m, targets[0].X, targets[0].Y)
		}
	}
}
