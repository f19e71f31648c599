package ai

import (
	"github.com/warbots/server/pkg/warbots"
)

// InfestorStrategy swarms: cheap lights and mediums at a 2:1 ratio out
// of as many factories as it can stand up, spread across the board so
// the swarm touches everything.
type InfestorStrategy struct{}

func (InfestorStrategy) Name() string { return "infestor" }

func (s *InfestorStrategy) ProduceOrders(v *warbots.PlayerView) warbots.Orders {
	var o warbots.Orders
	s.builds(v, &o)
	s.moves(v, &o)
	return o
}

func (s *InfestorStrategy) builds(v *warbots.PlayerView, o *warbots.Orders) {
	q := newBuildQueue(o, v.Credits)
	counts := countByType(v)
	owned := ownedPlanets(v)

	factories := 0
	for _, p := range owned {
		if p.HasBuilding(warbots.BuildingFactory) {
			factories++
		}
	}
	// One factory per two planets keeps production ahead of the swarm.
	if factories*2 < len(owned) {
		for _, p := range owned {
			if !p.HasBuilding(warbots.BuildingFactory) && q.building(p, warbots.BuildingFactory) {
				break
			}
		}
	}

	for _, p := range owned {
		if counts[warbots.MechLight] <= 2*counts[warbots.MechMedium] {
			if q.mech(p, warbots.MechLight) {
				counts[warbots.MechLight]++
				continue
			}
		}
		if q.mech(p, warbots.MechMedium) {
			counts[warbots.MechMedium]++
		}
	}
}

// moves pushes every mech outward: distinct targets where possible,
// frontier exploration when the map runs out of visible prizes.
func (s *InfestorStrategy) moves(v *warbots.PlayerView, o *warbots.Orders) {
	vis := visibleSet(v)
	claimed := make(map[int]bool)
	mechs := ownMechs(v)
	order := aiPerm(len(mechs))

	for _, i := range order {
		m := mechs[i]
		targets := targetPlanets(v, m.X, m.Y)
		if dst, ok := nextUnclaimed(targets, claimed); ok && warbots.Chebyshev(m.X, m.Y, dst.X, dst.Y) > 0 {
			claimed[dst.ID] = true
			moveMech(o, v.GridSize, m, dst.X, dst.Y)
			continue
		}
		nx, ny := frontierStep(v, vis, m.X, m.Y)
		if nx != m.X || ny != m.Y {
			o.Moves = append(o.Moves, warbots.MoveOrder{MechID: m.ID, ToX: nx, ToY: ny})
		}
	}
}
