package warbots

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
)

// ErrMapGeneration means homeworld placement could not satisfy the
// spacing constraints; the caller should retry with another seed or a
// bigger board.
var ErrMapGeneration = errors.New("map generation failed")

const (
	homeworldMinDist      = 10.0
	planetMinDist         = 4.5
	planetDensity         = 0.10
	homeworldAttempts     = 1000
	homeworldEdgeFraction = 0.10
	startingCredits       = 50
)

func euclid(x1, y1, x2, y2 int) float64 {
	dx := float64(x1 - x2)
	dy := float64(y1 - y2)
	return math.Sqrt(dx*dx + dy*dy)
}

// GenerateMap builds the initial GameState for the given players:
// one homeworld per player with a factory and a two-mech garrison,
// plus neutral planets scattered to roughly 10% tile density.
func GenerateMap(gridSize int, playerNums []int, rng *rand.Rand) (*GameState, error) {
	if !ValidGridSize(gridSize) {
		return nil, fmt.Errorf("%w: bad grid size %d", ErrMapGeneration, gridSize)
	}
	gs := &GameState{GridSize: gridSize, Turn: 1}
	for _, num := range playerNums {
		gs.Players = append(gs.Players, PlayerState{Num: num, Credits: startingCredits})
	}
	names := newNamePool(rng)

	margin := int(float64(gridSize) * homeworldEdgeFraction)
	if margin < 1 {
		margin = 1
	}
	type point struct{ x, y int }
	var homes []point
	for _, num := range playerNums {
		placed := false
		for attempt := 0; attempt < homeworldAttempts; attempt++ {
			var x, y int
			if attempt < homeworldAttempts/2 {
				// Bias the first half of attempts toward the board edge.
				switch rng.Intn(4) {
				case 0:
					x, y = rng.Intn(margin), rng.Intn(gridSize)
				case 1:
					x, y = gridSize-1-rng.Intn(margin), rng.Intn(gridSize)
				case 2:
					x, y = rng.Intn(gridSize), rng.Intn(margin)
				default:
					x, y = rng.Intn(gridSize), gridSize-1-rng.Intn(margin)
				}
			} else {
				x, y = rng.Intn(gridSize), rng.Intn(gridSize)
			}
			ok := true
			for _, h := range homes {
				if euclid(x, y, h.x, h.y) < homeworldMinDist {
					ok = false
					break
				}
			}
			if !ok {
				continue
			}
			homes = append(homes, point{x, y})
			p := gs.addPlanet(names.take(), x, y, HomeworldIncome)
			p.Owner = num
			p.Homeworld = true
			p.OriginalOwner = num
			gs.addBuilding(p, BuildingFactory)
			gs.addMech(num, MechLight, x, y)
			gs.addMech(num, MechLight, x, y)
			placed = true
			break
		}
		if !placed {
			return nil, fmt.Errorf("%w: could not place homeworld for player %d", ErrMapGeneration, num)
		}
	}

	target := int(float64(gridSize*gridSize)*planetDensity) - len(playerNums)
	attempts := 0
	for placed := 0; placed < target && attempts < 100*target; attempts++ {
		x, y := rng.Intn(gridSize), rng.Intn(gridSize)
		ok := true
		for i := range gs.Planets {
			if euclid(x, y, gs.Planets[i].X, gs.Planets[i].Y) < planetMinDist {
				ok = false
				break
			}
		}
		if !ok {
			continue
		}
		gs.addPlanet(names.take(), x, y, 1+rng.Intn(3))
		placed++
	}
	return gs, nil
}

func (gs *GameState) addPlanet(name string, x, y, income int) *Planet {
	gs.Planets = append(gs.Planets, Planet{
		ID:         len(gs.Planets) + 1,
		Name:       name,
		X:          x,
		Y:          y,
		BaseIncome: income,
	})
	return &gs.Planets[len(gs.Planets)-1]
}
