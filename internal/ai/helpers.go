package ai

import (
	"sort"

	"github.com/warbots/server/pkg/warbots"
)

// Relative combat weight per chassis, used for attack thresholds.
var strengthOf = map[warbots.MechType]int{
	warbots.MechLight:   1,
	warbots.MechMedium:  2,
	warbots.MechHeavy:   3,
	warbots.MechAssault: 4,
}

func groupStrength(mechs []warbots.Mech) int {
	total := 0
	for _, m := range mechs {
		total += strengthOf[m.Type]
	}
	return total
}

func sign(n int) int {
	if n > 0 {
		return 1
	}
	if n < 0 {
		return -1
	}
	return 0
}

// stepToward returns the adjacent tile one Chebyshev step from (x,y)
// toward (tx,ty): diagonal when both axes differ, with an orthogonal
// fallback when the diagonal would leave the board.
func stepToward(gridSize, x, y, tx, ty int) (int, int) {
	sx, sy := sign(tx-x), sign(ty-y)
	if sx == 0 && sy == 0 {
		return x, y
	}
	nx, ny := x+sx, y+sy
	if inBounds(gridSize, nx, ny) {
		return nx, ny
	}
	if sx != 0 && inBounds(gridSize, x+sx, y) {
		return x + sx, y
	}
	if sy != 0 && inBounds(gridSize, x, y+sy) {
		return x, y + sy
	}
	return x, y
}

func inBounds(gridSize, x, y int) bool {
	return x >= 0 && x < gridSize && y >= 0 && y < gridSize
}

// visibleSet indexes the view's visible tiles for membership tests.
func visibleSet(v *warbots.PlayerView) map[warbots.Tile]bool {
	set := make(map[warbots.Tile]bool, len(v.VisibleTiles))
	for _, t := range v.VisibleTiles {
		set[t] = true
	}
	return set
}

// frontierStep picks the adjacent tile in the direction with the most
// unseen tiles within five steps, for scouts pushing back the fog.
func frontierStep(v *warbots.PlayerView, vis map[warbots.Tile]bool, x, y int) (int, int) {
	type dir struct{ dx, dy int }
	dirs := []dir{{1, 0}, {-1, 0}, {0, 1}, {0, -1}, {1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
	order := aiPerm(len(dirs))

	bestScore := -1
	bx, by := x, y
	for _, i := range order {
		d := dirs[i]
		nx, ny := x+d.dx, y+d.dy
		if !inBounds(v.GridSize, nx, ny) {
			continue
		}
		score := 0
		for ty := ny - 5; ty <= ny+5; ty++ {
			for tx := nx - 5; tx <= nx+5; tx++ {
				if inBounds(v.GridSize, tx, ty) && !vis[warbots.Tile{X: tx, Y: ty}] {
					score++
				}
			}
		}
		if score > bestScore {
			bestScore = score
			bx, by = nx, ny
		}
	}
	return bx, by
}

func ownMechs(v *warbots.PlayerView) []warbots.Mech {
	var out []warbots.Mech
	for _, m := range v.Mechs {
		if m.Owner == v.Player {
			out = append(out, m)
		}
	}
	return out
}

func enemyMechs(v *warbots.PlayerView) []warbots.Mech {
	var out []warbots.Mech
	for _, m := range v.Mechs {
		if m.Owner != v.Player {
			out = append(out, m)
		}
	}
	return out
}

func ownedPlanets(v *warbots.PlayerView) []warbots.Planet {
	var out []warbots.Planet
	for _, p := range v.Planets {
		if p.Owner == v.Player {
			out = append(out, p)
		}
	}
	return out
}

// targetPlanets returns visible planets not owned by the player,
// nearest to (x,y) first.
func targetPlanets(v *warbots.PlayerView, x, y int) []warbots.Planet {
	var out []warbots.Planet
	for _, p := range v.Planets {
		if p.Owner != v.Player {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		di := warbots.Chebyshev(x, y, out[i].X, out[i].Y)
		dj := warbots.Chebyshev(x, y, out[j].X, out[j].Y)
		if di != dj {
			return di < dj
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// countByType tallies the player's mechs per chassis.
func countByType(v *warbots.PlayerView) map[warbots.MechType]int {
	counts := make(map[warbots.MechType]int)
	for _, m := range ownMechs(v) {
		counts[m.Type]++
	}
	return counts
}

// stacks groups the player's mechs by tile.
func stacks(v *warbots.PlayerView) map[warbots.Tile][]warbots.Mech {
	out := make(map[warbots.Tile][]warbots.Mech)
	for _, m := range ownMechs(v) {
		t := warbots.Tile{X: m.X, Y: m.Y}
		out[t] = append(out[t], m)
	}
	return out
}

// attackGroups returns tiles where enough heavy and assault mechs are
// co-located to form a strike group of the given size.
func attackGroups(v *warbots.PlayerView, minSize int) []warbots.Tile {
	var tiles []warbots.Tile
	for t, ms := range stacks(v) {
		n := 0
		for _, m := range ms {
			if m.Type == warbots.MechHeavy || m.Type == warbots.MechAssault {
				n++
			}
		}
		if n >= minSize {
			tiles = append(tiles, t)
		}
	}
	sort.Slice(tiles, func(i, j int) bool {
		if tiles[i].Y != tiles[j].Y {
			return tiles[i].Y < tiles[j].Y
		}
		return tiles[i].X < tiles[j].X
	})
	return tiles
}

// moveMech appends a one-step move toward the target, skipping no-ops.
func moveMech(o *warbots.Orders, gridSize int, m warbots.Mech, tx, ty int) {
	nx, ny := stepToward(gridSize, m.X, m.Y, tx, ty)
	if nx == m.X && ny == m.Y {
		return
	}
	o.Moves = append(o.Moves, warbots.MoveOrder{MechID: m.ID, ToX: nx, ToY: ny})
}

// buildQueue tracks the running budget while queueing build orders.
type buildQueue struct {
	orders  *warbots.Orders
	credits int
	used    map[int]bool // planets that already queued a mech this turn
}

func newBuildQueue(o *warbots.Orders, credits int) *buildQueue {
	return &buildQueue{orders: o, credits: credits, used: make(map[int]bool)}
}

func (q *buildQueue) mech(p warbots.Planet, t warbots.MechType) bool {
	cost := warbots.StatsFor(t).Cost
	if q.used[p.ID] || !p.HasBuilding(warbots.BuildingFactory) || cost > q.credits {
		return false
	}
	q.credits -= cost
	q.used[p.ID] = true
	q.orders.Builds = append(q.orders.Builds, warbots.BuildOrder{
		PlanetID: p.ID,
		Type:     warbots.BuildMech,
		MechType: t,
	})
	return true
}

func (q *buildQueue) building(p warbots.Planet, t warbots.BuildingType) bool {
	cost := warbots.BuildingCost(t)
	if p.HasBuilding(t) || cost > q.credits {
		return false
	}
	q.credits -= cost
	q.orders.Builds = append(q.orders.Builds, warbots.BuildOrder{
		PlanetID:     p.ID,
		Type:         warbots.BuildBuilding,
		BuildingType: t,
	})
	return true
}
