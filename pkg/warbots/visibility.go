package warbots

import "sort"

const (
	// PlanetSightRange is the Chebyshev radius an owned planet reveals.
	PlanetSightRange = 3
	// MechSightRange is the Chebyshev radius a mech reveals.
	MechSightRange = 2
)

// Tile is a board coordinate.
type Tile struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Visible returns the set of tiles the given player can currently see:
// a radius around every owned planet and every owned mech, clipped to
// the board.
func (gs *GameState) Visible(player int) map[Tile]bool {
	vis := make(map[Tile]bool)
	reveal := func(cx, cy, r int) {
		for y := cy - r; y <= cy+r; y++ {
			for x := cx - r; x <= cx+r; x++ {
				if gs.InBounds(x, y) {
					vis[Tile{X: x, Y: y}] = true
				}
			}
		}
	}
	for i := range gs.Planets {
		if gs.Planets[i].Owner == player {
			reveal(gs.Planets[i].X, gs.Planets[i].Y, PlanetSightRange)
		}
	}
	for i := range gs.Mechs {
		if gs.Mechs[i].Owner == player {
			reveal(gs.Mechs[i].X, gs.Mechs[i].Y, MechSightRange)
		}
	}
	return vis
}

// VisibleTiles returns the player's visible tiles sorted row-major,
// suitable for a stable wire representation.
func (gs *GameState) VisibleTiles(player int) []Tile {
	vis := gs.Visible(player)
	tiles := make([]Tile, 0, len(vis))
	for t := range vis {
		tiles = append(tiles, t)
	}
	sort.Slice(tiles, func(i, j int) bool {
		if tiles[i].Y != tiles[j].Y {
			return tiles[i].Y < tiles[j].Y
		}
		return tiles[i].X < tiles[j].X
	})
	return tiles
}
