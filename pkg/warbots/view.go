package warbots

// PlayerView is the fog-of-war-filtered projection of a GameState for
// one player. Humans receive it over the state endpoint; AI strategies
// consume the same structure, so neither sees more than the other.
type PlayerView struct {
	Player       int      `json:"player"`
	GridSize     int      `json:"gridSize"`
	Turn         int      `json:"turn"`
	Credits      int      `json:"credits"`
	Income       int      `json:"income"`
	Maintenance  int      `json:"maintenance"`
	Planets      []Planet `json:"planets"`
	Mechs        []Mech   `json:"mechs"`
	VisibleTiles []Tile   `json:"visibleTiles"`
}

// BuildView projects gs down to what the given player can see: every
// owned holding in full, plus any enemy or neutral planet and enemy
// mech standing on a visible tile.
func BuildView(gs *GameState, player int) PlayerView {
	vis := gs.Visible(player)
	v := PlayerView{
		Player:      player,
		GridSize:    gs.GridSize,
		Turn:        gs.Turn,
		Maintenance: gs.Maintenance(player),
		Income:      gs.Income(player),
	}
	if pl := gs.PlayerByNum(player); pl != nil {
		v.Credits = pl.Credits
	}
	for _, p := range gs.Planets {
		if p.Owner == player {
			v.Planets = append(v.Planets, p)
			continue
		}
		if vis[Tile{X: p.X, Y: p.Y}] {
			// Foreign planets are visible in outline only; their
			// structures stay hidden.
			p.Buildings = nil
			v.Planets = append(v.Planets, p)
		}
	}
	for _, m := range gs.Mechs {
		if m.Owner == player || vis[Tile{X: m.X, Y: m.Y}] {
			v.Mechs = append(v.Mechs, m)
		}
	}
	v.VisibleTiles = gs.VisibleTiles(player)
	return v
}
