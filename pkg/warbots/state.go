package warbots

import "errors"

var errBadDesignation = errors.New("malformed designation")

// GameStatus represents the overall game status.
type GameStatus string

const (
	StatusWaiting  GameStatus = "waiting"
	StatusActive   GameStatus = "active"
	StatusFinished GameStatus = "finished"
)

// Valid grid sizes for a game board.
var GridSizes = []int{25, 50, 100}

// ValidGridSize reports whether g is an allowed board size.
func ValidGridSize(g int) bool {
	for _, s := range GridSizes {
		if s == g {
			return true
		}
	}
	return false
}

// PlayerState is the engine-visible slice of a player: economy and
// liveness. Identity (user, empire name, color) lives outside the engine.
type PlayerState struct {
	Num        int  `json:"num"`
	Credits    int  `json:"credits"`
	Eliminated bool `json:"eliminated,omitempty"`
}

// GameState is a complete, self-contained snapshot of a game board.
// It is JSON-serializable and all engine functions operate on it
// without touching any external store.
type GameState struct {
	GridSize       int           `json:"grid_size"`
	Turn           int           `json:"turn"`
	Players        []PlayerState `json:"players"`
	Planets        []Planet      `json:"planets"`
	Mechs          []Mech        `json:"mechs"`
	NextMechID     int           `json:"next_mech_id"`
	NextBuildingID int           `json:"next_building_id"`
}

// InBounds reports whether (x,y) lies on the board.
func (gs *GameState) InBounds(x, y int) bool {
	return x >= 0 && x < gs.GridSize && y >= 0 && y < gs.GridSize
}

// PlayerByNum returns the player with the given number, or nil.
func (gs *GameState) PlayerByNum(num int) *PlayerState {
	for i := range gs.Players {
		if gs.Players[i].Num == num {
			return &gs.Players[i]
		}
	}
	return nil
}

// MechByID returns the mech with the given id, or nil.
func (gs *GameState) MechByID(id int) *Mech {
	for i := range gs.Mechs {
		if gs.Mechs[i].ID == id {
			return &gs.Mechs[i]
		}
	}
	return nil
}

// PlanetByID returns the planet with the given id, or nil.
func (gs *GameState) PlanetByID(id int) *Planet {
	for i := range gs.Planets {
		if gs.Planets[i].ID == id {
			return &gs.Planets[i]
		}
	}
	return nil
}

// PlanetAt returns the planet on tile (x,y), or nil.
func (gs *GameState) PlanetAt(x, y int) *Planet {
	for i := range gs.Planets {
		if gs.Planets[i].X == x && gs.Planets[i].Y == y {
			return &gs.Planets[i]
		}
	}
	return nil
}

// MechsAt returns the indexes into gs.Mechs of all mechs on tile (x,y).
func (gs *GameState) MechsAt(x, y int) []int {
	var idx []int
	for i := range gs.Mechs {
		if gs.Mechs[i].X == x && gs.Mechs[i].Y == y {
			idx = append(idx, i)
		}
	}
	return idx
}

// MechsOf returns copies of all mechs owned by the given player.
func (gs *GameState) MechsOf(num int) []Mech {
	var out []Mech
	for _, m := range gs.Mechs {
		if m.Owner == num {
			out = append(out, m)
		}
	}
	return out
}

// PlanetsOf returns copies of all planets owned by the given player.
func (gs *GameState) PlanetsOf(num int) []Planet {
	var out []Planet
	for _, p := range gs.Planets {
		if p.Owner == num {
			out = append(out, p)
		}
	}
	return out
}

// MechCount returns the number of mechs owned by the given player.
func (gs *GameState) MechCount(num int) int {
	count := 0
	for _, m := range gs.Mechs {
		if m.Owner == num {
			count++
		}
	}
	return count
}

// PlanetCount returns the number of planets owned by the given player.
func (gs *GameState) PlanetCount(num int) int {
	count := 0
	for _, p := range gs.Planets {
		if p.Owner == num {
			count++
		}
	}
	return count
}

// Income returns the per-turn income of the given player: base income
// of owned planets plus the mining bonus.
func (gs *GameState) Income(num int) int {
	total := 0
	for i := range gs.Planets {
		p := &gs.Planets[i]
		if p.Owner != num {
			continue
		}
		total += p.BaseIncome
		if p.HasBuilding(BuildingMining) {
			total += MiningIncomeBonus
		}
	}
	return total
}

// Maintenance returns the per-turn upkeep cost of the player's mechs.
func (gs *GameState) Maintenance(num int) int {
	total := 0
	for _, m := range gs.Mechs {
		if m.Owner == num {
			total += mechStats[m.Type].Maintenance
		}
	}
	return total
}

// ActivePlayers returns the numbers of all non-eliminated players.
func (gs *GameState) ActivePlayers() []int {
	var nums []int
	for _, p := range gs.Players {
		if !p.Eliminated {
			nums = append(nums, p.Num)
		}
	}
	return nums
}

// nextDesignation allocates a fresh "Type-NNNN" serial for the
// (owner, type) pair: one past the highest existing serial.
func (gs *GameState) nextDesignation(owner int, t MechType) string {
	maxSerial := 0
	prefix := typeLabel(t) + "-"
	for _, m := range gs.Mechs {
		if m.Owner != owner || m.Type != t {
			continue
		}
		var serial int
		if n, err := parseSerial(m.Designation, prefix); err == nil {
			serial = n
		}
		if serial > maxSerial {
			maxSerial = serial
		}
	}
	return FormatDesignation(t, maxSerial+1)
}

func parseSerial(designation, prefix string) (int, error) {
	if len(designation) <= len(prefix) || designation[:len(prefix)] != prefix {
		return 0, errBadDesignation
	}
	n := 0
	for _, c := range designation[len(prefix):] {
		if c < '0' || c > '9' {
			return 0, errBadDesignation
		}
		n = n*10 + int(c-'0')
	}
	return n, nil
}

// addMech inserts a new mech with a fresh id and designation.
func (gs *GameState) addMech(owner int, t MechType, x, y int) *Mech {
	gs.NextMechID++
	gs.Mechs = append(gs.Mechs, Mech{
		ID:          gs.NextMechID,
		Owner:       owner,
		Type:        t,
		HP:          mechStats[t].MaxHP,
		X:           x,
		Y:           y,
		Designation: gs.nextDesignation(owner, t),
	})
	return &gs.Mechs[len(gs.Mechs)-1]
}

// addBuilding inserts a new structure on the planet.
func (gs *GameState) addBuilding(p *Planet, t BuildingType) *Building {
	gs.NextBuildingID++
	b := Building{ID: gs.NextBuildingID, Type: t}
	if t == BuildingFortification {
		b.HP = FortificationMaxHP
	}
	p.Buildings = append(p.Buildings, b)
	return &p.Buildings[len(p.Buildings)-1]
}

// Clone returns a deep copy of the GameState. Mutations to the clone
// do not affect the original; AI strategies and tests resolve turns on
// speculative copies.
func (gs *GameState) Clone() *GameState {
	c := &GameState{
		GridSize:       gs.GridSize,
		Turn:           gs.Turn,
		NextMechID:     gs.NextMechID,
		NextBuildingID: gs.NextBuildingID,
	}
	if gs.Players != nil {
		c.Players = make([]PlayerState, len(gs.Players))
		copy(c.Players, gs.Players)
	}
	if gs.Mechs != nil {
		c.Mechs = make([]Mech, len(gs.Mechs))
		copy(c.Mechs, gs.Mechs)
	}
	if gs.Planets != nil {
		c.Planets = make([]Planet, len(gs.Planets))
		for i, p := range gs.Planets {
			cp := p
			if p.Buildings != nil {
				cp.Buildings = make([]Building, len(p.Buildings))
				copy(cp.Buildings, p.Buildings)
			}
			c.Planets[i] = cp
		}
	}
	return c
}
