package warbots

import (
	"encoding/json"
	"testing"
)

// twoPlayerState builds a minimal 25x25 board: each player has a
// homeworld with a factory and one light mech parked on it.
func twoPlayerState() *GameState {
	gs := &GameState{
		GridSize: 25,
		Turn:     1,
		Players: []PlayerState{
			{Num: 1, Credits: 50},
			{Num: 2, Credits: 50},
		},
		Planets: []Planet{
			{ID: 1, Name: "Arcadia", X: 2, Y: 2, BaseIncome: 5, Owner: 1, Homeworld: true, OriginalOwner: 1,
				Buildings: []Building{{ID: 1, Type: BuildingFactory}}},
			{ID: 2, Name: "Erebus", X: 22, Y: 22, BaseIncome: 5, Owner: 2, Homeworld: true, OriginalOwner: 2,
				Buildings: []Building{{ID: 2, Type: BuildingFactory}}},
		},
		Mechs: []Mech{
			{ID: 1, Owner: 1, Type: MechLight, HP: 6, X: 2, Y: 2, Designation: "Light-0001"},
			{ID: 2, Owner: 2, Type: MechLight, HP: 6, X: 22, Y: 22, Designation: "Light-0001"},
		},
		NextMechID:     2,
		NextBuildingID: 2,
	}
	return gs
}

func TestGameState_Clone_Independent(t *testing.T) {
	gs := twoPlayerState()
	c := gs.Clone()

	if c.GridSize != gs.GridSize || c.Turn != gs.Turn {
		t.Fatal("cloned scalars do not match original")
	}

	gs.Mechs[0].X = 9
	if c.Mechs[0].X != 2 {
		t.Error("clone mechs should be independent of original")
	}

	c.Planets[0].Buildings = append(c.Planets[0].Buildings, Building{ID: 99, Type: BuildingMining})
	if len(gs.Planets[0].Buildings) != 1 {
		t.Error("original buildings should be independent of clone")
	}

	gs.Players[0].Credits = 0
	if c.Players[0].Credits != 50 {
		t.Error("clone players should be independent of original")
	}
}

func TestGameState_Clone_NilSlices(t *testing.T) {
	gs := &GameState{GridSize: 25, Turn: 1}
	c := gs.Clone()
	if c.Mechs != nil || c.Planets != nil || c.Players != nil {
		t.Error("clone of nil slices should stay nil")
	}
}

func TestGameState_JSONRoundTrip(t *testing.T) {
	gs := twoPlayerState()
	data, err := json.Marshal(gs)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back GameState
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.GridSize != 25 || len(back.Mechs) != 2 || len(back.Planets) != 2 {
		t.Errorf("round trip lost state: %+v", back)
	}
	if back.Mechs[0].Designation != "Light-0001" {
		t.Errorf("expected designation Light-0001, got %s", back.Mechs[0].Designation)
	}
}

func TestGameState_IncomeAndMaintenance(t *testing.T) {
	gs := twoPlayerState()
	gs.Planets[0].Buildings = append(gs.Planets[0].Buildings, Building{ID: 3, Type: BuildingMining})

	if got := gs.Income(1); got != 7 {
		t.Errorf("expected income 7 (base 5 + mining 2), got %d", got)
	}
	if got := gs.Income(2); got != 5 {
		t.Errorf("expected income 5, got %d", got)
	}

	gs.addMech(1, MechAssault, 2, 2)
	if got := gs.Maintenance(1); got != 5 {
		t.Errorf("expected maintenance 5 (light 1 + assault 4), got %d", got)
	}
}

func TestGameState_Designations_Monotonic(t *testing.T) {
	gs := twoPlayerState()

	m := gs.addMech(1, MechLight, 2, 2)
	if m.Designation != "Light-0002" {
		t.Errorf("expected Light-0002, got %s", m.Designation)
	}

	// Losing an earlier mech must not cause serial reuse.
	gs.Mechs = gs.Mechs[1:]
	m = gs.addMech(1, MechLight, 2, 2)
	if m.Designation != "Light-0003" {
		t.Errorf("expected Light-0003 after a loss, got %s", m.Designation)
	}

	// Serials are tracked per (owner, type).
	m = gs.addMech(1, MechHeavy, 2, 2)
	if m.Designation != "Heavy-0001" {
		t.Errorf("expected Heavy-0001, got %s", m.Designation)
	}
	m = gs.addMech(2, MechLight, 22, 22)
	if m.Designation != "Light-0002" {
		t.Errorf("expected Light-0002 for player 2, got %s", m.Designation)
	}
}

func TestFormatDesignation_WideSerials(t *testing.T) {
	if got := FormatDesignation(MechAssault, 7); got != "Assault-0007" {
		t.Errorf("got %s", got)
	}
	if got := FormatDesignation(MechMedium, 12345); got != "Medium-12345" {
		t.Errorf("serials past 9999 should not truncate, got %s", got)
	}
}

func TestAddBuilding_FortStartsAtFullHP(t *testing.T) {
	gs := twoPlayerState()
	b := gs.addBuilding(&gs.Planets[0], BuildingFortification)
	if b.HP != FortificationMaxHP {
		t.Errorf("expected fort hp %d, got %d", FortificationMaxHP, b.HP)
	}
	if gs.Planets[0].Fortification() == nil {
		t.Error("fortification not attached to planet")
	}
}
