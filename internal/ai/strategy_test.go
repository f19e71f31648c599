package ai

import (
	"testing"

	"github.com/warbots/server/pkg/warbots"
)

// testState builds a 25x25 board where player 1 owns two factory
// planets, a small force, and can see a neutral planet and an enemy.
func testState() *warbots.GameState {
	return &warbots.GameState{
		GridSize: 25,
		Turn:     3,
		Players: []warbots.PlayerState{
			{Num: 1, Credits: 100},
			{Num: 2, Credits: 100},
		},
		Planets: []warbots.Planet{
			{ID: 1, Name: "Arcadia", X: 5, Y: 5, BaseIncome: 5, Owner: 1, Homeworld: true, OriginalOwner: 1,
				Buildings: []warbots.Building{{ID: 1, Type: warbots.BuildingFactory}}},
			{ID: 2, Name: "Vesta", X: 8, Y: 6, BaseIncome: 2, Owner: 1,
				Buildings: []warbots.Building{{ID: 2, Type: warbots.BuildingFactory}}},
			{ID: 3, Name: "Nyx", X: 7, Y: 8, BaseIncome: 3},
			{ID: 4, Name: "Erebus", X: 20, Y: 20, BaseIncome: 5, Owner: 2, Homeworld: true, OriginalOwner: 2},
		},
		Mechs: []warbots.Mech{
			{ID: 1, Owner: 1, Type: warbots.MechLight, HP: 6, X: 5, Y: 5, Designation: "Light-0001"},
			{ID: 2, Owner: 1, Type: warbots.MechHeavy, HP: 16, X: 8, Y: 6, Designation: "Heavy-0001"},
			{ID: 3, Owner: 1, Type: warbots.MechHeavy, HP: 16, X: 8, Y: 6, Designation: "Heavy-0002"},
			{ID: 4, Owner: 2, Type: warbots.MechLight, HP: 6, X: 7, Y: 7, Designation: "Light-0001"},
		},
		NextMechID:     4,
		NextBuildingID: 2,
	}
}

func testView(t *testing.T) *warbots.PlayerView {
	t.Helper()
	v := warbots.BuildView(testState(), 1)
	return &v
}

func TestForName(t *testing.T) {
	for _, name := range Names() {
		s := ForName(name)
		if s.Name() != name {
			t.Errorf("ForName(%q).Name() = %q", name, s.Name())
		}
	}
	if s := ForName("bogus"); s.Name() != "balanced" {
		t.Errorf("unknown tag should fall back to balanced, got %q", s.Name())
	}
}

// Every strategy's raw output must survive the keep-valid filter
// mostly intact: orders reference the player's own units, stay on the
// board, and respect the build budget.
func TestStrategies_ProduceFilterableOrders(t *testing.T) {
	SeedRng(1)
	defer ResetRng()

	gs := testState()
	for _, name := range Names() {
		s := ForName(name)
		v := warbots.BuildView(gs, 1)
		o := s.ProduceOrders(&v)

		kept, reasons := warbots.FilterOrders(gs, 1, o)
		if len(kept.Moves) != len(o.Moves) || len(kept.Builds) != len(o.Builds) {
			t.Errorf("%s: filter dropped orders: %v", name, reasons)
		}
		if o.BuildCost() > v.Credits {
			t.Errorf("%s: build cost %d exceeds credits %d", name, o.BuildCost(), v.Credits)
		}
		seen := make(map[int]bool)
		for _, mv := range o.Moves {
			if seen[mv.MechID] {
				t.Errorf("%s: duplicate move for mech %d", name, mv.MechID)
			}
			seen[mv.MechID] = true
		}
	}
}

func TestBalanced_BuildsScoutsFirst(t *testing.T) {
	SeedRng(2)
	defer ResetRng()

	v := testView(t)
	o := (&BalancedStrategy{}).ProduceOrders(v)

	lights := 0
	for _, b := range o.Builds {
		if b.Type == warbots.BuildMech && b.MechType == warbots.MechLight {
			lights++
		}
	}
	if lights == 0 {
		t.Error("balanced should open with scout production")
	}
}

func TestExpansionist_ScoutsFanOut(t *testing.T) {
	SeedRng(3)
	defer ResetRng()

	v := testView(t)
	o := (&ExpansionistStrategy{}).ProduceOrders(v)

	for _, b := range o.Builds {
		if b.Type == warbots.BuildMech && b.MechType != warbots.MechLight {
			t.Errorf("below the scout target only lights should be built, got %s", b.MechType)
		}
	}
}

func TestInfestor_SwarmRatio(t *testing.T) {
	SeedRng(4)
	defer ResetRng()

	v := testView(t)
	o := (&InfestorStrategy{}).ProduceOrders(v)

	for _, b := range o.Builds {
		if b.Type != warbots.BuildMech {
			continue
		}
		if b.MechType != warbots.MechLight && b.MechType != warbots.MechMedium {
			t.Errorf("infestor builds only lights and mediums, got %s", b.MechType)
		}
	}
	if len(o.Moves) == 0 {
		t.Error("the swarm should always be moving")
	}
}

func TestDefensive_FortsFirst(t *testing.T) {
	SeedRng(5)
	defer ResetRng()

	v := testView(t)
	o := (&DefensiveStrategy{}).ProduceOrders(v)

	forts := 0
	for _, b := range o.Builds {
		if b.Type == warbots.BuildBuilding && b.BuildingType == warbots.BuildingFortification {
			forts++
		}
	}
	if forts != 2 {
		t.Errorf("expected a fort queued on both owned planets, got %d", forts)
	}
}

func TestGeneric_ReclaimsLostHomeworld(t *testing.T) {
	SeedRng(6)
	defer ResetRng()

	gs := testState()
	// The capital has fallen but remains in sight of the survivors.
	gs.Planets[0].Owner = 2
	v := warbots.BuildView(gs, 1)
	o := (&GenericStrategy{}).ProduceOrders(&v)

	toward := 0
	for _, mv := range o.Moves {
		var m *warbots.Mech
		for i := range gs.Mechs {
			if gs.Mechs[i].ID == mv.MechID {
				m = &gs.Mechs[i]
			}
		}
		if m == nil {
			t.Fatalf("move for unknown mech %d", mv.MechID)
		}
		before := warbots.Chebyshev(m.X, m.Y, 5, 5)
		after := warbots.Chebyshev(mv.ToX, mv.ToY, 5, 5)
		if after < before {
			toward++
		}
	}
	if toward == 0 {
		t.Error("in reclaim mode every move should close on the lost capital")
	}
}

func TestStepToward(t *testing.T) {
	cases := []struct {
		x, y, tx, ty, wantX, wantY int
	}{
		{5, 5, 9, 9, 6, 6},
		{5, 5, 9, 5, 6, 5},
		{5, 5, 5, 1, 5, 4},
		{5, 5, 5, 5, 5, 5},
		{0, 0, 3, 0, 1, 0},
	}
	for _, c := range cases {
		gx, gy := stepToward(25, c.x, c.y, c.tx, c.ty)
		if gx != c.wantX || gy != c.wantY {
			t.Errorf("stepToward(%d,%d -> %d,%d) = (%d,%d), want (%d,%d)", c.x, c.y, c.tx, c.ty, gx, gy, c.wantX, c.wantY)
		}
	}
}

func TestFrontierStep_StaysOnBoard(t *testing.T) {
	SeedRng(7)
	defer ResetRng()

	v := testView(t)
	vis := visibleSet(v)
	nx, ny := frontierStep(v, vis, 0, 0)
	if nx < 0 || ny < 0 || nx >= v.GridSize || ny >= v.GridSize {
		t.Errorf("frontier step left the board: (%d,%d)", nx, ny)
	}
}
