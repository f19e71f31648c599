package warbots

import (
	"fmt"
	"math/rand"
	"sort"
)

// TurnResult is what turn resolution hands back to the caller: the
// event log for the turn and the end-of-game verdict, if any. The
// GameState itself is mutated in place.
type TurnResult struct {
	Logs     []Log
	Finished bool
	Winner   int
}

// ResolveTurn runs the resolution pipeline over gs with each player's
// collected orders: debt forgiveness, movement, combat, capture,
// builds, income, maintenance, repair, eliminations and the win check,
// then advances the turn counter unless the game just ended. Orders are
// assumed validated at submission time; ownership is re-verified here
// because the board has moved on since.
func ResolveTurn(gs *GameState, orders map[int]Orders, rng *rand.Rand) TurnResult {
	res := TurnResult{}
	turn := gs.Turn
	logf := func(l Log) {
		l.Turn = turn
		res.Logs = append(res.Logs, l)
	}

	for _, num := range gs.ActivePlayers() {
		logf(Log{Type: LogTurnStart, Player: num, Message: fmt.Sprintf("turn %d begins for player %d", turn, num)})
	}

	// Debt forgiveness: negative balances reset at pipeline entry.
	for i := range gs.Players {
		if gs.Players[i].Credits < 0 {
			gs.Players[i].Credits = 0
		}
	}

	resolveMovements(gs, orders)
	resolveCombat(gs, rng, logf)
	resolveCaptures(gs, rng, logf)
	resolveBuilds(gs, orders, logf)
	resolveIncome(gs, logf)
	failed := resolveMaintenance(gs, logf)
	resolveRepair(gs, failed, logf)
	resolveEliminations(gs, logf)

	if active := gs.ActivePlayers(); len(active) == 1 {
		res.Finished = true
		res.Winner = active[0]
		logf(Log{Type: LogVictory, Player: res.Winner, Message: fmt.Sprintf("player %d has won the game", res.Winner)})
		return res
	}

	gs.Turn++
	return res
}

// resolveMovements applies each player's moves in declaration order.
// Two mechs may legally end up on the same tile; co-location feeds
// combat.
func resolveMovements(gs *GameState, orders map[int]Orders) {
	for _, num := range playerOrder(orders) {
		for _, mv := range orders[num].Moves {
			m := gs.MechByID(mv.MechID)
			if m == nil || m.Owner != num {
				continue
			}
			if !gs.InBounds(mv.ToX, mv.ToY) || Chebyshev(m.X, m.Y, mv.ToX, mv.ToY) != 1 {
				continue
			}
			m.X, m.Y = mv.ToX, mv.ToY
		}
	}
}

// resolveCombat fights every tile holding mechs of two or more owners.
func resolveCombat(gs *GameState, rng *rand.Rand, logf func(Log)) {
	for _, t := range contestedTiles(gs) {
		forces := make(map[int][]Mech)
		for _, i := range gs.MechsAt(t.X, t.Y) {
			m := gs.Mechs[i]
			forces[m.Owner] = append(forces[m.Owner], m)
		}
		defender := 0
		fortHP := 0
		p := gs.PlanetAt(t.X, t.Y)
		if p != nil && p.Owner != 0 {
			defender = p.Owner
			if f := p.Fortification(); f != nil {
				fortHP = f.HP
			}
		}

		b := ResolveBattle(forces, defender, fortHP, rng)
		applyBattle(gs, t, p, b, logf)
	}
}

// resolveCaptures handles planets whose tile now hosts mechs of a
// single owner other than the planet's. A live fortification fights
// the intruders alone before the planet changes hands.
func resolveCaptures(gs *GameState, rng *rand.Rand, logf func(Log)) {
	for i := range gs.Planets {
		p := &gs.Planets[i]
		idx := gs.MechsAt(p.X, p.Y)
		if len(idx) == 0 {
			continue
		}
		intruder := gs.Mechs[idx[0]].Owner
		same := true
		for _, j := range idx {
			if gs.Mechs[j].Owner != intruder {
				same = false
				break
			}
		}
		if !same || intruder == p.Owner {
			continue
		}

		fort := p.Fortification()
		if p.Owner != 0 && fort != nil && fort.HP > 0 {
			forces := map[int][]Mech{intruder: nil}
			for _, j := range idx {
				forces[intruder] = append(forces[intruder], gs.Mechs[j])
			}
			b := ResolveBattle(forces, p.Owner, fort.HP, rng)
			applyBattle(gs, Tile{X: p.X, Y: p.Y}, p, b, logf)
			continue
		}

		capturePlanet(gs, p, intruder, logf)
	}
}

// applyBattle writes a battle result back into the state: mechs at the
// tile are replaced by the survivors, the fortification absorbs its
// damage, and the planet changes hands when the winner is a newcomer.
func applyBattle(gs *GameState, t Tile, p *Planet, b BattleResult, logf func(Log)) {
	kept := gs.Mechs[:0]
	for _, m := range gs.Mechs {
		if m.X == t.X && m.Y == t.Y {
			continue
		}
		kept = append(kept, m)
	}
	gs.Mechs = append(kept, b.Survivors...)

	if p != nil {
		if f := p.Fortification(); f != nil {
			if b.FortDestroyed {
				removeBuilding(p, f.ID)
			} else if b.FortHP < f.HP {
				f.HP = b.FortHP
			}
		}
	}

	logf(Log{
		Type:    LogBattle,
		Player:  b.Winner,
		X:       t.X,
		Y:       t.Y,
		Message: fmt.Sprintf("battle at (%d,%d): player %d prevails", t.X, t.Y, b.Winner),
		Detail: &BattleReport{
			Participants: b.Participants,
			Winner:       b.Winner,
			Casualties:   b.Casualties,
			Events:       b.Detail,
		},
	})

	if p != nil && b.Winner != 0 && b.Winner != p.Owner && len(b.Survivors) > 0 {
		capturePlanet(gs, p, b.Winner, logf)
	}
}

// capturePlanet transfers ownership and razes every building.
func capturePlanet(gs *GameState, p *Planet, newOwner int, logf func(Log)) {
	prev := p.Owner
	p.Owner = newOwner
	p.Buildings = nil
	msg := fmt.Sprintf("player %d captured %s from player %d", newOwner, p.Name, prev)
	if prev == 0 {
		msg = fmt.Sprintf("player %d claimed the unowned planet %s", newOwner, p.Name)
	}
	logf(Log{
		Type:    LogCapture,
		Player:  newOwner,
		X:       p.X,
		Y:       p.Y,
		Message: msg,
	})
}

func removeBuilding(p *Planet, id int) {
	for i := range p.Buildings {
		if p.Buildings[i].ID == id {
			p.Buildings = append(p.Buildings[:i], p.Buildings[i+1:]...)
			return
		}
	}
}

// resolveBuilds re-verifies and applies build orders, deducting costs.
// Balances may dip negative here; debt forgiveness squares them next
// turn.
func resolveBuilds(gs *GameState, orders map[int]Orders, logf func(Log)) {
	for _, num := range playerOrder(orders) {
		pl := gs.PlayerByNum(num)
		if pl == nil || pl.Eliminated {
			continue
		}
		mechBuilt := make(map[int]bool)
		for _, b := range orders[num].Builds {
			if err := validateBuild(gs, num, b, mechBuilt); err != nil {
				continue
			}
			p := gs.PlanetByID(b.PlanetID)
			pl.Credits -= b.Cost()
			switch b.Type {
			case BuildMech:
				mechBuilt[b.PlanetID] = true
				m := gs.addMech(num, b.MechType, p.X, p.Y)
				logf(Log{
					Type:    LogBuildMech,
					Player:  num,
					X:       p.X,
					Y:       p.Y,
					Message: fmt.Sprintf("player %d built %s at %s", num, m.Designation, p.Name),
				})
			case BuildBuilding:
				gs.addBuilding(p, b.BuildingType)
				logf(Log{
					Type:    LogBuildBuilding,
					Player:  num,
					X:       p.X,
					Y:       p.Y,
					Message: fmt.Sprintf("player %d built a %s on %s", num, b.BuildingType, p.Name),
				})
			}
		}
	}
}

func resolveIncome(gs *GameState, logf func(Log)) {
	for i := range gs.Players {
		pl := &gs.Players[i]
		if pl.Eliminated {
			continue
		}
		income := gs.Income(pl.Num)
		if income == 0 {
			continue
		}
		pl.Credits += income
		logf(Log{
			Type:    LogIncome,
			Player:  pl.Num,
			Amount:  income,
			Message: fmt.Sprintf("player %d collected %d credits", pl.Num, income),
		})
	}
}

// resolveMaintenance deducts upkeep and returns the set of players who
// could not pay; their mechs each lose 1 hp.
func resolveMaintenance(gs *GameState, logf func(Log)) map[int]bool {
	failed := make(map[int]bool)
	for i := range gs.Players {
		pl := &gs.Players[i]
		if pl.Eliminated {
			continue
		}
		upkeep := gs.Maintenance(pl.Num)
		if upkeep == 0 {
			continue
		}
		pl.Credits -= upkeep
		logf(Log{
			Type:    LogMaintenance,
			Player:  pl.Num,
			Amount:  upkeep,
			Message: fmt.Sprintf("player %d paid %d maintenance", pl.Num, upkeep),
		})
		if pl.Credits < 0 {
			failed[pl.Num] = true
			logf(Log{
				Type:    LogMaintenanceFailure,
				Player:  pl.Num,
				Message: fmt.Sprintf("player %d cannot cover maintenance; all units take damage", pl.Num),
			})
			kept := gs.Mechs[:0]
			for _, m := range gs.Mechs {
				if m.Owner == pl.Num {
					m.HP--
					if m.HP <= 0 {
						continue
					}
				}
				kept = append(kept, m)
			}
			gs.Mechs = kept
		}
	}
	return failed
}

// resolveRepair heals mechs parked on planets and fortifications,
// skipping players who failed maintenance this turn.
func resolveRepair(gs *GameState, failed map[int]bool, logf func(Log)) {
	for i := range gs.Planets {
		p := &gs.Planets[i]
		healed := 0
		for _, j := range gs.MechsAt(p.X, p.Y) {
			m := &gs.Mechs[j]
			if failed[m.Owner] || m.HP >= m.MaxHP() {
				continue
			}
			m.HP += MechRepairRate
			if m.HP > m.MaxHP() {
				m.HP = m.MaxHP()
			}
			healed++
		}
		if f := p.Fortification(); f != nil && p.Owner != 0 && !failed[p.Owner] && f.HP < FortificationMaxHP {
			f.HP += FortificationRepairRate
			if f.HP > FortificationMaxHP {
				f.HP = FortificationMaxHP
			}
			healed++
		}
		if healed > 0 {
			logf(Log{
				Type:    LogRepair,
				Player:  p.Owner,
				X:       p.X,
				Y:       p.Y,
				Amount:  healed,
				Message: fmt.Sprintf("%d units repaired at %s", healed, p.Name),
			})
		}
	}
}

func resolveEliminations(gs *GameState, logf func(Log)) {
	for i := range gs.Players {
		pl := &gs.Players[i]
		if pl.Eliminated {
			continue
		}
		if gs.PlanetCount(pl.Num) == 0 && gs.MechCount(pl.Num) == 0 {
			pl.Eliminated = true
			logf(Log{
				Type:    LogDefeat,
				Player:  pl.Num,
				Message: fmt.Sprintf("player %d has been eliminated", pl.Num),
			})
		}
	}
}

// contestedTiles returns every tile holding mechs of two or more
// owners, in stable row-major order.
func contestedTiles(gs *GameState) []Tile {
	owners := make(map[Tile]map[int]bool)
	for _, m := range gs.Mechs {
		t := Tile{X: m.X, Y: m.Y}
		if owners[t] == nil {
			owners[t] = make(map[int]bool)
		}
		owners[t][m.Owner] = true
	}
	var tiles []Tile
	for t, o := range owners {
		if len(o) >= 2 {
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

// playerOrder returns the order keys sorted ascending so resolution is
// deterministic regardless of map iteration.
func playerOrder(orders map[int]Orders) []int {
	nums := make([]int, 0, len(orders))
	for num := range orders {
		nums = append(nums, num)
	}
	sort.Ints(nums)
	return nums
}
