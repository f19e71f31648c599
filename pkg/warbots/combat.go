package warbots

import (
	"fmt"
	"math/rand"
)

const (
	// maxCombatRounds caps a single engagement; at the cap the standing
	// side holds the tile.
	maxCombatRounds = 20
	// Fort weapon dice.
	fortDiceCount = 2
	fortDiceSides = 6
)

// BattleEvent is one line of a battle transcript.
type BattleEvent struct {
	Round    int    `json:"round"`
	Kind     string `json:"kind"` // "round", "attack", "destroyed"
	Attacker string `json:"attacker,omitempty"`
	Target   string `json:"target,omitempty"`
	Player   int    `json:"player,omitempty"`
	Damage   int    `json:"damage,omitempty"`
	Message  string `json:"message"`
}

// BattleResult is the outcome of resolving one contested tile.
// Participants lists every player in the fight, the defender included
// even when it held the tile with a fortification alone.
type BattleResult struct {
	Winner        int
	Participants  []int
	Survivors     []Mech
	FortHP        int
	FortDestroyed bool
	Casualties    map[int]int
	Detail        []BattleEvent
}

func rollDice(rng *rand.Rand, count, sides int) int {
	total := 0
	for i := 0; i < count; i++ {
		total += 1 + rng.Intn(sides)
	}
	return total
}

// combatant wraps a mech during battle so damage accumulates locally.
type combatant struct {
	mech Mech
}

func (c *combatant) label() string {
	return fmt.Sprintf("%s(%d)", c.mech.Designation, c.mech.Owner)
}

// ResolveBattle fights out a contested tile. forces maps player number
// to the mechs that player has on the tile; defender is the player who
// held the tile before this turn (0 when nobody did); fortHP is the
// defender's fortification strength on the tile (0 when there is no
// fort). The standing side starts as the defender when the defender is
// present, otherwise as the first of the shuffled challengers; every
// other party then engages the standing side in shuffled order and the
// winner of each engagement stands next. The fort fights only while
// the original defender stands.
func ResolveBattle(forces map[int][]Mech, defender, fortHP int, rng *rand.Rand) BattleResult {
	res := BattleResult{
		Casualties: make(map[int]int),
		FortHP:     fortHP,
	}

	sides := make(map[int][]*combatant)
	var parties []int
	for player, mechs := range forces {
		cs := make([]*combatant, len(mechs))
		for i, m := range mechs {
			cs[i] = &combatant{mech: m}
		}
		sides[player] = cs
		parties = append(parties, player)
	}
	// Deterministic base order before the shuffle.
	for i := 1; i < len(parties); i++ {
		for j := i; j > 0 && parties[j] < parties[j-1]; j-- {
			parties[j], parties[j-1] = parties[j-1], parties[j]
		}
	}
	res.Participants = append(res.Participants, parties...)
	if defender != 0 && fortHP > 0 && sides[defender] == nil {
		res.Participants = append(res.Participants, defender)
		for j := len(res.Participants) - 1; j > 0 && res.Participants[j] < res.Participants[j-1]; j-- {
			res.Participants[j], res.Participants[j-1] = res.Participants[j-1], res.Participants[j]
		}
	}
	rng.Shuffle(len(parties), func(i, j int) {
		parties[i], parties[j] = parties[j], parties[i]
	})

	// The defender holds the tile and only ever fights as the standing
	// side; the challenger list is every other owner.
	var challengers []int
	standing := 0
	if _, ok := forces[defender]; defender != 0 && (ok || fortHP > 0) {
		standing = defender
		for _, p := range parties {
			if p != defender {
				challengers = append(challengers, p)
			}
		}
	} else if len(parties) > 0 {
		standing = parties[0]
		challengers = parties[1:]
	}

	for _, challenger := range challengers {
		if len(sides[standing]) == 0 && !(standing == defender && res.FortHP > 0) {
			// Standing side wiped out in an earlier engagement.
			standing = challenger
			continue
		}
		withFort := standing == defender
		winner := fight(sides, standing, challenger, withFort, &res, rng)
		standing = winner
	}

	res.Winner = standing
	for _, c := range sides[standing] {
		res.Survivors = append(res.Survivors, c.mech)
	}
	if defender != 0 && fortHP > 0 && (res.FortHP <= 0 || standing != defender) {
		res.FortDestroyed = true
		if res.FortHP < 0 {
			res.FortHP = 0
		}
	}
	return res
}

// fight runs one engagement between the standing side and a challenger
// and returns the player left holding the tile. withFort arms the
// defender's fortification on the standing side.
func fight(sides map[int][]*combatant, standing, challenger int, withFort bool, res *BattleResult, rng *rand.Rand) int {
	fortAlive := func() bool { return withFort && res.FortHP > 0 }

	for round := 1; round <= maxCombatRounds; round++ {
		if len(sides[challenger]) == 0 {
			return standing
		}
		if len(sides[standing]) == 0 && !fortAlive() {
			return challenger
		}
		res.Detail = append(res.Detail, BattleEvent{
			Round:   round,
			Kind:    "round",
			Message: fmt.Sprintf("round %d: player %d (%d mechs) vs player %d (%d mechs)", round, standing, len(sides[standing]), challenger, len(sides[challenger])),
		})

		// The fort shoots before any mech acts.
		if fortAlive() {
			target := sides[challenger][rng.Intn(len(sides[challenger]))]
			dmg := rollDice(rng, fortDiceCount, fortDiceSides)
			target.mech.HP -= dmg
			res.Detail = append(res.Detail, BattleEvent{
				Round:    round,
				Kind:     "attack",
				Attacker: "fortification",
				Target:   target.label(),
				Player:   standing,
				Damage:   dmg,
				Message:  fmt.Sprintf("fortification hits %s for %d", target.label(), dmg),
			})
			if target.mech.HP <= 0 {
				removeCombatant(sides, challenger, target)
				res.Casualties[challenger]++
				res.Detail = append(res.Detail, BattleEvent{
					Round:   round,
					Kind:    "destroyed",
					Target:  target.label(),
					Player:  challenger,
					Message: fmt.Sprintf("%s destroyed", target.label()),
				})
			}
		}

		// Every surviving mech attacks once, in shuffled interleaved order.
		type turn struct {
			side int
			c    *combatant
		}
		var queue []turn
		for _, c := range sides[standing] {
			queue = append(queue, turn{side: standing, c: c})
		}
		for _, c := range sides[challenger] {
			queue = append(queue, turn{side: challenger, c: c})
		}
		rng.Shuffle(len(queue), func(i, j int) {
			queue[i], queue[j] = queue[j], queue[i]
		})

		for _, t := range queue {
			if t.c.mech.HP <= 0 {
				continue
			}
			enemy := challenger
			if t.side == challenger {
				enemy = standing
			}
			stats := StatsFor(t.c.mech.Type)
			dmg := rollDice(rng, stats.DiceCount, stats.DiceSides)

			// A live fortification soaks all challenger fire.
			enemyMechs := sides[enemy]
			if t.side == challenger && withFort && res.FortHP > 0 {
				res.FortHP -= dmg
				res.Detail = append(res.Detail, BattleEvent{
					Round:    round,
					Kind:     "attack",
					Attacker: t.c.label(),
					Target:   "fortification",
					Player:   t.side,
					Damage:   dmg,
					Message:  fmt.Sprintf("%s hits fortification for %d", t.c.label(), dmg),
				})
				if res.FortHP <= 0 {
					res.Detail = append(res.Detail, BattleEvent{
						Round:   round,
						Kind:    "destroyed",
						Target:  "fortification",
						Player:  enemy,
						Message: "fortification destroyed",
					})
				}
				continue
			}
			if len(enemyMechs) == 0 {
				continue
			}
			target := enemyMechs[rng.Intn(len(enemyMechs))]
			target.mech.HP -= dmg
			res.Detail = append(res.Detail, BattleEvent{
				Round:    round,
				Kind:     "attack",
				Attacker: t.c.label(),
				Target:   target.label(),
				Player:   t.side,
				Damage:   dmg,
				Message:  fmt.Sprintf("%s hits %s for %d", t.c.label(), target.label(), dmg),
			})
			if target.mech.HP <= 0 {
				removeCombatant(sides, enemy, target)
				res.Casualties[enemy]++
				res.Detail = append(res.Detail, BattleEvent{
					Round:   round,
					Kind:    "destroyed",
					Target:  target.label(),
					Player:  enemy,
					Message: fmt.Sprintf("%s destroyed", target.label()),
				})
			}
		}

		if len(sides[challenger]) == 0 {
			return standing
		}
		if len(sides[standing]) == 0 && !fortAlive() {
			return challenger
		}
	}
	// Round cap: the larger force wins, ties go to the standing side.
	if len(sides[challenger]) > len(sides[standing]) {
		return challenger
	}
	return standing
}

func removeCombatant(sides map[int][]*combatant, player int, c *combatant) {
	cs := sides[player]
	for i := range cs {
		if cs[i] == c {
			sides[player] = append(cs[:i], cs[i+1:]...)
			return
		}
	}
}
