package warbots

import "fmt"

// MechType identifies one of the four mech chassis.
type MechType string

const (
	MechLight   MechType = "light"
	MechMedium  MechType = "medium"
	MechHeavy   MechType = "heavy"
	MechAssault MechType = "assault"
)

// MechTypes lists all chassis in canonical order.
var MechTypes = []MechType{MechLight, MechMedium, MechHeavy, MechAssault}

// MechStats holds the fixed per-chassis combat and economy numbers.
type MechStats struct {
	MaxHP       int
	Cost        int
	Maintenance int
	DiceCount   int
	DiceSides   int
}

var mechStats = map[MechType]MechStats{
	MechLight:   {MaxHP: 6, Cost: 2, Maintenance: 1, DiceCount: 1, DiceSides: 4},
	MechMedium:  {MaxHP: 10, Cost: 5, Maintenance: 2, DiceCount: 1, DiceSides: 6},
	MechHeavy:   {MaxHP: 16, Cost: 12, Maintenance: 3, DiceCount: 2, DiceSides: 6},
	MechAssault: {MaxHP: 24, Cost: 20, Maintenance: 4, DiceCount: 2, DiceSides: 8},
}

// StatsFor returns the stats table entry for a chassis.
func StatsFor(t MechType) MechStats {
	return mechStats[t]
}

// ValidMechType reports whether t is one of the four known chassis.
func ValidMechType(t MechType) bool {
	_, ok := mechStats[t]
	return ok
}

// Mech is a mobile combat unit. A mech belongs to one player for its
// entire lifetime; capture of the planet it is parked on does not
// transfer it.
type Mech struct {
	ID          int      `json:"id"`
	Owner       int      `json:"owner"`
	Type        MechType `json:"type"`
	HP          int      `json:"hp"`
	X           int      `json:"x"`
	Y           int      `json:"y"`
	Designation string   `json:"designation"`
}

// MaxHP returns the chassis hit point cap.
func (m *Mech) MaxHP() int {
	return mechStats[m.Type].MaxHP
}

// typeLabel is the capitalized chassis name used in designations.
func typeLabel(t MechType) string {
	switch t {
	case MechLight:
		return "Light"
	case MechMedium:
		return "Medium"
	case MechHeavy:
		return "Heavy"
	case MechAssault:
		return "Assault"
	}
	return "Mech"
}

// FormatDesignation renders a serial as "Type-NNNN", zero-padded to at
// least four digits.
func FormatDesignation(t MechType, serial int) string {
	return fmt.Sprintf("%s-%04d", typeLabel(t), serial)
}
