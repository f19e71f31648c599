package warbots

// BuildingType identifies an on-planet structure.
type BuildingType string

const (
	BuildingMining        BuildingType = "mining"
	BuildingFactory       BuildingType = "factory"
	BuildingFortification BuildingType = "fortification"
)

// BuildingTypes lists all structure kinds in canonical order.
var BuildingTypes = []BuildingType{BuildingMining, BuildingFactory, BuildingFortification}

var buildingCosts = map[BuildingType]int{
	BuildingMining:        10,
	BuildingFactory:       30,
	BuildingFortification: 25,
}

const (
	// FortificationMaxHP is both the starting and the repair cap for forts.
	FortificationMaxHP = 30
	// FortificationRepairRate is hp regained per turn on a non-failed planet.
	FortificationRepairRate = 5
	// MechRepairRate is hp regained per turn by mechs parked on a planet.
	MechRepairRate = 2
	// MiningIncomeBonus is the extra income per mining complex per turn.
	MiningIncomeBonus = 2
	// HomeworldIncome is the base income of every starting planet.
	HomeworldIncome = 5
)

// BuildingCost returns the credit cost of a structure.
func BuildingCost(t BuildingType) int {
	return buildingCosts[t]
}

// ValidBuildingType reports whether t is a known structure kind.
func ValidBuildingType(t BuildingType) bool {
	_, ok := buildingCosts[t]
	return ok
}

// Building is an on-planet structure. Only fortifications carry hit
// points; HP is zero for mining and factory.
type Building struct {
	ID   int          `json:"id"`
	Type BuildingType `json:"type"`
	HP   int          `json:"hp,omitempty"`
}

// Planet is a capturable tile feature. Owner 0 means unowned.
type Planet struct {
	ID            int        `json:"id"`
	Name          string     `json:"name"`
	X             int        `json:"x"`
	Y             int        `json:"y"`
	BaseIncome    int        `json:"base_income"`
	Owner         int        `json:"owner,omitempty"`
	Homeworld     bool       `json:"homeworld,omitempty"`
	OriginalOwner int        `json:"original_owner,omitempty"`
	Buildings     []Building `json:"buildings,omitempty"`
}

// HasBuilding reports whether the planet carries a structure of the given kind.
func (p *Planet) HasBuilding(t BuildingType) bool {
	for i := range p.Buildings {
		if p.Buildings[i].Type == t {
			return true
		}
	}
	return false
}

// Fortification returns the planet's fort, or nil.
func (p *Planet) Fortification() *Building {
	for i := range p.Buildings {
		if p.Buildings[i].Type == BuildingFortification {
			return &p.Buildings[i]
		}
	}
	return nil
}
