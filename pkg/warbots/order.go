package warbots

// MoveOrder steps one mech to an adjacent tile.
type MoveOrder struct {
	MechID int `json:"mechId"`
	ToX    int `json:"toX"`
	ToY    int `json:"toY"`
}

// BuildKind discriminates the two build order variants.
type BuildKind string

const (
	BuildMech     BuildKind = "mech"
	BuildBuilding BuildKind = "building"
)

// BuildOrder is a tagged variant: Type selects which of MechType or
// BuildingType is meaningful.
type BuildOrder struct {
	PlanetID     int          `json:"planetId"`
	Type         BuildKind    `json:"type"`
	MechType     MechType     `json:"mechType,omitempty"`
	BuildingType BuildingType `json:"buildingType,omitempty"`
}

// Cost returns the credit cost of the order.
func (b BuildOrder) Cost() int {
	if b.Type == BuildMech {
		return mechStats[b.MechType].Cost
	}
	return buildingCosts[b.BuildingType]
}

// Orders is one player's complete submission for a turn.
type Orders struct {
	Moves  []MoveOrder  `json:"moves"`
	Builds []BuildOrder `json:"builds"`
}

// BuildCost returns the total credit cost of all builds in the submission.
func (o Orders) BuildCost() int {
	total := 0
	for _, b := range o.Builds {
		total += b.Cost()
	}
	return total
}
