package warbots

import (
	"errors"
	"fmt"
)

// ErrInvalidOrder is the sentinel wrapped by every validation failure.
var ErrInvalidOrder = errors.New("invalid order")

// Chebyshev returns the king-move distance between two tiles.
func Chebyshev(x1, y1, x2, y2 int) int {
	dx := x1 - x2
	if dx < 0 {
		dx = -dx
	}
	dy := y1 - y2
	if dy < 0 {
		dy = -dy
	}
	if dx > dy {
		return dx
	}
	return dy
}

// validateMove checks a single move order against the current state.
func validateMove(gs *GameState, player int, mv MoveOrder) error {
	m := gs.MechByID(mv.MechID)
	if m == nil {
		return fmt.Errorf("%w: no such mech %d", ErrInvalidOrder, mv.MechID)
	}
	if m.Owner != player {
		return fmt.Errorf("%w: mech %s is not yours", ErrInvalidOrder, m.Designation)
	}
	if !gs.InBounds(mv.ToX, mv.ToY) {
		return fmt.Errorf("%w: destination (%d,%d) is off the grid", ErrInvalidOrder, mv.ToX, mv.ToY)
	}
	if Chebyshev(m.X, m.Y, mv.ToX, mv.ToY) != 1 {
		return fmt.Errorf("%w: invalid move destination", ErrInvalidOrder)
	}
	return nil
}

// validateBuild checks a single build order. mechBuilt tracks planets
// that already have an accepted mech build this submission.
func validateBuild(gs *GameState, player int, b BuildOrder, mechBuilt map[int]bool) error {
	p := gs.PlanetByID(b.PlanetID)
	if p == nil {
		return fmt.Errorf("%w: no such planet %d", ErrInvalidOrder, b.PlanetID)
	}
	if p.Owner != player {
		return fmt.Errorf("%w: you do not own %s", ErrInvalidOrder, p.Name)
	}
	switch b.Type {
	case BuildMech:
		if !ValidMechType(b.MechType) {
			return fmt.Errorf("%w: unknown mech type %q", ErrInvalidOrder, b.MechType)
		}
		if !p.HasBuilding(BuildingFactory) {
			return fmt.Errorf("%w: %s has no factory", ErrInvalidOrder, p.Name)
		}
		if mechBuilt[b.PlanetID] {
			return fmt.Errorf("%w: each factory can only produce 1 mech per turn", ErrInvalidOrder)
		}
	case BuildBuilding:
		if !ValidBuildingType(b.BuildingType) {
			return fmt.Errorf("%w: unknown building type %q", ErrInvalidOrder, b.BuildingType)
		}
		if p.HasBuilding(b.BuildingType) {
			return fmt.Errorf("%w: %s already has a %s", ErrInvalidOrder, p.Name, b.BuildingType)
		}
	default:
		return fmt.Errorf("%w: unknown build type %q", ErrInvalidOrder, b.Type)
	}
	return nil
}

// ValidateOrders is the strict validator used for human submissions:
// the first failing order rejects the whole submission. The budget check
// applies only when the submission contains builds.
func ValidateOrders(gs *GameState, player int, o Orders) error {
	pl := gs.PlayerByNum(player)
	if pl == nil {
		return fmt.Errorf("%w: unknown player %d", ErrInvalidOrder, player)
	}
	if pl.Eliminated {
		return fmt.Errorf("%w: player %d is eliminated", ErrInvalidOrder, player)
	}
	for _, mv := range o.Moves {
		if err := validateMove(gs, player, mv); err != nil {
			return err
		}
	}
	mechBuilt := make(map[int]bool)
	for _, b := range o.Builds {
		if err := validateBuild(gs, player, b, mechBuilt); err != nil {
			return err
		}
		if b.Type == BuildMech {
			mechBuilt[b.PlanetID] = true
		}
	}
	if len(o.Builds) > 0 && o.BuildCost() > pl.Credits {
		return fmt.Errorf("%w: builds cost %d but you have %d credits", ErrInvalidOrder, o.BuildCost(), pl.Credits)
	}
	return nil
}

// FilterOrders is the keep-valid validator used for AI submissions:
// invalid orders are discarded with a reason, valid ones are kept.
// Builds are admitted in declaration order until the budget runs out.
func FilterOrders(gs *GameState, player int, o Orders) (Orders, []string) {
	var kept Orders
	var reasons []string

	pl := gs.PlayerByNum(player)
	if pl == nil || pl.Eliminated {
		return kept, []string{fmt.Sprintf("player %d cannot act", player)}
	}

	for _, mv := range o.Moves {
		if err := validateMove(gs, player, mv); err != nil {
			reasons = append(reasons, err.Error())
			continue
		}
		kept.Moves = append(kept.Moves, mv)
	}

	budget := pl.Credits
	mechBuilt := make(map[int]bool)
	for _, b := range o.Builds {
		if err := validateBuild(gs, player, b, mechBuilt); err != nil {
			reasons = append(reasons, err.Error())
			continue
		}
		if b.Cost() > budget {
			reasons = append(reasons, fmt.Sprintf("insufficient credits for %s build on planet %d", b.Type, b.PlanetID))
			continue
		}
		budget -= b.Cost()
		if b.Type == BuildMech {
			mechBuilt[b.PlanetID] = true
		}
		kept.Builds = append(kept.Builds, b)
	}
	return kept, reasons
}
