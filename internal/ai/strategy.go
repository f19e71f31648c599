package ai

import (
	"github.com/warbots/server/pkg/warbots"
)

// Strategy generates a full turn of orders for an AI player from the
// same fog-filtered view a human client receives. Output goes through
// the keep-valid order filter before submission, so a strategy may be
// optimistic about what the board allows.
type Strategy interface {
	Name() string
	ProduceOrders(v *warbots.PlayerView) warbots.Orders
}

// ForName returns the strategy registered under the given tag.
// Unknown tags fall back to balanced so a game can always proceed.
func ForName(name string) Strategy {
	switch name {
	case "expansionist":
		return &ExpansionistStrategy{}
	case "infestor":
		return &InfestorStrategy{}
	case "defensive":
		return &DefensiveStrategy{}
	case "generic":
		return &GenericStrategy{}
	default:
		return &BalancedStrategy{}
	}
}

// Names lists the registered strategy tags.
func Names() []string {
	return []string{"balanced", "expansionist", "infestor", "defensive", "generic"}
}
