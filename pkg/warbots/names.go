package warbots

import (
	"math/rand"
	"strconv"
)

var planetNames = []string{
	"Acheron", "Aldrin", "Antares", "Arcadia", "Arrakis", "Avalon",
	"Bastion", "Borealis", "Calypso", "Cerberus", "Ceres", "Chronos",
	"Cygnus", "Dagon", "Draco", "Elysium", "Erebus", "Eris",
	"Fenris", "Fomalhaut", "Gorgon", "Halcyon", "Helios", "Hyperion",
	"Icarus", "Ishtar", "Janus", "Kepler", "Kraken", "Lazarus",
	"Lethe", "Magellan", "Meridian", "Mimas", "Nemesis", "Nyx",
	"Oberon", "Olympus", "Orion", "Pandora", "Perdition", "Phobos",
	"Polaris", "Prometheus", "Proxima", "Rigel", "Sargasso", "Selene",
	"Sirius", "Styx", "Talos", "Tartarus", "Tempest", "Thanatos",
	"Titania", "Triton", "Typhon", "Umbra", "Vesta", "Volante",
	"Vulcan", "Wraith", "Ymir", "Zenith", "Zephyr", "Zodiac",
}

// namePool deals out shuffled planet names, falling back to numbered
// names once the dictionary runs dry.
type namePool struct {
	names []string
	next  int
}

func newNamePool(rng *rand.Rand) *namePool {
	names := make([]string, len(planetNames))
	copy(names, planetNames)
	rng.Shuffle(len(names), func(i, j int) {
		names[i], names[j] = names[j], names[i]
	})
	return &namePool{names: names}
}

func (p *namePool) take() string {
	p.next++
	if p.next <= len(p.names) {
		return p.names[p.next-1]
	}
	return "Planet-" + strconv.Itoa(p.next)
}
