// Topology files: channel overrides loaded from TOML

package interp

import (
	"fmt"

	"github.com/BurntSushi/toml"

	"github.com/obinexus/gonpl/parser"
)

// Topology holds channel overrides, usually loaded from a TOML file:
//
//	max_hops = 8
//
//	[channels.uplink]
//	bearing = 45.5
//	mode = "chaos"
//	perm = "rw"
//
// Only the fields present in the file are overridden.
type Topology struct {
	MaxHops  int                      `toml:"max_hops"`
	Channels map[string]ChannelConfig `toml:"channels"`
}

// ChannelConfig is one channel's overrides in a topology file.
type ChannelConfig struct {
	Bearing *float64 `toml:"bearing"`
	Mode    *string  `toml:"mode"`
	Perm    *string  `toml:"perm"`
}

// LoadTopology reads a topology file.
func LoadTopology(path string) (*Topology, error) {
	var topo Topology
	meta, err := toml.DecodeFile(path, &topo)
	if err != nil {
		return nil, err
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("topology: unknown key %q", undecoded[0].String())
	}
	return &topo, nil
}

// apply writes the overrides onto the program's resolved channels.
func (t *Topology) apply(prog *parser.Program) error {
	byName := make(map[string]*parser.Channel, len(prog.Channels))
	for _, c := range prog.Channels {
		byName[c.Name] = c
	}
	for name, config := range t.Channels {
		c, ok := byName[name]
		if !ok {
			return newError("topology: undefined channel %q", name)
		}
		if config.Bearing != nil {
			c.Bearing = *config.Bearing
		}
		if config.Mode != nil {
			switch *config.Mode {
			case "order":
				c.Mode = parser.ModeOrder
			case "chaos":
				c.Mode = parser.ModeChaos
			default:
				return newError("topology: invalid mode %q for channel %q", *config.Mode, name)
			}
		}
		if config.Perm != nil {
			perm, err := parsePerm(*config.Perm)
			if err != nil {
				return newError("topology: %v for channel %q", err, name)
			}
			c.Perm = perm
		}
	}
	return nil
}

func parsePerm(s string) (parser.Perm, error) {
	if s == "none" {
		return 0, nil
	}
	var perm parser.Perm
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case 'r':
			perm |= parser.PermRead
		case 'w':
			perm |= parser.PermWrite
		case 'x':
			perm |= parser.PermExec
		default:
			return 0, fmt.Errorf("invalid perm %q", s)
		}
	}
	return perm, nil
}
