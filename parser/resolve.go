// Resolve channel references and build the wheel topology

package parser

import "fmt"

// The three trident channels are always present, whether declared or
// not. Bearings per the magnetic three-pole model.
func tridentChannels() []*Channel {
	return []*Channel{
		{Name: "transmitter", Bearing: 255, Mode: ModeOrder, Perm: PermFull, Builtin: true},
		{Name: "receiver", Bearing: 29, Mode: ModeChaos, Perm: PermRead | PermWrite, Builtin: true},
		{Name: "verifier", Bearing: 265, Mode: ModeOrder, Perm: PermRead, Builtin: true},
	}
}

// resolve checks the parsed program's channel references and fills in
// the resolved fields of the AST: message endpoints, relay targets,
// and each channel's position and neighbors on the wheel. Errors are
// reported by panicking with *ParseError, same as the parser itself
// (resolve runs inside ParseProgram's recover).
//
// The trident channels are created fresh for every parse: programs
// returned by ParseProgram share no mutable state, so they can be
// parsed and executed concurrently.
func resolve(prog *Program) {
	channels := tridentChannels()
	byName := make(map[string]*Channel, len(channels)+len(prog.Channels))
	for _, c := range channels {
		byName[c.Name] = c
	}
	for _, c := range prog.Channels {
		prev, exists := byName[c.Name]
		if exists && prev.Builtin {
			panic(&ParseError{c.pos, fmt.Sprintf("can't redeclare trident channel %q", c.Name)})
		}
		if exists {
			panic(&ParseError{c.pos, fmt.Sprintf("channel %q already declared", c.Name)})
		}
		byName[c.Name] = c
		channels = append(channels, c)
	}
	prog.Channels = channels

	// Wheel positions: ring in declaration order, trident first.
	n := len(channels)
	for i, c := range channels {
		c.Index = i
		c.Next = channels[(i+1)%n]
		c.Prev = channels[(i+n-1)%n]
	}

	for _, c := range channels {
		if c.RelayTo == "" {
			continue
		}
		target, ok := byName[c.RelayTo]
		if !ok {
			panic(&ParseError{c.pos, fmt.Sprintf("undefined relay channel %q", c.RelayTo)})
		}
		if target == c {
			panic(&ParseError{c.pos, fmt.Sprintf("channel %q can't relay to itself", c.Name)})
		}
		c.Relay = target
	}

	seen := make(map[string]bool, len(prog.Messages))
	for _, m := range prog.Messages {
		if seen[m.ID] {
			panic(&ParseError{m.pos, fmt.Sprintf("message %q already declared", m.ID)})
		}
		seen[m.ID] = true
		var ok bool
		m.From, ok = byName[m.FromName]
		if !ok {
			panic(&ParseError{m.pos, fmt.Sprintf("undefined channel %q", m.FromName)})
		}
		m.To, ok = byName[m.ToName]
		if !ok {
			panic(&ParseError{m.pos, fmt.Sprintf("undefined channel %q", m.ToName)})
		}
		if m.From == m.To {
			panic(&ParseError{m.pos, fmt.Sprintf("message %q source and destination are the same", m.ID)})
		}
	}

	for _, r := range prog.Rules {
		for _, action := range r.Actions {
			relay, ok := action.(*RelayAction)
			if !ok {
				continue
			}
			relay.Target, ok = byName[relay.Name]
			if !ok {
				panic(&ParseError{relay.pos, fmt.Sprintf("undefined relay channel %q", relay.Name)})
			}
		}
	}
}
