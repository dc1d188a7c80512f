// Package interp executes resolved NPL programs: it runs every
// declared message through the trident pipeline (transmit, receive,
// verify), firing "on" rules along the way, and reports what was
// delivered, dropped, and verified.
package interp

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/obinexus/gonpl/packet"
	"github.com/obinexus/gonpl/parser"
)

// Error is returned by Execute for errors hit while running a
// program, for example a relay loop exceeding the hop bound.
type Error struct {
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(format string, args ...interface{}) error {
	return &Error{fmt.Sprintf(format, args...)}
}

// Config holds the configuration for running a program.
type Config struct {
	// Destination for emit actions (defaults to os.Stdout).
	Output io.Writer

	// Maximum relay hops per message before execution errors out
	// (defaults to 16). Relay rules can form cycles; this bound keeps
	// execution finite for every program.
	MaxHops int

	// If true, emit actions write nothing. Useful when fuzzing or
	// benchmarking.
	NoEmit bool

	// Optional channel overrides, usually loaded from a topology
	// file; applied to the program before execution. See LoadTopology.
	Topology *Topology
}

// Report summarizes one execution.
type Report struct {
	Delivered int      // messages that reached their destination
	Dropped   int      // messages removed by a drop action
	Verified  int      // delivered messages that passed verification
	Packets   [][]byte // wire form of each delivered message
}

// Interpreter runs a parsed program, allowing you to execute the same
// program over and over with different configs. Use New to create an
// Interpreter. An Interpreter is not safe for concurrent use; parse
// the program again to execute it from multiple goroutines.
type Interpreter struct {
	prog *parser.Program
}

// New creates an interpreter for the given program.
func New(prog *parser.Program) (*Interpreter, error) {
	if prog == nil {
		return nil, newError("program is nil")
	}
	return &Interpreter{prog: prog}, nil
}

// Execute runs the program with the given config (nil for defaults).
func (p *Interpreter) Execute(config *Config) (*Report, error) {
	return p.ExecuteContext(context.Background(), config)
}

// ExecuteContext is like Execute, but supports cancellation and
// timeout using a context. The context is checked between messages
// and between relay hops.
func (p *Interpreter) ExecuteContext(ctx context.Context, config *Config) (*Report, error) {
	e := &executor{
		prog:    p.prog,
		ctx:     ctx,
		output:  os.Stdout,
		maxHops: 16,
	}
	if config != nil {
		if config.Output != nil {
			e.output = config.Output
		}
		if config.NoEmit {
			e.output = io.Discard
		}
		if config.MaxHops > 0 {
			e.maxHops = config.MaxHops
		}
		if config.Topology != nil {
			if config.Topology.MaxHops > 0 && config.MaxHops == 0 {
				e.maxHops = config.Topology.MaxHops
			}
			if err := config.Topology.apply(p.prog); err != nil {
				return nil, err
			}
		}
	}
	return e.run()
}

// Exec provides a simple way to parse and run an NPL program, with
// emit output going to the given writer.
func Exec(src string, output io.Writer) (*Report, error) {
	prog, err := parser.ParseProgram([]byte(src), nil)
	if err != nil {
		return nil, err
	}
	interpreter, err := New(prog)
	if err != nil {
		return nil, err
	}
	return interpreter.Execute(&Config{Output: output})
}

// Per-execution state.
type executor struct {
	prog    *parser.Program
	ctx     context.Context
	output  io.Writer
	maxHops int
	report  Report
}

func (e *executor) run() (*Report, error) {
	for _, m := range e.prog.Messages {
		if err := e.checkContext(); err != nil {
			return nil, err
		}
		if err := e.pipeline(m); err != nil {
			return nil, err
		}
	}
	return &e.report, nil
}

// One message's trip through the pipeline: transmit at its source,
// receive at its (possibly relayed) destination, verify at the
// verifier channel. The AST message itself is never modified.
func (e *executor) pipeline(m *parser.Message) error {
	delivery := *m // relays change the destination of this trip only
	stages := []struct {
		event   parser.Event
		channel *parser.Channel
	}{
		{parser.EventTransmit, delivery.From},
		{parser.EventReceive, delivery.To},
		{parser.EventVerify, e.verifier()},
	}

	accepted := false
	for i, stage := range stages {
		if err := e.checkPerm(stage.event, stage.channel); err != nil {
			return err
		}
		outcome, err := e.runRules(&delivery, stage.event)
		if err != nil {
			return err
		}
		switch outcome {
		case outcomeDrop:
			e.report.Dropped++
			return nil
		case outcomeAccept:
			accepted = true
		}
		// A transmit-stage relay changes which channel receives.
		if i == 0 {
			stages[1].channel = delivery.To
		}
	}

	if accepted || e.consensus(&delivery) {
		e.report.Verified++
	}
	pkt, err := packet.FromMessage(&delivery)
	if err != nil {
		return newError("message %q: %v", m.ID, err)
	}
	data, err := packet.Marshal(pkt)
	if err != nil {
		return newError("message %q: %v", m.ID, err)
	}
	e.report.Packets = append(e.report.Packets, data)
	e.report.Delivered++
	return nil
}

type outcome int

const (
	outcomeNone outcome = iota
	outcomeAccept
	outcomeDrop
)

// Run the rules for one stage, in program order. An accept or drop
// action stops rule processing for the stage.
func (e *executor) runRules(m *parser.Message, event parser.Event) (outcome, error) {
	hops := 0
	for _, rule := range e.prog.Rules {
		if rule.Event != event {
			continue
		}
		if rule.Pattern != nil && !rule.Pattern.MatchString(m.ID) {
			continue
		}
		for _, action := range rule.Actions {
			switch a := action.(type) {
			case *parser.AcceptAction:
				return outcomeAccept, nil
			case *parser.DropAction:
				return outcomeDrop, nil
			case *parser.RelayAction:
				if err := e.checkContext(); err != nil {
					return outcomeNone, err
				}
				hops++
				if hops > e.maxHops {
					return outcomeNone, newError(
						"message %q: too many relays (%d)", m.ID, hops)
				}
				if err := e.relay(m, a.Target); err != nil {
					return outcomeNone, err
				}
			case *parser.EmitAction:
				fmt.Fprintln(e.output, a.Text)
			}
		}
	}
	return outcomeNone, nil
}

// Forward the message to the target channel, following the channel's
// own declared relay chain with the same hop bound.
func (e *executor) relay(m *parser.Message, target *parser.Channel) error {
	hops := 0
	for c := target; c != nil; c = c.Relay {
		hops++
		if hops > e.maxHops {
			return newError("message %q: relay chain too long at channel %q", m.ID, c.Name)
		}
		if !c.Builtin && c.Perm&parser.PermWrite == 0 {
			return newError("message %q: channel %q can't be relayed to (no write permission)",
				m.ID, c.Name)
		}
		m.To = c
	}
	if m.To == m.From {
		return newError("message %q: relayed back to its source %q", m.ID, m.From.Name)
	}
	return nil
}

// 2-of-3 consensus: the source mode, destination mode, and message
// polarity each cast a vote for order.
func (e *executor) consensus(m *parser.Message) bool {
	votes := 0
	if m.From.Mode == parser.ModeOrder {
		votes++
	}
	if m.To.Mode == parser.ModeOrder {
		votes++
	}
	if m.Polarity > 0 {
		votes++
	}
	return votes >= 2
}

func (e *executor) checkPerm(event parser.Event, c *parser.Channel) error {
	switch event {
	case parser.EventTransmit:
		if c.Perm&parser.PermWrite == 0 {
			return newError("channel %q can't transmit (no write permission)", c.Name)
		}
	default:
		if c.Perm&parser.PermRead == 0 {
			return newError("channel %q can't receive (no read permission)", c.Name)
		}
	}
	return nil
}

// The verifier trident channel. The resolver guarantees the trident
// channels are present and first on the wheel.
func (e *executor) verifier() *parser.Channel {
	return e.prog.Channels[2]
}

func (e *executor) checkContext() error {
	select {
	case <-e.ctx.Done():
		return e.ctx.Err()
	default:
		return nil
	}
}
