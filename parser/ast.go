// NPL parser - abstract syntax tree structs

package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/coregx/coregex"

	. "github.com/obinexus/gonpl/lexer"
)

// Program is a parsed and resolved NPL program.
type Program struct {
	Version  string
	Channels []*Channel
	Messages []*Message
	Rules    []*Rule
}

// String returns an indented representation of the program that parses
// back to the same program.
func (p *Program) String() string {
	parts := []string{}
	if p.Version != "" {
		parts = append(parts, "npl "+strconv.Quote(p.Version))
	}
	for _, c := range p.Channels {
		if !c.Builtin {
			parts = append(parts, c.String())
		}
	}
	for _, m := range p.Messages {
		parts = append(parts, m.String())
	}
	for _, r := range p.Rules {
		parts = append(parts, r.String())
	}
	return strings.Join(parts, "\n\n")
}

// Mode is a channel's bipolar state: order (stable) or chaos (mutating).
type Mode int

const (
	ModeOrder Mode = iota
	ModeChaos
)

func (m Mode) String() string {
	if m == ModeChaos {
		return "chaos"
	}
	return "order"
}

// Perm holds a channel's rwx permission bits.
type Perm byte

const (
	PermExec  Perm = 0x01
	PermWrite Perm = 0x02
	PermRead  Perm = 0x04
	PermFull       = PermRead | PermWrite | PermExec
)

func (p Perm) String() string {
	s := [3]byte{'-', '-', '-'}
	if p&PermRead != 0 {
		s[0] = 'r'
	}
	if p&PermWrite != 0 {
		s[1] = 'w'
	}
	if p&PermExec != 0 {
		s[2] = 'x'
	}
	return string(s[:])
}

// Channel is one channel declaration. The three trident channels
// (transmitter, receiver, verifier) are predeclared and carry
// Builtin == true; the resolver fills in the wheel fields.
type Channel struct {
	Name    string
	Bearing float64
	Mode    Mode
	Perm    Perm
	RelayTo string // declared relay target, "" if none
	Builtin bool

	// Filled in by the resolver.
	Index int
	Relay *Channel
	Next  *Channel
	Prev  *Channel

	pos Position
}

func (c *Channel) String() string {
	lines := []string{
		fmt.Sprintf("bearing %s", formatNum(c.Bearing)),
		fmt.Sprintf("mode %s", c.Mode),
		fmt.Sprintf("perm %s", permName(c.Perm)),
	}
	if c.RelayTo != "" {
		lines = append(lines, "relay "+c.RelayTo)
	}
	return "channel " + c.Name + " {\n" + indent(lines) + "}"
}

// Message is one message declaration: a payload travelling from one
// channel to another through the trident pipeline.
type Message struct {
	ID       string
	FromName string
	ToName   string
	Payload  string
	Polarity int // +1 or -1
	Seq      int

	// Filled in by the resolver.
	From *Channel
	To   *Channel

	pos Position
}

func (m *Message) String() string {
	lines := []string{"payload " + strconv.Quote(m.Payload)}
	polarity := "+"
	if m.Polarity < 0 {
		polarity = "-"
	}
	lines = append(lines, "polarity "+polarity)
	lines = append(lines, fmt.Sprintf("seq %d", m.Seq))
	return fmt.Sprintf("message %s from %s to %s {\n",
		strconv.Quote(m.ID), m.FromName, m.ToName) + indent(lines) + "}"
}

// Event is the pipeline stage a rule fires on.
type Event int

const (
	EventTransmit Event = iota
	EventReceive
	EventVerify
)

func (e Event) String() string {
	switch e {
	case EventReceive:
		return "receive"
	case EventVerify:
		return "verify"
	default:
		return "transmit"
	}
}

// Rule is an "on" declaration: when a message passes through the
// rule's event stage and its ID matches Pattern (nil matches all),
// the actions run in order.
type Rule struct {
	Event      Event
	PatternStr string
	Pattern    *coregex.Regexp // nil if no pattern given
	Actions    []Action
}

func (r *Rule) String() string {
	head := "on " + r.Event.String()
	if r.Pattern != nil {
		head += " ~ /" + strings.ReplaceAll(r.PatternStr, "/", `\/`) + "/"
	}
	lines := make([]string, len(r.Actions))
	for i, a := range r.Actions {
		lines[i] = a.String()
	}
	return head + " {\n" + indent(lines) + "}"
}

// Action is an action inside a rule body.
type Action interface {
	action()
	String() string
}

func (a *AcceptAction) action() {}
func (a *DropAction) action()   {}
func (a *RelayAction) action()  {}
func (a *EmitAction) action()   {}

// AcceptAction marks the message verified and stops further rules for
// this stage.
type AcceptAction struct{}

func (a *AcceptAction) String() string { return "accept" }

// DropAction removes the message from the pipeline.
type DropAction struct{}

func (a *DropAction) String() string { return "drop" }

// RelayAction forwards the message to the named channel.
type RelayAction struct {
	Name string

	// Filled in by the resolver.
	Target *Channel

	pos Position
}

func (a *RelayAction) String() string { return "relay " + a.Name }

// EmitAction writes the given text to the interpreter's output.
type EmitAction struct {
	Text string
}

func (a *EmitAction) String() string { return "emit " + strconv.Quote(a.Text) }

func indent(lines []string) string {
	var sb strings.Builder
	for _, line := range lines {
		sb.WriteString("    ")
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	return sb.String()
}

func formatNum(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// permName formats perm bits the way they're written in source
// ("rwx", "rw", and so on), as opposed to the ls-style Perm.String.
func permName(p Perm) string {
	var sb strings.Builder
	if p&PermRead != 0 {
		sb.WriteByte('r')
	}
	if p&PermWrite != 0 {
		sb.WriteByte('w')
	}
	if p&PermExec != 0 {
		sb.WriteByte('x')
	}
	if sb.Len() == 0 {
		return "none"
	}
	return sb.String()
}
