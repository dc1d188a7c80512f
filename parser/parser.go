// Package parser is an NPL parser and abstract syntax tree.
//
// Use the ParseProgram function to parse an NPL program, and the
// Program.String method to turn a program back into source form.
package parser

import (
	"fmt"
	"io"
	"strconv"

	"github.com/coregx/coregex"

	. "github.com/obinexus/gonpl/lexer"
)

// ParseError is the type of error returned by ParseProgram.
type ParseError struct {
	// Source line/column position where the error occurred.
	Position Position
	// Error message.
	Message string
}

// Error returns a formatted version of the error, including the line
// and column numbers.
func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at %d:%d: %s", e.Position.Line, e.Position.Column, e.Message)
}

// ParserConfig lets you specify configuration for the parsing process.
type ParserConfig struct {
	// DebugWriter: if non-nil, print the parsed program to this writer.
	DebugWriter io.Writer
}

// ParseProgram parses an entire NPL program, returning the *Program
// abstract syntax tree or a *ParseError on parse error. It resolves
// channel references and compiles rule patterns, so a returned
// program is ready to execute. ParseProgram never panics: any input,
// however malformed, yields a program or a structured error.
func ParseProgram(src []byte, config *ParserConfig) (prog *Program, err error) {
	defer func() {
		// The parser and resolver use panic with *ParseError to signal
		// parse errors internally, and they're caught here. This
		// significantly simplifies the recursive descent parser.
		if r := recover(); r != nil {
			parseError, ok := r.(*ParseError)
			if !ok {
				panic(r)
			}
			err = parseError
		}
	}()
	p := parser{lexer: NewLexer(src)}
	p.next() // initialize p.tok
	prog = p.program()
	resolve(prog)
	if config != nil && config.DebugWriter != nil {
		fmt.Fprintln(config.DebugWriter, prog)
	}
	return prog, nil
}

// Parser state
type parser struct {
	lexer *Lexer
	pos   Position // position of last token
	tok   Token    // last lexed token
	val   string   // string value of last token (or "")
}

// Parse a whole program:
//
//	program   = newlines [pragma] { decl }
//	pragma    = "npl" string sep
//	decl      = channel | message | rule
func (p *parser) program() *Program {
	prog := &Program{}
	p.newlines()
	if p.tok == NPL {
		p.next()
		prog.Version = p.stringVal("version")
		p.sep()
		p.newlines()
	}
	for p.tok != EOF {
		switch p.tok {
		case CHANNEL:
			prog.Channels = append(prog.Channels, p.channel())
		case MESSAGE:
			prog.Messages = append(prog.Messages, p.message())
		case ON:
			prog.Rules = append(prog.Rules, p.rule())
		default:
			panic(p.errorf("expected channel, message, or on declaration, not %s", p.tok))
		}
		p.newlines()
	}
	return prog
}

// Parse a channel declaration:
//
//	channel   = "channel" name "{" { chanstmt sep } "}"
//	chanstmt  = "bearing" number | "mode" ("order"|"chaos")
//	          | "perm" name | "relay" name
func (p *parser) channel() *Channel {
	p.expect(CHANNEL)
	c := &Channel{Perm: PermFull, pos: p.pos}
	c.Name = p.nameVal("channel name")
	p.startBlock()
	for p.tok != RBRACE {
		switch p.tok {
		case BEARING:
			p.next()
			c.Bearing = p.numberVal("bearing")
		case MODE:
			p.next()
			switch p.tok {
			case ORDER:
				c.Mode = ModeOrder
			case CHAOS:
				c.Mode = ModeChaos
			default:
				panic(p.errorf("expected order or chaos, not %s", p.tok))
			}
			p.next()
		case PERM:
			p.next()
			c.Perm = p.permVal()
		case RELAY:
			p.next()
			c.RelayTo = p.nameVal("relay target")
		default:
			panic(p.errorf("expected channel statement, not %s", p.tok))
		}
		p.endStmt()
	}
	p.expect(RBRACE)
	return c
}

// Parse a message declaration:
//
//	message   = "message" string "from" name "to" name
//	            "{" { msgstmt sep } "}"
//	msgstmt   = "payload" string | "polarity" ("+"|"-") | "seq" number
func (p *parser) message() *Message {
	p.expect(MESSAGE)
	m := &Message{Polarity: 1, pos: p.pos}
	m.ID = p.stringVal("message id")
	p.expect(FROM)
	m.FromName = p.nameVal("source channel")
	p.expect(TO)
	m.ToName = p.nameVal("destination channel")
	p.startBlock()
	for p.tok != RBRACE {
		switch p.tok {
		case PAYLOAD:
			p.next()
			m.Payload = p.stringVal("payload")
		case POLARITY:
			p.next()
			switch p.tok {
			case ADD:
				m.Polarity = 1
			case SUB:
				m.Polarity = -1
			default:
				panic(p.errorf("expected + or -, not %s", p.tok))
			}
			p.next()
		case SEQ:
			p.next()
			m.Seq = p.intVal("seq")
		default:
			panic(p.errorf("expected message statement, not %s", p.tok))
		}
		p.endStmt()
	}
	p.expect(RBRACE)
	return m
}

// Parse an "on" rule:
//
//	rule      = "on" event ["~" regex] "{" { action sep } "}"
//	event     = "transmit" | "receive" | "verify"
//	action    = "accept" | "drop" | "relay" name | "emit" string
func (p *parser) rule() *Rule {
	p.expect(ON)
	r := &Rule{}
	switch p.tok {
	case TRANSMIT:
		r.Event = EventTransmit
	case RECEIVE:
		r.Event = EventReceive
	case VERIFY:
		r.Event = EventVerify
	default:
		panic(p.errorf("expected transmit, receive, or verify, not %s", p.tok))
	}
	p.next()
	if p.tok == MATCH {
		// Regexes can't be detected by the lexer; scan one explicitly.
		pos, tok, val := p.lexer.ScanRegex()
		if tok == ILLEGAL {
			panic(&ParseError{pos, val})
		}
		re, err := coregex.Compile(val)
		if err != nil {
			panic(&ParseError{pos, fmt.Sprintf("invalid regex %q: %v", val, err)})
		}
		r.PatternStr = val
		r.Pattern = re
		p.next()
	}
	p.startBlock()
	for p.tok != RBRACE {
		switch p.tok {
		case ACCEPT:
			p.next()
			r.Actions = append(r.Actions, &AcceptAction{})
		case DROP:
			p.next()
			r.Actions = append(r.Actions, &DropAction{})
		case RELAY:
			p.next()
			a := &RelayAction{pos: p.pos}
			a.Name = p.nameVal("relay target")
			r.Actions = append(r.Actions, a)
		case EMIT:
			p.next()
			r.Actions = append(r.Actions, &EmitAction{Text: p.stringVal("emit text")})
		default:
			panic(p.errorf("expected accept, drop, relay, or emit, not %s", p.tok))
		}
		p.endStmt()
	}
	p.expect(RBRACE)
	return r
}

// Parse next token into p.tok (and set p.pos and p.val).
func (p *parser) next() {
	p.pos, p.tok, p.val = p.lexer.Scan()
	if p.tok == ILLEGAL {
		panic(p.errorf("%s", p.val))
	}
}

// Ensure current token is tok, and parse next token into p.tok.
func (p *parser) expect(tok Token) {
	if p.tok != tok {
		panic(p.errorf("expected %s instead of %s", tok, p.tok))
	}
	p.next()
}

// Consume the opening brace of a block, allowing newlines after it.
func (p *parser) startBlock() {
	p.expect(LBRACE)
	p.newlines()
}

// Consume the separator after a block statement: one or more newlines,
// or nothing if the block is about to close.
func (p *parser) endStmt() {
	if p.tok == RBRACE {
		return
	}
	p.sep()
	p.newlines()
}

// Ensure current token is a statement separator (newline or EOF).
func (p *parser) sep() {
	if p.tok != NEWLINE && p.tok != EOF {
		panic(p.errorf("expected newline instead of %s", p.tok))
	}
	if p.tok == NEWLINE {
		p.next()
	}
}

// Consume any number of newlines.
func (p *parser) newlines() {
	for p.tok == NEWLINE {
		p.next()
	}
}

// Consume a NAME token and return its value.
func (p *parser) nameVal(what string) string {
	if p.tok != NAME {
		panic(p.errorf("expected %s instead of %s", what, p.tok))
	}
	name := p.val
	p.next()
	return name
}

// Consume a STRING token and return its value.
func (p *parser) stringVal(what string) string {
	if p.tok != STRING {
		panic(p.errorf("expected %s string instead of %s", what, p.tok))
	}
	s := p.val
	p.next()
	return s
}

// Consume a NUMBER token and return its float value.
func (p *parser) numberVal(what string) float64 {
	if p.tok != NUMBER {
		panic(p.errorf("expected %s number instead of %s", what, p.tok))
	}
	// The lexer only produces valid number strings, so this can't fail.
	n, _ := strconv.ParseFloat(p.val, 64)
	p.next()
	return n
}

// Consume a NUMBER token and return its value as an int, erroring if
// it has a fractional part.
func (p *parser) intVal(what string) int {
	if p.tok != NUMBER {
		panic(p.errorf("expected %s number instead of %s", what, p.tok))
	}
	n, err := strconv.Atoi(p.val)
	if err != nil {
		panic(p.errorf("%s must be an integer, not %q", what, p.val))
	}
	p.next()
	return n
}

// Consume a perm NAME like "rwx" or "none" and return its bits.
func (p *parser) permVal() Perm {
	name := p.nameVal("perm")
	if name == "none" {
		return 0
	}
	var perm Perm
	for i := 0; i < len(name); i++ {
		switch name[i] {
		case 'r':
			perm |= PermRead
		case 'w':
			perm |= PermWrite
		case 'x':
			perm |= PermExec
		default:
			panic(p.errorf("invalid perm %q", name))
		}
	}
	return perm
}

// Format given string and args with Sprintf and return an error
// with that message and the current position.
func (p *parser) errorf(format string, args ...interface{}) error {
	message := fmt.Sprintf(format, args...)
	return &ParseError{p.pos, message}
}
