// Package lexer is the tokenizer for NPL (the NSIGII protocol language).
package lexer

import (
	"fmt"
	"unicode/utf8"
)

// Position stores the source line and column where a token starts.
type Position struct {
	// Line number of the token (starts at 1).
	Line int
	// Column on the line (starts at 1). Column is measured in runes.
	Column int
}

// Lexer tokenizes a byte string of NPL source code. Use NewLexer to
// actually create a Lexer, and Scan or ScanRegex to get tokens.
type Lexer struct {
	src      []byte
	offset   int
	ch       rune
	errorMsg string
	pos      Position
	nextPos  Position
}

// NewLexer creates a new Lexer that will tokenize the given source
// code.
func NewLexer(src []byte) *Lexer {
	l := &Lexer{src: src}
	l.nextPos.Line = 1
	l.nextPos.Column = 1
	l.next()
	return l
}

// Scan scans the next token and returns its position (line/column),
// token value, and the string value of the token. For most tokens,
// the token value is empty. For NAME, NUMBER, STRING, and REGEX
// tokens, it's the token's value. For an ILLEGAL token, it's the
// error message.
func (l *Lexer) Scan() (Position, Token, string) {
	l.skipWhite()
	if l.ch == '#' {
		// Skip comment till end of line
		l.next()
		for l.ch != '\n' && l.ch >= 0 {
			l.next()
		}
	}
	if l.ch < 0 {
		if l.errorMsg != "" {
			return l.pos, ILLEGAL, l.errorMsg
		}
		return l.pos, EOF, ""
	}

	pos := l.pos
	tok := ILLEGAL
	val := ""

	ch := l.ch
	l.next()

	// Names: keywords, channel names, and modes
	if isNameStart(ch) {
		chars := []byte{byte(ch)}
		for isNameStart(l.ch) || (l.ch >= '0' && l.ch <= '9') {
			chars = append(chars, byte(l.ch))
			l.next()
		}
		name := string(chars)
		tok := KeywordToken(name)
		if tok == ILLEGAL {
			tok = NAME
			val = name
		}
		return pos, tok, val
	}

	switch ch {
	case '\n':
		tok = NEWLINE
	case '{':
		tok = LBRACE
	case '}':
		tok = RBRACE
	case '~':
		tok = MATCH
	case ',':
		tok = COMMA
	case '+':
		tok = ADD
	case '-':
		tok = SUB
	case '0', '1', '2', '3', '4', '5', '6', '7', '8', '9', '.':
		chars := []byte{byte(ch)}
		gotDigit := ch != '.'
		for l.ch >= '0' && l.ch <= '9' {
			gotDigit = true
			chars = append(chars, byte(l.ch))
			l.next()
		}
		if ch != '.' && l.ch == '.' {
			chars = append(chars, '.')
			l.next()
		}
		for l.ch >= '0' && l.ch <= '9' {
			gotDigit = true
			chars = append(chars, byte(l.ch))
			l.next()
		}
		if !gotDigit {
			return l.pos, ILLEGAL, "expected digits"
		}
		tok = NUMBER
		val = string(chars)
	case '"':
		chars := make([]byte, 0, 32)
		for l.ch != '"' {
			c := l.ch
			if c < 0 {
				return pos, ILLEGAL, "didn't find end quote in string"
			}
			if c == '\r' || c == '\n' {
				return pos, ILLEGAL, "can't have newline in string"
			}
			if c != '\\' {
				chars = appendRune(chars, c)
				l.next()
				continue
			}
			l.next()
			switch l.ch {
			case '"', '\\':
				chars = appendRune(chars, l.ch)
			case 't':
				chars = append(chars, '\t')
			case 'r':
				chars = append(chars, '\r')
			case 'n':
				chars = append(chars, '\n')
			default:
				return pos, ILLEGAL, fmt.Sprintf("invalid string escape \\%c", l.ch)
			}
			l.next()
		}
		l.next()
		tok = STRING
		val = string(chars)
	default:
		tok = ILLEGAL
		val = fmt.Sprintf("unexpected %q", ch)
	}
	return pos, tok, val
}

// ScanRegex parses an NPL regex literal such as /MSG[0-9]+/. The
// parser calls this after seeing a MATCH token, as a regex is only
// valid in rule-pattern position and can't be detected by Scan.
func (l *Lexer) ScanRegex() (Position, Token, string) {
	l.skipWhite()
	if l.ch < 0 {
		if l.errorMsg != "" {
			return l.pos, ILLEGAL, l.errorMsg
		}
		return l.pos, ILLEGAL, "expected regex at EOF"
	}
	pos := l.pos
	if l.ch != '/' {
		return pos, ILLEGAL, fmt.Sprintf("expected / to start regex, not %q", l.ch)
	}
	l.next()
	chars := make([]byte, 0, 32)
	for l.ch != '/' {
		c := l.ch
		switch c {
		case '\n':
			return pos, ILLEGAL, "can't have newline in regex"
		case '\\':
			l.next()
			if l.ch != '/' {
				chars = append(chars, '\\')
			}
			c = l.ch
		}
		if c < 0 {
			return pos, ILLEGAL, "didn't find end slash in regex"
		}
		chars = appendRune(chars, c)
		l.next()
	}
	l.next()
	return pos, REGEX, string(chars)
}

// Load the next character into l.ch (or -1 on end of input) and update
// line and column numbers. Invalid UTF-8 stops the lexer: l.ch goes
// negative and errorMsg records the offending byte.
func (l *Lexer) next() {
	l.pos = l.nextPos
	ch, size := utf8.DecodeRune(l.src[l.offset:])
	if size == 0 {
		l.ch = -1
		return
	}
	if ch == utf8.RuneError && size == 1 {
		l.ch = -1
		l.errorMsg = fmt.Sprintf("invalid UTF-8 byte 0x%02x", l.src[l.offset])
		return
	}
	if ch == '\n' {
		l.nextPos.Line++
		l.nextPos.Column = 1
	} else {
		l.nextPos.Column++
	}
	l.ch = ch
	l.offset += size
}

func (l *Lexer) skipWhite() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\r' {
		l.next()
	}
}

func isNameStart(ch rune) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func appendRune(b []byte, r rune) []byte {
	if r < utf8.RuneSelf {
		return append(b, byte(r))
	}
	return utf8.AppendRune(b, r)
}
