// Lexer tokens

package lexer

type Token int

const (
	ILLEGAL Token = iota
	EOF
	NEWLINE

	// Symbols
	ADD
	COMMA
	LBRACE
	MATCH
	RBRACE
	SUB

	// Keywords
	ACCEPT
	BEARING
	CHANNEL
	CHAOS
	DROP
	EMIT
	FROM
	MESSAGE
	MODE
	NPL
	ON
	ORDER
	PAYLOAD
	PERM
	POLARITY
	RECEIVE
	RELAY
	SEQ
	TO
	TRANSMIT
	VERIFY

	// Literals and names
	NAME
	NUMBER
	REGEX
	STRING

	LAST          = STRING
	FIRST_KEYWORD = ACCEPT
	LAST_KEYWORD  = VERIFY
)

var keywordTokens = map[string]Token{
	"accept":   ACCEPT,
	"bearing":  BEARING,
	"channel":  CHANNEL,
	"chaos":    CHAOS,
	"drop":     DROP,
	"emit":     EMIT,
	"from":     FROM,
	"message":  MESSAGE,
	"mode":     MODE,
	"npl":      NPL,
	"on":       ON,
	"order":    ORDER,
	"payload":  PAYLOAD,
	"perm":     PERM,
	"polarity": POLARITY,
	"receive":  RECEIVE,
	"relay":    RELAY,
	"seq":      SEQ,
	"to":       TO,
	"transmit": TRANSMIT,
	"verify":   VERIFY,
}

// KeywordToken returns the token for the given keyword name, or ILLEGAL
// if it's not a keyword.
func KeywordToken(name string) Token {
	return keywordTokens[name]
}

var tokenNames = map[Token]string{
	ILLEGAL: "<illegal>",
	EOF:     "EOF",
	NEWLINE: "<newline>",

	ADD:    "+",
	COMMA:  ",",
	LBRACE: "{",
	MATCH:  "~",
	RBRACE: "}",
	SUB:    "-",

	ACCEPT:   "accept",
	BEARING:  "bearing",
	CHANNEL:  "channel",
	CHAOS:    "chaos",
	DROP:     "drop",
	EMIT:     "emit",
	FROM:     "from",
	MESSAGE:  "message",
	MODE:     "mode",
	NPL:      "npl",
	ON:       "on",
	ORDER:    "order",
	PAYLOAD:  "payload",
	PERM:     "perm",
	POLARITY: "polarity",
	RECEIVE:  "receive",
	RELAY:    "relay",
	SEQ:      "seq",
	TO:       "to",
	TRANSMIT: "transmit",
	VERIFY:   "verify",

	NAME:   "name",
	NUMBER: "number",
	REGEX:  "regex",
	STRING: "string",
}

// String returns the string name of this token.
func (t Token) String() string {
	return tokenNames[t]
}
