// Fuzz tests for use with the Go 1.18 fuzzer.

//go:build go1.18
// +build go1.18

package parser_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/obinexus/gonpl/parser"
)

// Inputs that previously tripped the parser or lexer, kept as both
// regression tests and fuzz seeds.
var regressionInputs = []string{
	"",                        // empty program is valid
	"\n\n\n",                  // newlines only
	"channel x {",             // unbalanced block
	"}",                       // close without open
	"channel x {\n" + strings.Repeat("relay ", 100), // repetition
	strings.Repeat("channel x {\n", 500),            // deep unclosed nesting
	`message "m" from`,        // truncated mid-declaration
	"on receive ~",            // match with nothing after it
	"on receive ~ /a\\",       // regex ending in backslash
	`"unterminated`,           // string never closes
	"npl",                     // pragma with no version
	"npl \"v\" npl \"v\"",     // duplicate pragma
	"channel é {}",       // non-ASCII where a name is expected
	"seq 99999999999999999999999999", // overflowing number at top level
	"# comment only",
	"\uFEFFchannel x {}", // BOM is not whitespace
}

func FuzzParseProgram(f *testing.F) {
	// Scenario seeds: decode-gated, structurally valid, structurally
	// broken, and everything in the regression corpus.
	f.Add([]byte(""))
	f.Add([]byte("\xff"))
	f.Add([]byte("npl \"7.0.0\"\n"))
	f.Add([]byte("channel uplink {\n    bearing 45.5\n    mode chaos\n}\n"))
	f.Add([]byte(`message "MSG00001" from transmitter to receiver {` + "\n" +
		`    payload "hello"` + "\n    polarity -\n    seq 42\n}\n"))
	f.Add([]byte("on receive ~ /MSG[0-9]+/ {\n    accept\n    relay verifier\n}\n"))
	for _, input := range regressionInputs {
		f.Add([]byte(input))
	}

	f.Fuzz(func(t *testing.T, data []byte) {
		// Only well-formed UTF-8 is NPL source; everything else is
		// rejected before the parser ever runs.
		if !utf8.Valid(data) {
			return
		}
		prog, err := parser.ParseProgram(data, nil)
		if err == nil && prog == nil {
			t.Fatal("nil program with nil error")
		}
	})
}

// The parser must return normally for every input in the regression
// corpus: a parse error is fine, a panic is not.
func TestParseNoCrash(t *testing.T) {
	for _, input := range regressionInputs {
		t.Run(input, func(t *testing.T) {
			_, _ = parser.ParseProgram([]byte(input), nil)
		})
	}
}

// Parsing the same input twice must give identical outcomes: the
// parser keeps no state between calls.
func TestParseRepeatable(t *testing.T) {
	inputs := append([]string{
		"channel uplink {}\n",
		`message "m" from transmitter to receiver {}`,
	}, regressionInputs...)
	for _, input := range inputs {
		prog1, err1 := parser.ParseProgram([]byte(input), nil)
		prog2, err2 := parser.ParseProgram([]byte(input), nil)
		if (err1 == nil) != (err2 == nil) {
			t.Fatalf("inconsistent errors for %q: %v then %v", input, err1, err2)
		}
		if err1 != nil {
			if err1.Error() != err2.Error() {
				t.Fatalf("error changed between parses of %q: %q then %q",
					input, err1.Error(), err2.Error())
			}
			continue
		}
		if prog1.String() != prog2.String() {
			t.Fatalf("program changed between parses of %q", input)
		}
	}
}
