//go:build gofuzz
// +build gofuzz

package fuzz

import (
	"unicode/utf8"

	"github.com/obinexus/gonpl/parser"
)

// Fuzz is the go-fuzz entry point for the NPL parser. The engine
// hands us an arbitrary byte buffer; only well-formed UTF-8 is NPL
// source, so anything else is skipped without invoking the parser.
// The parse result is discarded: a structured parse error is an
// ordinary outcome, and only a panic counts as a finding (go-fuzz
// catches that itself).
func Fuzz(data []byte) int {
	if !utf8.Valid(data) {
		return -1
	}
	if _, err := parser.ParseProgram(data, nil); err != nil {
		return 0
	}
	return 1
}
