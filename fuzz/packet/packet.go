//go:build gofuzz
// +build gofuzz

package fuzz

import (
	"github.com/obinexus/gonpl/packet"
)

// Fuzz is the go-fuzz entry point for the packet codec. The wire
// format is binary, so every byte buffer goes straight to the
// decoder; a decode error is an ordinary outcome and only a panic
// counts as a finding.
func Fuzz(data []byte) int {
	if _, err := packet.Unmarshal(data); err != nil {
		return 0
	}
	return 1
}
