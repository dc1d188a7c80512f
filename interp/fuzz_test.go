// Fuzz tests for use with the Go 1.18 fuzzer.

//go:build go1.18
// +build go1.18

package interp_test

import (
	"context"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/obinexus/gonpl/interp"
	"github.com/obinexus/gonpl/parser"
)

func FuzzSource(f *testing.F) {
	for _, test := range interpTests {
		if test.err == "" {
			f.Add(test.src)
		}
	}

	f.Fuzz(func(t *testing.T, src string) {
		if !utf8.ValidString(src) {
			return
		}
		prog, err := parser.ParseProgram([]byte(src), nil)
		if err != nil {
			return
		}
		interpreter, err := interp.New(prog)
		if err != nil {
			t.Fatalf("interp.New error: %v", err)
		}
		config := interp.Config{
			NoEmit:  true,
			MaxHops: 8,
		}
		ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
		defer cancel()
		_, _ = interpreter.ExecuteContext(ctx, &config)
	})
}
