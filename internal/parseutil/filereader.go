// Package parseutil contains utilities for reading NPL source code.
package parseutil

import (
	"bytes"
	"io"
	"sort"
)

// FileReader reads NPL source files and joins them into a single
// source buffer, remembering where each file starts so a parse error
// position in the joined source can be mapped back to a file and
// line.
type FileReader struct {
	starts []fileStart
	source bytes.Buffer
}

type fileStart struct {
	path string
	line int // first line of this file in the joined source
}

// AddFile reads a source file and appends it to the joined source. A
// trailing newline is added if the file doesn't end with one, so the
// next file starts on a fresh line.
func (fr *FileReader) AddFile(path string, source io.Reader) error {
	startLine := 1 + bytes.Count(fr.source.Bytes(), []byte("\n"))
	if _, err := fr.source.ReadFrom(source); err != nil {
		return err
	}
	if fr.source.Len() > 0 && !bytes.HasSuffix(fr.source.Bytes(), []byte("\n")) {
		fr.source.WriteByte('\n')
	}
	fr.starts = append(fr.starts, fileStart{path, startLine})
	return nil
}

// FileLine maps a line number in the joined source to the file it
// came from and the line within that file. It returns "" and 0 if the
// line is out of range.
func (fr *FileReader) FileLine(line int) (path string, fileLine int) {
	if line < 1 || line > 1+bytes.Count(fr.source.Bytes(), []byte("\n")) {
		return "", 0
	}
	i := sort.Search(len(fr.starts), func(i int) bool {
		return fr.starts[i].line > line
	})
	if i == 0 {
		return "", 0
	}
	start := fr.starts[i-1]
	return start.path, line - start.line + 1
}

// Source returns the joined source of all added files.
func (fr *FileReader) Source() []byte {
	return fr.source.Bytes()
}
