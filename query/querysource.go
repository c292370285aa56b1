// Package query normalises search queries and derives the mentions they may contain.
package query

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// QueriesSource represents a source for queries and how to parse them.
type QueriesSource interface {
	// Load reads and normalises the queries found at path.
	Load(path string) ([]Query, error)
}

// TSVQuerySource reads files of "qid<TAB>query" lines.
type TSVQuerySource struct{}

// Load reads the queries of a TSV file in file order.
func (TSVQuerySource) Load(path string) ([]Query, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadTSV(f)
}

// ReadTSV parses "qid<TAB>query" lines. Blank lines are skipped.
func ReadTSV(r io.Reader) ([]Query, error) {
	var queries []Query
	s := bufio.NewScanner(r)
	line := 0
	for s.Scan() {
		line++
		text := strings.TrimSpace(s.Text())
		if len(text) == 0 {
			continue
		}
		cols := strings.SplitN(text, "\t", 2)
		if len(cols) != 2 {
			return nil, errors.Errorf("line %d: expected qid and query separated by a tab", line)
		}
		queries = append(queries, New(cols[0], cols[1]))
	}
	return queries, s.Err()
}
