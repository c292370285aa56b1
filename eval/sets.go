package eval

import (
	"bufio"
	"io"
	"sort"
	"strings"

	"github.com/hscells/elq"
	"github.com/xtgo/set"
)

// Set is an interpretation set: the sorted ids of its entities.
type Set []string

// NewSet creates a set from entity ids in any order; repeated ids count once.
func NewSet(ids ...string) Set {
	s := append(Set(nil), ids...)
	sort.Strings(s)
	return s[:set.Uniq(sort.StringSlice(s))]
}

func (s Set) key() string {
	return strings.Join(s, "\t")
}

// Sets are the interpretation sets of every query.
type Sets map[string][]Set

// Queries are the query ids in sorted order.
func (s Sets) Queries() []string {
	qids := make([]string, 0, len(s))
	for qid := range s {
		qids = append(qids, qid)
	}
	sort.Strings(qids)
	return qids
}

// ReadSets reads a file of tab separated lines of a query id, a label or score, and the
// entities of one interpretation set. A line with fewer than three columns lists a query without
// any set. A query with the same set twice is a data integrity error.
func ReadSets(r io.Reader) (Sets, error) {
	sets := make(Sets)
	seen := make(map[string]map[string]bool)
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		if len(line) == 0 {
			continue
		}
		cols := strings.Split(line, "\t")
		qid := cols[0]
		if _, ok := sets[qid]; !ok {
			sets[qid] = nil
			seen[qid] = make(map[string]bool)
		}
		if len(cols) <= 2 {
			continue
		}
		set := NewSet(cols[2:]...)
		if seen[qid][set.key()] {
			return nil, elq.DataIntegrityError("identical interpretations for query %s", qid)
		}
		seen[qid][set.key()] = true
		sets[qid] = append(sets[qid], set)
	}
	return sets, s.Err()
}

// contains reports whether the set is among the sets.
func contains(sets []Set, set Set) bool {
	k := set.key()
	for _, s := range sets {
		if s.key() == k {
			return true
		}
	}
	return false
}
