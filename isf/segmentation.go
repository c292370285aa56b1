package isf

import (
	"sort"

	"github.com/hscells/elq/query"
	"github.com/xtgo/set"
)

// Segmentations are the subsets of mentions, of at most as many mentions as the query has terms,
// in which no two mentions share a term. Mentions are combined in sorted order, smaller
// segmentations first.
func Segmentations(q query.Query, mentions []string) [][]string {
	sorted := append([]string(nil), mentions...)
	sort.Strings(sorted)

	var segments [][]string
	max := len(q.Terms())
	for n := 1; n <= max && n <= len(sorted); n++ {
		combinations(sorted, n, func(c []string) {
			if !query.Overlapping(c) {
				segments = append(segments, append([]string(nil), c...))
			}
		})
	}
	return segments
}

// combinations calls fn with every n-element combination of values in lexicographic order of
// their indices. The slice given to fn is reused between calls.
func combinations(values []string, n int, fn func([]string)) {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	c := make([]string, n)
	for {
		for i, j := range idx {
			c[i] = values[j]
		}
		fn(c)

		i := n - 1
		for i >= 0 && idx[i] == len(values)-n+i {
			i--
		}
		if i < 0 {
			return
		}
		idx[i]++
		for j := i + 1; j < n; j++ {
			idx[j] = idx[j-1] + 1
		}
	}
}

// Expand generates the interpretation sets of a segmentation: every way of choosing one entity
// for each of its mentions. A set maps each entity to its mention, so choices that give two
// mentions the same entity, and segmentations with a mention that has no entities, produce
// nothing.
func Expand(segmentation []string, mentionEntities map[string][]string) []map[string]string {
	sets := []map[string]string{{}}
	for _, mention := range segmentation {
		entities := unique(mentionEntities[mention])
		next := make([]map[string]string, 0, len(sets)*len(entities))
		for _, s := range sets {
			for _, en := range entities {
				c := make(map[string]string, len(s)+1)
				for k, v := range s {
					c[k] = v
				}
				c[en] = mention
				next = append(next, c)
			}
		}
		sets = next
	}

	valid := sets[:0]
	for _, s := range sets {
		if len(s) > 0 && len(s) == len(segmentation) {
			valid = append(valid, s)
		}
	}
	return valid
}

func unique(values []string) []string {
	s := append([]string(nil), values...)
	sort.Strings(s)
	return s[:set.Uniq(sort.StringSlice(s))]
}
