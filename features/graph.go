package features

import (
	"sort"

	"github.com/hscells/elq/kb"
	"github.com/xtgo/set"
)

// Sentinel is the value of features that compare pairs of entities when the set has only one.
const Sentinel = -1

func sortedSet(values []string) []string {
	s := append([]string(nil), values...)
	sort.Strings(s)
	return s[:set.Uniq(sort.StringSlice(s))]
}

func inter(a, b []string) []string {
	data := append(append(make([]string, 0, len(a)+len(b)), a...), b...)
	return data[:set.Inter(sort.StringSlice(data), len(a))]
}

func union(a, b []string) []string {
	data := append(append(make([]string, 0, len(a)+len(b)), a...), b...)
	return data[:set.Union(sort.StringSlice(data), len(a))]
}

// Graph computes features of the knowledge base link graph among the entities of a set:
// common_links and total_links count the links shared by all entities and made by any of them,
// j_kb is their ratio, and completeness is the share of entity pairs that are linked.
func Graph(entities []*kb.Entity) Features {
	links := make([][]string, len(entities))
	for i, e := range entities {
		links[i] = sortedSet(e.WikiLinks())
	}

	var common, all []string
	for i, l := range links {
		if i == 0 {
			common, all = l, l
			continue
		}
		common = inter(common, l)
		all = union(all, l)
	}

	f := Features{
		"common_links": Sentinel,
		"total_links":  float64(len(all)),
		"j_kb":         Sentinel,
		"completeness": completeness(entities, links),
	}
	if len(entities) > 1 {
		f["common_links"] = float64(len(common))
		f["j_kb"] = 0
		if len(all) > 0 {
			f["j_kb"] = float64(len(common)) / float64(len(all))
		}
	}
	return f
}

// completeness is the number of linked pairs over the number of pairs. A single entity is
// complete.
func completeness(entities []*kb.Entity, links [][]string) float64 {
	n := len(entities)
	if n <= 1 {
		return 1
	}
	linksTo := func(i, j int) bool {
		k := sort.SearchStrings(links[i], entities[j].ID)
		return k < len(links[i]) && links[i][k] == entities[j].ID
	}
	var edges int
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if linksTo(i, j) || linksTo(j, i) {
				edges++
			}
		}
	}
	return float64(edges) / float64(n*(n-1)/2)
}
