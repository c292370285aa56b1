package query_test

import (
	"reflect"
	"strings"
	"testing"

	"github.com/hscells/elq/query"
)

func TestPreprocess(t *testing.T) {
	cases := map[string]string{
		"uss yorktown, charleston SC":   "uss yorktown charleston SC",
		"hawaii real estate OR resale": "hawaii real estate resale",
		"yahoo! travel":                "yahoo travel",
		"  a   AND   b ":               "a b",
	}
	for in, want := range cases {
		if got := query.Preprocess(in); got != want {
			t.Errorf("Preprocess(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNewLowercases(t *testing.T) {
	q := query.New("q1", "The Beatles: Rock Band")
	if q.Content != "the beatles rock band" {
		t.Fatalf("unexpected content %q", q.Content)
	}
}

func TestNGrams(t *testing.T) {
	q := query.New("q", "jon gruden rumors")
	want := []string{"jon", "gruden", "rumors", "jon gruden", "gruden rumors", "jon gruden rumors"}
	if got := q.NGrams(); !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestSession(t *testing.T) {
	if s := query.Session("trec-2013-129_1"); s != "trec-2013-129" {
		t.Errorf("got %q", s)
	}
	if s := query.Session("erd-1"); s != "erd-1" {
		t.Errorf("got %q", s)
	}
}

func TestContext(t *testing.T) {
	q := query.New("q", "uss yorktown charleston")
	c, ok := q.Context("uss")
	if !ok || c != "yorktown charleston" {
		t.Fatalf("got %q %v", c, ok)
	}
	if _, ok := q.Context("boston"); ok {
		t.Fatal("expected missing mention")
	}
}

func TestOverlapping(t *testing.T) {
	if query.Overlapping([]string{"the", "music man"}) {
		t.Error("the / music man should not overlap")
	}
	if !query.Overlapping([]string{"the", "the man", "music"}) {
		t.Error("the / the man / music should overlap")
	}
	if !query.Overlaps("jon gruden", "jon") {
		t.Error("jon gruden / jon should overlap")
	}
}

func TestReadTSV(t *testing.T) {
	queries, err := query.TSVQuerySource{}.Load("testdata/queries.tsv")
	if err != nil {
		t.Fatal(err)
	}
	if len(queries) != 3 {
		t.Fatalf("expected 3 queries, got %d", len(queries))
	}
	if queries[1].Content != "uss yorktown charleston sc" {
		t.Errorf("unexpected content %q", queries[1].Content)
	}
	if queries[2].Content != "jon gruden rumors" || queries[2].Session() != "q3" {
		t.Errorf("unexpected query %+v", queries[2])
	}

	if _, err := query.ReadTSV(strings.NewReader("no tab here\n")); err == nil {
		t.Fatal("expected an error for a malformed line")
	}
}

func TestKeywordQuerySource(t *testing.T) {
	queries, err := query.KeywordQuerySource{}.Load("testdata/keyword")
	if err != nil {
		t.Fatal(err)
	}
	expected := []query.Query{
		{ID: "q1", Content: "charleston sc"},
		{ID: "q2_1", Content: "the uss yorktown"},
	}
	if !reflect.DeepEqual(queries, expected) {
		t.Errorf("got %v, expected %v", queries, expected)
	}
}

func TestMentions(t *testing.T) {
	mentions := query.New("q1", "Jon Gruden").Mentions("facc")
	if len(mentions) != 3 {
		t.Fatalf("expected 3 mentions, got %d", len(mentions))
	}
	m := mentions[2]
	if m.Text != "jon gruden" || m.Source != "facc" || !reflect.DeepEqual(m.Tokens(), []string{"jon", "gruden"}) {
		t.Errorf("unexpected mention %+v", m)
	}
}
