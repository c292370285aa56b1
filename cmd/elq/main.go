package main

import (
	"fmt"
	"io"
	"os"

	"github.com/alexflint/go-arg"
	"github.com/go-errors/errors"
	"github.com/hscells/elq"
	"github.com/hscells/elq/learning"
	"github.com/hscells/elq/output"
	"github.com/hscells/elq/pipeline"
	"github.com/hscells/elq/query"
)

var (
	name    = "elq"
	version = "18.Oct.2026"
)

type args struct {
	Config      string `arg:"required,positional" help:"properties file of the run"`
	Mode        string `arg:"required,positional" help:"rank, greedy, sets, train-cer, train-isf, cv-cer, cv-isf, qrels or qrel-sets"`
	Queries     string `arg:"-q" help:"queries, one qid<TAB>query per line, or a directory of one query per file"`
	GroundTruth string `arg:"-g" help:"ground truth entities (instance json)"`
	Model       string `arg:"-m" help:"model of the set detector, or the model file written when training"`
	CERModel    string `arg:"--cer-model" help:"model of the learned entity ranker; without it entities are ranked with MLM"`
	Output      string `arg:"-o" help:"output file (default stdout)"`
	Format      string `arg:"-f" help:"output format: trec or erd for runs, json for instances"`
	DBpedia     bool   `arg:"--dbpedia" help:"name entities by DBpedia uri in trec runs"`
}

func (args) Version() string {
	return version
}

func (args) Description() string {
	return fmt.Sprintf(`%s
entity linking in queries
# %s`, name, version)
}

func main() {
	var args args
	arg.MustParse(&args)

	if err := run(args); err != nil {
		fmt.Println(errors.Wrap(err, 0).ErrorStack())
		os.Exit(1)
	}
}

func run(args args) error {
	c, err := elq.LoadConfig(args.Config)
	if err != nil {
		return err
	}

	var queries []query.Query
	if len(args.Queries) > 0 {
		var source query.QueriesSource = query.TSVQuerySource{}
		if info, err := os.Stat(args.Queries); err == nil && info.IsDir() {
			source = query.KeywordQuerySource{}
		}
		queries, err = source.Load(args.Queries)
		if err != nil {
			return err
		}
	}
	var gt []*learning.CEREntry
	if len(args.GroundTruth) > 0 {
		gt, err = readGroundTruth(args.GroundTruth)
		if err != nil {
			return err
		}
	}

	w := io.Writer(os.Stdout)
	if len(args.Output) > 0 {
		f, err := os.Create(args.Output)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	switch args.Mode {
	case "qrels":
		return output.Qrels(w, gt)
	case "qrel-sets":
		qids := make([]string, len(queries))
		for i, q := range queries {
			qids[i] = q.ID
		}
		return output.QrelSets(w, gt, qids)
	}

	l, err := pipeline.Open(c, args.CERModel)
	if err != nil {
		return err
	}

	switch args.Mode {
	case "rank":
		entries, err := l.RankQueries(queries)
		if err != nil {
			return err
		}
		return writeCER(w, args, c, entries)
	case "cv-cer":
		entries, err := l.CrossValidateCER(gt, queries)
		if err != nil {
			return err
		}
		return writeCER(w, args, c, entries)
	case "greedy":
		sets, err := l.LinkGreedy(queries)
		if err != nil {
			return err
		}
		return writeISF(w, args, sets)
	case "sets":
		if len(args.Model) == 0 {
			return elq.ConfigurationError("linking with a set detector requires a model")
		}
		cc := *c
		cc.ModelCategory = elq.CategoryClassification
		model, err := learning.LoadModel(&cc, args.Model)
		if err != nil {
			return err
		}
		sets, err := l.LinkSets(queries, model)
		if err != nil {
			return err
		}
		return writeISF(w, args, sets)
	case "cv-isf":
		sets, err := l.CrossValidateISF(gt, queries)
		if err != nil {
			return err
		}
		return writeISF(w, args, sets)
	case "train-cer", "train-isf":
		if len(args.Model) == 0 {
			return elq.ConfigurationError("training requires a model file to write")
		}
		train := l.TrainCER
		if args.Mode == "train-isf" {
			train = l.TrainISF
		}
		model, err := train(gt, queries)
		if err != nil {
			return err
		}
		return learning.SaveModel(model, args.Model)
	}
	return elq.ConfigurationError("unknown mode %q", args.Mode)
}

func readGroundTruth(path string) ([]*learning.CEREntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	ins, err := learning.ReadJSON(f)
	if err != nil {
		return nil, err
	}
	return learning.CEREntriesFromInstances(ins), nil
}

func writeCER(w io.Writer, args args, c *elq.Config, entries []*learning.CEREntry) error {
	if args.Format == "json" {
		return learning.CEREntries(entries).WriteJSON(w)
	}
	return output.TrecEval(w, entries, c.RunID, args.DBpedia)
}

func writeISF(w io.Writer, args args, sets []*learning.ISFEntry) error {
	if args.Format == "json" {
		return learning.ISFEntries(sets).WriteJSON(w)
	}
	return output.ERDEval(w, sets)
}
