package main

import (
	"fmt"
	"os"

	"github.com/alexflint/go-arg"
	"github.com/go-errors/errors"
	"github.com/hscells/elq/eval"
	"github.com/hscells/elq/output"
	"github.com/hscells/trecresults"
)

type args struct {
	Qrels   string `arg:"required,positional" help:"interpretation sets of the ground truth, or trec qrels with --ranking"`
	Run     string `arg:"required,positional" help:"interpretation sets of the run (erd format), or a trec run with --ranking"`
	Format  string `arg:"-f" help:"measurement format: csv or json"`
	Ranking bool   `arg:"--ranking" help:"evaluate ranked entities instead of interpretation sets"`
	K       int    `arg:"-k" help:"cutoff of precision and nDCG for rankings"`
}

func (args) Version() string {
	return "elqeval 18.Oct.2026"
}

func (args) Description() string {
	return `strict evaluation of interpretation sets and evaluation of entity rankings`
}

func readSets(path string) (eval.Sets, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return eval.ReadSets(f)
}

func evaluateSets(args args) error {
	qrels, err := readSets(args.Qrels)
	if err != nil {
		return err
	}
	results, err := readSets(args.Run)
	if err != nil {
		return err
	}
	m, err := eval.Strict(qrels, results)
	if err != nil {
		return err
	}
	return output.Measurements(os.Stdout, m, args.Format)
}

func evaluateRanking(args args) error {
	q, err := os.Open(args.Qrels)
	if err != nil {
		return err
	}
	defer q.Close()
	qrels, err := trecresults.QrelsFromReader(q)
	if err != nil {
		return err
	}

	r, err := os.Open(args.Run)
	if err != nil {
		return err
	}
	defer r.Close()
	results, err := trecresults.ResultsFromReader(r)
	if err != nil {
		return err
	}

	evaluators := []eval.RankingEvaluator{eval.AP, eval.NDCG{}}
	if args.K > 0 {
		evaluators = append(evaluators,
			eval.NDCG{K: args.K},
			eval.PrecisionAtK{K: args.K},
			eval.NewResidualEvaluator(eval.PrecisionAtK{K: args.K}))
	}
	scores := eval.EvaluateRanking(evaluators, results.Results, qrels)
	return output.RankingMeasurements(os.Stdout, scores, args.Format)
}

func main() {
	args := args{Format: output.FormatCSV, K: 10}
	arg.MustParse(&args)

	run := evaluateSets
	if args.Ranking {
		run = evaluateRanking
	}
	if err := run(args); err != nil {
		fmt.Println(errors.Wrap(err, 0).ErrorStack())
		os.Exit(1)
	}
}
