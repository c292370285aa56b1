package learning

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"io/ioutil"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/hscells/elq"
	"github.com/pkg/errors"
)

// External is a model trained and applied by another program. The program is called as
//	<binary> [args...] train <data> <model>
//	<binary> [args...] predict <data> <model> <predictions>
// where data files are in the LIBSVM format and the predictions file has one line per row:
// the score for regression, or the label and the probability of the positive class for
// classification. The output of the program is logged.
type External struct {
	binary    string
	category  string
	arguments []string
	model     []byte
}

// NewExternal creates a model backed by the given program.
func NewExternal(binary, category string, arguments ...string) *External {
	return &External{
		binary:    binary,
		category:  category,
		arguments: arguments,
	}
}

// Train writes the dataset to a temporary directory, runs the program and keeps the model file
// it produces.
func (e *External) Train(d Dataset) error {
	dir, err := ioutil.TempDir("", "elq-train")
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)

	data := filepath.Join(dir, "train.libsvm")
	model := filepath.Join(dir, "model")
	if err := writeDataset(data, d); err != nil {
		return err
	}
	if err := e.run("train", data, model); err != nil {
		return err
	}
	e.model, err = ioutil.ReadFile(model)
	return err
}

// Predict runs the program over the dataset with the trained model and reads its predictions.
func (e *External) Predict(d Dataset) ([]Prediction, error) {
	if e.model == nil {
		return nil, errors.New("external model has not been trained")
	}
	dir, err := ioutil.TempDir("", "elq-predict")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	data := filepath.Join(dir, "test.libsvm")
	model := filepath.Join(dir, "model")
	output := filepath.Join(dir, "predictions")
	if err := writeDataset(data, d); err != nil {
		return nil, err
	}
	if err := ioutil.WriteFile(model, e.model, 0644); err != nil {
		return nil, err
	}
	if err := e.run("predict", data, model, output); err != nil {
		return nil, err
	}

	f, err := os.Open(output)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	predictions, err := ReadPredictions(f, e.category)
	if err != nil {
		return nil, err
	}
	if len(predictions) != d.Len() {
		return nil, errors.Errorf("%s predicted %d rows for %d instances", e.binary, len(predictions), d.Len())
	}
	return predictions, nil
}

// Save writes the model file produced by the program.
func (e *External) Save(w io.Writer) error {
	_, err := w.Write(e.model)
	return err
}

// Load reads a model file.
func (e *External) Load(r io.Reader) error {
	var err error
	e.model, err = ioutil.ReadAll(r)
	return err
}

func (e *External) run(mode string, files ...string) error {
	args := append(append(append([]string(nil), e.arguments...), mode), files...)

	// Configure the command.
	cmd := exec.Command(e.binary, args...)
	log.Println(e.binary, strings.Join(args, " "))

	// Open channels to stdout and stderr.
	r, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	defer r.Close()

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return err
	}
	defer stderr.Close()

	if err := cmd.Start(); err != nil {
		return errors.Wrapf(err, "starting %s", e.binary)
	}

	done := make(chan struct{}, 2)
	logPipe := func(rc io.Reader) {
		s := bufio.NewScanner(rc)
		for s.Scan() {
			log.Println(s.Text())
		}
		done <- struct{}{}
	}
	go logPipe(r)
	go logPipe(stderr)
	<-done
	<-done

	// Wait for the command to finish.
	if err := cmd.Wait(); err != nil {
		return errors.Wrapf(err, "%s %s", e.binary, mode)
	}
	return nil
}

// writeDataset writes the rows in the LIBSVM format, each row its own query.
func writeDataset(path string, d Dataset) error {
	var buf bytes.Buffer
	for i, row := range d.X {
		line := fmt.Sprintf("%s qid:%d", d.Y[i], d.IDs[i])
		for j, v := range row {
			line += fmt.Sprintf(" %d:%v", j+1, v)
		}
		buf.WriteString(line + "\n")
	}
	return ioutil.WriteFile(path, buf.Bytes(), 0644)
}

// ReadPredictions reads a predictions file: one score per line for regression, or a label and
// the probability of the positive class per line for classification. Blank lines and lines
// starting with # are skipped.
func ReadPredictions(r io.Reader, category string) ([]Prediction, error) {
	var predictions []Prediction
	s := bufio.NewScanner(r)
	for s.Scan() {
		l := strings.TrimSpace(s.Text())
		if len(l) == 0 || strings.HasPrefix(l, "#") {
			continue
		}
		fields := strings.Fields(l)
		var p Prediction
		if category == elq.CategoryClassification {
			if len(fields) < 2 {
				return nil, errors.Errorf("expected a label and a probability in %q", l)
			}
			p.Label = fields[0]
			score, err := strconv.ParseFloat(fields[1], 64)
			if err != nil {
				return nil, err
			}
			p.Score = score
		} else {
			score, err := strconv.ParseFloat(fields[len(fields)-1], 64)
			if err != nil {
				return nil, err
			}
			p.Score = score
		}
		predictions = append(predictions, p)
	}
	return predictions, s.Err()
}
