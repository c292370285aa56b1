// Package output writes runs, relevance assessments and evaluation results in the formats read by
// evaluation tools.
package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"io"
	"sort"
	"strconv"

	"github.com/hscells/elq"
	"github.com/hscells/elq/eval"
)

// Measurement output formats.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// MeasurementFormatter formats a table of measurements of topics: data[i][j] is measurement
// headers[i] of topics[j].
type MeasurementFormatter func(topics, headers []string, data [][]float64) (string, error)

// JsonMeasurementFormatter outputs measurements as a JSON object of topics.
func JsonMeasurementFormatter(topics, headers []string, data [][]float64) (string, error) {
	m := map[string]map[string]float64{}
	for j, topic := range topics {
		m[topic] = map[string]float64{}
		for i, header := range headers {
			m[topic][header] = data[i][j]
		}
	}

	v, err := json.MarshalIndent(m, "", "    ")
	if err != nil {
		return "", err
	}
	return string(v), nil
}

// CsvMeasurementFormatter outputs measurements as CSV with one row per topic.
func CsvMeasurementFormatter(topics, headers []string, data [][]float64) (string, error) {
	b := bytes.NewBufferString("")
	w := csv.NewWriter(b)
	if err := w.Write(append([]string{"Topic"}, headers...)); err != nil {
		return "", err
	}
	for j, topic := range topics {
		record := make([]string, len(headers)+1)
		record[0] = topic
		for i := range headers {
			record[i+1] = strconv.FormatFloat(data[i][j], 'f', -1, 64)
		}
		if err := w.Write(record); err != nil {
			return "", err
		}
	}
	w.Flush()
	return b.String(), w.Error()
}

func formatterOf(format string) (MeasurementFormatter, error) {
	switch format {
	case FormatJSON:
		return JsonMeasurementFormatter, nil
	case FormatCSV:
		return CsvMeasurementFormatter, nil
	}
	return nil, elq.ConfigurationError("unknown measurement format %q", format)
}

// Measurements writes the per query and the macro averaged measures of a run; the averages are the
// topic "all".
func Measurements(w io.Writer, m eval.Measures, format string) error {
	formatter, err := formatterOf(format)
	if err != nil {
		return err
	}

	headers := []string{eval.Precision.Name(), eval.Recall.Name(), eval.F1Measure.Name()}
	qids := make([]string, 0, len(m.PerQuery)+1)
	for qid := range m.PerQuery {
		qids = append(qids, qid)
	}
	sort.Strings(qids)
	data := make([][]float64, len(headers))
	for i, h := range headers {
		for _, qid := range qids {
			data[i] = append(data[i], m.PerQuery[qid][h])
		}
	}
	qids = append(qids, "all")
	data[0] = append(data[0], m.Precision)
	data[1] = append(data[1], m.Recall)
	data[2] = append(data[2], m.F1)

	return write(w, formatter, qids, headers, data)
}

// RankingMeasurements writes macro averaged ranking measures as the topic "all", in the sorted
// order of their names.
func RankingMeasurements(w io.Writer, scores map[string]float64, format string) error {
	formatter, err := formatterOf(format)
	if err != nil {
		return err
	}
	headers := make([]string, 0, len(scores))
	for name := range scores {
		headers = append(headers, name)
	}
	sort.Strings(headers)
	data := make([][]float64, len(headers))
	for i, h := range headers {
		data[i] = []float64{scores[h]}
	}
	return write(w, formatter, []string{"all"}, headers, data)
}

func write(w io.Writer, formatter MeasurementFormatter, topics, headers []string, data [][]float64) error {
	s, err := formatter(topics, headers, data)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, s)
	return err
}
