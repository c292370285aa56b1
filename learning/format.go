package learning

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"sort"
	"strconv"
	"strings"

	"github.com/mailru/easyjson/jlexer"
	"github.com/mailru/easyjson/jwriter"
	"github.com/pkg/errors"
)

// WriteJSON writes the instances as a JSON object keyed by instance id:
//	{"0": {"target": "0", "features": {...}, "properties": {...}}, ...}
func (ins *Instances) WriteJSON(w io.Writer) error {
	jw := &jwriter.Writer{}
	jw.RawByte('{')
	for n, i := range ins.All() {
		if n > 0 {
			jw.RawByte(',')
		}
		jw.String(strconv.Itoa(i.ID))
		jw.RawByte(':')
		i.marshal(jw)
	}
	jw.RawByte('}')
	if jw.Error != nil {
		return jw.Error
	}
	_, err := jw.DumpTo(w)
	return err
}

func (i *Instance) marshal(jw *jwriter.Writer) {
	jw.RawString(`{"target":`)
	jw.String(i.Target)

	jw.RawString(`,"features":{`)
	for n, name := range sortedKeys(i.Features) {
		if n > 0 {
			jw.RawByte(',')
		}
		jw.String(name)
		jw.RawByte(':')
		jw.Float64(i.Features[name])
	}

	jw.RawString(`},"properties":{`)
	names := make([]string, 0, len(i.Properties))
	for name := range i.Properties {
		names = append(names, name)
	}
	sort.Strings(names)
	for n, name := range names {
		if n > 0 {
			jw.RawByte(',')
		}
		jw.String(name)
		jw.RawByte(':')
		jw.Raw(json.Marshal(i.Properties[name]))
	}
	jw.RawString(`}}`)
}

// ReadJSON reads instances written by WriteJSON. Property values come back as the generic JSON
// types: strings, float64 numbers, maps, slices and nil.
func ReadJSON(r io.Reader) (*Instances, error) {
	data, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, err
	}
	l := &jlexer.Lexer{Data: data}
	ins := NewInstances()
	l.Delim('{')
	for !l.IsDelim('}') {
		key := l.String()
		l.WantColon()
		id, err := strconv.Atoi(key)
		if err != nil {
			l.AddError(errors.Wrapf(err, "instance id %q", key))
			break
		}
		i := NewInstance(id)
		i.unmarshal(l)
		ins.Add(i)
		l.WantComma()
	}
	l.Delim('}')
	l.Consumed()
	if err := l.Error(); err != nil {
		return nil, err
	}
	return ins, nil
}

func (i *Instance) unmarshal(l *jlexer.Lexer) {
	l.Delim('{')
	for !l.IsDelim('}') {
		key := l.String()
		l.WantColon()
		switch key {
		case "target":
			switch v := l.Interface().(type) {
			case nil:
				i.Target = DefaultTarget
			case string:
				i.Target = v
			case float64:
				i.Target = strconv.FormatFloat(v, 'g', -1, 64)
			default:
				i.Target = fmt.Sprint(v)
			}
		case "features":
			l.Delim('{')
			for !l.IsDelim('}') {
				name := l.String()
				l.WantColon()
				i.Features[name] = l.Float64()
				l.WantComma()
			}
			l.Delim('}')
		case "properties":
			l.Delim('{')
			for !l.IsDelim('}') {
				name := l.String()
				l.WantColon()
				i.Properties[name] = l.Interface()
				l.WantComma()
			}
			l.Delim('}')
		default:
			l.SkipRecursive()
		}
		l.WantComma()
	}
	l.Delim('}')
}

// WriteText writes one tab separated line per instance: the id, the target, the features as
// name:value and then the properties as name:value, both sorted by name.
func (ins *Instances) WriteText(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, i := range ins.All() {
		line := fmt.Sprintf("%d\t%s\t", i.ID, i.Target)
		for _, name := range sortedKeys(i.Features) {
			line += fmt.Sprintf("%s:%v\t", name, i.Features[name])
		}
		props := make([]string, 0, len(i.Properties))
		for name := range i.Properties {
			props = append(props, name)
		}
		sort.Strings(props)
		for _, name := range props {
			line += fmt.Sprintf("%s:%v\t", name, i.Properties[name])
		}
		if _, err := bw.WriteString(line + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteLibSVM writes the instances in the LIBSVM (RankLib) format. The first line is a comment
// naming the features in column order:
//	# target instance_Id f1 f2 ...
//	<target> qid:<qid> 1:<v1> 2:<v2> ... # <instance id>
// The qid is the instance id, or the integer value of qidProperty when one is given (see
// AddQIDs); lines are sorted by qid. Features missing from an instance are written as 0.
func (ins *Instances) WriteLibSVM(w io.Writer, features []string, qidProperty string) error {
	if features == nil {
		features = ins.FeatureNames()
	}
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString("# target instance_Id " + strings.Join(features, " ") + "\n"); err != nil {
		return err
	}

	type row struct {
		qid int
		ins *Instance
	}
	rows := make([]row, 0, ins.Len())
	for _, i := range ins.All() {
		qid := i.ID
		if len(qidProperty) > 0 {
			v, ok := i.Float(qidProperty)
			if !ok {
				return errors.Errorf("instance %d has no integer %s", i.ID, qidProperty)
			}
			qid = int(v)
		}
		rows = append(rows, row{qid: qid, ins: i})
	}
	sort.SliceStable(rows, func(a, b int) bool {
		return rows[a].qid < rows[b].qid
	})

	for _, r := range rows {
		line := fmt.Sprintf("%s qid:%d", r.ins.Target, r.qid)
		for n, name := range features {
			line += fmt.Sprintf(" %d:%v", n+1, r.ins.Features[name])
		}
		line += fmt.Sprintf(" # %d", r.ins.ID)
		if _, err := bw.WriteString(line + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
