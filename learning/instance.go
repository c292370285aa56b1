// Package learning holds the instances that flow between the ranking, set-finding and
// evaluation stages, the file formats they are exchanged in, k-fold cross-validation and the
// models trained on them.
package learning

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/hscells/elq/query"
)

// Property names shared by entity ranking and set finding instances.
const (
	PropertyQueryID      = "q_id"
	PropertyQueryContent = "q_content"
	PropertySession      = "session"
	PropertyMention      = "mention"
	PropertyEntityID     = "en_id"
	PropertyFreebaseID   = "fb_id"
	PropertyCommonness   = "commonness"
	PropertyMatches      = "matches"
	PropertyRank         = "rank"
	PropertyScore        = "score"
	PropertySetID        = "set_id"
	PropertySet          = "inter_set"
	PropertyCERAtts      = "cer_atts"
	// PropertyLibSVMQID holds the integer query ids assigned by AddQIDs.
	PropertyLibSVMQID = "libsvm_qid"
)

// DefaultTarget is the target of an unlabelled instance.
const DefaultTarget = "0"

// NoSet is the set id of ground truth entries that belong to no interpretation set.
const NoSet = "-1"

// Instance is a single learning example: an integer id, a target label, named features and a
// bag of properties describing where the instance came from.
type Instance struct {
	ID         int
	Target     string
	Features   map[string]float64
	Properties map[string]interface{}
}

// NewInstance creates an unlabelled instance.
func NewInstance(id int) *Instance {
	return &Instance{
		ID:         id,
		Target:     DefaultTarget,
		Features:   make(map[string]float64),
		Properties: make(map[string]interface{}),
	}
}

// Property returns a property, or nil when it is not set. The session property is derived
// from the query id when it has not been set explicitly.
func (i *Instance) Property(name string) interface{} {
	if v, ok := i.Properties[name]; ok && v != nil {
		return v
	}
	if name == PropertySession {
		if qid := i.String(PropertyQueryID); len(qid) > 0 {
			return query.Session(qid)
		}
	}
	return nil
}

// String returns a property formatted as a string; absent properties are the empty string.
func (i *Instance) String(name string) string {
	switch v := i.Property(name).(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

// Float returns a numeric property. The boolean is false when the property is absent or not a
// number.
func (i *Instance) Float(name string) (float64, bool) {
	switch v := i.Property(name).(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(v, 64)
		return f, err == nil
	}
	return 0, false
}

// Score is the score property, nil when the instance has not been scored or had no evidence.
func (i *Instance) Score() *float64 {
	if v, ok := i.Float(PropertyScore); ok {
		return &v
	}
	return nil
}

// SetScore sets or clears the score property.
func (i *Instance) SetScore(score *float64) {
	if score == nil {
		i.Properties[PropertyScore] = nil
		return
	}
	i.Properties[PropertyScore] = *score
}

// QueryID is the query the instance belongs to.
func (i *Instance) QueryID() string {
	return i.String(PropertyQueryID)
}

// Instances is a collection of instances indexed by id.
type Instances struct {
	instances map[int]*Instance
}

// NewInstances creates a collection holding the given instances.
func NewInstances(instances ...*Instance) *Instances {
	ins := &Instances{instances: make(map[int]*Instance, len(instances))}
	for _, i := range instances {
		ins.Add(i)
	}
	return ins
}

// Add stores an instance, replacing any instance with the same id.
func (ins *Instances) Add(i *Instance) {
	ins.instances[i.ID] = i
}

// Get returns the instance with the id.
func (ins *Instances) Get(id int) (*Instance, bool) {
	i, ok := ins.instances[id]
	return i, ok
}

// Len is the number of instances.
func (ins *Instances) Len() int {
	return len(ins.instances)
}

// IDs are the instance ids in increasing order.
func (ins *Instances) IDs() []int {
	ids := make([]int, 0, len(ins.instances))
	for id := range ins.instances {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// All returns the instances ordered by id.
func (ins *Instances) All() []*Instance {
	all := make([]*Instance, 0, len(ins.instances))
	for _, id := range ins.IDs() {
		all = append(all, ins.instances[id])
	}
	return all
}

// Has reports whether an instance with the id is in the collection.
func (ins *Instances) Has(id int) bool {
	_, ok := ins.instances[id]
	return ok
}

// Subset returns the instances with the given ids; unknown ids are ignored.
func (ins *Instances) Subset(ids []int) *Instances {
	sub := NewInstances()
	for _, id := range ids {
		if i, ok := ins.instances[id]; ok {
			sub.Add(i)
		}
	}
	return sub
}

// GroupBy groups instance ids by the string value of a property. Instances without the
// property are grouped under the empty string.
func (ins *Instances) GroupBy(property string) map[string][]int {
	groups := make(map[string][]int)
	for _, i := range ins.All() {
		key := i.String(property)
		groups[key] = append(groups[key], i.ID)
	}
	return groups
}

// GroupByQuery groups instances by query id, each group ordered by instance id.
func (ins *Instances) GroupByQuery() map[string][]*Instance {
	groups := make(map[string][]*Instance)
	for _, i := range ins.All() {
		qid := i.QueryID()
		groups[qid] = append(groups[qid], i)
	}
	return groups
}

// FeatureNames is the sorted union of the feature names of all instances.
func (ins *Instances) FeatureNames() []string {
	seen := make(map[string]struct{})
	for _, i := range ins.instances {
		for f := range i.Features {
			seen[f] = struct{}{}
		}
	}
	names := make([]string, 0, len(seen))
	for f := range seen {
		names = append(names, f)
	}
	sort.Strings(names)
	return names
}

// AddQIDs assigns consecutive integer query ids, starting at 1 in order of first appearance,
// to every distinct value of a property. The ids are stored in PropertyLibSVMQID so that they
// can be used as the qid of libsvm files.
func (ins *Instances) AddQIDs(property string) {
	qids := make(map[string]int)
	for _, i := range ins.All() {
		p := i.String(property)
		qid, ok := qids[p]
		if !ok {
			qid = len(qids) + 1
			qids[p] = qid
		}
		i.Properties[PropertyLibSVMQID] = float64(qid)
	}
}

// Concatenate joins collections into one, renumbering the instances from 0 in the order the
// collections and their instances are given. The given collections are left untouched.
func Concatenate(collections ...*Instances) *Instances {
	out := NewInstances()
	id := 0
	for _, c := range collections {
		for _, i := range c.All() {
			renumbered := *i
			renumbered.ID = id
			out.Add(&renumbered)
			id++
		}
	}
	return out
}
