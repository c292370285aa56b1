package learning

import (
	"sort"
	"strings"
)

// CEREntry is a candidate entity of a query: an entity, the mention it was found for and the
// scores it has been given.
type CEREntry struct {
	ID           int
	QueryID      string
	QueryContent string
	Mention      string
	EntityID     string
	FreebaseID   string
	Commonness   float64
	Matches      int
	// Rank is 0 until the entry has been ranked.
	Rank int
	// Score is nil when the entry has not been scored or there was no evidence for it.
	Score    *float64
	SetID    string
	Target   string
	Features map[string]float64
}

// ToInstance converts the entry into a generic instance.
func (e *CEREntry) ToInstance() *Instance {
	i := NewInstance(e.ID)
	if len(e.Target) > 0 {
		i.Target = e.Target
	}
	for k, v := range e.Features {
		i.Features[k] = v
	}
	i.Properties[PropertyQueryID] = e.QueryID
	i.Properties[PropertyQueryContent] = e.QueryContent
	i.Properties[PropertyMention] = e.Mention
	i.Properties[PropertyEntityID] = e.EntityID
	i.Properties[PropertyFreebaseID] = e.FreebaseID
	i.Properties[PropertyCommonness] = e.Commonness
	i.Properties[PropertyMatches] = float64(e.Matches)
	if e.Rank > 0 {
		i.Properties[PropertyRank] = float64(e.Rank)
	}
	if len(e.SetID) > 0 {
		i.Properties[PropertySetID] = e.SetID
	}
	i.SetScore(e.Score)
	return i
}

// CEREntryFromInstance reads an entry back out of an instance.
func CEREntryFromInstance(i *Instance) *CEREntry {
	e := &CEREntry{
		ID:           i.ID,
		QueryID:      i.String(PropertyQueryID),
		QueryContent: i.String(PropertyQueryContent),
		Mention:      i.String(PropertyMention),
		EntityID:     i.String(PropertyEntityID),
		FreebaseID:   i.String(PropertyFreebaseID),
		SetID:        i.String(PropertySetID),
		Score:        i.Score(),
		Target:       i.Target,
		Features:     make(map[string]float64, len(i.Features)),
	}
	e.Commonness, _ = i.Float(PropertyCommonness)
	if v, ok := i.Float(PropertyMatches); ok {
		e.Matches = int(v)
	}
	if v, ok := i.Float(PropertyRank); ok {
		e.Rank = int(v)
	}
	for k, v := range i.Features {
		e.Features[k] = v
	}
	return e
}

// CEREntries converts entries into an instance collection.
func CEREntries(entries []*CEREntry) *Instances {
	ins := NewInstances()
	for _, e := range entries {
		ins.Add(e.ToInstance())
	}
	return ins
}

// CEREntriesFromInstances converts a collection back into entries ordered by id.
func CEREntriesFromInstances(ins *Instances) []*CEREntry {
	entries := make([]*CEREntry, 0, ins.Len())
	for _, i := range ins.All() {
		entries = append(entries, CEREntryFromInstance(i))
	}
	return entries
}

// CERAttributes are the entity ranking results carried along with an entity in a set.
type CERAttributes struct {
	FreebaseID string
	Score      *float64
	Rank       int
	Commonness float64
	// MLMTC is the mlm-tc feature of the ranked entity, when it was extracted.
	MLMTC *float64
}

// ISFEntry is a candidate interpretation set of a query.
type ISFEntry struct {
	ID           int
	QueryID      string
	QueryContent string
	// Set maps each entity of the interpretation to its mention.
	Set map[string]string
	// CER holds the ranking attributes of each entity of the set.
	CER      map[string]CERAttributes
	Score    *float64
	Target   string
	Features map[string]float64
}

// Entities are the entities of the set in sorted order.
func (e *ISFEntry) Entities() []string {
	ids := make([]string, 0, len(e.Set))
	for id := range e.Set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// FreebaseIDs are the Freebase ids of the entities of the set, in the order of Entities.
func (e *ISFEntry) FreebaseIDs() []string {
	ids := make([]string, 0, len(e.Set))
	for _, en := range e.Entities() {
		ids = append(ids, e.CER[en].FreebaseID)
	}
	return ids
}

// Key identifies the set within its query regardless of the order of its entities.
func (e *ISFEntry) Key() string {
	return strings.Join(e.Entities(), "\t")
}

// ToInstance converts the entry into a generic instance.
func (e *ISFEntry) ToInstance() *Instance {
	i := NewInstance(e.ID)
	if len(e.Target) > 0 {
		i.Target = e.Target
	}
	for k, v := range e.Features {
		i.Features[k] = v
	}
	i.Properties[PropertyQueryID] = e.QueryID
	i.Properties[PropertyQueryContent] = e.QueryContent

	set := make(map[string]interface{}, len(e.Set))
	for en, mention := range e.Set {
		set[en] = mention
	}
	i.Properties[PropertySet] = set

	if e.CER != nil {
		atts := make(map[string]interface{}, len(e.CER))
		for en, a := range e.CER {
			m := map[string]interface{}{
				PropertyFreebaseID: a.FreebaseID,
				PropertyRank:       float64(a.Rank),
				PropertyCommonness: a.Commonness,
				PropertyScore:      nil,
			}
			if a.Score != nil {
				m[PropertyScore] = *a.Score
			}
			if a.MLMTC != nil {
				m["mlm-tc"] = *a.MLMTC
			}
			atts[en] = m
		}
		i.Properties[PropertyCERAtts] = atts
	}
	i.SetScore(e.Score)
	return i
}

// ISFEntryFromInstance reads an entry back out of an instance.
func ISFEntryFromInstance(i *Instance) *ISFEntry {
	e := &ISFEntry{
		ID:           i.ID,
		QueryID:      i.String(PropertyQueryID),
		QueryContent: i.String(PropertyQueryContent),
		Set:          make(map[string]string),
		Score:        i.Score(),
		Target:       i.Target,
		Features:     make(map[string]float64, len(i.Features)),
	}
	for k, v := range i.Features {
		e.Features[k] = v
	}
	switch set := i.Property(PropertySet).(type) {
	case map[string]interface{}:
		for en, mention := range set {
			if s, ok := mention.(string); ok {
				e.Set[en] = s
			}
		}
	case map[string]string:
		for en, mention := range set {
			e.Set[en] = mention
		}
	}
	if atts, ok := i.Property(PropertyCERAtts).(map[string]interface{}); ok {
		e.CER = make(map[string]CERAttributes, len(atts))
		for en, v := range atts {
			m, ok := v.(map[string]interface{})
			if !ok {
				continue
			}
			var a CERAttributes
			a.FreebaseID, _ = m[PropertyFreebaseID].(string)
			a.Commonness, _ = m[PropertyCommonness].(float64)
			if r, ok := m[PropertyRank].(float64); ok {
				a.Rank = int(r)
			}
			if s, ok := m[PropertyScore].(float64); ok {
				a.Score = &s
			}
			if s, ok := m["mlm-tc"].(float64); ok {
				a.MLMTC = &s
			}
			e.CER[en] = a
		}
	}
	return e
}

// ISFEntries converts entries into an instance collection.
func ISFEntries(entries []*ISFEntry) *Instances {
	ins := NewInstances()
	for _, e := range entries {
		ins.Add(e.ToInstance())
	}
	return ins
}

// ISFEntriesFromInstances converts a collection back into entries ordered by id.
func ISFEntriesFromInstances(ins *Instances) []*ISFEntry {
	entries := make([]*ISFEntry, 0, ins.Len())
	for _, i := range ins.All() {
		entries = append(entries, ISFEntryFromInstance(i))
	}
	return entries
}
