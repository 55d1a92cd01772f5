package domain

import (
	"encoding/json"
	"sort"
)

// ScholarshipRecord is one entry of the scraped corpus file. The schema
// is owned by the external crawler; the core only parses it.
//
// Contenido is usually a label→value mapping, but older corpus files may
// carry it as a plain string, so it is decoded leniently.
type ScholarshipRecord struct {
	Titulo      string          `json:"titulo"`
	URL         string          `json:"url"`
	Nivel       string          `json:"nivel"`
	Tipos       []string        `json:"tipos"`
	Modalidades []string        `json:"modalidades"`
	Contenido   json.RawMessage `json:"contenido"`
}

// ContentPair is one label/value line of a record's detail section.
type ContentPair struct {
	Key   string
	Value string
}

// ContentPairs decodes the Contenido field. A mapping decodes to its
// key/value pairs; a bare string decodes to a single pair under the
// "Información General" label. Returns nil when the field is empty.
func (r ScholarshipRecord) ContentPairs() []ContentPair {
	if len(r.Contenido) == 0 {
		return nil
	}

	var asMap map[string]string
	if err := json.Unmarshal(r.Contenido, &asMap); err == nil {
		pairs := make([]ContentPair, 0, len(asMap))
		for k, v := range asMap {
			pairs = append(pairs, ContentPair{Key: k, Value: v})
		}
		// Stable body text regardless of map iteration order.
		sort.Slice(pairs, func(i, j int) bool { return pairs[i].Key < pairs[j].Key })
		return pairs
	}

	var asString string
	if err := json.Unmarshal(r.Contenido, &asString); err == nil && asString != "" {
		return []ContentPair{{Key: "Información General", Value: asString}}
	}

	return nil
}
