// Package state saves and restores the values of a parameter registry as
// JSON documents.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/justyntemme/polysynth/pkg/framework/param"
)

// Version is the document version written by Save
const Version = 1

var ErrUnknownParameter = errors.New("unknown parameter")

// Document is the stored form of a registry. List parameters are stored by
// option id, everything else as a number.
type Document struct {
	Version int                        `json:"version"`
	Params  map[string]json.RawMessage `json:"params"`
}

// Manager handles saving and loading a registry
type Manager struct {
	registry *param.Registry
	strict   bool
}

// NewManager creates a new state manager
func NewManager(registry *param.Registry) *Manager {
	return &Manager{registry: registry}
}

// SetStrict makes Load fail on ids the registry does not know
func (m *Manager) SetStrict(strict bool) {
	m.strict = strict
}

// Save writes every parameter to w
func (m *Manager) Save(w io.Writer) error {
	doc := Document{
		Version: Version,
		Params:  make(map[string]json.RawMessage, m.registry.Count()),
	}

	for _, p := range m.registry.All() {
		var value any = p.GetPlainValue()
		if p.IsList() {
			value = p.Option()
		}
		raw, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("encode %s: %w", p.ID, err)
		}
		doc.Params[p.ID] = raw
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// Load reads a document written by Save. A bare object of id to value is
// accepted too. Parameters missing from the document keep their value.
func (m *Manager) Load(r io.Reader) error {
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return fmt.Errorf("decode state: %w", err)
	}

	values := raw
	if params, ok := raw["params"]; ok {
		var doc Document
		if err := json.Unmarshal(params, &doc.Params); err != nil {
			return fmt.Errorf("decode params: %w", err)
		}
		if v, ok := raw["version"]; ok {
			if err := json.Unmarshal(v, &doc.Version); err != nil {
				return fmt.Errorf("decode version: %w", err)
			}
		}
		if doc.Version > Version {
			return fmt.Errorf("state version %d is newer than supported version %d", doc.Version, Version)
		}
		values = doc.Params
	}

	// apply in a fixed order so errors are reproducible
	ids := make([]string, 0, len(values))
	for id := range values {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		p := m.registry.Get(id)
		if p == nil {
			if m.strict {
				return fmt.Errorf("%w: %s", ErrUnknownParameter, id)
			}
			// Ignore unknown parameters for forward compatibility
			continue
		}
		if err := apply(p, values[id]); err != nil {
			return err
		}
	}

	return nil
}

func apply(p *param.Parameter, raw json.RawMessage) error {
	var number float64
	if err := json.Unmarshal(raw, &number); err == nil {
		p.SetPlainValue(number)
		return nil
	}

	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return fmt.Errorf("%s: value must be a number or a string", p.ID)
	}
	return p.SetString(text)
}
