// Package mapping reads the file that binds a short key to a source file
// and its target table.
//
// The file is a JSON or YAML object keyed by mapping key:
//
//	{
//	  "customers": {
//	    "file_name": "data/customers.csv",
//	    "table_name": "customers",
//	    "wipe_and_load": true
//	  }
//	}
package mapping

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/JonMunkholm/csvload/internal/core"
)

// Entry describes one load target.
type Entry struct {
	FileName    string `json:"file_name" yaml:"file_name"`
	TableName   string `json:"table_name" yaml:"table_name"`
	WipeAndLoad bool   `json:"wipe_and_load" yaml:"wipe_and_load"`
}

// Mapping is the parsed mapping file.
type Mapping struct {
	Path    string
	Entries map[string]Entry
}

// Load reads and validates the mapping file at path. The format follows the
// extension: .yaml and .yml are YAML, everything else is JSON.
func Load(path string) (*Mapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &core.ConfigurationError{Reason: "read mapping file " + path, Err: err}
	}
	return Parse(path, data)
}

// Parse decodes mapping data. path selects the format and is kept for
// error messages.
func Parse(path string, data []byte) (*Mapping, error) {
	entries := make(map[string]Entry)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &entries); err != nil {
			return nil, &core.ConfigurationError{Reason: "parse mapping file " + path, Err: err}
		}
	default:
		if err := json.Unmarshal(data, &entries); err != nil {
			return nil, &core.ConfigurationError{Reason: "parse mapping file " + path, Err: err}
		}
	}

	m := &Mapping{Path: path, Entries: entries}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Validate checks that every entry names a file and a table.
func (m *Mapping) Validate() error {
	for _, key := range m.Keys() {
		e := m.Entries[key]
		if strings.TrimSpace(e.TableName) == "" {
			return &core.ConfigurationError{Key: key, Reason: "table_name is required"}
		}
		if strings.TrimSpace(e.FileName) == "" {
			return &core.ConfigurationError{Key: key, Reason: "file_name is required"}
		}
	}
	return nil
}

// Keys returns the mapping keys in sorted order.
func (m *Mapping) Keys() []string {
	keys := make([]string, 0, len(m.Entries))
	for k := range m.Entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Lookup returns the entry for key. An unknown key is a
// *core.ConfigurationError wrapping core.ErrUnknownKey.
func (m *Mapping) Lookup(key string) (Entry, error) {
	e, ok := m.Entries[key]
	if !ok {
		return Entry{}, &core.ConfigurationError{
			Key:    key,
			Reason: fmt.Sprintf("not found in %s", m.Path),
			Err:    core.ErrUnknownKey,
		}
	}
	return e, nil
}

// Request builds the load request for key. A non-nil overrideWipe
// replaces the entry's wipe_and_load flag.
func (m *Mapping) Request(key string, overrideWipe *bool) (core.LoadRequest, error) {
	e, err := m.Lookup(key)
	if err != nil {
		return core.LoadRequest{}, err
	}

	wipe := e.WipeAndLoad
	if overrideWipe != nil {
		wipe = *overrideWipe
	}

	return core.LoadRequest{
		Key:         key,
		FileName:    e.FileName,
		TableName:   e.TableName,
		WipeAndLoad: wipe,
	}, nil
}

// ParseOverride parses an override_wipe value. Empty means no override;
// otherwise the value must be exactly "true" or "false".
func ParseOverride(s string) (*bool, error) {
	switch s {
	case "":
		return nil, nil
	case "true":
		v := true
		return &v, nil
	case "false":
		v := false
		return &v, nil
	}
	return nil, &core.ConfigurationError{Reason: fmt.Sprintf("override_wipe must be true or false, got %q", s)}
}
