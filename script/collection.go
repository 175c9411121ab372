package script

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/ini.v1"
)

// ErrDuplicateJob is returned when a collection names the same job twice.
var ErrDuplicateJob = errors.New("script: duplicate job name")

// ErrMacroValue is returned when a collection gives a macro a value that is
// not a string, number or boolean.
var ErrMacroValue = errors.New("script: macro value must be a scalar")

// Job is a script parametrized by macros. Jobs of one collection usually
// share the same *Script.
type Job struct {
	Script *Script
	Macros map[string]string
}

// Render renders the job's script with its macros.
func (j *Job) Render() (string, error) {
	macros := j.Macros
	if macros == nil {
		macros = map[string]string{}
	}
	return j.Script.Render(macros)
}

// Equal reports whether both jobs render to byte-identical text.
func (j *Job) Equal(other *Job) bool {
	if j == nil || other == nil {
		return j == other
	}
	a, err := j.Render()
	if err != nil {
		return false
	}
	b, err := other.Render()
	if err != nil {
		return false
	}
	return a == b
}

// CollectionEntry is one job of a JSON collection.
type CollectionEntry struct {
	Name   string         `json:"name"`
	Script string         `json:"script"`
	Macros map[string]any `json:"macros,omitempty"`
}

// LoadCollection reads a collection of jobs from path. JSON collections
// (.json) are either a list of entries or an object keyed by job name; INI
// collections (.ini, .cfg) hold one section per job whose `script` key is the
// script path and whose other keys are macros. Relative script paths resolve
// against the collection's directory. When rescue is non-empty, only the
// named jobs are kept.
func LoadCollection(path string, rescue []string) (map[string]*Job, error) {
	var (
		entries []CollectionEntry
		err     error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		entries, err = readJSONCollection(path)
	case ".ini", ".cfg":
		entries, err = readINICollection(path)
	default:
		return nil, fmt.Errorf("script: unsupported collection format %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("script: load collection %s: %w", path, err)
	}

	keep := map[string]struct{}{}
	for _, name := range rescue {
		keep[name] = struct{}{}
	}

	base := filepath.Dir(path)
	scripts := map[string]*Script{}
	jobs := make(map[string]*Job, len(entries))
	for _, entry := range entries {
		if len(keep) > 0 {
			if _, ok := keep[entry.Name]; !ok {
				continue
			}
		}
		if _, ok := jobs[entry.Name]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateJob, entry.Name)
		}
		if entry.Script == "" {
			return nil, fmt.Errorf("script: job %s has no script", entry.Name)
		}
		scriptPath := entry.Script
		if !filepath.IsAbs(scriptPath) {
			scriptPath = filepath.Join(base, scriptPath)
		}
		s, ok := scripts[scriptPath]
		if !ok {
			if s, err = Load(scriptPath); err != nil {
				return nil, fmt.Errorf("script: job %s: %w", entry.Name, err)
			}
			scripts[scriptPath] = s
		}
		macros := make(map[string]string, len(entry.Macros))
		for k, v := range entry.Macros {
			value, err := macroValue(v)
			if err != nil {
				return nil, fmt.Errorf("script: job %s: macro %s: %w", entry.Name, k, err)
			}
			macros[k] = value
		}
		jobs[entry.Name] = &Job{Script: s, Macros: macros}
	}
	return jobs, nil
}

// SaveCollection writes entries as a JSON collection.
func SaveCollection(path string, entries []CollectionEntry) error {
	data, err := json.MarshalIndent(entries, "", "    ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func readJSONCollection(path string) ([]CollectionEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		return readJSONObjectCollection(trimmed)
	}
	var entries []CollectionEntry
	if err := decodeNumbers(trimmed, &entries); err != nil {
		return nil, err
	}
	for i, entry := range entries {
		if entry.Name == "" {
			return nil, fmt.Errorf("entry %d has no name", i)
		}
	}
	return entries, nil
}

// readJSONObjectCollection walks the object key by key so that a job named
// twice is reported instead of silently keeping the last entry.
func readJSONObjectCollection(data []byte) ([]CollectionEntry, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if _, err := dec.Token(); err != nil {
		return nil, err
	}

	seen := map[string]struct{}{}
	var entries []CollectionEntry
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		name, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v", tok)
		}
		if _, ok := seen[name]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateJob, name)
		}
		seen[name] = struct{}{}

		var entry CollectionEntry
		if err := dec.Decode(&entry); err != nil {
			return nil, fmt.Errorf("job %s: %w", name, err)
		}
		entry.Name = name
		entries = append(entries, entry)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

// macroValue formats a scalar macro value. Objects, lists and null have no
// textual form in a script.
func macroValue(v any) (string, error) {
	switch v := v.(type) {
	case string:
		return v, nil
	case json.Number:
		return v.String(), nil
	case bool, int, int32, int64, uint, uint32, uint64, float32, float64:
		return fmt.Sprint(v), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrMacroValue, describeValue(v))
	}
}

func describeValue(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "object"
	case []any:
		return "list"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// decodeNumbers keeps numeric macros in their literal form (0 stays "0").
func decodeNumbers(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}

func readINICollection(path string) ([]CollectionEntry, error) {
	cfg, err := ini.Load(path)
	if err != nil {
		return nil, err
	}
	defaults := cfg.Section(ini.DefaultSection).KeysHash()

	var entries []CollectionEntry
	for _, sec := range cfg.Sections() {
		if sec.Name() == ini.DefaultSection {
			continue
		}
		macros := make(map[string]any, len(defaults)+len(sec.Keys()))
		for k, v := range defaults {
			macros[k] = v
		}
		for _, key := range sec.Keys() {
			macros[key.Name()] = key.Value()
		}
		scriptPath, _ := macros["script"].(string)
		delete(macros, "script")
		entries = append(entries, CollectionEntry{
			Name:   sec.Name(),
			Script: scriptPath,
			Macros: macros,
		})
	}
	return entries, nil
}
