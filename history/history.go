// Package history saves and loads the names and IDs of submitted jobs as
// plain two-column text:
//
//	# job name job ID
//	run_000    123456
package history

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

const (
	nameHeader = "# job name"
	idHeader   = "job ID"
)

var ErrMalformed = errors.New("history: malformed row")

// Save writes jobs to path sorted by name, with aligned columns.
func Save(path string, jobs map[string]int) error {
	names := make([]string, 0, len(jobs))
	nameWidth, idWidth := len(nameHeader), len(idHeader)
	for name, id := range jobs {
		names = append(names, name)
		nameWidth = max(nameWidth, len(name))
		idWidth = max(idWidth, len(strconv.Itoa(id)))
	}
	sort.Strings(names)

	var b strings.Builder
	fmt.Fprintf(&b, "%-*s %-*s\n", nameWidth, nameHeader, idWidth, idHeader)
	for _, name := range names {
		fmt.Fprintf(&b, "%-*s %*d\n", nameWidth, name, idWidth, jobs[name])
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}

// Load reads a job history. Rows starting with # are comments.
func Load(path string) (map[string]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	jobs := map[string]int{}
	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		row := scanner.Text()
		if strings.HasPrefix(row, "#") || strings.TrimSpace(row) == "" {
			continue
		}
		fields := strings.Fields(row)
		if len(fields) != 2 {
			return nil, fmt.Errorf("%w: %s:%d: %q", ErrMalformed, path, line, row)
		}
		id, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, fmt.Errorf("%w: %s:%d: job ID %q", ErrMalformed, path, line, fields[1])
		}
		if _, ok := jobs[fields[0]]; ok {
			return nil, fmt.Errorf("%w: %s:%d: duplicate job %s", ErrMalformed, path, line, fields[0])
		}
		jobs[fields[0]] = id
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return jobs, nil
}
