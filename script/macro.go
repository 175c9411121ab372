package script

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var (
	// ErrMissingMacro is returned when a template slot names a macro that
	// was not supplied.
	ErrMissingMacro = errors.New("missing macro")
	// ErrMacroFormat is returned when a macro value does not fit the printf
	// verb attached to its slot.
	ErrMacroFormat = errors.New("invalid macro format")
)

// MacroError locates a failed substitution.
type MacroError struct {
	Field string
	Name  string
	Err   error
}

func (e *MacroError) Error() string {
	return fmt.Sprintf("script: %s: macro %q: %v", e.Field, e.Name, e.Err)
}

func (e *MacroError) Unwrap() error { return e.Err }

// A slot is {{name}} or {{name:%04d}}; blanks inside the braces are ignored.
var macroPattern = regexp.MustCompile(`\{\{\s*([A-Za-z_][A-Za-z0-9_.\-]*)\s*(?::\s*(%[^{}\s]+))?\s*\}\}`)

// Macros returns the sorted, de-duplicated macro names referenced by s.
func (s *Script) Macros() []string {
	seen := map[string]struct{}{}
	collect := func(text string) {
		for _, m := range macroPattern.FindAllStringSubmatch(text, -1) {
			seen[m[1]] = struct{}{}
		}
	}
	collect(s.Executable)
	collect(s.Arguments)
	for _, opt := range s.Options {
		collect(opt.Value)
	}
	for _, f := range s.TransferInputFiles {
		collect(f)
	}
	for _, f := range s.TransferOutputFiles {
		collect(f)
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// substitute resolves every slot in text. A nil macro map leaves text as is.
func substitute(field, text string, macros map[string]string) (string, error) {
	if macros == nil {
		return text, nil
	}
	matches := macroPattern.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return text, nil
	}
	var b strings.Builder
	last := 0
	for _, m := range matches {
		b.WriteString(text[last:m[0]])
		name := text[m[2]:m[3]]
		value, ok := macros[name]
		if !ok {
			return "", &MacroError{Field: field, Name: name, Err: ErrMissingMacro}
		}
		if m[4] >= 0 {
			formatted, err := formatMacro(text[m[4]:m[5]], value)
			if err != nil {
				return "", &MacroError{Field: field, Name: name, Err: err}
			}
			value = formatted
		}
		b.WriteString(value)
		last = m[1]
	}
	b.WriteString(text[last:])
	return b.String(), nil
}

func formatMacro(format, value string) (string, error) {
	switch verb := format[len(format)-1]; verb {
	case 'd', 'b', 'o', 'x', 'X', 'c':
		n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
		if err != nil {
			return "", fmt.Errorf("%w: %s needs an integer, got %q", ErrMacroFormat, format, value)
		}
		return fmt.Sprintf(format, n), nil
	case 'e', 'E', 'f', 'F', 'g', 'G':
		x, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return "", fmt.Errorf("%w: %s needs a number, got %q", ErrMacroFormat, format, value)
		}
		return fmt.Sprintf(format, x), nil
	case 's', 'q', 'v':
		return fmt.Sprintf(format, value), nil
	default:
		return "", fmt.Errorf("%w: unsupported verb in %s", ErrMacroFormat, format)
	}
}
