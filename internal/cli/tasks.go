package cli

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Invocation — одна задача из командной строки.
type Invocation struct {
	// Name — имя задачи.
	Name string

	// Args — позиционные аргументы.
	Args []string

	// Kwargs — именованные аргументы (key=value).
	Kwargs map[string]string
}

// String возвращает задачу в исходной записи.
func (inv Invocation) String() string {
	if len(inv.Args) == 0 && len(inv.Kwargs) == 0 {
		return inv.Name
	}

	parts := make([]string, 0, len(inv.Args)+len(inv.Kwargs))
	parts = append(parts, inv.Args...)
	for _, k := range slices.Sorted(maps.Keys(inv.Kwargs)) {
		parts = append(parts, k+"="+inv.Kwargs[k])
	}
	return inv.Name + ":" + strings.Join(parts, ",")
}

// Arg возвращает именованный аргумент, либо позиционный с индексом pos.
func (inv Invocation) Arg(name string, pos int) (string, bool) {
	if v, ok := inv.Kwargs[name]; ok {
		return v, true
	}
	if pos < len(inv.Args) {
		return inv.Args[pos], true
	}
	return "", false
}

// ParseTasks разбирает аргументы командной строки в задачи.
//
//	ParseTasks([]string{"prod", "release:v1,force=yes"})
//	// [{Name: "prod"}, {Name: "release", Args: ["v1"], Kwargs: {"force": "yes"}}]
func ParseTasks(args []string) ([]Invocation, error) {
	if len(args) == 0 {
		return nil, ErrNoTasks
	}

	invs := make([]Invocation, 0, len(args))
	for _, arg := range args {
		inv, err := parseTask(arg)
		if err != nil {
			return nil, err
		}
		invs = append(invs, inv)
	}

	return invs, nil
}

func parseTask(arg string) (Invocation, error) {
	name, rest, hasArgs := strings.Cut(arg, ":")
	name = strings.TrimSpace(name)
	if name == "" {
		return Invocation{}, fmt.Errorf("%w: empty task name in %q", ErrInvalidArguments, arg)
	}

	inv := Invocation{Name: name}
	if !hasArgs || rest == "" {
		return inv, nil
	}

	for _, part := range splitEscaped(rest, ',') {
		key, value, isKwarg := cutEscaped(part, '=')
		if !isKwarg {
			inv.Args = append(inv.Args, unescape(part))
			continue
		}

		key = unescape(key)
		if key == "" {
			return Invocation{}, fmt.Errorf("%w: empty argument name in %q", ErrInvalidArguments, arg)
		}
		if inv.Kwargs == nil {
			inv.Kwargs = make(map[string]string)
		}
		inv.Kwargs[key] = unescape(value)
	}

	return inv, nil
}

// splitEscaped делит s по sep, пропуская экранированные "\sep".
func splitEscaped(s string, sep byte) []string {
	var parts []string
	start := 0

	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case sep:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}

	return append(parts, s[start:])
}

// cutEscaped делит s по первому неэкранированному sep.
func cutEscaped(s string, sep byte) (before, after string, found bool) {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case sep:
			return s[:i], s[i+1:], true
		}
	}
	return s, "", false
}

// unescape убирает обратные слэши перед "," "=" и "\".
func unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}

	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			switch s[i+1] {
			case ',', '=', '\\':
				i++
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
