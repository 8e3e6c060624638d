package config

import (
	"fmt"
	"strings"
)

// InvalidValue describes one malformed configuration value.
type InvalidValue struct {
	Name   string
	Value  string
	Reason string
}

func (v InvalidValue) String() string {
	if v.Value == "" {
		return fmt.Sprintf("%s: %s", v.Name, v.Reason)
	}
	return fmt.Sprintf("%s=%q: %s", v.Name, v.Value, v.Reason)
}

// Error is the aggregated configuration failure. It is returned before any
// resource is declared and lists every problem found, not just the first.
type Error struct {
	Missing []string
	Invalid []InvalidValue
}

func (e *Error) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing env vars: "+strings.Join(e.Missing, ", "))
	}
	if len(e.Invalid) > 0 {
		msgs := make([]string, len(e.Invalid))
		for i, v := range e.Invalid {
			msgs[i] = v.String()
		}
		parts = append(parts, "invalid env vars: "+strings.Join(msgs, "; "))
	}
	if len(parts) == 0 {
		return "invalid configuration"
	}
	return strings.Join(parts, "; ")
}

func (e *Error) empty() bool {
	return len(e.Missing) == 0 && len(e.Invalid) == 0
}

func (e *Error) invalid(name, value, reason string) {
	e.Invalid = append(e.Invalid, InvalidValue{Name: name, Value: value, Reason: reason})
}
