package form

import (
	"fmt"
	"sort"
	"strings"
)

// CoerceError lists the fields whose raw input could not be normalized.
type CoerceError struct {
	Fields map[string]string
}

func (e *CoerceError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for n := range e.Fields {
		names = append(names, n)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, n := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", n, e.Fields[n]))
	}
	return "invalid values: " + strings.Join(parts, "; ")
}

// CoerceValues normalizes a decoded JSON object against the snapshot.
// Unknown keys and read-only fields are dropped; derived fields are then
// recomputed from the accepted values.
func (s *Snapshot) CoerceValues(raw map[string]any) (Values, error) {
	out := make(Values, len(raw))
	var bad map[string]string

	for name, v := range raw {
		f, ok := s.Descriptor(name)
		if !ok || f.Readonly || s.deriver.IsDerived(name) {
			continue
		}
		cv, err := Coerce(f, v)
		if err != nil {
			if bad == nil {
				bad = make(map[string]string)
			}
			bad[name] = err.Error()
			continue
		}
		if cv != nil {
			out[name] = cv
		}
	}
	if bad != nil {
		return nil, &CoerceError{Fields: bad}
	}
	s.deriver.RecomputeAll(out)
	return out, nil
}
