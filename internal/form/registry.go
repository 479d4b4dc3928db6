package form

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/cusspwk/cuss/internal/model"
)

// ─── Registry Errors ────────────────────────────────────────

var (
	// ErrDuplicateName is returned when two active fields share a name.
	ErrDuplicateName = errors.New("field name already used by an active field")

	// ErrInvalidKind is returned for a field kind outside the known set.
	ErrInvalidKind = errors.New("invalid field kind")

	// ErrInvalidRule is returned for an autoCalculate rule that cannot be evaluated.
	ErrInvalidRule = errors.New("invalid autoCalculate rule")

	// ErrMissingOptions is returned for a select field without options.
	ErrMissingOptions = errors.New("select field needs at least one option")

	// ErrReservedName is returned for a field named after a key of the
	// stored transaction document, which could never be submitted.
	ErrReservedName = errors.New("field name is reserved")
)

// Snapshot is an immutable view of the field registry and the service
// configuration map, as loaded at one point in time.
type Snapshot struct {
	Fields   []model.FieldDescriptor
	Configs  map[string]model.ServiceConfig
	LoadedAt time.Time

	byName  map[string]model.FieldDescriptor
	deriver *Deriver
}

// NewSnapshot builds a snapshot from raw registry rows. Fields are ordered by
// position (ties keep their input order) and only the active ones are kept.
func NewSnapshot(fields []model.FieldDescriptor, configs []model.ServiceConfig, loadedAt time.Time) *Snapshot {
	active := make([]model.FieldDescriptor, 0, len(fields))
	for _, f := range fields {
		if f.IsActive {
			active = append(active, f)
		}
	}
	sort.SliceStable(active, func(i, j int) bool { return active[i].Position < active[j].Position })

	s := &Snapshot{
		Fields:   active,
		Configs:  make(map[string]model.ServiceConfig, len(configs)),
		LoadedAt: loadedAt,
		byName:   make(map[string]model.FieldDescriptor, len(active)),
	}
	for _, f := range active {
		if _, dup := s.byName[f.Name]; !dup {
			s.byName[f.Name] = f
		}
	}
	for _, c := range configs {
		s.Configs[c.ServiceName] = c
	}
	s.deriver = NewDeriver(active)
	return s
}

// Field looks up an active field by name.
func (s *Snapshot) Field(name string) (model.FieldDescriptor, bool) {
	f, ok := s.byName[name]
	return f, ok
}

// Config returns the service configuration for a service name.
func (s *Snapshot) Config(service string) (model.ServiceConfig, bool) {
	c, ok := s.Configs[service]
	return c, ok
}

// Deriver returns the derived-field engine for this snapshot.
func (s *Snapshot) Deriver() *Deriver {
	return s.deriver
}

// Layout computes the wizard layout for the given selected service.
func (s *Snapshot) Layout(service string) Layout {
	var cfg *model.ServiceConfig
	if c, ok := s.Configs[service]; ok {
		cfg = &c
	}
	return ComputeLayout(s.Fields, cfg, service)
}

// ─── Validation ─────────────────────────────────────────────

// ValidateField checks a single descriptor in isolation.
func ValidateField(f model.FieldDescriptor) error {
	if model.IsReservedKey(f.Name) {
		return fmt.Errorf("field %q: %w", f.Name, ErrReservedName)
	}
	if !f.Kind.Valid() {
		return fmt.Errorf("field %q: %w: %q", f.Name, ErrInvalidKind, f.Kind)
	}
	if f.Kind == model.KindSelect && len(f.Options) == 0 {
		return fmt.Errorf("field %q: %w", f.Name, ErrMissingOptions)
	}
	if r := f.AutoCalculate; r != nil {
		if r.Kind != model.AutoCalcDistance {
			return fmt.Errorf("field %q: %w: unsupported kind %q", f.Name, ErrInvalidRule, r.Kind)
		}
		if r.From == "" || r.To == "" {
			return fmt.Errorf("field %q: %w: from and to are required", f.Name, ErrInvalidRule)
		}
		if r.From == f.Name || r.To == f.Name {
			return fmt.Errorf("field %q: %w: rule references itself", f.Name, ErrInvalidRule)
		}
	}
	return nil
}

// ValidateRegistry checks the whole registry: every field individually,
// active-name uniqueness, and that distance rules point at map fields.
func ValidateRegistry(fields []model.FieldDescriptor) error {
	active := make(map[string]model.FieldDescriptor, len(fields))
	for _, f := range fields {
		if err := ValidateField(f); err != nil {
			return err
		}
		if !f.IsActive {
			continue
		}
		if _, dup := active[f.Name]; dup {
			return fmt.Errorf("field %q: %w", f.Name, ErrDuplicateName)
		}
		active[f.Name] = f
	}

	for _, f := range active {
		r := f.AutoCalculate
		if r == nil {
			continue
		}
		for _, ref := range []string{r.From, r.To} {
			src, ok := active[ref]
			if !ok {
				return fmt.Errorf("field %q: %w: %q is not an active field", f.Name, ErrInvalidRule, ref)
			}
			if src.Kind != model.KindMap {
				return fmt.Errorf("field %q: %w: %q is not a map field", f.Name, ErrInvalidRule, ref)
			}
		}
	}
	return nil
}
