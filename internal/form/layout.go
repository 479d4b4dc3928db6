package form

import (
	"sort"

	"github.com/cusspwk/cuss/internal/model"
)

// Layout is the set of fields visible on each wizard step for one selected
// service.
type Layout struct {
	Service    string `json:"service"`
	Configured bool   `json:"configured"`

	// Step1 holds the detail fields, in config order when configured and
	// in position order otherwise.
	Step1 []model.FieldDescriptor `json:"step1"`

	// Step2 holds map fields other than pickup/destination, which are
	// rendered together as the location picker.
	Step2           []model.FieldDescriptor `json:"step2"`
	LocationPicker  bool                    `json:"locationPicker"`
	ShowPickup      bool                    `json:"showPickup"`
	ShowDestination bool                    `json:"showDestination"`
	ShowDirections  bool                    `json:"showDirections"`

	// Summary holds the read-only label/value rows of step 3.
	Summary []model.FieldDescriptor `json:"summary"`

	// Missing lists configured field names that did not resolve to an
	// active field. They are skipped, not rendered.
	Missing []string `json:"missing,omitempty"`
}

// StepFields returns the fields rendered on the given step.
func (l Layout) StepFields(step Step) []model.FieldDescriptor {
	switch step {
	case StepDetails:
		return l.Step1
	case StepLocation:
		return l.Step2
	case StepSummary:
		return l.Summary
	}
	return nil
}

// distanceSummaryField is shown on the summary when the registry has no
// distance field of its own.
var distanceSummaryField = model.FieldDescriptor{
	Label:    "Jarak (km)",
	Name:     model.FieldDistance,
	Kind:     model.KindNumber,
	Readonly: true,
	IsActive: true,
}

// ComputeLayout assigns fields to wizard steps. With a service config,
// step 1 is exactly cfg.FirstStepFields and step 2 is cfg.SecondStepFields.
// Without one, every active field of the step's kind is shown and the
// location picker stays visible.
func ComputeLayout(fields []model.FieldDescriptor, cfg *model.ServiceConfig, service string) Layout {
	active := make([]model.FieldDescriptor, 0, len(fields))
	byName := make(map[string]model.FieldDescriptor, len(fields))
	for _, f := range fields {
		if !f.IsActive {
			continue
		}
		active = append(active, f)
		if _, dup := byName[f.Name]; !dup {
			byName[f.Name] = f
		}
	}
	sort.SliceStable(active, func(i, j int) bool { return active[i].Position < active[j].Position })

	l := Layout{Service: service, Configured: cfg != nil}
	missing := make(map[string]bool)
	markMissing := func(name string) {
		if !missing[name] {
			missing[name] = true
			l.Missing = append(l.Missing, name)
		}
	}

	// ── Step 1: details ─────────────────────────────────
	if cfg == nil {
		for _, f := range active {
			if f.Kind != model.KindMap {
				l.Step1 = append(l.Step1, f)
			}
		}
	} else {
		seen := make(map[string]bool)
		for _, name := range cfg.FirstStepFields {
			f, ok := byName[name]
			if !ok {
				markMissing(name)
				continue
			}
			if f.Kind == model.KindMap || seen[name] {
				continue
			}
			seen[name] = true
			l.Step1 = append(l.Step1, f)
		}
	}

	// ── Step 2: location ────────────────────────────────
	if cfg == nil {
		for _, f := range active {
			if f.Kind == model.KindMap && !isPickerField(f.Name) {
				l.Step2 = append(l.Step2, f)
			}
		}
	} else {
		seen := make(map[string]bool)
		for _, name := range cfg.SecondStepFields {
			if isPickerField(name) {
				continue
			}
			f, ok := byName[name]
			if !ok {
				markMissing(name)
				continue
			}
			if f.Kind != model.KindMap || seen[name] {
				continue
			}
			seen[name] = true
			l.Step2 = append(l.Step2, f)
		}
	}

	_, hasPickup := byName[model.FieldPickup]
	_, hasDestination := byName[model.FieldDestination]
	if cfg == nil {
		l.ShowPickup = hasPickup
		l.ShowDestination = hasDestination
		l.ShowDirections = hasPickup && hasDestination
	} else {
		l.ShowPickup = cfg.ShowPickup && hasPickup
		l.ShowDestination = cfg.ShowDestination && hasDestination
		l.ShowDirections = cfg.ShowDirections
	}
	l.LocationPicker = l.ShowPickup || l.ShowDestination

	// ── Step 3: summary ─────────────────────────────────
	hasDistance := false
	for _, f := range active {
		if f.Readonly {
			l.Summary = append(l.Summary, f)
			if f.Name == model.FieldDistance {
				hasDistance = true
			}
		}
	}
	if !hasDistance {
		if f, ok := byName[model.FieldDistance]; ok {
			l.Summary = append(l.Summary, f)
		} else {
			l.Summary = append(l.Summary, distanceSummaryField)
		}
	}

	return l
}

func isPickerField(name string) bool {
	return name == model.FieldPickup || name == model.FieldDestination
}
