package form

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cusspwk/cuss/internal/model"
)

// Step is one of the three wizard steps.
type Step int

const (
	StepDetails Step = iota + 1
	StepLocation
	StepSummary
)

func (s Step) String() string {
	switch s {
	case StepDetails:
		return "details"
	case StepLocation:
		return "location"
	case StepSummary:
		return "summary"
	}
	return fmt.Sprintf("step(%d)", int(s))
}

// Valid reports whether s is one of the three wizard steps.
func (s Step) Valid() bool {
	return s >= StepDetails && s <= StepSummary
}

// ─── Wizard Errors ──────────────────────────────────────────

var (
	// ErrNotAtSummary is returned by Submit before the summary step.
	ErrNotAtSummary = errors.New("submit is only available from the summary step")

	// ErrUnknownField is returned when setting a name that is neither an
	// active field nor a fixed submission field.
	ErrUnknownField = errors.New("unknown field")

	// ErrReadonlyField is returned when setting a derived or read-only field.
	ErrReadonlyField = errors.New("field is read-only")
)

// ValidationError lists the required fields that block leaving a step.
type ValidationError struct {
	Step   Step
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("step %s: required fields are empty: %s", e.Step, strings.Join(e.Fields, ", "))
}

// fixedKinds gives the kind of fixed submission fields that have no
// descriptor in the registry.
var fixedKinds = map[string]model.FieldKind{
	model.FieldName:         model.KindText,
	model.FieldWhatsapp:     model.KindText,
	model.FieldService:      model.KindText,
	model.FieldPickup:       model.KindMap,
	model.FieldDestination:  model.KindMap,
	model.FieldDistance:     model.KindNumber,
	model.FieldSubscription: model.KindCheckbox,
	model.FieldNotes:        model.KindTextarea,
	model.FieldLatitude:     model.KindNumber,
	model.FieldLongitude:    model.KindNumber,
}

// Descriptor resolves name to an active field, or to a synthetic descriptor
// for a fixed submission field. ok is false for unknown names.
func (s *Snapshot) Descriptor(name string) (model.FieldDescriptor, bool) {
	if f, ok := s.byName[name]; ok {
		return f, true
	}
	kind, ok := fixedKinds[name]
	if !ok {
		return model.FieldDescriptor{}, false
	}
	return model.FieldDescriptor{
		Name:     name,
		Label:    name,
		Kind:     kind,
		IsActive: true,
		Readonly: name == model.FieldDistance,
	}, true
}

// ─── Step validation ────────────────────────────────────────

// ValidateStep returns the names of required fields on step that hold no
// value. Read-only fields are derived and never block navigation.
func ValidateStep(l Layout, values Values, step Step) []string {
	var missing []string
	for _, f := range l.StepFields(step) {
		if step == StepSummary || !f.Required || f.Readonly {
			continue
		}
		if IsEmpty(f.Kind, values[f.Name]) {
			missing = append(missing, f.Name)
		}
	}
	if step == StepLocation {
		if l.ShowPickup && IsEmpty(model.KindMap, values[model.FieldPickup]) {
			missing = append(missing, model.FieldPickup)
		}
		if l.ShowDestination && IsEmpty(model.KindMap, values[model.FieldDestination]) {
			missing = append(missing, model.FieldDestination)
		}
	}
	return missing
}

// ValidateAll runs the step 1 and step 2 checks in order and returns the
// first failure.
func ValidateAll(l Layout, values Values) error {
	for _, step := range []Step{StepDetails, StepLocation} {
		if missing := ValidateStep(l, values, step); len(missing) > 0 {
			return &ValidationError{Step: step, Fields: missing}
		}
	}
	return nil
}

// ─── Wizard ─────────────────────────────────────────────────

// State is the wizard context owned by one form session.
type State struct {
	SelectedService string
	Step            Step
	Values          Values
}

// Wizard drives one booking session through Details → Location → Summary.
// It is not safe for concurrent use; each session owns its wizard.
type Wizard struct {
	snap  *Snapshot
	state State
}

// NewWizard starts a session at the details step.
func NewWizard(snap *Snapshot) *Wizard {
	return &Wizard{
		snap:  snap,
		state: State{Step: StepDetails, Values: Values{}},
	}
}

// State returns a copy of the current wizard state.
func (w *Wizard) State() State {
	s := w.state
	s.Values = w.state.Values.Clone()
	return s
}

// Layout returns the layout for the currently selected service.
func (w *Wizard) Layout() Layout {
	return w.snap.Layout(w.state.SelectedService)
}

// Reload swaps in a freshly polled registry snapshot, keeping the values
// entered so far and re-deriving computed fields against the new rules.
func (w *Wizard) Reload(snap *Snapshot) {
	w.snap = snap
	snap.Deriver().RecomputeAll(w.state.Values)
}

// Set stores one field value. Changing "service" re-gates the layout;
// changing a location refreshes every distance that depends on it.
func (w *Wizard) Set(name string, raw any) error {
	f, ok := w.snap.Descriptor(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	if f.Readonly || w.snap.Deriver().IsDerived(name) {
		return fmt.Errorf("%w: %q", ErrReadonlyField, name)
	}

	v, err := Coerce(f, raw)
	if err != nil {
		return err
	}
	if v == nil {
		delete(w.state.Values, name)
	} else {
		w.state.Values[name] = v
	}

	if name == model.FieldService {
		w.state.SelectedService = stringValue(v)
	}
	w.snap.Deriver().OnChange(w.state.Values, name)
	return nil
}

// Next advances one step when the current step's required fields are
// filled. On failure the state is left untouched.
func (w *Wizard) Next() error {
	if w.state.Step >= StepSummary {
		return nil
	}
	if missing := ValidateStep(w.Layout(), w.state.Values, w.state.Step); len(missing) > 0 {
		return &ValidationError{Step: w.state.Step, Fields: missing}
	}
	w.state.Step++
	return nil
}

// Back returns to the previous step. It never fails.
func (w *Wizard) Back() {
	if w.state.Step > StepDetails {
		w.state.Step--
	}
}

// Submit validates every step and assembles the submission. The wizard
// state is kept so a failed delivery can be retried.
func (w *Wizard) Submit() (model.BookingSubmission, error) {
	if w.state.Step != StepSummary {
		return model.BookingSubmission{}, ErrNotAtSummary
	}
	if err := ValidateAll(w.Layout(), w.state.Values); err != nil {
		return model.BookingSubmission{}, err
	}
	return Assemble(w.snap.Fields, w.state.Values), nil
}
