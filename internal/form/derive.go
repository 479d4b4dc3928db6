package form

import (
	"github.com/cusspwk/cuss/internal/model"
	"github.com/cusspwk/cuss/pkg/geo"
)

// distanceRule keeps target equal to the distance between from and to.
type distanceRule struct {
	target, from, to string
}

// Deriver recomputes auto-calculated fields. Each rule is only evaluated
// when one of the two fields it depends on changes.
type Deriver struct {
	rules []distanceRule
	deps  map[string][]int
}

// NewDeriver indexes the distance rules of the active fields.
func NewDeriver(fields []model.FieldDescriptor) *Deriver {
	d := &Deriver{deps: make(map[string][]int)}
	for _, f := range fields {
		r := f.AutoCalculate
		if !f.IsActive || r == nil || r.Kind != model.AutoCalcDistance {
			continue
		}
		idx := len(d.rules)
		d.rules = append(d.rules, distanceRule{target: f.Name, from: r.From, to: r.To})
		d.deps[r.From] = append(d.deps[r.From], idx)
		if r.To != r.From {
			d.deps[r.To] = append(d.deps[r.To], idx)
		}
	}
	return d
}

// IsDerived reports whether name is the target of a rule.
func (d *Deriver) IsDerived(name string) bool {
	for _, r := range d.rules {
		if r.target == name {
			return true
		}
	}
	return false
}

// OnChange re-evaluates every rule that depends on changed and returns the
// names of the fields it rewrote.
func (d *Deriver) OnChange(values Values, changed string) []string {
	idxs := d.deps[changed]
	if len(idxs) == 0 {
		return nil
	}
	updated := make([]string, 0, len(idxs))
	for _, i := range idxs {
		d.apply(values, d.rules[i])
		updated = append(updated, d.rules[i].target)
	}
	return updated
}

// RecomputeAll re-evaluates every rule.
func (d *Deriver) RecomputeAll(values Values) {
	for _, r := range d.rules {
		d.apply(values, r)
	}
}

// apply writes the rounded distance, or clears the target when either
// endpoint is unset.
func (d *Deriver) apply(values Values, r distanceRule) {
	from, _ := ToPoint(values[r.from])
	to, _ := ToPoint(values[r.to])
	km, ok := geo.Distance(from, to)
	if !ok {
		delete(values, r.target)
		return
	}
	values[r.target] = geo.RoundKm(km)
}
