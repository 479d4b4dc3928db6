package form

import (
	"strconv"
	"strings"

	"github.com/cusspwk/cuss/internal/model"
	"github.com/cusspwk/cuss/pkg/geo"
)

// Assemble builds the final submission from wizard values. The fixed fields
// are always populated; distance is recomputed from pickup and destination;
// every other active field present in values is copied under its own name.
func Assemble(fields []model.FieldDescriptor, values Values) model.BookingSubmission {
	sub := model.BookingSubmission{
		Name:         stringValue(values[model.FieldName]),
		Whatsapp:     optionalString(values[model.FieldWhatsapp]),
		Service:      stringValue(values[model.FieldService]),
		Subscription: ToBool(values[model.FieldSubscription]),
		Notes:        optionalString(values[model.FieldNotes]),
		Latitude:     optionalFloat(values[model.FieldLatitude]),
		Longitude:    optionalFloat(values[model.FieldLongitude]),
	}
	sub.Pickup, _ = ToPoint(values[model.FieldPickup])
	sub.Destination, _ = ToPoint(values[model.FieldDestination])

	if km, ok := geo.Distance(sub.Pickup, sub.Destination); ok {
		sub.Distance = geo.RoundKm(km)
	}

	for _, f := range fields {
		if !f.IsActive || model.IsFixedField(f.Name) || model.IsReservedKey(f.Name) {
			continue
		}
		v, ok := values[f.Name]
		if !ok {
			continue
		}
		if sub.Extra == nil {
			sub.Extra = make(map[string]any)
		}
		sub.Extra[f.Name] = v
	}
	return sub
}

func stringValue(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(s)
	}
	return ""
}

func optionalString(v any) *string {
	s := stringValue(v)
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

func optionalFloat(v any) *float64 {
	n, err := coerceNumber(model.FieldDescriptor{}, v)
	if err != nil || n == nil {
		return nil
	}
	f := n.(float64)
	return &f
}
