package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// fixedFields are the submission keys with a dedicated struct field. Any
// other key travels in Extra.
var fixedFields = map[string]bool{
	FieldName:         true,
	FieldWhatsapp:     true,
	FieldService:      true,
	FieldPickup:       true,
	FieldDestination:  true,
	FieldDistance:     true,
	FieldSubscription: true,
	FieldNotes:        true,
	FieldLatitude:     true,
	FieldLongitude:    true,
}

// reservedKeys are used by the stored Transaction document and can never
// be carried as extra fields.
var reservedKeys = map[string]bool{
	"id":        true,
	"_id":       true,
	"createdAt": true,
	"clientIp":  true,
}

// IsFixedField reports whether name is one of the fixed submission fields.
func IsFixedField(name string) bool {
	return fixedFields[name]
}

// IsReservedKey reports whether name collides with a stored-document key.
func IsReservedKey(name string) bool {
	return reservedKeys[name]
}

// BookingSubmission is the payload assembled from the booking wizard.
// It serializes as a flat JSON object: extras sit next to the fixed fields.
type BookingSubmission struct {
	Name         string
	Whatsapp     *string
	Service      string
	Pickup       GeoPoint
	Destination  GeoPoint
	Distance     float64
	Subscription bool
	Notes        *string
	Latitude     *float64
	Longitude    *float64
	Extra        map[string]any
}

func (s BookingSubmission) flatten() map[string]any {
	out := make(map[string]any, len(s.Extra)+len(fixedFields))
	for k, v := range s.Extra {
		if !fixedFields[k] {
			out[k] = v
		}
	}
	out[FieldName] = s.Name
	out[FieldWhatsapp] = s.Whatsapp
	out[FieldService] = s.Service
	out[FieldPickup] = s.Pickup
	out[FieldDestination] = s.Destination
	out[FieldDistance] = s.Distance
	out[FieldSubscription] = s.Subscription
	out[FieldNotes] = s.Notes
	if s.Latitude != nil {
		out[FieldLatitude] = *s.Latitude
	}
	if s.Longitude != nil {
		out[FieldLongitude] = *s.Longitude
	}
	return out
}

// MarshalJSON writes the submission as one flat object.
func (s BookingSubmission) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.flatten())
}

// UnmarshalJSON reads a flat object, routing unknown keys into Extra.
func (s *BookingSubmission) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*s = BookingSubmission{}
	targets := map[string]any{
		FieldName:         &s.Name,
		FieldWhatsapp:     &s.Whatsapp,
		FieldService:      &s.Service,
		FieldPickup:       &s.Pickup,
		FieldDestination:  &s.Destination,
		FieldDistance:     &s.Distance,
		FieldSubscription: &s.Subscription,
		FieldNotes:        &s.Notes,
		FieldLatitude:     &s.Latitude,
		FieldLongitude:    &s.Longitude,
	}

	for key, msg := range raw {
		if target, ok := targets[key]; ok {
			if err := json.Unmarshal(msg, target); err != nil {
				return fmt.Errorf("submission field %q: %w", key, err)
			}
			continue
		}
		var v any
		if err := json.Unmarshal(msg, &v); err != nil {
			return fmt.Errorf("submission field %q: %w", key, err)
		}
		if s.Extra == nil {
			s.Extra = make(map[string]any)
		}
		s.Extra[key] = v
	}
	return nil
}

// Transaction is a persisted booking. The document ID doubles as the
// customer-facing booking reference.
type Transaction struct {
	ID           string         `bson:"_id"`
	Name         string         `bson:"name"`
	Whatsapp     *string        `bson:"whatsapp"`
	Service      string         `bson:"service"`
	Pickup       GeoPoint       `bson:"pickup"`
	Destination  GeoPoint       `bson:"destination"`
	Distance     float64        `bson:"distance"`
	Subscription bool           `bson:"subscription"`
	Notes        *string        `bson:"notes"`
	Latitude     *float64       `bson:"latitude,omitempty"`
	Longitude    *float64       `bson:"longitude,omitempty"`
	ClientIP     string         `bson:"clientIp,omitempty"`
	CreatedAt    time.Time      `bson:"createdAt"`
	Extra        map[string]any `bson:",inline"`
}

// NewTransaction wraps a submission for storage. Extra keys that collide
// with fixed or reserved document keys are dropped.
func NewTransaction(id string, s BookingSubmission, createdAt time.Time) *Transaction {
	var extra map[string]any
	for k, v := range s.Extra {
		if fixedFields[k] || reservedKeys[k] {
			continue
		}
		if extra == nil {
			extra = make(map[string]any, len(s.Extra))
		}
		extra[k] = v
	}
	return &Transaction{
		ID:           id,
		Name:         s.Name,
		Whatsapp:     s.Whatsapp,
		Service:      s.Service,
		Pickup:       s.Pickup,
		Destination:  s.Destination,
		Distance:     s.Distance,
		Subscription: s.Subscription,
		Notes:        s.Notes,
		Latitude:     s.Latitude,
		Longitude:    s.Longitude,
		CreatedAt:    createdAt,
		Extra:        extra,
	}
}

// Submission returns the booking payload stored in t.
func (t *Transaction) Submission() BookingSubmission {
	return BookingSubmission{
		Name:         t.Name,
		Whatsapp:     t.Whatsapp,
		Service:      t.Service,
		Pickup:       t.Pickup,
		Destination:  t.Destination,
		Distance:     t.Distance,
		Subscription: t.Subscription,
		Notes:        t.Notes,
		Latitude:     t.Latitude,
		Longitude:    t.Longitude,
		Extra:        t.Extra,
	}
}

// MarshalJSON writes the transaction as the flat submission plus id and createdAt.
func (t Transaction) MarshalJSON() ([]byte, error) {
	out := t.Submission().flatten()
	out["id"] = t.ID
	out["createdAt"] = t.CreatedAt
	return json.Marshal(out)
}
