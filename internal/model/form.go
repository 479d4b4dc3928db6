package model

import "time"

// ─── Enums ──────────────────────────────────────────────────

// FieldKind is the input kind of a booking form field.
type FieldKind string

const (
	KindText     FieldKind = "text"
	KindNumber   FieldKind = "number"
	KindTextarea FieldKind = "textarea"
	KindSelect   FieldKind = "select"
	KindCheckbox FieldKind = "checkbox"
	KindMap      FieldKind = "map"
)

// Valid reports whether k is one of the known field kinds.
func (k FieldKind) Valid() bool {
	switch k {
	case KindText, KindNumber, KindTextarea, KindSelect, KindCheckbox, KindMap:
		return true
	}
	return false
}

// AutoCalcDistance is the only supported auto-calculation rule kind.
const AutoCalcDistance = "distance"

// ─── Fixed submission fields ────────────────────────────────

const (
	FieldName         = "name"
	FieldWhatsapp     = "whatsapp"
	FieldService      = "service"
	FieldPickup       = "pickup"
	FieldDestination  = "destination"
	FieldDistance     = "distance"
	FieldSubscription = "subscription"
	FieldNotes        = "notes"
	FieldLatitude     = "latitude"
	FieldLongitude    = "longitude"
)

// ─── Form configuration ─────────────────────────────────────

// AutoCalculate marks a field whose value is derived from two other fields.
type AutoCalculate struct {
	Kind string `json:"kind"`
	From string `json:"from"`
	To   string `json:"to"`
}

// FieldDescriptor is the admin-maintained description of one form input.
type FieldDescriptor struct {
	ID            string         `json:"id"`
	Label         string         `json:"label"`
	Name          string         `json:"name"`
	Kind          FieldKind      `json:"kind"`
	Required      bool           `json:"required"`
	Readonly      bool           `json:"readonly"`
	Position      int            `json:"position"`
	Options       []string       `json:"options"`
	IsActive      bool           `json:"isActive"`
	AutoCalculate *AutoCalculate `json:"autoCalculate,omitempty"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

// ServiceConfig controls which fields and location widgets appear on each
// wizard step for one service.
type ServiceConfig struct {
	ID               string    `json:"id"`
	ServiceName      string    `json:"serviceName"`
	ShowPickup       bool      `json:"showPickup"`
	ShowDestination  bool      `json:"showDestination"`
	ShowDirections   bool      `json:"showDirections"`
	FirstStepFields  []string  `json:"firstStepFields"`
	SecondStepFields []string  `json:"secondStepFields"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// ─── Location ───────────────────────────────────────────────

// GeoPoint is the value of a map field. The zero value means "unset".
type GeoPoint struct {
	Lat     float64 `json:"lat" bson:"lat"`
	Lng     float64 `json:"lng" bson:"lng"`
	Address string  `json:"address" bson:"address"`
}

// IsUnset reports whether p is the unset sentinel {0, 0, ""}.
func (p GeoPoint) IsUnset() bool {
	return p.Lat == 0 && p.Lng == 0 && p.Address == ""
}

// HasCoordinates reports whether p carries a usable location. (0, 0) is
// treated as "no location" even when an address is attached.
func (p GeoPoint) HasCoordinates() bool {
	return p.Lat != 0 || p.Lng != 0
}
