package form

import "github.com/cusspwk/cuss/internal/model"

// DefaultFields is the registry a fresh installation starts with. The
// service options mirror the services seeded on the public site.
func DefaultFields() []model.FieldDescriptor {
	return []model.FieldDescriptor{
		{Label: "Nama", Name: model.FieldName, Kind: model.KindText, Required: true, Position: 1, IsActive: true},
		{Label: "Nomor WhatsApp", Name: model.FieldWhatsapp, Kind: model.KindText, Position: 2, IsActive: true},
		{Label: "Layanan", Name: model.FieldService, Kind: model.KindSelect, Required: true, Position: 3, IsActive: true,
			Options: []string{"Antar Jemput", "Kurir", "Belanja"}},
		{Label: "Lokasi Jemput", Name: model.FieldPickup, Kind: model.KindMap, Position: 4, IsActive: true},
		{Label: "Lokasi Tujuan", Name: model.FieldDestination, Kind: model.KindMap, Position: 5, IsActive: true},
		{Label: "Jarak (km)", Name: model.FieldDistance, Kind: model.KindNumber, Readonly: true, Position: 6, IsActive: true,
			AutoCalculate: &model.AutoCalculate{Kind: model.AutoCalcDistance, From: model.FieldPickup, To: model.FieldDestination}},
		{Label: "Langganan", Name: model.FieldSubscription, Kind: model.KindCheckbox, Position: 7, IsActive: true},
		{Label: "Catatan", Name: model.FieldNotes, Kind: model.KindTextarea, Position: 8, IsActive: true},
	}
}
