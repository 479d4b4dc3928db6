package form

import (
	"time"

	"github.com/cusspwk/cuss/internal/model"
)

var (
	stasiun = map[string]any{"lat": -6.5567, "lng": 107.4439, "address": "Stasiun Purwakarta"}
	alun    = map[string]any{"lat": -6.5605, "lng": 107.4472, "address": "Alun-alun Purwakarta"}
)

func testFields() []model.FieldDescriptor {
	return []model.FieldDescriptor{
		{ID: "9", Label: "Jumlah Penumpang", Name: "passengers", Kind: model.KindNumber, Required: true, Position: 9, IsActive: true},
		{ID: "1", Label: "Nama", Name: "name", Kind: model.KindText, Required: true, Position: 1, IsActive: true},
		{ID: "2", Label: "WhatsApp", Name: "whatsapp", Kind: model.KindText, Position: 2, IsActive: true},
		{ID: "3", Label: "Layanan", Name: "service", Kind: model.KindSelect, Required: true, Position: 3, IsActive: true,
			Options: []string{"Antar Jemput", "Kurir", "Belanja"}},
		{ID: "4", Label: "Lokasi Jemput", Name: "pickup", Kind: model.KindMap, Position: 4, IsActive: true},
		{ID: "5", Label: "Tujuan", Name: "destination", Kind: model.KindMap, Position: 5, IsActive: true},
		{ID: "6", Label: "Jarak (km)", Name: "distance", Kind: model.KindNumber, Readonly: true, Position: 6, IsActive: true,
			AutoCalculate: &model.AutoCalculate{Kind: model.AutoCalcDistance, From: "pickup", To: "destination"}},
		{ID: "7", Label: "Langganan", Name: "subscription", Kind: model.KindCheckbox, Position: 7, IsActive: true},
		{ID: "8", Label: "Catatan", Name: "notes", Kind: model.KindTextarea, Position: 8, IsActive: true},
		{ID: "10", Label: "Titik Singgah", Name: "stopover", Kind: model.KindMap, Position: 10, IsActive: true},
		{ID: "11", Label: "Lama", Name: "legacy", Kind: model.KindText, Position: 0, IsActive: false},
	}
}

func testConfigs() []model.ServiceConfig {
	return []model.ServiceConfig{
		{
			ServiceName:      "Antar Jemput",
			ShowPickup:       true,
			ShowDestination:  true,
			ShowDirections:   true,
			FirstStepFields:  []string{"name", "service"},
			SecondStepFields: []string{"pickup", "destination", "stopover"},
		},
		{
			ServiceName:     "Kurir",
			FirstStepFields: []string{"service", "name", "passengers", "ghost", "pickup"},
		},
	}
}

func testSnapshot() *Snapshot {
	return NewSnapshot(testFields(), testConfigs(), time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC))
}

func names(fields []model.FieldDescriptor) []string {
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		out = append(out, f.Name)
	}
	return out
}
