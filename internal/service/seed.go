package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/cusspwk/cuss/internal/form"
	"github.com/cusspwk/cuss/internal/model"
	"github.com/cusspwk/cuss/internal/repository"
)

// SeedFields inserts each default field whose name is not already active
// and returns the names it created. Running it twice is a no-op.
func SeedFields(ctx context.Context, store FieldStore, defaults []model.FieldDescriptor) ([]string, error) {
	current, err := store.ListFields(ctx)
	if err != nil {
		return nil, err
	}
	active := make(map[string]bool, len(current))
	for _, f := range current {
		if f.IsActive {
			active[f.Name] = true
		}
	}

	next := current
	var created []string
	for _, f := range defaults {
		if active[f.Name] {
			continue
		}
		f := f
		next = append(next, f)
		if err := form.ValidateRegistry(next); err != nil {
			return created, fmt.Errorf("seed %s: %w", f.Name, err)
		}
		if err := store.Create(ctx, &f); err != nil {
			return created, fmt.Errorf("seed %s: %w", f.Name, err)
		}
		active[f.Name] = true
		created = append(created, f.Name)
	}
	return created, nil
}

// DefaultServices are the services offered at launch. Their names match
// the options of the default service select field.
func DefaultServices() []model.Service {
	return []model.Service{
		{Name: "Antar Jemput", Description: "Antar jemput penumpang di dalam dan sekitar Purwakarta.", PriceLabel: "Mulai Rp10.000", Position: 1, IsActive: true},
		{Name: "Kurir", Description: "Kirim paket dan dokumen di hari yang sama.", PriceLabel: "Mulai Rp8.000", Position: 2, IsActive: true},
		{Name: "Belanja", Description: "Titip belanja pasar, toko dan apotek.", PriceLabel: "Mulai Rp12.000", Position: 3, IsActive: true},
	}
}

// SeedServices creates each default service whose slug is not taken.
func SeedServices(ctx context.Context, store ServiceCatalogStore, defaults []model.Service) ([]string, error) {
	var created []string
	for _, s := range defaults {
		s := s
		s.Slug = Slugify(s.Name)
		_, err := store.GetBySlug(ctx, s.Slug)
		if err == nil {
			continue
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return created, err
		}
		if err := store.Create(ctx, &s); err != nil {
			return created, fmt.Errorf("seed %s: %w", s.Slug, err)
		}
		created = append(created, s.Slug)
	}
	return created, nil
}
