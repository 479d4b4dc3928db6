package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cusspwk/cuss/internal/form"
	"github.com/cusspwk/cuss/internal/model"
	"github.com/cusspwk/cuss/internal/repository"
)

// memFields is an in-memory FieldStore.
type memFields struct {
	mu    sync.Mutex
	items []model.FieldDescriptor
	seq   int
}

func newMemFields(fields []model.FieldDescriptor) *memFields {
	m := &memFields{}
	for _, f := range fields {
		f := f
		_ = m.Create(context.Background(), &f)
	}
	return m
}

func (m *memFields) ListFields(context.Context) ([]model.FieldDescriptor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.FieldDescriptor(nil), m.items...), nil
}

func (m *memFields) Get(_ context.Context, id string) (*model.FieldDescriptor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, f := range m.items {
		if f.ID == id {
			return &f, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memFields) Create(_ context.Context, f *model.FieldDescriptor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	f.ID = fmt.Sprintf("f%d", m.seq)
	m.items = append(m.items, *f)
	return nil
}

func (m *memFields) Update(_ context.Context, f *model.FieldDescriptor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.items {
		if m.items[i].ID == f.ID {
			m.items[i] = *f
			return nil
		}
	}
	return repository.ErrNotFound
}

func (m *memFields) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.items {
		if m.items[i].ID == id {
			m.items = append(m.items[:i], m.items[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

// memConfigs is an in-memory ServiceConfigStore.
type memConfigs struct {
	mu    sync.Mutex
	items map[string]model.ServiceConfig
}

func newMemConfigs(cfgs ...model.ServiceConfig) *memConfigs {
	m := &memConfigs{items: make(map[string]model.ServiceConfig)}
	for _, c := range cfgs {
		c := c
		_ = m.Upsert(context.Background(), &c)
	}
	return m
}

func (m *memConfigs) ListServiceConfigs(context.Context) ([]model.ServiceConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.ServiceConfig, 0, len(m.items))
	for _, c := range m.items {
		out = append(out, c)
	}
	return out, nil
}

func (m *memConfigs) GetByService(_ context.Context, service string) (*model.ServiceConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.items[service]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

func (m *memConfigs) Upsert(_ context.Context, c *model.ServiceConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.items[c.ServiceName]; ok {
		c.ID = old.ID
	} else {
		c.ID = "cfg-" + c.ServiceName
	}
	m.items[c.ServiceName] = *c
	return nil
}

func (m *memConfigs) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, c := range m.items {
		if c.ID == id {
			delete(m.items, k)
			return nil
		}
	}
	return repository.ErrNotFound
}

// formSource joins the two stores into a form.Source.
type formSource struct {
	*memFields
	*memConfigs
}

type countingInvalidator struct{ calls int }

func (c *countingInvalidator) Invalidate(context.Context) error {
	c.calls++
	return nil
}

// recordingPublisher captures published events.
type recordingPublisher struct {
	mu     sync.Mutex
	topics []string
	events []any
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

// staticForms always returns the same snapshot.
type staticForms struct{ snap *form.Snapshot }

func (s staticForms) Snapshot(context.Context) (*form.Snapshot, error) { return s.snap, nil }

func defaultSnapshot(cfgs ...model.ServiceConfig) *form.Snapshot {
	fields := form.DefaultFields()
	fields = append(fields, model.FieldDescriptor{
		Label: "Jumlah Penumpang", Name: "passengers", Kind: model.KindNumber, Position: 9, IsActive: true,
	})
	return form.NewSnapshot(fields, cfgs, time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC))
}

// memTransactions is an in-memory TransactionStore.
type memTransactions struct {
	mu        sync.Mutex
	items     map[string]*model.Transaction
	insertErr error
}

func newMemTransactions() *memTransactions {
	return &memTransactions{items: make(map[string]*model.Transaction)}
}

func (m *memTransactions) Insert(_ context.Context, t *model.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return m.insertErr
	}
	if _, ok := m.items[t.ID]; ok {
		return repository.ErrDuplicate
	}
	m.items[t.ID] = t
	return nil
}

func (m *memTransactions) Get(_ context.Context, id string) (*model.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return t, nil
}

func (m *memTransactions) List(_ context.Context, _ repository.TransactionFilter) ([]model.Transaction, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Transaction, 0, len(m.items))
	for _, t := range m.items {
		out = append(out, *t)
	}
	return out, int64(len(out)), nil
}

func (m *memTransactions) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.items, id)
	return nil
}

// memAdmins is an in-memory AdminStore.
type memAdmins struct {
	byName map[string]*model.Admin
}

func (m *memAdmins) Create(_ context.Context, a *model.Admin) error {
	if _, ok := m.byName[a.Username]; ok {
		return repository.ErrDuplicate
	}
	a.ID = "admin-" + a.Username
	m.byName[a.Username] = a
	return nil
}

func (m *memAdmins) GetByUsername(_ context.Context, username string) (*model.Admin, error) {
	a, ok := m.byName[username]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return a, nil
}

func (m *memAdmins) GetByID(_ context.Context, id string) (*model.Admin, error) {
	for _, a := range m.byName {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, repository.ErrNotFound
}
