package service

import (
	"context"
	"regexp"
	"strings"

	"github.com/cusspwk/cuss/internal/model"
)

// ServiceCatalogStore persists the services offered on the site.
type ServiceCatalogStore interface {
	List(ctx context.Context, activeOnly bool) ([]model.Service, error)
	GetBySlug(ctx context.Context, slug string) (*model.Service, error)
	Create(ctx context.Context, s *model.Service) error
	Update(ctx context.Context, s *model.Service) error
	Delete(ctx context.Context, id string) error
}

// ContentStore persists FAQs, testimonials and the navigation menu.
type ContentStore interface {
	ListFAQs(ctx context.Context, activeOnly bool) ([]model.FAQ, error)
	SaveFAQ(ctx context.Context, f *model.FAQ) error
	DeleteFAQ(ctx context.Context, id string) error

	ListTestimonials(ctx context.Context, activeOnly bool) ([]model.Testimonial, error)
	SaveTestimonial(ctx context.Context, t *model.Testimonial) error
	DeleteTestimonial(ctx context.Context, id string) error

	ListMenu(ctx context.Context, activeOnly bool) ([]model.MenuItem, error)
	SaveMenuItem(ctx context.Context, m *model.MenuItem) error
	DeleteMenuItem(ctx context.Context, id string) error
}

// CatalogService manages the public site's services and editorial content.
type CatalogService struct {
	services ServiceCatalogStore
	content  ContentStore
}

// NewCatalogService creates a catalog service.
func NewCatalogService(services ServiceCatalogStore, content ContentStore) *CatalogService {
	return &CatalogService{services: services, content: content}
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify turns a display name into a URL slug: "Antar Jemput" → "antar-jemput".
func Slugify(name string) string {
	return strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(name), "-"), "-")
}

// ─── Services ───────────────────────────────────────────────

func (c *CatalogService) ListServices(ctx context.Context, activeOnly bool) ([]model.Service, error) {
	return c.services.List(ctx, activeOnly)
}

func (c *CatalogService) GetService(ctx context.Context, slug string) (*model.Service, error) {
	return c.services.GetBySlug(ctx, slug)
}

// SaveService creates s when it has no ID, otherwise updates it. An empty
// slug is derived from the name.
func (c *CatalogService) SaveService(ctx context.Context, s *model.Service) error {
	s.Name = strings.TrimSpace(s.Name)
	if s.Slug == "" {
		s.Slug = Slugify(s.Name)
	} else {
		s.Slug = Slugify(s.Slug)
	}
	if s.ID == "" {
		return c.services.Create(ctx, s)
	}
	return c.services.Update(ctx, s)
}

func (c *CatalogService) DeleteService(ctx context.Context, id string) error {
	return c.services.Delete(ctx, id)
}

// ─── Content ────────────────────────────────────────────────

func (c *CatalogService) ListFAQs(ctx context.Context, activeOnly bool) ([]model.FAQ, error) {
	return c.content.ListFAQs(ctx, activeOnly)
}

func (c *CatalogService) SaveFAQ(ctx context.Context, f *model.FAQ) error {
	return c.content.SaveFAQ(ctx, f)
}

func (c *CatalogService) DeleteFAQ(ctx context.Context, id string) error {
	return c.content.DeleteFAQ(ctx, id)
}

func (c *CatalogService) ListTestimonials(ctx context.Context, activeOnly bool) ([]model.Testimonial, error) {
	return c.content.ListTestimonials(ctx, activeOnly)
}

func (c *CatalogService) SaveTestimonial(ctx context.Context, t *model.Testimonial) error {
	return c.content.SaveTestimonial(ctx, t)
}

func (c *CatalogService) DeleteTestimonial(ctx context.Context, id string) error {
	return c.content.DeleteTestimonial(ctx, id)
}

// MenuNode is a menu item with its children, as rendered by the site header.
type MenuNode struct {
	model.MenuItem
	Children []MenuNode `json:"children,omitempty"`
}

// MenuTree returns the menu as a two-level tree ordered by position.
// Items whose parent is missing or hidden are dropped.
func (c *CatalogService) MenuTree(ctx context.Context, activeOnly bool) ([]MenuNode, error) {
	items, err := c.content.ListMenu(ctx, activeOnly)
	if err != nil {
		return nil, err
	}
	return BuildMenuTree(items), nil
}

// BuildMenuTree groups flat items under their parents, keeping input order.
func BuildMenuTree(items []model.MenuItem) []MenuNode {
	roots := make([]MenuNode, 0)
	index := make(map[string]int)
	for _, it := range items {
		if it.ParentID == nil {
			index[it.ID] = len(roots)
			roots = append(roots, MenuNode{MenuItem: it})
		}
	}
	for _, it := range items {
		if it.ParentID == nil {
			continue
		}
		if i, ok := index[*it.ParentID]; ok {
			roots[i].Children = append(roots[i].Children, MenuNode{MenuItem: it})
		}
	}
	return roots
}

func (c *CatalogService) ListMenu(ctx context.Context, activeOnly bool) ([]model.MenuItem, error) {
	return c.content.ListMenu(ctx, activeOnly)
}

func (c *CatalogService) SaveMenuItem(ctx context.Context, m *model.MenuItem) error {
	return c.content.SaveMenuItem(ctx, m)
}

func (c *CatalogService) DeleteMenuItem(ctx context.Context, id string) error {
	return c.content.DeleteMenuItem(ctx, id)
}
