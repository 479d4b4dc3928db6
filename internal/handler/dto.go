package handler

import "github.com/cusspwk/cuss/internal/model"

// ─── Admin request bodies ───────────────────────────────────

// activeOrDefault treats an omitted isActive as true.
func activeOrDefault(b *bool) bool {
	return b == nil || *b
}

type autoCalculateRequest struct {
	Kind string `json:"kind" validate:"required,oneof=distance"`
	From string `json:"from" validate:"required"`
	To   string `json:"to" validate:"required"`
}

type fieldRequest struct {
	Label         string                `json:"label" validate:"required,max=100"`
	Name          string                `json:"name" validate:"required,max=64"`
	Kind          string                `json:"kind" validate:"required,oneof=text number textarea select checkbox map"`
	Required      bool                  `json:"required"`
	Readonly      bool                  `json:"readonly"`
	Position      int                   `json:"position" validate:"gte=0"`
	Options       []string              `json:"options" validate:"dive,required"`
	IsActive      *bool                 `json:"isActive"`
	AutoCalculate *autoCalculateRequest `json:"autoCalculate"`
}

func (req fieldRequest) toModel(id string) *model.FieldDescriptor {
	f := &model.FieldDescriptor{
		ID:       id,
		Label:    req.Label,
		Name:     req.Name,
		Kind:     model.FieldKind(req.Kind),
		Required: req.Required,
		Readonly: req.Readonly,
		Position: req.Position,
		Options:  req.Options,
		IsActive: activeOrDefault(req.IsActive),
	}
	if req.AutoCalculate != nil {
		f.AutoCalculate = &model.AutoCalculate{
			Kind: req.AutoCalculate.Kind,
			From: req.AutoCalculate.From,
			To:   req.AutoCalculate.To,
		}
	}
	return f
}

type serviceConfigRequest struct {
	ShowPickup       bool     `json:"showPickup"`
	ShowDestination  bool     `json:"showDestination"`
	ShowDirections   bool     `json:"showDirections"`
	FirstStepFields  []string `json:"firstStepFields" validate:"dive,required"`
	SecondStepFields []string `json:"secondStepFields" validate:"dive,required"`
}

func (req serviceConfigRequest) toModel(service string) *model.ServiceConfig {
	return &model.ServiceConfig{
		ServiceName:      service,
		ShowPickup:       req.ShowPickup,
		ShowDestination:  req.ShowDestination,
		ShowDirections:   req.ShowDirections,
		FirstStepFields:  req.FirstStepFields,
		SecondStepFields: req.SecondStepFields,
	}
}

type serviceRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Slug        string `json:"slug" validate:"max=100"`
	Description string `json:"description"`
	ImageURL    string `json:"imageUrl" validate:"omitempty,url"`
	PriceLabel  string `json:"priceLabel" validate:"max=100"`
	Position    int    `json:"position" validate:"gte=0"`
	IsActive    *bool  `json:"isActive"`
}

func (req serviceRequest) toModel(id string) *model.Service {
	return &model.Service{
		ID:          id,
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		PriceLabel:  req.PriceLabel,
		Position:    req.Position,
		IsActive:    activeOrDefault(req.IsActive),
	}
}

type faqRequest struct {
	Question string `json:"question" validate:"required"`
	Answer   string `json:"answer" validate:"required"`
	Position int    `json:"position" validate:"gte=0"`
	IsActive *bool  `json:"isActive"`
}

func (req faqRequest) toModel(id string) *model.FAQ {
	return &model.FAQ{
		ID:       id,
		Question: req.Question,
		Answer:   req.Answer,
		Position: req.Position,
		IsActive: activeOrDefault(req.IsActive),
	}
}

type testimonialRequest struct {
	Name      string `json:"name" validate:"required,max=100"`
	Role      string `json:"role" validate:"max=100"`
	Content   string `json:"content" validate:"required"`
	Rating    int    `json:"rating" validate:"required,min=1,max=5"`
	AvatarURL string `json:"avatarUrl" validate:"omitempty,url"`
	IsActive  *bool  `json:"isActive"`
}

func (req testimonialRequest) toModel(id string) *model.Testimonial {
	return &model.Testimonial{
		ID:        id,
		Name:      req.Name,
		Role:      req.Role,
		Content:   req.Content,
		Rating:    req.Rating,
		AvatarURL: req.AvatarURL,
		IsActive:  activeOrDefault(req.IsActive),
	}
}

type menuItemRequest struct {
	Label    string  `json:"label" validate:"required,max=100"`
	Href     string  `json:"href" validate:"required"`
	ParentID *string `json:"parentId" validate:"omitempty,min=1"`
	Position int     `json:"position" validate:"gte=0"`
	IsActive *bool   `json:"isActive"`
}

func (req menuItemRequest) toModel(id string) *model.MenuItem {
	return &model.MenuItem{
		ID:       id,
		Label:    req.Label,
		Href:     req.Href,
		ParentID: req.ParentID,
		Position: req.Position,
		IsActive: activeOrDefault(req.IsActive),
	}
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}
