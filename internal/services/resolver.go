package services

import (
	"context"
	"fmt"
	"log"

	"github.com/thibovi/rebilt-backend/internal/db"
	"github.com/thibovi/rebilt-backend/internal/models"
)

// Resolver manages partner configuration bindings and joins them with the
// partners, configurations, options and categories they reference.
// Nothing it resolves is stored; every read joins again.
type Resolver struct {
	db     *db.Database
	strict bool
}

// NewResolver creates a resolver. With strict set, writes reject references
// that do not exist or options the configuration does not offer.
func NewResolver(database *db.Database, strict bool) *Resolver {
	return &Resolver{db: database, strict: strict}
}

// Strict reports whether reference checks are enforced
func (r *Resolver) Strict() bool { return r.strict }

// BindingInput is the writable part of a PartnerConfiguration.
// A nil Options slice means the field was absent or not a list.
type BindingInput struct {
	PartnerID       string   `json:"partnerId"`
	ConfigurationID string   `json:"configurationId"`
	Options         []string `json:"options"`
	CategoryIDs     []string `json:"categoryIds"`
}

func (in BindingInput) validate() error {
	if in.PartnerID == "" {
		return Invalid("partnerId", "is required")
	}
	if in.ConfigurationID == "" {
		return Invalid("configurationId", "is required")
	}
	if in.Options == nil {
		return Invalid("options", "must be a list")
	}
	return nil
}

// Bind creates the binding of a configuration for a partner.
// A second binding for the same pair is a conflict.
func (r *Resolver) Bind(ctx context.Context, in BindingInput) (*models.PartnerConfiguration, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if r.strict {
		if err := r.checkReferences(ctx, in); err != nil {
			return nil, err
		}
	}
	_, err := r.db.FindPartnerConfiguration(ctx, in.PartnerID, in.ConfigurationID)
	if err == nil {
		return nil, fmt.Errorf("partner configuration for partner %s and configuration %s: %w",
			in.PartnerID, in.ConfigurationID, db.ErrConflict)
	}
	if !db.IsNotFound(err) {
		return nil, err
	}
	pc := &models.PartnerConfiguration{
		PartnerID:       in.PartnerID,
		ConfigurationID: in.ConfigurationID,
		Options:         in.Options,
		CategoryIDs:     in.CategoryIDs,
	}
	// the unique index still catches a concurrent Bind racing past the lookup
	if err := r.db.CreatePartnerConfiguration(ctx, pc); err != nil {
		return nil, err
	}
	log.Printf("[RESOLVER] Bound configuration %s to partner %s with %d options", pc.ConfigurationID, pc.PartnerID, len(pc.Options))
	return pc, nil
}

// Replace overwrites a binding. Option membership is only checked in strict mode.
func (r *Resolver) Replace(ctx context.Context, id string, in BindingInput) (*models.PartnerConfiguration, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	existing, err := r.db.GetPartnerConfiguration(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.strict {
		if err := r.checkReferences(ctx, in); err != nil {
			return nil, err
		}
	}
	existing.PartnerID = in.PartnerID
	existing.ConfigurationID = in.ConfigurationID
	existing.Options = in.Options
	existing.CategoryIDs = in.CategoryIDs
	if err := r.db.UpdatePartnerConfiguration(ctx, existing); err != nil {
		return nil, err
	}
	return existing, nil
}

// Remove deletes a binding. Products using it are left untouched.
func (r *Resolver) Remove(ctx context.Context, id string) error {
	return r.db.DeletePartnerConfiguration(ctx, id)
}

// List resolves every binding, or only those of partnerID when given
func (r *Resolver) List(ctx context.Context, partnerID string) ([]models.ResolvedPartnerConfiguration, error) {
	bindings, err := r.db.GetPartnerConfigurations(ctx, partnerID)
	if err != nil {
		return nil, err
	}
	return r.resolve(ctx, bindings)
}

// Get resolves a single binding
func (r *Resolver) Get(ctx context.Context, id string) (*models.ResolvedPartnerConfiguration, error) {
	pc, err := r.db.GetPartnerConfiguration(ctx, id)
	if err != nil {
		return nil, err
	}
	out, err := r.resolve(ctx, []models.PartnerConfiguration{*pc})
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

// ForCategory resolves the bindings of a partner that apply to categoryID.
// A binding without categories applies to all of them.
func (r *Resolver) ForCategory(ctx context.Context, partnerID, categoryID string) ([]models.ResolvedPartnerConfiguration, error) {
	bindings, err := r.db.GetPartnerConfigurations(ctx, partnerID)
	if err != nil {
		return nil, err
	}
	applicable := make([]models.PartnerConfiguration, 0, len(bindings))
	for _, b := range bindings {
		if len(b.CategoryIDs) == 0 || contains(b.CategoryIDs, categoryID) {
			applicable = append(applicable, b)
		}
	}
	return r.resolve(ctx, applicable)
}

// ResolveConfiguration expands the option ids of a configuration
func (r *Resolver) ResolveConfiguration(ctx context.Context, id string) (*models.ResolvedConfiguration, error) {
	cfg, err := r.db.GetConfiguration(ctx, id)
	if err != nil {
		return nil, err
	}
	opts, err := r.db.GetOptionsByID(ctx, cfg.Options)
	if err != nil {
		return nil, err
	}
	return &models.ResolvedConfiguration{
		ID:        cfg.ID,
		FieldName: cfg.FieldName,
		FieldType: cfg.FieldType,
		IsColor:   cfg.IsColor,
		Options:   resolveOptions(cfg.Options, opts),
	}, nil
}

// joinCache memoizes lookups within one resolve call
type joinCache struct {
	partners       map[string]*models.Partner
	configurations map[string]*models.Configuration
	categories     map[string]*models.Category
}

func (r *Resolver) resolve(ctx context.Context, bindings []models.PartnerConfiguration) ([]models.ResolvedPartnerConfiguration, error) {
	cache := joinCache{
		partners:       map[string]*models.Partner{},
		configurations: map[string]*models.Configuration{},
		categories:     map[string]*models.Category{},
	}
	var optionIDs []string
	for _, b := range bindings {
		optionIDs = append(optionIDs, b.Options...)
	}
	options, err := r.db.GetOptionsByID(ctx, optionIDs)
	if err != nil {
		return nil, err
	}

	out := make([]models.ResolvedPartnerConfiguration, 0, len(bindings))
	for _, b := range bindings {
		res := models.ResolvedPartnerConfiguration{
			ID:              b.ID,
			PartnerID:       b.PartnerID,
			ConfigurationID: b.ConfigurationID,
			Options:         resolveOptions(b.Options, options),
			Categories:      []models.ResolvedCategory{},
		}
		partner, err := r.partner(ctx, &cache, b.PartnerID)
		if err != nil {
			return nil, err
		}
		if partner != nil {
			res.PartnerName = partner.Name
		}
		cfg, err := r.configuration(ctx, &cache, b.ConfigurationID)
		if err != nil {
			return nil, err
		}
		if cfg != nil {
			res.FieldName = cfg.FieldName
			res.FieldType = cfg.FieldType
			res.IsColor = cfg.IsColor
		}
		for _, catID := range b.CategoryIDs {
			cat, err := r.category(ctx, &cache, catID)
			if err != nil {
				return nil, err
			}
			if cat == nil {
				res.Categories = append(res.Categories, models.ResolvedCategory{ID: catID, Missing: true})
				continue
			}
			res.Categories = append(res.Categories, models.ResolvedCategory{ID: catID, Name: cat.Name})
		}
		out = append(out, res)
	}
	return out, nil
}

func resolveOptions(ids []string, found map[string]models.Option) []models.ResolvedOption {
	out := make([]models.ResolvedOption, 0, len(ids))
	for _, id := range ids {
		o, ok := found[id]
		if !ok {
			out = append(out, models.ResolvedOption{ID: id, Missing: true})
			continue
		}
		out = append(out, models.ResolvedOption{
			ID:         o.ID,
			Name:       o.Name,
			Type:       o.Type,
			Price:      o.Price,
			TextureURL: o.TextureURL,
		})
	}
	return out
}

// lookup fetches id through fetch, caching the result. Missing documents resolve to nil.
func lookup[T any](ctx context.Context, cache map[string]*T, id string, fetch func(context.Context, string) (*T, error)) (*T, error) {
	if v, ok := cache[id]; ok {
		return v, nil
	}
	v, err := fetch(ctx, id)
	if err != nil && !db.IsNotFound(err) {
		return nil, err
	}
	cache[id] = v
	return v, nil
}

func (r *Resolver) partner(ctx context.Context, c *joinCache, id string) (*models.Partner, error) {
	return lookup(ctx, c.partners, id, r.db.GetPartner)
}

func (r *Resolver) configuration(ctx context.Context, c *joinCache, id string) (*models.Configuration, error) {
	return lookup(ctx, c.configurations, id, r.db.GetConfiguration)
}

func (r *Resolver) category(ctx context.Context, c *joinCache, id string) (*models.Category, error) {
	return lookup(ctx, c.categories, id, r.db.GetCategory)
}

func (r *Resolver) checkReferences(ctx context.Context, in BindingInput) error {
	if _, err := r.db.GetPartner(ctx, in.PartnerID); err != nil {
		if db.IsNotFound(err) {
			return Invalid("partnerId", "unknown partner %s", in.PartnerID)
		}
		return err
	}
	cfg, err := r.db.GetConfiguration(ctx, in.ConfigurationID)
	if err != nil {
		if db.IsNotFound(err) {
			return Invalid("configurationId", "unknown configuration %s", in.ConfigurationID)
		}
		return err
	}
	for _, opt := range in.Options {
		if !contains(cfg.Options, opt) {
			return Invalid("options", "option %s is not offered by configuration %s", opt, cfg.ID)
		}
	}
	for _, catID := range in.CategoryIDs {
		if _, err := r.db.GetCategory(ctx, catID); err != nil {
			if db.IsNotFound(err) {
				return Invalid("categoryIds", "unknown category %s", catID)
			}
			return err
		}
	}
	return nil
}

// ValidateProduct checks, in strict mode only, that every selected option of
// p is permitted by a binding of p's partner
func (r *Resolver) ValidateProduct(ctx context.Context, p *models.Product) error {
	if !r.strict {
		return nil
	}
	if _, err := r.db.GetPartner(ctx, p.PartnerID); err != nil {
		if db.IsNotFound(err) {
			return Invalid("partnerId", "unknown partner %s", p.PartnerID)
		}
		return err
	}
	for _, catID := range p.CategoryIDs {
		if _, err := r.db.GetCategory(ctx, catID); err != nil {
			if db.IsNotFound(err) {
				return Invalid("categoryIds", "unknown category %s", catID)
			}
			return err
		}
	}
	for _, pc := range p.Configurations {
		binding, err := r.db.FindPartnerConfiguration(ctx, p.PartnerID, pc.ConfigurationID)
		if err != nil {
			if db.IsNotFound(err) {
				return Invalid("configurations", "configuration %s is not bound to partner %s", pc.ConfigurationID, p.PartnerID)
			}
			return err
		}
		for _, sel := range pc.SelectedOptions {
			if !contains(binding.Options, sel.OptionID) {
				return Invalid("configurations", "option %s is not permitted for configuration %s", sel.OptionID, pc.ConfigurationID)
			}
		}
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
