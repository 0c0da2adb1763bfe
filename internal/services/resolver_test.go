package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thibovi/rebilt-backend/internal/db"
	"github.com/thibovi/rebilt-backend/internal/models"
)

func newTestDB(t *testing.T) *db.Database {
	t.Helper()
	database := db.New(db.NewMemoryStore())
	require.NoError(t, database.EnsureIndexes(context.Background()))
	return database
}

type catalogFixture struct {
	partner *models.Partner
	config  *models.Configuration
	red     *models.Option
	blue    *models.Option
	chairs  *models.Category
}

func seedCatalog(t *testing.T, database *db.Database) catalogFixture {
	t.Helper()
	ctx := context.Background()
	f := catalogFixture{
		partner: &models.Partner{Name: "Acme", Package: "basic", Active: true},
		red:     &models.Option{Name: "Red", Type: "color", Price: 5, TextureURL: "https://cdn.example.com/red.png"},
		blue:    &models.Option{Name: "Blue", Type: "color"},
	}
	require.NoError(t, database.CreatePartner(ctx, f.partner))
	require.NoError(t, database.CreateOption(ctx, f.red))
	require.NoError(t, database.CreateOption(ctx, f.blue))
	f.config = &models.Configuration{FieldName: "Color", FieldType: "select", IsColor: true, Options: []string{f.red.ID, f.blue.ID}}
	require.NoError(t, database.CreateConfiguration(ctx, f.config))
	f.chairs = &models.Category{Name: "Chairs", PartnerID: f.partner.ID}
	require.NoError(t, database.CreateCategory(ctx, f.chairs))
	return f
}

func TestBindResolvesOptionNames(t *testing.T) {
	ctx := context.Background()
	database := newTestDB(t)
	f := seedCatalog(t, database)
	r := NewResolver(database, false)

	pc, err := r.Bind(ctx, BindingInput{
		PartnerID:       f.partner.ID,
		ConfigurationID: f.config.ID,
		Options:         []string{f.red.ID},
		CategoryIDs:     []string{f.chairs.ID},
	})
	require.NoError(t, err)

	got, err := r.Get(ctx, pc.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme", got.PartnerName)
	assert.Equal(t, "Color", got.FieldName)
	assert.True(t, got.IsColor)
	require.Len(t, got.Options, 1)
	assert.Equal(t, "Red", got.Options[0].Name)
	assert.Equal(t, "https://cdn.example.com/red.png", got.Options[0].TextureURL)
	assert.Equal(t, 5.0, got.Options[0].Price)
	require.Len(t, got.Categories, 1)
	assert.Equal(t, "Chairs", got.Categories[0].Name)

	list, err := r.List(ctx, f.partner.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Red", list[0].Options[0].Name)
}

func TestBindTwiceConflicts(t *testing.T) {
	ctx := context.Background()
	database := newTestDB(t)
	f := seedCatalog(t, database)
	r := NewResolver(database, false)

	in := BindingInput{PartnerID: f.partner.ID, ConfigurationID: f.config.ID, Options: []string{f.red.ID}}
	_, err := r.Bind(ctx, in)
	require.NoError(t, err)

	_, err = r.Bind(ctx, in)
	assert.True(t, db.IsConflict(err), "got %v", err)
}

func TestBindRequiresOptionList(t *testing.T) {
	r := NewResolver(newTestDB(t), false)
	_, err := r.Bind(context.Background(), BindingInput{PartnerID: "p", ConfigurationID: "c"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "options", verr.Field)
}

func TestDanglingReferencesResolveAsMissing(t *testing.T) {
	ctx := context.Background()
	database := newTestDB(t)
	f := seedCatalog(t, database)
	r := NewResolver(database, false)

	pc, err := r.Bind(ctx, BindingInput{
		PartnerID:       f.partner.ID,
		ConfigurationID: f.config.ID,
		Options:         []string{f.red.ID, f.blue.ID},
		CategoryIDs:     []string{f.chairs.ID},
	})
	require.NoError(t, err)

	// deletes never check references
	require.NoError(t, database.DeleteOption(ctx, f.blue.ID))
	require.NoError(t, database.DeleteCategory(ctx, f.chairs.ID))
	require.NoError(t, database.DeleteConfiguration(ctx, f.config.ID))
	require.NoError(t, database.DeletePartner(ctx, f.partner.ID))

	got, err := r.Get(ctx, pc.ID)
	require.NoError(t, err)
	assert.Empty(t, got.PartnerName)
	assert.Empty(t, got.FieldName)
	require.Len(t, got.Options, 2)
	assert.Equal(t, "Red", got.Options[0].Name)
	assert.True(t, got.Options[1].Missing)
	assert.Equal(t, f.blue.ID, got.Options[1].ID)
	require.Len(t, got.Categories, 1)
	assert.True(t, got.Categories[0].Missing)
}

func TestReplaceSkipsMembershipUnlessStrict(t *testing.T) {
	ctx := context.Background()
	database := newTestDB(t)
	f := seedCatalog(t, database)
	stray := &models.Option{Name: "Green", Type: "color"}
	require.NoError(t, database.CreateOption(ctx, stray))

	lenient := NewResolver(database, false)
	pc, err := lenient.Bind(ctx, BindingInput{PartnerID: f.partner.ID, ConfigurationID: f.config.ID, Options: []string{f.red.ID}})
	require.NoError(t, err)

	in := BindingInput{PartnerID: f.partner.ID, ConfigurationID: f.config.ID, Options: []string{stray.ID}}
	_, err = lenient.Replace(ctx, pc.ID, in)
	require.NoError(t, err)

	strict := NewResolver(database, true)
	_, err = strict.Replace(ctx, pc.ID, in)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "options", verr.Field)

	_, err = strict.Replace(ctx, pc.ID, BindingInput{PartnerID: "nope", ConfigurationID: f.config.ID, Options: []string{}})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "partnerId", verr.Field)
}

func TestForCategory(t *testing.T) {
	ctx := context.Background()
	database := newTestDB(t)
	f := seedCatalog(t, database)
	size := &models.Configuration{FieldName: "Size", FieldType: "select", Options: []string{}}
	material := &models.Configuration{FieldName: "Material", FieldType: "select", Options: []string{}}
	require.NoError(t, database.CreateConfiguration(ctx, size))
	require.NoError(t, database.CreateConfiguration(ctx, material))

	r := NewResolver(database, false)
	_, err := r.Bind(ctx, BindingInput{PartnerID: f.partner.ID, ConfigurationID: f.config.ID, Options: []string{}, CategoryIDs: []string{f.chairs.ID}})
	require.NoError(t, err)
	_, err = r.Bind(ctx, BindingInput{PartnerID: f.partner.ID, ConfigurationID: size.ID, Options: []string{}})
	require.NoError(t, err)
	_, err = r.Bind(ctx, BindingInput{PartnerID: f.partner.ID, ConfigurationID: material.ID, Options: []string{}, CategoryIDs: []string{"tables"}})
	require.NoError(t, err)

	got, err := r.ForCategory(ctx, f.partner.ID, f.chairs.ID)
	require.NoError(t, err)
	names := []string{}
	for _, b := range got {
		names = append(names, b.FieldName)
	}
	assert.ElementsMatch(t, []string{"Color", "Size"}, names)
}

func TestValidateProductStrict(t *testing.T) {
	ctx := context.Background()
	database := newTestDB(t)
	f := seedCatalog(t, database)
	r := NewResolver(database, true)
	_, err := r.Bind(ctx, BindingInput{PartnerID: f.partner.ID, ConfigurationID: f.config.ID, Options: []string{f.red.ID}})
	require.NoError(t, err)

	product := &models.Product{
		PartnerID: f.partner.ID,
		Configurations: []models.ProductConfiguration{{
			ConfigurationID: f.config.ID,
			SelectedOptions: []models.SelectedOption{{OptionID: f.red.ID}},
		}},
	}
	assert.NoError(t, r.ValidateProduct(ctx, product))

	product.Configurations[0].SelectedOptions[0].OptionID = f.blue.ID
	var verr *ValidationError
	assert.ErrorAs(t, r.ValidateProduct(ctx, product), &verr)

	assert.NoError(t, NewResolver(database, false).ValidateProduct(ctx, product))
}

func TestResolveConfiguration(t *testing.T) {
	ctx := context.Background()
	database := newTestDB(t)
	f := seedCatalog(t, database)

	got, err := NewResolver(database, false).ResolveConfiguration(ctx, f.config.ID)
	require.NoError(t, err)
	require.Len(t, got.Options, 2)
	assert.Equal(t, "Red", got.Options[0].Name)
	assert.Equal(t, "Blue", got.Options[1].Name)
}
