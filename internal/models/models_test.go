package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnums(t *testing.T) {
	assert.True(t, RolePartnerOwner.IsValid())
	assert.False(t, Role("root").IsValid())
	assert.True(t, PaymentStatusFailed.IsValid())
	assert.False(t, PaymentStatus("refunded").IsValid())
	assert.True(t, PaymentMethodCash.IsValid())
	assert.False(t, PaymentMethod("bitcoin").IsValid())
}

func TestHouseStyleInvalidColors(t *testing.T) {
	hs := HouseStyle{
		PrimaryColor:    "#fff",
		SecondaryColor:  "#A0B1C2",
		AccentColor:     "red",
		BackgroundColor: "#12345",
		TextColor:       "#000",
	}
	assert.Equal(t, []string{"accentColor", "backgroundColor"}, hs.InvalidColors())
}

func TestCheckoutTotal(t *testing.T) {
	c := Checkout{Items: []CheckoutItem{{Quantity: 2, Price: 9.5}, {Quantity: 1, Price: 1}}}
	assert.Equal(t, 20.0, c.Total())
}

func TestModelJobStatusTerminal(t *testing.T) {
	assert.False(t, ModelJobSubmitted.Terminal())
	assert.False(t, ModelJobRunning.Terminal())
	assert.True(t, ModelJobReady.Terminal())
	assert.True(t, ModelJobFailed.Terminal())
}

func TestPartnerRequestApplyIsPartial(t *testing.T) {
	p := Partner{Name: "Acme", Package: "basic", Active: true, Domain: "acme.example"}

	var req PartnerRequest
	require.NoError(t, json.Unmarshal([]byte(`{"package":"pro","active":false}`), &req))
	req.Apply(&p)

	assert.Equal(t, "Acme", p.Name)
	assert.Equal(t, "pro", p.Package)
	assert.False(t, p.Active)
	assert.Equal(t, "acme.example", p.Domain)
}

func TestBaseTouch(t *testing.T) {
	var b Base
	first := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	b.Touch(first)
	b.Touch(first.Add(time.Hour))
	assert.Equal(t, first, b.CreatedAt)
	assert.Equal(t, first.Add(time.Hour), b.UpdatedAt)
}

func TestUserPublicHidesSecrets(t *testing.T) {
	u := User{Base: Base{ID: "u1"}, Email: "a@b.c", PasswordHash: "hash", ResetCode: "123456"}
	out, err := json.Marshal(u.Public("p1"))
	require.NoError(t, err)
	assert.NotContains(t, string(out), "hash")
	assert.NotContains(t, string(out), "123456")
	assert.Contains(t, string(out), `"companyId":"p1"`)
}
