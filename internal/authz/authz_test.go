package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thibovi/rebilt-backend/internal/models"
)

func TestDefaultPolicies(t *testing.T) {
	e, err := New(DefaultPolicies())
	require.NoError(t, err)

	cases := []struct {
		role   models.Role
		path   string
		method string
		want   bool
	}{
		{models.RolePlatformAdmin, "/api/v1/users/:id", "DELETE", true},
		{models.RolePlatformAdmin, "/api/v1/webhooks", "GET", true},
		{models.RolePartnerAdmin, "/api/v1/products", "POST", true},
		{models.RolePartnerAdmin, "/api/v1/partner-configurations/:id", "DELETE", true},
		{models.RolePartnerAdmin, "/api/v1/orders/:orderId", "GET", true},
		{models.RolePartnerAdmin, "/api/v1/orders/:orderId", "DELETE", false},
		{models.RolePartnerAdmin, "/api/v1/partners/:id", "PUT", false},
		{models.RolePartnerAdmin, "/api/v1/webhooks", "GET", false},
		{models.RolePartnerOwner, "/api/v1/products/:id", "PUT", true},
		{models.RolePartnerOwner, "/api/v1/partners/:id", "PUT", true},
		{models.RolePartnerOwner, "/api/v1/partners", "POST", false},
		{models.RoleCustomer, "/api/v1/products", "POST", false},
		{models.RoleCustomer, "/api/v1/users", "GET", false},
		{"", "/api/v1/products", "POST", false},
	}
	for _, tc := range cases {
		got, err := e.Allow(tc.role, tc.path, tc.method)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "%s %s %s", tc.role, tc.method, tc.path)
	}
}
