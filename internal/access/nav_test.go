package access

import (
	"testing"

	"github.com/holycodess/AppDashboard/internal/models"

	"github.com/stretchr/testify/assert"
)

func labels(items []NavItem) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Label)
	}
	return out
}

func TestNavItems(t *testing.T) {
	assert.Equal(t, []string{"Dashboard", "Profile"}, labels(NavItems(nil)))
	assert.Equal(t, []string{"Dashboard", "Profile"}, labels(NavItems(&models.Profile{Role: models.RoleStaff, Type: models.TypeSuperAdmin})))

	admin := NavItems(&models.Profile{Role: models.RoleSuperAdmin})
	assert.Len(t, admin, 8)
	assert.Contains(t, labels(admin), "User Management")
	assert.Contains(t, labels(admin), "Audit Logs")

	// callers may not mutate the shared slice
	items := NavItems(nil)
	items[0].Label = "changed"
	assert.Equal(t, "Dashboard", NavItems(nil)[0].Label)
}
