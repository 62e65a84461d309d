package access

import "github.com/holycodess/AppDashboard/internal/models"

type NavItem struct {
	Label string
	Path  string
	Admin bool
}

var (
	commonNav = []NavItem{
		{Label: "Dashboard", Path: "/dashboard"},
		{Label: "Profile", Path: "/dashboard/profile"},
	}
	adminNav = []NavItem{
		{Label: "User Management", Path: "/dashboard/admin/users", Admin: true},
		{Label: "Analytics", Path: "/dashboard/admin/analytics", Admin: true},
		{Label: "Theme Management", Path: "/dashboard/admin/themes", Admin: true},
		{Label: "Notifications", Path: "/dashboard/admin/notifications", Admin: true},
		{Label: "System Management", Path: "/dashboard/admin/system", Admin: true},
		{Label: "Audit Logs", Path: "/dashboard/admin/audit", Admin: true},
	}
)

// NavItems returns the sidebar entries that the profile may see.
// Admin entries follow the role only; the profile type plays no part.
func NavItems(profile *models.Profile) []NavItem {
	items := append([]NavItem(nil), commonNav...)
	if profile != nil && profile.Role == models.RoleSuperAdmin {
		items = append(items, adminNav...)
	}
	return items
}
