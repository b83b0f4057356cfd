package presets

import "user-service/internal/rbac"

const (
	RouteAdminCreateUser     rbac.RouteID = "admin.create_user"
	RoutePicturesUpload      rbac.RouteID = "pictures.upload"
	RoutePicturesDownloadURL rbac.RouteID = "pictures.download_url"
	RouteUsersList           rbac.RouteID = "users.list"
)

// UserPool returns the route policy table for the user service.
func UserPool() rbac.Config {
	return rbac.Config{
		Routes: map[rbac.RouteID]rbac.RoutePolicy{
			RouteAdminCreateUser: {
				Allow: rbac.Roles(rbac.RoleAdmin, rbac.RoleSystemAdmin),
			},
			RoutePicturesUpload: {
				Allow: rbac.Roles(rbac.RoleAdmin, rbac.RoleSystemAdmin, rbac.RoleUser),
			},
			RoutePicturesDownloadURL: {
				Deny: rbac.Roles(rbac.RoleGuest),
			},
			RouteUsersList: {
				Allow: rbac.Roles(rbac.RoleAdmin, rbac.RoleSystemAdmin, rbac.RoleUser),
			},
		},
		PrivilegedFields: rbac.DefaultPrivilegedFields,
	}
}

// Routes lists every route id UserPool configures.
func Routes() []rbac.RouteID {
	return []rbac.RouteID{
		RouteAdminCreateUser,
		RoutePicturesUpload,
		RoutePicturesDownloadURL,
		RouteUsersList,
	}
}
