package services

import (
	"strings"

	"dinerhub/internal/models"
)

// AccessRule declares who may call an operation. When Roles is set the
// principal's role must be listed. When Permissions is set the role must hold
// at least one of them, directly or through a "<module>.*" wildcard. Both
// must hold when both are set. An empty rule admits any authenticated caller.
type AccessRule struct {
	Roles       []string
	Permissions []string
}

var (
	storefront = []string{models.RoleClient, models.RoleGuest}
	members    = []string{models.RoleClient, models.RoleSeller, models.RoleAdmin}
)

func perm(names ...string) AccessRule { return AccessRule{Permissions: names} }

func roles(names ...string) AccessRule { return AccessRule{Roles: names} }

// AccessPolicy maps every protected operation to its rule. Routes are
// registered against these names; an unknown name is a programming error.
var AccessPolicy = map[string]AccessRule{
	// auth / profile
	"auth.logout":         {},
	"auth.sessions":       {},
	"auth.revokeSessions": {},
	"profile.get":         roles(members...),
	"profile.update":      roles(members...),
	"profile.addresses":   roles(models.RoleClient),
	"profile.addAddress":  roles(models.RoleClient),
	"admin.banUser":       perm("admin.ban_user"),
	"admin.unbanUser":     perm("admin.unban_user"),
	"admin.forceLogout":   perm("admin.force_logout"),
	"admin.getStats":      perm("admin.get_stats"),

	// access control
	"permission.list":        perm("permission.list"),
	"permission.get":         perm("permission.get"),
	"permission.create":      perm("permission.create"),
	"permission.update":      perm("permission.update"),
	"permission.delete":      perm("permission.delete"),
	"role.list":              perm("role.list"),
	"role.get":               perm("role.get"),
	"role.create":            perm("role.create"),
	"role.update":            perm("role.update"),
	"role.delete":            perm("role.delete"),
	"role.assignPermissions": perm("role.assign_permissions"),
	"user.list":              perm("user.list"),
	"user.get":               perm("user.get"),
	"user.create":            perm("user.create"),
	"user.update":            perm("user.update"),
	"user.delete":            perm("user.delete"),

	// catalog
	"dish.create":     perm("dish.create"),
	"dish.update":     perm("dish.update"),
	"dish.updateSku":  perm("dish.update_sku"),
	"dish.delete":     perm("dish.delete"),
	"category.create": perm("category.create"),
	"category.update": perm("category.update"),
	"category.delete": perm("category.delete"),
	"upload.create":   perm("upload.create"),
	"upload.delete":   perm("upload.delete"),

	// tables
	"table.list":         perm("table.list"),
	"table.get":          perm("table.get"),
	"table.create":       perm("table.create"),
	"table.update":       perm("table.update"),
	"table.updateStatus": perm("table.update_status"),
	"table.delete":       perm("table.delete"),
	"table.qr":           perm("table.qr"),

	// storefront
	"cart.get":              roles(storefront...),
	"cart.add":              roles(storefront...),
	"cart.update":           roles(storefront...),
	"cart.remove":           roles(storefront...),
	"order.createFromCart":  roles(storefront...),
	"order.create":          roles(models.RoleGuest, models.RoleSeller, models.RoleAdmin),
	"order.myOrders":        roles(storefront...),
	"order.cancel":          roles(storefront...),
	"order.get":             {},
	"order.list":            perm("order.list"),
	"order.updateStatus":    perm("order.update_status"),
	"promotion.applyCode":   roles(storefront...),
	"promotion.preview":     roles(storefront...),
	"promotion.list":        perm("promotion.list"),
	"promotion.get":         perm("promotion.get"),
	"promotion.create":      perm("promotion.create"),
	"promotion.update":      perm("promotion.update"),
	"promotion.delete":      perm("promotion.delete"),
	"reservation.create":    roles(members...),
	"reservation.list":      {},
	"reservation.listAll":   perm("reservation.list_all"),
	"reservation.update":    perm("reservation.update"),
	"notification.list":     {},
	"notification.markRead": {},
	"notification.stream":   {},
}

// PermissionMatches reports whether granted satisfies required, either
// exactly or through the "<module>.*" wildcard.
func PermissionMatches(granted, required string) bool {
	if granted == required {
		return true
	}
	module, ok := strings.CutSuffix(granted, ".*")
	if !ok {
		return false
	}
	return strings.HasPrefix(required, module+".")
}
