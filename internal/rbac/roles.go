package rbac

// Role names. Keep these stable; they are part of auth/RBAC contracts.
const (
	RoleUser       = "user"
	RoleAdvisor    = "advisor"
	RoleSupport    = "support"
	RoleSuperAdmin = "super_admin"
	RoleReconciler = "reconciler" // hidden role, manual settlement reconciliation
)

func IsSuperAdmin(role string) bool { return role == RoleSuperAdmin }

func IsHiddenRole(role string) bool { return role == RoleReconciler }
