package rbac

// Role names. Keep these stable; they are part of auth contracts and appear
// inside signed access tokens.
const (
	RoleRecruiter     = "recruiter"
	RoleHiringManager = "hiring_manager"
	RoleCoordinator   = "coordinator"
	RoleAdmin         = "admin"
)

func IsAdmin(role string) bool { return role == RoleAdmin }
