package rbac

// Simple default policy. Expand as needed.
var RolePermissions = map[string][]string{
	"student": {
		"course:view",
		"enroll:request",
		"attempt:submit",
		"lesson:complete",
		"progress:view",
		"grades:view",
		"notifications:view",
	},
	"educator": {
		"course:create",
		"course:view",
		"enroll:manage",
		"analytics:view",
		"notifications:view",
	},
	"admin": {
		"*", // everything
	},
}
