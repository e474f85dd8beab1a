package rbac

type Role string
type Action string

const (
	RoleStudent Role = "STUDENT"
	RoleMentor  Role = "MENTOR"
	RoleAdmin   Role = "ADMIN"
)

const (
	ActionPostDoubt  Action = "post_doubt"
	ActionPostAnswer Action = "post_answer"
	ActionVerify     Action = "verify"
	ActionModerate   Action = "moderate"
)

// Can reports whether a role may perform an action. Verification is
// reserved to mentors; admins moderate but do not verify.
func Can(role Role, action Action) bool {
	switch role {
	case RoleAdmin:
		return action == ActionPostDoubt || action == ActionPostAnswer || action == ActionModerate
	case RoleMentor:
		return action == ActionPostDoubt || action == ActionPostAnswer || action == ActionVerify
	case RoleStudent:
		return action == ActionPostDoubt || action == ActionPostAnswer
	default:
		return false
	}
}

func Normalize(role string) Role {
	switch Role(role) {
	case RoleStudent, RoleMentor, RoleAdmin:
		return Role(role)
	default:
		return RoleStudent
	}
}
