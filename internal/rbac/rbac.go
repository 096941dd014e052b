package rbac

type Role string
type Action string

const (
	RoleCitizen    Role = "citizen"
	RolePolitician Role = "politician"
	RoleModerator  Role = "moderator"
	RoleAdmin      Role = "admin"
)

const (
	ActionRead     Action = "read"
	ActionSubmit   Action = "submit"
	ActionUpvote   Action = "upvote"
	ActionReview   Action = "review"
	ActionModerate Action = "moderate"
	ActionExport   Action = "export"
	ActionAdmin    Action = "admin"
)

func Can(role Role, action Action) bool {
	switch role {
	case RoleAdmin:
		return true
	case RoleModerator:
		return action == ActionRead || action == ActionUpvote || action == ActionModerate
	case RolePolitician:
		return action == ActionRead || action == ActionUpvote || action == ActionReview
	case RoleCitizen:
		return action == ActionRead || action == ActionSubmit || action == ActionUpvote
	default:
		return false
	}
}

// Valid reports whether role is one of the four recognized portal roles.
func Valid(role string) bool {
	switch Role(role) {
	case RoleCitizen, RolePolitician, RoleModerator, RoleAdmin:
		return true
	default:
		return false
	}
}

func Normalize(role string) Role {
	if Valid(role) {
		return Role(role)
	}
	return RoleCitizen
}
