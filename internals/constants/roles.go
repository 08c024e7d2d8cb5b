package constants

import "fmt"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Role error templates
const (
	ErrOnlyAdminsCanAccess = "Only admins may access %s."
	ErrOnlyOwnerCanModify  = "Only the creator may modify %s."
)

func RoleErrorAdmin(feature string) string {
	return fmt.Sprintf(ErrOnlyAdminsCanAccess, feature)
}

func RoleErrorOwner(feature string) string {
	return fmt.Sprintf(ErrOnlyOwnerCanModify, feature)
}

var (
	AllRoles = []string{
		RoleUser,
		RoleAdmin,
	}

	AdminOnly = []string{
		RoleAdmin,
	}
)
