package auth

import (
	"github.com/dukerupert/walkin/internal/api"
	"github.com/dukerupert/walkin/internal/model"
)

// Permission names an action gated by role.
type Permission string

const (
	ManageOrganization  Permission = "manage_organization"
	ManageMembers       Permission = "manage_members"
	HandleJoinRequests  Permission = "handle_join_requests"
	ManageAppointments  Permission = "manage_appointments"
	RecordVisits        Permission = "record_visits"
	RequestAppointments Permission = "request_appointments"
	RespondToRequests   Permission = "respond_to_requests"
)

var rolePermissions = map[model.Role][]Permission{
	model.RoleAdmin: {
		ManageOrganization, ManageMembers, HandleJoinRequests, ManageAppointments,
		RecordVisits, RequestAppointments, RespondToRequests,
	},
	model.RoleFrontdesk: {HandleJoinRequests, RecordVisits, RequestAppointments},
	model.RoleEmployee:  {RespondToRequests},
}

// Can reports whether role grants p.
func Can(role model.Role, p Permission) bool {
	for _, granted := range rolePermissions[role] {
		if granted == p {
			return true
		}
	}
	return false
}

// Require returns a permission error when user lacks p.
func Require(user *model.User, p Permission) error {
	if user == nil || !Can(user.Role, p) {
		return &api.Error{Kind: api.KindPermission}
	}
	return nil
}

func IsAdmin(user *model.User) bool {
	return user != nil && user.Role == model.RoleAdmin
}
