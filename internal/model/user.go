package model

import (
	"encoding/json"
	"strings"
)

type Role string

const (
	RoleAdmin     Role = "admin"
	RoleFrontdesk Role = "frontdesk"
	RoleEmployee  Role = "employee"
	RoleNone      Role = "none"
)

// NormalizeRole lower-cases and trims a role. Empty and unknown roles become
// RoleNone ("pending" from older payloads included).
func NormalizeRole(s string) Role {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleAdmin, RoleFrontdesk, RoleEmployee:
		return r
	case "front_desk", "front-desk":
		return RoleFrontdesk
	default:
		return RoleNone
	}
}

// Assignable reports whether r can be given to a member.
func (r Role) Assignable() bool {
	return r == RoleAdmin || r == RoleFrontdesk || r == RoleEmployee
}

func (r *Role) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*r = NormalizeRole(s)
	return nil
}

type OrganizationStatus string

const (
	OrgStatusNone     OrganizationStatus = "NO_ORGANIZATION"
	OrgStatusPending  OrganizationStatus = "PENDING_APPROVAL"
	OrgStatusApproved OrganizationStatus = "APPROVED"
)

// NormalizeOrganizationStatus upper-cases and trims. Unknown values are kept
// (upper-cased) so routing can apply its fallback.
func NormalizeOrganizationStatus(s string) OrganizationStatus {
	return OrganizationStatus(strings.ToUpper(strings.TrimSpace(s)))
}

func (s *OrganizationStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = NormalizeOrganizationStatus(raw)
	return nil
}

// Membership status values carried on User.Status by the /auth/me payload.
const (
	MembershipPending  = "pending"
	MembershipApproved = "approved"
	MembershipRejected = "rejected"
)

type User struct {
	ID                 int64              `json:"id"`
	Name               string             `json:"name"`
	Email              string             `json:"email"`
	Phone              string             `json:"phone,omitempty"`
	Role               Role               `json:"role"`
	OrganizationID     *int64             `json:"organizationId,omitempty"`
	OrganizationStatus OrganizationStatus `json:"organizationStatus"`
	Status             string             `json:"status,omitempty"`
	EmailVerified      bool               `json:"emailVerified,omitempty"`
	CreatedAt          *Timestamp         `json:"createdAt,omitempty"`
}

// HasOrganization reports whether the user carries an organization id.
func (u *User) HasOrganization() bool {
	return u != nil && u.OrganizationID != nil && *u.OrganizationID != 0
}

// MembershipStatus returns the lower-cased Status field.
func (u *User) MembershipStatus() string {
	if u == nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(u.Status))
}

// Registration is the sign-up form.
type Registration struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
	Password string `json:"password"`
}

// Session is the token pair held by the credential store.
type Session struct {
	AuthToken    string
	RefreshToken string
}

// Valid reports whether an auth token is present.
func (s Session) Valid() bool {
	return s.AuthToken != ""
}

// LoginResult is the data payload of /auth/login.
type LoginResult struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
	User         *User  `json:"user"`
}
