package model

import (
	"encoding/json"
	"strings"
)

type Organization struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Code        string     `json:"code"`
	Description string     `json:"description,omitempty"`
	Address     string     `json:"address,omitempty"`
	Phone       string     `json:"phone,omitempty"`
	Email       string     `json:"email,omitempty"`
	LogoURL     string     `json:"logoUrl,omitempty"`
	MemberCount int        `json:"memberCount,omitempty"`
	CreatedAt   *Timestamp `json:"createdAt,omitempty"`
}

// OrganizationDetails is the create-organization form.
type OrganizationDetails struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Address     string `json:"address"`
	Phone       string `json:"phone"`
	Email       string `json:"email"`
}

// Logo is an optional image uploaded with a new organization.
type Logo struct {
	Filename    string
	ContentType string
	Data        []byte
}

type Member struct {
	ID       int64      `json:"id"`
	UserID   int64      `json:"userId,omitempty"`
	Name     string     `json:"name"`
	Email    string     `json:"email"`
	Phone    string     `json:"phone,omitempty"`
	Role     Role       `json:"role"`
	Status   string     `json:"status,omitempty"`
	JoinedAt *Timestamp `json:"joinedAt,omitempty"`
}

type JoinRequestStatus string

const (
	JoinRequestPending  JoinRequestStatus = "PENDING"
	JoinRequestApproved JoinRequestStatus = "APPROVED"
	JoinRequestRejected JoinRequestStatus = "REJECTED"
)

func (s *JoinRequestStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = JoinRequestStatus(strings.ToUpper(strings.TrimSpace(raw)))
	return nil
}

// Terminal reports whether the request has been processed.
func (s JoinRequestStatus) Terminal() bool {
	return s == JoinRequestApproved || s == JoinRequestRejected
}

type JoinRequest struct {
	ID             int64             `json:"id"`
	User           *User             `json:"user,omitempty"`
	OrganizationID int64             `json:"organizationId"`
	Status         JoinRequestStatus `json:"status"`
	Message        string            `json:"message,omitempty"`
	ProcessedBy    *int64            `json:"processedBy,omitempty"`
	CreatedAt      *Timestamp        `json:"createdAt,omitempty"`
	ProcessedAt    *Timestamp        `json:"processedAt,omitempty"`
}

type JoinAction string

const (
	JoinApprove JoinAction = "approve"
	JoinReject  JoinAction = "reject"
)

// Invitation is sent by an admin to bring someone into the organization.
type Invitation struct {
	Email   string `json:"email"`
	Role    Role   `json:"role"`
	Message string `json:"message,omitempty"`
}
