package organization

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dukerupert/walkin/internal/api"
	"github.com/dukerupert/walkin/internal/auth"
	"github.com/dukerupert/walkin/internal/model"
	"github.com/dukerupert/walkin/internal/state"
)

// ErrNotConfirmed is returned when the user declines a destructive action.
var ErrNotConfirmed = errors.New("action not confirmed")

// Backend is the slice of the API client the membership workflow uses.
type Backend interface {
	Me(ctx context.Context) (*model.User, error)
	CurrentOrganization(ctx context.Context) (*model.Organization, error)
	OrganizationByCode(ctx context.Context, code string) (*model.Organization, error)
	CreateOrganization(ctx context.Context, details model.OrganizationDetails, logo *model.Logo) (*model.Organization, error)
	JoinOrganization(ctx context.Context, code string) (*model.JoinRequest, error)
	Members(ctx context.Context) ([]model.Member, error)
	PendingRequests(ctx context.Context) ([]model.JoinRequest, error)
	HandleJoinRequest(ctx context.Context, id int64, action model.JoinAction, role model.Role) (*model.JoinRequest, error)
	UpdateMemberRole(ctx context.Context, memberID int64, role model.Role) (*model.Member, error)
	RemoveMember(ctx context.Context, memberID int64) error
	InviteMember(ctx context.Context, inv model.Invitation) error
}

// Confirmer asks the user to confirm a non-reversible action.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(prompt string) bool

func (f ConfirmFunc) Confirm(prompt string) bool { return f(prompt) }

// Service runs the organization membership workflow.
type Service struct {
	backend Backend
	store   *state.Store
	logger  *slog.Logger
}

func NewService(backend Backend, store *state.Store, logger *slog.Logger) *Service {
	return &Service{
		backend: backend,
		store:   store,
		logger:  logger.With("component", "organization"),
	}
}

// ValidateCode checks a join code before it is sent.
func ValidateCode(code string) error {
	switch {
	case code == "":
		return api.Invalid("code", "Organization code is required")
	case len(code) != 6:
		return api.Invalid("code", "Organization code must be 6 characters")
	case !model.ValidOrganizationCode(code):
		return api.Invalid("code", "Organization code can only contain uppercase letters and numbers")
	}
	return nil
}

// ValidateDetails checks the create-organization form.
func ValidateDetails(d model.OrganizationDetails) error {
	switch {
	case strings.TrimSpace(d.Name) == "":
		return api.Invalid("name", "Organization name is required")
	case len(strings.TrimSpace(d.Name)) < 2:
		return api.Invalid("name", "Organization name must be at least 2 characters")
	case len(d.Description) > 500:
		return api.Invalid("description", "Description must be less than 500 characters")
	case strings.TrimSpace(d.Address) == "":
		return api.Invalid("address", "Address is required")
	case strings.TrimSpace(d.Phone) == "":
		return api.Invalid("phone", "Phone number is required")
	case !model.ValidPhone(d.Phone):
		return api.Invalid("phone", "Please enter a valid phone number")
	case strings.TrimSpace(d.Email) == "":
		return api.Invalid("email", "Email is required")
	case !model.ValidEmail(d.Email):
		return api.Invalid("email", "Please enter a valid email")
	}
	return nil
}

// Create creates an organization with the acting user as admin, then
// refreshes the cached user so routing sees the new membership.
func (s *Service) Create(ctx context.Context, details model.OrganizationDetails, logo *model.Logo) (*model.Organization, error) {
	details.Name = strings.TrimSpace(details.Name)
	details.Address = strings.TrimSpace(details.Address)
	details.Phone = strings.TrimSpace(details.Phone)
	details.Email = strings.TrimSpace(details.Email)
	if err := ValidateDetails(details); err != nil {
		return nil, err
	}

	org, err := s.backend.CreateOrganization(ctx, details, logo)
	if err != nil {
		return nil, err
	}
	s.store.Dispatch(state.OrganizationLoaded{Organization: org})
	s.logger.Info("organization created", "organization_id", org.ID, "code", org.Code)
	s.refreshUser(ctx)
	return org, nil
}

// Join submits a join request. The code is validated before any network
// call; resubmission after a rejection is always attempted.
func (s *Service) Join(ctx context.Context, code string) (*model.JoinRequest, error) {
	if err := ValidateCode(code); err != nil {
		return nil, err
	}
	jr, err := s.backend.JoinOrganization(ctx, code)
	if err != nil {
		return nil, err
	}
	s.logger.Info("join requested", "code", code, "request_id", jr.ID)
	s.refreshUser(ctx)
	return jr, nil
}

// Preview looks up the organization behind code for a confirmation card.
// An invalid or unknown code yields nil with no error.
func (s *Service) Preview(ctx context.Context, code string) (*model.Organization, error) {
	if !model.ValidOrganizationCode(code) {
		return nil, nil
	}
	org, err := s.backend.OrganizationByCode(ctx, code)
	if errors.Is(err, api.ErrNotFound) || errors.Is(err, api.ErrValidation) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return org, nil
}

// Current loads the user's organization into state.
func (s *Service) Current(ctx context.Context) (*model.Organization, error) {
	org, err := s.backend.CurrentOrganization(ctx)
	if err != nil {
		return nil, err
	}
	s.store.Dispatch(state.OrganizationLoaded{Organization: org})
	return org, nil
}

func (s *Service) Members(ctx context.Context) ([]model.Member, error) {
	members, err := s.backend.Members(ctx)
	if err != nil {
		return nil, err
	}
	s.store.Dispatch(state.MembersLoaded{Members: members})
	return members, nil
}

func (s *Service) PendingRequests(ctx context.Context) ([]model.JoinRequest, error) {
	if err := s.require(auth.HandleJoinRequests); err != nil {
		return nil, err
	}
	reqs, err := s.backend.PendingRequests(ctx)
	if err != nil {
		return nil, err
	}
	s.store.Dispatch(state.JoinRequestsLoaded{Requests: reqs})
	return reqs, nil
}

// HandleJoinRequest approves or rejects a pending request. Approval needs a
// role for the new member; rejection ignores role.
func (s *Service) HandleJoinRequest(ctx context.Context, id int64, action model.JoinAction, role model.Role) (*model.JoinRequest, error) {
	if err := s.require(auth.HandleJoinRequests); err != nil {
		return nil, err
	}
	switch action {
	case model.JoinApprove:
		if !role.Assignable() {
			return nil, api.Invalid("role", "Select a role for the new member")
		}
	case model.JoinReject:
		role = ""
	default:
		return nil, api.Invalid("action", fmt.Sprintf("Unknown action %q", action))
	}

	jr, err := s.backend.HandleJoinRequest(ctx, id, action, role)
	if err != nil {
		return nil, err
	}
	if jr.ID == 0 {
		jr.ID = id
	}
	if jr.Status == "" {
		jr.Status = model.JoinRequestRejected
		if action == model.JoinApprove {
			jr.Status = model.JoinRequestApproved
		}
	}
	s.store.Dispatch(state.JoinRequestProcessed{Request: *jr})
	s.logger.Info("join request handled", "request_id", id, "action", action, "role", role)
	return jr, nil
}

func (s *Service) UpdateMemberRole(ctx context.Context, memberID int64, role model.Role) (*model.Member, error) {
	if err := s.require(auth.ManageMembers); err != nil {
		return nil, err
	}
	if !role.Assignable() {
		return nil, api.Invalid("role", "Role must be admin, frontdesk or employee")
	}
	m, err := s.backend.UpdateMemberRole(ctx, memberID, role)
	if err != nil {
		return nil, err
	}
	if m.ID == 0 {
		m = s.cachedMember(memberID)
		m.Role = role
	}
	s.store.Dispatch(state.MemberUpdated{Member: *m})
	return m, nil
}

// RemoveMember removes a member after confirm agrees. Nothing is sent when
// confirm is nil or declines.
func (s *Service) RemoveMember(ctx context.Context, memberID int64, confirm Confirmer) error {
	if err := s.require(auth.ManageMembers); err != nil {
		return err
	}
	m := s.cachedMember(memberID)
	who := m.Name
	if who == "" {
		who = fmt.Sprintf("member %d", memberID)
	}
	if confirm == nil || !confirm.Confirm(fmt.Sprintf("Remove %s from the organization?", who)) {
		return ErrNotConfirmed
	}
	if err := s.backend.RemoveMember(ctx, memberID); err != nil {
		return err
	}
	s.store.Dispatch(state.MemberRemoved{ID: memberID})
	s.logger.Info("member removed", "member_id", memberID)
	return nil
}

// Invite sends an invitation email. Role defaults to employee.
func (s *Service) Invite(ctx context.Context, email string, role model.Role, message string) error {
	if err := s.require(auth.ManageMembers); err != nil {
		return err
	}
	email = strings.TrimSpace(email)
	if email == "" {
		return api.Invalid("email", "Email is required")
	}
	if !model.ValidEmail(email) {
		return api.Invalid("email", "Please enter a valid email")
	}
	if role == "" || role == model.RoleNone {
		role = model.RoleEmployee
	}
	if !role.Assignable() {
		return api.Invalid("role", "Role must be admin, frontdesk or employee")
	}
	return s.backend.InviteMember(ctx, model.Invitation{Email: email, Role: role, Message: message})
}

func (s *Service) require(p auth.Permission) error {
	return auth.Require(s.store.State().Auth.User, p)
}

func (s *Service) cachedMember(id int64) *model.Member {
	for _, m := range s.store.State().Organization.Members {
		if m.ID == id {
			return &m
		}
	}
	return &model.Member{ID: id}
}

// refreshUser reloads the cached user after a membership change. Failure is
// logged; the mutation itself already succeeded.
func (s *Service) refreshUser(ctx context.Context) {
	user, err := s.backend.Me(ctx)
	if err != nil {
		s.logger.Warn("refresh user", "error", err)
		return
	}
	s.store.Dispatch(state.UserUpdated{User: user})
}
