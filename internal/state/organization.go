package state

import (
	"slices"

	"github.com/dukerupert/walkin/internal/model"
)

type OrganizationState struct {
	Current      *model.Organization
	Members      []model.Member
	JoinRequests []model.JoinRequest
}

type OrganizationLoaded struct{ Organization *model.Organization }
type MembersLoaded struct{ Members []model.Member }
type MemberUpdated struct{ Member model.Member }
type MemberRemoved struct{ ID int64 }
type JoinRequestsLoaded struct{ Requests []model.JoinRequest }

// JoinRequestProcessed patches one join request by id. Processed requests
// leave the pending list.
type JoinRequestProcessed struct{ Request model.JoinRequest }

func (OrganizationLoaded) Type() string   { return "organization/loaded" }
func (MembersLoaded) Type() string        { return "organization/membersLoaded" }
func (MemberUpdated) Type() string        { return "organization/memberUpdated" }
func (MemberRemoved) Type() string        { return "organization/memberRemoved" }
func (JoinRequestsLoaded) Type() string   { return "organization/joinRequestsLoaded" }
func (JoinRequestProcessed) Type() string { return "organization/joinRequestProcessed" }

func memberID(m model.Member) int64           { return m.ID }
func joinRequestID(r model.JoinRequest) int64 { return r.ID }

func (a OrganizationLoaded) reduce(s *State) { s.Organization.Current = a.Organization }
func (a MembersLoaded) reduce(s *State)      { s.Organization.Members = slices.Clone(a.Members) }
func (a JoinRequestsLoaded) reduce(s *State) { s.Organization.JoinRequests = slices.Clone(a.Requests) }

func (a MemberUpdated) reduce(s *State) {
	s.Organization.Members = upsert(s.Organization.Members, a.Member, memberID)
}

func (a MemberRemoved) reduce(s *State) {
	s.Organization.Members = remove(s.Organization.Members, a.ID, memberID)
}

func (a JoinRequestProcessed) reduce(s *State) {
	if a.Request.Status.Terminal() {
		s.Organization.JoinRequests = remove(s.Organization.JoinRequests, a.Request.ID, joinRequestID)
		return
	}
	s.Organization.JoinRequests = upsert(s.Organization.JoinRequests, a.Request, joinRequestID)
}
