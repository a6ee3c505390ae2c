package api

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"

	"github.com/dukerupert/walkin/internal/model"
)

// CurrentOrganization returns the organization the user belongs to.
func (c *Client) CurrentOrganization(ctx context.Context) (*model.Organization, error) {
	var org model.Organization
	if err := c.do(ctx, request{method: http.MethodGet, path: "/organizations/current"}, &org, "organization"); err != nil {
		return nil, err
	}
	return &org, nil
}

// OrganizationByCode looks up an organization by its join code.
func (c *Client) OrganizationByCode(ctx context.Context, code string) (*model.Organization, error) {
	var org model.Organization
	path := "/organizations/code/" + url.PathEscape(code)
	if err := c.do(ctx, request{method: http.MethodGet, path: path}, &org, "organization"); err != nil {
		return nil, err
	}
	return &org, nil
}

// CreateOrganization creates an organization. With a logo the form is sent
// as multipart, otherwise as JSON.
func (c *Client) CreateOrganization(ctx context.Context, details model.OrganizationDetails, logo *model.Logo) (*model.Organization, error) {
	r := request{method: http.MethodPost, path: "/organizations", body: details}
	if logo != nil {
		buf, contentType, err := organizationForm(details, logo)
		if err != nil {
			return nil, fmt.Errorf("build organization form: %w", err)
		}
		r.body = nil
		r.raw = buf
		r.contentType = contentType
	}
	var org model.Organization
	if err := c.do(ctx, r, &org, "organization"); err != nil {
		return nil, err
	}
	return &org, nil
}

func organizationForm(details model.OrganizationDetails, logo *model.Logo) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fields := []struct{ name, value string }{
		{"name", details.Name},
		{"description", details.Description},
		{"address", details.Address},
		{"phone", details.Phone},
		{"email", details.Email},
	}
	for _, f := range fields {
		if err := w.WriteField(f.name, f.value); err != nil {
			return nil, "", err
		}
	}

	contentType := logo.ContentType
	if contentType == "" {
		contentType = "image/jpeg"
	}
	filename := logo.Filename
	if filename == "" {
		filename = "logo.jpg"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="logo"; filename=%q`, filename))
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(logo.Data); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

// JoinOrganization submits a join request for the organization with code.
func (c *Client) JoinOrganization(ctx context.Context, code string) (*model.JoinRequest, error) {
	body := map[string]string{"code": code}
	var jr model.JoinRequest
	if err := c.do(ctx, request{method: http.MethodPost, path: "/organizations/join", body: body}, &jr, "joinRequest", "request"); err != nil {
		return nil, err
	}
	return &jr, nil
}

func (c *Client) Members(ctx context.Context) ([]model.Member, error) {
	var members []model.Member
	if err := c.do(ctx, request{method: http.MethodGet, path: "/organizations/members"}, &members, "members"); err != nil {
		return nil, err
	}
	return members, nil
}

func (c *Client) PendingRequests(ctx context.Context) ([]model.JoinRequest, error) {
	var reqs []model.JoinRequest
	if err := c.do(ctx, request{method: http.MethodGet, path: "/organizations/pending-requests"}, &reqs, "requests", "joinRequests"); err != nil {
		return nil, err
	}
	return reqs, nil
}

// HandleJoinRequest approves or rejects a join request. role is sent only
// when set.
func (c *Client) HandleJoinRequest(ctx context.Context, id int64, action model.JoinAction, role model.Role) (*model.JoinRequest, error) {
	body := map[string]string{"action": string(action)}
	if role != "" {
		body["role"] = string(role)
	}
	var jr model.JoinRequest
	path := idPath("/organizations/join-requests/%d", id)
	if err := c.do(ctx, request{method: http.MethodPut, path: path, body: body}, &jr, "joinRequest", "request"); err != nil {
		return nil, err
	}
	return &jr, nil
}

func (c *Client) UpdateMemberRole(ctx context.Context, memberID int64, role model.Role) (*model.Member, error) {
	body := map[string]string{"role": string(role)}
	var m model.Member
	path := idPath("/organizations/members/%d/role", memberID)
	if err := c.do(ctx, request{method: http.MethodPut, path: path, body: body}, &m, "member"); err != nil {
		return nil, err
	}
	return &m, nil
}

func (c *Client) RemoveMember(ctx context.Context, memberID int64) error {
	return c.do(ctx, request{method: http.MethodDelete, path: idPath("/organizations/members/%d", memberID)}, nil)
}

func (c *Client) InviteMember(ctx context.Context, inv model.Invitation) error {
	return c.do(ctx, request{method: http.MethodPost, path: "/organizations/invite", body: inv}, nil)
}
