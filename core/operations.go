package core

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const DefaultMemberStatus = "subscribed"

type PageOptions struct {
	Count  int
	Offset int
}

type MemberListOptions struct {
	Count  int
	Offset int
	Status string
	Since  string
}

type CampaignListOptions struct {
	Count  int
	Offset int
	Status string
	Type   string
	Since  string
	Before string
}

type NewMember struct {
	Email       string
	Status      string
	MergeFields map[string]string
	Tags        []string
}

type memberPayload struct {
	EmailAddress string            `json:"email_address"`
	Status       string            `json:"status"`
	MergeFields  map[string]string `json:"merge_fields,omitempty"`
	Tags         []string          `json:"tags,omitempty"`
}

func (p PageOptions) params() *QueryParams {
	params := NewQueryParams()
	if p.Count > 0 {
		params.Set("count", p.Count)
	}
	if p.Offset > 0 {
		params.Set("offset", p.Offset)
	}
	return params
}

func (c *Client) AccountInfo(ctx context.Context) (Object, error) {
	return c.Request(ctx, Request{Operation: "account.info", Path: "/"})
}

func (c *Client) Lists(ctx context.Context, opts PageOptions) (Object, error) {
	return c.Request(ctx, Request{Operation: "lists.list", Path: WithQuery("/lists", opts.params())})
}

func (c *Client) List(ctx context.Context, listID string) (Object, error) {
	if err := requireArgument("list id", listID); err != nil {
		return nil, err
	}
	return c.Request(ctx, Request{Operation: "lists.get", Path: "/lists/" + segment(listID)})
}

func (c *Client) Members(ctx context.Context, listID string, opts MemberListOptions) (Object, error) {
	if err := requireArgument("list id", listID); err != nil {
		return nil, err
	}
	params := PageOptions{Count: opts.Count, Offset: opts.Offset}.params()
	params.Set("status", opts.Status)
	params.Set("since_timestamp_opt", opts.Since)
	return c.Request(ctx, Request{
		Operation: "members.list",
		Path:      WithQuery("/lists/"+segment(listID)+"/members", params),
	})
}

// Member fetches a list member by email. The address is normalized and
// hashed into the identity key used as the path segment.
func (c *Client) Member(ctx context.Context, listID string, email string) (Object, error) {
	if err := requireArgument("list id", listID); err != nil {
		return nil, err
	}
	if err := requireArgument("email", email); err != nil {
		return nil, err
	}
	return c.Request(ctx, Request{
		Operation: "members.get",
		Path:      "/lists/" + segment(listID) + "/members/" + IdentityKey(email),
	})
}

func (c *Client) AddMember(ctx context.Context, listID string, member NewMember) (Object, error) {
	if err := requireArgument("list id", listID); err != nil {
		return nil, err
	}
	if err := requireArgument("email", member.Email); err != nil {
		return nil, err
	}
	payload := memberPayload{
		EmailAddress: strings.TrimSpace(member.Email),
		Status:       strings.TrimSpace(member.Status),
	}
	if payload.Status == "" {
		payload.Status = DefaultMemberStatus
	}
	if len(member.MergeFields) > 0 {
		payload.MergeFields = member.MergeFields
	}
	if len(member.Tags) > 0 {
		payload.Tags = member.Tags
	}
	return c.Request(ctx, Request{
		Operation: "members.add",
		Path:      "/lists/" + segment(listID) + "/members",
		Method:    http.MethodPost,
		Body:      payload,
	})
}

func (c *Client) SearchMembers(ctx context.Context, query string) (Object, error) {
	if err := requireArgument("query", query); err != nil {
		return nil, err
	}
	params := NewQueryParams().Set("query", query)
	return c.Request(ctx, Request{Operation: "members.search", Path: WithQuery("/search-members", params)})
}

func (c *Client) Campaigns(ctx context.Context, opts CampaignListOptions) (Object, error) {
	params := PageOptions{Count: opts.Count, Offset: opts.Offset}.params()
	params.Set("status", opts.Status)
	params.Set("type", opts.Type)
	params.Set("since_create_time", opts.Since)
	params.Set("before_create_time", opts.Before)
	return c.Request(ctx, Request{Operation: "campaigns.list", Path: WithQuery("/campaigns", params)})
}

func (c *Client) Campaign(ctx context.Context, campaignID string) (Object, error) {
	if err := requireArgument("campaign id", campaignID); err != nil {
		return nil, err
	}
	return c.Request(ctx, Request{Operation: "campaigns.get", Path: "/campaigns/" + segment(campaignID)})
}

func (c *Client) CampaignContent(ctx context.Context, campaignID string) (Object, error) {
	if err := requireArgument("campaign id", campaignID); err != nil {
		return nil, err
	}
	return c.Request(ctx, Request{
		Operation: "campaigns.content",
		Path:      "/campaigns/" + segment(campaignID) + "/content",
	})
}

func (c *Client) CampaignReport(ctx context.Context, campaignID string) (Object, error) {
	if err := requireArgument("campaign id", campaignID); err != nil {
		return nil, err
	}
	return c.Request(ctx, Request{Operation: "reports.get", Path: "/reports/" + segment(campaignID)})
}

func (c *Client) CampaignClickDetails(ctx context.Context, campaignID string) (Object, error) {
	if err := requireArgument("campaign id", campaignID); err != nil {
		return nil, err
	}
	return c.Request(ctx, Request{
		Operation: "reports.click_details",
		Path:      "/reports/" + segment(campaignID) + "/click-details",
	})
}

func (c *Client) CampaignOpenDetails(ctx context.Context, campaignID string, opts PageOptions) (Object, error) {
	if err := requireArgument("campaign id", campaignID); err != nil {
		return nil, err
	}
	return c.Request(ctx, Request{
		Operation: "reports.open_details",
		Path:      WithQuery("/reports/"+segment(campaignID)+"/open-details", opts.params()),
	})
}

// Tags lists the static segments of a list, which is how the API models tags.
func (c *Client) Tags(ctx context.Context, listID string) (Object, error) {
	if err := requireArgument("list id", listID); err != nil {
		return nil, err
	}
	params := NewQueryParams().Set("type", "static")
	return c.Request(ctx, Request{
		Operation: "tags.list",
		Path:      WithQuery("/lists/"+segment(listID)+"/segments", params),
	})
}

func (c *Client) Automations(ctx context.Context) (Object, error) {
	return c.Request(ctx, Request{Operation: "automations.list", Path: "/automations"})
}

func segment(value string) string {
	return url.PathEscape(strings.TrimSpace(value))
}

func requireArgument(name string, value string) error {
	if strings.TrimSpace(value) != "" {
		return nil
	}
	return goerrors.NewValidation("core: validation failed", goerrors.FieldError{
		Field:   strings.ReplaceAll(name, " ", "_"),
		Message: name + " is required",
	}).
		WithCode(http.StatusBadRequest).
		WithTextCode(ErrorBadInput).
		WithSeverity(goerrors.SeverityError)
}
