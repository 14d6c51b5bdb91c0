package query

import (
	"strings"

	"github.com/goliatone/go-mailchimp/core"
)

const (
	TypeListActivity   = "mailchimp.query.activity.list"
	TypeGetMember      = "mailchimp.query.member.get"
	TypeCampaignReport = "mailchimp.query.campaign.report"
)

type ListActivityMessage struct {
	Filter core.ActivityFilter
}

func (ListActivityMessage) Type() string { return TypeListActivity }

func (m ListActivityMessage) Validate() error {
	if m.Filter.Limit < 0 {
		return queryValidationError("limit", "must be >= 0")
	}
	if m.Filter.Offset < 0 {
		return queryValidationError("offset", "must be >= 0")
	}
	switch m.Filter.Outcome {
	case "", core.ActivityOutcomeSuccess, core.ActivityOutcomeFailure:
	default:
		return queryValidationError("outcome", "must be success or failure")
	}
	return nil
}

type GetMemberMessage struct {
	ListID string
	Email  string
}

func (GetMemberMessage) Type() string { return TypeGetMember }

func (m GetMemberMessage) Validate() error {
	if strings.TrimSpace(m.ListID) == "" {
		return queryValidationError("list_id", "is required")
	}
	if strings.TrimSpace(m.Email) == "" {
		return queryValidationError("email", "is required")
	}
	return nil
}

type CampaignReportMessage struct {
	CampaignID string
	Details    core.ReportDetails
}

func (CampaignReportMessage) Type() string { return TypeCampaignReport }

func (m CampaignReportMessage) Validate() error {
	if strings.TrimSpace(m.CampaignID) == "" {
		return queryValidationError("campaign_id", "is required")
	}
	return nil
}
