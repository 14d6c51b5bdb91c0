package query

import (
	"context"

	"github.com/goliatone/go-mailchimp/core"
)

type MemberReader interface {
	Member(ctx context.Context, listID string, email string) (core.Object, error)
}

type ReportReader interface {
	CampaignReportBundle(ctx context.Context, campaignID string, details core.ReportDetails) core.ReportBundle
}

type ListActivityQuery struct {
	reader core.ActivityReader
}

func NewListActivityQuery(reader core.ActivityReader) *ListActivityQuery {
	return &ListActivityQuery{reader: reader}
}

func (q *ListActivityQuery) Query(ctx context.Context, msg ListActivityMessage) (core.ActivityPage, error) {
	if q == nil || q.reader == nil {
		return core.ActivityPage{}, queryDependencyError("query: activity reader is required")
	}
	return q.reader.List(ctx, msg.Filter)
}

type GetMemberQuery struct {
	reader MemberReader
}

func NewGetMemberQuery(reader MemberReader) *GetMemberQuery {
	return &GetMemberQuery{reader: reader}
}

func (q *GetMemberQuery) Query(ctx context.Context, msg GetMemberMessage) (core.Object, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: member reader is required")
	}
	return q.reader.Member(ctx, msg.ListID, msg.Email)
}

// CampaignReportQuery returns the bundle even when a sub-request failed;
// callers inspect each Result.
type CampaignReportQuery struct {
	reader ReportReader
}

func NewCampaignReportQuery(reader ReportReader) *CampaignReportQuery {
	return &CampaignReportQuery{reader: reader}
}

func (q *CampaignReportQuery) Query(ctx context.Context, msg CampaignReportMessage) (core.ReportBundle, error) {
	if q == nil || q.reader == nil {
		return core.ReportBundle{}, queryDependencyError("query: report reader is required")
	}
	return q.reader.CampaignReportBundle(ctx, msg.CampaignID, msg.Details), nil
}
