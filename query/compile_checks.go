package query

import (
	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-mailchimp/core"
)

var (
	_ gocmd.Querier[ListActivityMessage, core.ActivityPage]   = (*ListActivityQuery)(nil)
	_ gocmd.Querier[GetMemberMessage, core.Object]            = (*GetMemberQuery)(nil)
	_ gocmd.Querier[CampaignReportMessage, core.ReportBundle] = (*CampaignReportQuery)(nil)

	_ MemberReader = (*core.Client)(nil)
	_ ReportReader = (*core.Client)(nil)
)
