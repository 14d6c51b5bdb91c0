package core

import (
	"context"
	"errors"
)

type ReportDetails struct {
	Clicks bool
	Opens  bool
	// OpensCount limits open details; zero leaves the API default.
	OpensCount int
}

// ReportBundle holds each sub-request outcome of a campaign report. Detail
// results are nil when they were not requested.
type ReportBundle struct {
	Report       Result
	ClickDetails *Result
	OpenDetails  *Result
}

// Err joins the failures of the bundle in request order.
func (b ReportBundle) Err() error {
	errs := []error{b.Report.Err}
	if b.ClickDetails != nil {
		errs = append(errs, b.ClickDetails.Err)
	}
	if b.OpenDetails != nil {
		errs = append(errs, b.OpenDetails.Err)
	}
	return errors.Join(errs...)
}

// CampaignReportBundle fetches the report and the requested details one
// after another. A failing request does not affect the others.
func (c *Client) CampaignReportBundle(ctx context.Context, campaignID string, details ReportDetails) ReportBundle {
	var bundle ReportBundle
	bundle.Report = resultOf(c.CampaignReport(ctx, campaignID))
	if details.Clicks {
		clicks := resultOf(c.CampaignClickDetails(ctx, campaignID))
		bundle.ClickDetails = &clicks
	}
	if details.Opens {
		opens := resultOf(c.CampaignOpenDetails(ctx, campaignID, PageOptions{Count: details.OpensCount}))
		bundle.OpenDetails = &opens
	}
	return bundle
}

type CampaignBundle struct {
	Campaign Result
	Content  *Result
}

func (b CampaignBundle) Err() error {
	errs := []error{b.Campaign.Err}
	if b.Content != nil {
		errs = append(errs, b.Content.Err)
	}
	return errors.Join(errs...)
}

func (c *Client) CampaignWithContent(ctx context.Context, campaignID string, includeContent bool) CampaignBundle {
	var bundle CampaignBundle
	bundle.Campaign = resultOf(c.Campaign(ctx, campaignID))
	if includeContent {
		content := resultOf(c.CampaignContent(ctx, campaignID))
		bundle.Content = &content
	}
	return bundle
}

func resultOf(payload Object, err error) Result {
	if err != nil {
		return Result{Err: err}
	}
	return Result{Payload: payload}
}
