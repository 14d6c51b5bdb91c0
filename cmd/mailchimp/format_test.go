package main

import (
	"testing"

	"github.com/goliatone/go-mailchimp/core"
)

func TestFormatMember(t *testing.T) {
	member := FormatMember(core.Object{
		"id":            "abc",
		"email_address": "ada@example.com",
		"status":        "subscribed",
		"merge_fields":  map[string]any{"FNAME": "Ada", "LNAME": ""},
		"tags":          []any{map[string]any{"id": float64(7), "name": "vip"}, "ignored"},
		"timestamp_opt": "2026-01-02T10:00:00+00:00",
		"list_id":       "b4cd77f0a4",
	})
	if member.Email != "ada@example.com" || member.Status != "subscribed" || member.ListID != "b4cd77f0a4" {
		t.Fatalf("unexpected identity fields: %#v", member)
	}
	if member.FullName != "Ada" || member.FirstName != "Ada" || member.LastName != "" {
		t.Fatalf("unexpected name fields: %#v", member)
	}
	if len(member.Tags) != 1 || member.Tags[0] != "vip" {
		t.Fatalf("unexpected tags: %#v", member.Tags)
	}
	if member.Subscribed != "2026-01-02T10:00:00+00:00" {
		t.Fatalf("unexpected subscribed: %q", member.Subscribed)
	}
}

func TestFormatMember_EmptyObject(t *testing.T) {
	member := FormatMember(core.Object{})
	if member.FullName != "" || member.Tags == nil || member.MergeFields == nil {
		t.Fatalf("expected empty but non-nil collections, got %#v", member)
	}
}

func TestFormatCampaign_Defaults(t *testing.T) {
	campaign := FormatCampaign(core.Object{"id": "c1", "status": "save"})
	if campaign.Title != "(no title)" || campaign.Subject != "(no subject)" {
		t.Fatalf("expected placeholder title and subject, got %#v", campaign)
	}
	if campaign.EmailsSent != 0 || campaign.OpenRate != 0 {
		t.Fatalf("expected zero metrics, got %#v", campaign)
	}
}

func TestFormatCampaign_Report(t *testing.T) {
	campaign := FormatCampaign(core.Object{
		"id":          "c1",
		"status":      "sent",
		"emails_sent": float64(200),
		"settings":    map[string]any{"title": "Launch", "subject_line": "Hello"},
		"recipients":  map[string]any{"list_id": "l1", "list_name": "News"},
		"report_summary": map[string]any{
			"unique_opens":      float64(80),
			"open_rate":         0.4,
			"subscriber_clicks": float64(20),
			"click_rate":        0.1,
		},
	})
	if campaign.Title != "Launch" || campaign.ListName != "News" || campaign.EmailsSent != 200 {
		t.Fatalf("unexpected campaign: %#v", campaign)
	}
	if Percent(campaign.OpenRate) != "40.0%" || Percent(campaign.ClickRate) != "10.0%" {
		t.Fatalf("unexpected rates: %v %v", campaign.OpenRate, campaign.ClickRate)
	}
}

func TestFormatListAndTag(t *testing.T) {
	list := FormatList(core.Object{
		"id":    "l1",
		"name":  "News",
		"stats": map[string]any{"member_count": float64(12), "cleaned_count": float64(1), "click_rate": 0.05},
	})
	if list.MemberCount != 12 || list.CleanedCount != 1 || list.UnsubscribeCount != 0 {
		t.Fatalf("unexpected list stats: %#v", list)
	}
	if Percent(list.ClickRate) != "5.0%" {
		t.Fatalf("unexpected click rate %v", list.ClickRate)
	}

	tag := FormatTag(core.Object{"id": float64(3301), "name": "vip", "member_count": float64(4)})
	if tag.ID != "3301" || tag.Name != "vip" || tag.MemberCount != 4 {
		t.Fatalf("unexpected tag: %#v", tag)
	}
}
