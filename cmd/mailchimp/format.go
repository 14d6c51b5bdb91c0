package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/goliatone/go-mailchimp/core"
)

type Member struct {
	ID          string         `json:"id"`
	Email       string         `json:"email"`
	Status      string         `json:"status"`
	FullName    string         `json:"fullName,omitempty"`
	FirstName   string         `json:"firstName,omitempty"`
	LastName    string         `json:"lastName,omitempty"`
	MergeFields map[string]any `json:"mergeFields"`
	Tags        []string       `json:"tags"`
	Subscribed  string         `json:"subscribed,omitempty"`
	LastChanged string         `json:"lastChanged,omitempty"`
	Source      string         `json:"source,omitempty"`
	ListID      string         `json:"listId,omitempty"`
}

type Campaign struct {
	ID               string  `json:"id"`
	WebID            string  `json:"webId,omitempty"`
	Type             string  `json:"type"`
	Status           string  `json:"status"`
	Title            string  `json:"title"`
	Subject          string  `json:"subject"`
	PreviewText      string  `json:"previewText,omitempty"`
	FromName         string  `json:"fromName,omitempty"`
	ReplyTo          string  `json:"replyTo,omitempty"`
	ListID           string  `json:"listId,omitempty"`
	ListName         string  `json:"listName,omitempty"`
	SendTime         string  `json:"sendTime,omitempty"`
	CreateTime       string  `json:"createTime,omitempty"`
	EmailsSent       float64 `json:"emailsSent"`
	Opens            float64 `json:"opens"`
	UniqueOpens      float64 `json:"uniqueOpens"`
	OpenRate         float64 `json:"openRate"`
	Clicks           float64 `json:"clicks"`
	SubscriberClicks float64 `json:"subscriberClicks"`
	ClickRate        float64 `json:"clickRate"`
}

type List struct {
	ID               string  `json:"id"`
	WebID            string  `json:"webId,omitempty"`
	Name             string  `json:"name"`
	Contact          any     `json:"contact,omitempty"`
	MemberCount      float64 `json:"memberCount"`
	UnsubscribeCount float64 `json:"unsubscribeCount"`
	CleanedCount     float64 `json:"cleanedCount"`
	CampaignCount    float64 `json:"campaignCount"`
	LastSub          string  `json:"lastSub,omitempty"`
	LastUnsub        string  `json:"lastUnsub,omitempty"`
	LastCampaign     string  `json:"lastCampaign,omitempty"`
	OpenRate         float64 `json:"openRate"`
	ClickRate        float64 `json:"clickRate"`
	DateCreated      string  `json:"dateCreated,omitempty"`
}

type Tag struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	MemberCount float64 `json:"memberCount"`
	CreatedAt   string  `json:"createdAt,omitempty"`
	UpdatedAt   string  `json:"updatedAt,omitempty"`
}

func FormatMember(member core.Object) Member {
	merge := objectAt(member, "merge_fields")
	first := stringAt(merge, "FNAME")
	last := stringAt(merge, "LNAME")
	mergeFields := map[string]any{}
	for key, value := range merge {
		mergeFields[key] = value
	}
	tags := []string{}
	for _, item := range arrayAt(member, "tags") {
		if tag, ok := item.(map[string]any); ok {
			tags = append(tags, stringAt(tag, "name"))
		}
	}
	return Member{
		ID:          stringAt(member, "id"),
		Email:       stringAt(member, "email_address"),
		Status:      stringAt(member, "status"),
		FullName:    strings.TrimSpace(first + " " + last),
		FirstName:   first,
		LastName:    last,
		MergeFields: mergeFields,
		Tags:        tags,
		Subscribed:  stringAt(member, "timestamp_opt"),
		LastChanged: stringAt(member, "last_changed"),
		Source:      stringAt(member, "source"),
		ListID:      stringAt(member, "list_id"),
	}
}

func FormatCampaign(campaign core.Object) Campaign {
	settings := objectAt(campaign, "settings")
	recipients := objectAt(campaign, "recipients")
	summary := objectAt(campaign, "report_summary")
	return Campaign{
		ID:               stringAt(campaign, "id"),
		WebID:            stringAt(campaign, "web_id"),
		Type:             stringAt(campaign, "type"),
		Status:           stringAt(campaign, "status"),
		Title:            orDefault(stringAt(settings, "title"), "(no title)"),
		Subject:          orDefault(stringAt(settings, "subject_line"), "(no subject)"),
		PreviewText:      stringAt(settings, "preview_text"),
		FromName:         stringAt(settings, "from_name"),
		ReplyTo:          stringAt(settings, "reply_to"),
		ListID:           stringAt(recipients, "list_id"),
		ListName:         stringAt(recipients, "list_name"),
		SendTime:         stringAt(campaign, "send_time"),
		CreateTime:       stringAt(campaign, "create_time"),
		EmailsSent:       numberAt(campaign, "emails_sent"),
		Opens:            numberAt(summary, "opens"),
		UniqueOpens:      numberAt(summary, "unique_opens"),
		OpenRate:         numberAt(summary, "open_rate"),
		Clicks:           numberAt(summary, "clicks"),
		SubscriberClicks: numberAt(summary, "subscriber_clicks"),
		ClickRate:        numberAt(summary, "click_rate"),
	}
}

func FormatList(list core.Object) List {
	stats := objectAt(list, "stats")
	return List{
		ID:               stringAt(list, "id"),
		WebID:            stringAt(list, "web_id"),
		Name:             stringAt(list, "name"),
		Contact:          list["contact"],
		MemberCount:      numberAt(stats, "member_count"),
		UnsubscribeCount: numberAt(stats, "unsubscribe_count"),
		CleanedCount:     numberAt(stats, "cleaned_count"),
		CampaignCount:    numberAt(stats, "campaign_count"),
		LastSub:          stringAt(stats, "last_sub_date"),
		LastUnsub:        stringAt(stats, "last_unsub_date"),
		LastCampaign:     stringAt(stats, "campaign_last_sent"),
		OpenRate:         numberAt(stats, "open_rate"),
		ClickRate:        numberAt(stats, "click_rate"),
		DateCreated:      stringAt(list, "date_created"),
	}
}

func FormatTag(tag core.Object) Tag {
	return Tag{
		ID:          stringAt(tag, "id"),
		Name:        stringAt(tag, "name"),
		MemberCount: numberAt(tag, "member_count"),
		CreatedAt:   stringAt(tag, "created_at"),
		UpdatedAt:   stringAt(tag, "updated_at"),
	}
}

// Percent renders a 0..1 rate with one decimal.
func Percent(rate float64) string {
	return fmt.Sprintf("%.1f%%", rate*100)
}

func objectAt(obj core.Object, key string) core.Object {
	if obj == nil {
		return nil
	}
	if nested, ok := obj[key].(map[string]any); ok {
		return nested
	}
	return nil
}

func objectsAt(obj core.Object, key string) []core.Object {
	items := arrayAt(obj, key)
	out := make([]core.Object, 0, len(items))
	for _, item := range items {
		if nested, ok := item.(map[string]any); ok {
			out = append(out, nested)
		}
	}
	return out
}

func arrayAt(obj core.Object, key string) []any {
	if obj == nil {
		return nil
	}
	items, _ := obj[key].([]any)
	return items
}

func stringAt(obj core.Object, key string) string {
	if obj == nil {
		return ""
	}
	switch value := obj[key].(type) {
	case string:
		return value
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(value)
	default:
		return ""
	}
}

func numberAt(obj core.Object, key string) float64 {
	if obj == nil {
		return 0
	}
	switch value := obj[key].(type) {
	case float64:
		return value
	case int:
		return float64(value)
	case int64:
		return float64(value)
	default:
		return 0
	}
}

func orDefault(value string, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func count(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}
