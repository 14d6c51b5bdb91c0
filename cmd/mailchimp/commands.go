package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/goliatone/go-mailchimp/adapters/gocommand"
	mccommand "github.com/goliatone/go-mailchimp/command"
	"github.com/goliatone/go-mailchimp/core"
	mcquery "github.com/goliatone/go-mailchimp/query"
)

type apiCommand func(ctx context.Context, s *session, opts options, args []string) error

var apiCommands = map[string]apiCommand{
	"ping":        runPing,
	"lists":       runLists,
	"list":        runList,
	"members":     runMembers,
	"member":      runMember,
	"add-member":  runAddMember,
	"search":      runSearch,
	"campaigns":   runCampaigns,
	"campaign":    runCampaign,
	"report":      runReport,
	"tags":        runTags,
	"automations": runAutomations,
}

func arg(args []string, index int) string {
	if index < len(args) {
		return strings.TrimSpace(args[index])
	}
	return ""
}

func runPing(ctx context.Context, s *session, opts options, _ []string) error {
	account, err := s.client.AccountInfo(ctx)
	if err != nil {
		return err
	}
	if !opts.summary {
		return writeJSON(s.out, account)
	}
	fmt.Fprintf(s.out, "Account: %s\n", stringAt(account, "account_name"))
	fmt.Fprintf(s.out, "Email: %s\n", stringAt(account, "email"))
	fmt.Fprintf(s.out, "Role: %s\n", stringAt(account, "role"))
	fmt.Fprintf(s.out, "Industry: %s\n", orDefault(stringAt(objectAt(account, "industry_stats"), "industry"), "N/A"))
	fmt.Fprintf(s.out, "Total Subscribers: %s\n", count(numberAt(account, "total_subscribers")))
	return nil
}

func runLists(ctx context.Context, s *session, opts options, _ []string) error {
	result, err := s.client.Lists(ctx, core.PageOptions{Count: opts.count, Offset: opts.offset})
	if err != nil {
		return err
	}
	lists := objectsAt(result, "lists")
	if !opts.summary {
		formatted := make([]List, 0, len(lists))
		for _, list := range lists {
			formatted = append(formatted, FormatList(list))
		}
		return writeJSON(s.out, map[string]any{"lists": formatted, "total": result["total_items"]})
	}
	fmt.Fprintf(s.out, "Found %s list(s):\n\n", count(numberAt(result, "total_items")))
	for _, raw := range lists {
		list := FormatList(raw)
		fmt.Fprintln(s.out, list.Name)
		fmt.Fprintf(s.out, "  ID: %s\n", list.ID)
		fmt.Fprintf(s.out, "  Members: %s (%s unsub, %s cleaned)\n", count(list.MemberCount), count(list.UnsubscribeCount), count(list.CleanedCount))
		fmt.Fprintf(s.out, "  Open Rate: %s | Click Rate: %s\n", Percent(list.OpenRate), Percent(list.ClickRate))
		fmt.Fprintf(s.out, "  Campaigns: %s\n\n", count(list.CampaignCount))
	}
	return nil
}

func runList(ctx context.Context, s *session, opts options, args []string) error {
	listID := arg(args, 0)
	if listID == "" {
		return usage("List ID required", "Usage: mailchimp list <listId> --dc <dc>")
	}
	result, err := s.client.List(ctx, listID)
	if err != nil {
		return err
	}
	list := FormatList(result)
	if !opts.summary {
		return writeJSON(s.out, list)
	}
	fmt.Fprintf(s.out, "List: %s\n", list.Name)
	fmt.Fprintf(s.out, "ID: %s\n", list.ID)
	fmt.Fprintf(s.out, "Members: %s\n", count(list.MemberCount))
	fmt.Fprintf(s.out, "Unsubscribed: %s\n", count(list.UnsubscribeCount))
	fmt.Fprintf(s.out, "Cleaned: %s\n", count(list.CleanedCount))
	fmt.Fprintf(s.out, "Campaigns Sent: %s\n", count(list.CampaignCount))
	fmt.Fprintf(s.out, "Open Rate: %s\n", Percent(list.OpenRate))
	fmt.Fprintf(s.out, "Click Rate: %s\n", Percent(list.ClickRate))
	fmt.Fprintf(s.out, "Created: %s\n", list.DateCreated)
	return nil
}

func runMembers(ctx context.Context, s *session, opts options, args []string) error {
	listID := arg(args, 0)
	if listID == "" {
		return usage("List ID required", "Usage: mailchimp members <listId> --dc <dc>")
	}
	result, err := s.client.Members(ctx, listID, core.MemberListOptions{
		Count:  opts.count,
		Offset: opts.offset,
		Status: opts.status,
		Since:  opts.since,
	})
	if err != nil {
		return err
	}
	members := objectsAt(result, "members")
	if !opts.summary {
		formatted := make([]Member, 0, len(members))
		for _, member := range members {
			formatted = append(formatted, FormatMember(member))
		}
		return writeJSON(s.out, map[string]any{"members": formatted, "total": result["total_items"]})
	}
	fmt.Fprintf(s.out, "Found %s member(s):\n\n", count(numberAt(result, "total_items")))
	for _, raw := range members {
		member := FormatMember(raw)
		tags := ""
		if len(member.Tags) > 0 {
			tags = " [" + strings.Join(member.Tags, ", ") + "]"
		}
		fmt.Fprintf(s.out, "%s - %s%s\n", member.Email, orDefault(member.FullName, "(no name)"), tags)
		fmt.Fprintf(s.out, "  Status: %s | Subscribed: %s\n", member.Status, orDefault(member.Subscribed, "N/A"))
	}
	return nil
}

func runMember(ctx context.Context, s *session, opts options, args []string) error {
	listID, email := arg(args, 0), arg(args, 1)
	if listID == "" || email == "" {
		return usage("List ID and email required", "Usage: mailchimp member <listId> <email> --dc <dc>")
	}
	result, err := gocommand.Ask[mcquery.GetMemberMessage, core.Object](ctx, mcquery.GetMemberMessage{
		ListID: listID,
		Email:  email,
	})
	if err != nil {
		return err
	}
	member := FormatMember(result)
	if !opts.summary {
		return writeJSON(s.out, member)
	}
	fmt.Fprintf(s.out, "Email: %s\n", member.Email)
	fmt.Fprintf(s.out, "Name: %s\n", orDefault(member.FullName, "(no name)"))
	fmt.Fprintf(s.out, "Status: %s\n", member.Status)
	fmt.Fprintf(s.out, "Tags: %s\n", orDefault(strings.Join(member.Tags, ", "), "(none)"))
	fmt.Fprintf(s.out, "Subscribed: %s\n", orDefault(member.Subscribed, "N/A"))
	fmt.Fprintf(s.out, "Last Changed: %s\n", orDefault(member.LastChanged, "N/A"))
	fmt.Fprintf(s.out, "Source: %s\n", orDefault(member.Source, "N/A"))
	if len(member.MergeFields) > 0 {
		fmt.Fprint(s.out, "Merge Fields: ")
		if err := writeCompactJSON(s, member.MergeFields); err != nil {
			return err
		}
	}
	return nil
}

func runAddMember(ctx context.Context, s *session, opts options, args []string) error {
	listID, email := arg(args, 0), arg(args, 1)
	if listID == "" || email == "" {
		return usage("List ID and email required", "Usage: mailchimp add-member <listId> <email> --dc <dc>")
	}
	member := core.NewMember{Email: email, Status: opts.status}
	if opts.fname != "" || opts.lname != "" {
		member.MergeFields = map[string]string{}
		if opts.fname != "" {
			member.MergeFields["FNAME"] = opts.fname
		}
		if opts.lname != "" {
			member.MergeFields["LNAME"] = opts.lname
		}
	}
	if opts.tags != "" {
		for _, tag := range strings.Split(opts.tags, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				member.Tags = append(member.Tags, tag)
			}
		}
	}

	result, _, err := gocommand.Execute[mccommand.AddMemberMessage, core.Object](ctx, mccommand.AddMemberMessage{
		ListID: listID,
		Member: member,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Added: %s (%s)\n", stringAt(result, "email_address"), stringAt(result, "status"))
	return writeJSON(s.out, FormatMember(result))
}

func runSearch(ctx context.Context, s *session, opts options, args []string) error {
	query := arg(args, 0)
	if query == "" {
		return usage("Search query required", "Usage: mailchimp search <query> --dc <dc>")
	}
	result, err := s.client.SearchMembers(ctx, query)
	if err != nil {
		return err
	}
	matches := append(objectsAt(objectAt(result, "exact_matches"), "members"), objectsAt(objectAt(result, "full_search"), "members")...)
	if !opts.summary {
		formatted := make([]Member, 0, len(matches))
		for _, member := range matches {
			formatted = append(formatted, FormatMember(member))
		}
		return writeJSON(s.out, map[string]any{"members": formatted, "total": len(formatted)})
	}
	fmt.Fprintf(s.out, "Found %d match(es):\n\n", len(matches))
	for _, raw := range matches {
		member := FormatMember(raw)
		fmt.Fprintf(s.out, "%s - %s\n", member.Email, orDefault(member.FullName, "(no name)"))
		fmt.Fprintf(s.out, "  Status: %s | List: %s\n", member.Status, member.ListID)
	}
	return nil
}

func runCampaigns(ctx context.Context, s *session, opts options, _ []string) error {
	result, err := s.client.Campaigns(ctx, core.CampaignListOptions{
		Count:  opts.count,
		Offset: opts.offset,
		Status: opts.status,
		Type:   opts.kind,
		Since:  opts.since,
		Before: opts.before,
	})
	if err != nil {
		return err
	}
	campaigns := objectsAt(result, "campaigns")
	if !opts.summary {
		formatted := make([]Campaign, 0, len(campaigns))
		for _, campaign := range campaigns {
			formatted = append(formatted, FormatCampaign(campaign))
		}
		return writeJSON(s.out, map[string]any{"campaigns": formatted, "total": result["total_items"]})
	}
	fmt.Fprintf(s.out, "Found %s campaign(s):\n\n", count(numberAt(result, "total_items")))
	for _, raw := range campaigns {
		campaign := FormatCampaign(raw)
		fmt.Fprintln(s.out, campaign.Title)
		fmt.Fprintf(s.out, "  Subject: %s\n", campaign.Subject)
		fmt.Fprintf(s.out, "  Status: %s | Type: %s\n", campaign.Status, campaign.Type)
		fmt.Fprintf(s.out, "  Sent: %s\n", orDefault(campaign.SendTime, "Not sent"))
		if campaign.Status == "sent" {
			fmt.Fprintf(s.out, "  Emails: %s | Opens: %s (%s) | Clicks: %s (%s)\n",
				count(campaign.EmailsSent),
				count(campaign.UniqueOpens), Percent(campaign.OpenRate),
				count(campaign.SubscriberClicks), Percent(campaign.ClickRate))
		}
		fmt.Fprintf(s.out, "  ID: %s\n\n", campaign.ID)
	}
	return nil
}

func runCampaign(ctx context.Context, s *session, opts options, args []string) error {
	campaignID := arg(args, 0)
	if campaignID == "" {
		return usage("Campaign ID required", "Usage: mailchimp campaign <campaignId> --dc <dc>")
	}
	bundle := s.client.CampaignWithContent(ctx, campaignID, opts.content)
	if bundle.Campaign.Err != nil {
		return bundle.Campaign.Err
	}
	campaign := FormatCampaign(bundle.Campaign.Payload)

	if !opts.summary {
		out := map[string]any{"campaign": campaign}
		if bundle.Content != nil {
			if bundle.Content.Err != nil {
				out["contentError"] = errorPayload(bundle.Content.Err)
			} else {
				out["content"] = bundle.Content.Payload
			}
		}
		return writeJSON(s.out, out)
	}

	fmt.Fprintf(s.out, "Title: %s\n", campaign.Title)
	fmt.Fprintf(s.out, "Subject: %s\n", campaign.Subject)
	fmt.Fprintf(s.out, "Preview: %s\n", orDefault(campaign.PreviewText, "(none)"))
	fmt.Fprintf(s.out, "From: %s\n", campaign.FromName)
	fmt.Fprintf(s.out, "Reply To: %s\n", campaign.ReplyTo)
	fmt.Fprintf(s.out, "Status: %s\n", campaign.Status)
	fmt.Fprintf(s.out, "Type: %s\n", campaign.Type)
	fmt.Fprintf(s.out, "List: %s (%s)\n", campaign.ListName, campaign.ListID)
	fmt.Fprintf(s.out, "Created: %s\n", campaign.CreateTime)
	fmt.Fprintf(s.out, "Sent: %s\n", orDefault(campaign.SendTime, "Not sent"))
	if campaign.Status == "sent" {
		fmt.Fprintf(s.out, "Emails Sent: %s\n", count(campaign.EmailsSent))
		fmt.Fprintf(s.out, "Opens: %s (%s)\n", count(campaign.UniqueOpens), Percent(campaign.OpenRate))
		fmt.Fprintf(s.out, "Clicks: %s (%s)\n", count(campaign.SubscriberClicks), Percent(campaign.ClickRate))
	}
	if bundle.Content != nil {
		fmt.Fprint(s.out, "\n--- HTML Content ---\n\n")
		if bundle.Content.Err != nil {
			fmt.Fprintf(s.out, "Unavailable: %s\n", bundle.Content.Err.Error())
		} else {
			fmt.Fprintln(s.out, orDefault(stringAt(bundle.Content.Payload, "html"), "(no HTML content)"))
		}
	}
	return nil
}

func runReport(ctx context.Context, s *session, opts options, args []string) error {
	campaignID := arg(args, 0)
	if campaignID == "" {
		return usage("Campaign ID required", "Usage: mailchimp report <campaignId> --dc <dc>")
	}
	details := core.ReportDetails{Clicks: opts.clicks, Opens: opts.opens}
	if opts.summary {
		details.OpensCount = 20
	}
	bundle, err := gocommand.Ask[mcquery.CampaignReportMessage, core.ReportBundle](ctx, mcquery.CampaignReportMessage{
		CampaignID: campaignID,
		Details:    details,
	})
	if err != nil {
		return err
	}
	if bundle.Report.Err != nil {
		return bundle.Report.Err
	}
	report := bundle.Report.Payload

	if !opts.summary {
		out := map[string]any{"report": report}
		addDetail(out, "clickDetails", bundle.ClickDetails)
		addDetail(out, "openDetails", bundle.OpenDetails)
		return writeJSON(s.out, out)
	}

	opens := objectAt(report, "opens")
	clicks := objectAt(report, "clicks")
	bounces := objectAt(report, "bounces")
	fmt.Fprintf(s.out, "Campaign: %s\n", stringAt(report, "campaign_title"))
	fmt.Fprintf(s.out, "Subject: %s\n", stringAt(report, "subject_line"))
	fmt.Fprintf(s.out, "List: %s\n", stringAt(report, "list_name"))
	fmt.Fprintf(s.out, "Sent: %s\n", stringAt(report, "send_time"))
	fmt.Fprint(s.out, "\n--- Performance ---\n")
	fmt.Fprintf(s.out, "Emails Sent: %s\n", count(numberAt(report, "emails_sent")))
	fmt.Fprintf(s.out, "Opens: %s unique (%s)\n", count(numberAt(opens, "unique_opens")), Percent(numberAt(opens, "open_rate")))
	fmt.Fprintf(s.out, "Clicks: %s unique (%s)\n", count(numberAt(clicks, "unique_clicks")), Percent(numberAt(clicks, "click_rate")))
	fmt.Fprintf(s.out, "Bounces: %s hard, %s soft\n", count(numberAt(bounces, "hard_bounces")), count(numberAt(bounces, "soft_bounces")))
	fmt.Fprintf(s.out, "Unsubscribes: %s\n", count(numberAt(report, "unsubscribed")))
	fmt.Fprintf(s.out, "Abuse Reports: %s\n", count(numberAt(report, "abuse_reports")))

	if bundle.ClickDetails != nil {
		fmt.Fprint(s.out, "\n--- Click Details ---\n")
		if bundle.ClickDetails.Err != nil {
			fmt.Fprintf(s.out, "Unavailable: %s\n", bundle.ClickDetails.Err.Error())
		}
		for _, link := range objectsAt(bundle.ClickDetails.Payload, "urls_clicked") {
			fmt.Fprintln(s.out, stringAt(link, "url"))
			fmt.Fprintf(s.out, "  Clicks: %s (%s unique)\n", count(numberAt(link, "total_clicks")), count(numberAt(link, "unique_clicks")))
		}
	}
	if bundle.OpenDetails != nil {
		fmt.Fprint(s.out, "\n--- Recent Opens ---\n")
		if bundle.OpenDetails.Err != nil {
			fmt.Fprintf(s.out, "Unavailable: %s\n", bundle.OpenDetails.Err.Error())
		}
		for _, open := range objectsAt(bundle.OpenDetails.Payload, "members") {
			fmt.Fprintf(s.out, "%s - %s opens\n", stringAt(open, "email_address"), count(numberAt(open, "opens_count")))
		}
	}
	return nil
}

func addDetail(out map[string]any, key string, result *core.Result) {
	if result == nil {
		return
	}
	if result.Err != nil {
		out[key+"Error"] = errorPayload(result.Err)
		return
	}
	out[key] = result.Payload
}

func runTags(ctx context.Context, s *session, opts options, args []string) error {
	listID := arg(args, 0)
	if listID == "" {
		return usage("List ID required", "Usage: mailchimp tags <listId> --dc <dc>")
	}
	result, err := s.client.Tags(ctx, listID)
	if err != nil {
		return err
	}
	segments := objectsAt(result, "segments")
	if !opts.summary {
		tags := make([]Tag, 0, len(segments))
		for _, segment := range segments {
			tags = append(tags, FormatTag(segment))
		}
		return writeJSON(s.out, map[string]any{"tags": tags, "total": result["total_items"]})
	}
	fmt.Fprintf(s.out, "Found %s tag(s):\n\n", count(numberAt(result, "total_items")))
	for _, raw := range segments {
		tag := FormatTag(raw)
		fmt.Fprintf(s.out, "%s (%s members)\n", tag.Name, count(tag.MemberCount))
		fmt.Fprintf(s.out, "  ID: %s\n", tag.ID)
	}
	return nil
}

func runAutomations(ctx context.Context, s *session, opts options, _ []string) error {
	result, err := s.client.Automations(ctx)
	if err != nil {
		return err
	}
	if !opts.summary {
		return writeJSON(s.out, result)
	}
	fmt.Fprintf(s.out, "Found %s automation(s):\n\n", count(numberAt(result, "total_items")))
	for _, automation := range objectsAt(result, "automations") {
		fmt.Fprintln(s.out, orDefault(stringAt(objectAt(automation, "settings"), "title"), "(no title)"))
		fmt.Fprintf(s.out, "  Status: %s\n", stringAt(automation, "status"))
		fmt.Fprintf(s.out, "  Emails Sent: %s\n", count(numberAt(automation, "emails_sent")))
		fmt.Fprintf(s.out, "  ID: %s\n\n", stringAt(automation, "id"))
	}
	return nil
}

func writeCompactJSON(s *session, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(s.out, string(data))
	return err
}
