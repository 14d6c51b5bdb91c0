package core

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"
	"testing"

	goerrors "github.com/goliatone/go-errors"
)

func TestNewClient_MissingCredentialReturnsConfigurationError(t *testing.T) {
	broker := newFakeBroker()

	_, err := NewClient(Config{Datacenter: "us21"}, broker)
	if err == nil {
		t.Fatalf("expected configuration error")
	}
	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *ConfigurationError, got %T", err)
	}
	if cfgErr.Error() != "Mailchimp token not configured" {
		t.Fatalf("unexpected message %q", cfgErr.Error())
	}
	remediation := cfgErr.Remediation()
	for _, want := range []string{"mailchimp:", "MAILCHIMP_API_KEY", `"*.api.mailchimp.com"`, "Authorization", `"Bearer {token}"`} {
		if !strings.Contains(remediation, want) {
			t.Fatalf("expected remediation to mention %q, got:\n%s", want, remediation)
		}
	}
	if len(broker.calls()) != 0 {
		t.Fatalf("expected no requests, got %d", len(broker.calls()))
	}
	if envelope := cfgErr.Envelope(); envelope.TextCode != ErrorConfiguration || envelope.Category != goerrors.CategoryAuth {
		t.Fatalf("unexpected envelope %+v", envelope)
	}
}

func TestNewClient_RejectsInvalidDatacenter(t *testing.T) {
	broker := newFakeBroker(DefaultCredentialName)
	for _, dc := range []string{"", "us", "21", "us21.evil.com", "US 21"} {
		if _, err := NewClient(Config{Datacenter: dc}, broker); err == nil {
			t.Fatalf("expected datacenter %q to be rejected", dc)
		}
	}
	if len(broker.calls()) != 0 {
		t.Fatalf("expected no requests")
	}
}

func TestNewClient_NilBroker(t *testing.T) {
	if _, err := NewClient(Config{Datacenter: "us21"}, nil); err == nil {
		t.Fatalf("expected error for nil broker")
	}
}

func TestClientRequest_BuildsURLAndDefaults(t *testing.T) {
	broker := newFakeBroker(DefaultCredentialName).reply(testBase+"/", jsonResponse(200, `{"account_name":"Acme"}`))
	client := newTestClient(t, broker)

	payload, err := client.AccountInfo(context.Background())
	if err != nil {
		t.Fatalf("account info: %v", err)
	}
	if payload["account_name"] != "Acme" {
		t.Fatalf("unexpected payload %#v", payload)
	}
	calls := broker.calls()
	if len(calls) != 1 {
		t.Fatalf("expected exactly one broker call, got %d", len(calls))
	}
	call := calls[0]
	if call.URL != testBase+"/" {
		t.Fatalf("unexpected url %q", call.URL)
	}
	if call.Method != "GET" {
		t.Fatalf("expected GET, got %q", call.Method)
	}
	if call.ServiceID != DefaultCredentialName {
		t.Fatalf("expected service id %q, got %q", DefaultCredentialName, call.ServiceID)
	}
	if call.Headers["Content-Type"] != "application/json" {
		t.Fatalf("expected json content type, got %#v", call.Headers)
	}
	if call.Timeout != client.Config().Timeout() {
		t.Fatalf("expected default timeout, got %s", call.Timeout)
	}
}

func TestClientRequest_ContentTypeOverrideIsCaseInsensitive(t *testing.T) {
	broker := newFakeBroker(DefaultCredentialName)
	client := newTestClient(t, broker)

	_, err := client.Request(context.Background(), Request{
		Path:    "/lists",
		Headers: map[string]string{"content-type": "text/plain", "X-Trace": "1"},
	})
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	headers := broker.calls()[0].Headers
	if _, ok := headers["Content-Type"]; ok {
		t.Fatalf("expected default content type to be replaced, got %#v", headers)
	}
	if headers["content-type"] != "text/plain" || headers["X-Trace"] != "1" {
		t.Fatalf("unexpected headers %#v", headers)
	}
}

func TestClientRequest_SuccessShapes(t *testing.T) {
	broker := newFakeBroker(DefaultCredentialName).
		reply(testBase+"/empty", jsonResponse(204, ``)).
		reply(testBase+"/null", jsonResponse(200, `null`)).
		reply(testBase+"/array", jsonResponse(200, `[1,2]`)).
		reply(testBase+"/broken", jsonResponse(200, `{"a":`))
	client := newTestClient(t, broker)
	ctx := context.Background()

	payload, err := client.Request(ctx, Request{Path: "/empty"})
	if err != nil || len(payload) != 0 {
		t.Fatalf("expected empty object, got %#v err=%v", payload, err)
	}
	payload, err = client.Request(ctx, Request{Path: "/null"})
	if err != nil || len(payload) != 0 {
		t.Fatalf("expected empty object for null, got %#v err=%v", payload, err)
	}
	payload, err = client.Request(ctx, Request{Path: "/array"})
	if err != nil {
		t.Fatalf("array: %v", err)
	}
	if items, ok := payload["data"].([]any); !ok || len(items) != 2 {
		t.Fatalf("expected wrapped array, got %#v", payload)
	}
	_, err = client.Request(ctx, Request{Path: "/broken"})
	var reqErr *RequestError
	if !errors.As(err, &reqErr) || !strings.HasPrefix(reqErr.Message, "decode response") {
		t.Fatalf("expected decode failure, got %v", err)
	}
}

func TestClientRequest_NormalizesFailures(t *testing.T) {
	broker := newFakeBroker(DefaultCredentialName).
		reply(testBase+"/lists/missing", jsonResponse(404, `{"type":"https://mailchimp.com/developer/marketing/docs/errors/","title":"Resource Not Found","status":404,"detail":"The requested resource could not be found."}`)).
		reply(testBase+"/titled", jsonResponse(400, `{"title":"Invalid Resource"}`)).
		reply(testBase+"/bare", jsonResponse(500, `{}`)).
		reply(testBase+"/html", jsonResponse(502, `<html>bad gateway</html>`)).
		fail(testBase+"/down", errBrokerUnreachable)
	client := newTestClient(t, broker)
	ctx := context.Background()

	_, err := client.List(ctx, "missing")
	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("expected RequestError, got %T", err)
	}
	if reqErr.Status != 404 || reqErr.Message != "The requested resource could not be found." {
		t.Fatalf("unexpected error %+v", reqErr)
	}
	if !strings.Contains(reqErr.Type, "mailchimp.com") {
		t.Fatalf("expected type to be carried, got %q", reqErr.Type)
	}
	if envelope := reqErr.Envelope(); envelope.TextCode != ErrorNotFound || envelope.Code != 404 {
		t.Fatalf("unexpected envelope %+v", envelope)
	}

	_, err = client.Request(ctx, Request{Path: "/titled"})
	if !errors.As(err, &reqErr) || reqErr.Message != "Invalid Resource" {
		t.Fatalf("expected title fallback, got %v", err)
	}

	_, err = client.Request(ctx, Request{Path: "/bare"})
	if !errors.As(err, &reqErr) || reqErr.Message != "HTTP 500" {
		t.Fatalf("expected status fallback, got %v", err)
	}

	_, err = client.Request(ctx, Request{Path: "/html"})
	if !errors.As(err, &reqErr) || reqErr.Message != "<html>bad gateway</html>" {
		t.Fatalf("expected raw text detail, got %v", err)
	}
	if body, ok := reqErr.Body.(map[string]any); !ok || body["detail"] != "<html>bad gateway</html>" {
		t.Fatalf("expected detail body, got %#v", reqErr.Body)
	}

	_, err = client.Request(ctx, Request{Path: "/down"})
	if !errors.As(err, &reqErr) {
		t.Fatalf("expected RequestError for transport failure, got %T", err)
	}
	if reqErr.HasStatus() || reqErr.Type != "" {
		t.Fatalf("expected no status for transport failure, got %+v", reqErr)
	}
	if !errors.Is(err, errBrokerUnreachable) {
		t.Fatalf("expected transport cause to be wrapped")
	}
	if envelope := reqErr.Envelope(); envelope.Code != 502 || envelope.TextCode != ErrorExternalFailure {
		t.Fatalf("unexpected envelope %+v", envelope)
	}

	if got := len(broker.calls()); got != 5 {
		t.Fatalf("expected one call per request, got %d", got)
	}
}

func TestClientOperations_Paths(t *testing.T) {
	broker := newFakeBroker(DefaultCredentialName)
	client := newTestClient(t, broker)
	ctx := context.Background()

	steps := []struct {
		name string
		run  func() error
		want string
	}{
		{"lists", func() error { _, err := client.Lists(ctx, PageOptions{Count: 5}); return err }, "/lists?count=5"},
		{"lists zero", func() error { _, err := client.Lists(ctx, PageOptions{}); return err }, "/lists"},
		{"list", func() error { _, err := client.List(ctx, "abc"); return err }, "/lists/abc"},
		{"members", func() error {
			_, err := client.Members(ctx, "abc", MemberListOptions{Count: 10, Status: "subscribed", Since: "2026-01-01T00:00:00Z"})
			return err
		}, "/lists/abc/members?count=10&status=subscribed&since_timestamp_opt=2026-01-01T00%3A00%3A00Z"},
		{"member", func() error { _, err := client.Member(ctx, "abc", " Test@Example.COM "); return err },
			"/lists/abc/members/55502f40dc8b7c769880b10874abc9d0"},
		{"search", func() error { _, err := client.SearchMembers(ctx, "jane doe"); return err }, "/search-members?query=jane%20doe"},
		{"campaigns", func() error {
			_, err := client.Campaigns(ctx, CampaignListOptions{Status: "sent", Type: "regular", Before: "2026-02-01"})
			return err
		}, "/campaigns?status=sent&type=regular&before_create_time=2026-02-01"},
		{"campaign", func() error { _, err := client.Campaign(ctx, "c1"); return err }, "/campaigns/c1"},
		{"content", func() error { _, err := client.CampaignContent(ctx, "c1"); return err }, "/campaigns/c1/content"},
		{"report", func() error { _, err := client.CampaignReport(ctx, "c1"); return err }, "/reports/c1"},
		{"clicks", func() error { _, err := client.CampaignClickDetails(ctx, "c1"); return err }, "/reports/c1/click-details"},
		{"opens", func() error { _, err := client.CampaignOpenDetails(ctx, "c1", PageOptions{Count: 20}); return err }, "/reports/c1/open-details?count=20"},
		{"tags", func() error { _, err := client.Tags(ctx, "abc"); return err }, "/lists/abc/segments?type=static"},
		{"automations", func() error { _, err := client.Automations(ctx); return err }, "/automations"},
	}
	for _, step := range steps {
		before := len(broker.calls())
		if err := step.run(); err != nil {
			t.Fatalf("%s: %v", step.name, err)
		}
		calls := broker.calls()
		if len(calls) != before+1 {
			t.Fatalf("%s: expected one call", step.name)
		}
		if got := calls[len(calls)-1].URL; got != testBase+step.want {
			t.Fatalf("%s: expected %q, got %q", step.name, testBase+step.want, got)
		}
	}
}

func TestClientOperations_RequireArguments(t *testing.T) {
	broker := newFakeBroker(DefaultCredentialName)
	client := newTestClient(t, broker)
	ctx := context.Background()

	if _, err := client.List(ctx, "  "); err == nil {
		t.Fatalf("expected list id validation error")
	}
	if _, err := client.Member(ctx, "abc", ""); err == nil {
		t.Fatalf("expected email validation error")
	}
	_, err := client.SearchMembers(ctx, "")
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) || rich.TextCode != ErrorBadInput {
		t.Fatalf("expected bad input error, got %v", err)
	}
	if len(broker.calls()) != 0 {
		t.Fatalf("expected no requests for invalid arguments")
	}
}

func TestClientAddMember_Body(t *testing.T) {
	broker := newFakeBroker(DefaultCredentialName)
	client := newTestClient(t, broker)

	_, err := client.AddMember(context.Background(), "abc", NewMember{
		Email:       "new@example.com",
		MergeFields: map[string]string{"FNAME": "Ada"},
		Tags:        []string{"vip"},
	})
	if err != nil {
		t.Fatalf("add member: %v", err)
	}
	call := broker.calls()[0]
	if call.Method != "POST" || call.URL != testBase+"/lists/abc/members" {
		t.Fatalf("unexpected call %s %s", call.Method, call.URL)
	}
	var body map[string]any
	if err := json.Unmarshal(call.Body, &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["email_address"] != "new@example.com" || body["status"] != DefaultMemberStatus {
		t.Fatalf("unexpected body %#v", body)
	}
	fields, _ := body["merge_fields"].(map[string]any)
	if fields["FNAME"] != "Ada" {
		t.Fatalf("expected merge fields, got %#v", body["merge_fields"])
	}
	if _, ok := body["merge_fields"].(map[string]any)["LNAME"]; ok {
		t.Fatalf("expected LNAME to be omitted")
	}
}

func TestClientAddMember_OmitsEmptyOptionalFields(t *testing.T) {
	broker := newFakeBroker(DefaultCredentialName)
	client := newTestClient(t, broker)

	if _, err := client.AddMember(context.Background(), "abc", NewMember{Email: "a@b.co", Status: "pending"}); err != nil {
		t.Fatalf("add member: %v", err)
	}
	var body map[string]any
	if err := json.Unmarshal(broker.calls()[0].Body, &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if _, ok := body["merge_fields"]; ok {
		t.Fatalf("expected merge_fields to be omitted, got %#v", body)
	}
	if _, ok := body["tags"]; ok {
		t.Fatalf("expected tags to be omitted, got %#v", body)
	}
	if body["status"] != "pending" {
		t.Fatalf("expected explicit status, got %#v", body["status"])
	}
}

func TestClientRequest_QueryRoundTrip(t *testing.T) {
	broker := newFakeBroker(DefaultCredentialName)
	client := newTestClient(t, broker)

	query := "o'brien & sons+co=1"
	if _, err := client.SearchMembers(context.Background(), query); err != nil {
		t.Fatalf("search: %v", err)
	}
	parsed, err := url.Parse(broker.calls()[0].URL)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	if got := parsed.Query().Get("query"); got != query {
		t.Fatalf("expected %q to round trip, got %q", query, got)
	}
}

func TestClientRequest_WithEndpointOverride(t *testing.T) {
	broker := newFakeBroker(DefaultCredentialName)
	client := newTestClient(t, broker, WithEndpoint(Endpoint{Origin: "http://127.0.0.1:9999", BasePath: "/3.0"}))

	if _, err := client.Automations(context.Background()); err != nil {
		t.Fatalf("automations: %v", err)
	}
	if got := broker.calls()[0].URL; got != "http://127.0.0.1:9999/3.0/automations" {
		t.Fatalf("unexpected url %q", got)
	}
}
