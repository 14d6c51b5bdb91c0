package core

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

const DefaultCredentialName = "mailchimp"

// Object is a decoded JSON object returned by the API.
type Object = map[string]any

// CredentialRef names a credential slot. The value behind it is only ever
// seen by the broker.
type CredentialRef struct {
	Name string
}

// CredentialBroker is the host-controlled collaborator that knows which
// credentials exist and injects them into outbound requests.
type CredentialBroker interface {
	HasCredential(name string) bool
	AuthenticatedRequest(ctx context.Context, req AuthenticatedRequest) (AuthenticatedResponse, error)
}

type AuthenticatedRequest struct {
	ServiceID string
	URL       string
	Method    string
	Headers   map[string]string
	Body      []byte
	Timeout   time.Duration
}

type AuthenticatedResponse struct {
	OK      bool
	Status  int
	Headers map[string]string
	Body    []byte
}

// JSON decodes the response body into target.
func (r AuthenticatedResponse) JSON(target any) error {
	return json.Unmarshal(r.Body, target)
}

func (r AuthenticatedResponse) Text() string {
	return string(r.Body)
}

// Request describes one API call relative to the client endpoint.
type Request struct {
	Operation string
	Path      string
	Method    string
	Body      any
	Headers   map[string]string
	Timeout   time.Duration
}

// Result is the outcome of one sub-request of a composite operation.
type Result struct {
	Payload Object
	Err     error
}

func (r Result) OK() bool {
	return r.Err == nil
}

// CredentialPlacement describes where the host puts the secret.
type CredentialPlacement struct {
	Type   string
	Name   string
	Format string
}

// CredentialRequirement is what the client expects the host to have
// configured for its credential slot.
type CredentialRequirement struct {
	Name      string
	EnvKey    string
	Type      string
	Domains   []string
	Placement CredentialPlacement
}

func DefaultCredentialRequirement(cfg Config) CredentialRequirement {
	name := strings.TrimSpace(cfg.CredentialName)
	if name == "" {
		name = DefaultCredentialName
	}
	return CredentialRequirement{
		Name:    name,
		EnvKey:  strings.ToUpper(strings.ReplaceAll(name, "-", "_")) + "_API_KEY",
		Type:    "api_key",
		Domains: []string{cfg.DomainPattern()},
		Placement: CredentialPlacement{
			Type:   "header",
			Name:   "Authorization",
			Format: "Bearer {token}",
		},
	}
}

type ActivityOutcome string

const (
	ActivityOutcomeSuccess ActivityOutcome = "success"
	ActivityOutcomeFailure ActivityOutcome = "failure"
)

// ActivityEntry is the record kept for each request. It never carries
// headers, bodies or query values.
type ActivityEntry struct {
	ID         string
	Operation  string
	Method     string
	Path       string
	Datacenter string
	Status     int
	Outcome    ActivityOutcome
	ErrorType  string
	DurationMS int64
	CreatedAt  time.Time
}

type ActivityFilter struct {
	Limit     int
	Offset    int
	Operation string
	Outcome   ActivityOutcome
	Since     *time.Time
}

type ActivityPage struct {
	Items   []ActivityEntry
	Total   int
	Limit   int
	Offset  int
	HasNext bool
}

type ActivitySink interface {
	Record(ctx context.Context, entry ActivityEntry) error
}

type ActivityReader interface {
	List(ctx context.Context, filter ActivityFilter) (ActivityPage, error)
}

type ActivityRetentionPolicy struct {
	TTL    time.Duration
	RowCap int
}

type ActivityPruner interface {
	Prune(ctx context.Context, policy ActivityRetentionPolicy) (int, error)
}

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger
