package core

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
)

const defaultContentType = "application/json"

// Client issues Mailchimp API requests through a CredentialBroker. It keeps
// no per-request state and is safe to share between goroutines.
type Client struct {
	config     Config
	endpoint   Endpoint
	credential CredentialRef
	broker     CredentialBroker
	logger     Logger
	activity   ActivitySink
	now        func() time.Time
	newID      func() string
}

// NewClient resolves configuration and checks that the broker has the
// credential slot configured. It never performs network I/O.
func NewClient(cfg Config, broker CredentialBroker, opts ...Option) (*Client, error) {
	builder := buildOptions(opts)

	provider, logger := glog.Resolve("mailchimp", builder.loggerProvider, builder.logger)
	logger = glog.Ensure(logger)
	if provider != nil {
		if named := provider.GetLogger("mailchimp.client"); named != nil {
			logger = glog.Ensure(named)
		}
	}

	if broker == nil {
		return nil, clientError("core: credential broker is required", goerrors.CategoryInternal, http.StatusInternalServerError)
	}

	resolved, err := builder.resolveConfig(context.Background(), cfg)
	if err != nil {
		return nil, err
	}

	requirement := DefaultCredentialRequirement(resolved)
	if builder.requirement != nil {
		requirement = *builder.requirement
	}
	if !broker.HasCredential(requirement.Name) {
		logger.Warn("credential not configured", "credential", requirement.Name)
		return nil, &ConfigurationError{Requirement: requirement}
	}

	endpoint := NewEndpoint(resolved)
	if builder.endpoint != nil {
		endpoint = *builder.endpoint
	}

	return &Client{
		config:     resolved,
		endpoint:   endpoint,
		credential: CredentialRef{Name: requirement.Name},
		broker:     broker,
		logger:     logger,
		activity:   builder.activitySink,
		now:        builder.clock,
		newID:      builder.idGenerator,
	}, nil
}

func (c *Client) Config() Config {
	return c.config
}

func (c *Client) Datacenter() string {
	return c.config.Datacenter
}

func (c *Client) Endpoint() Endpoint {
	return c.endpoint
}

// Request performs a single API call. Failures are returned as
// *RequestError; the call is never retried.
func (c *Client) Request(ctx context.Context, req Request) (Object, error) {
	if c == nil || c.broker == nil {
		return nil, clientError("core: client is not configured", goerrors.CategoryInternal, http.StatusInternalServerError)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	method := strings.ToUpper(strings.TrimSpace(req.Method))
	if method == "" {
		method = http.MethodGet
	}
	body, err := encodeBody(req.Body)
	if err != nil {
		return nil, clientError(fmt.Sprintf("core: encode request body: %v", err), goerrors.CategoryBadInput, http.StatusBadRequest)
	}
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = c.config.Timeout()
	}

	call := requestCall{
		id:        c.newID(),
		operation: req.Operation,
		method:    method,
		path:      req.Path,
		headers:   req.Headers,
		startedAt: c.now(),
	}
	c.logRequestStart(ctx, call)

	resp, err := c.broker.AuthenticatedRequest(ctx, AuthenticatedRequest{
		ServiceID: c.credential.Name,
		URL:       c.endpoint.URL(req.Path),
		Method:    method,
		Headers:   mergeHeaders(req.Headers),
		Body:      body,
		Timeout:   timeout,
	})
	if err != nil {
		failure := transportFailure(err)
		c.observe(ctx, call, failure.Status, failure)
		return nil, failure
	}
	if !resp.OK {
		failure := NormalizeFailure(resp)
		c.observe(ctx, call, resp.Status, failure)
		return nil, failure
	}

	payload, err := decodeSuccess(resp)
	if err != nil {
		failure := &RequestError{
			Message: fmt.Sprintf("decode response: %v", err),
			Status:  resp.Status,
			Body:    resp.Text(),
			cause:   err,
		}
		c.observe(ctx, call, resp.Status, failure)
		return nil, failure
	}
	c.observe(ctx, call, resp.Status, nil)
	return payload, nil
}

func mergeHeaders(overrides map[string]string) map[string]string {
	headers := map[string]string{"Content-Type": defaultContentType}
	for key, value := range overrides {
		trimmed := strings.TrimSpace(key)
		if trimmed == "" {
			continue
		}
		if strings.EqualFold(trimmed, "Content-Type") {
			delete(headers, "Content-Type")
		}
		headers[trimmed] = value
	}
	return headers
}

func encodeBody(body any) ([]byte, error) {
	switch typed := body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return typed, nil
	case string:
		return []byte(typed), nil
	case json.RawMessage:
		return []byte(typed), nil
	default:
		return json.Marshal(typed)
	}
}

func decodeSuccess(resp AuthenticatedResponse) (Object, error) {
	if len(bytes.TrimSpace(resp.Body)) == 0 {
		return Object{}, nil
	}
	var decoded any
	if err := resp.JSON(&decoded); err != nil {
		return nil, err
	}
	switch typed := decoded.(type) {
	case map[string]any:
		return typed, nil
	case nil:
		return Object{}, nil
	default:
		return Object{"data": typed}, nil
	}
}
