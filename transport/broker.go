package transport

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-mailchimp/core"
	"github.com/goliatone/go-mailchimp/security"
)

// TokenSource is the subset of security.TokenStore the broker needs.
type TokenSource interface {
	Declaration(name string) (security.TokenDeclaration, bool)
	Resolve(name string) (security.Secret, error)
	HasToken(name string) bool
}

type Executor interface {
	Do(ctx context.Context, req Request) (Response, error)
}

type BrokerOption func(*Broker)

func WithExecutor(executor Executor) BrokerOption {
	return func(b *Broker) {
		if executor != nil {
			b.executor = executor
		}
	}
}

func WithBrokerLogger(logger glog.Logger) BrokerOption {
	return func(b *Broker) {
		b.logger = glog.Ensure(logger)
	}
}

// WithInsecureHTTP lets the broker place credentials on plain http URLs.
// Only local test servers need it.
func WithInsecureHTTP() BrokerOption {
	return func(b *Broker) {
		b.allowInsecure = true
	}
}

// Broker places declared tokens on outbound requests. A token is only sent
// to hosts matching its declared domains.
type Broker struct {
	tokens        TokenSource
	executor      Executor
	logger        glog.Logger
	allowInsecure bool
}

func NewBroker(tokens TokenSource, opts ...BrokerOption) *Broker {
	broker := &Broker{
		tokens:   tokens,
		executor: NewRESTAdapter(nil),
		logger:   glog.Nop(),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(broker)
	}
	return broker
}

func (b *Broker) HasCredential(name string) bool {
	if b == nil || b.tokens == nil {
		return false
	}
	return b.tokens.HasToken(name)
}

func (b *Broker) AuthenticatedRequest(ctx context.Context, req core.AuthenticatedRequest) (core.AuthenticatedResponse, error) {
	if b == nil || b.tokens == nil {
		return core.AuthenticatedResponse{}, transportError(
			"transport: broker requires a token source",
			goerrors.CategoryInternal,
			http.StatusInternalServerError,
			nil,
		)
	}
	decl, ok := b.tokens.Declaration(req.ServiceID)
	if !ok {
		return core.AuthenticatedResponse{}, transportError(
			"transport: credential not declared",
			goerrors.CategoryAuth,
			http.StatusUnauthorized,
			map[string]any{"credential": req.ServiceID},
		)
	}

	target, err := url.Parse(strings.TrimSpace(req.URL))
	if err != nil {
		return core.AuthenticatedResponse{}, transportWrapError(
			err,
			goerrors.CategoryBadInput,
			"transport: invalid request url",
			http.StatusBadRequest,
			nil,
		)
	}
	if target.Scheme != "https" && !b.allowInsecure {
		return core.AuthenticatedResponse{}, transportError(
			"transport: credentials are only sent over https",
			goerrors.CategoryAuthz,
			http.StatusForbidden,
			map[string]any{"credential": decl.Name, "scheme": target.Scheme},
		)
	}
	if !decl.AllowsHost(target.Hostname()) {
		return core.AuthenticatedResponse{}, transportError(
			"transport: host is not allowed for credential",
			goerrors.CategoryAuthz,
			http.StatusForbidden,
			map[string]any{"credential": decl.Name, "host": target.Hostname()},
		)
	}

	secret, err := b.tokens.Resolve(decl.Name)
	if err != nil {
		return core.AuthenticatedResponse{}, transportWrapError(
			err,
			goerrors.CategoryAuth,
			"transport: credential unavailable",
			http.StatusUnauthorized,
			map[string]any{"credential": decl.Name},
		)
	}

	outbound := Request{
		Method:  req.Method,
		URL:     target.String(),
		Headers: copyHeaders(req.Headers),
		Body:    req.Body,
		Timeout: req.Timeout,
	}
	applyPlacement(&outbound, decl.Placement, secret)

	b.logger.Debug("broker request",
		"credential", decl.Name,
		"method", req.Method,
		"host", target.Hostname(),
		"placement", decl.Placement.Type,
		"headers", core.RedactHeaders(outbound.Headers, decl.Placement.Name),
		"query", core.RedactHeaders(outbound.Query, decl.Placement.Name),
	)
	res, err := b.executor.Do(ctx, outbound)
	if err != nil {
		return core.AuthenticatedResponse{}, err
	}
	return core.AuthenticatedResponse{
		OK:      res.StatusCode >= 200 && res.StatusCode < 300,
		Status:  res.StatusCode,
		Headers: res.Headers,
		Body:    res.Body,
	}, nil
}

func applyPlacement(req *Request, placement security.Placement, secret security.Secret) {
	value := placement.Render(secret)
	switch placement.Type {
	case security.PlacementQuery:
		req.Query = map[string]string{placement.Name: value}
	default:
		for key := range req.Headers {
			if strings.EqualFold(key, placement.Name) {
				delete(req.Headers, key)
			}
		}
		req.Headers[placement.Name] = value
	}
}

func copyHeaders(headers map[string]string) map[string]string {
	out := make(map[string]string, len(headers)+1)
	for key, value := range headers {
		out[key] = value
	}
	return out
}

var _ core.CredentialBroker = (*Broker)(nil)
