package core

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	ErrorConfiguration   = "MAILCHIMP_CONFIGURATION"
	ErrorBadInput        = "MAILCHIMP_BAD_INPUT"
	ErrorUnauthorized    = "MAILCHIMP_UNAUTHORIZED"
	ErrorForbidden       = "MAILCHIMP_FORBIDDEN"
	ErrorNotFound        = "MAILCHIMP_NOT_FOUND"
	ErrorRateLimited     = "MAILCHIMP_RATE_LIMITED"
	ErrorExternalFailure = "MAILCHIMP_EXTERNAL_FAILURE"
	ErrorInternal        = "MAILCHIMP_INTERNAL_ERROR"
)

// ConfigurationError reports a credential slot the host has not configured.
// No request is attempted once it is returned.
type ConfigurationError struct {
	Requirement CredentialRequirement
}

func (e *ConfigurationError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s token not configured", displayName(e.Requirement.Name))
}

// Remediation renders the host configuration the credential slot needs.
func (e *ConfigurationError) Remediation() string {
	if e == nil {
		return ""
	}
	req := e.Requirement
	var b strings.Builder
	fmt.Fprintf(&b, "%s token not configured.\n\n", displayName(req.Name))
	b.WriteString("Add to ~/.pave/permissions.yaml under tokens section:\n\n")
	b.WriteString("tokens:\n")
	fmt.Fprintf(&b, "  %s:\n", req.Name)
	fmt.Fprintf(&b, "    env: %s\n", req.EnvKey)
	fmt.Fprintf(&b, "    type: %s\n", req.Type)
	b.WriteString("    domains:\n")
	for _, domain := range req.Domains {
		fmt.Fprintf(&b, "      - %q\n", domain)
	}
	b.WriteString("    placement:\n")
	fmt.Fprintf(&b, "      type: %s\n", req.Placement.Type)
	fmt.Fprintf(&b, "      name: %s\n", req.Placement.Name)
	if req.Placement.Format != "" {
		fmt.Fprintf(&b, "      format: %q\n", req.Placement.Format)
	}
	b.WriteString("\nThen add your API key to ~/.pave/tokens.yaml:\n\n")
	fmt.Fprintf(&b, "%s: \"your-api-key-us21\"\n\n", req.EnvKey)
	b.WriteString("Note: The API key format is: key-datacenter (e.g., abc123-us21)\n")
	return b.String()
}

func (e *ConfigurationError) Envelope() *goerrors.Error {
	if e == nil {
		return nil
	}
	return goerrors.New(e.Error(), goerrors.CategoryAuth).
		WithCode(http.StatusUnauthorized).
		WithTextCode(ErrorConfiguration).
		WithMetadata(map[string]any{
			"credential":     e.Requirement.Name,
			"env":            e.Requirement.EnvKey,
			"placement_type": e.Requirement.Placement.Type,
			"domains":        append([]string(nil), e.Requirement.Domains...),
		})
}

// RequestError is the normalized failure of a single request. Status is 0
// and Type is empty when the transport failed before a response existed.
type RequestError struct {
	Message string
	Status  int
	Type    string
	Body    any
	cause   error
}

func (e *RequestError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

func (e *RequestError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

func (e *RequestError) HasStatus() bool {
	return e != nil && e.Status > 0
}

func (e *RequestError) Envelope() *goerrors.Error {
	if e == nil {
		return nil
	}
	category := requestErrorCategory(e.Status)
	code := e.Status
	if code == 0 {
		code = http.StatusBadGateway
	}
	var err *goerrors.Error
	if e.cause != nil {
		err = goerrors.Wrap(e.cause, category, e.Message)
	} else {
		err = goerrors.New(e.Message, category)
	}
	err = err.WithCode(code).WithTextCode(requestErrorTextCode(e.Status))
	metadata := map[string]any{}
	if e.Type != "" {
		metadata["type"] = e.Type
	}
	if e.Status > 0 {
		metadata["status"] = e.Status
	}
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

// NormalizeFailure turns a non-success response into a RequestError. A body
// that is not JSON becomes the detail message verbatim.
func NormalizeFailure(resp AuthenticatedResponse) *RequestError {
	var decoded any
	if err := json.Unmarshal(resp.Body, &decoded); err != nil {
		decoded = map[string]any{"detail": resp.Text()}
	}
	out := &RequestError{Status: resp.Status, Body: decoded}
	fields, _ := decoded.(map[string]any)
	switch {
	case stringField(fields, "detail") != "":
		out.Message = stringField(fields, "detail")
	case stringField(fields, "title") != "":
		out.Message = stringField(fields, "title")
	default:
		out.Message = fmt.Sprintf("HTTP %d", resp.Status)
	}
	out.Type = stringField(fields, "type")
	return out
}

func transportFailure(err error) *RequestError {
	message := "request failed"
	if err != nil && strings.TrimSpace(err.Error()) != "" {
		message = err.Error()
	}
	return &RequestError{Message: message, cause: err}
}

func requestErrorCategory(status int) goerrors.Category {
	switch {
	case status == http.StatusUnauthorized:
		return goerrors.CategoryAuth
	case status == http.StatusForbidden:
		return goerrors.CategoryAuthz
	case status == http.StatusNotFound:
		return goerrors.CategoryNotFound
	case status == http.StatusTooManyRequests:
		return goerrors.CategoryRateLimit
	case status >= 400 && status < 500:
		return goerrors.CategoryBadInput
	default:
		return goerrors.CategoryExternal
	}
}

func requestErrorTextCode(status int) string {
	switch {
	case status == http.StatusUnauthorized:
		return ErrorUnauthorized
	case status == http.StatusForbidden:
		return ErrorForbidden
	case status == http.StatusNotFound:
		return ErrorNotFound
	case status == http.StatusTooManyRequests:
		return ErrorRateLimited
	case status >= 400 && status < 500:
		return ErrorBadInput
	default:
		return ErrorExternalFailure
	}
}

func clientError(message string, category goerrors.Category, code int) error {
	textCode := ErrorInternal
	if category == goerrors.CategoryBadInput || category == goerrors.CategoryValidation {
		textCode = ErrorBadInput
	}
	return goerrors.New(message, category).
		WithCode(code).
		WithTextCode(textCode)
}

func configError(err error) error {
	if err == nil {
		return nil
	}
	var rich *goerrors.Error
	if goerrors.As(err, &rich) {
		return err
	}
	return goerrors.Wrap(err, goerrors.CategoryValidation, err.Error()).
		WithCode(http.StatusBadRequest).
		WithTextCode(ErrorBadInput)
}

func stringField(fields map[string]any, key string) string {
	if len(fields) == 0 {
		return ""
	}
	value, ok := fields[key].(string)
	if !ok {
		return ""
	}
	return value
}

func displayName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "Credential"
	}
	return strings.ToUpper(name[:1]) + name[1:]
}
