package core

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"
)

type requestCall struct {
	id        string
	operation string
	method    string
	path      string
	headers   map[string]string
	startedAt time.Time
}

func (c *Client) logRequestStart(ctx context.Context, call requestCall) {
	fields := map[string]any{
		"request_id": call.id,
		"operation":  operationName(call),
		"method":     call.method,
		"path":       pathWithoutQuery(call.path),
	}
	if len(call.headers) > 0 {
		fields["headers"] = RedactHeaders(call.headers)
	}
	c.logWithLevel(ctx, "debug", "request started", fields)
}

func (c *Client) observe(ctx context.Context, call requestCall, status int, failure *RequestError) {
	duration := c.now().Sub(call.startedAt)
	fields := map[string]any{
		"request_id":  call.id,
		"operation":   operationName(call),
		"method":      call.method,
		"path":        pathWithoutQuery(call.path),
		"duration_ms": duration.Milliseconds(),
	}
	if status > 0 {
		fields["status"] = status
	}

	entry := ActivityEntry{
		ID:         call.id,
		Operation:  operationName(call),
		Method:     call.method,
		Path:       pathWithoutQuery(call.path),
		Datacenter: c.config.Datacenter,
		Status:     status,
		Outcome:    ActivityOutcomeSuccess,
		DurationMS: duration.Milliseconds(),
		CreatedAt:  call.startedAt.UTC(),
	}
	if failure != nil {
		entry.Outcome = ActivityOutcomeFailure
		entry.ErrorType = failure.Type
		fields["error"] = failure.Message
		if failure.Type != "" {
			fields["error_type"] = failure.Type
		}
		c.logWithLevel(ctx, "error", "request failed", fields)
	} else {
		c.logWithLevel(ctx, "info", "request succeeded", fields)
	}

	c.recordActivity(ctx, entry)
}

func (c *Client) recordActivity(ctx context.Context, entry ActivityEntry) {
	if c.activity == nil {
		return
	}
	// The request outcome stands even when history cannot be written.
	recordCtx := ctx
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(ctx.Err(), context.Canceled) {
		recordCtx = context.WithoutCancel(ctx)
	}
	if err := c.activity.Record(recordCtx, entry); err != nil {
		c.logWithLevel(ctx, "warn", "activity record failed", map[string]any{
			"request_id": entry.ID,
			"error":      err.Error(),
		})
	}
}

func (c *Client) logWithLevel(ctx context.Context, level string, message string, fields map[string]any) {
	if c == nil || c.logger == nil {
		return
	}
	logger := c.logger
	if ctx != nil {
		logger = logger.WithContext(ctx)
	}
	if fieldsLogger, ok := logger.(FieldsLogger); ok {
		logger = fieldsLogger.WithFields(fields)
	}
	args := flattenFields(fields)
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "error":
		logger.Error(message, args...)
	case "warn":
		logger.Warn(message, args...)
	case "debug":
		logger.Debug(message, args...)
	default:
		logger.Info(message, args...)
	}
}

func operationName(call requestCall) string {
	operation := normalizeOperation(call.operation)
	if operation != "" {
		return operation
	}
	return "request"
}

func pathWithoutQuery(path string) string {
	if index := strings.IndexByte(path, '?'); index >= 0 {
		return path[:index]
	}
	return path
}

func flattenFields(fields map[string]any) []any {
	if len(fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	args := make([]any, 0, len(keys)*2)
	for _, key := range keys {
		args = append(args, key, fields[key])
	}
	return args
}

func normalizeOperation(operation string) string {
	operation = strings.TrimSpace(strings.ToLower(operation))
	operation = strings.ReplaceAll(operation, " ", "_")
	operation = strings.ReplaceAll(operation, "-", "_")
	return operation
}
