package core

import (
	"context"
	"errors"
	"sync"
	"time"
)

type brokerReply struct {
	resp AuthenticatedResponse
	err  error
}

type fakeBroker struct {
	mu          sync.Mutex
	credentials map[string]bool
	replies     map[string]brokerReply
	fallback    brokerReply
	requests    []AuthenticatedRequest
}

func newFakeBroker(credentials ...string) *fakeBroker {
	broker := &fakeBroker{
		credentials: map[string]bool{},
		replies:     map[string]brokerReply{},
		fallback:    brokerReply{resp: jsonResponse(200, `{}`)},
	}
	for _, name := range credentials {
		broker.credentials[name] = true
	}
	return broker
}

func (b *fakeBroker) reply(url string, resp AuthenticatedResponse) *fakeBroker {
	b.replies[url] = brokerReply{resp: resp}
	return b
}

func (b *fakeBroker) fail(url string, err error) *fakeBroker {
	b.replies[url] = brokerReply{err: err}
	return b
}

func (b *fakeBroker) HasCredential(name string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.credentials[name]
}

func (b *fakeBroker) AuthenticatedRequest(_ context.Context, req AuthenticatedRequest) (AuthenticatedResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.requests = append(b.requests, req)
	reply, ok := b.replies[req.URL]
	if !ok {
		reply = b.fallback
	}
	return reply.resp, reply.err
}

func (b *fakeBroker) calls() []AuthenticatedRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]AuthenticatedRequest, len(b.requests))
	copy(out, b.requests)
	return out
}

func jsonResponse(status int, body string) AuthenticatedResponse {
	return AuthenticatedResponse{
		OK:     status >= 200 && status < 300,
		Status: status,
		Body:   []byte(body),
	}
}

type captureSink struct {
	mu      sync.Mutex
	entries []ActivityEntry
	err     error
}

func (s *captureSink) Record(_ context.Context, entry ActivityEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return s.err
}

func (s *captureSink) snapshot() []ActivityEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ActivityEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

type capturedLog struct {
	level  string
	msg    string
	fields map[string]any
}

type captureLogger struct {
	mu       *sync.Mutex
	records  *[]capturedLog
	defaults map[string]any
}

func newCaptureLogger() *captureLogger {
	records := []capturedLog{}
	return &captureLogger{mu: &sync.Mutex{}, records: &records, defaults: map[string]any{}}
}

func (l *captureLogger) WithFields(fields map[string]any) Logger {
	merged := cloneFieldMap(l.defaults)
	for key, value := range fields {
		merged[key] = value
	}
	return &captureLogger{mu: l.mu, records: l.records, defaults: merged}
}

func (l *captureLogger) Trace(msg string, args ...any) { l.record("trace", msg, args...) }
func (l *captureLogger) Debug(msg string, args ...any) { l.record("debug", msg, args...) }
func (l *captureLogger) Info(msg string, args ...any)  { l.record("info", msg, args...) }
func (l *captureLogger) Warn(msg string, args ...any)  { l.record("warn", msg, args...) }
func (l *captureLogger) Error(msg string, args ...any) { l.record("error", msg, args...) }
func (l *captureLogger) Fatal(msg string, args ...any) { l.record("fatal", msg, args...) }

func (l *captureLogger) WithContext(context.Context) Logger {
	return &captureLogger{mu: l.mu, records: l.records, defaults: cloneFieldMap(l.defaults)}
}

func (l *captureLogger) record(level string, msg string, args ...any) {
	fields := cloneFieldMap(l.defaults)
	for index := 0; index+1 < len(args); index += 2 {
		key, ok := args[index].(string)
		if !ok {
			continue
		}
		fields[key] = args[index+1]
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	*l.records = append(*l.records, capturedLog{level: level, msg: msg, fields: fields})
}

func (l *captureLogger) snapshot() []capturedLog {
	l.mu.Lock()
	defer l.mu.Unlock()
	items := *l.records
	out := make([]capturedLog, len(items))
	copy(out, items)
	return out
}

func cloneFieldMap(input map[string]any) map[string]any {
	if len(input) == 0 {
		return map[string]any{}
	}
	output := make(map[string]any, len(input))
	for key, value := range input {
		output[key] = value
	}
	return output
}

type stubLoggerProvider struct {
	logger Logger
}

func (s stubLoggerProvider) GetLogger(string) Logger {
	return s.logger
}

var errBrokerUnreachable = errors.New("dial tcp: connection refused")

func fixedClock() func() time.Time {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	calls := 0
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		calls++
		return start.Add(time.Duration(calls-1) * 25 * time.Millisecond)
	}
}

func newTestClient(t interface {
	Helper()
	Fatalf(string, ...any)
}, broker *fakeBroker, opts ...Option) *Client {
	t.Helper()
	base := []Option{
		WithClock(fixedClock()),
		WithIDGenerator(func() string { return "req_1" }),
	}
	client, err := NewClient(Config{Datacenter: "us21"}, broker, append(base, opts...)...)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

const testBase = "https://us21.api.mailchimp.com/3.0"
