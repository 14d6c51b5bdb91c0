package core

import (
	"net/url"
	"testing"
)

func TestQueryParams_OrderAndAbsence(t *testing.T) {
	params := NewQueryParams().
		Set("count", 10).
		Set("status", "").
		Set("offset", nil).
		Set("since", "2026-01-01").
		Set("count", 25)

	if got := params.Encode(); got != "count=25&since=2026-01-01" {
		t.Fatalf("unexpected encoding %q", got)
	}
	if keys := params.Keys(); len(keys) != 4 || keys[0] != "count" {
		t.Fatalf("expected insertion order to be kept, got %v", keys)
	}
	if value, ok := params.Get("count"); !ok || value != 25 {
		t.Fatalf("expected replaced value, got %v", value)
	}
}

func TestQueryParams_ValueFormatting(t *testing.T) {
	params := NewQueryParams().
		Set("f", 1.5).
		Set("b", true).
		Set("n", int64(-3))
	if got := params.Encode(); got != "f=1.5&b=true&n=-3" {
		t.Fatalf("unexpected encoding %q", got)
	}
}

func TestWithQuery(t *testing.T) {
	if got := WithQuery("/lists", NewQueryParams()); got != "/lists" {
		t.Fatalf("expected bare path, got %q", got)
	}
	if got := WithQuery("/lists", nil); got != "/lists" {
		t.Fatalf("expected bare path for nil params, got %q", got)
	}
	if got := WithQuery("/x", NewQueryParams().Set("q", "a b")); got != "/x?q=a%20b" {
		t.Fatalf("expected %%20 for spaces, got %q", got)
	}
}

func TestEncodeQuery_KeepsComponentUnreservedMarks(t *testing.T) {
	params := NewQueryParams().
		Set("q", "it's (a)*!~ test").
		Set("path", "a/b?c=d&e").
		Set("name", "café")
	want := "q=it's%20(a)*!~%20test&path=a%2Fb%3Fc%3Dd%26e&name=caf%C3%A9"
	if got := EncodeQuery(params); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestQueryParams_RoundTrip(t *testing.T) {
	values := map[string]string{
		"query":  "ünïcode & friends",
		"symbol": "a+b=c/d?e#f",
		"quote":  `"x" 'y'`,
	}
	params := NewQueryParams()
	for _, key := range []string{"query", "symbol", "quote"} {
		params.Set(key, values[key])
	}
	decoded, err := url.ParseQuery(EncodeQuery(params))
	if err != nil {
		t.Fatalf("parse query: %v", err)
	}
	for key, want := range values {
		if got := decoded.Get(key); got != want {
			t.Fatalf("key %s: expected %q, got %q", key, want, got)
		}
	}
}
