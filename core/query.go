package core

import (
	"fmt"
	"strconv"
	"strings"
)

type queryParam struct {
	key   string
	value any
}

// QueryParams is an insertion-ordered set of query parameters. Entries whose
// value is nil or an empty string are treated as absent.
type QueryParams struct {
	params []queryParam
}

func NewQueryParams() *QueryParams {
	return &QueryParams{}
}

// Set adds key or replaces its value in place.
func (q *QueryParams) Set(key string, value any) *QueryParams {
	if q == nil {
		return nil
	}
	for i := range q.params {
		if q.params[i].key == key {
			q.params[i].value = value
			return q
		}
	}
	q.params = append(q.params, queryParam{key: key, value: value})
	return q
}

func (q *QueryParams) Get(key string) (any, bool) {
	if q == nil {
		return nil, false
	}
	for _, param := range q.params {
		if param.key == key {
			return param.value, true
		}
	}
	return nil, false
}

func (q *QueryParams) Keys() []string {
	if q == nil {
		return nil
	}
	keys := make([]string, 0, len(q.params))
	for _, param := range q.params {
		keys = append(keys, param.key)
	}
	return keys
}

func (q *QueryParams) Len() int {
	if q == nil {
		return 0
	}
	return len(q.params)
}

// Encode serializes the present entries as key=value pairs joined by "&".
func (q *QueryParams) Encode() string {
	if q == nil || len(q.params) == 0 {
		return ""
	}
	pairs := make([]string, 0, len(q.params))
	for _, param := range q.params {
		text, present := formatQueryValue(param.value)
		if !present {
			continue
		}
		pairs = append(pairs, encodeComponent(param.key)+"="+encodeComponent(text))
	}
	return strings.Join(pairs, "&")
}

func EncodeQuery(params *QueryParams) string {
	return params.Encode()
}

// WithQuery appends the encoded params to path when any are present.
func WithQuery(path string, params *QueryParams) string {
	encoded := params.Encode()
	if encoded == "" {
		return path
	}
	return path + "?" + encoded
}

func formatQueryValue(value any) (string, bool) {
	switch typed := value.(type) {
	case nil:
		return "", false
	case string:
		return typed, typed != ""
	case *string:
		if typed == nil || *typed == "" {
			return "", false
		}
		return *typed, true
	case int:
		return strconv.Itoa(typed), true
	case int32:
		return strconv.FormatInt(int64(typed), 10), true
	case int64:
		return strconv.FormatInt(typed, 10), true
	case uint:
		return strconv.FormatUint(uint64(typed), 10), true
	case uint64:
		return strconv.FormatUint(typed, 10), true
	case float32:
		return strconv.FormatFloat(float64(typed), 'f', -1, 32), true
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(typed), true
	case fmt.Stringer:
		text := typed.String()
		return text, text != ""
	default:
		text := fmt.Sprint(typed)
		return text, text != ""
	}
}

// encodeComponent percent-encodes UTF-8 bytes outside the URI component
// unreserved set: ASCII letters, digits and - _ . ! ~ * ' ( ).
func encodeComponent(value string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	b.Grow(len(value))
	for i := 0; i < len(value); i++ {
		c := value[i]
		if isComponentUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0f])
	}
	return b.String()
}

func isComponentUnreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	return strings.IndexByte("-_.!~*'()", c) >= 0
}
