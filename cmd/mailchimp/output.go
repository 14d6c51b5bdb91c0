package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/goliatone/go-mailchimp/core"
)

func writeJSON(w io.Writer, value any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	return encoder.Encode(value)
}

// errorPayload is the JSON shape of a failure. status, type and data are
// left out when the error does not carry them.
func errorPayload(err error) map[string]any {
	payload := map[string]any{"error": err.Error()}
	var reqErr *core.RequestError
	if errors.As(err, &reqErr) {
		payload["error"] = reqErr.Message
		if reqErr.HasStatus() {
			payload["status"] = reqErr.Status
		}
		if reqErr.Type != "" {
			payload["type"] = reqErr.Type
		}
		if reqErr.Body != nil {
			payload["data"] = reqErr.Body
		}
	}
	return payload
}

func writeError(w io.Writer, err error, summary bool) {
	if summary {
		message := err.Error()
		var reqErr *core.RequestError
		if errors.As(err, &reqErr) {
			message = reqErr.Message
		}
		fmt.Fprintf(w, "Mailchimp Error: %s\n", message)
		return
	}
	_ = writeJSON(w, errorPayload(err))
}
