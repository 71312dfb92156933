package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

const contentTypeJSON = "application/json; charset=utf-8"

// envelope is the uniform response body every endpoint returns: a boolean
// status flag, a human message, the module heading and an optional payload.
type envelope struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Heading string `json:"heading"`
	Data    any    `json:"data"`
}

func respond(w http.ResponseWriter, heading string, code int, ok bool, message string, data any) {
	if data == nil {
		data = struct{}{}
	}
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(envelope{
		Status:  ok,
		Message: message,
		Heading: heading,
		Data:    data,
	})
}

// requiredField pairs a payload key with its decoded value for the
// required-field check.
type requiredField struct {
	name  string
	value string
}

// firstMissing returns the validation message for the first absent field, or
// empty when all are present.
func firstMissing(fields []requiredField) string {
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return fmt.Sprintf("%s not found in the object.", f.name)
		}
	}
	return ""
}

func decodeJSON(r *http.Request, dst any) error {
	defer func() { _ = r.Body.Close() }()
	return json.NewDecoder(r.Body).Decode(dst)
}

// clientIP resolves the originating address for audit events, preferring the
// forwarding header a fronting proxy sets.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if idx := strings.IndexByte(fwd, ','); idx >= 0 {
			return strings.TrimSpace(fwd[:idx])
		}
		return strings.TrimSpace(fwd)
	}
	host := r.RemoteAddr
	if idx := strings.LastIndexByte(host, ':'); idx >= 0 {
		host = host[:idx]
	}
	return host
}
