// Package problemdetails renders errors as RFC 7807 problem documents.
package problemdetails

import (
	"encoding/json"
	"net/http"
	"sort"
	"strings"

	"github.com/go-kratos/kratos/v2/errors"
)

// ContentType is the media type of a problem document.
const ContentType = "application/problem+json"

// TypeBase prefixes the problem type slug.
const TypeBase = "https://flashlink.dev/problems/"

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ProblemDetail struct {
	Type   string       `json:"type"`
	Title  string       `json:"title"`
	Status int          `json:"status"`
	Detail string       `json:"detail"`
	Reason string       `json:"reason,omitempty"`
	Errors []FieldError `json:"errors,omitempty"`
}

func New(status int, reason, detail string) *ProblemDetail {
	return &ProblemDetail{
		Type:   TypeBase + slug(reason),
		Title:  http.StatusText(status),
		Status: status,
		Detail: detail,
		Reason: reason,
	}
}

// FromError converts any error into a problem. Error metadata becomes field
// errors, sorted by field.
func FromError(err error) *ProblemDetail {
	se := errors.FromError(err)
	if se == nil {
		return nil
	}
	status := int(se.Code)
	if http.StatusText(status) == "" {
		status = http.StatusInternalServerError
	}
	p := New(status, se.Reason, se.Message)
	if status >= http.StatusInternalServerError {
		// Causes of server side failures stay in the logs.
		p.Errors = nil
		return p
	}
	for field, msg := range se.Metadata {
		p.Errors = append(p.Errors, FieldError{Field: field, Message: msg})
	}
	sort.Slice(p.Errors, func(i, j int) bool { return p.Errors[i].Field < p.Errors[j].Field })
	return p
}

// ErrorEncoder is a kratos http.EncodeErrorFunc writing problem documents.
func ErrorEncoder(w http.ResponseWriter, _ *http.Request, err error) {
	p := FromError(err)
	if p == nil {
		p = New(http.StatusInternalServerError, errors.UnknownReason, "")
	}
	w.Header().Set("Content-Type", ContentType)
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}

func slug(reason string) string {
	if reason == "" {
		return "about-blank"
	}
	return strings.ReplaceAll(strings.ToLower(reason), "_", "-")
}
