// Package apperr defines the closed set of classified failures shared by the
// catalog, the synthesizer and both calling surfaces.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"reviewero/internal/metrics"
	"reviewero/internal/observe"
)

// Kind discriminates a classified failure.
type Kind int

const (
	KindGeneric Kind = iota
	KindInvalidCredential
	KindNotFound
	KindRateLimited
	KindContentBlocked
)

func (k Kind) String() string {
	switch k {
	case KindInvalidCredential:
		return "InvalidCredential"
	case KindNotFound:
		return "NotFound"
	case KindRateLimited:
		return "RateLimited"
	case KindContentBlocked:
		return "ContentBlocked"
	default:
		return "Generic"
	}
}

// Service names used as the Service field and in observer events.
const (
	ServiceTMDB     = "tmdb"
	ServiceOMDb     = "omdb"
	ServiceGemini   = "gemini"
	ServicePipeline = "pipeline"
)

// Error is a classified failure. Exactly one Kind per instance.
type Error struct {
	Kind    Kind
	Message string // Human readable, shown verbatim by both surfaces
	Service string // Originating service
}

func (e *Error) Error() string {
	if e == nil {
		return "unknown error"
	}
	return e.Message
}

// Is matches another *Error of the same kind, so errors.Is(err, &Error{Kind: KindNotFound}) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil {
		return false
	}
	return t.Kind == e.Kind
}

// InvalidCredential reports a missing or rejected API key.
func InvalidCredential(service string) *Error {
	return &Error{
		Kind:    KindInvalidCredential,
		Message: fmt.Sprintf("Invalid or missing %s API key. Check your configured keys.", displayName(service)),
		Service: service,
	}
}

// NotFound reports that a lookup matched nothing.
func NotFound(service, what string) *Error {
	return &Error{
		Kind:    KindNotFound,
		Message: fmt.Sprintf("%s not found on %s.", what, displayName(service)),
		Service: service,
	}
}

// RateLimited reports a quota or rate-limit rejection.
func RateLimited(service string) *Error {
	return &Error{
		Kind:    KindRateLimited,
		Message: fmt.Sprintf("%s rate limit reached. Try again later.", displayName(service)),
		Service: service,
	}
}

// ContentBlocked reports that the model returned no candidates.
func ContentBlocked(service string) *Error {
	return &Error{
		Kind:    KindContentBlocked,
		Message: fmt.Sprintf("The review was blocked by the %s safety filter.", displayName(service)),
		Service: service,
	}
}

// Generic reports any other failure.
func Generic(service, format string, args ...any) *Error {
	return &Error{
		Kind:    KindGeneric,
		Message: fmt.Sprintf(format, args...),
		Service: service,
	}
}

// FromStatus classifies a non-2xx HTTP status. context names the requested
// item (e.g. "tt0133093") and becomes the subject of NotFound messages.
func FromStatus(service string, status int, context string) *Error {
	switch status {
	case http.StatusUnauthorized:
		return InvalidCredential(service)
	case http.StatusNotFound:
		if context == "" {
			context = "Title"
		}
		return NotFound(service, context)
	case http.StatusTooManyRequests:
		return RateLimited(service)
	default:
		return Generic(service, "%s request failed with status %d.", displayName(service), status)
	}
}

var (
	credentialPatterns = []string{
		"api key not valid",
		"api_key_invalid",
		"invalid api key",
		"unauthenticated",
		"permission denied",
		"permission_denied",
	}
	quotaPatterns = []string{
		"quota",
		"rate limit",
		"rate-limit",
		"resource exhausted",
		"resource_exhausted",
		"too many requests",
		"limit reached",
	}
)

// FromProviderMessage classifies a provider fault by inspecting its message.
// Credential and quota patterns win over Generic.
func FromProviderMessage(service, msg string) *Error {
	lower := strings.ToLower(msg)
	for _, p := range credentialPatterns {
		if strings.Contains(lower, p) {
			return InvalidCredential(service)
		}
	}
	for _, p := range quotaPatterns {
		if strings.Contains(lower, p) {
			return RateLimited(service)
		}
	}
	msg = strings.TrimSpace(msg)
	if msg == "" {
		msg = "unknown error"
	}
	return Generic(service, "%s error: %s", displayName(service), msg)
}

// As extracts a classified error from err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) && e != nil {
		return e, true
	}
	return nil, false
}

// KindOf returns the kind of err, or KindGeneric when it is not classified.
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return KindGeneric
}

// Classify returns err's existing classification unchanged, or wraps it as Generic.
func Classify(service string, err error) *Error {
	if err == nil {
		return nil
	}
	if e, ok := As(err); ok {
		return e
	}
	return Generic(service, "%s error: %v", displayName(service), err)
}

// Reporter records classified errors before they are returned to a caller.
type Reporter struct {
	Observer observe.Observer
}

// Report records e with its context and returns it unchanged.
func (r Reporter) Report(e *Error, context string) *Error {
	if e == nil {
		return nil
	}
	if r.Observer != nil {
		if context != "" {
			r.Observer.Errorf(e.Service, "%s (%s): %s", e.Kind, context, e.Message)
		} else {
			r.Observer.Errorf(e.Service, "%s: %s", e.Kind, e.Message)
		}
	}
	metrics.ClassifiedErrors.WithLabelValues(e.Service, e.Kind.String()).Inc()
	return e
}

func displayName(service string) string {
	switch service {
	case ServiceTMDB:
		return "TMDB"
	case ServiceOMDb:
		return "OMDb"
	case ServiceGemini:
		return "Gemini"
	case "":
		return "Service"
	default:
		return service
	}
}
