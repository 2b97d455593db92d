package apierror

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Kind is the closed set of failures the API can report.
// Callers switch on it instead of comparing messages.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindRouteNotFound
	KindMethodNotAllowed
	KindRateLimited
	KindUpstreamUnavailable
	KindUpstream
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindRouteNotFound:
		return "route_not_found"
	case KindMethodNotAllowed:
		return "method_not_allowed"
	case KindRateLimited:
		return "rate_limited"
	case KindUpstreamUnavailable:
		return "upstream_unavailable"
	case KindUpstream:
		return "upstream"
	default:
		return "internal"
	}
}

// Status is the HTTP status code every kind maps to.
func (k Kind) Status() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound, KindRouteNotFound:
		return http.StatusNotFound
	case KindMethodNotAllowed:
		return http.StatusMethodNotAllowed
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindUpstreamUnavailable, KindUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// APIError is both the error value propagated by services and handlers
// and the body written by the error boundary.
type APIError struct {
	Kind    Kind   `json:"-"`
	Message string `json:"error"`
	Status  int    `json:"status"`
	Details string `json:"details,omitempty"`
}

func (a *APIError) Error() string {
	if a.Details != "" {
		return fmt.Sprintf("%s (%d): %s: %s", a.Kind, a.Status, a.Message, a.Details)
	}
	return fmt.Sprintf("%s (%d): %s", a.Kind, a.Status, a.Message)
}

// Is matches on kind, so errors.Is(err, apierror.CNPJNotFoundError) holds
// for every not found error regardless of message.
func (a *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	if !ok {
		return false
	}
	return a.Kind == t.Kind
}

// WithDetails returns a copy carrying details, leaving shared values intact.
func (a *APIError) WithDetails(details string, args ...any) *APIError {
	if len(args) > 0 {
		details = fmt.Sprintf(details, args...)
	}
	cp := *a
	cp.Details = details
	return &cp
}

var (
	MalformedJSONError  = New(KindValidation, "Malformed JSON body")
	InternalServerError = New(KindInternal, "Internal server error")
	InvalidDataError    = New(KindValidation, "Invalid request data")

	CNPJNotFoundError     = New(KindNotFound, "CNPJ not found")
	RouteNotFoundError    = New(KindRouteNotFound, "Route not found")
	MethodNotAllowedError = New(KindMethodNotAllowed, "Method not allowed")
	InvalidCNPJError      = New(KindValidation, "Invalid CNPJ: must have exactly 14 digits")
	InvalidCNPJParamError = New(KindValidation, "Invalid CNPJ: expected up to 14 digits")

	/*
	 * Used for OpenCNPJ failures
	 */
	RateLimitedError         = New(KindRateLimited, "Too many requests to the CNPJ provider, try again later")
	UpstreamUnavailableError = New(KindUpstreamUnavailable, "CNPJ provider is unavailable")
	UpstreamError            = New(KindUpstream, "CNPJ provider request failed")
)

func New(kind Kind, msg string, args ...any) *APIError {
	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}
	return &APIError{Kind: kind, Status: kind.Status(), Message: msg}
}

// NewSimple builds an error from a raw status, used for statuses raised by
// echo itself.
func NewSimple(status int, msg string, args ...any) *APIError {
	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}
	return &APIError{Kind: kindForStatus(status), Status: status, Message: msg}
}

// FromValidationError converts validator failures into a single validation
// error listing every failing field. Returns nil for other errors.
func FromValidationError(err error) *APIError {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return nil
	}

	problems := make([]string, 0, len(ve))
	for _, fe := range ve {
		field := lowerFirst(fe.Field())

		var problem string
		switch fe.Tag() {
		case "required":
			problem = "this field is required"
		case "min":
			problem = "must be >= " + fe.Param()
		case "max":
			problem = "must be <= " + fe.Param()
		case "number":
			problem = "must be a positive integer"
		case "hasdigit":
			problem = "must have at least one number"
		default:
			problem = "invalid value provided"
		}
		problems = append(problems, field+": "+problem)
	}

	return InvalidDataError.WithDetails(strings.Join(problems, ", "))
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

func kindForStatus(status int) Kind {
	switch {
	case status == http.StatusNotFound:
		return KindNotFound
	case status == http.StatusMethodNotAllowed:
		return KindMethodNotAllowed
	case status == http.StatusTooManyRequests:
		return KindRateLimited
	case status == http.StatusBadGateway:
		return KindUpstream
	case status == http.StatusServiceUnavailable:
		return KindUpstreamUnavailable
	case status >= 400 && status < 500:
		return KindValidation
	default:
		return KindInternal
	}
}
