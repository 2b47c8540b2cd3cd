package errors

import (
	"fmt"
	"strings"
)

// Classification says whether a failure is worth retrying.
type Classification int

const (
	// NonRetryable - permanent failures that retrying cannot fix
	NonRetryable Classification = iota
	// Retryable - transient failures that may succeed on a later attempt
	Retryable
)

func (c Classification) String() string {
	switch c {
	case Retryable:
		return "RETRYABLE"
	case NonRetryable:
		return "NON_RETRYABLE"
	default:
		return "UNKNOWN"
	}
}

// HTTPError represents a failed HTTP exchange with an external service.
// Transport adapters construct it so the classifier can dispatch on status.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http %d: %s", e.StatusCode, e.Message)
}

// ClassifierRule maps a failure predicate to a classification and a
// normalized error-type tag used for monitoring.
type ClassifierRule struct {
	Name  string
	Match func(err error) bool
	Class Classification
	Tag   string
}

// Classifier decides whether a failure is retryable and normalizes it into
// an error-type tag. Rules are evaluated in order, first match wins;
// unrecognized failures classify as NonRetryable (fail closed).
type Classifier struct {
	rules []ClassifierRule
}

// NewClassifier creates a classifier with the given rule table.
func NewClassifier(rules []ClassifierRule) *Classifier {
	return &Classifier{rules: rules}
}

// DefaultClassifier returns a classifier covering web3, IPFS and generic
// HTTP failure domains.
func DefaultClassifier() *Classifier {
	return NewClassifier(DefaultRules())
}

// AddRule prepends a rule so domain-specific classifications take
// precedence over the defaults.
func (c *Classifier) AddRule(rule ClassifierRule) {
	c.rules = append([]ClassifierRule{rule}, c.rules...)
}

// Classify maps err to a classification and error-type tag.
func (c *Classifier) Classify(err error) (Classification, string) {
	if err == nil {
		return NonRetryable, ""
	}

	for _, rule := range c.rules {
		if rule.Match(err) {
			return rule.Class, rule.Tag
		}
	}

	return NonRetryable, "unknown"
}

// IsRetryable is a convenience wrapper over Classify.
func (c *Classifier) IsRetryable(err error) bool {
	class, _ := c.Classify(err)
	return class == Retryable
}

// DefaultRules returns the default classification table. Message patterns
// come first so a specific failure text wins over its carrier type.
func DefaultRules() []ClassifierRule {
	return []ClassifierRule{
		{
			Name:  "insufficient_funds",
			Match: messageContains("insufficient funds"),
			Class: NonRetryable,
			Tag:   "insufficient_funds",
		},
		{
			Name:  "nonce_too_low",
			Match: messageContains("nonce too low"),
			Class: Retryable,
			Tag:   "nonce_too_low",
		},
		{
			Name:  "gas",
			Match: messageContains("gas"),
			Class: Retryable,
			Tag:   "gas",
		},
		{
			Name: "network",
			Match: func(err error) bool {
				return messageContains("network")(err) || messageContains("connection")(err)
			},
			Class: Retryable,
			Tag:   "network",
		},
		{
			Name:  "rate_limit_message",
			Match: messageContains("rate limit"),
			Class: Retryable,
			Tag:   "rate_limited",
		},
		{
			Name:  "http_rate_limited",
			Match: httpStatus(func(code int) bool { return code == 429 }),
			Class: Retryable,
			Tag:   "rate_limited",
		},
		{
			Name:  "http_server_error",
			Match: httpStatus(func(code int) bool { return code >= 500 }),
			Class: Retryable,
			Tag:   "server_error",
		},
		{
			Name:  "http_auth_failed",
			Match: httpStatus(func(code int) bool { return code == 401 }),
			Class: NonRetryable,
			Tag:   "auth_failed",
		},
		{
			Name:  "http_payload_too_large",
			Match: httpStatus(func(code int) bool { return code == 413 }),
			Class: NonRetryable,
			Tag:   "payload_too_large",
		},
		{
			Name:  "http_client_error",
			Match: httpStatus(func(code int) bool { return code >= 400 && code < 500 }),
			Class: NonRetryable,
			Tag:   "client_error",
		},
		{
			Name:  "app_timeout",
			Match: appErrorType(ErrorTypeTimeout),
			Class: Retryable,
			Tag:   "timeout",
		},
		{
			Name:  "app_external",
			Match: appErrorType(ErrorTypeExternal),
			Class: Retryable,
			Tag:   "external",
		},
		{
			Name:  "app_rate_limit",
			Match: appErrorType(ErrorTypeRateLimit),
			Class: Retryable,
			Tag:   "rate_limited",
		},
		{
			Name:  "app_validation",
			Match: appErrorType(ErrorTypeValidation),
			Class: NonRetryable,
			Tag:   "validation",
		},
		{
			Name: "app_auth",
			Match: func(err error) bool {
				return appErrorType(ErrorTypeAuthentication)(err) ||
					appErrorType(ErrorTypeAuthorization)(err)
			},
			Class: NonRetryable,
			Tag:   "auth_failed",
		},
		{
			Name:  "app_not_found",
			Match: appErrorType(ErrorTypeNotFound),
			Class: NonRetryable,
			Tag:   "not_found",
		},
		{
			Name:  "app_circuit_open",
			Match: appErrorType(ErrorTypeCircuitOpen),
			Class: NonRetryable,
			Tag:   "circuit_open",
		},
	}
}

func messageContains(substr string) func(error) bool {
	return func(err error) bool {
		return strings.Contains(strings.ToLower(err.Error()), substr)
	}
}

func httpStatus(match func(code int) bool) func(error) bool {
	return func(err error) bool {
		httpErr, ok := err.(*HTTPError)
		if !ok {
			return false
		}
		return match(httpErr.StatusCode)
	}
}

func appErrorType(errorType ErrorType) func(error) bool {
	return func(err error) bool {
		return IsType(err, errorType)
	}
}
