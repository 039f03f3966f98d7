// Package status provides the error model shared by all opsapi clients: a
// code drawn from the canonical RPC code space, a human-readable message,
// and string key/value metadata used to carry diagnostic context such as
// why a retry loop gave up.
package status

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"google.golang.org/grpc/codes"
)

// Status describes the outcome of an operation. A nil *Status means success.
// Values are immutable once constructed; WithMetadata returns a copy.
type Status struct {
	code     codes.Code
	message  string
	metadata map[string]string
}

// New creates a Status with the given code and message. New returns nil when
// code is codes.OK so that a successful Status is always the nil error.
func New(code codes.Code, message string) *Status {
	if code == codes.OK {
		return nil
	}

	return &Status{code: code, message: message}
}

// Newf creates a Status with a formatted message.
func Newf(code codes.Code, format string, args ...interface{}) *Status {
	return New(code, fmt.Sprintf(format, args...))
}

// Error implements the error interface.
func (s *Status) Error() string {
	if s == nil {
		return codes.OK.String()
	}

	if len(s.metadata) == 0 {
		return fmt.Sprintf("%s: %s", s.code, s.message)
	}

	keys := make([]string, 0, len(s.metadata))
	for k := range s.metadata {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+s.metadata[k])
	}

	return fmt.Sprintf("%s: %s [%s]", s.code, s.message, strings.Join(pairs, " "))
}

// Code returns the status code. A nil Status reports codes.OK.
func (s *Status) Code() codes.Code {
	if s == nil {
		return codes.OK
	}

	return s.code
}

// Message returns the status message.
func (s *Status) Message() string {
	if s == nil {
		return ""
	}

	return s.message
}

// Metadata returns the value stored under key, if any.
func (s *Status) Metadata(key string) (string, bool) {
	if s == nil {
		return "", false
	}

	v, ok := s.metadata[key]

	return v, ok
}

// MetadataMap returns a copy of all metadata attached to the status.
func (s *Status) MetadataMap() map[string]string {
	if s == nil || len(s.metadata) == 0 {
		return nil
	}

	out := make(map[string]string, len(s.metadata))
	for k, v := range s.metadata {
		out[k] = v
	}

	return out
}

// WithMetadata returns a copy of s with key set to value. The receiver is
// not modified.
func (s *Status) WithMetadata(key, value string) *Status {
	if s == nil {
		return nil
	}

	out := &Status{
		code:     s.code,
		message:  s.message,
		metadata: make(map[string]string, len(s.metadata)+1),
	}
	for k, v := range s.metadata {
		out.metadata[k] = v
	}

	out.metadata[key] = value

	return out
}

// FromError extracts a *Status from err. Errors that are not a *Status are
// wrapped as codes.Unknown, preserving the original message. A nil error
// yields a nil Status.
func FromError(err error) *Status {
	if err == nil {
		return nil
	}

	st := &Status{}
	if errors.As(err, &st) {
		return st
	}

	return &Status{code: codes.Unknown, message: err.Error()}
}

// Code returns the code carried by err, codes.OK for nil, and codes.Unknown
// for errors that do not carry a Status.
func Code(err error) codes.Code {
	return FromError(err).Code()
}

// IsRetryableDefault reports whether err carries a code that is safe to
// retry for any service: the server explicitly signalled a transient
// condition. Service-specific clients typically widen this set via a
// custom classifier.
func IsRetryableDefault(err error) bool {
	switch Code(err) {
	case codes.Unavailable, codes.ResourceExhausted:
		return true
	default:
		return false
	}
}
