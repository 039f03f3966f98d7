package opsapi

import (
	"encoding/json"

	"github.com/fivetwenty-io/opsapi-client/pkg/status"
	"google.golang.org/grpc/codes"
)

// Operation is a server-tracked long-running job. The name is an opaque
// resource identifier assigned by the server when the operation is created.
// Error and Response are meaningful only once Done is true, and at most one
// of them is set.
type Operation struct {
	Name     string          `json:"name"               yaml:"name"`
	Metadata json.RawMessage `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	Done     bool            `json:"done"               yaml:"done"`
	Error    *OperationError `json:"error,omitempty"    yaml:"error,omitempty"`
	Response json.RawMessage `json:"response,omitempty" yaml:"response,omitempty"`
}

// OperationError is the error payload embedded in a failed operation,
// mirroring google.rpc.Status.
type OperationError struct {
	Code    int32             `json:"code"              yaml:"code"`
	Message string            `json:"message"           yaml:"message"`
	Details []json.RawMessage `json:"details,omitempty" yaml:"details,omitempty"`
}

// Err returns the operation's embedded failure as a status error, or nil if
// the operation has not failed (including when it is still running). This is
// distinct from a transport or polling failure: Err reflects the outcome of
// the server-side job itself.
func (o *Operation) Err() error {
	if o == nil || !o.Done || o.Error == nil {
		return nil
	}

	st := status.New(codes.Code(o.Error.Code), o.Error.Message)
	if st == nil {
		// A done operation carrying an explicit OK error payload still
		// counts as a success.
		return nil
	}

	return st
}

// OperationList is one page of operations.
type OperationList struct {
	Operations    []Operation `json:"operations"               yaml:"operations"`
	NextPageToken string      `json:"nextPageToken,omitempty"  yaml:"nextPageToken,omitempty"`
}

// GetOperationRequest identifies the operation to fetch.
type GetOperationRequest struct {
	Name string `json:"name"`
}

// CancelOperationRequest asks the server to cancel a running operation.
// Cancellation is best-effort; the operation may still complete.
type CancelOperationRequest struct {
	Name string `json:"name"`
}

// DeleteOperationRequest removes a terminal operation record.
type DeleteOperationRequest struct {
	Name string `json:"name"`
}

// ListOperationsOptions carries the standard list parameters.
type ListOperationsOptions struct {
	Filter    string
	PageSize  int
	PageToken string
}

// Info describes the server, as reported by its root endpoint.
type Info struct {
	Name       string `json:"name"        yaml:"name"`
	Version    string `json:"version"     yaml:"version"`
	APIVersion string `json:"api_version" yaml:"api_version"`
}
