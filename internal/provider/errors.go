// Package provider implements wallet providers: an in-memory mock wallet and a websocket JSON-RPC transport for it.
package provider

import (
	"errors"
	"fmt"
)

// Standard EIP-1193 and JSON-RPC error codes.
const (
	CodeUserRejected   = 4001
	CodeUnauthorized   = 4100
	CodeParseError     = -32700
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternal       = -32603
)

// ErrClosed is returned for requests on a closed client.
var ErrClosed = errors.New("provider connection closed")

// RPCError is an error object carried in a JSON-RPC response.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// ErrUserRejected is what a wallet returns when the user dismisses a prompt.
func ErrUserRejected() *RPCError {
	return &RPCError{Code: CodeUserRejected, Message: "User rejected the request."}
}

// IsUserRejected reports whether err carries the user rejection code.
func IsUserRejected(err error) bool {
	var rpcErr *RPCError
	return errors.As(err, &rpcErr) && rpcErr.Code == CodeUserRejected
}

func toRPCError(err error) *RPCError {
	var rpcErr *RPCError
	if errors.As(err, &rpcErr) {
		return rpcErr
	}
	return &RPCError{Code: CodeInternal, Message: err.Error()}
}
