// Package connect provides the Connect RPC remote-control service.
package connect

import (
	"context"
	"crypto/subtle"

	"connectrpc.com/connect"
)

const (
	// ControlTokenHeader is the header name for the control token.
	ControlTokenHeader = "X-Control-Token"
)

// NewControlTokenInterceptor creates an interceptor that validates the control token
// for mutating procedures. An empty token disables the check.
func NewControlTokenInterceptor(token string) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if token == "" || isReadOnly(req.Spec().Procedure) {
				return next(ctx, req)
			}

			got := req.Header().Get(ControlTokenHeader)
			if got == "" {
				return nil, connect.NewError(connect.CodeUnauthenticated, nil)
			}
			if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				return nil, connect.NewError(connect.CodeUnauthenticated, nil)
			}

			return next(ctx, req)
		}
	}
}
