package connect

import (
	"context"

	"connectrpc.com/connect"

	"github.com/osa030/fitbox/internal/infra/config"
)

// APITokenHeader is the header name for the API token.
const APITokenHeader = "X-Api-Token"

// NewTokenInterceptor creates an interceptor that checks the API token
// on every unary call.
func NewTokenInterceptor(cfg *config.Config) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			token := req.Header().Get(APITokenHeader)
			if token == "" {
				return nil, connect.NewError(connect.CodeUnauthenticated, nil)
			}
			if token != cfg.Server.Token {
				return nil, connect.NewError(connect.CodeUnauthenticated, nil)
			}
			return next(ctx, req)
		}
	}
}

// NewTokenClientInterceptor attaches token to every outgoing unary call.
func NewTokenClientInterceptor(token string) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if req.Spec().IsClient {
				req.Header().Set(APITokenHeader, token)
			}
			return next(ctx, req)
		}
	}
}
