// CLAUDE:SUMMARY Transport-agnostic endpoint abstraction: Endpoint func type plus Middleware chaining.
package kit

import "context"

// Endpoint is the fundamental building block: a single RPC-style operation
// that takes a typed request and returns a typed response. Transports (HTTP,
// MCP) decode into the request, call the endpoint, and encode the response.
type Endpoint func(ctx context.Context, request any) (any, error)

// Middleware wraps an Endpoint with cross-cutting behaviour (logging,
// auth, metrics).
type Middleware func(Endpoint) Endpoint

// Chain composes middlewares so the first argument is the outermost:
// Chain(a, b, c)(ep) runs a → b → c → ep.
func Chain(mws ...Middleware) Middleware {
	return func(next Endpoint) Endpoint {
		for i := len(mws) - 1; i >= 0; i-- {
			next = mws[i](next)
		}
		return next
	}
}
