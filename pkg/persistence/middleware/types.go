// Package middleware provides composable StateStore wrappers: behavior that
// applies to any backend, such as at-rest encryption.
package middleware

import "github.com/parleykit/parley/pkg/ports"

// Middleware allows wrapping a StateStore to add behavior.
type Middleware func(ports.StateStore) ports.StateStore

// Chain composes middlewares so the first listed is the outermost wrapper.
func Chain(mws ...Middleware) Middleware {
	return func(next ports.StateStore) ports.StateStore {
		for i := len(mws) - 1; i >= 0; i-- {
			next = mws[i](next)
		}
		return next
	}
}
