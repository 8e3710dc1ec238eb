// Package router maps an envelope's detail type to a typed decoder and
// handler. The table is built once at startup.
package router

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"

	"github.com/amesa-systems/amesa-notify/common/logging"
	"github.com/amesa-systems/amesa-notify/notify/internal/models"
)

// HandlerFunc handles one decoded payload.
type HandlerFunc[T any] func(ctx context.Context, env *models.Envelope, payload T) error

// DecodeFailureFunc observes payloads that could not be decoded.
type DecodeFailureFunc func(ctx context.Context, env *models.Envelope, err error)

type route struct {
	// invoke returns decoded=false with the decode error, or decoded=true
	// with the handler's result.
	invoke func(ctx context.Context, env *models.Envelope) (decoded bool, err error)
}

type Router struct {
	routes          map[string]route
	logger          *logging.Logger
	onDecodeFailure DecodeFailureFunc
}

func New(logger *logging.Logger) *Router {
	if logger == nil {
		logger = logging.Default()
	}
	return &Router{routes: make(map[string]route), logger: logger}
}

// OnDecodeFailure installs a hook called for every undecodable payload.
func (r *Router) OnDecodeFailure(fn DecodeFailureFunc) {
	r.onDecodeFailure = fn
}

// Register binds detailType to h. Registering the same type twice panics;
// the table is static and a duplicate is a programming error.
func Register[T any](r *Router, detailType string, h HandlerFunc[T]) {
	if _, exists := r.routes[detailType]; exists {
		panic(fmt.Sprintf("router: duplicate registration for %q", detailType))
	}
	r.routes[detailType] = route{
		invoke: func(ctx context.Context, env *models.Envelope) (bool, error) {
			var payload T
			if err := json.Unmarshal(env.Detail, &payload); err != nil {
				return false, err
			}
			return true, h(ctx, env, payload)
		},
	}
}

// Has reports whether detailType is registered.
func (r *Router) Has(detailType string) bool {
	_, ok := r.routes[detailType]
	return ok
}

// Types lists registered detail types, sorted.
func (r *Router) Types() []string {
	out := make([]string, 0, len(r.routes))
	for t := range r.routes {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Route decodes env.Detail and runs the registered handler. It returns
// handled=false with a nil error for unknown types and undecodable payloads;
// neither will improve on redelivery. A panicking handler is reported as an
// error.
func (r *Router) Route(ctx context.Context, env *models.Envelope) (handled bool, err error) {
	rt, ok := r.routes[env.DetailType]
	if !ok {
		r.logger.WarnContext(ctx, "unhandled event type",
			logging.DetailType(env.DetailType), logging.Source(env.Source))
		return false, nil
	}

	defer func() {
		if p := recover(); p != nil {
			r.logger.ErrorContext(ctx, "handler panicked",
				logging.DetailType(env.DetailType), slog.Any("panic", p))
			handled = false
			err = fmt.Errorf("handler %s panicked: %v", env.DetailType, p)
		}
	}()

	decoded, err := rt.invoke(ctx, env)
	if !decoded {
		r.logger.ErrorContext(ctx, "failed to decode event detail",
			logging.DetailType(env.DetailType), logging.Error(err))
		if r.onDecodeFailure != nil {
			r.onDecodeFailure(ctx, env, err)
		}
		return false, nil
	}
	return true, err
}
