package bootstrap

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/km-arc/keel/framework/container"
)

// Scope is a child container bound to exactly one unit of work. It carries
// the work's contextual data and is never reused: create it when the work
// starts, End it when the work completes. A scope is used by a single
// goroutine; it needs no synchronization of its own beyond the container's.
type Scope struct {
	*container.Container

	id    string
	data  any
	log   *zap.Logger
	ended bool
}

// CreateScope builds a scope for one unit of work: a child of the
// application container, seeded with data under ContractRequest, the
// kernel's per-scope registrations applied, and every RequestStartup task
// run. A failure is local to this unit of work — the kernel and its other
// scopes are unaffected.
func (k *Kernel) CreateScope(data any) (*Scope, error) {
	if !k.booted {
		return nil, &container.ConfigurationError{Reason: "kernel is not booted"}
	}

	child := k.app.CreateChild()
	id := uuid.NewString()
	s := &Scope{
		Container: child,
		id:        id,
		data:      data,
		log:       k.log.With(zap.String("scope_id", id)),
	}

	if data != nil {
		if err := child.RegisterInstance(ContractRequest, data); err != nil {
			return nil, err
		}
	}
	if err := child.Apply(k.scopeRegs...); err != nil {
		return nil, err
	}

	startups, err := tasks[RequestStartup](child, ContractRequestStartup)
	if err != nil {
		return nil, err
	}
	for _, task := range startups {
		if err := task.Run(s); err != nil {
			return nil, err
		}
	}

	s.log.Debug("scope created")
	return s, nil
}

// ID returns the scope's unique identifier.
func (s *Scope) ID() string { return s.id }

// Data returns the contextual data the scope was created with.
func (s *Scope) Data() any { return s.data }

// Logger returns the scope-tagged logger.
func (s *Scope) Logger() *zap.Logger { return s.log }

// Resolve is Container.Resolve guarded against use after End.
func (s *Scope) Resolve(contract string) (any, error) {
	if s.ended {
		return nil, &container.ConfigurationError{Reason: "scope has ended"}
	}
	return s.Container.Resolve(contract)
}

// ResolveNamed is Container.ResolveNamed guarded against use after End.
func (s *Scope) ResolveNamed(contract, name string) (any, error) {
	if s.ended {
		return nil, &container.ConfigurationError{Reason: "scope has ended"}
	}
	return s.Container.ResolveNamed(contract, name)
}

// ResolveAll is Container.ResolveAll guarded against use after End.
func (s *Scope) ResolveAll(contract string, includeUnnamed bool) ([]any, error) {
	if s.ended {
		return nil, &container.ConfigurationError{Reason: "scope has ended"}
	}
	return s.Container.ResolveAll(contract, includeUnnamed)
}

// End releases the scope's instance cache. Idempotent. Per-scope instances
// die here; singletons live on the application container and survive. There
// is no per-instance teardown beyond the release — a cancelled unit of work
// just ends its scope early.
func (s *Scope) End() {
	if s.ended {
		return
	}
	s.ended = true
	s.Container.Release()
	s.log.Debug("scope ended")
}

// ── HTTP integration ──────────────────────────────────────────────────────────

type scopeCtxKey struct{}

// Middleware creates one scope per inbound request, with the request as the
// scope's contextual data, and ends it when the handler returns. The scope
// travels in the request context; retrieve it with ScopeFrom.
func (k *Kernel) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, err := k.CreateScope(r)
		if err != nil {
			k.log.Error("scope creation failed", zap.Error(err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		defer s.End()

		ctx := context.WithValue(r.Context(), scopeCtxKey{}, s)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ScopeFrom returns the scope stored in the context by Middleware, or nil.
func ScopeFrom(ctx context.Context) *Scope {
	s, _ := ctx.Value(scopeCtxKey{}).(*Scope)
	return s
}
