// Package bootstrap wires the keel framework together: it owns the
// application-level container, runs auto-discovery and the startup task
// phases, and creates one child scope per unit of work.
//
// # Lifecycle
//
//	engine := discovery.NewEngine(&appSource)
//	engine.Exclude(discovery.DefaultExclusions()...)
//
//	kernel := bootstrap.New(
//	    bootstrap.WithEngine(engine),
//	    bootstrap.WithScopeRegistrations(
//	        container.NewRegistration("shop.cart", newCart, container.PerScope),
//	    ),
//	)
//	if err := kernel.Boot(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// Per unit of work:
//
//	scope, err := kernel.CreateScope(req)
//	defer scope.End()
//	handler, err := container.Resolve[Handler](scope.Container, "shop.handler")
//
// For HTTP servers, Kernel.Middleware does the scope dance per request:
//
//	r := chi.NewRouter()
//	r.Use(kernel.Middleware)
//	r.Get("/cart", func(w http.ResponseWriter, req *http.Request) {
//	    scope := bootstrap.ScopeFrom(req.Context())
//	    ...
//	})
//
// Startup hooks bind against the well-known contracts: ApplicationStartup
// runs once at boot, Registrations contributes bindings at boot, and
// RequestStartup runs on every new scope.
package bootstrap
