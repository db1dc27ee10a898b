// Package container provides a hierarchical IoC container with scoped
// lifetimes for the keel bootstrap layer.
//
// # Overview
//
// A Container maps string contract keys to ordered binding lists. Each
// binding carries a Lifetime:
//
//   - Transient — a fresh instance on every Resolve
//   - Singleton — one instance per container lineage, shared with every scope
//   - PerScope  — one instance per child container, discarded with it
//
// Child containers created with CreateChild inherit registration visibility
// from their parents but keep their own bindings and instances; the bootstrap
// layer creates one child per unit of work.
//
// # Registration
//
//	c := container.New()
//
//	// Single binding — last write wins
//	c.Register("clock", func(c *container.Container) (any, error) {
//	    return clock.System(), nil
//	}, container.Singleton)
//
//	// Ordered multi-binding
//	c.RegisterMultiple("codec", []container.Factory{newJSON, newYAML}, container.Transient)
//
//	// Pre-built value
//	c.RegisterInstance("config", cfg)
//
// # Resolution
//
//	v, err := c.Resolve("clock")                 // first binding, parent chain fallback
//	vs, err := c.ResolveAll("codec", true)       // all bindings, empty slice on none
//	clk, err := container.Resolve[Clock](c, "clock")
//
// Missing bindings fail with *NotRegisteredError; construction failures chain
// the inner cause through it. A registration cycle fails fast with
// *CircularDependencyError instead of overflowing.
//
// # Scopes
//
//	scope := c.CreateChild()
//	scope.Register("tx", newTx, container.PerScope) // rejected on a root
//	defer scope.Release()
//
// Registering PerScope on a parentless container fails with
// *ConfigurationError: the lifetime only makes sense inside a scope boundary.
package container
