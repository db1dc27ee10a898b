package container

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
)

// Factory builds a concrete value from the container. The container passed in
// is a resolution handle: nested Resolve calls made through it participate in
// circular-dependency detection for the current resolution chain.
type Factory func(c *Container) (any, error)

// buildState tracks memoized construction of one binding. A binding starts
// unbuilt, is building while exactly one goroutine runs its factory, and is
// built once the factory succeeds. A failed factory returns the binding to
// unbuilt so a later resolve retries.
type buildState int

const (
	stateUnbuilt buildState = iota
	stateBuilding
	stateBuilt
)

// binding holds one registered implementation for a contract, plus the
// memoized instance for Singleton and PerScope lifetimes. The instance lives
// on the binding itself, so it is owned by the container the binding was
// registered on: the root for application bindings, the scope for per-scope
// ones. state, done and value are guarded by the tree's buildGroup.
type binding struct {
	name     string
	lifetime Lifetime
	factory  Factory

	state buildState
	done  chan struct{} // non-nil while state == stateBuilding
	value any
}

// buildGroup coordinates memoized construction across every goroutine and
// scope of one container tree. State transitions happen under its lock;
// factories run unlocked, so unrelated constructions never serialize on each
// other. waits records, per contract under construction, the contract its
// builder is currently blocked on — the edges of a waits-for graph walked to
// report a cross-goroutine cycle instead of deadlocking on it.
type buildGroup struct {
	mu    sync.Mutex
	waits map[string]string
}

// wouldDeadlock reports whether blocking on target would close a wait cycle
// through any contract of the caller's own resolution chain. Caller holds
// g.mu.
func (g *buildGroup) wouldDeadlock(target string, chain []string) bool {
	seen := make(map[string]bool)
	for cur := target; ; {
		for _, active := range chain {
			if active == cur {
				return true
			}
		}
		next, ok := g.waits[cur]
		if !ok || seen[cur] {
			return false
		}
		seen[cur] = true
		cur = next
	}
}

// Container is a registry node mapping contracts to ordered binding lists.
// A child container delegates lookups it cannot satisfy locally to its parent
// chain; the parent outlives its children and never sees their bindings.
//
// The application-level container is built during single-threaded startup and
// is then read concurrently by many units of work. Concurrent Resolve calls
// are safe; construction of a given Singleton runs exactly once while other
// resolvers wait for it, and a wait that would close a dependency cycle fails
// with CircularDependencyError instead of blocking. Calling Register after
// the container has begun serving units of work is a precondition violation
// and is not guarded at runtime.
type Container struct {
	parent *Container

	mu       *sync.RWMutex
	bindings map[string][]*binding
	sealed   map[string]struct{}
	builds   *buildGroup

	// building is the list of contracts under construction in the current
	// resolution chain. User-facing handles carry an empty list; each factory
	// invocation receives a derived handle with its contract appended.
	building []string
}

// New creates an empty root container.
func New() *Container {
	return &Container{
		mu:       &sync.RWMutex{},
		bindings: make(map[string][]*binding),
		sealed:   make(map[string]struct{}),
		builds:   &buildGroup{waits: make(map[string]string)},
	}
}

// CreateChild creates a container whose parent is c. The child inherits
// registration visibility only — no instance cache is copied. Singletons
// resolved through the child are still memoized on the binding's owning
// container and therefore shared with every other descendant.
func (c *Container) CreateChild() *Container {
	return &Container{
		parent:   c,
		mu:       &sync.RWMutex{},
		bindings: make(map[string][]*binding),
		sealed:   make(map[string]struct{}),
		builds:   c.builds,
	}
}

// Parent returns the parent container, or nil for a root.
func (c *Container) Parent() *Container { return c.parent }

// ── Registration ──────────────────────────────────────────────────────────────

// Register binds a contract to a single factory. Re-registering a contract
// replaces every prior binding for it, named or not — last write wins. This
// is intentional and differs from RegisterMultiple, which rebinds the whole
// implementation list; call sites rely on the distinction.
func (c *Container) Register(contract string, factory Factory, lifetime Lifetime) error {
	if err := c.checkWrite(contract, lifetime); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bindings[contract] = []*binding{{lifetime: lifetime, factory: factory}}
	return nil
}

// RegisterNamed binds a contract under a string discriminator. A binding with
// the same name is replaced in place; otherwise the binding is appended after
// the existing ones.
func (c *Container) RegisterNamed(contract, name string, factory Factory, lifetime Lifetime) error {
	if err := c.checkWrite(contract, lifetime); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	nb := &binding{name: name, lifetime: lifetime, factory: factory}
	for i, b := range c.bindings[contract] {
		if b.name == name {
			c.bindings[contract][i] = nb
			return nil
		}
	}
	c.bindings[contract] = append(c.bindings[contract], nb)
	return nil
}

// RegisterMultiple binds a contract to an ordered list of implementations,
// replacing any prior bindings. ResolveAll returns them in this order;
// Resolve returns the first one (deterministic, see Resolve).
func (c *Container) RegisterMultiple(contract string, factories []Factory, lifetime Lifetime) error {
	if err := c.checkWrite(contract, lifetime); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	bs := make([]*binding, 0, len(factories))
	for _, f := range factories {
		bs = append(bs, &binding{lifetime: lifetime, factory: f})
	}
	c.bindings[contract] = bs
	return nil
}

// RegisterInstance binds a pre-built value. Instance bindings always have
// Singleton semantics.
func (c *Container) RegisterInstance(contract string, value any) error {
	if err := c.checkWrite(contract, Singleton); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bindings[contract] = []*binding{{lifetime: Singleton, state: stateBuilt, value: value}}
	return nil
}

// Seal marks a contract as not overridable on c and every descendant.
// Registration attempts against a sealed contract fail with a
// ConfigurationError. Used for the kernel's meta-registrations.
func (c *Container) Seal(contract string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sealed[contract] = struct{}{}
}

// Forget removes every binding for a contract from this container only.
// Parent bindings become visible again.
func (c *Container) Forget(contract string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.bindings, contract)
}

// Release drops every local binding together with its memoized instances.
// Called when a scope's unit of work ends; the container must not be used
// afterwards.
func (c *Container) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bindings = make(map[string][]*binding)
}

// checkWrite validates a registration against the lifetime rules and the
// sealed set of the whole chain.
func (c *Container) checkWrite(contract string, lifetime Lifetime) error {
	if !lifetime.valid() {
		return &LifetimeRangeError{Lifetime: lifetime}
	}
	if lifetime == PerScope && c.parent == nil {
		return &ConfigurationError{
			Reason: fmt.Sprintf("contract %q: per-scope lifetime is only legal inside a scope", contract),
		}
	}
	for n := c; n != nil; n = n.parent {
		n.mu.RLock()
		_, isSealed := n.sealed[contract]
		n.mu.RUnlock()
		if isSealed {
			return &ConfigurationError{Reason: fmt.Sprintf("contract %q is sealed", contract)}
		}
	}
	return nil
}

// ── Resolution ────────────────────────────────────────────────────────────────

// Resolve returns an instance for the contract, walking the parent chain if
// it is not bound locally. For a multi-bound contract the FIRST registered
// implementation is returned, so callers needing a single instance of a
// multi-bound contract get a stable pick. A missing binding, or a failure
// while constructing the implementation or one of its dependencies, yields a
// NotRegisteredError (the inner cause is chained).
func (c *Container) Resolve(contract string) (any, error) {
	b := c.lookup(contract, func(*binding) bool { return true })
	if b == nil {
		return nil, &NotRegisteredError{Contract: contract}
	}
	return c.build(contract, b)
}

// ResolveNamed returns the instance bound under the given discriminator.
func (c *Container) ResolveNamed(contract, name string) (any, error) {
	b := c.lookup(contract, func(b *binding) bool { return b.name == name })
	if b == nil {
		return nil, &NotRegisteredError{Contract: contract, Name: name}
	}
	v, err := c.build(contract, b)
	if err != nil {
		var nr *NotRegisteredError
		if errors.As(err, &nr) && nr.Contract == contract {
			nr.Name = name
		}
		return nil, err
	}
	return v, nil
}

// ResolveAll returns every implementation registered for the contract found
// by walking the chain, local bindings first, each level in registration
// order. Named bindings are always included; unnamed ones only when
// includeUnnamed is true. Zero matches is not an error — an empty slice is
// returned, unlike Resolve.
func (c *Container) ResolveAll(contract string, includeUnnamed bool) ([]any, error) {
	var out []any
	for n := c; n != nil; n = n.parent {
		n.mu.RLock()
		bs := append([]*binding(nil), n.bindings[contract]...)
		n.mu.RUnlock()
		for _, b := range bs {
			if b.name == "" && !includeUnnamed {
				continue
			}
			v, err := c.build(contract, b)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
	}
	return out, nil
}

// lookup finds the first binding for the contract accepted by match, walking
// self then the parent chain.
func (c *Container) lookup(contract string, match func(*binding) bool) *binding {
	for n := c; n != nil; n = n.parent {
		n.mu.RLock()
		bs := n.bindings[contract]
		var found *binding
		for _, b := range bs {
			if match(b) {
				found = b
				break
			}
		}
		n.mu.RUnlock()
		if found != nil {
			return found
		}
	}
	return nil
}

// build enforces the lifetime policy for one binding. Construction of
// Singleton and PerScope instances is lazy and memoized on the binding;
// Transient construction is never cached. Re-entrant construction of a
// contract already in the chain fails fast instead of recursing.
func (c *Container) build(contract string, b *binding) (any, error) {
	for _, active := range c.building {
		if active == contract {
			chain := make([]string, len(c.building), len(c.building)+1)
			copy(chain, c.building)
			return nil, &CircularDependencyError{Chain: append(chain, contract)}
		}
	}

	switch b.lifetime {
	case Transient:
		v, err := b.factory(c.derive(contract))
		if err != nil {
			return nil, &NotRegisteredError{Contract: contract, Cause: err}
		}
		return v, nil

	case Singleton, PerScope:
		return c.memoize(contract, b)
	}
	return nil, &LifetimeRangeError{Lifetime: b.lifetime}
}

// memoize returns the binding's cached instance, building it if needed.
// Exactly one goroutine runs the factory, unlocked; concurrent resolvers of
// the same binding wait for it. Before waiting, the waits-for graph is
// checked: a resolver whose own chain would be reached through the builders
// it is about to wait behind reports the cycle instead of joining it, which
// keeps a dependency cycle an error of the resolutions involved rather than a
// wedge for the whole tree.
func (c *Container) memoize(contract string, b *binding) (any, error) {
	g := c.builds
	for {
		g.mu.Lock()
		switch b.state {
		case stateBuilt:
			v := b.value
			g.mu.Unlock()
			return v, nil

		case stateUnbuilt:
			b.state = stateBuilding
			b.done = make(chan struct{})
			g.mu.Unlock()

			v, err := b.factory(c.derive(contract))

			g.mu.Lock()
			if err != nil {
				b.state = stateUnbuilt
			} else {
				b.state = stateBuilt
				b.value = v
			}
			close(b.done)
			b.done = nil
			g.mu.Unlock()

			if err != nil {
				return nil, &NotRegisteredError{Contract: contract, Cause: err}
			}
			return v, nil

		case stateBuilding:
			if g.wouldDeadlock(contract, c.building) {
				chain := make([]string, len(c.building), len(c.building)+1)
				copy(chain, c.building)
				g.mu.Unlock()
				return nil, &CircularDependencyError{Chain: append(chain, contract)}
			}
			done := b.done
			var mine string
			if n := len(c.building); n > 0 {
				mine = c.building[n-1]
				g.waits[mine] = contract
			}
			g.mu.Unlock()

			<-done
			if mine != "" {
				g.mu.Lock()
				delete(g.waits, mine)
				g.mu.Unlock()
			}
			// Re-examine: the builder either finished or failed and reset.
		}
	}
}

// derive returns the resolution handle handed to a factory: same container,
// with contract appended to the in-flight chain.
func (c *Container) derive(contract string) *Container {
	chain := make([]string, len(c.building), len(c.building)+1)
	copy(chain, c.building)
	return &Container{
		parent:   c.parent,
		mu:       c.mu,
		bindings: c.bindings,
		sealed:   c.sealed,
		builds:   c.builds,
		building: append(chain, contract),
	}
}

// ── Generic helpers ───────────────────────────────────────────────────────────

// Resolve is a generic helper that resolves a contract and type-asserts the
// result.
//
//	greeter, err := container.Resolve[Greeter](c, "greeter")
func Resolve[T any](c *Container, contract string) (T, error) {
	var zero T
	v, err := c.Resolve(contract)
	if err != nil {
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		return zero, &NotRegisteredError{
			Contract: contract,
			Cause:    fmt.Errorf("resolved to %T, want %s", v, reflect.TypeOf(&zero).Elem()),
		}
	}
	return typed, nil
}

// ResolveNamed is the generic counterpart of Container.ResolveNamed.
func ResolveNamed[T any](c *Container, contract, name string) (T, error) {
	var zero T
	v, err := c.ResolveNamed(contract, name)
	if err != nil {
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		return zero, &NotRegisteredError{
			Contract: contract,
			Name:     name,
			Cause:    fmt.Errorf("resolved to %T, want %s", v, reflect.TypeOf(&zero).Elem()),
		}
	}
	return typed, nil
}

// All resolves every implementation of a contract and keeps those of type T.
func All[T any](c *Container, contract string, includeUnnamed bool) ([]T, error) {
	vs, err := c.ResolveAll(contract, includeUnnamed)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(vs))
	for _, v := range vs {
		if typed, ok := v.(T); ok {
			out = append(out, typed)
		}
	}
	return out, nil
}

// MustResolve is like Resolve but panics on failure. For wiring code that
// cannot meaningfully recover, such as request handlers behind a booted
// kernel.
func MustResolve[T any](c *Container, contract string) T {
	v, err := Resolve[T](c, contract)
	if err != nil {
		panic(err)
	}
	return v
}

// TypeKey returns the package-qualified type name of v, useful as a stable
// contract key when working with interfaces.
//
//	key := container.TypeKey((*Greeter)(nil)) // "main.Greeter"
func TypeKey(v any) string {
	t := reflect.TypeOf(v)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.PkgPath() + "." + t.Name()
}
