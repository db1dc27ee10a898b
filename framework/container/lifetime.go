package container

// Lifetime governs how instances of a binding are shared.
type Lifetime int

const (
	// Transient builds a fresh instance on every resolution. Never cached.
	Transient Lifetime = iota

	// Singleton builds one instance per container lineage. The instance is
	// memoized on the binding where it was registered — for application-level
	// bindings that is the root — so every descendant scope observes the same
	// instance, even when the first resolution happens inside a scope.
	Singleton

	// PerScope builds one instance per child container. Only legal on
	// containers that have a parent; sibling scopes get distinct instances
	// and the instance is discarded with its scope.
	PerScope
)

func (l Lifetime) String() string {
	switch l {
	case Transient:
		return "transient"
	case Singleton:
		return "singleton"
	case PerScope:
		return "per-scope"
	}
	return "unknown"
}

func (l Lifetime) valid() bool {
	return l == Transient || l == Singleton || l == PerScope
}
