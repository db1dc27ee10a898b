package bootstrap

import (
	"context"

	"github.com/km-arc/keel/framework/container"
)

// Well-known contract keys. The kernel resolves task implementations from
// these in bulk, so applications and discovery sources bind against them.
const (
	// ContractKernel is the kernel's own meta-registration. Sealed.
	ContractKernel = "keel.kernel"

	// ContractConfig is the application configuration. Sealed.
	ContractConfig = "keel.config"

	// ContractLogger is the framework logger. Sealed.
	ContractLogger = "keel.logger"

	// ContractRequest is the contextual data of the current unit of work,
	// bound as an instance on each scope.
	ContractRequest = "keel.request"

	// ContractStartup collects ApplicationStartup implementations.
	ContractStartup = "keel.startup"

	// ContractRequestStartup collects RequestStartup implementations.
	ContractRequestStartup = "keel.request-startup"

	// ContractRegistrations collects Registrations implementations.
	ContractRegistrations = "keel.registrations"
)

// ApplicationStartup runs exactly once during Boot, after discovery and bulk
// registration, before any scope exists. A failure aborts boot — there is no
// partial startup.
type ApplicationStartup interface {
	Run(ctx context.Context) error
}

// RequestStartup runs exactly once per created scope, after the scope has
// been seeded with its contextual data and per-scope registrations. A
// failure fails that scope only; other units of work are unaffected.
type RequestStartup interface {
	Run(s *Scope) error
}

// Registrations contributes additional bindings during Boot, after the
// startup tasks have run. Contributed records go through Container.Apply,
// so a PerScope record fails the boot.
type Registrations interface {
	Contribute() []container.Registration
}
