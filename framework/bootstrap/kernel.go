package bootstrap

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/km-arc/keel/framework/config"
	"github.com/km-arc/keel/framework/container"
	"github.com/km-arc/keel/framework/discovery"
	"github.com/km-arc/keel/framework/logging"
)

// Kernel is the scope orchestrator: it builds the application-level container
// once, drives discovery and the startup task phases, and mints one child
// scope per unit of work.
type Kernel struct {
	cfg    *config.Config
	log    *zap.Logger
	engine *discovery.Engine

	appRegs   []container.Registration
	scopeRegs []container.Registration

	app    *container.Container
	booted bool
}

// Option configures a Kernel before Boot.
type Option func(*Kernel)

// WithConfig supplies a pre-loaded configuration instead of config.Load().
func WithConfig(cfg *config.Config) Option {
	return func(k *Kernel) { k.cfg = cfg }
}

// WithLogger supplies a logger instead of the one built from the config.
func WithLogger(log *zap.Logger) Option {
	return func(k *Kernel) { k.log = log }
}

// WithEngine installs the discovery engine run during Boot.
func WithEngine(engine *discovery.Engine) Option {
	return func(k *Kernel) { k.engine = engine }
}

// WithRegistrations supplies application-level bulk registrations, applied
// during Boot. A PerScope record here fails the boot: per-scope bindings are
// only legal at scope creation — use WithScopeRegistrations for those.
func WithRegistrations(regs ...container.Registration) Option {
	return func(k *Kernel) { k.appRegs = append(k.appRegs, regs...) }
}

// WithScopeRegistrations supplies registrations applied to every scope the
// kernel creates. This is where PerScope bindings belong.
func WithScopeRegistrations(regs ...container.Registration) Option {
	return func(k *Kernel) { k.scopeRegs = append(k.scopeRegs, regs...) }
}

// New creates an unbooted kernel.
func New(opts ...Option) *Kernel {
	k := &Kernel{}
	for _, opt := range opts {
		opt(k)
	}
	if k.cfg == nil {
		k.cfg = config.Load()
	}
	if k.log == nil {
		k.log = logging.New(k.cfg)
	}
	return k
}

// Boot initializes the application container. It runs exactly once; further
// calls are no-ops. The phases, in order: build the container, run
// discovery, seal the meta-registrations, apply external registrations, run
// every ApplicationStartup task, apply every Registrations contribution. Any
// failure aborts boot — the kernel never starts half-initialized.
//
// Boot is single-threaded. After it returns, the application container is
// read-only; registering on it while scopes are being served is a
// precondition violation.
func (k *Kernel) Boot(ctx context.Context) error {
	if k.booted {
		return nil
	}

	k.app = container.New()

	if k.engine != nil {
		if err := k.engine.Apply(k.app); err != nil {
			return fmt.Errorf("bootstrap: discovery failed: %w", err)
		}
	}

	if err := k.registerMeta(); err != nil {
		return err
	}

	if err := k.app.Apply(k.appRegs...); err != nil {
		return fmt.Errorf("bootstrap: applying registrations: %w", err)
	}

	startups, err := tasks[ApplicationStartup](k.app, ContractStartup)
	if err != nil {
		return err
	}
	for _, task := range startups {
		if err := task.Run(ctx); err != nil {
			return fmt.Errorf("bootstrap: startup task failed: %w", err)
		}
	}

	contributors, err := tasks[Registrations](k.app, ContractRegistrations)
	if err != nil {
		return err
	}
	for _, task := range contributors {
		if err := k.app.Apply(task.Contribute()...); err != nil {
			return fmt.Errorf("bootstrap: contributed registration failed: %w", err)
		}
	}

	k.booted = true
	k.log.Info("kernel booted",
		zap.Int("startup_tasks", len(startups)),
		zap.Int("registration_tasks", len(contributors)),
	)
	return nil
}

// registerMeta binds the kernel's own meta-registrations and seals them so
// the container stays self-consistent: no later registration, discovered or
// contributed, can shadow them.
func (k *Kernel) registerMeta() error {
	meta := []struct {
		contract string
		value    any
	}{
		{ContractKernel, k},
		{ContractConfig, k.cfg},
		{ContractLogger, k.log},
	}
	for _, m := range meta {
		if err := k.app.RegisterInstance(m.contract, m.value); err != nil {
			return fmt.Errorf("bootstrap: meta registration %q: %w", m.contract, err)
		}
		k.app.Seal(m.contract)
	}
	return nil
}

// Booted reports whether Boot has completed.
func (k *Kernel) Booted() bool { return k.booted }

// App returns the application-level container. Nil before Boot.
func (k *Kernel) App() *container.Container { return k.app }

// Config returns the kernel's configuration.
func (k *Kernel) Config() *config.Config { return k.cfg }

// Logger returns the kernel's logger.
func (k *Kernel) Logger() *zap.Logger { return k.log }

// GetAll enumerates every implementation bound for a contract, unnamed ones
// included. It is the catalog query used by dispatch and diagnostics code
// that should not depend on how the implementations were discovered.
func (k *Kernel) GetAll(contract string) ([]any, error) {
	if !k.booted {
		return nil, &container.ConfigurationError{Reason: "kernel is not booted"}
	}
	return k.app.ResolveAll(contract, true)
}

// tasks resolves every implementation of a task contract and checks it
// against the expected interface. A binding of the wrong type is a
// configuration defect, reported rather than skipped.
func tasks[T any](c *container.Container, contract string) ([]T, error) {
	vs, err := c.ResolveAll(contract, true)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: resolving %q tasks: %w", contract, err)
	}
	out := make([]T, 0, len(vs))
	for _, v := range vs {
		typed, ok := v.(T)
		if !ok {
			return nil, &container.ConfigurationError{
				Reason: fmt.Sprintf("contract %q: %T does not implement the task interface", contract, v),
			}
		}
		out = append(out, typed)
	}
	return out, nil
}
