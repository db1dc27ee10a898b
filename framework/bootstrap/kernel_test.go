package bootstrap_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/km-arc/keel/framework/bootstrap"
	"github.com/km-arc/keel/framework/config"
	"github.com/km-arc/keel/framework/container"
	"github.com/km-arc/keel/framework/discovery"
)

// ── stub tasks ───────────────────────────────────────────────────────────────

type startupTask struct {
	runs int
	fail error
}

func (s *startupTask) Run(context.Context) error {
	s.runs++
	return s.fail
}

type contributorTask struct {
	regs []container.Registration
}

func (c *contributorTask) Contribute() []container.Registration { return c.regs }

func newKernel(opts ...bootstrap.Option) *bootstrap.Kernel {
	base := []bootstrap.Option{
		bootstrap.WithConfig(&config.Config{}),
		bootstrap.WithLogger(zap.NewNop()),
	}
	return bootstrap.New(append(base, opts...)...)
}

// ── Boot ─────────────────────────────────────────────────────────────────────

func TestBoot_RunsStartupTasksExactlyOnce(t *testing.T) {
	t.Parallel()

	task := &startupTask{}
	k := newKernel(bootstrap.WithRegistrations(
		container.NewInstanceRegistration(bootstrap.ContractStartup, task),
	))

	require.NoError(t, k.Boot(context.Background()))
	require.NoError(t, k.Boot(context.Background())) // idempotent

	assert.Equal(t, 1, task.runs)
	assert.True(t, k.Booted())
}

func TestBoot_StartupFailureAbortsBoot(t *testing.T) {
	t.Parallel()

	task := &startupTask{fail: errors.New("no database")}
	k := newKernel(bootstrap.WithRegistrations(
		container.NewInstanceRegistration(bootstrap.ContractStartup, task),
	))

	err := k.Boot(context.Background())
	require.Error(t, err)
	assert.False(t, k.Booted(), "no partial startup")
}

func TestBoot_AppliesExternalRegistrations(t *testing.T) {
	t.Parallel()

	k := newKernel(bootstrap.WithRegistrations(
		container.NewInstanceRegistration("svc", "value"),
	))
	require.NoError(t, k.Boot(context.Background()))

	v, err := k.App().Resolve("svc")
	require.NoError(t, err)
	assert.Equal(t, "value", v)
}

func TestBoot_PerScopeRegistrationAtApplicationLevelFails(t *testing.T) {
	t.Parallel()

	k := newKernel(bootstrap.WithRegistrations(
		container.NewRegistration("svc", func(*container.Container) (any, error) {
			return "v", nil
		}, container.PerScope),
	))

	err := k.Boot(context.Background())
	var cfgErr *container.ConfigurationError
	require.ErrorAs(t, err, &cfgErr, "per-scope bindings are only legal at scope creation")
}

func TestBoot_RegistrationTasksContribute(t *testing.T) {
	t.Parallel()

	task := &contributorTask{regs: []container.Registration{
		container.NewInstanceRegistration("contributed", 42),
	}}
	k := newKernel(bootstrap.WithRegistrations(
		container.NewInstanceRegistration(bootstrap.ContractRegistrations, task),
	))
	require.NoError(t, k.Boot(context.Background()))

	v, err := k.App().Resolve("contributed")
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestBoot_RunsDiscoveryEngine(t *testing.T) {
	t.Parallel()

	src := &discovery.Source{Name: "app"}
	src.Add("svc", "", func(*container.Container) (any, error) { return "discovered", nil })

	k := newKernel(bootstrap.WithEngine(discovery.NewEngine(src)))
	require.NoError(t, k.Boot(context.Background()))

	v, err := k.App().Resolve("svc")
	require.NoError(t, err)
	assert.Equal(t, "discovered", v)
}

func TestBoot_MetaRegistrationsSealedAndResolvable(t *testing.T) {
	t.Parallel()

	k := newKernel()
	require.NoError(t, k.Boot(context.Background()))

	kern, err := k.App().Resolve(bootstrap.ContractKernel)
	require.NoError(t, err)
	assert.Same(t, k, kern)

	_, err = k.App().Resolve(bootstrap.ContractConfig)
	assert.NoError(t, err)
	_, err = k.App().Resolve(bootstrap.ContractLogger)
	assert.NoError(t, err)

	err = k.App().RegisterInstance(bootstrap.ContractKernel, "impostor")
	var cfgErr *container.ConfigurationError
	assert.ErrorAs(t, err, &cfgErr, "meta registrations are sealed")
}

func TestBoot_ContributedOverrideOfSealedContractFailsBoot(t *testing.T) {
	t.Parallel()

	task := &contributorTask{regs: []container.Registration{
		container.NewInstanceRegistration(bootstrap.ContractLogger, "impostor"),
	}}
	k := newKernel(bootstrap.WithRegistrations(
		container.NewInstanceRegistration(bootstrap.ContractRegistrations, task),
	))

	err := k.Boot(context.Background())
	require.Error(t, err)
	assert.False(t, k.Booted())
}

func TestBoot_WrongTypeTaskIsConfigurationDefect(t *testing.T) {
	t.Parallel()

	k := newKernel(bootstrap.WithRegistrations(
		container.NewInstanceRegistration(bootstrap.ContractStartup, "not a task"),
	))

	err := k.Boot(context.Background())
	var cfgErr *container.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
}

// ── GetAll ───────────────────────────────────────────────────────────────────

func TestGetAll_BeforeBootFails(t *testing.T) {
	t.Parallel()

	k := newKernel()
	_, err := k.GetAll("svc")
	var cfgErr *container.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
}

func TestGetAll_EnumeratesImplementations(t *testing.T) {
	t.Parallel()

	k := newKernel(bootstrap.WithRegistrations(
		container.NewMultiRegistration("svc", container.Transient,
			func(*container.Container) (any, error) { return "a", nil },
			func(*container.Container) (any, error) { return "b", nil },
		),
	))
	require.NoError(t, k.Boot(context.Background()))

	all, err := k.GetAll("svc")
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "b"}, all)

	none, err := k.GetAll("absent")
	require.NoError(t, err)
	assert.Empty(t, none)
}
