package container

import "fmt"

// Registration is an immutable record describing one binding: a contract, an
// implementation source, and a lifetime. Exactly one of Factory, Instance, or
// Factories must be set. Records are what Registrations tasks contribute and
// what the kernel applies in bulk.
type Registration struct {
	Contract string
	Name     string
	Lifetime Lifetime

	// Implementation source — set exactly one.
	Factory   Factory
	Instance  any
	Factories []Factory
}

// NewRegistration describes a single-factory binding.
func NewRegistration(contract string, factory Factory, lifetime Lifetime) Registration {
	return Registration{Contract: contract, Factory: factory, Lifetime: lifetime}
}

// NewNamedRegistration describes a binding under a string discriminator.
func NewNamedRegistration(contract, name string, factory Factory, lifetime Lifetime) Registration {
	return Registration{Contract: contract, Name: name, Factory: factory, Lifetime: lifetime}
}

// NewInstanceRegistration describes a pre-built value. Instance bindings are
// always singletons; the record's Lifetime is ignored.
func NewInstanceRegistration(contract string, instance any) Registration {
	return Registration{Contract: contract, Instance: instance, Lifetime: Singleton}
}

// NewMultiRegistration describes an ordered multi-binding.
func NewMultiRegistration(contract string, lifetime Lifetime, factories ...Factory) Registration {
	return Registration{Contract: contract, Factories: factories, Lifetime: lifetime}
}

func (r Registration) validate() error {
	sources := 0
	if r.Factory != nil {
		sources++
	}
	if r.Instance != nil {
		sources++
	}
	if r.Factories != nil {
		sources++
	}
	if sources != 1 {
		return &ConfigurationError{
			Reason: fmt.Sprintf("contract %q: registration needs exactly one of factory, instance, or factory list", r.Contract),
		}
	}
	return nil
}

// Apply performs bulk registration, dispatching each record on its
// implementation source. The first failing record aborts the batch; records
// before it stay applied. A PerScope record applied to a root container fails
// with a ConfigurationError, same as the direct Register call would.
func (c *Container) Apply(regs ...Registration) error {
	for _, r := range regs {
		if err := r.validate(); err != nil {
			return err
		}
		var err error
		switch {
		case r.Instance != nil:
			err = c.RegisterInstance(r.Contract, r.Instance)
		case r.Factories != nil:
			err = c.RegisterMultiple(r.Contract, r.Factories, r.Lifetime)
		case r.Name != "":
			err = c.RegisterNamed(r.Contract, r.Name, r.Factory, r.Lifetime)
		default:
			err = c.Register(r.Contract, r.Factory, r.Lifetime)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
