// Package discovery bulk-registers implementations offered by candidate
// sources into a container.
//
// A Source is a named code unit carrying self-describing Candidates: each
// candidate states the contract it fulfills and the factory that builds it.
// There is no runtime type scanning — implementations enroll themselves at
// init time, which keeps discovery statically typed.
//
//	app := discovery.Source{Name: "shop.billing"}
//	app.Add("shop.tax", "", newTaxCalculator)
//
//	engine := discovery.NewEngine(&app)
//	engine.Exclude(discovery.DefaultExclusions()...)
//	err := engine.Apply(c)
//
// Sources matched by any exclusion predicate are skipped entirely; the
// engine's own Host source bypasses the predicates by identity. Contracts
// offered by several candidates are resolved by the engine's DuplicateAction.
package discovery
