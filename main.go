package main

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/km-arc/keel/framework/bootstrap"
	"github.com/km-arc/keel/framework/container"
	"github.com/km-arc/keel/framework/discovery"
)

// Demo contracts.
const (
	contractGreeter = "demo.greeter"
	contractJournal = "demo.journal"
)

// Greeter is the demo contract with two discovered implementations.
type Greeter interface {
	Greet(name string) string
}

type plainGreeter struct{}

func (plainGreeter) Greet(name string) string { return "Hello, " + name + "!" }

type shoutingGreeter struct{}

func (shoutingGreeter) Greet(name string) string { return "HELLO, " + strings.ToUpper(name) + "!" }

// Journal is a per-request scratch pad: one instance per scope, gone when the
// request ends.
type Journal struct {
	entries []string
}

func (j *Journal) Note(entry string) { j.entries = append(j.entries, entry) }
func (j *Journal) Entries() []string { return j.entries }

func main() {
	// The application's own source: two greeters behind one contract.
	appSource := &discovery.Source{Name: "demo.app"}
	appSource.Add(contractGreeter, "", func(*container.Container) (any, error) {
		return plainGreeter{}, nil
	})
	appSource.Add(contractGreeter, "", func(*container.Container) (any, error) {
		return shoutingGreeter{}, nil
	})

	// A source the default platform exclusions filter out — never scanned.
	foreign := &discovery.Source{Name: "System.Foo"}
	foreign.Add(contractGreeter, "", func(*container.Container) (any, error) {
		return nil, fmt.Errorf("should never be built")
	})

	engine := discovery.NewEngine(appSource, foreign)
	engine.Exclude(discovery.DefaultExclusions()...)

	kernel := bootstrap.New(
		bootstrap.WithEngine(engine),
		bootstrap.WithScopeRegistrations(
			container.NewRegistration(contractJournal, func(*container.Container) (any, error) {
				return &Journal{}, nil
			}, container.PerScope),
		),
	)
	if err := kernel.Boot(context.Background()); err != nil {
		panic(err)
	}
	log := kernel.Logger()

	r := chi.NewRouter()
	r.Use(kernel.Middleware)

	r.Get("/greet/{name}", func(w http.ResponseWriter, req *http.Request) {
		scope := bootstrap.ScopeFrom(req.Context())
		name := chi.URLParam(req, "name")

		journal := container.MustResolve[*Journal](scope.Container, contractJournal)
		journal.Note("greeting " + name)

		greeters, err := container.All[Greeter](scope.Container, contractGreeter, true)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		for _, g := range greeters {
			fmt.Fprintln(w, g.Greet(name))
		}
		fmt.Fprintf(w, "journal: %v (scope %s)\n", journal.Entries(), scope.ID())
	})

	addr := ":" + kernel.Config().App.Port
	log.Info("listening", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, r); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}
