// Package demo is a small application assembled from container modules. It is booted by
// the modgraph command and exercises every kind of registration.
package demo

import (
	"fmt"
	"io"
	"reflect"
	"strings"

	injector "github.com/gburgyan/go-injector"
)

// Module names.
const (
	CoreModule  = "core"
	AuditModule = "audit"
	AppModule   = "app"
)

// Greeter builds a greeting for a name.
type Greeter interface {
	Greet(name string) string
}

type salutationGreeter struct {
	salutation  string
	punctuation string
}

func (g *salutationGreeter) Greet(name string) string {
	return g.salutation + ", " + name + g.punctuation
}

// GreeterProvider builds the "greeter" service. Configuration callables may change its
// punctuation before the greeter is first used.
type GreeterProvider struct {
	Salutation  string
	Punctuation string
}

func (p *GreeterProvider) Builder() any {
	return func() Greeter {
		return &salutationGreeter{salutation: p.Salutation, punctuation: p.Punctuation}
	}
}

// Journal records what the application did.
type Journal struct {
	Out     io.Writer `inject:"output"`
	Prefix  string    `inject:"journalPrefix"`
	entries []string
}

func (j *Journal) PostConstruct() error {
	if j.Out == nil {
		return fmt.Errorf("journal has no output")
	}
	j.entries = []string{}
	return nil
}

// Record writes line to the journal output and keeps it.
func (j *Journal) Record(line string) {
	j.entries = append(j.entries, line)
	_, _ = fmt.Fprintln(j.Out, j.Prefix+line)
}

// Entries returns every line recorded so far.
func (j *Journal) Entries() []string {
	return append([]string(nil), j.entries...)
}

type journaledGreeter struct {
	next    Greeter
	journal *Journal
}

func (g *journaledGreeter) Greet(name string) string {
	greeting := g.next.Greet(name)
	g.journal.Record("greeted " + name)
	return greeting
}

// Welcome is the message the application produces when it runs.
type Welcome struct {
	Message string
}

// Modules returns the module registry of the demo application. The journal writes to out.
func Modules(out io.Writer) *injector.Modules {
	modules := injector.NewModules()

	modules.Module(CoreModule).
		Constant("salutation", "Hello").
		Provider("greeter", injector.Inject("salutation", func(salutation string) *GreeterProvider {
			return &GreeterProvider{Salutation: salutation, Punctuation: "."}
		})).
		Config(injector.Inject("greeterDefinition", func(def *injector.Definition) error {
			p, err := injector.ProviderOf[*GreeterProvider](def)
			if err != nil {
				return err
			}
			p.Punctuation = "!"
			return nil
		}))

	modules.Module(AuditModule).
		Value("output", out).
		Value("journalPrefix", "journal: ").
		Service("journal", reflect.TypeFor[*Journal]())

	modules.Module(AppModule, CoreModule, AuditModule).
		Constant("audience", "World").
		Factory("welcome", injector.Inject("greeter", "audience", func(g Greeter, audience string) *Welcome {
			return &Welcome{Message: g.Greet(audience)}
		})).
		Decorator("greeter", injector.Inject(injector.DelegateLocal, "journal", func(g Greeter, j *Journal) Greeter {
			return &journaledGreeter{next: g, journal: j}
		})).
		Decorator("welcome", injector.Inject(injector.DelegateLocal, func(w *Welcome) *Welcome {
			return &Welcome{Message: strings.TrimSpace(w.Message)}
		})).
		Run(injector.Inject("welcome", "journal", func(w *Welcome, j *Journal) {
			j.Record(w.Message)
		}))

	return modules
}

// Boot creates a container running the demo application.
func Boot(out io.Writer, opts ...injector.Option) (*injector.Container, error) {
	return injector.New(Modules(out), []any{AppModule}, opts...)
}
