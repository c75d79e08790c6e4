// Package campaign orchestrates attack categories against one target:
// a registry maps category names to attack factories, and Run drives
// each requested category through the fuzzing executor with per-category
// failure isolation.
package campaign

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fenrir-sec/fenrir/pkg/attacks"
	"github.com/fenrir-sec/fenrir/pkg/fuzzer"
	"github.com/fenrir-sec/fenrir/pkg/mutate"
)

// ErrUnknownCategory is recorded as a failure when a requested category
// has no registered factory.
var ErrUnknownCategory = errors.New("unknown attack category")

// Runner executes one attack category end to end.
type Runner interface {
	Run(ctx context.Context, exec *fuzzer.Executor) []fuzzer.Result
}

// Factory builds a category's runner against a target base URL.
type Factory func(target Target) Runner

// Target carries the per-campaign knobs factories may need.
type Target struct {
	BaseURL    string
	SkipVerify bool
	Logger     *zap.Logger
}

// attackRunner adapts a fuzzer.Attack to the Runner interface.
type attackRunner struct {
	attack fuzzer.Attack
}

func (r attackRunner) Run(ctx context.Context, exec *fuzzer.Executor) []fuzzer.Result {
	return exec.RunExploit(ctx, r.attack)
}

// AttackFactory wraps a fuzzer.Attack constructor as a Factory.
func AttackFactory(build func(Target) fuzzer.Attack) Factory {
	return func(t Target) Runner {
		return attackRunner{attack: build(t)}
	}
}

// websocketRunner bypasses the HTTP executor; the websocket attack owns
// its transport.
type websocketRunner struct {
	ws *attacks.WebSocket
}

func (r websocketRunner) Run(ctx context.Context, _ *fuzzer.Executor) []fuzzer.Result {
	return r.ws.Run(ctx)
}

// Registry maps category names to factories. Registering an existing
// name replaces the previous factory: later registrations win, so
// callers can override built-ins.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry returns a registry preloaded with the built-in categories.
func NewRegistry() *Registry {
	r := &Registry{factories: make(map[string]Factory)}
	r.Register("sqli", AttackFactory(func(Target) fuzzer.Attack { return attacks.SQLInjection("", "") }))
	r.Register("xss", AttackFactory(func(Target) fuzzer.Attack { return attacks.XSS("", "") }))
	r.Register("traversal", AttackFactory(func(Target) fuzzer.Attack { return attacks.PathTraversal("", "") }))
	r.Register("cmdi", AttackFactory(func(Target) fuzzer.Attack { return attacks.CommandInjection("", "") }))
	r.Register("nosqli", AttackFactory(func(Target) fuzzer.Attack { return attacks.NoSQLInjection("", "") }))
	r.Register("ldap", AttackFactory(func(Target) fuzzer.Attack { return attacks.LDAPInjection("", "") }))
	r.Register("edge", AttackFactory(func(Target) fuzzer.Attack { return attacks.EdgeCase("", "") }))
	r.Register("authbypass", AttackFactory(func(Target) fuzzer.Attack { return attacks.NewAuthBypass("", "") }))
	r.Register("model", AttackFactory(func(Target) fuzzer.Attack { return attacks.NewModel("", "") }))
	r.Register("websocket", func(t Target) Runner {
		return websocketRunner{ws: attacks.NewWebSocket(t.BaseURL, t.SkipVerify, t.Logger)}
	})
	return r
}

// Register binds a factory to a category name, replacing any existing
// binding.
func (r *Registry) Register(name string, f Factory) {
	r.mu.Lock()
	r.factories[name] = f
	r.mu.Unlock()
}

// Lookup returns the factory for a category name.
func (r *Registry) Lookup(name string) (Factory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[name]
	return f, ok
}

// Categories returns the registered category names, sorted.
func (r *Registry) Categories() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Failure records one category that did not complete.
type Failure struct {
	Category string `json:"category"`
	Err      string `json:"error"`
}

// Report is the fold over a full campaign run.
type Report struct {
	RunID                string          `json:"run_id"`
	Target               string          `json:"target"`
	StartedAt            time.Time       `json:"started_at"`
	Duration             time.Duration   `json:"duration"`
	TotalCategories      int             `json:"total_categories"`
	TotalRequests        int             `json:"total_requests"`
	TotalVulnerabilities int             `json:"total_vulnerabilities"`
	Failures             []Failure       `json:"failures,omitempty"`
	Results              []fuzzer.Result `json:"results"`
}

// Campaign runs a set of categories against one target.
type Campaign struct {
	registry *Registry
	exec     *fuzzer.Executor
	target   Target
	logger   *zap.Logger
}

// Config assembles a campaign.
type Config struct {
	Target        string
	MaxConcurrent int
	RateLimit     float64
	SkipVerify    bool
	Logger        *zap.Logger
	Mutator       *mutate.Engine
	Registry      *Registry // nil gets the built-in registry
}

// New builds a campaign and its executor.
func New(cfg Config) *Campaign {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Registry == nil {
		cfg.Registry = NewRegistry()
	}
	if cfg.Mutator == nil {
		cfg.Mutator = mutate.NewEngine(nil)
	}
	exec := fuzzer.NewExecutor(fuzzer.Config{
		BaseURL:       cfg.Target,
		MaxConcurrent: cfg.MaxConcurrent,
		RateLimit:     cfg.RateLimit,
		SkipVerify:    cfg.SkipVerify,
		Logger:        cfg.Logger,
		Mutator:       cfg.Mutator,
	})
	return &Campaign{
		registry: cfg.Registry,
		exec:     exec,
		target: Target{
			BaseURL:    cfg.Target,
			SkipVerify: cfg.SkipVerify,
			Logger:     cfg.Logger,
		},
		logger: cfg.Logger.Named("campaign"),
	}
}

// Run drives each requested category in order. A category that fails,
// panics, or is unknown produces a Failure entry; the remaining
// categories still run. Cancellation stops scheduling new categories.
func (c *Campaign) Run(ctx context.Context, categories []string) *Report {
	report := &Report{
		RunID:     uuid.NewString(),
		Target:    c.target.BaseURL,
		StartedAt: time.Now(),
	}
	c.logger.Info("campaign started",
		zap.String("run_id", report.RunID),
		zap.String("target", report.Target),
		zap.Strings("categories", categories))

	for _, category := range categories {
		if err := ctx.Err(); err != nil {
			report.Failures = append(report.Failures, Failure{Category: category, Err: err.Error()})
			continue
		}
		report.TotalCategories++

		results, err := c.runCategory(ctx, category)
		if err != nil {
			c.logger.Warn("category failed",
				zap.String("category", category),
				zap.Error(err))
			report.Failures = append(report.Failures, Failure{Category: category, Err: err.Error()})
			continue
		}
		report.Results = append(report.Results, results...)
	}

	for _, r := range report.Results {
		report.TotalRequests++
		if r.Vulnerable {
			report.TotalVulnerabilities++
		}
	}
	report.Duration = time.Since(report.StartedAt)

	c.logger.Info("campaign finished",
		zap.String("run_id", report.RunID),
		zap.Int("requests", report.TotalRequests),
		zap.Int("vulnerabilities", report.TotalVulnerabilities),
		zap.Int("failures", len(report.Failures)))
	return report
}

// runCategory isolates one category: a panic inside an attack or its
// classifier is converted into an error for the report.
func (c *Campaign) runCategory(ctx context.Context, category string) (results []fuzzer.Result, err error) {
	factory, ok := c.registry.Lookup(category)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCategory, category)
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("category %s panicked: %v", category, r)
		}
	}()

	results = factory(c.target).Run(ctx, c.exec)
	return results, nil
}
