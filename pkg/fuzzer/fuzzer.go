// Package fuzzer provides the bounded-concurrency attack executor: the
// base unit of work that issues one logical attack request, awaits the
// response or failure, classifies it, and records exactly one immutable
// Result per attempt.
package fuzzer

import (
	"bytes"
	"context"
	"crypto/tls"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/fenrir-sec/fenrir/pkg/analysis"
	"github.com/fenrir-sec/fenrir/pkg/defaults"
	"github.com/fenrir-sec/fenrir/pkg/duration"
	"github.com/fenrir-sec/fenrir/pkg/mutate"
	"github.com/fenrir-sec/fenrir/pkg/vuln"
)

// Probe is one concrete attack request to issue.
type Probe struct {
	Method      string
	Path        string
	Payload     string // display form, recorded on the Result
	Body        []byte
	ContentType string
	Headers     map[string]string
}

// Attack supplies probes for one category and classifies the responses
// they produce. Analyze must be a pure function of its inputs.
type Attack interface {
	// Name is the attack category, used as the mutation rule name.
	Name() string

	// Probes returns the full probe set for one run.
	Probes() []Probe

	// Analyze classifies a response together with the probe that
	// produced it.
	Analyze(resp *analysis.Response, probe Probe) (bool, vuln.Kind)
}

// Adaptive is the optional capability an Attack implements to opt into
// knowledge-base-driven payload mutation. Callers check for it with a
// type assertion; there is no runtime attribute probing beyond this
// single declared capability.
type Adaptive interface {
	Attack

	// MutationRatio is the fraction of probes (0..1) whose payloads are
	// rewritten by the mutation engine before issue.
	MutationRatio() float64
}

// Result is the immutable record of one attempt. Created once at the end
// of a probe cycle and never mutated afterwards.
type Result struct {
	TargetURL    string        `json:"target_url"`
	Method       string        `json:"method"`
	Payload      string        `json:"payload"`
	StatusCode   int           `json:"status_code"`
	ResponseTime time.Duration `json:"response_time"`
	ResponseSize int           `json:"response_size"`
	Vulnerable   bool          `json:"vulnerability_detected"`
	Kind         vuln.Kind     `json:"vulnerability_kind,omitempty"`
	Err          string        `json:"error,omitempty"`
}

// Config holds executor construction parameters.
type Config struct {
	// BaseURL is the scheme://host[:port] prefix for all probe paths.
	BaseURL string

	// MaxConcurrent bounds simultaneously in-flight network operations.
	// Zero is legal and means no capacity: every attempt blocks until the
	// context is cancelled. That is a caller error, not a special case
	// this executor works around.
	MaxConcurrent int

	// RateLimit is the maximum requests per second (0 = unlimited).
	RateLimit float64

	// Timeout bounds a single attempt.
	Timeout time.Duration

	// SkipVerify disables TLS certificate verification.
	SkipVerify bool

	// Logger receives per-attempt failures. Nil gets a no-op logger.
	Logger *zap.Logger

	// Mutator, when set, rewrites payloads for Adaptive attacks and is
	// fed every positive classification.
	Mutator *mutate.Engine
}

// Executor drives one category's probe set through the request/response
// cycle under a concurrency ceiling. The accumulated result sequence
// reflects completion order, not issue order.
type Executor struct {
	cfg     Config
	client  *http.Client
	limiter *rate.Limiter
	sem     chan struct{}
	logger  *zap.Logger

	mu      sync.Mutex
	results []Result
}

// NewExecutor builds an executor for one target. MaxConcurrent defaults
// to defaults.ConcurrencyMedium only when negative; an explicit zero is
// honored as stated on Config.
func NewExecutor(cfg Config) *Executor {
	if cfg.MaxConcurrent < 0 {
		cfg.MaxConcurrent = defaults.ConcurrencyMedium
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = duration.HTTPAttempt
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), int(cfg.RateLimit)+1)
	}

	transport := &http.Transport{
		TLSClientConfig:     &tls.Config{InsecureSkipVerify: cfg.SkipVerify}, //nolint:gosec // probing deliberately misconfigured targets
		MaxConnsPerHost:     cfg.MaxConcurrent + 1,
		MaxIdleConnsPerHost: cfg.MaxConcurrent + 1,
	}

	return &Executor{
		cfg: cfg,
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		limiter: limiter,
		sem:     make(chan struct{}, cfg.MaxConcurrent),
		logger:  cfg.Logger.Named("fuzzer"),
	}
}

// RunExploit drives the attack's full probe set and returns the results
// accumulated for it, in completion order. Per-attempt failures are
// recorded, never raised: one dead connection cannot abort a campaign.
func (e *Executor) RunExploit(ctx context.Context, attack Attack) []Result {
	probes := attack.Probes()

	if adaptive, ok := attack.(Adaptive); ok && e.cfg.Mutator != nil {
		probes = e.mutateProbes(adaptive, probes)
	}

	start := len(e.snapshot())
	var wg sync.WaitGroup
	for _, probe := range probes {
		select {
		case <-ctx.Done():
			e.logger.Warn("campaign cancelled, not issuing further probes",
				zap.String("attack", attack.Name()))
			wg.Wait()
			return e.resultsSince(start)
		default:
		}

		wg.Add(1)
		go func(p Probe) {
			defer wg.Done()
			res := e.attempt(ctx, attack, p)
			e.record(res)
			if res.Vulnerable && e.cfg.Mutator != nil {
				e.cfg.Mutator.KnowledgeBase().Learn(attack.Name(), p.Payload)
			}
		}(probe)
	}
	wg.Wait()
	return e.resultsSince(start)
}

// mutateProbes rewrites a fraction of the probe payloads through the
// mutation engine, leaving the rest untouched for exploration.
func (e *Executor) mutateProbes(attack Adaptive, probes []Probe) []Probe {
	ratio := attack.MutationRatio()
	if ratio <= 0 {
		return probes
	}
	out := make([]Probe, len(probes))
	copy(out, probes)
	step := int(1 / ratio)
	if step < 1 {
		step = 1
	}
	for i := 0; i < len(out); i += step {
		mutated := e.cfg.Mutator.Mutate(attack.Name(), out[i].Payload)
		out[i].Payload = mutated
		if out[i].Body == nil {
			continue
		}
		// Body carried the original payload verbatim; keep them in sync.
		out[i].Body = bytes.ReplaceAll(out[i].Body, []byte(probes[i].Payload), []byte(mutated))
	}
	return out
}

// attempt issues one probe. The semaphore gates only the network
// critical section; payload preparation and result recording run
// unsynchronized since each attempt owns its own result.
func (e *Executor) attempt(ctx context.Context, attack Attack, probe Probe) Result {
	targetURL := e.cfg.BaseURL + probe.Path
	res := Result{
		TargetURL: targetURL,
		Method:    probe.Method,
		Payload:   probe.Payload,
	}

	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			res.Err = err.Error()
			return res
		}
	}

	req, err := http.NewRequestWithContext(ctx, probe.Method, targetURL, bytes.NewReader(probe.Body))
	if err != nil {
		res.Err = err.Error()
		return res
	}
	if probe.ContentType != "" {
		req.Header.Set("Content-Type", probe.ContentType)
	}
	for k, v := range probe.Headers {
		req.Header.Set(k, v)
	}

	select {
	case e.sem <- struct{}{}:
	case <-ctx.Done():
		res.Err = ctx.Err().Error()
		return res
	}

	start := time.Now()
	resp, err := e.client.Do(req)
	res.ResponseTime = time.Since(start)

	if err != nil {
		<-e.sem
		e.logger.Debug("attempt failed",
			zap.String("attack", attack.Name()),
			zap.String("url", targetURL),
			zap.Error(err))
		res.Err = err.Error()
		return res
	}

	body, readErr := io.ReadAll(io.LimitReader(resp.Body, defaults.MaxRawResponse))
	resp.Body.Close()
	<-e.sem

	if readErr != nil {
		res.Err = readErr.Error()
	}
	res.StatusCode = resp.StatusCode
	res.ResponseSize = len(body)

	vulnerable, kind := attack.Analyze(&analysis.Response{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       string(body),
	}, probe)
	res.Vulnerable = vulnerable
	res.Kind = vuln.Normalize(kind)
	return res
}

func (e *Executor) record(r Result) {
	e.mu.Lock()
	e.results = append(e.results, r)
	e.mu.Unlock()
}

func (e *Executor) snapshot() []Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Result, len(e.results))
	copy(out, e.results)
	return out
}

func (e *Executor) resultsSince(start int) []Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Result, len(e.results)-start)
	copy(out, e.results[start:])
	return out
}

// Results returns a copy of every result accumulated so far. Intended to
// be read after all writers for the run have completed.
func (e *Executor) Results() []Result {
	return e.snapshot()
}

// Summary folds the accumulated results into totals.
type Summary struct {
	TotalRequests        int `json:"total_requests"`
	SuccessfulRequests   int `json:"successful_requests"`
	VulnerabilitiesFound int `json:"vulnerabilities_found"`
	Errors               int `json:"errors"`
}

// Summarize computes a Summary over the executor's results.
func (e *Executor) Summarize() Summary {
	var s Summary
	for _, r := range e.snapshot() {
		s.TotalRequests++
		switch {
		case r.Err != "":
			s.Errors++
		default:
			s.SuccessfulRequests++
		}
		if r.Vulnerable {
			s.VulnerabilitiesFound++
		}
	}
	return s
}
