package fuzzer

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fenrir-sec/fenrir/pkg/analysis"
	"github.com/fenrir-sec/fenrir/pkg/mutate"
	"github.com/fenrir-sec/fenrir/pkg/vuln"
)

// fixedAttack issues n probes and classifies via a supplied function.
type fixedAttack struct {
	name    string
	probes  []Probe
	analyze func(resp *analysis.Response, probe Probe) (bool, vuln.Kind)
	ratio   float64
}

func (a *fixedAttack) Name() string           { return a.name }
func (a *fixedAttack) Probes() []Probe        { return a.probes }
func (a *fixedAttack) MutationRatio() float64 { return a.ratio }

func (a *fixedAttack) Analyze(resp *analysis.Response, probe Probe) (bool, vuln.Kind) {
	if a.analyze == nil {
		return false, vuln.KindNone
	}
	return a.analyze(resp, probe)
}

func nProbes(n int) []Probe {
	probes := make([]Probe, n)
	for i := range probes {
		probes[i] = Probe{Method: "GET", Path: fmt.Sprintf("/p/%d", i), Payload: fmt.Sprintf("payload-%d", i)}
	}
	return probes
}

func TestSemaphoreCeiling(t *testing.T) {
	const limit = 3
	var inFlight, peak int64

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cur := atomic.AddInt64(&inFlight, 1)
		for {
			old := atomic.LoadInt64(&peak)
			if cur <= old || atomic.CompareAndSwapInt64(&peak, old, cur) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		atomic.AddInt64(&inFlight, -1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	exec := NewExecutor(Config{BaseURL: srv.URL, MaxConcurrent: limit})
	results := exec.RunExploit(context.Background(), &fixedAttack{name: "ceiling", probes: nProbes(20)})

	if len(results) != 20 {
		t.Fatalf("got %d results, want 20", len(results))
	}
	if got := atomic.LoadInt64(&peak); got > limit {
		t.Errorf("peak concurrency %d exceeded limit %d", got, limit)
	}
}

func TestEveryAttemptYieldsOneResult(t *testing.T) {
	var hits int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	exec := NewExecutor(Config{BaseURL: srv.URL, MaxConcurrent: 5})
	results := exec.RunExploit(context.Background(), &fixedAttack{name: "count", probes: nProbes(17)})

	if len(results) != 17 {
		t.Errorf("got %d results, want 17", len(results))
	}
	if got := atomic.LoadInt64(&hits); got != 17 {
		t.Errorf("server saw %d requests, want 17", got)
	}
}

func TestTransportErrorsRecordedNotRaised(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // target gone before the run starts

	exec := NewExecutor(Config{BaseURL: srv.URL, MaxConcurrent: 2, Timeout: time.Second})
	results := exec.RunExploit(context.Background(), &fixedAttack{name: "dead", probes: nProbes(4)})

	if len(results) != 4 {
		t.Fatalf("got %d results, want 4", len(results))
	}
	for _, r := range results {
		if r.Err == "" {
			t.Errorf("result for %s has no recorded error", r.TargetURL)
		}
		if r.Vulnerable {
			t.Errorf("failed attempt classified vulnerable")
		}
	}

	s := exec.Summarize()
	if s.Errors != 4 || s.TotalRequests != 4 {
		t.Errorf("summary = %+v", s)
	}
}

func TestPositiveClassificationFeedsKnowledgeBase(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	mutator := mutate.NewEngine(nil)
	exec := NewExecutor(Config{BaseURL: srv.URL, MaxConcurrent: 2, Mutator: mutator})

	attack := &fixedAttack{
		name:   "learned",
		probes: nProbes(3),
		analyze: func(resp *analysis.Response, probe Probe) (bool, vuln.Kind) {
			return probe.Payload == "payload-1", vuln.KindSQLInjection
		},
	}
	exec.RunExploit(context.Background(), attack)

	successes := mutator.KnowledgeBase().Successes("learned")
	if len(successes) != 1 || successes[0] != "payload-1" {
		t.Errorf("knowledge base = %v, want [payload-1]", successes)
	}
}

func TestAdaptiveAttackGetsMutatedPayloads(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	mutator := mutate.NewEngine(nil)
	mutator.KnowledgeBase().Learn("adaptive", "LEARNED-FRAGMENT")

	exec := NewExecutor(Config{BaseURL: srv.URL, MaxConcurrent: 2, Mutator: mutator})
	attack := &fixedAttack{name: "adaptive", probes: nProbes(40), ratio: 1.0}
	results := exec.RunExploit(context.Background(), attack)

	mutatedAny := false
	for _, r := range results {
		if !strings.HasPrefix(r.Payload, "payload-") || strings.Contains(r.Payload, "LEARNED-FRAGMENT") {
			mutatedAny = true
		}
	}
	if !mutatedAny {
		t.Error("ratio 1.0 adaptive attack produced no mutated payloads across 40 probes")
	}
}

func TestCancellationStopsNewAttempts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	exec := NewExecutor(Config{BaseURL: srv.URL, MaxConcurrent: 2})
	results := exec.RunExploit(ctx, &fixedAttack{name: "cancelled", probes: nProbes(50)})

	if len(results) != 0 {
		t.Errorf("cancelled run produced %d results, want 0", len(results))
	}
}

func TestResultsAreCopies(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	exec := NewExecutor(Config{BaseURL: srv.URL, MaxConcurrent: 2})
	exec.RunExploit(context.Background(), &fixedAttack{name: "copy", probes: nProbes(2)})

	got := exec.Results()
	got[0].Payload = "tampered"
	if exec.Results()[0].Payload == "tampered" {
		t.Error("Results leaked internal storage")
	}
}
