// Package attacks provides the concrete attack catalog: each type builds
// the probe set for one category and delegates classification to the
// analysis engine.
package attacks

import (
	"net/url"

	"github.com/fenrir-sec/fenrir/pkg/analysis"
	"github.com/fenrir-sec/fenrir/pkg/fuzzer"
	"github.com/fenrir-sec/fenrir/pkg/payloads"
	"github.com/fenrir-sec/fenrir/pkg/vuln"
)

// Injection is the generic query-parameter attack: every payload in its
// sets is issued as GET ?input=<payload> against the configured path.
type Injection struct {
	name          string
	path          string
	param         string
	sets          []payloads.Set
	mutationRatio float64
}

// NewInjection builds an injection attack from the payload sets
// registered under category. Path defaults to "/" and param to "input".
func NewInjection(category, path, param string) *Injection {
	if path == "" {
		path = "/"
	}
	if param == "" {
		param = "input"
	}
	return &Injection{
		name:          category,
		path:          path,
		param:         param,
		sets:          payloads.ForCategory(category),
		mutationRatio: 0.25,
	}
}

func (a *Injection) Name() string { return a.name }

// MutationRatio opts injection attacks into adaptive payload mutation.
func (a *Injection) MutationRatio() float64 { return a.mutationRatio }

func (a *Injection) Probes() []fuzzer.Probe {
	var probes []fuzzer.Probe
	for _, set := range a.sets {
		for _, p := range set.Payloads {
			probes = append(probes, fuzzer.Probe{
				Method:  "GET",
				Path:    a.path + "?" + a.param + "=" + url.QueryEscape(p),
				Payload: p,
			})
		}
	}
	return probes
}

func (a *Injection) Analyze(resp *analysis.Response, probe fuzzer.Probe) (bool, vuln.Kind) {
	return analysis.Classify(resp, probe.Payload)
}

// SQLInjection probes query construction with the sqli payload set.
func SQLInjection(path, param string) *Injection {
	return NewInjection(payloads.CategorySQLi, path, param)
}

// XSS probes output encoding with the xss payload set.
func XSS(path, param string) *Injection {
	return NewInjection(payloads.CategoryXSS, path, param)
}

// PathTraversal probes file access with traversal sequences.
func PathTraversal(path, param string) *Injection {
	return NewInjection(payloads.CategoryTraversal, path, param)
}

// CommandInjection probes shell command construction.
func CommandInjection(path, param string) *Injection {
	return NewInjection(payloads.CategoryCmdI, path, param)
}

// NoSQLInjection probes document-store operator handling.
func NoSQLInjection(path, param string) *Injection {
	return NewInjection(payloads.CategoryNoSQLi, path, param)
}

// LDAPInjection probes directory filter construction.
func LDAPInjection(path, param string) *Injection {
	return NewInjection(payloads.CategoryLDAP, path, param)
}

// EdgeCase probes parser robustness with special characters, unicode,
// oversized inputs, and null bytes. Edge-case probes are never mutated:
// their value is structural, not evasive.
func EdgeCase(path, param string) *Injection {
	a := NewInjection(payloads.CategoryEdge, path, param)
	a.mutationRatio = 0
	return a
}
