// Package analysis classifies HTTP-like responses into vulnerability
// findings. Classification is heuristic and additive: each matched
// indicator raises confidence, ties between indicator families are broken
// by the fixed vuln.Priority table, and the engine never claims certainty
// — only flag raised / not raised plus the kind that best explains the
// strongest match.
//
// All entry points require a well-formed, non-nil response. Passing nil
// is a caller contract violation and is allowed to propagate as a panic;
// environmental failures (transport errors, absent bodies) must be
// handled by the caller before classification.
package analysis

import (
	"net/http"
	"strings"

	"github.com/fenrir-sec/fenrir/pkg/vuln"
	"github.com/tidwall/gjson"
)

// Response is the shape-independent view of a probed response.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       string
}

// indicatorSet maps a vulnerability kind to the lowercase substrings
// whose presence in a response body suggests it.
type indicatorSet struct {
	kind       vuln.Kind
	substrings []string
}

// httpIndicators is evaluated in full; when several sets match, the
// strongest kind per vuln.Priority wins.
var httpIndicators = []indicatorSet{
	{vuln.KindCommandInjection, []string{
		"command not found", "permission denied", "uid=", "gid=",
		"whoami:", "sh: ", "bash: ",
	}},
	{vuln.KindSQLInjection, []string{
		"sql syntax", "sql error", "mysql", "postgresql", "sqlite",
		"unclosed quotation", "unterminated quoted string", "database error",
		"ora-01756",
	}},
	{vuln.KindXSS, []string{
		"<script>", "onerror=", "onload=", "javascript:",
	}},
	{vuln.KindPathTraversal, []string{
		"root:x:0:0", "daemon:x:", "[boot loader]", "/bin/bash",
	}},
	{vuln.KindInfoDisclosure, []string{
		"traceback", "stack trace", "internal_error", "debug mode",
		"exception in", "at java.", "goroutine ",
	}},
}

// Classify inspects a plain HTTP response together with the payload that
// produced it. A 5xx status strengthens injection findings: a server
// error triggered by an injection payload is itself a signal even when
// no body indicator matched.
func Classify(resp *Response, payload string) (bool, vuln.Kind) {
	body := strings.ToLower(resp.Body)

	best := vuln.KindNone
	for _, set := range httpIndicators {
		if matchesAny(body, set.substrings) {
			best = vuln.StrongerOf(best, set.kind)
		}
	}
	if best != vuln.KindNone {
		return true, best
	}

	if resp.StatusCode >= 500 {
		if k := payloadKind(payload); k != vuln.KindNone {
			return true, k
		}
	}
	return false, vuln.KindNone
}

// ClassifyWebSocket applies the indicator scan to a plain text frame
// rather than a structured response.
func ClassifyWebSocket(message, payload string) (bool, vuln.Kind) {
	lower := strings.ToLower(message)

	best := vuln.KindNone
	for _, set := range httpIndicators {
		if matchesAny(lower, set.substrings) {
			best = vuln.StrongerOf(best, set.kind)
		}
	}
	if best != vuln.KindNone {
		return true, best
	}

	// Raw payload echoed back unescaped is a reflection finding.
	if payload != "" && strings.Contains(message, payload) && looksExecutable(payload) {
		return true, vuln.KindXSS
	}
	return false, vuln.KindNone
}

// modelLeakIndicators suggest the model surface disclosed internals.
var modelLeakIndicators = []string{
	"model_path", "model_weights", "training_data", "hyperparameters",
	"prompt_template", "generation_config",
}

// promptLeakIndicators suggest system instructions escaped into output.
var promptLeakIndicators = []string{
	"system prompt", "my instructions", "i was instructed",
	"you are a helpful", "developer message",
}

// ClassifyModel inspects an ML/LLM JSON response body together with the
// original request payload. The model's textual output fields are
// extracted with gjson; indicators are drawn from both the output and
// the payload that elicited it.
func ClassifyModel(resp *Response, payload string) (bool, vuln.Kind) {
	body := strings.ToLower(resp.Body)

	output := body
	for _, field := range []string{"response", "output", "text", "completion", "message"} {
		if v := gjson.Get(resp.Body, field); v.Exists() {
			output = strings.ToLower(v.String())
			break
		}
	}

	if matchesAny(output, promptLeakIndicators) {
		return true, vuln.KindPromptInjection
	}
	if matchesAny(body, modelLeakIndicators) {
		return true, vuln.KindInfoDisclosure
	}

	// Injection payload accepted and acted on rather than rejected.
	if containsInjectionMarker(payload) &&
		matchesAny(output, []string{"processed", "accepted", "generated", "success"}) {
		return true, vuln.KindPromptInjection
	}

	if resp.StatusCode >= 500 &&
		matchesAny(body, []string{"out of memory", "exhausted", "timeout", "resource"}) {
		return true, vuln.KindInfoDisclosure
	}

	return Classify(resp, payload)
}

// AuthProbe describes the credentials (if any) an auth-bypass attempt
// presented, so success markers can be judged against what was sent.
type AuthProbe struct {
	Username      string
	Password      string
	Authenticated bool // true when the probe carried valid credentials
}

// authSuccessMarkers indicate a response granted access or elevated role.
var authSuccessMarkers = []string{
	"welcome", "access_token", "refresh_token", "authenticated",
	"login successful", "root", "administrator", "elevated", "privileged",
}

// ClassifyAuthBypass flags responses that grant access where a rejection
// was expected. A 2xx with success markers on an unauthenticated probe is
// the strongest signal; 401/403 responses are never findings.
func ClassifyAuthBypass(resp *Response, probe AuthProbe) (bool, vuln.Kind) {
	if probe.Authenticated {
		return false, vuln.KindNone
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return false, vuln.KindNone
	}

	body := strings.ToLower(resp.Body)
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if matchesAny(body, authSuccessMarkers) {
			// Seeing "admin" back when we sent admin creds proves nothing.
			if strings.Contains(body, "admin") && strings.Contains(strings.ToLower(probe.Username), "admin") &&
				!matchesAny(body, []string{"welcome", "access_token", "authenticated"}) {
				return false, vuln.KindNone
			}
			return true, vuln.KindAuthBypass
		}
	}

	// Credential or token errors leaking backend detail.
	if matchesAny(body, []string{"sql", "database", "traceback", "stack trace"}) {
		return true, vuln.KindInfoDisclosure
	}
	return false, vuln.KindNone
}

func matchesAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}

// payloadKind guesses which attack family a payload belongs to, used to
// attribute status-code anomalies when no body indicator matched.
func payloadKind(payload string) vuln.Kind {
	lower := strings.ToLower(payload)
	switch {
	case strings.Contains(lower, "' or") || strings.Contains(lower, "union select") ||
		strings.Contains(lower, "drop table") || strings.Contains(lower, "--"):
		return vuln.KindSQLInjection
	case strings.Contains(lower, "<script") || strings.Contains(lower, "onerror="):
		return vuln.KindXSS
	case strings.Contains(lower, "../") || strings.Contains(lower, "..\\"):
		return vuln.KindPathTraversal
	case strings.HasPrefix(lower, ";") || strings.HasPrefix(lower, "|") ||
		strings.Contains(lower, "$("):
		return vuln.KindCommandInjection
	default:
		return vuln.KindNone
	}
}

// containsInjectionMarker reports whether a payload is an instruction
// override attempt rather than a benign input.
func containsInjectionMarker(payload string) bool {
	lower := strings.ToLower(payload)
	return strings.Contains(lower, "ignore all previous") ||
		strings.Contains(lower, "disregard") ||
		strings.Contains(lower, "system prompt") ||
		strings.Contains(lower, "developer mode") ||
		strings.Contains(lower, "reveal")
}

func looksExecutable(payload string) bool {
	lower := strings.ToLower(payload)
	return strings.Contains(lower, "<script") || strings.Contains(lower, "onerror=") ||
		strings.Contains(lower, "javascript:")
}
