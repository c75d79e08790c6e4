// Package smuggling probes targets for HTTP request smuggling with raw
// socket payloads. Requests are delivered byte-exactly: the probes exist
// precisely because well-formed clients cannot produce them, so nothing
// here goes through net/http on the send side.
//
// Based on research from James Kettle and PortSwigger.
package smuggling

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fenrir-sec/fenrir/pkg/defaults"
	"github.com/fenrir-sec/fenrir/pkg/duration"
)

// Indicator keys scored on every outcome.
const (
	IndicatorStatusAnomaly  = "status_code_anomaly"
	IndicatorLengthMismatch = "content_length_mismatch"
	IndicatorAdminContent   = "admin_content"
	IndicatorDebugInfo      = "debug_info"
	IndicatorMalformed      = "malformed_response"
)

// expectedStatuses are the codes a hardened endpoint returns to garbage.
// Anything else counts toward the anomaly indicator.
var expectedStatuses = map[int]struct{}{
	200: {}, 400: {}, 404: {}, 405: {}, 500: {},
}

var adminContentKeywords = []string{"admin", "debug", "internal", "config", "sensitive", "private"}

var debugInfoKeywords = []string{"traceback", "exception", "error", "stack", "dump"}

// Header is one response header in wire order. Smuggling analysis cares
// about duplicates and ordering, so a map would destroy evidence.
type Header struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Headers preserves wire order and duplicates.
type Headers []Header

// Get returns the first value for a name, case-insensitively. Empty
// string when absent.
func (hs Headers) Get(name string) string {
	for _, h := range hs {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

// Outcome is the scored record of one probe delivery.
type Outcome struct {
	Name                  string          `json:"name"`
	Family                Family          `json:"family"`
	StatusCode            int             `json:"status_code"`
	BodyPreview           string          `json:"body_preview"`
	Headers               Headers         `json:"headers"`
	Indicators            map[string]bool `json:"indicators"`
	SuccessScore          int             `json:"success_score"`
	PotentiallySuccessful bool            `json:"potentially_successful"`
	Duration              time.Duration   `json:"duration"`
	Err                   string          `json:"error,omitempty"`
}

// Engine delivers smuggling probes to one target. Probes run strictly
// sequentially: each one deliberately corrupts connection state, so
// overlap would contaminate the next reading.
type Engine struct {
	host   string
	port   string
	useTLS bool

	DialTimeout    time.Duration
	ReadTimeout    time.Duration
	Delay          time.Duration
	PreviewLen     int
	ScoreThreshold int
	Logger         *zap.Logger
}

// NewEngine parses the target URL and returns an engine with default
// timings and the standard score threshold.
func NewEngine(target string, logger *zap.Logger) (*Engine, error) {
	u, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("invalid target URL: %w", err)
	}
	if u.Hostname() == "" {
		return nil, fmt.Errorf("target URL has no host: %s", target)
	}

	useTLS := u.Scheme == "https"
	port := u.Port()
	if port == "" {
		if useTLS {
			port = "443"
		} else {
			port = "80"
		}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Engine{
		host:           u.Hostname(),
		port:           port,
		useTLS:         useTLS,
		DialTimeout:    duration.RawSocketDial,
		ReadTimeout:    duration.RawSocketRead,
		Delay:          duration.InterProbeDelay,
		PreviewLen:     defaults.BodyPreviewLen,
		ScoreThreshold: defaults.SmugglingScoreThreshold,
		Logger:         logger.Named("smuggling"),
	}, nil
}

// Host returns the hostname probes are addressed to.
func (e *Engine) Host() string { return e.host }

// Send delivers one probe and scores the raw response. Transport errors
// are recorded on the outcome; an endpoint that drops the connection on
// a malformed request is an answer, not a failure.
func (e *Engine) Send(ctx context.Context, probe Probe) Outcome {
	out := Outcome{
		Name:       probe.Name,
		Family:     probe.Family,
		Indicators: map[string]bool{},
	}

	start := time.Now()
	raw, err := e.exchange(ctx, probe.Raw)
	out.Duration = time.Since(start)

	if err != nil && len(raw) == 0 {
		out.Err = err.Error()
		e.Logger.Debug("probe transport failed",
			zap.String("probe", probe.Name),
			zap.Error(err))
		return out
	}

	status, headers, body := parseResponse(raw)
	out.StatusCode = status
	out.Headers = headers
	if len(body) > e.PreviewLen {
		out.BodyPreview = body[:e.PreviewLen]
	} else {
		out.BodyPreview = body
	}

	e.score(&out, status, headers, body)
	return out
}

// score fills the indicator map and derives the success verdict.
func (e *Engine) score(out *Outcome, status int, headers Headers, body string) {
	_, expected := expectedStatuses[status]
	out.Indicators[IndicatorStatusAnomaly] = !expected

	out.Indicators[IndicatorLengthMismatch] = false
	if declared := headers.Get("Content-Length"); declared != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(declared)); err == nil {
			diff := n - len(body)
			if diff < 0 {
				diff = -diff
			}
			out.Indicators[IndicatorLengthMismatch] = diff > defaults.ContentLengthTolerance
		}
	}

	lower := strings.ToLower(body)
	out.Indicators[IndicatorAdminContent] = matchesAny(lower, adminContentKeywords)
	out.Indicators[IndicatorDebugInfo] = matchesAny(lower, debugInfoKeywords)
	out.Indicators[IndicatorMalformed] = status == 0 || (status == 200 && body == "")

	for _, hit := range out.Indicators {
		if hit {
			out.SuccessScore++
		}
	}
	out.PotentiallySuccessful = out.SuccessScore >= e.ScoreThreshold
}

// exchange writes the raw request and reads until the response carries a
// complete header block or the read deadline fires. A partial read is
// returned alongside the error; partial evidence still scores.
func (e *Engine) exchange(ctx context.Context, raw string) ([]byte, error) {
	addr := net.JoinHostPort(e.host, e.port)
	dialer := &net.Dialer{Timeout: e.DialTimeout}

	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()

	if e.useTLS {
		tlsConn := tls.Client(conn, &tls.Config{
			InsecureSkipVerify: true, //nolint:gosec // probing deliberately misconfigured targets
			ServerName:         e.host,
		})
		if err := tlsConn.HandshakeContext(ctx); err != nil {
			return nil, fmt.Errorf("tls handshake %s: %w", addr, err)
		}
		conn = tlsConn
	}

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	} else {
		_ = conn.SetDeadline(time.Now().Add(e.ReadTimeout))
	}

	if _, err := conn.Write([]byte(raw)); err != nil {
		return nil, fmt.Errorf("write %s: %w", addr, err)
	}

	var resp []byte
	buf := make([]byte, defaults.ReadChunkSize)
	for len(resp) < defaults.MaxRawResponse {
		n, err := conn.Read(buf)
		resp = append(resp, buf[:n]...)
		if err != nil {
			return resp, err
		}
		if strings.Contains(string(resp), "\r\n\r\n") {
			break
		}
	}
	return resp, nil
}

// parseResponse splits a raw HTTP/1.x response into status, ordered
// headers, and body. Desynced targets emit garbage on purpose, so the
// parser never rejects: an unparseable status line yields status 0 and
// the whole payload as body.
func parseResponse(raw []byte) (int, Headers, string) {
	s := string(raw)

	head := s
	body := ""
	if idx := strings.Index(s, "\r\n\r\n"); idx >= 0 {
		head = s[:idx]
		body = s[idx+4:]
	}

	lines := strings.Split(head, "\r\n")
	if len(lines) == 0 {
		return 0, nil, s
	}

	status := parseStatusLine(lines[0])
	if status == 0 && !strings.HasPrefix(lines[0], "HTTP/") {
		// Not an HTTP response at all. Whatever arrived is evidence.
		return 0, nil, s
	}

	var headers Headers
	for _, line := range lines[1:] {
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		headers = append(headers, Header{
			Name:  strings.TrimSpace(name),
			Value: strings.TrimSpace(value),
		})
	}
	return status, headers, body
}

func parseStatusLine(line string) int {
	fields := strings.Fields(line)
	if len(fields) < 2 || !strings.HasPrefix(fields[0], "HTTP/") {
		return 0
	}
	code, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0
	}
	return code
}

func matchesAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}

// FamilySummary counts outcomes for one probe family.
type FamilySummary struct {
	Tested     int `json:"tested"`
	Successful int `json:"successful"`
	Suspicious int `json:"suspicious"`
	Errors     int `json:"errors"`
}

// Report is the fold over a comprehensive smuggling run.
type Report struct {
	Target     string                    `json:"target"`
	Duration   time.Duration             `json:"duration"`
	Families   map[Family]*FamilySummary `json:"families"`
	Successful []Outcome                 `json:"successful"`
	Suspicious []Outcome                 `json:"suspicious"`
	Outcomes   []Outcome                 `json:"outcomes"`
}

// RunComprehensive delivers the full probe catalog sequentially with the
// configured inter-probe delay. Cancellation stops before the next
// probe; outcomes already collected are returned.
func (e *Engine) RunComprehensive(ctx context.Context) *Report {
	report := &Report{
		Target:   net.JoinHostPort(e.host, e.port),
		Families: make(map[Family]*FamilySummary),
	}
	start := time.Now()

	probes := AllProbes(e.host)
	e.Logger.Info("smuggling run started",
		zap.String("target", report.Target),
		zap.Int("probes", len(probes)))

	for i, probe := range probes {
		if ctx.Err() != nil {
			break
		}
		if i > 0 && e.Delay > 0 {
			select {
			case <-ctx.Done():
				report.Duration = time.Since(start)
				return report
			case <-time.After(e.Delay):
			}
		}

		out := e.Send(ctx, probe)
		report.Outcomes = append(report.Outcomes, out)

		fam := report.Families[out.Family]
		if fam == nil {
			fam = &FamilySummary{}
			report.Families[out.Family] = fam
		}
		fam.Tested++
		switch {
		case out.Err != "":
			fam.Errors++
		case out.PotentiallySuccessful:
			fam.Successful++
			report.Successful = append(report.Successful, out)
			e.Logger.Warn("potential desync",
				zap.String("probe", out.Name),
				zap.Int("score", out.SuccessScore))
		case out.SuccessScore > 0:
			fam.Suspicious++
			report.Suspicious = append(report.Suspicious, out)
		}
	}

	report.Duration = time.Since(start)
	e.Logger.Info("smuggling run finished",
		zap.Int("successful", len(report.Successful)),
		zap.Int("suspicious", len(report.Suspicious)))
	return report
}
