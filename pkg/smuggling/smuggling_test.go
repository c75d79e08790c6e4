package smuggling

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fenrir-sec/fenrir/pkg/testutil"
)

func TestNewEngineTargetParsing(t *testing.T) {
	cases := []struct {
		target string
		host   string
		port   string
		tls    bool
	}{
		{"http://example.com", "example.com", "80", false},
		{"https://example.com", "example.com", "443", true},
		{"http://example.com:8080/path", "example.com", "8080", false},
		{"https://example.com:8443", "example.com", "8443", true},
	}
	for _, tc := range cases {
		e, err := NewEngine(tc.target, nil)
		require.NoError(t, err, tc.target)
		assert.Equal(t, tc.host, e.host)
		assert.Equal(t, tc.port, e.port)
		assert.Equal(t, tc.tls, e.useTLS)
	}

	_, err := NewEngine("://not-a-url", nil)
	assert.Error(t, err)
	_, err = NewEngine("relative/path", nil)
	assert.Error(t, err)
}

func TestCLTEBasicByteExact(t *testing.T) {
	probes := CLTEProbes("victim.example")
	require.NotEmpty(t, probes)
	raw := probes[0].Raw

	assert.Equal(t, 1, strings.Count(raw, "Content-Length: 13"), "exactly one Content-Length: 13")
	assert.Equal(t, 1, strings.Count(raw, "Transfer-Encoding: chunked"), "exactly one Transfer-Encoding: chunked")
	assert.True(t, strings.HasSuffix(raw, "0\r\n\r\nSMUGGLED"))
	assert.True(t, strings.HasPrefix(raw, "POST / HTTP/1.1\r\n"))
	assert.Contains(t, raw, "Host: victim.example\r\n")

	// The declared length covers exactly the chunked terminator plus the
	// smuggled bytes.
	body := raw[strings.Index(raw, "\r\n\r\n")+4:]
	assert.Len(t, body, 13)
}

func TestProbeCatalogFamilies(t *testing.T) {
	probes := AllProbes("h")
	byFamily := map[Family]int{}
	for _, p := range probes {
		byFamily[p.Family]++
		assert.NotEmpty(t, p.Name)
		assert.Contains(t, p.Raw, "Host: h\r\n", p.Name)
	}
	for _, fam := range []Family{FamilyCLTE, FamilyTECL, FamilyTETE, FamilyExpect, FamilyConnection, FamilyTiming} {
		assert.Greater(t, byFamily[fam], 0, "no probes for family %s", fam)
	}
}

func TestParseResponse(t *testing.T) {
	t.Run("well formed", func(t *testing.T) {
		raw := "HTTP/1.1 200 OK\r\nContent-Type: text/html\r\nContent-Length: 5\r\n\r\nhello"
		status, headers, body := parseResponse([]byte(raw))
		assert.Equal(t, 200, status)
		assert.Equal(t, "hello", body)
		assert.Equal(t, "text/html", headers.Get("content-type"))
		assert.Equal(t, "5", headers.Get("Content-Length"))
	})

	t.Run("garbage yields status zero", func(t *testing.T) {
		status, headers, body := parseResponse([]byte("not http at all"))
		assert.Equal(t, 0, status)
		assert.Nil(t, headers)
		assert.Equal(t, "not http at all", body)
	})

	t.Run("empty", func(t *testing.T) {
		status, _, body := parseResponse(nil)
		assert.Equal(t, 0, status)
		assert.Equal(t, "", body)
	})

	t.Run("duplicate headers keep wire order", func(t *testing.T) {
		raw := "HTTP/1.1 200 OK\r\nSet-Cookie: a=1\r\nSet-Cookie: b=2\r\n\r\n"
		_, headers, _ := parseResponse([]byte(raw))
		require.Len(t, headers, 2)
		assert.Equal(t, "a=1", headers[0].Value)
		assert.Equal(t, "b=2", headers[1].Value)
		assert.Equal(t, "a=1", headers.Get("set-cookie"))
	})

	t.Run("mangled status line", func(t *testing.T) {
		raw := "HTTP/1.1 garbled\r\nX-A: 1\r\n\r\nbody"
		status, headers, body := parseResponse([]byte(raw))
		assert.Equal(t, 0, status)
		assert.Equal(t, "1", headers.Get("X-A"))
		assert.Equal(t, "body", body)
	})
}

func TestScoring(t *testing.T) {
	e := &Engine{PreviewLen: 200, ScoreThreshold: 2}

	t.Run("clean 200", func(t *testing.T) {
		out := Outcome{Indicators: map[string]bool{}}
		e.score(&out, 200, Headers{{Name: "Content-Length", Value: "4"}}, "home")
		assert.Equal(t, 0, out.SuccessScore)
		assert.False(t, out.PotentiallySuccessful)
	})

	t.Run("status anomaly alone stays below threshold", func(t *testing.T) {
		out := Outcome{Indicators: map[string]bool{}}
		e.score(&out, 302, nil, "redirecting")
		assert.True(t, out.Indicators[IndicatorStatusAnomaly])
		assert.Equal(t, 1, out.SuccessScore)
		assert.False(t, out.PotentiallySuccessful)
	})

	t.Run("admin content plus anomaly crosses threshold", func(t *testing.T) {
		out := Outcome{Indicators: map[string]bool{}}
		e.score(&out, 302, nil, "redirecting to /admin/internal")
		assert.True(t, out.Indicators[IndicatorStatusAnomaly])
		assert.True(t, out.Indicators[IndicatorAdminContent])
		assert.Equal(t, 2, out.SuccessScore)
		assert.True(t, out.PotentiallySuccessful)
	})

	t.Run("content length mismatch tolerance", func(t *testing.T) {
		out := Outcome{Indicators: map[string]bool{}}
		e.score(&out, 200, Headers{{Name: "Content-Length", Value: "10"}}, "exactly_10")
		assert.False(t, out.Indicators[IndicatorLengthMismatch])

		out = Outcome{Indicators: map[string]bool{}}
		e.score(&out, 200, Headers{{Name: "Content-Length", Value: "500"}}, "short")
		assert.True(t, out.Indicators[IndicatorLengthMismatch])
	})

	t.Run("malformed response indicators", func(t *testing.T) {
		out := Outcome{Indicators: map[string]bool{}}
		e.score(&out, 0, nil, "raw bytes that never parsed")
		assert.True(t, out.Indicators[IndicatorMalformed])

		out = Outcome{Indicators: map[string]bool{}}
		e.score(&out, 200, nil, "")
		assert.True(t, out.Indicators[IndicatorMalformed])

		out = Outcome{Indicators: map[string]bool{}}
		e.score(&out, 200, nil, "ok")
		assert.False(t, out.Indicators[IndicatorMalformed])
	})

	t.Run("debug info", func(t *testing.T) {
		out := Outcome{Indicators: map[string]bool{}}
		e.score(&out, 200, nil, "Traceback (most recent call last)")
		assert.True(t, out.Indicators[IndicatorDebugInfo])
	})

	t.Run("threshold is configurable", func(t *testing.T) {
		strict := &Engine{PreviewLen: 200, ScoreThreshold: 3}
		out := Outcome{Indicators: map[string]bool{}}
		strict.score(&out, 302, nil, "admin page")
		assert.Equal(t, 2, out.SuccessScore)
		assert.False(t, out.PotentiallySuccessful)
	})
}

func TestSendAgainstScriptedServer(t *testing.T) {
	response := "HTTP/1.1 207 Odd\r\nContent-Length: 999\r\n\r\n" +
		"internal debug dump: " + strings.Repeat("x", 300)
	srv := testutil.NewRawTCPServer(t, []byte(response))
	defer srv.Close()

	e, err := NewEngine(srv.URL(), nil)
	require.NoError(t, err)

	out := e.Send(context.Background(), CLTEProbes(e.Host())[0])
	require.Empty(t, out.Err)
	assert.Equal(t, 207, out.StatusCode)
	assert.True(t, out.Indicators[IndicatorStatusAnomaly])
	assert.True(t, out.Indicators[IndicatorAdminContent], "internal keyword")
	assert.True(t, out.Indicators[IndicatorDebugInfo], "debug/dump keywords")
	assert.True(t, out.PotentiallySuccessful)
	assert.LessOrEqual(t, len(out.BodyPreview), e.PreviewLen)
	assert.Equal(t, "999", out.Headers.Get("Content-Length"))
}

func TestSendConnectionRefused(t *testing.T) {
	e, err := NewEngine("http://127.0.0.1:1", nil)
	require.NoError(t, err)

	out := e.Send(context.Background(), TimingProbes(e.Host())[0])
	assert.NotEmpty(t, out.Err)
	assert.Equal(t, 0, out.SuccessScore)
	assert.False(t, out.PotentiallySuccessful)
}

func TestRunComprehensive(t *testing.T) {
	srv := testutil.NewRawTCPServer(t, []byte("HTTP/1.1 200 OK\r\nContent-Length: 2\r\n\r\nok"))
	defer srv.Close()

	e, err := NewEngine(srv.URL(), nil)
	require.NoError(t, err)
	e.Delay = 0

	report := e.RunComprehensive(context.Background())
	assert.Equal(t, len(AllProbes(e.Host())), len(report.Outcomes))
	assert.Empty(t, report.Successful)

	total := 0
	for _, fam := range report.Families {
		total += fam.Tested
	}
	assert.Equal(t, len(report.Outcomes), total)
}

func TestRunComprehensiveCancellation(t *testing.T) {
	e, err := NewEngine("http://127.0.0.1:1", nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	report := e.RunComprehensive(ctx)
	assert.Empty(t, report.Outcomes)
}
