package attacks

import (
	"context"
	"crypto/tls"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/fenrir-sec/fenrir/pkg/analysis"
	"github.com/fenrir-sec/fenrir/pkg/duration"
	"github.com/fenrir-sec/fenrir/pkg/fuzzer"
	"github.com/fenrir-sec/fenrir/pkg/payloads"
	"github.com/fenrir-sec/fenrir/pkg/vuln"
)

// WebSocket probes a websocket endpoint by sending attack payloads as
// text frames and classifying whatever comes back. It runs outside the
// HTTP executor because the transport is a persistent framed connection,
// not a request/response cycle; results use the same fuzzer.Result shape
// so campaigns can fold them in uniformly.
type WebSocket struct {
	URL        string // ws:// or wss://
	SkipVerify bool
	Timeout    time.Duration
	Logger     *zap.Logger
}

// NewWebSocket targets a websocket URL. http/https schemes are rewritten
// to their websocket equivalents.
func NewWebSocket(target string, skipVerify bool, logger *zap.Logger) *WebSocket {
	switch {
	case strings.HasPrefix(target, "https://"):
		target = "wss://" + strings.TrimPrefix(target, "https://")
	case strings.HasPrefix(target, "http://"):
		target = "ws://" + strings.TrimPrefix(target, "http://")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebSocket{
		URL:        target,
		SkipVerify: skipVerify,
		Timeout:    duration.WebSocketRead,
		Logger:     logger.Named("websocket"),
	}
}

func (w *WebSocket) Name() string { return "websocket" }

// payloadInputs is the frame corpus: injection strings plus structural
// edge cases, since frame parsers choke on different inputs than query
// parsers do.
func (w *WebSocket) payloadInputs() []string {
	var inputs []string
	for _, set := range []payloads.Set{
		payloads.SQLInjection(),
		payloads.XSS(),
		payloads.CommandInjection(),
		payloads.SpecialCharacters(),
		payloads.NullByte(),
	} {
		inputs = append(inputs, set.Payloads...)
	}
	return inputs
}

// Run opens one connection per payload, sends it as a text frame, and
// reads a single response frame. Dial and read failures are recorded on
// the result; a target that drops the connection on a payload is itself
// a data point, not an abort.
func (w *WebSocket) Run(ctx context.Context) []fuzzer.Result {
	dialer := websocket.Dialer{
		HandshakeTimeout: duration.WebSocketHandshake,
		TLSClientConfig:  &tls.Config{InsecureSkipVerify: w.SkipVerify}, //nolint:gosec // probing deliberately misconfigured targets
	}

	var results []fuzzer.Result
	for _, payload := range w.payloadInputs() {
		select {
		case <-ctx.Done():
			return results
		default:
		}
		results = append(results, w.probe(ctx, &dialer, payload))
	}
	return results
}

func (w *WebSocket) probe(ctx context.Context, dialer *websocket.Dialer, payload string) fuzzer.Result {
	res := fuzzer.Result{
		TargetURL: w.URL,
		Method:    "WS",
		Payload:   payload,
	}

	start := time.Now()
	conn, httpResp, err := dialer.DialContext(ctx, w.URL, nil)
	if err != nil {
		res.ResponseTime = time.Since(start)
		res.Err = err.Error()
		if httpResp != nil {
			res.StatusCode = httpResp.StatusCode
		}
		w.Logger.Debug("dial failed", zap.Error(err))
		return res
	}
	defer conn.Close()
	if httpResp != nil {
		res.StatusCode = httpResp.StatusCode
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte(payload)); err != nil {
		res.ResponseTime = time.Since(start)
		res.Err = err.Error()
		return res
	}

	_ = conn.SetReadDeadline(time.Now().Add(w.Timeout))
	_, message, err := conn.ReadMessage()
	res.ResponseTime = time.Since(start)
	if err != nil {
		res.Err = err.Error()
		return res
	}

	res.ResponseSize = len(message)
	vulnerable, kind := analysis.ClassifyWebSocket(string(message), payload)
	res.Vulnerable = vulnerable
	res.Kind = vuln.Normalize(kind)
	return res
}
