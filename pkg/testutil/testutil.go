// Package testutil provides shared test helpers for fenrir: concurrency
// harnesses, panic assertion, and a raw TCP fixture for exercising the
// smuggling transport against scripted byte responses.
package testutil

import (
	"net"
	"runtime"
	"sync"
	"testing"
	"time"
)

// RunConcurrently runs fn count times across goroutines, released
// together, and waits for all to finish. Useful for race testing.
func RunConcurrently(count int, fn func(i int)) {
	var wg sync.WaitGroup
	start := make(chan struct{})
	wg.Add(count)
	for i := 0; i < count; i++ {
		go func(idx int) {
			defer wg.Done()
			<-start
			fn(idx)
		}(i)
	}
	close(start)
	wg.Wait()
}

// AssertNoPanic calls fn and fails the test if it panics.
func AssertNoPanic(t *testing.T, name string, fn func()) {
	t.Helper()
	defer func() {
		if r := recover(); r != nil {
			t.Errorf("%s: unexpected panic: %v", name, r)
		}
	}()
	fn()
}

// AssertTimeout runs fn and fails if it doesn't complete within d.
func AssertTimeout(t *testing.T, name string, d time.Duration, fn func()) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		defer close(done)
		fn()
	}()
	select {
	case <-done:
	case <-time.After(d):
		t.Fatalf("%s: timed out after %v (possible deadlock)", name, d)
	}
}

// GoroutineTracker captures goroutine count before/after a test to
// detect leaks.
type GoroutineTracker struct {
	before int
}

// TrackGoroutines snapshots the current goroutine count. Call CheckLeaks
// after.
func TrackGoroutines() *GoroutineTracker {
	runtime.Gosched()
	return &GoroutineTracker{before: runtime.NumGoroutine()}
}

// CheckLeaks waits briefly for goroutines to drain, then fails the test
// if more goroutines are running than when tracking started. tolerance
// allows N extra goroutines for runtime jitter.
func (g *GoroutineTracker) CheckLeaks(t *testing.T, tolerance int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		runtime.Gosched()
		if runtime.NumGoroutine() <= g.before+tolerance {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	after := runtime.NumGoroutine()
	if after > g.before+tolerance {
		t.Errorf("goroutine leak: before=%d after=%d tolerance=%d", g.before, after, tolerance)
	}
}

// RawTCPServer answers every accepted connection with the given bytes
// after consuming whatever the client sent, then closes. It exists for
// protocol-level tests where httptest would normalize away the malformed
// responses under test.
type RawTCPServer struct {
	ln       net.Listener
	response []byte
	wg       sync.WaitGroup
}

// NewRawTCPServer starts a listener on a loopback port serving response
// verbatim. Callers must Close it.
func NewRawTCPServer(t *testing.T, response []byte) *RawTCPServer {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	s := &RawTCPServer{ln: ln, response: response}
	s.wg.Add(1)
	go s.serve()
	return s
}

// Addr returns the host:port the server listens on.
func (s *RawTCPServer) Addr() string { return s.ln.Addr().String() }

// URL returns an http:// URL pointing at the server.
func (s *RawTCPServer) URL() string { return "http://" + s.Addr() }

// Close stops the listener and waits for handlers to finish.
func (s *RawTCPServer) Close() {
	s.ln.Close()
	s.wg.Wait()
}

func (s *RawTCPServer) serve() {
	defer s.wg.Done()
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		s.wg.Add(1)
		go func(c net.Conn) {
			defer s.wg.Done()
			defer c.Close()
			buf := make([]byte, 4096)
			_ = c.SetReadDeadline(time.Now().Add(time.Second))
			// Drain the request; scripted fixtures reply regardless of
			// what arrived.
			_, _ = c.Read(buf)
			_, _ = c.Write(s.response)
		}(conn)
	}
}
