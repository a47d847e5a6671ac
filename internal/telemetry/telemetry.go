// Package telemetry records anonymous tool-invocation counts (operation
// name and success/failure only — never file contents or paths), gated by
// codemcp.toml's `telemetry = true` per spec.md §6's ambient-stack
// supplement.
//
// Adapted from the teacher's cmd/entire/cli/telemetry package: the same
// posthog-go client construction (fast-timeout transport, silent logger,
// ProtectedID machine identifier) and Client/NoOpClient split, reworked from
// tracking cobra command invocations with opt-out-by-default to tracking MCP
// tool invocations with opt-in-by-default, since codemcp.toml has no
// telemetry key at all until a project explicitly sets one.
package telemetry

import (
	"net"
	"net/http"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/denisbrodbeck/machineid"
	"github.com/posthog/posthog-go"
)

// APIKey and Endpoint are overridable at build time for production use;
// development builds talk to nothing meaningful by default.
var (
	APIKey   = "phc_development_key"
	Endpoint = "https://eu.i.posthog.com"
)

// Client records tool invocations. Implementations must be safe to call from
// multiple goroutines and must never block tool dispatch on network I/O.
type Client interface {
	TrackTool(tool string, success bool)
	Close()
}

// NoOpClient is used whenever telemetry is not explicitly enabled.
type NoOpClient struct{}

func (NoOpClient) TrackTool(string, bool) {}
func (NoOpClient) Close()                 {}

type silentLogger struct{}

func (silentLogger) Logf(string, ...any)   {}
func (silentLogger) Debugf(string, ...any) {}
func (silentLogger) Warnf(string, ...any)  {}
func (silentLogger) Errorf(string, ...any) {}

// PostHogClient is the real telemetry client.
type PostHogClient struct {
	client    posthog.Client
	machineID string
	version   string
	mu        sync.RWMutex
}

// NewClient builds a Client for the given codemcp version. enabled should be
// codemcp.toml's `telemetry` value; DESKAID_TELEMETRY_OPTOUT set to any
// non-empty value forces NoOpClient regardless.
//
//nolint:ireturn // factory: returns NoOpClient or PostHogClient depending on opt-in state
func NewClient(version string, enabled bool) Client {
	if os.Getenv("DESKAID_TELEMETRY_OPTOUT") != "" {
		return NoOpClient{}
	}
	if !enabled {
		return NoOpClient{}
	}

	id, err := machineid.ProtectedID("codemcp")
	if err != nil {
		return NoOpClient{}
	}

	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout: 100 * time.Millisecond,
		}).DialContext,
		TLSHandshakeTimeout:   100 * time.Millisecond,
		ResponseHeaderTimeout: 100 * time.Millisecond,
	}

	client, err := posthog.NewWithConfig(APIKey, posthog.Config{
		Endpoint:           Endpoint,
		ShutdownTimeout:    100 * time.Millisecond,
		BatchUploadTimeout: 200 * time.Millisecond,
		Transport:          transport,
		Logger:             silentLogger{},
		DisableGeoIP:       posthog.Ptr(true),
		DefaultEventProperties: posthog.NewProperties().
			Set("codemcp_version", version).
			Set("os", runtime.GOOS).
			Set("arch", runtime.GOARCH),
	})
	if err != nil {
		return NoOpClient{}
	}

	return &PostHogClient{client: client, machineID: id, version: version}
}

// TrackTool records one tool invocation outcome.
func (p *PostHogClient) TrackTool(tool string, success bool) {
	p.mu.RLock()
	id, c := p.machineID, p.client
	p.mu.RUnlock()
	if c == nil {
		return
	}

	props := posthog.NewProperties().
		Set("tool", tool).
		Set("success", success)

	//nolint:errcheck // best-effort telemetry, failures must not affect tool dispatch
	_ = c.Enqueue(posthog.Capture{
		DistinctId: id,
		Event:      "tool_invoked",
		Properties: props,
	})
}

// Close flushes any pending events.
func (p *PostHogClient) Close() {
	p.mu.RLock()
	c := p.client
	p.mu.RUnlock()
	if c != nil {
		_ = c.Close()
	}
}
