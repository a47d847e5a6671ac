package telemetry

import "testing"

func TestNewClient_EnvOptOutWins(t *testing.T) {
	t.Setenv("DESKAID_TELEMETRY_OPTOUT", "1")

	client := NewClient("1.0.0", true)

	if _, ok := client.(NoOpClient); !ok {
		t.Error("DESKAID_TELEMETRY_OPTOUT=1 should return NoOpClient even when enabled=true")
	}
}

func TestNewClient_NotEnabledByDefault(t *testing.T) {
	client := NewClient("1.0.0", false)

	if _, ok := client.(NoOpClient); !ok {
		t.Error("enabled=false should return NoOpClient")
	}
}

func TestNoOpClient_MethodsDoNotPanic(_ *testing.T) {
	var client Client = NoOpClient{}
	client.TrackTool("read_file", true)
	client.Close()
}
