package metrics

import (
	"context"
	"testing"
)

func TestStartMetricsServerRejectsEmptyAddress(t *testing.T) {
	if err := StartMetricsServer(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty metrics address")
	}
}

func TestObserveFunctionsAreNoOpsUntilEnabled(t *testing.T) {
	// Enable() registers collectors exactly once process-wide; this test
	// only asserts that calling the observe* helpers before Enable never
	// panics, since other tests in this binary may call Enable first.
	ObserveCommandIssued("get_key_info")
	ObserveCommandFailed("get_key_info", "Timeout")
	ObserveSessionAuthenticated()
	ObserveWSFrame("in")
}
