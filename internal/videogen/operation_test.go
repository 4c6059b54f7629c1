package videogen

import (
	"testing"
	"time"
)

func TestStateTerminal(t *testing.T) {
	tests := []struct {
		state State
		want  bool
	}{
		{StatePending, false},
		{StateDone, true},
		{StateFailed, true},
		{State("UNKNOWN"), false},
	}
	for _, tc := range tests {
		if got := tc.state.Terminal(); got != tc.want {
			t.Fatalf("State(%s).Terminal() = %v, want %v", tc.state, got, tc.want)
		}
	}
}

func TestPollingPolicyResolve(t *testing.T) {
	clientDefaults := PollingPolicy{Interval: 10 * time.Second, MaxWait: 3 * time.Minute}

	zero := PollingPolicy{}.resolve(clientDefaults)
	if zero.Interval != 10*time.Second || zero.MaxWait != 3*time.Minute {
		t.Fatalf("zero policy did not pick client defaults: %+v", zero)
	}

	explicit := PollingPolicy{Interval: time.Second, MaxWait: time.Minute}.resolve(clientDefaults)
	if explicit.Interval != time.Second || explicit.MaxWait != time.Minute {
		t.Fatalf("explicit policy overwritten: %+v", explicit)
	}

	partial := PollingPolicy{Interval: 5 * time.Second}.resolve(clientDefaults)
	if partial.Interval != 5*time.Second || partial.MaxWait != 3*time.Minute {
		t.Fatalf("partial policy resolved wrong: %+v", partial)
	}

	packageLevel := PollingPolicy{}.resolve(PollingPolicy{})
	if packageLevel.Interval != DefaultPollInterval || packageLevel.MaxWait != DefaultMaxWait {
		t.Fatalf("empty chain did not reach package defaults: %+v", packageLevel)
	}
}
