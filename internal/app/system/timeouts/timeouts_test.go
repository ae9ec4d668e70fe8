package timeouts_test

import (
	"context"
	"testing"
	"time"

	"github.com/dalemusser/basecamp/internal/app/system/timeouts"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestDefaults(t *testing.T) {
	timeouts.Reset()
	if got := timeouts.Short(); got != timeouts.DefaultShort {
		t.Errorf("Short: got %v, want %v", got, timeouts.DefaultShort)
	}
	if got := timeouts.Ping(); got != timeouts.DefaultPing {
		t.Errorf("Ping: got %v, want %v", got, timeouts.DefaultPing)
	}
}

func TestConfigure_ZeroKeepsCurrent(t *testing.T) {
	timeouts.Reset()
	defer timeouts.Reset()

	timeouts.Configure(timeouts.Config{Medium: 42 * time.Second})

	if got := timeouts.Medium(); got != 42*time.Second {
		t.Errorf("Medium: got %v, want 42s", got)
	}
	if got := timeouts.Long(); got != timeouts.DefaultLong {
		t.Errorf("Long: got %v, want default %v", got, timeouts.DefaultLong)
	}
}

func TestConfigureFromEnv(t *testing.T) {
	timeouts.Reset()
	defer timeouts.Reset()

	t.Setenv("BASECAMP_TIMEOUT_SHORT", "750ms")
	t.Setenv("BASECAMP_TIMEOUT_LONG", "not-a-duration")
	t.Setenv("BASECAMP_TIMEOUT_PING", "-1s")

	if n := timeouts.ConfigureFromEnv(); n != 1 {
		t.Errorf("configured: got %d, want 1", n)
	}
	if got := timeouts.Short(); got != 750*time.Millisecond {
		t.Errorf("Short: got %v, want 750ms", got)
	}
	if got := timeouts.Long(); got != timeouts.DefaultLong {
		t.Errorf("Long: got %v, want default", got)
	}
	if got := timeouts.Ping(); got != timeouts.DefaultPing {
		t.Errorf("Ping: got %v, want default", got)
	}
}

func TestWithTimeout_LogsDeadline(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	log := zap.New(core)

	ctx, cancel := timeouts.WithTimeout(context.Background(), time.Millisecond, log, "slow thing")
	<-ctx.Done()
	cancel()

	if logs.Len() != 1 {
		t.Fatalf("warnings: got %d, want 1", logs.Len())
	}
	if op := logs.All()[0].ContextMap()["operation"]; op != "slow thing" {
		t.Errorf("operation field: got %v", op)
	}
}

func TestWithTimeout_NoLogWhenCanceledEarly(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)

	_, cancel := timeouts.WithTimeout(context.Background(), time.Minute, zap.New(core), "fast thing")
	cancel()

	if logs.Len() != 0 {
		t.Errorf("warnings: got %d, want 0", logs.Len())
	}
}
