package timeouts

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestConfigure_IgnoresZero(t *testing.T) {
	defer Reset()

	Configure(Config{Send: 3 * time.Second})
	if Send() != 3*time.Second {
		t.Errorf("Send = %v, want 3s", Send())
	}
	if Short() != DefaultShort {
		t.Errorf("Short = %v, want default %v", Short(), DefaultShort)
	}
}

func TestReset(t *testing.T) {
	Configure(Config{Sweep: time.Second, Inbound: time.Second})
	Reset()
	want := Config{
		Ping: DefaultPing, Short: DefaultShort, Medium: DefaultMedium,
		Send: DefaultSend, Inbound: DefaultInbound, Sweep: DefaultSweep,
	}
	if got := Current(); got != want {
		t.Errorf("Current = %+v, want %+v", got, want)
	}
}

func TestWithTimeout_Expires(t *testing.T) {
	ctx, cancel := WithTimeout(context.Background(), time.Millisecond, zap.NewNop(), "test")
	defer cancel()
	<-ctx.Done()
	if ctx.Err() != context.DeadlineExceeded {
		t.Errorf("Err = %v, want DeadlineExceeded", ctx.Err())
	}
}
