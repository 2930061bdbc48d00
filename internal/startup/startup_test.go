package startup

import (
	"context"
	"errors"
	"io"
	"log"
	"net"
	"testing"
	"time"
)

func quiet(t *testing.T) {
	t.Helper()
	prev := log.Writer()
	log.SetOutput(io.Discard)
	t.Cleanup(func() { log.SetOutput(prev) })
}

func TestWaitClockSyncSucceedsOnceEpochPassesThreshold(t *testing.T) {
	quiet(t)
	calls := 0
	now := func() time.Time {
		calls++
		if calls < 3 {
			return time.Unix(5, 0)
		}
		return time.Unix(1700000000, 0)
	}
	err := WaitClockSync(context.Background(), now, 100000, Options{Interval: time.Millisecond})
	if err != nil {
		t.Fatalf("WaitClockSync: %v", err)
	}
	if calls < 3 {
		t.Fatalf("calls = %d", calls)
	}
}

func TestWaitClockSyncTimesOut(t *testing.T) {
	quiet(t)
	now := func() time.Time { return time.Unix(0, 0) }
	err := WaitClockSync(context.Background(), now, 100000, Options{Timeout: 20 * time.Millisecond, Interval: 5 * time.Millisecond})
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}
}

func TestWaitClockSyncHonoursContext(t *testing.T) {
	quiet(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := WaitClockSync(ctx, func() time.Time { return time.Unix(0, 0) }, 100000, Options{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
}

func TestListenRetriesUntilAddressIsFree(t *testing.T) {
	quiet(t)
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := busy.Addr().String()
	go func() {
		time.Sleep(30 * time.Millisecond)
		busy.Close()
	}()

	ln, err := Listen(context.Background(), addr, Options{Timeout: 2 * time.Second, Interval: 5 * time.Millisecond})
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	ln.Close()
}

func TestListenTimesOut(t *testing.T) {
	quiet(t)
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer busy.Close()

	_, err = Listen(context.Background(), busy.Addr().String(), Options{Timeout: 20 * time.Millisecond, Interval: 5 * time.Millisecond})
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}
}
