package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDelayDoubles(t *testing.T) {
	p := Policy{InitialDelay: 3 * time.Second}

	want := []time.Duration{3 * time.Second, 6 * time.Second, 12 * time.Second, 24 * time.Second}
	for k, w := range want {
		if got := p.Delay(k + 1); got != w {
			t.Fatalf("Delay(%d)=%v want=%v", k+1, got, w)
		}
	}
}

func TestDoRunsExactlyAttempts(t *testing.T) {
	var delays []time.Duration
	p := Policy{
		Attempts:     5,
		InitialDelay: time.Second,
		Sleep: func(ctx context.Context, d time.Duration) error {
			delays = append(delays, d)
			return nil
		},
	}

	calls := 0
	err := Do(context.Background(), p, func(attempt int) error {
		calls++
		if attempt != calls {
			t.Fatalf("attempt=%d want=%d", attempt, calls)
		}
		return errors.New("still failing")
	})
	if err == nil {
		t.Fatal("Do err=nil, want the last failure")
	}
	if calls != 5 {
		t.Fatalf("calls=%d want=5", calls)
	}

	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second}
	if len(delays) != len(want) {
		t.Fatalf("delays=%v want=%v", delays, want)
	}
	for i := range want {
		if delays[i] != want[i] {
			t.Fatalf("delay[%d]=%v want=%v", i, delays[i], want[i])
		}
	}
}

func TestDoStopsOnSuccess(t *testing.T) {
	var delays []time.Duration
	p := Policy{
		Attempts:     5,
		InitialDelay: time.Second,
		Sleep: func(ctx context.Context, d time.Duration) error {
			delays = append(delays, d)
			return nil
		},
	}

	calls := 0
	err := Do(context.Background(), p, func(attempt int) error {
		calls++
		if attempt < 3 {
			return errors.New("flaky")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	if calls != 3 {
		t.Fatalf("calls=%d want=3", calls)
	}

	// Cumulative wait before the third attempt: 1s + 2s.
	var total time.Duration
	for _, d := range delays {
		total += d
	}
	if total != 3*time.Second {
		t.Fatalf("total delay=%v want=3s", total)
	}
}

func TestDoCanceledDuringSleep(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := Do(ctx, Policy{Attempts: 3, InitialDelay: time.Hour}, func(attempt int) error {
		calls++
		return errors.New("fail")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err=%v want context.Canceled", err)
	}
	if calls != 1 {
		t.Fatalf("calls=%d want=1 (no retry after cancellation)", calls)
	}
}

func TestDoNormalizesAttempts(t *testing.T) {
	calls := 0
	err := Do(context.Background(), Policy{Attempts: 0}, func(attempt int) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	if calls != 1 {
		t.Fatalf("calls=%d want=1", calls)
	}
}
