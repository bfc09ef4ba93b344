package pipeline_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"uplift/internal/pipeline"
)

func TestControlStop(t *testing.T) {
	control := pipeline.NewControl()
	if control.StopRequested() {
		t.Fatal("fresh control reports stop")
	}
	if err := control.Checkpoint(); err != nil {
		t.Fatalf("Checkpoint: %v", err)
	}

	control.RequestStop()
	if !control.StopRequested() {
		t.Fatal("stop not recorded")
	}
	if err := control.Checkpoint(); !errors.Is(err, pipeline.ErrStopped) {
		t.Fatalf("Checkpoint after stop = %v, want ErrStopped", err)
	}
}

func TestControlPauseBlocksCheckpoint(t *testing.T) {
	control := pipeline.NewControl()
	control.Pause()

	released := make(chan error, 1)
	go func() {
		released <- control.Checkpoint()
	}()

	select {
	case err := <-released:
		t.Fatalf("Checkpoint returned %v while paused", err)
	case <-time.After(50 * time.Millisecond):
	}

	control.Resume()
	select {
	case err := <-released:
		if err != nil {
			t.Fatalf("Checkpoint after resume: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Checkpoint did not return after resume")
	}
}

func TestControlStopWakesPaused(t *testing.T) {
	control := pipeline.NewControl()
	control.Pause()

	released := make(chan error, 1)
	go func() {
		released <- control.Checkpoint()
	}()

	control.RequestStop()
	select {
	case err := <-released:
		if !errors.Is(err, pipeline.ErrStopped) {
			t.Fatalf("Checkpoint = %v, want ErrStopped", err)
		}
	case <-time.After(time.Second):
		t.Fatal("stop did not wake paused checkpoint")
	}
}

func TestControlTogglePause(t *testing.T) {
	control := pipeline.NewControl()
	if !control.TogglePause() {
		t.Fatal("first toggle should pause")
	}
	if control.TogglePause() {
		t.Fatal("second toggle should resume")
	}
}

func TestControlSleepHonorsStop(t *testing.T) {
	control := pipeline.NewControl()
	control.RequestStop()

	start := time.Now()
	err := control.Sleep(context.Background(), 5*time.Second)
	if !errors.Is(err, pipeline.ErrStopped) {
		t.Fatalf("Sleep = %v, want ErrStopped", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("Sleep took %v despite stop", elapsed)
	}
}

func TestControlSleepHonorsContext(t *testing.T) {
	control := pipeline.NewControl()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := control.Sleep(ctx, 5*time.Second); !errors.Is(err, context.Canceled) {
		t.Fatalf("Sleep = %v, want context.Canceled", err)
	}
}
