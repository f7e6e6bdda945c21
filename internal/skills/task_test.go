package skills

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestTask(t *testing.T) {
	task := Go(context.Background(), func(ctx context.Context) (int, error) {
		return 42, nil
	})
	got, err := task.Wait(context.Background())
	if err != nil || got != 42 {
		t.Errorf("Wait() = %d, %v, want 42, nil", got, err)
	}
}

func TestTask_WaitCancelled(t *testing.T) {
	release := make(chan struct{})
	var innerErr error
	task := Go(context.Background(), func(ctx context.Context) (string, error) {
		<-release
		innerErr = ctx.Err()
		return "done", nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := task.Wait(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Wait() error = %v, want context.Canceled", err)
	}

	close(release)
	<-task.Done()
	if innerErr != nil {
		t.Errorf("operation saw cancellation: %v", innerErr)
	}
	got, err := task.Wait(context.Background())
	if got != "done" || err != nil {
		t.Errorf("Wait() after finish = %q, %v", got, err)
	}
}

func TestTask_OperationContextNotCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	started := make(chan struct{})
	task := Go(ctx, func(ctx context.Context) (bool, error) {
		close(started)
		time.Sleep(10 * time.Millisecond)
		return ctx.Err() == nil, nil
	})
	<-started
	cancel()
	ok, _ := task.Wait(context.Background())
	if !ok {
		t.Error("operation context was cancelled mid-operation")
	}
}

func TestKeyedMutex(t *testing.T) {
	k := newKeyedMutex()

	var (
		mu      sync.Mutex
		active  int
		maxSeen int
		wg      sync.WaitGroup
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := k.Lock(skillKey("same"))
			mu.Lock()
			active++
			if active > maxSeen {
				maxSeen = active
			}
			mu.Unlock()
			time.Sleep(time.Millisecond)
			mu.Lock()
			active--
			mu.Unlock()
			unlock()
		}()
	}
	wg.Wait()
	if maxSeen != 1 {
		t.Errorf("%d holders of the same key at once, want 1", maxSeen)
	}
	if k.size() != 0 {
		t.Errorf("size() = %d after all unlocks, want 0", k.size())
	}
}

func TestKeyedMutex_DistinctKeys(t *testing.T) {
	k := newKeyedMutex()
	unlockA := k.Lock(skillKey("a"))
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlock := k.Lock(skillKey("b"), nameKey("b"), skillKey("b"))
		unlock()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("distinct key blocked")
	}
}
