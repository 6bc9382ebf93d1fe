package workerpool

import (
	"sync"
	"testing"
)

func TestPoolSizeCap(t *testing.T) {
	p := New(32)
	defer p.Destroy()
	if p.Size() > MaxWorkers {
		t.Fatalf("pool size = %d, want <= %d", p.Size(), MaxWorkers)
	}
}

func TestWorkerRoundRobinIndex(t *testing.T) {
	p := New(4)
	defer p.Destroy()

	for i := 0; i < 20; i++ {
		w := p.Worker(i)
		if w.ID() != i%p.Size() {
			t.Errorf("Worker(%d).ID() = %d, want %d", i, w.ID(), i%p.Size())
		}
	}
	// Same index always yields the same worker.
	if p.Worker(2) != p.Worker(2+p.Size()) {
		t.Error("Worker(i) and Worker(i+size) returned different workers")
	}
}

func TestBindCyclesThroughWorkers(t *testing.T) {
	p := New(3)
	defer p.Destroy()

	seen := map[int]int{}
	for i := 0; i < 3*p.Size(); i++ {
		seen[p.Bind().ID()]++
	}
	for id := 0; id < p.Size(); id++ {
		if seen[id] != 3 {
			t.Errorf("worker %d bound %d times, want 3", id, seen[id])
		}
	}
}

func TestWorkerSerializesTasks(t *testing.T) {
	p := New(1)
	defer p.Destroy()
	w := p.Worker(0)

	var mu sync.Mutex
	running := 0
	maxRunning := 0

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = w.Run(func() {
				mu.Lock()
				running++
				if running > maxRunning {
					maxRunning = running
				}
				mu.Unlock()

				mu.Lock()
				running--
				mu.Unlock()
			})
		}()
	}
	wg.Wait()

	if maxRunning != 1 {
		t.Fatalf("max concurrent tasks on one worker = %d, want 1", maxRunning)
	}
}

func TestRunAfterDestroy(t *testing.T) {
	p := New(2)
	p.Destroy()

	if err := p.Worker(0).Run(func() {}); err != ErrPoolDestroyed {
		t.Fatalf("Run after Destroy = %v, want ErrPoolDestroyed", err)
	}
	if !p.Destroyed() {
		t.Fatal("Destroyed() = false after Destroy")
	}
	// Destroy is idempotent.
	p.Destroy()
}
