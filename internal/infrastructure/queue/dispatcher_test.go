package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/videocall/room-access/internal/core/domain"
)

type recordingRepo struct {
	mu     sync.Mutex
	events []domain.AuthEvent
	err    error
	block  chan struct{}
	delay  time.Duration
}

func (r *recordingRepo) InsertEvent(ctx context.Context, e *domain.AuthEvent) error {
	if r.block != nil {
		<-r.block
	}
	if r.delay > 0 {
		time.Sleep(r.delay)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, *e)
	return r.err
}

func (r *recordingRepo) snapshot() []domain.AuthEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.AuthEvent(nil), r.events...)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not met before deadline")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestDispatcher_PreservesPerSubjectOrder(t *testing.T) {
	repo := &recordingRepo{}
	d := NewDispatcher(4, repo, zerolog.Nop())
	d.Start()

	kinds := []domain.AuthEventKind{domain.EventLogin, domain.EventGuestIssued, domain.EventLogout}
	for _, k := range kinds {
		d.Publish(domain.AuthEvent{Kind: k, Subject: "u-1"})
	}
	waitFor(t, func() bool { return len(repo.snapshot()) == len(kinds) })
	d.Close()
	d.Wait()

	for i, e := range repo.snapshot() {
		if e.Kind != kinds[i] {
			t.Fatalf("event %d: want %s, got %s", i, kinds[i], e.Kind)
		}
	}
}

func TestDispatcher_SameSubjectSameShard(t *testing.T) {
	d := NewDispatcher(8, &recordingRepo{}, zerolog.Nop())

	first := d.shardIndex("guest_0123456789")
	for i := 0; i < 10; i++ {
		if got := d.shardIndex("guest_0123456789"); got != first {
			t.Fatalf("shard changed: %d vs %d", got, first)
		}
	}
	if idx := d.shardIndex(""); idx < 0 || idx >= 8 {
		t.Fatalf("shard index out of range: %d", idx)
	}
}

func TestDispatcher_PublishNeverBlocks(t *testing.T) {
	repo := &recordingRepo{block: make(chan struct{})}
	d := NewDispatcher(1, repo, zerolog.Nop())
	d.Start()

	done := make(chan struct{})
	go func() {
		for i := 0; i < channelBuffer*3; i++ {
			d.Publish(domain.AuthEvent{Kind: domain.EventConnectionAdmit, Subject: "s"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("publish blocked on a full queue")
	}
	close(repo.block)
	d.Close()
	d.Wait()
}

func TestDispatcher_WriteErrorsDoNotStopWorker(t *testing.T) {
	repo := &recordingRepo{err: errors.New("mongo down")}
	d := NewDispatcher(1, repo, zerolog.Nop())
	d.Start()

	d.Publish(domain.AuthEvent{Kind: domain.EventLogin, Subject: "u-1"})
	d.Publish(domain.AuthEvent{Kind: domain.EventLogout, Subject: "u-1"})
	waitFor(t, func() bool { return len(repo.snapshot()) == 2 })
	d.Close()
	d.Wait()
}

func TestDispatcher_CloseDrainsQueuedEvents(t *testing.T) {
	repo := &recordingRepo{delay: 5 * time.Millisecond}
	d := NewDispatcher(1, repo, zerolog.Nop())
	d.Start()

	const n = 50
	for i := 0; i < n; i++ {
		d.Publish(domain.AuthEvent{Kind: domain.EventConnectionAdmit, Subject: "s"})
	}
	d.Close()
	d.Wait()

	if got := len(repo.snapshot()); got != n {
		t.Fatalf("expected %d events written after close, got %d", n, got)
	}
}

func TestDispatcher_PublishAfterCloseIsDropped(t *testing.T) {
	repo := &recordingRepo{}
	d := NewDispatcher(2, repo, zerolog.Nop())
	d.Start()
	d.Close()
	d.Close()

	d.Publish(domain.AuthEvent{Kind: domain.EventLogin, Subject: "u-1"})
	d.Wait()

	if got := len(repo.snapshot()); got != 0 {
		t.Fatalf("expected no writes after close, got %d", got)
	}
}
