package memory

import (
	"testing"

	"ai-tripplanner-bot/pkg/store"
)

func TestGetOrCreateReturnsSameSession(t *testing.T) {
	repo := NewSessionRepository()

	first := repo.GetOrCreate(100)
	first.State = store.StateSelectingDays

	second := repo.GetOrCreate(100)
	if second != first {
		t.Error("GetOrCreate should return the stored session instance")
	}
	if second.State != store.StateSelectingDays {
		t.Errorf("State = %q, want the stored state", second.State)
	}
}

func TestSessionsAreIsolatedPerChat(t *testing.T) {
	repo := NewSessionRepository()

	a := repo.GetOrCreate(1)
	b := repo.GetOrCreate(2)

	a.NumDays = 3
	if b.NumDays != 0 {
		t.Error("chats must not share session state")
	}
}

func TestClear(t *testing.T) {
	repo := NewSessionRepository()
	old := repo.GetOrCreate(100)
	old.State = store.StateGenerating

	repo.Clear(100)

	fresh := repo.GetOrCreate(100)
	if fresh == old {
		t.Error("Clear should discard the stored session")
	}
	if fresh.State != store.StateIdle {
		t.Errorf("State = %q, want a fresh idle session", fresh.State)
	}
}

func TestAll(t *testing.T) {
	repo := NewSessionRepository()
	repo.GetOrCreate(1)
	repo.GetOrCreate(2)
	repo.GetOrCreate(3)

	if got := len(repo.All()); got != 3 {
		t.Errorf("All returned %d sessions, want 3", got)
	}
}
