package v1

import (
	"context"
	"log/slog"
	"sync"

	"github.com/samber/lo"

	"github.com/forptiter/study-assistant/pkg/safe"
	"github.com/forptiter/study-assistant/pkg/types"
)

type FileDeleter interface {
	DeleteFile(ctx context.Context, fileID, userID string) error
}

// FileContextTracker is the working set of documents attached to the current
// conversation. It is never persisted and is reset whenever the conversation changes.
type FileContextTracker struct {
	mu      sync.Mutex
	userID  string
	deleter FileDeleter
	entries []types.FileContext

	pending sync.WaitGroup
}

func NewFileContextTracker(userID string, deleter FileDeleter) *FileContextTracker {
	return &FileContextTracker{
		userID:  userID,
		deleter: deleter,
	}
}

// Add inserts the file unless an entry with the same id exists and reports whether it did.
func (t *FileContextTracker) Add(fileID, name string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if lo.ContainsBy(t.entries, func(f types.FileContext) bool { return f.ID == fileID }) {
		return false
	}
	t.entries = append(t.entries, types.FileContext{ID: fileID, Name: name})
	return true
}

// Remove drops the entry and asks the backend to delete the file in the background.
// The local entry is removed whatever the outcome of the delete call. Ids outside the
// working set are ignored and never reach the backend.
func (t *FileContextTracker) Remove(ctx context.Context, fileID string) (types.FileContext, bool) {
	t.mu.Lock()
	removed, idx, ok := lo.FindIndexOf(t.entries, func(f types.FileContext) bool { return f.ID == fileID })
	if ok {
		t.entries = append(t.entries[:idx:idx], t.entries[idx+1:]...)
	}
	t.mu.Unlock()

	if ok && t.deleter != nil {
		bgCtx := context.WithoutCancel(ctx)
		t.pending.Add(1)
		go safe.Run(func() {
			defer t.pending.Done()
			if err := t.deleter.DeleteFile(bgCtx, fileID, t.userID); err != nil {
				slog.Warn("failed to delete file context", slog.String("file_id", fileID),
					slog.String("user_id", t.userID), slog.String("error", err.Error()))
			}
		})
	}
	return removed, ok
}

// ListIDs returns the ids in insertion order.
func (t *FileContextTracker) ListIDs() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return lo.Map(t.entries, func(f types.FileContext, _ int) string { return f.ID })
}

func (t *FileContextTracker) Entries() []types.FileContext {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]types.FileContext(nil), t.entries...)
}

func (t *FileContextTracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

func (t *FileContextTracker) Reset() {
	t.mu.Lock()
	t.entries = nil
	t.mu.Unlock()
}

// Wait blocks until background delete calls have returned.
func (t *FileContextTracker) Wait() {
	t.pending.Wait()
}
