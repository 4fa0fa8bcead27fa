package v1

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/forptiter/study-assistant/app/core"
	"github.com/forptiter/study-assistant/pkg/chatapi"
	"github.com/forptiter/study-assistant/pkg/types"
)

const testUserID = "user-1"

// fakeBackend plays the chat/file API. When persist is set it writes the exchange
// into the store like the real backend does.
type fakeBackend struct {
	t  *testing.T
	db *memDB

	mu        sync.Mutex
	status    int
	chunks    []string
	persist   bool
	completed bool
	agents    []types.Agent
	onChat    func(req types.ChatRequest)

	requests    []types.ChatRequest
	uploads     []string
	uploadSpace []string
	deleted     []string
	agentCalls  int
}

func (b *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/chat":
		b.serveChat(w, r)
	case r.URL.Path == "/file/upload":
		b.serveUpload(w, r)
	case strings.HasPrefix(r.URL.Path, "/file/") && r.Method == http.MethodDelete:
		b.mu.Lock()
		b.deleted = append(b.deleted, strings.TrimPrefix(r.URL.Path, "/file/"))
		b.mu.Unlock()
		w.WriteHeader(http.StatusOK)
	case r.URL.Path == "/agents":
		b.mu.Lock()
		b.agentCalls++
		agents := b.agents
		b.mu.Unlock()
		_ = json.NewEncoder(w).Encode(types.AgentList{Agents: agents})
	default:
		http.NotFound(w, r)
	}
}

func (b *fakeBackend) serveChat(w http.ResponseWriter, r *http.Request) {
	var req types.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	b.mu.Lock()
	b.requests = append(b.requests, req)
	status, chunks, persist, completed, hook := b.status, b.chunks, b.persist, b.completed, b.onChat
	b.mu.Unlock()

	if hook != nil {
		hook(req)
	}
	if status != 0 && status != http.StatusOK {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if completed {
		w.Header().Set("Trailer", chatapi.COMPLETION_TRAILER)
	}
	flusher, _ := w.(http.Flusher)
	for _, c := range chunks {
		_, _ = io.WriteString(w, c)
		if flusher != nil {
			flusher.Flush()
		}
	}

	if persist {
		now := time.Now()
		b.db.addMessage(types.Message{ChatID: req.ChatID, Role: types.ROLE_USER, Content: req.Message, CreatedAt: now})
		b.db.addMessage(types.Message{
			ChatID:    req.ChatID,
			Role:      types.ROLE_ASSISTANT,
			Content:   strings.Join(chunks, ""),
			Sources:   types.MessageSources{json.RawMessage(`{"title":"Thermodynamics"}`)},
			CreatedAt: now.Add(time.Millisecond),
		})
	}
	if completed {
		w.Header().Set(chatapi.COMPLETION_TRAILER, req.ChatID)
	}
}

func (b *fakeBackend) serveUpload(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	defer file.Close()
	_, _ = io.Copy(io.Discard, file)

	spaceID := r.FormValue("space_id")
	id := "file-" + header.Filename

	b.mu.Lock()
	b.uploads = append(b.uploads, header.Filename)
	b.uploadSpace = append(b.uploadSpace, spaceID)
	b.mu.Unlock()

	if spaceID != "" {
		b.db.mu.Lock()
		b.db.files = append(b.db.files, types.UserFile{
			ID: id, UserID: r.FormValue("user_id"), SpaceID: spaceID, Filename: header.Filename, CreatedAt: time.Now(),
		})
		b.db.mu.Unlock()
	}
	_ = json.NewEncoder(w).Encode(types.UploadFileResponse{Success: true, FileID: id, Filename: header.Filename})
}

func (b *fakeBackend) lastRequest() types.ChatRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	require.NotEmpty(b.t, b.requests)
	return b.requests[len(b.requests)-1]
}

type backendCalls struct {
	requests    []types.ChatRequest
	uploads     []string
	uploadSpace []string
	deleted     []string
	agentCalls  int
}

func (b *fakeBackend) snapshot() backendCalls {
	b.mu.Lock()
	defer b.mu.Unlock()
	return backendCalls{
		requests:    append([]types.ChatRequest(nil), b.requests...),
		uploads:     append([]string(nil), b.uploads...),
		uploadSpace: append([]string(nil), b.uploadSpace...),
		deleted:     append([]string(nil), b.deleted...),
		agentCalls:  b.agentCalls,
	}
}

func (b *fakeBackend) set(fn func(b *fakeBackend)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fn(b)
}

type testEnv struct {
	core    *core.Core
	db      *memDB
	backend *fakeBackend
	ctx     context.Context
}

func newTestEnv(t *testing.T, adjust ...func(*core.CoreConfig)) *testEnv {
	db := newMemDB()
	backend := &fakeBackend{t: t, db: db, persist: true, completed: true}
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	cfg := core.CoreConfig{}
	cfg.ChatAPI.Endpoint = srv.URL
	cfg.Chat.ReconcileDelay.Duration = 10 * time.Millisecond
	cfg.Chat.ReconcileTimeout.Duration = 200 * time.Millisecond
	for _, fn := range adjust {
		fn(&cfg)
	}

	return &testEnv{
		core:    core.NewCore(cfg, core.WithStore(&memProvider{db: db})),
		db:      db,
		backend: backend,
		ctx:     InjectUser(context.Background(), types.User{ID: testUserID, Email: "student@example.edu"}),
	}
}

func (e *testEnv) seedSession(id, spaceID string, age time.Duration) types.ChatSession {
	s := types.ChatSession{
		ID:        id,
		UserID:    testUserID,
		SpaceID:   spaceID,
		Name:      types.DEFAULT_CHAT_SESSION_NAME,
		CreatedAt: time.Now().Add(-age),
	}
	e.db.mu.Lock()
	e.db.sessions = append(e.db.sessions, s)
	e.db.mu.Unlock()
	return s
}

func (e *testEnv) seedSpace(id, name string) types.Space {
	s := types.Space{ID: id, UserID: testUserID, Name: name, CreatedAt: time.Now()}
	e.db.mu.Lock()
	e.db.spaces = append(e.db.spaces, s)
	e.db.mu.Unlock()
	return s
}

func writeTempFile(t *testing.T, name string, size int) string {
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(strings.Repeat("x", size)), 0o600))
	return path
}
