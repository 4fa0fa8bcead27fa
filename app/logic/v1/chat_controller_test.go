package v1

import (
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forptiter/study-assistant/app/core"
	"github.com/forptiter/study-assistant/pkg/errors"
	"github.com/forptiter/study-assistant/pkg/i18n"
	"github.com/forptiter/study-assistant/pkg/types"
)

func TestBootstrapCreatesSessionWhenNone(t *testing.T) {
	env := newTestEnv(t)
	ctrl := NewChatController(env.ctx, env.core)

	require.NoError(t, ctrl.Bootstrap(env.ctx))
	assert.Equal(t, STATE_SESSION_ACTIVE, ctrl.State())
	require.Len(t, ctrl.Sessions(), 1)

	active := ctrl.ActiveSession()
	require.NotNil(t, active)
	assert.Equal(t, types.DEFAULT_CHAT_SESSION_NAME, active.Name)
	assert.Empty(t, active.SpaceID)
	assert.Empty(t, ctrl.Messages())
}

func TestBootstrapSelectsMostRecent(t *testing.T) {
	env := newTestEnv(t)
	env.seedSession("old", "", 2*time.Hour)
	recent := env.seedSession("recent", "", time.Hour)
	env.db.sessions[1].AgentID = "gpt-4o"
	env.db.addMessage(types.Message{ChatID: recent.ID, Role: types.ROLE_USER, Content: "hello", CreatedAt: time.Now()})
	env.seedSession("in-space", "space-1", time.Minute)

	ctrl := NewChatController(env.ctx, env.core)
	require.NoError(t, ctrl.Bootstrap(env.ctx))

	assert.Equal(t, "recent", ctrl.ActiveSession().ID)
	assert.Equal(t, "gpt-4o", ctrl.AgentID())
	require.Len(t, ctrl.Messages(), 1)
	assert.Equal(t, "hello", ctrl.Messages()[0].Content)
	assert.Equal(t, []string{"recent", "old"}, lo.Map(ctrl.Sessions(), func(s types.ChatSession, _ int) string { return s.ID }))
}

func TestSendStreamsAndReconcilesOnCompletion(t *testing.T) {
	env := newTestEnv(t)
	env.backend.set(func(b *fakeBackend) { b.chunks = []string{"Entropy ", "is a measure ", "of disorder."} })
	env.db.creds[testUserID] = types.UniversityCredentials{UniversityUsername: "sv01"}

	ctrl := NewChatController(env.ctx, env.core)
	require.NoError(t, ctrl.Bootstrap(env.ctx))

	var (
		mu      sync.Mutex
		updates []string
	)
	ctrl.Subscribe(func(e Event) {
		if e.Type == EVENT_MESSAGE_UPDATED && e.Message != nil {
			mu.Lock()
			updates = append(updates, e.Message.Content)
			mu.Unlock()
		}
	})

	require.NoError(t, ctrl.Send(env.ctx, SendInput{Text: "What is entropy?"}))
	assert.Equal(t, STATE_SESSION_ACTIVE, ctrl.State())

	msgs := ctrl.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "Entropy is a measure of disorder.", msgs[1].Content)

	mu.Lock()
	for i := 1; i < len(updates); i++ {
		assert.True(t, strings.HasPrefix(updates[i], updates[i-1]), "display must only grow")
	}
	assert.Equal(t, "Entropy is a measure of disorder.", updates[len(updates)-1])
	mu.Unlock()

	req := env.backend.lastRequest()
	assert.True(t, req.Stream)
	assert.Equal(t, "What is entropy?", req.Message)
	assert.Equal(t, ctrl.ActiveSession().ID, req.ChatID)
	assert.Equal(t, testUserID, *req.UserID)
	assert.Empty(t, req.ConversationHistory)
	assert.Empty(t, req.FileIDs)
	assert.Nil(t, req.SpaceID)
	assert.Nil(t, req.AgentID)
	require.NotNil(t, req.UniversityCredentials)
	assert.Equal(t, "sv01", req.UniversityCredentials.UniversityUsername)

	ctrl.Wait()
	msgs = ctrl.Messages()
	require.Len(t, msgs, 2)
	assert.False(t, msgs[0].IsLocal())
	assert.False(t, msgs[1].IsLocal())
	assert.Len(t, msgs[1].Sources, 1)
	assert.Equal(t, "Entropy is a measure of disorder.", msgs[1].Content)
}

func TestSendDisplaysChunksVerbatim(t *testing.T) {
	env := newTestEnv(t)
	chunks := []string{"Entropy is:\n", "[", "1] a measure\n\n"}
	env.backend.set(func(b *fakeBackend) { b.chunks = chunks })

	ctrl := NewChatController(env.ctx, env.core)
	require.NoError(t, ctrl.Bootstrap(env.ctx))

	var (
		mu      sync.Mutex
		updates []string
	)
	ctrl.Subscribe(func(e Event) {
		if e.Type == EVENT_MESSAGE_UPDATED && e.Message != nil {
			mu.Lock()
			updates = append(updates, e.Message.Content)
			mu.Unlock()
		}
	})

	require.NoError(t, ctrl.Send(env.ctx, SendInput{Text: "What is entropy?"}))
	full := strings.Join(chunks, "")

	mu.Lock()
	require.NotEmpty(t, updates)
	for i, u := range updates {
		assert.True(t, strings.HasPrefix(full, u), "update %d: %q", i, u)
		if i > 0 {
			assert.True(t, strings.HasPrefix(u, updates[i-1]))
		}
	}
	assert.Equal(t, full, updates[len(updates)-1])
	mu.Unlock()

	assert.Equal(t, full, ctrl.Messages()[1].Content)
	ctrl.Wait()
}

func TestSendFallsBackToPolling(t *testing.T) {
	env := newTestEnv(t)
	env.backend.set(func(b *fakeBackend) { b.completed = false; b.chunks = []string{"42"} })

	ctrl := NewChatController(env.ctx, env.core)
	require.NoError(t, ctrl.Bootstrap(env.ctx))
	require.NoError(t, ctrl.Send(env.ctx, SendInput{Text: "answer?"}))
	ctrl.Wait()

	msgs := ctrl.Messages()
	require.Len(t, msgs, 2)
	assert.False(t, msgs[1].IsLocal())
	assert.Equal(t, "42", msgs[1].Content)
}

func TestSendKeepsLocalLogWhenReplyNeverPersisted(t *testing.T) {
	env := newTestEnv(t)
	env.backend.set(func(b *fakeBackend) {
		b.persist, b.completed = false, false
		b.chunks = []string{"partial ", "answer"}
	})

	ctrl := NewChatController(env.ctx, env.core)
	require.NoError(t, ctrl.Bootstrap(env.ctx))
	require.NoError(t, ctrl.Send(env.ctx, SendInput{Text: "question"}))
	ctrl.Wait()

	msgs := ctrl.Messages()
	require.Len(t, msgs, 2)
	assert.True(t, msgs[0].IsLocal())
	assert.Equal(t, "partial answer", msgs[1].Content)
}

func TestSendEmptyStreamKeepsEmptyReply(t *testing.T) {
	env := newTestEnv(t)
	env.backend.set(func(b *fakeBackend) {
		b.persist, b.completed, b.chunks = false, false, nil
	})

	ctrl := NewChatController(env.ctx, env.core)
	require.NoError(t, ctrl.Bootstrap(env.ctx))
	require.NoError(t, ctrl.Send(env.ctx, SendInput{Text: "anyone?"}))

	msgs := ctrl.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, types.ROLE_ASSISTANT, msgs[1].Role)
	assert.Empty(t, msgs[1].Content)
	ctrl.Wait()
}

func TestSendFailureAppendsSingleNotice(t *testing.T) {
	env := newTestEnv(t)
	env.backend.set(func(b *fakeBackend) { b.status = http.StatusInternalServerError })

	ctrl := NewChatController(env.ctx, env.core)
	require.NoError(t, ctrl.Bootstrap(env.ctx))

	err := ctrl.Send(env.ctx, SendInput{Text: "What is entropy?"})
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindTransport))
	assert.Equal(t, STATE_SESSION_ACTIVE, ctrl.State())

	msgs := ctrl.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, types.ROLE_USER, msgs[0].Role)
	assert.Equal(t, "What is entropy?", msgs[0].Content)
	assert.Equal(t, types.ROLE_ASSISTANT, msgs[1].Role)
	assert.Equal(t, env.core.Text(i18n.ERROR_CHAT_REQUEST_FAILED, nil), msgs[1].Content)

	// the controller accepts the next message
	env.backend.set(func(b *fakeBackend) { b.status = 0; b.chunks = []string{"ok"} })
	require.NoError(t, ctrl.Send(env.ctx, SendInput{Text: "retry"}))
	ctrl.Wait()
}

func TestSendNamesSessionOnce(t *testing.T) {
	env := newTestEnv(t)
	env.backend.set(func(b *fakeBackend) { b.chunks = []string{"ok"} })

	ctrl := NewChatController(env.ctx, env.core)
	require.NoError(t, ctrl.Bootstrap(env.ctx))
	id := ctrl.ActiveSession().ID

	require.NoError(t, ctrl.Send(env.ctx, SendInput{Text: "  What is entropy?  "}))
	ctrl.Wait()
	require.NoError(t, ctrl.Send(env.ctx, SendInput{Text: "And enthalpy?"}))
	ctrl.Wait()

	stored, ok := env.db.session(id)
	require.True(t, ok)
	assert.Equal(t, "What is entropy?", stored.Name)
	assert.True(t, stored.HasBeenNamed)
	assert.Equal(t, "What is entropy?", ctrl.ActiveSession().Name)
	assert.Equal(t, "What is entropy?", ctrl.Sessions()[0].Name)

	// second request carries the first exchange as history
	req := env.backend.lastRequest()
	require.Len(t, req.ConversationHistory, 2)
	assert.Equal(t, "And enthalpy?", req.Message)
}

func TestSendInSpaceWithoutSessionCreatesOne(t *testing.T) {
	env := newTestEnv(t)
	env.seedSpace("space-1", "Physics")
	env.backend.set(func(b *fakeBackend) { b.chunks = []string{"Entropy measures disorder."} })

	ctrl := NewChatController(env.ctx, env.core)
	require.NoError(t, ctrl.Bootstrap(env.ctx))
	spaces := NewSpaceController(env.core, ctrl)
	require.NoError(t, spaces.Select(env.ctx, "space-1"))
	assert.Equal(t, STATE_NO_SESSION, ctrl.State())
	assert.Empty(t, ctrl.Messages())

	var seenBeforeReply bool
	env.backend.set(func(b *fakeBackend) {
		b.onChat = func(types.ChatRequest) {
			seenBeforeReply = lo.ContainsBy(ctrl.Messages(), func(m types.Message) bool {
				return m.Role == types.ROLE_USER && m.Content == "What is entropy?"
			})
		}
	})

	require.NoError(t, ctrl.Send(env.ctx, SendInput{Text: "What is entropy?"}))
	assert.True(t, seenBeforeReply)

	active := ctrl.ActiveSession()
	require.NotNil(t, active)
	assert.Equal(t, "space-1", active.SpaceID)
	assert.Equal(t, "What is entropy?", active.Name)

	stored, ok := env.db.session(active.ID)
	require.True(t, ok)
	assert.Equal(t, "space-1", stored.SpaceID)
	assert.Equal(t, "What is entropy?", stored.Name)

	req := env.backend.lastRequest()
	require.NotNil(t, req.SpaceID)
	assert.Equal(t, "space-1", *req.SpaceID)
	ctrl.Wait()
}

func TestSendSessionCreateFailureAbortsSend(t *testing.T) {
	env := newTestEnv(t)
	env.seedSpace("space-1", "Physics")

	ctrl := NewChatController(env.ctx, env.core)
	spaces := NewSpaceController(env.core, ctrl)
	require.NoError(t, spaces.Select(env.ctx, "space-1"))

	env.db.failSessionCreate = assert.AnError
	err := ctrl.Send(env.ctx, SendInput{Text: "hi"})
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindPersistence))
	assert.Equal(t, STATE_NO_SESSION, ctrl.State())
	assert.Empty(t, ctrl.Messages())
	assert.Empty(t, env.backend.snapshot().requests)
}

func TestSendGuards(t *testing.T) {
	env := newTestEnv(t)
	ctrl := NewChatController(env.ctx, env.core)

	err := ctrl.Send(env.ctx, SendInput{Text: "   "})
	assert.True(t, errors.IsKind(err, errors.KindInvalidArgument))

	// thread tab without a session
	err = ctrl.Send(env.ctx, SendInput{Text: "hello"})
	assert.True(t, errors.IsKind(err, errors.KindInvalidArgument))

	require.NoError(t, ctrl.Bootstrap(env.ctx))
	env.backend.set(func(b *fakeBackend) { b.chunks = []string{"ok"} })

	var (
		concurrent error
		state      ChatState
	)
	env.backend.set(func(b *fakeBackend) {
		b.onChat = func(types.ChatRequest) {
			state = ctrl.State()
			concurrent = ctrl.Send(env.ctx, SendInput{Text: "second"})
		}
	})
	require.NoError(t, ctrl.Send(env.ctx, SendInput{Text: "first"}))
	assert.Equal(t, STATE_AWAITING_RESPONSE, state)
	assert.True(t, errors.IsKind(concurrent, errors.KindBusy))
	ctrl.Wait()
}

func TestNewChatEvictsOldestAtCap(t *testing.T) {
	env := newTestEnv(t)
	for i := 0; i < 10; i++ {
		s := env.seedSession("s"+string(rune('0'+i)), "", time.Duration(10-i)*time.Hour)
		env.db.addMessage(types.Message{ChatID: s.ID, Role: types.ROLE_USER, Content: "msg", CreatedAt: s.CreatedAt})
	}

	ctrl := NewChatController(env.ctx, env.core)
	require.NoError(t, ctrl.Bootstrap(env.ctx))
	require.Len(t, ctrl.Sessions(), 10)

	created, err := ctrl.NewChat(env.ctx)
	require.NoError(t, err)

	env.db.mu.Lock()
	ids := lo.Map(env.db.sessions, func(s types.ChatSession, _ int) string { return s.ID })
	env.db.mu.Unlock()
	assert.Len(t, ids, 10)
	assert.NotContains(t, ids, "s0")
	assert.Contains(t, ids, created.ID)
	assert.Empty(t, env.db.sessionMessages("s0"))
	assert.Len(t, env.db.sessionMessages("s1"), 1)

	local := lo.Map(ctrl.Sessions(), func(s types.ChatSession, _ int) string { return s.ID })
	assert.Len(t, local, 10)
	assert.Equal(t, created.ID, local[0])
	assert.NotContains(t, local, "s0")
	assert.Equal(t, created.ID, ctrl.ActiveSession().ID)
}

func TestCreateSessionFailureKeepsEvictedSession(t *testing.T) {
	env := newTestEnv(t)
	for i := 0; i < 10; i++ {
		env.seedSession("s"+string(rune('0'+i)), "", time.Duration(10-i)*time.Hour)
	}
	env.db.failSessionCreate = assert.AnError

	_, err := NewChatSessionLogic(env.ctx, env.core).CreateSessionWithCap("", "")
	require.Error(t, err)

	_, ok := env.db.session("s0")
	assert.True(t, ok)
	assert.Len(t, env.db.sessions, 10)
}

func TestDeleteActiveSessionSwitchesToRemaining(t *testing.T) {
	env := newTestEnv(t)
	other := env.seedSession("other", "", 2*time.Hour)
	env.db.addMessage(types.Message{ChatID: other.ID, Role: types.ROLE_USER, Content: "kept", CreatedAt: time.Now()})
	current := env.seedSession("current", "", time.Hour)
	env.db.addMessage(types.Message{ChatID: current.ID, Role: types.ROLE_USER, Content: "gone", CreatedAt: time.Now()})

	ctrl := NewChatController(env.ctx, env.core)
	require.NoError(t, ctrl.Bootstrap(env.ctx))
	require.Equal(t, "current", ctrl.ActiveSession().ID)

	require.NoError(t, ctrl.DeleteSession(env.ctx, "current"))
	assert.Equal(t, "other", ctrl.ActiveSession().ID)
	assert.Equal(t, STATE_SESSION_ACTIVE, ctrl.State())
	require.Len(t, ctrl.Messages(), 1)
	assert.Equal(t, "kept", ctrl.Messages()[0].Content)
	assert.Empty(t, env.db.sessionMessages("current"))

	require.NoError(t, ctrl.DeleteSession(env.ctx, "other"))
	assert.Nil(t, ctrl.ActiveSession())
	assert.Equal(t, STATE_NO_SESSION, ctrl.State())
	assert.Empty(t, ctrl.Messages())

	err := ctrl.DeleteSession(env.ctx, "missing")
	assert.True(t, errors.IsKind(err, errors.KindNotFound))
}

func TestSwitchAgentStoresAndAnnounces(t *testing.T) {
	env := newTestEnv(t)
	env.backend.set(func(b *fakeBackend) {
		b.agents = []types.Agent{{ID: "qwen3-8b", DisplayName: "Qwen", Avatar: "🤖", Description: "Fast reasoning."}}
	})

	ctrl := NewChatController(env.ctx, env.core)
	require.NoError(t, ctrl.Bootstrap(env.ctx))
	require.NoError(t, ctrl.SwitchAgent(env.ctx, "qwen3-8b"))

	stored, _ := env.db.session(ctrl.ActiveSession().ID)
	assert.Equal(t, "qwen3-8b", stored.AgentID)
	assert.Equal(t, "qwen3-8b", ctrl.AgentID())

	msgs := ctrl.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, types.ROLE_SYSTEM, msgs[0].Role)
	assert.Equal(t, "Switched to Qwen 🤖. Fast reasoning.", msgs[0].Content)

	// unknown agents are stored without a notice
	require.NoError(t, ctrl.SwitchAgent(env.ctx, "unknown"))
	assert.Len(t, ctrl.Messages(), 1)
}

func TestSendAppliesThinkingSuffix(t *testing.T) {
	env := newTestEnv(t)
	env.backend.set(func(b *fakeBackend) { b.agents = []types.Agent{{ID: "qwen3-8b", DisplayName: "Qwen"}}; b.chunks = []string{"ok"} })

	ctrl := NewChatController(env.ctx, env.core)
	require.NoError(t, ctrl.Bootstrap(env.ctx))
	require.NoError(t, ctrl.SwitchAgent(env.ctx, "qwen3-8b"))
	ctrl.SetThinking(false)

	require.NoError(t, ctrl.Send(env.ctx, SendInput{Text: "hi"}))
	ctrl.Wait()
	req := env.backend.lastRequest()
	assert.Equal(t, "hi /no_thinking", req.Message)
	require.NotNil(t, req.AgentID)
	assert.Equal(t, "qwen3-8b", *req.AgentID)

	require.NoError(t, ctrl.Send(env.ctx, SendInput{Text: "search it", WebSearch: true}))
	ctrl.Wait()
	req = env.backend.lastRequest()
	assert.Equal(t, "search it", req.Message)
	assert.True(t, req.WebSearchEnabled)
}

func TestAttachAndDetachFile(t *testing.T) {
	env := newTestEnv(t)
	env.backend.set(func(b *fakeBackend) { b.chunks = []string{"summary"} })

	ctrl := NewChatController(env.ctx, env.core)
	require.NoError(t, ctrl.Bootstrap(env.ctx))

	fc, err := ctrl.AttachFile(env.ctx, writeTempFile(t, "lecture.pdf", 128))
	require.NoError(t, err)
	assert.Equal(t, "file-lecture.pdf", fc.ID)
	assert.Equal(t, []string{fc.ID}, ctrl.Files().ListIDs())

	msgs := ctrl.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, env.core.Text(i18n.NOTICE_FILE_UPLOADED, map[string]interface{}{"Name": "lecture.pdf"}), msgs[0].Content)

	_, err = ctrl.AttachFile(env.ctx, writeTempFile(t, "notes.txt", 10))
	assert.True(t, errors.IsKind(err, errors.KindPartialFile))

	require.NoError(t, ctrl.Send(env.ctx, SendInput{Text: "summarize"}))
	ctrl.Wait()
	assert.Equal(t, []string{fc.ID}, env.backend.lastRequest().FileIDs)

	assert.True(t, ctrl.DetachFile(env.ctx, fc.ID))
	assert.False(t, ctrl.DetachFile(env.ctx, fc.ID))
	ctrl.Wait()
	assert.Empty(t, ctrl.Files().ListIDs())
	assert.Equal(t, []string{fc.ID}, env.backend.snapshot().deleted)

	msgs = ctrl.Messages()
	assert.Equal(t, env.core.Text(i18n.NOTICE_FILE_REMOVED, map[string]interface{}{"Name": "lecture.pdf"}), msgs[len(msgs)-1].Content)
}

func TestSelectSessionResetsFiles(t *testing.T) {
	env := newTestEnv(t)
	env.seedSession("a", "", 2*time.Hour)
	env.seedSession("b", "", time.Hour)

	ctrl := NewChatController(env.ctx, env.core)
	require.NoError(t, ctrl.Bootstrap(env.ctx))
	ctrl.Files().Add("f1", "a.pdf")

	require.NoError(t, ctrl.SelectSession(env.ctx, "a"))
	assert.Equal(t, "a", ctrl.ActiveSession().ID)
	assert.Zero(t, ctrl.Files().Len())

	err := ctrl.SelectSession(env.ctx, "nope")
	assert.True(t, errors.IsKind(err, errors.KindNotFound))
}

func TestReconcileSkippedAfterSessionChange(t *testing.T) {
	env := newTestEnv(t, func(cfg *core.CoreConfig) {
		cfg.Chat.ReconcileDelay.Duration = 50 * time.Millisecond
	})
	env.seedSession("a", "", 2*time.Hour)
	env.seedSession("b", "", time.Hour)
	env.backend.set(func(b *fakeBackend) { b.completed = false; b.chunks = []string{"reply"} })

	ctrl := NewChatController(env.ctx, env.core)
	require.NoError(t, ctrl.Bootstrap(env.ctx))
	require.NoError(t, ctrl.Send(env.ctx, SendInput{Text: "question"}))
	require.NoError(t, ctrl.SelectSession(env.ctx, "a"))
	ctrl.Wait()

	assert.Equal(t, "a", ctrl.ActiveSession().ID)
	assert.Empty(t, ctrl.Messages())
}

func TestSelectTabThreadReopensLatestThread(t *testing.T) {
	env := newTestEnv(t)
	env.seedSpace("space-1", "Physics")
	env.seedSession("thread", "", time.Hour)
	env.seedSession("space-chat", "space-1", time.Minute)

	ctrl := NewChatController(env.ctx, env.core)
	require.NoError(t, ctrl.Bootstrap(env.ctx))
	spaces := NewSpaceController(env.core, ctrl)

	require.NoError(t, spaces.Select(env.ctx, "space-1"))
	assert.Equal(t, types.TAB_SPACE, ctrl.Tab())
	assert.Nil(t, ctrl.ActiveSession())
	assert.Equal(t, []string{"space-chat"}, lo.Map(ctrl.Sessions(), func(s types.ChatSession, _ int) string { return s.ID }))

	require.NoError(t, spaces.SelectTab(env.ctx, types.TAB_THREAD))
	assert.Equal(t, "thread", ctrl.ActiveSession().ID)
}
