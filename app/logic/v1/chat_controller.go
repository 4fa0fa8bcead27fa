package v1

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/forptiter/study-assistant/app/core"
	"github.com/forptiter/study-assistant/pkg/errors"
	"github.com/forptiter/study-assistant/pkg/i18n"
	"github.com/forptiter/study-assistant/pkg/safe"
	"github.com/forptiter/study-assistant/pkg/types"
	"github.com/forptiter/study-assistant/pkg/utils"
)

type ChatState int

const (
	STATE_NO_SESSION ChatState = iota
	STATE_SESSION_ACTIVE
	STATE_AWAITING_RESPONSE
)

func (s ChatState) String() string {
	switch s {
	case STATE_SESSION_ACTIVE:
		return "session_active"
	case STATE_AWAITING_RESPONSE:
		return "awaiting_response"
	}
	return "no_session"
}

type EventType string

const (
	EVENT_STATE_CHANGED    EventType = "state_changed"
	EVENT_MESSAGE_APPENDED EventType = "message_appended"
	EVENT_MESSAGE_UPDATED  EventType = "message_updated"
	EVENT_MESSAGE_REMOVED  EventType = "message_removed"
	EVENT_LOG_REPLACED     EventType = "log_replaced"
	EVENT_SESSIONS_CHANGED EventType = "sessions_changed"
)

type Event struct {
	Type      EventType
	State     ChatState
	SessionID string
	Message   *types.Message
}

const (
	RECONCILE_TRIGGER_COMPLETED = "completed"
	RECONCILE_TRIGGER_POLL      = "poll"
)

type SendInput struct {
	Text      string
	WebSearch bool
}

// ChatController owns the active conversation: its session, message log, selected
// agent and attached files. One instance serves one user and allows a single
// outstanding chat request.
type ChatController struct {
	core *core.Core
	UserInfo

	mu          sync.Mutex
	state       ChatState
	sending     bool
	sendSeq     uint64
	tab         types.ChatTab
	activeSpace string
	active      *types.ChatSession
	sessions    []types.ChatSession
	messages    []types.Message
	agentID     string
	thinking    bool
	files       *FileContextTracker
	listeners   []func(Event)

	reconciling sync.WaitGroup
}

func NewChatController(ctx context.Context, core *core.Core) *ChatController {
	user := SetupUserInfo(ctx)
	return &ChatController{
		core:     core,
		UserInfo: user,
		tab:      types.TAB_THREAD,
		thinking: true,
		files:    NewFileContextTracker(user.GetUserInfo().ID, core.ChatAPI()),
	}
}

// Subscribe registers fn for every change of the controller's observable state.
// fn runs on the goroutine that made the change and must not block.
func (c *ChatController) Subscribe(fn func(Event)) {
	c.mu.Lock()
	c.listeners = append(c.listeners, fn)
	c.mu.Unlock()
}

func (c *ChatController) emit(events ...Event) {
	c.mu.Lock()
	listeners := append([]func(Event){}, c.listeners...)
	c.mu.Unlock()
	for _, e := range events {
		for _, fn := range listeners {
			fn(e)
		}
	}
}

func (c *ChatController) userCtx(ctx context.Context) context.Context {
	return InjectUser(ctx, c.GetUserInfo())
}

func (c *ChatController) State() ChatState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *ChatController) ActiveSession() *types.ChatSession {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return nil
	}
	s := *c.active
	return &s
}

func (c *ChatController) Sessions() []types.ChatSession {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]types.ChatSession(nil), c.sessions...)
}

func (c *ChatController) Messages() []types.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]types.Message(nil), c.messages...)
}

func (c *ChatController) Tab() types.ChatTab {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tab
}

func (c *ChatController) ActiveSpace() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activeSpace
}

func (c *ChatController) AgentID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.agentID
}

func (c *ChatController) Thinking() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.thinking
}

func (c *ChatController) SetThinking(on bool) {
	c.mu.Lock()
	c.thinking = on
	c.mu.Unlock()
}

func (c *ChatController) Files() *FileContextTracker {
	return c.files
}

// Wait blocks until background reconciliation and file deletes have finished.
func (c *ChatController) Wait() {
	c.reconciling.Wait()
	c.files.Wait()
}

func busyError(trace string) error {
	return errors.New(trace, i18n.ERROR_BUSY, nil).Kind(errors.KindBusy)
}

// lockIdle takes the lock unless a send is in flight.
func (c *ChatController) lockIdle(trace string) error {
	c.mu.Lock()
	if c.sending {
		c.mu.Unlock()
		return busyError(trace)
	}
	return nil
}

func localMessage(chatID string, role types.MessageRole, content string) types.Message {
	return types.Message{
		ID:        types.LOCAL_MESSAGE_ID_PREFIX + utils.GenUniqIDStr(),
		ChatID:    chatID,
		Role:      role,
		Content:   content,
		CreatedAt: time.Now(),
	}
}

// appendLocked adds a message to the log. Callers hold the lock.
func (c *ChatController) appendLocked(msg types.Message) Event {
	c.messages = append(c.messages, msg)
	return Event{Type: EVENT_MESSAGE_APPENDED, State: c.state, SessionID: msg.ChatID, Message: &msg}
}

func (c *ChatController) appendNotice(role types.MessageRole, content string) {
	c.mu.Lock()
	chatID := ""
	if c.active != nil {
		chatID = c.active.ID
	}
	e := c.appendLocked(localMessage(chatID, role, content))
	c.mu.Unlock()
	c.emit(e)
}

// enterLocked makes session the active conversation with the given log and an
// empty file context. A nil session means NoSession. Callers hold the lock.
func (c *ChatController) enterLocked(session *types.ChatSession, messages []types.Message) []Event {
	c.files.Reset()
	c.core.Metrics().SetFileContexts(0)
	return c.switchLocked(session, messages)
}

func (c *ChatController) switchLocked(session *types.ChatSession, messages []types.Message) []Event {
	c.sendSeq++
	c.active = session
	c.messages = messages

	c.state = STATE_NO_SESSION
	sessionID := ""
	if session != nil {
		c.state = STATE_SESSION_ACTIVE
		sessionID = session.ID
		c.agentID = session.AgentID
	}
	return []Event{
		{Type: EVENT_STATE_CHANGED, State: c.state, SessionID: sessionID},
		{Type: EVENT_LOG_REPLACED, State: c.state, SessionID: sessionID},
	}
}

// loadAndEnter loads the session's log and activates it. A failed load is logged
// and the session is entered with an empty log.
func (c *ChatController) loadAndEnter(ctx context.Context, session *types.ChatSession) {
	var messages []types.Message
	if session != nil {
		list, err := NewChatSessionLogic(c.userCtx(ctx), c.core).ListMessages(session.ID)
		if err != nil {
			slog.Error("failed to load chat messages", slog.String("session_id", session.ID), slog.String("error", err.Error()))
		}
		messages = list
	}

	c.mu.Lock()
	events := c.enterLocked(session, messages)
	c.mu.Unlock()
	c.emit(events...)
}

func (c *ChatController) setSessions(list []types.ChatSession) {
	c.mu.Lock()
	c.sessions = list
	c.mu.Unlock()
	c.emit(Event{Type: EVENT_SESSIONS_CHANGED})
}

// Bootstrap runs after sign in: it activates the most recent thread session, or
// creates one when the user has none.
func (c *ChatController) Bootstrap(ctx context.Context) error {
	if err := c.lockIdle("ChatController.Bootstrap"); err != nil {
		return err
	}
	c.tab = types.TAB_THREAD
	c.activeSpace = ""
	c.mu.Unlock()

	list, err := NewChatSessionLogic(c.userCtx(ctx), c.core).ListSessions("")
	if err != nil {
		return errors.Trace("ChatController.Bootstrap", err)
	}
	c.setSessions(list)

	if len(list) > 0 {
		c.loadAndEnter(ctx, &list[0])
		return nil
	}
	if _, err = c.NewChat(ctx); err != nil {
		return errors.Trace("ChatController.Bootstrap", err)
	}
	return nil
}

// createSession creates a session in the current tab and applies any eviction to the local list.
func (c *ChatController) createSession(ctx context.Context) (*types.ChatSession, error) {
	c.mu.Lock()
	spaceID := lo.Ternary(c.tab == types.TAB_SPACE, c.activeSpace, "")
	tab, agentID := c.tab, c.agentID
	c.mu.Unlock()

	if tab == types.TAB_SPACE && spaceID == "" {
		return nil, errors.New("ChatController.createSession.space", i18n.ERROR_SPACE_NOT_SELECTED, nil).Kind(errors.KindInvalidArgument)
	}

	res, err := NewChatSessionLogic(c.userCtx(ctx), c.core).CreateSessionWithCap(spaceID, agentID)
	if err != nil {
		return nil, errors.Trace("ChatController.createSession", err)
	}

	c.mu.Lock()
	list := c.sessions
	if res.Evicted != nil {
		list = lo.Reject(list, func(s types.ChatSession, _ int) bool { return s.ID == res.Evicted.ID })
	}
	c.sessions = append([]types.ChatSession{res.Session}, list...)
	c.mu.Unlock()
	c.emit(Event{Type: EVENT_SESSIONS_CHANGED})

	return &res.Session, nil
}

// NewChat creates a session, evicting the oldest one at the cap, and activates it.
func (c *ChatController) NewChat(ctx context.Context) (*types.ChatSession, error) {
	if err := c.lockIdle("ChatController.NewChat"); err != nil {
		return nil, err
	}
	c.mu.Unlock()

	session, err := c.createSession(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	events := c.enterLocked(session, nil)
	c.mu.Unlock()
	c.emit(events...)
	return session, nil
}

func (c *ChatController) SelectSession(ctx context.Context, id string) error {
	if err := c.lockIdle("ChatController.SelectSession"); err != nil {
		return err
	}
	c.mu.Unlock()

	session, err := NewChatSessionLogic(c.userCtx(ctx), c.core).CheckUserChatSession(id)
	if err != nil {
		return errors.Trace("ChatController.SelectSession", err)
	}
	c.loadAndEnter(ctx, session)
	return nil
}

// DeleteSession removes a session. When it was active the first remaining session
// of the current tab takes its place, or the controller drops to NoSession.
func (c *ChatController) DeleteSession(ctx context.Context, id string) error {
	if err := c.lockIdle("ChatController.DeleteSession"); err != nil {
		return err
	}
	c.mu.Unlock()

	if err := NewChatSessionLogic(c.userCtx(ctx), c.core).DeleteChatSession(id); err != nil {
		return errors.Trace("ChatController.DeleteSession", err)
	}

	c.mu.Lock()
	c.sessions = lo.Reject(c.sessions, func(s types.ChatSession, _ int) bool { return s.ID == id })
	wasActive := c.active != nil && c.active.ID == id
	var next *types.ChatSession
	if len(c.sessions) > 0 {
		s := c.sessions[0]
		next = &s
	}
	c.mu.Unlock()
	c.emit(Event{Type: EVENT_SESSIONS_CHANGED})

	if wasActive {
		c.loadAndEnter(ctx, next)
	}
	return nil
}

// SelectTab switches between the thread list and the active space. Entering the
// space tab leaves no session selected; the thread tab reopens the latest thread.
func (c *ChatController) SelectTab(ctx context.Context, tab types.ChatTab) error {
	if err := c.lockIdle("ChatController.SelectTab"); err != nil {
		return err
	}
	c.tab = tab
	spaceID := c.activeSpace
	c.mu.Unlock()

	if tab == types.TAB_SPACE {
		var list []types.ChatSession
		if spaceID != "" {
			var err error
			if list, err = NewChatSessionLogic(c.userCtx(ctx), c.core).ListSessions(spaceID); err != nil {
				slog.Error("failed to list space sessions", slog.String("space_id", spaceID), slog.String("error", err.Error()))
			}
		}
		c.setSessions(list)
		c.loadAndEnter(ctx, nil)
		return nil
	}

	list, err := NewChatSessionLogic(c.userCtx(ctx), c.core).ListSessions("")
	if err != nil {
		return errors.Trace("ChatController.SelectTab", err)
	}
	c.setSessions(list)
	if len(list) == 0 {
		c.loadAndEnter(ctx, nil)
		return nil
	}
	c.loadAndEnter(ctx, &list[0])
	return nil
}

// EnterSpace makes spaceID the active space and clears the conversation.
func (c *ChatController) EnterSpace(ctx context.Context, spaceID string) error {
	if err := c.lockIdle("ChatController.EnterSpace"); err != nil {
		return err
	}
	c.activeSpace = spaceID
	c.mu.Unlock()
	return c.SelectTab(ctx, types.TAB_SPACE)
}

// SwitchAgent selects agentID for the conversation, stores it on the active session
// and posts a notice describing the agent.
func (c *ChatController) SwitchAgent(ctx context.Context, agentID string) error {
	if err := c.lockIdle("ChatController.SwitchAgent"); err != nil {
		return err
	}
	c.agentID = agentID
	var sessionID string
	if c.active != nil {
		c.active.AgentID = agentID
		sessionID = c.active.ID
	}
	c.mu.Unlock()

	if sessionID == "" {
		return nil
	}
	if err := NewChatSessionLogic(c.userCtx(ctx), c.core).UpdateAgent(sessionID, agentID); err != nil {
		slog.Error("failed to store session agent", slog.String("session_id", sessionID), slog.String("error", err.Error()))
		return nil
	}

	agent, err := NewAgentLogic(ctx, c.core).GetAgent(agentID)
	if err != nil {
		slog.Warn("agent not found in catalog", slog.String("agent_id", agentID), slog.String("error", err.Error()))
		return nil
	}
	c.appendNotice(types.ROLE_SYSTEM, c.core.Text(i18n.NOTICE_AGENT_SWITCHED, map[string]interface{}{
		"DisplayName": agent.DisplayName,
		"Avatar":      agent.Avatar,
		"Description": agent.Description,
	}))
	return nil
}

// AttachFile uploads a PDF for this conversation and adds it to the file context.
func (c *ChatController) AttachFile(ctx context.Context, path string) (*types.FileContext, error) {
	src, err := LocalUploadSource(path)
	if err != nil {
		return nil, errors.New("ChatController.AttachFile.LocalUploadSource", i18n.ERROR_FILE_READ_FAILED, err).
			Kind(errors.KindPartialFile).
			WithData(map[string]interface{}{"Name": path})
	}

	file, err := NewUploadLogic(c.userCtx(ctx), c.core).Upload("", types.ChatAttachMimeTypes, src)
	if err != nil {
		return nil, errors.Trace("ChatController.AttachFile", err)
	}

	fc := types.FileContext{ID: file.ID, Name: file.Filename}
	if c.files.Add(fc.ID, fc.Name) {
		c.core.Metrics().SetFileContexts(c.files.Len())
		c.appendNotice(types.ROLE_SYSTEM, c.core.Text(i18n.NOTICE_FILE_UPLOADED, map[string]interface{}{"Name": fc.Name}))
	}
	return &fc, nil
}

// DetachFile drops the file from the context; the backend copy is deleted in the background.
func (c *ChatController) DetachFile(ctx context.Context, fileID string) bool {
	removed, ok := c.files.Remove(ctx, fileID)
	if !ok {
		return false
	}
	c.core.Metrics().SetFileContexts(c.files.Len())
	c.appendNotice(types.ROLE_SYSTEM, c.core.Text(i18n.NOTICE_FILE_REMOVED, map[string]interface{}{"Name": removed.Name}))
	return true
}

// Send submits text to the active conversation and streams the reply into the log.
// In the space tab a session is created first when none is active.
func (c *ChatController) Send(ctx context.Context, in SendInput) error {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return errors.New("ChatController.Send.empty", i18n.ERROR_EMPTY_MESSAGE, nil).Kind(errors.KindInvalidArgument)
	}

	c.mu.Lock()
	if c.sending {
		c.mu.Unlock()
		return busyError("ChatController.Send")
	}
	c.sending = true
	needSession := c.active == nil
	spaceTab := c.tab == types.TAB_SPACE && c.activeSpace != ""
	c.mu.Unlock()

	release := func() {
		c.mu.Lock()
		c.sending = false
		c.mu.Unlock()
	}

	if needSession {
		if !spaceTab {
			release()
			return errors.New("ChatController.Send.nosession", i18n.ERROR_SESSION_NOT_FOUND, nil).Kind(errors.KindInvalidArgument)
		}
		session, err := c.createSession(ctx)
		if err != nil {
			release()
			return errors.Trace("ChatController.Send", err)
		}
		// files attached before the first message belong to the new session
		c.mu.Lock()
		events := c.switchLocked(session, nil)
		c.mu.Unlock()
		c.emit(events...)
	}

	sessions := NewChatSessionLogic(c.userCtx(ctx), c.core)

	c.mu.Lock()
	session := *c.active
	c.mu.Unlock()

	if !session.HasBeenNamed {
		name, named, err := sessions.NameOnFirstSend(session.ID, text)
		if err != nil {
			slog.Error("failed to name chat session", slog.String("session_id", session.ID), slog.String("error", err.Error()))
		} else if named {
			c.mu.Lock()
			if c.active != nil && c.active.ID == session.ID {
				c.active.Name, c.active.HasBeenNamed = name, true
			}
			for i := range c.sessions {
				if c.sessions[i].ID == session.ID {
					c.sessions[i].Name, c.sessions[i].HasBeenNamed = name, true
				}
			}
			c.mu.Unlock()
			c.emit(Event{Type: EVENT_SESSIONS_CHANGED})
		}
	}

	c.mu.Lock()
	c.sendSeq++
	seq := c.sendSeq
	history := append([]types.Message(nil), c.messages...)
	c.state = STATE_AWAITING_RESPONSE
	events := []Event{
		{Type: EVENT_STATE_CHANGED, State: c.state, SessionID: session.ID},
		c.appendLocked(localMessage(session.ID, types.ROLE_USER, text)),
	}
	agentID, thinking := c.agentID, c.thinking
	c.mu.Unlock()
	c.emit(events...)

	credentials, err := sessions.GetCredentials()
	if err != nil {
		slog.Error("failed to load university credentials", slog.String("user_id", c.GetUserInfo().ID), slog.String("error", err.Error()))
	}

	agent := NewAgentLogic(ctx, c.core).Resolve(agentID)
	req := OutgoingRequest{
		Transmitted: BuildTransmittedMessage(text, agent, thinking, in.WebSearch, c.core.Cfg().Chat.ThinkingSuffix),
		History:     history,
		UserID:      c.GetUserInfo().ID,
		Credentials: credentials,
		FileIDs:     c.files.ListIDs(),
		AgentID:     agentID,
		WebSearch:   in.WebSearch,
		ChatID:      session.ID,
		SpaceID:     session.SpaceID,
	}

	placeholder := localMessage(session.ID, types.ROLE_ASSISTANT, "")
	c.mu.Lock()
	e := c.appendLocked(placeholder)
	c.mu.Unlock()
	c.emit(e)

	timer := c.core.Metrics().ChatRequestTimer(lo.Ternary(agentID == "", "default", agentID))
	result, err := c.stream(ctx, req, placeholder.ID)
	timer.ObserveDuration()
	if err != nil {
		c.failSend(session.ID, placeholder.ID)
		return errors.Wrap(err, "ChatController.Send", i18n.ERROR_CHAT_REQUEST_FAILED).Kind(errors.KindTransport)
	}

	c.mu.Lock()
	e = c.updateLocked(placeholder.ID, result.Content)
	c.state = STATE_SESSION_ACTIVE
	c.sending = false
	c.mu.Unlock()
	c.emit(e, Event{Type: EVENT_STATE_CHANGED, State: STATE_SESSION_ACTIVE, SessionID: session.ID})

	baseline := lo.CountBy(history, func(m types.Message) bool {
		return m.Role == types.ROLE_ASSISTANT && !m.IsLocal()
	})
	bgCtx := c.userCtx(context.WithoutCancel(ctx))
	c.reconciling.Add(1)
	go safe.RunWithLog(func() {
		defer c.reconciling.Done()
		c.reconcile(bgCtx, session.ID, seq, result.Completed, baseline)
	}, "chat.reconcile")
	return nil
}

func (c *ChatController) stream(ctx context.Context, req OutgoingRequest, placeholderID string) (StreamResult, error) {
	stream, err := c.core.ChatAPI().Chat(ctx, req.ChatRequest())
	if err != nil {
		return StreamResult{}, err
	}
	defer stream.Close()

	var ingestor StreamIngestor
	return ingestor.Ingest(stream, func(content string) {
		c.core.Metrics().StreamChunkInc()
		c.mu.Lock()
		e := c.updateLocked(placeholderID, content)
		c.mu.Unlock()
		c.emit(e)
	})
}

// updateLocked replaces the content of the message with the given id. Callers hold the lock.
func (c *ChatController) updateLocked(id, content string) Event {
	for i := range c.messages {
		if c.messages[i].ID == id {
			c.messages[i].Content = content
			msg := c.messages[i]
			return Event{Type: EVENT_MESSAGE_UPDATED, State: c.state, SessionID: msg.ChatID, Message: &msg}
		}
	}
	return Event{Type: EVENT_MESSAGE_UPDATED, State: c.state}
}

// failSend drops the streaming placeholder and posts one generic failure notice.
func (c *ChatController) failSend(sessionID, placeholderID string) {
	c.core.Metrics().ChatErrorInc(errors.KindTransport.String())

	c.mu.Lock()
	events := []Event{}
	if _, idx, ok := lo.FindIndexOf(c.messages, func(m types.Message) bool { return m.ID == placeholderID }); ok {
		removed := c.messages[idx]
		c.messages = append(c.messages[:idx:idx], c.messages[idx+1:]...)
		events = append(events, Event{Type: EVENT_MESSAGE_REMOVED, State: c.state, SessionID: sessionID, Message: &removed})
	}
	events = append(events, c.appendLocked(localMessage(sessionID, types.ROLE_ASSISTANT, c.core.Text(i18n.ERROR_CHAT_REQUEST_FAILED, nil))))
	c.state = STATE_SESSION_ACTIVE
	c.sending = false
	events = append(events, Event{Type: EVENT_STATE_CHANGED, State: c.state, SessionID: sessionID})
	c.mu.Unlock()
	c.emit(events...)
}

// reconcile replaces the local log with the persisted one. When the backend signalled
// completion the reload happens at once; without it the store is polled until the
// reply shows up or the timeout passes. Failures keep the local log.
func (c *ChatController) reconcile(ctx context.Context, sessionID string, seq uint64, completed bool, baseline int) {
	logic := NewChatSessionLogic(ctx, c.core)
	cfg := c.core.Cfg().Chat

	if completed {
		list, err := logic.ListMessages(sessionID)
		if err != nil {
			c.core.Metrics().ReconcileInc(RECONCILE_TRIGGER_COMPLETED, "error")
			slog.Warn("failed to reload chat messages", slog.String("session_id", sessionID), slog.String("error", err.Error()))
			return
		}
		c.applyReload(sessionID, seq, list, RECONCILE_TRIGGER_COMPLETED)
		return
	}

	deadline := time.Now().Add(cfg.ReconcileTimeout.Duration)
	timer := time.NewTimer(cfg.ReconcileDelay.Duration)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		if c.stale(sessionID, seq) {
			c.core.Metrics().ReconcileInc(RECONCILE_TRIGGER_POLL, "stale")
			return
		}

		list, err := logic.ListMessages(sessionID)
		if err != nil {
			slog.Warn("failed to reload chat messages", slog.String("session_id", sessionID), slog.String("error", err.Error()))
		} else if lo.CountBy(list, func(m types.Message) bool { return m.Role == types.ROLE_ASSISTANT }) > baseline {
			c.applyReload(sessionID, seq, list, RECONCILE_TRIGGER_POLL)
			return
		}

		if !time.Now().Before(deadline) {
			c.core.Metrics().ReconcileInc(RECONCILE_TRIGGER_POLL, "timeout")
			slog.Warn("reply not persisted in time, keeping local messages", slog.String("session_id", sessionID))
			return
		}
		timer.Reset(cfg.ReconcileDelay.Duration)
	}
}

// stale reports whether the conversation moved on since the send numbered seq.
func (c *ChatController) stale(sessionID string, seq uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.staleLocked(sessionID, seq)
}

func (c *ChatController) staleLocked(sessionID string, seq uint64) bool {
	return c.active == nil || c.active.ID != sessionID || c.sendSeq != seq || c.sending
}

func (c *ChatController) applyReload(sessionID string, seq uint64, list []types.Message, trigger string) {
	c.mu.Lock()
	if c.staleLocked(sessionID, seq) {
		c.mu.Unlock()
		c.core.Metrics().ReconcileInc(trigger, "stale")
		return
	}
	c.messages = list
	state := c.state
	c.mu.Unlock()

	c.core.Metrics().ReconcileInc(trigger, "ok")
	c.emit(Event{Type: EVENT_LOG_REPLACED, State: state, SessionID: sessionID})
}
