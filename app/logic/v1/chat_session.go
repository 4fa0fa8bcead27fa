package v1

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/forptiter/study-assistant/app/core"
	"github.com/forptiter/study-assistant/pkg/errors"
	"github.com/forptiter/study-assistant/pkg/i18n"
	"github.com/forptiter/study-assistant/pkg/types"
)

type ChatSessionLogic struct {
	ctx  context.Context
	core *core.Core
	UserInfo
}

func NewChatSessionLogic(ctx context.Context, core *core.Core) *ChatSessionLogic {
	return &ChatSessionLogic{
		ctx:      ctx,
		core:     core,
		UserInfo: SetupUserInfo(ctx),
	}
}

type CreatedSession struct {
	Session types.ChatSession
	// Evicted is the oldest session removed to stay within the cap, if any.
	Evicted *types.ChatSession
}

// CreateSessionWithCap evicts the user's oldest session when the cap is reached and
// creates a new one. Both steps run in one transaction, so a failed insert keeps the
// evicted session.
func (l *ChatSessionLogic) CreateSessionWithCap(spaceID, agentID string) (*CreatedSession, error) {
	user := l.GetUserInfo()
	if user.ID == "" {
		return nil, errors.New("ChatSessionLogic.CreateSessionWithCap.user", i18n.ERROR_UNAUTHORIZED, nil).Kind(errors.KindInvalidArgument)
	}

	res := &CreatedSession{
		Session: types.ChatSession{
			ID:        uuid.NewString(),
			UserID:    user.ID,
			SpaceID:   spaceID,
			AgentID:   agentID,
			Name:      types.DEFAULT_CHAT_SESSION_NAME,
			CreatedAt: time.Now(),
		},
	}
	limit := int64(l.core.Cfg().Chat.SessionCap)

	err := l.core.Store().Transaction(l.ctx, func(ctx context.Context) error {
		sessions := l.core.Store().ChatSessionStore()
		if err := sessions.LockUserSessions(ctx, user.ID); err != nil {
			return errors.New("ChatSessionLogic.CreateSessionWithCap.ChatSessionStore.LockUserSessions", i18n.ERROR_INTERNAL, err)
		}

		total, err := sessions.Total(ctx, user.ID)
		if err != nil {
			return errors.New("ChatSessionLogic.CreateSessionWithCap.ChatSessionStore.Total", i18n.ERROR_INTERNAL, err)
		}

		for ; total >= limit; total-- {
			oldest, err := sessions.GetOldest(ctx, user.ID)
			if err != nil {
				return errors.New("ChatSessionLogic.CreateSessionWithCap.ChatSessionStore.GetOldest", i18n.ERROR_INTERNAL, err)
			}
			if err = l.deleteSession(ctx, oldest.ID); err != nil {
				return errors.Trace("ChatSessionLogic.CreateSessionWithCap", err)
			}
			res.Evicted = oldest
		}

		if err = sessions.Create(ctx, res.Session); err != nil {
			return errors.New("ChatSessionLogic.CreateSessionWithCap.ChatSessionStore.Create", i18n.ERROR_SESSION_CREATE_FAILED, err)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "ChatSessionLogic.CreateSessionWithCap", i18n.ERROR_SESSION_CREATE_FAILED).Kind(errors.KindPersistence)
	}

	if res.Evicted != nil {
		l.core.Metrics().SessionEvictionInc()
		slog.Info("evicted oldest chat session", slog.String("user_id", user.ID), slog.String("session_id", res.Evicted.ID))
	}
	return res, nil
}

func (l *ChatSessionLogic) deleteSession(ctx context.Context, id string) error {
	if err := l.core.Store().ChatMessageStore().DeleteSessionMessages(ctx, id); err != nil {
		return errors.New("ChatSessionLogic.deleteSession.ChatMessageStore.DeleteSessionMessages", i18n.ERROR_INTERNAL, err)
	}
	if err := l.core.Store().ChatSessionStore().Delete(ctx, id); err != nil {
		return errors.New("ChatSessionLogic.deleteSession.ChatSessionStore.Delete", i18n.ERROR_INTERNAL, err)
	}
	return nil
}

func (l *ChatSessionLogic) CheckUserChatSession(id string) (*types.ChatSession, error) {
	session, err := l.core.Store().ChatSessionStore().GetChatSession(l.ctx, l.GetUserInfo().ID, id)
	if err != nil && err != sql.ErrNoRows {
		return nil, errors.New("ChatSessionLogic.CheckUserChatSession.ChatSessionStore.GetChatSession", i18n.ERROR_INTERNAL, err).Kind(errors.KindPersistence)
	}
	if session == nil {
		return nil, errors.New("ChatSessionLogic.CheckUserChatSession.nil", i18n.ERROR_SESSION_NOT_FOUND, nil).Kind(errors.KindNotFound)
	}
	return session, nil
}

// DeleteChatSession removes the session's messages, then the session.
func (l *ChatSessionLogic) DeleteChatSession(id string) error {
	if _, err := l.CheckUserChatSession(id); err != nil {
		return err
	}
	err := l.core.Store().Transaction(l.ctx, func(ctx context.Context) error {
		return l.deleteSession(ctx, id)
	})
	if err != nil {
		return errors.Wrap(err, "ChatSessionLogic.DeleteChatSession", i18n.ERROR_INTERNAL).Kind(errors.KindPersistence)
	}
	return nil
}

// ListSessions returns the user's sessions newest first, limited to spaceID when set
// and to sessions without a space otherwise.
func (l *ChatSessionLogic) ListSessions(spaceID string) ([]types.ChatSession, error) {
	list, err := l.core.Store().ChatSessionStore().List(l.ctx, types.ListChatSessionOptions{
		UserID:     l.GetUserInfo().ID,
		SpaceID:    spaceID,
		OnlyThread: spaceID == "",
	})
	if err != nil {
		return nil, errors.New("ChatSessionLogic.ListSessions.ChatSessionStore.List", i18n.ERROR_INTERNAL, err).Kind(errors.KindPersistence)
	}
	return list, nil
}

func (l *ChatSessionLogic) ListMessages(id string) ([]types.Message, error) {
	list, err := l.core.Store().ChatMessageStore().ListSessionMessages(l.ctx, id)
	if err != nil {
		return nil, errors.New("ChatSessionLogic.ListMessages.ChatMessageStore.ListSessionMessages", i18n.ERROR_INTERNAL, err).Kind(errors.KindPersistence)
	}
	return list, nil
}

// NameOnFirstSend names the session after the first message sent in it. It reports
// false when the session already had its name.
func (l *ChatSessionLogic) NameOnFirstSend(id, text string) (string, bool, error) {
	name := strings.TrimSpace(text)
	named, err := l.core.Store().ChatSessionStore().MarkNamed(l.ctx, id, name)
	if err != nil {
		return "", false, errors.New("ChatSessionLogic.NameOnFirstSend.ChatSessionStore.MarkNamed", i18n.ERROR_INTERNAL, err).Kind(errors.KindPersistence)
	}
	return name, named, nil
}

func (l *ChatSessionLogic) UpdateAgent(id, agentID string) error {
	if err := l.core.Store().ChatSessionStore().UpdateAgent(l.ctx, id, agentID); err != nil {
		return errors.New("ChatSessionLogic.UpdateAgent.ChatSessionStore.UpdateAgent", i18n.ERROR_INTERNAL, err).Kind(errors.KindPersistence)
	}
	return nil
}

// GetCredentials returns nil without error when the user never saved credentials.
func (l *ChatSessionLogic) GetCredentials() (*types.UniversityCredentials, error) {
	cred, err := l.core.Store().CredentialStore().GetUniversityCredentials(l.ctx, l.GetUserInfo().ID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.New("ChatSessionLogic.GetCredentials.CredentialStore.GetUniversityCredentials", i18n.ERROR_INTERNAL, err).Kind(errors.KindPersistence)
	}
	return cred, nil
}
