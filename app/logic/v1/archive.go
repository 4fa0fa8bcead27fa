package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/forptiter/study-assistant/app/core"
	"github.com/forptiter/study-assistant/pkg/errors"
	"github.com/forptiter/study-assistant/pkg/i18n"
	"github.com/forptiter/study-assistant/pkg/types"
)

type Transcript struct {
	Session    types.ChatSession `json:"session"`
	Messages   []types.Message   `json:"messages"`
	ExportedAt time.Time         `json:"exported_at"`
}

func TranscriptPath(userID, sessionID string) string {
	return fmt.Sprintf("transcripts/%s/%s.json", userID, sessionID)
}

type ArchiveLogic struct {
	ctx  context.Context
	core *core.Core
	UserInfo
}

func NewArchiveLogic(ctx context.Context, core *core.Core) *ArchiveLogic {
	return &ArchiveLogic{
		ctx:      ctx,
		core:     core,
		UserInfo: SetupUserInfo(ctx),
	}
}

// Export writes the persisted session and its messages to object storage and
// returns the object path.
func (l *ArchiveLogic) Export(sessionID string) (string, error) {
	if l.core.S3() == nil {
		return "", errors.New("ArchiveLogic.Export.S3", i18n.ERROR_ARCHIVE_NOT_CONFIGURED, nil).Kind(errors.KindInvalidArgument)
	}

	sessions := NewChatSessionLogic(l.ctx, l.core)
	session, err := sessions.CheckUserChatSession(sessionID)
	if err != nil {
		return "", errors.Trace("ArchiveLogic.Export", err)
	}
	messages, err := sessions.ListMessages(sessionID)
	if err != nil {
		return "", errors.Trace("ArchiveLogic.Export", err)
	}

	raw, err := json.MarshalIndent(Transcript{
		Session:    *session,
		Messages:   messages,
		ExportedAt: time.Now().UTC(),
	}, "", "  ")
	if err != nil {
		return "", errors.New("ArchiveLogic.Export.json.Marshal", i18n.ERROR_INTERNAL, err)
	}

	path := TranscriptPath(l.GetUserInfo().ID, sessionID)
	if err = l.core.S3().Upload(l.ctx, path, "application/json", bytes.NewReader(raw)); err != nil {
		return "", errors.New("ArchiveLogic.Export.S3.Upload", i18n.ERROR_INTERNAL, err).Kind(errors.KindTransport)
	}
	return path, nil
}
