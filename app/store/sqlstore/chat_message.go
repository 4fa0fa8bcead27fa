package sqlstore

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/forptiter/study-assistant/pkg/types"
)

type ChatMessageStore struct {
	CommonFields
}

func NewChatMessageStore(provider SqlProviderAchieve) *ChatMessageStore {
	repo := &ChatMessageStore{}
	repo.SetProvider(provider)
	repo.SetTable(types.TABLE_MESSAGE)
	repo.SetAllColumns("id", "chat_id", "role", "content", "sources", "created_at")
	return repo
}

func (s *ChatMessageStore) Create(ctx context.Context, data types.Message) error {
	if data.ID == "" || data.IsLocal() {
		data.ID = uuid.NewString()
	}
	if data.CreatedAt.IsZero() {
		data.CreatedAt = time.Now()
	}

	var sources interface{}
	if data.Sources != nil {
		sources = data.Sources.String()
	}

	query := sq.Insert(s.GetTable()).
		Columns("id", "chat_id", "role", "content", "sources", "created_at").
		Values(data.ID, data.ChatID, data.Role, data.Content, sources, data.CreatedAt)

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(queryString, args...)
	return err
}

func (s *ChatMessageStore) ListSessionMessages(ctx context.Context, chatID string) ([]types.Message, error) {
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).
		Where(sq.Eq{"chat_id": chatID}).
		OrderBy("created_at ASC")

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var list []types.Message
	if err = s.GetReplica(ctx).Select(&list, queryString, args...); err != nil {
		return nil, err
	}
	return list, nil
}

func (s *ChatMessageStore) DeleteSessionMessages(ctx context.Context, chatID string) error {
	query := sq.Delete(s.GetTable()).Where(sq.Eq{"chat_id": chatID})

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(queryString, args...)
	return err
}
