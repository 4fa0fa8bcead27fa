package sqlstore

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/forptiter/study-assistant/pkg/types"
)

type ChatSessionStore struct {
	CommonFields
}

func NewChatSessionStore(provider SqlProviderAchieve) *ChatSessionStore {
	repo := &ChatSessionStore{}
	repo.SetProvider(provider)
	repo.SetTable(types.TABLE_CHAT_SESSION)
	repo.SetAllColumns("id", "user_id", coalesce("space_id"), "name", coalesce("agent_id"), "has_been_named", "created_at")
	return repo
}

func (s *ChatSessionStore) Create(ctx context.Context, data types.ChatSession) error {
	if data.CreatedAt.IsZero() {
		data.CreatedAt = time.Now()
	}
	if data.Name == "" {
		data.Name = types.DEFAULT_CHAT_SESSION_NAME
	}

	query := sq.Insert(s.GetTable()).
		Columns("id", "user_id", "space_id", "name", "agent_id", "has_been_named", "created_at").
		Values(data.ID, data.UserID, nullString(data.SpaceID), data.Name, nullString(data.AgentID), data.HasBeenNamed, data.CreatedAt)

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(queryString, args...)
	return err
}

func (s *ChatSessionStore) GetChatSession(ctx context.Context, userID, id string) (*types.ChatSession, error) {
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).Where(sq.Eq{"user_id": userID, "id": id})

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var res types.ChatSession
	if err = s.GetReplica(ctx).Get(&res, queryString, args...); err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *ChatSessionStore) List(ctx context.Context, opts types.ListChatSessionOptions) ([]types.ChatSession, error) {
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).OrderBy("created_at DESC", "id DESC")
	opts.Apply(&query)

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var list []types.ChatSession
	if err = s.GetReplica(ctx).Select(&list, queryString, args...); err != nil {
		return nil, err
	}
	return list, nil
}

func (s *ChatSessionStore) Total(ctx context.Context, userID string) (int64, error) {
	query := sq.Select("COUNT(*)").From(s.GetTable()).Where(sq.Eq{"user_id": userID})

	queryString, args, err := query.ToSql()
	if err != nil {
		return 0, ErrorSqlBuild(err)
	}

	var total int64
	if err = s.GetReplica(ctx).Get(&total, queryString, args...); err != nil {
		return 0, err
	}
	return total, nil
}

func (s *ChatSessionStore) GetOldest(ctx context.Context, userID string) (*types.ChatSession, error) {
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).
		Where(sq.Eq{"user_id": userID}).
		OrderBy("created_at ASC", "id ASC").
		Limit(1)

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var res types.ChatSession
	if err = s.GetReplica(ctx).Get(&res, queryString, args...); err != nil {
		return nil, err
	}
	return &res, nil
}

// LockUserSessions serializes session creation for one user until the surrounding
// transaction ends. Outside a transaction the lock is released immediately.
func (s *ChatSessionStore) LockUserSessions(ctx context.Context, userID string) error {
	_, err := s.GetMaster(ctx).Exec("SELECT pg_advisory_xact_lock(hashtext($1))", userID)
	return err
}

func (s *ChatSessionStore) UpdateAgent(ctx context.Context, id, agentID string) error {
	query := sq.Update(s.GetTable()).Where(sq.Eq{"id": id}).Set("agent_id", nullString(agentID))
	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(queryString, args...)
	return err
}

func (s *ChatSessionStore) MarkNamed(ctx context.Context, id, name string) (bool, error) {
	query := sq.Update(s.GetTable()).
		Where(sq.Eq{"id": id, "has_been_named": false}).
		Set("name", name).
		Set("has_been_named", true)

	queryString, args, err := query.ToSql()
	if err != nil {
		return false, ErrorSqlBuild(err)
	}

	res, err := s.GetMaster(ctx).Exec(queryString, args...)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (s *ChatSessionStore) Delete(ctx context.Context, id string) error {
	query := sq.Delete(s.GetTable()).Where(sq.Eq{"id": id})

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(queryString, args...)
	return err
}
