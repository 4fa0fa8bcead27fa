package sqlstore

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/forptiter/study-assistant/pkg/types"
)

type SpaceStore struct {
	CommonFields
}

func NewSpaceStore(provider SqlProviderAchieve) *SpaceStore {
	repo := &SpaceStore{}
	repo.SetProvider(provider)
	repo.SetTable(types.TABLE_SPACE)
	repo.SetAllColumns("id", "user_id", "name", coalesce("description"), coalesce("prompt"), "created_at")
	return repo
}

func (s *SpaceStore) Create(ctx context.Context, data types.Space) error {
	if data.CreatedAt.IsZero() {
		data.CreatedAt = time.Now()
	}

	query := sq.Insert(s.GetTable()).
		Columns("id", "user_id", "name", "description", "prompt", "created_at").
		Values(data.ID, data.UserID, data.Name, data.Description, data.Prompt, data.CreatedAt)

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(queryString, args...)
	return err
}

func (s *SpaceStore) GetSpace(ctx context.Context, userID, id string) (*types.Space, error) {
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).Where(sq.Eq{"user_id": userID, "id": id})

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var res types.Space
	if err = s.GetReplica(ctx).Get(&res, queryString, args...); err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *SpaceStore) Update(ctx context.Context, userID, id string, args types.UpdateSpaceArgs) error {
	query := sq.Update(s.GetTable()).
		Where(sq.Eq{"user_id": userID, "id": id}).
		Set("name", args.Name).
		Set("description", args.Description).
		Set("prompt", args.Prompt)

	queryString, sqlArgs, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(queryString, sqlArgs...)
	return err
}

func (s *SpaceStore) List(ctx context.Context, userID string) ([]types.Space, error) {
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).
		Where(sq.Eq{"user_id": userID}).
		OrderBy("created_at DESC")

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var list []types.Space
	if err = s.GetReplica(ctx).Select(&list, queryString, args...); err != nil {
		return nil, err
	}
	return list, nil
}
