package sqlstore

import (
	"context"

	sq "github.com/Masterminds/squirrel"

	"github.com/forptiter/study-assistant/pkg/types"
)

type UserFileStore struct {
	CommonFields
}

func NewUserFileStore(provider SqlProviderAchieve) *UserFileStore {
	repo := &UserFileStore{}
	repo.SetProvider(provider)
	repo.SetTable(types.TABLE_USER_FILE)
	repo.SetAllColumns("id", "user_id", coalesce("space_id"), "filename", "created_at")
	return repo
}

func (s *UserFileStore) ListSpaceFiles(ctx context.Context, spaceID string) ([]types.UserFile, error) {
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).
		Where(sq.Eq{"space_id": spaceID}).
		OrderBy("created_at DESC")

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var list []types.UserFile
	if err = s.GetReplica(ctx).Select(&list, queryString, args...); err != nil {
		return nil, err
	}
	return list, nil
}
