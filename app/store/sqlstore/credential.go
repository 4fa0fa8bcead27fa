package sqlstore

import (
	"context"

	sq "github.com/Masterminds/squirrel"

	"github.com/forptiter/study-assistant/pkg/types"
)

type CredentialStore struct {
	CommonFields
}

func NewCredentialStore(provider SqlProviderAchieve) *CredentialStore {
	repo := &CredentialStore{}
	repo.SetProvider(provider)
	repo.SetTable(types.TABLE_UNIVERSITY_CREDENTIALS)
	repo.SetAllColumns("university_username", "university_password", "access_token", "refresh_token", "token_expiry")
	return repo
}

func (s *CredentialStore) GetUniversityCredentials(ctx context.Context, userID string) (*types.UniversityCredentials, error) {
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).Where(sq.Eq{"user_id": userID})

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var res types.UniversityCredentials
	if err = s.GetReplica(ctx).Get(&res, queryString, args...); err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *CredentialStore) Upsert(ctx context.Context, userID string, data types.UniversityCredentials) error {
	query := sq.Insert(s.GetTable()).
		Columns("user_id", "university_username", "university_password", "access_token", "refresh_token", "token_expiry").
		Values(userID, data.UniversityUsername, data.UniversityPassword, data.AccessToken, data.RefreshToken, data.TokenExpiry).
		Suffix(`ON CONFLICT (user_id) DO UPDATE SET
			university_username = EXCLUDED.university_username,
			university_password = EXCLUDED.university_password,
			access_token = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token,
			token_expiry = EXCLUDED.token_expiry`)

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(queryString, args...)
	return err
}
