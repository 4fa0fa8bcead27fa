package sqlstore

import (
	"context"
	"log/slog"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/forptiter/study-assistant/pkg/utils"
)

type SqlCommons interface {
	GetTable(...interface{}) string
}

type ConnectConfig interface {
	FormatDSN() string
}

type SqlProvider struct {
	master   *sqlx.DB
	replicas []*sqlx.DB
}

type TransactionKey struct{}

func (s *SqlProvider) GetTxFromCtx(ctx context.Context) *sqlx.Tx {
	if tx, ok := ctx.Value(TransactionKey{}).(*sqlx.Tx); ok {
		return tx
	}
	return nil
}

func (s *SqlProvider) GetMaster() *sqlx.DB {
	return s.master
}

func (s *SqlProvider) GetReplica() *sqlx.DB {
	return s.replicas[utils.Random(0, len(s.replicas)-1)]
}

// Transaction runs next inside a master transaction carried by the context.
// Nested calls join the outer transaction.
func (s *SqlProvider) Transaction(ctx context.Context, next func(ctx context.Context) error) (err error) {
	if ctx == nil {
		ctx = context.Background()
	}

	if s.GetTxFromCtx(ctx) != nil {
		return next(ctx)
	}

	tx, err := s.GetMaster().BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			slog.Error("Transaction rollbacked", slog.Any("recover", r))
			_ = tx.Rollback()
			panic(r)
		}
		if err != nil {
			slog.Error("Transaction rollbacked", slog.String("error", err.Error()))
			_ = tx.Rollback()
		}
	}()

	if err = next(context.WithValue(ctx, TransactionKey{}, tx)); err != nil {
		return err
	}

	return tx.Commit()
}

func MustSetupProvider(m ConnectConfig, s ...ConnectConfig) *SqlProvider {
	provider := &SqlProvider{
		master: sqlx.MustOpen("postgres", m.FormatDSN()),
	}

	for _, v := range s {
		provider.replicas = append(provider.replicas, sqlx.MustOpen("postgres", v.FormatDSN()))
	}

	if len(provider.replicas) == 0 {
		provider.replicas = append(provider.replicas, provider.master)
	}

	return provider
}

// NewProvider wraps already opened connections.
func NewProvider(master *sqlx.DB, replicas ...*sqlx.DB) *SqlProvider {
	if len(replicas) == 0 {
		replicas = []*sqlx.DB{master}
	}
	return &SqlProvider{master: master, replicas: replicas}
}

func (s *SqlProvider) Close() error {
	for _, r := range s.replicas {
		if r != s.master {
			_ = r.Close()
		}
	}
	return s.master.Close()
}
