package sqlstore

import (
	"context"
	"embed"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/forptiter/study-assistant/app/store"
	"github.com/forptiter/study-assistant/pkg/sqlstore"
	"github.com/forptiter/study-assistant/pkg/types"
)

//go:embed schema/*.sql
var CreateTableFiles embed.FS

const schemaDir = "schema"

func init() {
	sq.StatementBuilder = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
}

type Provider struct {
	*sqlstore.SqlProvider
	stores *Stores
}

type Stores struct {
	store.ChatSessionStore
	store.ChatMessageStore
	store.SpaceStore
	store.UserFileStore
	store.CredentialStore
}

func MustSetup(m sqlstore.ConnectConfig, s ...sqlstore.ConnectConfig) *Provider {
	return NewWithProvider(sqlstore.MustSetupProvider(m, s...))
}

func NewWithProvider(p *sqlstore.SqlProvider) *Provider {
	provider := &Provider{SqlProvider: p}
	provider.stores = &Stores{
		ChatSessionStore: NewChatSessionStore(provider),
		ChatMessageStore: NewChatMessageStore(provider),
		SpaceStore:       NewSpaceStore(provider),
		UserFileStore:    NewUserFileStore(provider),
		CredentialStore:  NewCredentialStore(provider),
	}
	return provider
}

// Install 初始化所有数据表
func (p *Provider) Install(ctx context.Context) error {
	if err := p.ensureMigrationTable(ctx); err != nil {
		return err
	}

	files, err := CreateTableFiles.ReadDir(schemaDir)
	if err != nil {
		return err
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name() < files[j].Name() })

	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".sql") {
			continue
		}
		executed, err := p.isFileExecuted(ctx, file.Name())
		if err != nil {
			return err
		}
		if executed {
			continue
		}

		sql, err := CreateTableFiles.ReadFile(schemaDir + "/" + file.Name())
		if err != nil {
			return err
		}

		if _, err = p.GetMaster().ExecContext(ctx, string(sql)); err != nil {
			return fmt.Errorf("failed to execute %s: %w", file.Name(), err)
		}

		if err = p.markFileExecuted(ctx, file.Name()); err != nil {
			return err
		}
		slog.Info("schema migration applied", slog.String("file", file.Name()))
	}
	return nil
}

func (p *Provider) ensureMigrationTable(ctx context.Context) error {
	_, err := p.GetMaster().ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS `+types.TABLE_PREFIX+`schema_migrations (
    filename VARCHAR(255) PRIMARY KEY,
    executed_at BIGINT NOT NULL
);`)
	return err
}

func (p *Provider) isFileExecuted(ctx context.Context, filename string) (bool, error) {
	var count int
	err := p.GetMaster().GetContext(ctx, &count,
		"SELECT COUNT(*) FROM "+types.TABLE_PREFIX+"schema_migrations WHERE filename = $1", filename)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (p *Provider) markFileExecuted(ctx context.Context, filename string) error {
	_, err := p.GetMaster().ExecContext(ctx,
		"INSERT INTO "+types.TABLE_PREFIX+"schema_migrations (filename, executed_at) VALUES ($1, $2) ON CONFLICT (filename) DO NOTHING",
		filename, time.Now().Unix())
	return err
}

func (p *Provider) ChatSessionStore() store.ChatSessionStore {
	return p.stores.ChatSessionStore
}

func (p *Provider) ChatMessageStore() store.ChatMessageStore {
	return p.stores.ChatMessageStore
}

func (p *Provider) SpaceStore() store.SpaceStore {
	return p.stores.SpaceStore
}

func (p *Provider) UserFileStore() store.UserFileStore {
	return p.stores.UserFileStore
}

func (p *Provider) CredentialStore() store.CredentialStore {
	return p.stores.CredentialStore
}
