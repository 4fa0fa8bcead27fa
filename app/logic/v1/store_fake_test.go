package v1

import (
	"context"
	"database/sql"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/forptiter/study-assistant/app/store"
	"github.com/forptiter/study-assistant/pkg/types"
)

// memDB is an in-memory stand-in for the Postgres stores.
type memDB struct {
	mu       sync.Mutex
	txMu     sync.Mutex
	sessions []types.ChatSession
	messages []types.Message
	spaces   []types.Space
	files    []types.UserFile
	creds    map[string]types.UniversityCredentials

	failSessionCreate error
	failListMessages  error
}

func newMemDB() *memDB {
	return &memDB{creds: map[string]types.UniversityCredentials{}}
}

// memTables is a copy of the table contents, used to roll back transactions.
type memTables struct {
	sessions []types.ChatSession
	messages []types.Message
	spaces   []types.Space
	files    []types.UserFile
}

func (db *memDB) snapshot() memTables {
	db.mu.Lock()
	defer db.mu.Unlock()
	return memTables{
		sessions: append([]types.ChatSession(nil), db.sessions...),
		messages: append([]types.Message(nil), db.messages...),
		spaces:   append([]types.Space(nil), db.spaces...),
		files:    append([]types.UserFile(nil), db.files...),
	}
}

func (db *memDB) restore(s memTables) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.sessions, db.messages, db.spaces, db.files = s.sessions, s.messages, s.spaces, s.files
}

func (db *memDB) session(id string) (types.ChatSession, bool) {
	db.mu.Lock()
	defer db.mu.Unlock()
	for _, s := range db.sessions {
		if s.ID == id {
			return s, true
		}
	}
	return types.ChatSession{}, false
}

func (db *memDB) sessionMessages(chatID string) []types.Message {
	db.mu.Lock()
	defer db.mu.Unlock()
	var list []types.Message
	for _, m := range db.messages {
		if m.ChatID == chatID {
			list = append(list, m)
		}
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].CreatedAt.Before(list[j].CreatedAt) })
	return list
}

func (db *memDB) addMessage(m types.Message) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	db.messages = append(db.messages, m)
}

type memProvider struct {
	db *memDB
}

func (p *memProvider) Transaction(ctx context.Context, next func(ctx context.Context) error) error {
	p.db.txMu.Lock()
	defer p.db.txMu.Unlock()

	before := p.db.snapshot()
	if err := next(ctx); err != nil {
		p.db.restore(before)
		return err
	}
	return nil
}

func (p *memProvider) ChatSessionStore() store.ChatSessionStore { return &memSessions{p.db} }
func (p *memProvider) ChatMessageStore() store.ChatMessageStore { return &memMessages{p.db} }
func (p *memProvider) SpaceStore() store.SpaceStore             { return &memSpaces{p.db} }
func (p *memProvider) UserFileStore() store.UserFileStore       { return &memFiles{p.db} }
func (p *memProvider) CredentialStore() store.CredentialStore   { return &memCreds{p.db} }

type memSessions struct{ db *memDB }

func (s *memSessions) GetTable(...interface{}) string { return types.TABLE_CHAT_SESSION.Name() }

func (s *memSessions) Create(ctx context.Context, data types.ChatSession) error {
	if s.db.failSessionCreate != nil {
		return s.db.failSessionCreate
	}
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.sessions = append(s.db.sessions, data)
	return nil
}

func (s *memSessions) GetChatSession(ctx context.Context, userID, id string) (*types.ChatSession, error) {
	session, ok := s.db.session(id)
	if !ok || session.UserID != userID {
		return nil, sql.ErrNoRows
	}
	return &session, nil
}

func (s *memSessions) List(ctx context.Context, opts types.ListChatSessionOptions) ([]types.ChatSession, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var list []types.ChatSession
	for _, item := range s.db.sessions {
		if opts.UserID != "" && item.UserID != opts.UserID {
			continue
		}
		if opts.SpaceID != "" && item.SpaceID != opts.SpaceID {
			continue
		}
		if opts.SpaceID == "" && opts.OnlyThread && item.SpaceID != "" {
			continue
		}
		list = append(list, item)
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return list, nil
}

func (s *memSessions) Total(ctx context.Context, userID string) (int64, error) {
	list, _ := s.List(ctx, types.ListChatSessionOptions{UserID: userID})
	return int64(len(list)), nil
}

func (s *memSessions) GetOldest(ctx context.Context, userID string) (*types.ChatSession, error) {
	list, _ := s.List(ctx, types.ListChatSessionOptions{UserID: userID})
	if len(list) == 0 {
		return nil, sql.ErrNoRows
	}
	oldest := list[len(list)-1]
	return &oldest, nil
}

func (s *memSessions) LockUserSessions(ctx context.Context, userID string) error { return nil }

func (s *memSessions) update(id string, fn func(*types.ChatSession) bool) bool {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for i := range s.db.sessions {
		if s.db.sessions[i].ID == id {
			return fn(&s.db.sessions[i])
		}
	}
	return false
}

func (s *memSessions) UpdateAgent(ctx context.Context, id, agentID string) error {
	s.update(id, func(cs *types.ChatSession) bool { cs.AgentID = agentID; return true })
	return nil
}

func (s *memSessions) MarkNamed(ctx context.Context, id, name string) (bool, error) {
	return s.update(id, func(cs *types.ChatSession) bool {
		if cs.HasBeenNamed {
			return false
		}
		cs.Name, cs.HasBeenNamed = name, true
		return true
	}), nil
}

func (s *memSessions) Delete(ctx context.Context, id string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var kept []types.ChatSession
	for _, item := range s.db.sessions {
		if item.ID != id {
			kept = append(kept, item)
		}
	}
	s.db.sessions = kept
	return nil
}

type memMessages struct{ db *memDB }

func (s *memMessages) GetTable(...interface{}) string { return types.TABLE_MESSAGE.Name() }

func (s *memMessages) Create(ctx context.Context, data types.Message) error {
	s.db.addMessage(data)
	return nil
}

func (s *memMessages) ListSessionMessages(ctx context.Context, chatID string) ([]types.Message, error) {
	if s.db.failListMessages != nil {
		return nil, s.db.failListMessages
	}
	return s.db.sessionMessages(chatID), nil
}

func (s *memMessages) DeleteSessionMessages(ctx context.Context, chatID string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var kept []types.Message
	for _, m := range s.db.messages {
		if m.ChatID != chatID {
			kept = append(kept, m)
		}
	}
	s.db.messages = kept
	return nil
}

type memSpaces struct{ db *memDB }

func (s *memSpaces) GetTable(...interface{}) string { return types.TABLE_SPACE.Name() }

func (s *memSpaces) Create(ctx context.Context, data types.Space) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.spaces = append(s.db.spaces, data)
	return nil
}

func (s *memSpaces) GetSpace(ctx context.Context, userID, id string) (*types.Space, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, item := range s.db.spaces {
		if item.ID == id && item.UserID == userID {
			return &item, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *memSpaces) Update(ctx context.Context, userID, id string, args types.UpdateSpaceArgs) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for i := range s.db.spaces {
		if s.db.spaces[i].ID == id && s.db.spaces[i].UserID == userID {
			s.db.spaces[i].Name = args.Name
			s.db.spaces[i].Description = args.Description
			s.db.spaces[i].Prompt = args.Prompt
		}
	}
	return nil
}

func (s *memSpaces) List(ctx context.Context, userID string) ([]types.Space, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var list []types.Space
	for _, item := range s.db.spaces {
		if item.UserID == userID {
			list = append(list, item)
		}
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return list, nil
}

type memFiles struct{ db *memDB }

func (s *memFiles) GetTable(...interface{}) string { return types.TABLE_USER_FILE.Name() }

func (s *memFiles) ListSpaceFiles(ctx context.Context, spaceID string) ([]types.UserFile, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var list []types.UserFile
	for _, f := range s.db.files {
		if f.SpaceID == spaceID {
			list = append(list, f)
		}
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return list, nil
}

type memCreds struct{ db *memDB }

func (s *memCreds) GetTable(...interface{}) string { return types.TABLE_UNIVERSITY_CREDENTIALS.Name() }

func (s *memCreds) GetUniversityCredentials(ctx context.Context, userID string) (*types.UniversityCredentials, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	c, ok := s.db.creds[userID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &c, nil
}

func (s *memCreds) Upsert(ctx context.Context, userID string, data types.UniversityCredentials) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.creds[userID] = data
	return nil
}
