package types

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

type MessageRole string

const (
	ROLE_USER      MessageRole = "user"
	ROLE_ASSISTANT MessageRole = "assistant"
	ROLE_SYSTEM    MessageRole = "system"
)

// LOCAL_MESSAGE_ID_PREFIX marks messages that only exist in the client's log.
const LOCAL_MESSAGE_ID_PREFIX = "local-"

type Message struct {
	ID        string         `json:"id,omitempty" db:"id"`
	ChatID    string         `json:"chat_id,omitempty" db:"chat_id"`
	Role      MessageRole    `json:"role" db:"role"`
	Content   string         `json:"content" db:"content"`
	Sources   MessageSources `json:"sources,omitempty" db:"sources"`
	CreatedAt time.Time      `json:"created_at" db:"created_at"`
}

func (m Message) IsLocal() bool {
	return m.ID == "" || strings.HasPrefix(m.ID, LOCAL_MESSAGE_ID_PREFIX)
}

// MessageSources is the citation list the backend attaches to assistant replies.
// The client never interprets individual entries.
type MessageSources []json.RawMessage

func (s MessageSources) String() string {
	if s == nil {
		return "[]"
	}
	raw, _ := json.Marshal(s)
	return string(raw)
}

func (s *MessageSources) Scan(src interface{}) error {
	switch src := src.(type) {
	case []byte:
		return s.scanBytes(src)
	case string:
		return s.scanBytes([]byte(src))
	case nil:
		*s = nil
		return nil
	}

	return fmt.Errorf("pq: cannot convert %T to MessageSources", src)
}

func (s *MessageSources) scanBytes(src []byte) error {
	if len(src) == 0 || string(src) == "null" {
		*s = nil
		return nil
	}
	return json.Unmarshal(src, s)
}
