package types

// ChatRequest is the body posted to the chat endpoint.
type ChatRequest struct {
	Stream                bool                   `json:"stream"`
	Message               string                 `json:"message"`
	ConversationHistory   []Message              `json:"conversation_history"`
	UserID                *string                `json:"user_id"`
	UniversityCredentials *UniversityCredentials `json:"university_credentials"`
	FileIDs               []string               `json:"file_ids"`
	AgentID               *string                `json:"agent_id"`
	WebSearchEnabled      bool                   `json:"web_search_enabled"`
	ChatID                string                 `json:"chat_id"`
	SpaceID               *string                `json:"space_id"`
}

type UploadFileResponse struct {
	Success  bool   `json:"success"`
	FileID   string `json:"file_id"`
	Filename string `json:"filename"`
	Error    string `json:"error"`
}

type ChatTab string

const (
	TAB_THREAD ChatTab = "thread"
	TAB_SPACE  ChatTab = "space"
)
