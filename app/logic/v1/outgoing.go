package v1

import (
	"github.com/samber/lo"

	"github.com/forptiter/study-assistant/pkg/types"
)

const DEFAULT_THINKING_SUFFIX = " /no_thinking"

// BuildTransmittedMessage returns the text sent to the backend for what the user typed.
// The suffix asking for abbreviated reasoning is added only for agents that support it,
// with thinking mode off and web search off. Web search always keeps full reasoning.
func BuildTransmittedMessage(text string, agent types.Agent, thinking, webSearch bool, suffix string) string {
	if !agent.ThinkingToggle() || thinking || webSearch {
		return text
	}
	if suffix == "" {
		suffix = DEFAULT_THINKING_SUFFIX
	}
	return text + suffix
}

type OutgoingRequest struct {
	Transmitted string
	// History is the conversation log before the new user message.
	History     []types.Message
	UserID      string
	Credentials *types.UniversityCredentials
	FileIDs     []string
	AgentID     string
	WebSearch   bool
	ChatID      string
	SpaceID     string
}

func (r OutgoingRequest) ChatRequest() types.ChatRequest {
	return types.ChatRequest{
		Stream:                true,
		Message:               r.Transmitted,
		ConversationHistory:   lo.Ternary(r.History == nil, []types.Message{}, r.History),
		UserID:                lo.EmptyableToPtr(r.UserID),
		UniversityCredentials: r.Credentials,
		FileIDs:               lo.Ternary(r.FileIDs == nil, []string{}, r.FileIDs),
		AgentID:               lo.EmptyableToPtr(r.AgentID),
		WebSearchEnabled:      r.WebSearch,
		ChatID:                r.ChatID,
		SpaceID:               lo.EmptyableToPtr(r.SpaceID),
	}
}
