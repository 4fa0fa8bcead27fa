package types

import "strings"

type Agent struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Avatar      string `json:"avatar"`
	Description string `json:"description"`
	// SupportsThinkingToggle reports whether the agent honours the abbreviated
	// reasoning suffix on transmitted messages.
	SupportsThinkingToggle *bool `json:"supports_thinking_toggle,omitempty"`
}

func (a Agent) ThinkingToggle() bool {
	return a.SupportsThinkingToggle != nil && *a.SupportsThinkingToggle
}

// FillCapabilities sets the thinking capability from the id naming convention when
// the backend did not send it explicitly.
func (a *Agent) FillCapabilities(thinkingPrefix string) {
	if a.SupportsThinkingToggle != nil {
		return
	}
	v := thinkingPrefix != "" && strings.HasPrefix(a.ID, thinkingPrefix)
	a.SupportsThinkingToggle = &v
}

type AgentList struct {
	Agents []Agent `json:"agents"`
}
