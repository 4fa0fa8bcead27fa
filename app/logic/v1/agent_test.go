package v1

import (
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forptiter/study-assistant/pkg/errors"
	"github.com/forptiter/study-assistant/pkg/types"
)

func TestListAgentsIsCached(t *testing.T) {
	env := newTestEnv(t)
	env.backend.set(func(b *fakeBackend) {
		b.agents = []types.Agent{
			{ID: "qwen3-8b", DisplayName: "Qwen"},
			{ID: "gpt-4o", DisplayName: "GPT"},
			{ID: "qwen-vl", DisplayName: "Qwen VL", SupportsThinkingToggle: lo.ToPtr(false)},
		}
	})

	logic := NewAgentLogic(env.ctx, env.core)
	list, err := logic.ListAgents()
	require.NoError(t, err)
	require.Len(t, list, 3)

	assert.True(t, list[0].ThinkingToggle())
	assert.False(t, list[1].ThinkingToggle())
	assert.False(t, list[2].ThinkingToggle())

	again, err := NewAgentLogic(env.ctx, env.core).ListAgents()
	require.NoError(t, err)
	assert.Equal(t, list, again)
	assert.Equal(t, 1, env.backend.snapshot().agentCalls)
}

func TestGetAgentAndResolve(t *testing.T) {
	env := newTestEnv(t)
	env.backend.set(func(b *fakeBackend) {
		b.agents = []types.Agent{{ID: "gpt-4o", DisplayName: "GPT"}}
	})
	logic := NewAgentLogic(env.ctx, env.core)

	agent, err := logic.GetAgent("gpt-4o")
	require.NoError(t, err)
	assert.Equal(t, "GPT", agent.DisplayName)

	_, err = logic.GetAgent("qwen3-8b")
	assert.True(t, errors.IsKind(err, errors.KindNotFound))

	// unknown ids fall back to the naming convention
	assert.True(t, logic.Resolve("qwen3-8b").ThinkingToggle())
	assert.False(t, logic.Resolve("gpt-4o").ThinkingToggle())
	assert.Equal(t, types.Agent{}, logic.Resolve(""))
}
