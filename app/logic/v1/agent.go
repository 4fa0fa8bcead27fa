package v1

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"github.com/samber/lo"

	"github.com/forptiter/study-assistant/app/core"
	"github.com/forptiter/study-assistant/pkg/errors"
	"github.com/forptiter/study-assistant/pkg/i18n"
	"github.com/forptiter/study-assistant/pkg/types"
)

const AGENT_LIST_CACHE_KEY = "chat:agents"

type AgentLogic struct {
	ctx  context.Context
	core *core.Core
}

func NewAgentLogic(ctx context.Context, core *core.Core) *AgentLogic {
	return &AgentLogic{
		ctx:  ctx,
		core: core,
	}
}

// ListAgents returns the backend's agents, served from cache while fresh.
func (l *AgentLogic) ListAgents() ([]types.Agent, error) {
	raw, err := l.core.Cache().Get(l.ctx, AGENT_LIST_CACHE_KEY)
	if err != nil && err != redis.Nil {
		slog.Warn("failed to read agent cache", slog.String("error", err.Error()))
	}
	if err == nil && raw != "" {
		var list []types.Agent
		if err = json.Unmarshal([]byte(raw), &list); err == nil {
			return list, nil
		}
	}

	list, err := l.core.ChatAPI().ListAgents(l.ctx)
	if err != nil {
		return nil, errors.New("AgentLogic.ListAgents.ChatAPI.ListAgents", i18n.ERROR_INTERNAL, err).Kind(errors.KindTransport)
	}
	prefix := l.core.Cfg().Chat.ThinkingAgentPrefix
	for i := range list {
		list[i].FillCapabilities(prefix)
	}

	if encoded, err := json.Marshal(list); err == nil {
		if err = l.core.Cache().SetEx(l.ctx, AGENT_LIST_CACHE_KEY, string(encoded), l.core.Cfg().ChatAPI.AgentCacheTTL.Duration); err != nil {
			slog.Warn("failed to cache agent list", slog.String("error", err.Error()))
		}
	}
	return list, nil
}

func (l *AgentLogic) GetAgent(id string) (*types.Agent, error) {
	list, err := l.ListAgents()
	if err != nil {
		return nil, errors.Trace("AgentLogic.GetAgent", err)
	}
	agent, ok := lo.Find(list, func(a types.Agent) bool { return a.ID == id })
	if !ok {
		return nil, errors.New("AgentLogic.GetAgent.notfound", i18n.ERROR_NOT_FOUND, nil).Kind(errors.KindNotFound)
	}
	return &agent, nil
}

// Resolve returns the descriptor for id. When the catalog can't be read the
// capabilities are derived from the id alone.
func (l *AgentLogic) Resolve(id string) types.Agent {
	if id == "" {
		return types.Agent{}
	}
	agent, err := l.GetAgent(id)
	if err == nil {
		return *agent
	}
	if !errors.IsKind(err, errors.KindNotFound) {
		slog.Warn("failed to resolve agent", slog.String("agent_id", id), slog.String("error", err.Error()))
	}
	fallback := types.Agent{ID: id}
	fallback.FillCapabilities(l.core.Cfg().Chat.ThinkingAgentPrefix)
	return fallback
}
