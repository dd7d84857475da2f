package authority

import (
	"github.com/rs/zerolog"

	"StreetEncounters/internal/catalog"
)

// LogRewarder stands in for the external economy system: it records every
// grant instead of performing one. Deployments wire a real implementation.
type LogRewarder struct {
	log zerolog.Logger
}

// NewLogRewarder builds a rewarder that only logs.
func NewLogRewarder(log zerolog.Logger) *LogRewarder {
	return &LogRewarder{log: log.With().Str("component", "rewards").Logger()}
}

func (r *LogRewarder) GrantReward(identity string, reward catalog.Reward) {
	r.log.Info().Str("identity", identity).Int("cash", reward.Cash).Int("items", len(reward.Items)).Msg("reward granted")
}

func (r *LogRewarder) GrantItem(identity string, item catalog.RewardItem) {
	r.log.Info().Str("identity", identity).Str("item", item.Name).Int("count", item.Count).Msg("item granted")
}

func (r *LogRewarder) RevokeItem(identity string, item catalog.RewardItem) {
	r.log.Info().Str("identity", identity).Str("item", item.Name).Int("count", item.Count).Msg("item revoked")
}
