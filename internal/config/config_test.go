package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsAndProfiles(t *testing.T) {
	t.Setenv("SUI_REPLAY_GRPC_ENDPOINT", "")
	t.Setenv("SUI_REPLAY_SELF_HEAL_DYNAMIC_FIELDS", "")
	t.Setenv("SUI_REPLAY_DEBUG", "")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "fullnode.mainnet.sui.io:443", cfg.GRPCEndpoint)
	require.False(t, cfg.SelfHealDynamicFields)

	require.Equal(t, FetchTuning{
		ObjectConcurrency: 4, PackageConcurrency: 2,
		GraphQLTimeout: 30 * time.Second, ArchiveTimeout: 10 * time.Second, MaxRetries: 5,
	}, cfg.Tuning(ProfileSafe))
	require.Equal(t, 48, cfg.Tuning(ProfileFast).ObjectConcurrency)
	require.Equal(t, cfg.Tuning(ProfileBalanced), cfg.Tuning("nonsense"))
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("SUI_REPLAY_GRPC_ENDPOINT", "localhost:9000")
	t.Setenv("SUI_REPLAY_SELF_HEAL_DYNAMIC_FIELDS", "true")
	t.Setenv("SUI_REPLAY_DEBUG", "historical,vm")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "localhost:9000", cfg.GRPCEndpoint)
	require.True(t, cfg.SelfHealDynamicFields)
	require.True(t, cfg.DebugSubsystems["historical"])
	require.True(t, cfg.DebugSubsystems["vm"])
	require.Len(t, cfg.DebugSubsystems, 2)
}
