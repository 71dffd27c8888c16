package nft

import (
	"github.com/code-payments/code-nft-issuer/pkg/config"
	"github.com/code-payments/code-nft-issuer/pkg/config/env"
	"github.com/code-payments/code-nft-issuer/pkg/config/memory"
	"github.com/code-payments/code-nft-issuer/pkg/config/wrapper"
)

const (
	envConfigPrefix = "NFT_ISSUER_"

	EnablePreflightCheckConfigEnvName = envConfigPrefix + "ENABLE_PREFLIGHT_CHECK"
	defaultEnablePreflightCheck       = true

	EnableSimulationConfigEnvName = envConfigPrefix + "ENABLE_SIMULATION"
	defaultEnableSimulation       = false

	CommitmentConfigEnvName = envConfigPrefix + "COMMITMENT"
	defaultCommitment       = "finalized"

	// Compute units requested for the issuance transaction. Zero leaves the
	// runtime default.
	ComputeUnitLimitConfigEnvName = envConfigPrefix + "COMPUTE_UNIT_LIMIT"
	defaultComputeUnitLimit       = 0

	// Prioritization fee in micro-lamports per compute unit. Zero pays none.
	ComputeUnitPriceConfigEnvName = envConfigPrefix + "COMPUTE_UNIT_PRICE"
	defaultComputeUnitPrice       = 0

	// Issuances per second allowed for a single creator. Zero disables the
	// limit.
	CreatorIssuanceRateLimitConfigEnvName = envConfigPrefix + "CREATOR_ISSUANCE_RATE_LIMIT"
	defaultCreatorIssuanceRateLimit       = 0
)

type conf struct {
	enablePreflightCheck config.Bool
	enableSimulation     config.Bool
	commitment           config.String

	computeUnitLimit config.Uint64
	computeUnitPrice config.Uint64

	creatorIssuanceRateLimit config.Float64
}

// ConfigProvider defines how config values are pulled
type ConfigProvider func() *conf

// WithEnvConfigs returns configuration pulled from environment variables
func WithEnvConfigs() ConfigProvider {
	return func() *conf {
		return &conf{
			enablePreflightCheck: env.NewBoolConfig(EnablePreflightCheckConfigEnvName, defaultEnablePreflightCheck),
			enableSimulation:     env.NewBoolConfig(EnableSimulationConfigEnvName, defaultEnableSimulation),
			commitment:           env.NewStringConfig(CommitmentConfigEnvName, defaultCommitment),

			computeUnitLimit: env.NewUint64Config(ComputeUnitLimitConfigEnvName, defaultComputeUnitLimit),
			computeUnitPrice: env.NewUint64Config(ComputeUnitPriceConfigEnvName, defaultComputeUnitPrice),

			creatorIssuanceRateLimit: env.NewFloat64Config(CreatorIssuanceRateLimitConfigEnvName, defaultCreatorIssuanceRateLimit),
		}
	}
}

type testOverrides struct {
	disablePreflightCheck bool
	enableSimulation      bool

	computeUnitLimit uint64
	computeUnitPrice uint64

	creatorIssuanceRateLimit float64
}

func withManualTestOverrides(overrides *testOverrides) ConfigProvider {
	return func() *conf {
		return &conf{
			enablePreflightCheck: wrapper.NewBoolConfig(memory.NewConfig(!overrides.disablePreflightCheck), defaultEnablePreflightCheck),
			enableSimulation:     wrapper.NewBoolConfig(memory.NewConfig(overrides.enableSimulation), defaultEnableSimulation),
			commitment:           wrapper.NewStringConfig(memory.NewConfig(defaultCommitment), defaultCommitment),

			computeUnitLimit: wrapper.NewUint64Config(memory.NewConfig(overrides.computeUnitLimit), defaultComputeUnitLimit),
			computeUnitPrice: wrapper.NewUint64Config(memory.NewConfig(overrides.computeUnitPrice), defaultComputeUnitPrice),

			creatorIssuanceRateLimit: wrapper.NewFloat64Config(memory.NewConfig(overrides.creatorIssuanceRateLimit), defaultCreatorIssuanceRateLimit),
		}
	}
}
