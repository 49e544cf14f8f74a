package rpc

import (
	"time"

	"github.com/spf13/viper"

	"github.com/code-payments/code-solana-sdk/pkg/config"
	"github.com/code-payments/code-solana-sdk/pkg/config/env"
	"github.com/code-payments/code-solana-sdk/pkg/config/memory"
	viperconfig "github.com/code-payments/code-solana-sdk/pkg/config/viper"
	"github.com/code-payments/code-solana-sdk/pkg/config/wrapper"
	"github.com/code-payments/code-solana-sdk/pkg/solana"
)

const (
	envConfigPrefix   = "SOLANA_RPC_"
	viperConfigPrefix = "solana.rpc."

	EndpointConfigEnvName = envConfigPrefix + "ENDPOINT"
	defaultEndpoint       = string(solana.EnvironmentProd)

	CommitmentConfigEnvName = envConfigPrefix + "COMMITMENT"
	defaultCommitment       = confirmationStatusConfirmed

	MaxRetriesConfigEnvName = envConfigPrefix + "MAX_RETRIES"
	defaultMaxRetries       = 3

	BlockhashCacheTTLConfigEnvName = envConfigPrefix + "BLOCKHASH_CACHE_TTL"
	defaultBlockhashCacheTTL       = 2 * time.Second

	RetryBackoffConfigEnvName = envConfigPrefix + "RETRY_BACKOFF"
	defaultRetryBackoff       = time.Second

	// RequestsPerSecondConfigEnvName limits the requests made per RPC method.
	// Zero disables the limit.
	RequestsPerSecondConfigEnvName = envConfigPrefix + "REQUESTS_PER_SECOND"
	defaultRequestsPerSecond       = 0
)

type conf struct {
	endpoint          config.String
	commitment        config.String
	maxRetries        config.Uint64
	blockhashCacheTTL config.Duration
	retryBackoff      config.Duration
	requestsPerSecond config.Uint64
}

// ConfigProvider defines how config values are pulled
type ConfigProvider func() *conf

// WithEnvConfigs returns configuration pulled from environment variables
func WithEnvConfigs() ConfigProvider {
	return func() *conf {
		return &conf{
			endpoint:          env.NewStringConfig(EndpointConfigEnvName, defaultEndpoint),
			commitment:        env.NewStringConfig(CommitmentConfigEnvName, defaultCommitment),
			maxRetries:        env.NewUint64Config(MaxRetriesConfigEnvName, defaultMaxRetries),
			blockhashCacheTTL: env.NewDurationConfig(BlockhashCacheTTLConfigEnvName, defaultBlockhashCacheTTL),
			retryBackoff:      env.NewDurationConfig(RetryBackoffConfigEnvName, defaultRetryBackoff),
			requestsPerSecond: env.NewUint64Config(RequestsPerSecondConfigEnvName, defaultRequestsPerSecond),
		}
	}
}

// WithViperConfigs returns configuration pulled from v under the
// "solana.rpc" section, using the lower case suffixes of the environment
// variable names as keys (for example, solana.rpc.max_retries).
func WithViperConfigs(v *viper.Viper) ConfigProvider {
	return func() *conf {
		return &conf{
			endpoint:          viperconfig.NewStringConfig(v, viperConfigPrefix+"endpoint", defaultEndpoint),
			commitment:        viperconfig.NewStringConfig(v, viperConfigPrefix+"commitment", defaultCommitment),
			maxRetries:        viperconfig.NewUint64Config(v, viperConfigPrefix+"max_retries", defaultMaxRetries),
			blockhashCacheTTL: viperconfig.NewDurationConfig(v, viperConfigPrefix+"blockhash_cache_ttl", defaultBlockhashCacheTTL),
			retryBackoff:      viperconfig.NewDurationConfig(v, viperConfigPrefix+"retry_backoff", defaultRetryBackoff),
			requestsPerSecond: viperconfig.NewUint64Config(v, viperConfigPrefix+"requests_per_second", defaultRequestsPerSecond),
		}
	}
}

type testOverrides struct {
	endpoint          string
	commitment        string
	maxRetries        uint64
	blockhashCacheTTL time.Duration
	retryBackoff      time.Duration
	requestsPerSecond uint64
}

func withManualTestOverrides(overrides *testOverrides) ConfigProvider {
	return func() *conf {
		commitment := overrides.commitment
		if commitment == "" {
			commitment = defaultCommitment
		}

		return &conf{
			endpoint:          wrapper.NewStringConfig(memory.NewConfig(overrides.endpoint), defaultEndpoint),
			commitment:        wrapper.NewStringConfig(memory.NewConfig(commitment), defaultCommitment),
			maxRetries:        wrapper.NewUint64Config(memory.NewConfig(overrides.maxRetries), defaultMaxRetries),
			blockhashCacheTTL: wrapper.NewDurationConfig(memory.NewConfig(overrides.blockhashCacheTTL), defaultBlockhashCacheTTL),
			retryBackoff:      wrapper.NewDurationConfig(memory.NewConfig(overrides.retryBackoff), defaultRetryBackoff),
			requestsPerSecond: wrapper.NewUint64Config(memory.NewConfig(overrides.requestsPerSecond), defaultRequestsPerSecond),
		}
	}
}
