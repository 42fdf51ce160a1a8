package reliudp

import (
	"context"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Config holds the tuning constants named in spec.md §6. Zero-value
// construction (Config{}) is invalid; use DefaultConfig or
// LoadConfig.
type Config struct {
	PacketDropTime     time.Duration `env:"RELIUDP_PACKET_DROP_TIME,default=5s"`
	MaxResendAttempts  int           `env:"RELIUDP_MAX_RESEND_ATTEMPTS,default=5"`
	DirectorPollPeriod time.Duration `env:"RELIUDP_POLL_INTERVAL,default=1ms"`
	RecvBufferBytes    int           `env:"RELIUDP_RECV_BUFFER_BYTES,default=256"`
}

// DefaultConfig returns the spec's hardcoded defaults: 5s drop time,
// 5 max attempts, 1ms poll cadence, 256-byte receive buffer.
func DefaultConfig() Config {
	return Config{
		PacketDropTime:     5 * time.Second,
		MaxResendAttempts:  5,
		DirectorPollPeriod: time.Millisecond,
		RecvBufferBytes:    RecvBufferBytes,
	}
}

// LoadConfig resolves Config from the environment, falling back to
// DefaultConfig's values (the struct tags' defaults) for anything unset.
func LoadConfig(ctx context.Context) (Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
