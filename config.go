package authcore

import (
	"errors"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config carries every tunable of the Service. Instances are intended to be
// configured during initialization and then treated as immutable.
type Config struct {
	JWT       JWTConfig
	Password  PasswordConfig
	Challenge ChallengeConfig
	Account   AccountConfig
	Audit     AuditConfig
	Metrics   MetricsConfig
}

// JWTConfig holds signing material and validity windows for the token pair.
// Access and refresh secrets must differ.
type JWTConfig struct {
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	AccessSecret  []byte
	RefreshSecret []byte
	Issuer        string
	Leeway        time.Duration
}

// PasswordConfig holds the Argon2id cost parameters (Memory in KB).
type PasswordConfig struct {
	Memory         uint32
	Time           uint32
	Parallelism    uint8
	SaltLength     uint32
	KeyLength      uint32
	UpgradeOnLogin bool
}

// ChallengeConfig holds the per-purpose challenge validity windows and the
// wrong-code attempt cap.
type ChallengeConfig struct {
	RegistrationTTL time.Duration
	LoginTTL        time.Duration
	ResetTTL        time.Duration
	MaxAttempts     int
}

// AccountConfig holds registration defaults.
type AccountConfig struct {
	DefaultRole string
}

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls the in-process counters.
type MetricsConfig struct {
	Enabled bool
}

// DefaultConfig returns the production baseline. Signing secrets are
// intentionally absent and must be supplied by the caller.
func DefaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			AccessTTL:  15 * time.Minute,
			RefreshTTL: 7 * 24 * time.Hour,
			Issuer:     "hauldesk",
			Leeway:     30 * time.Second,
		},
		Password: PasswordConfig{
			Memory:         64 * 1024,
			Time:           3,
			Parallelism:    2,
			SaltLength:     16,
			KeyLength:      32,
			UpgradeOnLogin: true,
		},
		Challenge: ChallengeConfig{
			RegistrationTTL: 10 * time.Minute,
			LoginTTL:        5 * time.Minute,
			ResetTTL:        10 * time.Minute,
			MaxAttempts:     5,
		},
		Account: AccountConfig{
			DefaultRole: "customer",
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// Validate checks cross-field invariants that the subpackage constructors do
// not already cover.
func (c *Config) Validate() error {
	if c.JWT.AccessTTL <= 0 || c.JWT.RefreshTTL <= 0 {
		return errors.New("jwt TTLs must be positive")
	}
	if c.JWT.RefreshTTL <= c.JWT.AccessTTL {
		return errors.New("jwt refresh TTL must exceed access TTL")
	}
	if len(c.JWT.AccessSecret) == 0 || len(c.JWT.RefreshSecret) == 0 {
		return errors.New("jwt signing secrets are required")
	}
	if c.Challenge.RegistrationTTL <= 0 || c.Challenge.LoginTTL <= 0 || c.Challenge.ResetTTL <= 0 {
		return errors.New("challenge TTLs must be positive")
	}
	if c.Challenge.MaxAttempts < 1 {
		return errors.New("challenge max attempts must be >= 1")
	}
	if c.Account.DefaultRole == "" {
		return errors.New("account default role is required")
	}
	return nil
}

type envConfig struct {
	AccessTTL       time.Duration `env:"AUTHCORE_ACCESS_TTL" envDefault:"15m"`
	RefreshTTL      time.Duration `env:"AUTHCORE_REFRESH_TTL" envDefault:"168h"`
	AccessSecret    string        `env:"AUTHCORE_ACCESS_SECRET"`
	RefreshSecret   string        `env:"AUTHCORE_REFRESH_SECRET"`
	Issuer          string        `env:"AUTHCORE_ISSUER" envDefault:"hauldesk"`
	RegistrationTTL time.Duration `env:"AUTHCORE_CHALLENGE_REGISTRATION_TTL" envDefault:"10m"`
	LoginTTL        time.Duration `env:"AUTHCORE_CHALLENGE_LOGIN_TTL" envDefault:"5m"`
	ResetTTL        time.Duration `env:"AUTHCORE_CHALLENGE_RESET_TTL" envDefault:"10m"`
	MaxAttempts     int           `env:"AUTHCORE_CHALLENGE_MAX_ATTEMPTS" envDefault:"5"`
	DefaultRole     string        `env:"AUTHCORE_DEFAULT_ROLE" envDefault:"customer"`
	AuditEnabled    bool          `env:"AUTHCORE_AUDIT_ENABLED" envDefault:"true"`
	MetricsEnabled  bool          `env:"AUTHCORE_METRICS_ENABLED" envDefault:"true"`
}

// ConfigFromEnv loads configuration from AUTHCORE_* environment variables on
// top of DefaultConfig. It does not validate; Build does.
func ConfigFromEnv() (Config, error) {
	var raw envConfig
	if err := env.Parse(&raw); err != nil {
		return Config{}, err
	}

	cfg := DefaultConfig()
	cfg.JWT.AccessTTL = raw.AccessTTL
	cfg.JWT.RefreshTTL = raw.RefreshTTL
	cfg.JWT.AccessSecret = []byte(raw.AccessSecret)
	cfg.JWT.RefreshSecret = []byte(raw.RefreshSecret)
	cfg.JWT.Issuer = raw.Issuer
	cfg.Challenge.RegistrationTTL = raw.RegistrationTTL
	cfg.Challenge.LoginTTL = raw.LoginTTL
	cfg.Challenge.ResetTTL = raw.ResetTTL
	cfg.Challenge.MaxAttempts = raw.MaxAttempts
	cfg.Account.DefaultRole = raw.DefaultRole
	cfg.Audit.Enabled = raw.AuditEnabled
	cfg.Metrics.Enabled = raw.MetricsEnabled
	return cfg, nil
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.AccessSecret = cloneBytes(cfg.JWT.AccessSecret)
	out.JWT.RefreshSecret = cloneBytes(cfg.JWT.RefreshSecret)
	return out
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
