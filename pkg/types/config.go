package types

import "time"

// Config holds backend selection and engine parameters for Store.Attach and
// the synchronizer.
type Config struct {
	Backend string `json:"backend" yaml:"backend"`
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// PollInterval is the address-change polling period of the state
	// synchronizer. Zero means DefaultPollInterval.
	PollInterval time.Duration `json:"poll_interval" yaml:"poll_interval"`

	// HeartbeatInterval is the period of the lastActiveAt refresh while a
	// session is active. Zero means DefaultHeartbeatInterval.
	HeartbeatInterval time.Duration `json:"heartbeat_interval" yaml:"heartbeat_interval"`

	// RequireInitialCondition gates the pre-flow inspection step on
	// departure flows. When true, an active departure session routes to
	// the initial-condition screen until that step is recorded done.
	RequireInitialCondition bool `json:"require_initial_condition" yaml:"require_initial_condition"`
}

// Supported backend names.
const (
	BackendSQLite = "sqlite"
)

// Defaults applied when the corresponding Config field is zero.
const (
	DefaultPollInterval      = 250 * time.Millisecond
	DefaultHeartbeatInterval = 30 * time.Second
)

// knownBackends lists the backends that Validate accepts.
var knownBackends = map[string]bool{
	BackendSQLite: true,
}

// Validate checks that the Config is well-formed. It returns a sentinel
// error from this package on failure.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	if c.PollInterval < 0 || c.HeartbeatInterval < 0 {
		return ErrBadInterval
	}
	return nil
}

// EffectivePollInterval returns PollInterval with the default applied.
func (c Config) EffectivePollInterval() time.Duration {
	if c.PollInterval > 0 {
		return c.PollInterval
	}
	return DefaultPollInterval
}

// EffectiveHeartbeatInterval returns HeartbeatInterval with the default applied.
func (c Config) EffectiveHeartbeatInterval() time.Duration {
	if c.HeartbeatInterval > 0 {
		return c.HeartbeatInterval
	}
	return DefaultHeartbeatInterval
}
