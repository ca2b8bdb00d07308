package config

import "time"

// CurrentConfigVersion is the schema version for the config file.
// Increment when making breaking changes to the config structure.
const CurrentConfigVersion = 1

// Config represents the complete .statemon.yaml configuration file.
type Config struct {
	Version int           `yaml:"version" mapstructure:"version"`
	Bus     BusConfig     `yaml:"bus" mapstructure:"bus"`
	Plot    PlotConfig    `yaml:"plot" mapstructure:"plot"`
	Refresh RefreshConfig `yaml:"refresh" mapstructure:"refresh"`
	Keys    KeysConfig    `yaml:"keys" mapstructure:"keys"`

	// LogFile receives log output while the dashboard owns the terminal.
	LogFile string `yaml:"log_file" mapstructure:"log_file"`
}

// BusConfig controls the MQTT connection used for discovery, subscriptions
// and reset calls.
type BusConfig struct {
	// Broker URL, e.g. tcp://localhost:1883.
	Broker   string `yaml:"broker" mapstructure:"broker"`
	ClientID string `yaml:"client_id" mapstructure:"client_id"`
	Username string `yaml:"username,omitempty" mapstructure:"username"`
	Password string `yaml:"password,omitempty" mapstructure:"password"`

	ConnectTimeout time.Duration `yaml:"connect_timeout" mapstructure:"connect_timeout"`

	// CallTimeout bounds a single reset request/reply round trip.
	CallTimeout time.Duration `yaml:"call_timeout" mapstructure:"call_timeout"`

	// DiscoveryFilter is the wildcard subscription used to learn topic names.
	DiscoveryFilter string `yaml:"discovery_filter" mapstructure:"discovery_filter"`
}

// PlotConfig controls the rolling plots.
type PlotConfig struct {
	// RetentionSecs is how many seconds of history each sub-plot keeps.
	RetentionSecs float64 `yaml:"retention_secs" mapstructure:"retention_secs"`

	// Quality selects the color profile: 0 monochrome, 1 ANSI, 2 true color.
	Quality int `yaml:"quality" mapstructure:"quality"`

	// Padding is the blank border (in cells) around the plot grid.
	Padding int `yaml:"padding" mapstructure:"padding"`
}

// RefreshConfig holds the two loop timers.
type RefreshConfig struct {
	DrawInterval time.Duration `yaml:"draw_interval" mapstructure:"draw_interval"`
	ScanInterval time.Duration `yaml:"scan_interval" mapstructure:"scan_interval"`
}

// KeysConfig maps key names (as reported by Bubble Tea) to focus actions.
type KeysConfig struct {
	Next  []string `yaml:"next" mapstructure:"next"`
	Prev  []string `yaml:"prev" mapstructure:"prev"`
	Reset []string `yaml:"reset" mapstructure:"reset"`
}

// Retention returns RetentionSecs as a duration.
func (p PlotConfig) Retention() time.Duration {
	return time.Duration(p.RetentionSecs * float64(time.Second))
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Version: CurrentConfigVersion,
		Bus: BusConfig{
			Broker:          "tcp://localhost:1883",
			ClientID:        "statemon",
			ConnectTimeout:  5 * time.Second,
			CallTimeout:     2 * time.Second,
			DiscoveryFilter: "#",
		},
		Plot: PlotConfig{
			RetentionSecs: 10.0,
			Quality:       2,
			Padding:       1,
		},
		Refresh: RefreshConfig{
			DrawInterval: 100 * time.Millisecond,
			ScanInterval: time.Second,
		},
		Keys: KeysConfig{
			Next:  []string{"down", "j"},
			Prev:  []string{"up", "k"},
			Reset: []string{"r"},
		},
		LogFile: "statemon.log",
	}
}
