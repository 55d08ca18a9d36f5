package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"codeberg.org/mutker/lhmosc/internal/errors"
	"codeberg.org/mutker/lhmosc/internal/metrics"
	"codeberg.org/mutker/lhmosc/internal/osc"
	"codeberg.org/mutker/lhmosc/internal/poll"
	"codeberg.org/mutker/lhmosc/internal/sensor"
	"codeberg.org/mutker/lhmosc/internal/source"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultEnvPrefix  = "LHMOSC"
	DefaultConfigName = "config"
	DefaultConfigType = "json"
	DefaultInterval   = time.Second
)

type Config struct {
	OSCIP    string `mapstructure:"osc_ip"`
	OSCPort  int    `mapstructure:"osc_port"`
	JSONPort int    `mapstructure:"json_port"`

	CPUTempName     string `mapstructure:"cpu_temp_name"`
	CPUUsageName    string `mapstructure:"cpu_usage_name"`
	GPUTempName     string `mapstructure:"gpu_temp_name"`
	GPUUsageName    string `mapstructure:"gpu_usage_name"`
	GPUMemUsedName  string `mapstructure:"gpu_mem_used_name"`
	GPUMemTotalName string `mapstructure:"gpu_mem_total_name"`
	WifiUpName      string `mapstructure:"wifi_up_name"`
	WifiDownName    string `mapstructure:"wifi_down_name"`

	NetworkInterface string        `mapstructure:"network_interface"`
	Interval         time.Duration `mapstructure:"interval"`
	RetryInterval    time.Duration `mapstructure:"retry_interval"`
	FetchTimeout     time.Duration `mapstructure:"fetch_timeout"`
	StatusAddr       string        `mapstructure:"status_addr"`
	PIDFile          string        `mapstructure:"pid_file"`

	Metrics metrics.Config `mapstructure:"metrics"`

	Debug   bool `mapstructure:"debug"`
	Verbose bool `mapstructure:"verbose"`

	// WriteConfig asks the caller to persist the effective settings and exit.
	WriteConfig bool `mapstructure:"-"`

	v *viper.Viper
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("osc_ip", osc.DefaultHost)
	v.SetDefault("osc_port", osc.DefaultPort)
	v.SetDefault("json_port", source.DefaultPort)

	v.SetDefault("cpu_temp_name", "Core (Tctl/Tdie)")
	v.SetDefault("cpu_usage_name", "CPU Total")
	v.SetDefault("gpu_temp_name", "GPU Core_Temp-1  ( ! )")
	v.SetDefault("gpu_usage_name", "GPU Core_Used-1  ( ! )")
	v.SetDefault("gpu_mem_used_name", "GPU Memory_Used-1  ( ! )")
	v.SetDefault("gpu_mem_total_name", "GPU Memory_Total-1  ( ! )")
	v.SetDefault("wifi_up_name", "Upload Speed")
	v.SetDefault("wifi_down_name", "Download Speed")

	v.SetDefault("network_interface", sensor.DefaultInterface)
	v.SetDefault("interval", DefaultInterval)
	v.SetDefault("retry_interval", poll.DefaultRetryInterval)
	v.SetDefault("fetch_timeout", source.DefaultTimeout)
	v.SetDefault("status_addr", "")
	v.SetDefault("pid_file", filepath.Join(os.TempDir(), "lhmosc.pid"))

	m := metrics.DefaultConfig()
	v.SetDefault("metrics.enabled", m.Enabled)
	v.SetDefault("metrics.db_path", m.DBPath)
	v.SetDefault("metrics.batch_size", m.BatchSize)
	v.SetDefault("metrics.batch_timeout", m.BatchTimeout)

	v.SetDefault("debug", false)
	v.SetDefault("verbose", false)
}

func newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("lhmosc", pflag.ContinueOnError)
	fs.String("config", "", "Path to the configuration file")
	fs.String("osc-ip", osc.DefaultHost, "OSC receiver address")
	fs.Int("osc-port", osc.DefaultPort, "OSC receiver port")
	fs.Int("json-port", source.DefaultPort, "Port of the hardware monitor's JSON feed")
	fs.Duration("interval", DefaultInterval, "Interval between ticks")
	fs.String("status-addr", "", "Listen address of the status server (disabled when empty)")
	fs.Bool("history", false, "Record readings to the history database")
	fs.Bool("debug", false, "Enable debugging mode")
	fs.Bool("verbose", false, "Enable verbose logging")
	fs.Bool("write-config", false, "Write the effective configuration to the config file and exit")
	return fs
}

var flagKeys = map[string]string{
	"osc-ip":      "osc_ip",
	"osc-port":    "osc_port",
	"json-port":   "json_port",
	"interval":    "interval",
	"status-addr": "status_addr",
	"history":     "metrics.enabled",
	"debug":       "debug",
	"verbose":     "verbose",
}

// Load reads defaults, the config file, LHMOSC_* environment variables and
// args, in increasing order of precedence. A missing config file is not an
// error; the defaults are used and Save creates it.
func Load(args []string, opts ...Option) (*Config, error) {
	errFactory := errors.New()

	o := options{envPrefix: DefaultEnvPrefix}
	for _, opt := range opts {
		if err := opt(&o); err != nil {
			return nil, errFactory.Wrap(errors.ErrInvalidArgument, err)
		}
	}

	fs := newFlagSet()
	if err := fs.Parse(args); err != nil {
		return nil, errFactory.Wrap(errors.ErrBindFlags, err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(o.envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for name, key := range flagKeys {
		if err := v.BindPFlag(key, fs.Lookup(name)); err != nil {
			return nil, errFactory.Wrap(errors.ErrBindFlags, err)
		}
	}

	path := o.configPath
	if f, _ := fs.GetString("config"); f != "" {
		path = f
	}
	if path == "" {
		path = os.Getenv(o.envPrefix + "_CONFIG")
	}

	if err := readConfigFile(v, path); err != nil {
		return nil, err
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cfg.WriteConfig, _ = fs.GetBool("write-config")

	return cfg, nil
}

func readConfigFile(v *viper.Viper, path string) error {
	errFactory := errors.New()

	if path != "" {
		v.SetConfigFile(path)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return nil
		}
	} else {
		v.SetConfigName(DefaultConfigName)
		v.SetConfigType(DefaultConfigType)
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "lhmosc"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return errFactory.Wrap(errors.ErrReadConfig, err)
		}
	}

	return nil
}

func decode(v *viper.Viper) (*Config, error) {
	cfg := &Config{v: v}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.New().Wrap(errors.ErrInvalidConfig, err)
	}
	return cfg, nil
}

// Path returns the config file backing this configuration, if any.
func (c *Config) Path() string {
	if c.v == nil {
		return ""
	}
	return c.v.ConfigFileUsed()
}

// Validate checks ports, host and durations.
func (c *Config) Validate() error {
	errFactory := errors.New()

	if strings.TrimSpace(c.OSCIP) == "" {
		return errFactory.WithMessage(errors.ErrInvalidConfig, "osc_ip must not be empty")
	}

	ports := []struct {
		name  string
		value int
	}{
		{"osc_port", c.OSCPort},
		{"json_port", c.JSONPort},
	}
	for _, p := range ports {
		if p.value < 1 || p.value > 65535 {
			return errFactory.WithData(errors.ErrInvalidPort, p.name+"="+strconv.Itoa(p.value))
		}
	}

	durations := []struct {
		name  string
		value time.Duration
	}{
		{"interval", c.Interval},
		{"retry_interval", c.RetryInterval},
		{"fetch_timeout", c.FetchTimeout},
	}
	for _, d := range durations {
		if d.value <= 0 {
			return errFactory.WithData(errors.ErrInvalidInterval, d.name+"="+d.value.String())
		}
	}

	if err := c.Metrics.Validate(); err != nil {
		return errFactory.Wrap(errors.ErrInvalidConfig, err)
	}

	return nil
}

// Names returns the feed label for every role.
func (c *Config) Names() sensor.NameMap {
	return sensor.NameMap{
		CPUTemp:     c.CPUTempName,
		CPUUsage:    c.CPUUsageName,
		GPUTemp:     c.GPUTempName,
		GPUUsage:    c.GPUUsageName,
		GPUMemUsed:  c.GPUMemUsedName,
		GPUMemTotal: c.GPUMemTotalName,
		NetUp:       c.WifiUpName,
		NetDown:     c.WifiDownName,
	}
}

// Target returns the OSC receiver.
func (c *Config) Target() osc.Target {
	return osc.Target{Host: c.OSCIP, Port: c.OSCPort}
}

// PollSettings returns the settings the poll cycle reads.
func (c *Config) PollSettings() poll.Settings {
	return poll.Settings{
		Names:         c.Names(),
		Interface:     c.NetworkInterface,
		RetryInterval: c.RetryInterval,
	}
}
