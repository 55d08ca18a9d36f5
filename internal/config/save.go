package config

import (
	"os"
	"path/filepath"

	"codeberg.org/mutker/lhmosc/internal/errors"
	"github.com/spf13/viper"
)

const defaultDirPerm = 0o755

// Save writes the persisted settings to path as JSON. Flags-only
// settings (debug, verbose) are not written.
func (c *Config) Save(path string) error {
	errFactory := errors.New()

	if err := c.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), defaultDirPerm); err != nil {
		return errFactory.Wrap(errors.ErrWriteConfig, err)
	}

	v := viper.New()
	v.SetConfigType(DefaultConfigType)

	v.Set("osc_ip", c.OSCIP)
	v.Set("osc_port", c.OSCPort)
	v.Set("json_port", c.JSONPort)
	v.Set("cpu_temp_name", c.CPUTempName)
	v.Set("cpu_usage_name", c.CPUUsageName)
	v.Set("gpu_temp_name", c.GPUTempName)
	v.Set("gpu_usage_name", c.GPUUsageName)
	v.Set("gpu_mem_used_name", c.GPUMemUsedName)
	v.Set("gpu_mem_total_name", c.GPUMemTotalName)
	v.Set("wifi_up_name", c.WifiUpName)
	v.Set("wifi_down_name", c.WifiDownName)
	v.Set("network_interface", c.NetworkInterface)
	v.Set("interval", c.Interval.String())
	v.Set("retry_interval", c.RetryInterval.String())
	v.Set("fetch_timeout", c.FetchTimeout.String())
	v.Set("status_addr", c.StatusAddr)
	v.Set("pid_file", c.PIDFile)
	v.Set("metrics.enabled", c.Metrics.Enabled)
	v.Set("metrics.db_path", c.Metrics.DBPath)
	v.Set("metrics.batch_size", c.Metrics.BatchSize)
	v.Set("metrics.batch_timeout", c.Metrics.BatchTimeout.String())

	if err := v.WriteConfigAs(path); err != nil {
		return errFactory.Wrap(errors.ErrWriteConfig, err)
	}

	return nil
}
