package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

const EnvPrefix = "LEDSENTRY"

var requiredKeys = []string{
	KeyNetworkName,
	KeyNetworkSecret,
	KeyServerAddress,
	KeyRequestPath,
	KeyRequestTimeout,
	KeySafePin,
	KeyThreatPin,
	KeyStatusPin,
	KeyPollInterval,
}

func newViper(cfile string) *viper.Viper {
	v := viper.New()
	v.SetConfigFile(cfile)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// ReadConfig reads cfile, overlays LEDSENTRY_* environment variables and
// validates the result with Load. A missing file is fine as long as the
// environment supplies every required key, so secrets never have to live in
// the file.
func ReadConfig(cfile string) (*Config, error) {
	v := newViper(cfile)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("can't decode config file %s: %w", cfile, err)
		}
	}

	for _, key := range requiredKeys {
		if !v.IsSet(key) {
			return nil, invalid(key, "missing (set it in %s or %s_%s)", cfile, EnvPrefix, strings.ToUpper(key))
		}
	}

	raw := Config{
		NetworkName:   v.GetString(KeyNetworkName),
		NetworkSecret: v.GetString(KeyNetworkSecret),
		ServerAddress: strings.TrimSpace(v.GetString(KeyServerAddress)),
		RequestPath:   strings.TrimSpace(v.GetString(KeyRequestPath)),
		Target:        v.GetString(KeyTarget),
		Logging: LoggingConfig{
			Level:  v.GetString("Logging.Level"),
			Format: v.GetString("Logging.Format"),
			File:   v.GetString("Logging.File"),
		},
		Web: WebConfig{
			Listen: v.GetString("Web.Listen"),
		},
	}

	var err error
	if raw.RequestTimeoutMillis, err = getInt64(v, KeyRequestTimeout); err != nil {
		return nil, err
	}
	if raw.SafePin, err = getInt(v, KeySafePin); err != nil {
		return nil, err
	}
	if raw.ThreatPin, err = getInt(v, KeyThreatPin); err != nil {
		return nil, err
	}
	if raw.StatusPin, err = getInt(v, KeyStatusPin); err != nil {
		return nil, err
	}
	if raw.PollIntervalMillis, err = getInt64(v, KeyPollInterval); err != nil {
		return nil, err
	}

	return Load(raw)
}

// viper's GetInt and cast both coerce too much: floats are truncated, true
// becomes 1 and "012" or "0x0D" are read as octal or hex. Only integer kinds
// from YAML and base-10 strings from the environment are accepted.
func getInt64(v *viper.Viper, key string) (int64, error) {
	raw := v.Get(key)
	switch n := raw.(type) {
	case int:
		return int64(n), nil
	case int8:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case uint:
		if uint64(n) <= math.MaxInt64 {
			return int64(n), nil
		}
	case uint8:
		return int64(n), nil
	case uint16:
		return int64(n), nil
	case uint32:
		return int64(n), nil
	case uint64:
		if n <= math.MaxInt64 {
			return int64(n), nil
		}
	case string:
		if i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64); err == nil {
			return i, nil
		}
	}
	return 0, invalid(key, "not an integer: %v", raw)
}

func getInt(v *viper.Viper, key string) (int, error) {
	n, err := getInt64(v, key)
	if err != nil {
		return 0, err
	}
	if n < math.MinInt || n > math.MaxInt {
		return 0, invalid(key, "not an integer: %d out of range", n)
	}
	return int(n), nil
}
