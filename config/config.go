package config

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

const CONFILE = "config.yml"

// Config is the validated startup record handed to the network stack, the HTTP
// client, the indicator driver and the poll scheduler. Obtain one through Load
// or ReadConfig and never modify it afterwards; a reload replaces the whole
// record (see Store).
type Config struct {
	NetworkName          string `yaml:"NetworkName" json:"NetworkName"`
	NetworkSecret        string `yaml:"NetworkSecret" json:"NetworkSecret"`
	ServerAddress        string `yaml:"ServerAddress" json:"ServerAddress"`
	RequestPath          string `yaml:"RequestPath" json:"RequestPath"`
	RequestTimeoutMillis int64  `yaml:"RequestTimeoutMillis" json:"RequestTimeoutMillis"`
	SafePin              int    `yaml:"SafePin" json:"SafePin"`
	ThreatPin            int    `yaml:"ThreatPin" json:"ThreatPin"`
	StatusPin            int    `yaml:"StatusPin" json:"StatusPin"`
	PollIntervalMillis   int64  `yaml:"PollIntervalMillis" json:"PollIntervalMillis"`

	Target  string        `yaml:"Target" json:"Target"`
	Logging LoggingConfig `yaml:"Logging" json:"Logging"`
	Web     WebConfig     `yaml:"Web" json:"Web"`
}

type LoggingConfig struct {
	Level  string `yaml:"Level" json:"Level"`
	Format string `yaml:"Format" json:"Format"`
	File   string `yaml:"File" json:"File"`
}

type WebConfig struct {
	Listen string `yaml:"Listen" json:"Listen"`
}

// Role names one of the three indicator outputs.
type Role string

const (
	RoleSafe   Role = "safe"
	RoleThreat Role = "threat"
	RoleStatus Role = "status"
)

// PinSet is the indicator assignment handed to the GPIO driver.
type PinSet struct {
	Safe   int
	Threat int
	Status int
}

// ByRole maps each indicator role to its pin.
func (p PinSet) ByRole() map[Role]int {
	return map[Role]int{
		RoleSafe:   p.Safe,
		RoleThreat: p.Threat,
		RoleStatus: p.Status,
	}
}

// Load validates raw and returns an independent copy. The nine contract fields
// of the result are equal to the input; Target is normalised to lower case and
// Target and Logging get defaults when left empty. Any violated constraint yields an *InvalidConfigurationError.
func Load(raw Config) (*Config, error) {
	c := raw
	c.setDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) setDefaults() {
	c.Target = strings.ToLower(strings.TrimSpace(c.Target))
	if c.Target == "" {
		c.Target = DefaultTarget
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "INFO"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
}

// Validate checks every constraint in field order and reports the first
// violation.
func (c *Config) Validate() error {
	if c.NetworkName == "" {
		return invalid(KeyNetworkName, "must not be empty")
	}
	if c.NetworkSecret == "" {
		return invalid(KeyNetworkSecret, "must not be empty")
	}
	if err := validateAddress(c.ServerAddress); err != nil {
		return invalid(KeyServerAddress, "malformed address: %v", err)
	}
	if !strings.HasPrefix(c.RequestPath, "/") {
		return invalid(KeyRequestPath, "must begin with '/' (got %q)", c.RequestPath)
	}
	if c.RequestTimeoutMillis <= 0 {
		return invalid(KeyRequestTimeout, "non-positive duration %d", c.RequestTimeoutMillis)
	}
	if err := c.validatePins(); err != nil {
		return err
	}
	if c.PollIntervalMillis <= 0 {
		return invalid(KeyPollInterval, "non-positive duration %d", c.PollIntervalMillis)
	}
	return nil
}

func (c *Config) validatePins() error {
	target, ok := targets[c.Target]
	if !ok {
		return invalid(KeyTarget, "unknown target %q (known: %s)", c.Target, strings.Join(TargetNames(), ", "))
	}
	pins := []struct {
		key string
		pin int
	}{
		{KeySafePin, c.SafePin},
		{KeyThreatPin, c.ThreatPin},
		{KeyStatusPin, c.StatusPin},
	}
	for i, p := range pins {
		if !target.outputCapable(p.pin) {
			return invalid(p.key, "pin %d not valid for target %s", p.pin, c.Target)
		}
		for _, prev := range pins[:i] {
			if prev.pin == p.pin {
				return invalid(p.key, "duplicate pin %d (also assigned to %s)", p.pin, prev.key)
			}
		}
	}
	return nil
}

func validateAddress(addr string) error {
	u, err := url.Parse(addr)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got %q", u.Scheme)
	}
	if u.User != nil {
		return fmt.Errorf("user info not allowed")
	}
	if u.Hostname() == "" {
		return fmt.Errorf("missing host")
	}
	port := u.Port()
	if port == "" {
		return fmt.Errorf("missing port")
	}
	if n, err := strconv.Atoi(port); err != nil || n < 1 || n > 65535 {
		return fmt.Errorf("port %q out of range", port)
	}
	if (u.Path != "" && u.Path != "/") || u.RawQuery != "" || u.Fragment != "" {
		return fmt.Errorf("must be an origin without path, query or fragment")
	}
	return nil
}

func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMillis) * time.Millisecond
}

func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMillis) * time.Millisecond
}

// Endpoint joins the server origin with the request path.
func (c *Config) Endpoint() *url.URL {
	u, _ := url.Parse(c.ServerAddress)
	u.Path = c.RequestPath
	return u
}

// HTTPClient returns a fresh client bounded by the request timeout.
func (c *Config) HTTPClient() *http.Client {
	return &http.Client{Timeout: c.RequestTimeout()}
}

// PollSchedule returns a constant-delay schedule for the poll interval. cron
// works in whole seconds, so intervals below one second run every second.
func (c *Config) PollSchedule() cron.Schedule {
	return cron.Every(c.PollInterval())
}

func (c *Config) Pins() PinSet {
	return PinSet{Safe: c.SafePin, Threat: c.ThreatPin, Status: c.StatusPin}
}

// Redacted returns a copy that is safe to print or serve.
func (c *Config) Redacted() Config {
	r := *c
	if r.NetworkSecret != "" {
		r.NetworkSecret = RedactedSecret
	}
	return r
}

const RedactedSecret = "********"
