package config

import (
	"errors"
	"fmt"
)

// Keys as they appear in the config file; env overrides use the upper-cased
// key with the LEDSENTRY_ prefix, e.g. LEDSENTRY_NETWORKSECRET.
const (
	KeyNetworkName    = "NetworkName"
	KeyNetworkSecret  = "NetworkSecret"
	KeyServerAddress  = "ServerAddress"
	KeyRequestPath    = "RequestPath"
	KeyRequestTimeout = "RequestTimeoutMillis"
	KeySafePin        = "SafePin"
	KeyThreatPin      = "ThreatPin"
	KeyStatusPin      = "StatusPin"
	KeyPollInterval   = "PollIntervalMillis"
	KeyTarget         = "Target"
)

// ErrInvalidConfiguration matches every *InvalidConfigurationError via errors.Is.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// InvalidConfigurationError names the offending field and why it was rejected.
type InvalidConfigurationError struct {
	Field  string
	Reason string
}

func (e *InvalidConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

func (e *InvalidConfigurationError) Is(target error) bool {
	return target == ErrInvalidConfiguration
}

func invalid(field, format string, args ...any) error {
	return &InvalidConfigurationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
