package hardware

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/stianeikeland/go-rpio/v4"
	"lautenbacher.net/ledsentry/config"
)

// gpioBackend is the part of go-rpio the indicator claim needs.
type gpioBackend interface {
	Open() error
	Close() error
	Output(pin rpio.Pin)
	Low(pin rpio.Pin)
}

type rpioBackend struct{}

func (rpioBackend) Open() error { return rpio.Open() }
func (rpioBackend) Close() error { return rpio.Close() }
func (rpioBackend) Output(pin rpio.Pin) { pin.Output() }
func (rpioBackend) Low(pin rpio.Pin) { pin.Low() }

var gpio gpioBackend = rpioBackend{}

// Indicators is the set of output pins handed over to the indicator driver.
// Driving them is the driver's business; Claim only puts them into a known
// state (output, low).
type Indicators struct {
	realHW bool
	pins   map[config.Role]rpio.Pin

	mu       sync.Mutex
	released bool
}

// Claim takes ownership of the configured pins. Without realHW no GPIO is
// touched and the pins are only recorded. With realHW the target must be
// config.TargetRPi: go-rpio maps the Pi's BCM registers, and any other
// target's pin numbers would land on unrelated Pi pins.
func Claim(target string, pins config.PinSet, realHW bool) (*Indicators, error) {
	ind := &Indicators{
		realHW: realHW,
		pins:   make(map[config.Role]rpio.Pin, 3),
	}
	for role, pin := range pins.ByRole() {
		if pin < 0 || pin > 255 {
			return nil, fmt.Errorf("pin %d for %s out of range", pin, role)
		}
		ind.pins[role] = rpio.Pin(pin)
	}

	if !realHW {
		slog.Info("No GPIO init done as we are not running on real hardware",
			"safe", pins.Safe, "threat", pins.Threat, "status", pins.Status)
		return ind, nil
	}

	if target != config.TargetRPi {
		return nil, fmt.Errorf("real hardware GPIO requires target %s, got %q", config.TargetRPi, target)
	}

	slog.Info("Initialise GPIO for indicators...")
	if err := gpio.Open(); err != nil {
		return nil, fmt.Errorf("failed to open rpio: %w", err)
	}
	for _, role := range []config.Role{config.RoleSafe, config.RoleThreat, config.RoleStatus} {
		pin := ind.pins[role]
		gpio.Output(pin)
		gpio.Low(pin)
		slog.Debug("Claimed indicator pin", "role", role, "pin", int(pin))
	}
	return ind, nil
}

// Pin returns the GPIO pin for role.
func (i *Indicators) Pin(role config.Role) (rpio.Pin, bool) {
	pin, ok := i.pins[role]
	return pin, ok
}

// Release hands the GPIO memory back. Calling it twice is harmless.
func (i *Indicators) Release() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.released {
		return nil
	}
	i.released = true
	if !i.realHW {
		return nil
	}
	if err := gpio.Close(); err != nil {
		return fmt.Errorf("failed to close rpio: %w", err)
	}
	return nil
}
