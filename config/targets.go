package config

import (
	"maps"
	"slices"
)

const (
	DefaultTarget = "esp32"
	// TargetRPi is the only target whose pins go-rpio can drive directly.
	TargetRPi = "rpi"
)

type target struct {
	outputs map[int]bool
}

func (t target) outputCapable(pin int) bool {
	return t.outputs[pin]
}

func pinSet(pins ...int) map[int]bool {
	m := make(map[int]bool, len(pins))
	for _, p := range pins {
		m[p] = true
	}
	return m
}

func pinRange(from, to int) []int {
	pins := make([]int, 0, to-from+1)
	for p := from; p <= to; p++ {
		pins = append(pins, p)
	}
	return pins
}

var targets = map[string]target{
	// GPIO6-11 are wired to the SPI flash, 34-39 are input only.
	"esp32": {outputs: pinSet(0, 1, 2, 3, 4, 5, 12, 13, 14, 15, 16, 17, 18, 19, 21, 22, 23, 25, 26, 27, 32, 33)},
	// BCM numbering; GPIO0/1 are reserved for the HAT ID EEPROM.
	TargetRPi: {outputs: pinSet(pinRange(2, 27)...)},
}

// TargetNames lists the supported hardware targets in sorted order.
func TargetNames() []string {
	return slices.Sorted(maps.Keys(targets))
}
