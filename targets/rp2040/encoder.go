//go:build rp2040

package main

import (
	"machine"

	"tinygo.org/x/drivers/encoders"

	"synthpanel/core"
)

// countsPerDetent is left to core.Encoder, so the driver counts every edge.
const countsPerDetent = core.DefaultCountsPerDetent

// NewEncoder starts an interrupt-driven quadrature counter on pins a and b.
func NewEncoder(a, b core.GPIOPin) core.QuadratureCounter {
	enc := encoders.NewQuadratureViaInterrupt(machine.Pin(a), machine.Pin(b))
	enc.Configure(encoders.QuadratureConfig{
		Precision: 1,
	})
	return enc
}
