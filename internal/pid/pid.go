/*
 * Copyright (c) 2025. Anton Starikov -- All Rights Reserved
 *
 * This file is part of THERMOZONE project.
 *
 * THERMOZONE is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as the Free Software Foundation,
 * either version 3 of the License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with this program.  If not, see <http://www.gnu.org/licenses/>.
 */

// Package pid provides a bounded feedback-control primitive with anti-windup
// and a crude autotune. It backs finer-grained device control, not the main
// thermostat path.
package pid

import (
	"math"
	"time"
)

type Controller struct {
	Kp float64
	Ki float64
	Kd float64

	OutputMin  float64
	OutputMax  float64
	SampleTime time.Duration

	integral   float64
	prevError  float64
	prevTime   time.Time
	lastOutput float64
	seeded     bool
}

func NewController(kp, ki, kd, outMin, outMax float64, sampleTime time.Duration) *Controller {
	return &Controller{
		Kp:         kp,
		Ki:         ki,
		Kd:         kd,
		OutputMin:  outMin,
		OutputMax:  outMax,
		SampleTime: sampleTime,
	}
}

// Compute advances the controller. The first call seeds state and returns a
// proportional-only output; calls within SampleTime of the previous one
// return the cached output unchanged. When the full output clamps, the
// integral accumulated this step is reverted instead of left to grow.
func (c *Controller) Compute(setpoint, measurement float64, now time.Time) float64 {
	err := setpoint - measurement

	if !c.seeded {
		c.seeded = true
		c.prevError = err
		c.prevTime = now
		c.lastOutput = c.clamp(c.Kp * err)
		return c.lastOutput
	}

	dt := now.Sub(c.prevTime)
	if dt < c.SampleTime {
		return c.lastOutput
	}

	dtSec := dt.Seconds()
	prevIntegral := c.integral
	c.integral += err * dtSec

	derivative := 0.0
	if dtSec > 0 {
		derivative = (err - c.prevError) / dtSec
	}

	raw := c.Kp*err + c.Ki*c.integral + c.Kd*derivative
	out := c.clamp(raw)
	if out != raw {
		c.integral = prevIntegral
	}

	c.prevError = err
	c.prevTime = now
	c.lastOutput = out
	return out
}

// Integral exposes the accumulated integral term for inspection.
func (c *Controller) Integral() float64 {
	return c.integral
}

func (c *Controller) Reset() {
	c.integral = 0
	c.prevError = 0
	c.prevTime = time.Time{}
	c.lastOutput = 0
	c.seeded = false
}

// Autotune derives gains from the current error and oscillation amplitude.
// A no-op when the error is within 0.1 of the setpoint. amplitude <= 0 means
// "not supplied" and defaults to max(error, 0.5).
func (c *Controller) Autotune(setpoint, processVariable, amplitude float64) bool {
	err := math.Abs(setpoint - processVariable)
	if err <= 0.1 {
		return false
	}
	if amplitude <= 0 {
		amplitude = math.Max(err, 0.5)
	}

	kp := clampF(1.2*err/amplitude, 0.5, 10)
	c.Kp = kp
	c.Ki = clampF(kp/4, 0.01, 2)
	c.Kd = clampF(kp/16, 0, 1)
	return true
}

func (c *Controller) clamp(v float64) float64 {
	return clampF(v, c.OutputMin, c.OutputMax)
}

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
