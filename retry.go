// Copyright 2025 Ayman Bagabas
// SPDX-License-Identifier: MIT

package nativeselection

import "time"

// RetryPolicy bounds a wait for an asynchronous OS side effect, such as the
// clipboard updating after a copy was requested.
type RetryPolicy struct {
	// Attempts is the number of times the condition is checked. Values below
	// one are treated as one.
	Attempts int
	// Delay is slept before each check.
	Delay time.Duration
	// Multiplier scales Delay after each check when greater than one.
	Multiplier float64

	sleep func(time.Duration)
}

// Wait checks cond up to p.Attempts times, sleeping before each check. It
// returns true as soon as cond does, and stops early if cond fails.
func (p RetryPolicy) Wait(cond func() (bool, error)) (bool, error) {
	sleep := p.sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	attempts := max(p.Attempts, 1)
	delay := p.Delay
	for range attempts {
		if delay > 0 {
			sleep(delay)
		}
		ok, err := cond()
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
		if p.Multiplier > 1 {
			delay = time.Duration(float64(delay) * p.Multiplier)
		}
	}
	return false, nil
}

// Total returns the longest time Wait can spend sleeping.
func (p RetryPolicy) Total() time.Duration {
	var total time.Duration
	delay := p.Delay
	for range max(p.Attempts, 1) {
		total += delay
		if p.Multiplier > 1 {
			delay = time.Duration(float64(delay) * p.Multiplier)
		}
	}
	return total
}
