// Copyright 2024 The Kubernetes Authors.
// SPDX-License-Identifier: Apache-2.0

// Package sampler provides the polling primitive every wait in the
// harness is built on.
//
// A Sampler invokes a probe, sleeps for the configured interval, and
// repeats until the timeout is used up. The resulting sequence is lazy,
// finite and single use: once exhausted or satisfied a Sampler never
// probes again, so every logical wait creates its own Sampler.
//
// Samplers can be consumed in two ways:
//
//   - Iterator mode: call Next until it returns false and inspect each
//     Sample directly.
//   - Boolean mode: call WaitFor (or WaitForFuncStatus) to consume the
//     sequence until a sample satisfies a condition.
//
// The first probe always runs, even with a zero timeout. A failing wait
// returns no earlier than the timeout and no later than one interval
// after it. Probe errors never abort a Sampler; they are handed to the
// caller in iterator mode and treated as "not yet" in boolean mode.
package sampler
