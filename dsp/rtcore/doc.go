// Package rtcore provides the real-time-safe primitives shared by the
// pitch-shifter and arpeggiator engines: phase wrapping, a deterministic
// PRNG, a fixed-capacity ring buffer, a generic per-step lane, and the
// read-only block context the host hands to each processBlock call.
//
// Every type here is allocation-free after construction so it is safe to
// call from an audio thread.
package rtcore
