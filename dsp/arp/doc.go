// Package arp implements a polymetric arpeggiator step engine: six
// fixed-capacity lanes (velocity, gate, pitch, modifier, ratchet,
// condition) driving note-on/note-off event emission per audio block,
// gated by an optional Euclidean rhythm and a per-step condition table,
// and shaped by a Rest/Tie/Slide/Accent modifier chain.
//
// [Arpeggiator] is the engine struct: a [LaneSet], a [NoteSelector], an
// optional [EuclideanState], and the condition-evaluation PRNG compose
// by value, following the same "engine struct with stack-allocable
// subcomponents" shape as the rest of this module's audio-thread types.
package arp
