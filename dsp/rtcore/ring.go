package rtcore

// RingBuffer is a fixed-capacity circular float64 store used by the STFT
// framer: the input ring accumulates incoming samples so the most recent
// N can be windowed into an analysis frame, and the output ring
// accumulates (not overwrites) overlapping synthesis frames so adjacent
// hops sum correctly.
//
// Unlike dsp/delay.Line (which exposes delay-relative reads), RingBuffer
// is addressed by an absolute, wrapping position that the caller owns;
// this mirrors how the STFT framer in dsp/pitch tracks its own write and
// read cursors across calls to ProcessSample.
type RingBuffer struct {
	buf []float64
}

// NewRingBuffer returns a zeroed ring buffer of the given capacity.
func NewRingBuffer(capacity int) *RingBuffer {
	if capacity < 1 {
		capacity = 1
	}

	return &RingBuffer{buf: make([]float64, capacity)}
}

// Cap returns the buffer's fixed capacity.
func (r *RingBuffer) Cap() int { return len(r.buf) }

// At returns the value stored at pos, wrapped into range.
func (r *RingBuffer) At(pos int) float64 {
	return r.buf[r.wrap(pos)]
}

// Set overwrites the slot at pos.
func (r *RingBuffer) Set(pos int, x float64) {
	r.buf[r.wrap(pos)] = x
}

// Add accumulates x into the slot at pos, for overlap-add synthesis.
func (r *RingBuffer) Add(pos int, x float64) {
	idx := r.wrap(pos)
	r.buf[idx] += x
}

// TakeAndClear returns the value at pos and zeroes it, so the slot is
// ready to accumulate the next hop's overlap once the ring wraps back
// around to it.
func (r *RingBuffer) TakeAndClear(pos int) float64 {
	idx := r.wrap(pos)
	v := r.buf[idx]
	r.buf[idx] = 0

	return v
}

// Span returns direct slices into the backing array covering the n
// logical slots starting at pos, split at the point the ring wraps.
// second is empty when the span does not cross the end of the buffer.
// n must not exceed Cap(); this only ever holds for a full-cycle read
// or write, such as the STFT framer windowing exactly one frame.
func (r *RingBuffer) Span(pos, n int) (first, second []float64) {
	start := r.wrap(pos)

	if start+n <= len(r.buf) {
		return r.buf[start : start+n], nil
	}

	return r.buf[start:], r.buf[:n-(len(r.buf)-start)]
}

// Reset zeros every slot.
func (r *RingBuffer) Reset() {
	for i := range r.buf {
		r.buf[i] = 0
	}
}

func (r *RingBuffer) wrap(pos int) int {
	n := len(r.buf)
	pos %= n

	if pos < 0 {
		pos += n
	}

	return pos
}
