// Package isaac implements Bob Jenkins' ISAAC cryptographic pseudo-random
// generator, seeded the way shred(1) seeds it: process/clock entropy folded
// in through a byte-granular cursor, then drawn a word at a time through a
// small reservoir.
//
// The generator is a value type. Callers own a [State], seed it once, and
// either draw words directly with [Rand] or fill large buffers with
// [State.Fill]. Nothing here is safe for concurrent use; shred processes one
// target at a time and never shares a [State] across goroutines.
package isaac

// Words is the size of the ISAAC state array, in 32-bit words.
const Words = 256

// Bytes is Words expressed in bytes.
const Bytes = Words * 4

// State is the ISAAC state: the 256-word main array plus the scalars used
// both during seeding (where c is a byte cursor) and during output
// generation (where a, b, c drive the core step).
type State struct {
	mm [Words]uint32
	iv [8]uint32
	a  uint32
	b  uint32
	c  uint32
}

// seedIV is the fixed initialization vector used by SeedStart. It is the
// result of precomputing four rounds of the golden-ratio mix described in
// shred.c: iv[i] = 0x9e3779b9 for i in [0,8), scrambled by four passes of
// the cascading mix below.
var seedIV = [8]uint32{
	0x1367df5a, 0x95d90059, 0xc3163e4b, 0x0f421ad8,
	0xd92a4a78, 0xa51a3c49, 0xc4efea1b, 0x30609119,
}

// SeedStart begins a seeding sequence: the IV is reset to the fixed
// constant and a, b, and c are zeroed. c doubles as a byte-granular write
// cursor until SeedFinish.
func (s *State) SeedStart() {
	s.iv = seedIV
	s.a, s.b, s.c = 0, 0, 0
}

// SeedData XORs buf into the state, advancing the byte cursor c. Whenever
// the cursor reaches the end of mm, the cascading initialization mix runs
// over mm (using iv as the running register set) and the cursor resets to
// zero. Calling SeedData repeatedly accumulates entropy across calls.
func (s *State) SeedData(buf []byte) {
	pos := 0
	for pos < len(buf) {
		avail := Bytes - int(s.c)
		n := len(buf) - pos
		if n > avail {
			n = avail
		}

		for i := 0; i < n; i++ {
			idx := int(s.c) + i
			word := idx / 4
			shift := uint((idx % 4) * 8)
			cur := byte(s.mm[word] >> shift)
			s.mm[word] = (s.mm[word] &^ (0xFF << shift)) | uint32(cur^buf[pos+i])<<shift
		}

		pos += n
		s.c += uint32(n)

		if int(s.c) == Bytes {
			s.mix()
			s.c = 0
		}
	}
}

// SeedFinish runs the initialization mix twice more over the whole state
// and resets the cursor to zero, making the state ready to produce output.
func (s *State) SeedFinish() {
	s.mix()
	s.mix()
	s.c = 0
}

// mix is the 8-register cascading mix used during seeding. It folds s.mm
// into itself, 8 words at a time, carrying a..h (seeded from s.iv) across
// blocks, and writes the running registers back to s.iv when done. This is
// distinct from [State.refill], the core output-generation step.
func (s *State) mix() {
	a, b, c, d := s.iv[0], s.iv[1], s.iv[2], s.iv[3]
	e, f, g, h := s.iv[4], s.iv[5], s.iv[6], s.iv[7]

	for i := 0; i < Words; i += 8 {
		a += s.mm[i]
		b += s.mm[i+1]
		c += s.mm[i+2]
		d += s.mm[i+3]
		e += s.mm[i+4]
		f += s.mm[i+5]
		g += s.mm[i+6]
		h += s.mm[i+7]

		a ^= b << 11
		d += a
		b += c
		b ^= c >> 2
		e += b
		c += d
		c ^= d << 8
		f += c
		d += e
		d ^= e >> 16
		g += d
		e += f
		e ^= f << 10
		h += e
		f += g
		f ^= g >> 4
		a += f
		g += h
		g ^= h << 8
		b += g
		h += a
		h ^= a >> 9
		c += h
		a += b

		s.mm[i] = a
		s.mm[i+1] = b
		s.mm[i+2] = c
		s.mm[i+3] = d
		s.mm[i+4] = e
		s.mm[i+5] = f
		s.mm[i+6] = g
		s.mm[i+7] = h
	}

	s.iv[0], s.iv[1], s.iv[2], s.iv[3] = a, b, c, d
	s.iv[4], s.iv[5], s.iv[6], s.iv[7] = e, f, g, h
}

// ind performs ISAAC's indirection lookup: the low bits of x are read as a
// byte offset into mm, so the word index is (x>>2) masked to Words-1.
func ind(mm *[Words]uint32, x uint32) uint32 {
	return mm[(x>>2)&(Words-1)]
}

// refill runs one full ISAAC core step, producing Words fresh output words
// into r. The step runs in two halves: the first 128 words read their
// partner word at offset +128, the second 128 at offset -128, exactly as
// shred.c's isaac_refill does.
func (s *State) refill(r *[Words]uint32) {
	a := s.a
	s.c++
	b := s.b + s.c

	mm := &s.mm

	step := func(i, off int, mixed uint32) {
		a = (a ^ mixed) + mm[i+off]
		x := mm[i]
		y := ind(mm, x) + a + b
		mm[i] = y
		b = ind(mm, y>>8) + x
		r[i] = b
	}

	for i := 0; i < Words/2; i += 4 {
		step(i, Words/2, a<<13)
		step(i+1, Words/2, a>>6)
		step(i+2, Words/2, a<<2)
		step(i+3, Words/2, a>>16)
	}

	for i := Words / 2; i < Words; i += 4 {
		step(i, -Words/2, a<<13)
		step(i+1, -Words/2, a>>6)
		step(i+2, -Words/2, a<<2)
		step(i+3, -Words/2, a>>16)
	}

	s.a = a
	s.b = b
}

// Fill produces ceil(length/Bytes) refills of Words words each directly
// into buf, bypassing the [Rand] reservoir. length (in bytes) is rounded up
// to a multiple of Bytes; buf must hold at least ceil(length/Bytes)*Words
// words.
func (s *State) Fill(buf []uint32, length int) {
	chunks := (length + Bytes - 1) / Bytes

	for i := 0; i < chunks; i++ {
		var chunk [Words]uint32
		s.refill(&chunk)
		copy(buf[i*Words:], chunk[:])
	}
}

// Zero scrubs the state. Callers must call this on every exit path from
// target processing, since mm, iv, a, b, and c are all derived from (and in
// the case of later output, indistinguishable from) secret entropy.
func (s *State) Zero() {
	*s = State{}
}
