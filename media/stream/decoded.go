package stream

// blockSampler spreads decoded blocks of mono or stereo frames over the
// stereo output. fill refills buf and returns the number of int16 values in
// it, or 0 when the source is exhausted.
type blockSampler struct {
	channels int
	buf      []int16
	pos      int
	n        int
	done     bool
	fill     func(buf []int16) int
}

func (b *blockSampler) Sample(dst []int16) {
	i := 0
	for ; i+1 < len(dst); i += Channels {
		if b.pos >= b.n && !b.refill() {
			break
		}
		l := b.buf[b.pos]
		r := l
		if b.channels > 1 {
			r = b.buf[b.pos+1]
		}
		dst[i], dst[i+1] = l, r
		b.pos += b.channels
	}
	clear(dst[i:])
}

func (b *blockSampler) refill() bool {
	if b.done {
		return false
	}
	n := b.fill(b.buf)
	n -= n % b.channels
	if n <= 0 {
		b.done = true
		return false
	}
	b.n, b.pos = n, 0
	return true
}
