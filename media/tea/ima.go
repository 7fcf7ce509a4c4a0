package tea

import "errors"

var imaSteps = [89]int{
	7, 8, 9, 10, 11, 12, 13, 14, 16, 17,
	19, 21, 23, 25, 28, 31, 34, 37, 41, 45,
	50, 55, 60, 66, 73, 80, 88, 97, 107, 118,
	130, 143, 157, 173, 190, 209, 230, 253, 279, 307,
	337, 371, 408, 449, 494, 544, 598, 658, 724, 796,
	876, 963, 1060, 1166, 1282, 1411, 1552, 1707, 1878, 2066,
	2272, 2499, 2749, 3024, 3327, 3660, 4026, 4428, 4871, 5358,
	5894, 6484, 7132, 7845, 8630, 9493, 10442, 11487, 12635, 13899,
	15289, 16818, 18500, 20350, 22385, 24623, 27086, 29794, 32767,
}

var imaIndexDelta = [16]int{
	-1, -1, -1, -1, 2, 4, 6, 8,
	-1, -1, -1, -1, 2, 4, 6, 8,
}

var ErrADPCMBlock = errors.New("tea: bad ima-adpcm block")

// imaBlockBytes is the size of one channel sub-block: int16 predictor, uint8
// step index, then (spb-1) nibbles packed low nibble first.
func imaBlockBytes(spb int) int {
	return 3 + spb/2
}

// imaState is the running predictor of one channel.
type imaState struct {
	pred  int16
	index int
}

func clamp16(x int) int16 {
	switch {
	case x > 32767:
		return 32767
	case x < -32768:
		return -32768
	}
	return int16(x)
}

func (s *imaState) setIndex(i int) {
	switch {
	case i < 0:
		i = 0
	case i > len(imaSteps)-1:
		i = len(imaSteps) - 1
	}
	s.index = i
}

// decode applies one nibble and returns the new sample.
func (s *imaState) decode(n uint8) int16 {
	step := imaSteps[s.index]
	diff := step >> 3
	if n&4 != 0 {
		diff += step
	}
	if n&2 != 0 {
		diff += step >> 1
	}
	if n&1 != 0 {
		diff += step >> 2
	}
	if n&8 != 0 {
		s.pred = clamp16(int(s.pred) - diff)
	} else {
		s.pred = clamp16(int(s.pred) + diff)
	}
	s.setIndex(s.index + imaIndexDelta[n&0x0F])
	return s.pred
}

// encode picks the nibble that best approaches sample and advances the state
// exactly as decode would.
func (s *imaState) encode(sample int16) uint8 {
	step := imaSteps[s.index]
	diff := int(sample) - int(s.pred)
	var n uint8
	if diff < 0 {
		n = 8
		diff = -diff
	}
	if diff >= step {
		n |= 4
		diff -= step
	}
	if diff >= step>>1 {
		n |= 2
		diff -= step >> 1
	}
	if diff >= step>>2 {
		n |= 1
	}
	s.decode(n)
	return n
}

// stepIndexFor returns the first step that covers a delta of d, so a block
// starting on a steep slope does not spend its first samples adapting.
func stepIndexFor(d int) int {
	if d < 0 {
		d = -d
	}
	for i, s := range imaSteps {
		if s >= d {
			return i
		}
	}
	return len(imaSteps) - 1
}

// decodeIMAChannel decodes one channel sub-block, writing every stride-th
// element of out starting at out[0].
func decodeIMAChannel(block []byte, spb int, out []int16, stride int) error {
	if len(block) < imaBlockBytes(spb) || len(out) < (spb-1)*stride+1 {
		return ErrADPCMBlock
	}
	st := imaState{pred: int16(uint16(block[0]) | uint16(block[1])<<8)}
	st.setIndex(int(block[2]))
	out[0] = st.pred

	data := block[3:]
	for i := 1; i < spb; i++ {
		b := data[(i-1)/2]
		if (i-1)%2 == 1 {
			b >>= 4
		}
		out[i*stride] = st.decode(b & 0x0F)
	}
	return nil
}

// encodeIMAChannel encodes spb samples read every stride-th element of in.
// Missing samples repeat the last one.
func encodeIMAChannel(in []int16, stride, spb int, dst []byte) error {
	if len(dst) != imaBlockBytes(spb) || stride < 1 {
		return ErrADPCMBlock
	}
	count := 0
	if len(in) > 0 {
		count = (len(in)-1)/stride + 1
	}
	at := func(i int) int16 {
		if count == 0 {
			return 0
		}
		if i >= count {
			i = count - 1
		}
		return in[i*stride]
	}

	st := imaState{pred: at(0)}
	st.setIndex(stepIndexFor(int(at(1)) - int(at(0))))
	dst[0] = byte(uint16(st.pred))
	dst[1] = byte(uint16(st.pred) >> 8)
	dst[2] = byte(st.index)

	data := dst[3:]
	clear(data)
	for i := 1; i < spb; i++ {
		n := st.encode(at(i))
		if (i-1)%2 == 0 {
			data[(i-1)/2] = n
		} else {
			data[(i-1)/2] |= n << 4
		}
	}
	return nil
}
