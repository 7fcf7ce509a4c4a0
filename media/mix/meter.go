package mix

import (
	"encoding/binary"
	"math"
	"sync"
)

// Bands is the number of meter bands.
const Bands = 8

// Centre frequencies of the meter bands in Hz.
var bandFreqs = [Bands]float64{60, 170, 310, 600, 1000, 3000, 6000, 12000}

const meterWindow = 256

// Meter tracks per-band output levels of the mixed signal with a Goertzel
// filter per band. Levels are 0..255 on a -60..0 dB scale and fall back
// gradually.
type Meter struct {
	mu     sync.Mutex
	rate   uint32
	n      int
	coeff  [Bands]float64
	levels [Bands]uint8
	win    [meterWindow]float64
}

// SetRate sets the sample rate the band frequencies are relative to.
func (m *Meter) SetRate(rate uint32) {
	m.mu.Lock()
	m.rate = rate
	m.n = 0
	m.mu.Unlock()
}

// Update analyses the start of an interleaved stereo s16le chunk.
func (m *Meter) Update(chunk []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rate == 0 {
		return
	}

	n := len(chunk) / 4
	if n > meterWindow {
		n = meterWindow
	}
	if n == 0 {
		return
	}
	if n != m.n {
		m.n = n
		for b, f := range bandFreqs {
			k := 0.5 + float64(n)*f/float64(m.rate)
			m.coeff[b] = 2 * math.Cos(2*math.Pi*k/float64(n))
		}
	}
	for i := 0; i < n; i++ {
		l := int16(binary.LittleEndian.Uint16(chunk[i*4:]))
		r := int16(binary.LittleEndian.Uint16(chunk[i*4+2:]))
		m.win[i] = (float64(l) + float64(r)) / 65536
	}

	for b := range bandFreqs {
		c := m.coeff[b]
		var q1, q2 float64
		for _, x := range m.win[:n] {
			q0 := c*q1 - q2 + x
			q2, q1 = q1, q0
		}
		power := q1*q1 + q2*q2 - c*q1*q2
		if power < 0 {
			power = 0
		}
		level := dbLevel(math.Sqrt(power) / float64(n))
		if prev := m.levels[b]; level < prev {
			level = prev - (prev-level)/4
		}
		m.levels[b] = level
	}
}

func dbLevel(amp float64) uint8 {
	const (
		minDB  = -60.0
		gainDB = 12.0
	)
	db := 20*math.Log10(amp+1e-6) + gainDB
	db = math.Max(minDB, math.Min(0, db))
	return uint8((db - minDB) / -minDB * 255)
}

// Levels returns the current band levels.
func (m *Meter) Levels() [Bands]uint8 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.levels
}
