// Package data encodes and decodes BLDS data frames: one chunk of sampled
// signal with start/stop timestamps and a channels x samples grid of
// signed 16-bit integers.
package data

import (
	"encoding/binary"
	"errors"
	"math"
)

// HeaderSize is the fixed wire header: float32 start, float32 stop,
// uint32 dim0, uint32 dim1, all little-endian. Dim0 is the row count
// (channels) and dim1 the column count (samples); the server's header
// labels and the grid's row meaning have historically disagreed, so the
// byte layout here is authoritative and the dims carry shape, not names.
const HeaderSize = 16

var ErrMalformedFrame = errors.New("data: declared shape disagrees with payload length")

// Frame is one chunk of acquired signal. Samples are stored row-major by
// channel: sample s of channel c lives at Samples[c*NumSamples+s].
type Frame struct {
	Start    float32
	Stop     float32
	Channels uint32
	Samples  []int16
}

// NewFrame builds a frame from a row-major grid. The sample slice length
// must be a multiple of channels.
func NewFrame(start, stop float32, channels uint32, samples []int16) (Frame, error) {
	if channels == 0 || uint32(len(samples))%channels != 0 {
		return Frame{}, ErrMalformedFrame
	}
	return Frame{Start: start, Stop: stop, Channels: channels, Samples: samples}, nil
}

// NumChannels returns the grid row count.
func (f Frame) NumChannels() int {
	return int(f.Channels)
}

// NumSamples returns the grid column count.
func (f Frame) NumSamples() int {
	if f.Channels == 0 {
		return 0
	}
	return len(f.Samples) / int(f.Channels)
}

// At returns sample s of channel c.
func (f Frame) At(c, s int) int16 {
	return f.Samples[c*f.NumSamples()+s]
}

// Channel returns the contiguous row of samples for channel c.
func (f Frame) Channel(c int) []int16 {
	n := f.NumSamples()
	return f.Samples[c*n : (c+1)*n]
}

// Encode serializes the frame header and sample grid.
func Encode(f Frame) ([]byte, error) {
	if f.Channels == 0 || uint32(len(f.Samples))%f.Channels != 0 {
		return nil, ErrMalformedFrame
	}
	buf := make([]byte, HeaderSize+2*len(f.Samples))
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(f.Start))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(f.Stop))
	binary.LittleEndian.PutUint32(buf[8:12], f.Channels)
	binary.LittleEndian.PutUint32(buf[12:16], uint32(f.NumSamples()))
	for i, s := range f.Samples {
		binary.LittleEndian.PutUint16(buf[HeaderSize+2*i:], uint16(s))
	}
	return buf, nil
}

// Decode parses a data frame payload. The payload must carry exactly
// dim0*dim1 samples after the header.
func Decode(buf []byte) (Frame, error) {
	if len(buf) < HeaderSize {
		return Frame{}, ErrMalformedFrame
	}
	start := math.Float32frombits(binary.LittleEndian.Uint32(buf[0:4]))
	stop := math.Float32frombits(binary.LittleEndian.Uint32(buf[4:8]))
	dim0 := binary.LittleEndian.Uint32(buf[8:12])
	dim1 := binary.LittleEndian.Uint32(buf[12:16])

	body := buf[HeaderSize:]
	count := uint64(dim0) * uint64(dim1)
	if uint64(len(body)) != 2*count {
		return Frame{}, ErrMalformedFrame
	}

	samples := make([]int16, count)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(body[2*i:]))
	}
	return Frame{Start: start, Stop: stop, Channels: dim0, Samples: samples}, nil
}
