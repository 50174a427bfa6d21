package audio

import (
	"bytes"
	"encoding/binary"
	"math"
	"sync"
)

const (
	toneSampleRate = 22050
	toneBits       = 16
)

var (
	chimeOnce  sync.Once
	chimeAsset *Asset
)

// DefaultChime returns the built-in fallback sound: three short rising beeps.
// The same asset is returned on every call.
func DefaultChime() *Asset {
	chimeOnce.Do(func() {
		var pcm []int16
		for _, freq := range []float64{880, 1108.73, 1318.51} {
			pcm = append(pcm, sine(freq, 0.18, 0.6)...)
			pcm = append(pcm, make([]int16, toneSampleRate/20)...)
		}
		chimeAsset = NewAsset("audio/wav", encodeWAV(pcm, toneSampleRate))
	})
	return chimeAsset
}

func sine(freq, seconds, volume float64) []int16 {
	n := int(seconds * toneSampleRate)
	out := make([]int16, n)
	fade := toneSampleRate / 100
	for i := range out {
		amp := volume
		if i < fade {
			amp *= float64(i) / float64(fade)
		} else if n-i < fade {
			amp *= float64(n-i) / float64(fade)
		}
		v := math.Sin(2 * math.Pi * freq * float64(i) / toneSampleRate)
		out[i] = int16(v * amp * math.MaxInt16)
	}
	return out
}

// encodeWAV writes mono 16-bit little-endian PCM with a RIFF header.
func encodeWAV(pcm []int16, sampleRate int) []byte {
	dataLen := len(pcm) * 2
	var buf bytes.Buffer
	buf.Grow(44 + dataLen)

	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+dataLen))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // mono
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate*toneBits/8))
	binary.Write(&buf, binary.LittleEndian, uint16(toneBits/8))
	binary.Write(&buf, binary.LittleEndian, uint16(toneBits))

	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(dataLen))
	binary.Write(&buf, binary.LittleEndian, pcm)
	return buf.Bytes()
}
