// Package audiocodec converts inbound G.711 μ-law telephony audio into a
// WAV PCM16 container suitable for upload to a transcription service.
package audiocodec

const (
	// ulawBias is the G.711 decode bias (0x84) added to every magnitude
	// before sign application.
	ulawBias = 0x84

	// DefaultSampleRate is used when no sample rate is configured.
	DefaultSampleRate = 8000

	wavHeaderSize   = 44
	wavChannels     = 1
	wavBitsPerSample = 16
)

// DecodeSample converts a single G.711 μ-law byte to a 16-bit linear PCM
// sample, per the standard bit-exact decode.
func DecodeSample(mulaw byte) int16 {
	x := ^mulaw
	sign := x & 0x80
	exponent := (x >> 4) & 0x07
	mantissa := x & 0x0F

	magnitude := (int32(mantissa)<<3 + ulawBias) << exponent
	sample := magnitude - ulawBias

	if sign != 0 {
		sample = -sample
	}
	return int16(sample)
}

// Decode converts a slice of μ-law bytes into linear PCM16 samples.
func Decode(mulaw []byte) []int16 {
	pcm := make([]int16, len(mulaw))
	for i, b := range mulaw {
		pcm[i] = DecodeSample(b)
	}
	return pcm
}

// EncodeWAV wraps PCM16 samples in a single-channel WAV container at the
// given sample rate, little-endian throughout.
func EncodeWAV(pcm []int16, sampleRate int) []byte {
	dataSize := len(pcm) * 2
	byteRate := sampleRate * wavChannels * wavBitsPerSample / 8
	blockAlign := wavChannels * wavBitsPerSample / 8

	wav := make([]byte, wavHeaderSize+dataSize)

	copy(wav[0:4], "RIFF")
	putLE32(wav[4:8], uint32(36+dataSize)) //nolint:gosec // dataSize bounded by buffer threshold
	copy(wav[8:12], "WAVE")

	copy(wav[12:16], "fmt ")
	putLE32(wav[16:20], 16)
	putLE16(wav[20:22], 1) // PCM
	putLE16(wav[22:24], uint16(wavChannels))
	putLE32(wav[24:28], uint32(sampleRate)) //nolint:gosec // sampleRate is config-bounded
	putLE32(wav[28:32], uint32(byteRate))   //nolint:gosec
	putLE16(wav[32:34], uint16(blockAlign))
	putLE16(wav[34:36], uint16(wavBitsPerSample))

	copy(wav[36:40], "data")
	putLE32(wav[40:44], uint32(dataSize)) //nolint:gosec

	for i, sample := range pcm {
		putLE16(wav[wavHeaderSize+i*2:wavHeaderSize+i*2+2], uint16(sample)) //nolint:gosec // two's complement bit pattern
	}

	return wav
}

// MulawToWAV decodes μ-law bytes and wraps them as a WAV file in one step.
// An empty input returns an empty slice: callers treat that as "nothing to
// transcribe" rather than a malformed file.
func MulawToWAV(mulaw []byte, sampleRate int) []byte {
	if len(mulaw) == 0 {
		return nil
	}
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	return EncodeWAV(Decode(mulaw), sampleRate)
}

func putLE16(b []byte, v uint16) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
}

func putLE32(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}
