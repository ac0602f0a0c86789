package audio

import (
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"mime"
	"strconv"
)

// ErrDecodeFailure is returned for inbound payloads that are not valid
// base64-encoded 16-bit PCM.
var ErrDecodeFailure = errors.New("audio: malformed pcm payload")

// Blob is one outbound wire chunk: base64 LE int16 PCM plus its descriptor.
type Blob struct {
	MIMEType string
	Data     string
}

// Buffer is a decoded, playable block of float samples, one slice per channel.
type Buffer struct {
	SampleRate int
	Channels   int
	Data       [][]float32
}

// NewBuffer allocates a silent buffer of length frames.
func NewBuffer(channels, length, sampleRate int) *Buffer {
	data := make([][]float32, channels)
	for c := range data {
		data[c] = make([]float32, length)
	}
	return &Buffer{SampleRate: sampleRate, Channels: channels, Data: data}
}

// Length returns the number of frames per channel.
func (b *Buffer) Length() int {
	if b == nil || len(b.Data) == 0 {
		return 0
	}
	return len(b.Data[0])
}

// Duration returns the playback length in seconds.
func (b *Buffer) Duration() float64 {
	if b == nil || b.SampleRate <= 0 {
		return 0
	}
	return float64(b.Length()) / float64(b.SampleRate)
}

// EncodeFrame converts one capture frame into the outbound wire format.
// Samples are clamped to [-1, 1]; negatives scale by 32768, positives by 32767.
func EncodeFrame(samples []float32, sampleRate int) Blob {
	pcm := make([]int16, len(samples))
	for i, s := range samples {
		pcm[i] = FloatToInt16(s)
	}
	return Blob{
		MIMEType: MIMEType(sampleRate),
		Data:     base64.StdEncoding.EncodeToString(PCMInt16ToLE(pcm)),
	}
}

// DecodePayload turns a base64 LE int16 payload into a Buffer with the given
// channel layout and rate. Interleaved samples are split per channel.
func DecodePayload(b64 string, channels, sampleRate int) (*Buffer, error) {
	pcm, err := DecodePCM16(b64)
	if err != nil {
		return nil, err
	}
	if channels <= 0 {
		channels = 1
	}
	if len(pcm)%channels != 0 {
		return nil, fmt.Errorf("%w: %d samples not divisible into %d channels", ErrDecodeFailure, len(pcm), channels)
	}

	buf := NewBuffer(channels, len(pcm)/channels, sampleRate)
	for i, v := range pcm {
		buf.Data[i%channels][i/channels] = Int16ToFloat(v)
	}
	return buf, nil
}

// DecodePCM16 decodes base64 text into int16 samples.
func DecodePCM16(b64 string) ([]int16, error) {
	if b64 == "" {
		return nil, fmt.Errorf("%w: empty payload", ErrDecodeFailure)
	}
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, fmt.Errorf("%w: base64: %v", ErrDecodeFailure, err)
	}
	if len(raw)%BytesPerSample != 0 {
		return nil, fmt.Errorf("%w: odd byte length %d", ErrDecodeFailure, len(raw))
	}
	return LEToPCMInt16(raw), nil
}

// EncodePCM16 is the inverse of DecodePCM16.
func EncodePCM16(pcm []int16) string {
	return base64.StdEncoding.EncodeToString(PCMInt16ToLE(pcm))
}

// PCMInt16ToLE converts int16 samples to raw little-endian bytes.
func PCMInt16ToLE(samples []int16) []byte {
	out := make([]byte, len(samples)*BytesPerSample)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}

// LEToPCMInt16 converts raw little-endian bytes back to int16 samples.
func LEToPCMInt16(b []byte) []int16 {
	out := make([]int16, len(b)/BytesPerSample)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(b[i*2:]))
	}
	return out
}

// FloatToInt16 clamps s to [-1, 1] and scales it to the int16 range.
func FloatToInt16(s float32) int16 {
	switch {
	case s > 1:
		s = 1
	case s < -1:
		s = -1
	}
	if s < 0 {
		return int16(s * 0x8000)
	}
	return int16(s * 0x7FFF)
}

// Int16ToFloat maps an int16 sample onto [-1, 1).
func Int16ToFloat(v int16) float32 {
	return float32(v) / 0x8000
}

// SampleRateFromMIME extracts the rate parameter of a descriptor such as
// "audio/pcm;rate=24000". It returns fallback when the parameter is absent
// or unparsable.
func SampleRateFromMIME(mimeType string, fallback int) int {
	if mimeType == "" {
		return fallback
	}
	_, params, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return fallback
	}
	rate, err := strconv.Atoi(params["rate"])
	if err != nil || rate <= 0 {
		return fallback
	}
	return rate
}
