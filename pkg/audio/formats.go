package audio

import "strconv"

// Format constants shared by the codec, scheduler and device layers.
const (
	// Capture side (microphone → service).
	InputSampleRate = 16_000 // Hz
	InputChannels   = 1
	InputFrameSize  = 4096 // samples per capture frame

	// Playback side (service → speaker).
	OutputSampleRate = 24_000 // Hz
	OutputChannels   = 1

	// Wire encoding for both directions.
	PCMEncoding    = "audio/pcm"
	BytesPerSample = 2 // 16-bit little-endian
)

// MIMEType returns the wire descriptor for 16-bit PCM at the given rate,
// e.g. "audio/pcm;rate=16000".
func MIMEType(sampleRate int) string {
	return PCMEncoding + ";rate=" + strconv.Itoa(sampleRate)
}
