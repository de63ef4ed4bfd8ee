// Package audio turns text-to-speech payloads into playable sample buffers.
//
// Speech models return raw little-endian signed 16-bit PCM without a container header,
// base64-encoded inside the JSON response.
package audio

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"strings"
	"time"
)

const (
	// DefaultSampleRate is the rate speech models emit
	DefaultSampleRate = 24000
	// DefaultChannels is mono
	DefaultChannels = 1

	bytesPerSample = 2
	int16Scale     = 32768.0
)

// DecodeError reports a payload that is not valid standard base64
type DecodeError struct {
	Length int
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("invalid base64 audio payload (%d chars): %v", e.Length, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// TranscodeError reports an unusable buffer configuration
type TranscodeError struct {
	SampleRate int
	Channels   int
	Reason     string // empty means the values were below 1
}

func (e *TranscodeError) Error() string {
	reason := e.Reason
	if reason == "" {
		reason = "both must be >= 1"
	}
	return fmt.Sprintf("invalid audio configuration: sample rate %d, channels %d (%s)",
		e.SampleRate, e.Channels, reason)
}

// Buffer holds de-interleaved samples in [-1.0, 1.0)
type Buffer struct {
	SampleRate int
	Channels   int
	// Samples[c][f] is the sample of channel c at frame f
	Samples [][]float32
}

// FrameCount returns the number of samples per channel
func (b *Buffer) FrameCount() int {
	if len(b.Samples) == 0 {
		return 0
	}
	return len(b.Samples[0])
}

// Duration returns the playback length of the buffer
func (b *Buffer) Duration() time.Duration {
	if b.SampleRate < 1 {
		return 0
	}
	return time.Duration(b.FrameCount()) * time.Second / time.Duration(b.SampleRate)
}

// DecodeBase64 decodes a standard-alphabet base64 string the way browsers do:
// padding is optional and ASCII whitespace is ignored.
func DecodeBase64(encoded string) ([]byte, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\f', '\r':
			return -1
		}
		return r
	}, encoded)

	// At most two '=' and only when the padded length is a multiple of four.
	if len(cleaned)%4 == 0 {
		for i := 0; i < 2 && strings.HasSuffix(cleaned, "="); i++ {
			cleaned = cleaned[:len(cleaned)-1]
		}
	}

	data, err := base64.RawStdEncoding.DecodeString(cleaned)
	if err != nil {
		return nil, &DecodeError{Length: len(encoded), Err: err}
	}
	return data, nil
}

// Transcode interprets pcm as interleaved signed 16-bit little-endian samples.
// Bytes that do not complete a frame are dropped.
func Transcode(pcm []byte, sampleRate, channels int) (*Buffer, error) {
	if sampleRate < 1 || channels < 1 {
		return nil, &TranscodeError{SampleRate: sampleRate, Channels: channels}
	}

	sampleCount := len(pcm) / bytesPerSample
	frameCount := sampleCount / channels

	samples := make([][]float32, channels)
	for c := range samples {
		samples[c] = make([]float32, frameCount)
	}

	for f := 0; f < frameCount; f++ {
		for c := 0; c < channels; c++ {
			offset := (f*channels + c) * bytesPerSample
			value := int16(binary.LittleEndian.Uint16(pcm[offset:]))
			samples[c][f] = float32(value) / int16Scale
		}
	}

	return &Buffer{
		SampleRate: sampleRate,
		Channels:   channels,
		Samples:    samples,
	}, nil
}

// DecodeTranscode runs both stages on a base64 payload
func DecodeTranscode(encoded string, sampleRate, channels int) (*Buffer, error) {
	if sampleRate < 1 || channels < 1 {
		return nil, &TranscodeError{SampleRate: sampleRate, Channels: channels}
	}
	pcm, err := DecodeBase64(encoded)
	if err != nil {
		return nil, err
	}
	return Transcode(pcm, sampleRate, channels)
}
