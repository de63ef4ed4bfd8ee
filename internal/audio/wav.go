package audio

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"math"
)

const (
	// MaxWAVSampleRate is the highest sample rate EncodeWAV writes
	MaxWAVSampleRate = 768000
	// MaxWAVChannels is the highest channel count EncodeWAV writes
	MaxWAVChannels = 64

	wavHeaderSize   = 44
	wavFormatPCM    = 1
	wavBitsPerValue = 16
	wavMIMEType     = "audio/wav"
	maxWAVDataSize  = math.MaxUint32 - (wavHeaderSize - 8)
)

// CheckWAVFormat returns a *TranscodeError unless a WAV header can describe sampleRate and channels
func CheckWAVFormat(sampleRate, channels int) error {
	if sampleRate < 1 || channels < 1 {
		return &TranscodeError{SampleRate: sampleRate, Channels: channels}
	}
	if sampleRate > MaxWAVSampleRate || channels > MaxWAVChannels {
		return &TranscodeError{
			SampleRate: sampleRate,
			Channels:   channels,
			Reason:     fmt.Sprintf("WAV allows sample rates up to %d and up to %d channels", MaxWAVSampleRate, MaxWAVChannels),
		}
	}
	return nil
}

// EncodeWAV writes the buffer as a 16-bit PCM RIFF/WAVE file.
// Samples produced by Transcode convert back to their original int16 values exactly.
func EncodeWAV(b *Buffer) ([]byte, error) {
	if err := CheckWAVFormat(b.SampleRate, b.Channels); err != nil {
		return nil, err
	}

	frames := b.FrameCount()
	dataSize := frames * b.Channels * bytesPerSample
	blockAlign := b.Channels * bytesPerSample
	if int64(dataSize) > maxWAVDataSize {
		return nil, &TranscodeError{
			SampleRate: b.SampleRate,
			Channels:   b.Channels,
			Reason:     fmt.Sprintf("%d bytes of samples do not fit in a WAV file", dataSize),
		}
	}

	var out bytes.Buffer
	out.Grow(wavHeaderSize + dataSize)

	out.WriteString("RIFF")
	writeUint32(&out, uint32(36+dataSize))
	out.WriteString("WAVE")

	out.WriteString("fmt ")
	writeUint32(&out, 16)
	writeUint16(&out, wavFormatPCM)
	writeUint16(&out, uint16(b.Channels))
	writeUint32(&out, uint32(b.SampleRate))
	writeUint32(&out, uint32(b.SampleRate*blockAlign))
	writeUint16(&out, uint16(blockAlign))
	writeUint16(&out, wavBitsPerValue)

	out.WriteString("data")
	writeUint32(&out, uint32(dataSize))

	sample := make([]byte, bytesPerSample)
	for f := 0; f < frames; f++ {
		for c := 0; c < b.Channels; c++ {
			binary.LittleEndian.PutUint16(sample, uint16(toInt16(b.Samples[c][f])))
			out.Write(sample)
		}
	}

	return out.Bytes(), nil
}

// WAVDataURI encodes the buffer as a data URI an <audio> element can play
func WAVDataURI(b *Buffer) (string, error) {
	wav, err := EncodeWAV(b)
	if err != nil {
		return "", err
	}
	return "data:" + wavMIMEType + ";base64," + base64.StdEncoding.EncodeToString(wav), nil
}

func toInt16(s float32) int16 {
	v := math.Round(float64(s) * int16Scale)
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	if v < math.MinInt16 {
		return math.MinInt16
	}
	return int16(v)
}

func writeUint32(out *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	out.Write(b[:])
}

func writeUint16(out *bytes.Buffer, v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	out.Write(b[:])
}
