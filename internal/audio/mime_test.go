package audio

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSampleRateFromMIME(t *testing.T) {
	tests := []struct {
		mimeType string
		want     int
	}{
		{"audio/L16;codec=pcm;rate=24000", 24000},
		{"audio/L16; rate=16000", 16000},
		{"audio/pcm", DefaultSampleRate},
		{"", DefaultSampleRate},
		{"audio/L16;rate=abc", DefaultSampleRate},
		{"audio/L16;rate=0", DefaultSampleRate},
		{"audio/L16;rate=4294967296", DefaultSampleRate},
		{";;;", DefaultSampleRate},
	}

	for _, tt := range tests {
		t.Run(tt.mimeType, func(t *testing.T) {
			assert.Equal(t, tt.want, SampleRateFromMIME(tt.mimeType, DefaultSampleRate))
		})
	}
}
