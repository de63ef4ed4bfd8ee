package audio

import (
	"mime"
	"strconv"
)

// SampleRateFromMIME reads the rate parameter of a PCM MIME type such as
// "audio/L16;codec=pcm;rate=24000". It returns fallback when the type carries no usable rate
// or one above MaxWAVSampleRate.
func SampleRateFromMIME(mimeType string, fallback int) int {
	if mimeType == "" {
		return fallback
	}
	_, params, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return fallback
	}
	rate, err := strconv.Atoi(params["rate"])
	if err != nil || rate < 1 || rate > MaxWAVSampleRate {
		return fallback
	}
	return rate
}
