package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"musewave/logger"
)

// ErrNormalizationFailed means ffmpeg could not decode or resample the
// provider audio.
var ErrNormalizationFailed = errors.New("audio normalization failed")

// Normalizer rewrites provider audio into a fixed intermediate format so the
// muxer never has to care what codec or sample rate the provider produced.
type Normalizer struct {
	ffmpegPath string
}

// NewNormalizer creates a normalizer using the given ffmpeg binary.
func NewNormalizer(ffmpegPath string) *Normalizer {
	return &Normalizer{ffmpegPath: ffmpegPath}
}

// normalizeArgs builds the ffmpeg invocation that converts any decodable
// input into 44.1 kHz stereo 16-bit PCM WAV.
func normalizeArgs(inputPath, outputPath string) []string {
	return []string{
		"-y",
		"-i", inputPath,
		"-ar", "44100",
		"-ac", "2",
		"-c:a", "pcm_s16le",
		"-f", "wav",
		outputPath,
	}
}

// NormalizeToWav decodes the audio bytes and writes a canonical WAV file into
// the workspace, returning its path.
func (n *Normalizer) NormalizeToWav(ctx context.Context, ws *Workspace, audio []byte) (string, error) {
	if len(audio) == 0 {
		return "", fmt.Errorf("%w: no audio data", ErrNormalizationFailed)
	}

	inputPath, err := ws.WriteFile("source_audio", audio)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNormalizationFailed, err)
	}
	outputPath := ws.Path("normalized.wav")

	args := normalizeArgs(inputPath, outputPath)
	cmd := exec.CommandContext(ctx, n.ffmpegPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	logger.Debug("Normalizing audio",
		logger.String("args", strings.Join(args, " ")))

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%w: %v\nFFmpeg Error: %s", ErrNormalizationFailed, err, stderr.String())
	}

	info, err := os.Stat(outputPath)
	if err != nil || info.Size() == 0 {
		return "", fmt.Errorf("%w: ffmpeg produced no output", ErrNormalizationFailed)
	}

	return outputPath, nil
}
