package visual

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"musewave/core/media"
	"musewave/logger"
)

var (
	// ErrRenderToolUnavailable means the ffmpeg binary could not be found.
	ErrRenderToolUnavailable = errors.New("video render tool unavailable")
	// ErrRenderFailed means ffmpeg exited non-zero while rendering.
	ErrRenderFailed = errors.New("video render failed")
)

const (
	renderSize      = "1280x720"
	renderFrameRate = 30
	baseColor       = "0x1a2a6c"
)

// Engine renders duration-matched silent videos from a synthetic color
// source, animated by the profile's hue/saturation/contrast/noise parameters.
type Engine struct {
	ffmpegPath string
}

// NewEngine creates a render engine using the given ffmpeg binary.
func NewEngine(ffmpegPath string) *Engine {
	return &Engine{ffmpegPath: ffmpegPath}
}

// renderArgs builds the ffmpeg invocation for a silent animated video of
// exactly durationSeconds at 1280x720 / 30fps.
func renderArgs(profile Profile, durationSeconds int, outputPath string) []string {
	source := fmt.Sprintf("color=c=%s:s=%s:r=%d:d=%d",
		baseColor, renderSize, renderFrameRate, durationSeconds)
	filter := fmt.Sprintf("hue=H=t*%.2f,eq=saturation=%.2f:contrast=%.2f,noise=alls=%d:allf=t",
		profile.HueSpeed, profile.Saturation, profile.Contrast, profile.Noise)
	return []string{
		"-y",
		"-f", "lavfi",
		"-i", source,
		"-vf", filter,
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		"-t", fmt.Sprintf("%d", durationSeconds),
		outputPath,
	}
}

// Render produces the silent video for one generation and returns its path
// inside the workspace.
func (e *Engine) Render(ctx context.Context, ws *media.Workspace, prompt string, durationSeconds int, entropyToken string) (string, error) {
	if _, err := exec.LookPath(e.ffmpegPath); err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrRenderToolUnavailable, e.ffmpegPath, err)
	}

	profile := DeriveProfile(prompt, entropyToken)
	outputPath := ws.Path("render.mp4")

	args := renderArgs(profile, durationSeconds, outputPath)
	cmd := exec.CommandContext(ctx, e.ffmpegPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	logger.Debug("Rendering video",
		logger.Float64("hue_speed", profile.HueSpeed),
		logger.Float64("saturation", profile.Saturation),
		logger.Float64("contrast", profile.Contrast),
		logger.Int("noise", profile.Noise),
		logger.String("args", strings.Join(args, " ")))

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%w: %v\nFFmpeg Error: %s", ErrRenderFailed, err, stderr.String())
	}

	info, err := os.Stat(outputPath)
	if err != nil || info.Size() == 0 {
		return "", fmt.Errorf("%w: ffmpeg produced no output", ErrRenderFailed)
	}

	return outputPath, nil
}
