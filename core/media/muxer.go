package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"musewave/logger"
)

// ErrMuxFailed means ffmpeg could not combine the video and audio tracks.
var ErrMuxFailed = errors.New("audio/video mux failed")

// Muxer combines the rendered silent video with the normalized audio track
// into the final deliverable.
type Muxer struct {
	ffmpegPath string
}

// NewMuxer creates a muxer using the given ffmpeg binary.
func NewMuxer(ffmpegPath string) *Muxer {
	return &Muxer{ffmpegPath: ffmpegPath}
}

// muxArgs builds the ffmpeg invocation. The video loops as long as needed
// (-stream_loop -1) and is copied without re-encoding; the output is cut to
// exactly the requested duration so a short render can never truncate audio.
func muxArgs(videoPath, audioPath, outputPath string, durationSeconds int) []string {
	return []string{
		"-y",
		"-stream_loop", "-1",
		"-i", videoPath,
		"-i", audioPath,
		"-map", "0:v",
		"-map", "1:a",
		"-c:v", "copy",
		"-c:a", "aac",
		"-b:a", "192k",
		"-t", strconv.Itoa(durationSeconds),
		"-movflags", "+faststart",
		outputPath,
	}
}

// Mux writes the final MP4 into the workspace and returns its bytes.
func (m *Muxer) Mux(ctx context.Context, ws *Workspace, videoPath, audioPath string, durationSeconds int) ([]byte, error) {
	if videoPath == "" || audioPath == "" {
		return nil, fmt.Errorf("%w: missing input track", ErrMuxFailed)
	}
	outputPath := ws.Path("final.mp4")

	args := muxArgs(videoPath, audioPath, outputPath, durationSeconds)
	cmd := exec.CommandContext(ctx, m.ffmpegPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	logger.Debug("Muxing final video",
		logger.String("args", strings.Join(args, " ")))

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%w: %v\nFFmpeg Error: %s", ErrMuxFailed, err, stderr.String())
	}

	data, err := os.ReadFile(outputPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMuxFailed, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: ffmpeg produced empty output", ErrMuxFailed)
	}
	return data, nil
}
