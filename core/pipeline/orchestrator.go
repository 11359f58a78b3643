package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"musewave/core/media"
	"musewave/core/prompt"
	"musewave/logger"
	"musewave/model"
	"musewave/storage"
)

// Stage names one step of the generation pipeline.
type Stage string

const (
	StageComposing         Stage = "composing"
	StageSynthesizingAudio Stage = "synthesizing_audio"
	StageNormalizing       Stage = "normalizing"
	StageRenderingVideo    Stage = "rendering_video"
	StageMuxing            Stage = "muxing"
	StagePublishing        Stage = "publishing"
	StagePersisting        Stage = "persisting"
	StageDone              Stage = "done"
)

// StageError wraps a component failure with the pipeline stage it occurred in.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("generation failed at stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func failed(stage Stage, err error) error {
	return &StageError{Stage: stage, Err: err}
}

// TokenSource mints the per-generation entropy token.
type TokenSource interface {
	Generate(prefix string) string
}

// Composer builds the final prompt for one request.
type Composer interface {
	Compose(ctx context.Context, pc prompt.Context, entropyToken string) string
}

// AudioSynthesizer produces encoded audio for a prompt.
type AudioSynthesizer interface {
	Synthesize(ctx context.Context, prompt string, durationSeconds int) ([]byte, error)
}

// AudioNormalizer converts provider audio into canonical WAV.
type AudioNormalizer interface {
	NormalizeToWav(ctx context.Context, ws *media.Workspace, audio []byte) (string, error)
}

// VideoRenderer produces the silent video track.
type VideoRenderer interface {
	Render(ctx context.Context, ws *media.Workspace, prompt string, durationSeconds int, entropyToken string) (string, error)
}

// TrackMuxer combines the video and audio tracks into the final container.
type TrackMuxer interface {
	Mux(ctx context.Context, ws *media.Workspace, videoPath, audioPath string, durationSeconds int) ([]byte, error)
}

// ArtifactPublisher uploads one finished artifact and returns its public URL.
type ArtifactPublisher interface {
	Publish(ctx context.Context, kind storage.ArtifactKind, projectID, entropyToken string, buf []byte) (string, error)
}

// ProjectWriter persists the completed project record.
type ProjectWriter interface {
	CreateProject(ctx context.Context, record *model.ProjectRecord) error
}

// Orchestrator runs one request through the full generation pipeline. Each
// run is sequential and owns its scratch workspace; concurrent runs share
// nothing but the external services.
type Orchestrator struct {
	tokens     TokenSource
	composer   Composer
	synth      AudioSynthesizer
	normalizer AudioNormalizer
	renderer   VideoRenderer
	muxer      TrackMuxer
	publisher  ArtifactPublisher
	projects   ProjectWriter
}

// NewOrchestrator wires the pipeline components together.
func NewOrchestrator(
	tokens TokenSource,
	composer Composer,
	synth AudioSynthesizer,
	normalizer AudioNormalizer,
	renderer VideoRenderer,
	muxer TrackMuxer,
	publisher ArtifactPublisher,
	projects ProjectWriter,
) *Orchestrator {
	return &Orchestrator{
		tokens:     tokens,
		composer:   composer,
		synth:      synth,
		normalizer: normalizer,
		renderer:   renderer,
		muxer:      muxer,
		publisher:  publisher,
		projects:   projects,
	}
}

// Generate runs the pipeline for one request. A ProjectRecord is written only
// after both artifacts are published; any earlier failure leaves the database
// untouched. The returned error, if any, is a *StageError.
func (o *Orchestrator) Generate(ctx context.Context, req *model.GenerationRequest) (*model.GenerationResult, error) {
	projectID := uuid.NewString()
	entropyToken := o.tokens.Generate("")
	durationSeconds := req.Duration.Normalize()

	logger.Info("Generation started",
		logger.String("projectId", projectID),
		logger.String("entropy", entropyToken),
		logger.Int("duration_seconds", durationSeconds))

	ws, err := media.NewWorkspace(entropyToken)
	if err != nil {
		return nil, failed(StageComposing, err)
	}
	defer ws.Cleanup()

	finalPrompt := o.composer.Compose(ctx, prompt.Context{
		UserPrompt:        req.Prompt,
		Genres:            req.Genres,
		ArtistInspiration: req.ArtistInspiration,
		Description:       req.Description,
	}, entropyToken)

	audio, err := o.synth.Synthesize(ctx, finalPrompt, durationSeconds)
	if err != nil {
		return nil, failed(StageSynthesizingAudio, err)
	}

	wavPath, err := o.normalizer.NormalizeToWav(ctx, ws, audio)
	if err != nil {
		return nil, failed(StageNormalizing, err)
	}

	videoPath, err := o.renderer.Render(ctx, ws, finalPrompt, durationSeconds, entropyToken)
	if err != nil {
		return nil, failed(StageRenderingVideo, err)
	}

	finalVideo, err := o.muxer.Mux(ctx, ws, videoPath, wavPath, durationSeconds)
	if err != nil {
		return nil, failed(StageMuxing, err)
	}

	audioURL, err := o.publisher.Publish(ctx, storage.KindAudio, projectID, entropyToken, audio)
	if err != nil {
		return nil, failed(StagePublishing, err)
	}

	videoURL, err := o.publisher.Publish(ctx, storage.KindVideo, projectID, entropyToken, finalVideo)
	if err != nil {
		// The audio blob is already durable and will not be referenced by
		// any record; leave it and flag it for offline cleanup.
		logger.Warn("Video publish failed after audio upload, orphaned audio blob remains",
			logger.String("projectId", projectID),
			logger.String("audioUrl", audioURL),
			logger.ErrorField(err))
		return nil, failed(StagePublishing, err)
	}

	record := &model.ProjectRecord{
		ProjectID: projectID,
		Prompt:    finalPrompt,
		AudioURL:  audioURL,
		VideoURL:  videoURL,
		CreatedAt: time.Now().UTC(),
	}
	if err := o.projects.CreateProject(ctx, record); err != nil {
		logger.Warn("Persist failed after publish, orphaned artifacts remain",
			logger.String("projectId", projectID),
			logger.String("audioUrl", audioURL),
			logger.String("videoUrl", videoURL),
			logger.ErrorField(err))
		return nil, failed(StagePersisting, err)
	}

	logger.Info("Generation complete",
		logger.String("projectId", projectID),
		logger.String("stage", string(StageDone)))

	return &model.GenerationResult{
		ProjectID: projectID,
		Prompt:    finalPrompt,
		AudioURL:  audioURL,
		VideoURL:  videoURL,
		CreatedAt: record.CreatedAt,
	}, nil
}
