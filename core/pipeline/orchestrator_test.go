package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"musewave/core/media"
	"musewave/core/prompt"
	"musewave/model"
	"musewave/storage"
)

type fakeTokens struct{}

func (fakeTokens) Generate(prefix string) string { return "deadbeefcafe0123" }

type fakeComposer struct{}

func (fakeComposer) Compose(ctx context.Context, pc prompt.Context, entropyToken string) string {
	return "composed prompt " + entropyToken
}

type fakeSynth struct {
	audio       []byte
	err         error
	gotDuration int
}

func (f *fakeSynth) Synthesize(ctx context.Context, prompt string, durationSeconds int) ([]byte, error) {
	f.gotDuration = durationSeconds
	return f.audio, f.err
}

type fakeNormalizer struct {
	err error
}

func (f *fakeNormalizer) NormalizeToWav(ctx context.Context, ws *media.Workspace, audio []byte) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return ws.Path("normalized.wav"), nil
}

type fakeRenderer struct {
	err error
}

func (f *fakeRenderer) Render(ctx context.Context, ws *media.Workspace, prompt string, durationSeconds int, entropyToken string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return ws.Path("render.mp4"), nil
}

type fakeMuxer struct {
	err error
}

func (f *fakeMuxer) Mux(ctx context.Context, ws *media.Workspace, videoPath, audioPath string, durationSeconds int) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []byte("final-video"), nil
}

type fakePublisher struct {
	videoErr error
	calls    []storage.ArtifactKind
}

func (f *fakePublisher) Publish(ctx context.Context, kind storage.ArtifactKind, projectID, entropyToken string, buf []byte) (string, error) {
	f.calls = append(f.calls, kind)
	if kind == storage.KindVideo && f.videoErr != nil {
		return "", f.videoErr
	}
	return fmt.Sprintf("https://cdn.example.com/bucket/%s/%s-%s", kind, projectID, entropyToken), nil
}

type fakeProjects struct {
	created []*model.ProjectRecord
	err     error
}

func (f *fakeProjects) CreateProject(ctx context.Context, record *model.ProjectRecord) error {
	if f.err != nil {
		return f.err
	}
	f.created = append(f.created, record)
	return nil
}

func newTestOrchestrator(synth *fakeSynth, norm *fakeNormalizer, rend *fakeRenderer, mux *fakeMuxer, pub *fakePublisher, proj *fakeProjects) *Orchestrator {
	return NewOrchestrator(fakeTokens{}, fakeComposer{}, synth, norm, rend, mux, pub, proj)
}

func TestGenerateHappyPath(t *testing.T) {
	synth := &fakeSynth{audio: []byte("audio-bytes")}
	pub := &fakePublisher{}
	proj := &fakeProjects{}
	o := newTestOrchestrator(synth, &fakeNormalizer{}, &fakeRenderer{}, &fakeMuxer{}, pub, proj)

	result, err := o.Generate(context.Background(), &model.GenerationRequest{Duration: 60})
	require.NoError(t, err)

	assert.NotEmpty(t, result.ProjectID)
	assert.Contains(t, result.Prompt, "deadbeefcafe0123")
	assert.Contains(t, result.AudioURL, "audio/")
	assert.Contains(t, result.VideoURL, "video/")
	assert.Equal(t, 60, synth.gotDuration)

	assert.Equal(t, []storage.ArtifactKind{storage.KindAudio, storage.KindVideo}, pub.calls)

	require.Len(t, proj.created, 1)
	record := proj.created[0]
	assert.Equal(t, result.ProjectID, record.ProjectID)
	assert.Equal(t, result.AudioURL, record.AudioURL)
	assert.Equal(t, result.VideoURL, record.VideoURL)
	assert.False(t, record.CreatedAt.IsZero())
}

func TestGenerateClampsDuration(t *testing.T) {
	synth := &fakeSynth{audio: []byte("a")}
	o := newTestOrchestrator(synth, &fakeNormalizer{}, &fakeRenderer{}, &fakeMuxer{}, &fakePublisher{}, &fakeProjects{})

	_, err := o.Generate(context.Background(), &model.GenerationRequest{Duration: 9999})
	require.NoError(t, err)
	assert.Equal(t, model.MaxDurationSeconds, synth.gotDuration)
}

func TestGenerateSynthFailureNoPersist(t *testing.T) {
	synthErr := errors.New("provider exploded")
	proj := &fakeProjects{}
	pub := &fakePublisher{}
	o := newTestOrchestrator(&fakeSynth{err: synthErr}, &fakeNormalizer{}, &fakeRenderer{}, &fakeMuxer{}, pub, proj)

	_, err := o.Generate(context.Background(), &model.GenerationRequest{})
	require.Error(t, err)

	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, StageSynthesizingAudio, stageErr.Stage)
	assert.ErrorIs(t, err, synthErr)

	assert.Empty(t, proj.created)
	assert.Empty(t, pub.calls)
}

func TestGenerateNormalizeFailure(t *testing.T) {
	proj := &fakeProjects{}
	o := newTestOrchestrator(&fakeSynth{audio: []byte("a")}, &fakeNormalizer{err: errors.New("bad audio")}, &fakeRenderer{}, &fakeMuxer{}, &fakePublisher{}, proj)

	_, err := o.Generate(context.Background(), &model.GenerationRequest{})
	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, StageNormalizing, stageErr.Stage)
	assert.Empty(t, proj.created)
}

func TestGenerateRenderFailure(t *testing.T) {
	o := newTestOrchestrator(&fakeSynth{audio: []byte("a")}, &fakeNormalizer{}, &fakeRenderer{err: errors.New("no ffmpeg")}, &fakeMuxer{}, &fakePublisher{}, &fakeProjects{})

	_, err := o.Generate(context.Background(), &model.GenerationRequest{})
	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, StageRenderingVideo, stageErr.Stage)
}

func TestGenerateMuxFailure(t *testing.T) {
	o := newTestOrchestrator(&fakeSynth{audio: []byte("a")}, &fakeNormalizer{}, &fakeRenderer{}, &fakeMuxer{err: errors.New("mux broke")}, &fakePublisher{}, &fakeProjects{})

	_, err := o.Generate(context.Background(), &model.GenerationRequest{})
	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, StageMuxing, stageErr.Stage)
}

func TestGenerateVideoPublishFailureNoPersist(t *testing.T) {
	proj := &fakeProjects{}
	pub := &fakePublisher{videoErr: errors.New("storage down")}
	o := newTestOrchestrator(&fakeSynth{audio: []byte("a")}, &fakeNormalizer{}, &fakeRenderer{}, &fakeMuxer{}, pub, proj)

	_, err := o.Generate(context.Background(), &model.GenerationRequest{})
	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, StagePublishing, stageErr.Stage)

	// Audio went up, video did not; nothing may be persisted.
	assert.Equal(t, []storage.ArtifactKind{storage.KindAudio, storage.KindVideo}, pub.calls)
	assert.Empty(t, proj.created)
}

func TestGeneratePersistFailure(t *testing.T) {
	proj := &fakeProjects{err: errors.New("db down")}
	o := newTestOrchestrator(&fakeSynth{audio: []byte("a")}, &fakeNormalizer{}, &fakeRenderer{}, &fakeMuxer{}, &fakePublisher{}, proj)

	_, err := o.Generate(context.Background(), &model.GenerationRequest{})
	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, StagePersisting, stageErr.Stage)
}

func TestStageErrorMessageNamesStage(t *testing.T) {
	err := failed(StageMuxing, errors.New("boom"))
	assert.Contains(t, err.Error(), "muxing")
	assert.Contains(t, err.Error(), "boom")
}
