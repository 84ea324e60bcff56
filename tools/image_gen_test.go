package tools

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lumina/agent-api/core"
)

type fakeSynthesizer struct {
	artifact core.ImageArtifact
	err      error
	prompts  []string
}

func (f *fakeSynthesizer) GenerateImage(ctx context.Context, prompt string) (core.ImageArtifact, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return core.ImageArtifact{}, f.err
	}
	return f.artifact, nil
}

func TestImageGenReturnsArtifactPayload(t *testing.T) {
	synth := &fakeSynthesizer{artifact: core.ImageArtifact{
		ID:         "img-1",
		MimeType:   "image/png",
		DataBase64: "QUJDRA==",
		Seed:       1234,
		Prompt:     "a sunset",
	}}
	adapter := NewImageGenAdapter(synth)

	payload, err := adapter.Invoke(context.Background(), map[string]any{"prompt": "a sunset"})

	require.NoError(t, err)
	assert.Equal(t, "img-1", payload[core.PayloadKeyImageID])
	assert.Equal(t, "image/png", payload[core.PayloadKeyImageMime])
	assert.Equal(t, "QUJDRA==", payload[core.PayloadKeyImageData])
	assert.Equal(t, int64(1234), payload[core.PayloadKeyImageSeed])
	assert.Equal(t, "a sunset", payload[core.PayloadKeyPrompt])
	assert.Equal(t, []string{"a sunset"}, synth.prompts)
}

func TestImageGenRequiresPrompt(t *testing.T) {
	adapter := NewImageGenAdapter(&fakeSynthesizer{})

	_, err := adapter.Invoke(context.Background(), map[string]any{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid arguments")
}

func TestImageGenWrapsServiceFailure(t *testing.T) {
	adapter := NewImageGenAdapter(&fakeSynthesizer{err: fmt.Errorf("quota exceeded")})

	_, err := adapter.Invoke(context.Background(), map[string]any{"prompt": "a dog"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestImageGenRejectsEmptyArtifact(t *testing.T) {
	adapter := NewImageGenAdapter(&fakeSynthesizer{artifact: core.ImageArtifact{ID: "x"}})

	_, err := adapter.Invoke(context.Background(), map[string]any{"prompt": "a dog"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no data")
}
