package tools

import (
	"context"
	"fmt"

	"lumina/agent-api/core"
)

type ImageGenArgs struct {
	Prompt string `json:"prompt" validate:"required"`
}

// ImageSynthesizer is the backing image service boundary: prompt in, image
// bytes plus reproducibility seed out.
type ImageSynthesizer interface {
	GenerateImage(ctx context.Context, prompt string) (core.ImageArtifact, error)
}

// ImageGenAdapter wraps the image synthesis service. The artifact bytes land
// in the step payload for the caller; the composer only ever sees a textual
// summary of them.
type ImageGenAdapter struct {
	synth ImageSynthesizer
}

func NewImageGenAdapter(synth ImageSynthesizer) *ImageGenAdapter {
	return &ImageGenAdapter{synth: synth}
}

func (a *ImageGenAdapter) Name() core.ToolName {
	return core.ToolImageGen
}

func (a *ImageGenAdapter) Describe() core.ToolDescriptor {
	return core.ToolDescriptor{
		Name:        core.ToolImageGen,
		Description: "Generate an image from a text prompt. Use when the user asks to generate, create, draw, or render a picture.",
		Parameters:  core.MustSchema(&ImageGenArgs{}),
	}
}

func (a *ImageGenAdapter) Invoke(ctx context.Context, args map[string]any) (map[string]any, error) {
	var in ImageGenArgs
	if err := DecodeArgs(args, &in); err != nil {
		return nil, err
	}

	artifact, err := a.synth.GenerateImage(ctx, in.Prompt)
	if err != nil {
		return nil, fmt.Errorf("image generation: %w", err)
	}
	if artifact.DataBase64 == "" {
		return nil, fmt.Errorf("image generation returned no data")
	}

	return map[string]any{
		core.PayloadKeyImageID:   artifact.ID,
		core.PayloadKeyImageMime: artifact.MimeType,
		core.PayloadKeyImageData: artifact.DataBase64,
		core.PayloadKeyImageSeed: artifact.Seed,
		core.PayloadKeyPrompt:    artifact.Prompt,
	}, nil
}
