package gemini

import (
	"context"
	"encoding/base64"
	"fmt"
	"math/rand"

	"github.com/google/uuid"
	"google.golang.org/genai"

	"lumina/agent-api/core"
)

// ImageModel synthesizes images through an image-capable Gemini model.
type ImageModel struct {
	ModelName string
	client    *genai.Client
}

func NewImageModel(ctx context.Context, apiKey string, modelName string) (*ImageModel, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	return &ImageModel{ModelName: modelName, client: client}, nil
}

// GenerateImage turns a prompt into image bytes plus the seed used, so the
// same artifact can be reproduced later.
func (m *ImageModel) GenerateImage(ctx context.Context, prompt string) (core.ImageArtifact, error) {
	seed := rand.Int31()
	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{"TEXT", "IMAGE"},
		Seed:               genai.Ptr(seed),
	}
	contents := []*genai.Content{{Role: "user", Parts: []*genai.Part{{Text: prompt}}}}

	result, err := m.client.Models.GenerateContent(ctx, m.ModelName, contents, config)
	if err != nil {
		return core.ImageArtifact{}, err
	}

	for _, candidate := range result.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.InlineData == nil || len(part.InlineData.Data) == 0 {
				continue
			}
			return core.ImageArtifact{
				ID:         uuid.NewString(),
				MimeType:   part.InlineData.MIMEType,
				DataBase64: base64.StdEncoding.EncodeToString(part.InlineData.Data),
				Seed:       int64(seed),
				Prompt:     prompt,
			}, nil
		}
	}
	return core.ImageArtifact{}, fmt.Errorf("model %s returned no image data", m.ModelName)
}
