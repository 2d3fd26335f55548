package openai

import (
	"context"
	"encoding/base64"

	"github.com/openai/openai-go/v2"

	"github.com/fpt/klein-relay/pkg/domain"
)

// SupportsImages reports whether image generation was enabled in configuration
func (c *OpenAIClient) SupportsImages() bool { return c.image.Enabled }

// GenerateImage creates one 1024x1024 image and returns the decoded bytes
func (c *OpenAIClient) GenerateImage(ctx context.Context, prompt string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.image.Timeout)
	defer cancel()

	params := openai.ImageGenerateParams{
		Prompt: prompt,
		Model:  openai.ImageModel(c.image.Model),
		N:      openai.Int(1),
		Size:   openai.ImageGenerateParamsSize1024x1024,
	}
	// gpt-image models always return base64 and reject response_format
	if isDallEModel(c.image.Model) {
		params.ResponseFormat = openai.ImageGenerateParamsResponseFormatB64JSON
	}

	resp, err := c.client.Images.Generate(ctx, params)
	if err != nil {
		return nil, toAIError(err)
	}
	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return nil, domain.NewMalformedError(providerName, "image response has no data")
	}
	img, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return nil, domain.NewMalformedError(providerName, "image data is not valid base64: %v", err)
	}
	return img, nil
}
