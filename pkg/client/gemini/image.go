package gemini

import (
	"context"

	"google.golang.org/genai"

	"github.com/fpt/klein-relay/pkg/domain"
)

// SupportsImages reports whether image generation was enabled in configuration
func (c *GeminiClient) SupportsImages() bool { return c.image.Enabled }

// GenerateImage asks Imagen for a single square PNG
func (c *GeminiClient) GenerateImage(ctx context.Context, prompt string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.image.Timeout)
	defer cancel()

	resp, err := c.client.Models.GenerateImages(ctx, c.image.Model, prompt, &genai.GenerateImagesConfig{
		NumberOfImages: 1,
		AspectRatio:    "1:1",
		OutputMIMEType: "image/png",
	})
	if err != nil {
		return nil, toAIError(err)
	}
	return firstImage(resp)
}

func firstImage(resp *genai.GenerateImagesResponse) ([]byte, error) {
	if resp == nil || len(resp.GeneratedImages) == 0 {
		return nil, domain.NewMalformedError(providerName, "image response has no images")
	}
	generated := resp.GeneratedImages[0]
	if generated.Image == nil || len(generated.Image.ImageBytes) == 0 {
		if generated.RAIFilteredReason != "" {
			return nil, domain.NewMalformedError(providerName, "image filtered: %s", generated.RAIFilteredReason)
		}
		return nil, domain.NewMalformedError(providerName, "generated image has no bytes")
	}
	return generated.Image.ImageBytes, nil
}
