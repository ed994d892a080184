package bedrock

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	"github.com/corey/gourmand/internal/defaults"
	"github.com/corey/gourmand/internal/errors"
	"github.com/corey/gourmand/internal/ports"
)

const (
	opTextToImage = "text_to_image"

	canvasTaskTextImage = "TEXT_IMAGE"
	canvasQuality       = "standard"
	canvasCfgScale      = 8.0

	// canvasMaxSeed is the largest seed Nova Canvas accepts.
	canvasMaxSeed = 2147483646
)

type canvasRequest struct {
	TaskType              string             `json:"taskType"`
	TextToImageParams     canvasTextParams   `json:"textToImageParams"`
	ImageGenerationConfig canvasImageOptions `json:"imageGenerationConfig"`
}

type canvasTextParams struct {
	Text         string `json:"text"`
	NegativeText string `json:"negativeText,omitempty"`
}

type canvasImageOptions struct {
	NumberOfImages int     `json:"numberOfImages"`
	Quality        string  `json:"quality"`
	Height         int     `json:"height"`
	Width          int     `json:"width"`
	CfgScale       float64 `json:"cfgScale"`
	Seed           int     `json:"seed"`
}

type canvasResponse struct {
	Images []string `json:"images"`
	Error  *string  `json:"error,omitempty"`
}

// TextToImage generates images with the configured image model (Nova Canvas
// request format) and returns the decoded PNG bytes.
func (c *Client) TextToImage(ctx context.Context, req *ports.ImageRequest) ([][]byte, error) {
	body, err := json.Marshal(newCanvasRequest(req))
	if err != nil {
		return nil, fmt.Errorf("marshal image request: %w", err)
	}
	if err := c.wait(ctx, opTextToImage); err != nil {
		return nil, err
	}

	start := time.Now()
	out, err := c.runtime.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(c.imageModel),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        body,
	})
	observe(opTextToImage, time.Since(start).Seconds(), err)
	if err != nil {
		return nil, classify(opTextToImage, err)
	}

	return decodeCanvasResponse(out.Body)
}

func newCanvasRequest(req *ports.ImageRequest) canvasRequest {
	count := req.Count
	if count <= 0 {
		count = defaults.ImageCount
	}
	width, height := req.Width, req.Height
	if width <= 0 {
		width = defaults.ImageSize
	}
	if height <= 0 {
		height = defaults.ImageSize
	}
	seed := req.Seed
	if seed <= 0 {
		seed = rand.IntN(canvasMaxSeed + 1)
	}
	return canvasRequest{
		TaskType: canvasTaskTextImage,
		TextToImageParams: canvasTextParams{
			Text:         req.Prompt,
			NegativeText: req.NegativePrompt,
		},
		ImageGenerationConfig: canvasImageOptions{
			NumberOfImages: count,
			Quality:        canvasQuality,
			Height:         height,
			Width:          width,
			CfgScale:       canvasCfgScale,
			Seed:           seed,
		},
	}
}

func decodeCanvasResponse(body []byte) ([][]byte, error) {
	var resp canvasResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "decode image response", err)
	}
	if resp.Error != nil && *resp.Error != "" {
		return nil, errors.New(errors.ErrCodeInternal, "image generation error: "+*resp.Error)
	}

	images := make([][]byte, 0, len(resp.Images))
	for i, b64 := range resp.Images {
		img, err := base64.StdEncoding.DecodeString(b64)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, fmt.Sprintf("decode image %d", i), err)
		}
		images = append(images, img)
	}
	return images, nil
}
