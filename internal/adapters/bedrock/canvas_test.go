package bedrock

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	rttypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corey/gourmand/internal/errors"
	"github.com/corey/gourmand/internal/ports"
)

func canvasBody(t *testing.T, images ...string) []byte {
	t.Helper()
	enc := make([]string, len(images))
	for i, img := range images {
		enc[i] = base64.StdEncoding.EncodeToString([]byte(img))
	}
	body, err := json.Marshal(map[string]any{"images": enc})
	require.NoError(t, err)
	return body
}

func TestTextToImage(t *testing.T) {
	rt := &fakeRuntime{invokeOut: &bedrockruntime.InvokeModelOutput{Body: canvasBody(t, "png-a", "png-b")}}
	c := newTestClient(rt, nil)

	imgs, err := c.TextToImage(context.Background(), &ports.ImageRequest{
		Prompt: "a steaming bowl of soup", Count: 2, Width: 512, Height: 768, Seed: 42,
	})
	require.NoError(t, err)
	assert.Equal(t, [][]byte{[]byte("png-a"), []byte("png-b")}, imgs)

	require.Len(t, rt.invokeIn, 1)
	in := rt.invokeIn[0]
	assert.Equal(t, "amazon.nova-canvas-v1:0", aws.ToString(in.ModelId))
	assert.Equal(t, "application/json", aws.ToString(in.ContentType))

	var sent canvasRequest
	require.NoError(t, json.Unmarshal(in.Body, &sent))
	assert.Equal(t, "TEXT_IMAGE", sent.TaskType)
	assert.Equal(t, "a steaming bowl of soup", sent.TextToImageParams.Text)
	assert.Equal(t, canvasImageOptions{
		NumberOfImages: 2, Quality: "standard", Height: 768, Width: 512, CfgScale: 8.0, Seed: 42,
	}, sent.ImageGenerationConfig)
}

func TestNewCanvasRequest_Defaults(t *testing.T) {
	req := newCanvasRequest(&ports.ImageRequest{Prompt: "toast"})
	cfg := req.ImageGenerationConfig
	assert.Equal(t, 1, cfg.NumberOfImages)
	assert.Equal(t, 1024, cfg.Width)
	assert.Equal(t, 1024, cfg.Height)
	assert.GreaterOrEqual(t, cfg.Seed, 0)
	assert.LessOrEqual(t, cfg.Seed, canvasMaxSeed)

	body, err := json.Marshal(req)
	require.NoError(t, err)
	assert.NotContains(t, string(body), "negativeText")
}

func TestDecodeCanvasResponse_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"error field", `{"images":[],"error":"prompt blocked"}`, "prompt blocked"},
		{"bad json", `{"images":`, "decode image response"},
		{"bad base64", `{"images":["!!!"]}`, "decode image 0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeCanvasResponse([]byte(tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestDecodeCanvasResponse_EmptyErrorIgnored(t *testing.T) {
	imgs, err := decodeCanvasResponse([]byte(`{"images":["aGk="],"error":""}`))
	require.NoError(t, err)
	assert.Equal(t, [][]byte{[]byte("hi")}, imgs)
}

func TestTextToImage_ServiceError(t *testing.T) {
	rt := &fakeRuntime{invokeErr: &rttypes.ValidationException{Message: aws.String("bad size")}}
	_, err := newTestClient(rt, nil).TextToImage(context.Background(), &ports.ImageRequest{Prompt: "x"})
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidRequest))
}
