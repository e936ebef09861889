// Package vision asks a multimodal model for click targets on a screenshot.
package vision

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/ollama/ollama/api"

	"github.com/harkvoice/hark/pkg/models"
)

const systemPrompt = "You analyze one or more desktop screenshots and return UI click targets as JSON. " +
	"If multiple images are provided, the first is the current frame and the rest are recent context frames. " +
	"Output only JSON with fields: targets (list of {x:int, y:int, label:str, confidence:float}), and optional notes. " +
	"Coordinates must be absolute pixel positions for the current frame. " +
	"Be conservative: if ambiguous or low confidence, return an empty list."

// Prediction is the vision service's answer for one query.
type Prediction struct {
	Targets []models.Target `json:"targets"`
	Notes   string          `json:"notes,omitempty"`
}

// Service suggests click targets for an instruction against a screenshot.
type Service interface {
	SuggestTargets(ctx context.Context, image, instruction string, contextImages []string, temperature float64) (Prediction, error)
}

// ollamaClient is the part of the Ollama API client the service uses.
type ollamaClient interface {
	Generate(ctx context.Context, req *api.GenerateRequest, fn api.GenerateResponseFunc) error
}

// Client queries a multimodal Ollama model for click targets.
type Client struct {
	client ollamaClient
	model  string
}

// NewClient creates a vision client against the Ollama server from the
// environment (OLLAMA_HOST).
func NewClient(model string) (*Client, error) {
	client, err := api.ClientFromEnvironment()
	if err != nil {
		return nil, fmt.Errorf("ollama client: %w", err)
	}
	return &Client{client: client, model: model}, nil
}

// SuggestTargets sends the screenshot, up to three context frames, and the
// instruction to the model. Malformed model output is not an error: it
// yields an empty target list with a parse_error note.
func (c *Client) SuggestTargets(ctx context.Context, image, instruction string, contextImages []string, temperature float64) (Prediction, error) {
	images, err := loadImages(image, contextImages)
	if err != nil {
		return Prediction{}, err
	}

	prompt := "Instruction: " + instruction + "\n" +
		"Return JSON with fields: targets (list of {x, y, label, confidence}), and optional notes."

	stream := false
	req := &api.GenerateRequest{
		Model:  c.model,
		Prompt: prompt,
		System: systemPrompt,
		Images: images,
		Format: json.RawMessage(`"json"`),
		Stream: &stream,
		Options: map[string]any{
			"temperature": temperature,
		},
	}

	var sb strings.Builder
	err = c.client.Generate(ctx, req, func(resp api.GenerateResponse) error {
		sb.WriteString(resp.Response)
		return nil
	})
	if err != nil {
		return Prediction{}, fmt.Errorf("vision generate: %w", err)
	}

	return ParsePrediction(sb.String()), nil
}

// ParsePrediction decodes the model's answer. It tolerates surrounding
// prose by falling back to the outermost {...} substring; anything still
// unparseable yields an empty prediction with a parse_error note.
func ParsePrediction(content string) Prediction {
	content = strings.TrimSpace(content)

	var pred Prediction
	if err := json.Unmarshal([]byte(content), &pred); err == nil {
		return pred
	}

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start != -1 && end > start {
		if err := json.Unmarshal([]byte(content[start:end+1]), &pred); err == nil {
			return pred
		}
	}

	return Prediction{Targets: []models.Target{}, Notes: "parse_error"}
}

// loadImages reads the current frame plus context frames. Context frames
// that cannot be read are skipped; the current frame is required.
func loadImages(image string, contextImages []string) ([]api.ImageData, error) {
	data, err := os.ReadFile(image)
	if err != nil {
		return nil, fmt.Errorf("read screenshot: %w", err)
	}

	images := []api.ImageData{api.ImageData(data)}
	for _, ci := range contextImages {
		d, err := os.ReadFile(ci)
		if err != nil {
			continue
		}
		images = append(images, api.ImageData(d))
	}
	return images, nil
}

// Verify Client implements Service at compile time.
var _ Service = (*Client)(nil)
