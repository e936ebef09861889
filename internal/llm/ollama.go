// Package llm provides the text-model clients: grammar correction of raw
// transcripts and shell-command generation for unmatched instructions.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ollama/ollama/api"

	"github.com/harkvoice/hark/internal/library"
)

const correctSystemPrompt = "You improve grammar, casing, and punctuation of short transcriptions. " +
	"Do not change meaning. Output only the corrected text, without quotes."

const generateSystemPrompt = "You are a command generator for macOS. " +
	"Translate user instructions into a JSON array of arrays of shell command tokens. " +
	"Use 'open -a' for apps, 'open \"<URL>\"' for links, and 'git' for repo actions. " +
	"Never output explanations; output only JSON. " +
	"Avoid destructive commands."

// Corrector repairs the grammar of a raw transcript. Best-effort: any
// failure returns the original text.
type Corrector interface {
	Correct(ctx context.Context, text string) string
}

// ollamaClient is the part of the Ollama API client this package uses.
type ollamaClient interface {
	Generate(ctx context.Context, req *api.GenerateRequest, fn api.GenerateResponseFunc) error
}

// OllamaClient runs correction and command generation against a local
// Ollama server.
type OllamaClient struct {
	client       ollamaClient
	model        string
	correctModel string
}

// NewOllamaClient creates a client against the Ollama server from the
// environment (OLLAMA_HOST). correctModel falls back to model when empty.
func NewOllamaClient(model, correctModel string) (*OllamaClient, error) {
	client, err := api.ClientFromEnvironment()
	if err != nil {
		return nil, fmt.Errorf("ollama client: %w", err)
	}
	if correctModel == "" {
		correctModel = model
	}
	return &OllamaClient{client: client, model: model, correctModel: correctModel}, nil
}

// Correct repairs grammar, casing, and punctuation of a short transcript.
// Any failure returns the input unchanged.
func (c *OllamaClient) Correct(ctx context.Context, text string) string {
	out, err := c.generate(ctx, c.correctModel, correctSystemPrompt, text, 0.2, nil)
	if err != nil {
		return text
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return text
	}
	return out
}

// Generate asks the model for shell commands answering the instruction,
// seeded with the command library and the available low-level operations.
// Failure or unparseable output yields an empty list.
func (c *OllamaClient) Generate(ctx context.Context, instruction string, tables library.Tables, ops []string) ([][]string, error) {
	prompt := buildGeneratePrompt(instruction, tables, ops)

	out, err := c.generate(ctx, c.model, generateSystemPrompt, prompt, 0.1, json.RawMessage(`"json"`))
	if err != nil {
		return nil, fmt.Errorf("generate commands: %w", err)
	}

	return ParseCommands(out), nil
}

func (c *OllamaClient) generate(ctx context.Context, model, system, prompt string, temperature float64, format json.RawMessage) (string, error) {
	stream := false
	req := &api.GenerateRequest{
		Model:  model,
		Prompt: prompt,
		System: system,
		Stream: &stream,
		Format: format,
		Options: map[string]any{
			"temperature": temperature,
		},
	}

	var sb strings.Builder
	err := c.client.Generate(ctx, req, func(resp api.GenerateResponse) error {
		sb.WriteString(resp.Response)
		return nil
	})
	if err != nil {
		return "", err
	}
	return sb.String(), nil
}

// buildGeneratePrompt assembles the instruction, the command library as
// JSON, and the available operations into one prompt.
func buildGeneratePrompt(instruction string, tables library.Tables, ops []string) string {
	libJSON, err := json.MarshalIndent(map[string]any{
		"aliases":   tables.Aliases,
		"apps":      tables.Apps,
		"workflows": tables.Workflows,
	}, "", "  ")
	if err != nil {
		libJSON = []byte("{}")
	}

	var b strings.Builder
	b.WriteString("Instruction:\n")
	b.WriteString(instruction)
	b.WriteString("\n\nCommand library JSON (verbatim):\n")
	b.Write(libJSON)
	if len(ops) > 0 {
		b.WriteString("\n\nAvailable operations:\n")
		for _, op := range ops {
			b.WriteString("- ")
			b.WriteString(op)
			b.WriteString("\n")
		}
	}
	b.WriteString("\nOutput strictly a JSON array-of-arrays, e.g. [[\"open\", \"-a\", \"Google Chrome\"]].")
	return b.String()
}

// ParseCommands extracts a JSON array-of-arrays of string tokens from model
// output. It tolerates surrounding prose by falling back to the outermost
// [...] substring; anything else yields nil.
func ParseCommands(content string) [][]string {
	content = strings.TrimSpace(content)

	if cmds, ok := decodeCommands(content); ok {
		return cmds
	}

	start := strings.Index(content, "[")
	end := strings.LastIndex(content, "]")
	if start != -1 && end > start {
		if cmds, ok := decodeCommands(content[start : end+1]); ok {
			return cmds
		}
	}

	return nil
}

func decodeCommands(s string) ([][]string, bool) {
	var cmds [][]string
	if err := json.Unmarshal([]byte(s), &cmds); err != nil {
		return nil, false
	}
	return cmds, true
}
