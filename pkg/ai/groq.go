package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/medscribe/medscribe/internal/domain/entities"
	"github.com/medscribe/medscribe/pkg/config"
)

// maxPromptChars caps the conversation window so the prompt stays inside the
// model context.
const maxPromptChars = 6000

// GroqClient is a minimal client for Groq chat completions used for
// clinical summarization.
type GroqClient struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

// NewGroqClient creates a Groq client using values from the provided config.
// Pass a nil config to fall back to environment variables.
func NewGroqClient(cfg *config.GroqConfig) *GroqClient {
	var apiKey string
	if cfg != nil {
		apiKey = cfg.APIKey
	}
	if apiKey == "" {
		apiKey = os.Getenv("GROQ_API_KEY")
	}

	var base string
	if cfg != nil && cfg.BaseURL != "" {
		base = cfg.BaseURL
	} else {
		base = os.Getenv("GROQ_API_URL")
		if base == "" {
			base = "https://api.groq.com"
		}
	}

	model := "llama-3.1-8b-instant"
	if cfg != nil && cfg.Model != "" {
		model = cfg.Model
	}

	return &GroqClient{
		apiKey:  apiKey,
		baseURL: base,
		model:   model,
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

// ChatRequest is the shape for chat completion requests
type ChatRequest struct {
	Model       string      `json:"model,omitempty"`
	Messages    interface{} `json:"messages,omitempty"`
	Temperature float64     `json:"temperature"`
	MaxTokens   int         `json:"max_tokens,omitempty"`
}

// ChatResponse is a minimal response shape
type ChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

const summaryPrompt = `You are a medical summarization system.

STRICT RULES:
- Output ONLY valid JSON
- No markdown
- No explanations

JSON FORMAT:
{
  "doctor_summary": "",
  "symptoms": [],
  "patient_history": [],
  "risk_factors": [],
  "prescription": [],
  "advice": [],
  "recommended_action": ""
}

Conversation:
%s`

// Summarize sends the role-tagged conversation to Groq and parses the
// structured summary. An empty or malformed reply is an error; the
// orchestrator does not retry this stage.
func (g *GroqClient) Summarize(ctx context.Context, transcript *entities.Transcript) (*entities.Summary, error) {
	conversation := conversationWindow(transcript.Utterances, maxPromptChars)

	reqBody := ChatRequest{
		Model: g.model,
		Messages: []map[string]string{
			{"role": "system", "content": "You output ONLY valid JSON."},
			{"role": "user", "content": fmt.Sprintf(summaryPrompt, conversation)},
		},
		Temperature: 0.2,
	}

	b, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	endpoint := g.baseURL + "/openai/v1/chat/completions"
	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+g.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("groq returned status %d", resp.StatusCode)
	}

	var cr ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return nil, err
	}
	if len(cr.Choices) == 0 {
		return nil, fmt.Errorf("empty response from groq")
	}

	return ParseSummary(cr.Choices[0].Message.Content)
}

// conversationWindow joins "speaker: text" lines up to the character budget.
func conversationWindow(utterances []entities.Utterance, budget int) string {
	var b strings.Builder
	for _, u := range utterances {
		line := u.Speaker + ": " + u.Text + "\n"
		if b.Len()+len(line) > budget {
			break
		}
		b.WriteString(line)
	}
	return b.String()
}

// ParseSummary extracts and validates the structured summary from a model
// reply that may carry markdown fences or prose around the JSON.
func ParseSummary(raw string) (*entities.Summary, error) {
	raw = extractJSON(raw)

	var summary entities.Summary
	if err := json.Unmarshal([]byte(raw), &summary); err != nil {
		return nil, fmt.Errorf("failed to parse summary JSON: %w", err)
	}
	if strings.TrimSpace(summary.DoctorSummary) == "" {
		return nil, fmt.Errorf("missing doctor_summary in response")
	}
	summary.EnsureLists()
	return &summary, nil
}

// extractJSON extracts JSON content from markdown code blocks or plain text
func extractJSON(content string) string {
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "```json") {
		content = strings.TrimPrefix(content, "```json")
		if idx := strings.LastIndex(content, "```"); idx != -1 {
			content = content[:idx]
		}
	} else if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```")
		if idx := strings.LastIndex(content, "```"); idx != -1 {
			content = content[:idx]
		}
	}
	content = strings.TrimSpace(content)

	// Fall back to the outermost braces when the model wrapped the object
	// in prose.
	if !strings.HasPrefix(content, "{") {
		start := strings.Index(content, "{")
		end := strings.LastIndex(content, "}")
		if start != -1 && end > start {
			content = content[start : end+1]
		}
	}
	return content
}
