package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"conversation-recall/pkg/models"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const extractSystemPrompt = `You identify people's names in conversation transcripts.
Given a transcript where lines are formatted "Speaker: text", list every
personal name that a speaker states as their own (self-introductions like
"I'm Alice" or "my name is Bob"). Rate each name's confidence:
"high" only when the transcript clearly shows a self-introduction,
"medium" when a name is mentioned but may refer to someone else,
"low" otherwise.
Respond with strict JSON: {"names":[{"name":"...","confidence":"high|medium|low"}]}
Respond with {"names":[]} when no names are present. No other text.`

const summarizeSystemPrompt = `You summarize conversations for a personal memory assistant.
Given a transcript, respond with strict JSON:
{"summary":"one or two sentences","topics":["..."],"key_points":["..."]}
No other text.`

type openAIExtractor struct {
	client openai.Client
	model  string
}

// NewOpenAIExtractor builds an Extractor over the chat-completions API.
// An empty apiKey falls back to OPENAI_API_KEY; baseURL is optional and
// enables OpenAI-compatible local or hosted services. Every request carries
// the given timeout so a slow model cannot stall the session loop.
func NewOpenAIExtractor(apiKey, baseURL, model string, timeout time.Duration) (Extractor, error) {
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required (provide via parameter or OPENAI_API_KEY environment variable)")
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithRequestTimeout(timeout),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	return &openAIExtractor{
		client: openai.NewClient(opts...),
		model:  model,
	}, nil
}

type extractPayload struct {
	Names []models.NameCandidate `json:"names"`
}

func (e *openAIExtractor) Extract(ctx context.Context, transcript string) ([]models.NameCandidate, error) {
	content, err := e.complete(ctx, extractSystemPrompt, transcript)
	if err != nil {
		return nil, err
	}
	return parseCandidates(content)
}

func (e *openAIExtractor) Summarize(ctx context.Context, transcript string) (models.SummaryResult, error) {
	content, err := e.complete(ctx, summarizeSystemPrompt, transcript)
	if err != nil {
		return models.SummaryResult{}, err
	}
	return parseSummary(content)
}

func parseCandidates(content string) ([]models.NameCandidate, error) {
	var payload extractPayload
	if err := json.Unmarshal([]byte(stripFences(content)), &payload); err != nil {
		return nil, fmt.Errorf("malformed extraction response: %w", err)
	}

	candidates := make([]models.NameCandidate, 0, len(payload.Names))
	for _, c := range payload.Names {
		c.Name = strings.TrimSpace(c.Name)
		if c.Name == "" {
			continue
		}
		switch c.Confidence {
		case models.ConfidenceHigh, models.ConfidenceMedium, models.ConfidenceLow:
		default:
			return nil, fmt.Errorf("malformed extraction response: unknown confidence %q", c.Confidence)
		}
		candidates = append(candidates, c)
	}
	return candidates, nil
}

func parseSummary(content string) (models.SummaryResult, error) {
	var result models.SummaryResult
	if err := json.Unmarshal([]byte(stripFences(content)), &result); err != nil {
		return models.SummaryResult{}, fmt.Errorf("malformed summary response: %w", err)
	}
	if result.Summary == "" {
		return models.SummaryResult{}, fmt.Errorf("malformed summary response: empty summary")
	}
	return result, nil
}

func (e *openAIExtractor) complete(ctx context.Context, system, user string) (string, error) {
	resp, err := e.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(e.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// stripFences removes a markdown code fence if the model wrapped its JSON
// in one despite the prompt.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
