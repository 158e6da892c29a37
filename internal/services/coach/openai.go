package coach

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/calbright/flowday/internal/models"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
	"go.uber.org/zap"
)

const (
	// DefaultOpenAIModel is the default model to use
	DefaultOpenAIModel = "gpt-4o-mini"
	// DefaultOpenAIBaseURL is the default OpenAI API base URL
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
	// DefaultTimeout is the default timeout for API calls
	DefaultTimeout = 30 * time.Second

	// MaxDecomposedTasks caps how many drafts a single decomposition may yield
	MaxDecomposedTasks = 12

	// ErrNoChoicesInResponse is returned when the API response has no choices
	ErrNoChoicesInResponse = "no choices in response"
)

// OpenAICoach implements the Provider interface using OpenAI's API
type OpenAICoach struct {
	client    openai.Client
	model     string
	logger    *zap.Logger
	debugMode bool
}

// NewOpenAICoach creates a new OpenAI coaching provider
func NewOpenAICoach(apiKey, baseURL, model string, logger *zap.Logger, debugMode bool) *OpenAICoach {
	if model == "" {
		model = DefaultOpenAIModel
	}
	if baseURL == "" {
		baseURL = DefaultOpenAIBaseURL
	}

	httpClient := &http.Client{
		Timeout: DefaultTimeout,
	}

	client := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
		option.WithHTTPClient(httpClient),
	)

	return &OpenAICoach{
		client:    client,
		model:     model,
		logger:    logger,
		debugMode: debugMode,
	}
}

// DecomposeGoal breaks a project goal into concrete task drafts
func (p *OpenAICoach) DecomposeGoal(ctx context.Context, goal string, profile *models.CalibrationProfile) ([]TaskDraft, error) {
	prompt := buildDecompositionPrompt(goal, profile)
	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage("You are a productivity coach that breaks goals into small actionable tasks. Respond with valid JSON only."),
		openai.UserMessage(prompt),
	}
	req := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(p.model),
		Messages: messages,
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	}

	content, err := p.send(ctx, "decompose_goal", prompt, req)
	if err != nil {
		return nil, fmt.Errorf("failed to decompose goal: %w", err)
	}

	drafts, err := parseTaskDrafts(content)
	if err != nil {
		return nil, err
	}

	if len(drafts) > MaxDecomposedTasks {
		drafts = drafts[:MaxDecomposedTasks]
	}
	for i := range drafts {
		drafts[i] = NormalizeDraft(drafts[i])
	}
	return drafts, nil
}

// SummarizePlan produces a short motivational summary of a daily plan
func (p *OpenAICoach) SummarizePlan(ctx context.Context, plan *models.DailyPlan, profile *models.CalibrationProfile) (string, error) {
	prompt := buildSummaryPrompt(plan, profile)
	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage("You are an encouraging productivity coach. Keep responses to two or three sentences, plain text."),
		openai.UserMessage(prompt),
	}
	req := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(p.model),
		Messages: messages,
	}

	content, err := p.send(ctx, "summarize_plan", prompt, req)
	if err != nil {
		return "", fmt.Errorf("failed to summarize plan: %w", err)
	}
	return strings.TrimSpace(content), nil
}

// send performs the chat completion call with debug logging on both sides.
func (p *OpenAICoach) send(ctx context.Context, operation, prompt string, req openai.ChatCompletionNewParams) (string, error) {
	if p.logger != nil && p.debugMode {
		p.logger.Debug("llm_api_request",
			zap.String("operation", operation),
			zap.String("model", p.model),
			zap.Int("prompt_length", len(prompt)),
			zap.String("prompt_preview", SanitizePrompt(prompt, true)),
		)
	}

	start := time.Now()
	resp, err := p.client.Chat.Completions.New(ctx, req)
	latency := time.Since(start)
	if err != nil {
		if p.logger != nil && p.debugMode {
			p.logger.Debug("llm_api_error",
				zap.String("operation", operation),
				zap.String("model", p.model),
				zap.Error(err),
				zap.Duration("latency", latency),
			)
		}
		if apiErr := ExtractAPIError(err); apiErr != nil {
			return "", apiErr
		}
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", errors.New(ErrNoChoicesInResponse)
	}
	content := resp.Choices[0].Message.Content

	if p.logger != nil && p.debugMode {
		p.logger.Debug("llm_api_response",
			zap.String("operation", operation),
			zap.String("model", p.model),
			zap.Int("response_length", len(content)),
			zap.String("response_preview", SanitizeResponse(content, true)),
			zap.Int64("latency_ms", latency.Milliseconds()),
		)
	}
	return content, nil
}

// parseTaskDrafts parses the decomposition response, tolerating prose around
// the JSON object.
func parseTaskDrafts(content string) ([]TaskDraft, error) {
	var decomposition struct {
		Tasks []TaskDraft `json:"tasks"`
	}
	raw := content
	if err := json.Unmarshal([]byte(raw), &decomposition); err != nil {
		if len(raw) > 0 && raw[0] != '{' {
			start := bytes.Index([]byte(raw), []byte("{"))
			end := bytes.LastIndex([]byte(raw), []byte("}"))
			if start != -1 && end != -1 && end > start {
				raw = raw[start : end+1]
			}
		}
		if err := json.Unmarshal([]byte(raw), &decomposition); err != nil {
			return nil, fmt.Errorf("failed to parse decomposition response: %w", err)
		}
	}

	drafts := make([]TaskDraft, 0, len(decomposition.Tasks))
	for _, d := range decomposition.Tasks {
		if strings.TrimSpace(d.Title) == "" {
			continue
		}
		drafts = append(drafts, d)
	}
	if len(drafts) == 0 {
		return nil, errors.New("decomposition produced no tasks")
	}
	return drafts, nil
}

func buildDecompositionPrompt(goal string, profile *models.CalibrationProfile) string {
	var b strings.Builder
	b.WriteString("Break the following goal into 3-12 small tasks, each completable in a single sitting.\n\n")
	b.WriteString("Goal: ")
	b.WriteString(goal)
	b.WriteString("\n\n")

	if profile != nil && profile.Confidence > 0 {
		fmt.Fprintf(&b, "The user's skill level is %.1f/10 and their ideal task difficulty is %.1f/10. ", profile.SkillLevel, profile.IdealDifficulty)
		b.WriteString("Aim most task difficulties near the ideal, with a few easier warm-up tasks.\n\n")
	}

	b.WriteString("Respond with JSON: {\"tasks\": [{\"title\": string, \"description\": string, ")
	b.WriteString("\"difficulty\": 1-10, \"estimated_minutes\": one of 15/30/45/60/90/120, \"priority\": 1-5}]}")
	return b.String()
}

func buildSummaryPrompt(plan *models.DailyPlan, profile *models.CalibrationProfile) string {
	var b strings.Builder
	taskCount := 0
	for _, block := range plan.Blocks {
		taskCount += len(block.Tasks)
	}
	fmt.Fprintf(&b, "Today's plan (%s) has %d focus blocks with %d tasks, starting at %s.\n",
		plan.Date, len(plan.Blocks), taskCount, plan.StartTime)

	for _, block := range plan.Blocks {
		fmt.Fprintf(&b, "Block %d (%s, %s-%s):", block.BlockNumber, block.BlockType, block.StartTime, block.EndTime)
		for _, st := range block.Tasks {
			fmt.Fprintf(&b, " %q (difficulty %d);", st.Task.Title, st.Task.Difficulty)
		}
		b.WriteString("\n")
	}

	if profile != nil && profile.CurrentStreak > 0 {
		fmt.Fprintf(&b, "The user is on a %d-day review streak.\n", profile.CurrentStreak)
	}

	b.WriteString("\nWrite a brief encouraging note about this plan.")
	return b.String()
}
