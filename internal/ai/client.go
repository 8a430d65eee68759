package ai

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/big-blue22/keizibann/internal/logger"
	"github.com/big-blue22/keizibann/internal/metrics"
	"github.com/big-blue22/keizibann/internal/telemetry"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

var (
	ErrNotConfigured = errors.New("generative AI is not configured")
	ErrEmptyInput    = errors.New("nothing to analyze")
	ErrBadResponse   = errors.New("model returned an unusable response")
)

// DefaultModels are tried in order; later models are used when earlier ones are exhausted
var DefaultModels = []string{"gemini-2.5-flash", "gemini-2.5-flash-lite"}

const requestTimeout = 20 * time.Second

// generator is the single call the client needs from a model backend
type generator interface {
	Generate(ctx context.Context, model, prompt string) (string, error)
}

type genaiGenerator struct {
	client *genai.Client
}

func (g *genaiGenerator) Generate(ctx context.Context, model, prompt string) (string, error) {
	result, err := g.client.Models.GenerateContent(ctx, model, genai.Text(prompt), nil)
	if err != nil {
		return "", err
	}
	if result == nil || len(result.Candidates) == 0 || result.Candidates[0].Content == nil ||
		len(result.Candidates[0].Content.Parts) == 0 {
		return "", ErrBadResponse
	}
	return result.Candidates[0].Content.Parts[0].Text, nil
}

// Client extracts AI model names from post text and rewrites drafts.
// A nil *Client is valid and reports ErrNotConfigured.
type Client struct {
	gen    generator
	models []string
}

// NewClient returns nil (and no error) when apiKey is empty so callers can run without AI
func NewClient(ctx context.Context, apiKey string) (*Client, error) {
	if apiKey == "" {
		return nil, nil
	}
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return newClient(&genaiGenerator{client: gc}), nil
}

func newClient(gen generator) *Client {
	return &Client{gen: gen, models: DefaultModels}
}

// Enabled reports whether calls can reach a model
func (c *Client) Enabled() bool {
	return c != nil && c.gen != nil
}

const labelsPrompt = `あなたは、テキストからAIモデルの名前を特定する専門家です。以下のコンテンツを分析し、言及されている具体的なAIモデル名（例: "GPT-4", "Claude 3", "Gemini 1.5 Pro"）のみを抽出してください。該当するモデル名がない場合は、空の配列 [] を返してください。結果は必ず日本語のJSON配列形式で、モデル名のみを格納して返してください。

分析するコンテンツ：
---
%s
---

抽出したAIモデル名 (JSON配列形式)：`

const refinePrompt = `あなたはプロの編集者です。以下の日本語のテキストを、主要な意味を保持しつつ、簡潔で分かりやすい文章に推敲してください。マークダウン等は不要で、テキストのみ返してください。

原文：
---
%s
---

推敲後の内容：`

// ExtractLabels returns the AI model names mentioned in content, deduplicated in order
func (c *Client) ExtractLabels(ctx context.Context, content string) ([]string, error) {
	if !c.Enabled() {
		return nil, ErrNotConfigured
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyInput
	}

	text, err := c.generate(ctx, "labels", fmt.Sprintf(labelsPrompt, content))
	if err != nil {
		return nil, err
	}

	var raw []string
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal([]byte(cleanJSON(text)), &raw); err != nil {
		logger.WarnWithFields("Unparsable label response", err, zap.String("response", text))
		return nil, fmt.Errorf("%w: %v", ErrBadResponse, err)
	}

	labels := make([]string, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for _, l := range raw {
		l = strings.TrimSpace(l)
		if l == "" || seen[l] {
			continue
		}
		seen[l] = true
		labels = append(labels, l)
	}
	return labels, nil
}

// RefineContent rewrites a draft into a shorter, clearer summary
func (c *Client) RefineContent(ctx context.Context, original string) (string, error) {
	if !c.Enabled() {
		return "", ErrNotConfigured
	}
	original = strings.TrimSpace(original)
	if original == "" {
		return "", ErrEmptyInput
	}

	text, err := c.generate(ctx, "refine", fmt.Sprintf(refinePrompt, original))
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrBadResponse
	}
	return text, nil
}

// generate walks the model list, moving on only when a model is rate limited or missing
func (c *Client) generate(ctx context.Context, op, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	start := time.Now()
	defer func() {
		metrics.Get().AIRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}()

	var lastErr error
	for _, model := range c.models {
		callCtx, span := telemetry.TraceExternalCall(ctx, telemetry.ExternalServiceCallAttrs{
			Service:   "gemini",
			Operation: op,
			Model:     model,
		})
		text, err := c.gen.Generate(callCtx, model, prompt)
		telemetry.EndExternalCall(span, err)
		if err == nil {
			metrics.Get().AIRequestsTotal.WithLabelValues(op, "success").Inc()
			return text, nil
		}
		lastErr = err
		if !retryable(err) {
			break
		}
		logger.Log.Warn("Model unavailable, trying next",
			zap.String("model", model),
			zap.String("operation", op),
			zap.Error(err),
		)
	}

	metrics.Get().AIRequestsTotal.WithLabelValues(op, "error").Inc()
	return "", fmt.Errorf("%s: all models failed: %w", op, lastErr)
}

func retryable(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, s := range []string{"429", "rate limit", "exhausted", "404", "not found", "overloaded", "503"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

var fence = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

// cleanJSON pulls the payload out of a fenced code block if the model wrapped one
func cleanJSON(input string) string {
	input = strings.TrimSpace(input)
	if m := fence.FindStringSubmatch(input); m != nil {
		return strings.TrimSpace(m[1])
	}
	return input
}
