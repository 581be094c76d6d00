// Package reply decides how to answer a new mention and produces the final
// reply text. Three mutually exclusive strategies exist: redirect long
// threads elsewhere, ground the reply in a question's stance analysis, or
// fall back to the whole project's analysis report.
package reply

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"delib-reply-bot/internal/delib"
	"delib-reply-bot/internal/domain"
	"delib-reply-bot/internal/observability"

	"github.com/sashabaranov/go-openai"
)

const (
	strategyContinuation = "continuation"
	strategyStance       = "stance"
	strategyProject      = "project"
)

// neutralStance is the classification that never selects a question
const neutralStance = "neutral"

// ChatCompleter is the slice of the OpenAI-compatible client the generator
// needs; satisfied by *openai.Client
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// DeliberationAPI is the deliberation backend surface the generator uses;
// satisfied by *delib.Client
type DeliberationAPI interface {
	AddComment(ctx context.Context, projectID, content string) (*delib.CommentResponse, error)
	StanceReport(ctx context.Context, projectID, questionID string) (string, error)
	ProjectReport(ctx context.Context, projectID string) (json.RawMessage, error)
}

// Config holds generator settings
type Config struct {
	ProjectID             string
	BotUsername           string
	AnalyticsURL          string
	Model                 string
	ContinuationThreshold int
}

// Generator selects a reply strategy and produces the reply text
type Generator struct {
	llm   ChatCompleter
	delib DeliberationAPI
	cfg   Config
}

// NewGenerator creates a reply generator
func NewGenerator(llm ChatCompleter, delibAPI DeliberationAPI, cfg Config) *Generator {
	return &Generator{
		llm:   llm,
		delib: delibAPI,
		cfg:   cfg,
	}
}

// Generate produces the reply for text given its conversation history. An
// error means "do not reply"; the caller logs it and moves on.
//
// Strategy order is fixed: threads at or past the continuation threshold are
// always redirected, regardless of content, without contacting the
// deliberation backend. Otherwise the comment is submitted for stance
// classification, and the first non-neutral stance (comment order, then
// stance order, never confidence) grounds the reply in that question's
// stance-analysis report. With no comments or only neutral stances the reply
// is grounded in the whole project's analysis report instead.
func (g *Generator) Generate(ctx context.Context, text string, history []domain.Message) (string, error) {
	if len(history) >= g.cfg.ContinuationThreshold {
		observability.Info("conversation past continuation threshold",
			"history_len", len(history),
			"threshold", g.cfg.ContinuationThreshold)
		return g.continuation(ctx, history)
	}

	if g.cfg.ProjectID == "" {
		return "", domain.ErrNoProject
	}

	resp, err := g.delib.AddComment(ctx, g.cfg.ProjectID, commentContent(text, history))
	if err != nil {
		return "", fmt.Errorf("submit comment: %w", err)
	}

	if questionID, ok := firstNonNeutralQuestion(resp.Comments); ok {
		return g.stanceGrounded(ctx, text, history, questionID)
	}
	return g.projectGrounded(ctx, text, history)
}

// continuation generates a short redirect message seeded only by the conversation
func (g *Generator) continuation(ctx context.Context, history []domain.Message) (string, error) {
	reply, err := g.complete(ctx, continuationPrompt(len(history)), history, continuationUserTurn)
	if err != nil {
		return "", err
	}
	observability.RepliesGeneratedTotal.WithLabelValues(strategyContinuation).Inc()
	return reply, nil
}

func (g *Generator) stanceGrounded(ctx context.Context, text string, history []domain.Message, questionID string) (string, error) {
	observability.Info("comment matched a stance", "question_id", questionID)

	report, err := g.delib.StanceReport(ctx, g.cfg.ProjectID, questionID)
	if err != nil {
		return "", fmt.Errorf("fetch stance report: %w", err)
	}
	observability.Debug("stance report fetched",
		"question_id", questionID,
		"preview", observability.Preview(report, 100))

	reply, err := g.complete(ctx, stancePrompt(report), history, text)
	if err != nil {
		return "", err
	}
	observability.RepliesGeneratedTotal.WithLabelValues(strategyStance).Inc()
	return reply, nil
}

func (g *Generator) projectGrounded(ctx context.Context, text string, history []domain.Message) (string, error) {
	observability.Info("no non-neutral stance matched, using project report")

	report, err := g.delib.ProjectReport(ctx, g.cfg.ProjectID)
	if err != nil {
		return "", fmt.Errorf("fetch project report: %w", err)
	}

	reply, err := g.complete(ctx, projectPrompt(string(report)), history, text)
	if err != nil {
		return "", err
	}
	observability.RepliesGeneratedTotal.WithLabelValues(strategyProject).Inc()
	return reply, nil
}

// complete runs one chat completion: system prompt, history as role-tagged
// turns, then the final user turn. Generated question:// links are rewritten
// to the analytics URL.
func (g *Generator) complete(ctx context.Context, systemPrompt string, history []domain.Message, finalUserTurn string) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: systemPrompt,
	})

	for _, m := range history {
		role := openai.ChatMessageRoleUser
		if m.Username == g.cfg.BotUsername {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    role,
			Content: m.Text,
		})
	}

	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: finalUserTurn,
	})

	resp, err := g.llm.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    g.cfg.Model,
		Messages: messages,
	})
	if err != nil {
		observability.CollaboratorErrorsTotal.WithLabelValues("llm").Inc()
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		observability.CollaboratorErrorsTotal.WithLabelValues("llm").Inc()
		return "", fmt.Errorf("chat completion returned no choices")
	}

	reply := ConvertQuestionURLs(resp.Choices[0].Message.Content, g.cfg.AnalyticsURL)
	observability.Info("reply generated", "preview", observability.Preview(reply, 100))
	return reply, nil
}

// firstNonNeutralQuestion scans comments in order, stances in order, and
// returns the question of the first non-neutral stance. First match wins,
// not highest confidence.
func firstNonNeutralQuestion(comments []delib.Comment) (string, bool) {
	for _, comment := range comments {
		for _, stance := range comment.Stances {
			if stance.StanceID != neutralStance {
				return stance.QuestionID, true
			}
		}
	}
	return "", false
}

// commentContent renders the text submitted to the deliberation backend,
// prefixing the conversation when there is one
func commentContent(text string, history []domain.Message) string {
	if len(history) == 0 {
		return text
	}

	var b strings.Builder
	b.WriteString("Previous conversation:\n")
	for _, m := range history {
		fmt.Fprintf(&b, "%s: %s\n", m.Username, m.Text)
	}
	b.WriteString("\n\nUser's new message: ")
	b.WriteString(text)
	return b.String()
}
