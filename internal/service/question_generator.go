package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/raflytch/prepwise-server/internal/domain"
	"github.com/raflytch/prepwise-server/internal/metrics"
	"github.com/raflytch/prepwise-server/pkg/genai"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TextGenerator is the model call the question generator and answer evaluator make.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string, opts genai.GenerateOptions) (string, error)
}

const (
	generationMaxOutputTokens = 2000
	evaluationMaxOutputTokens = 500
	modelTemperature          = 0.8
)

const generateQuestionsPrompt = `Generate a total of "%d" "%s" "%s" interview questions on the topic "%s" in the "%s" industry.
The candidate is applying for the role of "%s" and the whole interview lasts "%d" minutes.

Make sure that:
- the set mixes open-ended and specific questions
- every question targets one skill or knowledge area relevant to the role
- every question is clear, concise and engaging
- every question suits a "%s" interview in the "%s" industry and the responsibilities of a "%s"

Output rules:
- write exactly one question per line
- no prefixes, no question numbers, no bullet points and no hyphens`

type questionGenerator struct {
	client TextGenerator
	logger *zap.Logger
}

func NewQuestionGenerator(client TextGenerator, logger *zap.Logger) domain.QuestionGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &questionGenerator{
		client: client,
		logger: logger,
	}
}

func (g *questionGenerator) Generate(ctx context.Context, params domain.GenerateQuestionsParams) ([]domain.Question, error) {
	if g.client == nil {
		return nil, domain.NewError(domain.KindUpstream, "AI client is not configured", nil)
	}

	prompt := buildQuestionsPrompt(params)

	start := time.Now()
	content, err := g.client.Generate(ctx, prompt, genai.GenerateOptions{
		MaxOutputTokens:     generationMaxOutputTokens,
		Temperature:         modelTemperature,
		BlockMediumAndAbove: true,
	})
	metrics.ObserveAICall(metrics.OpGenerateQuestions, start, err)
	if err != nil {
		if errors.Is(err, genai.ErrEmptyResponse) {
			return nil, domain.NewError(domain.KindGeneration, "model returned no questions", err)
		}
		g.logger.Error("question generation call failed", zap.Error(err))
		return nil, domain.NewError(domain.KindUpstream, "failed to generate questions", err)
	}

	questions := parseQuestions(content)
	if len(questions) == 0 {
		return nil, domain.NewError(domain.KindGeneration, "model returned no questions", nil)
	}

	if len(questions) != params.Count {
		g.logger.Warn("generated question count differs from requested",
			zap.Int("requested", params.Count),
			zap.Int("generated", len(questions)),
		)
	}

	return questions, nil
}

func buildQuestionsPrompt(p domain.GenerateQuestionsParams) string {
	return fmt.Sprintf(generateQuestionsPrompt,
		p.Count, p.Difficulty, p.Type, p.Topic, p.Industry,
		p.Role, p.DurationMinutes,
		p.Difficulty, p.Industry, p.Role,
	)
}

// parseQuestions turns every non-blank line of content into an unanswered question.
func parseQuestions(content string) []domain.Question {
	lines := strings.Split(strings.TrimSpace(content), "\n")
	questions := make([]domain.Question, 0, len(lines))
	for _, line := range lines {
		text := strings.TrimSpace(line)
		if text == "" {
			continue
		}
		questions = append(questions, domain.Question{
			ID:       uuid.New(),
			Question: text,
		})
	}
	return questions
}
