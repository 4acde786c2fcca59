package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/raflytch/prepwise-server/internal/domain"
	"github.com/raflytch/prepwise-server/internal/metrics"
	"github.com/raflytch/prepwise-server/pkg/genai"

	"go.uber.org/zap"
)

const evaluateAnswerPrompt = `Evaluate the answer below against the question using the criteria that follow, then give the scores and one line of suggestions.

Criteria:
1. Overall score: overall quality of the answer, out of 10.
2. Relevance score: how closely the answer addresses the question, out of 10.
3. Clarity score: how clear and easy to follow the explanation is, out of 10.
4. Completeness score: how fully the answer covers the question, out of 10.
5. Suggestions: improvements to the answer, as plain text on a single line.

Question: %s
Answer: %s

Reply in exactly this format and nothing else:
Overall score=X, Relevance score=Y, Clarity score=Z, Completeness score=W, Suggestions=Your suggestion here`

const maxScore = 10

var (
	overallScorePattern      = regexp.MustCompile(`(?i)Overall\s*score\s*=\s*(\d+)`)
	relevanceScorePattern    = regexp.MustCompile(`(?i)Relevance\s*score\s*=\s*(\d+)`)
	clarityScorePattern      = regexp.MustCompile(`(?i)Clarity\s*score\s*=\s*(\d+)`)
	completenessScorePattern = regexp.MustCompile(`(?i)Completeness\s*score\s*=\s*(\d+)`)
	suggestionsPattern       = regexp.MustCompile(`(?i)Suggestions\s*=\s*(.*)`)
)

type answerEvaluator struct {
	client TextGenerator
	logger *zap.Logger
}

func NewAnswerEvaluator(client TextGenerator, logger *zap.Logger) domain.AnswerEvaluator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &answerEvaluator{
		client: client,
		logger: logger,
	}
}

func (e *answerEvaluator) Evaluate(ctx context.Context, question, answer string) (*domain.Result, error) {
	if IsPassAnswer(answer) {
		return &domain.Result{Suggestion: domain.DefaultSuggestion}, nil
	}

	if e.client == nil {
		return nil, domain.NewError(domain.KindUpstream, "AI client is not configured", nil)
	}

	start := time.Now()
	content, err := e.client.Generate(ctx, fmt.Sprintf(evaluateAnswerPrompt, question, answer), genai.GenerateOptions{
		MaxOutputTokens:     evaluationMaxOutputTokens,
		Temperature:         modelTemperature,
		BlockMediumAndAbove: true,
	})
	metrics.ObserveAICall(metrics.OpEvaluateAnswer, start, err)
	if err != nil {
		if errors.Is(err, genai.ErrEmptyResponse) {
			return nil, domain.NewError(domain.KindEvaluation, "model returned an empty evaluation", err)
		}
		e.logger.Error("answer evaluation call failed", zap.Error(err))
		return nil, domain.NewError(domain.KindUpstream, "failed to evaluate answer", err)
	}
	if strings.TrimSpace(content) == "" {
		return nil, domain.NewError(domain.KindEvaluation, "model returned an empty evaluation", nil)
	}

	return parseEvaluation(content), nil
}

// IsPassAnswer reports whether answer is the skip sentinel.
func IsPassAnswer(answer string) bool {
	return strings.EqualFold(strings.TrimSpace(answer), domain.PassAnswer)
}

// parseEvaluation extracts each field independently. A missing score is 0 and
// a missing suggestion is empty.
func parseEvaluation(content string) *domain.Result {
	suggestion := ""
	if m := suggestionsPattern.FindStringSubmatch(content); m != nil {
		suggestion = strings.TrimSpace(m[1])
	}

	return &domain.Result{
		OverallScore: extractScore(overallScorePattern, content),
		Relevance:    extractScore(relevanceScorePattern, content),
		Clarity:      extractScore(clarityScorePattern, content),
		Completeness: extractScore(completenessScorePattern, content),
		Suggestion:   suggestion,
	}
}

func extractScore(pattern *regexp.Regexp, content string) int {
	m := pattern.FindStringSubmatch(content)
	if m == nil {
		return 0
	}
	score, err := strconv.Atoi(m[1])
	if err != nil || score > maxScore {
		return maxScore
	}
	return score
}
