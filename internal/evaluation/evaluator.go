// Package evaluation measures how often the matcher picks the expected
// catalogue record for a set of sample questions.
package evaluation

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/legalease/backend/internal/legal"
	"github.com/legalease/backend/internal/storage"
	"github.com/legalease/backend/internal/storage/models"
	"github.com/legalease/backend/pkg/logger"
)

const (
	OutcomeCorrect = "correct"
	OutcomeWrong   = "wrong"
	OutcomeNoMatch = "no_match"
)

type Evaluator struct {
	store storage.Store
}

type EvaluationDataset struct {
	Items []DatasetItem `json:"items"`
}

// DatasetItem is one sample question. An empty ExpectedCategory means the
// question should not match any record.
type DatasetItem struct {
	Question         string `json:"question"`
	ExpectedCategory string `json:"expectedCategory"`
}

type ItemResult struct {
	Question        string
	Expected        string
	MatchedCategory string
	Score           int
	Outcome         string
}

type EvaluationReport struct {
	TotalQuestions    int
	CorrectCount      int
	WrongCount        int
	NoMatchCount      int
	AvgScore          float64
	CorrectPercentage float64
	Results           []ItemResult
}

func NewEvaluator(store storage.Store) *Evaluator {
	return &Evaluator{store: store}
}

// EvaluateQuestion matches one question against records. A miss counts as
// correct when no category was expected.
func EvaluateQuestion(item DatasetItem, records []models.LegalRecord) ItemResult {
	match := legal.Match(item.Question, records)

	result := ItemResult{
		Question: item.Question,
		Expected: item.ExpectedCategory,
		Score:    match.Score,
	}

	switch {
	case !match.Matched() && item.ExpectedCategory == "":
		result.Outcome = OutcomeCorrect
	case !match.Matched():
		result.Outcome = OutcomeNoMatch
	case strings.EqualFold(match.Record.Category, item.ExpectedCategory):
		result.MatchedCategory = match.Record.Category
		result.Outcome = OutcomeCorrect
	default:
		result.MatchedCategory = match.Record.Category
		result.Outcome = OutcomeWrong
	}
	return result
}

// RunDatasetEvaluation reads the catalogue once and scores every item
// against it.
func (e *Evaluator) RunDatasetEvaluation(ctx context.Context, dataset *EvaluationDataset) (*EvaluationReport, error) {
	logger.Info("Running dataset evaluation", zap.Int("items", len(dataset.Items)))

	docs, err := e.store.GetAll(ctx, storage.CollectionLegalDataset)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalogue: %w", err)
	}
	records := make([]models.LegalRecord, 0, len(docs))
	for _, doc := range docs {
		records = append(records, models.LegalRecordFromDocument(doc))
	}

	report := &EvaluationReport{
		TotalQuestions: len(dataset.Items),
	}

	var totalScore int
	for _, item := range dataset.Items {
		result := EvaluateQuestion(item, records)
		report.Results = append(report.Results, result)

		switch result.Outcome {
		case OutcomeCorrect:
			report.CorrectCount++
		case OutcomeWrong:
			report.WrongCount++
		case OutcomeNoMatch:
			report.NoMatchCount++
		}
		totalScore += result.Score
	}

	if report.TotalQuestions > 0 {
		report.AvgScore = float64(totalScore) / float64(report.TotalQuestions)
		report.CorrectPercentage = float64(report.CorrectCount) / float64(report.TotalQuestions) * 100
	}

	logger.Info("Dataset evaluation completed",
		zap.Int("total", report.TotalQuestions),
		zap.Int("correct", report.CorrectCount),
		zap.Int("wrong", report.WrongCount),
		zap.Int("no_match", report.NoMatchCount),
	)

	return report, nil
}

func LoadDataset(r io.Reader) (*EvaluationDataset, error) {
	var dataset EvaluationDataset
	if err := json.NewDecoder(r).Decode(&dataset); err != nil {
		return nil, fmt.Errorf("failed to unmarshal dataset: %w", err)
	}
	return &dataset, nil
}

func GenerateReport(report *EvaluationReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, `
Matcher Evaluation Report
=========================

Total Questions: %d

Outcomes:
- Correct: %d (%.1f%%)
- Wrong record: %d
- No match: %d

Average Score: %.2f
`,
		report.TotalQuestions,
		report.CorrectCount, report.CorrectPercentage,
		report.WrongCount,
		report.NoMatchCount,
		report.AvgScore,
	)

	misses := 0
	for _, r := range report.Results {
		if r.Outcome == OutcomeCorrect {
			continue
		}
		if misses == 0 {
			b.WriteString("\nMisses:\n")
		}
		misses++
		fmt.Fprintf(&b, "- %q expected %q, got %q (score %d)\n", r.Question, r.Expected, r.MatchedCategory, r.Score)
	}

	return b.String()
}
