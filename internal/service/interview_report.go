package service

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/raflytch/prepwise-server/internal/domain"

	"github.com/go-pdf/fpdf"
)

// renderInterviewReport lays out the interview header followed by every
// question with its answer, scores and suggestion.
func renderInterviewReport(interview *domain.Interview) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 8, tr(fmt.Sprintf("%s Interview Report", interview.Role)))
	pdf.Ln(9)

	pdf.SetFont("Helvetica", "", 9)
	pdf.Cell(0, 5, tr(fmt.Sprintf("%s  |  %s  |  %s  |  %s",
		interview.Industry, interview.Topic, interview.Type, interview.Difficulty)))
	pdf.Ln(5)
	pdf.Cell(0, 5, fmt.Sprintf("Created %s  |  Status %s  |  Answered %d of %d  |  Time used %s of %s",
		interview.CreatedAt.UTC().Format("2006-01-02 15:04"),
		interview.Status,
		interview.Answered,
		len(interview.Questions),
		formatSeconds(interview.Duration-interview.DurationLeft),
		formatSeconds(interview.Duration),
	))
	pdf.Ln(5)

	overall, scored := averageOverallScore(interview.Questions)
	if scored > 0 {
		pdf.Cell(0, 5, fmt.Sprintf("Average overall score %.1f / 10 across %d scored questions", overall, scored))
		pdf.Ln(5)
	}
	pdf.Ln(4)

	addReportSection(pdf, "QUESTIONS")
	for i, q := range interview.Questions {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.MultiCell(0, 5, tr(fmt.Sprintf("%d. %s", i+1, q.Question)), "", "", false)
		pdf.Ln(1)

		pdf.SetFont("Helvetica", "I", 9)
		answer := "Not answered"
		if q.Answer != nil {
			answer = *q.Answer
		}
		pdf.MultiCell(0, 4, tr(answer), "", "", false)
		pdf.Ln(1)

		if q.Completed {
			pdf.SetFont("Helvetica", "", 9)
			pdf.Cell(0, 4, fmt.Sprintf("Overall %d  |  Relevance %d  |  Clarity %d  |  Completeness %d",
				q.Result.OverallScore, q.Result.Relevance, q.Result.Clarity, q.Result.Completeness))
			pdf.Ln(5)
			if s := strings.TrimSpace(q.Result.Suggestion); s != "" {
				pdf.CellFormat(5, 4, "-", "", 0, "", false, 0, "")
				pdf.MultiCell(0, 4, tr(s), "", "", false)
			}
		}
		pdf.Ln(3)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func addReportSection(pdf *fpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 10)
	pdf.Cell(0, 6, title)
	pdf.Ln(6)
	pdf.SetDrawColor(100, 100, 100)
	pdf.Line(15, pdf.GetY(), 195, pdf.GetY())
	pdf.Ln(3)
}

func averageOverallScore(questions []domain.Question) (float64, int) {
	total, scored := 0, 0
	for _, q := range questions {
		if !q.Completed || q.Answer == nil || IsPassAnswer(*q.Answer) {
			continue
		}
		total += q.Result.OverallScore
		scored++
	}
	if scored == 0 {
		return 0, 0
	}
	return float64(total) / float64(scored), scored
}

func formatSeconds(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%dm%02ds", seconds/60, seconds%60)
}
