package bias

import (
	"fmt"

	"github.com/Kimleng-THAI/ConfirmationBiasDesignExperiment/internal/models"
)

// Report aggregates the events of the session.
func (c *Classifier) Report() models.ValidationReport {
	return BuildReport(c.Events())
}

// BuildReport counts alignment categories over completed events, averages
// their surprise scores and lists misalignment clusters.
func BuildReport(events []models.BiasExpectationEvent) models.ValidationReport {
	report := models.ValidationReport{
		TotalEvents:         len(events),
		CommonMisalignments: []string{},
	}

	var surpriseSum float64
	var failedConfirmatory, unexpectedConfirmation int
	for _, e := range events {
		if !e.Completed() {
			report.PendingCount++
			continue
		}
		report.CompletedEvents++
		surpriseSum += e.SurpriseScore

		switch e.Alignment {
		case models.Aligned:
			report.AlignedCount++
			continue
		case models.UnexpectedConfirmation:
			report.UnexpectedConfirmationCount++
		case models.UnexpectedDisconfirmation:
			report.UnexpectedDisconfirmationCount++
		case models.UnexpectedNeutral:
			report.UnexpectedNeutralCount++
		}

		if e.ExpectedResponse == models.ExpectedConfirmation && e.ActualResponse != models.ActualConfirmation {
			failedConfirmatory++
		}
		if e.ExpectedResponse == models.ExpectedNeutral && e.ActualResponse == models.ActualConfirmation {
			unexpectedConfirmation++
		}
	}

	if report.CompletedEvents > 0 {
		report.AverageSurpriseScore = surpriseSum / float64(report.CompletedEvents)
		report.FrameworkAccuracy = float64(report.AlignedCount) / float64(report.CompletedEvents)
	}

	if failedConfirmatory > PatternThreshold {
		report.CommonMisalignments = append(report.CommonMisalignments,
			fmt.Sprintf("Confirmatory articles failed to induce expected bias in %d cases", failedConfirmatory))
	}
	if unexpectedConfirmation > PatternThreshold {
		report.CommonMisalignments = append(report.CommonMisalignments,
			fmt.Sprintf("Neutral articles unexpectedly induced confirmation bias in %d cases", unexpectedConfirmation))
	}
	return report
}
