// Package bias predicts the direction of confirmation bias when an article is
// chosen and scores how well the participant's later rating matched it.
package bias

import (
	"fmt"
	"math"

	"github.com/Kimleng-THAI/ConfirmationBiasDesignExperiment/internal/models"
)

// QuickDismissalSeconds is the reading time under which an unchanged rating
// counts as dismissal of the article.
const QuickDismissalSeconds = 10.0

// Expected evaluates the stage A decision table. Article type takes
// precedence; unmatched combinations are neutral.
func Expected(articleType models.ArticleType, rating int) models.ExpectedResponse {
	switch {
	case articleType == models.ArticleConfirmatory && rating >= 4:
		return models.ExpectedConfirmation
	case articleType == models.ArticleDisconfirmatory && rating <= 2:
		return models.ExpectedConfirmation
	case articleType == models.ArticleConfirmatory && rating <= 2:
		return models.ExpectedDisconfirmation
	case articleType == models.ArticleDisconfirmatory && rating >= 4:
		return models.ExpectedDisconfirmation
	default:
		return models.ExpectedNeutral
	}
}

// Strength is |rating-3|/2: 0 for a neutral prior, 1 for the extremes.
func Strength(rating int) float64 {
	return math.Abs(float64(rating-3)) / 2
}

// Rationale explains the stage A prediction.
func Rationale(articleType models.ArticleType, rating int) string {
	switch {
	case articleType == models.ArticleConfirmatory && rating >= 4:
		return fmt.Sprintf("Confirmatory article with prior agreement (rating=%d)", rating)
	case articleType == models.ArticleDisconfirmatory && rating <= 2:
		return fmt.Sprintf("Disconfirmatory article with prior disagreement (rating=%d)", rating)
	case articleType == models.ArticleConfirmatory && rating <= 2:
		return fmt.Sprintf("Confirmatory article with prior disagreement (rating=%d)", rating)
	case articleType == models.ArticleDisconfirmatory && rating >= 4:
		return fmt.Sprintf("Disconfirmatory article with prior agreement (rating=%d)", rating)
	case articleType == models.ArticleNeutral:
		return "Neutral article type"
	default:
		return fmt.Sprintf("Neutral prior stance (rating=%d)", rating)
	}
}

// Actual evaluates the stage B decision table.
func Actual(articleType models.ArticleType, phase1, phase2 int, readingTime float64) models.ActualResponse {
	switch articleType {
	case models.ArticleConfirmatory:
		if phase2 >= 4 && phase1 >= 4 {
			return models.ActualConfirmation
		}
		if phase2 <= 2 && phase1 >= 4 {
			return models.ActualDisconfirmation
		}
	case models.ArticleDisconfirmatory:
		if phase2 <= 2 && phase1 <= 2 {
			return models.ActualConfirmation
		}
		if phase2 >= 4 && phase1 <= 2 {
			return models.ActualDisconfirmation
		}
	}

	shift := phase2 - phase1
	if readingTime < QuickDismissalSeconds && math.Abs(float64(shift)) < 1 {
		return models.ActualConfirmation
	}
	return models.ActualNeutral
}

// Compare classifies the actual category against the expected one.
func Compare(expected models.ExpectedResponse, actual models.ActualResponse) models.Alignment {
	switch {
	case expected == models.ExpectedConfirmation && actual == models.ActualConfirmation,
		expected == models.ExpectedDisconfirmation && actual == models.ActualDisconfirmation,
		expected == models.ExpectedNeutral && actual == models.ActualNeutral:
		return models.Aligned
	}

	switch actual {
	case models.ActualConfirmation:
		return models.UnexpectedConfirmation
	case models.ActualDisconfirmation:
		return models.UnexpectedDisconfirmation
	default:
		return models.UnexpectedNeutral
	}
}

// Surprise is 0 when aligned, 1 for a confirmation/disconfirmation flip and
// 0.5 for any other misalignment.
func Surprise(expected models.ExpectedResponse, alignment models.Alignment) float64 {
	switch {
	case alignment == models.Aligned:
		return 0
	case alignment == models.UnexpectedConfirmation && expected == models.ExpectedDisconfirmation:
		return 1
	case alignment == models.UnexpectedDisconfirmation && expected == models.ExpectedConfirmation:
		return 1
	default:
		return 0.5
	}
}
