package handlers

import (
	"math"

	"github.com/nmwangui/testprep/models"
)

// gradeAnswers marks every question against the submitted answer map (keyed by
// question ID). A question with no submitted answer is graded against the empty
// string; a question with no stored correct answer is never counted as correct.
// Returns the updated questions and the number of correct answers.
func gradeAnswers(questions []models.Question, answers map[string]string) ([]models.Question, int) {
	correctCount := 0
	for i := range questions {
		submitted := answers[questions[i].ID.String()]
		isCorrect := questions[i].CorrectAnswer != nil && *questions[i].CorrectAnswer == submitted

		userAnswer := submitted
		questions[i].UserAnswer = &userAnswer
		questions[i].IsCorrect = &isCorrect

		if isCorrect {
			correctCount++
		}
	}
	return questions, correctCount
}

// computeScore returns the percentage score rounded to the nearest integer.
// An empty test scores 0.
func computeScore(correctCount, totalQuestions int) int {
	if totalQuestions == 0 {
		return 0
	}
	return int(math.Round(float64(correctCount) / float64(totalQuestions) * 100))
}
