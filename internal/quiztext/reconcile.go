package quiztext

import (
	"strings"

	"quizbot/internal/domain"
)

// correctAnswerMarker is the literal the evaluation model is prompted to emit
// once per question.
const correctAnswerMarker = "Correct Answer:"

// ExtractCorrectAnswers scans evaluation text line by line and collects the
// single-character answer labels the model asserts. Keys are the 0-based
// index of the line within the evaluation text, not the question number
// written on the line — a positional coupling kept for compatibility with the
// evaluation prompt format (see the test flagging this fragility). Malformed
// lines are skipped without aborting the scan.
func ExtractCorrectAnswers(evaluationText string) map[int]string {
	answers := make(map[int]string)

	for idx, line := range strings.Split(evaluationText, "\n") {
		if !strings.Contains(line, correctAnswerMarker) {
			continue
		}

		after := line[strings.Index(line, correctAnswerMarker)+len(correctAnswerMarker):]
		first := strings.SplitN(after, ",", 2)[0]
		first = strings.ReplaceAll(first, "[", "")
		first = strings.ReplaceAll(first, "]", "")
		first = strings.TrimSpace(first)
		if first == "" {
			continue
		}

		switch first[0] {
		case 'A', 'B', 'C', 'D', 'T', 'F':
			answers[idx] = string(first[0])
		}
	}

	return answers
}

// ExtractExplanations collects the explanation fragments of the same lines,
// keyed the same positional way.
func ExtractExplanations(evaluationText string) map[int]string {
	const marker = "Explanation:"
	explanations := make(map[int]string)

	for idx, line := range strings.Split(evaluationText, "\n") {
		if !strings.Contains(line, correctAnswerMarker) {
			continue
		}
		if pos := strings.Index(line, marker); pos >= 0 {
			if text := strings.TrimSpace(line[pos+len(marker):]); text != "" {
				explanations[idx] = text
			}
		}
	}

	return explanations
}

// ScoreAnswers reconciles user answers with correct answers over the given
// questions. A missing user answer defaults to the NoAnswer sentinel and a
// missing correct answer to UnknownAnswer; a question counts as correct iff
// the two strings are exactly equal. Percentage is 0 when there are no
// questions.
func ScoreAnswers(questions []domain.Question, userAnswers map[int]string, correctAnswers map[int]string) domain.ScoreResult {
	correct := 0
	for i := range questions {
		user, ok := userAnswers[i]
		if !ok {
			user = domain.NoAnswer
		}
		want, ok := correctAnswers[i]
		if !ok {
			want = domain.UnknownAnswer
		}
		if user == want {
			correct++
		}
	}
	return domain.NewScoreResult(correct, len(questions))
}
