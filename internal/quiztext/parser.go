// Package quiztext converts the language model's free-text quiz output into
// structured questions and reconciles user answers against the model's
// asserted correct answers. Parsing is heuristic and best-effort: malformed
// lines are skipped, never reported as errors.
package quiztext

import (
	"strings"

	"quizbot/internal/domain"
)

// isQuestionStart reports whether a line opens a new question: either it
// begins with the literal word "Question", or its first character is a digit
// and a '.' appears within the first three characters ("1.", "12.").
func isQuestionStart(line string) bool {
	if strings.HasPrefix(line, "Question") {
		return true
	}
	if line == "" || line[0] < '0' || line[0] > '9' {
		return false
	}
	end := 3
	if len(line) < end {
		end = len(line)
	}
	return strings.Contains(line[:end], ".")
}

// questionText returns the text after the first ':' when one exists,
// otherwise the whole line.
func questionText(line string) string {
	if idx := strings.Index(line, ":"); idx >= 0 {
		return strings.TrimSpace(line[idx+1:])
	}
	return line
}

// isOptionLine reports whether a line carries an MCQ option: first character
// one of A-D, second character ')' or '.'.
func isOptionLine(line string) bool {
	if len(line) < 2 {
		return false
	}
	switch line[0] {
	case 'A', 'B', 'C', 'D':
	default:
		return false
	}
	return line[1] == ')' || line[1] == '.'
}

// ParseMCQ scans quiz text line by line and returns the multiple-choice
// questions it contains. Questions that end up with zero options are silently
// dropped, so the result may be shorter than the requested question count;
// callers must treat that as expected. Repeated option letters are all kept
// in input order.
func ParseMCQ(text string) []domain.Question {
	var questions []domain.Question
	var current *domain.Question

	finalize := func() {
		if current != nil && len(current.Options) > 0 {
			current.Index = len(questions)
			questions = append(questions, *current)
		}
		current = nil
	}

	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if isQuestionStart(line) {
			finalize()
			current = &domain.Question{Text: questionText(line)}
			continue
		}

		if current != nil && isOptionLine(line) {
			current.Options = append(current.Options, domain.Option{
				Kind:  domain.OptionKindMCQ,
				Label: string(line[0]),
				Text:  strings.TrimSpace(line[2:]),
			})
		}
	}
	finalize()

	return questions
}

// ParseTF scans quiz text and returns one true/false question per detected
// question line. Every question unconditionally carries the fixed True/False
// option pair. A leading bare "<digit>." numbering prefix that the colon
// split missed is stripped from the question text.
func ParseTF(text string) []domain.Question {
	var questions []domain.Question

	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if !isQuestionStart(line) {
			continue
		}

		qText := questionText(line)
		if qText != "" && qText[0] >= '0' && qText[0] <= '9' {
			if idx := strings.Index(qText, "."); idx >= 0 {
				qText = strings.TrimSpace(qText[idx+1:])
			}
		}

		questions = append(questions, domain.Question{
			Index:   len(questions),
			Text:    qText,
			Options: domain.TrueFalseOptions(),
		})
	}

	return questions
}
