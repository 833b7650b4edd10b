package dto

import "quizbot/internal/domain"

// GenerateQuizRequest is the body of POST /api/quiz.
type GenerateQuizRequest struct {
	Type         string `json:"type"`
	Topic        string `json:"topic"`
	NumQuestions int    `json:"num_questions"`
}

// RecordAnswerRequest is the body of PUT /api/quiz/:id/answers.
type RecordAnswerRequest struct {
	Index int    `json:"index"`
	Label string `json:"label"`
}

// OptionView is one selectable option, annotated after evaluation with a
// display state: "correct", "wrong" (the user's incorrect pick) or "neutral".
type OptionView struct {
	Label string `json:"label"`
	Text  string `json:"text"`
	State string `json:"state,omitempty"`
}

// QuestionView is one question of a session view.
type QuestionView struct {
	Index       int          `json:"index"`
	Text        string       `json:"text"`
	Options     []OptionView `json:"options"`
	UserAnswer  string       `json:"user_answer,omitempty"`
	Correct     string       `json:"correct_answer,omitempty"`
	Explanation string       `json:"explanation,omitempty"`
}

// QuizSessionResponse is the session view returned by the quiz endpoints.
// Correct answers and explanations are only present once evaluated.
type QuizSessionResponse struct {
	ID        string              `json:"id"`
	Type      string              `json:"type"`
	Phase     string              `json:"phase"`
	Topic     string              `json:"topic"`
	Questions []QuestionView      `json:"questions"`
	Score     *domain.ScoreResult `json:"score,omitempty"`
}

// AskRequest is the body of POST /api/ask and POST /api/code/ask.
type AskRequest struct {
	Question string `json:"question"`
}

// AskResponse is the answer to an open-ended question.
type AskResponse struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// RankedFileView reports one relevant code file with its relevance score.
type RankedFileView struct {
	Path  string  `json:"path"`
	Score float64 `json:"score"`
}

// CodeAskResponse is the code assistant's answer plus the files it used.
type CodeAskResponse struct {
	Question      string           `json:"question"`
	Answer        string           `json:"answer"`
	RelevantFiles []RankedFileView `json:"relevant_files"`
}

// TopicsResponse lists the quiz topic catalogue.
type TopicsResponse struct {
	Topics []string `json:"topics"`
}

// ErrorResponse is the generic error body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// NewQuizSessionResponse converts a domain session into its API view,
// computing per-option display states once the session is evaluated.
func NewQuizSessionResponse(s *domain.QuizSession) QuizSessionResponse {
	questions := make([]QuestionView, 0, len(s.Questions))
	for _, q := range s.Questions {
		view := QuestionView{
			Index:      q.Index,
			Text:       q.Text,
			UserAnswer: s.Answers[q.Index],
		}
		if s.Phase == domain.PhaseEvaluated {
			view.Correct = s.CorrectAnswers[q.Index]
			view.Explanation = s.Explanations[q.Index]
		}
		for _, opt := range q.Options {
			optView := OptionView{Label: opt.Label, Text: opt.Text}
			if s.Phase == domain.PhaseEvaluated {
				optView.State = optionState(opt.Label, s.Answers[q.Index], s.CorrectAnswers[q.Index])
			}
			view.Options = append(view.Options, optView)
		}
		questions = append(questions, view)
	}

	return QuizSessionResponse{
		ID:        s.ID,
		Type:      string(s.Type),
		Phase:     string(s.Phase),
		Topic:     s.Topic,
		Questions: questions,
		Score:     s.Score,
	}
}

func optionState(label, userAnswer, correctAnswer string) string {
	switch label {
	case correctAnswer:
		return "correct"
	case userAnswer:
		return "wrong"
	default:
		return "neutral"
	}
}
