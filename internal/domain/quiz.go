package domain

import (
	"fmt"
	"time"
)

// QuizType distinguishes multiple-choice quizzes from true/false quizzes.
type QuizType string

const (
	QuizTypeMCQ QuizType = "mcq"
	QuizTypeTF  QuizType = "tf"
)

// OptionKind tags the shape of a question option.
type OptionKind string

const (
	OptionKindMCQ OptionKind = "mcq"
	OptionKindTF  OptionKind = "tf"
)

// Option is one selectable answer of a question.
// MCQ options carry a letter label A-D and free text; TF options are the
// fixed pair True/True and False/False.
type Option struct {
	Kind  OptionKind `json:"kind"`
	Label string     `json:"label"`
	Text  string     `json:"text"`
}

// TrueFalseOptions returns the fixed option pair used by every TF question.
func TrueFalseOptions() []Option {
	return []Option{
		{Kind: OptionKindTF, Label: "True", Text: "True"},
		{Kind: OptionKindTF, Label: "False", Text: "False"},
	}
}

// Question is one parsed quiz question. Index is its stable 0-based position
// within the quiz. Immutable after parsing.
type Question struct {
	Index   int      `json:"index"`
	Text    string   `json:"text"`
	Options []Option `json:"options"`
}

// HasOption reports whether label names one of the question's options.
func (q *Question) HasOption(label string) bool {
	for _, opt := range q.Options {
		if opt.Label == label {
			return true
		}
	}
	return false
}

// Validate checks the kind-specific option shape: exactly 4 lettered options
// for MCQ, exactly the fixed True/False pair for TF.
func (q *Question) Validate(quizType QuizType) error {
	switch quizType {
	case QuizTypeMCQ:
		if len(q.Options) != 4 {
			return NewInvalidInputError(fmt.Sprintf("MCQ question %d must have 4 options, got %d", q.Index, len(q.Options)))
		}
		for _, opt := range q.Options {
			if opt.Kind != OptionKindMCQ {
				return NewInvalidInputError(fmt.Sprintf("MCQ question %d has option of kind %s", q.Index, opt.Kind))
			}
		}
	case QuizTypeTF:
		fixed := TrueFalseOptions()
		if len(q.Options) != len(fixed) {
			return NewInvalidInputError(fmt.Sprintf("TF question %d must have exactly 2 options", q.Index))
		}
		for i, opt := range q.Options {
			if opt != fixed[i] {
				return NewInvalidInputError(fmt.Sprintf("TF question %d has non-fixed option %q", q.Index, opt.Label))
			}
		}
	default:
		return NewInvalidInputError(fmt.Sprintf("unknown quiz type: %s", quizType))
	}
	return nil
}

// ScoreResult is the outcome of reconciling user answers against the
// model-asserted correct answers.
type ScoreResult struct {
	Correct    int     `json:"correct"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
}

// NewScoreResult computes the percentage, guarding the zero-total case.
func NewScoreResult(correct, total int) ScoreResult {
	r := ScoreResult{Correct: correct, Total: total}
	if total > 0 {
		r.Percentage = float64(correct) / float64(total) * 100
	}
	return r
}

// Phase is the lifecycle state of a quiz session.
type Phase string

const (
	PhaseUnstarted Phase = "unstarted"
	PhaseGenerated Phase = "generated"
	PhaseSubmitted Phase = "submitted"
	PhaseEvaluated Phase = "evaluated"
)

// NoAnswer is the sentinel recorded for questions the user left unanswered.
const NoAnswer = "No answer"

// UnknownAnswer is the sentinel used when the evaluation text yielded no
// correct answer for a question.
const UnknownAnswer = "?"

// QuizSession is one quiz instance threaded through every handler as an
// explicit value. Its phase transitions are:
//
//	Unstarted -> Generated -> Submitted -> Evaluated (terminal)
//
// Evaluated sessions never change; regeneration means a brand-new session.
type QuizSession struct {
	ID             string            `json:"id"`
	Type           QuizType          `json:"type"`
	Phase          Phase             `json:"phase"`
	Topic          string            `json:"topic"`
	Questions      []Question        `json:"questions"`
	Answers        map[int]string    `json:"answers"`
	CorrectAnswers map[int]string    `json:"correct_answers"`
	Explanations   map[int]string    `json:"explanations"`
	Context        string            `json:"context"`
	RawQuizText    string            `json:"raw_quiz_text"`
	Score          *ScoreResult      `json:"score,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
}

// NewQuizSession creates a session in the Generated phase from parsed questions.
func NewQuizSession(id string, quizType QuizType, topic string, questions []Question, context, rawText string) *QuizSession {
	return &QuizSession{
		ID:             id,
		Type:           quizType,
		Phase:          PhaseGenerated,
		Topic:          topic,
		Questions:      questions,
		Answers:        make(map[int]string),
		CorrectAnswers: make(map[int]string),
		Explanations:   make(map[int]string),
		Context:        context,
		RawQuizText:    rawText,
		CreatedAt:      time.Now(),
	}
}

// RecordAnswer stores the user's label for one question. Allowed only while
// the session is Generated.
func (s *QuizSession) RecordAnswer(index int, label string) error {
	if s.Phase != PhaseGenerated {
		return NewInvalidTransitionError(s.Phase, "record an answer")
	}
	if index < 0 || index >= len(s.Questions) {
		return NewInvalidAnswerError(fmt.Sprintf("question index %d out of range", index))
	}
	if !s.Questions[index].HasOption(label) {
		return NewInvalidAnswerError(fmt.Sprintf("label %q is not an option of question %d", label, index))
	}
	s.Answers[index] = label
	return nil
}

// Submit freezes the answer set. Allowed only while Generated.
func (s *QuizSession) Submit() error {
	if s.Phase != PhaseGenerated {
		return NewInvalidTransitionError(s.Phase, "submit")
	}
	s.Phase = PhaseSubmitted
	return nil
}

// ApplyEvaluation populates the correct answers exactly once and moves the
// session to its terminal Evaluated phase.
func (s *QuizSession) ApplyEvaluation(correct map[int]string, explanations map[int]string, score ScoreResult) error {
	if s.Phase != PhaseSubmitted {
		return NewInvalidTransitionError(s.Phase, "evaluate")
	}
	s.CorrectAnswers = correct
	s.Explanations = explanations
	s.Score = &score
	s.Phase = PhaseEvaluated
	return nil
}

// ChatEntry is one question/answer exchange of the open-ended Q&A mode.
type ChatEntry struct {
	Question string    `json:"question"`
	Answer   string    `json:"answer"`
	AskedAt  time.Time `json:"asked_at"`
}
