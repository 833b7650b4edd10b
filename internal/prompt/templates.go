// Package prompt builds the text prompts sent to the language model. The
// formats here are load-bearing: the quiz parser and the answer reconciler
// both depend on the "Question N:" / "A) ..." / "Correct Answer: [X]" shapes
// requested below.
package prompt

import (
	"fmt"
	"strings"
)

// MCQ asks for numbered multiple-choice questions with exactly four lettered
// options and no revealed answers.
func MCQ(context, topicText string, numQuestions int) string {
	return fmt.Sprintf(`Context from the study materials:
%s

Based on the context above, generate %d multiple-choice questions %s.

Each question should have:
- A clear question
- 4 options labeled A, B, C, D
- DO NOT show the correct answer in the output

Format:
Question 1: [question text]
A) [option]
B) [option]
C) [option]
D) [option]

Generate the quiz now (without showing correct answers):`, context, numQuestions, topicText)
}

// TF asks for numbered true/false statements without answers.
func TF(context, topicText string, numQuestions int) string {
	return fmt.Sprintf(`Context from the study materials:
%s

Based on the context above, generate %d true/false questions %s.

Format:
Question 1: [statement]

DO NOT show the answers. Generate the quiz now:`, context, numQuestions, topicText)
}

// Evaluation asks the model to grade a submitted quiz. One "Correct Answer:"
// line per question, in question order, is required by the reconciler.
func Evaluation(quizText, userAnswers string) string {
	return fmt.Sprintf(`You are a quiz evaluator.

Here are the quiz questions:
%s

The user's answers are:
%s

For each question, provide ONLY:
1. The correct answer (just the letter for MCQ or True/False)
2. A brief explanation (one sentence)

Format your response as:
Question 1: Correct Answer: [X], Explanation: [brief explanation]
Question 2: Correct Answer: [X], Explanation: [brief explanation]
etc.`, quizText, userAnswers)
}

// OpenEnded asks for a direct answer grounded in the retrieved context.
func OpenEnded(context, question string) string {
	return fmt.Sprintf(`Based on the study materials, answer this question:

Question: %s

Context from materials:
%s

Provide a clear, detailed answer:`, question, context)
}

// CodeAssistant asks for an answer grounded in the labeled code context.
func CodeAssistant(context, question string) string {
	return fmt.Sprintf(`You are a helpful code assistant analyzing this project.

Here are the relevant code files:

%s

---

Question: %s

Please provide a clear and detailed answer based on the code above.`, context, question)
}

// TopicText renders the topic clause inserted into the quiz prompts.
func TopicText(topics []string) string {
	if len(topics) == 1 {
		return fmt.Sprintf("on the topic: %s", topics[0])
	}
	return fmt.Sprintf("on the topics: %s", strings.Join(topics, ", "))
}

// UserAnswerLine renders one submitted answer for the evaluation prompt,
// e.g. "1. A" or "3. No answer".
func UserAnswerLine(questionNumber int, label string) string {
	return fmt.Sprintf("%d. %s", questionNumber, label)
}
