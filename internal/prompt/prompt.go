// Package prompt assembles the system and user instructions sent to the LLM gateway for each
// AI task, and owns the JSON Schemas that the replies must satisfy.
package prompt

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Prompt is the pair of instructions for one chat completion.
type Prompt struct {
	System string
	User   string
}

// QuizInput feeds quiz generation. Count is forwarded verbatim.
type QuizInput struct {
	Topic   string
	Subject string
	Count   int
}

// Quiz builds the multiple-choice quiz prompt.
func Quiz(in QuizInput) Prompt {
	system := "You are an experienced educator who writes clear, unambiguous multiple-choice questions. " +
		"Respond ONLY with a JSON array. Each element must be an object with the keys " +
		`"question" (string), "options" (array of exactly 4 distinct strings), ` +
		`"correct_answer" (string, identical to one of the options) and "points" (integer, usually 1). ` +
		"Do not add commentary outside the JSON."

	user := fmt.Sprintf("Create %d multiple-choice questions about %q for the subject %q. "+
		"Vary the difficulty and cover different aspects of the topic.", in.Count, in.Topic, in.Subject)

	return Prompt{System: system, User: user}
}

// AssignmentsInput feeds assignment generation from a syllabus.
type AssignmentsInput struct {
	Syllabus string
	Subject  string
	Count    int
}

// Assignments builds the assignment drafting prompt.
func Assignments(in AssignmentsInput) Prompt {
	system := "You are a curriculum designer who turns a syllabus into practical assignments. " +
		"Respond ONLY with a JSON array. Each element must be an object with the keys " +
		`"title" (string), "description" (string with clear instructions and deliverables) and ` +
		`"max_score" (integer between 50 and 100).`

	var user strings.Builder
	fmt.Fprintf(&user, "Subject: %s\n", in.Subject)
	fmt.Fprintf(&user, "Number of assignments: %d\n\n", in.Count)
	user.WriteString("## Syllabus\n")
	user.WriteString(strings.TrimSpace(in.Syllabus))

	return Prompt{System: system, User: user.String()}
}

// PlagiarismInput feeds similarity analysis. Siblings are other submissions to the same assignment.
type PlagiarismInput struct {
	Target          string
	Siblings        []string
	TargetMaxChars  int
	SiblingMaxChars int
	FlagThreshold   float64
}

// SiblingLabel is the ordinal label a sibling carries in the prompt, starting at 1.
func SiblingLabel(index int) string {
	return fmt.Sprintf("Submission %d", index+1)
}

// Plagiarism builds the comparison prompt. Sibling texts are truncated for cost control.
func Plagiarism(in PlagiarismInput) Prompt {
	system := fmt.Sprintf("You are an academic integrity analyst. Compare the target submission with the "+
		"other submissions and estimate how much of the target is copied or closely paraphrased. "+
		"Respond ONLY with a JSON object with the keys "+
		`"similarity_percentage" (number 0-100), "is_flagged" (boolean, true when similarity exceeds %.0f), `+
		`"matched_submissions" (array of the labels, e.g. "Submission 2", that the target overlaps with) and `+
		`"analysis_details" (string explaining the evidence).`, in.FlagThreshold)

	var user strings.Builder
	user.WriteString("## Target submission\n")
	user.WriteString(Truncate(in.Target, in.TargetMaxChars))
	user.WriteString("\n\n## Other submissions\n")
	if len(in.Siblings) == 0 {
		user.WriteString("(none; there are no other submissions for this assignment)\n")
	}
	for i, sibling := range in.Siblings {
		fmt.Fprintf(&user, "### %s\n%s\n\n", SiblingLabel(i), Truncate(sibling, in.SiblingMaxChars))
	}

	return Prompt{System: system, User: user.String()}
}

// EvaluationInput feeds submission grading.
type EvaluationInput struct {
	AssignmentTitle       string
	AssignmentDescription string
	Subject               string
	MaxScore              float64
	StudentText           string
}

// Evaluation builds the grading prompt.
func Evaluation(in EvaluationInput) Prompt {
	system := "You are a fair and constructive teacher grading student work. " +
		"Respond ONLY with a JSON object with the keys " +
		`"followsInstructions" (boolean), "instructionScore" (number 0-100), ` +
		`"answerCorrectness" (number 0-100), "strengths" (array of strings), ` +
		`"improvements" (array of strings), "detailedFeedback" (string) and ` +
		fmt.Sprintf(`"suggestedScore" (number between 0 and %s).`, formatScore(in.MaxScore))

	var user strings.Builder
	fmt.Fprintf(&user, "# Assignment: %s\n", in.AssignmentTitle)
	fmt.Fprintf(&user, "Subject: %s\n", in.Subject)
	fmt.Fprintf(&user, "Maximum score: %s\n\n", formatScore(in.MaxScore))
	user.WriteString("## Instructions\n")
	user.WriteString(strings.TrimSpace(in.AssignmentDescription))
	user.WriteString("\n\n## Student submission\n")
	user.WriteString(in.StudentText)

	return Prompt{System: system, User: user.String()}
}

// SubjectPerformance aggregates one subject for the learning-path prompt.
type SubjectPerformance struct {
	Subject         string   `json:"subject"`
	AverageScore    float64  `json:"averageScore"`
	AssignmentCount int      `json:"assignmentCount"`
	RecentGrades    []string `json:"recentGrades"`
}

// LearningPath builds the recommendation prompt from per-subject aggregates.
func LearningPath(subjects []SubjectPerformance) Prompt {
	system := "You are a supportive academic advisor. Identify weak areas and recommend next steps. " +
		"Respond ONLY with a JSON object with the keys " +
		`"performanceGaps" (array of objects with "subject", "issue" and "severity" of low|medium|high), ` +
		`"recommendations" (array of objects with "subject", "title", "description" and optional "resources" array of strings) and ` +
		`"encouragement" (string).`

	var user strings.Builder
	user.WriteString("Student performance by subject:\n")
	for _, s := range subjects {
		if s.AssignmentCount > 0 {
			fmt.Fprintf(&user, "- %s: average assignment score %.1f%% over %d assignments", s.Subject, s.AverageScore, s.AssignmentCount)
		} else {
			fmt.Fprintf(&user, "- %s: no graded assignments", s.Subject)
		}
		if len(s.RecentGrades) > 0 {
			fmt.Fprintf(&user, "; recent grades %s", strings.Join(s.RecentGrades, ", "))
		}
		user.WriteString("\n")
	}

	return Prompt{System: system, User: user.String()}
}

// Truncate keeps at most max runes of s. A non-positive max leaves s untouched.
func Truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max])
}

func formatScore(v float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".")
}
