package prompt

import "github.com/noah-isme/gema-academic-api/pkg/ai"

// QuizSchema validates generated quiz questions.
var QuizSchema = ai.MustSchema("quiz-questions", `{
	"type": "array",
	"minItems": 1,
	"items": {
		"type": "object",
		"required": ["question", "options", "correct_answer"],
		"properties": {
			"question": {"type": "string", "minLength": 1},
			"options": {
				"type": "array",
				"minItems": 4,
				"maxItems": 4,
				"uniqueItems": true,
				"items": {"type": "string", "minLength": 1}
			},
			"correct_answer": {"type": "string", "minLength": 1},
			"points": {"type": "number"}
		}
	}
}`)

// AssignmentsSchema validates generated assignment drafts.
var AssignmentsSchema = ai.MustSchema("assignment-drafts", `{
	"type": "array",
	"minItems": 1,
	"items": {
		"type": "object",
		"required": ["title", "description"],
		"properties": {
			"title": {"type": "string", "minLength": 1},
			"description": {"type": "string"},
			"max_score": {"type": "number"}
		}
	}
}`)

// PlagiarismSchema validates similarity analyses.
var PlagiarismSchema = ai.MustSchema("plagiarism-analysis", `{
	"type": "object",
	"required": ["similarity_percentage", "analysis_details"],
	"properties": {
		"similarity_percentage": {"type": "number"},
		"is_flagged": {"type": "boolean"},
		"matched_submissions": {
			"type": "array",
			"items": {"type": ["string", "integer"]}
		},
		"analysis_details": {"type": "string"}
	}
}`)

// EvaluationSchema validates submission evaluations.
var EvaluationSchema = ai.MustSchema("submission-evaluation", `{
	"type": "object",
	"required": [
		"followsInstructions", "instructionScore", "answerCorrectness",
		"strengths", "improvements", "detailedFeedback", "suggestedScore"
	],
	"properties": {
		"followsInstructions": {"type": "boolean"},
		"instructionScore": {"type": "number"},
		"answerCorrectness": {"type": "number"},
		"strengths": {"type": "array", "items": {"type": "string"}},
		"improvements": {"type": "array", "items": {"type": "string"}},
		"detailedFeedback": {"type": "string"},
		"suggestedScore": {"type": "number"}
	}
}`)

// LearningPathSchema validates learning-path recommendations.
var LearningPathSchema = ai.MustSchema("learning-path", `{
	"type": "object",
	"required": ["performanceGaps", "recommendations", "encouragement"],
	"properties": {
		"performanceGaps": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["subject", "issue"],
				"properties": {
					"subject": {"type": "string"},
					"issue": {"type": "string"},
					"severity": {"type": "string"}
				}
			}
		},
		"recommendations": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["title", "description"],
				"properties": {
					"subject": {"type": "string"},
					"title": {"type": "string"},
					"description": {"type": "string"},
					"resources": {"type": "array", "items": {"type": "string"}}
				}
			}
		},
		"encouragement": {"type": "string"}
	}
}`)
