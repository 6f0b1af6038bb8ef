// Package pipeline models the per-request state machine shared by the AI endpoints:
// the stages a run passes through, the error kinds that end it, and the
// parse-failure policy each endpoint follows.
package pipeline

// Stage is one state of a pipeline run.
type Stage string

const (
	StageAuthenticating Stage = "AUTHENTICATING"
	StageAuthorizing    Stage = "AUTHORIZING"
	StageFetchingInput  Stage = "FETCHING_INPUT"
	StagePrompting      Stage = "PROMPTING"
	StageCallingLLM     Stage = "CALLING_LLM"
	StageExtracting     Stage = "EXTRACTING"
	StagePersisting     Stage = "PERSISTING"
	StageResponding     Stage = "RESPONDING"
	StageFailed         Stage = "FAILED"
)

// Endpoint names one AI operation.
type Endpoint string

const (
	EndpointGenerateQuiz        Endpoint = "generate-quiz"
	EndpointGenerateAssignments Endpoint = "generate-assignments"
	EndpointCheckPlagiarism     Endpoint = "check-plagiarism"
	EndpointEvaluateSubmission  Endpoint = "evaluate-submission"
	EndpointLearningPath        Endpoint = "learning-path"
)

// Policy decides what happens when the model output cannot be extracted or validated.
type Policy int

const (
	// FailClosed aborts the run with a parse error and writes nothing.
	FailClosed Policy = iota
	// FailOpen substitutes a safe default result and continues.
	FailOpen
)

func (p Policy) String() string {
	if p == FailOpen {
		return "fail-open"
	}
	return "fail-closed"
}

var policies = map[Endpoint]Policy{
	EndpointGenerateQuiz:        FailClosed,
	EndpointGenerateAssignments: FailClosed,
	EndpointCheckPlagiarism:     FailOpen,
	EndpointEvaluateSubmission:  FailClosed,
	EndpointLearningPath:        FailClosed,
}

// PolicyFor returns the parse-failure policy for an endpoint. Unknown endpoints fail closed.
func PolicyFor(endpoint Endpoint) Policy {
	if policy, ok := policies[endpoint]; ok {
		return policy
	}
	return FailClosed
}
