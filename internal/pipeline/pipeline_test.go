package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-academic-api/pkg/ai"
)

func TestPolicyTable(t *testing.T) {
	require.Equal(t, FailOpen, PolicyFor(EndpointCheckPlagiarism))
	for _, endpoint := range []Endpoint{
		EndpointGenerateQuiz,
		EndpointGenerateAssignments,
		EndpointEvaluateSubmission,
		EndpointLearningPath,
	} {
		require.Equal(t, FailClosed, PolicyFor(endpoint), endpoint)
	}
	require.Equal(t, FailClosed, PolicyFor("unknown"))
}

func TestClassifyGatewayErrors(t *testing.T) {
	cases := []struct {
		err    error
		kind   Kind
		status int
	}{
		{&ai.ErrRateLimit{}, KindRateLimited, http.StatusTooManyRequests},
		{&ai.ErrPaymentRequired{}, KindPaymentRequired, http.StatusPaymentRequired},
		{&ai.ErrProviderUnavailable{StatusCode: 503}, KindUpstream, http.StatusInternalServerError},
		{&ai.ErrInvalidResponse{Raw: "nope"}, KindParse, http.StatusInternalServerError},
		{fmt.Errorf("wrapped: %w", &ai.ErrRateLimit{}), KindRateLimited, http.StatusTooManyRequests},
		{errors.New("boom"), KindInternal, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		kind, message := Classify(tc.err)
		require.Equal(t, tc.kind, kind)
		require.NotEmpty(t, message)
		require.Equal(t, tc.status, NewError(StageCallingLLM, kind, message, tc.err).Status())
	}
}

func TestRunAuthorize(t *testing.T) {
	_, run := Start(context.Background(), EndpointEvaluateSubmission, zerolog.Nop())
	defer run.End()

	err := run.Authorize(Actor{}, StaffRoles...)
	require.NotNil(t, err)
	require.Equal(t, KindUnauthenticated, err.Kind)
	require.Equal(t, StageAuthenticating, err.Stage)
	require.Equal(t, StageFailed, run.Stage())

	_, run = Start(context.Background(), EndpointEvaluateSubmission, zerolog.Nop())
	err = run.Authorize(Actor{UserID: 7, Role: "student"}, StaffRoles...)
	require.NotNil(t, err)
	require.Equal(t, KindForbidden, err.Kind)
	require.Equal(t, StageAuthorizing, err.Stage)
	require.Equal(t, http.StatusForbidden, err.Status())

	_, run = Start(context.Background(), EndpointEvaluateSubmission, zerolog.Nop())
	err = run.Authorize(Actor{UserID: 7, Role: ""}, StaffRoles...)
	require.NotNil(t, err)
	require.Equal(t, KindForbidden, err.Kind)

	_, run = Start(context.Background(), EndpointEvaluateSubmission, zerolog.Nop())
	require.Nil(t, run.Authorize(Actor{UserID: 7, Role: "Faculty"}, StaffRoles...))

	_, run = Start(context.Background(), EndpointLearningPath, zerolog.Nop())
	require.Nil(t, run.Authorize(Actor{UserID: 9}))
}

func TestRunStagesAndFailure(t *testing.T) {
	_, run := Start(context.Background(), EndpointGenerateQuiz, zerolog.Nop())
	defer run.End()

	require.Nil(t, run.Authorize(Actor{UserID: 1, Role: "admin"}, StaffRoles...))
	run.Enter(StagePrompting)
	run.Enter(StageCallingLLM)

	err := run.FailWith(&ai.ErrPaymentRequired{})
	require.Equal(t, StageCallingLLM, err.Stage)
	require.Equal(t, KindPaymentRequired, err.Kind)
	require.Equal(t, MessagePaymentRequired, err.Message)
	require.Equal(t, StageFailed, run.Stage())

	// Terminal: further transitions are ignored.
	run.Enter(StagePersisting)
	require.Equal(t, StageFailed, run.Stage())
}

func TestRunSucceedEntersResponding(t *testing.T) {
	_, run := Start(context.Background(), EndpointCheckPlagiarism, zerolog.Nop())
	defer run.End()

	require.Equal(t, FailOpen, run.Policy())
	run.Enter(StageExtracting)
	run.FallBack(&ai.ErrInvalidResponse{Raw: "text"})
	run.Enter(StagePersisting)
	run.Succeed()
	require.Equal(t, StageResponding, run.Stage())
}

func TestFailWithKeepsExistingError(t *testing.T) {
	_, run := Start(context.Background(), EndpointEvaluateSubmission, zerolog.Nop())
	defer run.End()

	run.Enter(StageFetchingInput)
	err := run.FailWith(fmt.Errorf("load: %w", NewError(StageFetchingInput, KindNotFound, "submission not found", nil)))
	require.Equal(t, KindNotFound, err.Kind)
	require.Equal(t, http.StatusNotFound, err.Status())
}
