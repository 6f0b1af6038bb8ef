package ai

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractJSONPrefersJSONFence(t *testing.T) {
	content := "Here you go:\n```json\n{\"score\": 80}\n```\nand also {\"other\": true}"

	raw, err := ExtractJSON(content)
	require.NoError(t, err)
	require.JSONEq(t, `{"score": 80}`, string(raw))
}

func TestExtractJSONAcceptsUnlabelledFence(t *testing.T) {
	raw, err := ExtractJSON("```\n[{\"title\":\"A\"}]\n```")
	require.NoError(t, err)
	require.JSONEq(t, `[{"title":"A"}]`, string(raw))
}

func TestExtractJSONFindsBalancedObjectInProse(t *testing.T) {
	content := `Sure! The analysis is {"similarity_percentage": 12, "analysis_details": "brace } inside string"} hope that helps.`

	raw, err := ExtractJSON(content)
	require.NoError(t, err)
	require.JSONEq(t, `{"similarity_percentage": 12, "analysis_details": "brace } inside string"}`, string(raw))
}

func TestExtractJSONFindsArray(t *testing.T) {
	raw, err := ExtractJSON(`Questions: [{"question":"q"}] done`)
	require.NoError(t, err)
	require.JSONEq(t, `[{"question":"q"}]`, string(raw))
}

func TestExtractJSONSkipsInvalidLeadingBraces(t *testing.T) {
	raw, err := ExtractJSON(`use {curly} notation then {"ok": 1}`)
	require.NoError(t, err)
	require.JSONEq(t, `{"ok": 1}`, string(raw))
}

func TestExtractJSONRejectsFreeText(t *testing.T) {
	_, err := ExtractJSON("I could not evaluate this submission.")
	require.Error(t, err)

	var invalid *ErrInvalidResponse
	require.True(t, errors.As(err, &invalid))
	require.Equal(t, "I could not evaluate this submission.", invalid.Raw)
	require.ErrorIs(t, err, ErrNoJSON)
}

func TestExtractJSONRejectsTruncatedObject(t *testing.T) {
	_, err := ExtractJSON(`{"score": 80, "feedback": "cut off`)
	require.Error(t, err)
}
