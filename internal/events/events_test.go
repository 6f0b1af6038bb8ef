package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type recordingConn struct {
	subjects []string
	payloads [][]byte
	err      error
}

func (r *recordingConn) Publish(subject string, data []byte) error {
	if r.err != nil {
		return r.err
	}
	r.subjects = append(r.subjects, subject)
	r.payloads = append(r.payloads, data)
	return nil
}

func TestBrokerPublishesToNATSAndRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	sub := client.Subscribe(ctx, "gema.academic.evaluation.completed")
	t.Cleanup(func() { _ = sub.Close() })
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	conn := &recordingConn{}
	broker := newBroker(conn, client, "gema.academic.", zerolog.Nop())

	require.NoError(t, broker.Publish(ctx, TypeEvaluationCompleted, map[string]interface{}{"submission_id": 7}))

	require.Equal(t, []string{"gema.academic.evaluation.completed"}, conn.subjects)

	var event Event
	require.NoError(t, json.Unmarshal(conn.payloads[0], &event))
	require.Equal(t, TypeEvaluationCompleted, event.Type)
	require.NotEmpty(t, event.ID)
	require.NotEmpty(t, event.Source)

	msgCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	msg, err := sub.ReceiveMessage(msgCtx)
	require.NoError(t, err)
	require.JSONEq(t, string(conn.payloads[0]), msg.Payload)
}

func TestBrokerSurfacesTransportErrors(t *testing.T) {
	broker := newBroker(&recordingConn{err: errors.New("nats down")}, nil, "", zerolog.Nop())

	err := broker.Publish(context.Background(), TypeQuizGenerated, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "quiz.generated")
}

func TestBrokerWithoutTransportsIsSilent(t *testing.T) {
	broker := NewBroker(nil, nil, "x", zerolog.Nop())
	require.NoError(t, broker.Publish(context.Background(), TypePlagiarismFlagged, nil))
	require.Equal(t, "x.plagiarism.flagged", broker.Subject(TypePlagiarismFlagged))
	require.NoError(t, Nop{}.Publish(context.Background(), TypePlagiarismFlagged, nil))
}
