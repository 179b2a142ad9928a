package feed

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockWriter struct {
	mock.Mock
}

func (m *MockWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	args := m.Called(ctx, msgs)
	return args.Error(0)
}

func (m *MockWriter) Close() error {
	return m.Called().Error(0)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, event Event) error {
	return m.Called(ctx, event).Error(0)
}

func TestKafkaPublisher_Publish(t *testing.T) {
	w := new(MockWriter)
	var written []kafka.Message
	w.On("WriteMessages", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { written = args.Get(1).([]kafka.Message) }).
		Return(nil)

	p := NewKafkaPublisherWithWriter(w)
	event := NewEvent(PatientCreated, "patient", "p1", map[string]string{"name": "John Doe"}, TopicPatients)
	require.NoError(t, p.Publish(context.Background(), event))

	require.Len(t, written, 1)
	assert.Equal(t, []byte("p1"), written[0].Key)
	assert.Equal(t, "type", written[0].Headers[0].Key)

	var decoded Event
	require.NoError(t, json.Unmarshal(written[0].Value, &decoded))
	assert.Equal(t, PatientCreated, decoded.Type)
	assert.JSONEq(t, `{"name":"John Doe"}`, string(decoded.Data))
}

func TestKafkaPublisher_WriteError(t *testing.T) {
	w := new(MockWriter)
	w.On("WriteMessages", mock.Anything, mock.Anything).Return(errors.New("broker down"))

	err := NewKafkaPublisherWithWriter(w).Publish(context.Background(), Event{Type: TaskAssigned})
	assert.ErrorContains(t, err, "broker down")
}

func TestMulti_LogsAndContinues(t *testing.T) {
	var buf bytes.Buffer
	failing := new(MockPublisher)
	failing.On("Publish", mock.Anything, mock.Anything).Return(errors.New("boom"))
	ok := new(MockPublisher)
	ok.On("Publish", mock.Anything, mock.Anything).Return(nil)

	m := NewMulti(zerolog.New(&buf), failing, ok, Nop{})
	assert.NoError(t, m.Publish(context.Background(), Event{Type: UserCreated, ResourceID: "u1"}))

	failing.AssertExpectations(t)
	ok.AssertExpectations(t)
	assert.Contains(t, buf.String(), "feed publish failed")
}
