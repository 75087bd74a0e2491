package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"vidhub/internal/apperr"
	"vidhub/internal/logging"
	"vidhub/internal/model"
)

type mockSink struct {
	mock.Mock
}

func (m *mockSink) Append(ctx context.Context, event model.WatchEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func TestWatchEventWorker_Handle(t *testing.T) {
	ctx := context.Background()
	body := []byte(`{"user_id":1,"video_id":2,"watched_at":"2024-05-01T12:00:00Z"}`)
	matchEvent := mock.MatchedBy(func(e model.WatchEvent) bool {
		return e.UserID == 1 && e.VideoID == 2
	})

	tests := []struct {
		name        string
		body        []byte
		redelivered bool
		sinkErr     error
		callsSink   bool
		want        outcome
	}{
		{name: "persisted", body: body, callsSink: true, want: ack},
		{name: "malformed", body: []byte("{"), want: drop},
		{name: "invalid event", body: body, sinkErr: apperr.Validation("user and video are required"), callsSink: true, want: drop},
		{name: "store down", body: body, sinkErr: errors.New("db down"), callsSink: true, want: requeue},
		{name: "store down twice", body: body, redelivered: true, sinkErr: errors.New("db down"), callsSink: true, want: drop},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := &mockSink{}
			if tt.callsSink {
				sink.On("Append", mock.Anything, matchEvent).Return(tt.sinkErr).Once()
			}
			w := NewWatchEventWorker(nil, sink, "video.watch.record", logging.Nop())

			assert.Equal(t, tt.want, w.handle(ctx, tt.body, tt.redelivered))
			sink.AssertExpectations(t)
		})
	}
}
