package audit

import (
	"bytes"
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/dittostore/internal/logger"
)

func TestRecorder(t *testing.T) {
	r := NewRecorder()
	ctx := context.Background()

	require.NoError(t, r.Record(ctx, Event{Action: FileAdded, Path: "a"}))
	require.NoError(t, r.Record(ctx, Event{Action: FileRemoved, Path: "a"}))

	assert.Equal(t, []Action{FileAdded, FileRemoved}, r.Actions())
	assert.Len(t, r.Events(), 2)

	r.Reset()
	assert.Empty(t, r.Events())
}

func TestMulti(t *testing.T) {
	first := NewRecorder()
	second := NewRecorder()
	boom := errors.New("boom")
	failing := SinkFunc(func(context.Context, Event) error { return boom })

	err := Multi(first, failing, second).Record(context.Background(), Event{Action: FileUpdated})
	assert.ErrorIs(t, err, boom)

	assert.Equal(t, []Action{FileUpdated}, first.Actions())
	assert.Equal(t, []Action{FileUpdated}, second.Actions())
}

func TestLoggerSink(t *testing.T) {
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	t.Cleanup(func() { logger.SetOutput(os.Stdout) })

	err := NewLoggerSink().Record(context.Background(), Event{
		Action:    UploadFailed,
		Actor:     "user-1",
		NodeID:    "node-1",
		Path:      "data/x.csv",
		Timestamp: time.Now(),
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "UPLOAD_FAILED")
	assert.Contains(t, out, "user-1")
	assert.Contains(t, out, "data/x.csv")
}

func TestDiscard(t *testing.T) {
	assert.NoError(t, Discard.Record(context.Background(), Event{Action: FileAdded}))
}
