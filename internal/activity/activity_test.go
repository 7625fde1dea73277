package activity

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/findsboard/internal/model"
	"github.com/sakif/findsboard/internal/repository"
)

type fakeLogs struct {
	mu      sync.Mutex
	entries []model.Log
	err     error
}

func (f *fakeLogs) Create(_ context.Context, entry *model.Log) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	entry.ID = int64(len(f.entries) + 1)
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeLogs) GetByID(context.Context, int64) (*model.Log, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeLogs) List(context.Context, repository.ListOptions) ([]model.Log, error) {
	return nil, errors.New("not implemented")
}

// syncBuffer is a bytes.Buffer safe for the recorder's goroutines.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestRecord_WritesEntryWithMeta(t *testing.T) {
	logs := &fakeLogs{}
	rec := New(logs, slog.New(slog.NewTextHandler(&syncBuffer{}, nil)))

	userID := int64(3)
	rec.Record(context.Background(), &userID, "User account created", map[string]int64{"userId": 3})
	rec.Close()

	require.Len(t, logs.entries, 1)
	entry := logs.entries[0]
	assert.Equal(t, "User account created", entry.Message)
	require.NotNil(t, entry.UserID)
	assert.Equal(t, int64(3), *entry.UserID)
	require.NotNil(t, entry.Meta)
	assert.JSONEq(t, `{"userId":3}`, *entry.Meta)
}

func TestRecord_SurvivesCancelledRequest(t *testing.T) {
	logs := &fakeLogs{}
	rec := New(logs, slog.New(slog.NewTextHandler(&syncBuffer{}, nil)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rec.Record(ctx, nil, "system event", nil)
	rec.Close()

	require.Len(t, logs.entries, 1)
	assert.Nil(t, logs.entries[0].UserID)
	assert.Nil(t, logs.entries[0].Meta)
}

func TestRecord_FailureIsReported(t *testing.T) {
	logs := &fakeLogs{err: errors.New("disk full")}
	out := &syncBuffer{}
	rec := New(logs, slog.New(slog.NewTextHandler(out, nil)))

	userID := int64(9)
	rec.Record(context.Background(), &userID, "User logged in", nil)
	rec.Close()

	assert.Contains(t, out.String(), "level=ERROR")
	assert.Contains(t, out.String(), "disk full")
	assert.Contains(t, out.String(), "userID=9")
}

func TestRecord_AfterClose(t *testing.T) {
	logs := &fakeLogs{}
	out := &syncBuffer{}
	rec := New(logs, slog.New(slog.NewTextHandler(out, nil)))
	rec.Close()

	rec.Record(context.Background(), nil, "late", nil)

	assert.Empty(t, logs.entries)
	assert.Contains(t, out.String(), "entry dropped")
}
