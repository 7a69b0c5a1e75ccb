package eagerq

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestArchive(t *testing.T) *Archive {
	t.Helper()

	archive, err := NewArchive(filepath.Join(t.TempDir(), "eagerq_test.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, archive.Close()) })

	return archive
}

func TestArchive_SaveListDelete(t *testing.T) {
	archive := newTestArchive(t)
	ctx := context.Background()

	first := NewRecord(NewJob("email:send", []byte("a"), nil), "queue drained")
	second := NewRecord(NewJob("email:send", []byte("b"), nil), "queue drained")

	require.NoError(t, archive.Save(ctx, first))
	require.NoError(t, archive.Save(ctx, second))

	records, err := archive.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, first.ID, records[0].ID)
	require.Equal(t, second.ID, records[1].ID)
	require.Equal(t, []byte("a"), records[0].Payload)
	require.Equal(t, "queue drained", records[0].Reason)
	require.Equal(t, first.ArchivedAt, records[0].ArchivedAt)

	require.NoError(t, archive.Delete(ctx, first.ID))

	records, err = archive.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, second.ID, records[0].ID)
}

func TestArchive_Get(t *testing.T) {
	archive := newTestArchive(t)
	ctx := context.Background()

	rec := NewRecord(NewJob("report:build", []byte(`{"week":34}`), nil), "queue drained")
	require.NoError(t, archive.Save(ctx, rec))

	got, err := archive.Get(ctx, rec.ID)
	require.NoError(t, err)
	require.Equal(t, rec.ID, got.ID)
	require.Equal(t, "report:build", got.Kind)
	require.Equal(t, []byte(`{"week":34}`), got.Payload)

	missing, err := archive.Get(ctx, "does-not-exist")
	require.NoError(t, err)
	require.Nil(t, missing)
}

func TestArchive_Purge(t *testing.T) {
	archive := newTestArchive(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, archive.Save(ctx, NewRecord(NewJob("email:send", nil, nil), "queue drained")))
	}

	purged, err := archive.Purge(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(3), purged)

	records, err := archive.List(ctx)
	require.NoError(t, err)
	require.Empty(t, records)
}

func TestTaskQueue_DrainToArchive(t *testing.T) {
	archive := newTestArchive(t)
	ctx := context.Background()

	q := New(4)
	job := NewJob("report:build", []byte(`{"week":34}`), nil)
	require.True(t, q.TryEnqueue(job))
	require.True(t, q.TryEnqueue(NewTestTask(nil, nil)))

	drained, err := q.DrainTo(ctx, archive)
	require.NoError(t, err)
	require.Equal(t, 2, drained)
	require.Equal(t, 0, q.Len())

	records, err := archive.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)

	require.Equal(t, job.TaskID(), records[0].ID)
	require.Equal(t, "report:build", records[0].Kind)
	require.Equal(t, []byte(`{"week":34}`), records[0].Payload)

	// The plain task is listable under its generated identity.
	require.Equal(t, "*eagerq.TestTask", records[1].Kind)
	require.Empty(t, records[1].Payload)
}

func TestArchive_RestoreRebuildsJobs(t *testing.T) {
	archive := newTestArchive(t)
	ctx := context.Background()

	var mu sync.Mutex
	var handled []string

	mux := NewMux()
	mux.Handle("email:send", HandlerFunc(func(_ context.Context, rec *Record) error {
		mu.Lock()
		defer mu.Unlock()
		handled = append(handled, string(rec.Payload))
		return nil
	}))

	require.NoError(t, archive.Save(ctx, NewRecord(NewJob("email:send", []byte("a"), nil), "queue drained")))
	require.NoError(t, archive.Save(ctx, NewRecord(NewJob("email:send", []byte("b"), nil), "queue drained")))
	require.NoError(t, archive.Save(ctx, NewRecord(NewJob("audit:scrub", []byte("c"), nil), "queue drained")))

	// A busy pool below its maximum would refuse these on the normal path;
	// restores go through the forced path instead.
	q := New(8)
	q.AttachPool(newFakePool(2, 4, 8))

	restored, err := archive.Restore(ctx, q, mux)
	require.NoError(t, err)
	require.Equal(t, 2, restored)
	require.Equal(t, 2, q.Len())

	// The kind nobody handles stays archived.
	records, err := archive.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "audit:scrub", records[0].Kind)

	for {
		task, ok := q.TryDequeue()
		if !ok {
			break
		}
		require.NoError(t, task.Execute())
	}

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []string{"a", "b"}, handled)
}

func TestArchive_RestoreRequiresHealthyPool(t *testing.T) {
	archive := newTestArchive(t)
	ctx := context.Background()

	mux := NewMux()
	mux.Handle("email:send", HandlerFunc(func(context.Context, *Record) error { return nil }))

	require.NoError(t, archive.Save(ctx, NewRecord(NewJob("email:send", nil, nil), "queue drained")))

	q := New(2)
	restored, err := archive.Restore(ctx, q, mux)
	require.Equal(t, 0, restored)
	require.ErrorIs(t, err, ErrPoolNotAttached)

	// Nothing was deleted.
	records, err := archive.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
}

func TestArchive_RestoreStopsAtFullQueue(t *testing.T) {
	archive := newTestArchive(t)
	ctx := context.Background()

	mux := NewMux()
	mux.Handle("email:send", HandlerFunc(func(context.Context, *Record) error { return nil }))

	for i := 0; i < 3; i++ {
		require.NoError(t, archive.Save(ctx, NewRecord(NewJob("email:send", nil, nil), "queue drained")))
	}

	q := New(1)
	q.AttachPool(newFakePool(1, 1, 0))

	restored, err := archive.Restore(ctx, q, mux)
	require.NoError(t, err)
	require.Equal(t, 1, restored)
	require.Equal(t, 1, q.Len())

	// The rest waits for a later pass.
	records, err := archive.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
}
