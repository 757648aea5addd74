package report

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/memblob"

	"github.com/MrTarik2112/FileCreator/pkg/rangefill"
)

func sampleReport(t *testing.T, jobID string) *Report {
	t.Helper()

	cfg := rangefill.Config{Path: "/data/x.bin", Size: 100, Workers: 4, BufferSize: 16, Fill: rangefill.FillRandom}
	extents, err := rangefill.Partition(cfg.Size, cfg.Workers)
	require.NoError(t, err)

	sum := rangefill.Summary{
		Succeeded:    true,
		BytesWritten: 100,
		Elapsed:      2 * time.Second,
		FinalSpeed:   50,
		AverageSpeed: 45,
		PeakSpeed:    60,
		Efficiency:   75,
		Operations:   8,
	}
	started := time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC)
	return New(jobID, cfg, rangefill.Options{RateLimit: 1000, Sync: true}, extents, sum, started)
}

func TestNew(t *testing.T) {
	r := sampleReport(t, "job-1")

	assert.Equal(t, "job-1", r.JobID)
	assert.Equal(t, "auto", r.Settings.Allocation)
	assert.Equal(t, "30ms", r.Settings.Interval)
	assert.Equal(t, int64(1000), r.Settings.RateLimit)
	assert.True(t, r.Settings.Sync)
	assert.Len(t, r.Extents, 4)
	assert.Equal(t, 2*time.Second, r.Result.Elapsed())
	assert.Equal(t, time.Date(2025, 1, 15, 10, 30, 2, 0, time.UTC), r.CompletedAt)
	assert.Empty(t, r.Result.Error)
}

func TestNewFailed(t *testing.T) {
	sum := rangefill.Summary{Err: &rangefill.Error{Kind: rangefill.ErrWrite, Err: errors.New("disk full")}}
	r := New("job-2", rangefill.Config{}, rangefill.Options{}, nil, sum, time.Now())

	assert.False(t, r.Result.Succeeded)
	assert.Equal(t, "rangefill: write failed: disk full", r.Result.Error)
}

func TestSaveLoad(t *testing.T) {
	ctx := context.Background()
	bucket, err := blob.OpenBucket(ctx, "mem://")
	require.NoError(t, err)
	defer bucket.Close()

	store := NewStore(bucket)
	want := sampleReport(t, "abc")

	key, err := store.Save(ctx, want)
	require.NoError(t, err)
	assert.Equal(t, "reports/abc.json", key)

	attrs, err := bucket.Attributes(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "application/json", attrs.ContentType)

	got, err := store.Load(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, want.Config, got.Config)
	assert.Equal(t, want.Extents, got.Extents)
	assert.Equal(t, want.Result, got.Result)
	assert.Equal(t, want.Settings, got.Settings)
	assert.True(t, want.StartedAt.Equal(got.StartedAt))
	assert.Equal(t, rangefill.FillRandom, got.Config.Fill)
}

func TestLoadNotFound(t *testing.T) {
	ctx := context.Background()
	bucket, err := blob.OpenBucket(ctx, "mem://")
	require.NoError(t, err)
	defer bucket.Close()

	_, err = NewStore(bucket).Load(ctx, "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)

	err = NewStore(bucket).Delete(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoadMalformed(t *testing.T) {
	ctx := context.Background()
	bucket, err := blob.OpenBucket(ctx, "mem://")
	require.NoError(t, err)
	defer bucket.Close()

	require.NoError(t, bucket.WriteAll(ctx, "reports/bad.json", []byte("{not json"), nil))

	_, err = NewStore(bucket).Load(ctx, "bad")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestSaveRequiresJobID(t *testing.T) {
	ctx := context.Background()
	bucket, err := blob.OpenBucket(ctx, "mem://")
	require.NoError(t, err)
	defer bucket.Close()

	_, err = NewStore(bucket).Save(ctx, &Report{})
	assert.Error(t, err)
}

func TestListAndDelete(t *testing.T) {
	ctx := context.Background()
	bucket, err := blob.OpenBucket(ctx, "mem://")
	require.NoError(t, err)
	defer bucket.Close()

	store := NewStore(bucket, WithPrefix("runs/"))
	for _, id := range []string{"b", "a", "c"} {
		_, err := store.Save(ctx, sampleReport(t, id))
		require.NoError(t, err)
	}
	// Objects that are not reports are ignored.
	require.NoError(t, bucket.WriteAll(ctx, "runs/notes.txt", []byte("x"), nil))
	require.NoError(t, bucket.WriteAll(ctx, "runs/nested/d.json", []byte("{}"), nil))
	require.NoError(t, bucket.WriteAll(ctx, "other/e.json", []byte("{}"), nil))

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, ids)

	require.NoError(t, store.Delete(ctx, "b"))
	ids, err = store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, ids)
}

func TestOpenFileBucket(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store, err := Open(ctx, "file://"+filepath.ToSlash(dir))
	require.NoError(t, err)

	key, err := store.Save(ctx, sampleReport(t, "disk"))
	require.NoError(t, err)
	require.NoError(t, store.Close())

	_, err = os.Stat(filepath.Join(dir, filepath.FromSlash(key)))
	require.NoError(t, err)

	store, err = Open(ctx, "file://"+filepath.ToSlash(dir))
	require.NoError(t, err)
	defer store.Close()

	got, err := store.Load(ctx, "disk")
	require.NoError(t, err)
	assert.Equal(t, int64(100), got.Result.BytesWritten)
}

func TestOpenInvalidURL(t *testing.T) {
	_, err := Open(context.Background(), "nope://bucket")
	assert.Error(t, err)
}
