package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"

	"github.com/MrTarik2112/FileCreator/pkg/rangefill"
)

// DefaultPrefix is the key prefix reports are stored under.
const DefaultPrefix = "reports/"

// ErrNotFound is returned when no report exists for a job ID.
var ErrNotFound = errors.New("report not found")

// Report describes one finished job.
type Report struct {
	JobID       string             `json:"job_id"`
	Host        string             `json:"host,omitempty"`
	Config      rangefill.Config   `json:"config"`
	Settings    Settings           `json:"settings"`
	Extents     []rangefill.Extent `json:"extents,omitempty"`
	Result      Result             `json:"result"`
	StartedAt   time.Time          `json:"started_at"`
	CompletedAt time.Time          `json:"completed_at"`
}

// Settings records the run options that shaped a job.
type Settings struct {
	Allocation string `json:"allocation"`
	RateLimit  int64  `json:"rate_limit"`
	Sync       bool   `json:"sync"`
	Interval   string `json:"interval"`
	Turbo      bool   `json:"turbo,omitempty"`
}

// Result is the outcome of a job.
type Result struct {
	Succeeded    bool    `json:"succeeded"`
	BytesWritten int64   `json:"bytes_written"`
	ElapsedNanos int64   `json:"elapsed_ns"`
	FinalSpeed   float64 `json:"final_speed"`
	AverageSpeed float64 `json:"average_speed"`
	PeakSpeed    float64 `json:"peak_speed"`
	Efficiency   float64 `json:"efficiency"`
	Operations   int64   `json:"operations"`
	Error        string  `json:"error,omitempty"`
}

// Elapsed returns the job duration.
func (r Result) Elapsed() time.Duration {
	return time.Duration(r.ElapsedNanos)
}

// New builds a report from a finished job.
func New(jobID string, cfg rangefill.Config, opts rangefill.Options, extents []rangefill.Extent, sum rangefill.Summary, startedAt time.Time) *Report {
	host, _ := os.Hostname()

	interval := opts.Interval
	if interval <= 0 {
		interval = rangefill.DefaultInterval
	}

	r := &Report{
		JobID:  jobID,
		Host:   host,
		Config: cfg,
		Settings: Settings{
			Allocation: opts.Allocation.String(),
			RateLimit:  opts.RateLimit,
			Sync:       opts.Sync,
			Interval:   interval.String(),
		},
		Extents: extents,
		Result: Result{
			Succeeded:    sum.Succeeded,
			BytesWritten: sum.BytesWritten,
			ElapsedNanos: int64(sum.Elapsed),
			FinalSpeed:   sum.FinalSpeed,
			AverageSpeed: sum.AverageSpeed,
			PeakSpeed:    sum.PeakSpeed,
			Efficiency:   sum.Efficiency,
			Operations:   sum.Operations,
		},
		StartedAt:   startedAt.UTC(),
		CompletedAt: startedAt.Add(sum.Elapsed).UTC(),
	}
	if sum.Err != nil {
		r.Result.Error = sum.Err.Error()
	}
	return r
}

// Store reads and writes reports in a bucket.
type Store struct {
	bucket *blob.Bucket
	prefix string
	owned  bool
}

// Option configures a Store.
type Option func(*Store)

// WithPrefix sets the key prefix. It should end with "/".
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// Open opens the bucket at bucketURL. The caller must Close the store.
func Open(ctx context.Context, bucketURL string, options ...Option) (*Store, error) {
	bucket, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return nil, fmt.Errorf("report: open bucket: %w", err)
	}
	s := NewStore(bucket, options...)
	s.owned = true
	return s, nil
}

// NewStore wraps an open bucket. Closing the store leaves the bucket open.
func NewStore(bucket *blob.Bucket, options ...Option) *Store {
	s := &Store{bucket: bucket, prefix: DefaultPrefix}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// Key returns the object key for a job ID.
func (s *Store) Key(jobID string) string {
	return s.prefix + jobID + ".json"
}

// Save writes r and returns its key.
func (s *Store) Save(ctx context.Context, r *Report) (string, error) {
	if r.JobID == "" {
		return "", errors.New("report: job ID is required")
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("report: marshal: %w", err)
	}
	key := s.Key(r.JobID)
	opts := &blob.WriterOptions{ContentType: "application/json"}
	if err := s.bucket.WriteAll(ctx, key, data, opts); err != nil {
		return "", fmt.Errorf("report: write %s: %w", key, err)
	}
	return key, nil
}

// Load reads the report for jobID. It returns an error wrapping ErrNotFound
// if none exists.
func (s *Store) Load(ctx context.Context, jobID string) (*Report, error) {
	key := s.Key(jobID)
	data, err := s.bucket.ReadAll(ctx, key)
	if err != nil {
		if isNotExist(err) {
			return nil, fmt.Errorf("report: %s: %w", key, ErrNotFound)
		}
		return nil, fmt.Errorf("report: read %s: %w", key, err)
	}

	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("report: unmarshal %s: %w", key, err)
	}
	return &r, nil
}

// List returns the job IDs of all stored reports in lexical order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	var ids []string
	iter := s.bucket.List(&blob.ListOptions{Prefix: s.prefix})
	for {
		obj, err := iter.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("report: list: %w", err)
		}
		if obj.IsDir || !strings.HasSuffix(obj.Key, ".json") {
			continue
		}
		id := strings.TrimSuffix(strings.TrimPrefix(obj.Key, s.prefix), ".json")
		if id == "" || strings.Contains(id, "/") {
			continue
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Delete removes the report for jobID.
func (s *Store) Delete(ctx context.Context, jobID string) error {
	key := s.Key(jobID)
	if err := s.bucket.Delete(ctx, key); err != nil {
		if isNotExist(err) {
			return fmt.Errorf("report: %s: %w", key, ErrNotFound)
		}
		return fmt.Errorf("report: delete %s: %w", key, err)
	}
	return nil
}

// Close closes the bucket if the store opened it.
func (s *Store) Close() error {
	if s.owned {
		return s.bucket.Close()
	}
	return nil
}

func isNotExist(err error) bool {
	return gcerrors.Code(err) == gcerrors.NotFound
}
