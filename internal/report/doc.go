// Package report stores run reports for file creation jobs in cloud storage.
//
// A report records what a job was asked to do, how the file was partitioned
// across workers and how the run ended. Reports are JSON objects written
// through gocloud.dev/blob, so any bucket URL it supports works as a sink:
// file:///var/lib/filecreator, s3://bucket, gs://bucket or mem:// in tests.
//
// # Storage Layout
//
//	{bucket}/{prefix}{job_id}.json
//
// The default prefix is "reports/".
//
// # Report Format
//
//	{
//	  "job_id": "5f0c6a0e-5d0b-4c1e-9a51-7f3f1d8b2c44",
//	  "host": "build-01",
//	  "config": {"path": "/data/disk.img", "size": 1073741824, "workers": 8,
//	             "buffer_size": 33554432, "fill": "zero"},
//	  "settings": {"allocation": "auto", "rate_limit": 0, "sync": false, "interval": "30ms"},
//	  "extents": [{"start": 0, "end": 134217728}, ...],
//	  "result": {"succeeded": true, "bytes_written": 1073741824, ...},
//	  "started_at": "2025-01-15T10:30:00Z",
//	  "completed_at": "2025-01-15T10:30:02Z"
//	}
package report
