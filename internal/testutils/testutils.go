//go:build integration

// Package testutils provides shared test infrastructure for integration tests
// that store run reports in S3-compatible object storage.
package testutils

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	minioImage     = "minio/minio:latest"
	mcImage        = "minio/mc:latest"
	minioAlias     = "minio"
	minioUser      = "minioadmin"
	minioPassword  = "minioadmin"
	minioPort      = "9000"
	startupTimeout = 2 * time.Minute
)

// Minio is a running MinIO server holding one empty bucket.
type Minio struct {
	// BucketURL opens the bucket with gocloud.dev/blob/s3blob.
	BucketURL string
	// Endpoint is the host:port the server is reachable on.
	Endpoint string

	container testcontainers.Container
}

// Close terminates the server.
func (m *Minio) Close(ctx context.Context) error {
	if m.container == nil {
		return nil
	}
	return m.container.Terminate(ctx)
}

// StartMinioContainer starts MinIO, creates bucketName and points the AWS
// credential environment of the test at it.
func StartMinioContainer(t *testing.T, ctx context.Context, bucketName string) *Minio {
	t.Helper()

	network := fmt.Sprintf("filecreator-minio-%d", time.Now().UnixNano())
	nw, err := testcontainers.GenericNetwork(ctx, testcontainers.GenericNetworkRequest{
		NetworkRequest: testcontainers.NetworkRequest{Name: network},
	})
	if err != nil {
		t.Fatalf("create network: %v", err)
	}
	t.Cleanup(func() { nw.Remove(context.Background()) })

	server, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:          minioImage,
			ExposedPorts:   []string{minioPort + "/tcp"},
			Networks:       []string{network},
			NetworkAliases: map[string][]string{network: {minioAlias}},
			Env: map[string]string{
				"MINIO_ROOT_USER":     minioUser,
				"MINIO_ROOT_PASSWORD": minioPassword,
			},
			Cmd: []string{"server", "/data"},
			WaitingFor: wait.ForHTTP("/minio/health/ready").
				WithPort(minioPort).
				WithStartupTimeout(startupTimeout),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("start minio: %v", err)
	}

	makeBucket(t, ctx, network, bucketName)

	host, err := server.Host(ctx)
	if err != nil {
		t.Fatalf("minio host: %v", err)
	}
	port, err := server.MappedPort(ctx, minioPort)
	if err != nil {
		t.Fatalf("minio port: %v", err)
	}
	endpoint := host + ":" + port.Port()

	// s3blob picks up credentials from the environment.
	t.Setenv("AWS_ACCESS_KEY_ID", minioUser)
	t.Setenv("AWS_SECRET_ACCESS_KEY", minioPassword)

	return &Minio{
		BucketURL: fmt.Sprintf("s3://%s?endpoint=http://%s&use_path_style=true&disable_https=true&region=us-east-1",
			bucketName, endpoint),
		Endpoint:  endpoint,
		container: server,
	}
}

// makeBucket runs a one-shot mc container on the same network.
func makeBucket(t *testing.T, ctx context.Context, network, bucketName string) {
	t.Helper()

	script := fmt.Sprintf("mc alias set %[1]s http://%[1]s:%[2]s %[3]s %[4]s && mc mb --ignore-existing %[1]s/%[5]s",
		minioAlias, minioPort, minioUser, minioPassword, bucketName)

	mc, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:      mcImage,
			Networks:   []string{network},
			Entrypoint: []string{"/bin/sh", "-c"},
			Cmd:        []string{script},
			WaitingFor: wait.ForExit().WithExitTimeout(startupTimeout),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("create bucket %s: %v", bucketName, err)
	}
	defer mc.Terminate(context.Background())

	state, err := mc.State(ctx)
	if err != nil {
		t.Fatalf("mc state: %v", err)
	}
	if state.ExitCode != 0 {
		t.Fatalf("mc exited with code %d", state.ExitCode)
	}
}
