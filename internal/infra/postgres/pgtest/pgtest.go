// Package pgtest は pgvector 入りの PostgreSQL コンテナを使う統合テスト用ヘルパーです。
package pgtest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/require"
)

// Start は pgvector 入りの PostgreSQL コンテナを起動し、接続プールを返します。
// short モード、または Docker が利用できない環境ではテストをスキップします。
// スキーマは適用しないため、呼び出し側で postgres.ApplySchema を実行してください。
func Start(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("integration test skipped in short mode")
	}

	dockerPool, err := dockertest.NewPool("")
	if err != nil {
		t.Skipf("docker is not available: %v", err)
	}
	if err := dockerPool.Client.Ping(); err != nil {
		t.Skipf("docker is not reachable: %v", err)
	}

	resource, err := dockerPool.RunWithOptions(&dockertest.RunOptions{
		Repository: "pgvector/pgvector",
		Tag:        "pg16",
		Env: []string{
			"POSTGRES_USER=postgres",
			"POSTGRES_PASSWORD=postgres",
			"POSTGRES_DB=ram_engine",
		},
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = dockerPool.Purge(resource)
	})
	_ = resource.Expire(120)

	dsn := fmt.Sprintf("postgres://postgres:postgres@%s/ram_engine?sslmode=disable", resource.GetHostPort("5432/tcp"))

	var pool *pgxpool.Pool
	dockerPool.MaxWait = 60 * time.Second
	err = dockerPool.Retry(func() error {
		p, err := pgxpool.New(context.Background(), dsn)
		if err != nil {
			return err
		}
		if err := p.Ping(context.Background()); err != nil {
			p.Close()
			return err
		}
		pool = p
		return nil
	})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	return pool
}
