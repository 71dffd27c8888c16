package test

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/pkg/errors"

	_ "github.com/jackc/pgx/v4/stdlib"

	"github.com/code-payments/code-nft-issuer/pkg/retry"
	"github.com/code-payments/code-nft-issuer/pkg/retry/backoff"
)

const (
	image    = "postgres"
	tag      = "14"
	expiry   = 120 * time.Second
	port     = "5432/tcp"
	user     = "issuer"
	password = "issuerpassword"
	dbname   = "issuertest"
)

// StartPostgresDB runs a throwaway postgres container and returns a client
// connected to it. The container is removed once stopped, and expires on its
// own after a couple of minutes if the caller never stops it.
func StartPostgresDB(pool *dockertest.Pool) (*sql.DB, func(), error) {
	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: image,
		Tag:        tag,
		Env: []string{
			"POSTGRES_USER=" + user,
			"POSTGRES_PASSWORD=" + password,
			"POSTGRES_DB=" + dbname,
		},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		return nil, func() {}, errors.Wrap(err, "failed to start postgres container")
	}

	closeFunc := func() {
		_ = pool.Purge(resource)
	}

	_ = resource.Expire(uint(expiry.Seconds()))

	url := fmt.Sprintf("postgres://%s:%s@%s/%s?sslmode=disable", user, password, resource.GetHostPort(port), dbname)

	var db *sql.DB
	_, err = retry.Retry(
		func() error {
			db, err = sql.Open("pgx", url)
			if err != nil {
				return err
			}
			return db.Ping()
		},
		retry.Limit(50),
		retry.Backoff(backoff.Constant(500*time.Millisecond), 500*time.Millisecond),
	)
	if err != nil {
		closeFunc()
		return nil, func() {}, errors.Wrap(err, "timed out waiting for postgres container")
	}

	return db, closeFunc, nil
}
