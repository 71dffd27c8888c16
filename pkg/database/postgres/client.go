package pg

import (
	"database/sql"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	"github.com/aws/aws-sdk-go-v2/service/rds/rdsutils"
	"github.com/pkg/errors"

	_ "github.com/newrelic/go-agent/v3/integrations/nrpgx"
)

// Connections go through the New Relic instrumented pgx driver
const driverName = "nrpgx"

// NewWithAwsIam opens a connection pool authenticated with an RDS IAM token.
// Only provisioned Aurora clusters support IAM authentication.
//
// https://docs.aws.amazon.com/AmazonRDS/latest/AuroraUserGuide/UsingWithRDS.IAMDBAuth.Connecting.Go.html
func NewWithAwsIam(username, hostname, port, dbname string, config aws.Config) (*sql.DB, error) {
	rdsClient := rds.New(config)

	authToken, err := rdsutils.BuildAuthToken(
		fmt.Sprintf("%s:%s", hostname, port),
		rdsClient.Region,
		username,
		rdsClient.Credentials,
	)
	if err != nil {
		return nil, errors.Wrap(err, "error building rds auth token")
	}

	return open(fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s",
		hostname, port, username, authToken, dbname,
	))
}

// NewWithUsernameAndPassword opens a connection pool using password
// authentication.
func NewWithUsernameAndPassword(username, password, hostname, port, dbname string) (*sql.DB, error) {
	// TODO: enable sslmode=verify-full once the RDS CA bundle is shipped with the binary
	return open(fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		username, password, hostname, port, dbname,
	))
}

func open(dsn string) (*sql.DB, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "error connecting to database")
	}
	return db, nil
}
