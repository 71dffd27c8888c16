package main

import (
	"context"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws/external"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/code-payments/code-nft-issuer/pkg/app"
	pg "github.com/code-payments/code-nft-issuer/pkg/database/postgres"
	"github.com/code-payments/code-nft-issuer/pkg/metrics"
	"github.com/code-payments/code-nft-issuer/pkg/nft"
	"github.com/code-payments/code-nft-issuer/pkg/nft/data/issuance"
	memory_issuance_store "github.com/code-payments/code-nft-issuer/pkg/nft/data/issuance/memory"
	postgres_issuance_store "github.com/code-payments/code-nft-issuer/pkg/nft/data/issuance/postgres"
	"github.com/code-payments/code-nft-issuer/pkg/solana"
	"github.com/code-payments/code-nft-issuer/pkg/solana/localnet"
)

const metricsShutdownTimeout = 5 * time.Second

// environment is the state shared by every command, resolved once the flags
// are parsed.
type environment struct {
	configPath  string
	rpcEndpoint string
	logLevel    string

	log             *logrus.Entry
	config          *app.BaseConfig
	metricsProvider *newrelic.Application
	endTransaction  func()
}

func (env *environment) init(cmd *cobra.Command, _ []string) error {
	config, err := app.Load(env.configPath)
	if err != nil {
		return err
	}

	if len(env.rpcEndpoint) > 0 {
		config.RpcEndpoint = env.rpcEndpoint
	}
	config.RpcEndpoint = resolveEndpoint(config.RpcEndpoint)
	if len(env.logLevel) > 0 {
		config.LogLevel = env.logLevel
	}

	metricsProvider, err := app.NewMetricsProvider(config)
	if err != nil {
		return err
	}

	app.ConfigureLogger(config, metricsProvider)

	env.log = logrus.StandardLogger().WithField("type", "cmd/nft-issuer")
	env.config = config
	env.metricsProvider = metricsProvider

	ctx, endTransaction := metrics.NewContext(commandContext(cmd), metricsProvider, cmd.CommandPath())
	env.endTransaction = endTransaction
	cmd.SetContext(ctx)
	return nil
}

// close ends the command's transaction and flushes pending telemetry.
func (env *environment) close() {
	if env.endTransaction != nil {
		env.endTransaction()
	}
	if env.metricsProvider != nil {
		env.metricsProvider.Shutdown(metricsShutdownTimeout)
	}
}

// client returns the ledger transactions are submitted to. The in-process
// ledger lives only as long as the command.
func (env *environment) client(local bool) solana.Client {
	if local {
		env.log.Debug("using in-process ledger")
		return localnet.New()
	}

	env.log.WithField("endpoint", env.config.RpcEndpoint).Debug("using rpc ledger")
	return solana.New(env.config.RpcEndpoint)
}

// store returns the issuance record store. Records are kept in memory, and
// lost on exit, unless a database is configured.
func (env *environment) store() (issuance.Store, error) {
	db := env.config.Database
	if !db.IsConfigured() {
		env.log.Debug("no database configured, issuance records are not persisted")
		return memory_issuance_store.New(), nil
	}

	log := env.log.WithFields(logrus.Fields{
		"host": db.Host,
		"name": db.Name,
	})

	if db.UseAwsIam {
		awsConfig, err := external.LoadDefaultAWSConfig()
		if err != nil {
			return nil, errors.Wrap(err, "error loading aws config")
		}

		conn, err := pg.NewWithAwsIam(db.User, db.Host, db.Port, db.Name, awsConfig)
		if err != nil {
			log.WithError(err).Warn("failure connecting to database with aws iam")
			return nil, errors.Wrap(err, "error connecting to database")
		}
		return postgres_issuance_store.New(conn), nil
	}

	conn, err := pg.NewWithUsernameAndPassword(db.User, db.Password, db.Host, db.Port, db.Name)
	if err != nil {
		log.WithError(err).Warn("failure connecting to database")
		return nil, errors.Wrap(err, "error connecting to database")
	}
	return postgres_issuance_store.New(conn), nil
}

func (env *environment) issuer(sc solana.Client) (*nft.Issuer, error) {
	records, err := env.store()
	if err != nil {
		return nil, err
	}
	return nft.NewIssuer(sc, records, nft.WithEnvConfigs()), nil
}

// resolveEndpoint expands cluster monikers into their public RPC endpoints.
func resolveEndpoint(value string) string {
	switch strings.ToLower(value) {
	case "l", "local", "localhost":
		return string(solana.EnvironmentLocal)
	case "d", "dev", "devnet":
		return string(solana.EnvironmentDev)
	case "t", "test", "testnet":
		return string(solana.EnvironmentTest)
	case "m", "main", "mainnet", "mainnet-beta":
		return string(solana.EnvironmentProd)
	}
	return value
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
