package app

import (
	"github.com/spf13/viper"
)

// BaseConfig contains the configuration shared by the issuer commands.
type BaseConfig struct {
	LogLevel string `mapstructure:"log_level"`

	AppName string `mapstructure:"app_name"`

	// RpcEndpoint is the Solana JSON RPC endpoint transactions are submitted
	// to. It is ignored when running against the in-process ledger.
	RpcEndpoint string `mapstructure:"rpc_endpoint"`

	// Keypair is an optional URL to the creator keypair file.
	//
	// Currently only the file scheme is supported. If no scheme is specified,
	// file is used.
	Keypair string `mapstructure:"keypair"`

	// Database configures the issuance record store. Records are kept in
	// memory when no host is set.
	Database DatabaseConfig `mapstructure:"database"`

	// Metrics configuration across many providers
	NewRelicLicenseKey string `mapstructure:"new_relic_license_key"`
}

// DatabaseConfig configures the postgres issuance record store.
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`

	// UseAwsIam authenticates with an RDS IAM token instead of a password.
	UseAwsIam bool `mapstructure:"use_aws_iam"`
}

// IsConfigured returns whether a postgres database was configured.
func (c DatabaseConfig) IsConfigured() bool {
	return len(c.Host) > 0
}

var defaultConfig = BaseConfig{
	LogLevel: "info",

	AppName: "nft-issuer",

	RpcEndpoint: "http://localhost:8899",

	Database: DatabaseConfig{
		Port: "5432",
	},
}

func init() {
	_ = viper.BindEnv("log_level", "LOG_LEVEL")

	_ = viper.BindEnv("app_name", "APP_NAME")

	_ = viper.BindEnv("rpc_endpoint", "SOLANA_RPC_ENDPOINT")
	_ = viper.BindEnv("keypair", "CREATOR_KEYPAIR")

	_ = viper.BindEnv("database.host", "DB_HOST")
	_ = viper.BindEnv("database.port", "DB_PORT")
	_ = viper.BindEnv("database.user", "DB_USER")
	_ = viper.BindEnv("database.password", "DB_PASSWORD")
	_ = viper.BindEnv("database.name", "DB_NAME")
	_ = viper.BindEnv("database.use_aws_iam", "DB_USE_AWS_IAM")

	_ = viper.BindEnv("new_relic_license_key", "NEW_RELIC_LICENSE_KEY")
}
