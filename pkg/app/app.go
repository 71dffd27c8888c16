package app

import (
	"os"
	"strings"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/code-payments/code-nft-issuer/pkg/metrics"
)

// Load reads the base configuration from the config file at configPath, if
// one exists, and the environment.
func Load(configPath string) (*BaseConfig, error) {
	// viper.ReadInConfig only returns ConfigFileNotFoundError if it has to search
	// for a default config file because one hasn't been explicitly set. That is,
	// if we explicitly set a config file, and it does not exist, viper will not
	// return a ConfigFileNotFoundError, so we do it ourselves.
	if len(configPath) > 0 {
		if _, err := os.Stat(configPath); err == nil {
			viper.SetConfigFile(configPath)
		} else if !os.IsNotExist(err) {
			return nil, errors.Wrap(err, "failed to check if config exists")
		}
	}

	err := viper.ReadInConfig()
	_, isConfigNotFound := err.(viper.ConfigFileNotFoundError)
	if err != nil && !isConfigNotFound {
		return nil, errors.Wrap(err, "failed to load config")
	}

	config := defaultConfig
	if err := viper.Unmarshal(&config); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}

	if len(config.AppName) == 0 {
		return nil, errors.New("must specify an application name")
	}

	return &config, nil
}

// NewMetricsProvider connects to New Relic when a license key is configured.
// A nil application is returned otherwise, which every recorder in the
// metrics package treats as a no-op.
func NewMetricsProvider(config *BaseConfig) (*newrelic.Application, error) {
	// todo: Better abstraction so we're not directly tied to NR
	if len(config.NewRelicLicenseKey) == 0 {
		return nil, nil
	}

	nr, err := newrelic.NewApplication(
		newrelic.ConfigFromEnvironment(),
		newrelic.ConfigAppName(config.AppName),
		newrelic.ConfigLicense(config.NewRelicLicenseKey),
		newrelic.ConfigDistributedTracerEnabled(true),
		newrelic.ConfigAppLogForwardingEnabled(true),
	)
	if err != nil {
		return nil, errors.Wrap(err, "error connecting to new relic")
	}
	return nr, nil
}

// ConfigureLogger sets up the standard logrus logger.
func ConfigureLogger(config *BaseConfig, metricsProvider *newrelic.Application) {
	if metricsProvider != nil {
		logrus.SetFormatter(metrics.NewCustomNewRelicLogFormatter(metricsProvider, &logrus.JSONFormatter{}))
	} else {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}

	level, err := logrus.ParseLevel(strings.ToLower(config.LogLevel))
	if err != nil {
		logrus.StandardLogger().WithField("log_level", config.LogLevel).Warn("unknown log level, ignoring")
	} else {
		logrus.SetLevel(level)
	}

	logrus.SetOutput(os.Stderr)
}
