// Package utils hosts the configuration and logging plumbing shared by labkit commands.
//
// ConfigurationLoader layers embedded defaults, dotenv files, configuration files
// and LABKIT_ environment variables through Viper. LoggerFactory builds zap
// loggers in structured or console form.
package utils
