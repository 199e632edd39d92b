package utils

import (
	"context"
	"strings"
)

type configurationFileContextKey struct{}

// WithConfigurationFile records the configuration file a command was configured from.
// A blank path leaves the context unchanged.
func WithConfigurationFile(parentContext context.Context, configurationFilePath string) context.Context {
	if parentContext == nil {
		parentContext = context.Background()
	}
	trimmedPath := strings.TrimSpace(configurationFilePath)
	if len(trimmedPath) == 0 {
		return parentContext
	}
	return context.WithValue(parentContext, configurationFileContextKey{}, trimmedPath)
}

// ConfigurationFile reports the configuration file recorded by WithConfigurationFile.
func ConfigurationFile(executionContext context.Context) (string, bool) {
	if executionContext == nil {
		return "", false
	}
	configurationFilePath, recorded := executionContext.Value(configurationFileContextKey{}).(string)
	return configurationFilePath, recorded
}
