package gologger

import (
	"strings"

	job "github.com/goliatone/go-job"
	glog "github.com/goliatone/go-logger/glog"
)

// LoggerName is the root logger name used by ledger components.
const LoggerName = "ledger"

// Resolve uses deterministic precedence provider > logger > nop. An empty
// name resolves to LoggerName.
func Resolve(name string, provider glog.LoggerProvider, logger glog.Logger) (glog.LoggerProvider, glog.Logger) {
	return glog.Resolve(loggerName(name), provider, logger)
}

// Component resolves a logger for a ledger sub-component, e.g. "relay"
// becomes "ledger.relay".
func Component(component string, provider glog.LoggerProvider, logger glog.Logger) glog.Logger {
	_, resolved := Resolve(componentName(component), provider, logger)
	return resolved
}

// ToJobProvider maps a glog provider to the go-job logger provider contract.
func ToJobProvider(provider glog.LoggerProvider) job.LoggerProvider {
	if provider == nil {
		return nil
	}
	return job.GoLoggerProvider(provider)
}

// ToJobLogger maps a glog logger to the go-job logger contract.
func ToJobLogger(logger glog.Logger) job.Logger {
	if logger == nil {
		return nil
	}
	return job.GoLogger(logger)
}

// ResolveForJob resolves glog logger/provider for a queue component then
// returns the equivalent go-job adapters.
func ResolveForJob(
	component string,
	provider glog.LoggerProvider,
	logger glog.Logger,
) (glog.LoggerProvider, glog.Logger, job.LoggerProvider, job.Logger) {
	resolvedProvider, resolvedLogger := Resolve(componentName(component), provider, logger)
	return resolvedProvider, resolvedLogger, ToJobProvider(resolvedProvider), ToJobLogger(resolvedLogger)
}

func loggerName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return LoggerName
	}
	return name
}

func componentName(component string) string {
	component = strings.Trim(strings.TrimSpace(component), ".")
	if component == "" || component == LoggerName {
		return LoggerName
	}
	if strings.HasPrefix(component, LoggerName+".") {
		return component
	}
	return LoggerName + "." + component
}
