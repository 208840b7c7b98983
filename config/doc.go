// Package config handles loading and parsing of configuration from YAML files
// and environment variables. It defines the relay configuration structure:
// server settings, the ordered execution node list, selection policy,
// per-node timeout, health check interval and circuit breaker tuning.
package config
