// Package config holds the runtime configuration: storage locations,
// scanner invocation settings, and mail transport credentials. Values come
// from defaults, an optional YAML file, environment variables for secrets,
// and finally CLI flags, in that order of increasing precedence.
package config
