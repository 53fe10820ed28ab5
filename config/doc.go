// Package config loads and validates flowkit service configuration.
//
// Configuration comes from a YAML file plus environment variables, with env
// taking precedence. A .env file, when present, is loaded before binding so
// local development matches deployed behavior.
package config
