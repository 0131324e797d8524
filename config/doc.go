// Package config provides the configuration of the assistant,
// and creates the model client and the Assistant from it.
package config
