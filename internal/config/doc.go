// Package config handles configuration loading, parsing, and validation
// from a config file and SCRY_ environment variables. It provides type-safe
// access to the settings of the bot, the scheduler and the database while
// keeping configuration details separate from business logic.
package config
