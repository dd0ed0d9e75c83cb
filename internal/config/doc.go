// Package config provides centralized configuration management for psconvert.
// It handles loading configuration from multiple sources, validation, and provides
// a type-safe API for accessing configuration values throughout the application.
//
// # Configuration Sources
//
// Configuration is layered in the following order, later sources winning:
//
//	1. Default() values
//	2. YAML file (--config, or psconvert.yaml / configs/psconvert.yaml)
//	3. Environment variables
//
// # Environment Variables
//
// All environment variables follow the pattern PSCONVERT_<SECTION>_<FIELD>:
//
//	PSCONVERT_PARSER_ENCODING=utf-16
//	PSCONVERT_PARSER_DELIMITER=;
//	PSCONVERT_PARSER_DECIMAL_SEPARATOR=comma
//	PSCONVERT_EXPORT_FORMAT=csv
//	PSCONVERT_LOGGING_LEVEL=debug
//	PSCONVERT_SERVER_ADDR=:9000
//
// # Validation
//
// Every field carries a validate tag checked by go-playground/validator at load
// time. A failed check is reported as a CONFIG AppError naming each field.
package config
