// Package config loads typed application configuration from environment
// variables, wrapping github.com/joho/godotenv and github.com/caarlos0/env.
//
// Define a struct with `env` tags and hand a pointer to Load:
//
//	type ServerConfig struct {
//		Addr string `env:"HTTP_ADDR" envDefault:":8080"`
//	}
//
//	var cfg ServerConfig
//	config.MustLoad(&cfg)
//
// Each configuration type is parsed once per process and cached, so any
// number of packages can load the same type without re-reading the
// environment. Reset clears the cache between tests.
package config
