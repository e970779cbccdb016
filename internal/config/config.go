// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

// Package config loads the tpool command's defaults from the environment. A
// .env file in the working directory is loaded first if present.
package config

import (
	"os"
	"runtime"
	"strconv"
	"strings"

	_ "github.com/joho/godotenv/autoload"
)

// Config holds the command's defaults. Command-line flags override them.
type Config struct {
	Pool   PoolConfig
	Vector VectorConfig
	Log    LogConfig
}

type PoolConfig struct {
	// Threads defaults to GOMAXPROCS.
	Threads      int
	LockOSThread bool
}

type VectorConfig struct {
	Size  int
	Value float64
	// Repeat is the number of times the reduction is run.
	Repeat int
	// Costs is the workload used by the simulate command.
	Costs []int
}

type LogConfig struct {
	Level string
	File  string
}

// Load reads configuration from environment variables, falling back to
// defaults for anything unset or malformed.
func Load() *Config {
	return &Config{
		Pool: PoolConfig{
			Threads:      getEnvInt("TPOOL_THREADS", runtime.GOMAXPROCS(0)),
			LockOSThread: getEnvBool("TPOOL_LOCK_OS_THREAD", false),
		},
		Vector: VectorConfig{
			Size:   getEnvInt("TPOOL_VECTOR_SIZE", 1_000_000),
			Value:  getEnvFloat("TPOOL_VECTOR_VALUE", 1.0),
			Repeat: getEnvInt("TPOOL_REPEAT", 1),
			Costs:  getEnvInts("TPOOL_COSTS", []int{5, 1, 1, 1, 1, 1, 1, 1}),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
			File:  getEnv("LOG_FILE", ""),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvInts(key string, defaultValue []int) []int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	ints, err := ParseInts(value)
	if err != nil {
		return defaultValue
	}
	return ints
}

// ParseInts parses a comma-separated list of integers. Blank entries are
// skipped.
func ParseInts(s string) ([]int, error) {
	var ints []int
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		n, err := strconv.Atoi(field)
		if err != nil {
			return nil, err
		}
		ints = append(ints, n)
	}
	return ints, nil
}
