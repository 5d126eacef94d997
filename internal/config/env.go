package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const defaultEnvFile = ".env"

// applyEnvFile overlays recognised keys from a .env file. The process
// environment is left untouched.
func (c *Config) applyEnvFile(path string) error {
	explicit := strings.TrimSpace(path) != ""
	if !explicit {
		path = defaultEnvFile
	}
	values, err := godotenv.Read(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read env file %s: %w", path, err)
	}
	return c.applyEnv(values)
}

func (c *Config) applyEnv(values map[string]string) error {
	get := func(key string) (string, bool) {
		v, ok := values[key]
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	if v, ok := get("GROQ_API_KEY"); ok {
		c.Transcription.APIKey = v
	}
	if v, ok := get("MODEL"); ok {
		c.Transcription.Model = v
	}
	if v, ok := get("LANGUAGE"); ok {
		c.Transcription.Language = v
	}
	if v, ok := get("RESPONSE_FORMAT"); ok {
		c.Transcription.ResponseFormat = v
	}
	if v, ok := get("PROMPT"); ok {
		c.Transcription.Prompt = v
	}
	if v, ok := get("TEMPERATURE"); ok {
		temp, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("env TEMPERATURE: %w", err)
		}
		c.Transcription.Temperature = &temp
	}
	if v, ok := get("OUTPUT_FORMAT"); ok {
		c.Output.Format = v
	}
	if v, ok := get("NUM_WORKERS"); ok {
		workers, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("env NUM_WORKERS: %w", err)
		}
		c.Batch.Workers = workers
	}
	if v, ok := get("RECURSIVE"); ok {
		recursive, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("env RECURSIVE: %w", err)
		}
		c.Batch.Recursive = recursive
	}
	if v, ok := get("LOG_FILE"); ok {
		c.Logging.File = v
	}
	return nil
}

func lookupEnv(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}
