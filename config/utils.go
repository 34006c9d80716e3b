package config

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

// toScreamingSnakeCase converts a string to SCREAMING_SNAKE_CASE.
// For example, "KeyBits" becomes "KEY_BITS" and "HTTPAddr" becomes "HTTP_ADDR".
func toScreamingSnakeCase(s string) string {
	s = matchFirstCap.ReplaceAllString(s, "${1}_${2}")
	s = matchAllCap.ReplaceAllString(s, "${1}_${2}")

	return strings.ToUpper(s)
}

// loadDotEnv reads KEY=VALUE lines from path into the process environment.
// Variables already present in the environment win over the file.
// A missing file is not an error.
func loadDotEnv(path string) error {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}

		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)

	line := 0

	for scanner.Scan() {
		line++

		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		text = strings.TrimPrefix(text, "export ")

		parts := strings.SplitN(text, "=", DotEnvKVParts)
		if len(parts) != DotEnvKVParts || strings.TrimSpace(parts[0]) == "" {
			return fmt.Errorf("%w: line %d", ErrInvalidDotEnvFileFormat, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.Trim(strings.TrimSpace(parts[1]), `"'`)

		if _, exists := os.LookupEnv(key); exists {
			continue
		}

		if err := os.Setenv(key, value); err != nil {
			return err
		}
	}

	return scanner.Err()
}
