package env

import (
	"fmt"
	"os"
	"regexp"

	"github.com/joho/godotenv"
)

var secretPattern = regexp.MustCompile(`\{\{\$([A-Za-z_][A-Za-z0-9_]*)\}\}`)

// LoadDotEnv parses a .env file and returns key-value pairs.
// Values are not exported to the process environment.
func LoadDotEnv(path string) (map[string]string, error) {
	vars, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read env file: %w", err)
	}
	return vars, nil
}

// Secrets looks up {{$NAME}} references, first in values loaded from a .env
// file and then in the process environment.
type Secrets struct {
	values map[string]string
}

func NewSecrets(values map[string]string) *Secrets {
	if values == nil {
		values = make(map[string]string)
	}
	return &Secrets{values: values}
}

func (s *Secrets) Lookup(name string) (string, bool) {
	if s != nil {
		if v, ok := s.values[name]; ok {
			return v, true
		}
	}
	return os.LookupEnv(name)
}

// Expand replaces {{$NAME}} references in input. References that cannot be
// found are left as-is and reported to warn when it is non-nil.
func (s *Secrets) Expand(input string, warn WarnFunc) string {
	return secretPattern.ReplaceAllStringFunc(input, func(match string) string {
		name := secretPattern.FindStringSubmatch(match)[1]
		if v, ok := s.Lookup(name); ok {
			return v
		}
		if warn != nil {
			warn("unresolved secret: $%s", name)
		}
		return match
	})
}
