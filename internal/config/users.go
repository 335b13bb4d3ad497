package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/themizzi/storecheck/internal/session"
)

// ErrNoUsers is returned when a users file defines nobody
var ErrNoUsers = errors.New("users file defines no users")

type usersFile struct {
	Users map[string]session.Credentials `yaml:"users"`
}

// LoadUsers reads the accounts the suite signs in with. An empty path
// returns a copy of defaults. Entries in the file replace defaults with the
// same key; ${VAR} references are expanded through getenv so passwords can
// stay out of the file.
func LoadUsers(path string, getenv func(string) string, defaults map[string]session.Credentials) (map[string]session.Credentials, error) {
	users := make(map[string]session.Credentials, len(defaults))
	for k, v := range defaults {
		users[k] = v
	}
	if path == "" {
		return users, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read users file: %w", err)
	}
	parsed, err := ParseUsers(data, getenv)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	for k, v := range parsed {
		users[k] = v
	}
	return users, nil
}

// ParseUsers decodes a users document:
//
//	users:
//	  standard:
//	    username: standard_user
//	    password: ${SAUCE_PASSWORD}
func ParseUsers(data []byte, getenv func(string) string) (map[string]session.Credentials, error) {
	expanded := os.Expand(string(data), getenv)

	var doc usersFile
	dec := yaml.NewDecoder(bytes.NewReader([]byte(expanded)))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("invalid users file: %w", err)
	}
	if len(doc.Users) == 0 {
		return nil, ErrNoUsers
	}

	keys := make([]string, 0, len(doc.Users))
	for k := range doc.Users {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		creds := doc.Users[k]
		if creds.Username == "" {
			return nil, fmt.Errorf("users.%s.username is required", k)
		}
		if creds.Password == "" {
			return nil, fmt.Errorf("users.%s.password is required", k)
		}
	}
	return doc.Users, nil
}
