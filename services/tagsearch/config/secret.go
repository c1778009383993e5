// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/awnumar/memguard"
)

// ErrNoAPIKey is returned when neither the environment nor the secrets
// directory provides a key.
var ErrNoAPIKey = errors.New("api key not found")

// Secret holds a credential encrypted in memory until it is used.
//
// Thread Safety: Safe for concurrent use.
type Secret struct {
	enclave *memguard.Enclave
}

// NewSecret seals value into a memguard enclave. value is wiped.
func NewSecret(value []byte) (*Secret, error) {
	if len(value) == 0 {
		return nil, ErrNoAPIKey
	}
	return &Secret{enclave: memguard.NewEnclave(value)}, nil
}

// Use decrypts the secret and passes a copy of it to fn. The decrypted
// buffer is destroyed when fn returns.
func (s *Secret) Use(fn func(value string) error) error {
	if s == nil || s.enclave == nil {
		return ErrNoAPIKey
	}
	buf, err := s.enclave.Open()
	if err != nil {
		return fmt.Errorf("open secret: %w", err)
	}
	defer buf.Destroy()
	return fn(string(buf.Bytes()))
}

// ResolveAPIKey loads the backend API key.
//
// Description:
//
//	Reads the environment variable from EnvVar, falling back to the file
//	SecretName under Credentials.SecretsDir. Surrounding whitespace is
//	trimmed. Backends without credentials return (nil, nil).
//
// Outputs:
//
//	*Secret - The sealed key, or nil when none is needed.
//	error - ErrNoAPIKey when the backend needs a key and none was found.
func (c Config) ResolveAPIKey() (*Secret, error) {
	if !c.Generator.RequiresAPIKey() {
		return nil, nil
	}
	if v := strings.TrimSpace(os.Getenv(c.EnvVar())); v != "" {
		return NewSecret([]byte(v))
	}

	path := filepath.Join(c.Credentials.SecretsDir, c.SecretName())
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("%w: set %s or create %s", ErrNoAPIKey, c.EnvVar(), path)
	case err != nil:
		return nil, fmt.Errorf("read secret %s: %w", path, err)
	}
	defer memguard.WipeBytes(data)

	trimmed := []byte(strings.TrimSpace(string(data)))
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrNoAPIKey, path)
	}
	return NewSecret(trimmed)
}
