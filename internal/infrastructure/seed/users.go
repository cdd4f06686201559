// Package seed creates the accounts listed in a YAML users file on startup.
package seed

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/earnings-tracker/ledger-api/internal/core/domain"
)

// UserEnsurer creates an account unless its email is already registered.
type UserEnsurer interface {
	EnsureUser(ctx context.Context, email, password, name, role string, mustChange bool) (bool, error)
}

// UsersFile is the on-disk format:
//
//	users:
//	  - email: root@example.com
//	    password: change-me
//	    name: Root
//	    role: admin
//	    mustChangePassword: true
type UsersFile struct {
	Users []SeedUser `yaml:"users"`
}

type SeedUser struct {
	Email              string `yaml:"email"`
	Password           string `yaml:"password"`
	Name               string `yaml:"name"`
	Role               string `yaml:"role"`
	MustChangePassword bool   `yaml:"mustChangePassword"`
}

// FromFile seeds every user in path. Existing accounts are left untouched,
// so running it on every start is safe. Entries without email or password
// are skipped with a warning.
func FromFile(ctx context.Context, path string, users UserEnsurer, log zerolog.Logger) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read users file: %w", err)
	}
	var uf UsersFile
	if err := yaml.Unmarshal(data, &uf); err != nil {
		return 0, fmt.Errorf("parse users file %s: %w", path, err)
	}

	created := 0
	for i, u := range uf.Users {
		if u.Email == "" || u.Password == "" {
			log.Warn().Int("entry", i).Msg("seed entry without email or password skipped")
			continue
		}
		role := u.Role
		if role == "" {
			role = domain.RoleUser
		}
		ok, err := users.EnsureUser(ctx, u.Email, u.Password, u.Name, role, u.MustChangePassword)
		if err != nil {
			return created, fmt.Errorf("seed %s: %w", u.Email, err)
		}
		if ok {
			created++
			log.Info().Str("email", u.Email).Str("role", role).Msg("seeded user")
		}
	}
	return created, nil
}
