// Package store keeps saved programs and user accounts in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"

	"github.com/agileandy/bbcbasic/pkg/configuration"
	"github.com/agileandy/bbcbasic/pkg/logger"
)

var (
	// ErrNotFound is returned when a program or user does not exist.
	ErrNotFound = errors.New("not found")
	// ErrUserExists is returned by CreateUser for a taken name.
	ErrUserExists = errors.New("username already taken")
	// ErrInvalidCredentials is returned by Authenticate for an unknown
	// user or a wrong password.
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// ProgramInfo describes a saved program without its source.
type ProgramInfo struct {
	ID        string
	Name      string
	Size      int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Store is a program library backed by a SQLite database.
type Store struct {
	db          *sql.DB
	hashCost    int
	minPassword int
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	// modernc sqlite serialises writers; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	s := &Store{
		db:          db,
		hashCost:    configuration.GetInt("Authentication", "password_hash_cost", bcrypt.DefaultCost),
		minPassword: configuration.GetInt("Authentication", "min_password_length", 6),
	}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, err
	}
	logger.StoreInfo("opened program store %s", path)
	return s, nil
}

func (s *Store) createTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS programs (
			id TEXT PRIMARY KEY,
			owner TEXT NOT NULL,
			name TEXT NOT NULL,
			source TEXT NOT NULL,
			size INTEGER NOT NULL,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL,
			UNIQUE (owner, name)
		)`,
		`CREATE TABLE IF NOT EXISTS users (
			username TEXT PRIMARY KEY,
			password TEXT NOT NULL,
			created_at INTEGER NOT NULL
		)`,
	}
	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// NormalizeName trims a program name and upper-cases it, so "demo" and
// "DEMO" are the same program.
func NormalizeName(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

// SaveProgram stores source under name, replacing an older version.
func (s *Store) SaveProgram(ctx context.Context, owner, name, source string) error {
	name = NormalizeName(name)
	if name == "" {
		return fmt.Errorf("program name cannot be empty")
	}
	now := time.Now().Unix()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO programs (id, owner, name, source, size, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (owner, name) DO UPDATE SET
			source = excluded.source,
			size = excluded.size,
			updated_at = excluded.updated_at`,
		uuid.NewString(), owner, name, source, len(source), now, now)
	if err != nil {
		return fmt.Errorf("failed to save program %s: %w", name, err)
	}
	logger.StoreDebug("saved %s for %q (%d bytes)", name, owner, len(source))
	return nil
}

// LoadProgram returns the source of a saved program.
func (s *Store) LoadProgram(ctx context.Context, owner, name string) (string, error) {
	var source string
	err := s.db.QueryRowContext(ctx,
		"SELECT source FROM programs WHERE owner = ? AND name = ?",
		owner, NormalizeName(name)).Scan(&source)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("database error: %w", err)
	}
	return source, nil
}

// ListPrograms returns the owner's programs sorted by name.
func (s *Store) ListPrograms(ctx context.Context, owner string) ([]ProgramInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, size, created_at, updated_at FROM programs WHERE owner = ? ORDER BY name",
		owner)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	defer rows.Close()

	var list []ProgramInfo
	for rows.Next() {
		var info ProgramInfo
		var created, updated int64
		if err := rows.Scan(&info.ID, &info.Name, &info.Size, &created, &updated); err != nil {
			return nil, fmt.Errorf("database error: %w", err)
		}
		info.CreatedAt = time.Unix(created, 0)
		info.UpdatedAt = time.Unix(updated, 0)
		list = append(list, info)
	}
	return list, rows.Err()
}

// DeleteProgram removes a saved program.
func (s *Store) DeleteProgram(ctx context.Context, owner, name string) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM programs WHERE owner = ? AND name = ?", owner, NormalizeName(name))
	if err != nil {
		return fmt.Errorf("database error: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateUser registers an account with a bcrypt-hashed password.
func (s *Store) CreateUser(ctx context.Context, username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return fmt.Errorf("username cannot be empty")
	}
	if len(password) < s.minPassword {
		return fmt.Errorf("password must be at least %d characters", s.minPassword)
	}

	var exists int
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users WHERE username = ?", username).Scan(&exists); err != nil {
		return fmt.Errorf("database error: %w", err)
	}
	if exists > 0 {
		return ErrUserExists
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if _, err := s.db.ExecContext(ctx,
		"INSERT INTO users (username, password, created_at) VALUES (?, ?, ?)",
		username, string(hashed), time.Now().Unix()); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	logger.AuthInfo("registered user %s", username)
	return nil
}

// Authenticate checks a username and password.
func (s *Store) Authenticate(ctx context.Context, username, password string) error {
	var storedHash string
	err := s.db.QueryRowContext(ctx,
		"SELECT password FROM users WHERE username = ?", strings.TrimSpace(username)).Scan(&storedHash)
	if errors.Is(err, sql.ErrNoRows) {
		logger.AuthWarn("login failed for unknown user %q", username)
		return ErrInvalidCredentials
	}
	if err != nil {
		return fmt.Errorf("database error: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(password)); err != nil {
		logger.AuthWarn("login failed for user %q: incorrect password", username)
		return ErrInvalidCredentials
	}
	return nil
}
