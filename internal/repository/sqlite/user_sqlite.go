package sqlite_repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	_ "github.com/mattn/go-sqlite3"

	"github.com/SimpnicServerTeam/timesheet-session/internal/models"
	"github.com/SimpnicServerTeam/timesheet-session/internal/repository"
)

const authProviderSRP = "SRP6"

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id           TEXT PRIMARY KEY,
	display_name TEXT NOT NULL,
	created_at   TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS user_auths (
	auth_id       TEXT PRIMARY KEY,
	auth_provider TEXT NOT NULL,
	auth_extras   TEXT NOT NULL,
	user_id       TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE
);`

type srpExtras struct {
	Salt     string `json:"salt"`
	Verifier string `json:"verifier"`
}

// SQLiteUserRepository implements UserRepository on top of database/sql and go-sqlite3.
type SQLiteUserRepository struct {
	db *sql.DB
}

// Open opens (and migrates) the SQLite database at dsn.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed opening connection to sqlite: %w", err)
	}
	if err := Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Migrate creates the user tables if they do not exist yet.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed creating schema resources: %w", err)
	}
	return nil
}

func NewSQLiteUserRepository(db *sql.DB) repository.UserRepository {
	return &SQLiteUserRepository{
		db: db,
	}
}

func (r *SQLiteUserRepository) CreateUser(ctx context.Context, user *models.UserInfo) error {
	extraJSON, err := json.Marshal(srpExtras{Salt: user.Salt, Verifier: user.Verifier})
	if err != nil {
		return fmt.Errorf("failed to marshal user extras: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	createdAt := user.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO users (id, display_name, created_at) VALUES (?, ?, ?)`,
		user.ID, user.DisplayName, createdAt); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO user_auths (auth_id, auth_provider, auth_extras, user_id) VALUES (?, ?, ?, ?)`,
		user.AuthID, authProviderSRP, string(extraJSON), user.ID); err != nil {
		if isUniqueViolation(err) {
			return repository.ErrUserExists
		}
		return fmt.Errorf("failed to create user auth: %w", err)
	}

	return tx.Commit()
}

func (r *SQLiteUserRepository) GetUserInfoByAuthID(ctx context.Context, authID string) (*models.UserInfo, error) {
	return r.queryOne(ctx, `a.auth_id = ?`, authID)
}

func (r *SQLiteUserRepository) GetUserInfoByID(ctx context.Context, userID string) (*models.UserInfo, error) {
	return r.queryOne(ctx, `u.id = ?`, userID)
}

func (r *SQLiteUserRepository) UpdateUserSRPAuth(ctx context.Context, authID string, newSaltHex string, newVerifierHex string) error {
	extraJSON, err := json.Marshal(srpExtras{Salt: newSaltHex, Verifier: newVerifierHex})
	if err != nil {
		return fmt.Errorf("failed to marshal new user extras: %w", err)
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE user_auths SET auth_extras = ? WHERE auth_id = ? AND auth_provider = ?`,
		string(extraJSON), authID, authProviderSRP)
	if err != nil {
		return fmt.Errorf("failed to update user auth extras: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update user auth extras: %w", err)
	}
	if affected == 0 {
		return repository.ErrUserNotFound
	}
	return nil
}

func (r *SQLiteUserRepository) queryOne(ctx context.Context, where string, arg string) (*models.UserInfo, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT u.id, a.auth_id, u.display_name, a.auth_extras, u.created_at
		FROM users u JOIN user_auths a ON a.user_id = u.id
		WHERE `+where+` LIMIT 1`, arg)

	var (
		info   models.UserInfo
		extras string
	)
	if err := row.Scan(&info.ID, &info.AuthID, &info.DisplayName, &extras, &info.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	var creds srpExtras
	if err := json.Unmarshal([]byte(extras), &creds); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user extras: %w", err)
	}
	info.Salt = creds.Salt
	info.Verifier = creds.Verifier
	return &info, nil
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
