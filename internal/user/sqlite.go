package user

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore はユーザーを SQLite に保存します。
// seq 列がプライマリキーのため、登録順は seq の昇順です。
type SQLiteStore struct {
	conn *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// OpenSQLite はデータベースを開き、テーブルを作成します。
// ":memory:" を指定するとプロセス内のみのデータベースになります。
func OpenSQLite(path string) (*SQLiteStore, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}
	// 書き込みは1接続に寄せる
	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	s := &SQLiteStore{conn: conn}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}
	return s, nil
}

// Close はデータベース接続を閉じます。
func (s *SQLiteStore) Close() error {
	return s.conn.Close()
}

func (s *SQLiteStore) migrate() error {
	// email は一意制約を付けない（重複登録を許容する）
	_, err := s.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			seq           INTEGER PRIMARY KEY AUTOINCREMENT,
			id            TEXT NOT NULL,
			name          TEXT NOT NULL,
			email         TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			created_at    DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_users_id ON users(id);
		CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}
	return nil
}

// FindByEmail は最初に登録された一致ユーザーを返します。
func (s *SQLiteStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	row := s.conn.QueryRowContext(ctx,
		`SELECT id, name, email, password_hash, created_at
		 FROM users WHERE email = ? ORDER BY seq LIMIT 1`,
		email,
	)
	return scanUser(row, "email")
}

// FindByID はIDが一致する最初のユーザーを返します。
func (s *SQLiteStore) FindByID(ctx context.Context, id string) (*User, error) {
	row := s.conn.QueryRowContext(ctx,
		`SELECT id, name, email, password_hash, created_at
		 FROM users WHERE id = ? ORDER BY seq LIMIT 1`,
		id,
	)
	return scanUser(row, id)
}

// Insert はユーザーを追加します。
func (s *SQLiteStore) Insert(ctx context.Context, u *User) error {
	if u == nil {
		return fmt.Errorf("user is nil")
	}
	if u.ID == "" {
		return fmt.Errorf("user.ID is required")
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO users (id, name, email, password_hash, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		u.ID,
		u.Name,
		u.Email,
		u.PasswordHash,
		u.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting user %s: %w", u.ID, err)
	}
	return nil
}

func scanUser(row *sql.Row, lookup string) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("sqlite: getting user (%s): %w", lookup, err)
	}
	return &u, nil
}
