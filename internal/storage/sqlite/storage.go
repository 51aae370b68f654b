package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mcoot/faceit-ledger/internal/model"
	"github.com/mcoot/faceit-ledger/internal/storage"
)

// Storage is a SQLite-backed implementation of the storage interface
type Storage struct {
	db *sql.DB
}

// New opens (creating if needed) the database at path and runs migrations
func New(path string) (*Storage, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", "file:"+path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection serializes writers the same way the ledger does
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s := &Storage{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return s, nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	return s.db.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// migrate creates the database schema
func (s *Storage) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS deployment (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			contract_address TEXT NOT NULL,
			owner TEXT NOT NULL,
			deployed_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS accounts (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			address TEXT UNIQUE NOT NULL,
			nickname TEXT NOT NULL,
			rating INTEGER NOT NULL,
			balance TEXT NOT NULL,
			participant INTEGER NOT NULL,
			created INTEGER NOT NULL,
			last_claim_at TEXT NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS contract (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			balance TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS wallets (
			address TEXT PRIMARY KEY,
			balance TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS events (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			type TEXT NOT NULL,
			tx_id TEXT NOT NULL,
			timestamp TEXT NOT NULL,
			identity TEXT NOT NULL,
			balance TEXT NOT NULL,
			reward TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS receipts (
			tx_id TEXT PRIMARY KEY,
			data TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS credentials (
			address TEXT PRIMARY KEY,
			passphrase_hash TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_events_identity ON events(identity)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// Deployment operations

func (s *Storage) GetDeployment(ctx context.Context) (*model.Deployment, error) {
	var d model.Deployment
	var deployedAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT contract_address, owner, deployed_at FROM deployment WHERE id = 1`,
	).Scan(&d.ContractAddress, &d.Owner, &deployedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotDeployed
		}
		return nil, err
	}
	if d.DeployedAt, err = decodeTime(deployedAt); err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *Storage) SaveDeployment(ctx context.Context, d *model.Deployment) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO deployment (id, contract_address, owner, deployed_at) VALUES (1, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET contract_address = excluded.contract_address,
			owner = excluded.owner, deployed_at = excluded.deployed_at`,
		string(d.ContractAddress), string(d.Owner), encodeTime(d.DeployedAt),
	)
	return err
}

// Account operations

const accountColumns = `address, nickname, rating, balance, participant, created, last_claim_at, created_at, updated_at`

func (s *Storage) GetAccount(ctx context.Context, addr model.Address) (*model.PlayerAccount, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE address = ?`, string(addr))
	acc, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNoAccount
		}
		return nil, err
	}
	return acc, nil
}

func (s *Storage) ListAccounts(ctx context.Context) ([]*model.PlayerAccount, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+accountColumns+` FROM accounts ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	accounts := []*model.PlayerAccount{}
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, acc)
	}
	return accounts, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(row scanner) (*model.PlayerAccount, error) {
	var acc model.PlayerAccount
	var balance, lastClaimAt, createdAt, updatedAt string
	err := row.Scan(&acc.Address, &acc.Nickname, &acc.Rating, &balance, &acc.Participant,
		&acc.Created, &lastClaimAt, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	if acc.Balance, err = model.ParseWei(balance); err != nil {
		return nil, err
	}
	if acc.LastClaimAt, err = decodeTime(lastClaimAt); err != nil {
		return nil, err
	}
	if acc.CreatedAt, err = decodeTime(createdAt); err != nil {
		return nil, err
	}
	if acc.UpdatedAt, err = decodeTime(updatedAt); err != nil {
		return nil, err
	}
	return &acc, nil
}

// Balance operations

func (s *Storage) GetContractBalance(ctx context.Context) (model.Wei, error) {
	return s.getAmount(ctx, `SELECT balance FROM contract WHERE id = 1`)
}

func (s *Storage) GetWalletBalance(ctx context.Context, addr model.Address) (model.Wei, error) {
	return s.getAmount(ctx, `SELECT balance FROM wallets WHERE address = ?`, string(addr))
}

func (s *Storage) getAmount(ctx context.Context, query string, args ...any) (model.Wei, error) {
	var balance string
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&balance); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Wei{}, nil
		}
		return model.Wei{}, err
	}
	return model.ParseWei(balance)
}

// Log operations

func (s *Storage) ListEvents(ctx context.Context, filter model.EventFilter) ([]model.Event, error) {
	query := `SELECT type, tx_id, timestamp, identity, balance, reward FROM events`
	var args []any
	if !filter.Identity.IsZero() {
		query += ` WHERE identity = ?`
		args = append(args, string(filter.Identity))
	}
	query += ` ORDER BY seq`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		var e model.Event
		var timestamp, balance, reward string
		if err := rows.Scan(&e.Type, &e.TxID, &timestamp, &e.Identity, &balance, &reward); err != nil {
			return nil, err
		}
		if e.Timestamp, err = decodeTime(timestamp); err != nil {
			return nil, err
		}
		if e.Payload.Balance, err = model.ParseWei(balance); err != nil {
			return nil, err
		}
		if e.Payload.Reward, err = model.ParseWei(reward); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (s *Storage) GetReceipt(ctx context.Context, id model.TxID) (*model.Receipt, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM receipts WHERE tx_id = ?`, string(id)).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrReceiptNotFound
		}
		return nil, err
	}
	var r model.Receipt
	if err := json.Unmarshal([]byte(data), &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// Apply writes the changeset inside one SQL transaction
func (s *Storage) Apply(ctx context.Context, cs *storage.Changeset) (err error) {
	var receipt []byte
	if cs.Receipt != nil {
		if receipt, err = json.Marshal(cs.Receipt); err != nil {
			return err
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, acc := range cs.Accounts {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO accounts (`+accountColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT(address) DO UPDATE SET nickname = excluded.nickname, rating = excluded.rating,
				balance = excluded.balance, participant = excluded.participant, created = excluded.created,
				last_claim_at = excluded.last_claim_at, updated_at = excluded.updated_at`,
			string(acc.Address), acc.Nickname, acc.Rating, acc.Balance.String(), acc.Participant,
			acc.Created, encodeTime(acc.LastClaimAt), encodeTime(acc.CreatedAt), encodeTime(acc.UpdatedAt),
		)
		if err != nil {
			return err
		}
	}

	for addr, bal := range cs.Wallets {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO wallets (address, balance) VALUES (?, ?)
			 ON CONFLICT(address) DO UPDATE SET balance = excluded.balance`,
			string(addr), bal.String(),
		)
		if err != nil {
			return err
		}
	}

	if cs.ContractBalance != nil {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO contract (id, balance) VALUES (1, ?)
			 ON CONFLICT(id) DO UPDATE SET balance = excluded.balance`,
			cs.ContractBalance.String(),
		)
		if err != nil {
			return err
		}
	}

	for _, e := range cs.Events {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO events (type, tx_id, timestamp, identity, balance, reward) VALUES (?, ?, ?, ?, ?, ?)`,
			string(e.Type), string(e.TxID), encodeTime(e.Timestamp), string(e.Identity),
			e.Payload.Balance.String(), e.Payload.Reward.String(),
		)
		if err != nil {
			return err
		}
	}

	if cs.Receipt != nil {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO receipts (tx_id, data) VALUES (?, ?)`, string(cs.Receipt.TxID), string(receipt))
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Credential operations

func (s *Storage) CreateCredential(ctx context.Context, c *model.Credential) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO credentials (address, passphrase_hash, created_at) VALUES (?, ?, ?)
		 ON CONFLICT(address) DO NOTHING`,
		string(c.Address), c.PassphraseHash, encodeTime(c.CreatedAt),
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return model.ErrCredentialExists
	}
	return nil
}

func (s *Storage) GetCredential(ctx context.Context, addr model.Address) (*model.Credential, error) {
	var c model.Credential
	var createdAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT address, passphrase_hash, created_at FROM credentials WHERE address = ?`, string(addr),
	).Scan(&c.Address, &c.PassphraseHash, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrCredentialNotFound
		}
		return nil, err
	}
	if c.CreatedAt, err = decodeTime(createdAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// Times are stored as RFC 3339 text in UTC; the zero time is stored as ""

func encodeTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func decodeTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}
