// Package sqlstore persists registry descriptions in a SQL database.
//
// A [Store] works on any database/sql driver whose dialect is either
// SQLite-like ("?" placeholders) or PostgreSQL ("$1" placeholders).
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/govalues/monetary"
	"gopkg.in/yaml.v3"
)

// ErrStoreEmpty is returned by [Store.Load] when no description has been
// saved yet.
var ErrStoreEmpty = errors.New("sqlstore: no registry saved")

// Dialect selects the placeholder syntax of the driver.
type Dialect int

const (
	SQLite   Dialect = iota // "?" placeholders
	Postgres                // "$1" placeholders
)

// Store reads and writes a single registry description.
// It is safe for concurrent use by multiple goroutines.
type Store struct {
	db      *sql.DB
	dialect Dialect
	log     *slog.Logger
}

// Option configures a [Store].
type Option func(*Store)

// WithDialect sets the placeholder dialect. The default is [SQLite].
func WithDialect(d Dialect) Option {
	return func(s *Store) { s.dialect = d }
}

// WithLogger sets the logger. The default is [slog.Default].
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.log = l }
}

// New returns a store backed by db.
func New(db *sql.DB, opts ...Option) *Store {
	s := &Store{db: db, log: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS registry_meta (
		name  VARCHAR(64) PRIMARY KEY,
		value TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS currencies (
		id         VARCHAR(255) PRIMARY KEY,
		numeric_id BIGINT,
		scale      INTEGER,
		kind       VARCHAR(255) NOT NULL,
		domain     VARCHAR(255) NOT NULL,
		weight     BIGINT,
		ord        INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS currency_countries (
		country     VARCHAR(8) PRIMARY KEY,
		currency_id VARCHAR(255) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS currency_localized (
		currency_id VARCHAR(255) NOT NULL,
		locale      VARCHAR(64) NOT NULL,
		property    VARCHAR(64) NOT NULL,
		value       TEXT NOT NULL,
		PRIMARY KEY (currency_id, locale, property)
	)`,
	`CREATE TABLE IF NOT EXISTS currency_traits (
		currency_id VARCHAR(255) NOT NULL,
		trait       VARCHAR(255) NOT NULL,
		ord         INTEGER NOT NULL,
		PRIMARY KEY (currency_id, trait)
	)`,
	`CREATE TABLE IF NOT EXISTS hierarchy_edges (
		axis   VARCHAR(64) NOT NULL,
		child  VARCHAR(255) NOT NULL,
		parent VARCHAR(255) NOT NULL,
		ord    INTEGER NOT NULL,
		PRIMARY KEY (axis, child, parent)
	)`,
}

var tables = []string{
	"hierarchy_edges",
	"currency_traits",
	"currency_localized",
	"currency_countries",
	"currencies",
	"registry_meta",
}

// Migrate creates the tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	for _, q := range schema {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("sqlstore: creating schema: %w", err)
		}
	}
	return nil
}

// rebind rewrites "?" placeholders for the dialect.
func (s *Store) rebind(q string) string {
	if s.dialect != Postgres {
		return q
	}
	var b strings.Builder
	n := 0
	for i := 0; i < len(q); i++ {
		if q[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(q[i])
	}
	return b.String()
}

// Save replaces the stored description with cfg in one transaction.
// The description is built and normalized first, so an invalid one is never
// stored.
func (s *Store) Save(ctx context.Context, cfg monetary.RegistryConfig) error {
	r, err := monetary.Build(cfg)
	if err != nil {
		return fmt.Errorf("sqlstore: saving registry: %w", err)
	}
	return s.SaveRegistry(ctx, r)
}

// SaveRegistry replaces the stored description with the one of r.
func (s *Store) SaveRegistry(ctx context.Context, r *monetary.Registry) (err error) {
	cfg := r.Config()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlstore: beginning transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, t := range tables {
		if _, err = tx.ExecContext(ctx, "DELETE FROM "+t); err != nil {
			return fmt.Errorf("sqlstore: clearing %s: %w", t, err)
		}
	}
	if err = s.saveMeta(ctx, tx, cfg); err != nil {
		return err
	}
	if err = s.saveCurrencies(ctx, tx, cfg); err != nil {
		return err
	}
	if err = s.saveBranches(ctx, tx, cfg); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("sqlstore: committing transaction: %w", err)
	}
	s.log.Debug("registry saved", "version", cfg.Version, "currencies", len(cfg.Currencies))
	return nil
}

func (s *Store) saveMeta(ctx context.Context, tx *sql.Tx, cfg monetary.RegistryConfig) error {
	q := s.rebind("INSERT INTO registry_meta (name, value) VALUES (?, ?)")
	if _, err := tx.ExecContext(ctx, q, "version", cfg.Version); err != nil {
		return fmt.Errorf("sqlstore: saving version: %w", err)
	}
	if len(cfg.Ext) == 0 {
		return nil
	}
	ext, err := yaml.Marshal(cfg.Ext)
	if err != nil {
		return fmt.Errorf("sqlstore: encoding extensions: %w", err)
	}
	if _, err := tx.ExecContext(ctx, q, "ext", string(ext)); err != nil {
		return fmt.Errorf("sqlstore: saving extensions: %w", err)
	}
	return nil
}

func (s *Store) saveCurrencies(ctx context.Context, tx *sql.Tx, cfg monetary.RegistryConfig) error {
	q := s.rebind(`INSERT INTO currencies (id, numeric_id, scale, kind, domain, weight, ord)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	for i, cc := range cfg.Currencies {
		id := monetary.ParseID(cc.ID)
		_, err := tx.ExecContext(ctx, q,
			string(id),
			nullInt64(cc.Numeric),
			nullInt(cc.Scale),
			string(cc.Kind),
			string(cc.Domain),
			nullInt(cc.Weight),
			i,
		)
		if err != nil {
			return fmt.Errorf("sqlstore: saving currency %q: %w", id, err)
		}
	}
	return nil
}

func (s *Store) saveBranches(ctx context.Context, tx *sql.Tx, cfg monetary.RegistryConfig) error {
	q := s.rebind("INSERT INTO currency_countries (country, currency_id) VALUES (?, ?)")
	for ctr, id := range cfg.Countries {
		if _, err := tx.ExecContext(ctx, q, string(ctr), string(monetary.ParseID(id))); err != nil {
			return fmt.Errorf("sqlstore: saving country %q: %w", ctr, err)
		}
	}
	q = s.rebind("INSERT INTO currency_localized (currency_id, locale, property, value) VALUES (?, ?, ?, ?)")
	for id, byLocale := range cfg.Localized {
		for l, props := range byLocale {
			for k, v := range props {
				if _, err := tx.ExecContext(ctx, q, string(monetary.ParseID(id)), string(l), k, v); err != nil {
					return fmt.Errorf("sqlstore: saving localized %q of %q: %w", k, id, err)
				}
			}
		}
	}
	q = s.rebind("INSERT INTO currency_traits (currency_id, trait, ord) VALUES (?, ?, ?)")
	for id, ts := range cfg.Traits {
		for i, t := range ts {
			if _, err := tx.ExecContext(ctx, q, string(monetary.ParseID(id)), string(t), i); err != nil {
				return fmt.Errorf("sqlstore: saving trait %q of %q: %w", t, id, err)
			}
		}
	}
	q = s.rebind("INSERT INTO hierarchy_edges (axis, child, parent, ord) VALUES (?, ?, ?, ?)")
	for axis, edges := range cfg.Hierarchies {
		for child, ps := range edges {
			for i, p := range ps {
				if _, err := tx.ExecContext(ctx, q, string(axis), string(child), string(p), i); err != nil {
					return fmt.Errorf("sqlstore: saving %s edge %q: %w", axis, child, err)
				}
			}
		}
	}
	return nil
}

// Load reads the stored description.
// It returns [ErrStoreEmpty] if nothing has been saved.
func (s *Store) Load(ctx context.Context) (monetary.RegistryConfig, error) {
	var cfg monetary.RegistryConfig
	if err := s.loadMeta(ctx, &cfg); err != nil {
		return monetary.RegistryConfig{}, err
	}
	if err := s.loadCurrencies(ctx, &cfg); err != nil {
		return monetary.RegistryConfig{}, err
	}
	if err := s.loadBranches(ctx, &cfg); err != nil {
		return monetary.RegistryConfig{}, err
	}
	return cfg, nil
}

func (s *Store) loadMeta(ctx context.Context, cfg *monetary.RegistryConfig) error {
	rows, err := s.db.QueryContext(ctx, "SELECT name, value FROM registry_meta")
	if err != nil {
		return fmt.Errorf("sqlstore: loading metadata: %w", err)
	}
	defer rows.Close()
	found := false
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return fmt.Errorf("sqlstore: loading metadata: %w", err)
		}
		switch name {
		case "version":
			found = true
			cfg.Version = value
		case "ext":
			if err := yaml.Unmarshal([]byte(value), &cfg.Ext); err != nil {
				return fmt.Errorf("sqlstore: decoding extensions: %w", err)
			}
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("sqlstore: loading metadata: %w", err)
	}
	if !found {
		return ErrStoreEmpty
	}
	return nil
}

func (s *Store) loadCurrencies(ctx context.Context, cfg *monetary.RegistryConfig) error {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, numeric_id, scale, kind, domain, weight FROM currencies ORDER BY ord")
	if err != nil {
		return fmt.Errorf("sqlstore: loading currencies: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			cc            monetary.CurrencyConfig
			kind, domain  string
			numeric       sql.NullInt64
			scale, weight sql.NullInt64
		)
		if err := rows.Scan(&cc.ID, &numeric, &scale, &kind, &domain, &weight); err != nil {
			return fmt.Errorf("sqlstore: loading currencies: %w", err)
		}
		cc.Kind, cc.Domain = monetary.Tag(kind), monetary.Tag(domain)
		if numeric.Valid {
			cc.Numeric = &numeric.Int64
		}
		if scale.Valid {
			v := int(scale.Int64)
			cc.Scale = &v
		}
		if weight.Valid {
			v := int(weight.Int64)
			cc.Weight = &v
		}
		cfg.Currencies = append(cfg.Currencies, cc)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("sqlstore: loading currencies: %w", err)
	}
	return nil
}

func (s *Store) loadBranches(ctx context.Context, cfg *monetary.RegistryConfig) error {
	err := s.each(ctx, "SELECT country, currency_id FROM currency_countries", func(rows *sql.Rows) error {
		var ctr, id string
		if err := rows.Scan(&ctr, &id); err != nil {
			return err
		}
		if cfg.Countries == nil {
			cfg.Countries = map[monetary.Country]string{}
		}
		cfg.Countries[monetary.Country(ctr)] = id
		return nil
	})
	if err != nil {
		return fmt.Errorf("sqlstore: loading countries: %w", err)
	}

	err = s.each(ctx, "SELECT currency_id, locale, property, value FROM currency_localized", func(rows *sql.Rows) error {
		var id, l, k, v string
		if err := rows.Scan(&id, &l, &k, &v); err != nil {
			return err
		}
		if cfg.Localized == nil {
			cfg.Localized = map[string]map[monetary.Locale]monetary.Properties{}
		}
		byLocale := cfg.Localized[id]
		if byLocale == nil {
			byLocale = map[monetary.Locale]monetary.Properties{}
			cfg.Localized[id] = byLocale
		}
		if byLocale[monetary.Locale(l)] == nil {
			byLocale[monetary.Locale(l)] = monetary.Properties{}
		}
		byLocale[monetary.Locale(l)][k] = v
		return nil
	})
	if err != nil {
		return fmt.Errorf("sqlstore: loading localized properties: %w", err)
	}

	err = s.each(ctx, "SELECT currency_id, trait FROM currency_traits ORDER BY currency_id, ord", func(rows *sql.Rows) error {
		var id, t string
		if err := rows.Scan(&id, &t); err != nil {
			return err
		}
		if cfg.Traits == nil {
			cfg.Traits = map[string]monetary.TagList{}
		}
		cfg.Traits[id] = append(cfg.Traits[id], monetary.Tag(t))
		return nil
	})
	if err != nil {
		return fmt.Errorf("sqlstore: loading traits: %w", err)
	}

	err = s.each(ctx, "SELECT axis, child, parent FROM hierarchy_edges ORDER BY axis, child, ord", func(rows *sql.Rows) error {
		var axis, child, parent string
		if err := rows.Scan(&axis, &child, &parent); err != nil {
			return err
		}
		if cfg.Hierarchies == nil {
			cfg.Hierarchies = map[monetary.Axis]map[monetary.Tag]monetary.TagList{}
		}
		edges := cfg.Hierarchies[monetary.Axis(axis)]
		if edges == nil {
			edges = map[monetary.Tag]monetary.TagList{}
			cfg.Hierarchies[monetary.Axis(axis)] = edges
		}
		edges[monetary.Tag(child)] = append(edges[monetary.Tag(child)], monetary.Tag(parent))
		return nil
	})
	if err != nil {
		return fmt.Errorf("sqlstore: loading hierarchies: %w", err)
	}
	return nil
}

func (s *Store) each(ctx context.Context, q string, fn func(*sql.Rows) error) error {
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		if err := fn(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

// Registry loads the stored description and builds it.
func (s *Store) Registry(ctx context.Context) (*monetary.Registry, error) {
	cfg, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	r, err := monetary.Build(cfg)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: building registry: %w", err)
	}
	s.log.Debug("registry loaded", "version", r.Version(), "currencies", r.Len())
	return r, nil
}

func nullInt(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}

func nullInt64(p *int64) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *p, Valid: true}
}
