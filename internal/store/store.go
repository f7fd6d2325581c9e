// Package store persists filter definitions in their plain JSON wire form.
//
// The engine itself never touches storage; this package is the collaborator
// that supplies definitions to the runtime, sanitizing and validating each
// row on the way in so the evaluator only ever sees well-formed filters.
package store

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/objfilter/objfilter/internal/filter"
	"github.com/qustavo/dotsql"
	"go.uber.org/zap"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed queries.sql
var queriesSQL string

// Config defines the database section of the daemon configuration.
type Config struct {
	// Type is the sql driver name, sqlite3 or postgres.
	Type string `yaml:"type" default:"sqlite3"`
	// DSN is the driver-specific data source name.
	DSN string `yaml:"dsn" default:"objfilter.db"`
}

// Validate implements part of the config validation on daemon startup.
func (c *Config) Validate() error {
	switch c.Type {
	case "sqlite3", "postgres":
		return nil
	default:
		return fmt.Errorf("invalid database type %q, must be \"sqlite3\" or \"postgres\"", c.Type)
	}
}

// Open connects to the configured database.
func (c *Config) Open() (*sqlx.DB, error) {
	return sqlx.Open(c.Type, c.DSN)
}

// Store reads and writes filter definitions through named queries.
type Store struct {
	db      *sqlx.DB
	queries *dotsql.DotSql
	logger  *zap.SugaredLogger
}

// New returns a Store over db.
func New(db *sqlx.DB, logger *zap.SugaredLogger) (*Store, error) {
	queries, err := dotsql.LoadFromString(queriesSQL)
	if err != nil {
		return nil, err
	}

	return &Store{db: db, queries: queries, logger: logger}, nil
}

// Setup creates the filter table if it does not exist yet.
func (s *Store) Setup(ctx context.Context) error {
	query, err := s.queries.Raw("create-filter-table")
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, query)
	return err
}

type row struct {
	Name       string `db:"name"`
	Definition string `db:"definition"`
}

// Filters loads all stored definitions, sanitized and validated. Rows that
// fail to decode or validate are logged and skipped rather than taking the
// whole list down with them.
func (s *Store) Filters(ctx context.Context) ([]map[string]any, error) {
	query, err := s.queries.Raw("select-filters")
	if err != nil {
		return nil, err
	}

	var rows []row
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, err
	}

	defs := make([]map[string]any, 0, len(rows))
	for _, r := range rows {
		var def map[string]any
		if err := json.Unmarshal([]byte(r.Definition), &def); err != nil {
			s.logger.Warnw("Skipping filter with malformed JSON definition", zap.String("name", r.Name), zap.Error(err))
			continue
		}

		def = filter.Sanitize(def)
		if ok, err := filter.Valid(def, nil); err != nil || !ok {
			s.logger.Warnw("Skipping invalid filter definition", zap.String("name", r.Name), zap.Error(err))
			continue
		}

		defs = append(defs, def)
	}

	return defs, nil
}

// Upsert stores a definition under its name, replacing any previous version.
// The definition is sanitized and must validate.
func (s *Store) Upsert(ctx context.Context, def map[string]any) error {
	def = filter.Sanitize(def)

	if kind, err := filter.Classify(def); err != nil {
		return err
	} else if kind != filter.KindFilter {
		return fmt.Errorf("definition classifies as %s, not as a filter", kind)
	}
	if ok, err := filter.Valid(def, nil); err != nil {
		return err
	} else if !ok {
		return filter.ErrInvalidFilter
	}

	name, _ := def["name"].(string)
	encoded, err := json.Marshal(def)
	if err != nil {
		return err
	}

	query, err := s.queries.Raw("upsert-filter")
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, s.db.Rebind(query), name, string(encoded))
	return err
}

// Delete removes the definition stored under name, if any.
func (s *Store) Delete(ctx context.Context, name string) error {
	query, err := s.queries.Raw("delete-filter")
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, s.db.Rebind(query), name)
	return err
}
