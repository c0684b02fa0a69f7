package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3" // Import for side-effects only
	"github.com/rotisserie/eris"

	"mspro-labs/bean-scout/internal/models"
)

// Connect opens a connection to the SQLite database and ensures the schema exists.
// It automatically applies recommended settings for concurrency (WAL mode).
func Connect(dbPath string) (*sql.DB, error) {
	// Use robust connection settings to prevent "database locked" errors
	dsn := fmt.Sprintf("%s?_busy_timeout=5000&_journal_mode=WAL", dbPath)

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "db: open")
	}
	if dbPath == ":memory:" {
		// Every pooled connection would otherwise see its own empty database.
		db.SetMaxOpenConns(1)
	}

	if err = db.Ping(); err != nil {
		return nil, eris.Wrap(err, "db: ping")
	}

	if err = createSchema(db); err != nil {
		db.Close()
		return nil, eris.Wrap(err, "db: ensure schema")
	}

	return db, nil
}

// createSchema is private as it's only called by Connect.
func createSchema(db *sql.DB) error {
	coffeeTable := `
	CREATE TABLE IF NOT EXISTS coffee_info (
	  id INTEGER PRIMARY KEY AUTOINCREMENT,
	  source_origin_url TEXT,
	  title TEXT,
	  page_type TEXT,
	  name_kr TEXT,
	  name_en TEXT,
	  description TEXT,
	  origin TEXT,
	  notes TEXT, -- JSON array
	  images TEXT, -- JSON array
	  price TEXT,
	  processing TEXT,
	  farm TEXT,
	  variety TEXT,
	  altitude TEXT,
	  nations TEXT,
	  origin_image_uri TEXT,
	  created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_coffee_info_nations ON coffee_info(nations);
	CREATE INDEX IF NOT EXISTS idx_coffee_info_created_at ON coffee_info(created_at);
	`
	_, err := db.Exec(coffeeTable)
	return err
}

const insertSQL = `
INSERT INTO coffee_info (
  source_origin_url, title, page_type, name_kr, name_en, description, origin,
  notes, images, price, processing, farm, variety, altitude, nations,
  origin_image_uri, created_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
`

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// InsertCoffee stores one record and returns its id.
func InsertCoffee(ctx context.Context, db *sql.DB, rec models.CoffeeRecord) (int64, error) {
	return insertCoffee(ctx, db, rec)
}

// InsertCoffees stores records in a single transaction; either all rows
// are written or none.
func InsertCoffees(ctx context.Context, db *sql.DB, recs []models.CoffeeRecord) (int64, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "db: begin")
	}

	var inserted int64
	for i, rec := range recs {
		if _, err := insertCoffee(ctx, tx, rec); err != nil {
			tx.Rollback()
			return 0, eris.Wrapf(err, "db: insert row %d", i)
		}
		inserted++
	}

	if err = tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "db: commit")
	}
	return inserted, nil
}

func insertCoffee(ctx context.Context, ex execer, rec models.CoffeeRecord) (int64, error) {
	notes, err := encodeList(rec.Notes)
	if err != nil {
		return 0, err
	}
	images, err := encodeList(rec.Images)
	if err != nil {
		return 0, err
	}
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	res, err := ex.ExecContext(ctx, insertSQL,
		nullString(rec.SourceOriginURL),
		nullString(rec.Title),
		nullString(rec.PageType),
		nullString(rec.NameKR),
		nullString(rec.NameEN),
		nullString(rec.Description),
		nullString(rec.Origin),
		notes,
		images,
		nullString(rec.Price),
		nullString(rec.Processing),
		nullString(rec.Farm),
		nullString(rec.Variety),
		nullString(rec.Altitude),
		nullString(rec.Nations),
		nullString(rec.OriginImageURI),
		createdAt,
	)
	if err != nil {
		return 0, eris.Wrap(err, "db: insert coffee")
	}
	return res.LastInsertId()
}

// Filter narrows SelectCoffees. Empty slices match everything.
type Filter struct {
	Nations []string
	Notes   []string
}

// SelectCoffees returns matching records, newest first. A record matches
// when its nations value equals one of Nations and any of its notes is one
// of Notes.
func SelectCoffees(ctx context.Context, db *sql.DB, f Filter) ([]models.CoffeeRecord, error) {
	query := `
	SELECT id, source_origin_url, title, page_type, name_kr, name_en, description, origin,
	       notes, images, price, processing, farm, variety, altitude, nations,
	       origin_image_uri, created_at
	FROM coffee_info`

	var where []string
	var args []any
	if len(f.Nations) > 0 {
		where = append(where, "nations IN ("+placeholders(len(f.Nations))+")")
		for _, n := range f.Nations {
			args = append(args, n)
		}
	}
	if len(f.Notes) > 0 {
		where = append(where, "EXISTS (SELECT 1 FROM json_each(coffee_info.notes) WHERE json_each.value IN ("+placeholders(len(f.Notes))+"))")
		for _, n := range f.Notes {
			args = append(args, n)
		}
	}
	if len(where) > 0 {
		query += "\nWHERE " + strings.Join(where, " AND ")
	}
	query += "\nORDER BY created_at DESC, id DESC"

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "db: select coffees")
	}
	defer rows.Close()

	var out []models.CoffeeRecord
	for rows.Next() {
		rec, err := scanCoffee(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, eris.Wrap(rows.Err(), "db: iterate coffees")
}

// GetCoffee returns one record by id, or sql.ErrNoRows.
func GetCoffee(ctx context.Context, db *sql.DB, id int64) (models.CoffeeRecord, error) {
	row := db.QueryRowContext(ctx, `
	SELECT id, source_origin_url, title, page_type, name_kr, name_en, description, origin,
	       notes, images, price, processing, farm, variety, altitude, nations,
	       origin_image_uri, created_at
	FROM coffee_info WHERE id = ?`, id)
	return scanCoffee(row)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCoffee(s scanner) (models.CoffeeRecord, error) {
	var rec models.CoffeeRecord
	var source, title, pageType, nameKR, nameEN, desc, origin, price sql.NullString
	var notes, images, processing, farm, variety, altitude, nations, originImage sql.NullString
	err := s.Scan(&rec.ID, &source, &title, &pageType, &nameKR, &nameEN, &desc, &origin,
		&notes, &images, &price, &processing, &farm, &variety, &altitude, &nations,
		&originImage, &rec.CreatedAt)
	if err != nil {
		if eris.Is(err, sql.ErrNoRows) {
			return rec, err
		}
		return rec, eris.Wrap(err, "db: scan coffee")
	}

	rec.SourceOriginURL = stringPtr(source)
	rec.Title = stringPtr(title)
	rec.PageType = stringPtr(pageType)
	rec.NameKR = stringPtr(nameKR)
	rec.NameEN = stringPtr(nameEN)
	rec.Description = stringPtr(desc)
	rec.Origin = stringPtr(origin)
	rec.Price = stringPtr(price)
	rec.Processing = stringPtr(processing)
	rec.Farm = stringPtr(farm)
	rec.Variety = stringPtr(variety)
	rec.Altitude = stringPtr(altitude)
	rec.Nations = stringPtr(nations)
	rec.OriginImageURI = stringPtr(originImage)

	if rec.Notes, err = decodeList(notes); err != nil {
		return rec, err
	}
	if rec.Images, err = decodeList(images); err != nil {
		return rec, err
	}
	return rec, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func encodeList(values []string) (sql.NullString, error) {
	if values == nil {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(values)
	if err != nil {
		return sql.NullString{}, eris.Wrap(err, "db: encode list")
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

func decodeList(ns sql.NullString) ([]string, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	var out []string
	if err := json.Unmarshal([]byte(ns.String), &out); err != nil {
		return nil, eris.Wrap(err, "db: decode list")
	}
	return out, nil
}
