// Package catalog is the persisted side of bean-scout: approved records,
// their nation and note facets, and list-page query helpers.
package catalog

import (
	"context"
	"database/sql"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"mspro-labs/bean-scout/internal/db"
	"mspro-labs/bean-scout/internal/models"
)

// Facets are the filter choices offered for the current nation selection.
type Facets struct {
	Nations []string `json:"nations"`
	Notes   []string `json:"notes"`
}

// Service reads and writes catalog records.
type Service struct {
	db *sql.DB
}

func NewService(database *sql.DB) *Service {
	return &Service{db: database}
}

// Insert stores one record and returns its id.
func (s *Service) Insert(ctx context.Context, rec models.CoffeeRecord) (int64, error) {
	id, err := db.InsertCoffee(ctx, s.db, rec)
	if err != nil {
		return 0, err
	}
	zap.L().Info("catalog: inserted record", zap.Int64("id", id), zap.String("name_kr", models.Deref(rec.NameKR)))
	return id, nil
}

// InsertMany stores all records or none.
func (s *Service) InsertMany(ctx context.Context, recs []models.CoffeeRecord) (int64, error) {
	n, err := db.InsertCoffees(ctx, s.db, recs)
	if err != nil {
		return 0, err
	}
	zap.L().Info("catalog: inserted records", zap.Int64("count", n))
	return n, nil
}

// Get returns one record. A missing id is ErrNotFound.
func (s *Service) Get(ctx context.Context, id int64) (models.CoffeeRecord, error) {
	rec, err := db.GetCoffee(ctx, s.db, id)
	if eris.Is(err, sql.ErrNoRows) {
		return rec, models.WrapKind(models.ErrNotFound, "catalog: no such record", nil)
	}
	return rec, err
}

// Select returns the records matching c, newest first. It never returns nil.
func (s *Service) Select(ctx context.Context, c Criteria) ([]models.CoffeeRecord, error) {
	recs, err := db.SelectCoffees(ctx, s.db, c.filter())
	if err != nil {
		return nil, err
	}
	if recs == nil {
		recs = []models.CoffeeRecord{}
	}
	return recs, nil
}

// Facets computes the nations of the whole catalog and the notes available
// under the given nation selection.
func (s *Service) Facets(ctx context.Context, nations []string) (Facets, error) {
	all, err := db.SelectCoffees(ctx, s.db, db.Filter{})
	if err != nil {
		return Facets{}, err
	}
	f := Facets{
		Nations: AvailableNations(all),
		Notes:   AvailableNotes(all, nations),
	}
	if f.Nations == nil {
		f.Nations = []string{}
	}
	if f.Notes == nil {
		f.Notes = []string{}
	}
	return f, nil
}

// Approve builds a record from ext and manual and stores it.
func (s *Service) Approve(ctx context.Context, ext models.CoffeeExtraction, fields []string, manual models.CoffeeRecord) (models.CoffeeRecord, error) {
	rec, err := Approve(ext, fields, manual)
	if err != nil {
		return models.CoffeeRecord{}, err
	}
	id, err := s.Insert(ctx, rec)
	if err != nil {
		return models.CoffeeRecord{}, err
	}
	return s.Get(ctx, id)
}
