package store

import (
	"context"
	"database/sql"
	"strings"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/moverscan/internal/model"
)

// SQLiteStore persists one row per record in a companies table, with
// locations_served and services denormalized to comma-joined columns and
// an autoincrement surrogate key.
//
// Unlike JSONStore, SaveAll is append-only: every call inserts the given
// records as new rows and performs no update-by-name. This preserves the
// relational variant's observed contract; callers that need upsert
// semantics must use JSONStore. LoadAll returns the newest row per name so
// reads still see one record per company.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL
// mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS companies (
	id                INTEGER PRIMARY KEY AUTOINCREMENT,
	name              TEXT NOT NULL,
	locations_served  TEXT,
	headquarters      TEXT,
	phone             TEXT,
	website           TEXT,
	rating            REAL,
	services          TEXT,
	years_in_business INTEGER,
	description       TEXT,
	source            TEXT,
	last_updated      DATETIME
);

CREATE INDEX IF NOT EXISTS idx_companies_name ON companies(name);
`

// Migrate creates the companies table if it does not exist.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) LoadAll(ctx context.Context) ([]model.CompanyRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, locations_served, headquarters, phone, website, rating,
		        services, years_in_business, description, source, last_updated
		 FROM companies
		 WHERE id IN (SELECT MAX(id) FROM companies GROUP BY name)
		 ORDER BY id`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: load companies")
	}
	defer rows.Close()

	records := []model.CompanyRecord{}
	for rows.Next() {
		r, err := scanCompany(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, eris.Wrap(rows.Err(), "sqlite: load companies iterate")
}

func (s *SQLiteStore) SaveAll(ctx context.Context, records []model.CompanyRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin save")
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO companies (name, locations_served, headquarters, phone,
		   website, rating, services, years_in_business, description, source,
		   last_updated)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare insert")
	}
	defer stmt.Close()

	for _, r := range records {
		if !r.Valid() {
			continue
		}
		_, err := stmt.ExecContext(ctx,
			r.Name,
			strings.Join(r.LocationsServed, ","),
			nullString(r.Headquarters),
			nullString(r.Phone),
			nullString(r.Website),
			nullFloat(r.Rating),
			strings.Join(r.Services, ","),
			nullInt(r.YearsInBusiness),
			nullString(r.Description),
			nullString(r.Source),
			r.LastUpdated.UTC(),
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: insert company %s", r.Name)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit save")
}

func scanCompany(rows *sql.Rows) (model.CompanyRecord, error) {
	var (
		r         model.CompanyRecord
		locations sql.NullString
		hq        sql.NullString
		phone     sql.NullString
		website   sql.NullString
		rating    sql.NullFloat64
		services  sql.NullString
		years     sql.NullInt64
		desc      sql.NullString
		source    sql.NullString
		updated   sql.NullTime
	)
	err := rows.Scan(&r.Name, &locations, &hq, &phone, &website, &rating,
		&services, &years, &desc, &source, &updated)
	if err != nil {
		return r, eris.Wrap(err, "sqlite: scan company")
	}

	r.LocationsServed = splitList(locations.String)
	r.Headquarters = hq.String
	r.Phone = phone.String
	r.Website = website.String
	if rating.Valid {
		v := rating.Float64
		r.Rating = &v
	}
	r.Services = splitList(services.String)
	if years.Valid {
		n := int(years.Int64)
		r.YearsInBusiness = &n
	}
	r.Description = desc.String
	r.Source = source.String
	if updated.Valid {
		r.LastUpdated = updated.Time
	}
	return r, nil
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullFloat(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}

func nullInt(n *int) any {
	if n == nil {
		return nil
	}
	return *n
}
