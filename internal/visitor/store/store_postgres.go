package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"visitflow/internal/visitor/models"
	id "visitflow/pkg/domain"
)

// Schema creates the visitors table. Migration tooling is out of scope; the
// integration test and deployments apply this directly.
const Schema = `
CREATE TABLE IF NOT EXISTS visitors (
	id         UUID PRIMARY KEY,
	name       VARCHAR(100) NOT NULL,
	company    VARCHAR(100) NOT NULL,
	status     VARCHAR(16)  NOT NULL,
	visit_date DATE         NOT NULL,
	created_at TIMESTAMPTZ  NOT NULL,
	arrived_at TIMESTAMPTZ,
	left_at    TIMESTAMPTZ,
	updated_at TIMESTAMPTZ  NOT NULL,
	version    BIGINT       NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_visitors_status_visit_date ON visitors (status, visit_date);
`

// PostgresStore persists visitors in PostgreSQL. It is pure I/O: state policy
// and transitions belong to the service and lifecycle layers.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const visitorColumns = "id, name, company, status, visit_date, created_at, arrived_at, left_at, updated_at, version"

func (s *PostgresStore) Create(ctx context.Context, v models.Visitor) error {
	query := `
		INSERT INTO visitors (` + visitorColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.db.ExecContext(ctx, query,
		v.ID.String(), v.Name, v.Company, string(v.Status), v.VisitDate,
		v.CreatedAt, v.ArrivedAt, v.LeftAt, v.UpdatedAt, v.Version,
	)
	if err != nil {
		return fmt.Errorf("create visitor: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, visitorID id.VisitorID) (models.Visitor, error) {
	query := `SELECT ` + visitorColumns + ` FROM visitors WHERE id = $1`
	v, err := scanVisitor(s.db.QueryRowContext(ctx, query, visitorID.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Visitor{}, ErrNotFound
		}
		return models.Visitor{}, fmt.Errorf("get visitor: %w", err)
	}
	return v, nil
}

// Update writes all mutable columns conditioned on the version the caller
// read. Zero rows affected distinguishes a lost race from a missing row.
func (s *PostgresStore) Update(ctx context.Context, v models.Visitor) error {
	query := `
		UPDATE visitors
		SET name = $1, company = $2, status = $3, visit_date = $4,
			arrived_at = $5, left_at = $6, updated_at = $7, version = version + 1
		WHERE id = $8 AND version = $9
	`
	res, err := s.db.ExecContext(ctx, query,
		v.Name, v.Company, string(v.Status), v.VisitDate,
		v.ArrivedAt, v.LeftAt, v.UpdatedAt, v.ID.String(), v.Version,
	)
	if err != nil {
		return fmt.Errorf("update visitor: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update visitor rows affected: %w", err)
	}
	if affected == 0 {
		if _, err := s.Get(ctx, v.ID); errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return ErrConflict
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, visitorID id.VisitorID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM visitors WHERE id = $1`, visitorID.String())
	if err != nil {
		return fmt.Errorf("delete visitor: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete visitor rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, f Filter) ([]models.Visitor, error) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, value any) {
		args = append(args, value)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.Status != nil {
		add("status = $%d", string(*f.Status))
	}
	addRange := func(column string, from, to *time.Time) {
		if from != nil {
			add(column+" >= $%d", *from)
		}
		if to != nil {
			add(column+" < $%d", *to)
		}
	}
	addRange("visit_date", f.VisitDateFrom, f.VisitDateTo)
	addRange("created_at", f.CreatedFrom, f.CreatedTo)
	addRange("arrived_at", f.ArrivedFrom, f.ArrivedTo)
	addRange("left_at", f.LeftFrom, f.LeftTo)
	if f.NameContains != "" {
		add("name ILIKE $%d", "%"+f.NameContains+"%")
	}

	query := `SELECT ` + visitorColumns + ` FROM visitors`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY " + orderClause(f.OrderBy)
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list visitors: %w", err)
	}
	defer rows.Close()

	visitors := make([]models.Visitor, 0)
	for rows.Next() {
		v, err := scanVisitor(rows)
		if err != nil {
			return nil, fmt.Errorf("scan visitor: %w", err)
		}
		visitors = append(visitors, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list visitors: %w", err)
	}
	return visitors, nil
}

// orderClause maps the filter's OrderBy onto a fixed set of clauses; the sort
// key never comes from user input.
func orderClause(order OrderBy) string {
	switch order {
	case OrderByArrivedAt:
		return "arrived_at ASC NULLS LAST"
	case OrderByLeftAt:
		return "left_at ASC NULLS LAST"
	case OrderByVisitDate:
		return "visit_date ASC, created_at ASC"
	case OrderByName:
		return "LOWER(name) ASC"
	default:
		return "created_at ASC"
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVisitor(row rowScanner) (models.Visitor, error) {
	var (
		v         models.Visitor
		rawID     string
		rawStatus string
		arrivedAt sql.NullTime
		leftAt    sql.NullTime
	)
	err := row.Scan(&rawID, &v.Name, &v.Company, &rawStatus, &v.VisitDate,
		&v.CreatedAt, &arrivedAt, &leftAt, &v.UpdatedAt, &v.Version)
	if err != nil {
		return models.Visitor{}, err
	}

	visitorID, err := id.ParseVisitorID(rawID)
	if err != nil {
		return models.Visitor{}, fmt.Errorf("stored visitor id: %w", err)
	}
	v.ID = visitorID

	status, err := models.ParseVisitorStatus(rawStatus)
	if err != nil {
		return models.Visitor{}, fmt.Errorf("stored visitor status: %w", err)
	}
	v.Status = status

	if arrivedAt.Valid {
		t := arrivedAt.Time.UTC()
		v.ArrivedAt = &t
	}
	if leftAt.Valid {
		t := leftAt.Time.UTC()
		v.LeftAt = &t
	}
	v.VisitDate = models.DateOnly(v.VisitDate)
	v.CreatedAt = v.CreatedAt.UTC()
	v.UpdatedAt = v.UpdatedAt.UTC()
	return v, nil
}
