package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/earnings-tracker/ledger-api/internal/core/domain"
	"github.com/earnings-tracker/ledger-api/internal/core/ports"
)

const (
	applicationColumns = `id, owner_user_id, name, start_date, initial_value, due_date, created_at, updated_at`
	earningColumns     = `id, application_id, date, gross, net`
)

func scanApplication(row rowScanner) (*domain.Application, error) {
	var (
		a          domain.Application
		start, due string
	)
	if err := row.Scan(&a.ID, &a.OwnerUserID, &a.Name, &start, &a.InitialValue, &due, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	a.StartDate = domain.Date(start)
	a.DueDate = domain.Date(due)
	return &a, nil
}

func scanEarning(row rowScanner) (*domain.Earning, error) {
	var (
		e    domain.Earning
		date string
	)
	if err := row.Scan(&e.ID, &e.ApplicationID, &date, &e.Gross, &e.Net); err != nil {
		return nil, err
	}
	e.Date = domain.Date(date)
	return &e, nil
}

// --- Applications ---

func (s *Store) CreateApplication(ctx context.Context, app *domain.Application) (*domain.Application, error) {
	const q = `
		INSERT INTO applications (owner_user_id, name, start_date, initial_value, due_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + applicationColumns

	row := s.db.QueryRowContext(ctx, q,
		app.OwnerUserID,
		app.Name,
		string(app.StartDate),
		app.InitialValue,
		string(app.DueDate),
		app.CreatedAt,
		app.UpdatedAt,
	)
	created, err := scanApplication(row)
	if err != nil {
		if mapped := translate(err, domain.ErrUserNotFound); mapped != err {
			return nil, mapped
		}
		return nil, fmt.Errorf("insert application: %w", err)
	}
	return created, nil
}

func (s *Store) GetApplication(ctx context.Context, id int64) (*domain.Application, error) {
	const q = `SELECT ` + applicationColumns + ` FROM applications WHERE id = $1`
	app, err := scanApplication(s.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrApplicationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get application: %w", err)
	}
	return app, nil
}

// UpdateApplication never changes the owner.
func (s *Store) UpdateApplication(ctx context.Context, app *domain.Application) (*domain.Application, error) {
	const q = `
		UPDATE applications
		SET name = $2, start_date = $3, initial_value = $4, due_date = $5, updated_at = $6
		WHERE id = $1
		RETURNING ` + applicationColumns

	row := s.db.QueryRowContext(ctx, q,
		app.ID,
		app.Name,
		string(app.StartDate),
		app.InitialValue,
		string(app.DueDate),
		app.UpdatedAt,
	)
	updated, err := scanApplication(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrApplicationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update application: %w", err)
	}
	return updated, nil
}

// DeleteApplication removes the application and its earnings in one
// transaction. The row lock makes concurrent earning inserts wait and then
// fail their parent check.
func (s *Store) DeleteApplication(ctx context.Context, id int64) error {
	return s.inTx(ctx, nil, func(tx *sql.Tx) error {
		if err := lockApplication(ctx, tx, id, "FOR UPDATE"); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM earnings WHERE application_id = $1`, id); err != nil {
			return fmt.Errorf("delete earnings: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM applications WHERE id = $1`, id); err != nil {
			return fmt.Errorf("delete application: %w", err)
		}
		return nil
	})
}

func (s *Store) ListApplications(ctx context.Context, f ports.ApplicationFilter) ([]*domain.Application, error) {
	where, args := scopeClause(f.Scope, 0)
	q := `SELECT ` + applicationColumns + ` FROM applications` + where + ` ORDER BY id DESC`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	defer rows.Close()
	return collectApplications(rows)
}

func collectApplications(rows *sql.Rows) ([]*domain.Application, error) {
	var out []*domain.Application
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("scan application: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// lockApplication takes a row lock on the parent application, returning
// ErrApplicationNotFound when it does not exist.
func lockApplication(ctx context.Context, tx *sql.Tx, id int64, mode string) error {
	var got int64
	err := tx.QueryRowContext(ctx, `SELECT id FROM applications WHERE id = $1 `+mode, id).Scan(&got)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrApplicationNotFound
	}
	if err != nil {
		return fmt.Errorf("lock application: %w", err)
	}
	return nil
}

// scopeClause builds the owner filter on the applications table. onlyID > 0
// narrows to a single application.
func scopeClause(scope domain.Scope, onlyID int64) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if !scope.All {
		args = append(args, scope.OwnerID)
		conds = append(conds, fmt.Sprintf("owner_user_id = $%d", len(args)))
	}
	if onlyID > 0 {
		args = append(args, onlyID)
		conds = append(conds, fmt.Sprintf("id = $%d", len(args)))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// --- Earnings ---

func (s *Store) CreateEarning(ctx context.Context, e *domain.Earning) (*domain.Earning, error) {
	const q = `
		INSERT INTO earnings (application_id, date, gross, net)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + earningColumns

	var created *domain.Earning
	err := s.inTx(ctx, nil, func(tx *sql.Tx) error {
		if err := lockApplication(ctx, tx, e.ApplicationID, "FOR SHARE"); err != nil {
			return err
		}
		var err error
		created, err = scanEarning(tx.QueryRowContext(ctx, q, e.ApplicationID, string(e.Date), e.Gross, e.Net))
		if err != nil {
			if mapped := translate(err, domain.ErrApplicationNotFound); mapped != err {
				return mapped
			}
			return fmt.Errorf("insert earning: %w", err)
		}
		return nil
	})
	return created, err
}

func (s *Store) GetEarning(ctx context.Context, id int64) (*domain.Earning, error) {
	const q = `SELECT ` + earningColumns + ` FROM earnings WHERE id = $1`
	e, err := scanEarning(s.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrEarningNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get earning: %w", err)
	}
	return e, nil
}

// UpdateEarning never moves an earning to another application.
func (s *Store) UpdateEarning(ctx context.Context, e *domain.Earning) (*domain.Earning, error) {
	const q = `
		UPDATE earnings SET date = $2, gross = $3, net = $4
		WHERE id = $1
		RETURNING ` + earningColumns

	updated, err := scanEarning(s.db.QueryRowContext(ctx, q, e.ID, string(e.Date), e.Gross, e.Net))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrEarningNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update earning: %w", err)
	}
	return updated, nil
}

func (s *Store) DeleteEarning(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM earnings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete earning: %w", err)
	}
	return expectOne(res, domain.ErrEarningNotFound)
}

func (s *Store) ListEarnings(ctx context.Context, f ports.EarningFilter) ([]*domain.Earning, error) {
	const q = `
		SELECT ` + earningColumns + ` FROM earnings
		WHERE application_id = $1 AND date >= $2 AND date <= $3
		ORDER BY date DESC, id DESC
	`
	rows, err := s.db.QueryContext(ctx, q, f.ApplicationID, string(f.Range.From), string(f.Range.To))
	if err != nil {
		return nil, fmt.Errorf("list earnings: %w", err)
	}
	defer rows.Close()
	return collectEarnings(rows)
}

func collectEarnings(rows *sql.Rows) ([]*domain.Earning, error) {
	var out []*domain.Earning
	for rows.Next() {
		e, err := scanEarning(rows)
		if err != nil {
			return nil, fmt.Errorf("scan earning: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ScopedLedger reads the in-scope applications and their in-range earnings
// from a single snapshot.
func (s *Store) ScopedLedger(ctx context.Context, f ports.LedgerFilter) ([]*domain.Application, []*domain.Earning, error) {
	var (
		apps     []*domain.Application
		earnings []*domain.Earning
	)
	opts := &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}
	err := s.inTx(ctx, opts, func(tx *sql.Tx) error {
		where, args := scopeClause(f.Scope, f.ApplicationID)

		rows, err := tx.QueryContext(ctx, `SELECT `+applicationColumns+` FROM applications`+where+` ORDER BY id`, args...)
		if err != nil {
			return fmt.Errorf("scoped applications: %w", err)
		}
		apps, err = collectApplications(rows)
		rows.Close()
		if err != nil {
			return err
		}

		n := len(args)
		q := fmt.Sprintf(`
			SELECT e.id, e.application_id, e.date, e.gross, e.net
			FROM earnings e
			WHERE e.application_id IN (SELECT id FROM applications%s)
			  AND e.date >= $%d AND e.date <= $%d
		`, where, n+1, n+2)
		args = append(args, string(f.Range.From), string(f.Range.To))

		rows, err = tx.QueryContext(ctx, q, args...)
		if err != nil {
			return fmt.Errorf("scoped earnings: %w", err)
		}
		earnings, err = collectEarnings(rows)
		rows.Close()
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return apps, earnings, nil
}

var _ ports.LedgerRepository = (*Store)(nil)
