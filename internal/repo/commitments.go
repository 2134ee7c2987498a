package repo

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"tiller/internal/domain"
)

const commitmentCols = `id,title,direction,status,counterparty,due_date,created_at,completed_at,priority_score,project_id,source_entry_id`

func scanCommitmentRow(scan func(dest ...any) error) (domain.Commitment, error) {
	var c domain.Commitment
	var counterparty, dueDate, completedAt, projectID, sourceEntryID sql.NullString
	var created string
	err := scan(&c.ID, &c.Title, &c.Direction, &c.Status, &counterparty, &dueDate, &created, &completedAt, &c.PriorityScore, &projectID, &sourceEntryID)
	if err == sql.ErrNoRows {
		return c, ErrNotFound
	}
	if err != nil {
		return c, err
	}
	if counterparty.Valid {
		c.Counterparty = counterparty.String
	}
	if c.CreatedAt, err = parseTime(created); err != nil {
		return c, err
	}
	if c.DueDate, err = parseTimePtr(dueDate); err != nil {
		return c, err
	}
	if c.CompletedAt, err = parseTimePtr(completedAt); err != nil {
		return c, err
	}
	if projectID.Valid {
		c.ProjectID = &projectID.String
	}
	if sourceEntryID.Valid {
		c.SourceEntryID = &sourceEntryID.String
	}
	return c, nil
}

func (r Repo) InsertCommitmentTx(ctx context.Context, tx *sql.Tx, c domain.Commitment) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO commitments(`+commitmentCols+`) VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		c.ID, c.Title, c.Direction, c.Status, nullable(c.Counterparty), fmtTimePtr(c.DueDate), fmtTime(c.CreatedAt),
		fmtTimePtr(c.CompletedAt), c.PriorityScore, nullableStringPtr(c.ProjectID), nullableStringPtr(c.SourceEntryID))
	return err
}

func (r Repo) GetCommitment(ctx context.Context, id string) (domain.Commitment, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+commitmentCols+` FROM commitments WHERE id=?`, id)
	return scanCommitmentRow(row.Scan)
}

func (r Repo) GetCommitmentTx(ctx context.Context, tx *sql.Tx, id string) (domain.Commitment, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+commitmentCols+` FROM commitments WHERE id=?`, id)
	return scanCommitmentRow(row.Scan)
}

type CommitmentFilters struct {
	Direction string
	Status    string
	ProjectID string
	Limit     int
}

func (r Repo) ListCommitments(ctx context.Context, f CommitmentFilters) ([]domain.Commitment, error) {
	var clauses []string
	var args []any
	if f.Direction != "" {
		clauses = append(clauses, "direction=?")
		args = append(args, f.Direction)
	}
	if f.Status != "" {
		clauses = append(clauses, "status=?")
		args = append(args, f.Status)
	}
	if f.ProjectID != "" {
		clauses = append(clauses, "project_id=?")
		args = append(args, f.ProjectID)
	}
	where := ""
	if len(clauses) > 0 {
		where = "WHERE " + strings.Join(clauses, " AND ")
	}
	query := `SELECT ` + commitmentCols + ` FROM commitments ` + where + ` ORDER BY created_at ASC, id ASC`
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Commitment
	for rows.Next() {
		c, err := scanCommitmentRow(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, c)
	}
	return res, rows.Err()
}

func (r Repo) UpdateCommitmentStatusTx(ctx context.Context, tx *sql.Tx, id, status string, completedAt *time.Time) error {
	res, err := tx.ExecContext(ctx, `UPDATE commitments SET status=?, completed_at=? WHERE id=?`,
		status, fmtTimePtr(completedAt), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) UpdateCommitment(ctx context.Context, id string, title *string, dueDate *time.Time, clearDue bool, priorityScore *int) error {
	var (
		fields []string
		args   []any
	)
	if title != nil {
		fields = append(fields, "title=?")
		args = append(args, *title)
	}
	if clearDue {
		fields = append(fields, "due_date=NULL")
	} else if dueDate != nil {
		fields = append(fields, "due_date=?")
		args = append(args, fmtTime(*dueDate))
	}
	if priorityScore != nil {
		fields = append(fields, "priority_score=?")
		args = append(args, *priorityScore)
	}
	if len(fields) == 0 {
		return nil
	}
	args = append(args, id)
	res, err := r.DB.ExecContext(ctx, fmt.Sprintf(`UPDATE commitments SET %s WHERE id=?`, strings.Join(fields, ",")), args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
