package repo

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"tiller/internal/domain"
)

const entryCols = `id,title,body,occurred_at,is_decision,is_deleted,decision_rationale,decision_assumptions,decision_confidence,decision_stakes,decision_review_date,decision_outcome,decision_outcome_date,project_id`

func scanEntryRow(scan func(dest ...any) error) (domain.Entry, error) {
	var e domain.Entry
	var rationale, assumptions, stakes, reviewDate, outcome, outcomeDate, projectID sql.NullString
	var confidence sql.NullInt64
	var occurred string
	err := scan(&e.ID, &e.Title, &e.Body, &occurred, &e.IsDecision, &e.IsDeleted,
		&rationale, &assumptions, &confidence, &stakes, &reviewDate, &outcome, &outcomeDate, &projectID)
	if err == sql.ErrNoRows {
		return e, ErrNotFound
	}
	if err != nil {
		return e, err
	}
	if e.OccurredAt, err = parseTime(occurred); err != nil {
		return e, err
	}
	if rationale.Valid {
		e.DecisionRationale = rationale.String
	}
	if assumptions.Valid {
		e.DecisionAssumptions = assumptions.String
	}
	if confidence.Valid {
		v := int(confidence.Int64)
		e.DecisionConfidence = &v
	}
	if stakes.Valid {
		e.DecisionStakes = &stakes.String
	}
	if e.DecisionReviewDate, err = parseTimePtr(reviewDate); err != nil {
		return e, err
	}
	if outcome.Valid {
		e.DecisionOutcome = &outcome.String
	}
	if e.DecisionOutcomeDate, err = parseTimePtr(outcomeDate); err != nil {
		return e, err
	}
	if projectID.Valid {
		e.ProjectID = &projectID.String
	}
	return e, nil
}

func (r Repo) InsertEntryTx(ctx context.Context, tx *sql.Tx, e domain.Entry) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO entries(`+entryCols+`) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		e.ID, e.Title, e.Body, fmtTime(e.OccurredAt), e.IsDecision, e.IsDeleted,
		nullable(e.DecisionRationale), nullable(e.DecisionAssumptions), nullableIntPtr(e.DecisionConfidence),
		nullableStringPtr(e.DecisionStakes), fmtTimePtr(e.DecisionReviewDate), nullableStringPtr(e.DecisionOutcome),
		fmtTimePtr(e.DecisionOutcomeDate), nullableStringPtr(e.ProjectID))
	return err
}

func (r Repo) GetEntry(ctx context.Context, id string) (domain.Entry, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+entryCols+` FROM entries WHERE id=?`, id)
	return scanEntryRow(row.Scan)
}

func (r Repo) GetEntryTx(ctx context.Context, tx *sql.Tx, id string) (domain.Entry, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+entryCols+` FROM entries WHERE id=?`, id)
	return scanEntryRow(row.Scan)
}

type EntryFilters struct {
	DecisionsOnly  bool
	IncludeDeleted bool
	ProjectID      string
	Since          *time.Time
	Limit          int
}

func (r Repo) ListEntries(ctx context.Context, f EntryFilters) ([]domain.Entry, error) {
	var clauses []string
	var args []any
	if f.DecisionsOnly {
		clauses = append(clauses, "is_decision=1")
	}
	if !f.IncludeDeleted {
		clauses = append(clauses, "is_deleted=0")
	}
	if f.ProjectID != "" {
		clauses = append(clauses, "project_id=?")
		args = append(args, f.ProjectID)
	}
	if f.Since != nil {
		clauses = append(clauses, "occurred_at >= ?")
		args = append(args, fmtTime(*f.Since))
	}
	where := ""
	if len(clauses) > 0 {
		where = "WHERE " + strings.Join(clauses, " AND ")
	}
	query := `SELECT ` + entryCols + ` FROM entries ` + where + ` ORDER BY occurred_at DESC, id DESC`
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Entry
	for rows.Next() {
		e, err := scanEntryRow(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

func (r Repo) UpdateDecisionOutcomeTx(ctx context.Context, tx *sql.Tx, id, outcome string, outcomeDate time.Time) error {
	res, err := tx.ExecContext(ctx, `UPDATE entries SET decision_outcome=?, decision_outcome_date=? WHERE id=? AND is_decision=1 AND is_deleted=0`,
		outcome, fmtTime(outcomeDate), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) SoftDeleteEntryTx(ctx context.Context, tx *sql.Tx, id string) error {
	res, err := tx.ExecContext(ctx, `UPDATE entries SET is_deleted=1 WHERE id=? AND is_deleted=0`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
