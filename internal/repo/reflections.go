package repo

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"tiller/internal/domain"
)

const reflectionCols = `id,reflection_type,period_type,created_at,mood,tags_json,questions_answers_json,linked_entry_ids_json,generated_commitment_ids_json,source_entry_id,project_id`

func scanReflectionRow(scan func(dest ...any) error) (domain.Reflection, error) {
	var r domain.Reflection
	var periodType, mood, sourceEntryID, projectID sql.NullString
	var created, tags, qas, linked, generated string
	err := scan(&r.ID, &r.ReflectionType, &periodType, &created, &mood, &tags, &qas, &linked, &generated, &sourceEntryID, &projectID)
	if err == sql.ErrNoRows {
		return r, ErrNotFound
	}
	if err != nil {
		return r, err
	}
	if r.CreatedAt, err = parseTime(created); err != nil {
		return r, err
	}
	if periodType.Valid {
		r.PeriodType = &periodType.String
	}
	if mood.Valid {
		r.Mood = &mood.String
	}
	if err := unmarshalList(tags, &r.Tags); err != nil {
		return r, err
	}
	if err := unmarshalList(qas, &r.QuestionsAnswers); err != nil {
		return r, err
	}
	if err := unmarshalList(linked, &r.LinkedEntryIDs); err != nil {
		return r, err
	}
	if err := unmarshalList(generated, &r.GeneratedCommitmentIDs); err != nil {
		return r, err
	}
	if sourceEntryID.Valid {
		r.SourceEntryID = &sourceEntryID.String
	}
	if projectID.Valid {
		r.ProjectID = &projectID.String
	}
	return r, nil
}

func (r Repo) InsertReflectionTx(ctx context.Context, tx *sql.Tx, ref domain.Reflection) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO reflections(`+reflectionCols+`) VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		ref.ID, ref.ReflectionType, nullableStringPtr(ref.PeriodType), fmtTime(ref.CreatedAt), nullableStringPtr(ref.Mood),
		marshalList(ref.Tags), marshalList(ref.QuestionsAnswers), marshalList(ref.LinkedEntryIDs),
		marshalList(ref.GeneratedCommitmentIDs), nullableStringPtr(ref.SourceEntryID), nullableStringPtr(ref.ProjectID))
	return err
}

func (r Repo) GetReflection(ctx context.Context, id string) (domain.Reflection, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+reflectionCols+` FROM reflections WHERE id=?`, id)
	return scanReflectionRow(row.Scan)
}

type ReflectionFilters struct {
	ReflectionType string
	PeriodType     string
	ProjectID      string
	Since          *time.Time
	Limit          int
}

func (r Repo) ListReflections(ctx context.Context, f ReflectionFilters) ([]domain.Reflection, error) {
	var clauses []string
	var args []any
	if f.ReflectionType != "" {
		clauses = append(clauses, "reflection_type=?")
		args = append(args, f.ReflectionType)
	}
	if f.PeriodType != "" {
		clauses = append(clauses, "period_type=?")
		args = append(args, f.PeriodType)
	}
	if f.ProjectID != "" {
		clauses = append(clauses, "project_id=?")
		args = append(args, f.ProjectID)
	}
	if f.Since != nil {
		clauses = append(clauses, "created_at >= ?")
		args = append(args, fmtTime(*f.Since))
	}
	where := ""
	if len(clauses) > 0 {
		where = "WHERE " + strings.Join(clauses, " AND ")
	}
	query := `SELECT ` + reflectionCols + ` FROM reflections ` + where + ` ORDER BY created_at DESC, id DESC`
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Reflection
	for rows.Next() {
		ref, err := scanReflectionRow(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, ref)
	}
	return res, rows.Err()
}

// CountQuickReflectionsOn counts quick reflections created on the calendar
// day of the given instant, in its location. Used to enforce the daily
// prompt cap.
func (r Repo) CountQuickReflectionsOn(ctx context.Context, day time.Time) (int, error) {
	y, m, d := day.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1)
	var n int
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reflections WHERE reflection_type=? AND created_at >= ? AND created_at < ?`,
		domain.ReflectionQuick, fmtTime(start), fmtTime(end)).Scan(&n)
	return n, err
}
