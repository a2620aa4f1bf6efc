package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type sqlRepos struct {
	facts FactRepo
	usage UsageRepo
}

func (d *SQLDriver) Facts() FactRepo {
	if d.repos == nil {
		d.repos = &sqlRepos{
			facts: &sqlFactRepo{db: d.db(), dialect: d.dialect},
			usage: &sqlUsageRepo{db: d.db(), dialect: d.dialect},
		}
	}
	return d.repos.facts
}

func (d *SQLDriver) Usage() UsageRepo {
	if d.repos == nil {
		d.Facts() // Initialize repos
	}
	return d.repos.usage
}

type sqlFactRepo struct {
	db      *sql.DB
	dialect string
}

func (r *sqlFactRepo) like() string {
	if r.dialect == "postgres" {
		return "ILIKE"
	}
	return "LIKE"
}

// rebind turns ?-placeholders into $n for postgres.
func (r *sqlFactRepo) rebind(query string) string {
	return rebindDialect(query, r.dialect)
}

func rebindDialect(query, dialect string) string {
	if dialect != "postgres" {
		return query
	}
	out := make([]byte, 0, len(query)+8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			out = append(out, fmt.Sprintf("$%d", n)...)
			continue
		}
		out = append(out, query[i])
	}
	return string(out)
}

func (r *sqlFactRepo) Insert(scope Scope, f FactRecord) (int64, error) {
	f.Importance = clamp01(f.Importance)
	now := time.Now()

	// Merge path: the scope key is unique per (category, key_name), so
	// an existing row absorbs the new observation.
	var (
		existingID         int64
		existingContent    string
		existingImportance float64
	)
	sel := r.rebind(`SELECT id, content, importance FROM memweave_fact
		WHERE chat_id = ? AND mode = ? AND category = ? AND key_name = ?`)
	err := r.db.QueryRow(sel, scope.ChatID, scope.Mode, f.Category, f.KeyName).
		Scan(&existingID, &existingContent, &existingImportance)
	switch {
	case err == nil:
		merged := mergeLines(existingContent, f.Content)
		importance := clamp01(existingImportance)
		if f.Importance > importance {
			importance = f.Importance
		}
		upd := r.rebind(`UPDATE memweave_fact
			SET content = ?, importance = ?, last_mentioned = ?, date_updated = ?
			WHERE id = ?`)
		if _, err := r.db.Exec(upd, merged, importance, now, now, existingID); err != nil {
			return 0, err
		}
		return existingID, nil
	case err != sql.ErrNoRows:
		return 0, err
	}

	var id int64
	ins := r.rebind(`INSERT INTO memweave_fact
		(uuid, chat_id, mode, category, key_name, content, context, importance, last_mentioned, date_created)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`)
	err = r.db.QueryRow(ins,
		uuid.New().String(), scope.ChatID, scope.Mode, f.Category, f.KeyName,
		f.Content, f.Context, f.Importance, now, now,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

const sqlFactColumns = "id, uuid, chat_id, mode, category, key_name, content, context, importance, last_mentioned, date_created"

func (r *sqlFactRepo) ListAll(scope Scope) ([]FactRecord, error) {
	query := r.rebind(`SELECT ` + sqlFactColumns + ` FROM memweave_fact
		WHERE chat_id = ? AND mode = ?
		ORDER BY importance DESC, last_mentioned DESC`)
	rows, err := r.db.Query(query, scope.ChatID, scope.Mode)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanFacts(rows)
}

// escapeLike quotes LIKE metacharacters so a keyword always means a
// literal substring, never a pattern.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (r *sqlFactRepo) SearchByKeyword(scope Scope, keyword string, limit int) ([]FactRecord, error) {
	if keyword == "" || limit <= 0 {
		return nil, nil
	}
	pattern := "%" + escapeLike(keyword) + "%"
	query := r.rebind(`SELECT ` + sqlFactColumns + ` FROM memweave_fact
		WHERE chat_id = ? AND mode = ?
		AND (key_name ` + r.like() + ` ? ESCAPE '\' OR content ` + r.like() + ` ? ESCAPE '\')
		ORDER BY importance DESC, last_mentioned DESC
		LIMIT ?`)
	rows, err := r.db.Query(query, scope.ChatID, scope.Mode, pattern, pattern, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanFacts(rows)
}

func (r *sqlFactRepo) DeleteByID(scope Scope, id int64) (bool, error) {
	query := r.rebind(`DELETE FROM memweave_fact WHERE id = ? AND chat_id = ? AND mode = ?`)
	res, err := r.db.Exec(query, id, scope.ChatID, scope.Mode)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// DeleteAllInScope is a single statement, so a scope reset is atomic.
func (r *sqlFactRepo) DeleteAllInScope(scope Scope) (int64, error) {
	query := r.rebind(`DELETE FROM memweave_fact WHERE chat_id = ? AND mode = ?`)
	res, err := r.db.Exec(query, scope.ChatID, scope.Mode)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *sqlFactRepo) Count(scope Scope) (int64, error) {
	var n int64
	query := r.rebind(`SELECT COUNT(*) FROM memweave_fact WHERE chat_id = ? AND mode = ?`)
	err := r.db.QueryRow(query, scope.ChatID, scope.Mode).Scan(&n)
	return n, err
}

func scanFacts(rows *sql.Rows) ([]FactRecord, error) {
	var out []FactRecord
	for rows.Next() {
		var (
			f          FactRecord
			ctx        sql.NullString
			lastAny    any
			createdAny any
		)
		if err := rows.Scan(&f.ID, &f.UUID, &f.ChatID, &f.Mode, &f.Category, &f.KeyName,
			&f.Content, &ctx, &f.Importance, &lastAny, &createdAny); err != nil {
			return nil, err
		}
		f.Context = ctx.String
		f.LastMentioned, _ = decodeAnyTime(lastAny)
		f.DateCreated, _ = decodeAnyTime(createdAny)
		out = append(out, f)
	}
	return out, rows.Err()
}

type sqlUsageRepo struct {
	db      *sql.DB
	dialect string
}

func (r *sqlUsageRepo) Record(scope Scope, promptTokens, completionTokens int64) error {
	query := rebindDialect(`INSERT INTO memweave_usage
		(uuid, chat_id, mode, prompt_tokens, completion_tokens, date_created)
		VALUES (?, ?, ?, ?, ?, ?)`, r.dialect)
	_, err := r.db.Exec(query,
		uuid.New().String(), scope.ChatID, scope.Mode, promptTokens, completionTokens, time.Now())
	return err
}

func (r *sqlUsageRepo) CleanupBefore(cutoff time.Time) (int64, error) {
	query := rebindDialect(`DELETE FROM memweave_usage WHERE date_created < ?`, r.dialect)
	res, err := r.db.Exec(query, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
