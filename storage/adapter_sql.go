package storage

import (
	"database/sql"
	"fmt"
	"strings"
)

// SQLAdapter wraps a *sql.DB together with the SQL dialect it speaks.
// Both the sqlite and postgres backends flow through it; only the
// placeholder style and LIKE variant differ downstream.
type SQLAdapter struct {
	DB      *sql.DB
	dialect string
}

func (a *SQLAdapter) Dialect() string { return a.dialect }

func isSQLDB(conn any) bool {
	_, ok := conn.(*sql.DB)
	return ok
}

// newSQLAdapter sniffs the dialect from the driver's concrete type
// name. pgx and lib/pq both read as postgres; anything unrecognized
// defaults to postgres as the stricter dialect.
func newSQLAdapter(conn any) (Adapter, error) {
	db := conn.(*sql.DB)
	name := strings.ToLower(fmt.Sprintf("%T", db.Driver()))
	dialect := "postgres"
	switch {
	case strings.Contains(name, "sqlite"):
		dialect = "sqlite"
	case strings.Contains(name, "pgx"), strings.Contains(name, "postgres"):
		dialect = "postgres"
	}
	return &SQLAdapter{DB: db, dialect: dialect}, nil
}
