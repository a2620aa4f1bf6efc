package storage

var sqliteMigrations = map[int][]string{
	1: {
		`CREATE TABLE IF NOT EXISTS memweave_schema_version (
			num INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS memweave_fact (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			uuid TEXT NOT NULL,
			chat_id TEXT NOT NULL,
			mode TEXT NOT NULL,
			category TEXT NOT NULL,
			key_name TEXT NOT NULL,
			content TEXT NOT NULL,
			context TEXT,
			importance REAL NOT NULL DEFAULT 0.5,
			last_mentioned DATETIME DEFAULT CURRENT_TIMESTAMP,
			date_created DATETIME DEFAULT CURRENT_TIMESTAMP,
			date_updated DATETIME
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_memweave_fact_uuid ON memweave_fact(uuid)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_memweave_fact_scope_key ON memweave_fact(chat_id, mode, category, key_name)`,
		`CREATE INDEX IF NOT EXISTS idx_memweave_fact_scope ON memweave_fact(chat_id, mode)`,
		`CREATE INDEX IF NOT EXISTS idx_memweave_fact_key_name ON memweave_fact(key_name)`,
		`CREATE TABLE IF NOT EXISTS memweave_usage (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			uuid TEXT NOT NULL,
			chat_id TEXT NOT NULL,
			mode TEXT NOT NULL,
			prompt_tokens INTEGER NOT NULL DEFAULT 0,
			completion_tokens INTEGER NOT NULL DEFAULT 0,
			date_created DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_memweave_usage_scope ON memweave_usage(chat_id, mode)`,
		`CREATE INDEX IF NOT EXISTS idx_memweave_usage_created ON memweave_usage(date_created)`,
	},
}

var postgresMigrations = map[int][]string{
	1: {
		`CREATE TABLE IF NOT EXISTS memweave_schema_version (
			num INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS memweave_fact (
			id BIGSERIAL PRIMARY KEY,
			uuid TEXT NOT NULL,
			chat_id TEXT NOT NULL,
			mode TEXT NOT NULL,
			category TEXT NOT NULL,
			key_name TEXT NOT NULL,
			content TEXT NOT NULL,
			context TEXT,
			importance DOUBLE PRECISION NOT NULL DEFAULT 0.5,
			last_mentioned TIMESTAMPTZ DEFAULT NOW(),
			date_created TIMESTAMPTZ DEFAULT NOW(),
			date_updated TIMESTAMPTZ
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_memweave_fact_uuid ON memweave_fact(uuid)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_memweave_fact_scope_key ON memweave_fact(chat_id, mode, category, key_name)`,
		`CREATE INDEX IF NOT EXISTS idx_memweave_fact_scope ON memweave_fact(chat_id, mode)`,
		`CREATE INDEX IF NOT EXISTS idx_memweave_fact_key_name ON memweave_fact(key_name)`,
		`CREATE TABLE IF NOT EXISTS memweave_usage (
			id BIGSERIAL PRIMARY KEY,
			uuid TEXT NOT NULL,
			chat_id TEXT NOT NULL,
			mode TEXT NOT NULL,
			prompt_tokens BIGINT NOT NULL DEFAULT 0,
			completion_tokens BIGINT NOT NULL DEFAULT 0,
			date_created TIMESTAMPTZ DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_memweave_usage_scope ON memweave_usage(chat_id, mode)`,
		`CREATE INDEX IF NOT EXISTS idx_memweave_usage_created ON memweave_usage(date_created)`,
	},
}
