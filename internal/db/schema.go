package db

// Schema contains the statements creating all tables and indexes.
// Every statement is idempotent so Migrate can run on each deploy.
const Schema = `
-- Trick catalog, managed out-of-band by "catalog import"
CREATE TABLE IF NOT EXISTS tricks (
    id BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
    name TEXT NOT NULL,
    obstacle TEXT NOT NULL,
    stance TEXT NOT NULL,
    difficulty INTEGER NOT NULL DEFAULT 1,
    UNIQUE (name, obstacle, stance)
);

-- Skate sessions. trick_seq hands out order indexes for session_tricks.
CREATE TABLE IF NOT EXISTS sessions (
    id UUID PRIMARY KEY,
    user_id TEXT NOT NULL,
    title TEXT NOT NULL CHECK (btrim(title) <> ''),
    spot_name TEXT,
    planned_for_date DATE,
    trick_seq INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS sessions_user_created_idx ON sessions (user_id, created_at DESC);

CREATE TABLE IF NOT EXISTS session_tricks (
    id BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
    session_id UUID NOT NULL REFERENCES sessions (id) ON DELETE CASCADE,
    trick_id BIGINT NOT NULL REFERENCES tricks (id),
    order_index INTEGER NOT NULL CHECK (order_index > 0),
    target_attempts INTEGER CHECK (target_attempts > 0),
    landed_attempts INTEGER CHECK (landed_attempts >= 0),
    notes TEXT,
    completed_at TIMESTAMPTZ,
    UNIQUE (session_id, order_index)
);

-- Login sessions
CREATE TABLE IF NOT EXISTS user_sessions (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    email TEXT NOT NULL DEFAULT '',
    access_token TEXT NOT NULL,
    refresh_token TEXT NOT NULL,
    token_expiry TIMESTAMPTZ NOT NULL,
    created_at TIMESTAMPTZ NOT NULL,
    expires_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS user_sessions_expires_idx ON user_sessions (expires_at);
`
