package history

const schema = `
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA foreign_keys = ON;

-- One row per pipeline run
CREATE TABLE IF NOT EXISTS runs (
    run_id TEXT PRIMARY KEY,
    input TEXT NOT NULL,
    folds INTEGER NOT NULL,
    top_k INTEGER NOT NULL,
    chunks INTEGER NOT NULL,
    merged INTEGER NOT NULL,
    distinct_words INTEGER NOT NULL,
    total_words INTEGER NOT NULL,
    source_bytes INTEGER NOT NULL,
    warnings INTEGER NOT NULL DEFAULT 0,
    elapsed_ns INTEGER NOT NULL,
    created_at INTEGER NOT NULL  -- unix nanoseconds
);

CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);
CREATE INDEX IF NOT EXISTS idx_runs_input ON runs(input);

-- Ranked entries of a run, rank starts at 1
CREATE TABLE IF NOT EXISTS run_entries (
    run_id TEXT NOT NULL,
    rank INTEGER NOT NULL,
    word TEXT NOT NULL,
    count INTEGER NOT NULL,
    PRIMARY KEY (run_id, rank),
    FOREIGN KEY (run_id) REFERENCES runs(run_id) ON DELETE CASCADE
);
`
