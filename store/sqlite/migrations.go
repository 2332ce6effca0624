package sqlite

// migration is one versioned schema step, applied in order and recorded
// in ledger_schema_migrations.
type migration struct {
	version string
	name    string
	up      string
}

var migrations = []migration{
	{
		version: "20250101000001",
		name:    "create_ledger_parties",
		up: `
CREATE TABLE IF NOT EXISTS ledger_parties (
    id                TEXT PRIMARY KEY,
    tenant_id         TEXT NOT NULL DEFAULT '',
    kind              TEXT NOT NULL DEFAULT 'customer',
    name              TEXT NOT NULL DEFAULT '',
    currency          TEXT NOT NULL DEFAULT 'php',
    outstanding_total INTEGER NOT NULL DEFAULT 0,
    credit_limit      INTEGER NOT NULL DEFAULT 0,
    metadata          TEXT NOT NULL DEFAULT '{}',
    created_at        TIMESTAMP NOT NULL,
    updated_at        TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_ledger_parties_tenant ON ledger_parties (tenant_id);
CREATE INDEX IF NOT EXISTS idx_ledger_parties_kind ON ledger_parties (tenant_id, kind);
`,
	},
	{
		version: "20250101000002",
		name:    "create_ledger_obligations",
		up: `
CREATE TABLE IF NOT EXISTS ledger_obligations (
    id              TEXT PRIMARY KEY,
    party_id        TEXT NOT NULL,
    currency        TEXT NOT NULL DEFAULT 'php',
    amount          INTEGER NOT NULL DEFAULT 0,
    allocated_total INTEGER NOT NULL DEFAULT 0,
    balance_after   INTEGER NOT NULL DEFAULT 0,
    due_date        TIMESTAMP NOT NULL,
    paid_date       TIMESTAMP,
    reversed        INTEGER NOT NULL DEFAULT 0,
    reversed_at     TIMESTAMP,
    origin_kind     TEXT NOT NULL DEFAULT '',
    origin_ref      TEXT NOT NULL DEFAULT '',
    created_at      TIMESTAMP NOT NULL,
    updated_at      TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_ledger_obl_party ON ledger_obligations (party_id);
CREATE INDEX IF NOT EXISTS idx_ledger_obl_open ON ledger_obligations (party_id, reversed, paid_date);
CREATE INDEX IF NOT EXISTS idx_ledger_obl_due ON ledger_obligations (party_id, due_date);
`,
	},
	{
		version: "20250101000003",
		name:    "create_ledger_payments",
		up: `
CREATE TABLE IF NOT EXISTS ledger_payments (
    id            TEXT PRIMARY KEY,
    party_id      TEXT NOT NULL,
    currency      TEXT NOT NULL DEFAULT 'php',
    amount        INTEGER NOT NULL DEFAULT 0,
    balance_after INTEGER NOT NULL DEFAULT 0,
    method        TEXT NOT NULL DEFAULT 'cash',
    reference     TEXT NOT NULL DEFAULT '',
    date          TIMESTAMP NOT NULL,
    created_at    TIMESTAMP NOT NULL,
    updated_at    TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS ledger_allocations (
    id            TEXT PRIMARY KEY,
    payment_id    TEXT NOT NULL,
    obligation_id TEXT NOT NULL,
    currency      TEXT NOT NULL DEFAULT 'php',
    amount        INTEGER NOT NULL DEFAULT 0,
    created_at    TIMESTAMP NOT NULL,
    updated_at    TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_ledger_pay_party ON ledger_payments (party_id, date);
CREATE INDEX IF NOT EXISTS idx_ledger_alloc_payment ON ledger_allocations (payment_id);
CREATE INDEX IF NOT EXISTS idx_ledger_alloc_obligation ON ledger_allocations (obligation_id);
`,
	},
	{
		version: "20250101000004",
		name:    "create_ledger_balance_points",
		up: `
CREATE TABLE IF NOT EXISTS ledger_balance_points (
    party_id TEXT NOT NULL,
    currency TEXT NOT NULL DEFAULT 'php',
    balance  INTEGER NOT NULL DEFAULT 0,
    at       TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_ledger_balpt_party ON ledger_balance_points (party_id, at);
`,
	},
	{
		version: "20250101000005",
		name:    "create_ledger_loans",
		up: `
CREATE TABLE IF NOT EXISTS ledger_loans (
    id                    TEXT PRIMARY KEY,
    party_id              TEXT NOT NULL,
    tenant_id             TEXT NOT NULL DEFAULT '',
    status                TEXT NOT NULL DEFAULT 'pending',
    currency              TEXT NOT NULL DEFAULT 'php',
    principal             INTEGER NOT NULL DEFAULT 0,
    monthly_rate          TEXT NOT NULL DEFAULT '0',
    term_months           INTEGER NOT NULL DEFAULT 0,
    payment_interval      TEXT NOT NULL DEFAULT 'monthly',
    first_payment_date    TIMESTAMP NOT NULL,
    approved_at           TIMESTAMP,
    rejected_at           TIMESTAMP,
    disbursed_at          TIMESTAMP,
    closed_at             TIMESTAMP,
    outstanding_balance   INTEGER NOT NULL DEFAULT 0,
    penalties_outstanding INTEGER NOT NULL DEFAULT 0,
    created_at            TIMESTAMP NOT NULL,
    updated_at            TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS ledger_loan_entries (
    id             TEXT PRIMARY KEY,
    loan_id        TEXT NOT NULL,
    seq            INTEGER NOT NULL DEFAULT 0,
    currency       TEXT NOT NULL DEFAULT 'php',
    due_date       TIMESTAMP NOT NULL,
    interest       INTEGER NOT NULL DEFAULT 0,
    principal      INTEGER NOT NULL DEFAULT 0,
    balance_after  INTEGER NOT NULL DEFAULT 0,
    interest_paid  INTEGER NOT NULL DEFAULT 0,
    principal_paid INTEGER NOT NULL DEFAULT 0,
    paid           INTEGER NOT NULL DEFAULT 0,
    created_at     TIMESTAMP NOT NULL,
    updated_at     TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS ledger_penalties (
    id           TEXT PRIMARY KEY,
    loan_id      TEXT NOT NULL,
    entry_id     TEXT NOT NULL,
    currency     TEXT NOT NULL DEFAULT 'php',
    net_penalty  INTEGER NOT NULL DEFAULT 0,
    waived       INTEGER NOT NULL DEFAULT 0,
    paid_amount  INTEGER NOT NULL DEFAULT 0,
    is_paid      INTEGER NOT NULL DEFAULT 0,
    reason       TEXT NOT NULL DEFAULT '',
    waive_reason TEXT NOT NULL DEFAULT '',
    created_at   TIMESTAMP NOT NULL,
    updated_at   TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_ledger_loans_party ON ledger_loans (party_id);
CREATE INDEX IF NOT EXISTS idx_ledger_loans_tenant ON ledger_loans (tenant_id, status);
CREATE UNIQUE INDEX IF NOT EXISTS idx_ledger_loan_entries_seq ON ledger_loan_entries (loan_id, seq);
CREATE INDEX IF NOT EXISTS idx_ledger_penalties_loan ON ledger_penalties (loan_id);
`,
	},
	{
		version: "20250101000006",
		name:    "create_ledger_savings",
		up: `
CREATE TABLE IF NOT EXISTS ledger_savings (
    id              TEXT PRIMARY KEY,
    party_id        TEXT NOT NULL,
    tenant_id       TEXT NOT NULL DEFAULT '',
    status          TEXT NOT NULL DEFAULT 'active',
    currency        TEXT NOT NULL DEFAULT 'php',
    balance         INTEGER NOT NULL DEFAULT 0,
    minimum_balance INTEGER NOT NULL DEFAULT 0,
    created_at      TIMESTAMP NOT NULL,
    updated_at      TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS ledger_movements (
    id            TEXT PRIMARY KEY,
    account_id    TEXT NOT NULL,
    kind          TEXT NOT NULL DEFAULT '',
    currency      TEXT NOT NULL DEFAULT 'php',
    amount        INTEGER NOT NULL DEFAULT 0,
    balance_after INTEGER NOT NULL DEFAULT 0,
    reference     TEXT NOT NULL DEFAULT '',
    date          TIMESTAMP NOT NULL,
    created_at    TIMESTAMP NOT NULL,
    updated_at    TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS ledger_time_deposits (
    id                TEXT PRIMARY KEY,
    account_id        TEXT NOT NULL,
    party_id          TEXT NOT NULL,
    tenant_id         TEXT NOT NULL DEFAULT '',
    status            TEXT NOT NULL DEFAULT 'active',
    currency          TEXT NOT NULL DEFAULT 'php',
    principal         INTEGER NOT NULL DEFAULT 0,
    annual_rate       TEXT NOT NULL DEFAULT '0',
    term_months       INTEGER NOT NULL DEFAULT 0,
    placement_date    TIMESTAMP NOT NULL,
    interest_method   TEXT NOT NULL DEFAULT 'simple_on_maturity',
    payment_frequency TEXT NOT NULL DEFAULT '',
    penalty_rate      TEXT NOT NULL DEFAULT '0',
    closed_at         TIMESTAMP,
    payout            INTEGER NOT NULL DEFAULT 0,
    interest_earned   INTEGER NOT NULL DEFAULT 0,
    created_at        TIMESTAMP NOT NULL,
    updated_at        TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_ledger_savings_party ON ledger_savings (party_id);
CREATE INDEX IF NOT EXISTS idx_ledger_movements_acct ON ledger_movements (account_id, date);
CREATE INDEX IF NOT EXISTS idx_ledger_tdp_party ON ledger_time_deposits (party_id);
`,
	},
	{
		version: "20250101000007",
		name:    "create_ledger_shares_wallets",
		up: `
CREATE TABLE IF NOT EXISTS ledger_shares (
    id                TEXT PRIMARY KEY,
    party_id          TEXT NOT NULL,
    tenant_id         TEXT NOT NULL DEFAULT '',
    currency          TEXT NOT NULL DEFAULT 'php',
    subscribed_shares INTEGER NOT NULL DEFAULT 0,
    par_value         INTEGER NOT NULL DEFAULT 0,
    paid_amount       INTEGER NOT NULL DEFAULT 0,
    created_at        TIMESTAMP NOT NULL,
    updated_at        TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS ledger_wallets (
    id                 TEXT PRIMARY KEY,
    party_id           TEXT NOT NULL,
    tenant_id          TEXT NOT NULL DEFAULT '',
    name               TEXT NOT NULL DEFAULT '',
    currency           TEXT NOT NULL DEFAULT 'php',
    balance            INTEGER NOT NULL DEFAULT 0,
    allowed_categories TEXT NOT NULL DEFAULT '[]',
    created_at         TIMESTAMP NOT NULL,
    updated_at         TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_ledger_shares_party ON ledger_shares (party_id);
CREATE INDEX IF NOT EXISTS idx_ledger_wallets_party ON ledger_wallets (party_id);
`,
	},
	{
		version: "20250101000008",
		name:    "create_ledger_sequences",
		up: `
CREATE TABLE IF NOT EXISTS ledger_sequences (
    tenant_id TEXT NOT NULL,
    scope     TEXT NOT NULL,
    value     INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (tenant_id, scope)
);
`,
	},
}
