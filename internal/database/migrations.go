package database

import (
	"fmt"
	"log/slog"
)

func (db *DB) RunMigrations() error {
	slog.Info("Running database migrations...")

	migrations := []string{
		createUsersTable,
		createSessionsTable,
		createHoldsTable,
		createBookingsTable,
		createSettlementsTable,
		createIndexes,
	}

	for i, migration := range migrations {
		slog.Info("Running migration", "step", i+1)
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	slog.Info("All migrations completed successfully")
	return nil
}

const createUsersTable = `
CREATE TABLE IF NOT EXISTS users (
    user_id SERIAL PRIMARY KEY,
    email VARCHAR(255) UNIQUE NOT NULL,
    password_hash VARCHAR(64) NOT NULL,
    name VARCHAR(100) NOT NULL,
    role VARCHAR(20) NOT NULL DEFAULT 'PLAYER',
    host_id BIGINT,
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    registered_at TIMESTAMP NOT NULL DEFAULT NOW(),

    CHECK (role IN ('PLAYER', 'STAFF', 'OWNER'))
);`

const createSessionsTable = `
CREATE TABLE IF NOT EXISTS sessions (
    id SERIAL PRIMARY KEY,
    title VARCHAR(500) NOT NULL,
    room_name VARCHAR(100) NOT NULL,
    host_id BIGINT NOT NULL,
    capacity INTEGER NOT NULL,
    start_time TIMESTAMP NOT NULL,
    end_time TIMESTAMP NOT NULL,
    status VARCHAR(20) NOT NULL DEFAULT 'OPEN',
    price_cents BIGINT NOT NULL DEFAULT 0,
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP NOT NULL DEFAULT NOW(),

    CHECK (capacity > 0),
    CHECK (price_cents >= 0),
    CHECK (status IN ('OPEN', 'CLOSED', 'CANCELLED'))
);`

const createHoldsTable = `
CREATE TABLE IF NOT EXISTS holds (
    id SERIAL PRIMARY KEY,
    session_id BIGINT NOT NULL REFERENCES sessions(id),
    holder_id BIGINT NOT NULL REFERENCES users(user_id),
    state VARCHAR(20) NOT NULL DEFAULT 'ACTIVE',
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),
    expires_at TIMESTAMP NOT NULL,

    CHECK (state IN ('ACTIVE', 'CONVERTED', 'RELEASED', 'EXPIRED'))
);
CREATE UNIQUE INDEX IF NOT EXISTS holds_one_active_per_holder
    ON holds(session_id, holder_id) WHERE state = 'ACTIVE';`

const createBookingsTable = `
CREATE TABLE IF NOT EXISTS bookings (
    id SERIAL PRIMARY KEY,
    session_id BIGINT NOT NULL REFERENCES sessions(id),
    holder_id BIGINT NOT NULL REFERENCES users(user_id),
    amount_cents BIGINT NOT NULL,
    payment_state VARCHAR(20) NOT NULL DEFAULT 'UNPAID',
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP NOT NULL DEFAULT NOW(),

    CHECK (amount_cents >= 0),
    CHECK (payment_state IN ('UNPAID', 'PAID', 'CANCELLED', 'REFUNDED'))
);
CREATE UNIQUE INDEX IF NOT EXISTS bookings_one_live_per_holder
    ON bookings(session_id, holder_id) WHERE payment_state IN ('UNPAID', 'PAID');`

const createSettlementsTable = `
CREATE EXTENSION IF NOT EXISTS "uuid-ossp";
CREATE TABLE IF NOT EXISTS settlements (
    id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
    booking_id BIGINT NOT NULL REFERENCES bookings(id),
    amount_cents BIGINT NOT NULL,
    channel VARCHAR(20) NOT NULL,
    kind VARCHAR(20) NOT NULL,
    result VARCHAR(20) NOT NULL DEFAULT 'OK',
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),

    CHECK (kind IN ('PAYMENT', 'REFUND')),
    CHECK (channel IN ('WECHAT', 'ALIPAY', 'CASH'))
);`

const createIndexes = `
CREATE INDEX IF NOT EXISTS idx_sessions_start_time ON sessions(start_time);
CREATE INDEX IF NOT EXISTS idx_sessions_host ON sessions(host_id);
CREATE INDEX IF NOT EXISTS idx_holds_session_state ON holds(session_id, state);
CREATE INDEX IF NOT EXISTS idx_holds_holder ON holds(holder_id);
CREATE INDEX IF NOT EXISTS idx_holds_expires ON holds(expires_at) WHERE state = 'ACTIVE';
CREATE INDEX IF NOT EXISTS idx_bookings_session_state ON bookings(session_id, payment_state);
CREATE INDEX IF NOT EXISTS idx_bookings_holder ON bookings(holder_id);
CREATE INDEX IF NOT EXISTS idx_settlements_booking ON settlements(booking_id);`
