package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type step struct {
	name string
	sql  string
}

// Every step is idempotent so Migrate can run against a fresh database or
// one created by older releases.
var steps = []step{
	{"users", `
CREATE TABLE IF NOT EXISTS users (
  id         BIGSERIAL PRIMARY KEY,
  name       TEXT        NOT NULL,
  email      TEXT        NOT NULL UNIQUE,
  phone      TEXT        NOT NULL DEFAULT '',
  is_admin   BOOLEAN     NOT NULL DEFAULT FALSE,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`},
	{"users.is_admin", `ALTER TABLE users ADD COLUMN IF NOT EXISTS is_admin BOOLEAN NOT NULL DEFAULT FALSE`},
	{"books", `
CREATE TABLE IF NOT EXISTS books (
  id         BIGSERIAL PRIMARY KEY,
  title      TEXT          NOT NULL,
  author     TEXT          NOT NULL DEFAULT '',
  image      TEXT          NOT NULL DEFAULT '',
  price      NUMERIC(12,2) NOT NULL DEFAULT 0 CHECK (price >= 0),
  publisher  TEXT          NOT NULL DEFAULT '',
  created_at TIMESTAMPTZ   NOT NULL DEFAULT now(),
  updated_at TIMESTAMPTZ   NOT NULL DEFAULT now()
)`},
	{"book_sections", `
CREATE TABLE IF NOT EXISTS book_sections (
  book_id BIGINT NOT NULL REFERENCES books(id) ON DELETE CASCADE,
  section TEXT   NOT NULL,
  PRIMARY KEY (book_id, section)
)`},
	{"categories", `
CREATE TABLE IF NOT EXISTS categories (
  id            BIGSERIAL PRIMARY KEY,
  name          TEXT        NOT NULL,
  slug          TEXT        NOT NULL UNIQUE,
  icon          TEXT        NOT NULL,
  is_language   BOOLEAN     NOT NULL DEFAULT FALSE,
  display_order INT         NOT NULL DEFAULT 0,
  visible       BOOLEAN     NOT NULL DEFAULT TRUE,
  created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
)`},
	// user_id carries no foreign key: deleting a user leaves its orders behind.
	{"orders", `
CREATE TABLE IF NOT EXISTS orders (
  id               BIGSERIAL PRIMARY KEY,
  order_id         TEXT          NOT NULL UNIQUE,
  user_id          BIGINT,
  subtotal         NUMERIC(12,2) NOT NULL DEFAULT 0,
  discount         NUMERIC(12,2) NOT NULL DEFAULT 0,
  total            NUMERIC(12,2) NOT NULL DEFAULT 0,
  shipping_name    TEXT          NOT NULL DEFAULT '',
  shipping_phone   TEXT          NOT NULL DEFAULT '',
  shipping_address TEXT          NOT NULL DEFAULT '',
  shipping_city    TEXT          NOT NULL DEFAULT '',
  shipping_state   TEXT          NOT NULL DEFAULT '',
  shipping_pincode TEXT          NOT NULL DEFAULT '',
  payment_method   TEXT          NOT NULL DEFAULT '',
  status           TEXT          NOT NULL DEFAULT 'created',
  created_at       TIMESTAMPTZ   NOT NULL DEFAULT now(),
  updated_at       TIMESTAMPTZ   NOT NULL DEFAULT now()
)`},
	{"orders.status check", `
ALTER TABLE orders DROP CONSTRAINT IF EXISTS chk_orders_status_allowed;
ALTER TABLE orders ADD CONSTRAINT chk_orders_status_allowed
  CHECK (status IN ('created','confirmed','shipped','delivered','cancelled'))`},
	{"orders index", `CREATE INDEX IF NOT EXISTS ix_orders_user_created ON orders (user_id, created_at DESC)`},
	// book_id is nullable and unconstrained: items outlive the books they were bought as.
	{"order_items", `
CREATE TABLE IF NOT EXISTS order_items (
  id          BIGSERIAL PRIMARY KEY,
  order_id    BIGINT        NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
  book_id     BIGINT,
  quantity    INT           NOT NULL CHECK (quantity > 0),
  price       NUMERIC(12,2) NOT NULL CHECK (price >= 0),
  book_title  TEXT          NOT NULL DEFAULT '',
  book_author TEXT          NOT NULL DEFAULT '',
  book_image  TEXT          NOT NULL DEFAULT '',
  created_at  TIMESTAMPTZ   NOT NULL DEFAULT now()
)`},
	{"order_items snapshot columns", `
ALTER TABLE order_items ADD COLUMN IF NOT EXISTS book_title  TEXT NOT NULL DEFAULT '';
ALTER TABLE order_items ADD COLUMN IF NOT EXISTS book_author TEXT NOT NULL DEFAULT '';
ALTER TABLE order_items ADD COLUMN IF NOT EXISTS book_image  TEXT NOT NULL DEFAULT '';
ALTER TABLE order_items ALTER COLUMN book_id DROP NOT NULL`},
	{"order_items index", `CREATE INDEX IF NOT EXISTS ix_order_items_order ON order_items (order_id)`},
	{"cart", `
CREATE TABLE IF NOT EXISTS cart (
  id         BIGSERIAL PRIMARY KEY,
  user_id    BIGINT      NOT NULL,
  book_id    BIGINT      NOT NULL,
  quantity   INT         NOT NULL DEFAULT 1 CHECK (quantity > 0),
  created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
  UNIQUE (user_id, book_id)
)`},
	{"wishlist", `
CREATE TABLE IF NOT EXISTS wishlist (
  id         BIGSERIAL PRIMARY KEY,
  user_id    BIGINT      NOT NULL,
  book_id    BIGINT      NOT NULL,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
  UNIQUE (user_id, book_id)
)`},
	{"updated_at trigger", `
CREATE OR REPLACE FUNCTION set_updated_at() RETURNS trigger AS $$
BEGIN NEW.updated_at = now(); RETURN NEW; END; $$ LANGUAGE plpgsql;

DROP TRIGGER IF EXISTS trg_orders_updated ON orders;
CREATE TRIGGER trg_orders_updated BEFORE UPDATE ON orders
FOR EACH ROW EXECUTE FUNCTION set_updated_at();

DROP TRIGGER IF EXISTS trg_books_updated ON books;
CREATE TRIGGER trg_books_updated BEFORE UPDATE ON books
FOR EACH ROW EXECUTE FUNCTION set_updated_at();

DROP TRIGGER IF EXISTS trg_categories_updated ON categories;
CREATE TRIGGER trg_categories_updated BEFORE UPDATE ON categories
FOR EACH ROW EXECUTE FUNCTION set_updated_at()`},
}

// Migrate applies the schema in a single transaction.
func Migrate(ctx context.Context, db *pgxpool.Pool, log *zap.Logger) error {
	log.Info("applying schema", zap.Int("steps", len(steps)))
	return WithTx(ctx, db, func(tx pgx.Tx) error {
		for _, s := range steps {
			// QueryExecModeSimpleProtocol allows several statements per step.
			if _, err := tx.Exec(ctx, s.sql, pgx.QueryExecModeSimpleProtocol); err != nil {
				log.Error("schema step failed", zap.String("step", s.name), zap.Error(err))
				return fmt.Errorf("migrate %s: %w", s.name, err)
			}
			log.Debug("schema step applied", zap.String("step", s.name))
		}
		log.Info("schema up to date")
		return nil
	})
}
