package sqlstore

import (
	"context"
	"fmt"
	"strings"
)

// schema lists the DDL statements in dependency order. Column types that
// differ between dialects are written as {{pk}}, {{ref}} and {{ts}} and
// substituted by ddl().
//
// CASCADE RULES:
//   - every ownership key (user_id on content, find_id on reviews, ...) is
//     ON DELETE CASCADE: deleting a user or a find removes everything that only
//     describes it
//   - logs.user_id is ON DELETE SET NULL so the audit trail survives account
//     deletion
//   - tags cascade into finds_to_tags only; finds survive tag deletion
//   - notifications cascade with their subscription, so none is left pointing
//     at a subscription that no longer exists
//
// Join tables carry a UNIQUE constraint on their natural composite key.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id          {{pk}},
		discord_id  TEXT NOT NULL UNIQUE,
		username    TEXT NOT NULL,
		email       TEXT NOT NULL UNIQUE,
		avatar_url  TEXT,
		role        TEXT NOT NULL DEFAULT 'user' CHECK (role IN ('admin', 'user')),
		created_at  {{ts}} NOT NULL,
		last_login  {{ts}} NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS finds (
		id          {{pk}},
		user_id     {{ref}} NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		title       VARCHAR(255) NOT NULL,
		url         TEXT,
		image_url   TEXT,
		created_at  {{ts}} NOT NULL,
		updated_at  {{ts}} NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_finds_user_id ON finds(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_finds_created_at ON finds(created_at)`,

	`CREATE TABLE IF NOT EXISTS tags (
		id          {{pk}},
		name        TEXT NOT NULL UNIQUE,
		created_at  {{ts}} NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS finds_to_tags (
		find_id     {{ref}} NOT NULL REFERENCES finds(id) ON DELETE CASCADE,
		tag_id      {{ref}} NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
		created_at  {{ts}} NOT NULL,
		UNIQUE (find_id, tag_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_finds_to_tags_tag_id ON finds_to_tags(tag_id)`,

	`CREATE TABLE IF NOT EXISTS reviews (
		id          {{pk}},
		user_id     {{ref}} NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		find_id     {{ref}} NOT NULL REFERENCES finds(id) ON DELETE CASCADE,
		rating      TEXT NOT NULL CHECK (rating IN ('good', 'neutral', 'bad')),
		content     TEXT,
		created_at  {{ts}} NOT NULL,
		updated_at  {{ts}} NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_reviews_find_id ON reviews(find_id)`,
	`CREATE INDEX IF NOT EXISTS idx_reviews_user_id ON reviews(user_id)`,

	`CREATE TABLE IF NOT EXISTS lists (
		id             {{pk}},
		user_id        {{ref}} NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		title          VARCHAR(255) NOT NULL,
		description    TEXT,
		collaborative  BOOLEAN NOT NULL DEFAULT FALSE,
		private        BOOLEAN NOT NULL DEFAULT FALSE,
		created_at     {{ts}} NOT NULL,
		updated_at     {{ts}} NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS list_items (
		id          {{pk}},
		list_id     {{ref}} NOT NULL REFERENCES lists(id) ON DELETE CASCADE,
		find_id     {{ref}} NOT NULL REFERENCES finds(id) ON DELETE CASCADE,
		user_id     {{ref}} NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at  {{ts}} NOT NULL,
		UNIQUE (list_id, find_id)
	)`,

	`CREATE TABLE IF NOT EXISTS find_comments (
		id          {{pk}},
		user_id     {{ref}} NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		find_id     {{ref}} NOT NULL REFERENCES finds(id) ON DELETE CASCADE,
		content     TEXT NOT NULL,
		created_at  {{ts}} NOT NULL,
		updated_at  {{ts}} NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS review_comments (
		id          {{pk}},
		user_id     {{ref}} NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		review_id   {{ref}} NOT NULL REFERENCES reviews(id) ON DELETE CASCADE,
		content     TEXT NOT NULL,
		created_at  {{ts}} NOT NULL,
		updated_at  {{ts}} NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS list_comments (
		id          {{pk}},
		user_id     {{ref}} NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		list_id     {{ref}} NOT NULL REFERENCES lists(id) ON DELETE CASCADE,
		content     TEXT NOT NULL,
		created_at  {{ts}} NOT NULL,
		updated_at  {{ts}} NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS subscriptions (
		id          {{pk}},
		user_id     {{ref}} NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at  {{ts}} NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_subscriptions_user_id ON subscriptions(user_id)`,
	`CREATE TABLE IF NOT EXISTS subscriptions_to_reviews (
		subscription_id  {{ref}} NOT NULL REFERENCES subscriptions(id) ON DELETE CASCADE,
		review_id        {{ref}} NOT NULL REFERENCES reviews(id) ON DELETE CASCADE,
		UNIQUE (subscription_id, review_id)
	)`,
	`CREATE TABLE IF NOT EXISTS subscriptions_to_finds (
		subscription_id  {{ref}} NOT NULL REFERENCES subscriptions(id) ON DELETE CASCADE,
		find_id          {{ref}} NOT NULL REFERENCES finds(id) ON DELETE CASCADE,
		UNIQUE (subscription_id, find_id)
	)`,
	`CREATE TABLE IF NOT EXISTS subscriptions_to_tags (
		subscription_id  {{ref}} NOT NULL REFERENCES subscriptions(id) ON DELETE CASCADE,
		tag_id           {{ref}} NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
		UNIQUE (subscription_id, tag_id)
	)`,
	`CREATE TABLE IF NOT EXISTS subscriptions_to_users (
		subscription_id  {{ref}} NOT NULL REFERENCES subscriptions(id) ON DELETE CASCADE,
		user_id          {{ref}} NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		UNIQUE (subscription_id, user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS subscriptions_to_lists (
		subscription_id  {{ref}} NOT NULL REFERENCES subscriptions(id) ON DELETE CASCADE,
		list_id          {{ref}} NOT NULL REFERENCES lists(id) ON DELETE CASCADE,
		UNIQUE (subscription_id, list_id)
	)`,
	`CREATE TABLE IF NOT EXISTS subscriptions_to_list_changes (
		subscription_id  {{ref}} NOT NULL REFERENCES subscriptions(id) ON DELETE CASCADE,
		list_id          {{ref}} NOT NULL REFERENCES lists(id) ON DELETE CASCADE,
		UNIQUE (subscription_id, list_id)
	)`,

	`CREATE TABLE IF NOT EXISTS notifications (
		id               {{pk}},
		user_id          {{ref}} NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		message          TEXT NOT NULL,
		subscription_id  {{ref}} NOT NULL REFERENCES subscriptions(id) ON DELETE CASCADE,
		read             BOOLEAN NOT NULL DEFAULT FALSE,
		created_at       {{ts}} NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_notifications_user_id ON notifications(user_id)`,

	`CREATE TABLE IF NOT EXISTS logs (
		id         {{pk}},
		user_id    {{ref}} REFERENCES users(id) ON DELETE SET NULL,
		message    TEXT NOT NULL,
		meta       TEXT,
		timestamp  {{ts}} NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS custom_emoji (
		id          {{pk}},
		name        VARCHAR(32) NOT NULL UNIQUE,
		user_id     {{ref}} NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		image_url   TEXT NOT NULL,
		created_at  {{ts}} NOT NULL,
		updated_at  {{ts}} NOT NULL
	)`,
}

// ddl renders one schema statement for the given dialect.
func ddl(dialect Dialect, stmt string) string {
	var r *strings.Replacer
	switch dialect {
	case DialectPostgres:
		r = strings.NewReplacer(
			"{{pk}}", "BIGSERIAL PRIMARY KEY",
			"{{ref}}", "BIGINT",
			"{{ts}}", "TIMESTAMPTZ",
		)
	default:
		r = strings.NewReplacer(
			"{{pk}}", "INTEGER PRIMARY KEY AUTOINCREMENT",
			"{{ref}}", "INTEGER",
			"{{ts}}", "DATETIME",
		)
	}
	return r.Replace(stmt)
}

// Migrate creates every table and index that does not exist yet. It is
// idempotent and safe to run on every start.
func (db *DB) Migrate(ctx context.Context) error {
	for i, stmt := range schema {
		if _, err := db.conn.ExecContext(ctx, ddl(db.dialect, stmt)); err != nil {
			return fmt.Errorf("sqlstore: migration step %d: %w", i+1, err)
		}
	}
	return nil
}
