package sqlstore

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/sakif/findsboard/internal/apperror"
	"github.com/sakif/findsboard/internal/model"
	"github.com/sakif/findsboard/internal/repository"
)

var _ repository.UserRepository = (*UserDB)(nil)

// UserDB stores user accounts.
type UserDB struct {
	db *DB
}

var userColumns = []string{"id", "discord_id", "username", "email", "avatar_url", "role", "created_at", "last_login"}

// publicUserColumns deliberately omits email, discord_id and last_login.
var publicUserColumns = []string{"id", "username", "avatar_url", "role", "created_at"}

// Create inserts a new user, filling in ID, CreatedAt and LastLogin.
// An empty Role becomes model.RoleUser.
func (u *UserDB) Create(ctx context.Context, user *model.User) error {
	ts := now()
	if user.Role == "" {
		user.Role = model.RoleUser
	}

	id, err := u.db.insert(ctx, u.db.conn, u.db.sb.Insert("users").
		Columns("discord_id", "username", "email", "avatar_url", "role", "created_at", "last_login").
		Values(user.DiscordID, user.Username, user.Email, user.AvatarURL, string(user.Role), ts, ts))
	if err != nil {
		return fmt.Errorf("sqlstore: creating user (discordID=%s): %w", user.DiscordID, err)
	}

	user.ID = id
	user.CreatedAt = ts
	user.LastLogin = ts
	return nil
}

func (u *UserDB) GetByID(ctx context.Context, id int64) (*model.User, error) {
	var user model.User
	err := u.db.get(ctx, u.db.conn, &user,
		u.db.sb.Select(userColumns...).From("users").Where(sq.Eq{"id": id}))
	if err != nil {
		if isNoRows(err) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlstore: getting user %d: %w", id, err)
	}
	return &user, nil
}

func (u *UserDB) GetByDiscordID(ctx context.Context, discordID string) (*model.User, error) {
	var user model.User
	err := u.db.get(ctx, u.db.conn, &user,
		u.db.sb.Select(userColumns...).From("users").Where(sq.Eq{"discord_id": discordID}))
	if err != nil {
		if isNoRows(err) {
			return nil, apperror.NotFoundMessage(fmt.Sprintf("user not found with discord id %s", discordID))
		}
		return nil, fmt.Errorf("sqlstore: getting user by discord id %s: %w", discordID, err)
	}
	return &user, nil
}

func (u *UserDB) RecordLogin(ctx context.Context, id int64, email *string) error {
	b := u.db.sb.Update("users").Set("last_login", now()).Where(sq.Eq{"id": id})
	if email != nil {
		b = b.Set("email", *email)
	}

	n, err := u.db.exec(ctx, u.db.conn, b)
	if err != nil {
		return fmt.Errorf("sqlstore: recording login for user %d: %w", id, err)
	}
	if n == 0 {
		return apperror.NotFound("user", id)
	}
	return nil
}

func (u *UserDB) List(ctx context.Context, opts repository.ListOptions) ([]model.PublicUser, error) {
	b := u.db.sb.Select(publicUserColumns...).From("users").OrderBy("id ASC")
	if opts.Limit > 0 {
		b = b.Limit(uint64(opts.Limit)).Offset(uint64(opts.Offset))
	}

	users := []model.PublicUser{}
	if err := u.db.selectAll(ctx, u.db.conn, &users, b); err != nil {
		return nil, fmt.Errorf("sqlstore: listing users: %w", err)
	}
	return users, nil
}

func (u *UserDB) Search(ctx context.Context, term string, limit int) ([]model.PublicUser, error) {
	b := u.db.sb.Select(publicUserColumns...).From("users").
		Where(ilike("username", term)).
		OrderBy("username ASC", "id ASC")
	if limit > 0 {
		b = b.Limit(uint64(limit))
	}

	users := []model.PublicUser{}
	if err := u.db.selectAll(ctx, u.db.conn, &users, b); err != nil {
		return nil, fmt.Errorf("sqlstore: searching users: %w", err)
	}
	return users, nil
}

func (u *UserDB) SetRole(ctx context.Context, id int64, role model.Role) error {
	n, err := u.db.exec(ctx, u.db.conn,
		u.db.sb.Update("users").Set("role", string(role)).Where(sq.Eq{"id": id}))
	if err != nil {
		return fmt.Errorf("sqlstore: setting role of user %d: %w", id, err)
	}
	if n == 0 {
		return apperror.NotFound("user", id)
	}
	return nil
}

// Delete removes the user. The schema cascades the delete into everything the
// user owns and nulls the user reference on their log entries.
func (u *UserDB) Delete(ctx context.Context, id int64) error {
	n, err := u.db.exec(ctx, u.db.conn, u.db.sb.Delete("users").Where(sq.Eq{"id": id}))
	if err != nil {
		return fmt.Errorf("sqlstore: deleting user %d: %w", id, err)
	}
	if n == 0 {
		return apperror.NotFound("user", id)
	}
	return nil
}
