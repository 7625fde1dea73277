package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"testing"

	sq "github.com/Masterminds/squirrel"

	"github.com/sakif/findsboard/internal/apperror"
	"github.com/sakif/findsboard/internal/model"
	"github.com/sakif/findsboard/internal/repository"
)

// newTestDB opens a private in-memory SQLite database with the full schema.
// Every test gets its own database, so tests never see each other's rows.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	ctx := context.Background()

	db, err := Open(ctx, "sqlite::memory:")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}
	return db
}

func createTestUser(t *testing.T, db *DB, name string) *model.User {
	t.Helper()
	user := &model.User{
		DiscordID: "discord-" + name,
		Username:  name,
		Email:     name + "@mail.test",
	}
	if err := db.Users().Create(context.Background(), user); err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

func createTestFind(t *testing.T, db *DB, userID int64, title string, tags ...string) *model.Find {
	t.Helper()
	find := &model.Find{UserID: userID, Title: title}
	if err := db.Finds().Create(context.Background(), find, tags); err != nil {
		t.Fatalf("failed to create test find: %v", err)
	}
	return find
}

func countRows(t *testing.T, db *DB, table string) int {
	t.Helper()
	var n int
	if err := db.conn.Get(&n, fmt.Sprintf("SELECT COUNT(*) FROM %s", table)); err != nil {
		t.Fatalf("counting %s: %v", table, err)
	}
	return n
}

// =========================================================================
// OPEN / PARSE TESTS
// =========================================================================

func TestParseURL(t *testing.T) {
	tests := []struct {
		url     string
		dialect Dialect
		dsn     string
	}{
		{"postgres://u:p@localhost/db", DialectPostgres, "postgres://u:p@localhost/db"},
		{"postgresql://localhost/db", DialectPostgres, "postgresql://localhost/db"},
		{"sqlite://data/app.db", DialectSQLite, "data/app.db"},
		{"sqlite::memory:", DialectSQLite, ":memory:"},
		{"data/app.db", DialectSQLite, "data/app.db"},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			dialect, dsn := ParseURL(tt.url)
			if dialect != tt.dialect {
				t.Errorf("dialect = %q, want %q", dialect, tt.dialect)
			}
			if dsn != tt.dsn {
				t.Errorf("dsn = %q, want %q", dsn, tt.dsn)
			}
		})
	}
}

func TestNew_PlaceholdersFollowDialect(t *testing.T) {
	tests := []struct {
		dialect Dialect
		want    string
	}{
		{DialectSQLite, "SELECT id FROM finds WHERE user_id = ? AND title = ?"},
		{DialectPostgres, "SELECT id FROM finds WHERE user_id = $1 AND title = $2"},
	}

	for _, tt := range tests {
		t.Run(string(tt.dialect), func(t *testing.T) {
			db := New(nil, tt.dialect)
			query, _, err := db.sb.Select("id").From("finds").
				Where(sq.Eq{"user_id": 1}).Where(sq.Eq{"title": "x"}).ToSql()
			if err != nil {
				t.Fatalf("ToSql() error = %v", err)
			}
			if query != tt.want {
				t.Errorf("query = %q, want %q", query, tt.want)
			}
		})
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	db := newTestDB(t)

	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("second Migrate() error = %v", err)
	}
}

func TestLikePattern_EscapesWildcards(t *testing.T) {
	if got := likePattern(`50%_Off\`); got != `%50\%\_off\\%` {
		t.Errorf("likePattern() = %q", got)
	}
}

// =========================================================================
// USER TESTS
// =========================================================================

func TestUserCreate_DefaultsRole(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "alice")

	if user.ID == 0 {
		t.Fatal("Create() did not set ID")
	}
	if user.Role != model.RoleUser {
		t.Errorf("Role = %q, want %q", user.Role, model.RoleUser)
	}

	found, err := db.Users().GetByDiscordID(context.Background(), "discord-alice")
	if err != nil {
		t.Fatalf("GetByDiscordID() error = %v", err)
	}
	if found.ID != user.ID || found.Email != "alice@mail.test" {
		t.Errorf("found = %+v", found)
	}
	if !found.CreatedAt.Equal(user.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", found.CreatedAt, user.CreatedAt)
	}
}

func TestUserCreate_DuplicateDiscordID(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "alice")

	dup := &model.User{DiscordID: "discord-alice", Username: "other", Email: "other@mail.test"}
	err := db.Users().Create(context.Background(), dup)

	if !apperror.IsConstraint(err, apperror.ConstraintUnique) {
		t.Errorf("Create() error = %v, want unique constraint", err)
	}
}

func TestUserCreate_InvalidRoleRejected(t *testing.T) {
	db := newTestDB(t)

	user := &model.User{DiscordID: "d1", Username: "x", Email: "x@mail.test", Role: "superuser"}
	err := db.Users().Create(context.Background(), user)

	if !apperror.IsConstraint(err, apperror.ConstraintCheck) {
		t.Errorf("Create() error = %v, want check constraint", err)
	}
}

func TestUserGetByID_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.Users().GetByID(context.Background(), 42)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByID() error = %v, want ErrNotFound", err)
	}
}

func TestUserRecordLogin_ReplacesEmail(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, "bob")

	email := "bob@discord.test"
	if err := db.Users().RecordLogin(ctx, user.ID, &email); err != nil {
		t.Fatalf("RecordLogin() error = %v", err)
	}
	found, _ := db.Users().GetByID(ctx, user.ID)
	if found.Email != email {
		t.Errorf("Email = %q, want %q", found.Email, email)
	}

	if err := db.Users().RecordLogin(ctx, user.ID, nil); err != nil {
		t.Fatalf("RecordLogin(nil) error = %v", err)
	}
	found, _ = db.Users().GetByID(ctx, user.ID)
	if found.Email != email {
		t.Errorf("Email after nil = %q, want unchanged %q", found.Email, email)
	}
}

func TestUserSearch_CaseInsensitive(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "CoolCat")
	createTestUser(t, db, "dog")

	users, err := db.Users().Search(context.Background(), "coolc", 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(users) != 1 || users[0].Username != "CoolCat" {
		t.Errorf("Search() = %+v, want CoolCat only", users)
	}
}

func TestUserDelete_CascadesAndKeepsLogs(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")

	find := createTestFind(t, db, alice.ID, "alice's find", "music")
	bobFind := createTestFind(t, db, bob.ID, "bob's find")
	if err := db.Reviews().Create(ctx, &model.Review{UserID: alice.ID, FindID: bobFind.ID, Rating: model.RatingGood}); err != nil {
		t.Fatalf("creating review: %v", err)
	}
	if err := db.Lists().Create(ctx, &model.List{UserID: alice.ID, Title: "faves"}); err != nil {
		t.Fatalf("creating list: %v", err)
	}
	entry := &model.Log{UserID: &alice.ID, Message: "alice did a thing"}
	if err := db.Logs().Create(ctx, entry); err != nil {
		t.Fatalf("creating log: %v", err)
	}

	if err := db.Users().Delete(ctx, alice.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if _, err := db.Finds().Get(ctx, find.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("find survived its owner: %v", err)
	}
	if n := countRows(t, db, "reviews"); n != 0 {
		t.Errorf("reviews = %d, want 0", n)
	}
	if n := countRows(t, db, "lists"); n != 0 {
		t.Errorf("lists = %d, want 0", n)
	}
	if _, err := db.Finds().Get(ctx, bobFind.ID); err != nil {
		t.Errorf("bob's find was removed: %v", err)
	}

	kept, err := db.Logs().GetByID(ctx, entry.ID)
	if err != nil {
		t.Fatalf("log entry was removed: %v", err)
	}
	if kept.UserID != nil {
		t.Errorf("log UserID = %d, want nil", *kept.UserID)
	}
}

// =========================================================================
// FIND TESTS
// =========================================================================

func TestFindCreate_WithTags(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "alice")
	find := createTestFind(t, db, user.ID, "Great album", "music", "jazz")

	details, err := db.Finds().GetDetails(context.Background(), find.ID)
	if err != nil {
		t.Fatalf("GetDetails() error = %v", err)
	}

	if details.User.Username != "alice" {
		t.Errorf("User.Username = %q, want alice", details.User.Username)
	}
	if len(details.Tags) != 2 || details.Tags[0].Name != "jazz" || details.Tags[1].Name != "music" {
		t.Errorf("Tags = %+v, want [jazz music]", details.Tags)
	}
}

func TestFindCreate_SharesExistingTag(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "alice")
	createTestFind(t, db, user.ID, "one", "music")
	createTestFind(t, db, user.ID, "two", "music")

	if n := countRows(t, db, "tags"); n != 1 {
		t.Errorf("tags = %d, want 1", n)
	}
	if n := countRows(t, db, "finds_to_tags"); n != 2 {
		t.Errorf("finds_to_tags = %d, want 2", n)
	}
}

func TestFindCreate_UnknownUserRejected(t *testing.T) {
	db := newTestDB(t)

	err := db.Finds().Create(context.Background(), &model.Find{UserID: 999, Title: "orphan"}, nil)
	if !apperror.IsConstraint(err, apperror.ConstraintForeignKey) {
		t.Errorf("Create() error = %v, want foreign key constraint", err)
	}
}

func TestFindAttachTag_DuplicateRejected(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, "alice")
	find := createTestFind(t, db, user.ID, "tagged", "music")

	tag, err := db.Tags().GetByName(ctx, "music")
	if err != nil {
		t.Fatalf("GetByName() error = %v", err)
	}

	err = db.Finds().AttachTag(ctx, find.ID, tag.ID)
	if !errors.Is(err, apperror.ErrConstraint) {
		t.Fatalf("AttachTag() error = %v, want ErrConstraint", err)
	}
	if !apperror.IsConstraint(err, apperror.ConstraintUnique) {
		t.Errorf("AttachTag() kind mismatch: %v", err)
	}
	if n := countRows(t, db, "finds_to_tags"); n != 1 {
		t.Errorf("finds_to_tags = %d, want 1", n)
	}
}

func TestFindUpdate_ReplacesTags(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, "alice")
	find := createTestFind(t, db, user.ID, "before", "old")

	find.Title = "after"
	if err := db.Finds().Update(ctx, find, []string{"new"}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	details, _ := db.Finds().GetDetails(ctx, find.ID)
	if details.Title != "after" {
		t.Errorf("Title = %q, want after", details.Title)
	}
	if len(details.Tags) != 1 || details.Tags[0].Name != "new" {
		t.Errorf("Tags = %+v, want [new]", details.Tags)
	}

	// nil keeps the current tags
	if err := db.Finds().Update(ctx, find, nil); err != nil {
		t.Fatalf("Update(nil tags) error = %v", err)
	}
	details, _ = db.Finds().GetDetails(ctx, find.ID)
	if len(details.Tags) != 1 {
		t.Errorf("Tags = %+v, want unchanged", details.Tags)
	}
}

func TestFindDelete_KeepsTagsAndLists(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, "alice")
	find := createTestFind(t, db, user.ID, "doomed", "music")

	list := &model.List{UserID: user.ID, Title: "faves"}
	if err := db.Lists().Create(ctx, list); err != nil {
		t.Fatalf("creating list: %v", err)
	}
	if err := db.Lists().AddItem(ctx, &model.ListItem{ListID: list.ID, FindID: find.ID, UserID: user.ID}); err != nil {
		t.Fatalf("AddItem() error = %v", err)
	}
	if err := db.Reviews().Create(ctx, &model.Review{UserID: user.ID, FindID: find.ID, Rating: model.RatingBad}); err != nil {
		t.Fatalf("creating review: %v", err)
	}

	if err := db.Finds().Delete(ctx, find.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	for table, want := range map[string]int{
		"tags":          1,
		"lists":         1,
		"finds_to_tags": 0,
		"list_items":    0,
		"reviews":       0,
	} {
		if n := countRows(t, db, table); n != want {
			t.Errorf("%s = %d, want %d", table, n, want)
		}
	}
}

func TestFindList_Pagination(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "alice")
	for i := 1; i <= 25; i++ {
		createTestFind(t, db, user.ID, fmt.Sprintf("find %02d", i))
	}

	q := repositoryFindQuery(10, 10, "", "")
	finds, err := db.Finds().List(context.Background(), q)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}

	if len(finds) != 10 {
		t.Fatalf("len = %d, want 10", len(finds))
	}
	// Newest first: page 2 holds the 11th..20th newest, i.e. finds 15..06.
	if finds[0].Title != "find 15" || finds[9].Title != "find 06" {
		t.Errorf("page = %q..%q, want find 15..find 06", finds[0].Title, finds[9].Title)
	}
}

func TestFindList_SortByTitle(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "alice")
	for _, title := range []string{"banana", "cherry", "apple"} {
		createTestFind(t, db, user.ID, title)
	}

	finds, err := db.Finds().List(context.Background(), repositoryFindQuery(0, 0, "title", "desc"))
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}

	var got []string
	for _, f := range finds {
		got = append(got, f.Title)
	}
	if fmt.Sprint(got) != "[cherry banana apple]" {
		t.Errorf("order = %v, want [cherry banana apple]", got)
	}
}

func TestFindList_Filters(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	createTestFind(t, db, alice.ID, "Jazz Record", "Music")
	createTestFind(t, db, bob.ID, "Hiking boots", "outdoors")
	createTestFind(t, db, bob.ID, "100% cotton")

	tests := []struct {
		name  string
		query func(*repoQuery)
		want  []string
	}{
		{"title", func(q *repoQuery) { q.Title = "jazz" }, []string{"Jazz Record"}},
		{"username", func(q *repoQuery) { q.Username = "BO" }, []string{"100% cotton", "Hiking boots"}},
		{"tag", func(q *repoQuery) { q.Tag = "music" }, []string{"Jazz Record"}},
		{"user id", func(q *repoQuery) { q.UserID = alice.ID }, []string{"Jazz Record"}},
		{"literal percent", func(q *repoQuery) { q.Title = "0%" }, []string{"100% cotton"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := repositoryFindQuery(0, 0, "title", "asc")
			tt.query(&q)

			finds, err := db.Finds().List(ctx, q)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			var got []string
			for _, f := range finds {
				got = append(got, f.Title)
			}
			if fmt.Sprint(got) != fmt.Sprint(tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

// =========================================================================
// TAG TESTS
// =========================================================================

func TestTagGetOrCreate_Idempotent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	first, err := db.Tags().GetOrCreate(ctx, "music")
	if err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}
	second, err := db.Tags().GetOrCreate(ctx, "music")
	if err != nil {
		t.Fatalf("GetOrCreate() second error = %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("IDs differ: %d vs %d", first.ID, second.ID)
	}
}

func TestTagDelete_DetachesOnly(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, "alice")
	find := createTestFind(t, db, user.ID, "tagged", "music")

	tag, _ := db.Tags().GetByName(ctx, "music")
	if err := db.Tags().Delete(ctx, tag.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	details, err := db.Finds().GetDetails(ctx, find.ID)
	if err != nil {
		t.Fatalf("find was removed with its tag: %v", err)
	}
	if len(details.Tags) != 0 {
		t.Errorf("Tags = %+v, want none", details.Tags)
	}
}

// =========================================================================
// REVIEW / LIST / COMMENT TESTS
// =========================================================================

func TestReviewCreate_InvalidRatingRejected(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "alice")
	find := createTestFind(t, db, user.ID, "thing")

	err := db.Reviews().Create(context.Background(), &model.Review{UserID: user.ID, FindID: find.ID, Rating: "meh"})
	if !apperror.IsConstraint(err, apperror.ConstraintCheck) {
		t.Errorf("Create() error = %v, want check constraint", err)
	}
}

func TestReviewListByFind(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, "alice")
	find := createTestFind(t, db, user.ID, "thing")
	other := createTestFind(t, db, user.ID, "other")

	content := "loved it"
	for _, r := range []*model.Review{
		{UserID: user.ID, FindID: find.ID, Rating: model.RatingGood, Content: &content},
		{UserID: user.ID, FindID: find.ID, Rating: model.RatingNeutral},
		{UserID: user.ID, FindID: other.ID, Rating: model.RatingBad},
	} {
		if err := db.Reviews().Create(ctx, r); err != nil {
			t.Fatalf("creating review: %v", err)
		}
	}

	reviews, err := db.Reviews().ListByFind(ctx, find.ID)
	if err != nil {
		t.Fatalf("ListByFind() error = %v", err)
	}
	if len(reviews) != 2 {
		t.Fatalf("len = %d, want 2", len(reviews))
	}
	if reviews[0].Rating != model.RatingNeutral || reviews[0].User.Username != "alice" {
		t.Errorf("newest review = %+v", reviews[0])
	}

	found, err := db.Reviews().Search(ctx, "LOVED", 5)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(found) != 1 || *found[0].Content != content {
		t.Errorf("Search() = %+v", found)
	}
}

func TestListItems(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, "alice")
	find := createTestFind(t, db, user.ID, "thing")

	list := &model.List{UserID: user.ID, Title: "faves", Private: true}
	if err := db.Lists().Create(ctx, list); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := db.Lists().AddItem(ctx, &model.ListItem{ListID: list.ID, FindID: find.ID, UserID: user.ID}); err != nil {
		t.Fatalf("AddItem() error = %v", err)
	}
	err := db.Lists().AddItem(ctx, &model.ListItem{ListID: list.ID, FindID: find.ID, UserID: user.ID})
	if !apperror.IsConstraint(err, apperror.ConstraintUnique) {
		t.Errorf("second AddItem() error = %v, want unique constraint", err)
	}

	details, err := db.Lists().GetDetails(ctx, list.ID)
	if err != nil {
		t.Fatalf("GetDetails() error = %v", err)
	}
	if len(details.Items) != 1 || details.Items[0].Find.Title != "thing" {
		t.Errorf("Items = %+v", details.Items)
	}

	public, _ := db.Lists().ListPublic(ctx, repoOptions(0, 0))
	if len(public) != 0 {
		t.Errorf("private list listed publicly: %+v", public)
	}
	mine, _ := db.Lists().ListByUser(ctx, user.ID, true)
	if len(mine) != 1 {
		t.Errorf("ListByUser(includePrivate) = %d lists, want 1", len(mine))
	}

	if err := db.Lists().RemoveItem(ctx, list.ID, find.ID); err != nil {
		t.Fatalf("RemoveItem() error = %v", err)
	}
	if err := db.Lists().RemoveItem(ctx, list.ID, find.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("second RemoveItem() error = %v, want ErrNotFound", err)
	}
}

func TestComments_PerTarget(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, "alice")
	find := createTestFind(t, db, user.ID, "thing")

	comment := &model.Comment{Target: model.CommentOnFind, TargetID: find.ID, UserID: user.ID, Content: "nice"}
	if err := db.Comments().Create(ctx, comment); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	comments, err := db.Comments().List(ctx, model.CommentOnFind, find.ID)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(comments) != 1 || comments[0].Target != model.CommentOnFind || comments[0].TargetID != find.ID {
		t.Errorf("List() = %+v", comments)
	}

	// Same id, different target kind: a different table.
	if _, err := db.Comments().GetByID(ctx, model.CommentOnList, comment.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByID(list) error = %v, want ErrNotFound", err)
	}

	if err := db.Finds().Delete(ctx, find.ID); err != nil {
		t.Fatalf("deleting find: %v", err)
	}
	if n := countRows(t, db, "find_comments"); n != 0 {
		t.Errorf("find_comments = %d, want 0", n)
	}
}

func TestComments_UnknownTarget(t *testing.T) {
	db := newTestDB(t)

	_, err := db.Comments().List(context.Background(), "emoji", 1)
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("List() error = %v, want ErrValidation", err)
	}
}

// =========================================================================
// SUBSCRIPTION / NOTIFICATION TESTS
// =========================================================================

func TestSubscriptions(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	tag, _ := db.Tags().GetOrCreate(ctx, "music")

	toUser := &model.Subscription{UserID: alice.ID, Target: model.SubscribeUser, TargetID: bob.ID}
	toTag := &model.Subscription{UserID: alice.ID, Target: model.SubscribeTag, TargetID: tag.ID}
	for _, s := range []*model.Subscription{toUser, toTag} {
		if err := db.Subscriptions().Subscribe(ctx, s); err != nil {
			t.Fatalf("Subscribe(%s) error = %v", s.Target, err)
		}
	}

	subs, err := db.Subscriptions().ListByUser(ctx, alice.ID)
	if err != nil {
		t.Fatalf("ListByUser() error = %v", err)
	}
	if len(subs) != 2 {
		t.Fatalf("len = %d, want 2", len(subs))
	}

	got, err := db.Subscriptions().GetByID(ctx, toTag.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Target != model.SubscribeTag || got.TargetID != tag.ID {
		t.Errorf("GetByID() = %+v", got)
	}

	watchers, err := db.Subscriptions().Subscribers(ctx, model.SubscribeUser, bob.ID)
	if err != nil {
		t.Fatalf("Subscribers() error = %v", err)
	}
	if len(watchers) != 1 || watchers[0].UserID != alice.ID {
		t.Errorf("Subscribers() = %+v", watchers)
	}

	if _, err := db.Subscriptions().Find(ctx, alice.ID, model.SubscribeUser, alice.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Find() error = %v, want ErrNotFound", err)
	}
}

func TestSubscriptionDelete_RemovesNotifications(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")

	sub := &model.Subscription{UserID: alice.ID, Target: model.SubscribeUser, TargetID: bob.ID}
	if err := db.Subscriptions().Subscribe(ctx, sub); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	note := &model.Notification{UserID: alice.ID, SubscriptionID: sub.ID, Message: "bob posted"}
	if err := db.Notifications().Create(ctx, note); err != nil {
		t.Fatalf("creating notification: %v", err)
	}

	if err := db.Subscriptions().Delete(ctx, sub.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if n := countRows(t, db, "notifications"); n != 0 {
		t.Errorf("notifications = %d, want 0", n)
	}
	if n := countRows(t, db, "subscriptions_to_users"); n != 0 {
		t.Errorf("subscriptions_to_users = %d, want 0", n)
	}
}

func TestNotificationMarkRead_OwnerOnly(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")

	sub := &model.Subscription{UserID: alice.ID, Target: model.SubscribeUser, TargetID: bob.ID}
	if err := db.Subscriptions().Subscribe(ctx, sub); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	note := &model.Notification{UserID: alice.ID, SubscriptionID: sub.ID, Message: "bob posted"}
	if err := db.Notifications().Create(ctx, note); err != nil {
		t.Fatalf("creating notification: %v", err)
	}

	if err := db.Notifications().MarkRead(ctx, note.ID, bob.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("MarkRead(other user) error = %v, want ErrNotFound", err)
	}
	if err := db.Notifications().MarkRead(ctx, note.ID, alice.ID); err != nil {
		t.Fatalf("MarkRead() error = %v", err)
	}

	notes, _ := db.Notifications().ListByUser(ctx, alice.ID, repoOptions(0, 0))
	if len(notes) != 1 || !notes[0].Read {
		t.Errorf("ListByUser() = %+v", notes)
	}
}

// =========================================================================
// EMOJI / STATS TESTS
// =========================================================================

func TestEmojiCreate_DuplicateName(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, "alice")

	if err := db.Emoji().Create(ctx, &model.CustomEmoji{Name: "party", UserID: user.ID, ImageURL: "https://img.test/p.png"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	err := db.Emoji().Create(ctx, &model.CustomEmoji{Name: "party", UserID: user.ID, ImageURL: "https://img.test/q.png"})
	if !apperror.IsConstraint(err, apperror.ConstraintUnique) {
		t.Errorf("Create() error = %v, want unique constraint", err)
	}
}

func TestStatsCount(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	createTestFind(t, db, alice.ID, "one", "a", "b")
	createTestFind(t, db, alice.ID, "two")
	createTestFind(t, db, bob.ID, "three")

	finds, err := db.Stats().Count(ctx, "finds")
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if finds != 3 {
		t.Errorf("finds = %d, want 3", finds)
	}

	mine, err := db.Stats().CountByUser(ctx, "finds", alice.ID)
	if err != nil {
		t.Fatalf("CountByUser() error = %v", err)
	}
	if mine != 2 {
		t.Errorf("alice's finds = %d, want 2", mine)
	}

	if _, err := db.Stats().Count(ctx, "users; DROP TABLE users"); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("Count(bad entity) error = %v, want ErrValidation", err)
	}
	if _, err := db.Stats().CountByUser(ctx, "tags", alice.ID); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("CountByUser(tags) error = %v, want ErrValidation", err)
	}
}

type repoQuery = repository.FindQuery

func repoOptions(limit, offset int) repository.ListOptions {
	return repository.ListOptions{Limit: limit, Offset: offset}
}

func repositoryFindQuery(limit, offset int, sortBy, order string) repository.FindQuery {
	return repository.FindQuery{
		ListOptions: repoOptions(limit, offset),
		SortBy:      repository.SortField(sortBy),
		SortOrder:   repository.SortOrder(order),
	}
}
