package store

import (
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func postRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "user_id", "title", "content", "created_at", "updated_at"})
}

func TestListByUser_QueryShape(t *testing.T) {
	gdb, mock, closeDB := newMockDB(t)
	defer closeDB()

	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT count(*) FROM `posts` WHERE user_id = ?")).
		WithArgs(uint(7)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))

	// Page 2 must order newest first and skip exactly one page of 5.
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `posts` WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT 5 OFFSET 5")).
		WithArgs(uint(7)).
		WillReturnRows(postRows().
			AddRow(7, 7, "post 7", "body", now, now).
			AddRow(6, 7, "post 6", "body", now, now).
			AddRow(5, 7, "post 5", "body", now, now).
			AddRow(4, 7, "post 4", "body", now, now).
			AddRow(3, 7, "post 3", "body", now, now))

	s := NewPostStore(gdb)
	posts, total, err := s.ListByUser(7, 2)
	if err != nil {
		t.Fatalf("ListByUser error: %v", err)
	}
	if total != 12 {
		t.Fatalf("expected total 12, got %d", total)
	}
	if len(posts) != 5 || posts[0].ID != 7 || posts[4].ID != 3 {
		t.Fatalf("unexpected page contents: %+v", posts)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestListByUser_PageBeyondLastIsEmpty(t *testing.T) {
	gdb, mock, closeDB := newMockDB(t)
	defer closeDB()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT count(*) FROM `posts` WHERE user_id = ?")).
		WithArgs(uint(7)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `posts` WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT 5 OFFSET 15")).
		WithArgs(uint(7)).
		WillReturnRows(postRows())

	s := NewPostStore(gdb)
	posts, total, err := s.ListByUser(7, 4)
	if err != nil {
		t.Fatalf("ListByUser error: %v", err)
	}
	if total != 12 {
		t.Fatalf("expected total 12, got %d", total)
	}
	if len(posts) != 0 {
		t.Fatalf("expected empty page, got %d posts", len(posts))
	}
}

func TestListByUser_PageClampedToOne(t *testing.T) {
	gdb, mock, closeDB := newMockDB(t)
	defer closeDB()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT count(*) FROM `posts` WHERE user_id = ?")).
		WithArgs(uint(7)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	// Page 0 behaves as page 1: no OFFSET clause at all.
	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `posts` WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT 5")).
		WithArgs(uint(7)).
		WillReturnRows(postRows().AddRow(1, 7, "only", "body", now, now))

	s := NewPostStore(gdb)
	posts, _, err := s.ListByUser(7, 0)
	if err != nil {
		t.Fatalf("ListByUser error: %v", err)
	}
	if len(posts) != 1 {
		t.Fatalf("expected 1 post, got %d", len(posts))
	}
}

func TestDeletePost_Missing(t *testing.T) {
	gdb, mock, closeDB := newMockDB(t)
	defer closeDB()

	mock.ExpectExec("DELETE FROM `posts`").
		WillReturnResult(sqlmock.NewResult(0, 0))

	s := NewPostStore(gdb)
	if err := s.Delete(42); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
