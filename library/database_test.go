package library

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
)

func tempDB(t *testing.T) *Database {
	t.Helper()
	dir := t.TempDir()
	db, err := NewDatabase(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("new db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestAddAndGetBook(t *testing.T) {
	db := tempDB(t)
	ctx := context.Background()

	id, err := db.AddBook(ctx, "Dune", StatusAvailable)
	if err != nil {
		t.Fatalf("add book: %v", err)
	}
	b, err := db.GetBook(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if b.ID != id || b.Name != "Dune" || b.Status != StatusAvailable {
		t.Fatalf("unexpected book %+v", b)
	}
}

func TestGetMissingBook(t *testing.T) {
	db := tempDB(t)
	_, err := db.GetBook(context.Background(), 99999)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestIDsAreNeverReused(t *testing.T) {
	db := tempDB(t)
	ctx := context.Background()

	first, _ := db.AddBook(ctx, "A", StatusAvailable)
	second, _ := db.AddBook(ctx, "B", StatusAvailable)
	if second <= first {
		t.Fatalf("ids not increasing: %d then %d", first, second)
	}
	if _, err := db.DeleteBook(ctx, second); err != nil {
		t.Fatalf("delete: %v", err)
	}
	third, _ := db.AddBook(ctx, "C", StatusAvailable)
	if third <= second {
		t.Fatalf("id %d reused after delete of %d", third, second)
	}
}

func TestGetAllBooksInsertionOrder(t *testing.T) {
	db := tempDB(t)
	ctx := context.Background()

	books, err := db.GetAllBooks(ctx)
	if err != nil {
		t.Fatalf("list empty: %v", err)
	}
	if books == nil || len(books) != 0 {
		t.Fatalf("want empty non-nil slice, got %#v", books)
	}

	names := []string{"1984", "Pride and Prejudice", "The Great Gatsby"}
	for _, n := range names {
		if _, err := db.AddBook(ctx, n, StatusAvailable); err != nil {
			t.Fatalf("add %s: %v", n, err)
		}
	}
	books, err = db.GetAllBooks(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(books) != len(names) {
		t.Fatalf("want %d books, got %d", len(names), len(books))
	}
	for i, n := range names {
		if books[i].Name != n {
			t.Fatalf("position %d: want %q, got %q", i, n, books[i].Name)
		}
	}
}

func TestUpdateAndDeleteReportRows(t *testing.T) {
	db := tempDB(t)
	ctx := context.Background()
	id, _ := db.AddBook(ctx, "Old", StatusAvailable)

	n, err := db.UpdateBook(ctx, id, "New", StatusBorrowed)
	if err != nil || n != 1 {
		t.Fatalf("update existing: n=%d err=%v", n, err)
	}
	n, err = db.UpdateBook(ctx, 99999, "Ghost", StatusAvailable)
	if err != nil || n != 0 {
		t.Fatalf("update missing: n=%d err=%v", n, err)
	}

	n, err = db.DeleteBook(ctx, id)
	if err != nil || n != 1 {
		t.Fatalf("delete existing: n=%d err=%v", n, err)
	}
	n, err = db.DeleteBook(ctx, id)
	if err != nil || n != 0 {
		t.Fatalf("delete again: n=%d err=%v", n, err)
	}
}

func TestSetBookStatus(t *testing.T) {
	db := tempDB(t)
	ctx := context.Background()
	id, _ := db.AddBook(ctx, "To Kill a Mockingbird", StatusAvailable)

	b, err := db.SetBookStatus(ctx, id, StatusBorrowed)
	if err != nil {
		t.Fatalf("set status: %v", err)
	}
	if b.Name != "To Kill a Mockingbird" || b.Status != StatusBorrowed {
		t.Fatalf("unexpected result %+v", b)
	}
	stored, _ := db.GetBook(ctx, id)
	if stored.Status != StatusBorrowed {
		t.Fatalf("stored status = %q", stored.Status)
	}

	if _, err := db.SetBookStatus(ctx, 99999, StatusBorrowed); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestAccounts(t *testing.T) {
	db := tempDB(t)
	ctx := context.Background()

	id, err := db.AddAccount(ctx, "admin", "digest", RoleAdmin)
	if err != nil {
		t.Fatalf("add account: %v", err)
	}
	a, err := db.FindAccountByUsername(ctx, "admin")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if a.ID != id || a.PasswordHash != "digest" || a.Role != RoleAdmin {
		t.Fatalf("unexpected account %+v", a)
	}

	if _, err := db.AddAccount(ctx, "admin", "other", RoleUser); !errors.Is(err, ErrAccountExists) {
		t.Fatalf("want ErrAccountExists, got %v", err)
	}
	if _, err := db.FindAccountByUsername(ctx, "nobody"); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("want ErrAccountNotFound, got %v", err)
	}

	all, err := db.GetAllAccounts(ctx)
	if err != nil || len(all) != 1 {
		t.Fatalf("list accounts: %v (%d)", err, len(all))
	}
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lib.db")
	db, err := NewDatabase(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	id, _ := db.AddBook(context.Background(), "1984", StatusAvailable)
	db.Close()

	db, err = NewDatabase(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db.Close()
	if _, err := db.GetBook(context.Background(), id); err != nil {
		t.Fatalf("book lost after reopen: %v", err)
	}
}

// TestConcurrentStatusChanges checks that parallel writers leave a valid status behind.
func TestConcurrentStatusChanges(t *testing.T) {
	db := tempDB(t)
	ctx := context.Background()
	id, _ := db.AddBook(ctx, "Contested", StatusAvailable)

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		status := StatusAvailable
		if i%2 == 0 {
			status = StatusBorrowed
		}
		wg.Add(1)
		go func(s Status) {
			defer wg.Done()
			_, err := db.SetBookStatus(ctx, id, s)
			errs <- err
		}(status)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent set status: %v", err)
		}
	}

	b, _ := db.GetBook(ctx, id)
	if !b.Status.Valid() {
		t.Fatalf("invalid status persisted: %q", b.Status)
	}
}
