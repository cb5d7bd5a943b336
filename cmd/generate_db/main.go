package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"library-catalog/auth"
	"library-catalog/config"
	"library-catalog/library"
)

var sampleBooks = []struct {
	name   string
	status library.Status
}{
	{"The Great Gatsby", library.StatusAvailable},
	{"To Kill a Mockingbird", library.StatusBorrowed},
	{"1984", library.StatusAvailable},
	{"Pride and Prejudice", library.StatusAvailable},
	{"The Catcher in the Rye", library.StatusBorrowed},
}

var sampleAccounts = []struct {
	username, password string
	role               library.Role
}{
	{"admin", "admin123", library.RoleAdmin},
	{"user1", "user123", library.RoleUser},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	hasher, err := auth.NewHasher(cfg.PasswordHasher)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Clean up any existing database files
	fmt.Println("Cleaning up existing database files...")
	for _, file := range []string{cfg.DBPath, cfg.DBPath + "-shm", cfg.DBPath + "-wal"} {
		if err := os.Remove(file); err != nil && !os.IsNotExist(err) {
			fmt.Printf("Warning: Could not remove %s: %v\n", file, err)
		}
	}
	fmt.Println("Database cleanup complete.")

	if err := provision(context.Background(), cfg.DBPath, hasher, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// provision creates the schema at dbPath and fills it with the sample
// catalog and accounts.
func provision(ctx context.Context, dbPath string, hasher auth.Hasher, out io.Writer) error {
	db, err := library.NewDatabase(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	for _, b := range sampleBooks {
		if _, err := db.AddBook(ctx, b.name, b.status); err != nil {
			return err
		}
	}
	for _, a := range sampleAccounts {
		digest, err := hasher.Hash(a.password)
		if err != nil {
			return err
		}
		if _, err := db.AddAccount(ctx, a.username, digest, a.role); err != nil {
			return err
		}
	}

	fmt.Fprintf(out, "\nDatabase %s created.\n", dbPath)

	books, err := db.GetAllBooks(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "\nBooks:")
	fmt.Fprintf(out, "%-3s %-40s %-10s\n", "ID", "Name", "Status")
	fmt.Fprintln(out, strings.Repeat("-", 55))
	for _, b := range books {
		fmt.Fprintf(out, "%-3d %-40s %-10s\n", b.ID, b.Name, b.Status)
	}

	accounts, err := db.GetAllAccounts(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "\nAccounts:")
	fmt.Fprintf(out, "%-3s %-20s %-10s\n", "ID", "Username", "Role")
	fmt.Fprintln(out, strings.Repeat("-", 35))
	for _, a := range accounts {
		fmt.Fprintf(out, "%-3d %-20s %-10s\n", a.ID, a.Username, a.Role)
	}
	return nil
}
