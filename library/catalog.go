package library

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/sirupsen/logrus"
)

// BookStore is the persistence the catalog needs. *Database implements it.
type BookStore interface {
	AddBook(ctx context.Context, name string, status Status) (int64, error)
	GetBook(ctx context.Context, id int64) (*Book, error)
	GetAllBooks(ctx context.Context) ([]*Book, error)
	UpdateBook(ctx context.Context, id int64, name string, status Status) (int64, error)
	DeleteBook(ctx context.Context, id int64) (int64, error)
	SetBookStatus(ctx context.Context, id int64, status Status) (*Book, error)
}

// Catalog implements the book operations exposed by the API. Callers are
// expected to have authorized the request before invoking any method.
type Catalog struct {
	store BookStore
	log   logrus.FieldLogger

	// StrictStatus applies the status enum check to Create and Update as well
	// as SetStatus. When false, Create and Update persist whatever status they
	// are given.
	StrictStatus bool
}

// NewCatalog returns a catalog with strict status validation enabled.
func NewCatalog(store BookStore, log logrus.FieldLogger) *Catalog {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Catalog{store: store, log: log, StrictStatus: true}
}

// ------------------ Reads ------------------

func (c *Catalog) List(ctx context.Context) ([]*Book, error) {
	return c.store.GetAllBooks(ctx)
}

func (c *Catalog) Get(ctx context.Context, id int64) (*Book, error) {
	return c.store.GetBook(ctx, id)
}

// ------------------ Writes ------------------

// Create stores a new book and returns it with the assigned id.
func (c *Catalog) Create(ctx context.Context, in BookInput) (*Book, error) {
	if err := c.validate(in); err != nil {
		return nil, err
	}
	id, err := c.store.AddBook(ctx, in.Name, in.Status)
	if err != nil {
		return nil, err
	}
	c.log.WithFields(logrus.Fields{"book_id": id, "status": in.Status}).Info("book created")
	return &Book{ID: id, Name: in.Name, Status: in.Status}, nil
}

// Update overwrites a book. A missing id is not an error; the book is
// returned as given.
func (c *Catalog) Update(ctx context.Context, id int64, in BookInput) (*Book, error) {
	if err := c.validate(in); err != nil {
		return nil, err
	}
	n, err := c.store.UpdateBook(ctx, id, in.Name, in.Status)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		c.log.WithField("book_id", id).Debug("update matched no rows")
	}
	return &Book{ID: id, Name: in.Name, Status: in.Status}, nil
}

// Delete removes a book. Deleting a missing id succeeds.
func (c *Catalog) Delete(ctx context.Context, id int64) error {
	n, err := c.store.DeleteBook(ctx, id)
	if err != nil {
		return err
	}
	if n == 0 {
		c.log.WithField("book_id", id).Debug("delete matched no rows")
	}
	return nil
}

// SetStatus moves a book between available and borrowed. The status is
// checked before the book is looked up.
func (c *Catalog) SetStatus(ctx context.Context, id int64, status Status) (*Book, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	book, err := c.store.SetBookStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}
	c.log.WithFields(logrus.Fields{"book_id": id, "status": status}).Info("book status changed")
	return book, nil
}

// ------------------ Validation ------------------

func (c *Catalog) validate(in BookInput) error {
	err := validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.Required),
		validation.Field(&in.Status, validation.Required),
	)
	if err != nil {
		return inputError{err}
	}
	if c.StrictStatus && !in.Status.Valid() {
		return ErrInvalidStatus
	}
	return nil
}

// inputError keeps the validator's message while matching ErrBadRequest.
type inputError struct{ err error }

func (e inputError) Error() string        { return e.err.Error() }
func (e inputError) Unwrap() error        { return e.err }
func (e inputError) Is(target error) bool { return target == ErrBadRequest }
