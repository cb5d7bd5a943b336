package library

// Status is the availability of a book. Only StatusAvailable and
// StatusBorrowed may be persisted.
type Status string

const (
	StatusAvailable Status = "available"
	StatusBorrowed  Status = "borrowed"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	return s == StatusAvailable || s == StatusBorrowed
}

// Role is the authorization level attached to an account.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// Book is a catalog record.
type Book struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Status Status `json:"status"`
}

// BookInput carries the writable fields of a book on create and update.
type BookInput struct {
	Name   string `json:"name"`
	Status Status `json:"status"`
}

// Account represents a provisioned user of the API.
type Account struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"` // Don't serialize password hash
	Role         Role   `json:"role"`
}
