package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"

	"library-catalog/auth"
	"library-catalog/library"
)

type statusUpdate struct {
	Status library.Status `json:"status"`
}

// --------- Auth ---------

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in auth.LoginRequest
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.authn.Login(r.Context(), in.Username, in.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// --------- Books ---------

func (s *Server) handleListBooks(w http.ResponseWriter, r *http.Request) {
	books, err := s.catalog.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Cache-Control", s.cacheControl)
	writeJSON(w, http.StatusOK, books)
}

func (s *Server) handleCreateBook(w http.ResponseWriter, r *http.Request) {
	var in library.BookInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	book, err := s.catalog.Create(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, book)
}

func (s *Server) handleGetBook(w http.ResponseWriter, r *http.Request) {
	id, ok := s.bookID(w, r)
	if !ok {
		return
	}
	book, err := s.catalog.Get(r.Context(), id)
	if err != nil {
		s.writeBookError(w, r, id, err)
		return
	}
	w.Header().Set("Cache-Control", s.cacheControl)
	writeJSON(w, http.StatusOK, book)
}

func (s *Server) handleUpdateBook(w http.ResponseWriter, r *http.Request) {
	id, ok := s.bookID(w, r)
	if !ok {
		return
	}
	var in library.BookInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	book, err := s.catalog.Update(r.Context(), id, in)
	if err != nil {
		s.writeBookError(w, r, id, err)
		return
	}
	writeJSON(w, http.StatusOK, book)
}

func (s *Server) handleDeleteBook(w http.ResponseWriter, r *http.Request) {
	id, ok := s.bookID(w, r)
	if !ok {
		return
	}
	if err := s.catalog.Delete(r.Context(), id); err != nil {
		s.writeBookError(w, r, id, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := s.bookID(w, r)
	if !ok {
		return
	}
	var in statusUpdate
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	book, err := s.catalog.SetStatus(r.Context(), id, in.Status)
	if err != nil {
		s.writeBookError(w, r, id, err)
		return
	}
	writeJSON(w, http.StatusOK, book)
}

// --------- Health ---------

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.health.Ping(ctx); err != nil {
			requestLogger(r, s.log).WithError(err).Warn("health check failed")
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{"ok": false})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// --------- utils ---------

// bookID parses the {id} route parameter. The route pattern only admits
// digits, so failure here means the value overflowed int64.
func (s *Server) bookID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		errorJSON(w, http.StatusNotFound, "not found")
		return 0, false
	}
	return id, true
}

func (s *Server) writeBookError(w http.ResponseWriter, r *http.Request, id int64, err error) {
	if errors.Is(err, library.ErrNotFound) {
		errorJSON(w, http.StatusNotFound, fmt.Sprintf("Book %d not found", id))
		return
	}
	s.writeError(w, r, err)
}
