package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/phrazzld/mindset-api/internal/api/shared"
	"github.com/phrazzld/mindset-api/internal/content"
)

// ContentHandler serves the static book catalog.
type ContentHandler struct {
	library *content.Library
}

// NewContentHandler creates a new ContentHandler.
func NewContentHandler(library *content.Library) *ContentHandler {
	return &ContentHandler{library: library}
}

// ListBooks handles GET /books.
func (h *ContentHandler) ListBooks(w http.ResponseWriter, r *http.Request) {
	books := h.library.Books()
	summaries := make([]BookSummary, 0, len(books))
	for _, book := range books {
		summaries = append(summaries, BookSummary{
			ID:       book.ID,
			Title:    book.Title,
			Author:   book.Author,
			Premium:  book.Premium,
			Chapters: len(book.Chapters),
		})
	}
	shared.RespondWithJSON(w, r, http.StatusOK, summaries)
}

// GetBook handles GET /books/{bookID}, returning the full book with its
// chapters, lessons, and exercises.
func (h *ContentHandler) GetBook(w http.ResponseWriter, r *http.Request) {
	bookID := chi.URLParam(r, "bookID")
	book, found := h.library.Book(bookID)
	if !found {
		shared.RespondWithError(w, r, http.StatusNotFound, "Book not found")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, book)
}
