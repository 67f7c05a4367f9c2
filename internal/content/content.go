// Package content loads and serves the static book content: books broken
// into chapters, lessons, and typed exercises. The engine treats content as
// read-only input; nothing here is ever mutated after load.
package content

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	"github.com/phrazzld/mindset-api/internal/domain"
	"github.com/phrazzld/mindset-api/internal/domain/exercise"
)

// Book is one content unit: an ordered list of chapters derived from a
// source book.
type Book struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Author   string    `json:"author"`
	Premium  bool      `json:"premium"`
	Chapters []Chapter `json:"chapters"`
}

// Chapter groups an ordered list of lessons.
type Chapter struct {
	Title   string   `json:"title"`
	Lessons []Lesson `json:"lessons"`
}

// Lesson is an ordered list of exercises with a title.
type Lesson struct {
	Title     string              `json:"title"`
	Exercises []exercise.Exercise `json:"exercises"`
}

// Library is the loaded, immutable content catalog.
type Library struct {
	books []Book
	byID  map[string]int
}

// LoadDir loads every .json book file under dir into a Library.
func LoadDir(dir string) (*Library, error) {
	return Load(os.DirFS(dir))
}

// Load loads every .json book file from the filesystem root into a Library.
// Books are sorted by ID so the catalog order is stable across loads.
func Load(fsys fs.FS) (*Library, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to read content directory: %w", err)
	}

	var books []Book
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		data, err := fs.ReadFile(fsys, entry.Name())
		if err != nil {
			return nil, fmt.Errorf("failed to read content file %s: %w", entry.Name(), err)
		}
		var book Book
		if err := json.Unmarshal(data, &book); err != nil {
			return nil, fmt.Errorf("failed to parse content file %s: %w", entry.Name(), err)
		}
		if err := validateBook(&book); err != nil {
			return nil, fmt.Errorf("invalid content file %s: %w", entry.Name(), err)
		}
		books = append(books, book)
	}

	sort.Slice(books, func(i, j int) bool { return books[i].ID < books[j].ID })

	byID := make(map[string]int, len(books))
	for i, book := range books {
		if _, dup := byID[book.ID]; dup {
			return nil, fmt.Errorf("duplicate book ID %q", book.ID)
		}
		byID[book.ID] = i
	}

	return &Library{books: books, byID: byID}, nil
}

func validateBook(book *Book) error {
	if book.ID == "" {
		return fmt.Errorf("book ID cannot be empty")
	}
	if book.Title == "" {
		return fmt.Errorf("book title cannot be empty")
	}
	if len(book.Chapters) == 0 {
		return fmt.Errorf("book %q has no chapters", book.ID)
	}
	for ci, chapter := range book.Chapters {
		if len(chapter.Lessons) == 0 {
			return fmt.Errorf("book %q chapter %d has no lessons", book.ID, ci)
		}
		for li, lesson := range chapter.Lessons {
			if len(lesson.Exercises) == 0 {
				return fmt.Errorf("book %q chapter %d lesson %d has no exercises", book.ID, ci, li)
			}
		}
	}
	return nil
}

// Books returns the catalog in stable order.
func (l *Library) Books() []Book {
	return l.books
}

// Book returns the book with the given ID.
func (l *Library) Book(id string) (*Book, bool) {
	i, ok := l.byID[id]
	if !ok {
		return nil, false
	}
	return &l.books[i], true
}

// Lesson returns the lesson at the zero-based chapter and lesson indices.
func (l *Library) Lesson(bookID string, chapter, lesson int) (*Lesson, bool) {
	book, ok := l.Book(bookID)
	if !ok {
		return nil, false
	}
	if chapter < 0 || chapter >= len(book.Chapters) {
		return nil, false
	}
	lessons := book.Chapters[chapter].Lessons
	if lesson < 0 || lesson >= len(lessons) {
		return nil, false
	}
	return &lessons[lesson], true
}

// Exercise resolves a review pointer to the exercise it references.
func (l *Library) Exercise(ptr domain.ReviewPointer) (*exercise.Exercise, bool) {
	lesson, ok := l.Lesson(ptr.Book, ptr.Chapter, ptr.Lesson)
	if !ok {
		return nil, false
	}
	if ptr.Exercise < 0 || ptr.Exercise >= len(lesson.Exercises) {
		return nil, false
	}
	return &lesson.Exercises[ptr.Exercise], true
}
