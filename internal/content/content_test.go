package content

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/mindset-api/internal/domain"
)

const mindsetBook = `{
	"id": "mindset",
	"title": "Mindset",
	"author": "Carol Dweck",
	"premium": false,
	"chapters": [
		{
			"title": "The Two Mindsets",
			"lessons": [
				{
					"title": "Fixed vs Growth",
					"exercises": [
						{
							"type": "multiple-choice",
							"question": "Which mindset sees ability as malleable?",
							"options": ["Fixed", "Growth"],
							"correct": 1,
							"explanation": "A growth mindset treats ability as developable."
						},
						{
							"type": "fill-blank",
							"template": "Effort is the path to ___.",
							"options": ["mastery", "failure"],
							"correct": 0,
							"explanation": "Effort compounds into mastery."
						}
					]
				}
			]
		}
	]
}`

const deepWorkBook = `{
	"id": "deep-work",
	"title": "Deep Work",
	"author": "Cal Newport",
	"premium": true,
	"chapters": [
		{
			"title": "The Idea",
			"lessons": [
				{
					"title": "Why Depth Matters",
					"exercises": [
						{
							"type": "compare",
							"question": "Which produces more value per hour?",
							"options": ["Deep work", "Shallow work"],
							"correct": 0,
							"explanation": "Depth concentrates value."
						}
					]
				}
			]
		}
	]
}`

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"mindset.json":   {Data: []byte(mindsetBook)},
		"deep-work.json": {Data: []byte(deepWorkBook)},
		"README.md":      {Data: []byte("not content")},
	}
}

func TestLoad(t *testing.T) {
	t.Parallel()

	lib, err := Load(testFS())
	require.NoError(t, err)

	books := lib.Books()
	require.Len(t, books, 2)
	assert.Equal(t, "deep-work", books[0].ID, "catalog sorted by ID")
	assert.Equal(t, "mindset", books[1].ID)
	assert.True(t, books[0].Premium)
}

func TestLoadRejectsMalformed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data string
	}{
		{name: "invalid json", data: "{not json"},
		{name: "missing id", data: `{"title":"T","chapters":[{"title":"c","lessons":[{"title":"l","exercises":[{"type":"multiple-choice"}]}]}]}`},
		{name: "no chapters", data: `{"id":"x","title":"T","chapters":[]}`},
		{name: "empty lesson", data: `{"id":"x","title":"T","chapters":[{"title":"c","lessons":[{"title":"l","exercises":[]}]}]}`},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			fsys := fstest.MapFS{"bad.json": {Data: []byte(tc.data)}}
			_, err := Load(fsys)
			assert.Error(t, err)
		})
	}
}

func TestLoadRejectsDuplicateIDs(t *testing.T) {
	t.Parallel()

	fsys := testFS()
	fsys["copy.json"] = &fstest.MapFile{Data: []byte(mindsetBook)}
	_, err := Load(fsys)
	assert.ErrorContains(t, err, "duplicate book ID")
}

func TestBookLookup(t *testing.T) {
	t.Parallel()

	lib, err := Load(testFS())
	require.NoError(t, err)

	book, ok := lib.Book("mindset")
	require.True(t, ok)
	assert.Equal(t, "Mindset", book.Title)

	_, ok = lib.Book("missing")
	assert.False(t, ok)
}

func TestLessonLookup(t *testing.T) {
	t.Parallel()

	lib, err := Load(testFS())
	require.NoError(t, err)

	lesson, ok := lib.Lesson("mindset", 0, 0)
	require.True(t, ok)
	assert.Equal(t, "Fixed vs Growth", lesson.Title)
	assert.Len(t, lesson.Exercises, 2)

	_, ok = lib.Lesson("mindset", 0, 5)
	assert.False(t, ok)
	_, ok = lib.Lesson("mindset", -1, 0)
	assert.False(t, ok)
	_, ok = lib.Lesson("missing", 0, 0)
	assert.False(t, ok)
}

func TestExerciseLookup(t *testing.T) {
	t.Parallel()

	lib, err := Load(testFS())
	require.NoError(t, err)

	ex, ok := lib.Exercise(domain.ReviewPointer{Book: "mindset", Chapter: 0, Lesson: 0, Exercise: 1})
	require.True(t, ok)
	assert.Equal(t, "Effort is the path to ___.", ex.Template)

	_, ok = lib.Exercise(domain.ReviewPointer{Book: "mindset", Chapter: 0, Lesson: 0, Exercise: 9})
	assert.False(t, ok)
}
