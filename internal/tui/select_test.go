package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velkoja/bookscout/internal/book"
	"github.com/velkoja/bookscout/internal/resolve"
)

func sampleResults() []resolve.Result {
	isbn := "9780547928227"
	publisher := "Houghton Mifflin"
	year := 1937
	return []resolve.Result{
		{
			Candidate: book.Candidate{
				Title:         "The Hobbit",
				Authors:       []book.Author{{Name: "J.R.R. Tolkien"}},
				Publisher:     &publisher,
				PublishedYear: &year,
				ISBN:          &isbn,
				Source:        book.SourceGoogle,
			},
		},
		{
			Candidate: book.Candidate{
				Title:  "The Hobbit: Illustrated Edition",
				Source: book.SourceOpenLibrary,
			},
			LibraryMatch: book.LibraryMatch{InLibrary: true},
		},
	}
}

func stubProgram(t *testing.T, keys ...string) {
	t.Helper()

	orig := runProgram
	runProgram = func(m tea.Model) (tea.Model, error) {
		current := m
		for _, key := range keys {
			var msg tea.Msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
			switch key {
			case "enter":
				msg = tea.KeyMsg{Type: tea.KeyEnter}
			case "esc":
				msg = tea.KeyMsg{Type: tea.KeyEsc}
			case "ctrl+c":
				msg = tea.KeyMsg{Type: tea.KeyCtrlC}
			case "down":
				msg = tea.KeyMsg{Type: tea.KeyDown}
			}
			current, _ = current.Update(msg)
		}
		return current, nil
	}
	t.Cleanup(func() { runProgram = orig })
}

func TestSelect_EmptyResultsSkips(t *testing.T) {
	result, err := Select("anything", nil)
	require.NoError(t, err)
	assert.Equal(t, ActionSkipped, result.Action)
	assert.Nil(t, result.Selection)
}

func TestSelect_EnterSelectsCurrentItem(t *testing.T) {
	stubProgram(t, "enter")

	result, err := Select("the hobbit", sampleResults())
	require.NoError(t, err)
	assert.Equal(t, ActionSelected, result.Action)
	require.NotNil(t, result.Selection)
	assert.Equal(t, "The Hobbit", result.Selection.Title)
}

func TestSelect_NavigateThenSelect(t *testing.T) {
	stubProgram(t, "down", "enter")

	result, err := Select("the hobbit", sampleResults())
	require.NoError(t, err)
	assert.Equal(t, ActionSelected, result.Action)
	require.NotNil(t, result.Selection)
	assert.Equal(t, "The Hobbit: Illustrated Edition", result.Selection.Title)
	assert.True(t, result.Selection.InLibrary)
}

func TestSelect_SkipAndStop(t *testing.T) {
	stubProgram(t, "s")
	result, err := Select("x", sampleResults())
	require.NoError(t, err)
	assert.Equal(t, ActionSkipped, result.Action)

	stubProgram(t, "q")
	result, err = Select("x", sampleResults())
	require.NoError(t, err)
	assert.Equal(t, ActionStopped, result.Action)
}

func TestFormatTitle(t *testing.T) {
	year := 1937
	r := resolve.Result{Candidate: book.Candidate{Title: "The Hobbit", PublishedYear: &year}}
	assert.Equal(t, "The Hobbit (1937)", formatTitle(r))

	r.PublishedYear = nil
	assert.Equal(t, "The Hobbit", formatTitle(r))
}

func TestFormatDetails(t *testing.T) {
	results := sampleResults()

	details := formatDetails(results[0], 120)
	assert.Equal(t, "J.R.R. Tolkien | Houghton Mifflin | 9780547928227", details)

	details = formatDetails(results[1], 120)
	assert.Empty(t, details)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "lots...", truncate("lots   of\n whitespace", 7))
	assert.Equal(t, "trunca...", truncate("truncated text here", 9))
	assert.Equal(t, "full text", truncate("full text", 0), "zero width disables truncation")
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 50, clamp(50, 100, 10))
	assert.Equal(t, 100, clamp(150, 100, 10))
	assert.Equal(t, 10, clamp(5, 100, 10))
	assert.Equal(t, 10, clamp(50, 5, 10), "min wins when bounds cross")
}
