// Package tags keeps free-text task tags visually and semantically consistent
// board-wide: one logical tag name always renders with one color triple.
package tags

import (
	"github.com/flowdeckapp/flowdeck-server/internal/domain"
	"github.com/flowdeckapp/flowdeck-server/internal/errors"
	"github.com/flowdeckapp/flowdeck-server/internal/normalize"
)

// Palette is the fixed, ordered set of colors new tags draw from.
// The order matters: allocation walks the palette and picks the first color
// not already used by any tag on the board.
var Palette = []domain.TagColor{
	{Background: "bg-red-100", Text: "text-red-800", Border: "border-red-300"},
	{Background: "bg-blue-100", Text: "text-blue-800", Border: "border-blue-300"},
	{Background: "bg-green-100", Text: "text-green-800", Border: "border-green-300"},
	{Background: "bg-yellow-100", Text: "text-yellow-800", Border: "border-yellow-300"},
	{Background: "bg-purple-100", Text: "text-purple-800", Border: "border-purple-300"},
	{Background: "bg-pink-100", Text: "text-pink-800", Border: "border-pink-300"},
	{Background: "bg-indigo-100", Text: "text-indigo-800", Border: "border-indigo-300"},
	{Background: "bg-orange-100", Text: "text-orange-800", Border: "border-orange-300"},
	{Background: "bg-teal-100", Text: "text-teal-800", Border: "border-teal-300"},
	{Background: "bg-cyan-100", Text: "text-cyan-800", Border: "border-cyan-300"},
}

// Fallback is used once every palette color is taken by some board tag.
var Fallback = domain.TagColor{
	Background: "bg-gray-100",
	Text:       "text-gray-800",
	Border:     "border-gray-300",
}

// ResolveColor returns the color a tag with the given name must use on a
// board whose existing tags are boardTags.
//
// If any board tag already carries the same folded name, its exact color is
// reused; the color is never re-derived. Only a globally new name gets a
// fresh allocation: the first palette color no board tag currently uses, or
// the gray fallback when the palette is exhausted.
func ResolveColor(boardTags []domain.Tag, name string) domain.TagColor {
	folded := normalize.Fold(name)

	for _, t := range boardTags {
		if normalize.Fold(t.Name) == folded {
			return t.Color
		}
	}

	used := make(map[string]bool, len(boardTags))
	for _, t := range boardTags {
		used[t.Color.Background] = true
	}

	for _, c := range Palette {
		if !used[c.Background] {
			return c
		}
	}

	return Fallback
}

// Add appends a tag named name to taskTags, resolving its color against
// boardTags. Returns a validation error if the task already carries a tag
// with the same folded name.
func Add(taskTags, boardTags []domain.Tag, name string) ([]domain.Tag, error) {
	cleaned := normalize.Clean(name)
	if cleaned == "" {
		return nil, errors.Validation("tag name cannot be empty")
	}

	folded := normalize.Fold(cleaned)
	for _, t := range taskTags {
		if normalize.Fold(t.Name) == folded {
			return nil, errors.Validationf("tag %q already exists on this task", cleaned)
		}
	}

	tag := domain.Tag{
		Name:  cleaned,
		Color: ResolveColor(boardTags, cleaned),
	}
	return append(taskTags, tag), nil
}

// Remove drops the tag with the given folded name from taskTags. Removing a
// tag never deletes the board-wide color binding; other tasks may still use
// the name. Unknown names are a no-op.
func Remove(taskTags []domain.Tag, name string) []domain.Tag {
	folded := normalize.Fold(name)
	out := taskTags[:0]
	for _, t := range taskTags {
		if normalize.Fold(t.Name) != folded {
			out = append(out, t)
		}
	}
	return out
}

// Normalize rebuilds an incoming tag list through the registry rules, used by
// both task creation and update so the two paths cannot diverge. Duplicate
// names within the input are rejected; colors are resolved against boardTags
// plus the tags accepted so far, so two new names in one request get two
// different colors.
func Normalize(incoming []domain.Tag, boardTags []domain.Tag) ([]domain.Tag, error) {
	out := make([]domain.Tag, 0, len(incoming))
	pool := make([]domain.Tag, len(boardTags), len(boardTags)+len(incoming))
	copy(pool, boardTags)

	for _, in := range incoming {
		var err error
		out, err = Add(out, pool, in.Name)
		if err != nil {
			return nil, err
		}
		pool = append(pool, out[len(out)-1])
	}
	return out, nil
}

// Collect gathers every tag currently on the board's tasks. The result is the
// boardTags input the other registry functions expect.
func Collect(tasks []*domain.Task) []domain.Tag {
	var out []domain.Tag
	for _, task := range tasks {
		out = append(out, task.Tags...)
	}
	return out
}
