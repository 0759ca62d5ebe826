package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/tidalx/internal/formatter"
	"github.com/desertthunder/tidalx/internal/models"
)

var (
	_ list.Item = categoryItem("")
	_ list.Item = catalogItem{}
)

// categoryItem is a category name implementing [list.Item].
type categoryItem string

func (c categoryItem) FilterValue() string { return string(c) }
func (c categoryItem) Title() string       { return string(c) }
func (c categoryItem) Description() string { return "" }

// catalogItem wraps [models.Item] to implement [list.Item].
type catalogItem struct {
	item models.Item
}

func (i catalogItem) FilterValue() string { return i.item.Title }

func (i catalogItem) Title() string {
	if i.item.Liked != nil && *i.item.Liked {
		return "♥ " + i.item.Title
	}
	return i.item.Title
}

func (i catalogItem) Description() string {
	var parts []string
	if i.item.Subtitle != "" {
		parts = append(parts, i.item.Subtitle)
	}
	if i.item.Duration != nil {
		parts = append(parts, formatter.FormatDuration(*i.item.Duration))
	}
	if !i.item.Playable() {
		parts = append(parts, "browse")
	}
	return strings.Join(parts, " • ")
}

func toListItems(items []models.Item) []list.Item {
	out := make([]list.Item, len(items))
	for i, it := range items {
		out[i] = catalogItem{item: it}
	}
	return out
}

func listTitle(category, parent string) string {
	if parent == "" {
		return category
	}
	return fmt.Sprintf("%s › %s", category, parent)
}
