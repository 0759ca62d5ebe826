package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/tidalx/internal/auth"
	"github.com/desertthunder/tidalx/internal/models"
	"github.com/desertthunder/tidalx/internal/plugin"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgItemsFetched MsgKind = iota
	MsgStreamResolved
	MsgLikeToggled
	MsgProgressUpdate
	MsgConnectComplete
)

type itemsFetched struct {
	view    ViewState
	items   []models.Item
	refresh bool
	err     error
}

type streamResolved struct {
	item models.Item
	url  string
	err  error
}

type likeToggled struct {
	id    string
	liked bool
	err   error
}

// itemsFetchedMsg is the constructor for [MsgItemsFetched]. refresh tells whether the list replaces or extends the
// current one.
func itemsFetchedMsg(view ViewState, items []models.Item, refresh bool, err error) Msg {
	return Msg{kind: MsgItemsFetched, data: itemsFetched{view, items, refresh, err}}
}

// streamResolvedMsg is the constructor for [MsgStreamResolved]
func streamResolvedMsg(item models.Item, url string, err error) Msg {
	return Msg{kind: MsgStreamResolved, data: streamResolved{item, url, err}}
}

// likeToggledMsg is the constructor for [MsgLikeToggled]
func likeToggledMsg(id string, liked bool, err error) Msg {
	return Msg{kind: MsgLikeToggled, data: likeToggled{id, liked, err}}
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update auth.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

// connectCompleteMsg is the constructor for [MsgConnectComplete]
func connectCompleteMsg(result plugin.ConnectResult) Msg {
	return Msg{kind: MsgConnectComplete, data: result}
}
