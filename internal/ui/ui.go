package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/tidalx/internal/auth"
	"github.com/desertthunder/tidalx/internal/models"
	"github.com/desertthunder/tidalx/internal/plugin"
	"github.com/desertthunder/tidalx/internal/shared"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	CategoryView ViewState = iota
	ItemView
	ChildView
	ConnectView
)

// Browser is the part of the host contract the TUI drives.
type Browser interface {
	Name() string
	Categories() []string
	Connected() bool
	List(ctx context.Context, category string, refresh bool) ([]models.Item, error)
	ListChildren(ctx context.Context, category, path string, refresh bool) ([]models.Item, error)
	ResolveURI(ctx context.Context, item models.Item) (string, error)
	ToggleFavorite(ctx context.Context, id string) (bool, error)
	Connect(ctx context.Context, progress chan<- auth.ProgressUpdate) <-chan plugin.ConnectResult
}

var _ Browser = (*plugin.Plugin)(nil)

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	browser      Browser
	logger       *log.Logger
	view         ViewState
	returnTo     ViewState
	width        int
	height       int
	categoryList list.Model
	itemList     list.Model
	childList    list.Model
	category     string
	parent       models.Item
	progressChan chan auth.ProgressUpdate
	progress     auth.ProgressUpdate
	prompt       string
	connecting   bool
	stream       string
	status       string
	err          error
	help         help.Model
	keys         keyMap
}

// NewModel creates a new TUI model over browser. Logs go to logger, never to the terminal the TUI owns.
func NewModel(ctx context.Context, browser Browser, logger *log.Logger) *Model {
	categories := browser.Categories()
	items := make([]list.Item, len(categories))
	for i, c := range categories {
		items[i] = categoryItem(c)
	}

	m := &Model{
		ctx:          ctx,
		browser:      browser,
		logger:       shared.WithLogger(logger, "component", "ui"),
		view:         CategoryView,
		categoryList: newList(items, browser.Name()),
		itemList:     newList(nil, ""),
		childList:    newList(nil, ""),
		help:         help.New(),
		keys:         newKeyMap(),
	}
	if !browser.Connected() {
		m.status = "Not connected. Press c to connect."
	}
	return m
}

func newList(items []list.Item, title string) list.Model {
	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = title
	l.SetShowHelp(false)
	return l
}

// View returns the current view state.
func (m *Model) View() string {
	var body string
	switch m.view {
	case CategoryView:
		body = m.renderList(m.categoryList, m.keys.enter, m.keys.connect, m.keys.quit)
	case ItemView:
		body = m.renderList(m.itemList, m.keys.enter, m.keys.more, m.keys.refresh, m.keys.like, m.keys.back, m.keys.quit)
	case ChildView:
		body = m.renderList(m.childList, m.keys.enter, m.keys.more, m.keys.refresh, m.keys.like, m.keys.back, m.keys.quit)
	case ConnectView:
		body = m.renderConnect()
	}

	if m.status == "" {
		return body
	}
	return fmt.Sprintf("%s\n%s", body, styles.status.Render(m.status))
}

// Init sets the window title.
func (m *Model) Init() tea.Cmd {
	return tea.SetWindowTitle(m.browser.Name())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		for _, l := range []*list.Model{&m.categoryList, &m.itemList, &m.childList} {
			l.SetSize(msg.Width-4, msg.Height-6)
		}
		return m, nil

	case tea.KeyMsg:
		if m.activeList() != nil && m.activeList().FilterState() == list.Filtering {
			return m.updateLists(msg)
		}
		switch m.view {
		case CategoryView:
			return m.handleCategoryKeys(msg)
		case ItemView, ChildView:
			return m.handleItemKeys(msg)
		case ConnectView:
			return m.handleConnectKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateLists(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgItemsFetched:
		data := msg.data.(itemsFetched)
		m.applyItems(data)
		return m, nil

	case MsgStreamResolved:
		data := msg.data.(streamResolved)
		if data.err != nil {
			m.fail(data.err)
			return m, nil
		}
		m.err = nil
		m.stream = data.url
		m.status = fmt.Sprintf("▶ %s: %s", data.item.Title, data.url)
		m.logger.Debug("stream resolved", "id", data.item.ID)
		return m, nil

	case MsgLikeToggled:
		data := msg.data.(likeToggled)
		if data.err != nil {
			m.fail(data.err)
			return m, nil
		}
		m.err = nil
		m.markLiked(data.id, data.liked)
		if data.liked {
			m.status = styles.ok.Render("♥ Added to favorites")
		} else {
			m.status = "Removed from favorites"
		}
		return m, nil

	case MsgProgressUpdate:
		m.progress = msg.data.(auth.ProgressUpdate)
		if m.progress.State == auth.AwaitingUser {
			m.prompt = m.progress.Message
		}
		return m, m.waitForProgress(m.progressChan)

	case MsgConnectComplete:
		return m.finishConnect(msg.data.(plugin.ConnectResult))
	}
	return m, nil
}

func (m *Model) handleCategoryKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.connect):
		return m, m.startConnect()
	case key.Matches(msg, m.keys.enter):
		selected, ok := m.categoryList.SelectedItem().(categoryItem)
		if !ok {
			return m, nil
		}
		m.category = string(selected)
		m.itemList.Title = listTitle(m.category, "")
		m.itemList.SetItems(nil)
		m.view = ItemView
		m.status = "Loading..."
		return m, m.fetchItems(true)
	}

	var cmd tea.Cmd
	m.categoryList, cmd = m.categoryList.Update(msg)
	return m, cmd
}

func (m *Model) handleItemKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.status = ""
		if m.view == ChildView {
			m.view = ItemView
		} else {
			m.view = CategoryView
		}
		return m, nil
	case key.Matches(msg, m.keys.more):
		m.status = "Loading more..."
		return m, m.fetchActive(false)
	case key.Matches(msg, m.keys.refresh):
		m.status = "Reloading..."
		return m, m.fetchActive(true)
	case key.Matches(msg, m.keys.like):
		if item, ok := m.selectedItem(); ok && item.Playable() {
			return m, m.toggleLike(item.ID)
		}
		return m, nil
	case key.Matches(msg, m.keys.enter):
		item, ok := m.selectedItem()
		if !ok {
			return m, nil
		}
		if item.Playable() {
			m.status = "Resolving stream..."
			return m, m.resolveStream(item)
		}
		if m.view == ItemView {
			m.parent = item
			m.childList.Title = listTitle(m.category, item.Title)
			m.childList.SetItems(nil)
			m.view = ChildView
			m.status = "Loading..."
			return m, m.fetchChildren(true)
		}
		return m, nil
	}

	return m.updateLists(msg)
}

func (m *Model) handleConnectKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.cancel):
		m.view = m.returnTo
		return m, nil
	}
	return m, nil
}

func (m *Model) activeList() *list.Model {
	switch m.view {
	case CategoryView:
		return &m.categoryList
	case ItemView:
		return &m.itemList
	case ChildView:
		return &m.childList
	}
	return nil
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	l := m.activeList()
	if l == nil {
		return m, nil
	}
	var cmd tea.Cmd
	*l, cmd = l.Update(msg)
	return m, cmd
}

func (m *Model) selectedItem() (models.Item, bool) {
	l := m.activeList()
	if l == nil {
		return models.Item{}, false
	}
	selected, ok := l.SelectedItem().(catalogItem)
	return selected.item, ok
}

func (m *Model) applyItems(data itemsFetched) {
	if data.err != nil {
		m.fail(data.err)
		return
	}
	m.err = nil

	l := &m.itemList
	if data.view == ChildView {
		l = &m.childList
	}

	switch {
	case data.refresh:
		l.SetItems(toListItems(data.items))
		m.status = fmt.Sprintf("%d items", len(data.items))
	case len(data.items) == 0:
		m.status = "No more items"
	default:
		l.SetItems(append(l.Items(), toListItems(data.items)...))
		m.status = fmt.Sprintf("%d items", len(l.Items()))
	}
}

func (m *Model) markLiked(id string, liked bool) {
	for _, l := range []*list.Model{&m.itemList, &m.childList} {
		for i, it := range l.Items() {
			ci, ok := it.(catalogItem)
			if !ok || ci.item.ID != id || !ci.item.Playable() {
				continue
			}
			v := liked
			ci.item.Liked = &v
			l.SetItem(i, ci)
		}
	}
}

func (m *Model) fail(err error) {
	m.err = err
	m.status = styles.err.Render(fmt.Sprintf("Error: %v", err))
	if errors.Is(err, shared.ErrNotAuthenticated) {
		m.status += styles.help.Render(" (press esc, then c to connect)")
	}
	m.logger.Error("request failed", "error", err)
}

func (m *Model) fetchActive(refresh bool) tea.Cmd {
	if m.view == ChildView {
		return m.fetchChildren(refresh)
	}
	return m.fetchItems(refresh)
}

func (m *Model) fetchItems(refresh bool) tea.Cmd {
	category := m.category
	return func() tea.Msg {
		items, err := m.browser.List(m.ctx, category, refresh)
		return itemsFetchedMsg(ItemView, items, refresh, err)
	}
}

func (m *Model) fetchChildren(refresh bool) tea.Cmd {
	category, path := m.category, m.parent.ID
	return func() tea.Msg {
		items, err := m.browser.ListChildren(m.ctx, category, path, refresh)
		return itemsFetchedMsg(ChildView, items, refresh, err)
	}
}

func (m *Model) resolveStream(item models.Item) tea.Cmd {
	return func() tea.Msg {
		url, err := m.browser.ResolveURI(m.ctx, item)
		return streamResolvedMsg(item, url, err)
	}
}

func (m *Model) toggleLike(id string) tea.Cmd {
	return func() tea.Msg {
		liked, err := m.browser.ToggleFavorite(m.ctx, id)
		return likeToggledMsg(id, liked, err)
	}
}

// startConnect begins a device flow unless one is running or the browser is already connected.
func (m *Model) startConnect() tea.Cmd {
	if m.browser.Connected() {
		m.status = styles.ok.Render("✓ Already connected")
		return nil
	}
	m.returnTo = m.view
	m.view = ConnectView
	if m.connecting {
		return nil
	}

	m.connecting = true
	m.progress = auth.ProgressUpdate{State: auth.Requesting, Message: "Requesting device code..."}
	m.prompt = ""
	m.progressChan = make(chan auth.ProgressUpdate, 16)
	done := m.browser.Connect(m.ctx, m.progressChan)
	return tea.Batch(m.waitForProgress(m.progressChan), m.waitForConnect(done))
}

func (m *Model) waitForProgress(ch chan auth.ProgressUpdate) tea.Cmd {
	return func() tea.Msg {
		if ch == nil {
			return nil
		}
		update, ok := <-ch
		if !ok {
			return nil
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) waitForConnect(done <-chan plugin.ConnectResult) tea.Cmd {
	return func() tea.Msg {
		return connectCompleteMsg(<-done)
	}
}

// finishConnect closes the progress channel; the flow has stopped sending once its result is delivered.
func (m *Model) finishConnect(res plugin.ConnectResult) (tea.Model, tea.Cmd) {
	m.connecting = false
	if m.progressChan != nil {
		close(m.progressChan)
		m.progressChan = nil
	}

	switch {
	case res.Err != nil:
		m.fail(res.Err)
	case res.Result.State == auth.Granted:
		m.err = nil
		m.status = styles.ok.Render("✓ Connected")
		if m.view == ConnectView {
			m.view = m.returnTo
		}
	default:
		m.status = styles.warn.Render(fmt.Sprintf("Connect ended: %s", res.Result.State))
	}
	return m, nil
}

func (m *Model) renderList(l list.Model, keys ...key.Binding) string {
	return fmt.Sprintf("%s\n%s", l.View(), m.help.ShortHelpView(keys))
}

func (m *Model) renderConnect() string {
	var b strings.Builder
	b.WriteString(styles.title.Render(fmt.Sprintf("Connect %s", m.browser.Name())))
	b.WriteString("\n")

	if m.prompt != "" {
		b.WriteString(styles.code.Render(m.prompt))
		b.WriteString("\n")
	}
	if m.progress.Message != m.prompt {
		b.WriteString(m.progress.Message)
		b.WriteString("\n")
	}
	if m.progress.Total > 0 {
		b.WriteString(styles.help.Render(fmt.Sprintf("attempt %d of %d", m.progress.Attempt, m.progress.Total)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.ShortHelpView([]key.Binding{m.keys.cancel, m.keys.quit}))
	return b.String()
}
