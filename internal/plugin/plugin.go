// Package plugin is the host-facing entry point: it owns the session, rehydrates it from the token store, drives the
// device flow from the connect preference and forwards browsing calls to the catalog adapter.
package plugin

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tidalx/internal/auth"
	"github.com/desertthunder/tidalx/internal/catalog"
	"github.com/desertthunder/tidalx/internal/models"
	"github.com/desertthunder/tidalx/internal/repositories"
	"github.com/desertthunder/tidalx/internal/services"
	"github.com/desertthunder/tidalx/internal/session"
	"github.com/desertthunder/tidalx/internal/shared"
)

const Name = "TIDAL"

// Presenter shows a device grant to the user. It is called in its own goroutine and never awaited.
type Presenter func(grant models.DeviceGrant)

// Options wires a [Plugin]. Store, Session, Catalog and Authorizer are required.
type Options struct {
	Store      *repositories.TokenStore
	Session    *session.Session
	Catalog    services.Catalog
	Authorizer auth.Authorizer
	// Flow configures polling. Its OnGrant is replaced by the plugin.
	Flow      auth.Options
	Presenter Presenter
	Logger    *log.Logger
}

// ConnectResult is delivered once per [Plugin.Connect].
type ConnectResult struct {
	Result auth.Result
	Err    error
}

// Plugin implements the host contract over one session.
type Plugin struct {
	store     *repositories.TokenStore
	session   *session.Session
	adapter   *catalog.Adapter
	flow      *auth.Flow
	presenter Presenter
	logger    *log.Logger

	// persistMu serializes store writes with Disconnect.
	persistMu sync.Mutex
}

// New creates a plugin and restores any persisted session. It makes no network calls.
func New(opts Options) (*Plugin, error) {
	if opts.Store == nil || opts.Session == nil || opts.Catalog == nil || opts.Authorizer == nil {
		return nil, fmt.Errorf("%w: store, session, catalog and authorizer are required", shared.ErrInvalidArgument)
	}
	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(os.Stderr)
	}

	p := &Plugin{
		store:     opts.Store,
		session:   opts.Session,
		adapter:   catalog.New(opts.Catalog, logger),
		presenter: opts.Presenter,
		logger:    shared.WithLogger(logger, "plugin", Name),
	}

	flowOpts := opts.Flow
	flowOpts.OnGrant = p.Persist
	if flowOpts.Logger == nil {
		flowOpts.Logger = logger
	}
	p.flow = auth.New(opts.Authorizer, opts.Session, flowOpts)

	rec, ok, err := p.store.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to restore session: %w", err)
	}
	if ok {
		p.session.Restore(rec)
		p.logger.Debug("session restored", "user_id", rec.UserID, "authenticated", p.session.Authenticated())
	}
	return p, nil
}

func (p *Plugin) Name() string { return Name }

// Categories returns the host-facing category names.
func (p *Plugin) Categories() []string { return catalog.Categories() }

// Connected is the connect preference, derived from the session holding tokens.
func (p *Plugin) Connected() bool { return p.session.Authenticated() }

// Info returns a snapshot of the session.
func (p *Plugin) Info() models.SessionInfo { return p.session.Info() }

// FlowState returns the device flow's state.
func (p *Plugin) FlowState() auth.State { return p.flow.State() }

// SetQuality sets the stream quality used by later stream resolutions.
func (p *Plugin) SetQuality(q models.Quality) { p.session.SetQuality(q) }

// SetConnected is the connect preference listener. Enabling starts a device flow and returns its result channel;
// disabling disconnects and returns a nil channel.
func (p *Plugin) SetConnected(ctx context.Context, enabled bool) (<-chan ConnectResult, error) {
	if enabled {
		return p.Connect(ctx, nil), nil
	}
	return nil, p.Disconnect()
}

// Connect runs the device flow in a goroutine. The returned channel receives exactly one result.
//
// An already connected plugin reports GRANTED immediately without contacting the server.
func (p *Plugin) Connect(ctx context.Context, progress chan<- auth.ProgressUpdate) <-chan ConnectResult {
	done := make(chan ConnectResult, 1)

	if p.session.Authenticated() {
		done <- ConnectResult{Result: auth.Result{State: auth.Granted, Record: p.session.Record()}}
		close(done)
		return done
	}

	// Reserving before the goroutine starts lets a Disconnect that follows this call cancel the flow.
	issue, err := p.flow.Reserve(ctx)
	if err != nil {
		done <- ConnectResult{Result: auth.Result{State: p.flow.State()}, Err: err}
		close(done)
		return done
	}

	go func() {
		defer close(done)

		grant, err := issue()
		if errors.Is(err, shared.ErrFlowCancelled) {
			done <- ConnectResult{Result: auth.Result{State: auth.Cancelled}}
			return
		}
		if err != nil {
			done <- ConnectResult{Result: auth.Result{State: p.flow.State()}, Err: err}
			return
		}
		if p.presenter != nil {
			go p.presenter(grant)
		}

		res, err := p.flow.Poll(ctx, grant, progress)
		done <- ConnectResult{Result: res, Err: err}
	}()
	return done
}

// Disconnect cancels any running device flow, then clears the session and erases the persisted record.
func (p *Plugin) Disconnect() error {
	p.flow.Cancel()

	p.persistMu.Lock()
	defer p.persistMu.Unlock()

	p.session.Clear()
	p.adapter.Reset()
	if err := p.store.Erase(); err != nil {
		return err
	}
	p.logger.Info("disconnected")
	return nil
}

// Persist writes rec to the store if it is still the session's current record.
//
// Grants and token refreshes both land here, so a write racing Disconnect is dropped instead of resurrecting the
// erased record.
func (p *Plugin) Persist(rec models.TokenRecord) error {
	p.persistMu.Lock()
	defer p.persistMu.Unlock()

	if !p.session.Authenticated() || p.session.Record().AccessToken != rec.AccessToken {
		p.logger.Debug("skipping stale session write")
		return nil
	}
	return p.store.Save(rec)
}

// List returns the items of category.
func (p *Plugin) List(ctx context.Context, category string, refresh bool) ([]models.Item, error) {
	return p.adapter.ListCategory(ctx, category, refresh)
}

// ListChildren returns the items under path in category.
func (p *Plugin) ListChildren(ctx context.Context, category, path string, refresh bool) ([]models.Item, error) {
	return p.adapter.ListChildren(ctx, category, path, refresh)
}

// Search runs a track search. category, path and typ are accepted for the host contract and do not change the result
// shape.
func (p *Plugin) Search(ctx context.Context, category, path, query, typ string, refresh bool) ([]models.Item, error) {
	p.logger.Debug("search", "category", category, "path", path, "type", typ)
	return p.adapter.Search(ctx, query, refresh)
}

// ResolveURI returns the stream URL of a PLAYABLE item.
func (p *Plugin) ResolveURI(ctx context.Context, item models.Item) (string, error) {
	if !item.Playable() {
		return "", fmt.Errorf("%w: %s item %q is not playable", shared.ErrInvalidID, item.Kind, item.ID)
	}
	return p.adapter.ResolveStreamURI(ctx, item.ID)
}

// ToggleFavorite flips the liked state of the item with id.
func (p *Plugin) ToggleFavorite(ctx context.Context, id string) (bool, error) {
	return p.adapter.ToggleFavorite(ctx, id)
}
