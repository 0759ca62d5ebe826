package auth

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tidalx/internal/models"
	"github.com/desertthunder/tidalx/internal/session"
	"github.com/desertthunder/tidalx/internal/shared"
)

const (
	DefaultInterval    = 5 * time.Second
	DefaultMaxAttempts = 31
)

// State is the device flow state.
type State int

const (
	Idle State = iota
	Requesting
	AwaitingUser
	Polling
	Granted
	Expired
	Cancelled
)

func (s State) String() string {
	switch s {
	case Requesting:
		return "REQUESTING"
	case AwaitingUser:
		return "AWAITING_USER"
	case Polling:
		return "POLLING"
	case Granted:
		return "GRANTED"
	case Expired:
		return "EXPIRED"
	case Cancelled:
		return "CANCELLED"
	default:
		return "IDLE"
	}
}

// Active reports whether a flow in this state blocks a new Start.
func (s State) Active() bool {
	return s == Requesting || s == AwaitingUser || s == Polling
}

// Authorizer issues device codes and performs single-shot token checks.
//
// PollToken reports "not yet authorized" as [shared.ErrAuthorizationPending], a denied request as
// [shared.ErrAccessDenied] and an expired device code as [shared.ErrAuthTimeout].
type Authorizer interface {
	IssueDeviceCode(ctx context.Context) (models.DeviceGrant, error)
	PollToken(ctx context.Context, deviceCode string) (models.TokenRecord, error)
}

// TickerFunc starts a ticker firing every d and returns its channel and stop function.
type TickerFunc func(d time.Duration) (<-chan time.Time, func())

// NewTicker is the [TickerFunc] backed by [time.NewTicker].
func NewTicker(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}

// Options configures a [Flow]. Zero values select the defaults.
type Options struct {
	Interval    time.Duration // minimum spacing between attempts
	MaxAttempts int           // attempt budget
	Ticker      TickerFunc
	Now         func() time.Time
	// OnGrant persists the record after the session is authenticated.
	OnGrant func(models.TokenRecord) error
	Logger  *log.Logger
}

// Result is the outcome of [Flow.Poll].
type Result struct {
	State    State
	Attempts int
	Record   models.TokenRecord
}

// Flow runs the device authorization protocol against one [session.Session].
type Flow struct {
	auth    Authorizer
	session *session.Session
	opts    Options
	logger  *log.Logger

	mu        sync.Mutex
	state     State
	cancel    context.CancelFunc
	cancelled bool
}

// New creates an IDLE [Flow].
func New(a Authorizer, s *session.Session, opts Options) *Flow {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.Ticker == nil {
		opts.Ticker = NewTicker
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(os.Stderr)
	}

	return &Flow{
		auth:    a,
		session: s,
		opts:    opts,
		logger:  shared.WithLogger(logger, "component", "device-auth"),
	}
}

// State returns the current flow state.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Start issues a device code and moves the flow to AWAITING_USER.
//
// The verification URI is returned with a scheme. Presenting it to the user is the caller's job.
func (f *Flow) Start(ctx context.Context) (models.DeviceGrant, error) {
	issue, err := f.Reserve(ctx)
	if err != nil {
		return models.DeviceGrant{}, err
	}
	return issue()
}

// Reserve moves the flow to REQUESTING and returns the call that issues the device code.
//
// From the moment Reserve returns the flow is active, so a [Flow.Cancel] made before the returned call runs still
// stops it.
func (f *Flow) Reserve(ctx context.Context) (func() (models.DeviceGrant, error), error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state.Active() {
		return nil, shared.ErrFlowAlreadyActive
	}
	if err := f.session.Begin(); err != nil {
		return nil, err
	}
	rctx, cancel := context.WithCancel(ctx)
	f.cancel = cancel
	f.state = Requesting
	f.cancelled = false

	return func() (models.DeviceGrant, error) { return f.issue(rctx, cancel) }, nil
}

func (f *Flow) issue(ctx context.Context, cancel context.CancelFunc) (models.DeviceGrant, error) {
	grant, err := f.auth.IssueDeviceCode(ctx)

	f.mu.Lock()
	defer f.mu.Unlock()
	cancel()
	f.cancel = nil

	if f.cancelled {
		f.state = Cancelled
		return models.DeviceGrant{}, shared.ErrFlowCancelled
	}
	if err != nil {
		f.state = Idle
		f.session.Abort()
		if !errors.Is(err, shared.ErrNetwork) {
			err = fmt.Errorf("%w: failed to issue device code: %w", shared.ErrNetwork, err)
		}
		return models.DeviceGrant{}, err
	}

	grant.VerificationURI = shared.EnsureScheme(grant.VerificationURI)
	f.state = AwaitingUser
	f.logger.Info("device code issued", "uri", grant.VerificationURI, "user_code", grant.UserCode)
	return grant, nil
}

// Poll checks for a grant on every tick until it is granted, the budget runs out, the device code expires or the
// flow is cancelled.
//
// A cancelled flow (including a cancelled ctx) returns a CANCELLED result with a nil error.
// Progress updates are sent to progress without blocking; progress may be nil.
func (f *Flow) Poll(ctx context.Context, grant models.DeviceGrant, progress chan<- ProgressUpdate) (Result, error) {
	f.mu.Lock()
	switch {
	case f.state == Cancelled:
		f.mu.Unlock()
		sendProgress(progress, cancelledUpdate(0, f.opts.MaxAttempts))
		return Result{State: Cancelled}, nil
	case f.state != AwaitingUser:
		state := f.state
		f.mu.Unlock()
		return Result{State: state}, fmt.Errorf("%w: flow is %s, not AWAITING_USER", shared.ErrInvalidArgument, state)
	}
	pctx, cancel := context.WithCancel(ctx)
	f.cancel = cancel
	f.state = Polling
	f.mu.Unlock()
	defer cancel()

	total := f.opts.MaxAttempts
	interval := max(f.opts.Interval, grant.Interval)
	ticks, stop := f.opts.Ticker(interval)
	defer stop()

	sendProgress(progress, awaitingUpdate(total, grant))

	for attempt := 1; attempt <= total; attempt++ {
		select {
		case <-pctx.Done():
			return f.finishCancelled(attempt-1, progress), nil
		case <-ticks:
		}
		if pctx.Err() != nil {
			return f.finishCancelled(attempt-1, progress), nil
		}
		if grant.Expired(f.opts.Now()) {
			return f.finishExpired(attempt-1, progress, shared.ErrAuthTimeout)
		}

		rec, err := f.auth.PollToken(pctx, grant.DeviceCode)
		switch {
		case err == nil:
			return f.grant(rec, attempt, progress)
		case pctx.Err() != nil:
			return f.finishCancelled(attempt, progress), nil
		case errors.Is(err, shared.ErrAuthorizationPending):
			f.logger.Debug("auth pending", "attempt", attempt, "of", total)
			sendProgress(progress, pendingUpdate(attempt, total))
		case errors.Is(err, shared.ErrAccessDenied):
			f.logger.Error("authorization denied", "attempt", attempt)
			return f.finishExpired(attempt, progress, err)
		case errors.Is(err, shared.ErrAuthTimeout):
			return f.finishExpired(attempt, progress, err)
		case errors.Is(err, shared.ErrInvalidGrant):
			f.logger.Error("device code rejected", "attempt", attempt, "error", err)
			return f.finishExpired(attempt, progress, err)
		default:
			f.logger.Warn("poll attempt failed", "attempt", attempt, "error", err)
			sendProgress(progress, retryUpdate(attempt, total, err))
		}
	}

	f.logger.Warn("attempt budget exhausted", "attempts", total)
	return f.finishExpired(total, progress, shared.ErrAuthTimeout)
}

// Cancel stops the flow before its next attempt. Once Cancel returns no grant from this flow is applied.
//
// Cancel on an idle or finished flow is a no-op.
func (f *Flow) Cancel() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.state.Active() {
		return
	}
	f.cancelled = true
	if f.cancel != nil {
		f.cancel()
	}
	f.state = Cancelled
	f.session.Abort()
	f.logger.Info("device authorization cancelled")
}

// grant applies rec to the session and persists it, unless the flow was cancelled first.
func (f *Flow) grant(rec models.TokenRecord, attempt int, progress chan<- ProgressUpdate) (Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.cancelled {
		f.state = Cancelled
		sendProgress(progress, cancelledUpdate(attempt, f.opts.MaxAttempts))
		return Result{State: Cancelled, Attempts: attempt}, nil
	}

	if err := f.session.ApplyGrant(rec.UserID, rec.CountryCode, rec.AccessToken, rec.RefreshToken); err != nil {
		f.state = Expired
		f.session.Abort()
		return Result{State: Expired, Attempts: attempt}, err
	}
	rec = f.session.Record()
	f.state = Granted
	f.cancel = nil

	if f.opts.OnGrant != nil {
		if err := f.opts.OnGrant(rec); err != nil {
			f.logger.Error("failed to persist session", "error", err)
			return Result{State: Granted, Attempts: attempt, Record: rec}, fmt.Errorf("failed to persist session: %w", err)
		}
	}

	f.logger.Info("device authorized", "user_id", rec.UserID, "country", rec.CountryCode, "attempts", attempt)
	sendProgress(progress, grantedUpdate(attempt, f.opts.MaxAttempts))
	return Result{State: Granted, Attempts: attempt, Record: rec}, nil
}

func (f *Flow) finishCancelled(attempts int, progress chan<- ProgressUpdate) Result {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state.Active() {
		f.session.Abort()
	}
	f.cancelled = true
	f.cancel = nil
	f.state = Cancelled
	sendProgress(progress, cancelledUpdate(attempts, f.opts.MaxAttempts))
	return Result{State: Cancelled, Attempts: attempts}
}

// finishExpired ends the flow with err unless a cancel got there first.
func (f *Flow) finishExpired(attempts int, progress chan<- ProgressUpdate, err error) (Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.cancel = nil
	if f.cancelled {
		f.state = Cancelled
		sendProgress(progress, cancelledUpdate(attempts, f.opts.MaxAttempts))
		return Result{State: Cancelled, Attempts: attempts}, nil
	}
	f.state = Expired
	f.session.Abort()
	sendProgress(progress, expiredUpdate(attempts, f.opts.MaxAttempts))
	return Result{State: Expired, Attempts: attempts}, err
}
