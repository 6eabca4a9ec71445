package client

import (
	"context"
	"net/http"
	"sync"
	"time"
)

// Status is the rendering state of the login form. It drives the UI only
// and is never persisted.
type Status string

const (
	StatusIdle        Status = "idle"
	StatusLoading     Status = "loading"
	StatusSuccess     Status = "success"
	StatusClientError Status = "clientError"
	StatusLoginError  Status = "loginError"
	StatusServerError Status = "serverError"
)

// AuthAPI is the subset of the API the form controller needs.
type AuthAPI interface {
	Login(ctx context.Context, login, password string) (int, error)
	CurrentUser(ctx context.Context) (*Identity, error)
}

// FormController runs the login form state machine. After a successful
// submission it schedules two follow-ups: a who-am-I fetch that populates
// the current-user cache after the confirmation display delay, and a
// navigation callback after the navigation delay. Both timers are cancelled
// by a new submission or by Close.
type FormController struct {
	api           AuthAPI
	confirmDelay  time.Duration
	navigateDelay time.Duration
	onNavigate    func()

	mu      sync.Mutex
	status  Status
	current *Identity
	timers  []*time.Timer
	closed  bool
}

// FormOption customises a FormController.
type FormOption func(*FormController)

// WithDelays overrides the confirmation and navigation delays.
func WithDelays(confirm, navigate time.Duration) FormOption {
	return func(f *FormController) {
		f.confirmDelay = confirm
		f.navigateDelay = navigate
	}
}

// WithNavigate sets the callback invoked when the form navigates away.
func WithNavigate(fn func()) FormOption {
	return func(f *FormController) {
		f.onNavigate = fn
	}
}

// NewFormController constructs a controller in the idle state.
func NewFormController(api AuthAPI, opts ...FormOption) *FormController {
	f := &FormController{
		api:           api,
		confirmDelay:  400 * time.Millisecond,
		navigateDelay: 2 * time.Second,
		status:        StatusIdle,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Status returns the current UI state.
func (f *FormController) Status() Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

// CurrentUser returns the cached identity, or nil before the follow-up
// fetch has completed.
func (f *FormController) CurrentUser() *Identity {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

// Submit sends the credentials as entered; no client-side validation
// mirrors the server rules. A resubmission while follow-ups are pending
// cancels them.
func (f *FormController) Submit(ctx context.Context, login, password string) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.cancelTimersLocked()
	f.status = StatusLoading
	f.mu.Unlock()

	code, err := f.api.Login(ctx, login, password)

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	switch {
	case err != nil:
		f.status = StatusServerError
	case code == http.StatusOK:
		f.status = StatusSuccess
		f.scheduleFollowUpsLocked()
	case code == http.StatusBadRequest:
		f.status = StatusClientError
	case code == http.StatusConflict:
		f.status = StatusLoginError
	default:
		f.status = StatusServerError
	}
}

// Close cancels pending follow-ups. The controller ignores submissions
// afterwards.
func (f *FormController) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	f.cancelTimersLocked()
}

func (f *FormController) scheduleFollowUpsLocked() {
	confirm := time.AfterFunc(f.confirmDelay, f.fetchCurrentUser)
	navigate := time.AfterFunc(f.navigateDelay, func() {
		f.mu.Lock()
		fn := f.onNavigate
		closed := f.closed
		f.mu.Unlock()
		if fn != nil && !closed {
			fn()
		}
	})
	f.timers = append(f.timers, confirm, navigate)
}

// fetchCurrentUser populates the cache from the server. Any failure is
// silently skipped: the secondary fetch never surfaces an error to the user.
func (f *FormController) fetchCurrentUser() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	identity, err := f.api.CurrentUser(ctx)
	if err != nil {
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.current = identity
}

func (f *FormController) cancelTimersLocked() {
	for _, t := range f.timers {
		t.Stop()
	}
	f.timers = nil
}
