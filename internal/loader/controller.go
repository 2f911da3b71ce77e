package loader

import (
	"context"
	"encoding/json"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/yolodolo42/itemdeck/internal/auth"
	"github.com/yolodolo42/itemdeck/internal/integration"
)

// State is the load lifecycle position
type State int

const (
	Idle State = iota
	Loading
	Loaded
	Errored
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Errored:
		return "errored"
	default:
		return "unknown"
	}
}

// DisplayMode selects how a loaded payload is rendered
type DisplayMode int

const (
	Grouped DisplayMode = iota
	Raw
)

func (m DisplayMode) String() string {
	if m == Raw {
		return "raw"
	}
	return "grouped"
}

// SettledMsg is delivered when the outstanding request finishes
type SettledMsg struct {
	Generation uint64
	Selector   integration.Selector
	Payload    json.RawMessage
	Err        error
}

// Controller owns the load state machine. It is not safe for concurrent use:
// bubbletea calls Update on a single goroutine, and only the command returned
// by Load runs elsewhere.
type Controller struct {
	fetcher Fetcher
	timeout time.Duration
	logger  zerolog.Logger

	state      State
	selector   integration.Selector
	payload    json.RawMessage
	errMsg     string
	mode       DisplayMode
	generation uint64
}

// NewController creates a controller in the Idle state
func NewController(fetcher Fetcher, timeout time.Duration, logger zerolog.Logger) *Controller {
	return &Controller{
		fetcher: fetcher,
		timeout: timeout,
		logger:  logger,
		state:   Idle,
		mode:    Grouped,
	}
}

// Load starts a load for sel. It returns nil, changing nothing, while another
// load is outstanding.
func (c *Controller) Load(sel integration.Selector, creds auth.Bundle) tea.Cmd {
	return c.LoadContext(context.Background(), sel, creds)
}

// LoadContext is Load with a parent context for the request
func (c *Controller) LoadContext(ctx context.Context, sel integration.Selector, creds auth.Bundle) tea.Cmd {
	if c.state == Loading {
		c.logger.Debug().
			Str("integration", string(sel)).
			Uint64("generation", c.generation).
			Msg("load ignored, request in flight")
		return nil
	}

	c.generation++
	gen := c.generation
	c.state = Loading
	c.selector = sel
	c.payload = nil
	c.errMsg = ""

	c.logger.Info().
		Str("integration", string(sel)).
		Uint64("generation", gen).
		Msg("load started")

	fetcher, timeout := c.fetcher, c.timeout
	return func() tea.Msg {
		reqCtx := ctx
		if timeout > 0 {
			var cancel context.CancelFunc
			reqCtx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		payload, err := fetcher.Fetch(reqCtx, sel, creds)
		return SettledMsg{
			Generation: gen,
			Selector:   sel,
			Payload:    payload,
			Err:        err,
		}
	}
}

// Settle commits the outcome of a request. Responses from a superseded
// generation are discarded; the return value reports whether msg was applied.
func (c *Controller) Settle(msg SettledMsg) bool {
	if msg.Generation != c.generation || c.state != Loading {
		c.logger.Debug().
			Uint64("generation", msg.Generation).
			Uint64("current", c.generation).
			Str("state", c.state.String()).
			Msg("stale response discarded")
		return false
	}

	if msg.Err != nil {
		c.state = Errored
		c.payload = nil
		c.errMsg = Message(msg.Err)
		c.logger.Warn().
			Err(msg.Err).
			Str("integration", string(msg.Selector)).
			Uint64("generation", msg.Generation).
			Msg("load failed")
		return true
	}

	c.state = Loaded
	c.payload = msg.Payload
	c.logger.Info().
		Str("integration", string(msg.Selector)).
		Uint64("generation", msg.Generation).
		Int("bytes", len(msg.Payload)).
		Msg("load settled")
	return true
}

// Clear returns to Idle from any state. An outstanding request is not
// aborted; bumping the generation makes its response stale.
func (c *Controller) Clear() {
	c.generation++
	c.state = Idle
	c.payload = nil
	c.errMsg = ""
	c.mode = Grouped
	c.logger.Debug().Uint64("generation", c.generation).Msg("cleared")
}

// ToggleDisplayMode flips between grouped and raw. It only has an effect
// once data is loaded.
func (c *Controller) ToggleDisplayMode() bool {
	if c.state != Loaded {
		return false
	}
	if c.mode == Grouped {
		c.mode = Raw
	} else {
		c.mode = Grouped
	}
	return true
}

// CanClear reports whether there is anything for Clear to discard
func (c *Controller) CanClear() bool {
	return c.state != Idle
}

func (c *Controller) State() State                   { return c.state }
func (c *Controller) Payload() json.RawMessage       { return c.payload }
func (c *Controller) Err() string                    { return c.errMsg }
func (c *Controller) Mode() DisplayMode              { return c.mode }
func (c *Controller) Selector() integration.Selector { return c.selector }
func (c *Controller) Generation() uint64             { return c.generation }
