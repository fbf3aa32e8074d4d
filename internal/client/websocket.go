package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/cloudronix/deviceinfo/internal/log"
	"github.com/cloudronix/deviceinfo/internal/panel"
)

const (
	minBackoff = 500 * time.Millisecond
	maxBackoff = 30 * time.Second
)

// Watcher follows the panel stream of a remote deviceinfo server
type Watcher struct {
	url    string
	conn   *websocket.Conn
	panels chan panel.Panel
	done   chan struct{}

	minBackoff time.Duration
	maxBackoff time.Duration
}

// NewWatcher creates a watcher for target, which may be an http(s) or ws(s)
// URL. A missing path defaults to /ws.
func NewWatcher(target string) (*Watcher, error) {
	wsURL := strings.Replace(target, "https://", "wss://", 1)
	wsURL = strings.Replace(wsURL, "http://", "ws://", 1)

	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return nil, fmt.Errorf("invalid URL: unsupported scheme '%s'", u.Scheme)
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = "/ws"
	}

	done := make(chan struct{})
	close(done)

	return &Watcher{
		url:        u.String(),
		panels:     make(chan panel.Panel, 16),
		done:       done,
		minBackoff: minBackoff,
		maxBackoff: maxBackoff,
	}, nil
}

// URL returns the WebSocket URL being watched
func (w *Watcher) URL() string {
	return w.url
}

// Connect establishes the WebSocket connection and starts reading panels.
// A previous connection is closed first.
func (w *Watcher) Connect(ctx context.Context) error {
	if w.conn != nil {
		w.conn.Close()
		w.conn = nil
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, w.url, nil)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	w.conn = conn

	// Reset done channel for reconnection
	done := make(chan struct{})
	w.done = done

	log.Debug().Str("url", w.url).Msg("WebSocket connected")

	go w.readMessages(conn, done)

	return nil
}

// Run delivers panels to onPanel until ctx is done, reconnecting with
// exponential backoff whenever the stream drops or a dial fails.
func (w *Watcher) Run(ctx context.Context, onPanel func(panel.Panel)) error {
	defer w.Close()

	backoff := w.minBackoff
	for {
		if err := w.Connect(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.Warn().Err(err).Dur("retry_in", backoff).Msg("Reconnect failed")
			if !wait(ctx, backoff) {
				return nil
			}
			backoff = min(backoff*2, w.maxBackoff)
			continue
		}

		backoff = w.minBackoff
		if !w.consume(ctx, onPanel) {
			return nil
		}

		log.Warn().Str("url", w.url).Msg("WebSocket disconnected, reconnecting...")
		if !wait(ctx, backoff) {
			return nil
		}
	}
}

// consume hands panels to onPanel until the connection drops (true) or ctx
// is done (false)
func (w *Watcher) consume(ctx context.Context, onPanel func(panel.Panel)) bool {
	for {
		select {
		case p := <-w.panels:
			onPanel(p)
		case <-w.done:
			for {
				select {
				case p := <-w.panels:
					onPanel(p)
				default:
					return true
				}
			}
		case <-ctx.Done():
			return false
		}
	}
}

// wait sleeps for d, returning false if ctx ends first
func wait(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// readMessages decodes incoming panels until the connection drops
func (w *Watcher) readMessages(conn *websocket.Conn, done chan struct{}) {
	defer close(done)

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Msg("WebSocket error")
			}
			return
		}

		var p panel.Panel
		if err := json.Unmarshal(msg, &p); err != nil {
			log.Debug().Err(err).Msg("Skipping malformed panel")
			continue
		}

		select {
		case w.panels <- p:
		default:
			// Consumer is behind, the next push carries fresher data
		}
	}
}

// Panels returns the channel of received panels
func (w *Watcher) Panels() <-chan panel.Panel {
	return w.panels
}

// Done returns a channel that's closed when the connection is lost
func (w *Watcher) Done() <-chan struct{} {
	return w.done
}

// Close closes the WebSocket connection
func (w *Watcher) Close() error {
	if w.conn != nil {
		// Send close message
		w.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		time.Sleep(100 * time.Millisecond)
		err := w.conn.Close()
		w.conn = nil
		return err
	}
	return nil
}
