package studio

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/audiograph/studio-mcp/internal/id"
)

// callTimeout caps a single modify or query round trip on the sync socket.
const callTimeout = 15 * time.Second

// ErrNotStarted is returned for operations on a document whose sync has not
// been started.
var ErrNotStarted = errors.New("document sync has not been started")

// ErrStopped is returned when the sync connection has been closed.
var ErrStopped = errors.New("document sync has been stopped")

// Frame types on the sync socket.
const (
	frameReady    = "ready"    // server: handshake complete, document is live
	frameModify   = "modify"   // client: apply ops atomically
	frameQuery    = "query"    // client: request entity snapshot
	frameAck      = "ack"      // server: modify outcome
	frameEntities = "entities" // server: query result
	frameGone     = "gone"     // server: document is shutting down
)

type syncFrame struct {
	Type     string   `json:"type"`
	ID       string   `json:"id,omitempty"`
	Ops      []Op     `json:"ops,omitempty"`
	Entities []Entity `json:"entities,omitempty"`
	Error    string   `json:"error,omitempty"`
}

// Document is a handle to one remote synced document. Connectivity flips
// true when the server finishes its sync handshake and false when the socket
// drops; subscribers observe transitions only, never a replay of the current
// value.
type Document struct {
	client     *Client
	projectRef string

	writeMu sync.Mutex
	conn    *websocket.Conn

	mu        sync.Mutex
	started   bool
	stopped   bool
	connected bool
	nextSubID int
	subs      map[int]func(bool)
	pending   map[string]chan syncFrame
}

// ProjectRef returns the project reference this document was opened for.
func (d *Document) ProjectRef() string { return d.projectRef }

// Start dials the sync gateway and launches the read loop. The document is
// not yet connected when Start returns; connectivity flips once the server's
// ready frame arrives.
func (d *Document) Start(ctx context.Context) error {
	d.mu.Lock()
	if d.started {
		d.mu.Unlock()
		return errors.New("document sync already started")
	}
	d.started = true
	d.mu.Unlock()

	tok, err := d.client.source.Token(ctx)
	if err != nil {
		d.resetStarted()
		return fmt.Errorf("authorize sync connection: %w", err)
	}

	endpoint := strings.TrimRight(d.client.syncURL, "/") + "/documents/" + d.projectRef
	header := http.Header{}
	header.Set("Authorization", "Bearer "+tok)

	conn, resp, err := d.client.dialer.DialContext(ctx, endpoint, header)
	if err != nil {
		d.resetStarted()
		if resp != nil {
			return fmt.Errorf("dial sync gateway: status %d: %w", resp.StatusCode, err)
		}
		return fmt.Errorf("dial sync gateway: %w", err)
	}

	d.writeMu.Lock()
	d.conn = conn
	d.writeMu.Unlock()

	go d.readLoop(conn)
	return nil
}

// resetStarted releases the start guard so a failed Start can be retried.
func (d *Document) resetStarted() {
	d.mu.Lock()
	d.started = false
	d.mu.Unlock()
}

// Stop closes the sync connection. It is safe to call more than once.
func (d *Document) Stop() error {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return nil
	}
	d.stopped = true
	d.mu.Unlock()

	d.writeMu.Lock()
	conn := d.conn
	d.writeMu.Unlock()
	if conn == nil {
		return nil
	}

	// Best-effort close handshake; the read loop handles the bookkeeping.
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	return conn.Close()
}

// Connected reports whether the sync handshake has completed and the socket
// is still live.
func (d *Document) Connected() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.connected
}

// OnConnectionChange subscribes to connectivity transitions. The current
// value is not replayed. The returned cancel function releases the
// subscription and is safe to call more than once.
func (d *Document) OnConnectionChange(fn func(connected bool)) (cancel func()) {
	d.mu.Lock()
	subID := d.nextSubID
	d.nextSubID++
	if d.subs == nil {
		d.subs = make(map[int]func(bool))
	}
	d.subs[subID] = fn
	d.mu.Unlock()

	return func() {
		d.mu.Lock()
		delete(d.subs, subID)
		d.mu.Unlock()
	}
}

// Modify runs fn to collect edits and submits them as one atomic
// transaction, returning once the server acknowledges the batch. An error
// from fn aborts the transaction before anything is sent; a transaction with
// no edits is a no-op.
func (d *Document) Modify(ctx context.Context, fn func(tx *Transaction) error) error {
	tx := &Transaction{}
	if err := fn(tx); err != nil {
		return err
	}
	if tx.err != nil {
		return tx.err
	}
	if len(tx.ops) == 0 {
		return nil
	}

	ack, err := d.roundTrip(ctx, syncFrame{Type: frameModify, Ops: tx.ops})
	if err != nil {
		return fmt.Errorf("modify transaction: %w", err)
	}
	if ack.Error != "" {
		return fmt.Errorf("modify transaction rejected: %s", ack.Error)
	}
	return nil
}

// QueryEntities requests a point-in-time snapshot of the document's
// entities.
func (d *Document) QueryEntities(ctx context.Context) ([]Entity, error) {
	reply, err := d.roundTrip(ctx, syncFrame{Type: frameQuery})
	if err != nil {
		return nil, fmt.Errorf("query entities: %w", err)
	}
	if reply.Error != "" {
		return nil, fmt.Errorf("query entities rejected: %s", reply.Error)
	}
	return reply.Entities, nil
}

// roundTrip sends one request frame and waits for the matching reply.
func (d *Document) roundTrip(ctx context.Context, req syncFrame) (syncFrame, error) {
	d.writeMu.Lock()
	conn := d.conn
	d.writeMu.Unlock()
	if conn == nil {
		return syncFrame{}, ErrNotStarted
	}

	frameID, err := id.New()
	if err != nil {
		return syncFrame{}, err
	}
	req.ID = frameID

	reply := make(chan syncFrame, 1)
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return syncFrame{}, ErrStopped
	}
	if d.pending == nil {
		d.pending = make(map[string]chan syncFrame)
	}
	d.pending[frameID] = reply
	d.mu.Unlock()

	defer func() {
		d.mu.Lock()
		delete(d.pending, frameID)
		d.mu.Unlock()
	}()

	d.writeMu.Lock()
	err = conn.WriteJSON(req)
	d.writeMu.Unlock()
	if err != nil {
		return syncFrame{}, fmt.Errorf("write %s frame: %w", req.Type, err)
	}

	callCtx, cancelCall := context.WithTimeout(ctx, callTimeout)
	defer cancelCall()

	select {
	case frame := <-reply:
		if frame.Type == frameGone {
			return syncFrame{}, ErrStopped
		}
		return frame, nil
	case <-callCtx.Done():
		return syncFrame{}, callCtx.Err()
	}
}

// readLoop dispatches server frames until the socket drops, then fails every
// pending round trip and flips connectivity to false.
func (d *Document) readLoop(conn *websocket.Conn) {
	defer d.handleDisconnect()
	for {
		var frame syncFrame
		if err := conn.ReadJSON(&frame); err != nil {
			return
		}
		switch frame.Type {
		case frameReady:
			d.setConnected(true)
		case frameAck, frameEntities:
			d.mu.Lock()
			reply, ok := d.pending[frame.ID]
			d.mu.Unlock()
			if ok {
				reply <- frame
			}
		default:
			// Unknown frames are ignored; the sync protocol is free to grow.
		}
	}
}

func (d *Document) handleDisconnect() {
	d.mu.Lock()
	pending := d.pending
	d.pending = nil
	d.mu.Unlock()

	for _, reply := range pending {
		// A reply slot may already hold an ack whose caller timed out
		// before draining it; never block on it here.
		select {
		case reply <- syncFrame{Type: frameGone}:
		default:
		}
	}
	d.setConnected(false)
}

// setConnected records a connectivity transition and notifies subscribers.
// Callbacks run outside the lock so a subscriber may unsubscribe from within
// its own callback.
func (d *Document) setConnected(connected bool) {
	d.mu.Lock()
	if d.connected == connected {
		d.mu.Unlock()
		return
	}
	d.connected = connected
	callbacks := make([]func(bool), 0, len(d.subs))
	for _, fn := range d.subs {
		callbacks = append(callbacks, fn)
	}
	d.mu.Unlock()

	for _, fn := range callbacks {
		fn(connected)
	}
}
