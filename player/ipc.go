package player

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/reelctl/reelctl/log"
)

// ipcRequest is the JSON structure sent to mpv's IPC socket.
type ipcRequest struct {
	Command   []any `json:"command"`
	RequestID int64 `json:"request_id"`
}

// ipcMessage is anything mpv writes back: a reply carries a request id, an event an event name.
type ipcMessage struct {
	RequestID *int64          `json:"request_id,omitempty"`
	Error     string          `json:"error,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`

	Event     string `json:"event,omitempty"`
	Name      string `json:"name,omitempty"`
	Reason    string `json:"reason,omitempty"`
	FileError string `json:"file_error,omitempty"`
}

const (
	replyTimeout = 2 * time.Second
	maxLineSize  = 1 << 20
)

var errClosed = errors.New("ipc connection closed")

// ipcConn is one persistent JSON-IPC connection. Replies are matched to their request by id.
// Events are queued and handed to onEvent from a dedicated goroutine, so handlers may issue
// commands of their own.
type ipcConn struct {
	conn    net.Conn
	onEvent func(ipcMessage)

	writeMu sync.Mutex

	mu      sync.Mutex
	nextID  int64
	pending map[int64]chan ipcMessage
	err     error

	queueMu sync.Mutex
	queue   []ipcMessage
	wake    chan struct{}

	closed chan struct{}
	once   sync.Once
	done   sync.WaitGroup
}

func dialIPC(socketPath string, onEvent func(ipcMessage)) (*ipcConn, error) {
	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	c := &ipcConn{
		conn:    conn,
		onEvent: onEvent,
		pending: make(map[int64]chan ipcMessage),
		wake:    make(chan struct{}, 1),
		closed:  make(chan struct{}),
	}

	c.done.Add(2)
	go c.readLoop()
	go c.eventLoop()
	return c, nil
}

// call sends a command and waits for its reply.
func (c *ipcConn) call(command ...any) (json.RawMessage, error) {
	c.mu.Lock()
	if c.err != nil {
		err := c.err
		c.mu.Unlock()
		return nil, err
	}
	c.nextID++
	id := c.nextID
	reply := make(chan ipcMessage, 1)
	c.pending[id] = reply
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
	}()

	payload, err := json.Marshal(ipcRequest{Command: command, RequestID: id})
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}

	c.writeMu.Lock()
	_, err = c.conn.Write(append(payload, '\n'))
	c.writeMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("write: %w", err)
	}

	select {
	case msg := <-reply:
		if msg.Error != "" && msg.Error != "success" {
			return nil, fmt.Errorf("mpv error: %s", msg.Error)
		}
		return msg.Data, nil
	case <-c.closed:
		return nil, errClosed
	case <-time.After(replyTimeout):
		return nil, fmt.Errorf("no reply to %v within %s", command[0], replyTimeout)
	}
}

// readLoop splits the stream into newline-delimited JSON messages.
func (c *ipcConn) readLoop() {
	defer c.done.Done()
	defer c.shutdown(errClosed)

	scanner := bufio.NewScanner(c.conn)
	scanner.Buffer(make([]byte, 0, 4096), maxLineSize)

	for scanner.Scan() {
		var msg ipcMessage
		if err := json.Unmarshal(scanner.Bytes(), &msg); err != nil {
			continue
		}

		switch {
		case msg.RequestID != nil:
			c.mu.Lock()
			reply, ok := c.pending[*msg.RequestID]
			c.mu.Unlock()
			if ok {
				reply <- msg
			}
		case msg.Event != "":
			c.enqueue(msg)
		}
	}

	if err := scanner.Err(); err != nil {
		log.Warnf("mpv ipc read: %v", err)
	}
}

func (c *ipcConn) enqueue(msg ipcMessage) {
	c.queueMu.Lock()
	c.queue = append(c.queue, msg)
	c.queueMu.Unlock()

	select {
	case c.wake <- struct{}{}:
	default:
	}
}

func (c *ipcConn) eventLoop() {
	defer c.done.Done()

	for {
		select {
		case <-c.wake:
		case <-c.closed:
			return
		}

		for {
			c.queueMu.Lock()
			if len(c.queue) == 0 {
				c.queueMu.Unlock()
				break
			}
			msg := c.queue[0]
			c.queue = c.queue[1:]
			c.queueMu.Unlock()

			if c.onEvent != nil {
				c.onEvent(msg)
			}
		}
	}
}

func (c *ipcConn) shutdown(err error) {
	c.once.Do(func() {
		c.mu.Lock()
		c.err = err
		c.mu.Unlock()
		close(c.closed)
		_ = c.conn.Close()
	})
}

// Closed is closed once the connection is gone.
func (c *ipcConn) Closed() <-chan struct{} {
	return c.closed
}

// Close tears the connection down and waits for its goroutines. It must not be called from
// an event handler.
func (c *ipcConn) Close() error {
	c.shutdown(errClosed)
	c.done.Wait()
	return nil
}
