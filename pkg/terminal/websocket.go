package terminal

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/agileandy/bbcbasic/pkg/configuration"
	"github.com/agileandy/bbcbasic/pkg/faults"
	"github.com/agileandy/bbcbasic/pkg/logger"
	"github.com/agileandy/bbcbasic/pkg/shared"
	"github.com/agileandy/bbcbasic/pkg/shell"
)

// Websocket settings from the [Server] section.
func getWriteWait() time.Duration {
	return configuration.GetDuration("Server", "write_wait_timeout", 10*time.Second)
}

func getPongWait() time.Duration {
	return configuration.GetDuration("Server", "pong_timeout", 60*time.Second)
}

func getPingPeriod() time.Duration {
	pongWait := getPongWait()
	return (pongWait * 9) / 10
}

func getMaxMessageSize() int64 {
	return int64(configuration.GetInt("Server", "max_message_size_kb", 64) * 1024)
}

func getInputTimeout() time.Duration {
	return configuration.GetDuration("Server", "input_timeout", 5*time.Minute)
}

// withRunLimit bounds one command by [Server] max_run_time; zero means no
// limit.
func withRunLimit(ctx context.Context) (context.Context, context.CancelFunc) {
	if d := configuration.GetDuration("Server", "max_run_time", 0); d > 0 {
		return context.WithTimeout(ctx, d)
	}
	return context.WithCancel(ctx)
}

const sendBuffer = 256

var errSessionClosed = errors.New("session closed")

// Session is one connected websocket client with its own shell.
type Session struct {
	id        string
	username  string
	ipAddress string
	conn      *websocket.Conn
	manager   *ClientManager
	shell     *shell.Shell

	send   chan shared.Message
	lines  chan string
	escape chan struct{}
	done   chan struct{}
	cancel context.CancelFunc
	once   sync.Once
}

// ID returns the session id sent to the client.
func (s *Session) ID() string { return s.id }

// close ends the session. It is safe to call more than once.
func (s *Session) close() {
	s.once.Do(func() {
		close(s.done)
		s.cancel()
		s.shell.Interrupt()
		s.manager.RemoveSession(s.id)
		logger.ServerInfo("Session %s for %s closed", s.id, s.username)
	})
}

// sendMessage queues msg for the write pump.
func (s *Session) sendMessage(msg shared.Message) error {
	select {
	case s.send <- msg:
		return nil
	case <-s.done:
		return errSessionClosed
	}
}

// sessionWriter turns shell output into text messages.
type sessionWriter struct{ s *Session }

func (w sessionWriter) Write(p []byte) (int, error) {
	if err := w.s.sendMessage(shared.Message{Type: shared.MessageTypeText, Content: string(p)}); err != nil {
		return 0, err
	}
	return len(p), nil
}

// ReadLine answers an INPUT statement from the next input message. An
// escape message raises Escape; a client that stays silent past the input
// timeout ends the run the same way.
func (s *Session) ReadLine(ctx context.Context, prompt string) (string, error) {
	if err := s.sendMessage(shared.Message{Type: shared.MessageTypePrompt, Content: prompt}); err != nil {
		return "", err
	}
	timer := time.NewTimer(getInputTimeout())
	defer timer.Stop()
	select {
	case line := <-s.lines:
		return line, nil
	case <-s.escape:
		return "", faults.Escape()
	case <-timer.C:
		logger.Debug(logger.AreaSession, "session %s: INPUT timed out", s.id)
		return "", io.EOF
	case <-ctx.Done():
		return "", ctx.Err()
	case <-s.done:
		return "", io.EOF
	}
}

// nextCommand waits for a shell line. Escape at the prompt is ignored.
func (s *Session) nextCommand(ctx context.Context) (string, bool) {
	if err := s.sendMessage(shared.Message{Type: shared.MessageTypePrompt, Content: shell.Prompt}); err != nil {
		return "", false
	}
	for {
		select {
		case line := <-s.lines:
			return line, true
		case <-s.escape:
			continue
		case <-ctx.Done():
			return "", false
		case <-s.done:
			return "", false
		}
	}
}

func (s *Session) drainEscape() {
	select {
	case <-s.escape:
	default:
	}
}

// runShell is the session's command loop.
func (s *Session) runShell(ctx context.Context) {
	defer s.close()
	for {
		s.drainEscape()
		line, ok := s.nextCommand(ctx)
		if !ok {
			return
		}
		logger.Debug(logger.AreaSession, "session %s command %q", s.id, line)
		runCtx, cancel := withRunLimit(ctx)
		ok = s.shell.Execute(runCtx, line)
		cancel()
		if !ok {
			return
		}
	}
}

// readPump delivers client messages to the shell.
func (s *Session) readPump() {
	defer s.close()

	s.conn.SetReadLimit(getMaxMessageSize())
	s.conn.SetReadDeadline(time.Now().Add(getPongWait()))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(getPongWait()))
		return nil
	})

	for {
		messageType, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				logger.ServerWarn("Unexpected close for session %s: %v", s.id, err)
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		var msg shared.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			if s.sendMessage(shared.Message{Type: shared.MessageTypeError, Content: "Invalid message format"}) != nil {
				return
			}
			continue
		}
		if err := shared.ValidateClientMessage(msg); err != nil {
			logger.ServerWarn("Rejected message from %s: %v", s.ipAddress, err)
			if s.sendMessage(shared.Message{Type: shared.MessageTypeError, Content: err.Error()}) != nil {
				return
			}
			continue
		}

		switch msg.Type {
		case shared.MessageTypeInput:
			select {
			case s.lines <- msg.Content:
			case <-s.done:
				return
			}
		case shared.MessageTypeEscape:
			s.shell.Interrupt()
			select {
			case s.escape <- struct{}{}:
			default:
			}
		}
	}
}

// writePump sends queued messages and keeps the connection alive with
// pings.
func (s *Session) writePump() {
	ticker := time.NewTicker(getPingPeriod())
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()
	for {
		select {
		case msg := <-s.send:
			if err := s.writeMessage(msg); err != nil {
				logger.ServerWarn("Write to session %s failed: %v", s.id, err)
				s.close()
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(getWriteWait()))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.close()
				return
			}
		case <-s.done:
			s.flush()
			s.conn.SetWriteDeadline(time.Now().Add(getWriteWait()))
			s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// flush writes whatever output is still queued when the session ends.
func (s *Session) flush() {
	for {
		select {
		case msg := <-s.send:
			if s.writeMessage(msg) != nil {
				return
			}
		default:
			return
		}
	}
}

func (s *Session) writeMessage(msg shared.Message) error {
	s.conn.SetWriteDeadline(time.Now().Add(getWriteWait()))
	w, err := s.conn.NextWriter(websocket.TextMessage)
	if err != nil {
		return err
	}
	if err := json.NewEncoder(w).Encode(msg); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}
