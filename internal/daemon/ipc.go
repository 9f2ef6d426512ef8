package daemon

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
)

// Command is one request from an editor or the CLI to the daemon.
type Command struct {
	Action string `json:"action"` // resolve, outline, evict, status, stop
	Path   string `json:"path,omitempty"`
	Line   int    `json:"line,omitempty"`
}

// Response is the daemon's reply.
type Response struct {
	Status  string `json:"status"` // ok, error
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// IPCServer accepts newline-delimited JSON commands on a unix socket.
type IPCServer struct {
	socketPath string
	listener   net.Listener
	daemon     *Daemon
}

// NewIPCServer listens on socketPath, replacing any stale socket.
func NewIPCServer(socketPath string, d *Daemon) (*IPCServer, error) {
	os.Remove(socketPath)
	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}
	return &IPCServer{socketPath: socketPath, listener: listener, daemon: d}, nil
}

// Close shuts the server down and removes the socket.
func (s *IPCServer) Close() error {
	os.Remove(s.socketPath)
	return s.listener.Close()
}

// Serve accepts connections until ctx is done or the listener closes.
func (s *IPCServer) Serve(ctx context.Context) {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			continue
		}
		go s.handleConnection(conn)
	}
}

func (s *IPCServer) handleConnection(conn net.Conn) {
	defer conn.Close()

	line, err := bufio.NewReader(conn).ReadBytes('\n')
	if err != nil {
		return
	}
	var cmd Command
	if err := json.Unmarshal(line, &cmd); err != nil {
		s.send(conn, Response{Status: "error", Message: "invalid command"})
		return
	}
	s.send(conn, s.handleCommand(cmd))
}

func (s *IPCServer) handleCommand(cmd Command) Response {
	switch cmd.Action {
	case "resolve":
		if cmd.Path == "" {
			return Response{Status: "error", Message: "path required"}
		}
		tag, err := s.daemon.Resolve(cmd.Path, cmd.Line)
		if err != nil {
			return Response{Status: "error", Message: err.Error()}
		}
		// tag is nil when no definition encloses the line; the editor
		// shows an empty status line.
		return Response{Status: "ok", Data: tag}

	case "outline":
		if cmd.Path == "" {
			return Response{Status: "error", Message: "path required"}
		}
		tags, err := s.daemon.Outline(cmd.Path)
		if err != nil {
			return Response{Status: "error", Message: err.Error()}
		}
		return Response{Status: "ok", Data: tags}

	case "evict":
		if cmd.Path == "" {
			return Response{Status: "error", Message: "path required"}
		}
		s.daemon.Evict(cmd.Path)
		return Response{Status: "ok", Message: "evicted"}

	case "status":
		return Response{Status: "ok", Data: s.daemon.CurrentStatus()}

	case "stop":
		s.daemon.Stop()
		return Response{Status: "ok", Message: "daemon stopping"}

	default:
		return Response{Status: "error", Message: "unknown action"}
	}
}

func (s *IPCServer) send(conn net.Conn, resp Response) {
	data, _ := json.Marshal(resp)
	conn.Write(append(data, '\n'))
}

// IPCClient talks to a running daemon.
type IPCClient struct {
	socketPath string
}

// NewIPCClient creates a client for the daemon at socketPath.
func NewIPCClient(socketPath string) *IPCClient {
	return &IPCClient{socketPath: socketPath}
}

// Send delivers one command and reads the reply.
func (c *IPCClient) Send(cmd Command) (*Response, error) {
	conn, err := net.Dial("unix", c.socketPath)
	if err != nil {
		return nil, fmt.Errorf("connect to daemon: %w", err)
	}
	defer conn.Close()

	data, _ := json.Marshal(cmd)
	if _, err := conn.Write(append(data, '\n')); err != nil {
		return nil, fmt.Errorf("send command: %w", err)
	}

	line, err := bufio.NewReader(conn).ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	var resp Response
	if err := json.Unmarshal(line, &resp); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	return &resp, nil
}

// IsRunning reports whether a daemon answers on the socket.
func (c *IPCClient) IsRunning() bool {
	resp, err := c.Send(Command{Action: "status"})
	return err == nil && resp.Status == "ok"
}

// Stop asks the daemon to shut down.
func (c *IPCClient) Stop() error {
	_, err := c.Send(Command{Action: "stop"})
	return err
}

// Status fetches the daemon status.
func (c *IPCClient) Status() (*Status, error) {
	resp, err := c.Send(Command{Action: "status"})
	if err != nil {
		return nil, err
	}
	if resp.Status != "ok" {
		return nil, fmt.Errorf("%s", resp.Message)
	}
	var status Status
	if err := reencode(resp.Data, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Resolve asks the daemon for the tag at path:line. nil without error
// means no enclosing definition.
func (c *IPCClient) Resolve(path string, line int) (*TagInfo, error) {
	resp, err := c.Send(Command{Action: "resolve", Path: path, Line: line})
	if err != nil {
		return nil, err
	}
	if resp.Status != "ok" {
		return nil, fmt.Errorf("%s", resp.Message)
	}
	if resp.Data == nil {
		return nil, nil
	}
	var tag TagInfo
	if err := reencode(resp.Data, &tag); err != nil {
		return nil, err
	}
	return &tag, nil
}

// Outline asks the daemon for all tags in path.
func (c *IPCClient) Outline(path string) ([]TagInfo, error) {
	resp, err := c.Send(Command{Action: "outline", Path: path})
	if err != nil {
		return nil, err
	}
	if resp.Status != "ok" {
		return nil, fmt.Errorf("%s", resp.Message)
	}
	var tags []TagInfo
	if err := reencode(resp.Data, &tags); err != nil {
		return nil, err
	}
	return tags, nil
}

// Evict drops the daemon's cached hierarchy for path.
func (c *IPCClient) Evict(path string) error {
	resp, err := c.Send(Command{Action: "evict", Path: path})
	if err != nil {
		return err
	}
	if resp.Status != "ok" {
		return fmt.Errorf("%s", resp.Message)
	}
	return nil
}

// reencode converts the generic Data field into a concrete type.
func reencode(data, into any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("re-encode response: %w", err)
	}
	if err := json.Unmarshal(raw, into); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
