// Package netclient is the TCP client side of internal/protocol, used by
// cmd/ignite-cli to talk to a running internal/server.
package netclient

import (
	"bufio"
	"net"

	"github.com/ignitekv/ignite/internal/protocol"
	"github.com/ignitekv/ignite/pkg/errors"
)

// Client holds one open connection to an ignite server and serializes
// requests over it.
type Client struct {
	conn   net.Conn
	reader *bufio.Reader
}

// Dial opens a TCP connection to addr.
func Dial(addr string) (*Client, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Client{conn: conn, reader: bufio.NewReader(conn)}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Set stores key/value on the server.
func (c *Client) Set(key, value string) error {
	resp, err := c.roundTrip(&protocol.Request{Op: protocol.OpSet, Key: key, Value: value})
	if err != nil {
		return err
	}
	return responseError(resp)
}

// Get returns the current value for key. ok is false if the server has no
// live value for it.
func (c *Client) Get(key string) (value string, ok bool, err error) {
	resp, err := c.roundTrip(&protocol.Request{Op: protocol.OpGet, Key: key})
	if err != nil {
		return "", false, err
	}
	if !resp.OK {
		if resp.Error == errors.ErrKeyNotFound.Error() {
			return "", false, nil
		}
		return "", false, responseError(resp)
	}
	return resp.Value, true, nil
}

// Remove deletes key on the server.
func (c *Client) Remove(key string) error {
	resp, err := c.roundTrip(&protocol.Request{Op: protocol.OpRemove, Key: key})
	if err != nil {
		return err
	}
	return responseError(resp)
}

func (c *Client) roundTrip(req *protocol.Request) (*protocol.Response, error) {
	if err := protocol.WriteRequest(c.conn, req); err != nil {
		return nil, err
	}
	return protocol.ReadResponse(c.reader)
}

func responseError(resp *protocol.Response) error {
	if resp.OK {
		return nil
	}
	return errors.NewRequestError(errors.ErrInvalidRequest, errors.ErrorCodeInvalidRequest, resp.Error).
		WithRetryable(resp.Retryable)
}
