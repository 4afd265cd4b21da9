// Package osc sends streamer output as Open Sound Control messages with
// float32 arguments over UDP, the transport Mind Monitor compatible
// receivers expect.
package osc

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"

	goosc "github.com/hypebeast/go-osc/osc"
)

// ErrInvalidAddress reports an OSC address that does not start with '/'.
var ErrInvalidAddress = errors.New("osc: address must start with '/'")

// NewMessage builds a message carrying one float32 argument per value.
func NewMessage(address string, values ...float64) (*goosc.Message, error) {
	if !strings.HasPrefix(address, "/") || strings.ContainsRune(address, 0) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAddress, address)
	}
	args := make([]interface{}, len(values))
	for i, v := range values {
		args[i] = float32(v)
	}
	return goosc.NewMessage(address, args...), nil
}

// Client implements stream.Sink for one UDP endpoint. It is safe for
// concurrent use.
type Client struct {
	client *goosc.Client
	addr   string
}

// Dial returns a Client sending to host:port. The address is resolved once
// up front so a bad host fails at startup rather than on every send.
func Dial(host string, port int) (*Client, error) {
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	if _, err := net.ResolveUDPAddr("udp", addr); err != nil {
		return nil, fmt.Errorf("osc: resolve %s: %w", addr, err)
	}
	return &Client{client: goosc.NewClient(host, port), addr: addr}, nil
}

// Addr returns the destination as host:port.
func (c *Client) Addr() string {
	return c.addr
}

// Send encodes and writes one message.
func (c *Client) Send(address string, values ...float64) error {
	msg, err := NewMessage(address, values...)
	if err != nil {
		return err
	}
	if err := c.client.Send(msg); err != nil {
		return fmt.Errorf("osc: send %s: %w", address, err)
	}
	return nil
}
