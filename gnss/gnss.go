// Package gnss reads position fixes from a gpsd daemon over its JSON
// TCP protocol. The client is an optional location source, polled once
// per scheduler tick; a missing or broken daemon is tolerated and
// retried on the next poll.
package gnss

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/lukejenkins/cwd/parse"
)

const watchCommand = `?WATCH={"enable":true,"json":true}` + "\n"

// tpvReport is the subset of a gpsd TPV report the sample record uses.
// Mode 2 is a 2D fix, mode 3 a 3D fix.
type tpvReport struct {
	Class string  `json:"class"`
	Mode  int     `json:"mode"`
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
	Alt   float64 `json:"alt"`
	Speed float64 `json:"speed"`
}

// Client maintains a lazy connection to gpsd. Not safe for concurrent
// use; the scheduler polls it from its single goroutine.
type Client struct {
	addr        string
	dialTimeout time.Duration
	readTimeout time.Duration
	log         *slog.Logger

	conn   net.Conn
	reader *bufio.Reader
}

// NewClient targets the daemon at host:port. A nil logger uses the
// default logger.
func NewClient(host string, port int, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		addr:        net.JoinHostPort(host, fmt.Sprintf("%d", port)),
		dialTimeout: 2 * time.Second,
		readTimeout: time.Second,
		log:         logger.With("component", "gnss"),
	}
}

// Poll makes one attempt to read a fix. It returns the position fields
// and true when a 2D or better fix arrived within the read window;
// anything else returns false, drops the connection on error, and leaves
// redial to the next poll.
func (c *Client) Poll(ctx context.Context) (parse.FieldMap, bool) {
	if c.conn == nil {
		if err := c.connect(ctx); err != nil {
			c.log.Debug("gpsd unavailable", "addr", c.addr, "error", err)
			return nil, false
		}
	}

	deadline := time.Now().Add(c.readTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.conn.SetReadDeadline(deadline); err != nil {
		c.drop()
		return nil, false
	}

	for {
		line, err := c.reader.ReadBytes('\n')
		if err != nil {
			// Timeouts just mean no fix this tick; keep the connection.
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				return nil, false
			}
			c.log.Debug("gpsd read failed", "error", err)
			c.drop()
			return nil, false
		}

		var tpv tpvReport
		if err := json.Unmarshal(line, &tpv); err != nil || tpv.Class != "TPV" {
			continue
		}
		if tpv.Mode < 2 {
			continue
		}
		fields := parse.FieldMap{
			parse.FieldLatitude:  parse.Float(tpv.Lat),
			parse.FieldLongitude: parse.Float(tpv.Lon),
			// gpsd reports speed in m/s; the sample record holds km/h.
			parse.FieldSpeed: parse.Float(tpv.Speed * 3.6),
		}
		if tpv.Mode >= 3 {
			fields[parse.FieldAltitude] = parse.Float(tpv.Alt)
		}
		return fields, true
	}
}

func (c *Client) connect(ctx context.Context) error {
	d := net.Dialer{Timeout: c.dialTimeout}
	conn, err := d.DialContext(ctx, "tcp", c.addr)
	if err != nil {
		return err
	}
	if _, err := conn.Write([]byte(watchCommand)); err != nil {
		conn.Close()
		return fmt.Errorf("enable gpsd watch: %w", err)
	}
	c.conn = conn
	c.reader = bufio.NewReader(conn)
	c.log.Debug("connected to gpsd", "addr", c.addr)
	return nil
}

func (c *Client) drop() {
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
		c.reader = nil
	}
}

// Close drops the connection if one is open.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	c.reader = nil
	return err
}
