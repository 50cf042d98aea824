package luxtronik

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"time"
)

// Command codes understood by the Luxtronik 2 binary service (TCP 8889).
const (
	cmdWriteParameter   int32 = 3002
	cmdReadParameters   int32 = 3003
	cmdReadCalculations int32 = 3004
)

// maxFieldCount guards against garbage length prefixes.
const maxFieldCount = 4096

var (
	ErrUnexpectedReply = errors.New("luxtronik: unexpected reply")
	ErrUnknownField    = errors.New("luxtronik: unknown field")
)

// Conn is a single session with the controller. It is not safe for concurrent use.
type Conn struct {
	nc net.Conn
}

// Dial opens a session. The controller accepts very few sockets, so callers
// should close the session as soon as the exchange is done.
func Dial(ctx context.Context, addr string, timeout time.Duration) (*Conn, error) {
	d := net.Dialer{Timeout: timeout}
	nc, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	c := &Conn{nc: nc}
	if dl, ok := ctx.Deadline(); ok {
		_ = nc.SetDeadline(dl)
	} else if timeout > 0 {
		_ = nc.SetDeadline(time.Now().Add(timeout))
	}
	return c, nil
}

func (c *Conn) Close() error {
	return c.nc.Close()
}

func (c *Conn) writeInts(vals ...int32) error {
	buf := make([]byte, 4*len(vals))
	for i, v := range vals {
		binary.BigEndian.PutUint32(buf[i*4:], uint32(v))
	}
	_, err := c.nc.Write(buf)
	return err
}

func (c *Conn) readInt() (int32, error) {
	var b [4]byte
	if _, err := io.ReadFull(c.nc, b[:]); err != nil {
		return 0, err
	}
	return int32(binary.BigEndian.Uint32(b[:])), nil
}

func (c *Conn) expect(cmd int32) error {
	got, err := c.readInt()
	if err != nil {
		return err
	}
	if got != cmd {
		return fmt.Errorf("%w: command %d, want %d", ErrUnexpectedReply, got, cmd)
	}
	return nil
}

func (c *Conn) readFields() ([]int32, error) {
	n, err := c.readInt()
	if err != nil {
		return nil, err
	}
	if n < 0 || n > maxFieldCount {
		return nil, fmt.Errorf("%w: field count %d", ErrUnexpectedReply, n)
	}
	out := make([]int32, n)
	for i := range out {
		if out[i], err = c.readInt(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ReadParameters fetches the raw parameter block.
func (c *Conn) ReadParameters() ([]int32, error) {
	if err := c.writeInts(cmdReadParameters, 0); err != nil {
		return nil, fmt.Errorf("request parameters: %w", err)
	}
	if err := c.expect(cmdReadParameters); err != nil {
		return nil, fmt.Errorf("read parameters: %w", err)
	}
	vals, err := c.readFields()
	if err != nil {
		return nil, fmt.Errorf("read parameters: %w", err)
	}
	return vals, nil
}

// ReadCalculations fetches the raw calculation (measurement) block.
func (c *Conn) ReadCalculations() ([]int32, error) {
	if err := c.writeInts(cmdReadCalculations, 0); err != nil {
		return nil, fmt.Errorf("request calculations: %w", err)
	}
	if err := c.expect(cmdReadCalculations); err != nil {
		return nil, fmt.Errorf("read calculations: %w", err)
	}
	// status word, ignored
	if _, err := c.readInt(); err != nil {
		return nil, fmt.Errorf("read calculations: %w", err)
	}
	vals, err := c.readFields()
	if err != nil {
		return nil, fmt.Errorf("read calculations: %w", err)
	}
	return vals, nil
}

// WriteParameter stores a raw value at index. The controller echoes the command and the value.
func (c *Conn) WriteParameter(index, value int32) error {
	if err := c.writeInts(cmdWriteParameter, index, value); err != nil {
		return fmt.Errorf("write parameter %d: %w", index, err)
	}
	if err := c.expect(cmdWriteParameter); err != nil {
		return fmt.Errorf("write parameter %d: %w", index, err)
	}
	echo, err := c.readInt()
	if err != nil {
		return fmt.Errorf("write parameter %d: %w", index, err)
	}
	if echo != value {
		return fmt.Errorf("%w: parameter %d echoed %d, sent %d", ErrUnexpectedReply, index, echo, value)
	}
	return nil
}
