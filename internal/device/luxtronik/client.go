package luxtronik

import (
	"context"
	"fmt"
	"time"
)

// Client opens one session per operation.
type Client struct {
	addr    string
	timeout time.Duration
}

func NewClient(addr string, timeout time.Duration) *Client {
	return &Client{addr: addr, timeout: timeout}
}

func (c *Client) Addr() string { return c.addr }

// Read fetches parameters and calculations in one session and decodes them.
func (c *Client) Read(ctx context.Context) (Reading, error) {
	conn, err := Dial(ctx, c.addr, c.timeout)
	if err != nil {
		return Reading{}, err
	}
	defer func() { _ = conn.Close() }()

	params, err := conn.ReadParameters()
	if err != nil {
		return Reading{}, err
	}
	calcs, err := conn.ReadCalculations()
	if err != nil {
		return Reading{}, err
	}
	return Decode(calcs, params), nil
}

// Write stores a named parameter, scaling it the way the controller expects.
func (c *Client) Write(ctx context.Context, name string, value float64) error {
	f, ok := parameters[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, name)
	}
	conn, err := Dial(ctx, c.addr, c.timeout)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	return conn.WriteParameter(int32(f.index), unscale(value, f.kind))
}
