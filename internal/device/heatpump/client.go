package heatpump

import (
	"context"
	"fmt"
	"time"

	"geothermal_monitor/internal/device/luxtronik"
	"geothermal_monitor/internal/models"
)

// Driver is the wire-level access to the controller.
type Driver interface {
	Read(ctx context.Context) (luxtronik.Reading, error)
	Write(ctx context.Context, name string, value float64) error
}

// Client reads normalized snapshots and forwards parameter writes.
type Client struct {
	driver Driver
	now    func() time.Time
}

func NewClient(driver Driver) *Client {
	return &Client{driver: driver, now: time.Now}
}

// Read returns the current snapshot or the read error. Callers decide how to
// represent a failed read (see Disconnected).
func (c *Client) Read(ctx context.Context) (*models.HeatPumpSnapshot, error) {
	raw, err := c.driver.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("read heat pump: %w", err)
	}
	return Normalize(raw, c.now().UTC()), nil
}

// ReadOrDisconnected never fails: a read error yields the disconnected snapshot.
func (c *Client) ReadOrDisconnected(ctx context.Context) (*models.HeatPumpSnapshot, error) {
	snap, err := c.Read(ctx)
	if err != nil {
		return Disconnected(c.now().UTC()), err
	}
	return snap, nil
}

// WriteParameter forwards a write. Validation against WritableParams is the caller's job.
func (c *Client) WriteParameter(ctx context.Context, name string, value float64) error {
	if err := c.driver.Write(ctx, name, value); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}
