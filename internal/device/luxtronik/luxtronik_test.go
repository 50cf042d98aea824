package luxtronik

import (
	"context"
	"encoding/binary"
	"errors"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeController struct {
	ln     net.Listener
	params []int32
	calcs  []int32

	mu     sync.Mutex
	writes map[int32]int32
}

func newFakeController(t *testing.T, params, calcs []int32) *fakeController {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	f := &fakeController{ln: ln, params: params, calcs: calcs, writes: map[int32]int32{}}
	t.Cleanup(func() { _ = ln.Close() })
	go f.serve()
	return f
}

func (f *fakeController) addr() string { return f.ln.Addr().String() }

func (f *fakeController) serve() {
	for {
		c, err := f.ln.Accept()
		if err != nil {
			return
		}
		go f.handle(c)
	}
}

func readInt(r io.Reader) (int32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return int32(binary.BigEndian.Uint32(b[:])), nil
}

func writeInts(w io.Writer, vals ...int32) {
	buf := make([]byte, 4*len(vals))
	for i, v := range vals {
		binary.BigEndian.PutUint32(buf[i*4:], uint32(v))
	}
	_, _ = w.Write(buf)
}

func (f *fakeController) handle(c net.Conn) {
	defer func() { _ = c.Close() }()
	for {
		cmd, err := readInt(c)
		if err != nil {
			return
		}
		switch cmd {
		case cmdReadParameters:
			_, _ = readInt(c)
			writeInts(c, cmdReadParameters, int32(len(f.params)))
			writeInts(c, f.params...)
		case cmdReadCalculations:
			_, _ = readInt(c)
			writeInts(c, cmdReadCalculations, 0, int32(len(f.calcs)))
			writeInts(c, f.calcs...)
		case cmdWriteParameter:
			idx, _ := readInt(c)
			val, _ := readInt(c)
			f.mu.Lock()
			f.writes[idx] = val
			f.mu.Unlock()
			writeInts(c, cmdWriteParameter, val)
		default:
			return
		}
	}
}

func sampleBlocks() (params, calcs []int32) {
	params = make([]int32, 20)
	params[1] = -15 // -1.5 K
	params[2] = 480
	params[3] = 0
	params[4] = 4
	params[11] = 350
	params[12] = 280
	params[13] = -20

	calcs = make([]int32, 200)
	calcs[10] = 352
	calcs[11] = 301
	calcs[12] = 305
	calcs[15] = 50
	calcs[17] = 478
	calcs[44] = 1
	calcs[39] = 1
	calcs[56] = 3600 * 120
	calcs[57] = 4200
	calcs[80] = 0
	calcs[95] = 1700000000
	calcs[100] = 717
	calcs[151] = 123456
	calcs[180] = 1850
	return params, calcs
}

func TestClient_Read(t *testing.T) {
	params, calcs := sampleBlocks()
	f := newFakeController(t, params, calcs)

	c := NewClient(f.addr(), time.Second)
	r, err := c.Read(context.Background())
	require.NoError(t, err)

	assert.InDelta(t, 35.2, r.Values["temperature_supply"], 1e-9)
	assert.InDelta(t, 5.0, r.Values["temperature_outside"], 1e-9)
	assert.Equal(t, true, r.Values["compressor1"])
	assert.Equal(t, true, r.Values["HUPout"])
	assert.Equal(t, false, r.Values["AVout"])
	assert.InDelta(t, 120.0, r.Values["hours_compressor1"], 1e-9)
	assert.Equal(t, 4200, r.Values["starts_compressor1"])
	assert.Equal(t, 0, r.Values["opStateHeating"])
	assert.InDelta(t, 12345.6, r.Values["energy_heating"], 1e-9)
	assert.InDelta(t, 18.5, r.Values["HDin_pressure"], 1e-9)

	errs, ok := r.Values["errors"].([]ErrorRecord)
	require.True(t, ok)
	require.Len(t, errs, 1)
	assert.Equal(t, 717, errs[0].Code)
	assert.Equal(t, int64(1700000000), errs[0].Timestamp.Unix())

	assert.InDelta(t, -1.5, r.Parameters["heating_target_temperature"], 1e-9)
	assert.Equal(t, 4, r.Parameters["warmwater_operation_mode"])
	assert.InDelta(t, 35.0, r.Parameters["heating_curve_end_point"], 1e-9)
	assert.InDelta(t, -2.0, r.Parameters["deltaHeatingReduction"], 1e-9)
}

func TestDecode_ShortBlocksOmitFields(t *testing.T) {
	r := Decode(make([]int32, 12), nil)
	_, hasSupply := r.Values["temperature_supply"]
	_, hasOutside := r.Values["temperature_outside"]
	assert.True(t, hasSupply)
	assert.False(t, hasOutside)
	assert.Empty(t, r.Parameters)
	assert.NotContains(t, r.Values, "errors")
}

func TestClient_WriteScalesValue(t *testing.T) {
	params, calcs := sampleBlocks()
	f := newFakeController(t, params, calcs)
	c := NewClient(f.addr(), time.Second)

	require.NoError(t, c.Write(context.Background(), "warmwater_target_temperature", 52.5))
	require.NoError(t, c.Write(context.Background(), "heating_operation_mode", 2))

	f.mu.Lock()
	defer f.mu.Unlock()
	assert.Equal(t, int32(525), f.writes[2])
	assert.Equal(t, int32(2), f.writes[3])
}

func TestClient_WriteUnknownField(t *testing.T) {
	c := NewClient("127.0.0.1:1", time.Second)
	err := c.Write(context.Background(), "compressor_force_on", 1)
	assert.True(t, errors.Is(err, ErrUnknownField))
}

func TestClient_ReadDialFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	_, err = NewClient(addr, 200*time.Millisecond).Read(context.Background())
	assert.Error(t, err)
}

func TestConn_RejectsWrongCommandEcho(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })
	go func() {
		c, err := ln.Accept()
		if err != nil {
			return
		}
		defer func() { _ = c.Close() }()
		_, _ = readInt(c)
		_, _ = readInt(c)
		writeInts(c, 9999, 0)
	}()

	conn, err := Dial(context.Background(), ln.Addr().String(), time.Second)
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()

	_, err = conn.ReadParameters()
	assert.True(t, errors.Is(err, ErrUnexpectedReply))
}
