package serialcomm

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"go.bug.st/serial"

	"github.com/NCSUhardware/high-level/pkg/logger"
)

// Transport is the capability the multiplexer depends on: write a line,
// read a line, close. Real-serial and fake implementations are two
// variants chosen at open time; nothing above this layer knows which one
// is in use.
type Transport interface {
	WriteLine(line string) error
	ReadLine() (string, error)
	Close() error
}

// realTransport drives an actual serial port via go.bug.st/serial, which
// is used here in place of the raw termios ioctls of a Linux-only serial
// driver so the multiplexer also builds on non-Linux development hosts.
type realTransport struct {
	port   serial.Port
	reader *bufio.Reader
}

// OpenReal opens the named serial port at the given baud rate with the
// given read timeout. Read timeout zero means block forever on ReadLine.
func OpenReal(name string, baud int, readTimeout time.Duration) (Transport, error) {
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(name, mode)
	if err != nil {
		return nil, err
	}
	if readTimeout > 0 {
		_ = port.SetReadTimeout(readTimeout)
	}
	if err := port.ResetInputBuffer(); err != nil {
		logger.Log.Debug().Err(err).Msg("reset input buffer")
	}
	if err := port.ResetOutputBuffer(); err != nil {
		logger.Log.Debug().Err(err).Msg("reset output buffer")
	}
	return &realTransport{port: port, reader: bufio.NewReader(port)}, nil
}

func (t *realTransport) WriteLine(line string) error {
	_, err := t.port.Write([]byte(line))
	return err
}

func (t *realTransport) ReadLine() (string, error) {
	line, err := t.reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return line, nil
}

func (t *realTransport) Close() error {
	return t.port.Close()
}

// fakeIDPollInterval and fakeIDMaxTicks bound fakeTransport.ReadLine's
// wait for a queued id: the original's fakeRecv polls a sentinel fake_id
// this way, timing out after a bounded number of ticks rather than
// blocking forever (which would also wedge shutdown if nothing ever
// writes again).
const (
	fakeIDPollInterval = 200 * time.Microsecond
	fakeIDMaxTicks     = 10000
)

// fakeTransport stands in for a real serial port when one cannot be
// opened: writes log and sleep briefly and enqueue their id; reads poll
// for a queued id, then pop it in FIFO order and synthesize a successful
// response echoing it. The FIFO queue (rather than a single overwritable
// slot) is what lets several concurrent callers each get back their own
// id instead of clobbering one another's.
type fakeTransport struct {
	fakeDelay time.Duration

	mu     sync.Mutex
	queue  []int
	closed bool
}

// OpenFake builds a Transport that never touches real hardware.
func OpenFake(fakeDelay time.Duration) Transport {
	return &fakeTransport{fakeDelay: fakeDelay}
}

func (t *fakeTransport) WriteLine(line string) error {
	id := parseLeadingID(line)
	logger.Log.Debug().Str("line", line).Msg("fake write")
	time.Sleep(t.fakeDelay)

	t.mu.Lock()
	t.queue = append(t.queue, id)
	t.mu.Unlock()
	return nil
}

func (t *fakeTransport) ReadLine() (string, error) {
	for tick := 0; tick < fakeIDMaxTicks; tick++ {
		t.mu.Lock()
		if len(t.queue) > 0 {
			id := t.queue[0]
			t.queue = t.queue[1:]
			t.mu.Unlock()
			time.Sleep(t.fakeDelay)
			return fakeResponseLine(id), nil
		}
		closed := t.closed
		t.mu.Unlock()
		if closed {
			return "", io.EOF
		}
		time.Sleep(fakeIDPollInterval)
	}
	// Ticks exhausted with nothing queued: a benign keepalive timeout,
	// same as an empty line from the real transport.
	return "", nil
}

func (t *fakeTransport) Close() error {
	t.mu.Lock()
	t.closed = true
	t.mu.Unlock()
	return nil
}

func parseLeadingID(line string) int {
	fields := strings.SplitN(strings.TrimSpace(line), " ", 2)
	var id int
	if _, err := fmt.Sscanf(fields[0], "%d", &id); err != nil {
		return ShutdownID
	}
	return id
}

func fakeResponseLine(id int) string {
	b, _ := json.Marshal(Response{ID: id, Result: true})
	return string(b) + "\n"
}
