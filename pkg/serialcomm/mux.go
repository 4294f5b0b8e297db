// Package serialcomm implements the concurrent, ID-tagged request/response
// transport over a single serial line: a command queue shared by many
// callers, a response map demultiplexed by id, and two execution modes
// (sequential and pipelined), with a fake-hardware fallback when the port
// cannot be opened.
package serialcomm

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/NCSUhardware/high-level/pkg/logger"
)

// Mux owns one serial port (real or faked) and multiplexes commands from
// many callers onto it, demultiplexing responses back to them by id.
type Mux struct {
	cfg       Config
	transport Transport
	fake      bool

	commands chan CommandRecord
	resp     *responseMap

	rng *rand.Rand
}

// Open attempts to open cfg.Port. On failure it transparently downgrades
// to fake mode: outgoing sends log and sleep briefly, incoming receives
// synthesize a successful response for each sent id, in the order sent.
func Open(cfg Config) *Mux {
	t, err := OpenReal(cfg.Port, cfg.Baud, cfg.Timeout)
	fake := false
	if err != nil {
		logger.Log.Error().Err(err).Str("port", cfg.Port).Msg("open serial port; switching to fake mode")
		t = OpenFake(cfg.FakeDelay)
		fake = true
	} else {
		logger.Log.Debug().Str("port", cfg.Port).Int("baud", cfg.Baud).Msg("serial port open")
	}
	return &Mux{
		cfg:       cfg,
		transport: t,
		fake:      fake,
		commands:  make(chan CommandRecord, cfg.QueueCapacity),
		resp:      newResponseMap(),
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// IsFake reports whether the port could not be opened and reads/writes
// are being synthesized.
func (m *Mux) IsFake() bool { return m.fake }

// Run drives the multiplexer until the "quit" sentinel is enqueued or ctx
// is canceled, then drains the command queue and response map (logging
// anything left unserviced) and closes the port.
func (m *Mux) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer m.close()

	if m.cfg.Sequential {
		return m.execLoop(ctx, cancel)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return m.sendLoop(gctx, cancel) })
	g.Go(func() error { return m.recvLoop(gctx, cancel) })
	return g.Wait()
}

func (m *Mux) close() {
	drained := 0
	for {
		select {
		case rec := <-m.commands:
			logger.Log.Warn().Int("id", rec.ID).Str("payload", rec.Payload).Msg("dropping pending command at shutdown")
			drained++
		default:
			if drained > 0 {
				logger.Log.Warn().Int("count", drained).Msg("pending commands dropped")
			}
			unclaimed := m.resp.drainUnclaimed()
			for id, resp := range unclaimed {
				logger.Log.Warn().Int("id", id).Interface("response", resp).Msg("unfetched response dropped")
			}
			if err := m.transport.Close(); err != nil {
				logger.Log.Error().Err(err).Msg("close serial port")
			}
			return
		}
	}
}

// sendLoop pops (id, cmd), writes it to the wire, and loops until it pops
// the shutdown sentinel or ctx is canceled.
func (m *Mux) sendLoop(ctx context.Context, cancel context.CancelFunc) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case rec := <-m.commands:
			if rec.IsShutdown() {
				cancel()
				return nil
			}
			if err := m.writeCommand(rec); err != nil {
				logger.Log.Error().Err(err).Int("id", rec.ID).Msg("send")
			}
		}
	}
}

// recvLoop reads one line at a time, parses it, and stores it in the
// response map keyed by the response's own id, falling back to
// LegacyResponseID (-1) if the response omits an id entirely: legacy
// firmware that never echoes ids. An empty line is a benign timeout. A
// parse failure or I/O error is fatal and unwinds the loop.
func (m *Mux) recvLoop(ctx context.Context, cancel context.CancelFunc) error {
	defer cancel()
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		line, err := m.transport.ReadLine()
		if err != nil {
			logger.Log.Error().Err(err).Msg("recv")
			return err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		resp, hadID, err := parseResponse(line)
		if err != nil {
			logger.Log.Error().Err(err).Str("line", line).Msg("parse response")
			return err
		}
		resp.ID = resolveID(resp.ID, hadID, LegacyResponseID)
		m.resp.Store(resp.ID, resp)
	}
}

// execLoop combines send and receive for sequential mode: it sends then
// blocks on receive until a non-empty response arrives, one command at a
// time.
func (m *Mux) execLoop(ctx context.Context, cancel context.CancelFunc) error {
	defer cancel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case rec := <-m.commands:
			if rec.IsShutdown() {
				return nil
			}
			resp, err := m.execute(rec)
			if err != nil {
				logger.Log.Error().Err(err).Int("id", rec.ID).Msg("exec")
				return err
			}
			m.resp.Store(resp.ID, resp)
		}
	}
}

func (m *Mux) execute(rec CommandRecord) (Response, error) {
	if err := m.writeCommand(rec); err != nil {
		return Response{}, err
	}
	for {
		line, err := m.transport.ReadLine()
		if err != nil {
			return Response{}, err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		resp, hadID, err := parseResponse(line)
		if err != nil {
			return Response{}, err
		}
		resp.ID = resolveID(resp.ID, hadID, rec.ID)
		return resp, nil
	}
}

func (m *Mux) writeCommand(rec CommandRecord) error {
	payload := rec.Payload
	if m.cfg.PrefixID {
		payload = fmt.Sprintf("%d %s", rec.ID, payload)
	}
	return m.transport.WriteLine(payload + "\r")
}

// wireResponse mirrors Response but with a pointer id, so a missing "id"
// field can be told apart from an explicit id of zero.
type wireResponse struct {
	ID         *int             `json:"id"`
	Result     bool             `json:"result"`
	Distance   float32          `json:"distance"`
	AbsHeading float32          `json:"absHeading"`
	HeadingErr float32          `json:"headingErr"`
	Data       float32          `json:"data"`
	Heading    float32          `json:"heading"`
	Accel      *AccelBlock      `json:"accel"`
	Ultrasonic *UltrasonicBlock `json:"ultrasonic"`
}

// parseResponse returns the parsed Response plus hadID, which is false
// only when the wire object omitted the "id" field entirely (as opposed
// to sending an explicit id of -1, the deliberate legacy non-echoing
// case).
func parseResponse(line string) (resp Response, hadID bool, err error) {
	var w wireResponse
	if err := json.Unmarshal([]byte(line), &w); err != nil {
		return Response{}, false, err
	}
	id := 0
	if w.ID != nil {
		id = *w.ID
	}
	return Response{
		ID:         id,
		Result:     w.Result,
		Distance:   w.Distance,
		AbsHeading: w.AbsHeading,
		HeadingErr: w.HeadingErr,
		Data:       w.Data,
		Heading:    w.Heading,
		Accel:      w.Accel,
		Ultrasonic: w.Ultrasonic,
	}, w.ID != nil, nil
}

// resolveID implements the per-mode response-id fallback: a response
// missing an id field entirely falls back to fallbackID, which execute
// (sequential mode) passes as the sent command's own id, and recvLoop
// (pipelined mode) passes as LegacyResponseID (-1). An explicit id
// already present on the wire response, including an explicit -1, is
// left alone.
func resolveID(id int, hadID bool, fallbackID int) int {
	if !hadID {
		return fallbackID
	}
	return id
}
