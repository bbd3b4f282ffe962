package observations

import (
	"context"
	"fmt"
	"net"
	"os"
	"time"
	"unicode/utf8"

	"github.com/markpostal/kiln-watch/internal/errors"
	"github.com/markpostal/kiln-watch/internal/report"
	"github.com/markpostal/kiln-watch/internal/telemetry"
)

// listenUDP binds the broadcast port on all IPv4 interfaces.
func listenUDP(ctx context.Context, port int) (net.PacketConn, error) {
	var lc net.ListenConfig
	return lc.ListenPacket(ctx, "udp4", fmt.Sprintf("0.0.0.0:%d", port))
}

// collect binds the transport once and enqueues every well-formed report
// until the store stops. A bind failure ends this task only.
func (s *Store) collect(ctx context.Context) error {
	errFactory := errors.New()

	conn, err := s.listen(ctx, s.cfg.BroadcastPort)
	if err != nil {
		bindErr := errFactory.Wrap(errors.ErrBindTransport, err)
		s.log.ErrorWithCode(bindErr).
			Int("port", s.cfg.BroadcastPort).
			Msg("Error binding broadcast port")
		return bindErr
	}
	defer conn.Close()

	s.log.Info().
		Str("addr", conn.LocalAddr().String()).
		Msg("Listening for UDP broadcasts")

	buf := make([]byte, maxDatagramSize)
	for ctx.Err() == nil {
		if err := conn.SetReadDeadline(time.Now().Add(s.cfg.PollInterval)); err != nil {
			return errFactory.Wrap(errors.ErrReceive, err)
		}

		n, addr, err := conn.ReadFrom(buf)
		if err != nil {
			if errors.Is(err, os.ErrDeadlineExceeded) {
				continue
			}
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				break
			}
			recvErr := errFactory.Wrap(errors.ErrReceive, err)
			s.log.ErrorWithCode(recvErr).Msg("An error occurred while receiving")
			return recvErr
		}

		if err := s.Ingest(buf[:n]); err != nil {
			s.log.Debug().
				Err(err).
				Stringer("from", addr).
				Msg("Discarded datagram")
		}
	}

	return nil
}

// Ingest decodes one datagram payload and enqueues it when it is a
// well-formed report. Rejected payloads are counted and returned as a
// coded error; they never reach the queue.
func (s *Store) Ingest(payload []byte) error {
	errFactory := errors.New()

	if !utf8.Valid(payload) {
		s.telemetry.ReportDropped(telemetry.DropDecode)
		return errFactory.WithMessage(errors.ErrMalformedReport, "Datagram is not valid UTF-8")
	}

	line := string(payload)
	if !report.HasTag(line) {
		s.telemetry.ReportDropped(telemetry.DropUntagged)
		return errFactory.WithMessage(errors.ErrMalformedReport, "Datagram is missing the report tag")
	}

	r, err := report.Parse(line)
	if err != nil {
		s.telemetry.ReportDropped(telemetry.DropMalformed)
		return err
	}

	s.log.Debug().Str("report", line).Msg("Incoming report")
	s.enqueue(r, telemetry.SourceCollector)

	return nil
}
