package link

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"go.bug.st/serial"
)

// SerialLink carries frames between a host radio and the dispatcher over a UART.
type SerialLink struct {
	port   io.ReadWriteCloser
	reader *bufio.Reader
	disp   *Dispatcher
	logger *slog.Logger

	writeMu   sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

// Open opens the serial port and returns a link serving disp.
func Open(portName string, baudRate int, disp *Dispatcher, logger *slog.Logger) (*SerialLink, error) {
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("serial link: open %s: %w", portName, err)
	}

	// USB CDC ACM: assert DTR/RTS so the radio starts talking.
	_ = port.SetDTR(true)
	_ = port.SetRTS(true)

	return NewSerialLink(port, disp, logger), nil
}

// NewSerialLink wraps an already open byte stream.
func NewSerialLink(port io.ReadWriteCloser, disp *Dispatcher, logger *slog.Logger) *SerialLink {
	return &SerialLink{
		port:   port,
		reader: bufio.NewReader(port),
		disp:   disp,
		logger: logger,
	}
}

// Serve reads frames until ctx is cancelled or the port fails. Each decoded message
// is handed to the dispatcher and any response is written back on the same link.
func (l *SerialLink) Serve(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() { l.Close() })
	defer stop()

	backoff := 10 * time.Millisecond
	const maxBackoff = 5 * time.Second

	for {
		raw, err := readRawFrame(l.reader)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) {
				return fmt.Errorf("serial link: %w", err)
			}
			if errors.Is(err, ErrFrameTooLong) {
				// Line noise; resync on the next flag.
				l.logger.Warn("serial link frame dropped", "err", err)
				continue
			}
			l.logger.Error("serial link read error", "err", err)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil
			}
			if backoff < maxBackoff {
				backoff = min(backoff*2, maxBackoff)
			}
			continue
		}
		backoff = 10 * time.Millisecond

		body, err := hdlcDecode(raw)
		if err != nil {
			l.logger.Warn("serial link frame dropped", "err", err)
			continue
		}
		msg, err := decodeMessage(body)
		if err != nil {
			l.logger.Warn("serial link frame dropped", "err", err)
			continue
		}
		l.logger.Debug("serial link frame received",
			"cluster", fmt.Sprintf("0x%04X", msg.ClusterID), "len", len(msg.Frame))

		resp, err := l.disp.Handle(msg.ClusterID, msg.Frame)
		if err != nil {
			l.logger.Debug("frame not processed", "cluster", fmt.Sprintf("0x%04X", msg.ClusterID), "err", err)
		}
		if resp == nil {
			continue
		}
		if err := l.Send(Message{ClusterID: msg.ClusterID, Frame: resp}); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			l.logger.Error("serial link write failed", "err", err)
		}
	}
}

// Send writes one message to the link.
func (l *SerialLink) Send(m Message) error {
	l.writeMu.Lock()
	defer l.writeMu.Unlock()
	_, err := l.port.Write(hdlcEncode(m.encode()))
	return err
}

// Close closes the port. Safe to call more than once.
func (l *SerialLink) Close() error {
	l.closeOnce.Do(func() {
		l.closeErr = l.port.Close()
	})
	return l.closeErr
}
