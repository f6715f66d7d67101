package devlog

import (
	"fmt"
	"io"
	"os"
)

// Channel identifica el canal de salida de una escritura.
type Channel int

const (
	ChannelLog Channel = iota
	ChannelInfo
	ChannelWarn
	ChannelError
)

func (c Channel) String() string {
	switch c {
	case ChannelLog:
		return "log"
	case ChannelInfo:
		return "info"
	case ChannelWarn:
		return "warn"
	case ChannelError:
		return "error"
	default:
		return fmt.Sprintf("channel(%d)", int(c))
	}
}

// Sink recibe cada escritura: (canal, valores...).
// Un Sink no debe retener el slice values después de retornar.
type Sink interface {
	Write(ch Channel, values ...any)
}

// SinkFunc adapta una función a Sink.
type SinkFunc func(ch Channel, values ...any)

func (f SinkFunc) Write(ch Channel, values ...any) { f(ch, values...) }

// StreamSink escribe una línea por llamada, como fmt.Fprintln.
// log/info van a Out, warn/error a Err.
type StreamSink struct {
	Out io.Writer
	Err io.Writer
}

// Stdio retorna un StreamSink sobre stdout/stderr.
func Stdio() *StreamSink {
	return &StreamSink{Out: os.Stdout, Err: os.Stderr}
}

func (s *StreamSink) Write(ch Channel, values ...any) {
	w := s.Out
	if ch == ChannelWarn || ch == ChannelError {
		w = s.Err
	}
	// Un único Write por llamada: líneas concurrentes no se mezclan en *os.File.
	// Una falla del stream (EPIPE, disco lleno) sube al caller como panic.
	if _, err := fmt.Fprintln(w, values...); err != nil {
		panic(err)
	}
}

// Discard descarta todas las escrituras.
var Discard Sink = SinkFunc(func(Channel, ...any) {})
