package devlog

// Logger es la superficie de logging de cuatro niveles.
type Logger interface {
	Trace(values ...any)
	Info(values ...any)
	Warn(values ...any)
	Error(values ...any)
}

// Console implementa Logger sobre un Sink.
// Es seguro para uso concurrente siempre que el Sink lo sea.
type Console struct {
	dev  bool
	sink Sink
}

var _ Logger = (*Console)(nil)

// New crea un logger. dev habilita Trace e Info.
// Si sink es nil se usa Stdio().
func New(dev bool, sink Sink) *Console {
	if sink == nil {
		sink = Stdio()
	}
	return &Console{dev: dev, sink: sink}
}

// Development informa si Trace/Info están habilitados.
func (c *Console) Development() bool { return c.dev }

// Trace escribe en el canal "log" solo en modo desarrollo.
func (c *Console) Trace(values ...any) {
	if c.dev {
		c.sink.Write(ChannelLog, values...)
	}
}

// Info escribe en el canal "info" solo en modo desarrollo.
func (c *Console) Info(values ...any) {
	if c.dev {
		c.sink.Write(ChannelInfo, values...)
	}
}

// Warn escribe siempre en el canal "warn".
func (c *Console) Warn(values ...any) {
	c.sink.Write(ChannelWarn, values...)
}

// Error escribe siempre en el canal "error".
func (c *Console) Error(values ...any) {
	c.sink.Write(ChannelError, values...)
}
