package wswriter

import "time"

// Option is the type for a function option
type Option func(*Options)

// Options contains the parameters of a WsWriter.
type Options struct {
	WriteTimeout time.Duration
}

// WriteTimeout sets the deadline for each WebSocket write.
func WriteTimeout(t time.Duration) Option {
	return func(args *Options) {
		args.WriteTimeout = t
	}
}
