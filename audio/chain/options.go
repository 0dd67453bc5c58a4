package chain

import "github.com/voicebridge/audiopipe/audio"

// Option is the type for a function option
type Option func(*Options)

// Options contains the parameters of a Chain.
type Options struct {
	DefaultSource string
	DefaultSink   string
	Nodes         []audio.Node
}

// DefaultSource sets the name of the source the chain falls back to
// when the active source signals EOF.
func DefaultSource(s string) Option {
	return func(args *Options) {
		args.DefaultSource = s
	}
}

// DefaultSink sets the name of the sink toggled by Enable.
func DefaultSink(s string) Option {
	return func(args *Options) {
		args.DefaultSink = s
	}
}

// Node adds a processing node between the sources and the sinks. Nodes
// are chained in the order they are added.
func Node(n audio.Node) Option {
	return func(args *Options) {
		args.Nodes = append(args.Nodes, n)
	}
}
