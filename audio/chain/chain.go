// Package chain connects audio sources through optional processing
// nodes to a set of audio sinks.
package chain

import (
	"log"

	"github.com/voicebridge/audiopipe/audio"
)

// Chain holds the audio sources and sinks of an audio path and wires
// them together, optionally through processing nodes.
type Chain struct {
	Sources       audio.Selector
	Sinks         audio.Router
	nodes         []audio.Node
	defaultSource string
	defaultSink   string
}

// NewChain returns an initialized audio chain. The callback of the
// active source feeds the configured nodes and finally the sinks.
func NewChain(opts ...Option) (*Chain, error) {

	options := Options{}

	for _, o := range opts {
		o(&options)
	}

	c := &Chain{
		nodes:         options.Nodes,
		defaultSource: options.DefaultSource,
		defaultSink:   options.DefaultSink,
	}

	sinks, err := audio.NewDefaultRouter()
	if err != nil {
		return nil, err
	}
	c.Sinks = sinks

	sources, err := audio.NewDefaultSelector()
	if err != nil {
		return nil, err
	}
	c.Sources = sources

	// wire up the nodes between the sources and the sinks
	next := audio.OnDataCb(c.sinksCb)
	for i := len(c.nodes) - 1; i >= 0; i-- {
		node := c.nodes[i]
		node.SetCb(next)
		next = func(msg audio.Msg) {
			if err := node.Write(msg); err != nil {
				log.Println(err)
			}
		}
	}
	c.Sources.SetCb(next)

	return c, nil
}

// Enable starts or stops the default sink of this chain.
func (c *Chain) Enable(state bool) error {
	return c.Sinks.EnableSink(c.defaultSink, state)
}

// sinksCb terminates the chain and distributes the audio buffers to
// the enabled sinks.
func (c *Chain) sinksCb(msg audio.Msg) {
	for _, sErr := range c.Sinks.Write(msg) {
		log.Printf("sink %s: %v", sErr.Sink, sErr.Error)
	}
	if msg.EOF {
		// switch back to default source
		c.Sinks.Flush()
		if len(c.defaultSource) > 0 {
			if err := c.Sources.SetSource(c.defaultSource); err != nil {
				log.Println(err)
			}
		}
	}
}
