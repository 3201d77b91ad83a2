// Package pa runs a stream processor on the default PortAudio devices.
package pa

import (
	"context"
	"errors"
	"fmt"

	"github.com/gordonklaus/portaudio"

	"github.com/cwbudde/algo-fx/dsp/core"
	"github.com/cwbudde/algo-fx/dsp/stream"
	"github.com/cwbudde/algo-fx/internal/host"
)

// Info describes the devices a Duplex opened.
type Info struct {
	Input      string
	Output     string
	SampleRate float64
	Channels   int
	BlockSize  int
}

// Duplex is an open PortAudio stream feeding the default input device
// through a processor into the default output device. When no input
// device exists the stream is output-only and the processor receives
// silence.
type Duplex struct {
	stream   *portaudio.Stream
	callback *host.Callback
	info     Info
}

// Open initializes PortAudio and opens the stream for cfg. On error
// every acquired resource is released.
func Open(proc stream.Processor, cfg core.ProcessorConfig) (d *Duplex, err error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("pa: %w", err)
	}

	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("pa: initialize: %w", err)
	}

	defer func() {
		if err != nil {
			err = errors.Join(err, portaudio.Terminate())
		}
	}()

	out, err := portaudio.DefaultOutputDevice()
	if err != nil {
		return nil, fmt.Errorf("pa: no default output device: %w", err)
	}

	in, inErr := portaudio.DefaultInputDevice()

	params := portaudio.StreamParameters{
		Output: portaudio.StreamDeviceParameters{
			Device:   out,
			Channels: cfg.Channels,
			Latency:  out.DefaultLowOutputLatency,
		},
		SampleRate:      cfg.SampleRate,
		FramesPerBuffer: cfg.BlockSize,
		Flags:           portaudio.ClipOff,
	}

	d = &Duplex{
		callback: host.NewCallback(proc, cfg.Channels),
		info: Info{
			Output:     out.Name,
			SampleRate: cfg.SampleRate,
			Channels:   cfg.Channels,
			BlockSize:  cfg.BlockSize,
		},
	}

	if inErr == nil && in != nil && in.MaxInputChannels >= cfg.Channels {
		params.Input = portaudio.StreamDeviceParameters{
			Device:   in,
			Channels: cfg.Channels,
			Latency:  in.DefaultLowInputLatency,
		}
		d.info.Input = in.Name
		d.stream, err = portaudio.OpenStream(params, d.callback.Process)
	} else {
		d.stream, err = portaudio.OpenStream(params, d.callback.ProcessOutput)
	}

	if err != nil {
		return nil, fmt.Errorf("pa: open stream: %w", err)
	}

	return d, nil
}

// Info returns the opened device configuration.
func (d *Duplex) Info() Info { return d.info }

// Run starts the stream and blocks until ctx is cancelled or the
// processor stops the stream. It returns stream.ErrAborted when the
// processor aborted.
func (d *Duplex) Run(ctx context.Context) error {
	if err := d.stream.Start(); err != nil {
		return fmt.Errorf("pa: start stream: %w", err)
	}

	var runErr error

	select {
	case <-ctx.Done():
	case status := <-d.callback.Done():
		if status == stream.Abort {
			runErr = stream.ErrAborted
		}
	}

	if err := d.stream.Stop(); err != nil {
		return errors.Join(runErr, fmt.Errorf("pa: stop stream: %w", err))
	}

	return runErr
}

// Close closes the stream and terminates PortAudio.
func (d *Duplex) Close() error {
	var errs []error

	if err := d.stream.Close(); err != nil {
		errs = append(errs, fmt.Errorf("pa: close stream: %w", err))
	}

	if err := portaudio.Terminate(); err != nil {
		errs = append(errs, fmt.Errorf("pa: terminate: %w", err))
	}

	return errors.Join(errs...)
}
