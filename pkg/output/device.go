package output

import (
	"context"
	"fmt"
	"time"

	"github.com/hajimehoshi/oto/v2"

	"github.com/justyntemme/cityaudio/pkg/framework/debug"
)

// Config describes the device stream.
type Config struct {
	SampleRate int           `json:"sample_rate"`
	Block      int           `json:"block"`   // frames rendered per pass
	Latency    time.Duration `json:"latency"` // player buffer, 0 = driver default
}

// DefaultConfig returns a 48 kHz stream with a short buffer.
func DefaultConfig() Config {
	return Config{SampleRate: 48000, Block: 512, Latency: 40 * time.Millisecond}
}

// Device plays a Renderer through the system's default output.
type Device struct {
	ctx    *oto.Context
	player oto.Player
	reader *Reader
	log    *debug.Logger
}

// Open creates the device context, waits until it is ready or ctx ends,
// and prepares a paused player pulling from r.
func Open(ctx context.Context, r Renderer, cfg Config, log *debug.Logger) (*Device, error) {
	log = debug.Or(log)
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = DefaultConfig().SampleRate
	}
	octx, ready, err := oto.NewContext(cfg.SampleRate, 2, oto.FormatFloat32LE)
	if err != nil {
		return nil, fmt.Errorf("output: opening device: %w", err)
	}
	select {
	case <-ready:
	case <-ctx.Done():
		return nil, fmt.Errorf("output: waiting for device: %w", ctx.Err())
	}

	d := &Device{ctx: octx, reader: NewReader(r, cfg.Block), log: log}
	d.player = octx.NewPlayer(d.reader)
	if cfg.Latency > 0 {
		if s, ok := d.player.(interface{ SetBufferSize(int) }); ok {
			frames := int(cfg.Latency.Seconds() * float64(cfg.SampleRate))
			s.SetBufferSize(frames * bytesPerFrame)
		}
	}
	log.Info("output open: %d Hz stereo float32, block %d", cfg.SampleRate, cfg.Block)
	return d, nil
}

// Start begins playback.
func (d *Device) Start() {
	d.player.Play()
}

// Err reports a playback error, if any.
func (d *Device) Err() error {
	if err := d.player.Err(); err != nil {
		return err
	}
	return d.ctx.Err()
}

// Close stops playback and releases the player.
func (d *Device) Close() error {
	d.player.Pause()
	if err := d.player.Close(); err != nil {
		return fmt.Errorf("output: closing player: %w", err)
	}
	return nil
}
