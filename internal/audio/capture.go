package audio

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gordonklaus/portaudio"

	"github.com/liveinsight/companion/internal/metrics"
)

// frameMillis is the capture chunk size. 100ms keeps VAD latency low
// while staying far above scheduler jitter.
const frameMillis = 100

// Capture delivers timestamped audio frames from an input source.
// Start may be called once; the returned channel closes when the
// context is canceled or the device fails.
type Capture interface {
	Start(ctx context.Context) (<-chan Frame, error)
	Close() error
}

// DeviceCapture reads the default input device through PortAudio and
// resamples to the pipeline rate when the device runs at another one.
type DeviceCapture struct {
	mu         sync.Mutex
	stream     *portaudio.Stream
	in         []int16
	deviceRate int
	started    bool
	closed     bool
	done       chan struct{}
}

// OpenDevice initializes PortAudio and opens the default input stream
// at deviceRate (pass 0 for the pipeline rate).
func OpenDevice(deviceRate int) (*DeviceCapture, error) {
	if deviceRate <= 0 {
		deviceRate = SampleRate
	}
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("init portaudio: %w", err)
	}
	frameSize := deviceRate * frameMillis / 1000
	in := make([]int16, frameSize)
	stream, err := portaudio.OpenDefaultStream(1, 0, float64(deviceRate), frameSize, in)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("open input stream: %w", err)
	}
	return &DeviceCapture{stream: stream, in: in, deviceRate: deviceRate}, nil
}

// Start begins the read loop. Frames are dropped, not blocked on, if
// the consumer falls behind; capture latency must stay bounded no
// matter what downstream is doing.
func (d *DeviceCapture) Start(ctx context.Context) (<-chan Frame, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started {
		return nil, fmt.Errorf("capture already started")
	}
	if d.closed {
		return nil, fmt.Errorf("capture closed")
	}
	if err := d.stream.Start(); err != nil {
		return nil, fmt.Errorf("start input stream: %w", err)
	}
	d.started = true
	d.done = make(chan struct{})

	frames := make(chan Frame, 64)
	go func() {
		defer close(d.done)
		defer close(frames)
		for {
			if ctx.Err() != nil {
				return
			}
			if err := d.stream.Read(); err != nil {
				return
			}
			samples := FromInt16(d.in)
			if d.deviceRate != SampleRate {
				samples = Resample(samples, d.deviceRate, SampleRate)
			}
			f := NewFrame(samples, time.Now())
			metrics.FramesCaptured.Inc()
			select {
			case frames <- f:
			default:
				metrics.FramesDropped.Inc()
			}
		}
	}()
	return frames, nil
}

// Close stops the stream and tears down PortAudio. The read loop is
// joined first so no read is in flight while the stream closes.
func (d *DeviceCapture) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	if d.stream == nil {
		return nil
	}
	if d.started {
		d.stream.Stop()
		<-d.done
	}
	err := d.stream.Close()
	portaudio.Terminate()
	return err
}
