package device

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"
	"go.uber.org/zap"

	"github.com/Raikerian/go-voicechat/internal/voice"
)

// inputClock is a malgo context; every capture device of a session lives in it.
type inputClock struct {
	logger     *zap.Logger
	ctx        *malgo.AllocatedContext
	sampleRate int

	closeOnce sync.Once
}

func openInputClock(logger *zap.Logger, sampleRate int) (*inputClock, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(msg string) {
		logger.Debug("malgo", zap.String("message", msg))
	})
	if err != nil {
		return nil, fmt.Errorf("failed to init audio context: %w", err)
	}
	return &inputClock{logger: logger, ctx: ctx, sampleRate: sampleRate}, nil
}

// OpenMicrophone initialises the default capture device as 32-bit float mono.
func (c *inputClock) OpenMicrophone(frameSize int, onFrame func([]float32)) (voice.Microphone, error) {
	cfg := malgo.DefaultDeviceConfig(malgo.Capture)
	cfg.Capture.Format = malgo.FormatF32
	cfg.Capture.Channels = 1
	cfg.SampleRate = uint32(c.sampleRate)
	cfg.Alsa.NoMMap = 1

	frames := newFramer(frameSize, onFrame)
	onRecv := func(_, pSample []byte, frameCount uint32) {
		if frameCount == 0 {
			return
		}
		frames.push(float32sFromLE(pSample, int(frameCount)))
	}

	device, err := malgo.InitDevice(c.ctx.Context, cfg, malgo.DeviceCallbacks{Data: onRecv})
	if err != nil {
		return nil, fmt.Errorf("failed to init microphone: %w", err)
	}
	return &microphone{device: device}, nil
}

// Close releases the malgo context. Idempotent.
func (c *inputClock) Close() error {
	var err error
	c.closeOnce.Do(func() {
		err = c.ctx.Uninit()
		c.ctx.Free()
	})
	return err
}

type microphone struct {
	mu      sync.Mutex
	device  *malgo.Device
	started bool
	stopped bool
}

func (m *microphone) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stopped {
		return errors.New("microphone already stopped")
	}
	if err := m.device.Start(); err != nil {
		return fmt.Errorf("failed to start microphone: %w", err)
	}
	m.started = true
	return nil
}

// Stop halts capture and releases the device. Safe to call without Start and
// more than once.
func (m *microphone) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stopped {
		return nil
	}
	m.stopped = true

	var err error
	if m.started {
		err = m.device.Stop()
	}
	m.device.Uninit()
	return err
}
