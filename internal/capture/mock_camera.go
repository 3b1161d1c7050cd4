package capture

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockCamera produces blank frames of a fixed size for tests. A limit of
// zero means unlimited.
type MockCamera struct {
	mu      sync.Mutex
	limit   int
	served  int
	running bool
	fps     int
}

// NewMockCamera returns a MockCamera that serves limit frames.
func NewMockCamera(limit int) *MockCamera {
	return &MockCamera{limit: limit, fps: DefaultFPS}
}

func (c *MockCamera) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = true
	return nil
}

func (c *MockCamera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = false
	return nil
}

func (c *MockCamera) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return nil, ErrCameraNotOpen
	}
	if c.limit > 0 && c.served >= c.limit {
		return nil, ErrNoFrame
	}

	c.served++
	frame := gocv.NewMatWithSize(DefaultHeight, DefaultWidth, gocv.MatTypeCV8UC3)
	return &frame, nil
}

func (c *MockCamera) SetFPS(fps int) {
	if fps <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fps = fps
}

func (c *MockCamera) FPS() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fps
}

func (c *MockCamera) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Served returns how many frames have been handed out.
func (c *MockCamera) Served() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.served
}
