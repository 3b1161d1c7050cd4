// Package tray shows the watch loop state in the system tray.
package tray

import (
	"fmt"
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/mudra/internal/predict"
)

// Tray represents the system tray application. It implements
// predict.Observer so the menu tracks the most recent direction.
type Tray struct {
	onToggle func(enabled bool)
	onQuit   func()
	enabled  bool
	last     predict.Label
	counts   map[predict.Label]int
	mu       sync.RWMutex

	// Menu items stored for later updates
	menuToggle *systray.MenuItem
	menuLast   *systray.MenuItem
	menuCounts *systray.MenuItem
}

// New creates a new Tray instance with enabled state set to true by default.
func New() *Tray {
	return &Tray{
		enabled: true,
		counts:  make(map[predict.Label]int),
	}
}

// OnToggle sets the callback function to be called when the enabled state is toggled.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until Quit is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit removes the tray icon and makes Run return.
func (t *Tray) Quit() {
	systray.Quit()
}

// onReady is called when the system tray is ready.
// It sets up the menu structure.
func (t *Tray) onReady() {
	systray.SetTitle("Mudra")
	systray.SetTooltip("Mudra hand direction recognition")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.enabled), "Toggle direction recognition")
	systray.AddSeparator()

	t.menuLast = systray.AddMenuItem(lastTitle(t.last), "Last recognized direction")
	t.menuLast.Disable()
	t.menuCounts = systray.AddMenuItem(countsTitle(t.counts), "Directions recognized this session")
	t.menuCounts.Disable()
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit Mudra")
	toggle := t.menuToggle
	t.mu.Unlock()

	go func() {
		for {
			select {
			case <-toggle.ClickedCh:
				t.handleToggle()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func (t *Tray) onExit() {}

// handleToggle flips the enabled state and notifies the callback.
func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled

	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}

	callback := t.onToggle
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(enabled)
	}
}

// handleQuit handles the quit menu item click.
func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// OnResult records recognized directions. Absent results leave the last
// label in place.
func (t *Tray) OnResult(e predict.Event) {
	if !e.OK() {
		return
	}
	t.SetLastLabel(e.Label)
}

// SetLastLabel updates the last direction display in the menu.
func (t *Tray) SetLastLabel(label predict.Label) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.last = label
	if label != predict.LabelNone {
		t.counts[label]++
	}

	if t.menuLast != nil {
		t.menuLast.SetTitle(lastTitle(label))
	}
	if t.menuCounts != nil {
		t.menuCounts.SetTitle(countsTitle(t.counts))
	}
}

// LastLabel returns the most recent recognized direction.
func (t *Tray) LastLabel() predict.Label {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.last
}

// IsEnabled returns the current enabled state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

func toggleTitle(enabled bool) string {
	if enabled {
		return "● Enabled"
	}
	return "○ Disabled"
}

func lastTitle(label predict.Label) string {
	return "Last: " + label.String()
}

func countsTitle(counts map[predict.Label]int) string {
	return fmt.Sprintf("↑%d ↓%d ←%d →%d",
		counts[predict.Up], counts[predict.Down], counts[predict.Left], counts[predict.Right])
}
