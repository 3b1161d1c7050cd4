package plugin

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/ayusman/mudra/internal/predict"
)

// queueSize is how many pending runs the dispatcher holds before dropping.
const queueSize = 8

type job struct {
	plugin  *Plugin
	request *Request
}

// Dispatcher is a predict.Observer that runs the bound plugin actions for
// every recognized label. Runs happen one at a time on a background
// goroutine so OnResult never blocks the predictor.
type Dispatcher struct {
	executor *Executor
	bindings map[predict.Label][]resolved
	log      logrus.FieldLogger

	queue  chan job
	wg     sync.WaitGroup
	mu     sync.RWMutex
	closed bool
}

type resolved struct {
	binding Binding
	plugin  *Plugin
}

// NewDispatcher resolves every binding against m and starts the worker.
// Bindings naming an unknown plugin or an action the plugin does not list
// are rejected.
func NewDispatcher(m *Manager, e *Executor, bindings []Binding, log logrus.FieldLogger) (*Dispatcher, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}

	d := &Dispatcher{
		executor: e,
		bindings: make(map[predict.Label][]resolved),
		log:      log,
		queue:    make(chan job, queueSize),
	}

	for _, b := range bindings {
		p, err := m.Get(b.Plugin)
		if err != nil {
			return nil, fmt.Errorf("binding %s: %s: %w", b.Label, b.Plugin, err)
		}
		if !p.Manifest.Supports(b.Action) {
			return nil, fmt.Errorf("binding %s: plugin %s has no action %q", b.Label, b.Plugin, b.Action)
		}
		d.bindings[b.Label] = append(d.bindings[b.Label], resolved{binding: b, plugin: p})
	}

	d.wg.Add(1)
	go d.run()
	return d, nil
}

// OnResult queues the actions bound to e's label.
func (d *Dispatcher) OnResult(e predict.Event) {
	if !e.OK() {
		return
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return
	}

	for _, r := range d.bindings[e.Label] {
		req := &Request{
			Action:    r.binding.Action,
			Label:     e.Label.String(),
			RequestID: e.RequestID,
			Params:    r.binding.Params,
		}
		select {
		case d.queue <- job{plugin: r.plugin, request: req}:
		default:
			d.log.WithFields(logrus.Fields{
				"plugin": r.plugin.Manifest.Name,
				"action": req.Action,
			}).Warn("[plugin.Dispatcher] queue full, action dropped")
		}
	}
}

func (d *Dispatcher) run() {
	defer d.wg.Done()

	for j := range d.queue {
		entry := d.log.WithFields(logrus.Fields{
			"plugin": j.plugin.Manifest.Name,
			"action": j.request.Action,
			"label":  j.request.Label,
		})

		resp, err := d.executor.Execute(context.Background(), j.plugin, j.request)
		switch {
		case err != nil:
			entry.WithError(err).Warn("[plugin.Dispatcher] action failed")
		case !resp.Success:
			entry.WithField("error", resp.Error).Warn("[plugin.Dispatcher] action reported failure")
		default:
			entry.Debug("[plugin.Dispatcher] action done")
		}
	}
}

// Bound returns how many bindings are active.
func (d *Dispatcher) Bound() int {
	n := 0
	for _, rs := range d.bindings {
		n += len(rs)
	}
	return n
}

// Close stops accepting events and waits for queued actions to finish.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	d.wg.Wait()
}
