package connection

import (
	"context"
	"sync"
)

// Provider scopes a Manager to the lifetime of a view: Mount connects and
// tracks status, Unmount tears everything down. Views reach it through
// the context.
type Provider struct {
	mgr *Manager

	mu        sync.Mutex
	status    Status
	unsub     func()
	observers map[uint64]func(StatusChange)
	nextID    uint64
}

// NewProvider wraps mgr.
func NewProvider(mgr *Manager) *Provider {
	return &Provider{
		mgr:       mgr,
		status:    mgr.Status(),
		observers: make(map[uint64]func(StatusChange)),
	}
}

// Manager returns the wrapped manager.
func (p *Provider) Manager() *Manager {
	return p.mgr
}

// Mount subscribes to status changes and starts connecting. Mounting an
// already mounted provider does nothing.
func (p *Provider) Mount(ctx context.Context) {
	p.mu.Lock()
	if p.unsub != nil {
		p.mu.Unlock()
		return
	}
	p.unsub = p.mgr.Subscribe(EventConnection, p.onConnection)
	p.mu.Unlock()

	p.mgr.Connect(ctx)
}

// Unmount unsubscribes and disconnects. Observers see a final
// disconnected status.
func (p *Provider) Unmount() {
	p.mu.Lock()
	unsub := p.unsub
	p.unsub = nil
	p.mu.Unlock()

	if unsub == nil {
		return
	}
	unsub()
	p.mgr.Disconnect()

	p.update(StatusChange{Status: StatusDisconnected})
}

// Status returns the last status the provider observed.
func (p *Provider) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// Subscribe registers handler for event on the underlying manager.
func (p *Provider) Subscribe(event string, handler Handler) func() {
	return p.mgr.Subscribe(event, handler)
}

// Send publishes payload under event.
func (p *Provider) Send(event string, payload any) error {
	return p.mgr.Send(event, payload)
}

// OnStatus registers fn for every status change the provider observes and
// returns a function that removes it.
func (p *Provider) OnStatus(fn func(StatusChange)) func() {
	p.mu.Lock()
	p.nextID++
	id := p.nextID
	p.observers[id] = fn
	p.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.observers, id)
			p.mu.Unlock()
		})
	}
}

func (p *Provider) onConnection(ev Event) {
	if sc, ok := ev.StatusChange(); ok {
		p.update(sc)
	}
}

func (p *Provider) update(sc StatusChange) {
	p.mu.Lock()
	if p.status == sc.Status {
		p.mu.Unlock()
		return
	}
	p.status = sc.Status
	observers := make([]func(StatusChange), 0, len(p.observers))
	for _, fn := range p.observers {
		observers = append(observers, fn)
	}
	p.mu.Unlock()

	for _, fn := range observers {
		fn(sc)
	}
}

type providerKey struct{}

// WithProvider returns a copy of ctx carrying p.
func WithProvider(ctx context.Context, p *Provider) context.Context {
	return context.WithValue(ctx, providerKey{}, p)
}

// Lookup returns the Provider carried by ctx, if any.
func Lookup(ctx context.Context) (*Provider, bool) {
	p, ok := ctx.Value(providerKey{}).(*Provider)
	return p, ok && p != nil
}

// FromContext returns the Provider carried by ctx. It panics when there is
// none; code that needs the realtime connection must run under WithProvider.
func FromContext(ctx context.Context) *Provider {
	p, ok := Lookup(ctx)
	if !ok {
		panic("connection: FromContext called without a Provider in the context")
	}
	return p
}
