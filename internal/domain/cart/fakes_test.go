package cart

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/your-org/storefront-backend/internal/domain/product"
	"github.com/your-org/storefront-backend/internal/domain/session"
	"github.com/your-org/storefront-backend/internal/pkg/errs"
	"github.com/your-org/storefront-backend/internal/pkg/notify"
)

type memoryRepository struct {
	mu      sync.Mutex
	docs    map[uint]*Document
	loadErr error
	saveErr error
	saves   int

	// beforeSave runs ahead of every write, outside the lock
	beforeSave func()
	// afterLoad runs once a read has taken its copy, outside the lock
	afterLoad func()
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{docs: make(map[uint]*Document)}
}

func (m *memoryRepository) Load(_ context.Context, userID uint) (*Document, error) {
	doc, err := m.read(userID)
	if hook := m.afterLoad; hook != nil {
		hook()
	}
	return doc, err
}

func (m *memoryRepository) read(userID uint) (*Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	doc, ok := m.docs[userID]
	if !ok {
		return nil, errs.NotFound("cart")
	}
	return doc.Clone(), nil
}

func (m *memoryRepository) Save(_ context.Context, doc *Document) error {
	if m.beforeSave != nil {
		m.beforeSave()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	var stored int64
	if current, ok := m.docs[doc.UserID]; ok {
		stored = current.Version
	}
	if stored != doc.Version {
		return errs.Wrap(errs.ErrPersistence, "save cart", errs.ErrConflict)
	}
	doc.Version++
	m.docs[doc.UserID] = doc.Clone()
	m.saves++
	return nil
}

func (m *memoryRepository) AddToWishlist(_ context.Context, userID uint, productID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[userID]
	if !ok {
		doc = &Document{UserID: userID}
		m.docs[userID] = doc
	}
	if !slices.Contains(doc.Wishlist, productID) {
		doc.Wishlist = append(doc.Wishlist, productID)
	}
	doc.Version++
	return nil
}

func (m *memoryRepository) RemoveFromWishlist(_ context.Context, userID uint, productID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if doc, ok := m.docs[userID]; ok {
		doc.Wishlist = slices.DeleteFunc(doc.Wishlist, func(id uint) bool { return id == productID })
		doc.Version++
	}
	return nil
}

func (m *memoryRepository) bump(userID uint) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[userID].Version++
}

func (m *memoryRepository) stored(userID uint) *Document {
	m.mu.Lock()
	defer m.mu.Unlock()
	if doc, ok := m.docs[userID]; ok {
		return doc.Clone()
	}
	return nil
}

type memoryCache struct {
	mu      sync.Mutex
	docs    map[uint]*Document
	deletes []uint
}

func newMemoryCache() *memoryCache {
	return &memoryCache{docs: make(map[uint]*Document)}
}

func (c *memoryCache) Get(_ context.Context, userID uint) (*Document, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	doc, ok := c.docs[userID]
	if !ok {
		return nil, ErrCacheMiss
	}
	return doc.Clone(), nil
}

func (c *memoryCache) Set(_ context.Context, userID uint, doc *Document) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if current, ok := c.docs[userID]; ok && current.Version > doc.Version {
		return nil
	}
	c.docs[userID] = doc.Clone()
	return nil
}

func (c *memoryCache) Delete(_ context.Context, userID uint) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.docs, userID)
	c.deletes = append(c.deletes, userID)
	return nil
}

func (c *memoryCache) version(userID uint) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if doc, ok := c.docs[userID]; ok {
		return doc.Version
	}
	return -1
}

func (c *memoryCache) has(userID uint) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.docs[userID]
	return ok
}

type memoryCatalog struct {
	mu       sync.Mutex
	products map[uint]*product.Product
	err      error
	lookups  []uint
}

func newMemoryCatalog(products ...*product.Product) *memoryCatalog {
	c := &memoryCatalog{products: make(map[uint]*product.Product)}
	for _, p := range products {
		c.products[p.ID] = p
	}
	return c
}

func (c *memoryCatalog) GetProduct(_ context.Context, id uint) (*product.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lookups = append(c.lookups, id)
	if c.err != nil {
		return nil, c.err
	}
	p, ok := c.products[id]
	if !ok {
		return nil, errs.NotFound("product")
	}
	clone := *p
	return &clone, nil
}

func (c *memoryCatalog) remove(id uint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.products, id)
}

type sentNotification struct {
	recipient uint
	level     notify.Level
	message   string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
}

func (r *recordingNotifier) Notify(_ context.Context, recipient uint, level notify.Level, message, _ string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, sentNotification{recipient: recipient, level: level, message: message})
}

func (r *recordingNotifier) Clear(context.Context, uint) {}

func (r *recordingNotifier) levels() []notify.Level {
	r.mu.Lock()
	defer r.mu.Unlock()
	levels := make([]notify.Level, 0, len(r.sent))
	for _, n := range r.sent {
		levels = append(levels, n.level)
	}
	return levels
}

func (r *recordingNotifier) last() sentNotification {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.sent) == 0 {
		return sentNotification{}
	}
	return r.sent[len(r.sent)-1]
}

func (r *recordingNotifier) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = nil
}

type fakeSessions struct {
	mu        sync.Mutex
	listeners map[int]session.Listener
	next      int
}

func (f *fakeSessions) Subscribe(l session.Listener) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listeners == nil {
		f.listeners = make(map[int]session.Listener)
	}
	f.next++
	id := f.next
	f.listeners[id] = l
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.listeners, id)
	}
}

func (f *fakeSessions) emit(ctx context.Context, t session.Transition) {
	f.mu.Lock()
	listeners := slices.Collect(maps.Values(f.listeners))
	f.mu.Unlock()
	for _, l := range listeners {
		l(ctx, t)
	}
}

func (f *fakeSessions) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.listeners)
}
