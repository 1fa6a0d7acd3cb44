package datalayer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"slices"
	"sync"
	"time"

	"github.com/SscSPs/finance_sync/internal/apperrors"
	"github.com/SscSPs/finance_sync/internal/core/domain"
	portsrepo "github.com/SscSPs/finance_sync/internal/core/ports/repositories"
	"github.com/SscSPs/finance_sync/internal/middleware"
	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultCacheSize = 256

// OpKind is the kind of a queued write.
type OpKind string

const (
	OpCreate OpKind = "create"
	OpUpdate OpKind = "update"
	OpDelete OpKind = "delete"
)

// Operation is a write accepted while the repository was unreachable.
type Operation struct {
	ID       string
	Kind     OpKind
	Resource domain.ResourceType
	EntityID string
	Entity   domain.Entity
	QueuedAt time.Time
}

type cacheKey struct {
	resource domain.ResourceType
	id       string
	params   string
}

// OfflineDataLayer wraps a repository into a DataLayer. Writes that cannot reach the repository
// are queued and reported as offline results; the queue is replayed in order by
// SyncPendingOperations. Successful reads are cached until a write touches the resource.
type OfflineDataLayer struct {
	repo  portsrepo.ResourceRepository
	cache *lru.Cache[cacheKey, []domain.Entity]
	clock func() time.Time

	mu        sync.Mutex
	queue     []Operation
	online    bool
	lastSync  *time.Time
	callbacks []syncCallback
	nextCbID  int
	inFlight  string

	// syncMu serializes queue replay.
	syncMu sync.Mutex
}

// Option configures an OfflineDataLayer.
type Option func(*options)

type options struct {
	cacheSize int
	clock     func() time.Time
}

// WithCacheSize sets how many read results are cached.
func WithCacheSize(size int) Option {
	return func(o *options) {
		if size > 0 {
			o.cacheSize = size
		}
	}
}

// WithClock overrides the time source used for queue and sync timestamps.
func WithClock(clock func() time.Time) Option {
	return func(o *options) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// NewOfflineDataLayer wraps repo. The layer starts online with an empty queue.
func NewOfflineDataLayer(repo portsrepo.ResourceRepository, opts ...Option) (*OfflineDataLayer, error) {
	o := options{cacheSize: defaultCacheSize, clock: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	cache, err := lru.New[cacheKey, []domain.Entity](o.cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create read cache: %w", err)
	}
	return &OfflineDataLayer{
		repo:      repo,
		cache:     cache,
		clock:     o.clock,
		online:    true,
	}, nil
}

var _ portsrepo.DataLayer = (*OfflineDataLayer)(nil)

// Read returns the repository's view of the resource with every still-queued write of that
// resource applied on top, so a read never hides a write that was already reported as saved.
func (d *OfflineDataLayer) Read(ctx context.Context, resource domain.ResourceType, query domain.ReadQuery) ([]domain.Entity, error) {
	entities, err := d.readThrough(ctx, resource, query)
	if err != nil && (query.ID == "" || !errors.Is(err, apperrors.ErrNotFound)) {
		return nil, err
	}
	return d.overlay(resource, query, entities, err)
}

func (d *OfflineDataLayer) readThrough(ctx context.Context, resource domain.ResourceType, query domain.ReadQuery) ([]domain.Entity, error) {
	key := cacheKey{resource: resource, id: query.ID, params: encodeParams(query.Params)}
	if cached, ok := d.cache.Get(key); ok {
		return cloneAll(cached), nil
	}

	entities, err := d.repo.Read(ctx, resource, query)
	if err != nil {
		if apperrors.IsConnectivity(err) {
			d.setOnline(false)
		}
		return nil, err
	}
	d.markReachable()
	d.cache.Add(key, cloneAll(entities))
	return entities, nil
}

func (d *OfflineDataLayer) Create(ctx context.Context, resource domain.ResourceType, entity domain.Entity) (portsrepo.MutationResult, error) {
	if entity == nil {
		return portsrepo.MutationResult{}, fmt.Errorf("%w: missing %s payload", apperrors.ErrValidation, resource)
	}
	local := entity.Clone()
	if local.GetID() == "" {
		local.SetID(uuid.NewString())
	}

	if !d.shouldQueue() {
		stored, err := d.repo.Insert(ctx, resource, local)
		if err == nil {
			d.afterWrite(resource)
			return portsrepo.MutationResult{Entity: stored}, nil
		}
		if !apperrors.IsConnectivity(err) {
			return portsrepo.MutationResult{}, err
		}
		d.setOnline(false)
	}

	d.enqueue(ctx, Operation{Kind: OpCreate, Resource: resource, EntityID: local.GetID(), Entity: local.Clone()})
	d.InvalidateCache(resource, "")
	return portsrepo.MutationResult{Entity: local, Offline: true}, nil
}

func (d *OfflineDataLayer) Update(ctx context.Context, resource domain.ResourceType, id string, entity domain.Entity) (portsrepo.MutationResult, error) {
	if entity == nil {
		return portsrepo.MutationResult{}, fmt.Errorf("%w: missing %s payload", apperrors.ErrValidation, resource)
	}
	local := entity.Clone()
	local.SetID(id)

	if !d.shouldQueue() {
		stored, err := d.repo.Replace(ctx, resource, id, local)
		if err == nil {
			d.afterWrite(resource)
			return portsrepo.MutationResult{Entity: stored}, nil
		}
		if !apperrors.IsConnectivity(err) {
			return portsrepo.MutationResult{}, err
		}
		d.setOnline(false)
	}

	d.enqueue(ctx, Operation{Kind: OpUpdate, Resource: resource, EntityID: id, Entity: local.Clone()})
	d.InvalidateCache(resource, "")
	return portsrepo.MutationResult{Entity: local, Offline: true}, nil
}

func (d *OfflineDataLayer) Delete(ctx context.Context, resource domain.ResourceType, id string) (portsrepo.MutationResult, error) {
	if !d.shouldQueue() {
		err := d.repo.Remove(ctx, resource, id)
		if err == nil {
			d.afterWrite(resource)
			return portsrepo.MutationResult{}, nil
		}
		if !apperrors.IsConnectivity(err) {
			return portsrepo.MutationResult{}, err
		}
		d.setOnline(false)
	}

	d.enqueue(ctx, Operation{Kind: OpDelete, Resource: resource, EntityID: id})
	d.InvalidateCache(resource, "")
	return portsrepo.MutationResult{Offline: true}, nil
}

// GetSyncStatus returns connectivity, queued operation count and the last successful sync.
func (d *OfflineDataLayer) GetSyncStatus() domain.SyncStatus {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.statusLocked()
}

type syncCallback struct {
	id int
	fn func(domain.SyncStatus)
}

// OnSyncComplete registers a callback fired after every sync attempt. Callbacks run in
// registration order.
func (d *OfflineDataLayer) OnSyncComplete(callback func(domain.SyncStatus)) func() {
	d.mu.Lock()
	defer d.mu.Unlock()
	id := d.nextCbID
	d.nextCbID++
	d.callbacks = append(d.callbacks, syncCallback{id: id, fn: callback})
	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.callbacks = slices.DeleteFunc(d.callbacks, func(cb syncCallback) bool { return cb.id == id })
	}
}

// SyncPendingOperations replays the queue in order. A connectivity failure stops the replay and
// leaves the failed operation and everything after it queued. Any other failure drops that
// operation; those failures are returned together once the replay finishes.
func (d *OfflineDataLayer) SyncPendingOperations(ctx context.Context) error {
	d.syncMu.Lock()
	defer d.syncMu.Unlock()

	logger := middleware.GetLoggerFromCtx(ctx)
	err := d.replay(ctx, logger)
	d.fireSyncComplete()
	return err
}

func (d *OfflineDataLayer) replay(ctx context.Context, logger *slog.Logger) error {
	d.mu.Lock()
	pending := make([]Operation, len(d.queue))
	copy(pending, d.queue)
	d.mu.Unlock()

	if len(pending) == 0 {
		if err := d.repo.Ping(ctx); err != nil {
			if apperrors.IsConnectivity(err) {
				d.setOnline(false)
			}
			return err
		}
		d.markSynced()
		return nil
	}

	var result *multierror.Error
	for _, snapshot := range pending {
		op, ok := d.claim(snapshot.ID)
		if !ok {
			continue
		}
		err := d.apply(ctx, op)
		if err != nil && apperrors.IsConnectivity(err) {
			d.setOnline(false)
			logger.InfoContext(ctx, "Replay stopped, data store unreachable",
				slog.String("operation_id", op.ID),
				slog.String("resource", string(op.Resource)))
			d.release()
			result = multierror.Append(result, err)
			return result.ErrorOrNil()
		}
		if err != nil {
			logger.ErrorContext(ctx, "Dropping queued operation that cannot be applied",
				slog.String("operation_id", op.ID),
				slog.String("kind", string(op.Kind)),
				slog.String("resource", string(op.Resource)),
				slog.String("entity_id", op.EntityID),
				slog.String("error", err.Error()))
			result = multierror.Append(result, fmt.Errorf("%s %s %s: %w", op.Kind, op.Resource, op.EntityID, err))
		}
		d.dequeue(op.ID)
		d.InvalidateCache(op.Resource, "")
	}

	d.markSynced()
	logger.InfoContext(ctx, "Replayed queued operations", slog.Int("count", len(pending)))
	return result.ErrorOrNil()
}

// apply performs one queued operation. A create whose id already exists, or a delete whose
// entity is already gone, was delivered by an earlier attempt and counts as applied.
func (d *OfflineDataLayer) apply(ctx context.Context, op Operation) error {
	switch op.Kind {
	case OpCreate:
		_, err := d.repo.Insert(ctx, op.Resource, op.Entity)
		if errors.Is(err, apperrors.ErrDuplicate) {
			return nil
		}
		return err
	case OpUpdate:
		_, err := d.repo.Replace(ctx, op.Resource, op.EntityID, op.Entity)
		return err
	case OpDelete:
		err := d.repo.Remove(ctx, op.Resource, op.EntityID)
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil
		}
		return err
	}
	return fmt.Errorf("unknown operation kind %q", op.Kind)
}

// ForceSyncAll flushes the queue and drops every cached read, whether or not the flush succeeded.
func (d *OfflineDataLayer) ForceSyncAll(ctx context.Context) error {
	err := d.SyncPendingOperations(ctx)
	d.cache.Purge()
	return err
}

// InvalidateCache drops cached reads of resource. With an id it keeps cached reads of other ids.
func (d *OfflineDataLayer) InvalidateCache(resource domain.ResourceType, id string) {
	for _, key := range d.cache.Keys() {
		if key.resource != resource {
			continue
		}
		if id == "" || key.id == "" || key.id == id {
			d.cache.Remove(key)
		}
	}
}

// SetOnline records a platform connectivity event.
func (d *OfflineDataLayer) SetOnline(online bool) {
	d.setOnline(online)
}

// Pending returns a copy of the queued operations in replay order.
func (d *OfflineDataLayer) Pending() []Operation {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Operation, len(d.queue))
	copy(out, d.queue)
	return out
}

// Ping checks the wrapped repository.
func (d *OfflineDataLayer) Ping(ctx context.Context) error {
	return d.repo.Ping(ctx)
}

// shouldQueue keeps writes in order: once anything is queued, later writes queue behind it.
func (d *OfflineDataLayer) shouldQueue() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return !d.online || len(d.queue) > 0
}

// enqueue appends op, folding it into a queued create of the same entity where possible.
func (d *OfflineDataLayer) enqueue(ctx context.Context, op Operation) {
	op.ID = uuid.NewString()
	op.QueuedAt = d.clock()

	d.mu.Lock()
	folded := d.foldLocked(op)
	if !folded {
		d.queue = append(d.queue, op)
	}
	size := len(d.queue)
	d.mu.Unlock()

	middleware.GetLoggerFromCtx(ctx).InfoContext(ctx, "Queued operation while offline",
		slog.String("operation_id", op.ID),
		slog.String("kind", string(op.Kind)),
		slog.String("resource", string(op.Resource)),
		slog.String("entity_id", op.EntityID),
		slog.Bool("folded", folded),
		slog.Int("queue_size", size))
}

// foldLocked merges an update into a queued create, or cancels a queued create and its updates
// when the entity is deleted before it was ever delivered.
func (d *OfflineDataLayer) foldLocked(op Operation) bool {
	createIdx := -1
	for i, queued := range d.queue {
		if queued.ID != d.inFlight && queued.Resource == op.Resource && queued.EntityID == op.EntityID && queued.Kind == OpCreate {
			createIdx = i
		}
	}
	if createIdx < 0 {
		return false
	}

	switch op.Kind {
	case OpUpdate:
		d.queue[createIdx].Entity = op.Entity
		return true
	case OpDelete:
		kept := d.queue[:0]
		for _, queued := range d.queue {
			if queued.Resource == op.Resource && queued.EntityID == op.EntityID {
				continue
			}
			kept = append(kept, queued)
		}
		d.queue = kept
		return true
	}
	return false
}

// claim marks a queued operation as being applied so nothing folds into it and returns its
// current form. It reports false when the operation was cancelled after the replay started.
func (d *OfflineDataLayer) claim(id string) (Operation, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, op := range d.queue {
		if op.ID == id {
			d.inFlight = id
			return op, true
		}
	}
	return Operation{}, false
}

func (d *OfflineDataLayer) release() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.inFlight = ""
}

func (d *OfflineDataLayer) dequeue(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.inFlight = ""
	for i, op := range d.queue {
		if op.ID == id {
			d.queue = append(d.queue[:i], d.queue[i+1:]...)
			return
		}
	}
}

func (d *OfflineDataLayer) afterWrite(resource domain.ResourceType) {
	d.markReachable()
	d.InvalidateCache(resource, "")
}

func (d *OfflineDataLayer) setOnline(online bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.online = online
}

// markReachable flips the layer back online after a direct call succeeded.
func (d *OfflineDataLayer) markReachable() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.online = true
}

func (d *OfflineDataLayer) markSynced() {
	now := d.clock()
	d.mu.Lock()
	defer d.mu.Unlock()
	d.online = true
	d.lastSync = &now
}

func (d *OfflineDataLayer) statusLocked() domain.SyncStatus {
	status := domain.SyncStatus{IsOnline: d.online, PendingOperations: len(d.queue)}
	if d.lastSync != nil {
		ts := *d.lastSync
		status.LastSync = &ts
	}
	return status
}

func (d *OfflineDataLayer) fireSyncComplete() {
	d.mu.Lock()
	status := d.statusLocked()
	callbacks := make([]func(domain.SyncStatus), 0, len(d.callbacks))
	for _, cb := range d.callbacks {
		callbacks = append(callbacks, cb.fn)
	}
	d.mu.Unlock()

	for _, cb := range callbacks {
		cb(status)
	}
}

func encodeParams(params map[string]string) string {
	if len(params) == 0 {
		return ""
	}
	values := make(url.Values, len(params))
	for k, v := range params {
		values.Set(k, v)
	}
	return values.Encode()
}

func cloneAll(in []domain.Entity) []domain.Entity {
	out := make([]domain.Entity, len(in))
	for i, e := range in {
		out[i] = e.Clone()
	}
	return out
}
