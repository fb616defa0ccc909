package broker

import "sync"

// resourceDescriptor is the per-resource record the table maintains. It is
// never exposed directly to callers; mutation happens only through the
// table's own methods (and, for adapter invocations, entirely outside any
// lock).
type resourceDescriptor struct {
	id    ResourceId
	state CameraState
	owner OwnerToken

	// excl is the immediate-acquire exclusion primitive: TryLock never
	// blocks, so Acquire can fail fast on contention instead of queuing.
	excl sync.Mutex

	adapter Adapter
}

// ResourceSnapshot is a read-only copy of one descriptor's externally
// visible fields, used by status surfaces that need a coherent view
// without holding the table lock themselves.
type ResourceSnapshot struct {
	ID    ResourceId
	State CameraState
	Owner OwnerToken
}

// ResourceTable is the registry of resources with single-owner admission
// control and coherent state reads. A single process-wide read/write
// exclusion guards the owner and state fields of every descriptor;
// read-only queries take the shared mode, owner/state mutations take the
// exclusive mode. Adapter invocations never execute under this lock.
type ResourceTable struct {
	mu          sync.RWMutex
	descriptors map[ResourceId]*resourceDescriptor
}

// NewResourceTable builds an empty table.
func NewResourceTable() *ResourceTable {
	return &ResourceTable{
		descriptors: make(map[ResourceId]*resourceDescriptor),
	}
}

// Ensure idempotently inserts-or-gets a descriptor at state Uninitialized
// with no owner.
func (t *ResourceTable) Ensure(id ResourceId) {
	t.mu.RLock()
	_, ok := t.descriptors[id]
	t.mu.RUnlock()
	if ok {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.descriptors[id]; !ok {
		t.descriptors[id] = &resourceDescriptor{id: id, state: StateUninitialized}
	}
}

// ensureLocked returns the descriptor for id, creating it if absent. Callers
// must already hold t.mu in either mode; since creation needs the write
// lock, ensureLocked is only safe to call while holding the write lock.
func (t *ResourceTable) ensureLocked(id ResourceId) *resourceDescriptor {
	d, ok := t.descriptors[id]
	if !ok {
		d = &resourceDescriptor{id: id, state: StateUninitialized}
		t.descriptors[id] = d
	}
	return d
}

// Acquire attempts to become the single owner of id. The protocol is
// two-phase: first the descriptor's exclusion primitive is try-acquired
// (never blocks); only then, under the table's exclusive mode, is the
// owner field actually checked and set. This closes the race in which the
// primitive is won but another writer has already recorded an owner.
func (t *ResourceTable) Acquire(id ResourceId, token OwnerToken) *Error {
	t.mu.Lock()
	d := t.ensureLocked(id)

	if !d.excl.TryLock() {
		t.mu.Unlock()
		return ownershipError("Acquire", id.String())
	}

	if !d.owner.IsZero() {
		d.excl.Unlock()
		t.mu.Unlock()
		return ownershipError("Acquire", id.String())
	}

	d.owner = token
	t.mu.Unlock()
	return nil
}

// Release clears ownership of id if token is the current owner, returning
// true on success. Non-owners cannot unlock: calling Release with any
// other token (or on an unowned resource) leaves the owner unchanged and
// returns false.
func (t *ResourceTable) Release(id ResourceId, token OwnerToken) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	d, ok := t.descriptors[id]
	if !ok {
		return false
	}
	if d.owner.IsZero() || !d.owner.Equal(token) {
		return false
	}

	d.owner = OwnerToken{}
	d.excl.Unlock()
	return true
}

// ReleaseAll forcibly clears ownership and releases the exclusion
// primitive for every descriptor, regardless of current owner. Unlike
// Release, this does not require the caller to present the owning token;
// it exists for the host façade's shutdown path, where every outstanding
// owner's claim must be revoked so the process can exit without leaving
// any descriptor's excl primitive locked.
func (t *ResourceTable) ReleaseAll() {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, d := range t.descriptors {
		if d.owner.IsZero() {
			continue
		}
		d.owner = OwnerToken{}
		d.excl.Unlock()
	}
}

// SetState unconditionally writes next as id's state. The state machine is
// the gatekeeper for transitions; this primitive is unchecked by design.
func (t *ResourceTable) SetState(id ResourceId, next CameraState) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ensureLocked(id).state = next
}

// GetState returns id's current state under the shared mode. Unknown ids
// report StateUninitialized.
func (t *ResourceTable) GetState(id ResourceId) CameraState {
	t.mu.RLock()
	defer t.mu.RUnlock()
	d, ok := t.descriptors[id]
	if !ok {
		return StateUninitialized
	}
	return d.state
}

// CurrentOwner returns id's current owner token and whether one is set.
func (t *ResourceTable) CurrentOwner(id ResourceId) (OwnerToken, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	d, ok := t.descriptors[id]
	if !ok || d.owner.IsZero() {
		return OwnerToken{}, false
	}
	return d.owner, true
}

// RegisterAdapter binds adapter to id's descriptor. Exactly-once in
// production; re-binding is permitted here for tests.
func (t *ResourceTable) RegisterAdapter(id ResourceId, adapter Adapter) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ensureLocked(id).adapter = adapter
}

// adapterFor returns id's bound adapter, or nil if none is registered.
func (t *ResourceTable) adapterFor(id ResourceId) Adapter {
	t.mu.RLock()
	defer t.mu.RUnlock()
	d, ok := t.descriptors[id]
	if !ok {
		return nil
	}
	return d.adapter
}

// withWriteLock runs fn against id's descriptor under the table's
// exclusive mode, creating the descriptor first if absent. It is the sole
// seam StateMachine uses to make ownership-check + transition + commit one
// critical section.
func (t *ResourceTable) withWriteLock(id ResourceId, fn func(d *resourceDescriptor) *Error) *Error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return fn(t.ensureLocked(id))
}

// Snapshot returns a coherent point-in-time copy of every registered
// descriptor's externally visible fields, for status surfaces.
func (t *ResourceTable) Snapshot() []ResourceSnapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]ResourceSnapshot, 0, len(t.descriptors))
	for id, d := range t.descriptors {
		out = append(out, ResourceSnapshot{ID: id, State: d.state, Owner: d.owner})
	}
	return out
}
