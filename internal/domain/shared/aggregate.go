package shared

import (
	"time"

	"github.com/google/uuid"
)

// BaseEntity carries identity and audit timestamps
type BaseEntity struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// BaseAggregateRoot is a consistency boundary. Version starts at 1 and is
// bumped by every state change; repositories write it back with a
// compare-and-set on Version-1.
type BaseAggregateRoot struct {
	BaseEntity
	Version int

	pending []DomainEvent
}

// TenantAggregateRoot is an aggregate owned by exactly one tenant
type TenantAggregateRoot struct {
	BaseAggregateRoot
	TenantID  uuid.UUID
	CreatedBy *uuid.UUID
}

// NewTenantAggregateRoot stamps a fresh identity for tenantID.
// createdBy is optional; at most the first value is used.
func NewTenantAggregateRoot(tenantID uuid.UUID, createdBy ...uuid.UUID) TenantAggregateRoot {
	now := time.Now()
	root := TenantAggregateRoot{
		BaseAggregateRoot: BaseAggregateRoot{
			BaseEntity: BaseEntity{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
			Version:    1,
		},
		TenantID: tenantID,
	}
	if len(createdBy) > 0 && createdBy[0] != uuid.Nil {
		by := createdBy[0]
		root.CreatedBy = &by
	}
	return root
}

// Touch records a state change at now
func (a *BaseAggregateRoot) Touch(now time.Time) {
	a.UpdatedAt = now
	a.Version++
}

// GetVersion returns the aggregate version
func (a *BaseAggregateRoot) GetVersion() int {
	return a.Version
}

// AddDomainEvent queues an event for publication after commit
func (a *BaseAggregateRoot) AddDomainEvent(event DomainEvent) {
	a.pending = append(a.pending, event)
}

// GetDomainEvents returns the queued events
func (a *BaseAggregateRoot) GetDomainEvents() []DomainEvent {
	return a.pending
}

// ClearDomainEvents drops the queued events, normally once they are published
func (a *BaseAggregateRoot) ClearDomainEvents() {
	a.pending = nil
}
