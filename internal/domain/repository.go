package domain

import "context"

// ContactRepository is the host-side source of contact snapshots and sink for merge results
type ContactRepository interface {
	List(ctx context.Context) ([]ContactRecord, error)
	Get(ctx context.Context, id string) (ContactRecord, error)
	Save(ctx context.Context, record ContactRecord) error
	Delete(ctx context.Context, ids ...string) error
}
