package transparency

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "trustgrid/pkg/domain"
	dErrors "trustgrid/pkg/domain-errors"
	"trustgrid/pkg/platform/sentinel"
)

func pendingEntry(userID id.UserID, orgID id.OrgID, requestedAt time.Time) Entry {
	return Entry{
		RequestID:       id.NewRequestID(),
		OrgID:           orgID,
		OrgName:         "Acme Lending",
		UserID:          userID,
		DataType:        "phone_number",
		Purpose:         "loan assessment",
		Status:          "pending",
		OracleRationale: "deferred to the citizen",
		RequestedAt:     requestedAt,
	}
}

func approved(entry Entry, at time.Time) Entry {
	entry.Status = "approved"
	entry.ApprovalMethod = "manual"
	entry.RespondedAt = &at
	return entry
}

func TestStoreUpsertIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	entry := pendingEntry(id.NewUserID(), id.NewOrgID(), time.Now())

	require.NoError(t, store.Upsert(ctx, entry))
	require.NoError(t, store.Upsert(ctx, entry))

	entries, err := store.ListByUser(ctx, entry.UserID, 10, 0)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestStoreTerminalRecordsAreImmutable(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	now := time.Now()
	entry := pendingEntry(id.NewUserID(), id.NewOrgID(), now)
	final := approved(entry, now.Add(time.Minute))

	require.NoError(t, store.Upsert(ctx, entry))
	require.NoError(t, store.Upsert(ctx, final))

	// Redelivering the identical terminal state is a no-op.
	require.NoError(t, store.Upsert(ctx, final))

	// Changing it is not.
	mutated := final
	mutated.Status = "denied"
	assert.ErrorIs(t, store.Upsert(ctx, mutated), sentinel.ErrInvalidState)

	// Reopening a decided request is not either.
	assert.ErrorIs(t, store.Upsert(ctx, entry), sentinel.ErrInvalidState)

	got, err := store.FindByRequestID(ctx, entry.RequestID)
	require.NoError(t, err)
	assert.Equal(t, "approved", got.Status)
}

func TestStoreListsNewestFirstWithPaging(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	userID := id.NewUserID()
	orgID := id.NewOrgID()
	base := time.Now()

	var ids []id.RequestID
	for i := 0; i < 5; i++ {
		entry := pendingEntry(userID, orgID, base.Add(time.Duration(i)*time.Minute))
		ids = append(ids, entry.RequestID)
		require.NoError(t, store.Upsert(ctx, entry))
	}

	page, err := store.ListByUser(ctx, userID, 2, 0)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, ids[4], page[0].RequestID)
	assert.Equal(t, ids[3], page[1].RequestID)

	page, err = store.ListByUser(ctx, userID, 2, 4)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, ids[0], page[0].RequestID)

	byOrg, err := store.ListByOrg(ctx, orgID, 0, 0)
	require.NoError(t, err)
	assert.Len(t, byOrg, 5)
}

func TestServiceTranslatesImmutabilityViolations(t *testing.T) {
	ctx := context.Background()
	service := New(NewInMemoryStore())
	now := time.Now()
	entry := pendingEntry(id.NewUserID(), id.NewOrgID(), now)

	require.NoError(t, service.AppendOrUpdate(ctx, entry))
	require.NoError(t, service.AppendOrUpdate(ctx, approved(entry, now.Add(time.Minute))))

	err := service.AppendOrUpdate(ctx, entry)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidTransition))
}

func TestServiceRejectsNilRequestID(t *testing.T) {
	service := New(NewInMemoryStore())
	err := service.AppendOrUpdate(context.Background(), Entry{Status: "pending"})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
}

// collectPublisher records everything published.
type collectPublisher struct {
	entries chan Entry
}

func (p *collectPublisher) Publish(_ context.Context, entry Entry) error {
	p.entries <- entry
	return nil
}

func TestFanoutMirrorsAcceptedUpserts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sink := &collectPublisher{entries: make(chan Entry, 8)}
	fanout := NewFanout(sink, 8, nil)
	go func() { _ = fanout.Run(ctx) }()

	service := New(NewInMemoryStore(), WithFanout(fanout))
	entry := pendingEntry(id.NewUserID(), id.NewOrgID(), time.Now())
	require.NoError(t, service.AppendOrUpdate(ctx, entry))

	select {
	case got := <-sink.entries:
		assert.Equal(t, entry.RequestID, got.RequestID)
	case <-time.After(2 * time.Second):
		t.Fatal("entry was never published")
	}
}
