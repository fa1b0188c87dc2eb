package store

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/tillkeeper/internal/agent/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockStoreCRUD(t *testing.T) {
	ctx := context.Background()
	m := NewMockStore(SampleData())

	// Add generates an id when absent.
	id, err := m.AddDocument(ctx, "orders", models.Record{"table_id": "t1", "status": "open", "total": 0.0})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	doc, err := m.GetDocument(ctx, "orders", id)
	require.NoError(t, err)
	assert.Equal(t, "t1", doc["table_id"])

	// Update merges fields.
	require.NoError(t, m.UpdateDocument(ctx, "orders", id, models.Record{"total": 12.5}))
	doc, err = m.GetDocument(ctx, "orders", id)
	require.NoError(t, err)
	assert.Equal(t, 12.5, doc["total"])
	assert.Equal(t, "open", doc["status"], "update must not drop other fields")

	// Upsert replaces the document.
	require.NoError(t, m.UpsertDocument(ctx, "orders", id, models.Record{"status": "closed"}))
	doc, err = m.GetDocument(ctx, "orders", id)
	require.NoError(t, err)
	assert.Equal(t, "closed", doc["status"])
	assert.Nil(t, doc["table_id"])

	require.NoError(t, m.DeleteDocument(ctx, "orders", id))
	_, err = m.GetDocument(ctx, "orders", id)
	assert.True(t, IsNotFound(err))

	// Deleting again is a no-op, matching the server's delete semantics.
	require.NoError(t, m.DeleteDocument(ctx, "orders", id))
}

func TestMockStoreQueries(t *testing.T) {
	ctx := context.Background()
	m := NewMockStore(SampleData())

	q := models.Query{
		Conditions: []models.Condition{{Field: "category", Op: models.OpEq, Value: "pizza"}},
		OrderBy:    &models.Order{Field: "price", Desc: true},
	}
	records, err := m.GetCollection(ctx, "menu_items", q)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "m2", records[0].ID())
}

func TestMockStoreSubscribe(t *testing.T) {
	ctx := context.Background()
	m := NewMockStore(nil)

	var snapshots [][]models.Record
	cancel, err := m.Subscribe(ctx, "orders", models.Query{}, func(rs []models.Record) {
		snapshots = append(snapshots, rs)
	}, func(error) {})
	require.NoError(t, err)

	// Initial snapshot is delivered immediately.
	require.Len(t, snapshots, 1)
	assert.Empty(t, snapshots[0])

	_, err = m.AddDocument(ctx, "orders", models.Record{"id": "o1", "status": "open"})
	require.NoError(t, err)
	require.Len(t, snapshots, 2)
	assert.Equal(t, "o1", snapshots[1][0].ID())

	cancel()
	_, err = m.AddDocument(ctx, "orders", models.Record{"id": "o2"})
	require.NoError(t, err)
	assert.Len(t, snapshots, 2, "no delivery after cancel")
}

func TestMockStoreForcedError(t *testing.T) {
	ctx := context.Background()
	m := NewMockStore(nil)
	forced := NewError(CodeUnavailable, "backend down")
	m.SetError(forced)

	_, err := m.GetCollection(ctx, "orders", models.Query{})
	assert.ErrorIs(t, err, forced)
	_, err = m.AddDocument(ctx, "orders", models.Record{})
	assert.ErrorIs(t, err, forced)
	assert.ErrorIs(t, m.Ping(ctx), forced)

	m.SetError(nil)
	assert.NoError(t, m.Ping(ctx))
}

func TestMockStoreBatchWrite(t *testing.T) {
	ctx := context.Background()
	m := NewMockStore(nil)

	ops := []models.BatchOperation{
		{Kind: models.BatchSet, Collection: "tables", DocumentID: "t1", Payload: models.Record{"occupied": true}},
		{Kind: models.BatchSet, Collection: "tables", DocumentID: "t2", Payload: models.Record{"occupied": false}},
		{Kind: models.BatchUpdate, Collection: "tables", DocumentID: "t1", Payload: models.Record{"seats": 4.0}},
		{Kind: models.BatchDelete, Collection: "tables", DocumentID: "t2"},
	}
	require.NoError(t, m.BatchWrite(ctx, ops))

	records, err := m.GetCollection(ctx, "tables", models.Query{})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, true, records[0]["occupied"])
	assert.Equal(t, 4.0, records[0]["seats"])
}
