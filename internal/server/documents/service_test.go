package documents

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/tillkeeper/internal/agent/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServiceWithMock(t *testing.T) (*Service, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return NewService(db), mock, db
}

func TestGetCollectionAppliesQuery(t *testing.T) {
	s, mock, db := newServiceWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "data"}).
		AddRow("o1", []byte(`{"status":"open","total":12.5}`)).
		AddRow("o2", []byte(`{"status":"closed","total":40.0}`)).
		AddRow("o3", []byte(`{"status":"open","total":7.0}`))

	mock.ExpectQuery(`(?s)^SELECT\s+id,\s*data\s+FROM\s+documents`).
		WithArgs("orders").
		WillReturnRows(rows)

	q := models.Query{
		Conditions: []models.Condition{{Field: "status", Op: models.OpEq, Value: "open"}},
		OrderBy:    &models.Order{Field: "total"},
	}
	records, err := s.GetCollection(context.Background(), "orders", q)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "o3", records[0].ID())
	assert.Equal(t, "o1", records[1].ID())
}

func TestAddDocumentGeneratesIDWhenAbsent(t *testing.T) {
	s, mock, db := newServiceWithMock(t)
	defer db.Close()

	mock.ExpectExec(`(?s)^INSERT\s+INTO\s+documents`).
		WithArgs("orders", sqlmock.AnyArg(), []byte(`{"status":"open"}`)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	id, err := s.AddDocument(context.Background(), "orders", models.Record{"status": "open"})
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAddDocumentKeepsClientID(t *testing.T) {
	s, mock, db := newServiceWithMock(t)
	defer db.Close()

	mock.ExpectExec(`(?s)^INSERT\s+INTO\s+documents`).
		WithArgs("orders", "client-id", []byte(`{"status":"open"}`)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	id, err := s.AddDocument(context.Background(), "orders", models.Record{"id": "client-id", "status": "open"})
	require.NoError(t, err)
	assert.Equal(t, "client-id", id)
}

func TestBatchWriteCommits(t *testing.T) {
	s, mock, db := newServiceWithMock(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`(?s)^INSERT\s+INTO\s+documents`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`(?s)^DELETE\s+FROM\s+documents`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	ops := []models.BatchOperation{
		{Kind: models.BatchSet, Collection: "tables", DocumentID: "t1", Payload: models.Record{"occupied": true}},
		{Kind: models.BatchDelete, Collection: "orders", DocumentID: "o1"},
	}
	require.NoError(t, s.BatchWrite(context.Background(), ops))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBatchWriteRollsBackOnFailure(t *testing.T) {
	s, mock, db := newServiceWithMock(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`(?s)^INSERT\s+INTO\s+documents`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`(?s)^UPDATE\s+documents`).
		WillReturnResult(sqlmock.NewResult(0, 0)) // target missing
	mock.ExpectRollback()

	ops := []models.BatchOperation{
		{Kind: models.BatchSet, Collection: "tables", DocumentID: "t1", Payload: models.Record{"occupied": true}},
		{Kind: models.BatchUpdate, Collection: "orders", DocumentID: "missing", Payload: models.Record{"status": "closed"}},
	}
	err := s.BatchWrite(context.Background(), ops)
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
