package ingest

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"insight-service/internal/apperr"
	"insight-service/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testService() *Service {
	return NewService(nil, config.IngestConfig{
		ChunkThresholdBytes: 256 * 1024,
		ChunkSizeRecords:    500,
	}, zap.NewNop())
}

func TestIngestRejectsMissingTenant(t *testing.T) {
	svc := testService()

	_, err := svc.Ingest(context.Background(), IngestRequest{
		ConnectorID: "square",
		DataType:    "orders",
		Records:     []Record{},
	})

	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.Configuration))
}

func TestIngestRejectsMissingConnector(t *testing.T) {
	svc := testService()

	_, err := svc.Ingest(context.Background(), IngestRequest{
		TenantID: 1,
		DataType: "orders",
		Records:  []Record{},
	})

	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.Validation))
}

func TestIngestRejectsMissingDataType(t *testing.T) {
	svc := testService()

	_, err := svc.Ingest(context.Background(), IngestRequest{
		TenantID:    1,
		ConnectorID: "square",
		Records:     []Record{},
	})

	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.Validation))
}

func TestIngestRejectsNilRecords(t *testing.T) {
	svc := testService()

	_, err := svc.Ingest(context.Background(), IngestRequest{
		TenantID:    1,
		ConnectorID: "square",
		DataType:    "orders",
	})

	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.Validation))
}

func TestSnapshotRejectsMissingTenant(t *testing.T) {
	svc := testService()

	_, _, err := svc.Snapshot(context.Background(), 0, "square", "orders")

	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.Configuration))
}

func TestStagingConflictClauseIsTenantScoped(t *testing.T) {
	cols := make([]string, 0, len(stagingConflict.Columns))
	for _, col := range stagingConflict.Columns {
		cols = append(cols, col.Name)
	}

	// Two tenants ingesting the same connector name with overlapping
	// upstream record ids must both reach the staging log; only a
	// tenant-scoped conflict target keeps them apart.
	assert.Equal(t, []string{"tenant_id", "source_id", "source_record_id"}, cols)
	assert.True(t, stagingConflict.DoNothing)
}

func TestSnapshotRowChunkedStaysValidJSON(t *testing.T) {
	req := IngestRequest{
		TenantID:    1,
		ConnectorID: "square",
		DataType:    "orders",
		Records:     []Record{{"id": "1", "total": 10.5}},
	}
	payload, err := json.Marshal(req.Records)
	require.NoError(t, err)
	syncedAt := time.Now().UTC()

	// The compact column is jsonb; a chunked marker row must hold a
	// valid JSON value, never the empty string.
	row := snapshotRow(req, payload, "{}", true, syncedAt)
	assert.True(t, row.Chunked)
	assert.Equal(t, "[]", row.Data)
	assert.True(t, json.Valid([]byte(row.Data)))
	assert.Equal(t, 1, row.RecordCount)

	row = snapshotRow(req, payload, "{}", false, syncedAt)
	assert.False(t, row.Chunked)
	assert.Equal(t, string(payload), row.Data)
}

func TestSourceRecordIDPrefersExplicitID(t *testing.T) {
	rec := Record{"id": "ord-123", "total": 10.5}
	payload, err := json.Marshal(rec)
	require.NoError(t, err)

	assert.Equal(t, "ord-123", sourceRecordID(rec, payload))
}

func TestSourceRecordIDNumericID(t *testing.T) {
	rec := Record{"record_id": 42}
	payload, err := json.Marshal(rec)
	require.NoError(t, err)

	assert.Equal(t, "42", sourceRecordID(rec, payload))
}

func TestSourceRecordIDFallsBackToPayloadHash(t *testing.T) {
	rec := Record{"total": 10.5, "customer": "amy"}
	payload, err := json.Marshal(rec)
	require.NoError(t, err)

	first := sourceRecordID(rec, payload)
	second := sourceRecordID(rec, payload)

	// The hash fallback keeps identical records idempotent on re-ingest.
	assert.Equal(t, first, second)
	assert.Len(t, first, 64)

	other, err := json.Marshal(Record{"total": 11.0, "customer": "amy"})
	require.NoError(t, err)
	assert.NotEqual(t, first, sourceRecordID(Record{"total": 11.0, "customer": "amy"}, other))
}
