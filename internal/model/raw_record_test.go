package model

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStagingDedupeKeyIsTenantScoped(t *testing.T) {
	typ := reflect.TypeOf(RawConnectorRecord{})

	// Sources are tenant-owned, so the dedupe key must carry tenant_id;
	// a global (source_id, source_record_id) key would let one tenant's
	// rows swallow another's.
	for _, name := range []string{"TenantID", "SourceID", "SourceRecordID"} {
		field, ok := typ.FieldByName(name)
		require.True(t, ok, name)
		assert.Contains(t, field.Tag.Get("gorm"), "uniqueIndex:idx_raw_source_record", name)
	}
}
