package database

import (
	"context"
	"fmt"
	"strconv"

	"gorm.io/gorm"
)

// Tables carrying a tenant_id column that must be isolated per session.
var tenantScopedTables = []string{
	"users",
	"workspaces",
	"connector_data",
	"connector_data_chunks",
	"raw_connector_records",
	"business_metrics",
	"forecasts",
	"optimization_runs",
	"data_quality_alerts",
}

// SetupRLS enables row-level security on every tenant-scoped table and
// installs an isolation policy keyed on the app.current_tenant session
// setting. The second argument to current_setting makes a missing
// setting yield NULL, so a session with no tenant context matches
// nothing on both read and write (fail closed). The bypass arm exists
// for administrative bulk jobs only; see WithBypass.
func SetupRLS(db *gorm.DB) error {
	for _, table := range tenantScopedTables {
		stmts := []string{
			fmt.Sprintf("ALTER TABLE %s ENABLE ROW LEVEL SECURITY", table),
			fmt.Sprintf("ALTER TABLE %s FORCE ROW LEVEL SECURITY", table),
			fmt.Sprintf("DROP POLICY IF EXISTS tenant_isolation ON %s", table),
			fmt.Sprintf(`CREATE POLICY tenant_isolation ON %s
				USING (
					tenant_id::text = current_setting('app.current_tenant', true)
					OR current_setting('app.rls_bypass', true) = 'on'
				)
				WITH CHECK (
					tenant_id::text = current_setting('app.current_tenant', true)
					OR current_setting('app.rls_bypass', true) = 'on'
				)`, table),
		}
		for _, stmt := range stmts {
			if err := db.Exec(stmt).Error; err != nil {
				return fmt.Errorf("failed to set up row-level security on %s: %w", table, err)
			}
		}
	}
	return nil
}

// WithTenant runs fn inside a transaction whose session carries the
// given tenant as its isolation context. set_config with is_local=true
// scopes the setting to the transaction, so the pooled connection
// leaves with no context. SET does not take bind parameters, hence
// set_config instead.
func WithTenant(ctx context.Context, db *gorm.DB, tenantID uint, fn func(tx *gorm.DB) error) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("SELECT set_config('app.current_tenant', ?, true)",
			strconv.FormatUint(uint64(tenantID), 10)).Error; err != nil {
			return fmt.Errorf("failed to set tenant context: %w", err)
		}
		return fn(tx)
	})
}

// WithBypass runs fn in a transaction that skips the tenant isolation
// policy. This is the explicit path for cross-tenant administrative
// jobs; request handlers must never use it.
func WithBypass(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("SELECT set_config('app.rls_bypass', 'on', true)").Error; err != nil {
			return fmt.Errorf("failed to set bypass context: %w", err)
		}
		return fn(tx)
	})
}
