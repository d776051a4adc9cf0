package task

import (
	"context"
	"log"
	"strings"

	"gorm.io/gorm"
)

// SchemaGuard repairs tasks tables created before the category and
// priority columns existed. It is invoked once at startup and again when a
// query fails with ErrSchemaMismatch.
type SchemaGuard struct {
	db *gorm.DB
}

// NewSchemaGuard creates a new SchemaGuard.
func NewSchemaGuard(db *gorm.DB) *SchemaGuard {
	return &SchemaGuard{db: db}
}

// Ensure adds the category and priority columns with their defaults if they
// are missing. Best effort: a duplicate column (including one added by a
// racing request) is a no-op, and every other error is swallowed so the
// guard never takes a request down with it.
func (g *SchemaGuard) Ensure(ctx context.Context) {
	g.addColumn(ctx, "category", "TEXT DEFAULT 'Personal'")
	g.addColumn(ctx, "priority", "TEXT DEFAULT 'Medium'")
}

func (g *SchemaGuard) addColumn(ctx context.Context, name, definition string) {
	err := g.db.WithContext(ctx).
		Exec("ALTER TABLE tasks ADD COLUMN " + name + " " + definition).Error
	if err == nil {
		log.Printf("[task] Schema guard added missing column %q", name)
		return
	}
	if !strings.Contains(err.Error(), "duplicate column name") {
		log.Printf("[task] Schema guard could not add column %q: %v", name, err)
	}
}
