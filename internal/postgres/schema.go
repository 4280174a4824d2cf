package postgres

import (
	"context"
	"sort"
)

// RequiredColumns lists the columns the application queries, per table.
var RequiredColumns = map[string][]string{
	"users":         {"id", "name", "email", "phone", "is_admin", "created_at", "updated_at"},
	"books":         {"id", "title", "author", "image", "price", "publisher"},
	"book_sections": {"book_id", "section"},
	"categories":    {"id", "name", "slug", "icon", "is_language", "display_order", "visible"},
	"orders": {"id", "order_id", "user_id", "subtotal", "discount", "total", "shipping_name",
		"shipping_phone", "shipping_address", "shipping_city", "shipping_state", "shipping_pincode",
		"payment_method", "status", "created_at"},
	"order_items": {"id", "order_id", "book_id", "quantity", "price", "book_title", "book_author", "book_image"},
	"cart":        {"id", "user_id", "book_id", "quantity"},
	"wishlist":    {"id", "user_id", "book_id"},
}

type SchemaReport struct {
	// Missing maps a table to its absent columns. A table that does not exist
	// at all lists every required column.
	Missing map[string][]string
}

func (r SchemaReport) OK() bool { return len(r.Missing) == 0 }

// Tables returns the tables with missing columns in a stable order.
func (r SchemaReport) Tables() []string {
	out := make([]string, 0, len(r.Missing))
	for t := range r.Missing {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// CheckSchema compares information_schema against RequiredColumns.
func CheckSchema(ctx context.Context, db Querier) (SchemaReport, error) {
	rows, err := db.Query(ctx, `
		SELECT table_name, column_name
		FROM information_schema.columns
		WHERE table_schema = current_schema()`)
	if err != nil {
		return SchemaReport{}, err
	}
	defer rows.Close()

	present := map[string]map[string]bool{}
	for rows.Next() {
		var table, column string
		if err := rows.Scan(&table, &column); err != nil {
			return SchemaReport{}, err
		}
		if present[table] == nil {
			present[table] = map[string]bool{}
		}
		present[table][column] = true
	}
	if err := rows.Err(); err != nil {
		return SchemaReport{}, err
	}
	return diffSchema(present), nil
}

func diffSchema(present map[string]map[string]bool) SchemaReport {
	report := SchemaReport{Missing: map[string][]string{}}
	for table, cols := range RequiredColumns {
		for _, c := range cols {
			if !present[table][c] {
				report.Missing[table] = append(report.Missing[table], c)
			}
		}
	}
	return report
}
