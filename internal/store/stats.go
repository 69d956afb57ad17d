package store

import (
	"context"
	"fmt"

	"github.com/techtribe/techtribe/internal/domain"
)

// Stats gathers the operator dashboard counters in one query.
func (db *DB) Stats(ctx context.Context) (domain.DashboardStats, error) {
	var st domain.DashboardStats
	err := db.sql.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM catalogue_items WHERE is_active = 1),
			(SELECT COUNT(*) FROM contact_messages),
			(SELECT COUNT(*) FROM contact_messages WHERE is_read = 0),
			(SELECT COUNT(*) FROM chat_conversations),
			(SELECT COUNT(*) FROM admin_users)
	`).Scan(&st.TotalProducts, &st.TotalMessages, &st.UnreadMessages, &st.TotalChats, &st.TotalUsers)
	if err != nil {
		return st, fmt.Errorf("dashboard stats: %w", err)
	}
	return st, nil
}
