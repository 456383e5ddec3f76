package repository

import (
	"context"
	"database/sql"
)

// RuleRepo handles learned category rules.
type RuleRepo struct {
	db *sql.DB
}

func NewRuleRepo(db *sql.DB) *RuleRepo { return &RuleRepo{db: db} }

func (r *RuleRepo) Add(ctx context.Context, rule CategoryRule) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO category_rules(id, pattern, category, source, created_at)
	VALUES ($1, $2, $3, $4, now())
	ON CONFLICT (pattern, category) DO NOTHING;
	`, rule.ID, rule.Pattern, rule.Category, rule.Source)
	return err
}

func (r *RuleRepo) List(ctx context.Context) ([]CategoryRule, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, pattern, category, source, created_at FROM category_rules ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []CategoryRule
	for rows.Next() {
		var cr CategoryRule
		if err := rows.Scan(&cr.ID, &cr.Pattern, &cr.Category, &cr.Source, &cr.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, cr)
	}
	return out, rows.Err()
}
