package sqlite

import (
	"context"
	"strings"

	"github.com/onevision/baselogin/internal/auth/domain"
)

type companiesRepo struct {
	db dbtx
}

const companyCols = `id, name, domain, max_users, created_at, updated_at`

func (r *companiesRepo) GetCompanyByID(ctx context.Context, id string) (domain.Company, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+companyCols+` FROM companies WHERE id = ?`, id)

	var c domain.Company
	if err := row.Scan(&c.ID, &c.Name, &c.Domain, &c.MaxUsers, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return domain.Company{}, mapErr(err)
	}
	return c, nil
}

func (r *companiesRepo) GetCompanyByDomain(ctx context.Context, emailDomain string) (domain.Company, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+companyCols+` FROM companies WHERE domain = ?`,
		strings.ToLower(emailDomain))

	var c domain.Company
	if err := row.Scan(&c.ID, &c.Name, &c.Domain, &c.MaxUsers, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return domain.Company{}, mapErr(err)
	}
	return c, nil
}

func (r *companiesRepo) CreateCompany(ctx context.Context, c domain.Company) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO companies (id, name, domain, max_users) VALUES (?, ?, ?, ?)`,
		c.ID, c.Name, strings.ToLower(c.Domain), c.MaxUsers)
	return mapErr(err)
}

func (r *companiesRepo) UpdateMaxUsers(ctx context.Context, companyID string, maxUsers int) error {
	return rowsAffected(r.db.ExecContext(ctx,
		`UPDATE companies SET max_users = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		maxUsers, companyID))
}
