package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/bookmarket/identity/internal/core/domain"
	"github.com/bookmarket/identity/internal/core/ports"
)

const identityColumns = "id, name, email, role, phone, address_json, created_at, updated_at"

// IdentityRepository implements ports.IdentityRepository on SQLite. The
// UNIQUE constraint on email backs the duplicate check.
type IdentityRepository struct {
	db *sql.DB
}

func NewIdentityRepository(db *sql.DB) *IdentityRepository {
	return &IdentityRepository{db: db}
}

func toMillis(t time.Time) int64 { return t.UTC().UnixMilli() }

func fromMillis(v int64) time.Time { return time.UnixMilli(v).UTC() }

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		return se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return false
}

func encodeAddress(a *domain.Address) (sql.NullString, error) {
	if a == nil {
		return sql.NullString{}, nil
	}
	raw, err := json.Marshal(a)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(raw), Valid: true}, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanIdentity(row scanner, withHash bool) (*domain.Identity, error) {
	var (
		out         domain.Identity
		role        string
		addressJSON sql.NullString
		createdAt   int64
		updatedAt   int64
	)
	dest := []any{&out.ID, &out.Name, &out.Email, &role, &out.Phone, &addressJSON, &createdAt, &updatedAt}
	if withHash {
		dest = append(dest, &out.PasswordHash)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	out.Role = domain.Role(role)
	out.CreatedAt = fromMillis(createdAt)
	out.UpdatedAt = fromMillis(updatedAt)
	if addressJSON.Valid && addressJSON.String != "" {
		var addr domain.Address
		if err := json.Unmarshal([]byte(addressJSON.String), &addr); err != nil {
			return nil, fmt.Errorf("decode address: %w", err)
		}
		out.Address = &addr
	}
	return &out, nil
}

func (r *IdentityRepository) Create(ctx context.Context, identity *domain.Identity) (*domain.Identity, error) {
	address, err := encodeAddress(identity.Address)
	if err != nil {
		return nil, fmt.Errorf("encode address: %w", err)
	}

	stored := identity.Sanitized()
	stored.ID = uuid.NewString()
	stored.Email = domain.NormalizeEmail(identity.Email)
	stored.CreatedAt = fromMillis(toMillis(identity.CreatedAt))
	stored.UpdatedAt = fromMillis(toMillis(identity.UpdatedAt))

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO identities (id, name, email, password_hash, role, phone, address_json, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		stored.ID, stored.Name, stored.Email, identity.PasswordHash, string(stored.Role), stored.Phone, address,
		toMillis(stored.CreatedAt), toMillis(stored.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("insert identity: %w", err)
	}
	return stored, nil
}

func (r *IdentityRepository) FindByEmail(ctx context.Context, email string) (*domain.Identity, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+identityColumns+", password_hash FROM identities WHERE email = ?",
		domain.NormalizeEmail(email))
	out, err := scanIdentity(row, true)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrIdentityNotFound
		}
		return nil, fmt.Errorf("find identity by email: %w", err)
	}
	return out, nil
}

func (r *IdentityRepository) FindByID(ctx context.Context, id string) (*domain.Identity, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+identityColumns+" FROM identities WHERE id = ?", id)
	out, err := scanIdentity(row, false)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrIdentityNotFound
		}
		return nil, fmt.Errorf("find identity by id: %w", err)
	}
	return out, nil
}

func (r *IdentityRepository) Update(ctx context.Context, id string, update ports.IdentityUpdate) (*domain.Identity, error) {
	sets := []string{"updated_at = ?"}
	args := []any{toMillis(update.UpdatedAt)}
	if update.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *update.Name)
	}
	if update.Phone != nil {
		sets = append(sets, "phone = ?")
		args = append(args, *update.Phone)
	}
	if update.Address != nil {
		address, err := encodeAddress(update.Address)
		if err != nil {
			return nil, fmt.Errorf("encode address: %w", err)
		}
		sets = append(sets, "address_json = ?")
		args = append(args, address)
	}
	if update.PasswordHash != nil {
		sets = append(sets, "password_hash = ?")
		args = append(args, *update.PasswordHash)
	}
	args = append(args, id)

	res, err := r.db.ExecContext(ctx, "UPDATE identities SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return nil, fmt.Errorf("update identity: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, domain.ErrIdentityNotFound
	}
	return r.FindByID(ctx, id)
}

func (r *IdentityRepository) List(ctx context.Context, filter ports.IdentityListFilter) ([]*domain.Identity, int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM identities").Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count identities: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = -1
	}
	offset := (filter.Page - 1) * filter.Limit
	if offset < 0 {
		offset = 0
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT "+identityColumns+" FROM identities ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?",
		limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list identities: %w", err)
	}
	defer rows.Close()

	items := make([]*domain.Identity, 0)
	for rows.Next() {
		item, err := scanIdentity(rows, false)
		if err != nil {
			return nil, 0, fmt.Errorf("scan identity: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate identities: %w", err)
	}
	return items, total, nil
}

func (r *IdentityRepository) Name() string { return "sqlite" }

func (r *IdentityRepository) Ping(ctx context.Context) error { return r.db.PingContext(ctx) }
