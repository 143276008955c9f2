package repository

import (
	"context"
	"strings"
	"time"

	"bloodconnect/internal/domain"
	"bloodconnect/internal/gateway"

	"github.com/google/uuid"
)

const TableUsers = "users"

type UserRepository struct {
	gw gateway.Gateway
}

func NewUserRepository(gw gateway.Gateway) *UserRepository {
	return &UserRepository{gw: gw}
}

type userModel struct {
	ID           string    `gorm:"column:id;primaryKey;type:varchar(36)" json:"id"`
	Email        string    `gorm:"column:email;uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"column:password_hash;not null" json:"password_hash"`
	Name         string    `gorm:"column:name" json:"name"`
	Phone        string    `gorm:"column:phone" json:"phone"`
	Role         string    `gorm:"column:role;index;not null" json:"role"`
	Verified     bool      `gorm:"column:verified" json:"verified"`
	Status       string    `gorm:"column:status;not null" json:"status"`
	CreatedAt    time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (userModel) TableName() string { return TableUsers }

func toDomainUser(m userModel) *domain.User {
	return &domain.User{
		ID:        m.ID,
		Email:     m.Email,
		Name:      m.Name,
		Phone:     m.Phone,
		Role:      domain.Role(m.Role),
		Verified:  m.Verified,
		Status:    domain.UserStatus(m.Status),
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Create stores u and fills its id and timestamps.
func (r *UserRepository) Create(ctx context.Context, u *domain.User, passwordHash string) error {
	now := utcNow()
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Status == "" {
		u.Status = domain.UserActive
	}
	u.Email = normalizeEmail(u.Email)
	u.CreatedAt, u.UpdatedAt = now, now

	row, err := encodeRow(userModel{
		ID:           u.ID,
		Email:        u.Email,
		PasswordHash: passwordHash,
		Name:         u.Name,
		Phone:        u.Phone,
		Role:         string(u.Role),
		Verified:     u.Verified,
		Status:       string(u.Status),
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return err
	}
	_, err = r.gw.Insert(ctx, TableUsers, row)
	return mapErr(err)
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	m, err := r.first(ctx, gateway.Where(gateway.Eq("id", id)))
	if err != nil {
		return nil, err
	}
	return toDomainUser(*m), nil
}

// GetCredentials returns the user and stored password hash for email.
func (r *UserRepository) GetCredentials(ctx context.Context, email string) (*domain.User, string, error) {
	m, err := r.first(ctx, gateway.Where(gateway.Eq("email", normalizeEmail(email))))
	if err != nil {
		return nil, "", err
	}
	return toDomainUser(*m), m.PasswordHash, nil
}

func (r *UserRepository) first(ctx context.Context, q gateway.Query) (*userModel, error) {
	rows, err := r.gw.Select(ctx, TableUsers, q.WithLimit(1))
	if err != nil {
		return nil, mapErr(err)
	}
	if len(rows) == 0 {
		return nil, domain.NotFoundf("user")
	}
	var m userModel
	if err := decodeRow(rows[0], &m); err != nil {
		return nil, err
	}
	return &m, nil
}

type UserFilter struct {
	Role   domain.Role
	Status domain.UserStatus
	Limit  int
}

func (r *UserRepository) List(ctx context.Context, f UserFilter) ([]domain.User, error) {
	q := gateway.Query{}
	if f.Role != "" {
		q = q.And(gateway.Eq("role", string(f.Role)))
	}
	if f.Status != "" {
		q = q.And(gateway.Eq("status", string(f.Status)))
	}
	return r.list(ctx, q.OrderBy("created_at", true).WithLimit(f.Limit))
}

func (r *UserRepository) ListByIDs(ctx context.Context, ids []string) ([]domain.User, error) {
	return r.list(ctx, gateway.Where(gateway.In("id", ids)))
}

func (r *UserRepository) list(ctx context.Context, q gateway.Query) ([]domain.User, error) {
	rows, err := r.gw.Select(ctx, TableUsers, q)
	if err != nil {
		return nil, mapErr(err)
	}
	models, err := decodeRows[userModel](rows)
	if err != nil {
		return nil, err
	}
	out := make([]domain.User, 0, len(models))
	for _, m := range models {
		out = append(out, *toDomainUser(m))
	}
	return out, nil
}

// UserPatch holds optional changes. Nil fields are left alone.
type UserPatch struct {
	Name     *string
	Phone    *string
	Verified *bool
	Status   *domain.UserStatus
}

func (r *UserRepository) Update(ctx context.Context, id string, p UserPatch) (*domain.User, error) {
	patch := gateway.Row{"updated_at": utcNow()}
	if p.Name != nil {
		patch["name"] = *p.Name
	}
	if p.Phone != nil {
		patch["phone"] = *p.Phone
	}
	if p.Verified != nil {
		patch["verified"] = *p.Verified
	}
	if p.Status != nil {
		patch["status"] = string(*p.Status)
	}
	row, err := r.gw.Update(ctx, TableUsers, id, patch)
	if err != nil {
		return nil, mapErr(err)
	}
	var m userModel
	if err := decodeRow(row, &m); err != nil {
		return nil, err
	}
	return toDomainUser(m), nil
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	return mapErr(r.gw.Delete(ctx, TableUsers, id))
}
