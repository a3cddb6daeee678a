package sql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/expensehub/refund-api/internal/core/domain"
	"github.com/expensehub/refund-api/internal/core/patch"
	"github.com/expensehub/refund-api/internal/core/ports"
)

// refundModel has no foreign key to users; the service enforces the
// delete guard so both stores behave the same.
type refundModel struct {
	ID        string          `gorm:"primaryKey;size:36"`
	Name      string          `gorm:"size:255;not null"`
	Amount    decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Category  string          `gorm:"type:varchar(20);not null"`
	Filename  string          `gorm:"size:255;not null;index"`
	UserID    string          `gorm:"size:36;not null;index"`
	CreatedAt time.Time       `gorm:"index"`
	UpdatedAt time.Time
}

func (refundModel) TableName() string { return "refunds" }

func (m refundModel) toDomain() *domain.Refund {
	return &domain.Refund{
		ID:        m.ID,
		Name:      m.Name,
		Amount:    m.Amount,
		Category:  domain.Category(m.Category),
		Filename:  m.Filename,
		UserID:    m.UserID,
		CreatedAt: m.CreatedAt.UTC(),
		UpdatedAt: m.UpdatedAt.UTC(),
	}
}

type RefundRepository struct {
	db *gorm.DB
}

var _ ports.RefundRepository = (*RefundRepository)(nil)

func NewRefundRepository(db *gorm.DB) *RefundRepository {
	return &RefundRepository{db: db}
}

func (r *RefundRepository) Create(ctx context.Context, rf *domain.Refund) error {
	m := refundModel{
		ID:        rf.ID,
		Name:      rf.Name,
		Amount:    rf.Amount,
		Category:  string(rf.Category),
		Filename:  rf.Filename,
		UserID:    rf.UserID,
		CreatedAt: rf.CreatedAt,
		UpdatedAt: rf.UpdatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return fmt.Errorf("insert refund: %w", err)
	}
	return nil
}

func (r *RefundRepository) FindByID(ctx context.Context, id string) (*domain.Refund, error) {
	var m refundModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrRefundNotFound
		}
		return nil, fmt.Errorf("find refund: %w", err)
	}
	return m.toDomain(), nil
}

func (r *RefundRepository) List(ctx context.Context, f ports.RefundFilter) ([]*domain.Refund, int64, error) {
	q := r.db.WithContext(ctx).Model(&refundModel{})
	if f.UserID != "" {
		q = q.Where("user_id = ?", f.UserID)
	}
	q = nameLike(q, f.Name).Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count refunds: %w", err)
	}

	var rows []refundModel
	if err := page(q, f.Page).Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("find refunds: %w", err)
	}

	refunds := make([]*domain.Refund, 0, len(rows))
	for _, m := range rows {
		refunds = append(refunds, m.toDomain())
	}
	return refunds, total, nil
}

func (r *RefundRepository) Update(ctx context.Context, id string, p patch.RefundPatch, updatedAt time.Time) (*domain.Refund, error) {
	set := map[string]any{"updated_at": updatedAt}
	if p.Name != nil {
		set["name"] = *p.Name
	}
	if p.Amount != nil {
		set["amount"] = *p.Amount
	}
	if p.Category != nil {
		set["category"] = string(*p.Category)
	}
	if p.Filename != nil {
		set["filename"] = *p.Filename
	}

	res := r.db.WithContext(ctx).Model(&refundModel{}).Where("id = ?", id).Updates(set)
	if res.Error != nil {
		return nil, fmt.Errorf("update refund: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, domain.ErrRefundNotFound
	}
	return r.FindByID(ctx, id)
}

func (r *RefundRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&refundModel{})
	if res.Error != nil {
		return fmt.Errorf("delete refund: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrRefundNotFound
	}
	return nil
}

func (r *RefundRepository) CountByUser(ctx context.Context, userID string) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&refundModel{}).Where("user_id = ?", userID).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count refunds of user: %w", err)
	}
	return n, nil
}

func (r *RefundRepository) CountByFilename(ctx context.Context, filename string) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&refundModel{}).Where("filename = ?", filename).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count refunds of file: %w", err)
	}
	return n, nil
}
