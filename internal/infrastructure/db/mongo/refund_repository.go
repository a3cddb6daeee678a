package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/expensehub/refund-api/internal/core/domain"
	"github.com/expensehub/refund-api/internal/core/patch"
	"github.com/expensehub/refund-api/internal/core/ports"
)

const collectionRefunds = "refunds"

type RefundRepository struct {
	col *mongo.Collection
}

var _ ports.RefundRepository = (*RefundRepository)(nil)

func NewRefundRepository(db *mongo.Database) *RefundRepository {
	return &RefundRepository{col: db.Collection(collectionRefunds)}
}

type refundDoc struct {
	ID        string               `bson:"_id"`
	Name      string               `bson:"name"`
	Amount    primitive.Decimal128 `bson:"amount"`
	Category  string               `bson:"category"`
	Filename  string               `bson:"filename"`
	UserID    string               `bson:"user_id"`
	CreatedAt time.Time            `bson:"created_at"`
	UpdatedAt time.Time            `bson:"updated_at"`
}

func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.Decimal128{}, fmt.Errorf("encode amount %s: %w", d, err)
	}
	return v, nil
}

func toRefundDoc(r *domain.Refund) (refundDoc, error) {
	amount, err := toDecimal128(r.Amount)
	if err != nil {
		return refundDoc{}, err
	}
	return refundDoc{
		ID:        r.ID,
		Name:      r.Name,
		Amount:    amount,
		Category:  string(r.Category),
		Filename:  r.Filename,
		UserID:    r.UserID,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}, nil
}

func (d refundDoc) toDomain() (*domain.Refund, error) {
	amount, err := decimal.NewFromString(d.Amount.String())
	if err != nil {
		return nil, fmt.Errorf("decode amount of refund %s: %w", d.ID, err)
	}
	return &domain.Refund{
		ID:        d.ID,
		Name:      d.Name,
		Amount:    amount,
		Category:  domain.Category(d.Category),
		Filename:  d.Filename,
		UserID:    d.UserID,
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
	}, nil
}

func (r *RefundRepository) Create(ctx context.Context, rf *domain.Refund) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc, err := toRefundDoc(rf)
	if err != nil {
		return err
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert refund: %w", err)
	}
	return nil
}

func (r *RefundRepository) FindByID(ctx context.Context, id string) (*domain.Refund, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var d refundDoc
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrRefundNotFound
		}
		return nil, fmt.Errorf("find refund: %w", err)
	}
	return d.toDomain()
}

// List applies the owner scope (UserID) before the optional name filter.
func (r *RefundRepository) List(ctx context.Context, f ports.RefundFilter) ([]*domain.Refund, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{}
	if f.UserID != "" {
		filter["user_id"] = f.UserID
	}
	nameFilter(filter, f.Name)

	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count refunds: %w", err)
	}

	cur, err := r.col.Find(ctx, filter, pageOptions(f.Page))
	if err != nil {
		return nil, 0, fmt.Errorf("find refunds: %w", err)
	}
	defer cur.Close(ctx)

	var docs []refundDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, 0, fmt.Errorf("decode refunds: %w", err)
	}

	refunds := make([]*domain.Refund, 0, len(docs))
	for _, d := range docs {
		rf, err := d.toDomain()
		if err != nil {
			return nil, 0, err
		}
		refunds = append(refunds, rf)
	}
	return refunds, total, nil
}

func (r *RefundRepository) Update(ctx context.Context, id string, p patch.RefundPatch, updatedAt time.Time) (*domain.Refund, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	set := bson.M{"updated_at": updatedAt}
	if p.Name != nil {
		set["name"] = *p.Name
	}
	if p.Amount != nil {
		amount, err := toDecimal128(*p.Amount)
		if err != nil {
			return nil, err
		}
		set["amount"] = amount
	}
	if p.Category != nil {
		set["category"] = string(*p.Category)
	}
	if p.Filename != nil {
		set["filename"] = *p.Filename
	}

	var d refundDoc
	err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, afterUpdate()).Decode(&d)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrRefundNotFound
		}
		return nil, fmt.Errorf("update refund: %w", err)
	}
	return d.toDomain()
}

func (r *RefundRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete refund: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrRefundNotFound
	}
	return nil
}

func (r *RefundRepository) CountByUser(ctx context.Context, userID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := r.col.CountDocuments(ctx, bson.M{"user_id": userID})
	if err != nil {
		return 0, fmt.Errorf("count refunds of user: %w", err)
	}
	return n, nil
}

func (r *RefundRepository) CountByFilename(ctx context.Context, filename string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := r.col.CountDocuments(ctx, bson.M{"filename": filename})
	if err != nil {
		return 0, fmt.Errorf("count refunds of file: %w", err)
	}
	return n, nil
}

// EnsureIndexes creates necessary indexes on the refunds collection.
func (r *RefundRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "filename", Value: 1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
