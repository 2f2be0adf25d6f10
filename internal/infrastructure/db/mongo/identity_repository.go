package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/bookmarket/identity/internal/core/domain"
	"github.com/bookmarket/identity/internal/core/ports"
)

const collectionIdentities = "identities"

// IdentityRepository implements ports.IdentityRepository on MongoDB. Email
// uniqueness is enforced by a unique index created in EnsureIndexes.
type IdentityRepository struct {
	db   *mongo.Database
	coll *mongo.Collection
}

func NewIdentityRepository(db *mongo.Database) *IdentityRepository {
	return &IdentityRepository{db: db, coll: db.Collection(collectionIdentities)}
}

type mongoAddress struct {
	Street  string `bson:"street,omitempty"`
	City    string `bson:"city,omitempty"`
	State   string `bson:"state,omitempty"`
	ZipCode string `bson:"zip_code,omitempty"`
	Country string `bson:"country,omitempty"`
}

type mongoIdentity struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Name         string             `bson:"name"`
	Email        string             `bson:"email"`
	PasswordHash string             `bson:"password_hash,omitempty"`
	Role         string             `bson:"role"`
	Phone        string             `bson:"phone,omitempty"`
	Address      *mongoAddress      `bson:"address,omitempty"`
	CreatedAt    time.Time          `bson:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at"`
}

// withoutHash is the projection used whenever the hash is not needed.
var withoutHash = bson.M{"password_hash": 0}

func toAddressDoc(a *domain.Address) *mongoAddress {
	if a == nil {
		return nil
	}
	return &mongoAddress{Street: a.Street, City: a.City, State: a.State, ZipCode: a.ZipCode, Country: a.Country}
}

func (m mongoIdentity) toDomain() *domain.Identity {
	out := &domain.Identity{
		ID:           m.ID.Hex(),
		Name:         m.Name,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		Role:         domain.Role(m.Role),
		Phone:        m.Phone,
		CreatedAt:    m.CreatedAt.UTC(),
		UpdatedAt:    m.UpdatedAt.UTC(),
	}
	if m.Address != nil {
		out.Address = &domain.Address{
			Street:  m.Address.Street,
			City:    m.Address.City,
			State:   m.Address.State,
			ZipCode: m.Address.ZipCode,
			Country: m.Address.Country,
		}
	}
	return out
}

// Create inserts a new identity. A unique index violation on email is
// reported as domain.ErrDuplicateEmail.
func (r *IdentityRepository) Create(ctx context.Context, identity *domain.Identity) (*domain.Identity, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := mongoIdentity{
		ID:           primitive.NewObjectID(),
		Name:         identity.Name,
		Email:        domain.NormalizeEmail(identity.Email),
		PasswordHash: identity.PasswordHash,
		Role:         string(identity.Role),
		Phone:        identity.Phone,
		Address:      toAddressDoc(identity.Address),
		CreatedAt:    identity.CreatedAt.UTC(),
		UpdatedAt:    identity.UpdatedAt.UTC(),
	}

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("insert identity: %w", err)
	}
	return doc.toDomain(), nil
}

// FindByEmail returns the identity with its password hash for login checks.
func (r *IdentityRepository) FindByEmail(ctx context.Context, email string) (*domain.Identity, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc mongoIdentity
	err := r.coll.FindOne(ctx, bson.M{"email": domain.NormalizeEmail(email)}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrIdentityNotFound
		}
		return nil, fmt.Errorf("find identity by email: %w", err)
	}
	return doc.toDomain(), nil
}

// FindByID returns the identity without its password hash.
func (r *IdentityRepository) FindByID(ctx context.Context, id string) (*domain.Identity, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrIdentityNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc mongoIdentity
	err = r.coll.FindOne(ctx, bson.M{"_id": oid}, options.FindOne().SetProjection(withoutHash)).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrIdentityNotFound
		}
		return nil, fmt.Errorf("find identity by id: %w", err)
	}
	return doc.toDomain(), nil
}

// Update applies the non-nil fields of update with a single $set.
func (r *IdentityRepository) Update(ctx context.Context, id string, update ports.IdentityUpdate) (*domain.Identity, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrIdentityNotFound
	}

	set := bson.M{"updated_at": update.UpdatedAt.UTC()}
	if update.Name != nil {
		set["name"] = *update.Name
	}
	if update.Phone != nil {
		set["phone"] = *update.Phone
	}
	if update.Address != nil {
		set["address"] = toAddressDoc(update.Address)
	}
	if update.PasswordHash != nil {
		set["password_hash"] = *update.PasswordHash
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(withoutHash)

	var doc mongoIdentity
	err = r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrIdentityNotFound
		}
		return nil, fmt.Errorf("update identity: %w", err)
	}
	return doc.toDomain(), nil
}

// List returns a page of identities, newest first, and the total count.
func (r *IdentityRepository) List(ctx context.Context, filter ports.IdentityListFilter) ([]*domain.Identity, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	total, err := r.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, fmt.Errorf("count identities: %w", err)
	}

	opts := options.Find().
		SetProjection(withoutHash).
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	if filter.Limit > 0 {
		skip := int64((filter.Page - 1) * filter.Limit)
		if skip < 0 {
			skip = 0
		}
		opts.SetSkip(skip).SetLimit(int64(filter.Limit))
	}

	cur, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list identities: %w", err)
	}
	defer cur.Close(ctx)

	items := make([]*domain.Identity, 0)
	for cur.Next(ctx) {
		var doc mongoIdentity
		if err := cur.Decode(&doc); err != nil {
			return nil, 0, fmt.Errorf("decode identity: %w", err)
		}
		items = append(items, doc.toDomain())
	}
	if err := cur.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate identities: %w", err)
	}
	return items, total, nil
}

// EnsureIndexes creates the unique email index. It must run before the
// service accepts registrations.
func (r *IdentityRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_email"),
		},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexes)
	return err
}

func (r *IdentityRepository) Name() string { return "mongodb" }

// Ping checks both the client connection and the selected database.
func (r *IdentityRepository) Ping(ctx context.Context) error {
	if err := r.db.Client().Ping(ctx, nil); err != nil {
		return err
	}
	return r.db.RunCommand(ctx, bson.D{{Key: "ping", Value: 1}}).Err()
}
