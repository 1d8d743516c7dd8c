package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/usersmanager/account-service/internal/core/domain"
	"github.com/usersmanager/account-service/internal/core/ports"
)

const (
	collectionAccounts = "accounts"

	loginSlotIndex = "accounts_login_slot_unique"
	adminSlotIndex = "accounts_admin_slot_unique"
)

// AccountStore implements ports.UserStore using MongoDB.
//
// Live accounts carry a login_slot (and admins an admin_slot) guarded by
// partial unique indexes; blocking an account unsets both, which is what
// frees the login and the admin seat.
type AccountStore struct {
	col *mongo.Collection
}

var (
	_ ports.UserStore = (*AccountStore)(nil)
	_ ports.Pinger    = (*AccountStore)(nil)
)

func NewAccountStore(db *mongo.Database) *AccountStore {
	return &AccountStore{col: db.Collection(collectionAccounts)}
}

type accountDoc struct {
	ID           string    `bson:"_id"`
	Login        string    `bson:"login"`
	LoginSlot    string    `bson:"login_slot,omitempty"`
	AdminSlot    string    `bson:"admin_slot,omitempty"`
	PasswordHash string    `bson:"password_hash"`
	Role         string    `bson:"role"`
	Status       string    `bson:"status"`
	CreatedAt    time.Time `bson:"created_at"`
}

func toDoc(a *domain.Account) accountDoc {
	doc := accountDoc{
		ID:           a.ID,
		Login:        a.Login,
		PasswordHash: a.PasswordHash,
		Role:         string(a.Role),
		Status:       string(a.Status),
		CreatedAt:    a.CreatedAt.UTC(),
	}
	if a.Status.Live() {
		doc.LoginSlot = a.Login
		if a.Role == domain.RoleAdmin {
			doc.AdminSlot = string(domain.RoleAdmin)
		}
	}
	return doc
}

func (d accountDoc) toDomain() *domain.Account {
	return &domain.Account{
		ID:           d.ID,
		Login:        d.Login,
		PasswordHash: d.PasswordHash,
		Role:         domain.Role(d.Role),
		Status:       domain.AccountStatus(d.Status),
		CreatedAt:    d.CreatedAt.UTC(),
	}
}

// FindByLogin returns the live account for login, falling back to the most
// recently created blocked one.
func (s *AccountStore) FindByLogin(ctx context.Context, login string) (*domain.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	account, err := s.findOne(ctx, bson.M{"login_slot": login}, nil)
	if !errors.Is(err, domain.ErrAccountNotFound) {
		return account, err
	}

	latest := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return s.findOne(ctx, bson.M{"login": login}, latest)
}

// FindActiveAdmin returns the admin that is active or still pending activation.
func (s *AccountStore) FindActiveAdmin(ctx context.Context) (*domain.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	return s.findOne(ctx, bson.M{"admin_slot": string(domain.RoleAdmin)}, nil)
}

func (s *AccountStore) findOne(ctx context.Context, filter bson.M, opts *options.FindOneOptions) (*domain.Account, error) {
	var doc accountDoc
	var err error
	if opts != nil {
		err = s.col.FindOne(ctx, filter, opts).Decode(&doc)
	} else {
		err = s.col.FindOne(ctx, filter).Decode(&doc)
	}
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("find account: %w", err)
	}
	return doc.toDomain(), nil
}

// Insert stores a new account. Unique index violations are reported as the
// matching domain error.
func (s *AccountStore) Insert(ctx context.Context, a *domain.Account) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := s.col.InsertOne(ctx, toDoc(a)); err != nil {
		return classifyInsertError(err)
	}
	return nil
}

func classifyInsertError(err error) error {
	if !mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("insert account: %w", err)
	}
	if strings.Contains(err.Error(), adminSlotIndex) {
		return domain.ErrAdminAlreadyExists
	}
	return domain.ErrDuplicateLogin
}

// UpdateStatus performs a compare-and-set on the status field.
func (s *AccountStore) UpdateStatus(ctx context.Context, id string, from, to domain.AccountStatus) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	update := bson.M{"$set": bson.M{"status": string(to)}}
	if !to.Live() {
		update["$unset"] = bson.M{"login_slot": "", "admin_slot": ""}
	}

	res, err := s.col.UpdateOne(ctx, bson.M{"_id": id, "status": string(from)}, update)
	if err != nil {
		return fmt.Errorf("update account status: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

// ListActive returns active accounts ordered by created_at then _id.
func (s *AccountStore) ListActive(ctx context.Context, skip, take int) ([]*domain.Account, error) {
	if take == 0 {
		return []*domain.Account{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}).
		SetSkip(int64(skip))
	if take > 0 {
		opts.SetLimit(int64(take))
	}

	cur, err := s.col.Find(ctx, bson.M{"status": string(domain.StatusActive)}, opts)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer cur.Close(ctx)

	var docs []accountDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode accounts: %w", err)
	}

	out := make([]*domain.Account, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (s *AccountStore) Ping(ctx context.Context) error {
	return s.col.Database().Client().Ping(ctx, nil)
}

// EnsureIndexes creates the uniqueness and listing indexes on the accounts collection.
func (s *AccountStore) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "login_slot", Value: 1}},
			Options: options.Index().
				SetName(loginSlotIndex).
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"login_slot": bson.M{"$exists": true}}),
		},
		{
			Keys: bson.D{{Key: "admin_slot", Value: 1}},
			Options: options.Index().
				SetName(adminSlotIndex).
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"admin_slot": bson.M{"$exists": true}}),
		},
		{Keys: bson.D{{Key: "login", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}},
	}

	_, err := s.col.Indexes().CreateMany(ctx, indexes)
	return err
}
