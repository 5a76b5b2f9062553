package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/parisxmas/icpform/internal/db"
	"github.com/parisxmas/icpform/internal/models"
)

const UsersCollection = "icpUsers"

type UserRepo struct {
	store db.Store
}

func NewUserRepo(store db.Store) *UserRepo {
	return &UserRepo{store: store}
}

func (r *UserRepo) EnsureIndexes(ctx context.Context) error {
	return r.store.EnsureIndex(ctx, UsersCollection, "email", true)
}

func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	doc, err := r.store.FindOne(ctx, UsersCollection, map[string]any{"email": email})
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, nil
	}
	return docToUser(doc)
}

func (r *UserRepo) Create(ctx context.Context, user *models.User) (string, error) {
	doc := map[string]any{
		"email":        user.Email,
		"passwordHash": user.PasswordHash,
		"name":         user.Name,
		"role":         user.Role,
		"createdAt":    user.CreatedAt,
	}
	return r.store.Insert(ctx, UsersCollection, doc)
}

func docToUser(doc map[string]any) (*models.User, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal user doc: %w", err)
	}
	var u models.User
	if err := json.Unmarshal(data, &u); err != nil {
		return nil, fmt.Errorf("unmarshal user: %w", err)
	}
	return &u, nil
}
