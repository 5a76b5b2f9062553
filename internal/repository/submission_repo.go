package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/parisxmas/icpform/internal/db"
	"github.com/parisxmas/icpform/internal/models"
)

// DefaultSubmissionsCollection is where questionnaires are stored.
const DefaultSubmissionsCollection = "seoForms"

type SubmissionRepo struct {
	store      db.Store
	collection string
}

func NewSubmissionRepo(store db.Store, collection string) *SubmissionRepo {
	if collection == "" {
		collection = DefaultSubmissionsCollection
	}
	return &SubmissionRepo{store: store, collection: collection}
}

func (r *SubmissionRepo) EnsureIndexes(ctx context.Context) error {
	return r.store.EnsureIndex(ctx, r.collection, "createdAt", false)
}

// Create writes one document and returns the store-assigned id.
func (r *SubmissionRepo) Create(ctx context.Context, sub *models.StoredProfile) (string, error) {
	doc, err := submissionToDoc(sub)
	if err != nil {
		return "", err
	}
	return r.store.Insert(ctx, r.collection, doc)
}

// List returns one page ordered newest first, and the total count.
func (r *SubmissionRepo) List(ctx context.Context, skip, limit int) ([]models.StoredProfile, int, error) {
	total, err := r.store.Count(ctx, r.collection, map[string]any{})
	if err != nil {
		return nil, 0, err
	}

	docs, err := r.store.Find(ctx, r.collection, map[string]any{}, db.FindOptions{
		Sort:  "createdAt",
		Desc:  true,
		Skip:  skip,
		Limit: limit,
	})
	if err != nil {
		return nil, 0, err
	}

	subs := make([]models.StoredProfile, 0, len(docs))
	for _, d := range docs {
		s, err := docToSubmission(d)
		if err != nil {
			log.Printf("Warning: skipping unreadable submission %v: %v", d["_id"], err)
			continue
		}
		subs = append(subs, *s)
	}
	return subs, total, nil
}

func (r *SubmissionRepo) FindByID(ctx context.Context, id string) (*models.StoredProfile, error) {
	doc, err := r.store.FindOne(ctx, r.collection, map[string]any{"_id": id})
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, nil
	}
	return docToSubmission(doc)
}

func (r *SubmissionRepo) Count(ctx context.Context) (int, error) {
	return r.store.Count(ctx, r.collection, map[string]any{})
}

// submissionToDoc flattens the profile fields and keeps createdAt as a
// time so each backend can store it natively.
func submissionToDoc(s *models.StoredProfile) (map[string]any, error) {
	data, err := json.Marshal(s.Profile)
	if err != nil {
		return nil, fmt.Errorf("marshal submission: %w", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal submission doc: %w", err)
	}
	doc["createdAt"] = s.CreatedAt
	return doc, nil
}

func docToSubmission(doc map[string]any) (*models.StoredProfile, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal submission doc: %w", err)
	}
	var s models.StoredProfile
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("unmarshal submission: %w", err)
	}
	return &s, nil
}
