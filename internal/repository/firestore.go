package repository

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"github.com/Lllllllleong/marketingkitflow/internal/models"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Collections names the Firestore collection for each entity.
type Collections struct {
	Users      string
	Clients    string
	Properties string
	Media      string
	Kits       string
}

// DefaultCollections matches the collection names used by the web client.
func DefaultCollections() Collections {
	return Collections{
		Users:      "users",
		Clients:    "clients",
		Properties: "properties",
		Media:      "propertyMedia",
		Kits:       "marketingKits",
	}
}

// FirestoreStore implements Store on top of a Firestore client.
type FirestoreStore struct {
	client      *firestore.Client
	collections Collections
}

func NewFirestoreStore(client *firestore.Client, collections Collections) *FirestoreStore {
	return &FirestoreStore{client: client, collections: collections}
}

var _ Store = (*FirestoreStore)(nil)

func (s *FirestoreStore) FindUser(ctx context.Context, id string) (*models.User, error) {
	docs, err := s.client.Collection(s.collections.Users).Where("id", "==", id).Limit(1).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	if len(docs) == 0 {
		return nil, nil
	}
	var user models.User
	if err := docs[0].DataTo(&user); err != nil {
		return nil, fmt.Errorf("failed to decode user %s: %w", docs[0].Ref.ID, err)
	}
	return &user, nil
}

func (s *FirestoreStore) CreateUser(ctx context.Context, user *models.User) error {
	return s.create(ctx, s.collections.Users, user.ID, user)
}

func (s *FirestoreStore) FindClient(ctx context.Context, userID, email string) (*models.Client, error) {
	docs, err := s.client.Collection(s.collections.Clients).
		Where("userId", "==", userID).
		Where("email", "==", email).
		Limit(1).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to query clients: %w", err)
	}
	if len(docs) == 0 {
		return nil, nil
	}
	var client models.Client
	if err := docs[0].DataTo(&client); err != nil {
		return nil, fmt.Errorf("failed to decode client %s: %w", docs[0].Ref.ID, err)
	}
	return &client, nil
}

func (s *FirestoreStore) CreateClient(ctx context.Context, client *models.Client) error {
	return s.create(ctx, s.collections.Clients, client.ID, client)
}

func (s *FirestoreStore) CreateProperty(ctx context.Context, property *models.Property) error {
	return s.create(ctx, s.collections.Properties, property.ID, property)
}

func (s *FirestoreStore) GetProperty(ctx context.Context, id string) (*models.Property, error) {
	snap, err := s.client.Collection(s.collections.Properties).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("property %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get property %s: %w", id, err)
	}
	var property models.Property
	if err := snap.DataTo(&property); err != nil {
		return nil, fmt.Errorf("failed to decode property %s: %w", id, err)
	}
	return &property, nil
}

func (s *FirestoreStore) ListProperties(ctx context.Context, userID string) ([]models.Property, error) {
	it := s.client.Collection(s.collections.Properties).
		Where("userId", "==", userID).
		OrderBy("createdAt", firestore.Desc).
		Documents(ctx)
	defer it.Stop()

	properties := []models.Property{}
	for {
		snap, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list properties for user %s: %w", userID, err)
		}
		var property models.Property
		if err := snap.DataTo(&property); err != nil {
			return nil, fmt.Errorf("failed to decode property %s: %w", snap.Ref.ID, err)
		}
		properties = append(properties, property)
	}
	return properties, nil
}

func (s *FirestoreStore) CreateMedia(ctx context.Context, media *models.PropertyMedia) error {
	return s.create(ctx, s.collections.Media, media.ID, media)
}

func (s *FirestoreStore) ListMedia(ctx context.Context, propertyID string) ([]models.PropertyMedia, error) {
	it := s.client.Collection(s.collections.Media).
		Where("propertyId", "==", propertyID).
		OrderBy("order", firestore.Asc).
		Documents(ctx)
	defer it.Stop()

	media := []models.PropertyMedia{}
	for {
		snap, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list media for property %s: %w", propertyID, err)
		}
		var m models.PropertyMedia
		if err := snap.DataTo(&m); err != nil {
			return nil, fmt.Errorf("failed to decode media %s: %w", snap.Ref.ID, err)
		}
		media = append(media, m)
	}
	return media, nil
}

func (s *FirestoreStore) FindKit(ctx context.Context, propertyID string) (*models.MarketingKit, error) {
	docs, err := s.client.Collection(s.collections.Kits).Where("propertyId", "==", propertyID).Limit(1).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to query marketing kits: %w", err)
	}
	if len(docs) == 0 {
		return nil, nil
	}
	var kit models.MarketingKit
	if err := docs[0].DataTo(&kit); err != nil {
		return nil, fmt.Errorf("failed to decode marketing kit %s: %w", docs[0].Ref.ID, err)
	}
	if kit.ID == "" {
		kit.ID = docs[0].Ref.ID
	}
	return &kit, nil
}

func (s *FirestoreStore) CreateKit(ctx context.Context, kit *models.MarketingKit) error {
	return s.create(ctx, s.collections.Kits, kit.ID, kit)
}

// UpdateKit overwrites the generated fields of an existing kit. id, propertyId and
// createdAt are left untouched.
func (s *FirestoreStore) UpdateKit(ctx context.Context, id string, kit *models.MarketingKit) error {
	updates := []firestore.Update{
		{Path: "userId", Value: kit.UserID},
		{Path: "kitType", Value: kit.KitType},
		{Path: "tourUrl", Value: kit.TourURL},
		{Path: "socialContent", Value: kit.SocialContent},
		{Path: "generatedGraphics", Value: kit.GeneratedGraphics},
		{Path: "downloadUrl", Value: kit.DownloadURL},
		{Path: "brochureUrl", Value: kit.BrochureURL},
		{Path: "updatedAt", Value: kit.UpdatedAt},
	}
	if _, err := s.client.Collection(s.collections.Kits).Doc(id).Update(ctx, updates); err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("marketing kit %s: %w", id, ErrNotFound)
		}
		return fmt.Errorf("failed to update marketing kit %s: %w", id, err)
	}
	return nil
}

// create writes a new document and fails if the id is already taken.
func (s *FirestoreStore) create(ctx context.Context, collection, id string, record any) error {
	if id == "" {
		return errors.New("record id must be set")
	}
	if _, err := s.client.Collection(collection).Doc(id).Create(ctx, record); err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return fmt.Errorf("%s/%s: %w", collection, id, ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create %s/%s: %w", collection, id, err)
	}
	return nil
}
