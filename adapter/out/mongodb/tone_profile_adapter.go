package mongodb

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/goccy/go-json"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"tone_server/core/domain"
	"tone_server/core/port/out"
)

var _ out.ProfileRepository = (*ProfileAdapter)(nil)

const (
	collectionProfiles = "tone_profiles"

	// Profiles larger than this are stored gzip-compressed
	profileCompressionThreshold = 2048
)

// ProfileAdapter implements out.ProfileRepository using MongoDB.
// The profile artifact is stored as its JSON serialization so the stored shape
// matches the API shape exactly.
type ProfileAdapter struct {
	collection *mongo.Collection
	now        func() time.Time
}

// NewProfileAdapter creates a new MongoDB profile adapter.
func NewProfileAdapter(db *mongo.Database) *ProfileAdapter {
	return &ProfileAdapter{
		collection: db.Collection(collectionProfiles),
		now:        time.Now,
	}
}

// EnsureIndexes creates necessary indexes for the collection.
func (a *ProfileAdapter) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "updated_at", Value: -1}},
		},
	}

	_, err := a.collection.Indexes().CreateMany(ctx, indexes)
	return err
}

// profileDocument represents the MongoDB document structure.
type profileDocument struct {
	UserID string `bson:"user_id"`

	// Content is the profile JSON, possibly gzip-compressed
	Content      []byte `bson:"content"`
	IsCompressed bool   `bson:"is_compressed"`
	OriginalSize int64  `bson:"original_size"`

	// Summary fields for querying without decoding content
	EmailCount   int    `bson:"email_count"`
	ClusterCount int    `bson:"cluster_count"`
	Formality    string `bson:"formality,omitempty"`

	UpdatedAt time.Time `bson:"updated_at"`
}

// SaveProfile replaces the stored profile of a user.
func (a *ProfileAdapter) SaveProfile(ctx context.Context, userID string, profile domain.UserProfile) error {
	doc, err := toDocument(userID, profile, a.now().UTC())
	if err != nil {
		return fmt.Errorf("failed to convert profile to document: %w", err)
	}

	opts := options.Replace().SetUpsert(true)
	if _, err := a.collection.ReplaceOne(ctx, bson.M{"user_id": userID}, doc, opts); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

// GetProfile returns the stored profile, or nil when the user has none.
func (a *ProfileAdapter) GetProfile(ctx context.Context, userID string) (*domain.StoredProfile, error) {
	var doc profileDocument
	err := a.collection.FindOne(ctx, bson.M{"user_id": userID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	return toStored(&doc)
}

func toDocument(userID string, profile domain.UserProfile, updatedAt time.Time) (*profileDocument, error) {
	content, err := json.Marshal(profile)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal profile: %w", err)
	}

	doc := &profileDocument{
		UserID:       userID,
		Content:      content,
		OriginalSize: int64(len(content)),
		EmailCount:   profile.EmailCount,
		ClusterCount: len(profile.StyleClusters),
		Formality:    profile.MainProfile.Value(domain.AxisFormality),
		UpdatedAt:    updatedAt,
	}

	if len(content) > profileCompressionThreshold {
		compressed, err := compress(content)
		if err != nil {
			return nil, fmt.Errorf("failed to compress profile: %w", err)
		}
		doc.Content = compressed
		doc.IsCompressed = true
	}
	return doc, nil
}

func toStored(doc *profileDocument) (*domain.StoredProfile, error) {
	content := doc.Content
	if doc.IsCompressed {
		decompressed, err := decompress(content)
		if err != nil {
			return nil, fmt.Errorf("failed to decompress profile: %w", err)
		}
		content = decompressed
	}

	stored := &domain.StoredProfile{UserID: doc.UserID, UpdatedAt: doc.UpdatedAt}
	if err := json.Unmarshal(content, &stored.Profile); err != nil {
		return nil, fmt.Errorf("failed to unmarshal profile: %w", err)
	}
	if stored.Profile.StyleClusters == nil {
		stored.Profile.StyleClusters = []domain.StyleCluster{}
	}
	return stored, nil
}

func compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	gz, err := gzip.NewWriterLevel(&buf, gzip.BestSpeed)
	if err != nil {
		return nil, err
	}
	if _, err := gz.Write(data); err != nil {
		return nil, err
	}
	if err := gz.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decompress(data []byte) ([]byte, error) {
	gz, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer gz.Close()
	return io.ReadAll(gz)
}
