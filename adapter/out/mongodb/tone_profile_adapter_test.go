package mongodb

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tone_server/core/domain"
)

func sampleProfile(clusters int) domain.UserProfile {
	readability := 8.25
	p := domain.UserProfile{
		MainProfile: domain.AggregatedProfile{
			Values: map[domain.Axis]string{domain.AxisFormality: domain.Formal},
			Distributions: map[domain.Axis]map[string]float64{
				domain.AxisFormality: {domain.Formal: 70, domain.Informal: 30},
			},
			Readability: &readability,
			EmailCount:  10,
		},
		StyleClusters: []domain.StyleCluster{},
		EmailCount:    10,
	}
	for i := 0; i < clusters; i++ {
		p.StyleClusters = append(p.StyleClusters, domain.StyleCluster{
			ID:          i,
			Size:        5,
			Percentage:  50,
			Name:        fmt.Sprintf("Style %d", i),
			Description: "Casual, conversational style with relaxed language and personal tone",
		})
	}
	return p
}

func TestProfileDocumentRoundTrip(t *testing.T) {
	updated := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name           string
		clusters       int
		wantCompressed bool
	}{
		{name: "small profile stored plain", clusters: 1},
		{name: "large profile stored compressed", clusters: 40, wantCompressed: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profile := sampleProfile(tt.clusters)

			doc, err := toDocument("u1", profile, updated)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCompressed, doc.IsCompressed)
			assert.Equal(t, 10, doc.EmailCount)
			assert.Equal(t, tt.clusters, doc.ClusterCount)
			assert.Equal(t, domain.Formal, doc.Formality)

			stored, err := toStored(doc)
			require.NoError(t, err)
			assert.Equal(t, "u1", stored.UserID)
			assert.True(t, updated.Equal(stored.UpdatedAt))
			assert.Equal(t, 10, stored.Profile.EmailCount)
			assert.Len(t, stored.Profile.StyleClusters, tt.clusters)
			assert.Equal(t, domain.Formal, stored.Profile.MainProfile.Value(domain.AxisFormality))
			assert.Equal(t, 70.0, stored.Profile.MainProfile.Distribution(domain.AxisFormality)[domain.Formal])
			require.NotNil(t, stored.Profile.MainProfile.Readability)
			assert.Equal(t, 8.25, *stored.Profile.MainProfile.Readability)
		})
	}
}

func TestToStored_CorruptContent(t *testing.T) {
	_, err := toStored(&profileDocument{UserID: "u1", Content: []byte("{"), IsCompressed: false})
	assert.Error(t, err)

	_, err = toStored(&profileDocument{UserID: "u1", Content: []byte("not gzip"), IsCompressed: true})
	assert.Error(t, err)
}

func TestToStored_EmptyProfile(t *testing.T) {
	doc, err := toDocument("u1", domain.EmptyUserProfile(), time.Now())
	require.NoError(t, err)

	stored, err := toStored(doc)
	require.NoError(t, err)
	assert.True(t, stored.Profile.IsEmpty())
	assert.NotNil(t, stored.Profile.StyleClusters)
}
