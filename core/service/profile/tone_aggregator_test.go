package profile

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tone_server/core/domain"
	"tone_server/pkg/logger"
)

func ptr(v float64) *float64 { return &v }

func newAggregator() *Aggregator {
	return NewAggregator(domain.DefaultThresholds(), logger.Nop())
}

func formalRecord() domain.ToneAxes {
	return domain.ToneAxes{
		Formality: domain.Formal, Politeness: domain.Polite, Certainty: domain.Certain,
		Greeting: domain.Present, Closing: domain.Present, EmojiUsage: domain.EmojiNone,
		PassiveVoice: domain.Present, Emotion: domain.EmotionNeutral, Directness: domain.Indirect,
		SubjectivityLevel: domain.Objective, Readability: ptr(12),
	}
}

func informalRecord() domain.ToneAxes {
	return domain.ToneAxes{
		Formality: domain.Informal, Politeness: domain.Blunt, Certainty: domain.Hedged,
		Greeting: domain.Absent, Closing: domain.Absent, EmojiUsage: domain.EmojiSome,
		PassiveVoice: domain.Absent, Emotion: domain.EmotionPositive, Directness: domain.Direct,
		SubjectivityLevel: domain.Personal, Readability: ptr(3),
	}
}

func TestAggregate_Empty(t *testing.T) {
	p := newAggregator().Aggregate(nil)

	assert.True(t, p.IsEmpty())
	assert.NotNil(t, p.StyleClusters)
	assert.Empty(t, p.StyleClusters)

	data, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"main_profile": {}, "style_clusters": [], "email_count": 0}`, string(data))
}

func TestAggregate_MajorityAndDistribution(t *testing.T) {
	var records []domain.ToneAxes
	for i := 0; i < 7; i++ {
		records = append(records, domain.ToneAxes{Formality: domain.Informal})
	}
	for i := 0; i < 3; i++ {
		records = append(records, domain.ToneAxes{Formality: domain.Formal})
	}

	p := newAggregator().Aggregate(records)

	assert.Equal(t, 10, p.EmailCount)
	assert.Equal(t, 10, p.MainProfile.EmailCount)
	assert.Equal(t, domain.Informal, p.MainProfile.Value(domain.AxisFormality))
	assert.Equal(t, map[string]float64{"informal": 70.0, "formal": 30.0}, p.MainProfile.Distribution(domain.AxisFormality))
	assert.Nil(t, p.MainProfile.Readability)

	data, err := json.Marshal(p.MainProfile)
	require.NoError(t, err)
	var flat map[string]any
	require.NoError(t, json.Unmarshal(data, &flat))
	assert.Equal(t, "informal", flat["formality"])
	assert.Equal(t, map[string]any{"informal": 70.0, "formal": 30.0}, flat["formality_distribution"])
	assert.Contains(t, flat, "politeness")
	assert.Nil(t, flat["politeness"])
}

func TestAggregateToneAxes_TieGoesToFirstSeen(t *testing.T) {
	records := []domain.ToneAxes{
		{Emotion: domain.EmotionNegative},
		{Emotion: domain.EmotionPositive},
		{Emotion: domain.EmotionPositive},
		{Emotion: domain.EmotionNegative},
	}

	for i := 0; i < 3; i++ {
		p := AggregateToneAxes(records)
		assert.Equal(t, domain.EmotionNegative, p.Value(domain.AxisEmotion))
		assert.Equal(t, map[string]float64{"negative": 50.0, "positive": 50.0}, p.Distribution(domain.AxisEmotion))
	}
}

func TestAggregateToneAxes_Readability(t *testing.T) {
	records := []domain.ToneAxes{
		{Readability: ptr(8.123)},
		{Readability: nil},
		{Readability: ptr(4.5)},
		{Readability: ptr(10.2)},
	}

	p := AggregateToneAxes(records)
	require.NotNil(t, p.Readability)
	assert.Equal(t, 7.61, *p.Readability)
	assert.Equal(t, 4.5, *p.ReadabilityMin)
	assert.Equal(t, 10.2, *p.ReadabilityMax)
	assert.Equal(t, 4, p.EmailCount)
}

func TestAggregate_SingleRecordSkipsClustering(t *testing.T) {
	p := newAggregator().Aggregate([]domain.ToneAxes{formalRecord()})

	assert.Equal(t, 1, p.EmailCount)
	assert.NotNil(t, p.StyleClusters)
	assert.Empty(t, p.StyleClusters)
	assert.Equal(t, domain.Formal, p.MainProfile.Value(domain.AxisFormality))
	assert.Equal(t, 12.0, *p.MainProfile.Readability)
}

func TestAggregate_TwoStyles(t *testing.T) {
	var records []domain.ToneAxes
	for i := 0; i < 5; i++ {
		records = append(records, formalRecord(), informalRecord())
	}

	p := newAggregator().Aggregate(records)

	require.Len(t, p.StyleClusters, 2)
	names := map[string]int{}
	for _, c := range p.StyleClusters {
		names[c.Name] = c.Size
		assert.Equal(t, 50.0, c.Percentage)
		assert.Equal(t, c.Size, c.Profile.EmailCount)
		assert.NotEmpty(t, c.Description)
	}
	assert.Equal(t, map[string]int{"Formal Business Style": 5, "Informal Direct Style": 5}, names)
}

func TestAggregate_IdenticalRecordsFallBackToDefaultK(t *testing.T) {
	records := make([]domain.ToneAxes, 6)
	for i := range records {
		records[i] = informalRecord()
	}

	a := newAggregator()
	assert.Equal(t, 3, a.chooseK(encode(records)))

	p := a.Aggregate(records)
	require.Len(t, p.StyleClusters, 1)
	assert.Equal(t, 6, p.StyleClusters[0].Size)
	assert.Equal(t, 100.0, p.StyleClusters[0].Percentage)
}

func TestAggregate_Invariants(t *testing.T) {
	a := newAggregator()
	pool := []domain.ToneAxes{
		formalRecord(),
		informalRecord(),
		{Formality: domain.Informal, Emotion: domain.EmotionFrustrated, Directness: domain.Direct, Readability: ptr(6.5)},
		{Formality: domain.Formal, Emotion: domain.EmotionNeutral, PassiveVoice: domain.Present},
		{Formality: domain.Informal, EmojiUsage: domain.EmojiHigh, Readability: ptr(95)},
	}

	for n := 2; n <= 12; n++ {
		records := make([]domain.ToneAxes, n)
		for i := range records {
			records[i] = pool[(i*3+n)%len(pool)]
		}

		p := a.Aggregate(records)
		assert.Equal(t, n, p.EmailCount, "n=%d", n)
		assert.Equal(t, n, p.MainProfile.EmailCount, "n=%d", n)

		total := 0
		for i, c := range p.StyleClusters {
			total += c.Size
			if i > 0 {
				assert.GreaterOrEqual(t, p.StyleClusters[i-1].Size, c.Size)
			}
			assert.Contains(t, clusterDescriptions, c.Name)
		}
		assert.Equal(t, n, total, "n=%d", n)

		again := a.Aggregate(records)
		assert.Equal(t, p, again, "n=%d", n)
	}
}

func TestFindElbow(t *testing.T) {
	ks := []float64{1, 2, 3, 4, 5}

	k, err := findElbow(ks, []float64{100, 30, 20, 15, 12}, 1.0)
	require.NoError(t, err)
	assert.Equal(t, 2.0, k)

	_, err = findElbow(ks, []float64{5, 4, 3, 2, 1}, 1.0)
	assert.ErrorIs(t, err, errNoElbow)

	_, err = findElbow(ks, []float64{0, 0, 0, 0, 0}, 1.0)
	assert.ErrorIs(t, err, errNoElbow)

	_, err = findElbow([]float64{1}, []float64{3}, 1.0)
	assert.ErrorIs(t, err, errNoElbow)
}

func TestKMeans_SeededAndSeparating(t *testing.T) {
	x := [][]float64{{0, 0}, {0.1, 0}, {0, 0.1}, {5, 5}, {5.1, 5}, {5, 5.1}}
	cfg := kmeansConfig{k: 2, seed: 42, nInit: 10, maxIter: 300, tolerance: 1e-4}

	first, err := kmeans(x, cfg)
	require.NoError(t, err)
	second, err := kmeans(x, cfg)
	require.NoError(t, err)

	assert.Equal(t, first.labels, second.labels)
	assert.Equal(t, first.labels[0], first.labels[1])
	assert.Equal(t, first.labels[0], first.labels[2])
	assert.Equal(t, first.labels[3], first.labels[4])
	assert.NotEqual(t, first.labels[0], first.labels[3])
	assert.InDelta(t, 0.0267, first.inertia, 1e-3)

	_, err = kmeans(x, kmeansConfig{k: 7})
	assert.Error(t, err)
}
