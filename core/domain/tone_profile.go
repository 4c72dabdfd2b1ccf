package domain

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"
)

const distributionSuffix = "_distribution"

// AggregatedProfile is a majority/average summary over many ToneAxes records.
//
// It serializes to the flat artifact shape shared with stored profiles:
//
//	{"formality": "informal", "formality_distribution": {"informal": 70.0, "formal": 30.0},
//	 "readability": 8.42, "readability_min": 3.1, "readability_max": 12.9, "email_count": 10, ...}
type AggregatedProfile struct {
	// Values holds the majority value per categorical axis. A missing entry serializes as null.
	Values map[Axis]string
	// Distributions holds value -> percentage (one decimal) per categorical axis.
	Distributions map[Axis]map[string]float64

	Readability    *float64
	ReadabilityMin *float64
	ReadabilityMax *float64

	EmailCount int
}

// Value returns the majority value for a categorical axis, "" when unknown.
func (p AggregatedProfile) Value(axis Axis) string {
	if p.Values == nil {
		return ""
	}
	return p.Values[axis]
}

// Distribution returns the value -> percentage map for a categorical axis.
func (p AggregatedProfile) Distribution(axis Axis) map[string]float64 {
	if p.Distributions == nil {
		return nil
	}
	return p.Distributions[axis]
}

// IsEmpty reports whether the profile was built from no records.
func (p AggregatedProfile) IsEmpty() bool {
	return p.EmailCount == 0 && len(p.Values) == 0 && p.Readability == nil
}

// AsToneAxes projects the majority values back onto a ToneAxes record.
func (p AggregatedProfile) AsToneAxes() ToneAxes {
	var t ToneAxes
	for _, axis := range CategoricalAxes {
		t.SetValue(axis, p.Value(axis))
	}
	t.Readability = p.Readability
	return t
}

func (p AggregatedProfile) MarshalJSON() ([]byte, error) {
	if p.IsEmpty() {
		return []byte("{}"), nil
	}

	out := make(map[string]any, len(CategoricalAxes)*2+4)
	for _, axis := range CategoricalAxes {
		if v, ok := p.Values[axis]; ok && v != "" {
			out[string(axis)] = v
		} else {
			out[string(axis)] = nil
		}
		if dist := p.Distribution(axis); len(dist) > 0 {
			out[string(axis)+distributionSuffix] = dist
		}
	}

	out[string(AxisReadability)] = p.Readability
	if p.ReadabilityMin != nil {
		out["readability_min"] = *p.ReadabilityMin
	}
	if p.ReadabilityMax != nil {
		out["readability_max"] = *p.ReadabilityMax
	}
	out["email_count"] = p.EmailCount

	return json.Marshal(out)
}

func (p *AggregatedProfile) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("aggregated profile: %w", err)
	}

	*p = AggregatedProfile{
		Values:        make(map[Axis]string),
		Distributions: make(map[Axis]map[string]float64),
	}

	for key, msg := range raw {
		switch {
		case key == string(AxisReadability):
			p.Readability = decodeOptionalFloat(msg)
		case key == "readability_min":
			p.ReadabilityMin = decodeOptionalFloat(msg)
		case key == "readability_max":
			p.ReadabilityMax = decodeOptionalFloat(msg)
		case key == "email_count":
			_ = json.Unmarshal(msg, &p.EmailCount)
		case strings.HasSuffix(key, distributionSuffix):
			var dist map[string]float64
			if err := json.Unmarshal(msg, &dist); err == nil && len(dist) > 0 {
				p.Distributions[Axis(strings.TrimSuffix(key, distributionSuffix))] = dist
			}
		default:
			var v string
			if err := json.Unmarshal(msg, &v); err == nil && v != "" {
				p.Values[Axis(key)] = v
			}
		}
	}
	return nil
}

func decodeOptionalFloat(msg json.RawMessage) *float64 {
	var v *float64
	if err := json.Unmarshal(msg, &v); err != nil {
		return nil
	}
	return v
}

// ReadabilityStats summarizes the readability values of a cluster.
type ReadabilityStats struct {
	Mean      float64    `json:"mean"`
	Median    float64    `json:"median"`
	StdDev    float64    `json:"std_dev"`
	Variance  float64    `json:"variance"`
	Range     float64    `json:"range"`
	Quartiles [3]float64 `json:"quartiles"`
}

// AxisPattern is the value distribution of one categorical axis inside a cluster.
// Frequencies are fractions in 0..1.
type AxisPattern struct {
	MostCommon   string             `json:"most_common"`
	Frequency    float64            `json:"frequency"`
	Distribution map[string]float64 `json:"distribution"`
}

// PatternAxes are the axes reported as <axis>_pattern in cluster features.
var PatternAxes = []Axis{
	AxisFormality,
	AxisPoliteness,
	AxisGreeting,
	AxisClosing,
	AxisEmojiUsage,
	AxisPassiveVoice,
}

// ClusterFeatures holds distributional statistics for one style cluster.
type ClusterFeatures struct {
	ReadabilityStats    *ReadabilityStats `json:"readability_stats,omitempty"`
	FormalityPattern    *AxisPattern      `json:"formality_pattern,omitempty"`
	PolitenessPattern   *AxisPattern      `json:"politeness_pattern,omitempty"`
	GreetingPattern     *AxisPattern      `json:"greeting_pattern,omitempty"`
	ClosingPattern      *AxisPattern      `json:"closing_pattern,omitempty"`
	EmojiUsagePattern   *AxisPattern      `json:"emoji_usage_pattern,omitempty"`
	PassiveVoicePattern *AxisPattern      `json:"passive_voice_pattern,omitempty"`

	// EmotionDirectness maps emotion -> directness -> row-normalized fraction.
	EmotionDirectness map[string]map[string]float64 `json:"emotion_directness_correlation,omitempty"`
}

// Pattern returns the pattern recorded for an axis.
func (f *ClusterFeatures) Pattern(axis Axis) *AxisPattern {
	switch axis {
	case AxisFormality:
		return f.FormalityPattern
	case AxisPoliteness:
		return f.PolitenessPattern
	case AxisGreeting:
		return f.GreetingPattern
	case AxisClosing:
		return f.ClosingPattern
	case AxisEmojiUsage:
		return f.EmojiUsagePattern
	case AxisPassiveVoice:
		return f.PassiveVoicePattern
	}
	return nil
}

// SetPattern records the pattern for an axis. Axes outside PatternAxes are ignored.
func (f *ClusterFeatures) SetPattern(axis Axis, p *AxisPattern) {
	switch axis {
	case AxisFormality:
		f.FormalityPattern = p
	case AxisPoliteness:
		f.PolitenessPattern = p
	case AxisGreeting:
		f.GreetingPattern = p
	case AxisClosing:
		f.ClosingPattern = p
	case AxisEmojiUsage:
		f.EmojiUsagePattern = p
	case AxisPassiveVoice:
		f.PassiveVoicePattern = p
	}
}

// StyleCluster is a data-driven group of emails sharing similar tone axes.
// ID is the raw k-means label and is not stable across aggregation runs.
type StyleCluster struct {
	ID          int               `json:"id"`
	Size        int               `json:"size"`
	Percentage  float64           `json:"percentage"`
	Profile     AggregatedProfile `json:"profile"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Features    ClusterFeatures   `json:"features"`
}

// UserProfile is the aggregated writing-style profile of one user.
// It is recomputed from the full tone-axes history on every aggregation.
type UserProfile struct {
	MainProfile   AggregatedProfile `json:"main_profile"`
	StyleClusters []StyleCluster    `json:"style_clusters"`
	EmailCount    int               `json:"email_count"`
}

// EmptyUserProfile returns the profile of a user with no analyzed emails.
func EmptyUserProfile() UserProfile {
	return UserProfile{StyleClusters: []StyleCluster{}}
}

// IsEmpty reports whether the profile carries no data.
func (p UserProfile) IsEmpty() bool {
	return p.EmailCount == 0 && p.MainProfile.IsEmpty()
}
