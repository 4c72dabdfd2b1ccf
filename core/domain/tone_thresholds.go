package domain

// Thresholds gathers every fixed scoring constant used by extraction,
// classification, aggregation and style validation.
type Thresholds struct {
	// Feature extraction
	ClosingWindow        int     // trailing characters searched for a closing
	FrustrationTone      float64 // frustration_score above this is "frustrated"
	ToneSentimentCutoff  float64 // |sentiment| above this counts as positive/negative tone
	FrustrationWordScore float64 // weight of each frustration lexicon hit
	ExclamationScore     float64 // weight of each exclamation mark
	NegativeSentimentMul float64 // weight of |sentiment| when sentiment < 0

	// Tone classification
	ContractionLimit        int     // fewer contractions than this votes formal
	LongSentence            float64 // avg sentence length above this votes formal
	FormalGrade             float64 // FK grade above this votes formal
	EmojiHigh               int     // emoji count above this is "high"
	SentimentPositive       float64 // sentiment above this is positive
	SentimentNegative       float64 // sentiment below this is negative
	FrustrationExclamations int     // exclamations above this may signal frustration
	FrustrationSentiment    float64 // sentiment below this may signal frustration
	DirectYouRatio          float64 // "you" ratio above this votes direct
	IndirectModalLimit      int     // modal count above this votes indirect
	IndirectHedgeLimit      int     // hedge count above this votes indirect
	PersonalSubjectivity    float64 // subjectivity above this is "personal"
	DefaultSubjectivity     float64 // subjectivity assumed when missing

	// Aggregation
	MaxClusters          int     // upper bound for automatic k selection
	DefaultClusters      int     // k used when no elbow is found
	MinClusterRecords    int     // clustering is skipped below this many records
	KMeansSeed           uint64  // fixed seed for reproducible clustering
	KMeansInit           int     // independent k-means restarts
	KMeansMaxIter        int     // Lloyd iterations per restart
	KMeansTolerance      float64 // center shift below this stops a restart
	ElbowSensitivity     float64 // kneedle S parameter
	UltraHighReadability float64 // cluster naming cutoff
	HighReadability      float64 // cluster naming cutoff

	// Style validation
	StyleMatchThreshold  float64 // overall match at or above this needs no revision
	ReadabilityTolerance float64 // grade levels of slack when comparing readability
}

// DefaultThresholds returns the documented production values.
func DefaultThresholds() Thresholds {
	return Thresholds{
		ClosingWindow:        100,
		FrustrationTone:      3,
		ToneSentimentCutoff:  0.2,
		FrustrationWordScore: 2,
		ExclamationScore:     0.5,
		NegativeSentimentMul: 2,

		ContractionLimit:        2,
		LongSentence:            15,
		FormalGrade:             10,
		EmojiHigh:               3,
		SentimentPositive:       0.2,
		SentimentNegative:       -0.2,
		FrustrationExclamations: 1,
		FrustrationSentiment:    -0.1,
		DirectYouRatio:          0.05,
		IndirectModalLimit:      3,
		IndirectHedgeLimit:      1,
		PersonalSubjectivity:    0.5,
		DefaultSubjectivity:     0.5,

		MaxClusters:          5,
		DefaultClusters:      3,
		MinClusterRecords:    2,
		KMeansSeed:           42,
		KMeansInit:           10,
		KMeansMaxIter:        300,
		KMeansTolerance:      1e-4,
		ElbowSensitivity:     1.0,
		UltraHighReadability: 300,
		HighReadability:      90,

		StyleMatchThreshold:  0.8,
		ReadabilityTolerance: 2.0,
	}
}
