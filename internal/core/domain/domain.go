// Package domain holds the core types shared across the trend-radar
// pipeline: catalog entities, raw events, signals, daily aggregates and
// the emerging analysis artifact.
package domain

import "time"

// Source family names. These are a closed vocabulary: every raw event and
// signal is tagged with one of them, and interpretation dispatches on them.
const (
	SourceReviews       = "reviews"
	SourceDiscussions   = "discussions"
	SourceVideos        = "videos"
	SourceAnnouncements = "announcements"
)

// Alias types, ordered by how much trust an exact hit earns.
const (
	AliasOfficial = "official"
	AliasCommon   = "common"
	AliasAbbrev   = "abbrev"
	AliasShort    = "short"
)

// Entity is a catalog entity being tracked (a game, a ticker, any subject).
type Entity struct {
	ID          int64
	Name        string
	ExternalRef string
	ReleaseDate *time.Time
	IsActive    bool
	CreatedAt   time.Time
}

// AliasEntry is a single alias for an entity. Read-only reference data,
// many aliases per entity.
type AliasEntry struct {
	EntityID  int64
	Alias     string
	AliasType string
	Weight    int
}

// RawEvent is the canonical ingested event. Match fields are written once
// by the matcher and never overwritten except by an explicit re-match pass.
type RawEvent struct {
	ID              int64
	Source          string
	ExternalID      string
	URL             string
	Title           string
	Body            string
	Metrics         map[string]any
	PublishedAt     *time.Time
	CapturedAt      time.Time
	MatchedEntityID *int64
	MatchConfidence *float64
	MatchReason     string
}

// Signal is one numeric or text reading for (entity, source, signal_type).
// Aggregation reads the latest value per day.
type Signal struct {
	EntityID     int64
	Source       string
	SignalType   string
	ValueNumeric *float64
	ValueText    string
	CapturedAt   time.Time
}

// Signal types emitted by the events-to-signals rollup and the job handlers.
const (
	SignalReviewsTotal   = "reviews_total"
	SignalPositiveRatio  = "positive_ratio"
	SignalPosts7d        = "posts_7d"
	SignalVelocity       = "velocity"
	SignalComments7d     = "comments_7d"
	SignalCommunities    = "communities"
	SignalViews7d        = "views_7d"
	SignalChannelQuality = "channel_quality"
)

// DailyAggregate is one per-entity per-day rollup. Every delta is either a
// real computed value or nil; nil means "unknown", never zero.
type DailyAggregate struct {
	EntityID           int64
	Day                time.Time
	ReviewsTotal       *int
	ReviewsDelta1d     *int
	ReviewsDelta7d     *int
	DiscussionsDelta1d *int
	DiscussionsDelta7d *int
	PositiveRatio      *float64
	Tags               []string
	WhyFlagged         []string
	ComputedAt         time.Time
}

// EvidenceEvent is one concrete event cited in a why-now explanation.
type EvidenceEvent struct {
	Source      string    `json:"source"`
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	PublishedAt time.Time `json:"published_at"`
}

// ScoreComponents are the strictly separated score bands.
type ScoreComponents struct {
	Confirmation float64 `json:"confirmation"`
	Momentum     float64 `json:"momentum"`
	Catalyst     float64 `json:"catalyst"`
	Penalty      float64 `json:"penalty"`
}

// EmergingAnalysis is the externally consumed artifact of one analysis run.
// Produced fresh each run, superseded by the next run's output.
type EmergingAnalysis struct {
	EntityID        int64
	Name            string
	Day             time.Time
	Score           float64
	Verdict         string
	Explanation     []string
	ConfidenceScore int
	ConfidenceLevel string
	Stage           string
	LifecycleStage  string
	GrowthType      string
	WhyNow          string
	Evidence        []EvidenceEvent
	SignalsUsed     []string
	Components      ScoreComponents
	CreatedAt       time.Time
}

// Confidence levels.
const (
	ConfidenceLow    = "LOW"
	ConfidenceMedium = "MEDIUM"
	ConfidenceHigh   = "HIGH"
)

// Momentum stages. A stateless per-run classification, not a transition
// machine.
const (
	StageEarly      = "EARLY"
	StageConfirming = "CONFIRMING"
	StageBreakout   = "BREAKOUT"
	StageNoise      = "NOISE"
	StageExcluded   = "EXCLUDED"
)

// Lifecycle stages, derived from entity age and cumulative volume, not from
// the current signal mix.
const (
	LifecyclePreRelease        = "PRE_RELEASE"
	LifecycleSoftLaunch        = "SOFT_LAUNCH"
	LifecycleBreakout          = "BREAKOUT"
	LifecycleGrowth            = "GROWTH"
	LifecycleMaturity          = "MATURITY"
	LifecycleDecline           = "DECLINE"
	LifecycleRelaunchCandidate = "RELAUNCH_CANDIDATE"
)

// Growth types classify why the score moved.
const (
	GrowthOrganic        = "ORGANIC"
	GrowthHype           = "HYPE"
	GrowthNewsDriven     = "NEWS_DRIVEN"
	GrowthPlatformDriven = "PLATFORM_DRIVEN"
	GrowthMixed          = "MIXED"
)

// Verdicts. A closed vocabulary; no caller may invent new values.
const (
	VerdictEvergreenExcluded = "Evergreen giant (excluded)"
	VerdictStrongOrganic     = "Strong organic growth"
	VerdictHypeSpike         = "Hype spike"
	VerdictHighScore         = "High score"
	VerdictNewRelease        = "Promising new release"
	VerdictRediscovered      = "Rediscovered classic"
	VerdictModerateGrowth    = "Moderate growth"
	VerdictWeakSignal        = "Weak signal"
	VerdictLimitedData       = "Limited data"
	VerdictStoreOnly         = "Store growth only (no community signal)"
	VerdictEarlySignal       = "Early signal (needs store confirmation)"
)

// Job statuses for the ingest job queue.
const (
	JobQueued     = "queued"
	JobProcessing = "processing"
	JobSuccess    = "success"
	JobFailed     = "failed"
)

// Job is one unit of ingest work picked from the queue.
type Job struct {
	ID        int64
	JobType   string
	Payload   []byte
	Status    string
	Attempts  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Alert kinds surfaced to the notification collaborator.
const (
	AlertCatalyst = "catalyst"
	AlertBreakout = "breakout"
)

// Alert is a structured notification condition detected during a run.
type Alert struct {
	ID        int64
	EntityID  int64
	Kind      string
	Message   string
	Day       time.Time
	CreatedAt time.Time
}
