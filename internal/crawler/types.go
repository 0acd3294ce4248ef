// Package crawler contains the core pipeline types, strategy contracts and
// the orchestrator that drives URL discovery and detail processing.
package crawler

import "time"

// Platform identifies one external job-listing site the system ingests from.
type Platform string

// Supported platforms.
const (
	Platform104        Platform = "platform_104"
	Platform1111       Platform = "platform_1111"
	PlatformCakeresume Platform = "platform_cakeresume"
	PlatformYes123     Platform = "platform_yes123"
)

// Platforms returns every supported platform in a stable order.
func Platforms() []Platform {
	return []Platform{Platform104, Platform1111, PlatformCakeresume, PlatformYes123}
}

// Valid reports whether p is a known platform.
func (p Platform) Valid() bool {
	switch p {
	case Platform104, Platform1111, PlatformCakeresume, PlatformYes123:
		return true
	}
	return false
}

// JobStatus is the liveness state of a URL or job row.
type JobStatus string

const (
	StatusActive   JobStatus = "active"
	StatusInactive JobStatus = "inactive"
)

// CrawlStatus tracks the detail-crawl lifecycle of a URL.
// Transitions are PENDING -> {COMPLETED, FAILED} only.
type CrawlStatus string

const (
	CrawlPending   CrawlStatus = "pending"
	CrawlCompleted CrawlStatus = "completed"
	CrawlFailed    CrawlStatus = "failed"
)

// JobType is the normalized employment type of a listing.
type JobType string

const (
	JobTypeFullTime   JobType = "FULL_TIME"
	JobTypePartTime   JobType = "PART_TIME"
	JobTypeContract   JobType = "CONTRACT"
	JobTypeInternship JobType = "INTERNSHIP"
	JobTypeTemporary  JobType = "TEMPORARY"
)

// SalaryType is the normalized pay period of a listing.
type SalaryType string

const (
	SalaryMonthly    SalaryType = "MONTHLY"
	SalaryHourly     SalaryType = "HOURLY"
	SalaryYearly     SalaryType = "YEARLY"
	SalaryDaily      SalaryType = "DAILY"
	SalaryByCase     SalaryType = "BY_CASE"
	SalaryNegotiable SalaryType = "NEGOTIABLE"
)

// Item is one raw discovery record yielded while listing jobs for a category.
// Its shape varies per platform; it is used both to derive a URL and as
// replay metadata for the detail parser.
type Item map[string]any

// Category is a platform's taxonomy node. (Platform, SourceID) is unique.
type Category struct {
	ID             int64
	Platform       Platform
	SourceID       string
	Name           string
	ParentSourceID *string
}

// URLRecord is one promised-to-be-crawled page. The URL string itself is the
// primary key; DetailCrawledAt stays nil until the first detail attempt.
type URLRecord struct {
	URL             string
	Platform        Platform
	Status          JobStatus
	DetailStatus    CrawlStatus
	DiscoveredAt    time.Time
	UpdatedAt       time.Time
	DetailCrawledAt *time.Time
}

// Job is one normalized listing. (Platform, SourceJobID) is unique; upserts
// are keyed on that pair, not on URL.
type Job struct {
	ID             int64
	Platform       Platform
	SourceJobID    string
	URL            string
	Status         JobStatus
	Title          string
	Description    string
	JobType        JobType
	LocationText   string
	PostedAt       *time.Time
	SalaryText     string
	SalaryMin      *int
	SalaryMax      *int
	SalaryType     SalaryType
	ExperienceText string
	EducationText  string
	CompanyID      string
	CompanyName    string
	CompanyURL     string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// SyncResult reports the outcome of a bulk category sync.
type SyncResult struct {
	Submitted int64
	Affected  int64
}

// StatusCount is one row of the platform x crawl-status summary.
type StatusCount struct {
	Platform Platform
	Status   CrawlStatus
	Count    int64
}
