// Package domain defines the persistence models for claims, sources, and
// verification snapshots. These types are mapped with GORM and form the core
// data layer of the verification backend.
package domain

import (
	"time"

	"gorm.io/gorm"
)

// Claim statuses. A claim is created pending and transitions to verified
// exactly once per verification pass; re-verification keeps the status.
const (
	ClaimStatusPending  = "pending"
	ClaimStatusVerified = "verified"
)

// Claim represents a piece of text asserted as fact, subject to verification.
// Identity is content-addressed: two submissions whose normalized text hashes
// to the same digest are the same claim.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - Text: the raw claim text as submitted.
//   - TextHash: sha256 digest of the normalized text; unique, used for dedup.
//   - URL / Platform / Author: optional provenance metadata.
//   - Metadata: free-form submitter metadata, stored as JSON.
//   - Status: "pending" or "verified".
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
//   - DeletedAt: soft deletion marker (retains row for audit/history).
type Claim struct {
	ID        string            `json:"id"         gorm:"type:char(36);primaryKey"`
	Text      string            `json:"text"       gorm:"type:text;not null"`
	TextHash  string            `json:"text_hash"  gorm:"type:char(64);not null;uniqueIndex:ux_claim_text_hash"`
	URL       string            `json:"url,omitempty"      gorm:"type:varchar(2048)"`
	Platform  string            `json:"platform,omitempty" gorm:"type:varchar(64)"`
	Author    string            `json:"author,omitempty"   gorm:"type:varchar(255)"`
	Metadata  map[string]string `json:"metadata,omitempty" gorm:"serializer:json"`
	Status    string            `json:"status"     gorm:"type:varchar(16);not null;default:'pending';check:status IN ('pending','verified')"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
	DeletedAt gorm.DeletedAt    `json:"-"          gorm:"index"`
}

// TableName returns the database table name for Claim.
func (Claim) TableName() string { return "claims" }

// Source represents a publisher's accumulated reputation. CredibilityScore is
// recomputed from the verdict history after every recorded verification and
// always stays within [0,1]; BiasScore, when present, stays within [-1,1].
//
// FactCheckRecord maps a verdict bucket (true, false, mixed, unverifiable)
// to a monotonically non-decreasing count.
type Source struct {
	ID                string         `json:"id"                 gorm:"type:char(36);primaryKey"`
	Domain            string         `json:"domain"             gorm:"type:varchar(255);not null;uniqueIndex:ux_source_domain"`
	Name              string         `json:"name"               gorm:"type:varchar(255);not null"`
	URL               string         `json:"url,omitempty"      gorm:"type:varchar(2048)"`
	Category          string         `json:"category,omitempty" gorm:"type:varchar(64)"`
	Country           string         `json:"country,omitempty"  gorm:"type:varchar(64)"`
	CredibilityScore  float64        `json:"credibility_score"  gorm:"not null;default:0.5"`
	BiasScore         *float64       `json:"bias_score,omitempty"`
	FactCheckRecord   map[string]int `json:"fact_check_record"  gorm:"serializer:json"`
	VerificationCount int            `json:"verification_count" gorm:"not null;default:0"`
	LastUpdated       time.Time      `json:"last_updated"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `json:"-" gorm:"index"`
}

// TableName returns the database table name for Source.
func (Source) TableName() string { return "sources" }

// NewFactCheckRecord returns an empty verdict-bucket histogram with all
// buckets present, matching the shape the source scorer expects.
func NewFactCheckRecord() map[string]int {
	return map[string]int{"true": 0, "false": 0, "mixed": 0, "unverifiable": 0}
}

// Snapshot is one append-only temporal record of a claim's verification.
// Past snapshots are never mutated; History reads them oldest first.
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - ClaimID: the verified claim (indexed together with ValidTime).
//   - Result: the full VerificationResult at that point in time, as JSON.
//   - ValidTime: when the verification became valid (defaults to write time).
type Snapshot struct {
	ID        string             `json:"id"         gorm:"type:char(36);primaryKey"`
	ClaimID   string             `json:"claim_id"   gorm:"type:char(36);not null;index:idx_claim_snapshots,priority:1"`
	Result    VerificationResult `json:"result"     gorm:"serializer:json"`
	ValidTime time.Time          `json:"valid_time" gorm:"index:idx_claim_snapshots,priority:2"`
	CreatedAt time.Time          `json:"created_at"`
}

// TableName returns the database table name for Snapshot.
func (Snapshot) TableName() string { return "claim_snapshots" }
