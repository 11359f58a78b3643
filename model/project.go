package model

import (
	"bytes"
	"strconv"
	"time"
)

// Duration bounds for a single generation. Requests outside the range are
// clamped, never rejected.
const (
	MinDurationSeconds     = 1
	MaxDurationSeconds     = 300
	DefaultDurationSeconds = 30
)

// ProjectRecord is the persisted result of one successful generation.
// Written exactly once by the orchestrator; there is no update path.
type ProjectRecord struct {
	ID        int64     `json:"-" gorm:"primaryKey;autoIncrement"`
	ProjectID string    `json:"project_id" gorm:"type:varchar(36);uniqueIndex;not null"`
	Prompt    string    `json:"prompt" gorm:"type:text;not null"`
	AudioURL  string    `json:"audio_url" gorm:"type:varchar(767);not null"`
	VideoURL  string    `json:"video_url" gorm:"type:varchar(767);not null"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
}

// TableName keeps the table name stable regardless of GORM pluralization rules.
func (ProjectRecord) TableName() string {
	return "projects"
}

// FlexibleDuration accepts a JSON number, a numeric string, or garbage.
// Anything unparsable decodes to zero, which Normalize treats as "use default".
type FlexibleDuration int

// UnmarshalJSON never fails: invalid input is coerced to zero so the request
// as a whole still validates and the duration falls back to the default.
func (d *FlexibleDuration) UnmarshalJSON(data []byte) error {
	s := string(bytes.Trim(bytes.TrimSpace(data), `"`))
	if s == "" || s == "null" {
		*d = 0
		return nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		*d = FlexibleDuration(int(f))
	} else {
		*d = 0
	}
	return nil
}

// Normalize clamps the duration into [MinDurationSeconds, MaxDurationSeconds].
// Zero (absent or invalid input) maps to the default.
func (d FlexibleDuration) Normalize() int {
	seconds := int(d)
	if seconds == 0 {
		return DefaultDurationSeconds
	}
	if seconds < MinDurationSeconds {
		return MinDurationSeconds
	}
	if seconds > MaxDurationSeconds {
		return MaxDurationSeconds
	}
	return seconds
}

// GenerationRequest is the inbound body of POST /api/generate.
type GenerationRequest struct {
	Prompt             string           `json:"prompt"`
	Genres             []string         `json:"genres"`
	ArtistInspiration  string           `json:"artist_inspiration"`
	Description        string           `json:"description"`
	Duration           FlexibleDuration `json:"duration"`
}

// GenerationResult is what a completed pipeline run returns to the caller.
type GenerationResult struct {
	ProjectID string    `json:"project_id"`
	Prompt    string    `json:"prompt"`
	AudioURL  string    `json:"audio_url"`
	VideoURL  string    `json:"video_url"`
	CreatedAt time.Time `json:"created_at"`
}
