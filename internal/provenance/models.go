package provenance

import (
	"encoding/json"
	"strings"
	"time"
)

// DiscoveredStatus is the reconciliation state of a file seen on disk.
type DiscoveredStatus string

const (
	StatusOrganized   DiscoveredStatus = "organized"
	StatusUnorganized DiscoveredStatus = "unorganized"
)

// Record is the durable provenance of one organized file. Every mutation
// bumps Version; the prior state is captured as a Snapshot first, so the
// full history from version 1 to current is reconstructable.
type Record struct {
	ID                  int64
	OriginalPath        string
	CurrentPath         string
	BackupPath          string
	OriginalName        string
	CurrentName         string
	TemplateID          string
	Category            string
	Title               string
	Tags                []string
	Summary             string
	ClassifierProvider  string
	ClassifierModel     string
	RawClassifierOutput string
	CreatedAt           time.Time
	UpdatedAt           time.Time
	Version             int
}

// Snapshot captures one historical state of a record.
type Snapshot struct {
	RecordID  int64
	Version   int
	Path      string
	Name      string
	Category  string
	Title     string
	Tags      []string
	Summary   string
	RawOutput string
	CreatedAt time.Time
}

// NewRecord carries the fields of a freshly organized file.
type NewRecord struct {
	OriginalPath        string
	CurrentPath         string
	BackupPath          string
	TemplateID          string
	Category            string
	Title               string
	Tags                []string
	Summary             string
	ClassifierProvider  string
	ClassifierModel     string
	RawClassifierOutput string
}

// RecordUpdate lists every updatable field as optional. Only non-nil fields
// change; everything else is carried over unchanged.
type RecordUpdate struct {
	CurrentPath         *string
	BackupPath          *string
	TemplateID          *string
	Category            *string
	Title               *string
	Tags                *[]string
	Summary             *string
	RawClassifierOutput *string
}

func (u RecordUpdate) apply(record *Record) {
	if u.CurrentPath != nil {
		record.CurrentPath = *u.CurrentPath
		record.CurrentName = baseName(*u.CurrentPath)
	}
	if u.BackupPath != nil {
		record.BackupPath = *u.BackupPath
	}
	if u.TemplateID != nil {
		record.TemplateID = *u.TemplateID
	}
	if u.Category != nil {
		record.Category = *u.Category
	}
	if u.Title != nil {
		record.Title = *u.Title
	}
	if u.Tags != nil {
		record.Tags = append([]string(nil), (*u.Tags)...)
	}
	if u.Summary != nil {
		record.Summary = *u.Summary
	}
	if u.RawClassifierOutput != nil {
		record.RawClassifierOutput = *u.RawClassifierOutput
	}
}

// DiscoveredFile reconciles what exists on disk with what the store believes.
type DiscoveredFile struct {
	ID             int64
	FilePath       string
	FileName       string
	Status         DiscoveredStatus
	DiscoveredAt   time.Time
	LastCheckedAt  time.Time
	FileSize       *int64
	FileModifiedAt *time.Time
	TemplateID     string
}

func encodeTags(tags []string) string {
	if len(tags) == 0 {
		return ""
	}
	data, err := json.Marshal(tags)
	if err != nil {
		return ""
	}
	return string(data)
}

func decodeTags(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var tags []string
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		return nil
	}
	return tags
}

func baseName(path string) string {
	if idx := strings.LastIndexByte(path, '/'); idx >= 0 {
		return path[idx+1:]
	}
	return path
}
