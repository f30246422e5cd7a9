package document

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// IDGenerator generates unique IDs for scan records and capture sessions
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

// defaultIDGenerator generates random UUIDs
type defaultIDGenerator struct{}

func (g *defaultIDGenerator) Generate() string {
	return uuid.NewString()
}

// defaultTimeSource provides the current time
type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Service handles document scan operations
type Service struct {
	db          DB
	scanner     *Scanner
	storage     Storage
	profiles    *ProfileStore
	idGenerator IDGenerator
	timeSource  TimeSource
}

// NewService creates a new Service with default ID generator and time source
func NewService(db DB, scanner *Scanner, storage Storage, profiles *ProfileStore) *Service {
	return NewServiceWithDeps(db, scanner, storage, profiles, &defaultIDGenerator{}, &defaultTimeSource{})
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(db DB, scanner *Scanner, storage Storage, profiles *ProfileStore, idGen IDGenerator, timeSrc TimeSource) *Service {
	return &Service{
		db:          db,
		scanner:     scanner,
		storage:     storage,
		profiles:    profiles,
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

// sanitizeFilename cleans up a filename by removing special characters and truncating length
func sanitizeFilename(filename string) string {
	// Get the extension
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filename, ext)

	// Remove special characters, keep only alphanumeric, spaces, hyphens, and underscores
	reg := regexp.MustCompile(`[^a-zA-Z0-9\s\-_]`)
	base = reg.ReplaceAllString(base, "")

	// Replace multiple spaces with single space
	reg = regexp.MustCompile(`\s+`)
	base = reg.ReplaceAllString(base, " ")

	// Trim spaces
	base = strings.TrimSpace(base)

	// Truncate to reasonable length (50 chars for base, plus extension)
	maxLen := 50
	if len(base) > maxLen {
		base = base[:maxLen]
	}

	// If base is empty after sanitization, use a default
	if base == "" {
		base = "scan"
	}

	return base + ext
}

// ProcessScan stores the uploaded image, scans it against the named profile,
// and persists the outcome. Scan-level failures such as unreadable text or a
// document type mismatch are recorded inside the result, not returned as
// errors.
func (s *Service) ProcessScan(ctx context.Context, profileName, filename string, data []byte, contentType string) (*ScanRecord, error) {
	profile, err := s.profiles.Get(profileName)
	if err != nil {
		return nil, fmt.Errorf("resolving profile: %w", err)
	}

	// Generate unique ID
	id := s.idGenerator.Generate()
	now := s.timeSource.Now()

	// Sanitize filename to clean up phone-generated long filenames
	cleanFilename := sanitizeFilename(filename)

	// Save file to storage
	savedPath, err := s.storage.Save(fmt.Sprintf("%s_%s", id, cleanFilename), data)
	if err != nil {
		return nil, fmt.Errorf("saving file: %w", err)
	}

	result := s.scanner.ScanWithProfile(ctx, data, contentType, profile)

	record := &ScanRecord{
		ID:          id,
		Profile:     profile.Name,
		Filename:    savedPath,
		ContentType: contentType,
		Result:      result,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	// Save to database
	if err := s.db.SaveScan(record); err != nil {
		// Clean up file if database save fails
		s.storage.Delete(savedPath)
		return nil, fmt.Errorf("saving scan to database: %w", err)
	}

	return record, nil
}

// GetScan retrieves a scan record by ID
func (s *Service) GetScan(id string) (*ScanRecord, error) {
	record, err := s.db.GetScan(id)
	if err != nil {
		return nil, fmt.Errorf("getting scan: %w", err)
	}
	return record, nil
}

// ListScans returns all scan records
func (s *Service) ListScans() ([]*ScanRecord, error) {
	records, err := s.db.ListScans()
	if err != nil {
		return nil, fmt.Errorf("listing scans: %w", err)
	}
	return records, nil
}

// DeleteScan removes a scan record and its image file
func (s *Service) DeleteScan(id string) error {
	record, err := s.db.GetScan(id)
	if err != nil {
		return fmt.Errorf("getting scan for deletion: %w", err)
	}

	// Delete file
	if err := s.storage.Delete(record.Filename); err != nil {
		// Log error but continue with database deletion
		slog.Warn("Failed to delete file", "filename", record.Filename, "error", err)
	}

	// Delete from database
	if err := s.db.DeleteScan(id); err != nil {
		return fmt.Errorf("deleting scan from database: %w", err)
	}
	return nil
}

// GetScanImage retrieves the stored image for a scan
func (s *Service) GetScanImage(id string) ([]byte, string, error) {
	record, err := s.db.GetScan(id)
	if err != nil {
		return nil, "", fmt.Errorf("getting scan: %w", err)
	}

	data, err := s.storage.Get(record.Filename)
	if err != nil {
		return nil, "", fmt.Errorf("getting scan image: %w", err)
	}

	return data, record.ContentType, nil
}

// ExportScans renders every scan record into an XLSX workbook
func (s *Service) ExportScans() ([]byte, error) {
	records, err := s.db.ListScans()
	if err != nil {
		return nil, fmt.Errorf("listing scans for export: %w", err)
	}
	return exportWorkbook(records)
}

// GetProfile retrieves a profile by name
func (s *Service) GetProfile(name string) (*Profile, error) {
	return s.profiles.Get(name)
}

// ListProfiles returns all profiles, built-in and custom
func (s *Service) ListProfiles() ([]*Profile, error) {
	return s.profiles.List()
}

// IsBuiltinProfile reports whether the name belongs to an embedded profile
func (s *Service) IsBuiltinProfile(name string) bool {
	return s.profiles.IsBuiltin(name)
}

// CreateProfile validates raw profile JSON and persists it as a custom
// profile
func (s *Service) CreateProfile(data []byte) (*Profile, error) {
	profile, err := ParseProfile(data)
	if err != nil {
		return nil, err
	}
	if err := s.profiles.Save(profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// DeleteProfile removes a custom profile
func (s *Service) DeleteProfile(name string) error {
	return s.profiles.Delete(name)
}
