package document

import (
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

const (
	scanBucketName    = "scans"
	profileBucketName = "profiles"
)

// DB defines the interface for database operations
type DB interface {
	// SaveScan saves a scan record to the database
	SaveScan(record *ScanRecord) error

	// GetScan retrieves a scan record by ID
	GetScan(id string) (*ScanRecord, error)

	// ListScans returns all scan records
	ListScans() ([]*ScanRecord, error)

	// DeleteScan removes a scan record from the database
	DeleteScan(id string) error

	// SaveProfile saves a custom profile to the database
	SaveProfile(profile *Profile) error

	// GetProfile retrieves a custom profile by name
	GetProfile(name string) (*Profile, error)

	// ListProfiles returns all custom profiles
	ListProfiles() ([]*Profile, error)

	// DeleteProfile removes a custom profile from the database
	DeleteProfile(name string) error

	// Close closes the database connection
	Close() error
}

// BoltDB implements the DB interface using BoltDB
type BoltDB struct {
	db *bbolt.DB
}

// NewBoltDB creates a new BoltDB instance
func NewBoltDB(path string) (*BoltDB, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	// Create buckets if they don't exist
	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(scanBucketName)); err != nil {
			return err
		}
		if _, err := tx.CreateBucketIfNotExists([]byte(profileBucketName)); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &BoltDB{db: db}, nil
}

// SaveScan saves a scan record to the database
func (b *BoltDB) SaveScan(record *ScanRecord) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(scanBucketName))
		data, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("marshaling scan record: %w", err)
		}
		return bucket.Put([]byte(record.ID), data)
	})
}

// GetScan retrieves a scan record by ID
func (b *BoltDB) GetScan(id string) (*ScanRecord, error) {
	var record *ScanRecord
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(scanBucketName))
		data := bucket.Get([]byte(id))
		if data == nil {
			return fmt.Errorf("scan not found: %s", id)
		}
		return json.Unmarshal(data, &record)
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// ListScans returns all scan records
func (b *BoltDB) ListScans() ([]*ScanRecord, error) {
	records := make([]*ScanRecord, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(scanBucketName))
		return bucket.ForEach(func(k, v []byte) error {
			var record ScanRecord
			if err := json.Unmarshal(v, &record); err != nil {
				return fmt.Errorf("unmarshaling scan record: %w", err)
			}
			records = append(records, &record)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// DeleteScan removes a scan record from the database
func (b *BoltDB) DeleteScan(id string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(scanBucketName))
		return bucket.Delete([]byte(id))
	})
}

// SaveProfile saves a custom profile to the database
func (b *BoltDB) SaveProfile(profile *Profile) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(profileBucketName))
		data, err := json.Marshal(profile)
		if err != nil {
			return fmt.Errorf("marshaling profile: %w", err)
		}
		return bucket.Put([]byte(profile.Name), data)
	})
}

// GetProfile retrieves a custom profile by name
func (b *BoltDB) GetProfile(name string) (*Profile, error) {
	var profile *Profile
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(profileBucketName))
		data := bucket.Get([]byte(name))
		if data == nil {
			return fmt.Errorf("profile not found: %s", name)
		}
		return json.Unmarshal(data, &profile)
	})
	if err != nil {
		return nil, err
	}
	return profile, nil
}

// ListProfiles returns all custom profiles
func (b *BoltDB) ListProfiles() ([]*Profile, error) {
	profiles := make([]*Profile, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(profileBucketName))
		return bucket.ForEach(func(k, v []byte) error {
			var profile Profile
			if err := json.Unmarshal(v, &profile); err != nil {
				return fmt.Errorf("unmarshaling profile: %w", err)
			}
			profiles = append(profiles, &profile)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return profiles, nil
}

// DeleteProfile removes a custom profile from the database
func (b *BoltDB) DeleteProfile(name string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(profileBucketName))
		if bucket.Get([]byte(name)) == nil {
			return fmt.Errorf("profile not found: %s", name)
		}
		return bucket.Delete([]byte(name))
	})
}

// Close closes the database connection
func (b *BoltDB) Close() error {
	return b.db.Close()
}
