package document

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/zombor/idscan/internal/extract"
)

//go:embed profiles/profile.schema.json
var profileSchemaJSON string

//go:embed profiles/*.json
var builtinProfileFS embed.FS

var profileSchema = jsonschema.MustCompileString("profile.schema.json", profileSchemaJSON)

// Profile bundles the validation and extraction configuration for one
// document type.
type Profile struct {
	Name string `json:"name"`
	// Keywords drive document type validation; MatchThreshold overrides the
	// default fraction of them that must appear.
	Keywords       []string `json:"keywords"`
	MatchThreshold float64  `json:"match_threshold,omitempty"`
	// NoiseWords extend the boilerplate vocabulary with terms specific to
	// this document type that must never be mistaken for field values.
	NoiseWords []string            `json:"noise_words,omitempty"`
	Fields     []extract.FieldSpec `json:"fields"`
}

// Validate checks the constraints the JSON schema shares with profiles
// built directly in code.
func (p *Profile) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return errors.New("profile name is required")
	}
	if len(p.Keywords) == 0 {
		return errors.New("profile needs at least one keyword")
	}
	if p.MatchThreshold < 0 || p.MatchThreshold > 1 {
		return fmt.Errorf("match threshold %v outside [0, 1]", p.MatchThreshold)
	}
	if len(p.Fields) == 0 {
		return errors.New("profile needs at least one field")
	}
	for i, field := range p.Fields {
		if err := field.Validate(); err != nil {
			return fmt.Errorf("field %d: %w", i, err)
		}
	}
	return nil
}

// ParseProfile validates raw JSON against the profile schema and decodes
// it.
func ParseProfile(data []byte) (*Profile, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing profile json: %w", err)
	}
	if err := profileSchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("profile does not match schema: %w", err)
	}

	var profile Profile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("decoding profile: %w", err)
	}
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	return &profile, nil
}

// ProfileStore resolves profiles by name: embedded built-ins first, then
// custom profiles persisted in the database. Built-ins cannot be replaced
// or deleted.
type ProfileStore struct {
	db       DB
	builtins map[string]*Profile
}

// NewProfileStore loads the embedded built-in profiles and wires the store
// to the database holding custom ones.
func NewProfileStore(db DB) (*ProfileStore, error) {
	builtins, err := loadBuiltinProfiles()
	if err != nil {
		return nil, err
	}
	return &ProfileStore{db: db, builtins: builtins}, nil
}

func loadBuiltinProfiles() (map[string]*Profile, error) {
	entries, err := builtinProfileFS.ReadDir("profiles")
	if err != nil {
		return nil, fmt.Errorf("reading embedded profiles: %w", err)
	}

	builtins := make(map[string]*Profile, len(entries))
	for _, entry := range entries {
		if entry.Name() == "profile.schema.json" {
			continue
		}
		data, err := builtinProfileFS.ReadFile("profiles/" + entry.Name())
		if err != nil {
			return nil, fmt.Errorf("reading embedded profile %s: %w", entry.Name(), err)
		}
		profile, err := ParseProfile(data)
		if err != nil {
			return nil, fmt.Errorf("embedded profile %s: %w", entry.Name(), err)
		}
		builtins[profile.Name] = profile
	}
	return builtins, nil
}

// IsBuiltin reports whether the name belongs to an embedded profile.
func (s *ProfileStore) IsBuiltin(name string) bool {
	_, ok := s.builtins[name]
	return ok
}

// Get returns the named profile, preferring built-ins over custom ones.
func (s *ProfileStore) Get(name string) (*Profile, error) {
	if profile, ok := s.builtins[name]; ok {
		return profile, nil
	}
	return s.db.GetProfile(name)
}

// List returns all profiles, built-in and custom, sorted by name.
func (s *ProfileStore) List() ([]*Profile, error) {
	customs, err := s.db.ListProfiles()
	if err != nil {
		return nil, err
	}

	profiles := make([]*Profile, 0, len(s.builtins)+len(customs))
	for _, profile := range s.builtins {
		profiles = append(profiles, profile)
	}
	for _, profile := range customs {
		if !s.IsBuiltin(profile.Name) {
			profiles = append(profiles, profile)
		}
	}
	sort.Slice(profiles, func(i, j int) bool { return profiles[i].Name < profiles[j].Name })
	return profiles, nil
}

// Save persists a custom profile. Built-in names are refused.
func (s *ProfileStore) Save(profile *Profile) error {
	if s.IsBuiltin(profile.Name) {
		return fmt.Errorf("built-in profile %q cannot be replaced", profile.Name)
	}
	return s.db.SaveProfile(profile)
}

// Delete removes a custom profile. Built-in names are refused.
func (s *ProfileStore) Delete(name string) error {
	if s.IsBuiltin(name) {
		return fmt.Errorf("built-in profile %q cannot be deleted", name)
	}
	return s.db.DeleteProfile(name)
}
