package content

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"postpilot/app/database"
)

// Defaults applied to missing or invalid profile values.
const (
	DefaultMinWordCount          = 200
	DefaultContentFreshnessHours = 72
	DefaultMinRelevanceScore     = 0.7
	DefaultMinHoursBetweenPosts  = 4
	DefaultPostingFrequency      = "few_times_week"
	DefaultCheckInterval         = 3600
)

var validSourceTypes = map[string]bool{
	database.SourceTypeRSSFeed:    true,
	database.SourceTypeWebsite:    true,
	database.SourceTypeNewsletter: true,
	database.SourceTypeManual:     true,
	database.SourceTypeLinkedIn:   true,
}

var validFrequencies = map[string]bool{
	"multiple_daily": true,
	"daily":          true,
	"few_times_week": true,
	"weekly":         true,
}

// ProfileCache loads and caches user profiles from YAML files, one file
// per user.
type ProfileCache struct {
	profilesDir string
	cache       map[string]*Profile
	mu          sync.RWMutex
}

func NewProfileCache(profilesDir string) *ProfileCache {
	return &ProfileCache{
		profilesDir: profilesDir,
		cache:       make(map[string]*Profile),
	}
}

func (pc *ProfileCache) Run() error {
	if _, err := os.Stat(pc.profilesDir); os.IsNotExist(err) {
		return nil
	}

	files, err := filepath.Glob(filepath.Join(pc.profilesDir, "*.yml"))
	if err != nil {
		return fmt.Errorf("failed to find YML files: %w", err)
	}

	for _, file := range files {
		// Derive user name from filename (remove .yml extension)
		fileName := filepath.Base(file)
		userName := fileName[:len(fileName)-4]

		profile, err := pc.LoadProfile(userName)
		if err != nil {
			return fmt.Errorf("error loading %s: %w", file, err)
		}

		slog.Debug("Profile loaded", "user", userName, "sources", len(profile.Sources), "interests", len(profile.Interests))
	}

	return nil
}

func (pc *ProfileCache) LoadProfile(userName string) (*Profile, error) {
	profileFile := pc.getProfileFilePath(userName)
	profile, err := pc.parseProfile(profileFile)
	if err != nil {
		return nil, err
	}

	profile.Name = userName

	if err := pc.validateProfile(profile); err != nil {
		return nil, fmt.Errorf("invalid profile %s: %w", profileFile, err)
	}

	pc.mu.Lock()
	defer pc.mu.Unlock()
	pc.cache[profile.Name] = profile

	return profile, nil
}

func (pc *ProfileCache) GetProfile(userName string) (*Profile, error) {
	pc.mu.RLock()
	defer pc.mu.RUnlock()

	profile, ok := pc.cache[userName]
	if !ok {
		return nil, fmt.Errorf("profile for user '%s' not found", userName)
	}
	return profile, nil
}

func (pc *ProfileCache) GetProfiles() map[string]*Profile {
	pc.mu.RLock()
	defer pc.mu.RUnlock()

	profilesCopy := make(map[string]*Profile, len(pc.cache))
	for k, v := range pc.cache {
		profilesCopy[k] = v
	}
	return profilesCopy
}

func (pc *ProfileCache) GetProfileCount() int {
	pc.mu.RLock()
	defer pc.mu.RUnlock()
	return len(pc.cache)
}

// parseProfile reads the YAML file and applies documented defaults to
// missing or out-of-range values. Values of the wrong shape fail the
// parse; values of the right shape but invalid range fall back to
// defaults with a warning.
func (pc *ProfileCache) parseProfile(profileFile string) (*Profile, error) {
	data, err := os.ReadFile(profileFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var profile Profile
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if profile.MinWordCount <= 0 {
		profile.MinWordCount = DefaultMinWordCount
	}
	if profile.ContentFreshnessHours <= 0 {
		profile.ContentFreshnessHours = DefaultContentFreshnessHours
	}
	if profile.MinRelevanceScore <= 0 || profile.MinRelevanceScore > 1 {
		if profile.MinRelevanceScore != 0 {
			slog.Warn("Invalid min_relevance_score, using default", "file", profileFile, "value", profile.MinRelevanceScore)
		}
		profile.MinRelevanceScore = DefaultMinRelevanceScore
	}
	if profile.Posting.MinHoursBetweenPosts <= 0 {
		profile.Posting.MinHoursBetweenPosts = DefaultMinHoursBetweenPosts
	}
	if profile.Posting.Frequency == "" {
		profile.Posting.Frequency = DefaultPostingFrequency
	} else if !validFrequencies[profile.Posting.Frequency] {
		slog.Warn("Unknown posting frequency, using default", "file", profileFile, "value", profile.Posting.Frequency)
		profile.Posting.Frequency = DefaultPostingFrequency
	}

	for i := range profile.Sources {
		if profile.Sources[i].Type == "" {
			profile.Sources[i].Type = database.SourceTypeRSSFeed
		}
		if profile.Sources[i].CheckInterval <= 0 {
			profile.Sources[i].CheckInterval = DefaultCheckInterval
		}
	}

	return &profile, nil
}

func (pc *ProfileCache) validateProfile(profile *Profile) error {
	if profile == nil {
		return fmt.Errorf("profile is nil")
	}
	if profile.Name == "" {
		return fmt.Errorf("user name is required")
	}

	for i, source := range profile.Sources {
		if source.Name == "" {
			return fmt.Errorf("source at index %d has no name", i)
		}
		if !validSourceTypes[source.Type] {
			return fmt.Errorf("invalid source type at index %d: %s", i, source.Type)
		}
		if source.URL == "" && source.Type != database.SourceTypeManual && source.Type != database.SourceTypeLinkedIn {
			return fmt.Errorf("source '%s' requires a URL", source.Name)
		}
	}

	return nil
}

func (pc *ProfileCache) getProfileFilePath(userName string) string {
	return filepath.Join(pc.profilesDir, userName+".yml")
}
