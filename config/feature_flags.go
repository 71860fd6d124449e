package config

import (
	"fmt"
	"hash/fnv"
	"os"
	"strconv"
	"strings"
	"sync"
)

// FeatureFlags manages feature toggles with gradual rollout support.
// Rollout assignment hashes the student ID, so a student keeps the same
// variant across sessions.
type FeatureFlags struct {
	mu sync.RWMutex

	features map[string]*Feature

	// Override rules (for testing/debugging)
	userOverrides map[string]map[string]bool // studentID -> feature -> enabled
}

// Feature represents a single feature flag.
type Feature struct {
	Name        string
	Description string
	Enabled     bool

	// Rollout percentage (0-100)
	RolloutPercent int
}

// FeatureContext provides context for feature flag evaluation.
type FeatureContext struct {
	StudentID string // student UUID
	IsAdmin   bool   // admin bypasses rollout gating
}

// Predefined feature flag names.
const (
	// === Progression Features ===
	FeatureCascadeOnComplete  = "progression.cascade_on_complete"  // auto-create week n+1
	FeatureCalibrationPrompt  = "progression.calibration_prompt"   // uncalibrated-topics check before completion
	FeatureCurrentWeekCache   = "progression.current_week_cache"   // Redis current-week cache
	FeatureSpecialWeekRepeats = "progression.special_week_repeats" // specials on special weeks

	// === Reassignment Features ===
	FeatureNoteCarryOver = "reassign.note_carry_over" // copy notes to the target week

	// === Badge Features ===
	FeatureBadgeEvaluation = "badges.evaluation" // call the badge service on completion

	// === Event Features ===
	FeatureRedisEventBridge = "events.redis_bridge" // mirror events onto Redis pub/sub
)

// LoadFeatureFlags loads feature flags from environment variables.
func LoadFeatureFlags() *FeatureFlags {
	ff := &FeatureFlags{
		features:      make(map[string]*Feature),
		userOverrides: make(map[string]map[string]bool),
	}

	ff.initializeDefaults()
	ff.loadFromEnvironment()

	return ff
}

// initializeDefaults sets up all features with default values.
func (ff *FeatureFlags) initializeDefaults() {
	ff.features[FeatureCascadeOnComplete] = &Feature{
		Name:           FeatureCascadeOnComplete,
		Description:    "Create the next regular week when one is completed",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureCalibrationPrompt] = &Feature{
		Name:           FeatureCalibrationPrompt,
		Description:    "Surface uncalibrated topics before a week is completed",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureCurrentWeekCache] = &Feature{
		Name:           FeatureCurrentWeekCache,
		Description:    "Cache current-week lookups in Redis",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureSpecialWeekRepeats] = &Feature{
		Name:           FeatureSpecialWeekRepeats,
		Description:    "Allow marking a special week as special again",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureNoteCarryOver] = &Feature{
		Name:           FeatureNoteCarryOver,
		Description:    "Copy daily notes to the target week on reassignment",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureBadgeEvaluation] = &Feature{
		Name:           FeatureBadgeEvaluation,
		Description:    "Notify the badge service after week completion",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureRedisEventBridge] = &Feature{
		Name:           FeatureRedisEventBridge,
		Description:    "Mirror domain events onto Redis pub/sub channels",
		Enabled:        false,
		RolloutPercent: 100,
	}
}

// loadFromEnvironment applies FEATURE_* environment overrides.
// The flag name maps to an env key by uppercasing and replacing separators:
// "badges.evaluation" becomes FEATURE_BADGES_EVALUATION.
func (ff *FeatureFlags) loadFromEnvironment() {
	for name, feature := range ff.features {
		envKey := featureNameToEnvKey(name)

		if val := os.Getenv(envKey); val != "" {
			if enabled, err := strconv.ParseBool(val); err == nil {
				feature.Enabled = enabled
			}
		}

		if val := os.Getenv(envKey + "_ROLLOUT"); val != "" {
			if percent, err := strconv.Atoi(val); err == nil && percent >= 0 && percent <= 100 {
				feature.RolloutPercent = percent
			}
		}
	}
}

// featureNameToEnvKey converts a feature name to its env override key.
func featureNameToEnvKey(name string) string {
	key := strings.NewReplacer(".", "_", "-", "_").Replace(name)
	return "FEATURE_" + strings.ToUpper(key)
}

// IsEnabled checks whether a feature is on for the given context.
func (ff *FeatureFlags) IsEnabled(featureName string, ctx *FeatureContext) bool {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	if ctx != nil {
		if overrides, ok := ff.userOverrides[ctx.StudentID]; ok {
			if enabled, ok := overrides[featureName]; ok {
				return enabled
			}
		}
	}

	feature, ok := ff.features[featureName]
	if !ok || !feature.Enabled {
		return false
	}

	if feature.RolloutPercent >= 100 {
		return true
	}
	if ctx == nil {
		return false
	}
	if ctx.IsAdmin {
		return true
	}

	return isInRollout(ctx.StudentID, featureName, feature.RolloutPercent)
}

// isInRollout deterministically assigns a student to a rollout bucket.
func isInRollout(studentID, featureName string, percent int) bool {
	if percent <= 0 || studentID == "" {
		return false
	}

	h := fnv.New32a()
	_, _ = h.Write([]byte(studentID + ":" + featureName))
	bucket := h.Sum32() % 100

	return int(bucket) < percent
}

// SetUserOverride forces a feature on or off for one student.
func (ff *FeatureFlags) SetUserOverride(studentID, featureName string, enabled bool) {
	ff.mu.Lock()
	defer ff.mu.Unlock()

	if ff.userOverrides[studentID] == nil {
		ff.userOverrides[studentID] = make(map[string]bool)
	}
	ff.userOverrides[studentID][featureName] = enabled
}

// ClearUserOverrides removes all overrides for one student.
func (ff *FeatureFlags) ClearUserOverrides(studentID string) {
	ff.mu.Lock()
	defer ff.mu.Unlock()
	delete(ff.userOverrides, studentID)
}

// SetRolloutPercent updates the rollout percentage for a feature.
func (ff *FeatureFlags) SetRolloutPercent(featureName string, percent int) error {
	if percent < 0 || percent > 100 {
		return fmt.Errorf("rollout percent must be 0-100, got %d", percent)
	}

	ff.mu.Lock()
	defer ff.mu.Unlock()

	feature, ok := ff.features[featureName]
	if !ok {
		return fmt.Errorf("unknown feature: %s", featureName)
	}
	feature.RolloutPercent = percent
	return nil
}

// EnableFeature turns a feature on globally.
func (ff *FeatureFlags) EnableFeature(featureName string) error {
	return ff.setEnabled(featureName, true)
}

// DisableFeature turns a feature off globally.
func (ff *FeatureFlags) DisableFeature(featureName string) error {
	return ff.setEnabled(featureName, false)
}

func (ff *FeatureFlags) setEnabled(featureName string, enabled bool) error {
	ff.mu.Lock()
	defer ff.mu.Unlock()

	feature, ok := ff.features[featureName]
	if !ok {
		return fmt.Errorf("unknown feature: %s", featureName)
	}
	feature.Enabled = enabled
	return nil
}

// GetAllFeatures returns a snapshot of every registered feature.
func (ff *FeatureFlags) GetAllFeatures() map[string]Feature {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	out := make(map[string]Feature, len(ff.features))
	for name, f := range ff.features {
		out[name] = *f
	}
	return out
}
