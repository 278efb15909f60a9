// Package access derives resource limits from feature grants and evaluates actions against them.
// Grants are the only source of truth; the plan label is computed, never stored.
package access

import (
	"fmt"
	"time"
)

// Feature is a grantable capability.
type Feature string

const (
	FeatureUnlimitedProjects Feature = "unlimited_projects"
	FeatureMaxProjects3      Feature = "max_projects_3"
	FeatureMaxProjects1      Feature = "max_projects_1"

	FeatureUnlimitedAI   Feature = "unlimited_ai"
	FeatureAICredits2000 Feature = "ai_credits_2000"
	FeatureAICredits500  Feature = "ai_credits_500"
	FeatureAICredits50   Feature = "ai_credits_50"

	FeatureTeamUnlimited Feature = "team_sharing_unlimited"
	FeatureTeam10        Feature = "team_sharing_10"
	FeatureTeam2         Feature = "team_sharing_2"
	FeatureTeamDisabled  Feature = "team_sharing_disabled"

	FeatureExportAdvanced Feature = "export_advanced"
	FeatureExportBasic    Feature = "export_basic"
	FeatureExportDisabled Feature = "export_disabled"

	FeatureAllPhases   Feature = "all_phases"
	FeaturePhase5Limit Feature = "phase_5_limit"
	FeaturePhase3Limit Feature = "phase_3_limit"

	FeatureStorageUnlimited Feature = "storage_unlimited"
	FeatureStorage5GB       Feature = "storage_5gb"
	FeatureStorage500MB     Feature = "storage_500mb"
	FeatureStorage50MB      Feature = "storage_50mb"
)

// AllFeatures lists every feature key.
var AllFeatures = []Feature{
	FeatureUnlimitedProjects, FeatureMaxProjects3, FeatureMaxProjects1,
	FeatureUnlimitedAI, FeatureAICredits2000, FeatureAICredits500, FeatureAICredits50,
	FeatureTeamUnlimited, FeatureTeam10, FeatureTeam2, FeatureTeamDisabled,
	FeatureExportAdvanced, FeatureExportBasic, FeatureExportDisabled,
	FeatureAllPhases, FeaturePhase5Limit, FeaturePhase3Limit,
	FeatureStorageUnlimited, FeatureStorage5GB, FeatureStorage500MB, FeatureStorage50MB,
}

// ParseFeature validates a feature key.
func ParseFeature(s string) (Feature, error) {
	for _, f := range AllFeatures {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown feature %q", s)
}

// UnreachableFeatures returns features that exist as keys but that no limit derivation reads.
// phase_3_limit is still part of the free plan; holding it caps nothing beyond the phase 1 default.
func UnreachableFeatures() []Feature {
	return []Feature{FeaturePhase3Limit}
}

// Plan is a display label and a fixed feature set.
type Plan string

const (
	PlanFree       Plan = "free"
	PlanStarter    Plan = "starter"
	PlanPro        Plan = "pro"
	PlanEnterprise Plan = "enterprise"
)

// Plans lists the plans from lowest to highest tier.
var Plans = []Plan{PlanFree, PlanStarter, PlanPro, PlanEnterprise}

var planFeatures = map[Plan][]Feature{
	PlanFree: {
		FeatureMaxProjects1, FeatureAICredits50, FeatureTeamDisabled,
		FeatureExportDisabled, FeaturePhase3Limit, FeatureStorage50MB,
	},
	PlanStarter: {
		FeatureMaxProjects3, FeatureAICredits500, FeatureTeam2,
		FeatureExportBasic, FeatureAllPhases, FeatureStorage500MB,
	},
	PlanPro: {
		FeatureUnlimitedProjects, FeatureAICredits2000, FeatureTeam10,
		FeatureExportAdvanced, FeatureAllPhases, FeatureStorage5GB,
	},
	PlanEnterprise: {
		FeatureUnlimitedProjects, FeatureUnlimitedAI, FeatureTeamUnlimited,
		FeatureExportAdvanced, FeatureAllPhases, FeatureStorageUnlimited,
	},
}

// ParsePlan validates a plan name.
func ParsePlan(s string) (Plan, error) {
	p := Plan(s)
	if _, ok := planFeatures[p]; !ok {
		return "", fmt.Errorf("unknown plan %q", s)
	}
	return p, nil
}

// Features returns a copy of the plan's feature set.
func (p Plan) Features() []Feature {
	fs := planFeatures[p]
	out := make([]Feature, len(fs))
	copy(out, fs)
	return out
}

// Grant is one feature held by a subject.
type Grant struct {
	Subject   string     `json:"subject"`
	Feature   Feature    `json:"feature"`
	Enabled   bool       `json:"enabled"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	GrantedBy string     `json:"granted_by,omitempty"`
	Notes     string     `json:"notes,omitempty"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Active reports whether the grant counts at now.
func (g Grant) Active(now time.Time) bool {
	if !g.Enabled {
		return false
	}
	return g.ExpiresAt == nil || !g.ExpiresAt.Before(now)
}

// activeSet returns the features of grants active at now.
func activeSet(grants []Grant, now time.Time) map[Feature]bool {
	set := make(map[Feature]bool, len(grants))
	for _, g := range grants {
		if g.Active(now) {
			set[g.Feature] = true
		}
	}
	return set
}
