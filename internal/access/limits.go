package access

import (
	"fmt"
	"time"
)

// Unlimited marks a ceiling with no bound.
const Unlimited int64 = -1

// Storage ceilings in bytes.
const (
	MB = int64(1) << 20
	GB = int64(1) << 30
)

// Kind is a resource that can be limited.
type Kind string

const (
	KindProjects    Kind = "projects"
	KindAIMessages  Kind = "ai_messages"
	KindTeamMembers Kind = "team_members"
	KindPhase       Kind = "phase"
	KindExport      Kind = "export"
	KindStorage     Kind = "storage"
)

// ParseKind validates a limit kind.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindProjects, KindAIMessages, KindTeamMembers, KindPhase, KindExport, KindStorage:
		return k, nil
	}
	return "", fmt.Errorf("unknown limit kind %q", s)
}

// ExportTier is an export capability level. Higher tiers include lower ones.
type ExportTier int

const (
	ExportNone ExportTier = iota
	ExportBasic
	ExportAdvanced
)

func (t ExportTier) String() string {
	switch t {
	case ExportBasic:
		return "basic"
	case ExportAdvanced:
		return "advanced"
	default:
		return "none"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (t ExportTier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// Limits are the ceilings derived from a grant set. Unlimited is -1.
type Limits struct {
	MaxProjects    int64      `json:"max_projects"`
	MaxAICredits   int64      `json:"max_ai_credits"`
	MaxTeamMembers int64      `json:"max_team_members"`
	Export         ExportTier `json:"export"`
	MaxPhase       int64      `json:"max_phase"`
	MaxStorage     int64      `json:"max_storage_bytes"`
}

// Derive computes limits from the grants active at now. Each limit takes the most generous
// grant present and falls back to the lowest tier.
func Derive(grants []Grant, now time.Time) Limits {
	has := activeSet(grants, now)

	pick := func(def int64, tiers ...tier) int64 {
		for _, t := range tiers {
			if has[t.feature] {
				return t.value
			}
		}
		return def
	}

	l := Limits{
		MaxProjects: pick(1,
			tier{FeatureUnlimitedProjects, Unlimited},
			tier{FeatureMaxProjects3, 3}),
		MaxAICredits: pick(50,
			tier{FeatureUnlimitedAI, Unlimited},
			tier{FeatureAICredits2000, 2000},
			tier{FeatureAICredits500, 500}),
		MaxTeamMembers: pick(0,
			tier{FeatureTeamUnlimited, Unlimited},
			tier{FeatureTeam10, 10},
			tier{FeatureTeam2, 2}),
		MaxPhase: pick(1,
			tier{FeatureAllPhases, 8},
			tier{FeaturePhase5Limit, 5}),
		MaxStorage: pick(50*MB,
			tier{FeatureStorageUnlimited, Unlimited},
			tier{FeatureStorage5GB, 5 * GB},
			tier{FeatureStorage500MB, 500 * MB}),
	}

	switch {
	case has[FeatureExportAdvanced]:
		l.Export = ExportAdvanced
	case has[FeatureExportBasic]:
		l.Export = ExportBasic
	default:
		l.Export = ExportNone
	}
	return l
}

type tier struct {
	feature Feature
	value   int64
}

// PlanLabel names the plan a grant set corresponds to.
func PlanLabel(grants []Grant, now time.Time) Plan {
	has := activeSet(grants, now)
	switch {
	case has[FeatureUnlimitedAI] && has[FeatureUnlimitedProjects]:
		return PlanEnterprise
	case has[FeatureUnlimitedProjects]:
		return PlanPro
	case has[FeatureMaxProjects3]:
		return PlanStarter
	default:
		return PlanFree
	}
}

// Decision is the outcome of a limit check. A denial is not an error.
type Decision struct {
	Allowed bool  `json:"allowed"`
	Kind    Kind  `json:"kind"`
	Current int64 `json:"current"`
	Max     int64 `json:"max"`
}

// Ceiling returns the limit for kind. For KindExport it is the allowed tier rank.
func (l Limits) Ceiling(kind Kind) int64 {
	switch kind {
	case KindProjects:
		return l.MaxProjects
	case KindAIMessages:
		return l.MaxAICredits
	case KindTeamMembers:
		return l.MaxTeamMembers
	case KindPhase:
		return l.MaxPhase
	case KindExport:
		return int64(l.Export)
	case KindStorage:
		return l.MaxStorage
	default:
		return 0
	}
}

// Check evaluates current against the ceiling for kind.
//
// For counted resources current is the usage before the action and the action is denied
// once usage has reached the ceiling. For KindPhase current is the requested phase and for
// KindExport it is the requested tier rank; both are denied only when they exceed the ceiling.
func (l Limits) Check(kind Kind, current int64) Decision {
	ceiling := l.Ceiling(kind)
	d := Decision{Kind: kind, Current: current, Max: ceiling}

	switch kind {
	case KindPhase, KindExport:
		d.Allowed = current <= ceiling
	case KindProjects, KindAIMessages, KindTeamMembers, KindStorage:
		d.Allowed = ceiling == Unlimited || current < ceiling
	}
	return d
}
