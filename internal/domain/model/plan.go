package model

import "strings"

// Plan is a subscription tier.
type Plan string

const (
	PlanFree         Plan = "FREE"
	PlanStarter      Plan = "STARTER"
	PlanProfessional Plan = "PROFESSIONAL"
	PlanEnterprise   Plan = "ENTERPRISE"
)

// Plans lists every tier in ascending order.
var Plans = []Plan{PlanFree, PlanStarter, PlanProfessional, PlanEnterprise}

// ParsePlan accepts any casing and reports whether the name is a known tier.
func ParsePlan(s string) (Plan, bool) {
	p := Plan(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Plans {
		if p == known {
			return p, true
		}
	}
	return "", false
}

// IsPaid reports whether the plan can be bought through checkout.
func (p Plan) IsPaid() bool {
	return p == PlanStarter || p == PlanProfessional || p == PlanEnterprise
}

// PriceCents is the monthly price in USD cents.
func (p Plan) PriceCents() int64 {
	switch p {
	case PlanStarter:
		return 2900
	case PlanProfessional:
		return 7900
	case PlanEnterprise:
		return 19900
	}
	return 0
}

// Unlimited is the limit sentinel; any check against it is allowed.
const Unlimited = -1

// Resource is a countable thing a plan limits.
type Resource string

const (
	ResourceProperties       Resource = "properties"
	ResourceLeads            Resource = "leads"
	ResourceDocuments        Resource = "documents"
	ResourceTeamMembers      Resource = "teamMembers"
	ResourceEmailsPerMonth   Resource = "emailsPerMonth"
	ResourceAIScoresPerMonth Resource = "aiScoresPerMonth"
	ResourceCustomTemplates  Resource = "customTemplates"
)

// Resources lists every limited resource in display order.
var Resources = []Resource{
	ResourceProperties,
	ResourceLeads,
	ResourceDocuments,
	ResourceTeamMembers,
	ResourceEmailsPerMonth,
	ResourceAIScoresPerMonth,
	ResourceCustomTemplates,
}

func ParseResource(s string) (Resource, bool) {
	for _, r := range Resources {
		if strings.EqualFold(string(r), s) {
			return r, true
		}
	}
	return "", false
}

// Monthly reports whether usage of r resets at the start of each calendar month.
func (r Resource) Monthly() bool {
	return r == ResourceEmailsPerMonth || r == ResourceAIScoresPerMonth
}

// Feature is a boolean plan capability.
type Feature string

const (
	FeatureMarketplace Feature = "marketplace"
	FeatureSettlement  Feature = "settlement"
)

// PlanLimits are the static quotas of a tier. Unlimited (-1) means no cap.
type PlanLimits struct {
	Properties             int  `json:"properties"`
	Leads                  int  `json:"leads"`
	Documents              int  `json:"documents"`
	TeamMembers            int  `json:"teamMembers"`
	EmailsPerMonth         int  `json:"emailsPerMonth"`
	AIScoresPerMonth       int  `json:"aiScoresPerMonth"`
	CustomTemplates        int  `json:"customTemplates"`
	AnalyticsRetentionDays int  `json:"analyticsRetentionDays"`
	Marketplace            bool `json:"marketplace"`
	Settlement             bool `json:"settlement"`
}

var planLimits = map[Plan]PlanLimits{
	PlanFree: {
		Properties: 5, Leads: 20, Documents: 10, TeamMembers: 1,
		EmailsPerMonth: 50, AIScoresPerMonth: 0, CustomTemplates: 3,
		AnalyticsRetentionDays: 30,
	},
	PlanStarter: {
		Properties: 25, Leads: 100, Documents: 50, TeamMembers: 3,
		EmailsPerMonth: 500, AIScoresPerMonth: 50, CustomTemplates: 10,
		AnalyticsRetentionDays: 90, Marketplace: true, Settlement: true,
	},
	PlanProfessional: {
		Properties: 100, Leads: 500, Documents: 200, TeamMembers: 10,
		EmailsPerMonth: 2500, AIScoresPerMonth: 250, CustomTemplates: Unlimited,
		AnalyticsRetentionDays: 365, Marketplace: true, Settlement: true,
	},
	PlanEnterprise: {
		Properties: Unlimited, Leads: Unlimited, Documents: Unlimited, TeamMembers: Unlimited,
		EmailsPerMonth: Unlimited, AIScoresPerMonth: Unlimited, CustomTemplates: Unlimited,
		AnalyticsRetentionDays: Unlimited, Marketplace: true, Settlement: true,
	},
}

// LimitsFor returns the quotas of p; unknown plans get FREE limits.
func LimitsFor(p Plan) PlanLimits {
	if l, ok := planLimits[p]; ok {
		return l
	}
	return planLimits[PlanFree]
}

// Limit returns the quota for r, or 0 for an unknown resource.
func (l PlanLimits) Limit(r Resource) int {
	switch r {
	case ResourceProperties:
		return l.Properties
	case ResourceLeads:
		return l.Leads
	case ResourceDocuments:
		return l.Documents
	case ResourceTeamMembers:
		return l.TeamMembers
	case ResourceEmailsPerMonth:
		return l.EmailsPerMonth
	case ResourceAIScoresPerMonth:
		return l.AIScoresPerMonth
	case ResourceCustomTemplates:
		return l.CustomTemplates
	}
	return 0
}

func (l PlanLimits) Allows(f Feature) bool {
	switch f {
	case FeatureMarketplace:
		return l.Marketplace
	case FeatureSettlement:
		return l.Settlement
	}
	return false
}

// WithinLimit reports whether one more unit fits under limit given current usage.
func WithinLimit(limit int, current int64) bool {
	if limit == Unlimited {
		return true
	}
	return current < int64(limit)
}

// Usage is a resource counter paired with its quota.
type Usage struct {
	Resource  Resource `json:"resource"`
	Current   int64    `json:"current"`
	Limit     int      `json:"limit"`
	Unlimited bool     `json:"unlimited"`
	Percent   float64  `json:"percent"` // 0 when Unlimited
}

// NewUsage builds a Usage. The percentage is capped at 100 and never computed for Unlimited.
func NewUsage(r Resource, current int64, limit int) Usage {
	u := Usage{Resource: r, Current: current, Limit: limit}
	switch {
	case limit == Unlimited:
		u.Unlimited = true
	case limit <= 0:
		if current > 0 {
			u.Percent = 100
		}
	default:
		u.Percent = float64(current) * 100 / float64(limit)
		if u.Percent > 100 {
			u.Percent = 100
		}
	}
	return u
}
