package catalog

// Answer fields, one per catalog stage data key.
const (
	// Phase 1
	FieldIdeaTitle             FieldKey = "idea_title"
	FieldElevatorPitch         FieldKey = "elevator_pitch"
	FieldExecutiveSummary      FieldKey = "executive_summary"
	FieldProblemDescription    FieldKey = "problem_description"
	FieldProblemMagnitude      FieldKey = "problem_magnitude"
	FieldCurrentSolutions      FieldKey = "current_solutions"
	FieldCustomerSegments      FieldKey = "customer_segments"
	FieldEarlyAdopterPersona   FieldKey = "early_adopter_persona"
	FieldProductDescription    FieldKey = "product_description"
	FieldHowItWorks            FieldKey = "how_it_works"
	FieldUVPStatement          FieldKey = "uvp_statement"
	FieldUnfairAdvantage       FieldKey = "unfair_advantage"
	FieldValidationSummary     FieldKey = "validation_summary"
	FieldBusinessGoalsTimeline FieldKey = "business_goals_timeline"

	// Phase 2
	FieldPESTELAnalysis           FieldKey = "pestel_analysis"
	FieldTAMAnalysis              FieldKey = "tam_analysis"
	FieldSAMAnalysis              FieldKey = "sam_analysis"
	FieldSOMAnalysis              FieldKey = "som_analysis"
	FieldCompetitorIdentification FieldKey = "competitor_identification"
	FieldCompetitorAnalysis       FieldKey = "competitor_analysis"
	FieldSWOTAnalysis             FieldKey = "swot_analysis"
	FieldRiskAnalysis             FieldKey = "risk_analysis"

	// Phase 3
	FieldBMCCustomerSegments      FieldKey = "bmc_customer_segments"
	FieldBMCValuePropositions     FieldKey = "bmc_value_propositions"
	FieldBMCChannels              FieldKey = "bmc_channels"
	FieldBMCCustomerRelationships FieldKey = "bmc_customer_relationships"
	FieldBMCRevenueStreams        FieldKey = "bmc_revenue_streams"
	FieldBMCKeyResources          FieldKey = "bmc_key_resources"
	FieldBMCKeyActivities         FieldKey = "bmc_key_activities"
	FieldBMCKeyPartnerships       FieldKey = "bmc_key_partnerships"
	FieldBMCCostStructure         FieldKey = "bmc_cost_structure"

	// Phase 4
	FieldBrandVision        FieldKey = "brand_vision"
	FieldBrandMission       FieldKey = "brand_mission"
	FieldCoreValues         FieldKey = "core_values"
	FieldBrandPersonality   FieldKey = "brand_personality"
	FieldBrandName          FieldKey = "brand_name"
	FieldTagline            FieldKey = "tagline"
	FieldToneOfVoice        FieldKey = "tone_of_voice"
	FieldLogoDesignConcepts FieldKey = "logo_design_concepts"
	FieldColorPalette       FieldKey = "color_palette"
	FieldTypography         FieldKey = "typography"

	// Phase 5
	FieldFullProductDescription FieldKey = "full_product_description"
	FieldFeaturePrioritization  FieldKey = "feature_prioritization"
	FieldProductRoadmap         FieldKey = "product_roadmap"
	FieldMVPScope               FieldKey = "mvp_scope"
	FieldMVPUserFlow            FieldKey = "mvp_user_flow"
	FieldTechStack              FieldKey = "tech_stack"
	FieldQAPlan                 FieldKey = "qa_plan"

	// Phase 6
	FieldMarketingObjectives  FieldKey = "marketing_objectives"
	FieldKPIs                 FieldKey = "kpis"
	FieldContentMarketing     FieldKey = "content_marketing"
	FieldSocialMediaMarketing FieldKey = "social_media_marketing"
	FieldPaidAdvertising      FieldKey = "paid_advertising"
	FieldSalesProcess         FieldKey = "sales_process"
	FieldPricingStrategy      FieldKey = "pricing_strategy"
	FieldLaunchCampaign       FieldKey = "launch_campaign"

	// Phase 7
	FieldFoundingTeam    FieldKey = "founding_team"
	FieldHiringPlan      FieldKey = "hiring_plan"
	FieldLegalStructure  FieldKey = "legal_structure"
	FieldIPStrategy      FieldKey = "ip_strategy"
	FieldKeyMilestones   FieldKey = "key_milestones"
	FieldStartupCosts    FieldKey = "startup_costs"
	FieldBurnRate        FieldKey = "burn_rate"
	FieldRevenueForecast FieldKey = "revenue_forecast"

	// Phase 8
	FieldFundraisingAsk   FieldKey = "fundraising_ask"
	FieldUseOfFunds       FieldKey = "use_of_funds"
	FieldPitchDeckOutline FieldKey = "pitch_deck_outline"
	FieldOnePager         FieldKey = "one_pager"
	FieldExitStrategy     FieldKey = "exit_strategy"
)

// AllFields lists every answer field in catalog order.
var AllFields = []FieldKey{
	FieldIdeaTitle,
	FieldElevatorPitch,
	FieldExecutiveSummary,
	FieldProblemDescription,
	FieldProblemMagnitude,
	FieldCurrentSolutions,
	FieldCustomerSegments,
	FieldEarlyAdopterPersona,
	FieldProductDescription,
	FieldHowItWorks,
	FieldUVPStatement,
	FieldUnfairAdvantage,
	FieldValidationSummary,
	FieldBusinessGoalsTimeline,
	FieldPESTELAnalysis,
	FieldTAMAnalysis,
	FieldSAMAnalysis,
	FieldSOMAnalysis,
	FieldCompetitorIdentification,
	FieldCompetitorAnalysis,
	FieldSWOTAnalysis,
	FieldRiskAnalysis,
	FieldBMCCustomerSegments,
	FieldBMCValuePropositions,
	FieldBMCChannels,
	FieldBMCCustomerRelationships,
	FieldBMCRevenueStreams,
	FieldBMCKeyResources,
	FieldBMCKeyActivities,
	FieldBMCKeyPartnerships,
	FieldBMCCostStructure,
	FieldBrandVision,
	FieldBrandMission,
	FieldCoreValues,
	FieldBrandPersonality,
	FieldBrandName,
	FieldTagline,
	FieldToneOfVoice,
	FieldLogoDesignConcepts,
	FieldColorPalette,
	FieldTypography,
	FieldFullProductDescription,
	FieldFeaturePrioritization,
	FieldProductRoadmap,
	FieldMVPScope,
	FieldMVPUserFlow,
	FieldTechStack,
	FieldQAPlan,
	FieldMarketingObjectives,
	FieldKPIs,
	FieldContentMarketing,
	FieldSocialMediaMarketing,
	FieldPaidAdvertising,
	FieldSalesProcess,
	FieldPricingStrategy,
	FieldLaunchCampaign,
	FieldFoundingTeam,
	FieldHiringPlan,
	FieldLegalStructure,
	FieldIPStrategy,
	FieldKeyMilestones,
	FieldStartupCosts,
	FieldBurnRate,
	FieldRevenueForecast,
	FieldFundraisingAsk,
	FieldUseOfFunds,
	FieldPitchDeckOutline,
	FieldOnePager,
	FieldExitStrategy,
}

var knownFields = func() map[FieldKey]struct{} {
	m := make(map[FieldKey]struct{}, len(AllFields))
	for _, k := range AllFields {
		m[k] = struct{}{}
	}
	return m
}()

// ParseFieldKey returns the field named s, if it is one of the known answer fields.
func ParseFieldKey(s string) (FieldKey, bool) {
	k := FieldKey(s)
	_, ok := knownFields[k]
	return k, ok
}

// Known reports whether k is a declared answer field.
func (k FieldKey) Known() bool {
	_, ok := knownFields[k]
	return ok
}
