package models

// FamilySize is the household size selected on the recommendation form
type FamilySize string

const (
	FamilySingle      FamilySize = "single"
	FamilyCouple      FamilySize = "couple"
	FamilySmallFamily FamilySize = "small_family"
	FamilyLargeFamily FamilySize = "large_family"
)

// Budget is the donation amount range, inclusive on both ends
type Budget struct {
	Min int `json:"min" validate:"min=0"`
	Max int `json:"max" validate:"min=0,gtefield=Min"`
}

// ShippingPrefs selects acceptable shipping methods. All three false means
// shipping is not filtered at all.
type ShippingPrefs struct {
	Temp   bool `json:"temp"`
	Cold   bool `json:"cold"`
	Frozen bool `json:"frozen"`
}

// RecommendationRequest is the user's search constraints. Category and
// allergy tokens come from the fixed vocabularies in the services package.
type RecommendationRequest struct {
	Budget          Budget        `json:"budget" validate:"required"`
	Categories      []string      `json:"categories" validate:"dive,oneof=meat seafood fruit vegetable rice dairy alcohol sweets processed set"`
	FamilySize      FamilySize    `json:"familySize" validate:"required,oneof=single couple small_family large_family"`
	Allergies       []string      `json:"allergies" validate:"dive,oneof=egg milk wheat buckwheat peanut shrimp crab orange kiwi peach apple banana"`
	ShippingPrefs   ShippingPrefs `json:"shippingPrefs"`
	SpecialRequests string        `json:"specialRequests"`
}

// RecommendationResult is one recommended gift with its pitch. The rating is
// always within [1,5].
type RecommendationResult struct {
	Gift            Gift     `json:"gift"`
	Rating          int      `json:"rating"`
	Reason          string   `json:"reason"`
	ManpukunComment string   `json:"manpukunComment"`
	Pros            []string `json:"pros"`
	Cons            []string `json:"cons,omitempty"`
}

// RecommendationResponse is the recommendation endpoint payload
type RecommendationResponse struct {
	Recommendations []RecommendationResult `json:"recommendations"`
	TotalFound      int                    `json:"totalFound"`
}
