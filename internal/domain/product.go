package domain

import "github.com/shopspring/decimal"

// QualityLevel is the user's price sensitivity
type QualityLevel string

const (
	QualityBudget   QualityLevel = "budget"
	QualityBalanced QualityLevel = "balanced"
	QualityPremium  QualityLevel = "premium"
)

// ShippingPreference is the user's preferred delivery speed
type ShippingPreference string

const (
	ShippingFastest  ShippingPreference = "fastest"
	ShippingNormal   ShippingPreference = "normal"
	ShippingCheapest ShippingPreference = "cheapest"
)

// LearnedPreferences are facts about the user picked up from conversation
type LearnedPreferences struct {
	Gender         string            `json:"gender,omitempty"`
	AgeRange       string            `json:"age_range,omitempty"`
	Style          string            `json:"style,omitempty"`
	Interests      []string          `json:"interests,omitempty"`
	Sizes          map[string]string `json:"sizes,omitempty"`
	Dislikes       []string          `json:"dislikes,omitempty"`
	UseCases       []string          `json:"use_cases,omitempty"`
	FavoriteColors []string          `json:"favorite_colors,omitempty"`
	Climate        string            `json:"climate,omitempty"`
}

// IsEmpty reports whether nothing was learned
func (l *LearnedPreferences) IsEmpty() bool {
	return l.Gender == "" && l.AgeRange == "" && l.Style == "" && l.Climate == "" &&
		len(l.Interests) == 0 && len(l.Sizes) == 0 && len(l.Dislikes) == 0 &&
		len(l.UseCases) == 0 && len(l.FavoriteColors) == 0
}

// UserProfile holds explicit settings plus learned preferences
type UserProfile struct {
	PriceSensitivity   QualityLevel       `json:"price_sensitivity" validate:"omitempty,oneof=budget balanced premium"`
	ShippingPreference ShippingPreference `json:"shipping_preference" validate:"omitempty,oneof=fastest normal cheapest"`
	PreferredBrands    []string           `json:"preferred_brands"`
	SavedCard          map[string]string  `json:"saved_card,omitempty"`
	Learned            LearnedPreferences `json:"learned"`
}

// DefaultUserProfile returns the profile used before the user saves one
func DefaultUserProfile() UserProfile {
	return UserProfile{
		PriceSensitivity:   QualityBalanced,
		ShippingPreference: ShippingNormal,
		PreferredBrands:    []string{},
	}
}

// Normalize fills empty enum fields with their defaults
func (p *UserProfile) Normalize() {
	if p.PriceSensitivity == "" {
		p.PriceSensitivity = QualityBalanced
	}
	if p.ShippingPreference == "" {
		p.ShippingPreference = ShippingNormal
	}
	if p.PreferredBrands == nil {
		p.PreferredBrands = []string{}
	}
}

// ConversationTurn is one message of the chat so far
type ConversationTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// SearchRequest is a natural-language product query
type SearchRequest struct {
	Query               string             `json:"query" validate:"max=2000"`
	UserProfile         *UserProfile       `json:"user_profile,omitempty"`
	ConversationHistory []ConversationTurn `json:"conversation_history"`
}

// Product is a recommended item
type Product struct {
	ID               string           `json:"id"`
	Name             string           `json:"name"`
	Brand            string           `json:"brand"`
	Price            decimal.Decimal  `json:"price"`
	OriginalPrice    *decimal.Decimal `json:"original_price,omitempty"`
	ShippingETA      string           `json:"shipping_eta"`
	Rating           float64          `json:"rating"`
	ReviewCount      int              `json:"review_count"`
	ValueTag         string           `json:"value_tag"`
	Description      string           `json:"description"`
	WhyRecommended   string           `json:"why_recommended"`
	ImageURL         string           `json:"image_url,omitempty"`
	SourceName       string           `json:"source_name"`
	SourceURL        string           `json:"source_url"`
	Category         string           `json:"category"`
	AvailableCoupons int              `json:"available_coupons"`
	KeyFeatures      []string         `json:"key_features"`
}

// FollowUpQuestion is a clarifying question with selectable options
type FollowUpQuestion struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

// ShoppingIntent is the interpreted meaning of a query
type ShoppingIntent struct {
	Category         string           `json:"category"`
	PriceRangeMin    *decimal.Decimal `json:"price_range_min"`
	PriceRangeMax    *decimal.Decimal `json:"price_range_max"`
	QualityLevel     string           `json:"quality_level"`
	KeyFeatures      []string         `json:"key_features"`
	ShippingPriority string           `json:"shipping_priority"`
}

// SearchResponse is what the query interpreter returns
type SearchResponse struct {
	AgentMessage       string              `json:"agent_message"`
	Thinking           string              `json:"thinking,omitempty"`
	Intent             *ShoppingIntent     `json:"intent,omitempty"`
	Products           []Product           `json:"products"`
	FollowUpQuestion   *FollowUpQuestion   `json:"follow_up_question,omitempty"`
	LearnedPreferences *LearnedPreferences `json:"learned_preferences,omitempty"`
}

// Coupon is a discount code offered for a product
type Coupon struct {
	Code     string `json:"code"`
	Discount string `json:"discount"`
	Source   string `json:"source"`
}
