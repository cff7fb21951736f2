package service

import (
	"context"
	"fmt"
	"strings"

	"cliq_go/internal/domain"
)

type keyword struct{ key, value string }

var (
	jacketWords = []string{"jacket", "coat", "warm", "winter", "cold", "parka"}
	shoeWords   = []string{"shoe", "sneaker", "running", "trainer", "boots", "footwear"}

	jacketUses = []keyword{
		{"ski", "skiing"},
		{"hik", "hiking"},
		{"rain", "rain protection"},
		{"business", "business/formal"},
		{"casual", "casual everyday"},
		{"puffer", "puffer/insulated"},
	}

	genderMale   = []string{"men's", "mens", "for men", "male", "guy", "boyfriend", "husband", "dad"}
	genderFemale = []string{"women's", "womens", "for women", "female", "girl", "girlfriend", "wife", "mom"}

	useCaseWords = []keyword{
		{"hiking", "hiking"}, {"ski", "skiing"}, {"running", "running"},
		{"gaming", "gaming"}, {"office", "office"}, {"travel", "travel"},
		{"gym", "gym"}, {"work", "work"}, {"school", "school"},
		{"camping", "camping"}, {"commut", "commuting"},
	}
	styleWords = []keyword{
		{"casual", "casual"}, {"formal", "formal"}, {"sporty", "sporty"},
		{"minimalist", "minimalist"}, {"streetwear", "streetwear"},
		{"classic", "classic"}, {"modern", "modern"},
	}
	climateWords = []keyword{
		{"cold", "cold"}, {"snow", "cold"}, {"winter", "cold"},
		{"rain", "rainy"}, {"tropical", "tropical"}, {"hot", "hot"},
		{"warm weather", "warm"},
	}
	colorWords = []string{"black", "white", "blue", "red", "green", "gray", "grey",
		"navy", "olive", "tan", "brown", "pink", "purple", "orange"}
)

// MockInterpreter answers queries from keyword rules and the built-in catalogue.
// It is the fallback whenever the language model cannot be used.
type MockInterpreter struct{}

// NewMockInterpreter creates a keyword interpreter
func NewMockInterpreter() *MockInterpreter {
	return &MockInterpreter{}
}

// Interpret never fails
func (m *MockInterpreter) Interpret(_ context.Context, req domain.SearchRequest) (*domain.SearchResponse, error) {
	return m.Respond(req), nil
}

// Respond builds the keyword-based answer for req
func (m *MockInterpreter) Respond(req domain.SearchRequest) *domain.SearchResponse {
	q := strings.ToLower(req.Query)
	var learned *domain.LearnedPreferences
	if req.UserProfile != nil {
		learned = &req.UserProfile.Learned
	}

	category := CategoryGeneral
	var thinking string

	switch {
	case containsAny(q, jacketWords...):
		matchedUse := ""
		for _, uc := range jacketUses {
			if strings.Contains(q, uc.key) {
				matchedUse = uc.value
				break
			}
		}
		profileHelps := false
		if learned != nil && (len(learned.UseCases) > 0 || learned.Style != "" || learned.Climate != "") {
			profileHelps = true
			if len(learned.UseCases) > 0 {
				matchedUse = learned.UseCases[0]
			}
		}
		if matchedUse == "" && !profileHelps && !containsAny(q, "budget", "cheap", "premium", "under") {
			return clarify("jackets",
				"I'd love to help you find the right jacket! There are so many types though - let me narrow it down so I can give you the best picks.",
				"User wants a jacket but didn't specify the type or use-case. Need to narrow it down.",
				"What kind of jacket are you looking for? This helps me find the perfect match!",
				"Skiing / Snowboarding", "Hiking / Outdoor", "Rain / Waterproof", "Casual / Everyday", "Puffer / Insulated warmth")
		}
		category = CategoryWinterJackets
		if matchedUse == "" {
			matchedUse = "winter/cold weather"
		}
		thinking = fmt.Sprintf("User wants a jacket for %s. Using their profile to personalize.", matchedUse)

	case containsAny(q, "monitor", "screen", "display"):
		category = CategoryMonitors
		thinking = "User is looking for a monitor. Checking profile for use-case (gaming, office, creative)."

	case containsAny(q, "headphone", "earphone", "earbud", "audio", "music"):
		category = CategoryHeadphones
		thinking = "User wants audio gear. Considering their style and use-case preferences."

	case containsAny(q, "laptop", "computer", "macbook", "notebook"):
		category = CategoryLaptops
		thinking = "User needs a laptop. Will factor in their interests and budget."

	case containsAny(q, shoeWords...):
		profileHelps := learned != nil && (len(learned.UseCases) > 0 || learned.Style != "")
		if !profileHelps && !containsAny(q, "running", "hiking", "casual", "formal", "gym", "trail") {
			return clarify("shoes",
				"Shoes are very activity-specific - the right pair for running is totally different from hiking or casual wear. Let me know what you'll use them for!",
				"User wants shoes but didn't specify the activity. Need to clarify.",
				"What will you mainly use these shoes for?",
				"Running / Jogging", "Hiking / Trail", "Casual / Everyday", "Gym / Training", "Walking / Comfort")
		}
		category = CategoryRunningShoes
		thinking = "User wants shoes for a specific activity. Matching to best options."

	case containsAny(q, "suitcase", "luggage", "carry-on", "travel bag"):
		category = CategoryLuggage
		thinking = "User needs luggage. Checking if they travel frequently."
	}

	products := MockProducts(category)

	quality := string(domain.QualityBalanced)
	if containsAny(q, "cheap", "budget", "affordable", "inexpensive") {
		quality = string(domain.QualityBudget)
	} else if containsAny(q, "premium", "luxury", "high-end", "best", "top") {
		quality = string(domain.QualityPremium)
	}

	shipping := string(domain.ShippingNormal)
	if containsAny(q, "fast", "quick", "urgent", "asap", "rush") {
		shipping = string(domain.ShippingFastest)
	}

	display := strings.ReplaceAll(category, "_", " ")
	var message string
	if notes := profileNotes(req.UserProfile); len(notes) > 0 {
		message = fmt.Sprintf("Based on %s, I found %d great %s options for you. Here are my top picks, ranked by overall value.",
			strings.Join(notes, ", "), len(products), display)
	} else {
		message = fmt.Sprintf("Here are %d solid %s options! I've ranked them by value, considering quality, price, and shipping speed.",
			len(products), display)
	}
	if thinking == "" {
		thinking = fmt.Sprintf("Matched query to %s. Quality: %s, Shipping: %s.", display, quality, shipping)
	}

	resp := &domain.SearchResponse{
		AgentMessage: message,
		Thinking:     thinking,
		Intent: &domain.ShoppingIntent{
			Category:         category,
			QualityLevel:     quality,
			KeyFeatures:      []string{},
			ShippingPriority: shipping,
		},
		Products:           products,
		LearnedPreferences: ExtractPreferences(q),
	}

	if category == CategoryGeneral && isVague(q) {
		resp.FollowUpQuestion = &domain.FollowUpQuestion{
			Question: "I'd love to help! What kind of product are you looking for?",
			Options: []string{
				"Winter clothing / Jackets",
				"Electronics (monitors, laptops, headphones)",
				"Shoes & footwear",
				"Travel gear / Luggage",
			},
		}
		resp.AgentMessage = "I want to make sure I find exactly what you need. What category are you shopping in?"
		resp.Thinking = "Query is too broad to determine category. Asking for clarification."
	}
	return resp
}

// isVague is true for one or two word queries without any shopping verb
func isVague(q string) bool {
	return len(strings.Fields(q)) <= 2 &&
		!containsAny(q, "buy", "get", "find", "need", "want", "looking", "recommend")
}

func clarify(category, message, thinking, question string, options ...string) *domain.SearchResponse {
	return &domain.SearchResponse{
		AgentMessage: message,
		Thinking:     thinking,
		Intent: &domain.ShoppingIntent{
			Category:         category,
			QualityLevel:     string(domain.QualityBalanced),
			KeyFeatures:      []string{},
			ShippingPriority: string(domain.ShippingNormal),
		},
		Products:         []domain.Product{},
		FollowUpQuestion: &domain.FollowUpQuestion{Question: question, Options: options},
	}
}

func profileNotes(p *domain.UserProfile) []string {
	if p == nil {
		return nil
	}
	var notes []string
	if p.Learned.Gender != "" {
		notes = append(notes, fmt.Sprintf("your profile (%s)", p.Learned.Gender))
	}
	if p.Learned.Style != "" {
		notes = append(notes, fmt.Sprintf("your %s style", p.Learned.Style))
	}
	if p.Learned.Climate != "" {
		notes = append(notes, fmt.Sprintf("your %s climate", p.Learned.Climate))
	}
	if p.PriceSensitivity != "" && p.PriceSensitivity != domain.QualityBalanced {
		notes = append(notes, fmt.Sprintf("your %s budget preference", p.PriceSensitivity))
	}
	return notes
}

// ExtractPreferences picks up gender, use cases, style, climate and colours
// mentioned in a lower-cased query. Returns nil when nothing was found.
func ExtractPreferences(q string) *domain.LearnedPreferences {
	var lp domain.LearnedPreferences

	// female first: "women's" and "female" contain the male keywords
	if containsAny(q, genderFemale...) {
		lp.Gender = "female"
	} else if containsAny(q, genderMale...) {
		lp.Gender = "male"
	}
	for _, uc := range useCaseWords {
		if strings.Contains(q, uc.key) {
			lp.UseCases = append(lp.UseCases, uc.value)
		}
	}
	lp.Style = firstMatch(q, styleWords)
	lp.Climate = firstMatch(q, climateWords)
	for _, c := range colorWords {
		if strings.Contains(q, c) {
			lp.FavoriteColors = append(lp.FavoriteColors, c)
		}
	}

	if lp.IsEmpty() {
		return nil
	}
	return &lp
}

func firstMatch(q string, words []keyword) string {
	for _, w := range words {
		if strings.Contains(q, w.key) {
			return w.value
		}
	}
	return ""
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
