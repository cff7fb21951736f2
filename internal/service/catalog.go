package service

import (
	"net/url"

	"cliq_go/internal/domain"

	"github.com/shopspring/decimal"
)

// Category keys produced by the keyword interpreter
const (
	CategoryGeneral       = "general"
	CategoryWinterJackets = "winter_jackets"
	CategoryMonitors      = "monitors"
	CategoryHeadphones    = "headphones"
	CategoryLaptops       = "laptops"
	CategoryRunningShoes  = "running_shoes"
	CategoryLuggage       = "luggage"
)

type catalogEntry struct {
	id, name, brand  string
	price, original  string
	eta              string
	rating           float64
	reviews          int
	tag              string
	description, why string
	photo            string
	retailer         string
	features         []string
}

var catalog = map[string][]catalogEntry{
	CategoryWinterJackets: {
		{"wj-001", "Patagonia Down Sweater Jacket", "Patagonia", "279.00", "329.00", "Arrives in 2-4 days", 4.8, 5320,
			"Best overall", "800-fill recycled down in a packable shell.", "Warm, light and built to last through many winters.",
			"1544923246-77307dd654cb", "REI", []string{"800-fill down", "Packable", "Windproof shell"}},
		{"wj-002", "The North Face Thermoball Eco Jacket", "The North Face", "199.00", "230.00", "Arrives in 3-5 days", 4.6, 3890,
			"Best value", "Synthetic insulation that stays warm when wet.", "Strong warmth per dollar with two coupons available.",
			"1591047139829-d91aecb6caea", "Amazon", []string{"ThermoBall insulation", "Water-resistant", "Stuff pocket"}},
		{"wj-003", "Columbia Powder Lite Hooded Jacket", "Columbia", "99.99", "140.00", "Arrives tomorrow", 4.5, 12040,
			"Budget pick", "Omni-Heat reflective lining under a quilted shell.", "Solid cold-weather coverage for under $100.",
			"1548883354-94bcfe321cbb", "Amazon", []string{"Omni-Heat lining", "Hooded", "Machine washable"}},
		{"wj-004", "Arc'teryx Cerium Hoody", "Arc'teryx", "379.00", "", "Arrives in 4-6 days", 4.9, 1210,
			"Premium pick", "Featherlight 850-fill down hoody.", "Top warmth-to-weight if budget is not the constraint.",
			"1520975954732-35dd22299614", "Arc'teryx", []string{"850-fill down", "Helmet-free hood", "Ultralight"}},
	},
	CategoryMonitors: {
		{"mon-001", "Dell UltraSharp U2723QE 27\" 4K", "Dell", "519.99", "629.99", "Arrives in 2-3 days", 4.7, 2870,
			"Best overall", "27-inch 4K IPS Black panel with USB-C hub.", "Sharp, colour-accurate and a single-cable desk setup.",
			"1527443224154-c4a3942d3acf", "Best Buy", []string{"4K IPS Black", "90W USB-C", "Factory calibrated"}},
		{"mon-002", "LG 27GP850-B UltraGear 27\" QHD", "LG", "299.99", "399.99", "Arrives tomorrow", 4.7, 9410,
			"Best value", "165Hz Nano IPS gaming monitor.", "Fast refresh and great colour at a mid-range price.",
			"1593640408182-31c70c8268f5", "Amazon", []string{"165Hz", "1ms GtG", "HDR400"}},
		{"mon-003", "ASUS VA24EHE 24\" Full HD", "ASUS", "109.00", "129.00", "Arrives in 2-4 days", 4.5, 15800,
			"Budget pick", "Eye-care IPS monitor for everyday work.", "Reliable second screen that barely dents the budget.",
			"1585792180666-f7347c490ee2", "Amazon", []string{"75Hz IPS", "Flicker-free", "Slim bezel"}},
	},
	CategoryHeadphones: {
		{"hp-001", "Sony WH-1000XM5", "Sony", "348.00", "399.99", "Arrives in 1-2 days", 4.7, 18200,
			"Best overall", "Industry-leading noise cancelling over-ears.", "Best-in-class ANC for travel and focus work.",
			"1618366712010-f4ae9c647dcb", "Amazon", []string{"Adaptive ANC", "30h battery", "Multipoint"}},
		{"hp-002", "Bose QuietComfort Ultra Headphones", "Bose", "429.00", "", "Arrives in 2-3 days", 4.6, 4100,
			"Premium pick", "Immersive spatial audio with plush comfort.", "The most comfortable long-session pair here.",
			"1546435770-a3e426bf472b", "Best Buy", []string{"Immersive audio", "CustomTune", "24h battery"}},
		{"hp-003", "Anker Soundcore Space Q45", "Anker", "99.99", "149.99", "Arrives tomorrow", 4.4, 7600,
			"Best value", "Adaptive ANC at a fraction of flagship prices.", "80% of the flagship experience with a coupon on top.",
			"1505740420928-5e560c06d30e", "Amazon", []string{"Adaptive ANC", "50h battery", "LDAC"}},
	},
	CategoryLaptops: {
		{"lt-001", "Apple MacBook Air 13\" M3", "Apple", "1099.00", "1199.00", "Arrives in 2-3 days", 4.8, 6200,
			"Best overall", "Fanless M3 laptop with all-day battery.", "Silent, fast and lasts a full workday unplugged.",
			"1517336714731-489689fd1ca8", "Apple", []string{"M3 chip", "18h battery", "Liquid Retina"}},
		{"lt-002", "Lenovo IdeaPad Slim 5 14\"", "Lenovo", "649.99", "799.99", "Arrives in 3-5 days", 4.5, 2300,
			"Best value", "Ryzen 7 ultrabook with 16GB RAM.", "Plenty of power for school and office for the money.",
			"1496181133206-80ce9b88a853", "Best Buy", []string{"Ryzen 7", "16GB RAM", "1080p webcam"}},
		{"lt-003", "ASUS ROG Zephyrus G14", "ASUS", "1599.99", "1799.99", "Arrives in 2-4 days", 4.6, 1850,
			"Premium pick", "14-inch OLED gaming laptop with RTX graphics.", "Portable gaming rig that doubles as a creative workstation.",
			"1603302576837-37561b2e2302", "Amazon", []string{"OLED 120Hz", "RTX 4060", "Compact chassis"}},
	},
	CategoryRunningShoes: {
		{"rs-001", "Brooks Ghost 16", "Brooks", "139.95", "", "Arrives in 2-3 days", 4.7, 8900,
			"Best overall", "Smooth, cushioned daily trainer.", "A do-everything shoe for most runners.",
			"1542291026-7eec264c27ff", "Zappos", []string{"DNA Loft v3", "Neutral", "Breathable mesh"}},
		{"rs-002", "Nike Pegasus 41", "Nike", "109.97", "140.00", "Arrives tomorrow", 4.6, 11300,
			"Best value", "Responsive everyday trainer on sale.", "Proven comfort at a markdown.",
			"1606107557195-0e29a4b5b4aa", "Nike", []string{"ReactX foam", "Air Zoom units", "Durable outsole"}},
		{"rs-003", "ASICS GEL-Contend 8", "ASICS", "64.95", "75.00", "Arrives in 3-5 days", 4.5, 14200,
			"Budget pick", "Entry-level runner with GEL cushioning.", "Comfortable miles without overspending.",
			"1595950653106-6c9ebd614d3a", "Amazon", []string{"GEL cushioning", "Wide toe box", "Lightweight"}},
	},
	CategoryLuggage: {
		{"lg-001", "Away The Carry-On", "Away", "275.00", "", "Arrives in 3-5 days", 4.6, 5400,
			"Best overall", "Polycarbonate carry-on with compression system.", "Rugged, fits overhead bins and glides on 360 wheels.",
			"1565026057447-bc90a3dceb87", "Away", []string{"Polycarbonate shell", "TSA lock", "Lifetime warranty"}},
		{"lg-002", "Samsonite Freeform Carry-On Spinner", "Samsonite", "139.99", "199.99", "Arrives in 2-3 days", 4.6, 21000,
			"Best value", "Expandable hardside spinner.", "Big-brand durability at half the price of premium cases.",
			"1553531384-cc64ac80f931", "Amazon", []string{"Expandable", "Double spinner wheels", "10-year warranty"}},
		{"lg-003", "Amazon Basics Hardside Spinner 21\"", "Amazon Basics", "59.99", "", "Arrives tomorrow", 4.4, 73000,
			"Budget pick", "No-frills hardside carry-on.", "Does the job for occasional trips.",
			"1581553680321-4fffae59fccd", "Amazon", []string{"Hardside", "Spinner wheels", "Lightweight"}},
	},
}

// generalPicks are shown when no category could be determined
var generalPicks = []string{"hp-003", "mon-002", "wj-002", "lg-002"}

// MockProducts returns the catalogue picks for a category. Unknown categories
// get a cross-category selection.
func MockProducts(category string) []domain.Product {
	entries, ok := catalog[category]
	if !ok {
		for _, id := range generalPicks {
			if e, found := lookupEntry(id); found {
				entries = append(entries, e)
			}
		}
		category = CategoryGeneral
	}

	products := make([]domain.Product, 0, len(entries))
	for _, e := range entries {
		products = append(products, e.product(categoryOf(e.id, category)))
	}
	return products
}

func lookupEntry(id string) (catalogEntry, bool) {
	for _, entries := range catalog {
		for _, e := range entries {
			if e.id == id {
				return e, true
			}
		}
	}
	return catalogEntry{}, false
}

func categoryOf(id, fallback string) string {
	for cat, entries := range catalog {
		for _, e := range entries {
			if e.id == id {
				return cat
			}
		}
	}
	return fallback
}

func (e catalogEntry) product(category string) domain.Product {
	p := domain.Product{
		ID:               e.id,
		Name:             e.name,
		Brand:            e.brand,
		Price:            decimal.RequireFromString(e.price),
		ShippingETA:      e.eta,
		Rating:           e.rating,
		ReviewCount:      e.reviews,
		ValueTag:         e.tag,
		Description:      e.description,
		WhyRecommended:   e.why,
		ImageURL:         "https://images.unsplash.com/photo-" + e.photo + "?w=400&h=300&fit=crop",
		SourceName:       e.retailer,
		SourceURL:        searchURL(e.retailer, e.name),
		Category:         category,
		AvailableCoupons: len(couponCatalog[e.id]),
		KeyFeatures:      append([]string(nil), e.features...),
	}
	if e.original != "" {
		orig := decimal.RequireFromString(e.original)
		p.OriginalPrice = &orig
	}
	return p
}

var retailerSearch = map[string]string{
	"Amazon":   "https://www.amazon.com/s?k=",
	"Best Buy": "https://www.bestbuy.com/site/searchpage.jsp?st=",
	"REI":      "https://www.rei.com/search?q=",
	"Zappos":   "https://www.zappos.com/search?term=",
}

// searchURL builds a retailer search link; retailers without a known search
// page fall back to Amazon.
func searchURL(retailer, name string) string {
	prefix, ok := retailerSearch[retailer]
	if !ok {
		prefix = retailerSearch["Amazon"]
	}
	return prefix + url.QueryEscape(name)
}
