package normalize

import "github.com/samirrijal/citydiscover/internal/core/domain"

// CategoryRule maps one upstream tag to a category. A rule with no Values
// matches any value of Key.
type CategoryRule struct {
	Key      string
	Values   []string
	Category domain.PlaceCategory
}

// DefaultCategoryRules is evaluated top to bottom; the first match wins.
// Key priority: amenity, tourism, leisure, shop, then historic.
var DefaultCategoryRules = []CategoryRule{
	{Key: "amenity", Values: []string{"cafe"}, Category: domain.CategoryCafe},
	{Key: "amenity", Values: []string{"restaurant", "fast_food", "bar", "pub", "food_court", "ice_cream"}, Category: domain.CategoryRestaurant},
	{Key: "amenity", Values: []string{"theatre", "cinema", "arts_centre", "events_venue", "nightclub"}, Category: domain.CategoryEvent},
	{Key: "amenity", Values: []string{"bank", "post_office", "atm", "clinic", "dentist", "pharmacy"}, Category: domain.CategoryService},
	{Key: "tourism", Values: []string{"museum", "gallery"}, Category: domain.CategoryMuseum},
	{Key: "tourism", Values: []string{"attraction"}, Category: domain.CategoryHistorical},
	{Key: "leisure", Values: []string{"park", "garden"}, Category: domain.CategoryPark},
	{Key: "shop", Category: domain.CategoryShopping},
	{Key: "historic", Category: domain.CategoryHistorical},
}

// Categorize applies rules to tags and falls back to Other.
func Categorize(tags map[string]string, rules []CategoryRule) domain.PlaceCategory {
	for _, r := range rules {
		v, ok := tags[r.Key]
		if !ok || v == "" {
			continue
		}
		if len(r.Values) == 0 {
			return r.Category
		}
		for _, want := range r.Values {
			if v == want {
				return r.Category
			}
		}
	}
	return domain.CategoryOther
}
