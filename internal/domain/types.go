package domain

// MaxDishes caps how many extracted dish names survive to the image search.
// Menus routinely list far more; the first MaxDishes in extraction order win.
const MaxDishes = 10

// PhotoResult pairs an extracted dish name with the image URL the search
// found for it. ImageURL is empty when the search returned no results.
type PhotoResult struct {
	Dish     string
	ImageURL string
}
