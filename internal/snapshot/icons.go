package snapshot

// IconID names a display glyph the client knows how to render.
type IconID string

const (
	IconUtensils     IconID = "utensils"
	IconShoppingCart IconID = "shopping-cart"
	IconFilm         IconID = "film"
	IconBus          IconID = "bus"
	IconShirt        IconID = "shirt"
	IconHeartPulse   IconID = "heart-pulse"
	IconBookOpen     IconID = "book-open"
	IconCoffee       IconID = "coffee"
	IconLandmark     IconID = "landmark"
	IconBriefcase    IconID = "briefcase"
	IconArrows       IconID = "arrow-right-left"
	IconDefault      IconID = "lightbulb"
)

var categoryIcons = map[string]IconID{
	"Food":          IconUtensils,
	"Groceries":     IconShoppingCart,
	"Entertainment": IconFilm,
	"Transport":     IconBus,
	"Shopping":      IconShirt,
	"Health":        IconHeartPulse,
	"Education":     IconBookOpen,
	"Coffee":        IconCoffee,
	"Withdrawal":    IconLandmark,
	"Deposit":       IconLandmark,
	"Salary":        IconBriefcase,
	"Transfer":      IconArrows,
}

// ResolveIcon maps a category label to its glyph. The lookup is
// case-sensitive; anything unknown gets the default glyph.
func ResolveIcon(category string) IconID {
	if icon, ok := categoryIcons[category]; ok {
		return icon
	}
	return IconDefault
}
