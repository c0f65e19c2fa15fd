package core

import "strings"

// FallbackColor is used wherever a category has no color.
const FallbackColor = "#9CA3AF"

// Icon is a closed set of category glyph identifiers.
type Icon string

const (
	IconFallback      Icon = "circle"
	IconFood          Icon = "utensils"
	IconTransport     Icon = "car"
	IconHousing       Icon = "home"
	IconUtilities     Icon = "zap"
	IconEntertainment Icon = "film"
	IconHealth        Icon = "heart"
	IconShopping      Icon = "shopping-bag"
	IconEducation     Icon = "book"
	IconSalary        Icon = "briefcase"
	IconFreelance     Icon = "laptop"
	IconInvestments   Icon = "trending-up"
	IconGifts         Icon = "gift"
	IconWallet        Icon = "wallet"
)

// icons maps every accepted name, including a few aliases, to its Icon.
var icons = map[string]Icon{
	"circle":       IconFallback,
	"utensils":     IconFood,
	"food":         IconFood,
	"car":          IconTransport,
	"transport":    IconTransport,
	"home":         IconHousing,
	"house":        IconHousing,
	"zap":          IconUtilities,
	"film":         IconEntertainment,
	"heart":        IconHealth,
	"shopping-bag": IconShopping,
	"book":         IconEducation,
	"briefcase":    IconSalary,
	"laptop":       IconFreelance,
	"trending-up":  IconInvestments,
	"gift":         IconGifts,
	"wallet":       IconWallet,
}

// ResolveIcon maps a configured name to an Icon. Unknown or empty names
// resolve to IconFallback.
func ResolveIcon(name string) Icon {
	if icon, ok := icons[strings.ToLower(strings.TrimSpace(name))]; ok {
		return icon
	}
	return IconFallback
}

// Known reports whether i is a member of the registry.
func (i Icon) Known() bool {
	icon, ok := icons[string(i)]
	return ok && icon == i
}

// OrFallback returns i, or IconFallback when i is not a registered icon.
func (i Icon) OrFallback() Icon {
	if i.Known() {
		return i
	}
	return IconFallback
}
