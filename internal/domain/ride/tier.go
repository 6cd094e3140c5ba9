package ride

// Tier is a ride product with a price multiplier applied per minute of driving.
type Tier struct {
	Name            string  `json:"name"`
	IconURL         string  `json:"icon_url"`
	PriceMultiplier float64 `json:"multiplier"`
}

// DefaultCatalog lists the tiers in display order.
var DefaultCatalog = []Tier{
	{Name: "UberX", IconURL: "https://i.ibb.co/cyvcpfF/uberx.png", PriceMultiplier: 1},
	{Name: "UberXL", IconURL: "https://i.ibb.co/YDYMKny/uberxl.png", PriceMultiplier: 1.5},
	{Name: "Black", IconURL: "https://i.ibb.co/Xx4G91m/uberblack.png", PriceMultiplier: 2},
	{Name: "Comfort", IconURL: "https://i.ibb.co/cyvcpfF/uberx.png", PriceMultiplier: 1.2},
	{Name: "Black SUV", IconURL: "https://i.ibb.co/1nStPWT/uberblacksuv.png", PriceMultiplier: 2.8},
}

// FindTier looks a tier up by name in catalog.
func FindTier(catalog []Tier, name string) (Tier, bool) {
	for _, t := range catalog {
		if t.Name == name {
			return t, true
		}
	}
	return Tier{}, false
}
