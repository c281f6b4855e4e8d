package models

import "time"

const (
	AdTypeFree     = "free"
	AdType7Days    = "7days"
	AdType30Days   = "30days"
	AdTypeFeatured = "featured"
)

// MaxActiveFreeAds caps approved, pending and edited free listings per user.
const MaxActiveFreeAds = 3

type AdTier struct {
	Name      string
	Price     int
	Duration  time.Duration
	Days      int
	MaxImages int
}

var adTiers = map[string]AdTier{
	AdTypeFree:     {Name: AdTypeFree, Price: 0, Days: 30, Duration: 30 * 24 * time.Hour, MaxImages: 1},
	AdType7Days:    {Name: AdType7Days, Price: 5000, Days: 7, Duration: 7 * 24 * time.Hour, MaxImages: 3},
	AdType30Days:   {Name: AdType30Days, Price: 15000, Days: 30, Duration: 30 * 24 * time.Hour, MaxImages: 5},
	AdTypeFeatured: {Name: AdTypeFeatured, Price: 50000, Days: 30, Duration: 30 * 24 * time.Hour, MaxImages: 8},
}

// TierFor resolves an ad type. Unknown or empty values are treated as free.
func TierFor(adType string) AdTier {
	if tier, ok := adTiers[adType]; ok {
		return tier
	}
	return adTiers[AdTypeFree]
}

func IsKnownAdType(adType string) bool {
	_, ok := adTiers[adType]
	return ok
}

func (t AdTier) IsPaid() bool {
	return t.Name != AdTypeFree
}
