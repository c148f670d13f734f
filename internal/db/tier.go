package db

import "fmt"

type Tier string

const (
	TierFree        Tier = "free"
	TierBasic       Tier = "basic"
	TierPro         Tier = "pro"
	TierPremiumPlus Tier = "premium_plus"
)

func ParseTier(s string) (Tier, error) {
	t := Tier(s)
	switch t {
	case TierFree, TierBasic, TierPro, TierPremiumPlus:
		return t, nil
	}
	return "", fmt.Errorf("unknown subscription tier %q", s)
}
