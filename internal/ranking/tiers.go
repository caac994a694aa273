package ranking

// Tier is one band of the point ladder.
type Tier struct {
	Name      string `json:"name"`
	MinPoints int64  `json:"min_points"`
}

// Tiers is ordered by ascending threshold. The first band starts at zero.
var Tiers = []Tier{
	{Name: "Bronze", MinPoints: 0},
	{Name: "Silver", MinPoints: 500},
	{Name: "Gold", MinPoints: 1500},
	{Name: "Platinum", MinPoints: 3000},
	{Name: "Diamond", MinPoints: 6000},
	{Name: "Master", MinPoints: 10000},
	{Name: "Grandmaster", MinPoints: 15000},
	{Name: "Legend", MinPoints: 25000},
}

// TierFor returns the highest band whose threshold points reach.
func TierFor(points int64) Tier {
	tier := Tiers[0]
	for _, t := range Tiers {
		if points < t.MinPoints {
			break
		}
		tier = t
	}
	return tier
}
