package domain

// FeedFilter names a feed window, or the special trending mode that switches
// the sort key from net score to hot rank.
type FeedFilter string

const (
	FilterDay      FeedFilter = "day"
	FilterWeek     FeedFilter = "week"
	FilterMonth    FeedFilter = "month"
	FilterTrending FeedFilter = "trending"
	FilterAllTime  FeedFilter = "all-time"
)

// ParseFeedFilter maps a query parameter onto a FeedFilter. Unknown values
// fall back to all-time rather than failing the request; an empty value keeps
// the original default of "day".
func ParseFeedFilter(s string) FeedFilter {
	switch FeedFilter(s) {
	case FilterDay, FilterWeek, FilterMonth, FilterTrending, FilterAllTime:
		return FeedFilter(s)
	case "":
		return FilterDay
	default:
		return FilterAllTime
	}
}
