package service

import (
	"math"
	"time"

	"github.com/hoffination/open-social-server/internal/model"
)

const msPerHour = 3600000.0

// scoreLimit caps the scheduling bump for events and rallies: the parabola
// peaks at exactly this value when "now" reaches the event midpoint or the
// rally start, however far out it was scheduled.
const scoreLimit = 10.0

// minScheduleGapHours guards the degenerate case of content scheduled at its
// creation instant, which would otherwise divide by zero. One minute keeps
// the bump steep without producing infinities.
const minScheduleGapHours = 1.0 / 60.0

// PostScore ranks posts and questions by engagement with a time decay that
// only starts biting after the first twelve hours.
func PostScore(c *model.Content, now time.Time) float64 {
	hoursElapsed := float64(now.UnixMilli())/msPerHour - float64(c.TsCreated)/msPerHour
	numerator := float64(c.Votes) + math.Pow(float64(c.Comments), 1.2)
	if hoursElapsed <= 12 {
		return numerator + 1
	}
	return (numerator + 1) / math.Pow(hoursElapsed-11, 1.1)
}

// EventScore combines post-style engagement decay with a parabolic bump
// centered on the event's midpoint. Centering on the midpoint rather than the
// start keeps a running event from going negative right after it begins.
func EventScore(c *model.Content, now time.Time) float64 {
	hoursElapsed := float64(now.UnixMilli())/msPerHour - float64(c.TsCreated)/msPerHour
	duration := math.Abs(float64(c.EndDate)/msPerHour - float64(c.StartDate)/msPerHour)
	hoursDiff := math.Abs(float64(c.StartDate)/msPerHour + duration/2 - float64(c.TsCreated)/msPerHour)
	if hoursDiff == 0 {
		hoursDiff = minScheduleGapHours
	}
	numerator := float64(c.Votes) + math.Pow(float64(c.Comments), 1.2)
	base := (numerator + 2) / math.Pow(hoursElapsed+2, 1.1)
	modifier := scoreLimit / math.Pow(hoursDiff, 2)
	return base + modifier*(-math.Pow(hoursElapsed-hoursDiff, 2)+math.Pow(hoursDiff, 2))
}

// RallyScore is the event parabola scaled by how well join requests are being
// received: a rally accepting most of its requests scores up to twice the
// base, one declining most of them falls back to the base.
func RallyScore(c *model.Content, now time.Time) float64 {
	hoursElapsed := float64(now.UnixMilli())/msPerHour - float64(c.TsCreated)/msPerHour
	hoursDiff := math.Abs(float64(c.StartDate)/msPerHour - float64(c.TsCreated)/msPerHour)
	if hoursDiff == 0 {
		hoursDiff = minScheduleGapHours
	}
	modifier := scoreLimit / math.Pow(hoursDiff, 2)
	base := modifier * (-math.Pow(hoursElapsed-hoursDiff, 2) + math.Pow(hoursDiff, 2))
	requestModifier := 1.0
	if c.RequestCount > 0 {
		requestModifier = float64(c.RequestCount-c.DeclinedCount) / float64(c.RequestCount) * 2
	}
	return math.Max(1, requestModifier) * base
}

// Score dispatches on content type. It never errors; absent numeric fields
// simply score as zero.
func Score(c *model.Content, now time.Time) float64 {
	switch c.Type {
	case model.TypePost, model.TypeQuestion:
		return PostScore(c, now)
	case model.TypeEvent:
		return EventScore(c, now)
	default:
		return RallyScore(c, now)
	}
}

// ApplyLocation boosts content from the viewer's own city by 10% and strips
// the city id from the outgoing items.
func ApplyLocation(items []model.Content, cityID int64) {
	for i := range items {
		if items[i].CityID == cityID {
			items[i].Heuristic *= 1.1
		}
		items[i].CityID = 0
	}
}

type scoreRange struct {
	min float64
	max float64
}

// InterpolateValues rescales heuristics so items of different types compete
// on one range. The dominant type (largest max among post/event/rally) keeps
// its raw scores; every other type is linearly mapped onto
// [pairedMin, dominantMax], where pairedMin is the dominant type's own min
// unless that type's scores are all equal, in which case the smallest min
// across types is used. A non-dominant type whose scores are all equal maps
// to the dominant max wholesale. Contact rallies are scaled as their own
// bucket and re-tagged as plain rallies on the way out.
func InterpolateValues(items []model.Content) []model.Content {
	ranges := map[string]*scoreRange{
		model.TypePost:         {min: 99999, max: 0},
		model.TypeEvent:        {min: 99999, max: 0},
		model.TypeRally:        {min: 99999, max: 0},
		model.TypeContactRally: {min: 99999, max: 0},
	}
	for i := range items {
		r := ranges[bucketType(items[i].Type)]
		if items[i].Heuristic > r.max {
			r.max = items[i].Heuristic
		}
		if items[i].Heuristic < r.min {
			r.min = items[i].Heuristic
		}
	}

	post, event, rally := ranges[model.TypePost], ranges[model.TypeEvent], ranges[model.TypeRally]
	absoluteMax := math.Max(post.max, math.Max(event.max, rally.max))
	absoluteMin := math.Min(post.max, math.Min(event.max, rally.max))

	var pairedMin float64
	switch {
	case absoluteMax == post.max && post.min != post.max:
		pairedMin = post.min
	case absoluteMax == event.max && event.min != event.max:
		pairedMin = event.min
	case absoluteMax == rally.max && rally.min != rally.max:
		pairedMin = rally.min
	default:
		pairedMin = absoluteMin
	}

	for i := range items {
		r := ranges[bucketType(items[i].Type)]
		if r.max != absoluteMax {
			if r.max == r.min {
				items[i].Heuristic = absoluteMax
			} else {
				items[i].Heuristic = linearInterpolation(items[i].Heuristic, r.max, r.min, absoluteMax, pairedMin)
			}
		}
		if items[i].Type == model.TypeContactRally {
			items[i].Type = model.TypeRally
		}
	}
	return items
}

func bucketType(t string) string {
	switch t {
	case model.TypePost, model.TypeQuestion:
		return model.TypePost
	default:
		return t
	}
}

func linearInterpolation(heuristic, localMax, localMin, totalMax, totalMin float64) float64 {
	return totalMin + (totalMax-totalMin)*((heuristic-localMin)/(localMax-localMin))
}

// DayCounts are the day bucket's same-day content tallies the quota
// calculation reads once per feed composition.
type DayCounts struct {
	RecentPosts     int64
	UpcomingEvents  int64
	UpcomingRallies int64
}

// QuotaFloors are the configured minimum feed share per content type. They
// must sum to at most 1.
type QuotaFloors struct {
	Post  float64
	Event float64
	Rally float64
}

// Percentages is the share of one feed page each content type gets.
type Percentages struct {
	Posts   float64 `json:"posts"`
	Events  float64 `json:"events"`
	Rallies float64 `json:"rallies"`
}

// ContentPercentages turns the day's raw counts into page fractions. Floors
// apply in fixed order post, event, rally; a category raised to its floor is
// pinned and never lends to a later deficit, which is taken evenly from
// whichever categories are still free.
func ContentPercentages(counts DayCounts, floors QuotaFloors) Percentages {
	total := float64(counts.RecentPosts + counts.UpcomingEvents + counts.UpcomingRallies)
	if total == 0 {
		// Nothing submitted today; split the page evenly.
		return Percentages{Posts: 1.0 / 3, Events: 1.0 / 3, Rallies: 1.0 / 3}
	}
	posts := float64(counts.RecentPosts) / total
	events := float64(counts.UpcomingEvents) / total
	rallies := float64(counts.UpcomingRallies) / total
	postsAtMin, eventsAtMin := false, false

	if posts < floors.Post {
		diff := (floors.Post - posts) / 2
		events -= diff
		rallies -= diff
		posts = floors.Post
		postsAtMin = true
	}
	if events < floors.Event {
		diff := floors.Event - events
		if !postsAtMin {
			diff /= 2
			posts -= diff
		}
		rallies -= diff
		events = floors.Event
		eventsAtMin = true
	}
	if rallies < floors.Rally {
		diff := floors.Rally - rallies
		if !eventsAtMin && !postsAtMin {
			diff /= 2
		}
		if !eventsAtMin {
			events -= diff
		}
		if !postsAtMin {
			posts -= diff
		}
		rallies = floors.Rally
	}
	return Percentages{Posts: posts, Events: events, Rallies: rallies}
}
