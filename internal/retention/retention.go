// Package retention decides which channel items have aged out.
package retention

import (
	"time"

	"floatsync/internal/config"
)

const day = 24 * time.Hour

// Cutoff returns now minus the channel's retention window. ok is false when
// the channel keeps videos forever.
func Cutoff(channel config.Channel, now time.Time) (cutoff time.Time, ok bool) {
	if channel.DaysToKeepVideos == nil {
		return time.Time{}, false
	}
	return now.Add(-time.Duration(*channel.DaysToKeepVideos) * day), true
}

// Item is the part of a recorded item retention looks at.
type Item struct {
	ReleaseDate  time.Time
	ChannelTitle string
}

// IsExpired reports whether item belongs to channel and was released before
// cutoff. Channel titles are the partition key tying stored items to their
// channel.
func IsExpired(item Item, channel config.Channel, cutoff time.Time) bool {
	return item.ChannelTitle == channel.Title && item.ReleaseDate.Before(cutoff)
}

// Evaluator applies retention rules against a clock.
type Evaluator struct {
	now func() time.Time
}

// NewEvaluator returns an evaluator reading now; nil means time.Now.
func NewEvaluator(now func() time.Time) *Evaluator {
	if now == nil {
		now = time.Now
	}
	return &Evaluator{now: now}
}

// Now returns the evaluator's current time.
func (e *Evaluator) Now() time.Time { return e.now() }

// Cutoff is Cutoff at the evaluator's current time.
func (e *Evaluator) Cutoff(channel config.Channel) (time.Time, bool) {
	return Cutoff(channel, e.now())
}

// ShouldStop reports whether a post released at releaseDate already predates
// the channel's cutoff. Posts arrive newest first, so everything after it is
// older still and discovery can end.
func (e *Evaluator) ShouldStop(channel config.Channel, releaseDate time.Time) bool {
	cutoff, ok := e.Cutoff(channel)
	if !ok {
		return false
	}
	return releaseDate.Before(cutoff)
}
