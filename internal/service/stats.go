package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sakif/guestlist/internal/model"
	"github.com/sakif/guestlist/internal/repository"
)

type StatsService struct {
	stats  repository.StatsRepository
	guard  guard
	loc    *time.Location
	logger *slog.Logger
}

// NewStatsService wires a StatsService. Entry hours are reported in loc;
// a nil loc means UTC.
func NewStatsService(stats repository.StatsRepository, owners repository.OwnerRepository, loc *time.Location, logger *slog.Logger) *StatsService {
	if loc == nil {
		loc = time.UTC
	}
	return &StatsService{
		stats:  stats,
		guard:  guard{owners: owners},
		loc:    loc,
		logger: logger,
	}
}

// EventStats returns the check-in dashboard of an event owned by the caller.
// All figures come from one consistent read; a failure returns no figures.
func (s *StatsService) EventStats(ctx context.Context, callerID string, eventID int64) (*model.EventStats, error) {
	if _, err := s.guard.event(ctx, callerID, eventID); err != nil {
		return nil, err
	}

	snap, err := s.stats.EventStatsSnapshot(ctx, eventID)
	if err != nil {
		s.logger.Error("failed to read event stats",
			slog.Int64("eventID", eventID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("reading event stats: %w", err)
	}

	return buildStats(snap, s.loc), nil
}

// buildStats turns a snapshot into the dashboard shape. Ticket types nobody
// holds stay in the map with 0. The timeline holds one entry per hour of the
// day that saw at least one check-in, ascending.
func buildStats(snap *model.StatsSnapshot, loc *time.Location) *model.EventStats {
	stats := &model.EventStats{
		TotalGuests:      snap.TotalGuests,
		EnteredGuests:    snap.EnteredGuests,
		TicketTypeCounts: make(map[string]int, len(snap.TicketTypeCounts)),
		EntryTimeline:    make([]model.HourlyCount, 0),
	}

	for _, c := range snap.TicketTypeCounts {
		stats.TicketTypeCounts[c.Name] = c.Count
	}

	var perHour [24]int
	for _, t := range snap.EntryTimes {
		perHour[t.In(loc).Hour()]++
	}
	for hour, n := range perHour {
		if n > 0 {
			stats.EntryTimeline = append(stats.EntryTimeline, model.HourlyCount{Hour: hour, Count: n})
		}
	}
	return stats
}
