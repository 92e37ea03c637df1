package schedule

import (
	"context"
	"sort"

	"github.com/jhofmeer/crewtrack/services/allocation-service/internal/model"
)

// fakeStore is an in-memory Store for engine tests. Date comparisons rely on
// the lexicographic ordering of YYYY-MM-DD strings.
type fakeStore struct {
	allocs  []model.Allocation
	saved   []model.Allocation
	findErr error
	saveErr map[string]error
}

func (s *fakeStore) FindByResourceAndDateRange(_ context.Context, resourceID, dateFrom, dateTo string) ([]model.Allocation, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	var out []model.Allocation
	for _, a := range s.allocs {
		if a.ResourceID == resourceID && a.StartDate >= dateFrom && a.StartDate <= dateTo {
			out = append(out, a)
		}
	}
	sortByStart(out)
	return out, nil
}

func (s *fakeStore) FindByResourceAndDate(_ context.Context, resourceID, date string) ([]model.Allocation, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	var out []model.Allocation
	for _, a := range s.allocs {
		if a.ResourceID == resourceID && a.StartDate == date {
			out = append(out, a)
		}
	}
	sortByStart(out)
	return out, nil
}

func (s *fakeStore) Save(_ context.Context, alloc *model.Allocation) error {
	if err := s.saveErr[alloc.ID]; err != nil {
		return err
	}
	s.saved = append(s.saved, *alloc)
	for i := range s.allocs {
		if s.allocs[i].ID == alloc.ID {
			s.allocs[i] = *alloc
			return nil
		}
	}
	s.allocs = append(s.allocs, *alloc)
	return nil
}

func sortByStart(allocs []model.Allocation) {
	sort.Slice(allocs, func(i, j int) bool {
		if allocs[i].StartDate != allocs[j].StartDate {
			return allocs[i].StartDate < allocs[j].StartDate
		}
		return allocs[i].StartTime < allocs[j].StartTime
	})
}

func closed(id, resourceID, startDate, startTime, endDate, endTime string) model.Allocation {
	return model.Allocation{
		ID:         id,
		ResourceID: resourceID,
		StartDate:  startDate,
		StartTime:  startTime,
		EndDate:    endDate,
		EndTime:    endTime,
	}
}

func open(id, resourceID, startDate, startTime string) model.Allocation {
	return model.Allocation{
		ID:         id,
		ResourceID: resourceID,
		StartDate:  startDate,
		StartTime:  startTime,
	}
}
