package scheduler

import (
	"errors"
	"testing"
	"time"

	"github.com/dungji/dungji-market-backend/internal/app/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeJobs struct {
	expired   int
	advanced  int
	cleanedUp []time.Duration
	err       error
}

func (f *fakeJobs) ExpireTokens() (int64, error) {
	f.expired++
	return 2, f.err
}

func (f *fakeJobs) AdvanceStatuses() (*service.AdvanceResult, error) {
	f.advanced++
	if f.err != nil {
		return nil, f.err
	}
	return &service.AdvanceResult{Voting: 1}, nil
}

func (f *fakeJobs) CleanupPhoneVerifications(olderThan time.Duration) (int64, error) {
	f.cleanedUp = append(f.cleanedUp, olderThan)
	return 3, f.err
}

func TestMarketScheduler_Jobs(t *testing.T) {
	jobs := &fakeJobs{}
	s := NewMarketScheduler(jobs, jobs, jobs)

	s.ExpireTokens()
	s.AdvanceGroupBuys()
	s.CleanupVerifications()

	assert.Equal(t, 1, jobs.expired)
	assert.Equal(t, 1, jobs.advanced)
	assert.Equal(t, []time.Duration{24 * time.Hour}, jobs.cleanedUp)
}

func TestMarketScheduler_JobErrorsAreSwallowed(t *testing.T) {
	jobs := &fakeJobs{err: errors.New("db down")}
	s := NewMarketScheduler(jobs, jobs, jobs)

	assert.NotPanics(t, func() {
		s.ExpireTokens()
		s.AdvanceGroupBuys()
		s.CleanupVerifications()
	})
}

func TestMarketScheduler_StartStop(t *testing.T) {
	jobs := &fakeJobs{}
	s := NewMarketScheduler(jobs, jobs, jobs)

	require.NoError(t, s.Start())
	assert.Len(t, s.cron.Entries(), 3)
	s.Stop()
}
