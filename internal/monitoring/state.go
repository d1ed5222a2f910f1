package monitoring

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

type statStore struct {
	authSuccess atomic.Uint64
	authFailure atomic.Uint64

	jobs      sync.Map // string -> *jobStats
	platforms sync.Map // string -> *platformStats
}

func newStatStore() *statStore {
	return &statStore{}
}

func (s *statStore) summary() Summary {
	jobs := []JobSummary{}
	s.jobs.Range(func(key, value any) bool {
		jobs = append(jobs, value.(*jobStats).snapshot(key.(string)))
		return true
	})
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].Job < jobs[j].Job })

	platforms := []PlatformSummary{}
	s.platforms.Range(func(key, value any) bool {
		platforms = append(platforms, value.(*platformStats).snapshot(key.(string)))
		return true
	})
	sort.Slice(platforms, func(i, j int) bool { return platforms[i].Platform < platforms[j].Platform })

	return Summary{
		GeneratedAt: time.Now(),
		Auth: AuthSummary{
			Success: s.authSuccess.Load(),
			Failure: s.authFailure.Load(),
		},
		Jobs:      jobs,
		Platforms: platforms,
	}
}

func (s *statStore) recordAuth(result string) {
	if result == "success" {
		s.authSuccess.Add(1)
		return
	}
	s.authFailure.Add(1)
}

func (s *statStore) jobEntry(job string) *jobStats {
	value, _ := s.jobs.LoadOrStore(job, &jobStats{})
	return value.(*jobStats)
}

func (s *statStore) platformEntry(platform string) *platformStats {
	value, _ := s.platforms.LoadOrStore(platform, &platformStats{})
	return value.(*platformStats)
}

type jobStats struct {
	lastStatus          atomic.Value // string
	lastError           atomic.Value // string
	lastRun             atomic.Int64 // unix nano
	lastDuration        atomic.Int64
	lastSuccessfulRun   atomic.Int64
	consecutiveFailures atomic.Uint64
	totalRuns           atomic.Uint64
}

func (j *jobStats) snapshot(job string) JobSummary {
	status, _ := j.lastStatus.Load().(string)
	errMsg, _ := j.lastError.Load().(string)
	summary := JobSummary{
		Job:                 job,
		LastStatus:          status,
		LastDuration:        time.Duration(j.lastDuration.Load()),
		LastError:           errMsg,
		ConsecutiveFailures: j.consecutiveFailures.Load(),
		TotalRuns:           j.totalRuns.Load(),
	}
	if ns := j.lastRun.Load(); ns > 0 {
		summary.LastRunAt = time.Unix(0, ns)
	}
	if ns := j.lastSuccessfulRun.Load(); ns > 0 {
		summary.LastSuccessAt = time.Unix(0, ns)
	}
	return summary
}

func (j *jobStats) record(result, message string, duration time.Duration, now time.Time) {
	if duration < 0 {
		duration = 0
	}
	j.lastStatus.Store(result)
	j.lastError.Store(message)
	j.lastRun.Store(now.UnixNano())
	j.lastDuration.Store(int64(duration))
	j.totalRuns.Add(1)

	if result == "success" {
		j.consecutiveFailures.Store(0)
		j.lastSuccessfulRun.Store(now.UnixNano())
		return
	}
	j.consecutiveFailures.Add(1)
}

type platformStats struct {
	success        atomic.Uint64
	failure        atomic.Uint64
	lastError      atomic.Value // string
	lastCompleted  atomic.Int64
	totalLatencyNs atomic.Uint64
}

func (p *platformStats) snapshot(platform string) PlatformSummary {
	errMsg, _ := p.lastError.Load().(string)
	total := p.success.Load() + p.failure.Load()

	var avg float64
	if total > 0 {
		avg = float64(p.totalLatencyNs.Load()) / float64(total) / float64(time.Second)
	}

	summary := PlatformSummary{
		Platform:              platform,
		Success:               p.success.Load(),
		Failure:               p.failure.Load(),
		LastError:             errMsg,
		AverageLatencySeconds: avg,
	}
	if ns := p.lastCompleted.Load(); ns > 0 {
		summary.LastCompletedAt = time.Unix(0, ns)
	}
	return summary
}

func (p *platformStats) record(result, message string, latency time.Duration, now time.Time) {
	if latency < 0 {
		latency = 0
	}
	if result == "success" {
		p.success.Add(1)
	} else {
		p.failure.Add(1)
		p.lastError.Store(message)
	}
	p.lastCompleted.Store(now.UnixNano())
	p.totalLatencyNs.Add(uint64(latency))
}
