package scrape

import (
	"fmt"
	"sort"
	"sync"

	log "github.com/sirupsen/logrus"
)

// Counters are the outcome totals of one run.
type Counters struct {
	Seen        int // submissions walked in listings
	TextPosts   int // self posts saved as markdown
	Attempted   int // media urls handed to the fetcher
	Succeeded   int // media files stored
	Duplicates  int // submissions skipped as already downloaded
	Unsupported int // submissions no resolver recognized
	Failures    int // submissions or urls that errored
}

// Stats aggregates counters across the download workers.
type Stats struct {
	mtx   sync.Mutex
	c     Counters
	hosts map[string]int
}

func NewStats() *Stats {
	return &Stats{
		hosts: map[string]int{},
	}
}

func (s *Stats) MarkSeen() {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.c.Seen++
}

func (s *Stats) MarkText() {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.c.TextPosts++
}

// MarkAttempt counts a media url handed to the fetcher, attributed to its
// host.
func (s *Stats) MarkAttempt(host string) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.c.Attempted++
	s.hosts[host]++
}

func (s *Stats) MarkSuccess() {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.c.Succeeded++
}

func (s *Stats) MarkDuplicate() {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.c.Duplicates++
}

func (s *Stats) MarkUnsupported() {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.c.Unsupported++
}

func (s *Stats) MarkFailure() {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.c.Failures++
}

// Counters returns a copy of the current totals.
func (s *Stats) Counters() Counters {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.c
}

// Hosts returns a copy of the per-host attempt counts.
func (s *Stats) Hosts() map[string]int {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	hosts := make(map[string]int, len(s.hosts))
	for h, n := range s.hosts {
		hosts[h] = n
	}
	return hosts
}

// Summary renders the totals as a single line.
func (s *Stats) Summary() string {
	c := s.Counters()
	return fmt.Sprintf("seen=%d downloaded=%d text=%d duplicates=%d unsupported=%d failures=%d",
		c.Seen, c.Succeeded, c.TextPosts, c.Duplicates, c.Unsupported, c.Failures)
}

// LogReport logs the per-host attempt counts, busiest host first.
func (s *Stats) LogReport() {
	hosts := s.Hosts()
	if len(hosts) == 0 {
		return
	}

	names := make([]string, 0, len(hosts))
	for h := range hosts {
		names = append(names, h)
	}
	sort.Slice(names, func(i, j int) bool {
		if hosts[names[i]] != hosts[names[j]] {
			return hosts[names[i]] > hosts[names[j]]
		}
		return names[i] < names[j]
	})

	log.Info("downloads per host:")
	for _, h := range names {
		log.Infof("    %5d  %s", hosts[h], h)
	}
}
