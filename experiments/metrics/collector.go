package metrics

import "time"

// EpisodeMetric captures how one episode played out.
type EpisodeMetric struct {
	Steps      int
	Terminated bool
	Truncated  bool
	Rewards    map[string]float64 // cumulative per agent
	Duration   time.Duration
}

// EpisodeRecord is one stored row of an experiment.
type EpisodeRecord struct {
	ID int
	EpisodeMetric
}

// Collector accumulates one episode's metric between Start and Complete.
type Collector interface {
	Start()
	AddStep()
	AddReward(agent string, reward float64)
	Complete(terminated, truncated bool) EpisodeMetric
}

type collector struct {
	startTime time.Time
	steps     int
	rewards   map[string]float64
}

func NewCollector() Collector {
	return &collector{rewards: map[string]float64{}}
}

func (m *collector) Start() {
	m.startTime = time.Now()
	m.steps = 0
	m.rewards = map[string]float64{}
}

func (m *collector) AddStep() {
	m.steps++
}

func (m *collector) AddReward(agent string, reward float64) {
	m.rewards[agent] += reward
}

func (m *collector) Complete(terminated, truncated bool) EpisodeMetric {
	return EpisodeMetric{
		Steps:      m.steps,
		Terminated: terminated,
		Truncated:  truncated,
		Rewards:    m.rewards,
		Duration:   time.Since(m.startTime),
	}
}

type dummyCollector struct{}

func NewDummyCollector() Collector {
	return &dummyCollector{}
}

func (m *dummyCollector) Start()                                 {}
func (m *dummyCollector) AddStep()                               {}
func (m *dummyCollector) AddReward(agent string, reward float64) {}
func (m *dummyCollector) Complete(terminated, truncated bool) EpisodeMetric {
	return EpisodeMetric{}
}
