// Package memorize turns raw text into graph memories: it picks the topics a
// text talks about, asks the remote endpoint for one sentence per topic, and
// records those sentences as fragments linked by co-occurrence.
package memorize

import (
	"context"
	"errors"
	"strings"
	"sync"

	"memgraph/backend/internal/adapter"
	"memgraph/backend/internal/constants"
	"memgraph/backend/internal/graph"
	"memgraph/backend/internal/observe"
	apperrors "memgraph/backend/pkg/errors"
	"memgraph/backend/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrNoTopics is returned when neither the remote endpoint nor the
// segmenter produced a topic
var ErrNoTopics = errors.New("no topics found in text")

// Generator produces completions. *adapter.TextClient satisfies it.
type Generator interface {
	Complete(ctx context.Context, prompt string) *adapter.Completion
}

// Persister applies a run's changes and saves the graph as one step, so no
// snapshot load can slip between them. *graphstore.Store satisfies it.
type Persister interface {
	Update(ctx context.Context, g *graph.Graph, apply func()) error
}

// Result describes one Memorize run
type Result struct {
	RunID   uuid.UUID `json:"run_id"`
	Topics  []string  `json:"topics"`
	Stored  []string  `json:"stored"`
	Skipped []string  `json:"skipped"`
}

// Memorizer writes memories into a graph
type Memorizer struct {
	gen         Generator
	graph       *graph.Graph
	persister   Persister
	segmenter   Segmenter
	topics      int
	concurrency int
	metrics     *observe.Metrics
	logger      *zap.Logger

	applyMu sync.Mutex // one run applies its fragments at a time
}

// Option configures a Memorizer
type Option func(*Memorizer)

// WithPersister saves the graph after every successful run
func WithPersister(p Persister) Option {
	return func(m *Memorizer) { m.persister = p }
}

// WithSegmenter sets the fallback used when topic extraction fails. Pass
// nil to disable the fallback.
func WithSegmenter(s Segmenter) Option {
	return func(m *Memorizer) { m.segmenter = s }
}

// WithTopics sets how many topics are extracted per run
func WithTopics(n int) Option {
	return func(m *Memorizer) {
		if n > 0 {
			m.topics = n
		}
	}
}

// WithConcurrency bounds parallel summary requests
func WithConcurrency(n int) Option {
	return func(m *Memorizer) {
		if n > 0 {
			m.concurrency = n
		}
	}
}

// WithMetrics overrides the default metrics instance
func WithMetrics(met *observe.Metrics) Option {
	return func(m *Memorizer) { m.metrics = met }
}

// WithLogger overrides the component logger
func WithLogger(l *zap.Logger) Option {
	return func(m *Memorizer) { m.logger = l }
}

// New creates a Memorizer writing into g
func New(gen Generator, g *graph.Graph, opts ...Option) *Memorizer {
	m := &Memorizer{
		gen:         gen,
		graph:       g,
		segmenter:   FieldsSegmenter{},
		topics:      5,
		concurrency: constants.MaxConcurrentSummaries,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.metrics == nil {
		m.metrics = observe.DefaultMetrics()
	}
	if m.logger == nil {
		m.logger = logger.For(logger.Memorize)
	}
	return m
}

// Memorize extracts topics from text, summarizes each one and stores the
// summaries as fragments. Every pair of stored topics is connected.
func (m *Memorizer) Memorize(ctx context.Context, text string) (*Result, error) {
	text = strings.TrimSpace(text)
	res := &Result{RunID: uuid.New(), Topics: []string{}, Stored: []string{}, Skipped: []string{}}
	log := m.logger.With(zap.String("run_id", res.RunID.String()))

	topics, err := m.extractTopics(ctx, text, log)
	if err != nil {
		return nil, err
	}
	res.Topics = topics

	summaries := make([]string, len(topics))
	ok := make([]bool, len(topics))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.concurrency)
	for i, topic := range topics {
		idx := i
		topic := topic
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			c := m.gen.Complete(gctx, SummaryPrompt(text, topic))
			if !c.OK() {
				log.Warn("Skipping topic without summary",
					zap.String("topic", topic),
					zap.String("outcome", string(c.Outcome)),
				)
				return nil
			}
			summary := strings.TrimSpace(c.Content)
			if summary == "" {
				return nil
			}
			summaries[idx] = summary
			ok[idx] = true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, apperrors.NewContextCancelled("memorize", err)
	}

	for i, topic := range topics {
		if ok[i] {
			res.Stored = append(res.Stored, topic)
		} else {
			res.Skipped = append(res.Skipped, topic)
		}
	}
	apply := func() {
		m.applyMu.Lock()
		defer m.applyMu.Unlock()
		for i, topic := range topics {
			if ok[i] {
				m.graph.AddFragment(topic, summaries[i])
			}
		}
		for i := 0; i < len(res.Stored); i++ {
			for j := i + 1; j < len(res.Stored); j++ {
				m.graph.Connect(res.Stored[i], res.Stored[j])
			}
		}
	}

	var persistErr error
	switch {
	case len(res.Stored) == 0:
	case m.persister != nil:
		persistErr = m.persister.Update(ctx, m.graph, apply)
	default:
		apply()
	}

	m.metrics.MemorizeTopics.Add(ctx, int64(len(res.Stored)))
	log.Info("Memorized text",
		zap.Strings("stored", res.Stored),
		zap.Int("skipped", len(res.Skipped)),
	)
	if persistErr != nil {
		return res, persistErr
	}
	return res, nil
}

func (m *Memorizer) extractTopics(ctx context.Context, text string, log *zap.Logger) ([]string, error) {
	if text == "" {
		return nil, ErrNoTopics
	}

	c := m.gen.Complete(ctx, TopicPrompt(text, m.topics))
	if c.OK() {
		if topics := limit(ParseTopics(c.Content), m.topics); len(topics) > 0 {
			return topics, nil
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, apperrors.NewContextCancelled("topic extraction", err)
	}

	if m.segmenter == nil {
		return nil, ErrNoTopics
	}
	log.Warn("Topic extraction failed, falling back to segmenter",
		zap.String("outcome", string(c.Outcome)),
	)
	topics := limit(m.segmenter.Segment(text), m.topics)
	if len(topics) == 0 {
		return nil, ErrNoTopics
	}
	return topics, nil
}

func limit(topics []string, n int) []string {
	if len(topics) > n {
		return topics[:n]
	}
	return topics
}
