package engine

import (
	"sync"

	"memweave/storage"
)

// Turn is one finished exchange handed to the pipeline after the reply
// has already been delivered.
type Turn struct {
	Scope     storage.Scope
	Response  string
	UserInput string
	Mode      string
}

// Pipeline runs extract-and-persist off the request path. Enqueue never
// blocks: when the queue is full the turn is dropped, keeping reply
// delivery low-latency. One worker per scope ordering is not needed
// because callers already serialize operations per scope; a single
// worker keeps store writes orderly.
type Pipeline struct {
	e         *Engine
	startOnce sync.Once
	queue     chan Turn
}

func NewPipeline(e *Engine) *Pipeline {
	return &Pipeline{
		e:     e,
		queue: make(chan Turn, 256),
	}
}

func (p *Pipeline) Start() {
	p.startOnce.Do(func() {
		go p.worker()
	})
}

func (p *Pipeline) Enqueue(t Turn) {
	if t.Scope.ChatID == "" || t.Response == "" {
		return
	}
	p.Start()
	select {
	case p.queue <- t:
	default:
		p.e.log.Warn("extraction queue full, turn dropped",
			"chat_id", t.Scope.ChatID, "mode", t.Scope.Mode)
	}
}

func (p *Pipeline) worker() {
	for t := range p.queue {
		facts := p.e.ExtractMemories(t.Response, t.UserInput, t.Mode)
		if len(facts) == 0 {
			continue
		}
		p.e.PersistFacts(t.Scope, facts)
	}
}
