package store

import (
	"github.com/sahilm/fuzzy"

	"github.com/nmolargik/setdeck/internal/core"
)

// exerciseCorpus adapts a slice of exercises to fuzzy.Source.
type exerciseCorpus []*core.Exercise

func (c exerciseCorpus) String(i int) string { return c[i].Name }
func (c exerciseCorpus) Len() int            { return len(c) }

// SearchExercises fuzzy-matches exercise names across every routine and
// returns matches ordered by score. An empty query returns every exercise in
// (day, orderIndex) order.
func (s *Store) SearchExercises(query string) []*core.Exercise {
	s.mu.Lock()
	corpus := make(exerciseCorpus, 0, len(s.exercise))
	for _, r := range s.sortedRoutines() {
		for _, eid := range r.ExerciseIDs {
			if e, ok := s.exercise[eid]; ok {
				corpus = append(corpus, e.Clone())
			}
		}
	}
	s.mu.Unlock()

	if query == "" {
		return corpus
	}

	matches := fuzzy.FindFrom(query, corpus)
	out := make([]*core.Exercise, 0, len(matches))
	for _, m := range matches {
		out = append(out, corpus[m.Index])
	}
	return out
}
