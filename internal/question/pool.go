package question

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/tranvk/fanarena/internal/domain"
)

// Pool is the static question bank, loaded once at startup from a flat JSON
// file. A missing or unreadable file is a fatal configuration error; the
// pool is the fallback when generated content is unavailable, so the service
// must not start without it. Generated questions are registered at runtime
// (AddRuntime) so submissions against them can still be graded by ID.
type Pool struct {
	mu      sync.RWMutex
	byID    map[string]domain.Question
	byTeam  map[teamLevel][]domain.Question
	runtime []string // generated question IDs, oldest first
}

// maxRuntimeQuestions caps how many generated questions stay registered.
// A generated question only needs to outlive the attempt it was drawn for,
// so evicting the oldest entries once the cap is hit is safe.
const maxRuntimeQuestions = 4096

type teamLevel struct {
	team  string
	level domain.Level
}

type record struct {
	ID                 string   `json:"id"`
	Team               string   `json:"team"`
	Level              string   `json:"level"`
	Question           string   `json:"question"`
	Options            []string `json:"options"`
	CorrectAnswerIndex int      `json:"correctAnswerIndex"`
	Explanation        string   `json:"explanation"`
}

// Load reads the question bank from file.
func Load(file string) (*Pool, error) {
	b, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("question: read pool file %s: %w", file, err)
	}

	var records []record
	if err := json.Unmarshal(b, &records); err != nil {
		return nil, fmt.Errorf("question: parse pool file %s: %w", file, err)
	}

	p := &Pool{
		byID:   make(map[string]domain.Question, len(records)),
		byTeam: make(map[teamLevel][]domain.Question),
	}

	for _, r := range records {
		lvl := domain.Level(r.Level)
		if r.ID == "" || !lvl.Valid() {
			return nil, fmt.Errorf("question: invalid pool record id=%q level=%q", r.ID, r.Level)
		}

		q := domain.Question{
			ID:                 r.ID,
			Team:               r.Team,
			Level:              lvl,
			Question:           r.Question,
			Options:            r.Options,
			CorrectAnswerIndex: r.CorrectAnswerIndex,
			Explanation:        r.Explanation,
		}

		if _, ok := p.byID[q.ID]; ok {
			return nil, fmt.Errorf("question: duplicate question id %q", q.ID)
		}

		p.byID[q.ID] = q
		k := teamLevel{team: q.Team, level: q.Level}
		p.byTeam[k] = append(p.byTeam[k], q)
	}

	return p, nil
}

// Lookup returns the question with the given ID.
func (p *Pool) Lookup(id string) (domain.Question, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	q, ok := p.byID[id]
	return q, ok
}

// ForTeamLevel returns the full static candidate pool for one (team, level)
// pair. Runtime questions are excluded: deduplicated draws operate on the
// static bank only. The returned slice is a copy and safe to shuffle.
func (p *Pool) ForTeamLevel(team string, level domain.Level) []domain.Question {
	p.mu.RLock()
	defer p.mu.RUnlock()

	qs := p.byTeam[teamLevel{team: team, level: level}]
	out := make([]domain.Question, len(qs))
	copy(out, qs)
	return out
}

// AddRuntime registers generated questions for grading by ID. They do not
// join the per-team static pool, and the set is bounded: once it exceeds
// maxRuntimeQuestions the oldest generated questions are dropped.
func (p *Pool) AddRuntime(qs []domain.Question) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, q := range qs {
		if _, ok := p.byID[q.ID]; !ok {
			p.runtime = append(p.runtime, q.ID)
		}
		p.byID[q.ID] = q
	}

	for len(p.runtime) > maxRuntimeQuestions {
		delete(p.byID, p.runtime[0])
		p.runtime = p.runtime[1:]
	}
}

func (p *Pool) Size() int {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return len(p.byID)
}

// TeamAvailability lists which levels a team has questions for.
type TeamAvailability struct {
	Name   string         `json:"name"`
	Levels []domain.Level `json:"levels"`
}

// Teams returns every team in the pool with its available levels, sorted by
// team name.
func (p *Pool) Teams() []TeamAvailability {
	p.mu.RLock()
	defer p.mu.RUnlock()

	byName := make(map[string]map[domain.Level]bool)
	for k := range p.byTeam {
		if byName[k.team] == nil {
			byName[k.team] = make(map[domain.Level]bool)
		}
		byName[k.team][k.level] = true
	}

	out := make([]TeamAvailability, 0, len(byName))
	for name, levels := range byName {
		t := TeamAvailability{Name: name}
		for _, l := range []domain.Level{domain.LevelEasy, domain.LevelMedium, domain.LevelHard} {
			if levels[l] {
				t.Levels = append(t.Levels, l)
			}
		}
		out = append(out, t)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
