package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// Champion records the best candidate of one generation together with a
// serializable view of its policy.
type Champion struct {
	Generation  int     `json:"generation"`
	CandidateID int     `json:"candidate_id"`
	Fitness     float64 `json:"fitness"`
	Score       int     `json:"score"`
	Strategy    string  `json:"strategy"`
	Model       any     `json:"model,omitempty"`
}

// HallOfFame keeps the fittest champions seen across generations, best first.
type HallOfFame struct {
	entries []Champion
	maxSize int
}

// NewHallOfFame creates a hall holding at most maxSize champions.
func NewHallOfFame(maxSize int) *HallOfFame {
	if maxSize < 1 {
		maxSize = 1
	}
	return &HallOfFame{
		entries: make([]Champion, 0, maxSize),
		maxSize: maxSize,
	}
}

// Consider inserts c if the hall has room or c beats the weakest entry.
// Ties keep the earlier champion ahead. Returns true if c was added.
func (hof *HallOfFame) Consider(c Champion) bool {
	if len(hof.entries) >= hof.maxSize && c.Fitness <= hof.entries[len(hof.entries)-1].Fitness {
		return false
	}

	idx := sort.Search(len(hof.entries), func(i int) bool {
		return hof.entries[i].Fitness < c.Fitness
	})
	hof.entries = append(hof.entries, Champion{})
	copy(hof.entries[idx+1:], hof.entries[idx:])
	hof.entries[idx] = c

	if len(hof.entries) > hof.maxSize {
		hof.entries = hof.entries[:hof.maxSize]
	}
	return true
}

// Best returns the fittest champion, or false if the hall is empty.
func (hof *HallOfFame) Best() (Champion, bool) {
	if len(hof.entries) == 0 {
		return Champion{}, false
	}
	return hof.entries[0], true
}

// Size returns the number of champions held.
func (hof *HallOfFame) Size() int {
	return len(hof.entries)
}

// Entries returns a copy of the champions, best first.
func (hof *HallOfFame) Entries() []Champion {
	out := make([]Champion, len(hof.entries))
	copy(out, hof.entries)
	return out
}

// MarshalJSON serializes the hall as a list, best first.
func (hof *HallOfFame) MarshalJSON() ([]byte, error) {
	return json.MarshalIndent(hof.entries, "", "  ")
}

// LoadChampion reads a champion.json file. The model is decoded generically.
func LoadChampion(path string) (*Champion, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading champion: %w", err)
	}
	var c Champion
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing champion: %w", err)
	}
	return &c, nil
}
