package predictor

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

type pairKey struct {
	user string
	item string
}

// Table is an immutable in-memory set of precomputed scores.
type Table struct {
	scores map[pairKey]float64
	users  map[string]struct{}
}

// NewTable builds a Table. Later duplicates of a pair overwrite earlier ones.
func NewTable(scores []Score) *Table {
	t := &Table{
		scores: make(map[pairKey]float64, len(scores)),
		users:  make(map[string]struct{}),
	}
	for _, s := range scores {
		t.scores[pairKey{s.UserID, s.ItemID}] = s.Score
		t.users[s.UserID] = struct{}{}
	}
	return t
}

// Predict returns the stored score, or ErrNoPrediction.
func (t *Table) Predict(_ context.Context, userID, itemID string) (float64, error) {
	score, ok := t.scores[pairKey{userID, itemID}]
	if !ok {
		return 0, ErrNoPrediction
	}
	return score, nil
}

// Len returns the number of stored pairs.
func (t *Table) Len() int {
	return len(t.scores)
}

// HasUser reports whether any score exists for userID.
func (t *Table) HasUser(userID string) bool {
	_, ok := t.users[userID]
	return ok
}

var (
	userColumns  = []string{"user_id", "user"}
	itemColumns  = []string{"food_id", "item_id", "item"}
	scoreColumns = []string{"score", "prediction", "rating"}
)

// LoadCSV reads scores from a table with user, item and score columns.
func LoadCSV(r io.Reader) ([]Score, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("predictions file is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read predictions header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	userCol, ok := lookup(cols, userColumns)
	if !ok {
		return nil, fmt.Errorf("predictions file has no user column (want one of %v)", userColumns)
	}
	itemCol, ok := lookup(cols, itemColumns)
	if !ok {
		return nil, fmt.Errorf("predictions file has no item column (want one of %v)", itemColumns)
	}
	scoreCol, ok := lookup(cols, scoreColumns)
	if !ok {
		return nil, fmt.Errorf("predictions file has no score column (want one of %v)", scoreColumns)
	}

	var out []Score
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read predictions line %d: %w", line, err)
		}
		user, item := field(rec, userCol), field(rec, itemCol)
		if user == "" || item == "" {
			continue
		}
		score, err := strconv.ParseFloat(field(rec, scoreCol), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid score on line %d: %w", line, err)
		}
		out = append(out, Score{UserID: user, ItemID: item, Score: score})
	}
	return out, nil
}

// LoadTableFile reads a predictions CSV file into a Table.
func LoadTableFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open predictions file: %w", err)
	}
	defer f.Close()

	scores, err := LoadCSV(f)
	if err != nil {
		return nil, err
	}
	return NewTable(scores), nil
}

func lookup(cols map[string]int, names []string) (int, bool) {
	for _, n := range names {
		if i, ok := cols[n]; ok {
			return i, true
		}
	}
	return 0, false
}

func field(rec []string, i int) string {
	if i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}
