package session

import (
	"sort"
	"strings"
	"time"

	"reelplay/internal/models"
)

// groupState is the grouping-variant replacement for per-slot answers:
// an ordered selection plus the set of solved groups.
type groupState struct {
	itemGroup map[string]string
	byID      map[string]models.Group

	selected []string
	solved   []string // group ids in solve order
	guessed  map[string]bool
	hintedID string
}

func (g *groupState) init(puzzle *models.PuzzleDescriptor) {
	g.itemGroup = make(map[string]string)
	g.byID = make(map[string]models.Group, len(puzzle.Groups))
	g.guessed = make(map[string]bool)
	for _, group := range puzzle.Groups {
		g.byID[group.ID] = group
		for _, item := range group.Items {
			g.itemGroup[item] = group.ID
		}
	}
}

func (g *groupState) isSolved(groupID string) bool {
	for _, id := range g.solved {
		if id == groupID {
			return true
		}
	}
	return false
}

func (g *groupState) selectionKey() string {
	sorted := make([]string, len(g.selected))
	copy(sorted, g.selected)
	sort.Strings(sorted)
	return strings.Join(sorted, "\x00")
}

// SubmitResult reports what a grouping submission did.
type SubmitResult struct {
	Correct bool
	GroupID string // solved group on success

	// OffByOne is set on a miss where exactly one selected item was
	// alien to an otherwise uniform group.
	OffByOne bool
}

// Select adds an item to the grouping selection. Items already selected,
// already solved, or unknown are rejected; so is a fifth selection.
func (s *Session) Select(item string, now time.Time) error {
	if err := s.groupGuard(now); err != nil {
		return err
	}
	groupID, known := s.group.itemGroup[item]
	if !known || s.group.isSolved(groupID) {
		return ErrInputRejected
	}
	for _, sel := range s.group.selected {
		if sel == item {
			return ErrInputRejected
		}
	}
	if len(s.group.selected) >= s.rules.GroupSize {
		return ErrInputRejected
	}
	s.group.selected = append(s.group.selected, item)
	return nil
}

// Deselect removes an item from the selection.
func (s *Session) Deselect(item string, now time.Time) error {
	if err := s.groupGuard(now); err != nil {
		return err
	}
	for i, sel := range s.group.selected {
		if sel == item {
			s.group.selected = append(s.group.selected[:i], s.group.selected[i+1:]...)
			return nil
		}
	}
	return ErrInputRejected
}

// Selection returns the current ordered selection.
func (s *Session) Selection() []string {
	sel := make([]string, len(s.group.selected))
	copy(sel, s.group.selected)
	return sel
}

// SolvedGroups returns the solved group ids in solve order.
func (s *Session) SolvedGroups() []string {
	ids := make([]string, len(s.group.solved))
	copy(ids, s.group.solved)
	return ids
}

// SubmitSelection scores a full selection. A uniform selection solves
// its group and clears the selection; a miss charges a mistake, clears
// the selection and reports whether the guess was off by one. Submitting
// a selection already guessed returns ErrDuplicateGuess without charging
// a mistake.
func (s *Session) SubmitSelection(now time.Time) (SubmitResult, error) {
	if err := s.groupGuard(now); err != nil {
		return SubmitResult{}, err
	}
	if len(s.group.selected) != s.rules.GroupSize {
		return SubmitResult{}, ErrInputRejected
	}
	key := s.group.selectionKey()
	if s.group.guessed[key] {
		return SubmitResult{}, ErrDuplicateGuess
	}

	counts := make(map[string]int)
	for _, item := range s.group.selected {
		counts[s.group.itemGroup[item]]++
	}

	if len(counts) == 1 {
		for groupID := range counts {
			s.group.solved = append(s.group.solved, groupID)
			s.group.selected = nil
			if s.allCorrect() {
				s.terminate(StatusSolved, now, false)
			}
			return SubmitResult{Correct: true, GroupID: groupID}, nil
		}
	}

	s.group.guessed[key] = true
	offByOne := false
	for _, n := range counts {
		if n == s.rules.GroupSize-1 {
			offByOne = true
		}
	}
	s.group.selected = nil
	s.chargeMistake(now)
	return SubmitResult{OffByOne: offByOne}, nil
}

// GroupHint reveals the clue text of the lowest-difficulty unsolved
// group. The grouping game allows at most one hint per puzzle.
func (s *Session) GroupHint(now time.Time) (string, error) {
	if err := s.groupGuard(now); err != nil {
		return "", err
	}
	if s.group.hintedID != "" {
		return s.group.byID[s.group.hintedID].Clue, nil
	}
	if s.hintsUsed >= s.hintsUnlocked {
		return "", ErrNoHints
	}

	var pick *models.Group
	for _, group := range s.puzzle.Groups {
		if s.group.isSolved(group.ID) {
			continue
		}
		g := group
		if pick == nil || g.Difficulty < pick.Difficulty {
			pick = &g
		}
	}
	if pick == nil {
		return "", ErrInputRejected
	}
	s.group.hintedID = pick.ID
	s.hintsUsed++
	return pick.Clue, nil
}

func (s *Session) groupGuard(now time.Time) error {
	if s.rules.Tag != models.VariantGrouping {
		return ErrWrongVariant
	}
	return s.ensureRunning(now)
}
