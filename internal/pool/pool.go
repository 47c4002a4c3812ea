// Package pool holds the ranked list of players still available in one draft trial.
package pool

import (
	"cmp"
	"iter"
	"slices"

	"github.com/stitts-dev/draft-sim/internal/models"
)

// Pool is an immutable, rank-ordered view over a season's players. The backing
// player slice is shared between every pool derived from the same New call; each
// Pool only owns the index of players still available.
type Pool struct {
	players   []models.Player
	available []int
}

// New builds a pool ordered ascending by RankScore. Equal scores keep input order.
func New(players []models.Player) *Pool {
	sorted := slices.Clone(players)
	slices.SortStableFunc(sorted, func(a, b models.Player) int {
		return cmp.Compare(a.RankScore, b.RankScore)
	})

	available := make([]int, len(sorted))
	for i := range sorted {
		available[i] = i
	}
	return &Pool{players: sorted, available: available}
}

func (p *Pool) Len() int {
	return len(p.available)
}

func (p *Pool) Empty() bool {
	return len(p.available) == 0
}

// Remove returns a pool without the given player. The receiver is not modified.
func (p *Pool) Remove(playerID string) *Pool {
	idx := slices.IndexFunc(p.available, func(i int) bool {
		return p.players[i].ID == playerID
	})
	if idx < 0 {
		return p
	}

	available := make([]int, 0, len(p.available)-1)
	available = append(available, p.available[:idx]...)
	available = append(available, p.available[idx+1:]...)
	return &Pool{players: p.players, available: available}
}

func (p *Pool) Contains(playerID string) bool {
	for _, i := range p.available {
		if p.players[i].ID == playerID {
			return true
		}
	}
	return false
}

// All yields every available player in rank order
func (p *Pool) All() iter.Seq[models.Player] {
	return p.Filter(nil)
}

// Filter yields available players matching pred in rank order without copying.
// A nil predicate matches everything.
func (p *Pool) Filter(pred func(models.Player) bool) iter.Seq[models.Player] {
	return func(yield func(models.Player) bool) {
		for _, i := range p.available {
			player := p.players[i]
			if pred != nil && !pred(player) {
				continue
			}
			if !yield(player) {
				return
			}
		}
	}
}

// Best returns the lowest rank-score player matching pred
func (p *Pool) Best(pred func(models.Player) bool) (models.Player, bool) {
	for player := range p.Filter(pred) {
		return player, true
	}
	return models.Player{}, false
}

// Top returns up to k best-ranked players matching pred
func (p *Pool) Top(pred func(models.Player) bool, k int) []models.Player {
	if k <= 0 {
		return nil
	}
	top := make([]models.Player, 0, k)
	for player := range p.Filter(pred) {
		top = append(top, player)
		if len(top) == k {
			break
		}
	}
	return top
}

// Players returns a copy of the available players in rank order
func (p *Pool) Players() []models.Player {
	return slices.Collect(p.All())
}

// OfPosition is a Filter predicate matching a single position
func OfPosition(pos models.Position) func(models.Player) bool {
	return func(player models.Player) bool {
		return player.Position == pos
	}
}
