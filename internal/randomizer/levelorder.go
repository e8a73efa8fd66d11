package randomizer

import (
	"errors"
	"fmt"
	"sort"

	"github.com/woozymasta/mw-randomizer/internal/placement"
	"github.com/woozymasta/mw-randomizer/internal/ranges"
	"github.com/woozymasta/mw-randomizer/internal/rom"
	"github.com/woozymasta/mw-randomizer/internal/rules"
	"github.com/woozymasta/mw-randomizer/internal/seed"
)

// Round layout of the game: 5 stages of 3 rounds, round 15 ends the game.
const (
	RoundCount     = 15
	RoundsPerStage = 3
	StageCount     = RoundCount / RoundsPerStage
	EndRound       = RoundCount
)

// Ledger keys of the level order patch.
const (
	ownerLevelOrder = "levelOrder"
	tagLevelSwap    = "levelSwapAssembly"
)

// LevelOrderOptions selects how rounds are shuffled.
type LevelOrderOptions struct {
	StageOrder bool // shuffle stages
	RoundOrder bool // shuffle rounds
	KeepFirst  bool // round 0 (1-1) stays first
	KeepLast   bool // round 14 (5-3) stays last
}

// GenerateLevelOrder returns the order rounds are played in, terminated by
// EndRound. With only StageOrder set whole stages move and their rounds stay
// together; with only RoundOrder set rounds move within their stage.
func GenerateLevelOrder(o LevelOrderOptions, rng *seed.Source) []int {
	var rounds []int

	if o.StageOrder && !o.RoundOrder {
		stages := make([]int, StageCount)
		for i := range stages {
			stages[i] = i
		}
		rng.Shuffle(len(stages), func(i, j int) { stages[i], stages[j] = stages[j], stages[i] })

		if o.KeepFirst {
			stages = moveFirst(stages, 0)
		}
		if o.KeepLast {
			stages = moveLast(stages, StageCount-1)
		}

		rounds = make([]int, 0, RoundCount+1)
		for _, s := range stages {
			for r := s * RoundsPerStage; r < (s+1)*RoundsPerStage; r++ {
				rounds = append(rounds, r)
			}
		}
	} else {
		rounds = make([]int, RoundCount, RoundCount+1)
		for i := range rounds {
			rounds[i] = i
		}
		rng.Shuffle(len(rounds), func(i, j int) { rounds[i], rounds[j] = rounds[j], rounds[i] })

		if !o.StageOrder {
			sort.SliceStable(rounds, func(i, j int) bool {
				return rounds[i]/RoundsPerStage < rounds[j]/RoundsPerStage
			})
		}

		if o.KeepFirst {
			rounds = moveFirst(rounds, 0)
		}
		if o.KeepLast {
			// round 14 is 5-3, the last playable round
			rounds = moveLast(rounds, RoundCount-1)
		}
	}

	return append(rounds, EndRound)
}

func moveFirst(s []int, v int) []int {
	out := make([]int, 0, len(s))
	out = append(out, v)
	for _, x := range s {
		if x != v {
			out = append(out, x)
		}
	}

	return out
}

func moveLast(s []int, v int) []int {
	out := make([]int, 0, len(s))
	for _, x := range s {
		if x != v {
			out = append(out, x)
		}
	}

	return append(out, v)
}

// nextRoundTable maps each round to the one played after it.
func nextRoundTable(order []int) [levelSwapEntries]uint16 {
	var next [levelSwapEntries]uint16
	for i := 1; i < len(order); i++ {
		cur := order[i-1]
		if cur >= 0 && cur < levelSwapEntries {
			next[cur] = uint16(order[i])
		}
	}

	return next
}

// patchLevelOrder writes the swap routine into free space and hooks it in.
// It returns the interval used; ranges.ErrSpaceExhausted leaves img untouched.
func patchLevelOrder(img []byte, l *rom.Layout, ledger *ranges.Ledger, order []int) (ranges.Interval, error) {
	code := levelSwapBlob()

	next := nextRoundTable(order)
	for i, v := range next {
		code[i*2] = byte(v >> 8)
		code[i*2+1] = byte(v)
	}

	first := order[0]
	code[levelSwapFirst] = byte(first >> 8)
	code[levelSwapFirst+1] = byte(first)

	iv, err := ledger.Free(ownerLevelOrder, tagLevelSwap).Require(len(code))
	if err != nil {
		return ranges.Interval{}, err
	}

	if err := rom.Put(img, iv.Start, code); err != nil {
		return ranges.Interval{}, fmt.Errorf("level swap code: %w", err)
	}
	ledger.Assign(ownerLevelOrder, tagLevelSwap, ranges.NewSet(iv))

	entry := entryHookBlob()
	if err := rom.Put(img, l.LevelOrder.Entry, entry); err != nil {
		return iv, fmt.Errorf("level swap entry hook: %w", err)
	}
	if err := rom.WriteU32(img, l.LevelOrder.Entry+2, uint32(iv.Start+levelSwapCode)); err != nil {
		return iv, fmt.Errorf("level swap entry hook: %w", err)
	}

	if first != 0 {
		if err := rom.Put(img, l.LevelOrder.Init, initHookBlob()); err != nil {
			return iv, fmt.Errorf("level swap init hook: %w", err)
		}
		if err := rom.WriteU32(img, l.LevelOrder.Init+2, uint32(iv.Start+levelSwapInit)); err != nil {
			return iv, fmt.Errorf("level swap init hook: %w", err)
		}
	}

	return iv, nil
}

// levelOrder runs the level order feature. Running out of free space is
// reported as a diagnostic and skips the feature.
func (r *run) levelOrder(rng *seed.Source) error {
	o := LevelOrderOptions{
		StageOrder: r.settings.Enabled(rules.KeyRandomizeStageOrder, true),
		RoundOrder: r.settings.Enabled(rules.KeyRandomizeRoundOrder, true),
		KeepFirst:  r.settings.Enabled(rules.KeyKeepFirstRound, true),
		KeepLast:   r.settings.Enabled(rules.KeyKeepLastRound, true),
	}
	if !o.StageOrder && !o.RoundOrder {
		return nil
	}

	order := GenerateLevelOrder(o, rng)

	iv, err := patchLevelOrder(r.img, r.layout, r.ledger, order)
	switch {
	case errors.Is(err, ranges.ErrSpaceExhausted):
		r.diagnose(placement.Diagnostic{
			Kind:    placement.SpaceExhausted,
			Subject: ownerLevelOrder,
			Message: err.Error(),
		})
		return nil
	case err != nil:
		return fmt.Errorf("level order: %w", err)
	}

	r.res.LevelOrder = order
	r.allocate(ownerLevelOrder, tagLevelSwap, iv)

	return nil
}
