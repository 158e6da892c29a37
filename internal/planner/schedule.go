package planner

import (
	"sort"

	"github.com/calbright/flowday/internal/models"
)

const (
	// BufferFraction is the share of the requested time reserved to absorb
	// schedule slippage. Buffer time is never filled with tasks; it only
	// reduces the number of full blocks generated.
	BufferFraction = 0.1
	// BlockFillTarget is the fill ratio at which greedy packing stops early.
	// Good-enough packing is preferred over exhaustive bin-packing.
	BlockFillTarget = 0.8

	// priorityWeight..recencyWeight combine into the global task score used
	// to decide block membership (not intra-block display order)
	priorityWeight  = 0.3
	urgencyWeight   = 0.4
	challengeWeight = 0.2
	recencyWeight   = 0.1

	// urgencyPlaceholder stands in until deadline-based urgency is wired in
	urgencyPlaceholder = 0.5
)

// ScheduleConfig carries one planning request's parameters
type ScheduleConfig struct {
	StartTime            string // HH:MM
	HoursRequested       float64
	BlockDurationMinutes int
	BreakDurationMinutes int
	Calibration          *models.CalibrationProfile
}

// GenerateDailySchedule packs schedulable tasks into an ordered sequence of
// work blocks. It is a pure function of its inputs: identical inputs yield
// identical output, and nothing it receives is mutated.
//
// The last block of a session is deliberately shallow_work and is filled
// easiest-first (wind-down). Within every block, tasks are ordered by
// ascending difficulty so the easiest task lowers the hurdle to starting.
func GenerateDailySchedule(tasks []models.Task, cfg ScheduleConfig) ([]models.ScheduledBlock, error) {
	blocks := []models.ScheduledBlock{}
	if len(tasks) == 0 {
		return blocks, nil
	}

	cursor, err := ParseClock(cfg.StartTime)
	if err != nil {
		return nil, err
	}

	remaining := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.Schedulable() {
			remaining = append(remaining, t)
		}
	}
	if len(remaining) == 0 {
		return blocks, nil
	}

	totalMinutes := int(cfg.HoursRequested * 60)
	blockWithBreak := cfg.BlockDurationMinutes + cfg.BreakDurationMinutes
	bufferMinutes := int(float64(totalMinutes) * BufferFraction)
	effectiveMinutes := totalMinutes - bufferMinutes
	effectiveBlocks := 1
	if blockWithBreak > 0 && effectiveMinutes/blockWithBreak > 1 {
		effectiveBlocks = effectiveMinutes / blockWithBreak
	}

	// Global membership ordering: highest score first
	sort.SliceStable(remaining, func(i, j int) bool {
		return taskScore(remaining[i], cfg.Calibration) > taskScore(remaining[j], cfg.Calibration)
	})

	fillStop := int(float64(cfg.BlockDurationMinutes) * BlockFillTarget)

	for i := 0; i < effectiveBlocks && len(remaining) > 0; i++ {
		isLastBlock := i == effectiveBlocks-1
		blockType := models.BlockTypeDeepWork
		if isLastBlock {
			blockType = models.BlockTypeShallowWork
			// Wind-down: prefer easy tasks for the final block
			sort.SliceStable(remaining, func(a, b int) bool {
				return remaining[a].Difficulty < remaining[b].Difficulty
			})
		}

		var selected []models.Task
		var leftover []models.Task
		filled := 0
		for idx, t := range remaining {
			if filled+t.EstimatedMinutes <= cfg.BlockDurationMinutes {
				selected = append(selected, t)
				filled += t.EstimatedMinutes
				if filled >= fillStop {
					leftover = append(leftover, remaining[idx+1:]...)
					break
				}
				continue
			}
			leftover = append(leftover, t)
		}
		remaining = leftover

		if len(selected) == 0 {
			continue
		}

		// Lower the hurdle: easiest task first inside the block, regardless
		// of how membership was prioritized
		sort.SliceStable(selected, func(a, b int) bool {
			return selected[a].Difficulty < selected[b].Difficulty
		})

		scheduled := make([]models.ScheduledTask, len(selected))
		total := 0
		for pos, t := range selected {
			scheduled[pos] = models.ScheduledTask{Task: t, SortOrder: pos}
			total += t.EstimatedMinutes
		}

		// The block reserves its full configured duration regardless of fill
		blocks = append(blocks, models.ScheduledBlock{
			BlockNumber:  len(blocks) + 1,
			StartTime:    FormatClock(cursor),
			EndTime:      FormatClock(cursor + cfg.BlockDurationMinutes),
			BlockType:    blockType,
			Tasks:        scheduled,
			TotalMinutes: total,
		})
		cursor += cfg.BlockDurationMinutes + cfg.BreakDurationMinutes
	}

	return blocks, nil
}

// taskScore is the weighted membership score. Urgency is a fixed placeholder
// until deadline-based urgency lands; recency slightly favors earlier sort
// orders and is deliberately unclamped.
func taskScore(t models.Task, profile *models.CalibrationProfile) float64 {
	priorityScore := float64(t.Priority) / 5
	challengeScore := defaultChallengeScore(t.Difficulty)
	if profile != nil && profile.Confidence > 0 {
		challengeScore = ChallengeSkillScore(t.Difficulty, profile)
	}
	recencyScore := 1 - float64(t.SortOrder)*0.01
	return priorityScore*priorityWeight +
		urgencyPlaceholder*urgencyWeight +
		challengeScore*challengeWeight +
		recencyScore*recencyWeight
}
