package models

import "encoding/json"

// Exercise is catalog reference data fetched from the backend.
type Exercise struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// ExerciseStats is the per-user record for one exercise.
type ExerciseStats struct {
	PersonalRecord float64 `json:"personal_record"`
	DateOfPR       Date    `json:"date_of_pr"`
	LifetimeReps   int     `json:"lifetime_reps,omitempty"`
}

// Set is one recorded performance of an exercise.
type Set struct {
	Exercise Exercise `json:"exercise"`
	Reps     int      `json:"reps"`
	Weight   float64  `json:"weight"`
}

// Volume returns reps × weight for the set.
func (s Set) Volume() float64 {
	return float64(s.Reps) * s.Weight
}

// Workout is a persisted workout as returned by the backend.
type Workout struct {
	ID          ID     `json:"id"`
	Name        string `json:"name"`
	Date        Date   `json:"date"`
	ElapsedTime string `json:"elapsed_time"`
	Comment     string `json:"comment"`
	Sets        []Set  `json:"workout_sets"`
}

func (w *Workout) UnmarshalJSON(data []byte) error {
	type plain Workout
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	if p.Sets == nil {
		p.Sets = []Set{}
	}
	*w = Workout(p)
	return nil
}

// Volume sums reps × weight across every set of the workout.
func (w Workout) Volume() float64 {
	var total float64
	for _, s := range w.Sets {
		total += s.Volume()
	}
	return total
}

// WorkoutPayload is the body sent to create a workout.
type WorkoutPayload struct {
	Name        string `json:"name"`
	Date        string `json:"date"`
	ElapsedTime string `json:"elapsed_time"`
	Comment     string `json:"comment"`
	Sets        []Set  `json:"workout_sets"`
}

// WeightEntry is one body-weight check-in.
type WeightEntry struct {
	DateRecorded Date    `json:"date_recorded"`
	Weight       float64 `json:"weight"`
}

// ExerciseGroup is the ordered list of sets recorded for one exercise.
type ExerciseGroup struct {
	Exercise string `json:"exercise"`
	Sets     []Set  `json:"sets"`
}

// GroupByExercise partitions sets by exercise name. Groups appear in the order
// their exercise was first seen and sets keep their insertion order.
func GroupByExercise(sets []Set) []ExerciseGroup {
	index := make(map[string]int)
	var groups []ExerciseGroup
	for _, s := range sets {
		i, ok := index[s.Exercise.Name]
		if !ok {
			i = len(groups)
			index[s.Exercise.Name] = i
			groups = append(groups, ExerciseGroup{Exercise: s.Exercise.Name})
		}
		groups[i].Sets = append(groups[i].Sets, s)
	}
	return groups
}
