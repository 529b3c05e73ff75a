package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Mood is the optional self-rating attached to a workout.
type Mood string

const (
	MoodTerrible Mood = "terrible"
	MoodBad      Mood = "bad"
	MoodOkay     Mood = "okay"
	MoodGood     Mood = "good"
	MoodAmazing  Mood = "amazing"
)

func (m Mood) Valid() bool {
	switch m {
	case "", MoodTerrible, MoodBad, MoodOkay, MoodGood, MoodAmazing:
		return true
	}
	return false
}

// ExerciseKind discriminates the Exercise variants.
type ExerciseKind string

const (
	KindStrength ExerciseKind = "strength"
	KindCardio   ExerciseKind = "cardio"
)

// Exercise is one entry of a workout: either a strength set (name, sets,
// reps, optional duration) or a cardio block (type, duration).
type Exercise struct {
	Kind     ExerciseKind
	Name     string
	Sets     int
	Reps     int
	Type     string
	Duration *int

	// Submission details kept so the entry encodes back the same way.
	tagged       bool
	nullDuration bool
}

// Strength and Cardio build the two variants.
func Strength(name string, sets, reps int) Exercise {
	return Exercise{Kind: KindStrength, Name: name, Sets: sets, Reps: reps}
}

func Cardio(kind string, minutes int) Exercise {
	return Exercise{Kind: KindCardio, Type: kind, Duration: &minutes}
}

func (e Exercise) IsCardio() bool {
	return e.Kind == KindCardio
}

// String renders "Bench Press 3x10" or "Running 30 min".
func (e Exercise) String() string {
	if e.IsCardio() {
		if e.Duration == nil {
			return e.Type
		}
		return fmt.Sprintf("%s %d min", e.Type, *e.Duration)
	}
	s := fmt.Sprintf("%s %dx%d", e.Name, e.Sets, e.Reps)
	if e.Duration != nil {
		s += fmt.Sprintf(" (%d min)", *e.Duration)
	}
	return s
}

// Strength entries carry a kind only when the submitter wrote one, and a
// duration that arrived as null is written back as null.
type strengthJSON struct {
	Kind     ExerciseKind    `json:"kind,omitempty"`
	Name     string          `json:"name"`
	Sets     int             `json:"sets"`
	Reps     int             `json:"reps"`
	Duration json.RawMessage `json:"duration,omitempty"`
}

type cardioJSON struct {
	Kind     ExerciseKind    `json:"kind"`
	Type     string          `json:"type"`
	Duration json.RawMessage `json:"duration,omitempty"`
}

func (e Exercise) durationJSON() (json.RawMessage, error) {
	switch {
	case e.Duration != nil:
		return json.Marshal(*e.Duration)
	case e.nullDuration:
		return json.RawMessage("null"), nil
	}
	return nil, nil
}

// MarshalJSON writes an entry back in the shape it was submitted in. Key
// order is normalised.
func (e Exercise) MarshalJSON() ([]byte, error) {
	duration, err := e.durationJSON()
	if err != nil {
		return nil, err
	}
	if e.IsCardio() {
		return json.Marshal(cardioJSON{Kind: KindCardio, Type: e.Type, Duration: duration})
	}
	out := strengthJSON{Name: e.Name, Sets: e.Sets, Reps: e.Reps, Duration: duration}
	if e.tagged {
		out.Kind = KindStrength
	}
	return json.Marshal(out)
}

func (e *Exercise) UnmarshalJSON(data []byte) error {
	var raw struct {
		Kind     ExerciseKind    `json:"kind"`
		Name     string          `json:"name"`
		Sets     int             `json:"sets"`
		Reps     int             `json:"reps"`
		Type     string          `json:"type"`
		Duration json.RawMessage `json:"duration"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var duration *int
	nullDuration := string(raw.Duration) == "null"
	if len(raw.Duration) > 0 && !nullDuration {
		var minutes int
		if err := json.Unmarshal(raw.Duration, &minutes); err != nil {
			return fmt.Errorf("exercise duration: %w", err)
		}
		duration = &minutes
	}

	switch raw.Kind {
	case "", KindStrength:
		*e = Exercise{
			Kind:         KindStrength,
			Name:         raw.Name,
			Sets:         raw.Sets,
			Reps:         raw.Reps,
			Duration:     duration,
			tagged:       raw.Kind != "",
			nullDuration: nullDuration,
		}
	case KindCardio:
		*e = Exercise{Kind: KindCardio, Type: raw.Type, Duration: duration, nullDuration: nullDuration}
	default:
		return fmt.Errorf("unknown exercise kind %q", raw.Kind)
	}
	return nil
}

// Workout is a single logged session owned by UserID.
//
// GroupID records the chat the workout was submitted from. Group views do
// not read it: visibility is resolved through memberships.
type Workout struct {
	ID        primitive.ObjectID `json:"id"`
	UserID    TelegramID         `json:"user_id"`
	GroupID   TelegramID         `json:"group_id"`
	Exercises []Exercise         `json:"exercises"`
	Mood      Mood               `json:"mood,omitempty"`
	Notes     string             `json:"notes,omitempty"`
	Timezone  string             `json:"timezone"`
	Date      Date               `json:"date"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// HasContent reports whether the workout carries at least one exercise,
// cardio entry or mood.
func (w *Workout) HasContent() bool {
	return len(w.Exercises) > 0 || w.Mood != ""
}

// EnrichedWorkout is a workout joined with its submitter.
type EnrichedWorkout struct {
	Workout
	Users Submitter `json:"users"`
}
