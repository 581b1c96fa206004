package memory

import "time"

// Category names one bounded list of a user's long-term memory.
type Category string

const (
	Facts       Category = "facts"
	Preferences Category = "preferences"
	Dislikes    Category = "dislikes"
	People      Category = "people"
	Events      Category = "important_events"
	Topics      Category = "recent_topics"
	Moods       Category = "mood_history"
	Expertise   Category = "expertise"
	Interests   Category = "interests"
)

// Caps holds the maximum number of items kept per category.
var Caps = map[Category]int{
	Facts:       30,
	Preferences: 20,
	Dislikes:    15,
	People:      20,
	Events:      25,
	Topics:      10,
	Moods:       15,
	Expertise:   15,
	Interests:   20,
}

// Categories lists every category in extraction order.
func Categories() []Category {
	return []Category{Facts, Preferences, Dislikes, People, Events, Topics, Moods, Expertise, Interests}
}

// Item is one memory entry. Scalar categories only use Text; events and
// moods also carry the time they were recorded, moods carry the emotion.
type Item struct {
	Text    string    `json:"text"`
	Emotion string    `json:"emotion,omitempty"`
	At      time.Time `json:"at,omitempty"`
}

// Event is an append-only timeline entry.
type Event struct {
	Date  time.Time `json:"date"`
	Event string    `json:"event"`
}

// Mood is an append-only emotion log entry.
type Mood struct {
	Date    time.Time `json:"date"`
	Emotion string    `json:"emotion"`
	Context string    `json:"context"`
}

// UserMemory is everything remembered about one user.
type UserMemory struct {
	UserID     string    `json:"userId"`
	UserName   string    `json:"userName"`
	Created    time.Time `json:"created"`
	LastUpdate time.Time `json:"lastUpdate"`

	Facts       []string `json:"facts"`
	Preferences []string `json:"preferences"`
	Dislikes    []string `json:"dislikes"`
	People      []string `json:"people"`
	Events      []Event  `json:"important_events"`
	Topics      []string `json:"recent_topics"`
	Moods       []Mood   `json:"mood_history"`
	Expertise   []string `json:"expertise"`
	Interests   []string `json:"interests"`
}

// Stats counts items per category.
type Stats struct {
	Facts       int `json:"facts"`
	Preferences int `json:"preferences"`
	Dislikes    int `json:"dislikes"`
	People      int `json:"people"`
	Events      int `json:"events"`
	Topics      int `json:"topics"`
	Emotions    int `json:"emotions"`
	Expertise   int `json:"expertise"`
	Interests   int `json:"interests"`
	Total       int `json:"total"`
}

func (m *UserMemory) stats() Stats {
	s := Stats{
		Facts:       len(m.Facts),
		Preferences: len(m.Preferences),
		Dislikes:    len(m.Dislikes),
		People:      len(m.People),
		Events:      len(m.Events),
		Topics:      len(m.Topics),
		Emotions:    len(m.Moods),
		Expertise:   len(m.Expertise),
		Interests:   len(m.Interests),
	}
	s.Total = s.Facts + s.Preferences + s.Dislikes + s.People + s.Events + s.Topics + s.Emotions + s.Expertise + s.Interests
	return s
}

// clone returns a deep copy safe to hand to callers.
func (m *UserMemory) clone() UserMemory {
	c := *m
	c.Facts = append([]string(nil), m.Facts...)
	c.Preferences = append([]string(nil), m.Preferences...)
	c.Dislikes = append([]string(nil), m.Dislikes...)
	c.People = append([]string(nil), m.People...)
	c.Events = append([]Event(nil), m.Events...)
	c.Topics = append([]string(nil), m.Topics...)
	c.Moods = append([]Mood(nil), m.Moods...)
	c.Expertise = append([]string(nil), m.Expertise...)
	c.Interests = append([]string(nil), m.Interests...)
	return c
}
