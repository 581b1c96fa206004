// Package temporal maps the wall clock to a mood through three static
// tables: hour of day, day of week and special calendar dates.
package temporal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/keshon/compagnon/datastore"
	"github.com/keshon/compagnon/internal/storage"
)

// DocumentName is the datastore document holding the rules.
const DocumentName = "temporal_rules"

// HourRange covers hours in [Start, End).
type HourRange struct {
	Start               int    `json:"start"`
	End                 int    `json:"end"`
	Mood                string `json:"mood"`
	PersonalityModifier string `json:"personality_modifier"`
	GreetingStyle       string `json:"greeting_style"`
}

type DayRule struct {
	Mood     string `json:"mood"`
	Modifier string `json:"modifier"`
}

type SpecialDate struct {
	Event       string `json:"event"`
	Personality string `json:"personality"`
}

// Rules is the full lookup configuration.
type Rules struct {
	Hourly  []HourRange            `json:"hourly"`
	Weekly  map[string]DayRule     `json:"weekly"`
	Special map[string]SpecialDate `json:"special_dates"`
}

// Mood is the merged result of the three lookups.
type Mood struct {
	Mood                string `json:"mood"`
	PersonalityModifier string `json:"personality_modifier"`
	GreetingStyle       string `json:"greeting_style"`
	DayMood             string `json:"day_mood,omitempty"`
	DayModifier         string `json:"day_modifier,omitempty"`
	SpecialEvent        string `json:"special_event,omitempty"`
	SpecialPersonality  string `json:"special_personality,omitempty"`
}

// Resolve looks now up in every table. Missing entries leave the neutral
// defaults in place.
func (r Rules) Resolve(now time.Time) Mood {
	m := Mood{Mood: "normal"}

	hour := now.Hour()
	for _, h := range r.Hourly {
		if hour >= h.Start && hour < h.End {
			m.Mood = h.Mood
			m.PersonalityModifier = h.PersonalityModifier
			m.GreetingStyle = h.GreetingStyle
			break
		}
	}

	if d, ok := r.Weekly[strings.ToLower(now.Weekday().String())]; ok {
		m.DayMood = d.Mood
		m.DayModifier = d.Modifier
	}

	if s, ok := r.Special[now.Format("01-02")]; ok {
		m.SpecialEvent = s.Event
		m.SpecialPersonality = s.Personality
	}
	return m
}

// String renders the mood as one line of prompt context.
func (m Mood) String() string {
	parts := []string{"humeur " + m.Mood}
	if m.PersonalityModifier != "" {
		parts = append(parts, m.PersonalityModifier)
	}
	if m.DayMood != "" {
		parts = append(parts, fmt.Sprintf("jour %s", m.DayMood))
	}
	if m.SpecialEvent != "" {
		parts = append(parts, m.SpecialEvent)
	}
	return strings.Join(parts, ", ")
}

// Load reads the rules document, seeding it with DefaultRules when absent.
func Load(ctx context.Context, backend datastore.Backend, logger *log.Logger) Rules {
	doc := storage.NewDocument[Rules](backend, DocumentName, logger)
	if _, err := backend.Load(ctx, DocumentName); errors.Is(err, datastore.ErrNotFound) {
		rules := DefaultRules()
		_ = doc.Save(ctx, rules)
		return rules
	}
	return doc.Load(ctx, DefaultRules)
}

// DefaultRules is the built-in French table.
func DefaultRules() Rules {
	return Rules{
		Hourly: []HourRange{
			{0, 6, "sleepy", "Tu es fatiguée et un peu grognon, réponses courtes.", "Encore debout à cette heure ?"},
			{6, 11, "waking_up", "Tu émerges doucement, tu as besoin de café.", "Salut, bien dormi ?"},
			{11, 14, "hungry", "Tu penses à manger, tu fais des allusions à la bouffe.", "Yo, t'as mangé ?"},
			{14, 18, "productive", "Tu es en forme et bavarde.", "Hey !"},
			{18, 24, "chill", "Tu es détendue, ambiance apéro.", "Bonsoir la compagnie !"},
		},
		Weekly: map[string]DayRule{
			"monday":   {"grumpy", "Le lundi te rend ronchon."},
			"friday":   {"excited", "C'est vendredi, tu es d'humeur festive."},
			"saturday": {"relaxed", "C'est le week-end, tu prends ton temps."},
			"sunday":   {"lazy", "Dimanche, mode canapé."},
		},
		Special: map[string]SpecialDate{
			"01-01": {"Nouvel An", "Tu souhaites la bonne année à tout le monde."},
			"02-14": {"Saint-Valentin", "Tu te moques gentiment des amoureux."},
			"06-21": {"Fête de la musique", "Tu parles de musique dès que possible."},
			"07-14": {"Fête nationale", "Tu évoques les feux d'artifice."},
			"10-31": {"Halloween", "Tu glisses des références qui font peur."},
			"12-24": {"Réveillon de Noël", "Tu es d'humeur festive et généreuse."},
			"12-25": {"Noël", "Tu demandes ce que chacun a reçu."},
			"12-31": {"Réveillon du Nouvel An", "Tu prépares le compte à rebours."},
		},
	}
}
