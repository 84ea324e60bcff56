package core

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Persona is a named system-prompt variant selecting the assistant's voice.
type Persona struct {
	ID           string `json:"id" yaml:"id"`
	Description  string `json:"description" yaml:"description"`
	SystemPrompt string `json:"-" yaml:"systemPrompt"`
}

const DefaultPersonaID = "default"

var builtinPersonas = []Persona{
	{
		ID:           DefaultPersonaID,
		Description:  "Friendly general-purpose assistant",
		SystemPrompt: "You are a helpful, friendly assistant. Answer clearly and concisely, and admit when you do not know something.",
	},
	{
		ID:           "tutor",
		Description:  "Patient explainer for learners",
		SystemPrompt: "You are a patient tutor. Break answers into small steps, define terms on first use, and check understanding with short examples.",
	},
	{
		ID:           "analyst",
		Description:  "Terse, fact-first technical analyst",
		SystemPrompt: "You are a technical analyst. Lead with the conclusion, cite the evidence from any tool results, and keep opinions out of it.",
	},
}

// PersonaSelector resolves persona ids against a static table loaded at
// process start. Resolution never fails: any unknown, empty, or null id maps
// to the default persona.
type PersonaSelector struct {
	table     map[string]Persona
	defaultID string
}

// NewPersonaSelector builds a selector from the built-in table.
func NewPersonaSelector() *PersonaSelector {
	table := make(map[string]Persona, len(builtinPersonas))
	for _, p := range builtinPersonas {
		table[p.ID] = p
	}
	return &PersonaSelector{table: table, defaultID: DefaultPersonaID}
}

// NewPersonaSelectorFromFile merges personas from a YAML file over the
// built-in table. Entries with the same id replace the built-in one.
func NewPersonaSelectorFromFile(path string) (*PersonaSelector, error) {
	selector := NewPersonaSelector()

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read persona file: %w", err)
	}
	var loaded struct {
		Personas []Persona `yaml:"personas"`
	}
	if err := yaml.Unmarshal(b, &loaded); err != nil {
		return nil, fmt.Errorf("parse persona file: %w", err)
	}
	for _, p := range loaded.Personas {
		if p.ID == "" || p.SystemPrompt == "" {
			return nil, fmt.Errorf("persona entry missing id or systemPrompt")
		}
		selector.table[p.ID] = p
	}
	return selector, nil
}

// Resolve maps a persona id to its Persona, falling back to the default for
// anything unmatched. There is no error path.
func (s *PersonaSelector) Resolve(id string) Persona {
	if p, ok := s.table[id]; ok {
		return p
	}
	return s.table[s.defaultID]
}

// List returns every persona in the table, default first, rest in id order.
func (s *PersonaSelector) List() []Persona {
	list := []Persona{s.table[s.defaultID]}
	ids := make([]string, 0, len(s.table))
	for id := range s.table {
		if id != s.defaultID {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	for _, id := range ids {
		list = append(list, s.table[id])
	}
	return list
}
