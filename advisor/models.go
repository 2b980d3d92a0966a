package advisor

import (
	"errors"
	"fmt"
	"strings"
)

var ErrBadModelList = errors.New("model list must look like id=Name,id=Name")

// Model is an AI opponent the player can pick
type Model struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// DefaultModels is used when no model list is configured
var DefaultModels = []Model{
	{ID: "gemini-3-flash-preview", Name: "Gemini 3 Flash"},
	{ID: "gemini-3-pro-preview", Name: "Gemini 3 Pro"},
}

// ParseModels reads a comma separated list of id=Name pairs.
// A bare id is its own display name.
func ParseModels(s string) ([]Model, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return append([]Model{}, DefaultModels...), nil
	}

	models := []Model{}
	seen := map[string]bool{}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		id, name := part, part
		if i := strings.Index(part, "="); i >= 0 {
			id, name = strings.TrimSpace(part[:i]), strings.TrimSpace(part[i+1:])
		}
		if id == "" || name == "" {
			return nil, fmt.Errorf("%w: %q", ErrBadModelList, part)
		}
		if seen[id] {
			return nil, fmt.Errorf("%w: duplicate id %q", ErrBadModelList, id)
		}
		seen[id] = true
		models = append(models, Model{ID: id, Name: name})
	}

	if len(models) == 0 {
		return nil, ErrBadModelList
	}
	return models, nil
}

// FindModel looks a model up by id
func FindModel(models []Model, id string) (Model, bool) {
	for _, m := range models {
		if m.ID == id {
			return m, true
		}
	}
	return Model{}, false
}
