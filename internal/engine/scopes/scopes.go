package scopes

import (
	"errors"
	"fmt"
	"strings"
)

// Scope is a resource/action permission pair, e.g. workspaces:read.
type Scope struct {
	Resource string
	Action   string
}

// hierarchy orders each resource's actions from highest to lowest privilege.
// A scope grants itself plus every strictly lower action on the same resource.
var hierarchy = map[string][]string{
	"workspaces": {"admin", "delete", "write", "read"},
	"users":      {"write", "read"},
	"fcs":        {"analyze", "write", "read"},
}

var ErrInvalidScope = errors.New("invalid scope")

func Parse(s string) (Scope, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return Scope{}, fmt.Errorf("%w: %q", ErrInvalidScope, s)
	}
	return Scope{Resource: parts[0], Action: parts[1]}, nil
}

func MustParse(s string) Scope {
	scope, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return scope
}

func ParseList(raw []string) ([]Scope, error) {
	parsed := make([]Scope, 0, len(raw))
	for _, s := range raw {
		scope, err := Parse(s)
		if err != nil {
			return nil, err
		}
		parsed = append(parsed, scope)
	}
	return parsed, nil
}

func (s Scope) String() string {
	return s.Resource + ":" + s.Action
}

// Known reports whether the scope's action appears in the resource's
// hierarchy table.
func Known(s Scope) bool {
	return rank(s) >= 0
}

// rank returns the scope's position in its resource hierarchy, highest
// privilege first, or -1 when the scope is not in the table.
func rank(s Scope) int {
	for i, action := range hierarchy[s.Resource] {
		if action == s.Action {
			return i
		}
	}
	return -1
}

// Granted returns the scope itself plus every strictly lower-ranked scope on
// the same resource. Scopes outside the table grant only themselves.
func Granted(s Scope) []Scope {
	i := rank(s)
	if i < 0 {
		return []Scope{s}
	}

	levels := hierarchy[s.Resource]
	granted := make([]Scope, 0, len(levels)-i)
	for _, action := range levels[i:] {
		granted = append(granted, Scope{Resource: s.Resource, Action: action})
	}
	return granted
}

// Check reports whether the user's scopes satisfy the required scope, and if
// so which granted scope justified the decision. Scopes on a different
// resource never contribute: there is no cross-resource inheritance.
func Check(userScopes []Scope, required Scope) (bool, *Scope) {
	for _, us := range userScopes {
		if us.Resource != required.Resource {
			continue
		}
		for _, g := range Granted(us) {
			if g == required {
				granting := us
				return true, &granting
			}
		}
	}
	return false, nil
}
