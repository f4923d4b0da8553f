package models

import (
	"database/sql/driver"
	"fmt"
	"sort"
	"strings"
)

type Role string

const (
	RoleUser    Role = "USER"
	RoleManager Role = "MANAGER"
	RoleAdmin   Role = "ADMIN"
)

func ParseRole(value string) (Role, error) {
	switch role := Role(strings.ToUpper(strings.TrimSpace(value))); role {
	case RoleUser, RoleManager, RoleAdmin:
		return role, nil
	default:
		return "", fmt.Errorf("unknown role %q", value)
	}
}

// RoleSet is stored as a comma-separated column. Order is normalised so that
// equal sets serialise identically.
type RoleSet []Role

func NewRoleSet(roles ...Role) RoleSet {
	var set RoleSet
	for _, role := range roles {
		set = set.With(role)
	}
	return set
}

func (s RoleSet) Has(role Role) bool {
	for _, r := range s {
		if r == role {
			return true
		}
	}
	return false
}

func (s RoleSet) With(role Role) RoleSet {
	if s.Has(role) {
		return s
	}
	out := append(RoleSet{}, s...)
	out = append(out, role)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (s RoleSet) Without(role Role) RoleSet {
	out := RoleSet{}
	for _, r := range s {
		if r != role {
			out = append(out, r)
		}
	}
	return out
}

func (s RoleSet) Strings() []string {
	out := make([]string, len(s))
	for i, r := range s {
		out[i] = string(r)
	}
	return out
}

func (s RoleSet) Value() (driver.Value, error) {
	return strings.Join(s.Strings(), ","), nil
}

func (s *RoleSet) Scan(value interface{}) error {
	var raw string
	switch v := value.(type) {
	case nil:
		*s = RoleSet{}
		return nil
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("cannot scan %T into RoleSet", value)
	}

	set := RoleSet{}
	for _, part := range strings.Split(raw, ",") {
		if part == "" {
			continue
		}
		role, err := ParseRole(part)
		if err != nil {
			return err
		}
		set = set.With(role)
	}
	*s = set
	return nil
}
