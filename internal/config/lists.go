package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

var errEmptyAlias = errors.New("alias name and target must not be empty")

func (c *Config) IsProtected(name string) bool {
	return c.protectedIndex(name) >= 0
}

func (c *Config) protectedIndex(name string) int {
	return slices.IndexFunc(c.Protected, func(p string) bool {
		return strings.EqualFold(p, name)
	})
}

// Protect adds name to the protected list. It reports false if name was
// empty or already protected.
func (c *Config) Protect(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" || c.IsProtected(name) {
		return false
	}
	c.Protected = append(c.Protected, name)
	return true
}

func (c *Config) Unprotect(name string) bool {
	i := c.protectedIndex(strings.TrimSpace(name))
	if i < 0 {
		return false
	}
	c.Protected = slices.Delete(c.Protected, i, i+1)
	return true
}

// SetAlias maps name to a kill target. Aliases are resolved once, so an
// alias may not point at itself.
func (c *Config) SetAlias(name, target string) error {
	name, target = strings.TrimSpace(name), strings.TrimSpace(target)
	switch {
	case name == "" || target == "":
		return errEmptyAlias
	case name == target:
		return fmt.Errorf("alias %q points to itself", name)
	}
	if c.Aliases == nil {
		c.Aliases = make(map[string]string)
	}
	c.Aliases[name] = target
	return nil
}

func (c *Config) DeleteAlias(name string) bool {
	name = strings.TrimSpace(name)
	_, ok := c.Aliases[name]
	delete(c.Aliases, name)
	return ok
}

func (c *Config) ResolveAlias(input string) string {
	if target, ok := c.Aliases[input]; ok {
		return target
	}
	return input
}
