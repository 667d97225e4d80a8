package env

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"sync"
)

var variablePattern = regexp.MustCompile(`\{\{([^{}]+)\}\}`)

// WarnFunc is a function type for handling warnings
type WarnFunc func(format string, args ...any)

// Resolve substitutes {{name}} placeholders in template with values from variables.
//
// Only the first occurrence of each placeholder is replaced. The template is
// scanned once, left to right, so text produced by a substitution is never
// substituted again. Placeholders with no binding are left intact.
func Resolve(template string, variables map[string]any) string {
	return resolve(template, variables, false, nil)
}

// ResolveGlobal is like Resolve but replaces every occurrence of each placeholder.
func ResolveGlobal(template string, variables map[string]any) string {
	return resolve(template, variables, true, nil)
}

func resolve(template string, variables map[string]any, global bool, unresolved func(name string)) string {
	used := make(map[string]bool, len(variables))
	return variablePattern.ReplaceAllStringFunc(template, func(match string) string {
		name := match[2 : len(match)-2]
		val, ok := variables[name]
		if !ok {
			if unresolved != nil {
				unresolved(name)
			}
			return match
		}
		if used[name] && !global {
			return match
		}
		used[name] = true
		return Stringify(val)
	})
}

// Unresolved returns the placeholder names in template that have no binding in
// variables, in order of first appearance and without duplicates.
func Unresolved(template string, variables map[string]any) []string {
	var names []string
	seen := make(map[string]bool)
	for _, m := range variablePattern.FindAllStringSubmatch(template, -1) {
		name := m[1]
		if _, ok := variables[name]; ok || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}

// Stringify renders a variable value the way it appears in a resolved template.
// Booleans render as true/false, integers in base 10 and floats in their
// shortest round-trip form.
func Stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int8, int16, int32, int64:
		return fmt.Sprintf("%d", val)
	case uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", val)
	case float32:
		return formatFloat(float64(val), 32)
	case float64:
		return formatFloat(val, 64)
	case json.Number:
		return val.String()
	case fmt.Stringer:
		return val.String()
	}
	return fmt.Sprintf("%v", v)
}

func formatFloat(f float64, bitSize int) string {
	if math.Abs(f) < 1e21 {
		return strconv.FormatFloat(f, 'f', -1, bitSize)
	}
	return strconv.FormatFloat(f, 'g', -1, bitSize)
}

// Resolver handles variable resolution with thread-safe access to variables.
// It reports placeholders that have no binding through its WarnFunc.
type Resolver struct {
	mu        sync.RWMutex
	variables map[string]any
	global    bool
	warnFunc  WarnFunc
}

func NewResolver() *Resolver {
	return &Resolver{
		variables: make(map[string]any),
	}
}

// SetWarnFunc sets a function to be called when warnings occur (e.g., unresolved variables)
func (r *Resolver) SetWarnFunc(fn WarnFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.warnFunc = fn
}

// SetGlobal switches between first-occurrence (default) and global substitution.
func (r *Resolver) SetGlobal(global bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.global = global
}

func (r *Resolver) warn(format string, args ...any) {
	r.mu.RLock()
	fn := r.warnFunc
	r.mu.RUnlock()
	if fn != nil {
		fn(format, args...)
	}
}

func (r *Resolver) SetVariables(vars map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, v := range vars {
		r.variables[k] = v
	}
}

func (r *Resolver) Resolve(input string) string {
	r.mu.RLock()
	vars := make(map[string]any, len(r.variables))
	for k, v := range r.variables {
		vars[k] = v
	}
	global := r.global
	r.mu.RUnlock()

	var missing []string
	out := resolve(input, vars, global, func(name string) {
		missing = append(missing, name)
	})
	for _, name := range missing {
		r.warn("unresolved variable: %s", name)
	}
	return out
}
