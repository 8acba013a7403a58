// Package config overlays environment variables onto configuration structs.
//
// Variable names follow the pattern:
//
//	{Prefix}_{STAGE}_{FIELD}
//
// A named nested struct adds its field name as a segment:
//
//	{Prefix}_{STAGE}_{STRUCT}_{FIELD}
//
// Embedded structs are flattened. Field names are converted from CamelCase to
// UPPER_SNAKE_CASE unless an `env` tag names the segment; `env:"-"` skips the
// field.
//
//	CloseTimeout    → CLOSE_TIMEOUT
//	UpstreamCap     → UPSTREAM_CAP
//
// Supported field types: string, bool, int*, uint*, float*, time.Duration.
// Functions, interfaces, channels and pointers are skipped silently, so a
// stage.Config with its Logger and Meter can be loaded directly.
//
// Example with stage.Config and stage "forward":
//
//	CHANBRIDGE_FORWARD_NAME=relay
//	CHANBRIDGE_FORWARD_CLOSE_TIMEOUT=5s
package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// DefaultPrefix is the first segment of every variable name unless a Loader
// sets its own.
const DefaultPrefix = "CHANBRIDGE"

var durationType = reflect.TypeOf(time.Duration(0))

// Loader reads environment variables into configuration structs.
type Loader struct {
	// Prefix for environment variable names.
	// Default: DefaultPrefix.
	Prefix string

	// Lookup replaces os.LookupEnv.
	Lookup func(string) (string, bool)
}

func (l Loader) prefix() string {
	if l.Prefix == "" {
		return DefaultPrefix
	}
	return l.Prefix
}

func (l Loader) lookupEnv(key string) (string, bool) {
	if l.Lookup != nil {
		return l.Lookup(key)
	}
	return os.LookupEnv(key)
}

// Load overlays the variables that are set onto the struct pointed to by dst.
// Fields without a variable keep their current value, so dst should already
// hold the programmatic defaults.
func (l Loader) Load(stage string, dst any) error {
	v := reflect.ValueOf(dst)
	if v.Kind() != reflect.Pointer || v.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("config: dst must be a pointer to a struct, got %T", dst)
	}
	return walk(l.root(stage), v.Elem(), func(key string, fv reflect.Value) error {
		raw, ok := l.lookupEnv(key)
		if !ok {
			return nil
		}
		if err := setField(fv, raw); err != nil {
			return fmt.Errorf("config: %s: %w", key, err)
		}
		return nil
	})
}

// Keys returns the variable names Load would check for dst, which may be a
// struct or a pointer to one.
func (l Loader) Keys(stage string, dst any) []string {
	v := reflect.ValueOf(dst)
	if v.Kind() == reflect.Pointer {
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil
	}
	// walk needs addressable fields only when setting them
	tmp := reflect.New(v.Type()).Elem()
	var keys []string
	_ = walk(l.root(stage), tmp, func(key string, _ reflect.Value) error {
		keys = append(keys, key)
		return nil
	})
	return keys
}

func (l Loader) root(stage string) string {
	if s := normalizeStage(stage); s != "" {
		return l.prefix() + "_" + s
	}
	return l.prefix()
}

// Load populates dst using a Loader with DefaultPrefix.
func Load(stage string, dst any) error {
	return Loader{}.Load(stage, dst)
}

// Keys returns variable names using a Loader with DefaultPrefix.
func Keys(stage string, dst any) []string {
	return Loader{}.Keys(stage, dst)
}

func walk(prefix string, v reflect.Value, visit func(key string, fv reflect.Value) error) error {
	t := v.Type()
	for i := range t.NumField() {
		field := t.Field(i)
		fv := v.Field(i)

		tag := field.Tag.Get("env")
		if tag == "-" {
			continue
		}

		if field.Anonymous && field.Type.Kind() == reflect.Struct {
			if err := walk(prefix, fv, visit); err != nil {
				return err
			}
			continue
		}
		if !field.IsExported() {
			continue
		}

		segment := tag
		if segment == "" {
			segment = toUpperSnake(field.Name)
		}
		key := prefix + "_" + segment

		switch {
		case field.Type == durationType, isSupportedKind(field.Type.Kind()):
			if err := visit(key, fv); err != nil {
				return err
			}
		case field.Type.Kind() == reflect.Struct:
			if err := walk(key, fv, visit); err != nil {
				return err
			}
		}
	}
	return nil
}

func isSupportedKind(k reflect.Kind) bool {
	switch k {
	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func setField(v reflect.Value, raw string) error {
	if v.Type() == durationType {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return err
		}
		v.SetInt(int64(d))
		return nil
	}

	switch v.Kind() {
	case reflect.String:
		v.SetString(raw)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, v.Type().Bits())
		if err != nil {
			return err
		}
		v.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(raw, 10, v.Type().Bits())
		if err != nil {
			return err
		}
		v.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(raw, v.Type().Bits())
		if err != nil {
			return err
		}
		v.SetFloat(f)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return err
		}
		v.SetBool(b)
	}
	return nil
}

// normalizeStage upper-cases letters, maps '-', ' ' and '_' to '_' and drops
// everything else.
func normalizeStage(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(unicode.ToUpper(r))
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' || r == ' ' || r == '_':
			b.WriteRune('_')
		}
	}
	return b.String()
}

// toUpperSnake converts a CamelCase field name to UPPER_SNAKE_CASE.
//
//	UpstreamCap → UPSTREAM_CAP
//	URLPath     → URL_PATH
func toUpperSnake(s string) string {
	runes := []rune(s)
	var b strings.Builder
	b.Grow(len(s) + 4)
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			prev := runes[i-1]
			switch {
			case unicode.IsLower(prev), unicode.IsDigit(prev):
				b.WriteRune('_')
			case unicode.IsUpper(prev) && i+1 < len(runes) && unicode.IsLower(runes[i+1]):
				b.WriteRune('_')
			}
		}
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}
