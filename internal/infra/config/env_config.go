// Package config fills configuration structs from environment variables.
//
// Fields are bound with `env:"NAME"` tags and an optional `default:"value"`;
// nested structs add their `envPrefix:"PREFIX_"` to the names of their fields.
// A namespace such as "UWP_CLI" is tried from the most to the least specific
// form, so UWP_CLI_API_URL overrides UWP_API_URL, which overrides API_URL.
package config

import (
	"context"
	"encoding"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrInvalidConfig is returned when cfg is not a pointer to a struct embedding EnvConfig.
	ErrInvalidConfig = errors.New("config must be a pointer to a struct embedding EnvConfig")

	// ErrVarNotSet is returned when a variable without default is not set.
	ErrVarNotSet = errors.New("env var not set")

	// ErrUnsupportedVarType is returned for field types the parser cannot fill.
	ErrUnsupportedVarType = errors.New("unsupported env var type")
)

//nolint:gochecknoglobals
var (
	durationType        = reflect.TypeFor[time.Duration]()
	envConfigType       = reflect.TypeFor[EnvConfig]()
	textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()
)

// EnvConfig must be embedded in configuration structs passed to Parse.
type EnvConfig struct {
	namespace string
}

// Namespace returns the namespace the config was parsed with.
func (ec EnvConfig) Namespace() string {
	return ec.namespace
}

// Parse fills cfg from the environment. Supported field types are strings, signed
// and unsigned integers, floats, bools, time.Duration, []string (comma separated)
// and any type implementing encoding.TextUnmarshaler. All problems are reported
// at once.
func Parse(_ context.Context, cfg any, namespace string) error {
	envConfig, err := getEnvConfig(cfg)
	if err != nil {
		return fmt.Errorf("get env config: %w", err)
	}

	envConfig.namespace = namespace

	return parseStruct(candidates(namespace), "", reflect.ValueOf(cfg).Elem())
}

func getEnvConfig(cfg any) (*EnvConfig, error) {
	v := reflect.ValueOf(cfg)
	if v.Kind() != reflect.Pointer || v.Elem().Kind() != reflect.Struct {
		return nil, ErrInvalidConfig
	}

	v = v.Elem()

	for i := range v.NumField() {
		field := v.Type().Field(i)
		if field.Anonymous && field.Type == envConfigType {
			return v.Field(i).Addr().Interface().(*EnvConfig), nil //nolint:forcetypeassert
		}
	}

	return nil, ErrInvalidConfig
}

// candidates returns the variable name prefixes for namespace, most specific first.
func candidates(namespace string) []string {
	if namespace == "" {
		return []string{""}
	}

	parts := strings.Split(namespace, "_")
	prefixes := make([]string, 0, len(parts))

	for i := len(parts); i > 0; i-- {
		prefixes = append(prefixes, strings.Join(parts[:i], "_")+"_")
	}

	return prefixes
}

func parseStruct(namespaces []string, prefix string, v reflect.Value) error {
	var errs []error

	for i := range v.NumField() {
		field := v.Type().Field(i)
		value := v.Field(i)

		if !field.IsExported() || field.Type == envConfigType {
			continue
		}

		if field.Type.Kind() == reflect.Struct && !isTextUnmarshaler(field.Type) {
			if err := parseStruct(namespaces, prefix+field.Tag.Get("envPrefix"), value); err != nil {
				errs = append(errs, err)
			}

			continue
		}

		if err := parseField(namespaces, prefix, field, value); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func parseField(namespaces []string, prefix string, field reflect.StructField, value reflect.Value) error {
	tag := field.Tag.Get("env")
	if tag == "" {
		return nil
	}

	name, raw, ok := lookup(namespaces, prefix+tag)
	if !ok {
		defaultValue, hasDefault := field.Tag.Lookup("default")
		if !hasDefault {
			return fmt.Errorf("%w: %s", ErrVarNotSet, name)
		}

		raw = defaultValue
	}

	if err := setValue(value, raw); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	return nil
}

// lookup returns the first set variable among the namespaced forms of name. When
// none is set, the most specific name is returned for error messages.
func lookup(namespaces []string, name string) (string, string, bool) {
	for _, ns := range namespaces {
		if raw, ok := os.LookupEnv(ns + name); ok {
			return ns + name, raw, true
		}
	}

	return namespaces[0] + name, "", false
}

//nolint:cyclop
func setValue(value reflect.Value, raw string) error {
	if isTextUnmarshaler(value.Type()) {
		//nolint:forcetypeassert
		if err := value.Addr().Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(raw)); err != nil {
			return fmt.Errorf("unmarshal text: %w", err)
		}

		return nil
	}

	if value.Type() == durationType {
		duration, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("invalid duration: %w", err)
		}

		value.SetInt(int64(duration))

		return nil
	}

	//nolint:exhaustive
	switch value.Kind() {
	case reflect.String:
		value.SetString(raw)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, value.Type().Bits())
		if err != nil {
			return fmt.Errorf("invalid integer: %w", err)
		}

		value.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(raw, 10, value.Type().Bits())
		if err != nil {
			return fmt.Errorf("invalid unsigned integer: %w", err)
		}

		value.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(raw, value.Type().Bits())
		if err != nil {
			return fmt.Errorf("invalid float: %w", err)
		}

		value.SetFloat(f)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("invalid bool: %w", err)
		}

		value.SetBool(b)
	case reflect.Slice:
		if value.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("%w: %s", ErrUnsupportedVarType, value.Type())
		}

		value.Set(reflect.ValueOf(splitList(raw)).Convert(value.Type()))
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedVarType, value.Type())
	}

	return nil
}

func isTextUnmarshaler(t reflect.Type) bool {
	return reflect.PointerTo(t).Implements(textUnmarshalerType)
}

func splitList(raw string) []string {
	items := []string{}

	for item := range strings.SplitSeq(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}

	return items
}
