package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
)

var statFn = os.Stat

var durationType = reflect.TypeOf(time.Duration(0))

// coerceHooks run in order before mapstructure's weak decoding.  They cover
// what WeaklyTypedInput alone gets wrong for flat sources: blank values
// decoding as zero, bare integers as nanoseconds, yes/no booleans, and
// booleans rendered as "1"/"0".
var coerceHooks = mapstructure.ComposeDecodeHookFunc(
	rejectBlank,
	boolWords,
	wholeNumbers,
	secondsToDuration,
	mapstructure.StringToTimeDurationHookFunc(),
	mapstructure.StringToSliceHookFunc(","),
	boolToString,
)

// coerce converts a raw source value to the Go type backing t:
//
//	string, int, float64, bool, time.Duration, []string, string (path)
//
// Conversion is lenient in the way flat sources need it to be: every value
// from the environment, dotenv, or a secret file arrives as a string.
func coerce(t Type, v any) (any, error) {
	var out any
	switch t {
	case TypeString, TypePath:
		out = new(string)
	case TypeInt:
		out = new(int)
	case TypeFloat:
		out = new(float64)
	case TypeBool:
		out = new(bool)
	case TypeDuration:
		out = new(time.Duration)
	case TypeStrings:
		out = new([]string)
	default:
		return nil, fmt.Errorf("unsupported type %s", t)
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		DecodeHook:       coerceHooks,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(v); err != nil {
		return nil, decodeError(err)
	}

	val := reflect.ValueOf(out).Elem().Interface()
	if list, ok := val.([]string); ok {
		if list == nil {
			return []string{}, nil
		}
		if _, split := v.(string); split {
			for i := range list {
				list[i] = strings.TrimSpace(list[i])
			}
		}
	}
	return val, nil
}

// decodeError drops the empty root name mapstructure puts in its messages.
func decodeError(err error) error {
	msg := strings.ReplaceAll(err.Error(), "error decoding '': ", "")
	msg = strings.ReplaceAll(msg, "'' ", "value ")
	return errors.New(msg)
}

//
// decode hooks
//

// rejectBlank trims strings bound for scalar targets and refuses blank
// ones, which weak decoding would turn into zero or false.
func rejectBlank(from, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String {
		return data, nil
	}
	switch to.Kind() {
	case reflect.String, reflect.Slice:
		return data, nil
	}
	s := strings.TrimSpace(data.(string))
	if s == "" {
		return nil, fmt.Errorf("blank value is not a valid %s", to)
	}
	return s, nil
}

func boolWords(from, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String || to.Kind() != reflect.Bool {
		return data, nil
	}
	switch strings.ToLower(data.(string)) {
	case "1", "t", "true", "y", "yes", "on":
		return true, nil
	case "0", "f", "false", "n", "no", "off":
		return false, nil
	}
	return nil, fmt.Errorf("%q is not a boolean", data)
}

// wholeNumbers stops weak decoding from truncating 1.5 to 1.
func wholeNumbers(from, to reflect.Type, data any) (any, error) {
	if to.Kind() != reflect.Int {
		return data, nil
	}
	f, ok := data.(float64)
	if !ok {
		return data, nil
	}
	if f != math.Trunc(f) || math.IsInf(f, 0) || f > math.MaxInt || f < math.MinInt {
		return nil, fmt.Errorf("%v is not a whole number", f)
	}
	return int(f), nil
}

// secondsToDuration reads a bare integer as seconds.
func secondsToDuration(from, to reflect.Type, data any) (any, error) {
	if to != durationType {
		return data, nil
	}
	switch x := data.(type) {
	case int:
		return time.Duration(x) * time.Second, nil
	case string:
		if n, err := strconv.Atoi(x); err == nil {
			return time.Duration(n) * time.Second, nil
		}
	}
	return data, nil
}

func boolToString(from, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.Bool || to.Kind() != reflect.String {
		return data, nil
	}
	return strconv.FormatBool(data.(bool)), nil
}

// resolvePath expands a leading ~ and anchors relative paths at root.
func resolvePath(p, root string) (string, error) {
	if p == "" {
		return "", nil
	}
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("expand %q: %w", p, err)
		}
		p = filepath.Join(home, strings.TrimPrefix(p, "~"))
	}
	if !filepath.IsAbs(p) && root != "" {
		p = filepath.Join(root, p)
	}
	return filepath.Clean(p), nil
}
