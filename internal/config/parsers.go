// Package config provides configuration loading and parsing for httpblast.
package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// lookupSetting finds a value under any of the candidate keys, also matching
// the lowercase form viper normalizes to.
func lookupSetting(settings map[string]interface{}, candidates ...string) (interface{}, bool) {
	for _, key := range candidates {
		if val, ok := settings[key]; ok {
			return val, true
		}
		if val, ok := settings[strings.ToLower(key)]; ok {
			return val, true
		}
	}
	return nil, false
}

func asString(value interface{}) (string, error) {
	switch v := value.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case fmt.Stringer:
		return v.String(), nil
	case []byte:
		return string(v), nil
	default:
		return fmt.Sprint(v), nil
	}
}

// asInt accepts the numeric types YAML and TOML decoders produce, plus
// numeric strings.
func asInt(value interface{}) (int, error) {
	switch v := value.(type) {
	case nil:
		return 0, nil
	case int:
		return v, nil
	case int32:
		return int(v), nil
	case int64:
		return int(v), nil
	case uint:
		return int(v), nil
	case uint64:
		return int(v), nil
	case float32:
		return int(v), nil
	case float64:
		return int(v), nil
	case string:
		text := strings.TrimSpace(v)
		if text == "" {
			return 0, nil
		}
		return strconv.Atoi(text)
	default:
		return 0, fmt.Errorf("unsupported numeric type %T", value)
	}
}

func asFloat64(value interface{}) (float64, error) {
	switch v := value.(type) {
	case nil:
		return 0, nil
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case string:
		text := strings.TrimSpace(v)
		if text == "" {
			return 0, nil
		}
		return strconv.ParseFloat(text, 64)
	default:
		return 0, fmt.Errorf("unsupported float type %T", value)
	}
}

func asBool(value interface{}) (bool, error) {
	switch v := value.(type) {
	case nil:
		return false, nil
	case bool:
		return v, nil
	case string:
		text := strings.TrimSpace(v)
		if text == "" {
			return false, nil
		}
		return strconv.ParseBool(text)
	default:
		return false, fmt.Errorf("unsupported boolean type %T", value)
	}
}

// asDuration parses Go duration strings; bare numbers mean seconds, matching
// the -t flag.
func asDuration(value interface{}) (time.Duration, error) {
	switch v := value.(type) {
	case nil:
		return 0, nil
	case time.Duration:
		return v, nil
	case string:
		text := strings.TrimSpace(v)
		if text == "" {
			return 0, nil
		}
		return time.ParseDuration(text)
	default:
		seconds, err := asInt(value)
		if err != nil {
			return 0, fmt.Errorf("unsupported duration type %T", value)
		}
		return time.Duration(seconds) * time.Second, nil
	}
}

// asHeaderList converts a config-file headers value to an ordered header list.
// Map keys are sorted so that file-sourced headers have a stable order.
func asHeaderList(value interface{}) ([]Header, error) {
	if value == nil {
		return nil, nil
	}
	var raw map[string]string
	switch v := value.(type) {
	case map[string]string:
		raw = v
	case map[string]interface{}:
		raw = make(map[string]string, len(v))
		for k, val := range v {
			str, err := asString(val)
			if err != nil {
				return nil, err
			}
			raw[k] = str
		}
	case map[interface{}]interface{}:
		raw = make(map[string]string, len(v))
		for k, val := range v {
			key, err := asString(k)
			if err != nil {
				return nil, err
			}
			str, err := asString(val)
			if err != nil {
				return nil, err
			}
			raw[key] = str
		}
	default:
		return nil, fmt.Errorf("unsupported headers type %T", value)
	}

	keys := make([]string, 0, len(raw))
	for k := range raw {
		if strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("header key cannot be empty")
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	headers := make([]Header, 0, len(keys))
	for _, k := range keys {
		headers = append(headers, Header{Key: strings.TrimSpace(k), Value: raw[k]})
	}
	return headers, nil
}

// toStringKeyMap lowercases the keys of a nested config section so lookups
// stay case-insensitive regardless of the file format's decoder.
func toStringKeyMap(value interface{}) (map[string]interface{}, error) {
	result := map[string]interface{}{}
	switch v := value.(type) {
	case map[string]interface{}:
		for key, val := range v {
			result[strings.ToLower(strings.TrimSpace(key))] = val
		}
	case map[interface{}]interface{}:
		for key, val := range v {
			str, err := asString(key)
			if err != nil {
				return nil, err
			}
			result[strings.ToLower(strings.TrimSpace(str))] = val
		}
	default:
		return nil, fmt.Errorf("expected map, got %T", value)
	}
	return result, nil
}
