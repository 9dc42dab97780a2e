package config

import (
	"reflect"
	"strings"

	"github.com/go-viper/mapstructure/v2"
)

// trimSliceHookFunc trims list entries and drops empty ones, so
// "chrome, firefox," decodes to [chrome firefox].
func trimSliceHookFunc() mapstructure.DecodeHookFunc {
	return func(f reflect.Type, t reflect.Type, data interface{}) (interface{}, error) {
		if t.Kind() != reflect.Slice || t.Elem().Kind() != reflect.String {
			return data, nil
		}
		var items []string
		switch v := data.(type) {
		case []string:
			items = v
		case []interface{}:
			for _, item := range v {
				s, ok := item.(string)
				if !ok {
					return data, nil
				}
				items = append(items, s)
			}
		default:
			return data, nil
		}
		out := make([]string, 0, len(items))
		for _, item := range items {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
		return out, nil
	}
}
