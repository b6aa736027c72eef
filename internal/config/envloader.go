package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
)

// MergeFromEnv overrides fields of cfg from the environment variables
// named by their `env` struct tags. Empty variables are ignored.
func MergeFromEnv(cfg any) error {
	v := reflect.ValueOf(cfg)
	if v.Kind() != reflect.Pointer || v.IsNil() {
		return fmt.Errorf("config must be a non-nil pointer, got %T", cfg)
	}
	v = v.Elem()
	if v.Kind() != reflect.Struct {
		return fmt.Errorf("config must point to a struct, got %T", cfg)
	}
	t := v.Type()
	for i := range v.NumField() {
		field, ft := v.Field(i), t.Field(i)
		envTag := ft.Tag.Get("env")
		if envTag == "" || !field.CanSet() {
			continue
		}
		value := os.Getenv(envTag)
		if value == "" {
			continue
		}
		if err := setFieldValue(field, value, ft, envTag); err != nil {
			return err
		}
	}
	return nil
}

func setFieldValue(field reflect.Value, value string, ft reflect.StructField, envVar string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid integer for %s (%s): %w", ft.Name, envVar, err)
		}
		field.SetInt(n)
	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean for %s (%s): %w", ft.Name, envVar, err)
		}
		field.SetBool(b)
	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice type for %s (%s)", ft.Name, envVar)
		}
		var parts []string
		if ft.Tag.Get("envsep") == "path" {
			parts = filepath.SplitList(value)
		} else {
			parts = strings.Split(value, ",")
		}
		values := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				values = append(values, p)
			}
		}
		field.Set(reflect.ValueOf(values))
	default:
		return fmt.Errorf("unsupported type %s for %s (%s)", field.Kind(), ft.Name, envVar)
	}
	return nil
}
