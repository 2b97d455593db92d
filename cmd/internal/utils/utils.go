package utils

import (
	"reflect"
	"strings"
	"time"
)

const epochLayout = "2006-01-02T15:04:05.000Z07:00"

// FormatEpoch renders unix milliseconds as an ISO-8601 UTC timestamp.
func FormatEpoch(millis int64) string {
	return time.UnixMilli(millis).UTC().Format(epochLayout)
}

func NowMillis() int64 {
	return time.Now().UnixMilli()
}

// Sanitize trims the exported string fields of the struct o points to,
// following string pointers, string slices and nested structs.
func Sanitize(o any) {
	v := reflect.ValueOf(o)
	if v.Kind() != reflect.Ptr || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		panic("sanitize: expected pointer to struct")
	}
	trimValue(v.Elem())
}

func trimValue(v reflect.Value) {
	switch v.Kind() {
	case reflect.String:
		if v.CanSet() {
			v.SetString(strings.TrimSpace(v.String()))
		}

	case reflect.Ptr:
		if !v.IsNil() {
			trimValue(v.Elem())
		}

	case reflect.Slice:
		if v.Type().Elem().Kind() != reflect.String {
			return
		}
		for i := 0; i < v.Len(); i++ {
			trimValue(v.Index(i))
		}

	case reflect.Struct:
		for i := 0; i < v.NumField(); i++ {
			if v.Type().Field(i).IsExported() {
				trimValue(v.Field(i))
			}
		}
	}
}
