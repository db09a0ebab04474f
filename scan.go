// FILE: argconfig/scan.go
package argconfig

import (
	"fmt"
	"net"
	"net/url"
	"reflect"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
)

// DefaultTagName is the struct tag used for field names when scanning and registering structs.
const DefaultTagName = "arg"

var structValidator = validator.New(validator.WithRequiredStructEnabled())

// Scan decodes the instance into target, a non-nil pointer to a struct or map.
// Struct fields are matched by their `arg` tag. Struct targets are then checked
// against their `validate` tags.
func (i *Instance) Scan(target any) error {
	return scanInto(i.Map(), DefaultTagName, target)
}

// scanInto is the single decoding path from plain instance data into Go values.
func scanInto(data map[string]any, tagName string, target any) error {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return fmt.Errorf("scan target must be non-nil pointer, got %T", target)
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		TagName:          tagName,
		WeaklyTypedInput: true,
		DecodeHook:       scanDecodeHook(),
		ZeroFields:       true,
	})
	if err != nil {
		return fmt.Errorf("decoder creation failed: %w", err)
	}
	if err := decoder.Decode(data); err != nil {
		return fmt.Errorf("decode failed for %T: %w", target, err)
	}

	if rv.Elem().Kind() == reflect.Struct {
		if err := structValidator.Struct(target); err != nil {
			return fmt.Errorf("validation failed for %T: %w", target, err)
		}
	}
	return nil
}

func scanDecodeHook() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		emptyStringToZeroHookFunc(),
		stringToNetIPHookFunc(),
		stringToURLHookFunc(),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToTimeHookFunc(time.RFC3339),
	)
}

// emptyStringToZeroHookFunc maps "" onto the zero value of times, IPs and URLs,
// matching how SchemaFromStruct renders their zero defaults.
func emptyStringToZeroHookFunc() mapstructure.DecodeHookFunc {
	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if f.Kind() != reflect.String || data.(string) != "" {
			return data, nil
		}
		switch t {
		case timeType, ipType, urlType:
			return reflect.Zero(t).Interface(), nil
		}
		return data, nil
	}
}

// stringToNetIPHookFunc handles net.IP conversion
func stringToNetIPHookFunc() mapstructure.DecodeHookFunc {
	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if f.Kind() != reflect.String || t != reflect.TypeOf(net.IP{}) {
			return data, nil
		}

		str := data.(string)
		if len(str) > 45 { // Max IPv6 length
			return nil, fmt.Errorf("invalid IP length: %d", len(str))
		}
		ip := net.ParseIP(str)
		if ip == nil {
			return nil, fmt.Errorf("invalid IP address: %s", str)
		}
		return ip, nil
	}
}

// stringToURLHookFunc handles url.URL conversion
func stringToURLHookFunc() mapstructure.DecodeHookFunc {
	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if f.Kind() != reflect.String {
			return data, nil
		}
		isPtr := t.Kind() == reflect.Ptr
		targetType := t
		if isPtr {
			targetType = t.Elem()
		}
		if targetType != reflect.TypeOf(url.URL{}) {
			return data, nil
		}

		str := data.(string)
		if len(str) > 2048 {
			return nil, fmt.Errorf("URL too long: %d bytes", len(str))
		}
		u, err := url.Parse(str)
		if err != nil {
			return nil, fmt.Errorf("invalid URL: %w", err)
		}
		if isPtr {
			return u, nil
		}
		return *u, nil
	}
}
