package config

import (
	"fmt"
	"net/http"
	"os"
	"reflect"

	"github.com/YaCodeDev/GoYaVarRSA/valueparser"
	"github.com/YaCodeDev/GoYaVarRSA/yaerrors"
	"github.com/YaCodeDev/GoYaVarRSA/yalogger"
)

// LoadConfigStructFromEnvHandlingError loads environment variables into a struct.
//
// The variable name of a field is its name in SCREAMING_SNAKE_CASE, prefixed
// with the names of the enclosing struct fields (Redis.Addr -> REDIS_ADDR).
// An `env:"NAME"` tag overrides the derived name.
// A variable that is unset leaves a non-zero field untouched, otherwise the
// `default` tag is parsed. A zero field with neither a variable nor a
// `default` tag is an error. Values are parsed with valueparser, so types
// implementing encoding.TextUnmarshaler use their own syntax.
// Variables from a `.env` file in the working directory are loaded first
// and never override the real environment.
func LoadConfigStructFromEnvHandlingError[T any](instance *T, log yalogger.Logger) yaerrors.Error {
	log = yalogger.OrDefault(log)

	if err := loadDotEnv(DotEnvFile); err != nil {
		log.Warnf("Error loading .env file: %v", err)
	}

	value := reflect.ValueOf(instance).Elem()
	if value.Kind() != reflect.Struct {
		return yaerrors.FromErrorWithLog(
			http.StatusInternalServerError,
			ErrConfigStructMustBeStruct,
			fmt.Sprintf("config loader, got %T", instance),
			log,
		)
	}

	return loadConfigStructFromEnv(value, "", log)
}

// loadConfigStructFromEnv walks the fields of structValue recursively.
func loadConfigStructFromEnv(
	structValue reflect.Value,
	keyPath string,
	log yalogger.Logger,
) yaerrors.Error {
	structType := structValue.Type()

	for i := range structValue.NumField() {
		field := structType.Field(i)
		fieldVal := structValue.Field(i)

		if !fieldVal.CanSet() {
			log.Warnf("Field %s cannot be set", field.Name)

			continue
		}

		envKey := toScreamingSnakeCase(field.Name)

		if keyPath != "" {
			envKey = fmt.Sprintf("%s_%s", keyPath, envKey)
		}

		if tagged, ok := field.Tag.Lookup(EnvTagName); ok {
			envKey = tagged
		}

		if field.Type.Kind() == reflect.Struct && !valueparser.HasUnmarshaler(field.Type) {
			if err := loadConfigStructFromEnv(fieldVal, envKey, log); err != nil {
				return err.WrapWithLog("failed to load struct field "+field.Name, log)
			}

			continue
		}

		if err := loadField(fieldVal, field, envKey, log); err != nil {
			return err
		}
	}

	return nil
}

// loadField fills one scalar field from the environment or its default tag.
func loadField(
	fieldVal reflect.Value,
	field reflect.StructField,
	envKey string,
	log yalogger.Logger,
) yaerrors.Error {
	defaultValStr, hasDefault := field.Tag.Lookup(DefaultTagName)

	raw, exists := os.LookupEnv(envKey)

	switch {
	case exists:
	case !fieldVal.IsZero():
		return nil
	case hasDefault:
		raw = defaultValStr
	default:
		return yaerrors.FromErrorWithLog(
			http.StatusInternalServerError,
			ErrValueIsRequired,
			"config loader: "+envKey,
			log,
		)
	}

	parsed, err := valueparser.ParseReflect(raw, field.Type)
	if err != nil {
		return err.WrapWithLog(
			fmt.Sprintf("config loader: field %s (%s)", field.Name, envKey),
			log,
		)
	}

	fieldVal.Set(parsed)

	return nil
}
