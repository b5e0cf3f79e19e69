/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"strconv"
	"strings"
)

var (
	errUnsupportedEnvValue = errors.New("unsupported env value")
	errEnvsNotObject       = errors.New("envs must be a JSON object")
)

// EnvKind identifies which variant an EnvValue holds.
type EnvKind uint8

const (
	EnvKindString EnvKind = iota
	EnvKindBool
	EnvKindInt
	EnvKindFloat
)

func (k EnvKind) String() string {
	switch k {
	case EnvKindString:
		return "string"
	case EnvKindBool:
		return "bool"
	case EnvKindInt:
		return "int"
	case EnvKindFloat:
		return "float"
	default:
		return "invalid"
	}
}

// EnvValue is one environment variable value as stored remotely: a string, bool, int or float.
// Values read from a local .env file are always strings.
type EnvValue struct {
	kind EnvKind
	s    string
	b    bool
	i    int64
	f    float64
}

func StringValue(s string) EnvValue { return EnvValue{kind: EnvKindString, s: s} }
func BoolValue(b bool) EnvValue     { return EnvValue{kind: EnvKindBool, b: b} }
func IntValue(i int64) EnvValue     { return EnvValue{kind: EnvKindInt, i: i} }
func FloatValue(f float64) EnvValue { return EnvValue{kind: EnvKindFloat, f: f} }

func (v EnvValue) Kind() EnvKind { return v.kind }

// String renders the value the way it is written to a .env file.
func (v EnvValue) String() string {
	switch v.kind {
	case EnvKindBool:
		return strconv.FormatBool(v.b)
	case EnvKindInt:
		return strconv.FormatInt(v.i, 10)
	case EnvKindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case EnvKindString:
		return v.s
	default:
		return v.s
	}
}

// Equal compares kind and value. StringValue("1") is not equal to IntValue(1).
func (v EnvValue) Equal(other EnvValue) bool {
	if v.kind != other.kind {
		return false
	}

	switch v.kind {
	case EnvKindBool:
		return v.b == other.b
	case EnvKindInt:
		return v.i == other.i
	case EnvKindFloat:
		return v.f == other.f
	case EnvKindString:
		return v.s == other.s
	default:
		return v.s == other.s
	}
}

func (v EnvValue) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case EnvKindBool:
		return json.Marshal(v.b)
	case EnvKindInt:
		return json.Marshal(v.i)
	case EnvKindFloat:
		return json.Marshal(v.f)
	case EnvKindString:
		return json.Marshal(v.s)
	default:
		return json.Marshal(v.s)
	}
}

func (v *EnvValue) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()

	var raw interface{}
	if err := dec.Decode(&raw); err != nil {
		return err
	}

	parsed, err := envValueOf(raw)
	if err != nil {
		return err
	}

	*v = parsed

	return nil
}

func envValueOf(raw interface{}) (EnvValue, error) {
	switch value := raw.(type) {
	case string:
		return StringValue(value), nil
	case bool:
		return BoolValue(value), nil
	case json.Number:
		text := value.String()
		if !strings.ContainsAny(text, ".eE") {
			if i, err := value.Int64(); err == nil {
				return IntValue(i), nil
			}
		}

		f, err := value.Float64()
		if err != nil {
			return EnvValue{}, fmt.Errorf("%w: %s", errUnsupportedEnvValue, text)
		}

		return FloatValue(f), nil
	default:
		return EnvValue{}, fmt.Errorf("%w: %T", errUnsupportedEnvValue, raw)
	}
}

// Envs is an insertion-ordered set of environment variables.
// The zero value is empty and ready to use.
type Envs struct {
	keys   []string
	values map[string]EnvValue
}

// NewStringEnvs builds Envs from key, value, key, value... pairs. A trailing key without value is ignored.
func NewStringEnvs(pairs ...string) Envs {
	var envs Envs

	for i := 0; i+1 < len(pairs); i += 2 {
		envs.Set(pairs[i], StringValue(pairs[i+1]))
	}

	return envs
}

// Set stores a value. Overwriting an existing key keeps its original position.
func (e *Envs) Set(key string, value EnvValue) {
	if e.values == nil {
		e.values = make(map[string]EnvValue)
	}

	if _, ok := e.values[key]; !ok {
		e.keys = append(e.keys, key)
	}

	e.values[key] = value
}

func (e Envs) Get(key string) (EnvValue, bool) {
	v, ok := e.values[key]
	return v, ok
}

func (e Envs) Len() int { return len(e.keys) }

// Keys returns the keys in insertion order.
func (e Envs) Keys() []string {
	return append([]string(nil), e.keys...)
}

// All iterates the variables in insertion order.
func (e Envs) All() iter.Seq2[string, EnvValue] {
	return func(yield func(string, EnvValue) bool) {
		for _, key := range e.keys {
			if !yield(key, e.values[key]) {
				return
			}
		}
	}
}

// Equal reports whether both sets hold the same keys with equal values. Order is ignored.
func (e Envs) Equal(other Envs) bool {
	if len(e.keys) != len(other.keys) {
		return false
	}

	for key, value := range e.values {
		otherValue, ok := other.values[key]
		if !ok || !value.Equal(otherValue) {
			return false
		}
	}

	return true
}

func (e Envs) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte('{')

	for i, key := range e.keys {
		if i > 0 {
			buf.WriteByte(',')
		}

		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}

		v, err := e.values[key].MarshalJSON()
		if err != nil {
			return nil, err
		}

		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}

	buf.WriteByte('}')

	return buf.Bytes(), nil
}

// UnmarshalJSON keeps the key order of the JSON object.
func (e *Envs) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}

	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return errEnvsNotObject
	}

	var envs Envs

	for dec.More() {
		tok, err = dec.Token()
		if err != nil {
			return err
		}

		key, ok := tok.(string)
		if !ok {
			return errEnvsNotObject
		}

		var raw interface{}
		if err := dec.Decode(&raw); err != nil {
			return err
		}

		value, err := envValueOf(raw)
		if err != nil {
			return fmt.Errorf("env %q: %w", key, err)
		}

		envs.Set(key, value)
	}

	if _, err := dec.Token(); err != nil {
		return err
	}

	*e = envs

	return nil
}
