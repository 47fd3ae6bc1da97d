// Package config implements the free-form key/value configuration bag that is
// attached to an operator and shipped to its parallel instances.
package config

import (
	"fmt"
	"maps"
	"slices"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// Configuration holds operator-local options. Values are restricted to what a
// protobuf Struct can carry: nil, bool, numbers, strings, []any and map[string]any.
type Configuration struct {
	values map[string]any
}

// New creates an empty configuration.
func New() *Configuration {
	return &Configuration{values: make(map[string]any)}
}

// FromMap creates a configuration holding a shallow copy of m.
func FromMap(m map[string]any) *Configuration {
	c := New()
	for k, v := range m {
		c.values[k] = v
	}
	return c
}

// Set stores value under key and returns the configuration for chaining.
func (c *Configuration) Set(key string, value any) *Configuration {
	c.values[key] = value
	return c
}

// Get returns the raw value stored under key.
func (c *Configuration) Get(key string) (any, bool) {
	v, ok := c.values[key]
	return v, ok
}

// GetString returns the string under key, or def if absent or of another type.
func (c *Configuration) GetString(key, def string) string {
	if s, ok := c.values[key].(string); ok {
		return s
	}
	return def
}

// GetInt64 returns the integer under key, or def. Floats with an integral value
// are accepted because numbers decoded from protobuf are float64.
func (c *Configuration) GetInt64(key string, def int64) int64 {
	switch v := c.values[key].(type) {
	case int:
		return int64(v)
	case int32:
		return int64(v)
	case int64:
		return v
	case float64:
		if v == float64(int64(v)) {
			return int64(v)
		}
	}
	return def
}

// GetFloat64 returns the number under key, or def.
func (c *Configuration) GetFloat64(key string, def float64) float64 {
	switch v := c.values[key].(type) {
	case int:
		return float64(v)
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	case float32:
		return float64(v)
	case float64:
		return v
	}
	return def
}

// GetBool returns the boolean under key, or def.
func (c *Configuration) GetBool(key string, def bool) bool {
	if b, ok := c.values[key].(bool); ok {
		return b
	}
	return def
}

// Keys returns the configured keys in sorted order.
func (c *Configuration) Keys() []string {
	return slices.Sorted(maps.Keys(c.values))
}

// Len returns the number of entries.
func (c *Configuration) Len() int { return len(c.values) }

// Clone returns a shallow copy.
func (c *Configuration) Clone() *Configuration {
	if c == nil {
		return nil
	}
	return FromMap(c.values)
}

// ToProto converts the configuration into a protobuf Struct.
func (c *Configuration) ToProto() (*structpb.Struct, error) {
	s, err := structpb.NewStruct(c.values)
	if err != nil {
		return nil, fmt.Errorf("config to proto: %w", err)
	}
	return s, nil
}

// FromProto creates a configuration from a protobuf Struct.
func FromProto(s *structpb.Struct) *Configuration {
	if s == nil {
		return New()
	}
	return FromMap(s.AsMap())
}

// MarshalBinary encodes the configuration in protobuf wire format.
func (c *Configuration) MarshalBinary() ([]byte, error) {
	s, err := c.ToProto()
	if err != nil {
		return nil, err
	}
	data, err := proto.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}

// UnmarshalBinary replaces the contents with the decoded configuration.
func (c *Configuration) UnmarshalBinary(data []byte) error {
	s := &structpb.Struct{}
	if err := proto.Unmarshal(data, s); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}
	c.values = s.AsMap()
	return nil
}
