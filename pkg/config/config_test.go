package config

import (
	"testing"
)

func TestGetters(t *testing.T) {
	c := New().
		Set("name", "orders").
		Set("limit", 10).
		Set("ratio", 0.5).
		Set("enabled", true)

	if got := c.GetString("name", ""); got != "orders" {
		t.Errorf("GetString: got %q", got)
	}
	if got := c.GetInt64("limit", 0); got != 10 {
		t.Errorf("GetInt64: got %d", got)
	}
	if got := c.GetFloat64("ratio", 0); got != 0.5 {
		t.Errorf("GetFloat64: got %v", got)
	}
	if !c.GetBool("enabled", false) {
		t.Error("GetBool: expected true")
	}
	if got := c.GetString("missing", "default"); got != "default" {
		t.Errorf("missing key should return default, got %q", got)
	}
	if got := c.GetInt64("name", -1); got != -1 {
		t.Errorf("wrong type should return default, got %d", got)
	}
}

func TestKeysSorted(t *testing.T) {
	c := FromMap(map[string]any{"b": 1, "a": 2, "c": 3})
	keys := c.Keys()
	if len(keys) != 3 || keys[0] != "a" || keys[1] != "b" || keys[2] != "c" {
		t.Errorf("unexpected keys: %v", keys)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	c := New().Set("k", "v")
	clone := c.Clone()
	clone.Set("k", "changed").Set("extra", 1)

	if c.GetString("k", "") != "v" {
		t.Error("mutating the clone changed the original")
	}
	if c.Len() != 1 {
		t.Errorf("expected 1 entry, got %d", c.Len())
	}

	var nilConfig *Configuration
	if nilConfig.Clone() != nil {
		t.Error("clone of nil should be nil")
	}
}

func TestBinaryRoundtrip(t *testing.T) {
	c := New().
		Set("name", "orders").
		Set("limit", int64(42)).
		Set("enabled", true).
		Set("tags", []any{"a", "b"})

	data, err := c.MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}

	decoded := New()
	if err := decoded.UnmarshalBinary(data); err != nil {
		t.Fatal(err)
	}

	if decoded.GetString("name", "") != "orders" {
		t.Errorf("name mismatch: %v", decoded.GetString("name", ""))
	}
	if decoded.GetInt64("limit", 0) != 42 {
		t.Errorf("limit mismatch: %v", decoded.GetInt64("limit", 0))
	}
	if !decoded.GetBool("enabled", false) {
		t.Error("enabled mismatch")
	}
	tags, ok := decoded.Get("tags")
	if !ok || len(tags.([]any)) != 2 {
		t.Errorf("tags mismatch: %v", tags)
	}
}

func TestToProtoRejectsUnsupportedValues(t *testing.T) {
	c := New().Set("ch", make(chan int))
	if _, err := c.ToProto(); err == nil {
		t.Fatal("expected error for unsupported value type")
	}
}

func TestUnmarshalBinaryInvalid(t *testing.T) {
	c := New()
	if err := c.UnmarshalBinary([]byte{0xff, 0xff, 0xff}); err == nil {
		t.Fatal("expected error for invalid protobuf data")
	}
}
