package encoders

import (
	"reflect"
	"testing"
)

func TestByName(t *testing.T) {
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			enc, err := ByName(name)
			if err != nil {
				t.Fatalf("ByName(%q) failed: %v", name, err)
			}
			named, ok := enc.(interface{ Name() string })
			if !ok {
				t.Fatalf("Expected %T to have a Name method", enc)
			}
			if named.Name() != name {
				t.Errorf("Expected name %q, got %q", name, named.Name())
			}
		})
	}
}

func TestByNameCaseInsensitive(t *testing.T) {
	if _, err := ByName(" MsgPack "); err != nil {
		t.Errorf("Expected MsgPack to resolve, got %v", err)
	}
}

func TestByNameUnknown(t *testing.T) {
	if _, err := ByName("xml"); err == nil {
		t.Error("Expected error for unknown encoder, got nil")
	}
}

func TestNames(t *testing.T) {
	expected := []string{"cbor", "codec", "json", "msgpack", "protobuf"}
	if !reflect.DeepEqual(Names(), expected) {
		t.Errorf("Expected %v, got %v", expected, Names())
	}
}
