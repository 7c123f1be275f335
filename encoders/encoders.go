// Package encoders looks up the bundled wirebus encoders by name.
package encoders

import (
	"fmt"
	"sort"
	"strings"

	"github.com/RobertWHurst/wirebus"
	"github.com/RobertWHurst/wirebus/encoders/cborencoder"
	"github.com/RobertWHurst/wirebus/encoders/codecencoder"
	"github.com/RobertWHurst/wirebus/encoders/jsonencoder"
	"github.com/RobertWHurst/wirebus/encoders/msgpackencoder"
	"github.com/RobertWHurst/wirebus/encoders/protobufencoder"
)

var constructors = map[string]func() wirebus.Encoder{
	"cbor":     func() wirebus.Encoder { return cborencoder.New() },
	"codec":    func() wirebus.Encoder { return codecencoder.New() },
	"json":     func() wirebus.Encoder { return jsonencoder.New() },
	"msgpack":  func() wirebus.Encoder { return msgpackencoder.New() },
	"protobuf": func() wirebus.Encoder { return protobufencoder.New() },
}

// ByName returns a new encoder for name. Names are case-insensitive.
func ByName(name string) (wirebus.Encoder, error) {
	ctor, ok := constructors[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("unknown encoder %q, expected one of %s", name, strings.Join(Names(), ", "))
	}
	return ctor(), nil
}

// Names returns the sorted list of known encoder names.
func Names() []string {
	names := make([]string, 0, len(constructors))
	for name := range constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
