package typetag

// Kind identifies the shape of a Tag.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindBoolean
	KindString
	KindByteArray
	KindByte
	KindShort
	KindInt
	KindLong
	KindFloat
	KindDouble
	KindList
	KindMap
)

var kindNames = [...]string{
	KindInvalid:   "invalid",
	KindBoolean:   "bool",
	KindString:    "string",
	KindByteArray: "bytes",
	KindByte:      "byte",
	KindShort:     "short",
	KindInt:       "int",
	KindLong:      "long",
	KindFloat:     "float",
	KindDouble:    "double",
	KindList:      "list",
	KindMap:       "map",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// IsScalar reports whether k is a leaf shape.
func (k Kind) IsScalar() bool {
	return k >= KindBoolean && k <= KindDouble
}

// FixedSize returns the encoded width of fixed-width scalars, or 0 for
// variable-length shapes.
func (k Kind) FixedSize() int {
	switch k {
	case KindBoolean, KindByte:
		return 1
	case KindShort:
		return 2
	case KindInt, KindFloat:
		return 4
	case KindLong, KindDouble:
		return 8
	default:
		return 0
	}
}
