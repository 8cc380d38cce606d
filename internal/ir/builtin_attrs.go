package ir

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"lattice/internal/typeid"
	"lattice/internal/uniquer"
)

type (
	stringAttrKind   struct{}
	integerAttrKind  struct{}
	floatAttrKind    struct{}
	boolAttrKind     struct{}
	unitAttrKind     struct{}
	arrayAttrKind    struct{}
	dictAttrKind     struct{}
	typeAttrKind     struct{}
	distinctAttrKind struct{}
)

var (
	StringAttrID     = typeid.Of[stringAttrKind]()
	IntegerAttrID    = typeid.Of[integerAttrKind]()
	FloatAttrID      = typeid.Of[floatAttrKind]()
	BoolAttrID       = typeid.Of[boolAttrKind]()
	UnitAttrID       = typeid.Of[unitAttrKind]()
	ArrayAttrID      = typeid.Of[arrayAttrKind]()
	DictionaryAttrID = typeid.Of[dictAttrKind]()
	TypeAttrID       = typeid.Of[typeAttrKind]()
	DistinctAttrID   = typeid.Of[distinctAttrKind]()
)

// stringAttrData carries the interned string plus the dialect a prefixed
// identifier refers to. referencedDialect starts nil when the dialect has not
// loaded yet and is backpatched by the dialect-loading chokepoint.
type stringAttrData struct {
	value             string
	referencedDialect *Dialect
}

// StringAttr is an interned string. Identifiers of the form "dialect.name"
// additionally resolve to their dialect once it loads.
type StringAttr struct {
	Attribute
}

// GetStringAttr returns the uniqued string attribute for value.
func GetStringAttr(c *Context, value string) StringAttr {
	if value == "" {
		if !c.cached.emptyString.IsNil() {
			return c.cached.emptyString
		}
	}
	var k uniquer.Key
	hash := k.String(value).Hash()
	a := getUniquedAttr(c, StringAttrID, hash, func(data any) bool {
		return data.(*stringAttrData).value == value
	}, func() any {
		data := &stringAttrData{value: value}
		if ns, ok := dialectPrefix(value); ok {
			if d := c.loadedDialects[ns]; d != nil {
				data.referencedDialect = d
			} else {
				c.pendingStrAttrMu.Lock()
				c.dialectReferencingStrAttrs[ns] = append(c.dialectReferencingStrAttrs[ns], data)
				c.pendingStrAttrMu.Unlock()
			}
		}
		return data
	})
	return StringAttr{a}
}

// dialectPrefix extracts the namespace of a "dialect.name" identifier.
func dialectPrefix(value string) (string, bool) {
	idx := strings.IndexByte(value, '.')
	if idx <= 0 {
		return "", false
	}
	return value[:idx], true
}

// Value returns the string.
func (a StringAttr) Value() string { return a.Data().(*stringAttrData).value }

// ReferencedDialect returns the dialect a prefixed identifier refers to, or
// nil while that dialect is unloaded.
func (a StringAttr) ReferencedDialect() *Dialect {
	return a.Data().(*stringAttrData).referencedDialect
}

type integerAttrData struct {
	value int64
	typ   Type
}

// IntegerAttr is a typed integer constant.
type IntegerAttr struct {
	Attribute
}

// GetIntegerAttr returns the uniqued integer attribute of value and type.
func GetIntegerAttr(c *Context, typ Type, value int64) IntegerAttr {
	var k uniquer.Key
	hash := k.Int64(value).Uint64(typ.serial()).Hash()
	a := getUniquedAttr(c, IntegerAttrID, hash, func(data any) bool {
		d := data.(*integerAttrData)
		return d.value == value && d.typ == typ
	}, func() any {
		return &integerAttrData{value: value, typ: typ}
	})
	return IntegerAttr{a}
}

// Value returns the integer value.
func (a IntegerAttr) Value() int64 { return a.Data().(*integerAttrData).value }

// Type returns the attribute's type.
func (a IntegerAttr) Type() Type { return a.Data().(*integerAttrData).typ }

type floatAttrData struct {
	value float64
	typ   Type
}

// FloatAttr is a typed floating point constant.
type FloatAttr struct {
	Attribute
}

// GetFloatAttr returns the uniqued float attribute of value and type. NaN
// payloads unique by bit pattern, not numeric equality.
func GetFloatAttr(c *Context, typ Type, value float64) FloatAttr {
	bits := floatBits(value)
	var k uniquer.Key
	hash := k.Uint64(bits).Uint64(typ.serial()).Hash()
	a := getUniquedAttr(c, FloatAttrID, hash, func(data any) bool {
		d := data.(*floatAttrData)
		return floatBits(d.value) == bits && d.typ == typ
	}, func() any {
		return &floatAttrData{value: value, typ: typ}
	})
	return FloatAttr{a}
}

func floatBits(v float64) uint64 { return math.Float64bits(v) }

// Value returns the float value.
func (a FloatAttr) Value() float64 { return a.Data().(*floatAttrData).value }

// Type returns the attribute's type.
func (a FloatAttr) Type() Type { return a.Data().(*floatAttrData).typ }

type boolAttrData struct {
	value bool
}

// BoolAttr is a boolean constant.
type BoolAttr struct {
	Attribute
}

// GetBoolAttr returns the context's cached true or false attribute.
func GetBoolAttr(c *Context, value bool) BoolAttr {
	if value {
		return c.cached.trueAttr
	}
	return c.cached.falseAttr
}

func getBoolAttrUncached(c *Context, value bool) BoolAttr {
	var k uniquer.Key
	hash := k.Bool(value).Hash()
	a := getUniquedAttr(c, BoolAttrID, hash, func(data any) bool {
		return data.(*boolAttrData).value == value
	}, func() any {
		return &boolAttrData{value: value}
	})
	return BoolAttr{a}
}

// Value returns the boolean.
func (a BoolAttr) Value() bool { return a.Data().(*boolAttrData).value }

// UnitAttr is the attribute whose presence is its value.
type UnitAttr struct {
	Attribute
}

// GetUnitAttr returns the context's unit attribute.
func GetUnitAttr(c *Context) UnitAttr { return c.cached.unitAttr }

type arrayAttrData struct {
	elements []Attribute
}

// ArrayAttr is an ordered list of attributes.
type ArrayAttr struct {
	Attribute
}

// GetArrayAttr returns the uniqued array of elements. The slice is copied.
func GetArrayAttr(c *Context, elements []Attribute) ArrayAttr {
	var k uniquer.Key
	k.Uint64(uint64(len(elements)))
	for _, e := range elements {
		k.Uint64(e.serial())
	}
	hash := k.Hash()
	a := getUniquedAttr(c, ArrayAttrID, hash, func(data any) bool {
		d := data.(*arrayAttrData)
		if len(d.elements) != len(elements) {
			return false
		}
		for i := range elements {
			if d.elements[i] != elements[i] {
				return false
			}
		}
		return true
	}, func() any {
		return &arrayAttrData{elements: append([]Attribute(nil), elements...)}
	})
	return ArrayAttr{a}
}

// Elements returns the canonical element slice; callers must not mutate it.
func (a ArrayAttr) Elements() []Attribute { return a.Data().(*arrayAttrData).elements }

// Len returns the number of elements.
func (a ArrayAttr) Len() int { return len(a.Elements()) }

type dictAttrData struct {
	// Sorted by name, unique names.
	entries []NamedAttribute
}

// DictionaryAttr is a sorted name-to-attribute map.
type DictionaryAttr struct {
	Attribute
}

// GetDictionaryAttr returns the uniqued dictionary holding the list's
// entries. Duplicate names keep the last binding.
func GetDictionaryAttr(c *Context, list *NamedAttrList) DictionaryAttr {
	entries := list.sortedCopy()
	return getDictionaryAttr(c, entries)
}

func getDictionaryAttr(c *Context, entries []NamedAttribute) DictionaryAttr {
	if len(entries) == 0 && !c.cached.emptyDict.IsNil() {
		return c.cached.emptyDict
	}
	var k uniquer.Key
	k.Uint64(uint64(len(entries)))
	for _, na := range entries {
		k.Uint64(na.Name.serial()).Uint64(na.Value.serial())
	}
	hash := k.Hash()
	a := getUniquedAttr(c, DictionaryAttrID, hash, func(data any) bool {
		d := data.(*dictAttrData)
		if len(d.entries) != len(entries) {
			return false
		}
		for i := range entries {
			if d.entries[i] != entries[i] {
				return false
			}
		}
		return true
	}, func() any {
		return &dictAttrData{entries: entries}
	})
	return DictionaryAttr{a}
}

// Entries returns the sorted canonical entries; callers must not mutate the
// slice.
func (a DictionaryAttr) Entries() []NamedAttribute { return a.Data().(*dictAttrData).entries }

// Get returns the value bound to name, or the null attribute. Lookup is a
// binary search over the sorted entries.
func (a DictionaryAttr) Get(name string) Attribute {
	entries := a.Entries()
	lo, hi := 0, len(entries)
	for lo < hi {
		mid := (lo + hi) / 2
		if entries[mid].Name.Value() < name {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo < len(entries) && entries[lo].Name.Value() == name {
		return entries[lo].Value
	}
	return Attribute{}
}

// Len returns the number of entries.
func (a DictionaryAttr) Len() int { return len(a.Entries()) }

type typeAttrData struct {
	typ Type
}

// TypeAttr wraps a type as an attribute.
type TypeAttr struct {
	Attribute
}

// GetTypeAttr returns the uniqued type attribute.
func GetTypeAttr(c *Context, typ Type) TypeAttr {
	var k uniquer.Key
	hash := k.Uint64(typ.serial()).Hash()
	a := getUniquedAttr(c, TypeAttrID, hash, func(data any) bool {
		return data.(*typeAttrData).typ == typ
	}, func() any {
		return &typeAttrData{typ: typ}
	})
	return TypeAttr{a}
}

// Value returns the wrapped type.
func (a TypeAttr) Value() Type { return a.Data().(*typeAttrData).typ }

type distinctAttrData struct {
	id         uuid.UUID
	referenced Attribute
}

// DistinctAttr wraps an attribute with a fresh identity. Two calls with the
// same referenced attribute produce two distinct instances.
type DistinctAttr struct {
	Attribute
}

// NewDistinctAttr allocates a new identity wrapping referenced.
func NewDistinctAttr(c *Context, referenced Attribute) DistinctAttr {
	id := uuid.New()
	var k uniquer.Key
	hash := k.Bytes(id[:]).Hash()
	// Equality is always false, so the uniquer inserts a fresh storage.
	a := getUniquedAttr(c, DistinctAttrID, hash, func(any) bool {
		return false
	}, func() any {
		return &distinctAttrData{id: id, referenced: referenced}
	})
	return DistinctAttr{a}
}

// Referenced returns the wrapped attribute.
func (a DistinctAttr) Referenced() Attribute { return a.Data().(*distinctAttrData).referenced }

func printStringAttr(data any) string {
	return strconv.Quote(data.(*stringAttrData).value)
}

func printIntegerAttr(data any) string {
	d := data.(*integerAttrData)
	return fmt.Sprintf("%d : %s", d.value, d.typ)
}

func printFloatAttr(data any) string {
	d := data.(*floatAttrData)
	return fmt.Sprintf("%g : %s", d.value, d.typ)
}

func printBoolAttr(data any) string {
	if data.(*boolAttrData).value {
		return "true"
	}
	return "false"
}

func printArrayAttr(data any) string {
	d := data.(*arrayAttrData)
	var b strings.Builder
	b.WriteByte('[')
	for i, e := range d.elements {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(e.String())
	}
	b.WriteByte(']')
	return b.String()
}

func printDictionaryAttr(data any) string {
	d := data.(*dictAttrData)
	var b strings.Builder
	b.WriteByte('{')
	for i, na := range d.entries {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(na.Name.Value())
		b.WriteString(" = ")
		b.WriteString(na.Value.String())
	}
	b.WriteByte('}')
	return b.String()
}

func printTypeAttr(data any) string {
	return data.(*typeAttrData).typ.String()
}

func printDistinctAttr(data any) string {
	d := data.(*distinctAttrData)
	return fmt.Sprintf("distinct[%s]<%s>", d.id, d.referenced)
}
