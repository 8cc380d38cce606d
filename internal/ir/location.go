package ir

import (
	"fmt"
	"strings"

	"lattice/internal/typeid"
	"lattice/internal/uniquer"
)

type (
	unknownLocKind     struct{}
	fileLineColLocKind struct{}
	nameLocKind        struct{}
	fusedLocKind       struct{}
)

var (
	UnknownLocID     = typeid.Of[unknownLocKind]()
	FileLineColLocID = typeid.Of[fileLineColLocKind]()
	NameLocID        = typeid.Of[nameLocKind]()
	FusedLocID       = typeid.Of[fusedLocKind]()
)

// Location is a source position attached to IR entities. Locations are
// uniqued attributes, so they share storage and compare by handle.
type Location struct {
	Attribute
}

// GetUnknownLoc returns the context's unknown location.
func GetUnknownLoc(c *Context) Location { return c.cached.unknownLoc }

type fileLineColLocData struct {
	filename  StringAttr
	line, col uint32
}

// GetFileLineColLoc returns the uniqued file:line:col location.
func GetFileLineColLoc(c *Context, filename StringAttr, line, col uint32) Location {
	var k uniquer.Key
	hash := k.Uint64(filename.serial()).Uint64(uint64(line)).Uint64(uint64(col)).Hash()
	a := getUniquedAttr(c, FileLineColLocID, hash, func(data any) bool {
		d := data.(*fileLineColLocData)
		return d.filename == filename && d.line == line && d.col == col
	}, func() any {
		return &fileLineColLocData{filename: filename, line: line, col: col}
	})
	return Location{a}
}

type nameLocData struct {
	name  StringAttr
	child Location
}

// GetNameLoc returns the uniqued named location wrapping child. Pass the
// unknown location when there is no finer position.
func GetNameLoc(c *Context, name StringAttr, child Location) Location {
	var k uniquer.Key
	hash := k.Uint64(name.serial()).Uint64(child.serial()).Hash()
	a := getUniquedAttr(c, NameLocID, hash, func(data any) bool {
		d := data.(*nameLocData)
		return d.name == name && d.child == child
	}, func() any {
		return &nameLocData{name: name, child: child}
	})
	return Location{a}
}

type fusedLocData struct {
	locations []Location
	metadata  Attribute
}

// GetFusedLoc returns the uniqued fusion of the given locations. Duplicates
// and nested fusions with equal metadata are flattened; a single surviving
// location is returned unwrapped.
func GetFusedLoc(c *Context, locations []Location, metadata Attribute) Location {
	flat := make([]Location, 0, len(locations))
	seen := make(map[Location]bool, len(locations))
	for _, loc := range locations {
		if loc.Is(FusedLocID) {
			d := loc.Data().(*fusedLocData)
			if d.metadata == metadata {
				for _, inner := range d.locations {
					if !seen[inner] {
						seen[inner] = true
						flat = append(flat, inner)
					}
				}
				continue
			}
		}
		if !seen[loc] {
			seen[loc] = true
			flat = append(flat, loc)
		}
	}
	if len(flat) == 0 {
		return GetUnknownLoc(c)
	}
	if len(flat) == 1 && metadata.IsNil() {
		return flat[0]
	}

	var k uniquer.Key
	k.Uint64(uint64(len(flat)))
	for _, loc := range flat {
		k.Uint64(loc.serial())
	}
	k.Uint64(metadata.serial())
	hash := k.Hash()
	a := getUniquedAttr(c, FusedLocID, hash, func(data any) bool {
		d := data.(*fusedLocData)
		if d.metadata != metadata || len(d.locations) != len(flat) {
			return false
		}
		for i := range flat {
			if d.locations[i] != flat[i] {
				return false
			}
		}
		return true
	}, func() any {
		return &fusedLocData{locations: flat, metadata: metadata}
	})
	return Location{a}
}

// Locations returns a fused location's members; callers must not mutate the
// slice.
func (l Location) Locations() []Location {
	if l.Is(FusedLocID) {
		return l.Data().(*fusedLocData).locations
	}
	return nil
}

func printFileLineColLoc(data any) string {
	d := data.(*fileLineColLocData)
	return fmt.Sprintf("%s:%d:%d", d.filename.Value(), d.line, d.col)
}

func printNameLoc(data any) string {
	d := data.(*nameLocData)
	if d.child.Is(UnknownLocID) {
		return fmt.Sprintf("%q", d.name.Value())
	}
	return fmt.Sprintf("%q(%s)", d.name.Value(), d.child)
}

func printFusedLoc(data any) string {
	d := data.(*fusedLocData)
	var b strings.Builder
	b.WriteString("fused")
	if !d.metadata.IsNil() {
		b.WriteByte('<')
		b.WriteString(d.metadata.String())
		b.WriteByte('>')
	}
	b.WriteByte('[')
	for i, loc := range d.locations {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(loc.String())
	}
	b.WriteByte(']')
	return b.String()
}
