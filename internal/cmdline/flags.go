package cmdline

import (
	"fmt"
	"sort"
	"strconv"
)

type flagKind uint8

const (
	flagBool flagKind = iota + 1
	flagString
	flagInt
)

func (k flagKind) String() string {
	switch k {
	case flagBool:
		return "bool"
	case flagString:
		return "string"
	case flagInt:
		return "int"
	}
	return "unknown"
}

// FlagSet is a typed flag registry for a command.
type FlagSet struct {
	byName  map[string]*flag
	byShort map[rune]*flag
}

type flag struct {
	name      string
	shorthand rune // 0 if none
	usage     string
	kind      flagKind
	changed   bool

	boolPtr   *bool
	stringPtr *string
	intPtr    *int
}

func newFlagSet() *FlagSet {
	return &FlagSet{byName: map[string]*flag{}, byShort: map[rune]*flag{}}
}

// Bool defines a bool flag. A bare --name sets it to true.
func (fs *FlagSet) Bool(name string, shorthand rune, def bool, usage string) *bool {
	p := &def
	fs.add(&flag{name: name, shorthand: shorthand, usage: usage, kind: flagBool, boolPtr: p})
	return p
}

// String defines a string flag.
func (fs *FlagSet) String(name string, shorthand rune, def string, usage string) *string {
	p := &def
	fs.add(&flag{name: name, shorthand: shorthand, usage: usage, kind: flagString, stringPtr: p})
	return p
}

// Int defines an int flag.
func (fs *FlagSet) Int(name string, shorthand rune, def int, usage string) *int {
	p := &def
	fs.add(&flag{name: name, shorthand: shorthand, usage: usage, kind: flagInt, intPtr: p})
	return p
}

// Changed reports whether the flag called name was set on the command line.
func (fs *FlagSet) Changed(name string) bool {
	f, ok := fs.byName[name]
	return ok && f.changed
}

func (fs *FlagSet) add(f *flag) {
	if f.name == "" {
		panic("cmdline: flag name must be non-empty")
	}
	if _, ok := fs.byName[f.name]; ok {
		panic("cmdline: duplicate flag: --" + f.name)
	}
	fs.byName[f.name] = f
	if f.shorthand != 0 {
		if _, ok := fs.byShort[f.shorthand]; ok {
			panic(fmt.Sprintf("cmdline: duplicate shorthand flag: -%c", f.shorthand))
		}
		fs.byShort[f.shorthand] = f
	}
}

func (f *flag) set(raw string) error {
	switch f.kind {
	case flagBool:
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return err
		}
		*f.boolPtr = v
	case flagString:
		*f.stringPtr = raw
	case flagInt:
		v, err := strconv.Atoi(raw)
		if err != nil {
			return err
		}
		*f.intPtr = v
	default:
		return fmt.Errorf("unknown flag kind")
	}
	f.changed = true
	return nil
}

func (f *flag) display() string {
	if f.shorthand != 0 {
		return fmt.Sprintf("-%c/--%s", f.shorthand, f.name)
	}
	return "--" + f.name
}

// active returns the flags usable by c: persistent flags of c and its ancestors plus c's local flags.
func (c *Command) active() *FlagSet {
	all := newFlagSet()
	merge := func(fs *FlagSet) {
		if fs == nil {
			return
		}
		for _, f := range fs.byName {
			if existing, ok := all.byName[f.name]; ok && existing != f {
				panic("cmdline: flag name conflict across command path: --" + f.name)
			}
			all.byName[f.name] = f
			if f.shorthand != 0 {
				if existing, ok := all.byShort[f.shorthand]; ok && existing != f {
					panic(fmt.Sprintf("cmdline: shorthand conflict across command path: -%c", f.shorthand))
				}
				all.byShort[f.shorthand] = f
			}
		}
	}
	for _, cmd := range c.path() {
		merge(cmd.persistent)
	}
	merge(c.local)
	return all
}

func (fs *FlagSet) sorted() []*flag {
	flags := make([]*flag, 0, len(fs.byName))
	for _, f := range fs.byName {
		flags = append(flags, f)
	}
	sort.Slice(flags, func(i, j int) bool { return flags[i].name < flags[j].name })
	return flags
}
