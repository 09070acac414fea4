package region

import "strings"

// Classify maps a mapping's pathname and permission string to a RegionType.
// Rules are evaluated top to bottom; the first match wins.
//
// The "[stack" containment check covers both the main-thread "[stack]" form
// and the per-thread "[stack:<tid>]" form. For file-backed mappings the
// ".so" check deliberately takes precedence over the execute bit, so a
// shared library's text segment classifies as shared_lib, not code.
func Classify(pathname, permissions string) RegionType {
	switch {
	case pathname == "[heap]":
		return Heap
	case strings.Contains(pathname, "[stack"):
		return Stack
	case pathname == "[vdso]":
		return VDSO
	case pathname == "[vvar]":
		return VVar
	case pathname == "[vsyscall]":
		return VSyscall
	}

	executable := len(permissions) >= 3 && permissions[2] == 'x'

	if strings.HasPrefix(pathname, "/") {
		switch {
		case strings.Contains(pathname, ".so"):
			return SharedLib
		case executable:
			return Code
		default:
			return MappedFile
		}
	}

	if pathname == "" {
		// Anonymous executable mappings are typically JIT-generated code.
		if executable {
			return Code
		}
		return Anonymous
	}

	return Unknown
}
