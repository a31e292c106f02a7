package analyzer

import (
	"go/types"
	"strings"
	"unicode"
)

// objectKey is the batch key of a named type: import path, a dot, then the
// name. Universe types such as error have no package and keep their bare name.
func objectKey(obj *types.TypeName) string {
	if obj.Pkg() == nil {
		return obj.Name()
	}
	return obj.Pkg().Path() + "." + obj.Name()
}

func objectPkgPath(obj *types.TypeName) string {
	if obj.Pkg() == nil {
		return "builtin"
	}
	return obj.Pkg().Path()
}

func isStdlib(pkgPath string) bool {
	// Stdlib packages have no dot in the first path element
	firstSlash := strings.IndexByte(pkgPath, '/')
	firstPart := pkgPath
	if firstSlash >= 0 {
		firstPart = pkgPath[:firstSlash]
	}
	return !strings.Contains(firstPart, ".")
}

func isUnexported(name string) bool {
	if name == "" {
		return true
	}
	// Built-in types like 'error' are lowercase but considered exported
	if name == "error" {
		return false
	}
	return unicode.IsLower(rune(name[0]))
}
