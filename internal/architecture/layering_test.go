package architecture_test

import (
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const modulesPrefix = "scrollkitty/internal/modules/"

// moduleFile is one non-test source file under internal/modules.
type moduleFile struct {
	path    string
	module  string
	layer   string
	imports []string
}

func moduleFiles(t *testing.T) []moduleFile {
	t.Helper()
	fset := token.NewFileSet()
	var files []moduleFile
	err := filepath.WalkDir(filepath.Join("..", "modules"), func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}
		slash := filepath.ToSlash(path)
		f := moduleFile{path: slash, module: moduleName(slash), layer: detectLayer(slash)}
		if f.module == "" || f.layer == "" {
			return nil
		}
		node, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
		if err != nil {
			return err
		}
		for _, imp := range node.Imports {
			f.imports = append(f.imports, strings.Trim(imp.Path.Value, `"`))
		}
		files = append(files, f)
		return nil
	})
	if err != nil {
		t.Fatalf("walk modules: %v", err)
	}
	if len(files) == 0 {
		t.Fatalf("no module sources found")
	}
	return files
}

func TestHexagonalLayerImports(t *testing.T) {
	t.Parallel()
	for _, f := range moduleFiles(t) {
		for _, importPath := range f.imports {
			if !strings.HasPrefix(importPath, modulesPrefix) {
				continue
			}
			if violatesLayerRule(f.module, f.layer, importPath) {
				t.Fatalf("forbidden import in %s (%s): %s", f.path, f.layer, importPath)
			}
		}
	}
}

// Modules reach each other only through adapter/out bridges, so the owner of
// a store stays its only writer.
func TestCrossModuleCallsGoThroughBridges(t *testing.T) {
	t.Parallel()
	for _, f := range moduleFiles(t) {
		for _, importPath := range f.imports {
			if !strings.HasPrefix(importPath, modulesPrefix) || sameModule(f.module, importPath) {
				continue
			}
			if f.layer != "adapter/out" {
				t.Fatalf("%s (%s) imports module %s directly; add an adapter/out bridge", f.path, f.layer, moduleName(importPath))
			}
		}
	}
}

// Domain rules, dtos and ports stay free of drivers and frameworks.
func TestInnerLayersUseOnlyStdlibAndPlatform(t *testing.T) {
	t.Parallel()
	inner := map[string]bool{"domain": true, "dto": true, "port/in": true, "port/out": true}
	for _, f := range moduleFiles(t) {
		if !inner[f.layer] {
			continue
		}
		for _, importPath := range f.imports {
			if strings.HasPrefix(importPath, "scrollkitty/") {
				continue
			}
			if first := strings.SplitN(importPath, "/", 2)[0]; strings.Contains(first, ".") {
				t.Fatalf("%s (%s) imports third-party %s", f.path, f.layer, importPath)
			}
		}
	}
}

func TestRulesRejectKnownViolations(t *testing.T) {
	t.Parallel()
	cases := []struct {
		module, layer, importPath string
	}{
		{"narrative", "service", modulesPrefix + "health/service"},
		{"usage", "domain", modulesPrefix + "usage/adapter/out"},
		{"usage", "adapter/in", modulesPrefix + "usage/service"},
		{"timeline", "service", modulesPrefix + "timeline/usecase"},
	}
	for _, tc := range cases {
		if !violatesLayerRule(tc.module, tc.layer, tc.importPath) {
			t.Fatalf("expected %s %s importing %s to be rejected", tc.module, tc.layer, tc.importPath)
		}
	}
	if violatesLayerRule("narrative", "adapter/out", modulesPrefix+"health/port/in") {
		t.Fatalf("bridges may import another module's port/in")
	}
}

func moduleName(path string) string {
	parts := strings.Split(path, "/")
	for i := 0; i < len(parts)-1; i++ {
		if parts[i] == "modules" && i+1 < len(parts) {
			return parts[i+1]
		}
	}
	return ""
}

func detectLayer(path string) string {
	for _, layer := range []string{"adapter/in", "adapter/out", "usecase", "service", "domain", "port/in", "port/out", "dto"} {
		if strings.Contains(path, "/"+layer+"/") {
			return layer
		}
	}
	return ""
}

func sameModule(module, importPath string) bool {
	return strings.HasPrefix(importPath, modulesPrefix+module+"/")
}

func isPortIn(path string) bool {
	return strings.Contains(path, "/port/in/") || strings.HasSuffix(path, "/port/in")
}

func isDTO(path string) bool {
	return strings.Contains(path, "/dto/") || strings.HasSuffix(path, "/dto")
}

func violatesLayerRule(module, layer, importPath string) bool {
	if !sameModule(module, importPath) {
		if strings.Contains(importPath, "/service") || strings.Contains(importPath, "/adapter/") || strings.Contains(importPath, "/usecase") {
			return true
		}
		if isPortIn(importPath) || isDTO(importPath) {
			return false
		}
	}

	switch layer {
	case "adapter/in":
		return !isPortIn(importPath) && !isDTO(importPath)
	case "usecase":
		return strings.Contains(importPath, "/adapter/")
	case "service":
		return strings.Contains(importPath, "/adapter/") || strings.Contains(importPath, "/usecase")
	case "domain":
		return strings.Contains(importPath, "/adapter/") || strings.Contains(importPath, "/usecase") || strings.Contains(importPath, "/service")
	default:
		return false
	}
}
