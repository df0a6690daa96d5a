package architecture_test

import (
	"bufio"
	"errors"
	"fmt"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"testing"
)

// banned maps a layer under internal/ to the internal trees it must not import.
// internal/app and internal/cli do the wiring and may import anything.
var banned = map[string][]string{
	"pkg":           {"domain", "platform", "realtime", "data", "services", "http", "observability"},
	"domain":        {"platform", "realtime", "data", "services", "http", "observability"},
	"platform":      {"domain", "realtime", "data", "services", "http", "observability"},
	"realtime":      {"domain", "platform", "data", "services", "http", "observability"},
	"observability": {"domain", "platform", "realtime", "services", "http"},
	"data":          {"platform", "realtime", "services", "http", "observability"},
	"services":      {"http", "observability"},
	"http":          {"data", "platform"},
}

func TestImportBoundaries(t *testing.T) {
	root, modulePath := moduleRoot(t)
	fset := token.NewFileSet()
	var violations []string

	err := filepath.WalkDir(filepath.Join(root, "internal"), func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, ".go") {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		layer := strings.SplitN(strings.TrimPrefix(rel, "internal/"), "/", 2)[0]
		rules := banned[layer]
		if len(rules) == 0 {
			return nil
		}

		f, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
		if err != nil {
			return err
		}
		for _, spec := range f.Imports {
			imp, err := strconv.Unquote(spec.Path.Value)
			if err != nil {
				continue
			}
			for _, tree := range append(rules, "app", "cli") {
				prefix := modulePath + "/internal/" + tree
				if imp == prefix || strings.HasPrefix(imp, prefix+"/") {
					violations = append(violations, fmt.Sprintf("%s (%s) imports %s", rel, layer, imp))
				}
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("walk internal/: %v", err)
	}
	if len(violations) > 0 {
		sort.Strings(violations)
		t.Fatalf("import boundary violations:\n- %s", strings.Join(violations, "\n- "))
	}
}

func moduleRoot(t *testing.T) (string, string) {
	t.Helper()
	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	for {
		mp, err := readModulePath(filepath.Join(dir, "go.mod"))
		if err == nil {
			return dir, mp
		}
		if !errors.Is(err, fs.ErrNotExist) {
			t.Fatalf("read go.mod: %v", err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatalf("go.mod not found")
		}
		dir = parent
	}
}

func readModulePath(goMod string) (string, error) {
	f, err := os.Open(goMod)
	if err != nil {
		return "", err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if mp, ok := strings.CutPrefix(strings.TrimSpace(sc.Text()), "module "); ok {
			return strings.TrimSpace(mp), nil
		}
	}
	if err := sc.Err(); err != nil {
		return "", err
	}
	return "", fmt.Errorf("no module line in %s", goMod)
}
