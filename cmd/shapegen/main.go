// Shape authoring tool: inspects the built-in procedural shapes and
// exports them as encoded point clouds plus an alias manifest skeleton.
//
// Usage:
//
//	go run ./cmd/shapegen -list
//	go run ./cmd/shapegen -concept horse -points 2048 -out horse.vxs
//	go run ./cmd/shapegen -all -dir ./authored
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/voxfield/voxfield/shape"
)

func main() {
	list := flag.Bool("list", false, "List built-in concepts with part counts")
	concept := flag.String("concept", "", "Build one concept and write its encoded cloud")
	points := flag.Int("points", 2048, "Point count per exported cloud")
	out := flag.String("out", "", "Output file for -concept (default <concept>.vxs)")
	all := flag.Bool("all", false, "Export every built-in concept")
	dir := flag.String("dir", "authored", "Output directory for -all")

	flag.Parse()

	builders := shape.Builtins()

	switch {
	case *list:
		listBuiltins(builders, *points)
	case *concept != "":
		if err := exportOne(builders, *concept, *points, *out); err != nil {
			log.Fatal(err)
		}
	case *all:
		if err := exportAll(builders, *points, *dir); err != nil {
			log.Fatal(err)
		}
	default:
		flag.Usage()
		os.Exit(2)
	}
}

func sortedConcepts(builders map[string]func(n int) *shape.MorphTarget) []string {
	concepts := make([]string, 0, len(builders))
	for c := range builders {
		concepts = append(concepts, c)
	}
	sort.Strings(concepts)
	return concepts
}

func listBuiltins(builders map[string]func(n int) *shape.MorphTarget, points int) {
	for _, c := range sortedConcepts(builders) {
		m := builders[c](points)
		fmt.Printf("%-10s %5d points  %2d parts\n", c, m.Len(), partCount(m))
	}
}

func exportOne(builders map[string]func(n int) *shape.MorphTarget, concept string, points int, out string) error {
	norm := shape.NormalizeConcept(concept)
	builder, ok := builders[norm]
	if !ok {
		return fmt.Errorf("unknown concept %q, try -list", concept)
	}
	if out == "" {
		out = strings.ReplaceAll(norm, " ", "_") + ".vxs"
	}

	data, err := shape.Encode(builder(points))
	if err != nil {
		return fmt.Errorf("encoding %q: %w", norm, err)
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return err
	}
	fmt.Printf("wrote %s (%d bytes)\n", out, len(data))
	return nil
}

// exportAll writes every built-in cloud plus a manifest skeleton the
// table can load once aliases are filled in.
func exportAll(builders map[string]func(n int) *shape.MorphTarget, points int, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	for _, c := range sortedConcepts(builders) {
		data, err := shape.Encode(builders[c](points))
		if err != nil {
			return fmt.Errorf("encoding %q: %w", c, err)
		}
		path := filepath.Join(dir, strings.ReplaceAll(c, " ", "_")+".vxs")
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return err
		}
		fmt.Printf("wrote %s (%d bytes)\n", path, len(data))
	}

	manifest := struct {
		Aliases map[string]string `yaml:"aliases"`
	}{Aliases: map[string]string{"pony": "horse", "blossom": "flower"}}

	data, err := yaml.Marshal(manifest)
	if err != nil {
		return err
	}
	path := filepath.Join(dir, "manifest.yaml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", path)
	return nil
}

func partCount(m *shape.MorphTarget) int {
	seen := map[int32]struct{}{}
	for _, p := range m.Points {
		seen[p.PartID] = struct{}{}
	}
	return len(seen)
}
