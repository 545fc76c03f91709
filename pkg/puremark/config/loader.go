package config

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/cognicore/puremark/pkg/puremark/internalerr"
	"github.com/cognicore/puremark/pkg/puremark/kb"
)

// Loader reads the registry files and builds a knowledge base.
type Loader struct {
	// Name is the config name; empty means kb.DefaultName.
	Name string
	// Dir overrides registries with files from a directory. Files missing
	// from Dir fall back to the embedded copies.
	Dir string
	// FS takes precedence over Dir when set.
	FS fs.FS
}

// Load reads all registry files and returns a validated knowledge base.
func (l *Loader) Load() (*kb.KnowledgeBase, error) {
	files, err := l.Files()
	if err != nil {
		return nil, err
	}
	return Build(l.name(), files)
}

// Files returns the raw bytes of every registry file, keyed by file name.
func (l *Loader) Files() (map[string][]byte, error) {
	src := l.FS
	if src == nil && l.Dir != "" {
		src = os.DirFS(l.Dir)
	}
	embedded := kb.Embedded()

	files := make(map[string][]byte, len(kb.Files))
	for _, name := range kb.Files {
		var data []byte
		var err error
		if src != nil {
			data, err = fs.ReadFile(src, name)
			if errors.Is(err, fs.ErrNotExist) {
				data, err = fs.ReadFile(embedded, name)
			}
		} else {
			data, err = fs.ReadFile(embedded, name)
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		files[name] = data
	}
	return files, nil
}

func (l *Loader) name() string {
	if l.Name == "" {
		return kb.DefaultName
	}
	return l.Name
}

// Version hashes registry files in kb.Files order.
func Version(files map[string][]byte) string {
	h := sha256.New()
	for _, name := range kb.Files {
		h.Write([]byte(name))
		h.Write([]byte{0})
		h.Write(files[name])
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))[:12]
}

// Build parses registry bytes into a validated knowledge base. It is used
// both by Loader and when restoring a stored snapshot.
func Build(name string, files map[string][]byte) (*kb.KnowledgeBase, error) {
	for _, f := range kb.Files {
		if _, ok := files[f]; !ok {
			return nil, fmt.Errorf("%w: registry %s missing", internalerr.ErrInvalidConfig, f)
		}
	}

	k := &kb.KnowledgeBase{Name: name, Version: Version(files)}
	var err error

	if k.ENumbers, err = parseENumbers(files["enumbers.yaml"]); err != nil {
		return nil, fmt.Errorf("load e-numbers: %w", err)
	}
	if k.Alcohol, err = parseAlcohol(files["alcohol.yaml"]); err != nil {
		return nil, fmt.Errorf("load alcohol: %w", err)
	}
	if k.Animal, err = parseAnimal(files["animal.yaml"]); err != nil {
		return nil, fmt.Errorf("load animal: %w", err)
	}
	if k.Certification, err = parseCertifiers(files["certifiers.yaml"]); err != nil {
		return nil, fmt.Errorf("load certifiers: %w", err)
	}
	if k.Plants, err = parsePlants(files["plants.yaml"]); err != nil {
		return nil, fmt.Errorf("load plants: %w", err)
	}
	if k.Kosher, err = parseKosher(files["kosher.yaml"]); err != nil {
		return nil, fmt.Errorf("load kosher: %w", err)
	}
	if k.Diets, err = parseDiets(files["diets.yaml"]); err != nil {
		return nil, fmt.Errorf("load diets: %w", err)
	}
	if k.Allergens, err = parseAllergens(files["allergens.yaml"]); err != nil {
		return nil, fmt.Errorf("load allergens: %w", err)
	}
	if k.Zones, err = parseZones(files["zones.yaml"]); err != nil {
		return nil, fmt.Errorf("load zones: %w", err)
	}
	if k.Sources, err = parseSources(files["sources.yaml"]); err != nil {
		return nil, fmt.Errorf("load sources: %w", err)
	}

	if err := crossCheck(k); err != nil {
		return nil, err
	}
	if err := k.Validate(); err != nil {
		return nil, fmt.Errorf("validate %s: %w", name, err)
	}
	return k, nil
}

// crossCheck verifies that source markers only name sources the animal
// registry knows how to judge.
func crossCheck(k *kb.KnowledgeBase) error {
	for fam, markers := range k.Sources.Families {
		rule, ok := k.Animal.Family(fam)
		if !ok {
			return fmt.Errorf("%w: source markers for unknown family %q", internalerr.ErrInvalidConfig, fam)
		}
		for _, s := range markers.Sources {
			if _, ok := rule.Source(s.Source); !ok {
				return fmt.Errorf("%w: family %q has no source %q", internalerr.ErrInvalidConfig, fam, s.Source)
			}
		}
	}
	for _, s := range k.Sources.Lecithin.Sources {
		switch s.Source {
		case "sunflower", "soy", "rapeseed", "egg":
		default:
			return fmt.Errorf("%w: unknown lecithin source %q", internalerr.ErrInvalidConfig, s.Source)
		}
	}
	return nil
}

// Shared returns the knowledge base for l's config name from the
// process-wide cache, loading it on first use.
func Shared(l *Loader) (*kb.KnowledgeBase, error) {
	return kb.Shared().Get(l.name(), l.Load)
}

// Default returns the shared knowledge base built from the embedded
// registries.
func Default() (*kb.KnowledgeBase, error) {
	return Shared(&Loader{})
}
