package policy

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"
	"sync"

	"github.com/davidahmann/govgate/internal/crypto"
	"golang.org/x/text/cases"
	"gopkg.in/yaml.v3"
)

//go:embed tables.yaml
var defaultTablesYAML []byte

var ErrInvalidTables = errors.New("invalid governance tables")

type LoadedTables struct {
	Tables Tables
	Hash   string
	Bytes  []byte
}

var defaultTables = sync.OnceValues(func() (LoadedTables, error) {
	return Parse(defaultTablesYAML)
})

// Default returns the embedded tables. They are parsed once per process.
func Default() (LoadedTables, error) {
	return defaultTables()
}

// LoadTables loads tables from path, or the embedded defaults when path is empty.
func LoadTables(path string) (LoadedTables, error) {
	if strings.TrimSpace(path) == "" {
		return Default()
	}
	// #nosec G304 -- path comes from operator-configured tables path.
	data, err := os.ReadFile(path)
	if err != nil {
		return LoadedTables{}, err
	}
	return Parse(data)
}

// Parse decodes, validates and freezes tables, hashing the raw bytes.
func Parse(data []byte) (LoadedTables, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var t Tables
	if err := dec.Decode(&t); err != nil {
		return LoadedTables{}, fmt.Errorf("%w: %v", ErrInvalidTables, err)
	}
	if err := t.freeze(); err != nil {
		return LoadedTables{}, err
	}
	return LoadedTables{
		Tables: t,
		Hash:   crypto.DigestWithPrefix(data),
		Bytes:  append([]byte(nil), data...),
	}, nil
}

func (t *Tables) freeze() error {
	if err := t.Validate(); err != nil {
		return err
	}
	for i := range t.Categories {
		t.Categories[i].weightBP = int(math.Round(t.Categories[i].Weight * 10000))
	}
	t.Keywords = Keywords{
		ConflictLocations:       foldAll(t.Keywords.ConflictLocations),
		SensitiveCategories:     foldAll(t.Keywords.SensitiveCategories),
		SanctionedJurisdictions: foldAll(t.Keywords.SanctionedJurisdictions),
		RegulatedCategories:     foldAll(t.Keywords.RegulatedCategories),
	}
	modules := make(map[string][]string, len(t.Permissions.Modules))
	for name, ops := range t.Permissions.Modules {
		modules[strings.ToLower(strings.TrimSpace(name))] = lowerAll(ops)
	}
	t.Permissions = PermissionTables{
		Modules:         modules,
		WriteOperations: lowerAll(t.Permissions.WriteOperations),
		AdminOperations: lowerAll(t.Permissions.AdminOperations),
	}
	return nil
}

// Validate checks structural consistency of the tables.
func (t Tables) Validate() error {
	required := []string{CategoryFinancial, CategoryOperational, CategoryReputational, CategoryCompliance, CategoryEthical}
	if len(t.Categories) != len(required) {
		return fmt.Errorf("%w: expected %d categories, got %d", ErrInvalidTables, len(required), len(t.Categories))
	}
	for _, name := range required {
		c, ok := t.Category(name)
		if !ok {
			return fmt.Errorf("%w: category %q is missing", ErrInvalidTables, name)
		}
		if c.Weight <= 0 || c.Weight > 1 {
			return fmt.Errorf("%w: category %q weight must be in (0,1]", ErrInvalidTables, name)
		}
	}

	l := t.Levels
	if !(l.Critical > l.High && l.High > l.Medium && l.Medium > 0 && l.Critical <= 100) {
		return fmt.Errorf("%w: levels must satisfy 0 < medium < high < critical <= 100", ErrInvalidTables)
	}
	if l.Approval <= 0 || l.Approval > 100 {
		return fmt.Errorf("%w: levels.approval must be in (0,100]", ErrInvalidTables)
	}

	for _, b := range t.Boundaries {
		if b.ID == "" || b.Rule == "" {
			return fmt.Errorf("%w: boundary rules need id and rule", ErrInvalidTables)
		}
		switch b.Status {
		case "ACTIVE", "AT_RISK", "MONITOR":
		default:
			return fmt.Errorf("%w: boundary %s has unknown status %q", ErrInvalidTables, b.ID, b.Status)
		}
		if b.Source != BoundarySourceMean {
			if _, ok := t.Category(b.Source); !ok {
				return fmt.Errorf("%w: boundary %s has unknown source %q", ErrInvalidTables, b.ID, b.Source)
			}
		}
	}

	if len(t.Permissions.Modules) == 0 {
		return fmt.Errorf("%w: permissions.modules is required", ErrInvalidTables)
	}
	return nil
}

func foldAll(values []string) []string {
	out := make([]string, 0, len(values))
	caser := cases.Fold()
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		out = append(out, caser.String(v))
	}
	return out
}

func lowerAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.ToLower(strings.TrimSpace(v)); v != "" {
			out = append(out, v)
		}
	}
	return out
}
