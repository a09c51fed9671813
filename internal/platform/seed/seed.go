package seed

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Overland-East-Bay/xprofile-membertype-field/internal/domain"
	"github.com/Overland-East-Bay/xprofile-membertype-field/internal/ports/out/membertypes"
)

const SupportedSchema = "v1"

// File is the YAML shape of a member type seed file.
type File struct {
	SchemaVersion string            `yaml:"schema_version"`
	MemberTypes   []MemberTypeEntry `yaml:"member_types"`
}

type MemberTypeEntry struct {
	Name         string `yaml:"name"`
	Label        string `yaml:"label"`
	SingularName string `yaml:"singular_name"`
	// Inactive entries are stored but not offered or assignable.
	Inactive bool `yaml:"inactive"`
}

// Load parses a seed file and returns its member types in file order.
func Load(path string) ([]domain.MemberType, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(raw)
}

func Parse(raw []byte) ([]domain.MemberType, error) {
	var f File
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse seed: %w", err)
	}
	if f.SchemaVersion == "" {
		f.SchemaVersion = SupportedSchema
	}
	if f.SchemaVersion != SupportedSchema {
		return nil, fmt.Errorf("seed schema_version %q not supported (want %q)", f.SchemaVersion, SupportedSchema)
	}

	out := make([]domain.MemberType, 0, len(f.MemberTypes))
	seen := make(map[domain.MemberTypeName]bool, len(f.MemberTypes))
	for i, e := range f.MemberTypes {
		name := domain.NormalizeMemberTypeName(strings.TrimSpace(e.Name))
		if name == "" {
			return nil, fmt.Errorf("member_types[%d]: name is required", i)
		}
		if seen[name] {
			return nil, fmt.Errorf("member_types[%d]: duplicate name %q", i, name)
		}
		seen[name] = true
		out = append(out, domain.MemberType{
			Name: name,
			Labels: domain.MemberTypeLabels{
				Name:         e.Label,
				SingularName: e.SingularName,
			},
			Active: !e.Inactive,
		})
	}
	return out, nil
}

// Apply registers every member type, skipping ones already registered.
func Apply(ctx context.Context, reg membertypes.Registry, types []domain.MemberType) (registered int, err error) {
	for _, mt := range types {
		if err := reg.Register(ctx, mt); err != nil {
			if errors.Is(err, membertypes.ErrAlreadyExists) {
				continue
			}
			return registered, fmt.Errorf("register %q: %w", mt.Name, err)
		}
		registered++
	}
	return registered, nil
}
