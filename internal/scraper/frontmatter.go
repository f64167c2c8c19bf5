package scraper

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var errNoFrontMatter = errors.New("no front matter")

var frontMatterDelim = []byte("---")

var validate = validator.New()

// MemberFrontMatter is the header of a party member file.
type MemberFrontMatter struct {
	BaseAC          *int           `yaml:"base-ac" validate:"required"`
	Bonuses         []int          `yaml:"bonuses"`
	Image           string         `yaml:"image"`
	ExternalBonuses map[string]int `yaml:"external-bonuses"`
}

// EncounterFrontMatter is the header of an encounter file.
type EncounterFrontMatter struct {
	Bonuses    []int                          `yaml:"bonuses"`
	Statblocks map[string]StatblockFrontMatter `yaml:"statblocks" validate:"dive"`
}

type StatblockFrontMatter struct {
	AttackBonus *int `yaml:"attack-bonus" validate:"required"`
}

// splitFrontMatter returns the YAML between a leading "---" line and the
// next "---" line.
func splitFrontMatter(content []byte) ([]byte, error) {
	content = bytes.TrimPrefix(content, []byte("\ufeff"))
	lines := bytes.SplitAfter(content, []byte("\n"))
	if len(lines) == 0 || !bytes.Equal(bytes.TrimSpace(lines[0]), frontMatterDelim) {
		return nil, errNoFrontMatter
	}

	var header bytes.Buffer
	for _, line := range lines[1:] {
		if bytes.Equal(bytes.TrimSpace(line), frontMatterDelim) {
			return header.Bytes(), nil
		}
		header.Write(line)
	}
	return nil, fmt.Errorf("%w: unterminated header", errNoFrontMatter)
}

// decodeFrontMatter parses and validates the header of a markdown file into out.
func decodeFrontMatter(content []byte, out any) error {
	header, err := splitFrontMatter(content)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(header, out); err != nil {
		return fmt.Errorf("front matter: %w", err)
	}
	if err := validate.Struct(out); err != nil {
		return fmt.Errorf("front matter: %w", err)
	}
	return nil
}
