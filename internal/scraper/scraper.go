package scraper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dyndash/combat-provider/internal/domain"
	"github.com/dyndash/combat-provider/internal/schema"
	"github.com/dyndash/combat-provider/internal/store"
	"github.com/dyndash/combat-provider/pkg/log"
	"github.com/dyndash/combat-provider/pkg/storage"
)

// Seed file names inside Config.DataDir.
const (
	TypesFile   = "types.json"
	SourcesFile = "sources.json"
	DataFile    = "data.json"
)

// DefaultDieID names the die of the generated dice source.
const DefaultDieID = "0000000_D?"

// Toggle endpoints advertised in document _meta.
const (
	PartyToggleEndpoint     = "/party/toggle"
	EncounterToggleEndpoint = "/encounter/toggle"
)

const imageURLExpiry = 7 * 24 * time.Hour

// Target receives what a scrape produced.
type Target interface {
	RegisterDataTypes(types map[string]domain.DataType)
	ReplaceCategory(ctx context.Context, category domain.Category, entries []store.Entry) error
}

type Config struct {
	DataDir          string
	PartyDir         string
	EncounterDir     string
	PartyBonuses     []int
	EncounterBonuses []int
	DiceSource       string
	// Connection is advertised on every scraped source.
	Connection domain.Connection
	Debounce   time.Duration
}

// Scraper loads seed files and markdown rosters into the store.
type Scraper struct {
	config Config
	assets storage.Storage
	target Target

	// runMu serializes runs so two loads of one category cannot interleave.
	runMu sync.Mutex
}

func New(cfg Config, assets storage.Storage, target Target) *Scraper {
	return &Scraper{config: cfg, assets: assets, target: target}
}

// ParseCategory maps a category name onto a Category.
func ParseCategory(name string) (domain.Category, error) {
	switch c := domain.Category(name); c {
	case domain.CategoryStatic, domain.CategoryParty, domain.CategoryEncounter:
		return c, nil
	default:
		return "", fmt.Errorf("%w: unknown category %q", domain.ErrInvalidRequest, name)
	}
}

// RunAll loads every category. Failures are logged and leave the category empty.
func (s *Scraper) RunAll(ctx context.Context) {
	for _, c := range []domain.Category{domain.CategoryStatic, domain.CategoryParty, domain.CategoryEncounter} {
		if err := s.Run(ctx, c); err != nil {
			l := log.Ctx(ctx)
			l.Warn().Err(err).Str(log.FieldCategory, string(c)).Msg("category loaded with errors")
		}
	}
}

// Dispatch runs a category in the background.
func (s *Scraper) Dispatch(ctx context.Context, category domain.Category) {
	ctx = context.WithoutCancel(ctx)
	go func() {
		if err := s.Run(ctx, category); err != nil {
			l := log.Ctx(ctx)
			l.Warn().Err(err).Str(log.FieldCategory, string(category)).Msg("category loaded with errors")
		}
	}()
}

// Run scrapes one category and replaces it in the target. Whatever could be
// loaded is installed even when err is non-nil.
func (s *Scraper) Run(ctx context.Context, category domain.Category) error {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	start := time.Now()
	var (
		entries []store.Entry
		err     error
	)
	switch category {
	case domain.CategoryStatic:
		var types map[string]domain.DataType
		types, entries, err = s.LoadStatic(ctx)
		s.target.RegisterDataTypes(types)
	case domain.CategoryParty:
		entries, err = s.ScrapeParties(ctx)
	case domain.CategoryEncounter:
		entries, err = s.ScrapeEncounters(ctx)
	default:
		return fmt.Errorf("%w: unknown category %q", domain.ErrInvalidRequest, category)
	}

	if replaceErr := s.target.ReplaceCategory(ctx, category, entries); replaceErr != nil {
		return errors.Join(err, replaceErr)
	}

	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldCategory, string(category)).
		Int("sources", len(entries)).
		Dur("took", time.Since(start)).
		Msg("category loaded")
	return err
}

// LoadStatic reads the seed files. Missing files count as empty. Documents
// that fail their data type schema are dropped. A dice source is generated
// when no seeded source declares one.
func (s *Scraper) LoadStatic(ctx context.Context) (map[string]domain.DataType, []store.Entry, error) {
	l := log.Ctx(ctx)
	var errs []error

	types := domain.BuiltinDataTypes()
	var seededTypes map[string]domain.DataType
	if err := readJSON(filepath.Join(s.config.DataDir, TypesFile), &seededTypes); err != nil {
		errs = append(errs, err)
	}
	for name, t := range seededTypes {
		if t.Name == "" {
			t.Name = name
		}
		types[name] = t
	}

	registry, err := schema.Compile(types)
	if err != nil {
		errs = append(errs, err)
		registry, _ = schema.Compile(nil)
	}

	var sources map[string]domain.Source
	if err := readJSON(filepath.Join(s.config.DataDir, SourcesFile), &sources); err != nil {
		errs = append(errs, err)
	}
	var data map[string]json.RawMessage
	if err := readJSON(filepath.Join(s.config.DataDir, DataFile), &data); err != nil {
		errs = append(errs, err)
	}

	keys := make([]string, 0, len(sources))
	for key := range sources {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	hasDice := false
	entries := make([]store.Entry, 0, len(keys)+1)
	for _, key := range keys {
		src := sources[key]
		if src.HasDataType(domain.DataTypeDice) {
			hasDice = true
		}
		entry := store.Entry{Key: key, Source: src}

		raw, ok := data[key]
		if ok {
			doc, err := decodeDocument(src, raw, registry)
			if err != nil {
				l.Warn().Err(err).Str(log.FieldSource, key).Msg("seed document dropped")
			} else {
				entry.Document = doc
			}
		}
		entries = append(entries, entry)
	}

	if !hasDice && s.config.DiceSource != "" {
		entries = append(entries, s.defaultDiceEntry())
	}
	return types, entries, errors.Join(errs...)
}

func (s *Scraper) defaultDiceEntry() store.Entry {
	return store.Entry{
		Key: s.config.DiceSource,
		Source: domain.Source{
			Name:        "Simulated Dice",
			Information: "A digital die that can be cycled, rolled and undone.",
			Explanation: "Post to /dice/cycle, /dice/roll or /dice/undo with the die id to change it.",
			DataTypes:   []string{domain.DataTypeDice},
			Connection:  s.config.Connection,
		},
		Document: domain.DiceSet{DefaultDieID: domain.NewDie("Digital Die", domain.DieUnknown)},
	}
}

// decodeDocument validates raw against the source's data types and decodes
// it into the matching document kind.
func decodeDocument(src domain.Source, raw json.RawMessage, registry *schema.Registry) (domain.Document, error) {
	if err := registry.Validate(src.DataTypes, raw); err != nil {
		return nil, err
	}

	var doc interface {
		domain.Document
		json.Unmarshaler
	}
	switch {
	case src.HasDataType(domain.DataTypeDice):
		doc = &domain.DiceSet{}
	case src.HasDataType(domain.DataTypeParty):
		doc = &domain.Party{}
	case src.HasDataType(domain.DataTypeEncounter):
		doc = &domain.Encounter{}
	default:
		return domain.RawDocument(append([]byte(nil), raw...)), nil
	}
	if err := json.Unmarshal(raw, doc); err != nil {
		return nil, err
	}
	if set, ok := doc.(*domain.DiceSet); ok {
		return *set, nil
	}
	return doc, nil
}

// ScrapeParties reads one party per sub-directory of PartyDir and one member
// per markdown file inside it.
func (s *Scraper) ScrapeParties(ctx context.Context) ([]store.Entry, error) {
	l := log.Ctx(ctx)

	dirs, err := os.ReadDir(s.config.PartyDir)
	if err != nil {
		return nil, fmt.Errorf("read party dir: %w", err)
	}

	var entries []store.Entry
	for _, dir := range dirs {
		if !dir.IsDir() || strings.HasPrefix(dir.Name(), ".") {
			continue
		}
		partyDir := filepath.Join(s.config.PartyDir, dir.Name())
		files, err := markdownFiles(partyDir)
		if err != nil {
			l.Warn().Err(err).Str("dir", partyDir).Msg("party skipped")
			continue
		}

		party := domain.NewParty(PartyToggleEndpoint)
		for _, file := range files {
			name := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
			member, err := s.readMember(ctx, dir.Name(), file)
			if err != nil {
				l.Warn().Err(err).Str("file", file).Msg("party member skipped")
				continue
			}
			party.AddMember(name, member)
		}

		key := string(domain.CategoryParty) + "/" + dir.Name()
		entries = append(entries, store.Entry{
			Key: key,
			Source: domain.Source{
				Name:        dir.Name(),
				Information: fmt.Sprintf("Party %q with %d members.", dir.Name(), len(party.Members)),
				Explanation: "Post to " + PartyToggleEndpoint + " to toggle a member's bonuses.",
				DataTypes:   []string{domain.DataTypeParty},
				Connection:  s.config.Connection,
			},
			Document: party,
		})
	}
	return entries, nil
}

func (s *Scraper) readMember(ctx context.Context, party, file string) (*domain.Member, error) {
	content, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	var fm MemberFrontMatter
	if err := decodeFrontMatter(content, &fm); err != nil {
		return nil, err
	}

	bonuses := make([]int, 0, len(s.config.PartyBonuses)+len(fm.Bonuses))
	bonuses = append(bonuses, s.config.PartyBonuses...)
	bonuses = append(bonuses, fm.Bonuses...)

	member := &domain.Member{
		BaseAC:          *fm.BaseAC,
		Bonuses:         bonuses,
		ExternalBonuses: fm.ExternalBonuses,
	}
	if fm.Image != "" {
		link, err := s.copyImage(ctx, party, filepath.Join(filepath.Dir(file), fm.Image))
		if err != nil {
			l := log.Ctx(ctx)
			l.Warn().Err(err).Str("file", file).Msg("member image not copied")
		} else {
			member.ImageLink = link
		}
	}
	return member, nil
}

// copyImage stores a portrait under party/<party>/<file> and returns its URL.
func (s *Scraper) copyImage(ctx context.Context, party, path string) (string, error) {
	if s.assets == nil {
		return "", errors.New("no asset store configured")
	}
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", err
	}

	key := strings.Join([]string{string(domain.CategoryParty), party, filepath.Base(path)}, "/")
	contentType := mime.TypeByExtension(filepath.Ext(path))
	if err := s.assets.Write(ctx, key, f, info.Size(), contentType); err != nil {
		return "", err
	}
	return s.assets.GetURL(ctx, key, imageURLExpiry)
}

// ScrapeEncounters reads one encounter per markdown file of EncounterDir.
func (s *Scraper) ScrapeEncounters(ctx context.Context) ([]store.Entry, error) {
	l := log.Ctx(ctx)

	files, err := markdownFiles(s.config.EncounterDir)
	if err != nil {
		return nil, fmt.Errorf("read encounter dir: %w", err)
	}

	var entries []store.Entry
	for _, file := range files {
		name := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
		encounter, err := s.readEncounter(file)
		if err != nil {
			l.Warn().Err(err).Str("file", file).Msg("encounter skipped")
			continue
		}

		key := string(domain.CategoryEncounter) + "/" + name
		entries = append(entries, store.Entry{
			Key: key,
			Source: domain.Source{
				Name:        name,
				Information: fmt.Sprintf("Encounter %q with %d statblocks.", name, len(encounter.Statblocks)),
				Explanation: "Post to " + EncounterToggleEndpoint + " to change bonuses, advantage or the active statblock.",
				DataTypes:   []string{domain.DataTypeEncounter},
				Connection:  s.config.Connection,
			},
			Document: encounter,
		})
	}
	return entries, nil
}

func (s *Scraper) readEncounter(file string) (*domain.Encounter, error) {
	content, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	var fm EncounterFrontMatter
	if err := decodeFrontMatter(content, &fm); err != nil {
		return nil, err
	}

	bonuses := make([]int, 0, len(s.config.EncounterBonuses)+len(fm.Bonuses))
	bonuses = append(bonuses, s.config.EncounterBonuses...)
	bonuses = append(bonuses, fm.Bonuses...)

	encounter := domain.NewEncounter(EncounterToggleEndpoint, bonuses)
	for id, sb := range fm.Statblocks {
		encounter.Statblocks[id] = domain.Statblock{AttackBonus: *sb.AttackBonus}
	}
	return encounter, nil
}

func markdownFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".md") {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	return files, nil
}

// readJSON decodes path into out. A missing file leaves out untouched.
func readJSON(path string, out any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return nil
}
