package affiliation

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/coolbeans/sejmtrans/pkg/logging"
	"github.com/coolbeans/sejmtrans/pkg/types"
)

// DefaultRegistryPath is where the registry resource lives relative to the
// working directory.
var DefaultRegistryPath = filepath.Join("resources", "political-affiliation", "sejm.json")

// ErrInvalidRegistry is returned when the registry file cannot be interpreted.
var ErrInvalidRegistry = errors.New("invalid affiliation registry")

// registryFile is the top-level layout of the registry JSON resource.
type registryFile struct {
	Deputies []*Person `json:"poslowie"`
}

// Registry holds the membership timelines of all known deputies keyed by
// canonical name.
type Registry struct {
	persons []*Person
	byName  map[string]*Person
	source  string
	logger  *zap.Logger
	today   func() types.Date
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger used for load summaries and duplicate warnings.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Registry) {
		r.logger = logging.OrNop(logger)
	}
}

// WithClock overrides the notion of "today" used by Count.
func WithClock(today func() types.Date) Option {
	return func(r *Registry) {
		r.today = today
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		byName: make(map[string]*Person),
		logger: zap.NewNop(),
		today:  types.Today,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// LoadRegistry reads the registry from a JSON file. Missing or malformed files
// are returned as errors; callers treat them as fatal.
func LoadRegistry(path string, opts ...Option) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open registry")
	}
	defer f.Close()

	r, err := ParseRegistry(f, opts...)
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", path)
	}
	if abs, err := filepath.Abs(path); err == nil {
		r.source = abs
	} else {
		r.source = path
	}

	r.logger.Info("Loaded affiliation registry",
		zap.String("path", r.source),
		zap.Int("persons", r.Count(false)),
		zap.Int("active", r.Count(true)),
	)
	return r, nil
}

// ParseRegistry reads the registry JSON from reader.
func ParseRegistry(reader io.Reader, opts ...Option) (*Registry, error) {
	var file registryFile
	if err := json.NewDecoder(reader).Decode(&file); err != nil {
		if errors.Is(err, ErrInvalidRegistry) {
			return nil, err
		}
		return nil, errors.Wrap(ErrInvalidRegistry, err.Error())
	}
	if file.Deputies == nil {
		return nil, errors.Wrap(ErrInvalidRegistry, `missing "poslowie" list`)
	}

	r := NewRegistry(opts...)
	for _, p := range file.Deputies {
		if p == nil {
			return nil, errors.Wrap(ErrInvalidRegistry, "null registry entry")
		}
		r.Add(p)
	}
	return r, nil
}

// Source returns the absolute path the registry was loaded from, if any.
func (r *Registry) Source() string {
	return r.source
}

// Add inserts a person. If the canonical name is already registered the
// existing entry is kept, a warning is logged and false is returned.
func (r *Registry) Add(p *Person) bool {
	name := p.Name()
	if _, exists := r.byName[name]; exists {
		r.logger.Warn("Duplicate name in affiliation registry, keeping first entry",
			zap.String("name", name),
		)
		return false
	}
	r.byName[name] = p
	r.persons = append(r.persons, p)
	return true
}

// GetByName looks up a person by canonical name.
func (r *Registry) GetByName(name string) *Person {
	return r.byName[name]
}

// GetByFirstAndSurname looks up a person by first name and surname.
func (r *Registry) GetByFirstAndSurname(firstName, surname string) *Person {
	return r.GetByName(CanonicalName(firstName, surname))
}

// Count returns the number of persons, optionally only those serving today.
func (r *Registry) Count(onlyActive bool) int {
	if !onlyActive {
		return len(r.persons)
	}
	today := r.today()
	count := 0
	for _, p := range r.persons {
		if p.IsActiveAt(today) {
			count++
		}
	}
	return count
}

// Persons returns all persons in insertion order.
func (r *Registry) Persons() []*Person {
	out := make([]*Person, len(r.persons))
	copy(out, r.persons)
	return out
}

// Names returns all canonical names in insertion order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.persons))
	for i, p := range r.persons {
		names[i] = p.Name()
	}
	return names
}

// WriteJSON writes the registry in its resource layout, persons sorted by
// canonical name, with unescaped non-ASCII characters.
func (r *Registry) WriteJSON(w io.Writer) error {
	persons := r.Persons()
	sort.SliceStable(persons, func(i, j int) bool {
		return persons[i].Name() < persons[j].Name()
	})

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(registryFile{Deputies: persons}); err != nil {
		return errors.Wrap(err, "encode registry")
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// Save writes the registry to path.
func (r *Registry) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(err, "create registry directory")
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create registry file")
	}
	if err := r.WriteJSON(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
