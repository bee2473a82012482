package crs

import (
	"regexp"
	"strings"
	"sync"
)

// Alias maps a human-readable name to an authority code.
type Alias struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

// DefaultAliases is the alias table a new registry starts with.
var DefaultAliases = []Alias{
	{"WGS84", "EPSG:4326"},
	{"NAD83", "EPSG:4269"},
	{"NAD27", "EPSG:4267"},
	{"ETRS89", "EPSG:4258"},
	{"OSGB36", "EPSG:27700"},
	{"Irish Grid", "EPSG:29903"},
	{"Swiss CH1903+", "EPSG:2056"},
	{"RD Netherlands", "EPSG:28992"},
	{"GDA2020", "EPSG:7844"},
	{"GDA94", "EPSG:4283"},
	{"NZGD2000", "EPSG:2193"},
	{"JGD2011", "EPSG:6668"},
	{"Web Mercator", "EPSG:3857"},
	{"Pseudo-Mercator", "EPSG:3857"},
	{"Google", "EPSG:3857"},
}

const definitionCacheSize = 256

// Registry resolves aliases to codes and hands out parsed definitions.
type Registry struct {
	mu      sync.RWMutex
	aliases []Alias
	index   map[string]int

	engine *Engine
	defs   *lruCache[string, *Definition]
}

// NewRegistry returns a registry seeded with DefaultAliases. A nil engine
// gets a fresh one.
func NewRegistry(engine *Engine) *Registry {
	if engine == nil {
		engine = NewEngine()
	}
	r := &Registry{
		index:  make(map[string]int),
		engine: engine,
		defs:   newLRUCache[string, *Definition](definitionCacheSize),
	}
	for _, a := range DefaultAliases {
		r.RegisterAlias(a.Name, a.Code)
	}
	return r
}

// Engine returns the geodesy engine backing the registry.
func (r *Registry) Engine() *Engine { return r.engine }

// Resolve maps an alias to its code. EPSG identifiers and unknown inputs are
// returned unchanged, so Resolve(Resolve(x)) == Resolve(x).
func (r *Registry) Resolve(nameOrCode string) string {
	if isEPSG(nameOrCode) {
		return nameOrCode
	}
	key := strings.ToLower(strings.TrimSpace(nameOrCode))
	r.mu.RLock()
	defer r.mu.RUnlock()
	if i, ok := r.index[key]; ok {
		return r.aliases[i].Code
	}
	return nameOrCode
}

// GetCRS resolves nameOrCode and returns its parsed definition.
func (r *Registry) GetCRS(nameOrCode string) (*Definition, error) {
	id := r.Resolve(nameOrCode)
	if def, ok := r.defs.get(id); ok {
		return def, nil
	}
	def, err := r.engine.Parse(id)
	if err != nil {
		return nil, err
	}
	return r.defs.add(id, def), nil
}

// RegisterAlias adds or overwrites an alias. New aliases keep insertion
// order; overwritten ones keep their position.
func (r *Registry) RegisterAlias(name, code string) {
	key := strings.ToLower(strings.TrimSpace(name))
	r.mu.Lock()
	defer r.mu.Unlock()
	if i, ok := r.index[key]; ok {
		r.aliases[i] = Alias{Name: name, Code: code}
		return
	}
	r.index[key] = len(r.aliases)
	r.aliases = append(r.aliases, Alias{Name: name, Code: code})
}

// ListAliases returns a copy of the alias table.
func (r *Registry) ListAliases() []Alias {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Alias, len(r.aliases))
	copy(out, r.aliases)
	return out
}

// Search returns aliases whose name or code contains keyword, ignoring case.
func (r *Registry) Search(keyword string) []Alias {
	kw := strings.ToLower(keyword)
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []Alias{}
	for _, a := range r.aliases {
		if strings.Contains(strings.ToLower(a.Name), kw) || strings.Contains(strings.ToLower(a.Code), kw) {
			out = append(out, a)
		}
	}
	return out
}

var (
	urnEPSG = regexp.MustCompile(`(?i)^urn:ogc:def:crs:EPSG:[^:]*:(\d+)$`)
	urlEPSG = regexp.MustCompile(`(?i)^https?://www\.opengis\.net/def/crs/EPSG/[^/]+/(\d+)$`)
	crs84   = regexp.MustCompile(`(?i)^(urn:ogc:def:crs:OGC:[^:]*:CRS84|https?://www\.opengis\.net/def/crs/OGC/[^/]+/CRS84|CRS84)$`)
)

// NormalizeIdentifier rewrites OGC URN and URL forms of EPSG codes (and
// CRS84) to "EPSG:n". Anything else is returned trimmed.
func NormalizeIdentifier(s string) string {
	s = strings.TrimSpace(s)
	if m := urnEPSG.FindStringSubmatch(s); m != nil {
		return "EPSG:" + m[1]
	}
	if m := urlEPSG.FindStringSubmatch(s); m != nil {
		return "EPSG:" + m[1]
	}
	if crs84.MatchString(s) {
		return "EPSG:4326"
	}
	if isEPSG(s) {
		return "EPSG:" + strings.TrimSpace(s[len("EPSG:"):])
	}
	return s
}
