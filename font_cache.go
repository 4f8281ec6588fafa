package golabel

import (
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
)

// FontSizeCompensation is the fixed multiplicative scale applied to every
// requested font size before loading. The server-side rasterizer's output is
// systematically smaller, at a given point size, than the browser-based
// design tool that authors the templates; scaling by 1.5 makes rendered
// labels visually match what the template author saw. This is a deliberate,
// documented correction factor, not an approximation.
const FontSizeCompensation = 1.5

// fontKey uniquely identifies a cached face by rounded size, weight and family.
type fontKey struct {
	size   int
	weight string
	family string
}

// FontHandle is a resolved font: the drawable face plus the metadata needed
// to verify resolution behavior without pixel inspection.
type FontHandle struct {
	Face          font.Face
	Family        string
	Weight        string
	RequestedSize float64
	LoadedSize    float64 // RequestedSize * FontSizeCompensation
	Path          string  // font file the face came from; empty for the builtin
	Builtin       bool    // true when the embedded Go font was substituted
}

// FontCache maps logical font requests (family, weight, size) to concrete
// font faces. For each family it walks an ordered list of platform font file
// candidates, preferring bold-variant filenames for bold weight, and falls
// back to the embedded Go fonts when nothing is installed. Handles are cached
// for the lifetime of one renderer instance; a single batch may request the
// same (size, weight, family) hundreds of times and font files are expensive
// to load and parse.
type FontCache struct {
	mu      sync.Mutex
	dirs    []string
	parsed  map[string]*opentype.Font // font file path -> parsed font
	handles map[fontKey]*FontHandle
	logger  *zap.Logger

	// Fonts from the extra directories, registered under their internal
	// family and full names so templates can reference them by name rather
	// than by platform filename convention. Populated on first use.
	extraDirs  []string
	registered map[string]registeredFont
	scanned    bool

	builtinRegular *opentype.Font
	builtinBold    *opentype.Font
}

type registeredFont struct {
	font *opentype.Font
	path string
}

// NewFontCache creates a FontCache that searches the OS font directories
// plus any extra directories given.
func NewFontCache(logger *zap.Logger, extraDirs ...string) *FontCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FontCache{
		dirs:       append(systemFontDirs(), extraDirs...),
		parsed:     make(map[string]*opentype.Font),
		handles:    make(map[fontKey]*FontHandle),
		logger:     logger,
		extraDirs:  extraDirs,
		registered: make(map[string]registeredFont),
	}
}

// Get resolves a logical font request to a FontHandle. It never fails: when
// no matching font file exists in any search directory the embedded Go font
// is substituted and the handle is marked Builtin.
func (fc *FontCache) Get(size float64, weight, family string) *FontHandle {
	if size <= 0 {
		size = 16
	}
	weight = normalizeWeight(weight)
	famKey := strings.ToLower(strings.TrimSpace(family))
	if famKey == "" {
		famKey = "arial"
	}
	key := fontKey{size: int(math.Round(size)), weight: weight, family: famKey}

	fc.mu.Lock()
	defer fc.mu.Unlock()

	if h, ok := fc.handles[key]; ok {
		return h
	}

	loadedSize := size * FontSizeCompensation
	h := &FontHandle{
		Family:        family,
		Weight:        weight,
		RequestedSize: size,
		LoadedSize:    loadedSize,
	}

	f, path := fc.lookupRegistered(famKey, weight == "bold")
	if f == nil {
		f, path = fc.findFontFile(famKey, weight == "bold")
	}
	if f == nil {
		f = fc.builtinFont(weight == "bold")
		h.Builtin = true
		fc.logger.Warn("no font file found, using builtin font",
			zap.String("family", family),
			zap.String("weight", weight))
	}
	h.Path = path

	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    loadedSize,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		// Corrupt system font: retry with the builtin, which always parses.
		fc.logger.Warn("font face creation failed, using builtin font",
			zap.String("family", family), zap.Error(err))
		h.Builtin = true
		h.Path = ""
		face, _ = opentype.NewFace(fc.builtinFont(weight == "bold"), &opentype.FaceOptions{
			Size:    loadedSize,
			DPI:     72,
			Hinting: font.HintingFull,
		})
	}
	h.Face = face

	fc.handles[key] = h
	return h
}

// lookupRegistered resolves a family against the fonts registered from the
// extra directories by their internal names. Bold weight first tries the
// full name with a "bold" suffix (e.g. "roboto bold"), then the bare family.
func (fc *FontCache) lookupRegistered(famKey string, bold bool) (*opentype.Font, string) {
	if len(fc.extraDirs) == 0 {
		return nil, ""
	}
	if !fc.scanned {
		fc.scanExtraDirs()
		fc.scanned = true
	}
	if bold {
		if rf, ok := fc.registered[famKey+" bold"]; ok {
			return rf.font, rf.path
		}
	}
	if rf, ok := fc.registered[famKey]; ok {
		return rf.font, rf.path
	}
	return nil, ""
}

// scanExtraDirs parses every font file in the extra directories and registers
// each font under its name-table family and full names.
func (fc *FontCache) scanExtraDirs() {
	for _, dir := range fc.extraDirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			ext := strings.ToLower(filepath.Ext(entry.Name()))
			if ext != ".ttf" && ext != ".otf" {
				continue
			}
			path := filepath.Join(dir, entry.Name())
			f := fc.parseFile(path)
			if f == nil {
				continue
			}
			fc.registerByName(f, path)
		}
	}
}

// registerByName registers a parsed font under its name-table family name
// and full name, both lowercased.
func (fc *FontCache) registerByName(f *opentype.Font, path string) {
	if family, err := f.Name(nil, sfnt.NameIDFamily); err == nil && family != "" {
		key := strings.ToLower(family)
		if _, exists := fc.registered[key]; !exists {
			fc.registered[key] = registeredFont{font: f, path: path}
		}
	}
	if full, err := f.Name(nil, sfnt.NameIDFull); err == nil && full != "" {
		key := strings.ToLower(full)
		if _, exists := fc.registered[key]; !exists {
			fc.registered[key] = registeredFont{font: f, path: path}
		}
	}
}

// findFontFile walks the candidate filenames for a family across the search
// directories and parses the first file that exists. Bold weight tries the
// bold-variant filenames before falling back to the regular candidates.
func (fc *FontCache) findFontFile(famKey string, bold bool) (*opentype.Font, string) {
	var names []string
	if bold {
		names = append(names, boldFileCandidates(famKey)...)
	}
	names = append(names, regularFileCandidates(famKey)...)

	for _, name := range names {
		for _, dir := range fc.dirs {
			path := filepath.Join(dir, name)
			if f := fc.parseFile(path); f != nil {
				return f, path
			}
		}
	}
	return nil, ""
}

// maxFontFileSize limits the size of individual font files loaded into memory.
const maxFontFileSize = 20 << 20 // 20 MB

// parseFile loads and parses a font file, caching the parsed font by path.
func (fc *FontCache) parseFile(path string) *opentype.Font {
	if f, ok := fc.parsed[path]; ok {
		return f
	}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() || info.Size() > maxFontFileSize {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	f, err := opentype.Parse(data)
	if err != nil {
		fc.parsed[path] = nil
		return nil
	}
	fc.parsed[path] = f
	return f
}

func (fc *FontCache) builtinFont(bold bool) *opentype.Font {
	if bold {
		if fc.builtinBold == nil {
			fc.builtinBold, _ = opentype.Parse(gobold.TTF)
		}
		return fc.builtinBold
	}
	if fc.builtinRegular == nil {
		fc.builtinRegular, _ = opentype.Parse(goregular.TTF)
	}
	return fc.builtinRegular
}

// normalizeWeight folds the design tool's weight names down to the two
// weights the resolver distinguishes.
func normalizeWeight(weight string) string {
	switch strings.ToLower(strings.TrimSpace(weight)) {
	case "bold", "bolder", "600", "700", "800", "900":
		return "bold"
	default:
		return "normal"
	}
}

// fontFileNames lists regular-weight font filenames per logical family, in
// preference order, covering common Linux, macOS and Windows installs.
var fontFileNames = map[string][]string{
	"arial": {
		"arial.ttf", "Arial.ttf", "Arial Unicode.ttf",
		"liberation/LiberationSans-Regular.ttf", "LiberationSans-Regular.ttf",
		"dejavu/DejaVuSans.ttf", "DejaVuSans.ttf",
	},
	"helvetica": {
		"Helvetica.ttf", "arial.ttf", "Arial.ttf",
		"LiberationSans-Regular.ttf", "DejaVuSans.ttf",
	},
	"times new roman": {
		"times.ttf", "Times New Roman.ttf",
		"liberation/LiberationSerif-Regular.ttf", "LiberationSerif-Regular.ttf",
		"dejavu/DejaVuSerif.ttf", "DejaVuSerif.ttf",
	},
	"courier new": {
		"cour.ttf", "Courier New.ttf",
		"liberation/LiberationMono-Regular.ttf", "LiberationMono-Regular.ttf",
		"dejavu/DejaVuSansMono.ttf", "DejaVuSansMono.ttf",
	},
	"roboto": {
		"Roboto-Regular.ttf", "roboto/Roboto-Regular.ttf", "arial.ttf",
		"LiberationSans-Regular.ttf", "DejaVuSans.ttf",
	},
}

var boldFontFileNames = map[string][]string{
	"arial": {
		"arialbd.ttf", "Arial Bold.ttf", "Arial-Bold.ttf",
		"liberation/LiberationSans-Bold.ttf", "LiberationSans-Bold.ttf",
		"dejavu/DejaVuSans-Bold.ttf", "DejaVuSans-Bold.ttf",
	},
	"helvetica": {
		"Helvetica-Bold.ttf", "arialbd.ttf", "Arial Bold.ttf",
		"LiberationSans-Bold.ttf", "DejaVuSans-Bold.ttf",
	},
	"times new roman": {
		"timesbd.ttf", "Times New Roman Bold.ttf",
		"liberation/LiberationSerif-Bold.ttf", "LiberationSerif-Bold.ttf",
		"dejavu/DejaVuSerif-Bold.ttf", "DejaVuSerif-Bold.ttf",
	},
	"courier new": {
		"courbd.ttf", "Courier New Bold.ttf",
		"liberation/LiberationMono-Bold.ttf", "LiberationMono-Bold.ttf",
		"dejavu/DejaVuSansMono-Bold.ttf", "DejaVuSansMono-Bold.ttf",
	},
	"roboto": {
		"Roboto-Bold.ttf", "roboto/Roboto-Bold.ttf", "arialbd.ttf",
		"LiberationSans-Bold.ttf", "DejaVuSans-Bold.ttf",
	},
}

func regularFileCandidates(famKey string) []string {
	if names, ok := fontFileNames[famKey]; ok {
		return names
	}
	// Unknown family: derive plausible filenames, then fall back to the
	// Arial chain so common installs still resolve something sensible.
	base := titleCase(famKey)
	derived := []string{
		base + "-Regular.ttf", base + ".ttf",
		strings.ToLower(base) + ".ttf",
	}
	return append(derived, fontFileNames["arial"]...)
}

func boldFileCandidates(famKey string) []string {
	if names, ok := boldFontFileNames[famKey]; ok {
		return names
	}
	base := titleCase(famKey)
	derived := []string{
		base + "-Bold.ttf", base + "Bold.ttf",
		strings.ToLower(base) + "bd.ttf",
	}
	return append(derived, boldFontFileNames["arial"]...)
}

// titleCase uppercases the first letter of each space-separated word and
// joins the words, turning "open sans" into "OpenSans".
func titleCase(s string) string {
	var b strings.Builder
	for _, w := range strings.Fields(s) {
		b.WriteString(strings.ToUpper(w[:1]))
		b.WriteString(w[1:])
	}
	return b.String()
}

// systemFontDirs returns OS-specific font directories.
func systemFontDirs() []string {
	switch runtime.GOOS {
	case "windows":
		windir := os.Getenv("WINDIR")
		if windir == "" {
			windir = `C:\Windows`
		}
		localAppData := os.Getenv("LOCALAPPDATA")
		dirs := []string{filepath.Join(windir, "Fonts")}
		if localAppData != "" {
			dirs = append(dirs, filepath.Join(localAppData, "Microsoft", "Windows", "Fonts"))
		}
		return dirs
	case "darwin":
		home, _ := os.UserHomeDir()
		dirs := []string{
			"/System/Library/Fonts",
			"/System/Library/Fonts/Supplemental",
			"/Library/Fonts",
		}
		if home != "" {
			dirs = append(dirs, filepath.Join(home, "Library", "Fonts"))
		}
		return dirs
	default: // linux, freebsd, etc.
		home, _ := os.UserHomeDir()
		dirs := []string{
			"/usr/share/fonts",
			"/usr/share/fonts/truetype",
			"/usr/share/fonts/truetype/dejavu",
			"/usr/share/fonts/truetype/liberation",
			"/usr/local/share/fonts",
		}
		if home != "" {
			dirs = append(dirs, filepath.Join(home, ".local", "share", "fonts"))
			dirs = append(dirs, filepath.Join(home, ".fonts"))
		}
		return dirs
	}
}
