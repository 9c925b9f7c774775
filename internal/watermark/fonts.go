package watermark

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

var fontExts = []string{".ttf", ".otf", ".ttc"}

var (
	regularSuffixes    = []string{"", "-regular", "regular", "-book"}
	boldSuffixes       = []string{"-bold", "bold", "bd", "b"}
	italicSuffixes     = []string{"-italic", "-oblique", "italic", "i"}
	boldItalicSuffixes = []string{"-bolditalic", "-boldoblique", "bolditalic", "bi", "z"}
)

type builtinFont struct {
	once sync.Once
	data []byte
	font *opentype.Font
	err  error
}

func (b *builtinFont) parsed() (*opentype.Font, error) {
	b.once.Do(func() {
		b.font, b.err = opentype.Parse(b.data)
	})
	return b.font, b.err
}

var builtins = [4]*builtinFont{
	{data: goregular.TTF},
	{data: gobold.TTF},
	{data: goitalic.TTF},
	{data: gobolditalic.TTF},
}

func builtinFor(bold, italic bool) *builtinFont {
	i := 0
	if bold {
		i |= 1
	}
	if italic {
		i |= 2
	}
	return builtins[i]
}

// FontLoader resolves family names to font files in a set of directories and
// opens faces. Unresolvable or unparsable fonts fall back to the Go font
// family matching the requested weight and style.
type FontLoader struct {
	dirs []string
	log  logrus.FieldLogger

	mu    sync.Mutex
	index map[string]string
	cache map[string]string
}

func NewFontLoader(dirs []string, log logrus.FieldLogger) *FontLoader {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &FontLoader{
		dirs:  dirs,
		log:   log,
		cache: make(map[string]string),
	}
}

// Face opens a face for the requested font. The caller must Close it. Face
// never fails: the last resort is a fixed 7x13 bitmap face.
func (l *FontLoader) Face(family string, size float64, bold, italic bool) font.Face {
	if size <= 0 {
		size = 24
	}
	opts := &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingFull}
	log := l.log.WithFields(logrus.Fields{"font": family, "size": size, "bold": bold, "italic": italic})

	if family != "" {
		if path := l.resolve(family, bold, italic); path != "" {
			face, err := openFace(path, opts)
			if err == nil {
				return face
			}
			log.WithError(err).WithField("font_path", path).Warn("Failed to load font, using built-in")
		} else {
			log.Warn("Font not found, using built-in")
		}
	}

	f, err := builtinFor(bold, italic).parsed()
	if err == nil {
		var face font.Face
		face, err = opentype.NewFace(f, opts)
		if err == nil {
			return face
		}
	}
	log.WithError(err).Error("Built-in font unavailable, using bitmap face")
	return basicfont.Face7x13
}

func openFace(path string, opts *opentype.FaceOptions) (font.Face, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var f *opentype.Font
	if strings.EqualFold(filepath.Ext(path), ".ttc") {
		coll, err := opentype.ParseCollection(data)
		if err != nil {
			return nil, err
		}
		f, err = coll.Font(0)
		if err != nil {
			return nil, err
		}
	} else {
		f, err = opentype.Parse(data)
		if err != nil {
			return nil, err
		}
	}
	return opentype.NewFace(f, opts)
}

// resolve maps a family (or an explicit font path) to a file on disk. It
// returns "" when nothing matches.
func (l *FontLoader) resolve(family string, bold, italic bool) string {
	if isFontPath(family) {
		if info, err := os.Stat(family); err == nil && !info.IsDir() {
			return family
		}
		return ""
	}

	key := strings.ToLower(family)
	switch {
	case bold && italic:
		key += "|bi"
	case bold:
		key += "|b"
	case italic:
		key += "|i"
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if path, ok := l.cache[key]; ok {
		return path
	}
	if l.index == nil {
		l.index = indexFonts(l.dirs)
	}

	suffixes := regularSuffixes
	switch {
	case bold && italic:
		suffixes = boldItalicSuffixes
	case bold:
		suffixes = boldSuffixes
	case italic:
		suffixes = italicSuffixes
	}

	lower := strings.ToLower(strings.TrimSpace(family))
	bases := []string{lower, strings.ReplaceAll(lower, " ", ""), strings.ReplaceAll(lower, " ", "-")}

	path := ""
lookup:
	for _, base := range bases {
		for _, suffix := range suffixes {
			if p, ok := l.index[base+suffix]; ok {
				path = p
				break lookup
			}
		}
	}
	// Fall back to the regular cut before giving up on the family.
	if path == "" && (bold || italic) {
		for _, base := range bases {
			if p, ok := l.index[base]; ok {
				path = p
				break
			}
		}
	}

	l.cache[key] = path
	return path
}

func isFontPath(family string) bool {
	if strings.ContainsRune(family, os.PathSeparator) || strings.ContainsRune(family, '/') {
		return true
	}
	ext := strings.ToLower(filepath.Ext(family))
	for _, e := range fontExts {
		if ext == e {
			return true
		}
	}
	return false
}

// indexFonts maps lower-cased file names without extension to their paths.
// The first directory wins on collisions.
func indexFonts(dirs []string) map[string]string {
	index := make(map[string]string)
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if d != nil && d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				return nil
			}
			ext := strings.ToLower(filepath.Ext(path))
			matched := false
			for _, e := range fontExts {
				if ext == e {
					matched = true
					break
				}
			}
			if !matched {
				return nil
			}
			name := strings.ToLower(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
			if _, exists := index[name]; !exists {
				index[name] = path
			}
			return nil
		})
	}
	return index
}
