package host

import (
	"fmt"
	"path"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// Asset is one output file. Text assets hold UTF-8 source such as CSS;
// everything else is binary.
type Asset struct {
	// FileName is the output path relative to the output directory
	FileName string
	// Name is the logical name the asset was emitted or built under
	Name   string
	Source []byte
	Text   bool
}

// Namer chooses the output file name for an asset
type Namer func(name string, source []byte) string

// HashedNamer places assets in dir as "<base>-<hash>.<ext>", where hash is
// the first 8 hex digits of the xxhash64 of the content.
func HashedNamer(dir string) Namer {
	return func(name string, source []byte) string {
		base := path.Base(name)
		ext := path.Ext(base)
		stem := strings.TrimSuffix(base, ext)
		hash := fmt.Sprintf("%016x", xxhash.Sum64(source))[:8]
		return path.Join(dir, stem+"-"+hash+ext)
	}
}

// Bundle is the ordered set of output assets of one build
type Bundle struct {
	mu     sync.Mutex
	namer  Namer
	assets []*Asset
	byName map[string]*Asset
}

// NewBundle creates an empty bundle that names emitted assets with namer
func NewBundle(namer Namer) *Bundle {
	return &Bundle{namer: namer, byName: map[string]*Asset{}}
}

// Emit adds a binary asset and returns its final file name
func (b *Bundle) Emit(name string, source []byte) string {
	return b.add(&Asset{Name: name, Source: source})
}

// EmitText adds a text asset and returns its final file name
func (b *Bundle) EmitText(name string, source string) string {
	return b.add(&Asset{Name: name, Source: []byte(source), Text: true})
}

func (b *Bundle) add(a *Asset) string {
	b.mu.Lock()
	defer b.mu.Unlock()

	a.FileName = b.uniqueName(b.namer(a.Name, a.Source))
	b.assets = append(b.assets, a)
	b.byName[a.FileName] = a
	return a.FileName
}

// uniqueName suffixes fileName when another asset already uses it
func (b *Bundle) uniqueName(fileName string) string {
	if _, taken := b.byName[fileName]; !taken {
		return fileName
	}
	ext := path.Ext(fileName)
	stem := strings.TrimSuffix(fileName, ext)
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s%d%s", stem, i, ext)
		if _, taken := b.byName[candidate]; !taken {
			return candidate
		}
	}
}

// Assets returns a snapshot of the assets in emission order
func (b *Bundle) Assets() []Asset {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]Asset, len(b.assets))
	for i, a := range b.assets {
		out[i] = *a
	}
	return out
}

// Replace swaps the source of the asset stored under fileName and reports
// whether it exists. The file name is kept.
func (b *Bundle) Replace(fileName string, source []byte) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	a, ok := b.byName[fileName]
	if !ok {
		return false
	}
	a.Source = source
	return true
}
