// Package watchtag watches a directory for changed text files and
// re-tags each one as it settles, using fsnotify the same way the
// teacher's indexing watcher does.
package watchtag

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/screenager/nertag/internal/engine"
	"github.com/screenager/nertag/internal/feature"
	"github.com/screenager/nertag/internal/tokenize"
)

// IsSupportedFile reports whether path should be watched and re-tagged:
// currently plain .txt files only.
func IsSupportedFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".txt")
}

// Watcher watches a directory tree and re-tags changed files against a
// loaded Engine, printing each file's decoded entities to stderr. A
// file's whole text is tokenized and recognized as a single sentence.
type Watcher struct {
	fw  *fsnotify.Watcher
	eng *engine.Engine
	tok *tokenize.Tokenizer
}

// New creates a Watcher that re-tags files using eng.
func New(eng *engine.Engine) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watchtag: fsnotify: %w", err)
	}
	return &Watcher{fw: fw, eng: eng, tok: tokenize.New()}, nil
}

// Watch adds rootDir (and its subdirectories) to the watch list and
// processes events until done is closed or an unrecoverable error
// occurs. Call this in a goroutine.
func (w *Watcher) Watch(rootDir string, done <-chan struct{}) error {
	if err := w.addDirRecursive(rootDir); err != nil {
		return err
	}

	pending := make(map[string]*time.Timer)

	for {
		select {
		case <-done:
			return w.fw.Close()

		case event, ok := <-w.fw.Events:
			if !ok {
				return nil
			}
			path := event.Name

			if event.Has(fsnotify.Create) {
				if fi, err := os.Stat(path); err == nil && fi.IsDir() {
					_ = w.addDirRecursive(path)
				}
			}

			if !IsSupportedFile(path) {
				continue
			}

			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				if t, ok := pending[path]; ok {
					t.Stop()
				}
				pending[path] = time.AfterFunc(500*time.Millisecond, func() {
					w.retag(path)
				})
			}

		case err, ok := <-w.fw.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(os.Stderr, "[watchtag] error: %v\n", err)
		}
	}
}

func (w *Watcher) retag(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[watchtag] read %s: %v\n", path, err)
		return
	}
	tokens := w.tok.Tokens(string(data))
	entities := w.eng.Recognize(tokens)
	fmt.Fprintf(os.Stderr, "[watchtag] %s: %d entities\n", path, len(entities))
	for _, e := range entities {
		fmt.Fprintf(os.Stderr, "  %s %s\n", e.Type, spanText(tokens, e))
	}
}

func spanText(tokens []feature.Token, e feature.Entity) string {
	var b strings.Builder
	for i := 0; i < e.Length; i++ {
		if i > 0 {
			b.WriteByte(' ')
		}
		if e.Start+i < len(tokens) {
			b.WriteString(tokens[e.Start+i].Form)
		}
	}
	return b.String()
}

func (w *Watcher) addDirRecursive(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	if err := w.fw.Add(dir); err != nil {
		return fmt.Errorf("watchtag: watch %s: %w", dir, err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if e.IsDir() {
			if err := w.addDirRecursive(filepath.Join(dir, e.Name())); err != nil {
				fmt.Fprintf(os.Stderr, "[watchtag] skip dir: %v\n", err)
			}
		}
	}
	return nil
}
