package loader

import (
	"os"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/incognito-design/msgmod/messages"
)

type cacheEntry struct {
	modTime time.Time
	size    int64
	kv      messages.KeyValueObject
}

// Cached wraps fn with an LRU cache keyed by path. An entry is reused only
// while the file's size and modification time are unchanged. The returned
// loader is safe for concurrent use.
func Cached(fn Func, size int) (Func, error) {
	cache, err := lru.New[string, cacheEntry](size)
	if err != nil {
		return nil, err
	}
	return func(path string) (messages.KeyValueObject, error) {
		info, err := os.Stat(path)
		if err != nil {
			return nil, err
		}
		if e, ok := cache.Get(path); ok && e.size == info.Size() && e.modTime.Equal(info.ModTime()) {
			return e.kv, nil
		}
		kv, err := fn(path)
		if err != nil {
			return nil, err
		}
		cache.Add(path, cacheEntry{modTime: info.ModTime(), size: info.Size(), kv: kv})
		return kv, nil
	}, nil
}
