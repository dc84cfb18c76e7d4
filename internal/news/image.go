package news

import (
	"fmt"
	"hash/fnv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/deusflow/ainews/internal/config"
)

const placeholderImageURL = "https://source.unsplash.com/800x450/?%s&sig=%d"

// ImageResolver picks a representative image for a record.
type ImageResolver struct {
	keywords       map[string]string
	defaultKeyword string
	now            func() time.Time
	seq            atomic.Uint64
}

func NewImageResolver(categories []config.Category, defaultKeyword string) *ImageResolver {
	if defaultKeyword == "" {
		defaultKeyword = "technology"
	}
	kw := make(map[string]string, len(categories))
	for _, c := range categories {
		if c.ImageKeyword != "" {
			kw[c.Name] = c.ImageKeyword
		}
	}
	return &ImageResolver{keywords: kw, defaultKeyword: defaultKeyword, now: time.Now}
}

// Resolve walks the fallback chain: the record's own image, the batch
// image at index, a video thumbnail, then a keyword placeholder.
// The result is never empty.
func (r *ImageResolver) Resolve(raw RawResult, pool []string, index int, category string) string {
	if img := strings.TrimSpace(raw.Image); img != "" {
		return img
	}

	if index >= 0 && index < len(pool) {
		if img := strings.TrimSpace(pool[index]); img != "" {
			return img
		}
	}

	if m := ExtractVideoID(raw.URL); m.Found() {
		return ThumbnailURL(m.ID)
	}

	return r.Placeholder(raw.Title, category)
}

// Placeholder builds a category-themed image URL. The seed mixes the
// title hash, the clock and a per-resolver counter so two calls never
// produce the same URL.
func (r *ImageResolver) Placeholder(title, category string) string {
	keyword, ok := r.keywords[category]
	if !ok {
		keyword = r.defaultKeyword
	}

	h := fnv.New64a()
	h.Write([]byte(title))
	seed := h.Sum64() + uint64(r.now().UnixMilli()) + r.seq.Add(1)

	return fmt.Sprintf(placeholderImageURL, keyword, seed)
}
