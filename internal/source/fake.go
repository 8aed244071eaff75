package source

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/brianvoe/gofakeit/v7"

	"content-tracker/internal/model"
)

// Fake makes up plausible items for local runs. Each call publishes one new item per account
// and returns it together with the most recent earlier ones, like a real profile page would.
type Fake struct {
	mu      sync.Mutex
	faker   *gofakeit.Faker
	window  int
	history map[string][]model.DiscoveredContent
}

func NewFake(seed uint64, window int) *Fake {
	if window < 1 {
		window = 1
	}

	return &Fake{
		faker:   gofakeit.New(seed),
		window:  window,
		history: make(map[string][]model.DiscoveredContent),
	}
}

func (f *Fake) FetchCandidates(ctx context.Context, username string) ([]model.DiscoveredContent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	items := append(f.history[username], f.newItem(username))
	if len(items) > f.window {
		items = items[len(items)-f.window:]
	}

	f.history[username] = items

	out := make([]model.DiscoveredContent, len(items))
	copy(out, items)

	return out, nil
}

func (f *Fake) newItem(username string) model.DiscoveredContent {
	id := f.faker.Numerify("7###############")

	words := make([]string, 0, 6)
	for i := 0; i < f.faker.Number(2, 5); i++ {
		words = append(words, f.faker.Word())
	}

	caption := strings.Join(words, " ") + " #" + f.faker.Word()

	item := model.DiscoveredContent{
		PlatformID:     id,
		AuthorUsername: username,
		Caption:        caption,
		VideoURL:       fmt.Sprintf("https://www.tiktok.com/@%s/video/%s", username, id),
		CreatedAt:      time.Now().UTC().Add(-time.Duration(f.faker.Number(0, 3600)) * time.Second),
	}

	if f.faker.Number(0, 1) == 1 {
		cover := fmt.Sprintf("https://p16-sign.tiktokcdn.com/obj/%s.jpeg", id)
		item.CoverImageURL = &cover
	}

	return item
}
