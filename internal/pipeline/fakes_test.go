package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Lllllllleong/marketingkitflow/internal/imagegen"
	"github.com/Lllllllleong/marketingkitflow/internal/models"
	"github.com/Lllllllleong/marketingkitflow/internal/repository"
)

// memStore is an in-memory repository.Store that counts writes.
type memStore struct {
	mu         sync.Mutex
	users      map[string]models.User
	clients    []models.Client
	properties map[string]models.Property
	media      []models.PropertyMedia
	kits       map[string]models.MarketingKit
	writes     int

	createUserErr   error
	createClientErr []error // consumed one per CreateClient call
	mediaFailAt     int     // index of the media write that fails, -1 for none
	mediaCalls      int
	createKitErr    error
}

var _ repository.Store = (*memStore)(nil)

func newMemStore() *memStore {
	return &memStore{
		users:       map[string]models.User{},
		properties:  map[string]models.Property{},
		kits:        map[string]models.MarketingKit{},
		mediaFailAt: -1,
	}
}

func (s *memStore) FindUser(_ context.Context, id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		return &u, nil
	}
	return nil, nil
}

func (s *memStore) CreateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes++
	if s.createUserErr != nil {
		return s.createUserErr
	}
	s.users[user.ID] = *user
	return nil
}

func (s *memStore) FindClient(_ context.Context, userID, email string) (*models.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.clients {
		if c.UserID == userID && c.Email == email {
			return &c, nil
		}
	}
	return nil, nil
}

func (s *memStore) CreateClient(_ context.Context, client *models.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes++
	if len(s.createClientErr) > 0 {
		err := s.createClientErr[0]
		s.createClientErr = s.createClientErr[1:]
		if err != nil {
			return err
		}
	}
	s.clients = append(s.clients, *client)
	return nil
}

func (s *memStore) CreateProperty(_ context.Context, property *models.Property) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes++
	if _, ok := s.properties[property.ID]; ok {
		return repository.ErrAlreadyExists
	}
	s.properties[property.ID] = *property
	return nil
}

func (s *memStore) GetProperty(_ context.Context, id string) (*models.Property, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.properties[id]
	if !ok {
		return nil, fmt.Errorf("property %s: %w", id, repository.ErrNotFound)
	}
	return &p, nil
}

func (s *memStore) ListProperties(_ context.Context, userID string) ([]models.Property, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Property
	for _, p := range s.properties {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *memStore) CreateMedia(_ context.Context, media *models.PropertyMedia) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes++
	call := s.mediaCalls
	s.mediaCalls++
	if call == s.mediaFailAt {
		return errors.New("media write failed")
	}
	for _, m := range s.media {
		if m.ID == media.ID {
			return repository.ErrAlreadyExists
		}
	}
	s.media = append(s.media, *media)
	return nil
}

func (s *memStore) ListMedia(_ context.Context, propertyID string) ([]models.PropertyMedia, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.PropertyMedia
	for _, m := range s.media {
		if m.PropertyID == propertyID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *memStore) FindKit(_ context.Context, propertyID string) (*models.MarketingKit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range s.kits {
		if k.PropertyID == propertyID {
			return &k, nil
		}
	}
	return nil, nil
}

func (s *memStore) CreateKit(_ context.Context, kit *models.MarketingKit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes++
	if s.createKitErr != nil {
		return s.createKitErr
	}
	if _, ok := s.kits[kit.ID]; ok {
		return repository.ErrAlreadyExists
	}
	s.kits[kit.ID] = *kit
	return nil
}

func (s *memStore) UpdateKit(_ context.Context, id string, kit *models.MarketingKit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes++
	if _, ok := s.kits[id]; !ok {
		return repository.ErrNotFound
	}
	s.kits[id] = *kit
	return nil
}

func (s *memStore) writeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

func (s *memStore) kitsFor(propertyID string) []models.MarketingKit {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.MarketingKit
	for _, k := range s.kits {
		if k.PropertyID == propertyID {
			out = append(out, k)
		}
	}
	return out
}

func (s *memStore) mediaFor(propertyID string) []models.PropertyMedia {
	out, _ := s.ListMedia(context.Background(), propertyID)
	return out
}

// stubContent returns a fixed object, or runs fn when set.
type stubContent struct {
	mu      sync.Mutex
	prompts []string
	schemas []ObjectSchema
	fn      func(ctx context.Context) (map[string]any, error)
}

func (c *stubContent) GenerateObject(ctx context.Context, prompt string, schema ObjectSchema) (map[string]any, error) {
	c.mu.Lock()
	c.prompts = append(c.prompts, prompt)
	c.schemas = append(c.schemas, schema)
	c.mu.Unlock()
	if c.fn != nil {
		return c.fn(ctx)
	}
	obj := map[string]any{}
	for _, f := range schema.Fields {
		if f.Array {
			obj[f.Name] = []any{f.Name + " post 1", f.Name + " post 2"}
		} else {
			obj[f.Name] = f.Name + " post"
		}
	}
	return obj, nil
}

// stubImages returns a URL per call unless the platform is listed in fail.
type stubImages struct {
	mu       sync.Mutex
	requests []imagegen.Request
	fail     map[string]bool
	inline   bool
}

func (m *stubImages) ModifyImage(_ context.Context, req imagegen.Request) ([]imagegen.Image, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)
	platform := platformOf(req.Prompt)
	if m.fail[platform] {
		return nil, &imagegen.HTTPError{StatusCode: 500, Body: "upstream failure"}
	}
	if m.inline {
		return []imagegen.Image{{Data: []byte("png:" + platform), MimeType: "image/png"}}, nil
	}
	return []imagegen.Image{{URL: "https://images.example.com/" + platform + ".png"}}, nil
}

func (m *stubImages) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

func platformOf(prompt string) string {
	for _, p := range Platforms {
		if strings.Contains(prompt, p.Label) {
			return p.Name
		}
	}
	return "unknown"
}

type stubUploader struct {
	mu      sync.Mutex
	objects map[string][]byte
	err     error
}

func (u *stubUploader) Upload(_ context.Context, objectName string, data []byte, _ string) (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.err != nil {
		return "", u.err
	}
	if u.objects == nil {
		u.objects = map[string][]byte{}
	}
	u.objects[objectName] = data
	return "https://storage.example.com/" + objectName, nil
}

type stubLeaser struct {
	mu       sync.Mutex
	keys     []string
	ttls     []time.Duration
	released int
	err      error
}

func (l *stubLeaser) Lease(_ context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.keys = append(l.keys, key)
	l.ttls = append(l.ttls, ttl)
	if l.err != nil {
		return nil, l.err
	}
	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.released++
		return nil
	}, nil
}

func (l *stubLeaser) releases() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.released
}

// stepClock advances one millisecond per reading so generated ids never collide.
type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func newStepClock() *stepClock {
	return &stepClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Millisecond)
	return c.now
}

type progressRecorder struct {
	mu     sync.Mutex
	events []Progress
}

func (r *progressRecorder) sink(p Progress) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, p)
}

func (r *progressRecorder) all() []Progress {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Progress(nil), r.events...)
}

type harness struct {
	store    *memStore
	content  *stubContent
	images   *stubImages
	uploader *stubUploader
	clock    *stepClock
	pipeline *Pipeline
}

func newHarness(cfg Config, opts ...Option) *harness {
	h := &harness{
		store:    newMemStore(),
		content:  &stubContent{},
		images:   &stubImages{fail: map[string]bool{}},
		uploader: &stubUploader{},
		clock:    newStepClock(),
	}
	if cfg.Origin == "" {
		cfg.Origin = "https://kits.example.com"
	}
	base := []Option{WithAssetUploader(h.uploader), WithClock(h.clock.Now), WithSuffix(func() string { return "abc123xyz" })}
	h.pipeline = New(h.store, h.content, h.images, cfg, append(base, opts...)...)
	return h
}

func mainStreetRequest() GenerateRequest {
	return GenerateRequest{
		Principal: models.Principal{ID: "user-1", Email: "agent@example.com", DisplayName: "Agent Smith"},
		Intake: models.PropertyIntake{
			Address:      "123 Main St",
			Price:        "500000",
			Bedrooms:     "3",
			Bathrooms:    "2",
			PropertyType: "house",
		},
		Files: []models.UploadedFile{
			{Filename: "front.jpg", Type: models.MediaTypePhoto, URL: "https://uploads.example.com/front.jpg"},
			{Filename: "kitchen.jpg", Type: models.MediaTypePhoto, URL: "https://uploads.example.com/kitchen.jpg"},
		},
	}
}
