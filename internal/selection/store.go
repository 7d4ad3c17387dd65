package selection

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Kind names one of the two selection sets.
type Kind string

const (
	Liked Kind = "liked"
	Cart  Kind = "cart"
)

var ErrUnknownKind = errors.New("unknown selection kind")

// Kinds lists every selection set in display order.
var Kinds = []Kind{Liked, Cart}

func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case Liked, Cart:
		return Kind(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

func (k Kind) storageKey() string {
	return "online_market_" + string(k) + "_ids"
}

// Key is the storage key for one user's set. An empty user maps to the
// bare key, which is what a single-user deployment ends up with.
func Key(user string, k Kind) string {
	if user == "" {
		return k.storageKey()
	}
	return user + ":" + k.storageKey()
}

type Store struct {
	storage Storage
	log     *zap.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewStore(storage Storage, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		storage: storage,
		log:     log,
		locks:   map[string]*sync.Mutex{},
	}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.storage.Ping(ctx)
}

// Get loads a set. Storage failures and corrupt data both degrade to the
// empty set.
func (s *Store) Get(ctx context.Context, user string, kind Kind) Set {
	key := Key(user, kind)

	set, err := s.load(ctx, key)
	if err != nil {
		s.log.Warn("selection read failed", zap.String("key", key), zap.Error(err))
		return Set{}
	}
	return set
}

// load reads and decodes one key. Only missing or corrupt data becomes the
// empty set; storage errors are returned.
func (s *Store) load(ctx context.Context, key string) (Set, error) {
	raw, ok, err := s.storage.Get(ctx, key)
	if err != nil {
		return Set{}, err
	}
	if !ok {
		return Set{}, nil
	}

	set := Decode(raw)
	if set.Len() == 0 && !bytes.Equal(bytes.TrimSpace(raw), []byte("[]")) {
		s.log.Debug("discarding malformed selection", zap.String("key", key))
	}
	return set, nil
}

func (s *Store) IsMember(ctx context.Context, user string, kind Kind, id int) bool {
	return s.Get(ctx, user, kind).Contains(id)
}

// Toggle flips id's membership and persists the whole set before returning.
// A failed read aborts the toggle so the stored set is never overwritten
// from a partial view.
func (s *Store) Toggle(ctx context.Context, user string, kind Kind, id int) (Set, error) {
	key := Key(user, kind)

	lock := s.keyLock(key)
	lock.Lock()
	defer lock.Unlock()

	cur, err := s.load(ctx, key)
	if err != nil {
		return Set{}, fmt.Errorf("load %s: %w", key, err)
	}

	next := cur.Toggle(id)
	if err := s.storage.Set(ctx, key, Encode(next)); err != nil {
		return Set{}, fmt.Errorf("persist %s: %w", key, err)
	}

	s.log.Debug("selection toggled",
		zap.String("key", key),
		zap.Int("product_id", id),
		zap.Bool("member", next.Contains(id)),
	)
	return next, nil
}

// Counts returns the size of every set for user.
func (s *Store) Counts(ctx context.Context, user string) map[Kind]int {
	out := make(map[Kind]int, len(Kinds))
	for _, k := range Kinds {
		out[k] = s.Get(ctx, user, k).Len()
	}
	return out
}

func (s *Store) keyLock(key string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.locks[key]
	if !ok {
		l = &sync.Mutex{}
		s.locks[key] = l
	}
	return l
}
