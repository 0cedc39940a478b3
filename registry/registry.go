package registry

import (
	"slices"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/on-the-ground/channel_ive_go/channel"
)

// Config sizes a Registry.
type Config struct {
	NumShards int // default: 1
}

func NewConfig(numShards int) Config {
	if numShards <= 0 {
		numShards = 1
	}
	return Config{NumShards: numShards}
}

type shard[T, U any] struct {
	mu       sync.RWMutex
	channels map[string]*channel.Channel[T, U]
}

// Registry hands out one channel per name. Names are spread across shards by
// hash so unrelated names do not contend on one lock.
type Registry[T, U any] struct {
	rt     *channel.Runtime
	shards []*shard[T, U]
}

// New creates a registry whose channels are built on rt (the default runtime
// when nil).
func New[T, U any](rt *channel.Runtime, config Config) *Registry[T, U] {
	config = NewConfig(config.NumShards)
	shards := make([]*shard[T, U], config.NumShards)
	for i := range shards {
		shards[i] = &shard[T, U]{channels: make(map[string]*channel.Channel[T, U])}
	}
	return &Registry[T, U]{rt: rt, shards: shards}
}

func (r *Registry[T, U]) shardOf(name string) *shard[T, U] {
	return r.shards[indexByHash(name, len(r.shards))]
}

// GetOrCreate returns the channel registered under name, creating it first
// if needed. The boolean reports whether it was created by this call.
func (r *Registry[T, U]) GetOrCreate(name string) (*channel.Channel[T, U], bool) {
	s := r.shardOf(name)

	s.mu.RLock()
	ch, ok := s.channels[name]
	s.mu.RUnlock()
	if ok {
		return ch, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// another goroutine may have created it
	if ch, ok := s.channels[name]; ok {
		return ch, false
	}
	ch = channel.NewIn[T, U](r.rt, name)
	s.channels[name] = ch
	return ch, true
}

func (r *Registry[T, U]) Get(name string) (*channel.Channel[T, U], bool) {
	s := r.shardOf(name)
	s.mu.RLock()
	defer s.mu.RUnlock()
	ch, ok := s.channels[name]
	return ch, ok
}

// Delete forgets name. Subscriptions on the removed channel stay valid; the
// channel simply stops being reachable through the registry.
func (r *Registry[T, U]) Delete(name string) bool {
	s := r.shardOf(name)
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.channels[name]
	delete(s.channels, name)
	return ok
}

// Names returns every registered name, sorted.
func (r *Registry[T, U]) Names() []string {
	var names []string
	for _, s := range r.shards {
		s.mu.RLock()
		for name := range s.channels {
			names = append(names, name)
		}
		s.mu.RUnlock()
	}
	slices.Sort(names)
	return names
}

func (r *Registry[T, U]) Len() int {
	n := 0
	for _, s := range r.shards {
		s.mu.RLock()
		n += len(s.channels)
		s.mu.RUnlock()
	}
	return n
}

func hash(key string) uint64 {
	return xxhash.Sum64String(key)
}

func indexByHash(key string, numShards int) int {
	switch numShards {
	case 0:
		panic("number of shards cannot be 0")
	case 1:
		return 0
	default:
		return int(hash(key) % uint64(numShards))
	}
}
