package favorites

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"sort"
	"supmap-guidance/internal/geo"
	"time"
)

var ErrNotFound = errors.New("favorite not found")

type Location struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Coordinate geo.Coordinate `json:"coordinate"`
	CreatedAt  time.Time      `json:"created_at"`
}

// Defaults are added to every user's favorites the first time the store is used for them.
var Defaults = []Location{
	{Name: "Marina Beach", Coordinate: geo.Coordinate{Lat: 13.0494, Lon: 80.2824}},
	{Name: "Chennai Central", Coordinate: geo.Coordinate{Lat: 13.0827, Lon: 80.2707}},
	{Name: "Guindy National Park", Coordinate: geo.Coordinate{Lat: 13.0050, Lon: 80.2342}},
	{Name: "Phoenix MarketCity", Coordinate: geo.Coordinate{Lat: 12.9910, Lon: 80.2167}},
	{Name: "T Nagar", Coordinate: geo.Coordinate{Lat: 13.0418, Lon: 80.2337}},
}

// Store keeps favorites in one Redis hash per user, keyed by favorite ID.
type Store struct {
	client *redis.Client
	now    func() time.Time
}

func NewStore(client *redis.Client) *Store {
	return &Store{client: client, now: time.Now}
}

func (s *Store) Add(ctx context.Context, userID, name string, c geo.Coordinate) (Location, error) {
	if err := c.Validate(); err != nil {
		return Location{}, fmt.Errorf("adding favorite: %w", err)
	}
	if err := s.seed(ctx, userID); err != nil {
		return Location{}, err
	}
	loc := Location{
		ID:         uuid.NewString(),
		Name:       name,
		Coordinate: c,
		CreatedAt:  s.now(),
	}
	data, err := json.Marshal(loc)
	if err != nil {
		return Location{}, fmt.Errorf("marshalling favorite: %w", err)
	}
	if err := s.client.HSet(ctx, formatKey(userID), loc.ID, data).Err(); err != nil {
		return Location{}, fmt.Errorf("adding favorite: %w", err)
	}
	return loc, nil
}

// List returns the user's favorites, oldest first.
func (s *Store) List(ctx context.Context, userID string) ([]Location, error) {
	if err := s.seed(ctx, userID); err != nil {
		return nil, err
	}

	vals, err := s.client.HGetAll(ctx, formatKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("listing favorites: %w", err)
	}
	res := make([]Location, 0, len(vals))
	for _, v := range vals {
		var loc Location
		if err := json.Unmarshal([]byte(v), &loc); err != nil {
			return nil, fmt.Errorf("unmarshalling favorite: %w", err)
		}
		res = append(res, loc)
	}
	sort.Slice(res, func(i, j int) bool {
		if res[i].CreatedAt.Equal(res[j].CreatedAt) {
			return res[i].ID < res[j].ID
		}
		return res[i].CreatedAt.Before(res[j].CreatedAt)
	})
	return res, nil
}

func (s *Store) Get(ctx context.Context, userID, id string) (Location, error) {
	val, err := s.client.HGet(ctx, formatKey(userID), id).Result()
	if errors.Is(err, redis.Nil) {
		return Location{}, ErrNotFound
	}
	if err != nil {
		return Location{}, fmt.Errorf("getting favorite: %w", err)
	}
	var loc Location
	if err := json.Unmarshal([]byte(val), &loc); err != nil {
		return Location{}, fmt.Errorf("unmarshalling favorite: %w", err)
	}
	return loc, nil
}

func (s *Store) Delete(ctx context.Context, userID, id string) error {
	n, err := s.client.HDel(ctx, formatKey(userID), id).Result()
	if err != nil {
		return fmt.Errorf("deleting favorite: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) seed(ctx context.Context, userID string) error {
	first, err := s.client.SetNX(ctx, formatKey(userID)+":seeded", 1, 0).Result()
	if err != nil {
		return fmt.Errorf("seeding favorites: %w", err)
	}
	if !first {
		return nil
	}
	// Spread creation times so defaults keep their order.
	base := s.now()
	for i, d := range Defaults {
		d.ID = uuid.NewString()
		d.CreatedAt = base.Add(time.Duration(i-len(Defaults)) * time.Millisecond)
		data, err := json.Marshal(d)
		if err != nil {
			return fmt.Errorf("marshalling favorite: %w", err)
		}
		if err := s.client.HSet(ctx, formatKey(userID), d.ID, data).Err(); err != nil {
			return fmt.Errorf("seeding favorites: %w", err)
		}
	}
	return nil
}

func formatKey(userID string) string {
	return fmt.Sprintf("guidance:favorites:%s", userID)
}
