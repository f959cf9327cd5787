package service

import (
	"context"
	"errors"
	"log"
	"os"
	"time"

	"Vault/internal/backup"
	"Vault/internal/cache"
	dom "Vault/internal/domain"
	"Vault/internal/events"
	"Vault/internal/repo"

	"golang.org/x/sync/singleflight"
)

// ErrIDExhausted is returned when every generated id was already taken.
var ErrIDExhausted = errors.New("could not allocate an unused record id")

const maxIDAttempts = 5

// Collections hands out the records collection; store.Client implements it.
type Collections interface {
	Collection(ctx context.Context) (repo.RecordRepo, error)
}

type RecordService struct {
	store   Collections
	backups *backup.Writer
	bus     *events.Bus
	cache   *cache.RecordCache
	logger  *log.Logger
	sf      singleflight.Group

	now   func() time.Time
	newID func() string
}

// NewRecordService creates a RecordService. A nil backups, bus or cache
// disables that concern.
func NewRecordService(store Collections, backups *backup.Writer, bus *events.Bus, c *cache.RecordCache, logger *log.Logger) *RecordService {
	if logger == nil {
		logger = log.New(os.Stderr, "[vault] ", log.LstdFlags)
	}
	return &RecordService{
		store:   store,
		backups: backups,
		bus:     bus,
		cache:   c,
		logger:  logger,
		now:     time.Now,
		newID:   dom.GenerateID,
	}
}

// AddRecord validates name, stores a new record, snapshots the collection and
// announces recordAdded.
func (s *RecordService) AddRecord(ctx context.Context, name string) (dom.Record, error) {
	rec := dom.Record{Name: name}
	if err := dom.ValidateRecord(rec); err != nil {
		return dom.Record{}, err
	}
	coll, err := s.store.Collection(ctx)
	if err != nil {
		return dom.Record{}, err
	}
	rec.CreatedAt = dom.Today(s.now())

	for attempt := 1; ; attempt++ {
		rec.ID = s.newID()
		err = coll.InsertOne(ctx, rec)
		if !errors.Is(err, repo.ErrDuplicateID) {
			break
		}
		if attempt == maxIDAttempts {
			return dom.Record{}, ErrIDExhausted
		}
		s.logger.Printf("record id %s already taken, generating another", rec.ID)
	}
	if err != nil {
		return dom.Record{}, err
	}

	s.invalidateCache(ctx)
	s.backup(ctx, coll)
	s.publish(events.RecordAdded, rec)
	return rec, nil
}

// ListRecords returns every record in store order.
func (s *RecordService) ListRecords(ctx context.Context) ([]dom.Record, error) {
	return s.readThrough(ctx, "list",
		func() ([]dom.Record, error) { return s.cache.GetList(ctx) },
		func(list []dom.Record) error { return s.cache.SetList(ctx, list) },
		func(coll repo.RecordRepo) ([]dom.Record, error) { return coll.Find(ctx, repo.Filter{}) },
	)
}

// UpdateRecord renames the record with id. It returns nil, nil when no record
// has that id. newName is stored as given.
func (s *RecordService) UpdateRecord(ctx context.Context, id, newName string) (*dom.Record, error) {
	coll, err := s.store.Collection(ctx)
	if err != nil {
		return nil, err
	}
	rec, err := coll.FindOneAndUpdateName(ctx, id, newName)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	s.invalidateCache(ctx)
	s.publish(events.RecordUpdated, rec)
	return &rec, nil
}

// DeleteRecord removes the record with id and returns it as it was before
// deletion, or nil, nil when no record has that id.
func (s *RecordService) DeleteRecord(ctx context.Context, id string) (*dom.Record, error) {
	coll, err := s.store.Collection(ctx)
	if err != nil {
		return nil, err
	}
	rec, err := coll.FindOne(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if err := coll.DeleteOne(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	s.invalidateCache(ctx)
	s.backup(ctx, coll)
	s.publish(events.RecordDeleted, rec)
	return &rec, nil
}

// SearchRecords matches id exactly when searchBy is "id"; any other searchBy
// matches names containing keyword, ignoring case.
func (s *RecordService) SearchRecords(ctx context.Context, searchBy, keyword string) ([]dom.Record, error) {
	f := repo.ByName(keyword)
	if searchBy == "id" {
		f = repo.ByID(keyword)
	}
	return s.readThrough(ctx, cache.SearchKey(searchBy, keyword),
		func() ([]dom.Record, error) { return s.cache.GetSearch(ctx, searchBy, keyword) },
		func(list []dom.Record) error { return s.cache.SetSearch(ctx, searchBy, keyword, list) },
		func(coll repo.RecordRepo) ([]dom.Record, error) { return coll.Find(ctx, f) },
	)
}

// SortRecords returns all records ordered by field. See SortKey and
// IsAscending for how field and order are read.
func (s *RecordService) SortRecords(ctx context.Context, field, order string) ([]dom.Record, error) {
	key := SortKey(field)
	desc := !IsAscending(order)
	return s.readThrough(ctx, cache.SortKey(key, desc),
		func() ([]dom.Record, error) { return s.cache.GetSorted(ctx, key, desc) },
		func(list []dom.Record) error { return s.cache.SetSorted(ctx, key, desc, list) },
		func(coll repo.RecordRepo) ([]dom.Record, error) { return coll.FindSorted(ctx, key, desc) },
	)
}

// SortKey maps "date" and "creation date" to createdAt. Other fields are used
// as the document attribute name unchanged.
func SortKey(field string) string {
	switch field {
	case "date", "creation date":
		return "createdAt"
	}
	return field
}

// IsAscending is true only for "asc" and "ascending"; everything else sorts
// descending.
func IsAscending(order string) bool {
	return order == "asc" || order == "ascending"
}

// readThrough serves reads from the cache when one is configured, collapsing
// concurrent misses for the same key.
func (s *RecordService) readThrough(
	ctx context.Context,
	key string,
	get func() ([]dom.Record, error),
	set func([]dom.Record) error,
	load func(repo.RecordRepo) ([]dom.Record, error),
) ([]dom.Record, error) {
	fromStore := func() ([]dom.Record, error) {
		coll, err := s.store.Collection(ctx)
		if err != nil {
			return nil, err
		}
		return load(coll)
	}
	if s.cache == nil {
		return fromStore()
	}

	v, err, _ := s.sf.Do(key, func() (interface{}, error) {
		if list, err := get(); err == nil && list != nil {
			return list, nil
		}
		list, err := fromStore()
		if err != nil {
			return nil, err
		}
		_ = set(list)
		return list, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]dom.Record), nil
}

func (s *RecordService) backup(ctx context.Context, coll repo.RecordRepo) {
	if s.backups == nil {
		return
	}
	// best effort: the mutation already happened and is not undone
	if _, err := s.backups.Create(ctx, coll); err != nil {
		s.logger.Printf("backup failed: %v", err)
	}
}

func (s *RecordService) publish(t events.Type, rec dom.Record) {
	if s.bus != nil {
		s.bus.Publish(events.New(t, rec))
	}
}

func (s *RecordService) invalidateCache(ctx context.Context) {
	if s.cache != nil {
		if err := s.cache.InvalidateAll(ctx); err != nil {
			s.logger.Printf("cache invalidation failed: %v", err)
		}
	}
}
