package memstore

import (
	"context"
	"farmacia-service/internal/app/contracts"
	"farmacia-service/internal/app/models"
	"farmacia-service/internal/pkg/constvars"
	"farmacia-service/internal/pkg/exceptions"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

type txContextKey struct{}

type catalogKey struct {
	kind models.LineItemKind
	id   string
}

type dataset struct {
	turnos      map[string]*models.Turno
	sequences   map[string]int
	catalog     map[catalogKey]models.CatalogItem
	blocked     map[string]models.BlockedDate
	documents   map[string][]models.TurnoDocument
	transitions map[string][]models.TransitionLog
}

func newDataset() *dataset {
	return &dataset{
		turnos:      make(map[string]*models.Turno),
		sequences:   make(map[string]int),
		catalog:     make(map[catalogKey]models.CatalogItem),
		blocked:     make(map[string]models.BlockedDate),
		documents:   make(map[string][]models.TurnoDocument),
		transitions: make(map[string][]models.TransitionLog),
	}
}

func (d *dataset) clone() *dataset {
	out := newDataset()
	for id, turno := range d.turnos {
		out.turnos[id] = turno.Clone()
	}
	for k, v := range d.sequences {
		out.sequences[k] = v
	}
	for k, v := range d.catalog {
		out.catalog[k] = v
	}
	for k, v := range d.blocked {
		out.blocked[k] = v
	}
	for k, v := range d.documents {
		out.documents[k] = append([]models.TurnoDocument(nil), v...)
	}
	for k, v := range d.transitions {
		out.transitions[k] = append([]models.TransitionLog(nil), v...)
	}
	return out
}

// Store is an in-process implementation of every persistence contract of the
// service. A transaction holds the store mutex for its whole duration and
// restores a snapshot when it fails, so transactions are serialisable.
type Store struct {
	mu   sync.Mutex
	data *dataset
}

var (
	_ contracts.Transactor              = (*Store)(nil)
	_ contracts.TurnoRepository         = (*Store)(nil)
	_ contracts.SlotRepository          = (*Store)(nil)
	_ contracts.CatalogStockRepository  = (*Store)(nil)
	_ contracts.BlockedDateRepository   = (*Store)(nil)
	_ contracts.TurnoDocumentRepository = (*Store)(nil)
	_ contracts.TransitionLogRepository = (*Store)(nil)
)

func New() *Store {
	return &Store{data: newDataset()}
}

func (s *Store) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(txContextKey{}).(*Store)
	return owner == s
}

// run executes fn with the store locked unless ctx already belongs to a
// transaction of this store.
func (s *Store) run(ctx context.Context, fn func(d *dataset) error) error {
	if s.inTx(ctx) {
		return fn(s.data)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.data)
}

func (s *Store) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if s.inTx(ctx) {
		return fn(ctx)
	}
	if err := ctx.Err(); err != nil {
		return exceptions.ErrPostgresDBBeginTransaction(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	defer func() {
		if p := recover(); p != nil {
			s.data = snapshot
			panic(p)
		}
	}()

	if err = fn(context.WithValue(ctx, txContextKey{}, s)); err != nil {
		s.data = snapshot
		return err
	}
	if err = ctx.Err(); err != nil {
		s.data = snapshot
		return exceptions.ErrPostgresDBCommit(err)
	}
	return nil
}

// SeedCatalog upserts catalog items with their stock.
func (s *Store) SeedCatalog(items ...models.CatalogItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range items {
		s.data.catalog[catalogKey{kind: item.Kind, id: item.ID}] = item
	}
}

// Stock returns the current stock of a catalog item.
func (s *Store) Stock(kind models.LineItemKind, itemID string) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.data.catalog[catalogKey{kind: kind, id: itemID}]
	return item.Stock, ok
}

// ParseCatalogSeed parses kind:id:stock entries.
func ParseCatalogSeed(entries []string) ([]models.CatalogItem, error) {
	items := make([]models.CatalogItem, 0, len(entries))
	for _, entry := range entries {
		parts := strings.Split(entry, ":")
		if len(parts) != 3 {
			return nil, fmt.Errorf("invalid catalog seed %q, expected kind:id:stock", entry)
		}
		kind := models.LineItemKind(strings.TrimSpace(parts[0]))
		if !kind.IsValid() {
			return nil, fmt.Errorf("invalid catalog seed %q, unknown kind %s", entry, kind)
		}
		stock, err := strconv.Atoi(strings.TrimSpace(parts[2]))
		if err != nil || stock < 0 {
			return nil, fmt.Errorf("invalid catalog seed %q, stock must be a non negative integer", entry)
		}
		id := strings.TrimSpace(parts[1])
		items = append(items, models.CatalogItem{Kind: kind, ID: id, Name: id, Stock: stock})
	}
	return items, nil
}

// Turno repository

func (s *Store) CreateTurno(ctx context.Context, turno *models.Turno) error {
	return s.run(ctx, func(d *dataset) error {
		if _, exists := d.turnos[turno.ID]; exists {
			return exceptions.ErrPostgresDBInsertData(fmt.Errorf("turno %s already exists", turno.ID))
		}
		for _, item := range turno.LineItems {
			if _, ok := d.catalog[catalogKey{kind: item.Kind, id: item.CatalogItemID}]; !ok {
				return exceptions.ErrCatalogItemNotFound(string(item.Kind), item.CatalogItemID)
			}
		}
		d.turnos[turno.ID] = turno.Clone()
		return nil
	})
}

func (s *Store) FindTurnoByID(ctx context.Context, turnoID string) (*models.Turno, error) {
	var out *models.Turno
	err := s.run(ctx, func(d *dataset) error {
		out = d.turnos[turnoID].Clone()
		return nil
	})
	return out, err
}

func (s *Store) FindTurnos(ctx context.Context, filter models.TurnoFilter) ([]models.Turno, int, error) {
	var (
		page  []models.Turno
		total int
	)
	err := s.run(ctx, func(d *dataset) error {
		matched := make([]*models.Turno, 0)
		for _, turno := range d.turnos {
			if filter.RequesterID != "" && turno.RequesterID != filter.RequesterID {
				continue
			}
			if filter.Status != "" && turno.Status != filter.Status {
				continue
			}
			matched = append(matched, turno)
		}
		sort.Slice(matched, func(i, j int) bool {
			if !matched[i].RequestedAt.Equal(matched[j].RequestedAt) {
				return matched[i].RequestedAt.After(matched[j].RequestedAt)
			}
			return matched[i].ID < matched[j].ID
		})

		total = len(matched)
		start := filter.Offset()
		if start > total {
			start = total
		}
		end := total
		if filter.PageSize > 0 && start+filter.PageSize < end {
			end = start + filter.PageSize
		}
		for _, turno := range matched[start:end] {
			page = append(page, *turno.Clone())
		}
		return nil
	})
	return page, total, err
}

func (s *Store) UpdateTurno(ctx context.Context, turno *models.Turno) error {
	return s.run(ctx, func(d *dataset) error {
		if _, ok := d.turnos[turno.ID]; !ok {
			return exceptions.ErrPostgresDBUpdateData(fmt.Errorf("turno %s not found", turno.ID))
		}
		if turno.Status.HoldsSlot() && turno.Slot != nil {
			for id, other := range d.turnos {
				if id == turno.ID || !other.Status.HoldsSlot() || other.Slot == nil {
					continue
				}
				if other.Slot.Equal(*turno.Slot) {
					return exceptions.ErrConcurrencyConflict(fmt.Errorf("slot %s already taken", turno.Slot), "slot")
				}
				if turno.DailyNumber != nil && other.DailyNumber != nil && *other.DailyNumber == *turno.DailyNumber &&
					sameDay(*other.Slot, *turno.Slot) {
					return exceptions.ErrConcurrencyConflict(fmt.Errorf("daily number %d already taken", *turno.DailyNumber), "daily_number")
				}
			}
		}
		d.turnos[turno.ID] = turno.Clone()
		return nil
	})
}

func (s *Store) CountRequesterTurnos(ctx context.Context, requesterID string, from, to time.Time, statuses []models.TurnoStatus) (int, error) {
	count := 0
	err := s.run(ctx, func(d *dataset) error {
		for _, turno := range d.turnos {
			if turno.RequesterID != requesterID {
				continue
			}
			if turno.RequestedAt.Before(from) || !turno.RequestedAt.Before(to) {
				continue
			}
			for _, status := range statuses {
				if turno.Status == status {
					count++
					break
				}
			}
		}
		return nil
	})
	return count, err
}

// Slot repository

func (s *Store) FindOccupiedSlots(ctx context.Context, from, to time.Time) ([]time.Time, error) {
	var slots []time.Time
	err := s.run(ctx, func(d *dataset) error {
		for _, turno := range d.turnos {
			if !turno.Status.HoldsSlot() || turno.Slot == nil {
				continue
			}
			if turno.Slot.Before(from) || !turno.Slot.Before(to) {
				continue
			}
			slots = append(slots, *turno.Slot)
		}
		return nil
	})
	sort.Slice(slots, func(i, j int) bool { return slots[i].Before(slots[j]) })
	return slots, err
}

func (s *Store) NextDailyNumber(ctx context.Context, day time.Time) (int, error) {
	var next int
	err := s.run(ctx, func(d *dataset) error {
		key := day.Format(constvars.DateLayout)
		d.sequences[key]++
		next = d.sequences[key]
		return nil
	})
	return next, err
}

// Catalog stock repository

func (s *Store) FindStock(ctx context.Context, kind models.LineItemKind, itemID string) (*int, error) {
	var out *int
	err := s.run(ctx, func(d *dataset) error {
		if item, ok := d.catalog[catalogKey{kind: kind, id: itemID}]; ok {
			stock := item.Stock
			out = &stock
		}
		return nil
	})
	return out, err
}

func (s *Store) DecrementStock(ctx context.Context, kind models.LineItemKind, itemID string, quantity int) (bool, error) {
	decremented := false
	err := s.run(ctx, func(d *dataset) error {
		key := catalogKey{kind: kind, id: itemID}
		item, ok := d.catalog[key]
		if !ok || item.Stock < quantity {
			return nil
		}
		item.Stock -= quantity
		d.catalog[key] = item
		decremented = true
		return nil
	})
	return decremented, err
}

func (s *Store) CreditStock(ctx context.Context, kind models.LineItemKind, itemID string, quantity int) error {
	return s.run(ctx, func(d *dataset) error {
		key := catalogKey{kind: kind, id: itemID}
		item, ok := d.catalog[key]
		if !ok {
			return exceptions.ErrCatalogItemNotFound(string(kind), itemID)
		}
		item.Stock += quantity
		d.catalog[key] = item
		return nil
	})
}

// Blocked date repository

func (s *Store) CreateBlockedDate(ctx context.Context, blockedDate *models.BlockedDate) error {
	return s.run(ctx, func(d *dataset) error {
		key := blockedDate.DayKey()
		if _, exists := d.blocked[key]; exists {
			return exceptions.ErrBlockedDateDuplicate(nil, key)
		}
		d.blocked[key] = *blockedDate
		return nil
	})
}

func (s *Store) DeleteBlockedDate(ctx context.Context, day time.Time) (bool, error) {
	deleted := false
	err := s.run(ctx, func(d *dataset) error {
		key := day.Format(constvars.DateLayout)
		if _, exists := d.blocked[key]; exists {
			delete(d.blocked, key)
			deleted = true
		}
		return nil
	})
	return deleted, err
}

func (s *Store) FindBlockedDate(ctx context.Context, day time.Time) (*models.BlockedDate, error) {
	var out *models.BlockedDate
	err := s.run(ctx, func(d *dataset) error {
		if blocked, ok := d.blocked[day.Format(constvars.DateLayout)]; ok {
			out = &blocked
		}
		return nil
	})
	return out, err
}

func (s *Store) FindAllBlockedDates(ctx context.Context) ([]models.BlockedDate, error) {
	return s.findBlocked(ctx, "", "")
}

func (s *Store) FindBlockedDatesBetween(ctx context.Context, from, to time.Time) ([]models.BlockedDate, error) {
	return s.findBlocked(ctx, from.Format(constvars.DateLayout), to.Format(constvars.DateLayout))
}

func (s *Store) findBlocked(ctx context.Context, fromKey, toKey string) ([]models.BlockedDate, error) {
	out := make([]models.BlockedDate, 0)
	err := s.run(ctx, func(d *dataset) error {
		for key, blocked := range d.blocked {
			if fromKey != "" && (key < fromKey || key > toKey) {
				continue
			}
			out = append(out, blocked)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].DayKey() < out[j].DayKey() })
	return out, err
}

// Document and transition history repositories

func (s *Store) CreateDocument(ctx context.Context, document *models.TurnoDocument) error {
	return s.run(ctx, func(d *dataset) error {
		d.documents[document.TurnoID] = append(d.documents[document.TurnoID], *document)
		return nil
	})
}

func (s *Store) FindDocumentsByTurnoID(ctx context.Context, turnoID string) ([]models.TurnoDocument, error) {
	var out []models.TurnoDocument
	err := s.run(ctx, func(d *dataset) error {
		out = append([]models.TurnoDocument(nil), d.documents[turnoID]...)
		return nil
	})
	return out, err
}

func (s *Store) InsertTransition(ctx context.Context, entry *models.TransitionLog) error {
	return s.run(ctx, func(d *dataset) error {
		d.transitions[entry.TurnoID] = append(d.transitions[entry.TurnoID], *entry)
		return nil
	})
}

func (s *Store) FindTransitionsByTurnoID(ctx context.Context, turnoID string) ([]models.TransitionLog, error) {
	var out []models.TransitionLog
	err := s.run(ctx, func(d *dataset) error {
		out = append([]models.TransitionLog(nil), d.transitions[turnoID]...)
		return nil
	})
	return out, err
}

func sameDay(a, b time.Time) bool {
	return a.Format(constvars.DateLayout) == b.In(a.Location()).Format(constvars.DateLayout)
}
