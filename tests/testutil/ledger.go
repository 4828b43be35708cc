package testutil

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shopledger/backend/internal/domain/catalog"
	"github.com/shopledger/backend/internal/domain/inventory"
	"github.com/shopledger/backend/internal/domain/shared"
	"github.com/shopledger/backend/internal/domain/trade"
)

// LedgerStore is an in-memory implementation of every repository the
// ledger touches. It enforces the same optimistic version check as the gorm
// repositories. Wrap it with inventory.NewNoOpTransactionScope.
type LedgerStore struct {
	mu        sync.Mutex
	records   map[uuid.UUID]inventory.InventoryRecord
	movements []inventory.Movement
	units     map[uuid.UUID]catalog.Unit
	purchases map[uuid.UUID]trade.Purchase
	sales     map[uuid.UUID]trade.Sale

	// interfere, when set, runs once against the stored record before the
	// next SaveWithLock compares versions, simulating a concurrent writer
	interfere func(stored *inventory.InventoryRecord)
	conflicts int
}

// NewLedgerStore creates an empty store
func NewLedgerStore() *LedgerStore {
	return &LedgerStore{
		records:   make(map[uuid.UUID]inventory.InventoryRecord),
		units:     make(map[uuid.UUID]catalog.Unit),
		purchases: make(map[uuid.UUID]trade.Purchase),
		sales:     make(map[uuid.UUID]trade.Sale),
	}
}

// Interfere registers a concurrent write applied before the next SaveWithLock
func (s *LedgerStore) Interfere(fn func(stored *inventory.InventoryRecord)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.interfere = fn
}

// Conflicts returns how many SaveWithLock calls failed the version check
func (s *LedgerStore) Conflicts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conflicts
}

// AddUnits stores units directly
func (s *LedgerStore) AddUnits(units ...*catalog.Unit) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range units {
		s.units[u.ID] = *u
	}
}

// Movements returns the movements of a record in insertion order
func (s *LedgerStore) Movements(inventoryID uuid.UUID) []inventory.Movement {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []inventory.Movement
	for _, m := range s.movements {
		if m.InventoryID == inventoryID {
			out = append(out, m)
		}
	}
	return out
}

// Inventory returns the store as an InventoryRecordRepository
func (s *LedgerStore) Inventory() inventory.InventoryRecordRepository { return (*memInventory)(s) }

// MovementLog returns the store as a MovementRepository
func (s *LedgerStore) MovementLog() inventory.MovementRepository { return (*memMovements)(s) }

// Units returns the store as a UnitRepository
func (s *LedgerStore) Units() catalog.UnitRepository { return (*memUnits)(s) }

// Purchases returns the store as a PurchaseRepository
func (s *LedgerStore) Purchases() trade.PurchaseRepository { return (*memPurchases)(s) }

// Sales returns the store as a SaleRepository
func (s *LedgerStore) Sales() trade.SaleRepository { return (*memSales)(s) }

func stored(r inventory.InventoryRecord) inventory.InventoryRecord {
	r.ClearDomainEvents()
	return r
}

func page[T any](items []T, filter shared.Filter) []T {
	if filter.PageSize <= 0 {
		return items
	}
	start := filter.Offset()
	if start > len(items) {
		return []T{}
	}
	end := start + filter.PageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

func filterUUID(filter shared.Filter, key string) (uuid.UUID, bool) {
	v, ok := filter.Filters[key]
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

func filterTime(filter shared.Filter, key string) (time.Time, bool) {
	v, ok := filter.Filters[key]
	if !ok {
		return time.Time{}, false
	}
	t, ok := v.(time.Time)
	return t, ok
}

type memInventory LedgerStore

func (m *memInventory) FindByID(_ context.Context, id uuid.UUID) (*inventory.InventoryRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &r, nil
}

func (m *memInventory) FindByProductAndShop(_ context.Context, productID, shopID uuid.UUID) (*inventory.InventoryRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.records {
		if r.ProductID == productID && r.ShopID == shopID {
			found := r
			return &found, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *memInventory) FindByShop(_ context.Context, shopID uuid.UUID) ([]inventory.InventoryRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []inventory.InventoryRecord
	for _, r := range m.records {
		if r.ShopID == shopID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memInventory) matching(filter shared.Filter) []inventory.InventoryRecord {
	shopID, byShop := filterUUID(filter, "shop_id")
	productID, byProduct := filterUUID(filter, "product_id")
	out := make([]inventory.InventoryRecord, 0)
	for _, r := range m.records {
		if byShop && r.ShopID != shopID {
			continue
		}
		if byProduct && r.ProductID != productID {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (m *memInventory) FindAll(_ context.Context, filter shared.Filter) ([]inventory.InventoryRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return page(m.matching(filter), filter), nil
}

func (m *memInventory) Count(_ context.Context, filter shared.Filter) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.matching(filter))), nil
}

func (m *memInventory) Create(_ context.Context, record *inventory.InventoryRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.records {
		if r.ProductID == record.ProductID && r.ShopID == record.ShopID {
			return shared.ErrAlreadyExists
		}
	}
	m.records[record.ID] = stored(*record)
	return nil
}

func (m *memInventory) SaveWithLock(_ context.Context, record *inventory.InventoryRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.records[record.ID]
	if !ok {
		return shared.ErrNotFound
	}
	if m.interfere != nil {
		fn := m.interfere
		m.interfere = nil
		fn(&current)
		m.records[record.ID] = current
	}
	if current.Version != record.Version-1 {
		m.conflicts++
		return shared.ErrConcurrencyConflict
	}
	m.records[record.ID] = stored(*record)
	return nil
}

func (m *memInventory) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.records, id)
	return nil
}

type memMovements LedgerStore

func (m *memMovements) Create(_ context.Context, movement *inventory.Movement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.movements = append(m.movements, *movement)
	return nil
}

func (m *memMovements) FindByInventory(_ context.Context, inventoryID uuid.UUID, filter shared.Filter) ([]inventory.Movement, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]inventory.Movement, 0)
	for i := len(m.movements) - 1; i >= 0; i-- {
		if m.movements[i].InventoryID == inventoryID {
			out = append(out, m.movements[i])
		}
	}
	return page(out, filter), int64(len(out)), nil
}

func (m *memMovements) HasSource(_ context.Context, inventoryID, sourceID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, mv := range m.movements {
		if mv.InventoryID == inventoryID && mv.SourceID != nil && *mv.SourceID == sourceID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memMovements) DeleteByInventory(_ context.Context, inventoryID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.movements[:0]
	for _, mv := range m.movements {
		if mv.InventoryID != inventoryID {
			kept = append(kept, mv)
		}
	}
	m.movements = kept
	return nil
}

type memUnits LedgerStore

func (m *memUnits) FindByID(_ context.Context, id uuid.UUID) (*catalog.Unit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.units[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &u, nil
}

func (m *memUnits) FindByProductID(_ context.Context, productID uuid.UUID) ([]catalog.Unit, error) {
	return m.FindByProductIDs(context.Background(), []uuid.UUID{productID})
}

func (m *memUnits) FindByProductIDs(_ context.Context, productIDs []uuid.UUID) ([]catalog.Unit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	want := make(map[uuid.UUID]bool, len(productIDs))
	for _, id := range productIDs {
		want[id] = true
	}
	out := make([]catalog.Unit, 0)
	for _, u := range m.units {
		if want[u.ProductID] {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *memUnits) FindAll(_ context.Context, filter shared.Filter) ([]catalog.Unit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]catalog.Unit, 0, len(m.units))
	for _, u := range m.units {
		out = append(out, u)
	}
	return page(out, filter), nil
}

func (m *memUnits) Count(_ context.Context, _ shared.Filter) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.units)), nil
}

func (m *memUnits) ExistsByTypeName(_ context.Context, productID uuid.UUID, typeName string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.units {
		if u.ProductID == productID && strings.EqualFold(u.TypeName, typeName) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memUnits) SaveBatch(_ context.Context, units []*catalog.Unit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range units {
		m.units[u.ID] = *u
	}
	return nil
}

func (m *memUnits) Save(ctx context.Context, unit *catalog.Unit) error {
	return m.SaveBatch(ctx, []*catalog.Unit{unit})
}

func (m *memUnits) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.units, id)
	return nil
}

func (m *memUnits) DeleteUnpairing(_ context.Context, id uuid.UUID, unpaired []*catalog.Unit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.units[id]; !ok {
		return shared.ErrNotFound
	}
	for _, u := range unpaired {
		m.units[u.ID] = *u
	}
	delete(m.units, id)
	return nil
}

func postingMatches(p trade.Posting, filter shared.Filter) bool {
	if id, ok := filterUUID(filter, "shop_id"); ok && p.ShopID != id {
		return false
	}
	if id, ok := filterUUID(filter, "product_id"); ok && p.ProductID != id {
		return false
	}
	if from, ok := filterTime(filter, "from"); ok && p.Date.Before(from) {
		return false
	}
	if to, ok := filterTime(filter, "to"); ok && !p.Date.Before(to) {
		return false
	}
	return true
}

type memPurchases LedgerStore

func (m *memPurchases) FindByID(_ context.Context, id uuid.UUID) (*trade.Purchase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.purchases[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &p, nil
}

func (m *memPurchases) FindByIdempotencyKey(_ context.Context, key string) (*trade.Purchase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.purchases {
		if key != "" && p.IdempotencyKey == key {
			found := p
			return &found, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *memPurchases) list(filter shared.Filter) []trade.Purchase {
	out := make([]trade.Purchase, 0)
	for _, p := range m.purchases {
		if postingMatches(p.Posting, filter) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out
}

func (m *memPurchases) FindAll(_ context.Context, filter shared.Filter) ([]trade.Purchase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return page(m.list(filter), filter), nil
}

func (m *memPurchases) Count(_ context.Context, filter shared.Filter) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.list(filter))), nil
}

func (m *memPurchases) FindByShopBetween(_ context.Context, shopID uuid.UUID, from, to time.Time) ([]trade.Purchase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	filter := shared.Filter{Filters: map[string]any{"shop_id": shopID, "from": from, "to": to}}
	return m.list(filter), nil
}

func (m *memPurchases) FindByShop(_ context.Context, shopID uuid.UUID) ([]trade.Purchase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.list(shared.Filter{Filters: map[string]any{"shop_id": shopID}}), nil
}

func (m *memPurchases) FindSources(_ context.Context, shopID *uuid.UUID) ([]trade.PurchaseSource, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	suppliers := make(map[string]bool)
	markets := make(map[string]bool)
	for _, p := range m.purchases {
		if shopID != nil && p.ShopID != *shopID {
			continue
		}
		if p.SupplierName != "" {
			suppliers[p.SupplierName] = true
		}
		if p.MarketName != "" {
			markets[p.MarketName] = true
		}
	}
	sources := make([]trade.PurchaseSource, 0, len(suppliers)+len(markets))
	for _, group := range []struct {
		names map[string]bool
		kind  string
	}{{suppliers, trade.SourceSupplier}, {markets, trade.SourceMarket}} {
		names := make([]string, 0, len(group.names))
		for name := range group.names {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			sources = append(sources, trade.PurchaseSource{Name: name, Type: group.kind})
		}
	}
	return sources, nil
}

func (m *memPurchases) Save(_ context.Context, purchase *trade.Purchase) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.purchases[purchase.ID] = *purchase
	return nil
}

func (m *memPurchases) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.purchases, id)
	return nil
}

type memSales LedgerStore

func (m *memSales) FindByID(_ context.Context, id uuid.UUID) (*trade.Sale, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sales[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &s, nil
}

func (m *memSales) FindByIdempotencyKey(_ context.Context, key string) (*trade.Sale, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sales {
		if key != "" && s.IdempotencyKey == key {
			found := s
			return &found, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *memSales) list(filter shared.Filter) []trade.Sale {
	out := make([]trade.Sale, 0)
	for _, s := range m.sales {
		if postingMatches(s.Posting, filter) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out
}

func (m *memSales) FindAll(_ context.Context, filter shared.Filter) ([]trade.Sale, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return page(m.list(filter), filter), nil
}

func (m *memSales) Count(_ context.Context, filter shared.Filter) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.list(filter))), nil
}

func (m *memSales) FindByShopBetween(_ context.Context, shopID uuid.UUID, from, to time.Time) ([]trade.Sale, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	filter := shared.Filter{Filters: map[string]any{"shop_id": shopID, "from": from, "to": to}}
	return m.list(filter), nil
}

func (m *memSales) FindByShop(_ context.Context, shopID uuid.UUID) ([]trade.Sale, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.list(shared.Filter{Filters: map[string]any{"shop_id": shopID}}), nil
}

func (m *memSales) FindLatestByProductAndUnit(_ context.Context, productID, unitID uuid.UUID) (*trade.Sale, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var latest *trade.Sale
	for _, s := range m.sales {
		if s.ProductID != productID || s.UnitID != unitID {
			continue
		}
		if latest == nil || s.Date.After(latest.Date) {
			found := s
			latest = &found
		}
	}
	if latest == nil {
		return nil, shared.ErrNotFound
	}
	return latest, nil
}

func (m *memSales) Save(_ context.Context, sale *trade.Sale) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sales[sale.ID] = *sale
	return nil
}

func (m *memSales) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sales, id)
	return nil
}
