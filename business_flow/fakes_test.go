package businessflow

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/amirphl/Hotspot-Ledger/app/services"
	"github.com/amirphl/Hotspot-Ledger/models"
	"github.com/amirphl/Hotspot-Ledger/utils"
)

// memRepo is an in-memory Repository[T, F]. Entities are stored and returned as copies.
type memRepo[T any, F any] struct {
	mu      sync.Mutex
	items   []T
	nextID  uint
	saveErr error
	idOf    func(*T) uint
	setID   func(*T, uint)
	match   func(*T, F) bool
	onSave  func(*T)
}

func (r *memRepo[T, F]) ByID(_ context.Context, id uint) (*T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.items {
		if r.idOf(&r.items[i]) == id {
			v := r.items[i]
			return &v, nil
		}
	}
	return nil, nil
}

func (r *memRepo[T, F]) ByFilter(_ context.Context, filter F, _ string, limit, offset int) ([]*T, error) {
	out := r.where(func(v *T) bool { return r.match(v, filter) })
	if offset > 0 {
		if offset >= len(out) {
			return []*T{}, nil
		}
		out = out[offset:]
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memRepo[T, F]) where(pred func(*T) bool) []*T {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*T, 0)
	for i := range r.items {
		if pred(&r.items[i]) {
			v := r.items[i]
			out = append(out, &v)
		}
	}
	return out
}

func (r *memRepo[T, F]) Save(_ context.Context, entity *T) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	r.nextID++
	r.setID(entity, r.nextID)
	if r.onSave != nil {
		r.onSave(entity)
	}
	r.items = append(r.items, *entity)
	return nil
}

func (r *memRepo[T, F]) SaveBatch(ctx context.Context, entities []*T) error {
	for _, e := range entities {
		if err := r.Save(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

func (r *memRepo[T, F]) Count(ctx context.Context, filter F) (int64, error) {
	out, _ := r.ByFilter(ctx, filter, "", 0, 0)
	return int64(len(out)), nil
}

func (r *memRepo[T, F]) Exists(ctx context.Context, filter F) (bool, error) {
	n, _ := r.Count(ctx, filter)
	return n > 0, nil
}

func (r *memRepo[T, F]) update(id uint, fn func(*T)) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.items {
		if r.idOf(&r.items[i]) == id {
			fn(&r.items[i])
			return true
		}
	}
	return false
}

func (r *memRepo[T, F]) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

// traders

type fakeTraderRepo struct {
	*memRepo[models.Trader, models.TraderFilter]
}

func newFakeTraderRepo() *fakeTraderRepo {
	return &fakeTraderRepo{&memRepo[models.Trader, models.TraderFilter]{
		idOf:  func(t *models.Trader) uint { return t.ID },
		setID: func(t *models.Trader, id uint) { t.ID = id },
		match: func(t *models.Trader, f models.TraderFilter) bool {
			if f.Phone != nil && t.Phone != *f.Phone {
				return false
			}
			if f.IsActive != nil && t.Active() != *f.IsActive {
				return false
			}
			return true
		},
		onSave: func(t *models.Trader) {
			if t.UUID == uuid.Nil {
				t.UUID = uuid.New()
			}
			t.CreatedAt = utils.UTCNow()
			t.UpdatedAt = t.CreatedAt
		},
	}}
}

func (r *fakeTraderRepo) seed(phone string) *models.Trader {
	t := &models.Trader{Phone: phone, Name: "Trader " + phone, IsActive: utils.ToPtr(true)}
	_ = r.Save(context.Background(), t)
	return t
}

func (r *fakeTraderRepo) Save(ctx context.Context, t *models.Trader) error {
	if found := r.where(func(v *models.Trader) bool { return v.Phone == t.Phone }); len(found) > 0 {
		return gorm.ErrDuplicatedKey
	}
	return r.memRepo.Save(ctx, t)
}

func (r *fakeTraderRepo) ByPhone(_ context.Context, phone string) (*models.Trader, error) {
	found := r.where(func(t *models.Trader) bool { return t.Phone == phone })
	if len(found) == 0 {
		return nil, nil
	}
	return found[len(found)-1], nil
}

func (r *fakeTraderRepo) SetActive(_ context.Context, id uint, active bool) error {
	r.update(id, func(t *models.Trader) { t.IsActive = utils.ToPtr(active) })
	return nil
}

// transactions

type fakeTxRepo struct {
	*memRepo[models.Transaction, models.TransactionFilter]
}

func newFakeTxRepo() *fakeTxRepo {
	return &fakeTxRepo{&memRepo[models.Transaction, models.TransactionFilter]{
		idOf:  func(t *models.Transaction) uint { return t.ID },
		setID: func(t *models.Transaction, id uint) { t.ID = id },
		match: func(t *models.Transaction, f models.TransactionFilter) bool {
			return f.TraderID == nil || t.TraderID == *f.TraderID
		},
		onSave: func(t *models.Transaction) {
			if t.UUID == uuid.Nil {
				t.UUID = uuid.New()
			}
		},
	}}
}

func (r *fakeTxRepo) ByUUID(_ context.Context, id string) (*models.Transaction, error) {
	found := r.where(func(t *models.Transaction) bool { return t.UUID.String() == id })
	if len(found) == 0 {
		return nil, nil
	}
	return found[0], nil
}

func (r *fakeTxRepo) ListByTraderAscending(_ context.Context, traderID uint) ([]*models.Transaction, error) {
	out := r.where(func(t *models.Transaction) bool { return t.TraderID == traderID })
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *fakeTxRepo) ListByTraderRecent(ctx context.Context, traderID uint, limit int) ([]*models.Transaction, error) {
	asc, _ := r.ListByTraderAscending(ctx, traderID)
	out := make([]*models.Transaction, 0, len(asc))
	for i := len(asc) - 1; i >= 0; i-- {
		out = append(out, asc[i])
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeTxRepo) SumMagnitudeByKind(_ context.Context, traderID uint, kind models.TransactionKind) (int64, error) {
	var total int64
	for _, t := range r.where(func(t *models.Transaction) bool { return t.TraderID == traderID && t.Kind == kind }) {
		total += utils.AbsMinor(t.AmountMinor)
	}
	return total, nil
}

// clients

type fakeClientRepo struct {
	*memRepo[models.Client, models.ClientFilter]
}

func newFakeClientRepo() *fakeClientRepo {
	return &fakeClientRepo{&memRepo[models.Client, models.ClientFilter]{
		idOf:  func(c *models.Client) uint { return c.ID },
		setID: func(c *models.Client, id uint) { c.ID = id },
		match: func(c *models.Client, f models.ClientFilter) bool {
			return f.TraderID == nil || c.TraderID == *f.TraderID
		},
		onSave: func(c *models.Client) { c.CreatedAt = utils.UTCNow() },
	}}
}

func (r *fakeClientRepo) seed(traderID uint, phone, mac string) *models.Client {
	c := &models.Client{TraderID: traderID, Phone: phone, MACAddress: mac, Rewarded: utils.ToPtr(false)}
	_ = r.Save(context.Background(), c)
	return c
}

func (r *fakeClientRepo) ListByTrader(_ context.Context, traderID uint) ([]*models.Client, error) {
	return r.where(func(c *models.Client) bool { return c.TraderID == traderID }), nil
}

func (r *fakeClientRepo) ByTraderAndPhone(_ context.Context, traderID uint, phone string) (*models.Client, error) {
	found := r.where(func(c *models.Client) bool { return c.TraderID == traderID && c.Phone == phone })
	if len(found) == 0 {
		return nil, nil
	}
	return found[0], nil
}

func (r *fakeClientRepo) ByTraderAndMAC(_ context.Context, traderID uint, mac string) (*models.Client, error) {
	found := r.where(func(c *models.Client) bool { return c.TraderID == traderID && c.MACAddress == mac })
	if len(found) == 0 {
		return nil, nil
	}
	return found[0], nil
}

func (r *fakeClientRepo) SetRewarded(_ context.Context, id uint, rewarded bool) error {
	r.update(id, func(c *models.Client) { c.Rewarded = utils.ToPtr(rewarded) })
	return nil
}

// pricing tiers

type fakeTierRepo struct {
	*memRepo[models.PricingTier, models.PricingTierFilter]
}

func newFakeTierRepo() *fakeTierRepo {
	return &fakeTierRepo{&memRepo[models.PricingTier, models.PricingTierFilter]{
		idOf:  func(t *models.PricingTier) uint { return t.ID },
		setID: func(t *models.PricingTier, id uint) { t.ID = id },
		match: func(t *models.PricingTier, f models.PricingTierFilter) bool {
			return f.TraderID == nil || t.TraderID == *f.TraderID
		},
	}}
}

func (r *fakeTierRepo) ByTraderAndCategory(_ context.Context, traderID uint, c models.PricingCategory) (*models.PricingTier, error) {
	found := r.where(func(t *models.PricingTier) bool { return t.TraderID == traderID && t.Category == c })
	if len(found) == 0 {
		return nil, nil
	}
	return found[0], nil
}

func (r *fakeTierRepo) ListByTrader(_ context.Context, traderID uint) ([]*models.PricingTier, error) {
	return r.where(func(t *models.PricingTier) bool { return t.TraderID == traderID }), nil
}

func (r *fakeTierRepo) Upsert(ctx context.Context, tier *models.PricingTier) error {
	tier.UpdatedAt = utils.UTCNow()
	existing, _ := r.ByTraderAndCategory(ctx, tier.TraderID, tier.Category)
	if existing == nil {
		return r.Save(ctx, tier)
	}
	tier.ID = existing.ID
	r.update(existing.ID, func(t *models.PricingTier) { *t = *tier })
	return nil
}

// devices

type fakeDeviceRepo struct {
	*memRepo[models.Device, models.DeviceFilter]
}

func newFakeDeviceRepo() *fakeDeviceRepo {
	return &fakeDeviceRepo{&memRepo[models.Device, models.DeviceFilter]{
		idOf:  func(d *models.Device) uint { return d.ID },
		setID: func(d *models.Device, id uint) { d.ID = id },
		match: func(d *models.Device, f models.DeviceFilter) bool {
			return f.IsActive == nil || d.Active() == *f.IsActive
		},
		onSave: func(d *models.Device) {
			if d.UUID == uuid.Nil {
				d.UUID = uuid.New()
			}
		},
	}}
}

func (r *fakeDeviceRepo) ListAll(_ context.Context) ([]*models.Device, error) {
	return r.where(func(*models.Device) bool { return true }), nil
}

func (r *fakeDeviceRepo) ListActive(_ context.Context) ([]*models.Device, error) {
	return r.where(func(d *models.Device) bool { return d.Active() }), nil
}

func (r *fakeDeviceRepo) Update(_ context.Context, d *models.Device) error {
	if !r.update(d.ID, func(v *models.Device) { *v = *d }) {
		return errors.New("device not found")
	}
	return nil
}

func (r *fakeDeviceRepo) Delete(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.items {
		if r.items[i].ID == id {
			r.items = append(r.items[:i], r.items[i+1:]...)
			return nil
		}
	}
	return nil
}

func (r *fakeDeviceRepo) TouchLastSeen(_ context.Context, id uint, at time.Time) error {
	r.update(id, func(d *models.Device) { d.LastSeenAt = &at })
	return nil
}

// audit

type fakeAuditRepo struct {
	*memRepo[models.AuditLog, models.AuditLogFilter]
}

func newFakeAuditRepo() *fakeAuditRepo {
	return &fakeAuditRepo{&memRepo[models.AuditLog, models.AuditLogFilter]{
		idOf:  func(a *models.AuditLog) uint { return a.ID },
		setID: func(a *models.AuditLog, id uint) { a.ID = id },
		match: func(a *models.AuditLog, f models.AuditLogFilter) bool {
			return f.Action == nil || a.Action == *f.Action
		},
	}}
}

func (r *fakeAuditRepo) ListByTrader(_ context.Context, traderID uint, limit, offset int) ([]*models.AuditLog, error) {
	return r.where(func(a *models.AuditLog) bool { return a.TraderID != nil && *a.TraderID == traderID }), nil
}

func (r *fakeAuditRepo) ListFailedActions(_ context.Context, limit, offset int) ([]*models.AuditLog, error) {
	return r.where(func(a *models.AuditLog) bool { return a.IsFailed() }), nil
}

func (r *fakeAuditRepo) actions() []string {
	var out []string
	for _, a := range r.where(func(*models.AuditLog) bool { return true }) {
		out = append(out, a.Action)
	}
	return out
}

// idempotency

type memIdempotencyStore struct {
	mu     sync.Mutex
	values map[string]string
}

func newMemIdempotencyStore() *memIdempotencyStore {
	return &memIdempotencyStore{values: make(map[string]string)}
}

func (s *memIdempotencyStore) Reserve(_ context.Context, key string, _ time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.values[key]; ok {
		return false, nil
	}
	s.values[key] = idempotencyPending
	return true, nil
}

func (s *memIdempotencyStore) Lookup(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *memIdempotencyStore) Complete(_ context.Context, key, value string, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

func (s *memIdempotencyStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}

// device client

type fakeDeviceClient struct {
	sessions     []services.Session
	users        []services.UserRecord
	ifaces       []services.Interface
	err          error
	reachable    bool
	disconnected []string
}

func (c *fakeDeviceClient) TestConnection(context.Context) (bool, error) {
	return c.reachable, nil
}

func (c *fakeDeviceClient) ListActiveSessions(context.Context) ([]services.Session, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.sessions, nil
}

func (c *fakeDeviceClient) ListUsers(context.Context) ([]services.UserRecord, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.users, nil
}

func (c *fakeDeviceClient) DisconnectSession(_ context.Context, id string) error {
	if c.err != nil {
		return c.err
	}
	c.disconnected = append(c.disconnected, id)
	return nil
}

func (c *fakeDeviceClient) ListAvailableInterfaces(context.Context) ([]services.Interface, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.ifaces, nil
}

type fakeFactory struct {
	client *fakeDeviceClient
	params []services.DeviceParams
}

func (f *fakeFactory) New(params services.DeviceParams) (services.DeviceClient, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	f.params = append(f.params, params)
	return f.client, nil
}

// notification

type recordingSink struct {
	messages chan string
}

func newRecordingSink() *recordingSink {
	return &recordingSink{messages: make(chan string, 64)}
}

func (s *recordingSink) Send(_ context.Context, _ string, text string) bool {
	s.messages <- text
	return true
}
