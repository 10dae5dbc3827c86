package service

import (
	"sort"
	"sync"
	"time"

	"ireporter/internal/domain"
	"ireporter/internal/models"
	"ireporter/internal/repository"

	"gorm.io/gorm"
)

// In-memory stand-ins for the gorm repositories, implementing the same
// contracts the stores promise.

type fakeUserStore struct {
	users       map[uint]*models.User
	nextID      uint
	createCalls int
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[uint]*models.User{}}
}

func (f *fakeUserStore) add(u models.User) *models.User {
	f.nextID++
	u.ID = f.nextID
	f.users[u.ID] = &u
	return &u
}

func (f *fakeUserStore) Create(u *models.User) error {
	f.createCalls++
	f.nextID++
	u.ID = f.nextID
	cp := *u
	f.users[u.ID] = &cp
	return nil
}

func (f *fakeUserStore) GetByID(id uint) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserStore) GetByEmail(email string) (*models.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserStore) GetByGoogleID(googleID string) (*models.User, error) {
	for _, u := range f.users {
		if u.GoogleID != nil && *u.GoogleID == googleID {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserStore) Update(u *models.User) error {
	cp := *u
	f.users[u.ID] = &cp
	return nil
}

func (f *fakeUserStore) ListAdmins() ([]models.User, error) {
	var admins []models.User
	for _, u := range f.users {
		if u.Role == domain.RoleAdmin {
			admins = append(admins, *u)
		}
	}
	sort.Slice(admins, func(i, j int) bool { return admins[i].ID < admins[j].ID })
	return admins, nil
}

type fakeReportStore struct {
	mu         sync.Mutex
	reports    map[uint]*models.Report
	history    map[uint][]models.StatusHistory
	evidence   map[uint][]models.Evidence
	nextID     uint
	nextHistID uint
}

func newFakeReportStore() *fakeReportStore {
	return &fakeReportStore{
		reports:  map[uint]*models.Report{},
		history:  map[uint][]models.StatusHistory{},
		evidence: map[uint][]models.Evidence{},
	}
}

func (f *fakeReportStore) CreateWithAssociations(report *models.Report, history *models.StatusHistory, evidence []models.Evidence) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	report.ID = f.nextID
	report.CreatedAt = time.Now()
	report.UpdatedAt = report.CreatedAt
	cp := *report
	f.reports[report.ID] = &cp

	f.nextHistID++
	history.ID = f.nextHistID
	history.ReportID = report.ID
	history.CreatedAt = time.Now()
	f.history[report.ID] = []models.StatusHistory{*history}

	for i := range evidence {
		evidence[i].ID = uint(i + 1)
		evidence[i].ReportID = report.ID
	}
	f.evidence[report.ID] = evidence

	report.StatusHistory = f.history[report.ID]
	report.Evidence = evidence
	return nil
}

func (f *fakeReportStore) List(filter repository.ReportFilter) ([]models.Report, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Report
	for _, r := range f.reports {
		if filter.UserID != 0 && r.UserID != filter.UserID {
			continue
		}
		if filter.ReportType != "" && r.ReportType != filter.ReportType {
			continue
		}
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		cp := *r
		cp.StatusHistory = f.historyFor(r.ID, true)
		cp.Evidence = f.evidence[r.ID]
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (f *fakeReportStore) GetByID(id uint) (*models.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.getByID(id)
}

func (f *fakeReportStore) getByID(id uint) (*models.Report, error) {
	r, ok := f.reports[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *r
	cp.StatusHistory = f.historyFor(id, false)
	cp.Evidence = f.evidence[id]
	return &cp, nil
}

func (f *fakeReportStore) UpdateContent(id, ownerID uint, updates map[string]interface{}) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reports[id]
	if !ok || r.UserID != ownerID || r.Status != domain.StatusPending {
		return 0, nil
	}
	if v, ok := updates["title"]; ok {
		r.Title = v.(string)
	}
	if v, ok := updates["description"]; ok {
		r.Description = v.(string)
	}
	if v, ok := updates["report_type"]; ok {
		r.ReportType = v.(string)
	}
	if v, ok := updates["location"]; ok {
		r.Location = v.(string)
	}
	if v, ok := updates["latitude"]; ok {
		r.Latitude = v.(*float64)
	}
	if v, ok := updates["longitude"]; ok {
		r.Longitude = v.(*float64)
	}
	r.UpdatedAt = time.Now()
	return 1, nil
}

func (f *fakeReportStore) Delete(id, ownerID uint) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reports[id]
	if !ok {
		return 0, nil
	}
	if ownerID != 0 && r.UserID != ownerID {
		return 0, nil
	}
	delete(f.reports, id)
	delete(f.history, id)
	delete(f.evidence, id)
	return 1, nil
}

// AppendTransition updates the live status and appends the history entry
// under one lock, the same atomicity the real repository gets from its
// transaction.
func (f *fakeReportStore) AppendTransition(reportID uint, status, note string, actorID uint) (*models.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reports[reportID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	r.Status = status
	r.UpdatedAt = time.Now()
	f.nextHistID++
	f.history[reportID] = append(f.history[reportID], models.StatusHistory{
		ID:        f.nextHistID,
		ReportID:  reportID,
		Status:    status,
		Note:      note,
		ChangedBy: actorID,
		CreatedAt: time.Now(),
	})
	return f.getByID(reportID)
}

func (f *fakeReportStore) historyFor(id uint, newestFirst bool) []models.StatusHistory {
	entries := append([]models.StatusHistory(nil), f.history[id]...)
	sort.Slice(entries, func(i, j int) bool {
		if newestFirst {
			return entries[i].ID > entries[j].ID
		}
		return entries[i].ID < entries[j].ID
	})
	return entries
}

type fakeNotificationStore struct {
	rows   []models.Notification
	nextID uint
}

func (f *fakeNotificationStore) Create(n *models.Notification) error {
	f.nextID++
	n.ID = f.nextID
	n.CreatedAt = time.Now()
	f.rows = append(f.rows, *n)
	return nil
}

func (f *fakeNotificationStore) ListByUser(userID uint) ([]models.Notification, error) {
	var out []models.Notification
	for i := len(f.rows) - 1; i >= 0; i-- {
		if f.rows[i].UserID == userID {
			out = append(out, f.rows[i])
		}
	}
	return out, nil
}

func (f *fakeNotificationStore) MarkRead(id, userID uint) (int64, error) {
	for i := range f.rows {
		if f.rows[i].ID == id && f.rows[i].UserID == userID {
			f.rows[i].IsRead = true
			return 1, nil
		}
	}
	return 0, nil
}

func (f *fakeNotificationStore) MarkAllRead(userID uint) error {
	for i := range f.rows {
		if f.rows[i].UserID == userID {
			f.rows[i].IsRead = true
		}
	}
	return nil
}

func (f *fakeNotificationStore) Delete(id, userID uint) (int64, error) {
	for i := range f.rows {
		if f.rows[i].ID == id && f.rows[i].UserID == userID {
			f.rows = append(f.rows[:i], f.rows[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

type fakeNotifier struct {
	created       []*models.Report
	statusChanged []*models.Report
}

func (f *fakeNotifier) NotifyReportCreated(r *models.Report) { f.created = append(f.created, r) }
func (f *fakeNotifier) NotifyStatusChanged(r *models.Report) {
	f.statusChanged = append(f.statusChanged, r)
}
