package repository

import (
	"time"

	"ireporter/internal/models"

	"gorm.io/gorm"
)

// ReportFilter scopes and paginates report listings. UserID of zero means
// no owner scoping (admin view).
type ReportFilter struct {
	UserID     uint
	ReportType string
	Status     string
	Page       int
	Limit      int
}

type ReportRepository struct {
	db *gorm.DB
}

func NewReportRepository(db *gorm.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// CreateWithAssociations persists a report together with its initial status
// history entry and evidence rows in a single transaction.
func (r *ReportRepository) CreateWithAssociations(report *models.Report, history *models.StatusHistory, evidence []models.Evidence) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(report).Error; err != nil {
			return err
		}
		history.ReportID = report.ID
		if err := tx.Create(history).Error; err != nil {
			return err
		}
		for i := range evidence {
			evidence[i].ReportID = report.ID
		}
		if len(evidence) > 0 {
			if err := tx.Create(&evidence).Error; err != nil {
				return err
			}
		}
		report.StatusHistory = []models.StatusHistory{*history}
		report.Evidence = evidence
		return nil
	})
}

// List returns a page of reports with a total count over the same filters.
// Each report carries its evidence and status history newest-first.
func (r *ReportRepository) List(f ReportFilter) ([]models.Report, int64, error) {
	q := r.db.Model(&models.Report{})
	if f.UserID != 0 {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.ReportType != "" {
		q = q.Where("report_type = ?", f.ReportType)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var reports []models.Report
	err := q.Preload("Evidence").
		Order("created_at DESC").
		Limit(f.Limit).Offset((f.Page - 1) * f.Limit).
		Find(&reports).Error
	if err != nil {
		return nil, 0, err
	}
	if err := r.attachHistory(reports, true); err != nil {
		return nil, 0, err
	}
	return reports, total, nil
}

// GetByID returns one report with evidence and status history oldest-first.
func (r *ReportRepository) GetByID(id uint) (*models.Report, error) {
	var report models.Report
	err := r.db.Preload("Evidence").First(&report, id).Error
	if err != nil {
		return nil, err
	}
	history, err := r.history([]uint{id}, false)
	if err != nil {
		return nil, err
	}
	report.StatusHistory = history
	return &report, nil
}

// UpdateContent applies content edits to a report owned by ownerID that is
// still pending. Returns the number of rows matched; zero covers both
// "does not exist" and "not editable".
func (r *ReportRepository) UpdateContent(id, ownerID uint, updates map[string]interface{}) (int64, error) {
	res := r.db.Model(&models.Report{}).
		Where("id = ? AND user_id = ? AND status = ?", id, ownerID, "pending").
		Updates(updates)
	return res.RowsAffected, res.Error
}

// Delete removes a report and cascades to its evidence and status history.
// ownerID of zero skips the ownership check (admin delete). Returns the
// number of report rows deleted.
func (r *ReportRepository) Delete(id, ownerID uint) (int64, error) {
	var deleted int64
	err := r.db.Transaction(func(tx *gorm.DB) error {
		q := tx.Where("id = ?", id)
		if ownerID != 0 {
			q = q.Where("user_id = ?", ownerID)
		}
		res := q.Delete(&models.Report{})
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected
		if deleted == 0 {
			return nil
		}
		if err := tx.Where("report_id = ?", id).Delete(&models.Evidence{}).Error; err != nil {
			return err
		}
		return tx.Where("report_id = ?", id).Delete(&models.StatusHistory{}).Error
	})
	return deleted, err
}

// AppendTransition writes a new status history entry and updates the live
// status field atomically. A torn write between the two is the main bug this
// repository guards against, so both happen in one transaction.
func (r *ReportRepository) AppendTransition(reportID uint, status, note string, actorID uint) (*models.Report, error) {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Report{}).
			Where("id = ?", reportID).
			Updates(map[string]interface{}{"status": status, "updated_at": time.Now()})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Create(&models.StatusHistory{
			ReportID:  reportID,
			Status:    status,
			Note:      note,
			ChangedBy: actorID,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return r.GetByID(reportID)
}

// ListHistory returns the status history for one report with actor names.
func (r *ReportRepository) ListHistory(reportID uint, newestFirst bool) ([]models.StatusHistory, error) {
	return r.history([]uint{reportID}, newestFirst)
}

func (r *ReportRepository) attachHistory(reports []models.Report, newestFirst bool) error {
	if len(reports) == 0 {
		return nil
	}
	ids := make([]uint, len(reports))
	for i := range reports {
		ids[i] = reports[i].ID
	}
	entries, err := r.history(ids, newestFirst)
	if err != nil {
		return err
	}
	byReport := make(map[uint][]models.StatusHistory, len(reports))
	for _, e := range entries {
		byReport[e.ReportID] = append(byReport[e.ReportID], e)
	}
	for i := range reports {
		reports[i].StatusHistory = byReport[reports[i].ID]
	}
	return nil
}

// history loads entries joined with the acting user's display name.
func (r *ReportRepository) history(reportIDs []uint, newestFirst bool) ([]models.StatusHistory, error) {
	order := "status_history.created_at ASC, status_history.id ASC"
	if newestFirst {
		order = "status_history.created_at DESC, status_history.id DESC"
	}
	var entries []models.StatusHistory
	err := r.db.Model(&models.StatusHistory{}).
		Select("status_history.*, CONCAT(users.first_name, ' ', users.last_name) AS changed_by_name").
		Joins("LEFT JOIN users ON users.id = status_history.changed_by").
		Where("status_history.report_id IN ?", reportIDs).
		Order(order).
		Find(&entries).Error
	return entries, err
}
