package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"kursusku_backend/internals/features/certificates/model"
	courseModel "kursusku_backend/internals/features/courses/course/model"
	enrollmentModel "kursusku_backend/internals/features/courses/enrollment/model"
	userModel "kursusku_backend/internals/features/users/user/model"
)

type CertificateRepository struct {
	DB *gorm.DB
}

func NewCertificateRepository(db *gorm.DB) *CertificateRepository {
	return &CertificateRepository{DB: db}
}

/* ====================== LOOKUPS (lintas fitur) ====================== */

func (r *CertificateRepository) FindCourse(ctx context.Context, courseID uuid.UUID) (*courseModel.CourseModel, error) {
	var c courseModel.CourseModel
	if err := r.DB.WithContext(ctx).First(&c, "course_id = ?", courseID).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CertificateRepository) FindEnrollment(ctx context.Context, enrollmentID uuid.UUID) (*enrollmentModel.EnrollmentModel, error) {
	var e enrollmentModel.EnrollmentModel
	if err := r.DB.WithContext(ctx).First(&e, "enrollment_id = ?", enrollmentID).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *CertificateRepository) FindStudent(ctx context.Context, userID uuid.UUID) (*userModel.UserModel, error) {
	var u userModel.UserModel
	if err := r.DB.WithContext(ctx).First(&u, "id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

/* ====================== BATCH ====================== */

// CreateBatch menyimpan batch + seluruh sertifikatnya dalam satu transaksi.
func (r *CertificateRepository) CreateBatch(ctx context.Context, batch *model.CertificateBatchModel, certs []model.CertificateModel) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(batch).Error; err != nil {
			return err
		}
		for i := range certs {
			certs[i].CertificateBatchID = &batch.BatchID
		}
		return tx.CreateInBatches(certs, 200).Error
	})
}

func (r *CertificateRepository) FindBatch(ctx context.Context, batchID uuid.UUID) (*model.CertificateBatchModel, error) {
	var b model.CertificateBatchModel
	if err := r.DB.WithContext(ctx).First(&b, "certificate_batch_id = ?", batchID).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *CertificateRepository) ListBatches(ctx context.Context, courseID *uuid.UUID) ([]model.CertificateBatchModel, error) {
	q := r.DB.WithContext(ctx).Model(&model.CertificateBatchModel{})
	if courseID != nil {
		q = q.Where("certificate_batch_course_id = ?", *courseID)
	}
	var rows []model.CertificateBatchModel
	err := q.Order("certificate_batch_created_at DESC").Find(&rows).Error
	return rows, err
}

func (r *CertificateRepository) ListByBatch(ctx context.Context, batchID uuid.UUID) ([]model.CertificateModel, error) {
	var rows []model.CertificateModel
	err := r.DB.WithContext(ctx).
		Where("certificate_batch_id = ?", batchID).
		Order("certificate_sequence_number ASC").
		Find(&rows).Error
	return rows, err
}

/* ====================== CERTIFICATE ====================== */

func (r *CertificateRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.CertificateModel, error) {
	var c model.CertificateModel
	if err := r.DB.WithContext(ctx).First(&c, "certificate_id = ?", id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CertificateRepository) FindByEnrollment(ctx context.Context, enrollmentID uuid.UUID) (*model.CertificateModel, error) {
	var c model.CertificateModel
	if err := r.DB.WithContext(ctx).
		Where("certificate_enrollment_id = ?", enrollmentID).
		First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// AvailableCandidates: urutan FIFO: batch tertua dulu, lalu sequence terkecil.
func (r *CertificateRepository) AvailableCandidates(ctx context.Context, courseID uuid.UUID, limit int) ([]model.CertificateModel, error) {
	var rows []model.CertificateModel
	err := r.DB.WithContext(ctx).
		Table("certificates AS c").
		Select("c.*").
		Joins("LEFT JOIN certificate_batches b ON b.certificate_batch_id = c.certificate_batch_id").
		Where("c.certificate_course_id = ? AND c.certificate_status = ?", courseID, model.CertificateAvailable).
		Order("COALESCE(b.certificate_batch_created_at, c.certificate_created_at) ASC").
		Order("c.certificate_sequence_number ASC").
		Order("c.certificate_id ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// TryAssign: CAS available → assigned. false berarti kalah balapan.
// Unique enrollment_id yang bentrok dikembalikan sebagai gorm.ErrDuplicatedKey.
func (r *CertificateRepository) TryAssign(ctx context.Context, certID, enrollmentID, studentID uuid.UUID, now time.Time) (bool, error) {
	res := r.DB.WithContext(ctx).
		Model(&model.CertificateModel{}).
		Where("certificate_id = ? AND certificate_status = ?", certID, model.CertificateAvailable).
		Updates(map[string]any{
			"certificate_status":        model.CertificateAssigned,
			"certificate_enrollment_id": enrollmentID,
			"certificate_assigned_to":   studentID,
			"certificate_assigned_date": now,
			"certificate_issue_date":    gorm.Expr("COALESCE(certificate_issue_date, ?)", now),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// TryMarkAccessed: CAS assigned → accessed.
func (r *CertificateRepository) TryMarkAccessed(ctx context.Context, certID uuid.UUID, now time.Time) (bool, error) {
	res := r.DB.WithContext(ctx).
		Model(&model.CertificateModel{}).
		Where("certificate_id = ? AND certificate_status = ?", certID, model.CertificateAssigned).
		Updates(map[string]any{
			"certificate_status":        model.CertificateAccessed,
			"certificate_accessed_date": now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *CertificateRepository) UpdateFileLink(ctx context.Context, certID uuid.UUID, link string) (int64, error) {
	res := r.DB.WithContext(ctx).
		Model(&model.CertificateModel{}).
		Where("certificate_id = ?", certID).
		Update("certificate_google_drive_link", link)
	return res.RowsAffected, res.Error
}

// StudentCertificate: baris sertifikat + judul course.
type StudentCertificate struct {
	model.CertificateModel
	CourseTitle string `gorm:"column:course_title"`
}

func (r *CertificateRepository) ListByStudent(ctx context.Context, studentID uuid.UUID) ([]StudentCertificate, error) {
	var rows []StudentCertificate
	err := r.DB.WithContext(ctx).
		Table("certificates AS c").
		Select("c.*, co.course_title").
		Joins("JOIN courses co ON co.course_id = c.certificate_course_id").
		Where("c.certificate_assigned_to = ?", studentID).
		Order("c.certificate_assigned_date DESC").
		Find(&rows).Error
	return rows, err
}

// VerifyRow: data publik untuk verifikasi serial.
type VerifyRow struct {
	SerialNumber string                  `gorm:"column:certificate_serial_number"`
	Status       model.CertificateStatus `gorm:"column:certificate_status"`
	IssueDate    *time.Time              `gorm:"column:certificate_issue_date"`
	FileLink     *string                 `gorm:"column:certificate_google_drive_link"`
	CourseTitle  string                  `gorm:"column:course_title"`
	FullName     string                  `gorm:"column:full_name"`
	UserName     string                  `gorm:"column:user_name"`
}

func (r *CertificateRepository) FindForVerify(ctx context.Context, serial string) (*VerifyRow, error) {
	var row VerifyRow
	res := r.DB.WithContext(ctx).
		Table("certificates AS c").
		Select(`c.certificate_serial_number, c.certificate_status, c.certificate_issue_date,
			c.certificate_google_drive_link, co.course_title, u.full_name, u.user_name`).
		Joins("JOIN courses co ON co.course_id = c.certificate_course_id").
		Joins("JOIN users u ON u.id = c.certificate_assigned_to").
		Where("c.certificate_serial_number = ?", serial).
		Limit(1).
		Scan(&row)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &row, nil
}

type statusCount struct {
	Status model.CertificateStatus `gorm:"column:certificate_status"`
	Total  int64                   `gorm:"column:total"`
}

func (r *CertificateRepository) CountByStatus(ctx context.Context, courseID uuid.UUID) (map[model.CertificateStatus]int64, error) {
	var rows []statusCount
	if err := r.DB.WithContext(ctx).
		Model(&model.CertificateModel{}).
		Select("certificate_status, COUNT(*) AS total").
		Where("certificate_course_id = ?", courseID).
		Group("certificate_status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[model.CertificateStatus]int64, len(rows))
	for _, row := range rows {
		out[row.Status] = row.Total
	}
	return out, nil
}
