package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"kursusku_backend/internals/features/certificates/dto"
	"kursusku_backend/internals/features/certificates/model"
	"kursusku_backend/internals/features/certificates/repository"
	"kursusku_backend/internals/helpers/apperror"
	"kursusku_backend/internals/helpers/cache"
	"kursusku_backend/internals/helpers/mailer"
	"kursusku_backend/internals/helpers/metrics"
)

const (
	// jumlah kandidat FIFO yang dicoba per putaran CAS
	candidateWindow = 5
	verifyCacheTTL  = 10 * time.Minute
	maxBatchSize    = 5000
)

type CertificateService struct {
	repo   *repository.CertificateRepository
	cache  cache.Cache
	mailer mailer.Mailer
	now    func() time.Time
}

func NewCertificateService(repo *repository.CertificateRepository) *CertificateService {
	return &CertificateService{
		repo: repo,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// SetCache mengaktifkan read-through cache untuk verifikasi serial.
func (s *CertificateService) SetCache(c cache.Cache) { s.cache = c }

func (s *CertificateService) SetMailer(m mailer.Mailer) { s.mailer = m }

/* =========================================================
   Batch
========================================================= */

func (s *CertificateService) CreateBatch(ctx context.Context, courseID uuid.UUID, batchName, storageFolderRef string, count int, createdBy *uuid.UUID) (*dto.BatchResponse, error) {
	batchName = strings.TrimSpace(batchName)
	var fields []apperror.FieldError
	if count <= 0 {
		fields = append(fields, apperror.FieldError{Field: "count", Message: "count must be greater than 0"})
	} else if count > maxBatchSize {
		fields = append(fields, apperror.FieldError{Field: "count", Message: fmt.Sprintf("count must not exceed %d", maxBatchSize)})
	}
	if batchName == "" {
		fields = append(fields, apperror.FieldError{Field: "batch_name", Message: "batch name is required"})
	}
	if len(fields) > 0 {
		return nil, apperror.Validation(fields...)
	}

	if _, err := s.repo.FindCourse(ctx, courseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ValidationMsg("course_id", "course not found")
		}
		return nil, apperror.Internal("gagal memuat course", err)
	}

	now := s.now()
	batch := &model.CertificateBatchModel{
		BatchCourseID:  courseID,
		BatchName:      batchName,
		BatchTotal:     count,
		BatchCreatedBy: createdBy,
		BatchCreatedAt: now,
	}
	if ref := strings.TrimSpace(storageFolderRef); ref != "" {
		batch.BatchFolderRef = &ref
	}

	prefix := now.Format("20060102")
	certs := make([]model.CertificateModel, count)
	for i := range certs {
		certs[i] = model.CertificateModel{
			CertificateSerialNumber: NewSerial(prefix, i+1),
			CertificateCourseID:     courseID,
			CertificateSequence:     i + 1,
			CertificateStatus:       model.CertificateAvailable,
		}
	}

	if err := s.repo.CreateBatch(ctx, batch, certs); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperror.Conflict("serial number bentrok, silakan ulangi")
		}
		return nil, apperror.Internal("gagal membuat batch sertifikat", err)
	}

	log.Info().
		Str("batch_id", batch.BatchID.String()).
		Str("course_id", courseID.String()).
		Int("count", count).
		Msg("📜 batch sertifikat dibuat")
	return &dto.BatchResponse{Batch: *batch, Created: count}, nil
}

// NewSerial: CERT-<YYYYMMDD>-<8 hex><4 digit seq>
func NewSerial(datePrefix string, seq int) string {
	rnd := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:8]
	return fmt.Sprintf("CERT-%s-%s%04d", datePrefix, rnd, seq)
}

func (s *CertificateService) ListBatches(ctx context.Context, courseID *uuid.UUID) ([]model.CertificateBatchModel, error) {
	rows, err := s.repo.ListBatches(ctx, courseID)
	if err != nil {
		return nil, apperror.Internal("gagal memuat batch", err)
	}
	return rows, nil
}

func (s *CertificateService) ListBatchCertificates(ctx context.Context, batchID uuid.UUID) ([]dto.CertificateResponse, error) {
	if _, err := s.repo.FindBatch(ctx, batchID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("batch tidak ditemukan")
		}
		return nil, apperror.Internal("gagal memuat batch", err)
	}
	rows, err := s.repo.ListByBatch(ctx, batchID)
	if err != nil {
		return nil, apperror.Internal("gagal memuat sertifikat", err)
	}
	return dto.FromModels(rows), nil
}

func (s *CertificateService) GetBatchStats(ctx context.Context, courseID uuid.UUID) (*dto.BatchStats, error) {
	counts, err := s.repo.CountByStatus(ctx, courseID)
	if err != nil {
		return nil, apperror.Internal("gagal menghitung statistik", err)
	}
	st := &dto.BatchStats{
		CourseID:  courseID,
		Available: counts[model.CertificateAvailable],
		Assigned:  counts[model.CertificateAssigned],
		Accessed:  counts[model.CertificateAccessed],
	}
	st.Total = st.Available + st.Assigned + st.Accessed
	return st, nil
}

/* =========================================================
   Assignment
========================================================= */

// AssignToStudent memberi sertifikat FIFO untuk enrollment. Idempotent per enrollment.
func (s *CertificateService) AssignToStudent(ctx context.Context, enrollmentID, studentID, courseID uuid.UUID) (*model.CertificateModel, error) {
	if existing, err := s.existingFor(ctx, enrollmentID, studentID); err != nil || existing != nil {
		return existing, err
	}

	for {
		cands, err := s.repo.AvailableCandidates(ctx, courseID, candidateWindow)
		if err != nil {
			return nil, apperror.Internal("gagal memuat sertifikat tersedia", err)
		}
		if len(cands) == 0 {
			metrics.CertificateAssignments.WithLabelValues("exhausted").Inc()
			log.Warn().
				Str("course_id", courseID.String()).
				Str("enrollment_id", enrollmentID.String()).
				Msg("⚠️ pool sertifikat habis")
			return nil, apperror.StateConflict(model.ErrNotAvailable.Error())
		}

		for _, c := range cands {
			ok, err := s.repo.TryAssign(ctx, c.CertificateID, enrollmentID, studentID, s.now())
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				// enrollment yang sama di-assign paralel; pakai pemenangnya
				existing, err := s.existingFor(ctx, enrollmentID, studentID)
				if err == nil && existing == nil {
					return nil, apperror.Internal("sertifikat enrollment hilang setelah bentrok", nil)
				}
				return existing, err
			}
			if err != nil {
				return nil, apperror.Internal("gagal assign sertifikat", err)
			}
			if !ok {
				metrics.CertificateAssignments.WithLabelValues("cas_lost").Inc()
				continue
			}
			return s.afterAssigned(ctx, c.CertificateID)
		}
	}
}

// AssignCertificate: assign manual sertifikat tertentu oleh admin.
func (s *CertificateService) AssignCertificate(ctx context.Context, certID, enrollmentID, studentID uuid.UUID) (*model.CertificateModel, error) {
	cert, err := s.repo.FindByID(ctx, certID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("sertifikat tidak ditemukan")
		}
		return nil, apperror.Internal("gagal memuat sertifikat", err)
	}
	if err := cert.CanAssign(); err != nil {
		return nil, apperror.StateConflict(err.Error())
	}

	enr, err := s.repo.FindEnrollment(ctx, enrollmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ValidationMsg("enrollment_id", "enrollment not found")
		}
		return nil, apperror.Internal("gagal memuat enrollment", err)
	}
	if enr.EnrollmentUserID != studentID || enr.EnrollmentCourseID != cert.CertificateCourseID {
		return nil, apperror.ValidationMsg("enrollment_id", "enrollment does not match student or course")
	}

	ok, err := s.repo.TryAssign(ctx, certID, enrollmentID, studentID, s.now())
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, apperror.Conflict("enrollment sudah memiliki sertifikat")
	}
	if err != nil {
		return nil, apperror.Internal("gagal assign sertifikat", err)
	}
	if !ok {
		metrics.CertificateAssignments.WithLabelValues("cas_lost").Inc()
		return nil, apperror.StateConflict(model.ErrNotAvailable.Error())
	}
	return s.afterAssigned(ctx, certID)
}

func (s *CertificateService) existingFor(ctx context.Context, enrollmentID, studentID uuid.UUID) (*model.CertificateModel, error) {
	cert, err := s.repo.FindByEnrollment(ctx, enrollmentID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperror.Internal("gagal memuat sertifikat", err)
	}
	if cert.CertificateAssignedTo != nil && *cert.CertificateAssignedTo != studentID {
		return nil, apperror.Conflict("enrollment sudah memiliki sertifikat milik user lain")
	}
	metrics.CertificateAssignments.WithLabelValues("existing").Inc()
	return cert, nil
}

func (s *CertificateService) afterAssigned(ctx context.Context, certID uuid.UUID) (*model.CertificateModel, error) {
	metrics.CertificateAssignments.WithLabelValues("assigned").Inc()
	cert, err := s.repo.FindByID(ctx, certID)
	if err != nil {
		return nil, apperror.Internal("gagal memuat sertifikat", err)
	}
	log.Info().
		Str("certificate_id", cert.CertificateID.String()).
		Str("serial", cert.CertificateSerialNumber).
		Int("sequence", cert.CertificateSequence).
		Msg("🎓 sertifikat di-assign")
	s.invalidate(ctx, cert.CertificateSerialNumber)
	s.notifyAssigned(ctx, cert)
	return cert, nil
}

func (s *CertificateService) notifyAssigned(ctx context.Context, cert *model.CertificateModel) {
	if s.mailer == nil || cert.CertificateAssignedTo == nil {
		return
	}
	u, err := s.repo.FindStudent(ctx, *cert.CertificateAssignedTo)
	if err != nil {
		log.Warn().Err(err).Str("certificate_id", cert.CertificateID.String()).Msg("[MAIL] student tidak ditemukan")
		return
	}
	courseName := ""
	if c, err := s.repo.FindCourse(ctx, cert.CertificateCourseID); err == nil {
		courseName = c.CourseTitle
	}
	mailer.SendAsync(s.mailer, mailer.Message{
		ToName:  u.DisplayName(),
		ToEmail: u.Email,
		Subject: "Sertifikat kamu sudah terbit",
		Text: fmt.Sprintf("Selamat %s! Sertifikat %s untuk course %s sudah tersedia di akun kamu.",
			u.DisplayName(), cert.CertificateSerialNumber, courseName),
	})
}

/* =========================================================
   Access
========================================================= */

// MarkAccessed: assigned → accessed (CAS).
func (s *CertificateService) MarkAccessed(ctx context.Context, certID uuid.UUID) (*model.CertificateModel, error) {
	ok, err := s.repo.TryMarkAccessed(ctx, certID, s.now())
	if err != nil {
		return nil, apperror.Internal("gagal update sertifikat", err)
	}
	cert, err := s.repo.FindByID(ctx, certID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("sertifikat tidak ditemukan")
		}
		return nil, apperror.Internal("gagal memuat sertifikat", err)
	}
	if !ok {
		if err := cert.CanMarkAccessed(); err != nil {
			return nil, apperror.StateConflict(err.Error())
		}
		return nil, apperror.StateConflict("status sertifikat berubah bersamaan, coba lagi")
	}
	return cert, nil
}

// DownloadCertificate: hanya pemilik; akses pertama menandai accessed.
func (s *CertificateService) DownloadCertificate(ctx context.Context, certID, studentID uuid.UUID) (*dto.DownloadResponse, error) {
	cert, err := s.repo.FindByID(ctx, certID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("sertifikat tidak ditemukan")
		}
		return nil, apperror.Internal("gagal memuat sertifikat", err)
	}
	if cert.CertificateAssignedTo == nil || *cert.CertificateAssignedTo != studentID {
		return nil, apperror.NotFound("sertifikat tidak ditemukan")
	}
	if cert.CertificateFileLink == nil || *cert.CertificateFileLink == "" {
		return nil, apperror.StateConflict("file sertifikat belum tersedia")
	}

	if cert.CertificateStatus == model.CertificateAssigned {
		updated, err := s.MarkAccessed(ctx, certID)
		switch {
		case err == nil:
			cert = updated
		case apperror.IsKind(err, apperror.KindConflict):
			// download paralel sudah menandai accessed
			if cert, err = s.repo.FindByID(ctx, certID); err != nil {
				return nil, apperror.Internal("gagal memuat sertifikat", err)
			}
		default:
			return nil, err
		}
	}

	return &dto.DownloadResponse{
		CertificateID:   cert.CertificateID,
		SerialNumber:    cert.CertificateSerialNumber,
		Status:          cert.CertificateStatus,
		GoogleDriveLink: cert.CertificateFileLink,
	}, nil
}

func (s *CertificateService) GetMyCertificates(ctx context.Context, studentID uuid.UUID) ([]dto.CertificateResponse, error) {
	rows, err := s.repo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, apperror.Internal("gagal memuat sertifikat", err)
	}
	out := make([]dto.CertificateResponse, 0, len(rows))
	for i := range rows {
		out = append(out, dto.FromModel(&rows[i].CertificateModel, rows[i].CourseTitle))
	}
	return out, nil
}

// UpdateFileLink: admin menempelkan link file setelah sertifikat dicetak.
func (s *CertificateService) UpdateFileLink(ctx context.Context, certID uuid.UUID, link string) (*model.CertificateModel, error) {
	n, err := s.repo.UpdateFileLink(ctx, certID, strings.TrimSpace(link))
	if err != nil {
		return nil, apperror.Internal("gagal update link sertifikat", err)
	}
	if n == 0 {
		return nil, apperror.NotFound("sertifikat tidak ditemukan")
	}
	cert, err := s.repo.FindByID(ctx, certID)
	if err != nil {
		return nil, apperror.Internal("gagal memuat sertifikat", err)
	}
	s.invalidate(ctx, cert.CertificateSerialNumber)
	return cert, nil
}

/* =========================================================
   Public verification
========================================================= */

func verifyKey(serial string) string { return "cert:verify:" + serial }

func (s *CertificateService) VerifyBySerial(ctx context.Context, serial string) (*dto.VerifyResponse, error) {
	serial = strings.TrimSpace(serial)
	if !model.ValidSerial(serial) {
		return nil, apperror.NotFound("sertifikat tidak ditemukan")
	}

	if s.cache != nil {
		if b, err := s.cache.Get(ctx, verifyKey(serial)); err == nil {
			var cached dto.VerifyResponse
			if err := sonic.Unmarshal(b, &cached); err == nil {
				return &cached, nil
			}
		} else if !errors.Is(err, cache.ErrMiss) {
			log.Warn().Err(err).Str("serial", serial).Msg("cache get gagal")
		}
	}

	row, err := s.repo.FindForVerify(ctx, serial)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("sertifikat tidak ditemukan")
		}
		return nil, apperror.Internal("gagal verifikasi sertifikat", err)
	}
	cert := model.CertificateModel{CertificateStatus: row.Status}
	if !cert.IsVerifiable() {
		return nil, apperror.NotFound("sertifikat tidak ditemukan")
	}

	name := strings.TrimSpace(row.FullName)
	if name == "" {
		name = row.UserName
	}
	resp := &dto.VerifyResponse{
		SerialNumber:    row.SerialNumber,
		CourseName:      row.CourseTitle,
		UserName:        name,
		IssueDate:       row.IssueDate,
		GoogleDriveLink: row.FileLink,
	}

	if s.cache != nil {
		if b, err := sonic.Marshal(resp); err == nil {
			if err := s.cache.Set(ctx, verifyKey(serial), b, verifyCacheTTL); err != nil {
				log.Warn().Err(err).Str("serial", serial).Msg("cache set gagal")
			}
		}
	}
	return resp, nil
}

func (s *CertificateService) invalidate(ctx context.Context, serial string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, verifyKey(serial)); err != nil {
		log.Warn().Err(err).Str("serial", serial).Msg("cache del gagal")
	}
}
