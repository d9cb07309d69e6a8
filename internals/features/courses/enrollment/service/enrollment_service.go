package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	certModel "kursusku_backend/internals/features/certificates/model"
	"kursusku_backend/internals/features/courses/enrollment/dto"
	"kursusku_backend/internals/features/courses/enrollment/model"
	"kursusku_backend/internals/features/courses/enrollment/repository"
	payDto "kursusku_backend/internals/features/finance/payments/dto"
	payModel "kursusku_backend/internals/features/finance/payments/model"
	"kursusku_backend/internals/helpers/apperror"
	"kursusku_backend/internals/helpers/mailer"
)

// CertificateAssigner: diimplementasikan CertificateService.
type CertificateAssigner interface {
	AssignToStudent(ctx context.Context, enrollmentID, studentID, courseID uuid.UUID) (*certModel.CertificateModel, error)
}

type EnrollmentService struct {
	repo         *repository.EnrollmentRepository
	certificates CertificateAssigner
	mailer       mailer.Mailer
	now          func() time.Time
}

func NewEnrollmentService(repo *repository.EnrollmentRepository, certs CertificateAssigner, m mailer.Mailer) *EnrollmentService {
	return &EnrollmentService{
		repo:         repo,
		certificates: certs,
		mailer:       m,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

/* =========================================================
   Enroll
========================================================= */

// Enroll: course gratis langsung active, berbayar menunggu pembayaran.
// Enroll ulang ke course yang sama mengembalikan enrollment lama.
func (s *EnrollmentService) Enroll(ctx context.Context, userID, courseID uuid.UUID) (*dto.EnrollResult, error) {
	course, err := s.repo.FindCourse(ctx, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("course tidak ditemukan")
		}
		return nil, apperror.Internal("gagal memuat course", err)
	}
	if !course.CourseIsPublished {
		return nil, apperror.NotFound("course tidak ditemukan")
	}

	if existing, err := s.repo.FindByUserCourse(ctx, userID, courseID); err == nil {
		return s.result(existing, false), nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.Internal("gagal memuat enrollment", err)
	}

	e := &model.EnrollmentModel{
		EnrollmentUserID:     userID,
		EnrollmentCourseID:   courseID,
		EnrollmentStatus:     model.EnrollmentPendingPayment,
		EnrollmentEnrolledAt: s.now(),
	}
	if course.IsFree() {
		e.EnrollmentStatus = model.EnrollmentActive
	}

	if err := s.repo.Create(ctx, e); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// request paralel menang duluan
			existing, ferr := s.repo.FindByUserCourse(ctx, userID, courseID)
			if ferr != nil {
				return nil, apperror.Internal("gagal memuat enrollment", ferr)
			}
			return s.result(existing, false), nil
		}
		return nil, apperror.Internal("gagal membuat enrollment", err)
	}

	log.Info().
		Str("enrollment_id", e.EnrollmentID.String()).
		Str("course_id", courseID.String()).
		Str("status", string(e.EnrollmentStatus)).
		Msg("📝 enrollment dibuat")
	return s.result(e, true), nil
}

func (s *EnrollmentService) result(e *model.EnrollmentModel, created bool) *dto.EnrollResult {
	return &dto.EnrollResult{
		Enrollment:      dto.FromModel(e),
		Created:         created,
		PaymentRequired: e.EnrollmentStatus == model.EnrollmentPendingPayment,
	}
}

// owned: enrollment milik user; milik orang lain dianggap tidak ada.
func (s *EnrollmentService) owned(ctx context.Context, userID, enrollmentID uuid.UUID) (*model.EnrollmentModel, error) {
	e, err := s.repo.FindByID(ctx, enrollmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("enrollment tidak ditemukan")
		}
		return nil, apperror.Internal("gagal memuat enrollment", err)
	}
	if e.EnrollmentUserID != userID {
		return nil, apperror.NotFound("enrollment tidak ditemukan")
	}
	return e, nil
}

func (s *EnrollmentService) Get(ctx context.Context, userID, enrollmentID uuid.UUID) (*model.EnrollmentModel, error) {
	return s.owned(ctx, userID, enrollmentID)
}

func (s *EnrollmentService) ListMine(ctx context.Context, userID uuid.UUID, status string, offset, limit int) ([]dto.EnrollmentResponse, int64, error) {
	switch model.EnrollmentStatus(status) {
	case "", model.EnrollmentPendingPayment, model.EnrollmentActive, model.EnrollmentCompleted, model.EnrollmentCancelled:
	default:
		return nil, 0, apperror.ValidationMsg("status", "status tidak dikenal")
	}
	rows, total, err := s.repo.ListByUser(ctx, userID, status, offset, limit)
	if err != nil {
		return nil, 0, apperror.Internal("gagal memuat enrollment", err)
	}
	out := make([]dto.EnrollmentResponse, 0, len(rows))
	for i := range rows {
		r := dto.FromModel(&rows[i].EnrollmentModel)
		r.CourseTitle, r.CourseSlug = rows[i].CourseTitle, rows[i].CourseSlug
		out = append(out, r)
	}
	return out, total, nil
}

/* =========================================================
   Progress & completion
========================================================= */

func (s *EnrollmentService) UpdateProgress(ctx context.Context, userID, enrollmentID uuid.UUID, progress int) (*model.EnrollmentModel, error) {
	if progress < 0 || progress > 100 {
		return nil, apperror.ValidationMsg("progress", "progress must be between 0 and 100")
	}
	e, err := s.owned(ctx, userID, enrollmentID)
	if err != nil {
		return nil, err
	}
	if err := e.CanUpdateProgress(); err != nil {
		return nil, apperror.StateConflict(err.Error())
	}
	ok, err := s.repo.SetProgress(ctx, enrollmentID, progress)
	if err != nil {
		return nil, apperror.Internal("gagal update progress", err)
	}
	if !ok {
		return nil, apperror.StateConflict("enrollment sudah tidak active")
	}
	return s.reload(ctx, enrollmentID)
}

// Complete menandai enrollment selesai lalu meng-assign sertifikat.
// Enrollment yang sudah completed tanpa sertifikat akan dicoba assign ulang.
func (s *EnrollmentService) Complete(ctx context.Context, userID, enrollmentID uuid.UUID) (*dto.CompleteResult, error) {
	e, err := s.owned(ctx, userID, enrollmentID)
	if err != nil {
		return nil, err
	}

	if e.EnrollmentStatus != model.EnrollmentCompleted {
		if err := e.CanComplete(); err != nil {
			return nil, apperror.StateConflict(err.Error())
		}
		ok, err := s.repo.Complete(ctx, enrollmentID, s.now())
		if err != nil {
			return nil, apperror.Internal("gagal menyelesaikan enrollment", err)
		}
		if !ok {
			// request paralel: baca ulang, lanjut kalau ternyata sudah completed
			if e, err = s.reload(ctx, enrollmentID); err != nil {
				return nil, err
			}
			if e.EnrollmentStatus != model.EnrollmentCompleted {
				return nil, apperror.StateConflict("enrollment tidak bisa diselesaikan dari status " + string(e.EnrollmentStatus))
			}
		}
	}

	if e, err = s.reload(ctx, enrollmentID); err != nil {
		return nil, err
	}
	out := &dto.CompleteResult{Enrollment: dto.FromModel(e)}

	if s.certificates == nil {
		out.CertificatePending = true
		return out, nil
	}
	cert, err := s.certificates.AssignToStudent(ctx, e.EnrollmentID, e.EnrollmentUserID, e.EnrollmentCourseID)
	if err != nil {
		if apperror.IsKind(err, apperror.KindConflict) {
			// pool habis: completion tetap tersimpan
			log.Warn().Err(err).Str("enrollment_id", enrollmentID.String()).Msg("⚠️ sertifikat belum bisa di-assign")
			out.CertificatePending = true
			return out, nil
		}
		return nil, err
	}
	out.CertificateID = &cert.CertificateID
	out.CertificateSerial = cert.CertificateSerialNumber
	return out, nil
}

func (s *EnrollmentService) reload(ctx context.Context, id uuid.UUID) (*model.EnrollmentModel, error) {
	e, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apperror.Internal("gagal memuat enrollment", err)
	}
	return e, nil
}

/* =========================================================
   Payment integration
========================================================= */

// PaymentContext: data tagihan untuk enrollment milik user.
func (s *EnrollmentService) PaymentContext(ctx context.Context, userID, enrollmentID uuid.UUID) (*payDto.PayableEnrollment, error) {
	e, err := s.owned(ctx, userID, enrollmentID)
	if err != nil {
		return nil, err
	}
	course, err := s.repo.FindCourse(ctx, e.EnrollmentCourseID)
	if err != nil {
		return nil, apperror.Internal("gagal memuat course", err)
	}
	u, err := s.repo.FindUser(ctx, userID)
	if err != nil {
		return nil, apperror.Internal("gagal memuat user", err)
	}
	pe := &payDto.PayableEnrollment{
		EnrollmentID:     e.EnrollmentID,
		EnrollmentStatus: string(e.EnrollmentStatus),
		CourseID:         course.CourseID,
		CourseTitle:      course.CourseTitle,
		AmountIDR:        course.CoursePriceIDR,
		UserID:           u.ID,
		FullName:         u.DisplayName(),
		Email:            u.Email,
	}
	if u.Phone != nil {
		pe.Phone = *u.Phone
	}
	return pe, nil
}

func (s *EnrollmentService) AttachPayment(ctx context.Context, enrollmentID, paymentID uuid.UUID) error {
	return s.repo.AttachPayment(ctx, enrollmentID, paymentID)
}

// OnPaymentSettled dipanggil sekali per payment yang baru settled.
func (s *EnrollmentService) OnPaymentSettled(ctx context.Context, p *payModel.PaymentModel) error {
	if p.PaymentEnrollmentID == nil {
		return nil
	}
	_, err := s.ActivateFromPayment(ctx, *p.PaymentEnrollmentID, p.PaymentID)
	return err
}

// ActivateFromPayment: pending_payment → active. No-op bila sudah active.
func (s *EnrollmentService) ActivateFromPayment(ctx context.Context, enrollmentID, paymentID uuid.UUID) (bool, error) {
	ok, err := s.repo.TransitionStatus(ctx, enrollmentID, model.EnrollmentPendingPayment, map[string]any{
		"enrollment_status":     model.EnrollmentActive,
		"enrollment_payment_id": paymentID,
	})
	if err != nil {
		return false, fmt.Errorf("activate enrollment %s: %w", enrollmentID, err)
	}
	if !ok {
		log.Info().
			Str("enrollment_id", enrollmentID.String()).
			Str("payment_id", paymentID.String()).
			Msg("enrollment tidak dalam pending_payment, aktivasi dilewati")
		return false, nil
	}

	log.Info().
		Str("enrollment_id", enrollmentID.String()).
		Str("payment_id", paymentID.String()).
		Msg("✅ enrollment aktif setelah pembayaran")
	s.notifyActivated(ctx, enrollmentID)
	return true, nil
}

func (s *EnrollmentService) notifyActivated(ctx context.Context, enrollmentID uuid.UUID) {
	if s.mailer == nil {
		return
	}
	e, err := s.repo.FindByID(ctx, enrollmentID)
	if err != nil {
		return
	}
	u, err := s.repo.FindUser(ctx, e.EnrollmentUserID)
	if err != nil {
		log.Warn().Err(err).Str("enrollment_id", enrollmentID.String()).Msg("[MAIL] user tidak ditemukan")
		return
	}
	title := ""
	if c, err := s.repo.FindCourse(ctx, e.EnrollmentCourseID); err == nil {
		title = c.CourseTitle
	}
	mailer.SendAsync(s.mailer, mailer.Message{
		ToName:  u.DisplayName(),
		ToEmail: u.Email,
		Subject: "Pembayaran diterima",
		Text:    fmt.Sprintf("Halo %s, pembayaran untuk course %s sudah kami terima. Selamat belajar!", u.DisplayName(), title),
	})
}
