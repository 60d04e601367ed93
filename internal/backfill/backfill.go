// Package backfill repairs drifted school columns. Records saved before
// their parent relation existed are invisible to scoped queries; a backfill
// run re-derives their school by walking the ownership chain and records
// what it touched.
package backfill

import (
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"school-service/internal/model"
	"school-service/internal/tenant"
)

// Runner executes backfill passes. Updates run with model hooks skipped:
// this is the one administrative path allowed past the write-once guard on
// school columns.
type Runner struct {
	db       *gorm.DB
	resolver *tenant.Resolver
	log      *zap.Logger
}

// NewRunner returns a backfill runner
func NewRunner(db *gorm.DB, resolver *tenant.Resolver, log *zap.Logger) *Runner {
	return &Runner{db: db, resolver: resolver, log: log}
}

type stats struct {
	scanned  int64
	repaired int64
}

// Run performs one full pass and persists a BackfillRun recording it
func (r *Runner) Run(startedBy uint) (*model.BackfillRun, error) {
	run := model.BackfillRun{StartedBy: startedBy, StartedAt: time.Now()}
	if err := r.db.Create(&run).Error; err != nil {
		return nil, err
	}

	var s stats
	r.repairUsers(&s)
	r.repairTeachers(&s)
	r.repairParents(&s)
	r.repairStudents(&s)
	r.repairFees(&s)
	r.repairPayments(&s)
	r.repairBusStops(&s)

	now := time.Now()
	run.FinishedAt = &now
	run.Scanned = s.scanned
	run.Repaired = s.repaired
	if err := r.db.Model(&run).Updates(map[string]interface{}{
		"finished_at": run.FinishedAt,
		"scanned":     run.Scanned,
		"repaired":    run.Repaired,
	}).Error; err != nil {
		return nil, err
	}

	r.log.Info("Backfill run finished",
		zap.Uint("run_id", run.ID),
		zap.Int64("scanned", run.Scanned),
		zap.Int64("repaired", run.Repaired))
	return &run, nil
}

// admin returns a session that bypasses model hooks for repair updates
func (r *Runner) admin() *gorm.DB {
	return r.db.Session(&gorm.Session{SkipHooks: true})
}

func (r *Runner) schoolName(schoolID string) string {
	var school model.School
	if err := r.db.Select("name").Where("id = ?", schoolID).First(&school).Error; err != nil {
		return ""
	}
	return school.Name
}

func (r *Runner) repairUsers(s *stats) {
	var users []model.User
	if err := r.db.Where("school_id = '' OR school_id IS NULL").Find(&users).Error; err != nil {
		r.log.Warn("Backfill: user scan failed", zap.Error(err))
		return
	}
	for _, u := range users {
		s.scanned++
		id, ok := r.resolver.Resolve(tenant.Principal{UserID: u.ID, Role: u.Role})
		if !ok {
			continue
		}
		err := r.admin().Model(&model.User{}).Where("id = ?", u.ID).
			Updates(map[string]interface{}{"school_id": id, "school_name": r.schoolName(id)}).Error
		if err != nil {
			r.log.Warn("Backfill: user repair failed", zap.Uint("user_id", u.ID), zap.Error(err))
			continue
		}
		s.repaired++
	}
}

func (r *Runner) repairTeachers(s *stats) {
	var teachers []model.Teacher
	if err := r.db.Where("school_id = '' OR school_id IS NULL").Find(&teachers).Error; err != nil {
		r.log.Warn("Backfill: teacher scan failed", zap.Error(err))
		return
	}
	for _, t := range teachers {
		s.scanned++
		if t.DepartmentID == nil {
			continue
		}
		var dept model.Department
		if err := r.db.First(&dept, *t.DepartmentID).Error; err != nil || dept.SchoolID == "" {
			continue
		}
		err := r.admin().Model(&model.Teacher{}).Where("id = ?", t.ID).
			Updates(map[string]interface{}{"school_id": dept.SchoolID, "school_name": dept.SchoolName}).Error
		if err != nil {
			r.log.Warn("Backfill: teacher repair failed", zap.Uint("teacher_id", t.ID), zap.Error(err))
			continue
		}
		s.repaired++
	}
}

func (r *Runner) repairParents(s *stats) {
	var parents []model.Parent
	if err := r.db.Where("school_id = '' OR school_id IS NULL").Find(&parents).Error; err != nil {
		r.log.Warn("Backfill: parent scan failed", zap.Error(err))
		return
	}
	for _, p := range parents {
		s.scanned++
		var student model.Student
		err := r.db.Where("parent_id = ? AND school_id <> ''", p.ID).Order("id asc").First(&student).Error
		if err != nil {
			continue
		}
		err = r.admin().Model(&model.Parent{}).Where("id = ?", p.ID).
			Updates(map[string]interface{}{"school_id": student.SchoolID, "school_name": student.SchoolName}).Error
		if err != nil {
			r.log.Warn("Backfill: parent repair failed", zap.Uint("parent_id", p.ID), zap.Error(err))
			continue
		}
		s.repaired++
	}
}

func (r *Runner) repairStudents(s *stats) {
	var students []model.Student
	if err := r.db.Where("school_id = '' OR school_id IS NULL").Find(&students).Error; err != nil {
		r.log.Warn("Backfill: student scan failed", zap.Error(err))
		return
	}
	for _, st := range students {
		s.scanned++
		schoolID, schoolName := r.studentSchool(st)
		if schoolID == "" {
			continue
		}
		err := r.admin().Model(&model.Student{}).Where("id = ?", st.ID).
			Updates(map[string]interface{}{"school_id": schoolID, "school_name": schoolName}).Error
		if err != nil {
			r.log.Warn("Backfill: student repair failed", zap.Uint("student_id", st.ID), zap.Error(err))
			continue
		}
		s.repaired++
	}
}

// studentSchool derives a drifted student's school from its admission,
// falling back to the parent's cached school
func (r *Runner) studentSchool(st model.Student) (string, string) {
	if st.AdmissionID != nil {
		var adm model.Admission
		if err := r.db.First(&adm, *st.AdmissionID).Error; err == nil && adm.SchoolID != "" {
			return adm.SchoolID, adm.SchoolName
		}
	}
	if st.ParentID != nil {
		var parent model.Parent
		if err := r.db.First(&parent, *st.ParentID).Error; err == nil && parent.SchoolID != "" {
			return parent.SchoolID, parent.SchoolName
		}
	}
	return "", ""
}

func (r *Runner) repairFees(s *stats) {
	var fees []model.Fee
	if err := r.db.Where("school_id = '' OR school_id IS NULL").Find(&fees).Error; err != nil {
		r.log.Warn("Backfill: fee scan failed", zap.Error(err))
		return
	}
	for _, f := range fees {
		s.scanned++
		var student model.Student
		if err := r.db.First(&student, f.StudentID).Error; err != nil || student.SchoolID == "" {
			continue
		}
		err := r.admin().Model(&model.Fee{}).Where("id = ?", f.ID).
			Updates(map[string]interface{}{"school_id": student.SchoolID, "school_name": student.SchoolName}).Error
		if err != nil {
			r.log.Warn("Backfill: fee repair failed", zap.Uint("fee_id", f.ID), zap.Error(err))
			continue
		}
		s.repaired++
	}
}

func (r *Runner) repairPayments(s *stats) {
	var payments []model.PaymentHistory
	if err := r.db.Where("school_id = '' OR school_id IS NULL").Find(&payments).Error; err != nil {
		r.log.Warn("Backfill: payment scan failed", zap.Error(err))
		return
	}
	for _, p := range payments {
		s.scanned++
		var fee model.Fee
		if err := r.db.First(&fee, p.FeeID).Error; err != nil || fee.SchoolID == "" {
			continue
		}
		err := r.admin().Model(&model.PaymentHistory{}).Where("id = ?", p.ID).
			Update("school_id", fee.SchoolID).Error
		if err != nil {
			r.log.Warn("Backfill: payment repair failed", zap.Uint("payment_id", p.ID), zap.Error(err))
			continue
		}
		s.repaired++
	}
}

func (r *Runner) repairBusStops(s *stats) {
	var stops []model.BusStop
	if err := r.db.Where("school_id = '' OR school_id IS NULL").Find(&stops).Error; err != nil {
		r.log.Warn("Backfill: bus stop scan failed", zap.Error(err))
		return
	}
	for _, stop := range stops {
		s.scanned++
		var bus model.Bus
		if err := r.db.First(&bus, stop.BusID).Error; err != nil || bus.SchoolID == "" {
			continue
		}
		err := r.admin().Model(&model.BusStop{}).Where("id = ?", stop.ID).
			Update("school_id", bus.SchoolID).Error
		if err != nil {
			r.log.Warn("Backfill: bus stop repair failed", zap.Uint("stop_id", stop.ID), zap.Error(err))
			continue
		}
		s.repaired++
	}
}
