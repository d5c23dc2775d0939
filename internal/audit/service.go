package audit

import (
	"encoding/json"
	"fmt"
	"time"

	"gymsync-backend/internal/database"
	"gymsync-backend/internal/models"
)

type LogOptions struct {
	BranchID    *uint
	UserID      uint
	UserName    string
	EntityType  string
	EntityID    uint
	Action      models.AuditAction
	Description string
	Before      any
	After       any
}

func WriteLog(opts LogOptions) error {
	// PostgreSQL jsonb için boş string yerine "null" JSON string'i kullanmalıyız
	beforeStr := "null" // Default: null JSON
	afterStr := "null"  // Default: null JSON

	if opts.Before != nil {
		if b, err := json.Marshal(opts.Before); err == nil {
			beforeStr = string(b)
		}
	}
	if opts.After != nil {
		if b, err := json.Marshal(opts.After); err == nil {
			afterStr = string(b)
		}
	}

	log := models.AuditLog{
		BranchID:    opts.BranchID,
		UserID:      opts.UserID,
		UserName:    opts.UserName,
		EntityType:  opts.EntityType,
		EntityID:    opts.EntityID,
		Action:      opts.Action,
		Description: opts.Description,
		BeforeData:  beforeStr,
		AfterData:   afterStr,
		Undone:      false,
		IsUndone:    false,
	}

	if err := database.DB.Create(&log).Error; err != nil {
		return fmt.Errorf("audit log kaydedilemedi: %w", err)
	}

	return nil
}

// UndoLog - Bir audit log'u undo et
func UndoLog(logID uint, userID uint, userName string) error {
	var log models.AuditLog
	if err := database.DB.First(&log, "id = ?", logID).Error; err != nil {
		return fmt.Errorf("log bulunamadı: %w", err)
	}

	// Zaten undo edilmiş mi?
	if log.IsUndone {
		return fmt.Errorf("bu işlem zaten geri alınmış")
	}

	// Undo işlemini gerçekleştir
	switch log.Action {
	case models.AuditActionCreate:
		// Create ise entity'yi sil
		if err := deleteEntity(log.EntityType, log.EntityID); err != nil {
			return fmt.Errorf("entity silinemedi: %w", err)
		}

	case models.AuditActionUpdate:
		// Update ise önceki haline geri döndür
		if err := restoreEntity(log.EntityType, log.EntityID, log.BeforeData); err != nil {
			return fmt.Errorf("entity geri yüklenemedi: %w", err)
		}

	case models.AuditActionDelete:
		// Delete ise entity'yi geri oluştur (create)
		if err := recreateEntity(log.EntityType, log.AfterData); err != nil {
			return fmt.Errorf("entity geri oluşturulamadı: %w", err)
		}

	default:
		return fmt.Errorf("bu işlem türü geri alınamaz")
	}

	// Log'u işaretle
	now := time.Now()
	log.IsUndone = true
	log.UndoneBy = &userID
	log.UndoneAt = &now

	if err := database.DB.Save(&log).Error; err != nil {
		return fmt.Errorf("log güncellenemedi: %w", err)
	}

	// Undo işlemi için yeni bir log oluştur
	undoLog := models.AuditLog{
		BranchID:    log.BranchID,
		UserID:      userID,
		UserName:    userName,
		EntityType:  log.EntityType,
		EntityID:    log.EntityID,
		Action:      models.AuditActionUndo,
		Description: fmt.Sprintf("Geri alındı: %s", log.Description),
		BeforeData:  log.AfterData,
		AfterData:   log.BeforeData,
		Undone:      true,
		IsUndone:    false,
	}

	if err := database.DB.Create(&undoLog).Error; err != nil {
		return fmt.Errorf("undo log kaydedilemedi: %w", err)
	}

	return nil
}

// deleteEntity - Entity'yi sil
func deleteEntity(entityType string, entityID uint) error {
	switch entityType {
	case "member":
		return database.DB.Delete(&models.Member{}, "id = ?", entityID).Error
	case "membership":
		return database.DB.Delete(&models.Membership{}, "id = ?", entityID).Error
	case "payment":
		return database.DB.Delete(&models.Payment{}, "id = ?", entityID).Error
	case "check_in_record":
		return database.DB.Delete(&models.CheckInRecord{}, "id = ?", entityID).Error
	case "class":
		return database.DB.Delete(&models.Class{}, "id = ?", entityID).Error
	case "trainer":
		return database.DB.Delete(&models.Trainer{}, "id = ?", entityID).Error
	case "booking":
		return database.DB.Delete(&models.Booking{}, "id = ?", entityID).Error
	case "plan":
		return database.DB.Delete(&models.Plan{}, "id = ?", entityID).Error
	case "feedback":
		return database.DB.Delete(&models.Feedback{}, "id = ?", entityID).Error
	default:
		return fmt.Errorf("bilinmeyen entity tipi: %s", entityType)
	}
}

// recreateEntity - Silinen entity'yi geri oluştur
func recreateEntity(entityType string, dataJSON string) error {
	switch entityType {
	case "member":
		var member models.Member
		if err := json.Unmarshal([]byte(dataJSON), &member); err != nil {
			return err
		}
		member.ID = 0 // Yeni entity oluştur
		member.Memberships = nil
		member.CheckInRecords = nil
		return database.DB.Create(&member).Error

	case "membership":
		var membership models.Membership
		if err := json.Unmarshal([]byte(dataJSON), &membership); err != nil {
			return err
		}
		membership.ID = 0
		membership.Plan = nil
		return database.DB.Create(&membership).Error

	case "payment":
		var payment models.Payment
		if err := json.Unmarshal([]byte(dataJSON), &payment); err != nil {
			return err
		}
		payment.ID = 0
		return database.DB.Create(&payment).Error

	case "check_in_record":
		var record models.CheckInRecord
		if err := json.Unmarshal([]byte(dataJSON), &record); err != nil {
			return err
		}
		record.ID = 0
		record.Member = nil
		return database.DB.Create(&record).Error

	case "class":
		var class models.Class
		if err := json.Unmarshal([]byte(dataJSON), &class); err != nil {
			return err
		}
		class.ID = 0
		class.Trainer = nil
		return database.DB.Create(&class).Error

	case "trainer":
		var trainer models.Trainer
		if err := json.Unmarshal([]byte(dataJSON), &trainer); err != nil {
			return err
		}
		trainer.ID = 0
		return database.DB.Create(&trainer).Error

	case "booking":
		var booking models.Booking
		if err := json.Unmarshal([]byte(dataJSON), &booking); err != nil {
			return err
		}
		booking.ID = 0
		booking.Class = nil
		booking.Trainer = nil
		return database.DB.Create(&booking).Error

	case "plan":
		var plan models.Plan
		if err := json.Unmarshal([]byte(dataJSON), &plan); err != nil {
			return err
		}
		plan.ID = 0
		return database.DB.Create(&plan).Error

	case "feedback":
		var feedbackRow models.Feedback
		if err := json.Unmarshal([]byte(dataJSON), &feedbackRow); err != nil {
			return err
		}
		feedbackRow.ID = 0
		feedbackRow.Member = nil
		return database.DB.Create(&feedbackRow).Error

	default:
		return fmt.Errorf("bilinmeyen entity tipi: %s", entityType)
	}
}

// restoreEntity - Entity'yi geri yükle (update)
func restoreEntity(entityType string, entityID uint, dataJSON string) error {
	switch entityType {
	case "member":
		var member models.Member
		if err := json.Unmarshal([]byte(dataJSON), &member); err != nil {
			return err
		}
		member.ID = entityID
		return database.DB.Model(&models.Member{}).Where("id = ?", entityID).Updates(map[string]interface{}{
			"branch_id":  member.BranchID,
			"first_name": member.FirstName,
			"last_name":  member.LastName,
			"email":      member.Email,
			"username":   member.Username,
			"phone":      member.Phone,
			"gender":     member.Gender,
			"photo_url":  member.PhotoURL,
			"notes":      member.Notes,
		}).Error

	case "membership":
		var membership models.Membership
		if err := json.Unmarshal([]byte(dataJSON), &membership); err != nil {
			return err
		}
		membership.ID = entityID
		return database.DB.Model(&models.Membership{}).Where("id = ?", entityID).Updates(map[string]interface{}{
			"member_id":  membership.MemberID,
			"plan_id":    membership.PlanID,
			"status":     membership.Status,
			"start_date": membership.StartDate,
			"end_date":   membership.EndDate,
		}).Error

	case "payment":
		var payment models.Payment
		if err := json.Unmarshal([]byte(dataJSON), &payment); err != nil {
			return err
		}
		payment.ID = entityID
		return database.DB.Model(&models.Payment{}).Where("id = ?", entityID).Updates(map[string]interface{}{
			"member_id":     payment.MemberID,
			"membership_id": payment.MembershipID,
			"branch_id":     payment.BranchID,
			"amount":        payment.Amount,
			"method":        payment.Method,
			"paid_at":       payment.PaidAt,
			"note":          payment.Note,
		}).Error

	case "check_in_record":
		var record models.CheckInRecord
		if err := json.Unmarshal([]byte(dataJSON), &record); err != nil {
			return err
		}
		record.ID = entityID
		return database.DB.Model(&models.CheckInRecord{}).Where("id = ?", entityID).Updates(map[string]interface{}{
			"branch_id":      record.BranchID,
			"check_in_time":  record.CheckInTime,
			"check_out_time": record.CheckOutTime,
			"status":         record.Status,
			"locker_number":  record.LockerNumber,
			"selfie_url":     record.SelfieURL,
		}).Error

	case "class":
		var class models.Class
		if err := json.Unmarshal([]byte(dataJSON), &class); err != nil {
			return err
		}
		class.ID = entityID
		return database.DB.Model(&models.Class{}).Where("id = ?", entityID).Updates(map[string]interface{}{
			"branch_id":        class.BranchID,
			"trainer_id":       class.TrainerID,
			"name":             class.Name,
			"capacity":         class.Capacity,
			"starts_at":        class.StartsAt,
			"duration_minutes": class.DurationMinutes,
		}).Error

	case "trainer":
		var trainer models.Trainer
		if err := json.Unmarshal([]byte(dataJSON), &trainer); err != nil {
			return err
		}
		trainer.ID = entityID
		return database.DB.Model(&models.Trainer{}).Where("id = ?", entityID).Updates(map[string]interface{}{
			"branch_id": trainer.BranchID,
			"name":      trainer.Name,
			"specialty": trainer.Specialty,
			"phone":     trainer.Phone,
			"is_active": trainer.IsActive,
		}).Error

	case "booking":
		var booking models.Booking
		if err := json.Unmarshal([]byte(dataJSON), &booking); err != nil {
			return err
		}
		booking.ID = entityID
		return database.DB.Model(&models.Booking{}).Where("id = ?", entityID).Updates(map[string]interface{}{
			"kind":         booking.Kind,
			"class_id":     booking.ClassID,
			"trainer_id":   booking.TrainerID,
			"scheduled_at": booking.ScheduledAt,
			"status":       booking.Status,
		}).Error

	case "plan":
		var plan models.Plan
		if err := json.Unmarshal([]byte(dataJSON), &plan); err != nil {
			return err
		}
		plan.ID = entityID
		return database.DB.Model(&models.Plan{}).Where("id = ?", entityID).Updates(map[string]interface{}{
			"name":          plan.Name,
			"price":         plan.Price,
			"duration_days": plan.DurationDays,
			"features":      plan.Features,
			"is_active":     plan.IsActive,
		}).Error

	case "feedback":
		var feedbackRow models.Feedback
		if err := json.Unmarshal([]byte(dataJSON), &feedbackRow); err != nil {
			return err
		}
		feedbackRow.ID = entityID
		return database.DB.Model(&models.Feedback{}).Where("id = ?", entityID).Updates(map[string]interface{}{
			"rating":   feedbackRow.Rating,
			"message":  feedbackRow.Message,
			"resolved": feedbackRow.Resolved,
		}).Error

	default:
		return fmt.Errorf("bilinmeyen entity tipi: %s", entityType)
	}
}
