package database

import (
	"log"

	"gymsync-backend/internal/config"
	"gymsync-backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Init(cfg *config.Config) {
	var err error

	DB, err = gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
	if err != nil {
		log.Fatalf("Veritabanına bağlanılamadı: %v", err)
	}

	// CheckInRecord migration: branch_id ekleniyor (AutoMigrate'ten ÖNCE)
	// Eski kurulumlarda giriş kayıtları şubesizdi; mevcut kayıtları korumak için
	// önce nullable ekleyip üyenin ev şubesiyle dolduruyoruz.
	if DB.Migrator().HasTable(&models.CheckInRecord{}) {
		hasColumn := DB.Migrator().HasColumn(&models.CheckInRecord{}, "branch_id")
		if !hasColumn {
			log.Println("CheckInRecord.branch_id kolonu ekleniyor...")

			if err := DB.Exec("ALTER TABLE check_in_records ADD COLUMN branch_id BIGINT").Error; err != nil {
				log.Printf("branch_id kolonu eklenirken hata (zaten var olabilir): %v", err)
			} else {
				log.Println("branch_id kolonu nullable olarak eklendi")
			}

			// Mevcut kayıtları üyenin ev şubesiyle doldur
			var nullCount int64
			DB.Raw("SELECT COUNT(*) FROM check_in_records WHERE branch_id IS NULL").Scan(&nullCount)
			if nullCount > 0 {
				DB.Exec(`
					UPDATE check_in_records r
					SET branch_id = m.branch_id
					FROM members m
					WHERE r.member_id = m.id AND r.branch_id IS NULL
				`)
				log.Printf("Mevcut %d CheckInRecord kaydı üyenin şubesiyle güncellendi", nullCount)
			}

			if err := DB.Exec("ALTER TABLE check_in_records ALTER COLUMN branch_id SET NOT NULL").Error; err != nil {
				log.Printf("branch_id NOT NULL yapılırken hata: %v", err)
			} else {
				log.Println("branch_id NOT NULL yapıldı")
			}

			DB.Exec("CREATE INDEX IF NOT EXISTS idx_check_in_records_branch_id ON check_in_records(branch_id)")
			log.Println("CheckInRecord migration tamamlandı")
		}
	}

	err = DB.AutoMigrate(
		&models.Branch{},
		&models.User{},
		&models.Member{},
		&models.Plan{},
		&models.Membership{},
		&models.CheckInCredential{},
		&models.CheckInRecord{},
		&models.Trainer{},
		&models.Class{},
		&models.Booking{},
		&models.Payment{},
		&models.Feedback{},
		&models.AuditLog{},
	)
	if err != nil {
		log.Fatalf("AutoMigrate hatası: %v", err)
	}

	// credential_id unique constraint'ini garantile (AutoMigrate bazen eski
	// tablolarda index'i eklemez). Çift giriş yarışının tek koruması bu.
	if DB.Migrator().HasTable(&models.CheckInRecord{}) {
		DB.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_check_in_records_credential_id ON check_in_records(credential_id)")
	}

	log.Println("Veritabanı bağlantısı başarılı. Migration tamamlandı.")
}
