package checkin

import (
	"fmt"
	"time"

	"gymsync-backend/internal/membership"
	"gymsync-backend/internal/models"
)

// Decision - Giriş akışının tek cevap tipi. Red beklenen bir sonuçtur, hata
// değil: süresi dolmuş QR, bekleme süresi, pasif üyelik hepsi success=false +
// okunabilir mesajla döner. Gerçek hatalar (DB erişilemedi vs.) fiber.Error
// olarak yukarı çıkar.
type Decision struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

func deny(message string) Decision {
	return Decision{Success: false, Message: message}
}

func approve() Decision {
	return Decision{Success: true}
}

// Evaluate - Giriş kontrolleri, sırayla:
//  1. QR kod var ve süresi dolmamış
//  2. Son başarılı girişin üzerinden bekleme süresi geçmiş
//  3. Üyelik durumu girişe izin veriyor (Active / Expiring Soon)
//
// Saf fonksiyon: veritabanına dokunmaz, handler veriyi yükleyip verir.
func Evaluate(cred *models.CheckInCredential, status membership.DerivedStatus, lastCheckIn *time.Time, now time.Time, cooldown time.Duration) Decision {
	if cred == nil {
		return deny("QR kod bulunamadı")
	}

	if now.After(cred.ExpiresAt) {
		return deny("QR kodun süresi dolmuş, üyeden yeni kod istenmeli")
	}

	if lastCheckIn != nil && cooldown > 0 {
		nextAllowed := lastCheckIn.Add(cooldown)
		if now.Before(nextAllowed) {
			return deny(fmt.Sprintf("Bekleme süresi dolmadı, bir sonraki giriş: %s", nextAllowed.Format("15:04")))
		}
	}

	if !status.Admits() {
		return deny(fmt.Sprintf("Üyelik aktif değil (%s)", status))
	}

	return approve()
}
