package membership

import (
	"time"

	"gymsync-backend/internal/models"
)

// DerivedStatus - Ekranda gösterilen üyelik durumu. Her okuyuşta taze hesaplanır,
// hiçbir yerde saklanmaz; kaynak veri Membership.Status + EndDate.
type DerivedStatus string

const (
	StatusNoMembership DerivedStatus = "No Membership"
	StatusActive       DerivedStatus = "Active"
	StatusExpiringSoon DerivedStatus = "Expiring Soon"
	StatusExpired      DerivedStatus = "Expired"
	StatusUnknown      DerivedStatus = "Unknown"
)

// DaysUntilEnd - end_date'e kalan tam gün (yukarı yuvarlanır).
// Bugün biten üyelik için 0, yarın bitmesi için 1 döner.
func DaysUntilEnd(endDate, now time.Time) int {
	diff := endDate.Sub(now)
	days := int(diff.Hours() / 24)
	if diff > 0 && diff%(24*time.Hour) != 0 {
		days++
	}
	return days
}

// ComputeStatus - Üyelik kaydından görüntülenen durumu türetir. Saf fonksiyon,
// yan etkisi yok.
//
// Öncelik sırası:
//  1. Kayıt yoksa "No Membership"
//  2. Ham durum "expired" ise "Expired" (açıkça işaretlenmişse tarih bakılmaz)
//  3. end_date geçmişse "Expired" - ham durum hala "active" olsa bile.
//     Depodaki durum henüz güncellenmemiş olabilir; giriş kararı için
//     zaman esas alınır.
//  4. end_date'e 0 < gün <= expiringSoonDays kaldıysa "Expiring Soon"
//  5. Ham durum "active" ise "Active"
//  6. Diğer ham durumlar olduğu gibi; boşsa "Unknown"
func ComputeStatus(m *models.Membership, now time.Time, expiringSoonDays int) DerivedStatus {
	if m == nil {
		return StatusNoMembership
	}

	if m.Status == models.MembershipExpired {
		return StatusExpired
	}

	if !m.EndDate.IsZero() {
		days := DaysUntilEnd(m.EndDate, now)
		if days <= 0 {
			return StatusExpired
		}
		if days <= expiringSoonDays {
			return StatusExpiringSoon
		}
	}

	if m.Status == models.MembershipActive {
		return StatusActive
	}

	if m.Status == "" {
		return StatusUnknown
	}
	return DerivedStatus(m.Status)
}

// Admits - Bu durum kapıdan girişe izin verir mi?
func (s DerivedStatus) Admits() bool {
	return s == StatusActive || s == StatusExpiringSoon
}

// CurrentMembership - Üyenin güncel (en son başlayan) üyeliği. Kayıt yoksa nil.
func CurrentMembership(memberships []models.Membership) *models.Membership {
	if len(memberships) == 0 {
		return nil
	}
	latest := &memberships[0]
	for i := range memberships {
		if memberships[i].StartDate.After(latest.StartDate) {
			latest = &memberships[i]
		}
	}
	return latest
}
