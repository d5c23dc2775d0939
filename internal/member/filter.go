package member

import (
	"strings"
	"time"

	"gymsync-backend/internal/membership"
)

// MemberView - Liste ekranının filtrelediği düz görünüm. Handler veritabanından
// doldurur, filtre saf kalır.
type MemberView struct {
	ID        uint
	FirstName string
	LastName  string
	Email     string
	Username  string
	Phone     string

	// Güncel üyeliğin ham durumu; üyelik yoksa boş
	MembershipStatus string
	EndDate          *time.Time

	LastCheckIn *time.Time
}

type Filter struct {
	Category string // "all" | "active" | "expired" | "expiring" | "inactive"
	Search   string
}

// DaysInactive - Son girişten bu yana geçen tam gün (yukarı yuvarlanır).
// Hiç giriş yoksa nil ("Hiç" olarak gösterilir).
func DaysInactive(lastCheckIn *time.Time, now time.Time) *int {
	if lastCheckIn == nil {
		return nil
	}
	diff := now.Sub(*lastCheckIn)
	days := int(diff.Hours() / 24)
	if diff > 0 && diff%(24*time.Hour) != 0 {
		days++
	}
	if days < 0 {
		days = 0
	}
	return &days
}

// Matches - Kategori VE arama birlikte sağlanırsa üye seçilir.
func Matches(v MemberView, f Filter, now time.Time, expiringSoonDays, inactiveAfterDays int) bool {
	return matchesCategory(v, f.Category, now, expiringSoonDays, inactiveAfterDays) &&
		matchesSearch(v, f.Search)
}

func matchesCategory(v MemberView, category string, now time.Time, expiringSoonDays, inactiveAfterDays int) bool {
	switch category {
	case "", "all":
		return true
	case "active", "expired":
		// Ham üyelik durumu üzerinden birebir eşleşme
		return v.MembershipStatus == category
	case "expiring":
		if v.EndDate == nil {
			return false
		}
		days := membership.DaysUntilEnd(*v.EndDate, now)
		return days > 0 && days <= expiringSoonDays
	case "inactive":
		d := DaysInactive(v.LastCheckIn, now)
		return d != nil && *d >= inactiveAfterDays
	default:
		return false
	}
}

func matchesSearch(v MemberView, term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}

	fullName := strings.ToLower(v.FirstName + " " + v.LastName)
	return strings.Contains(strings.ToLower(v.Email), term) ||
		strings.Contains(strings.ToLower(v.Username), term) ||
		strings.Contains(strings.ToLower(v.Phone), term) ||
		strings.Contains(fullName, term)
}

// FilterMembers - Sıralamayı koruyarak filtreler.
func FilterMembers(views []MemberView, f Filter, now time.Time, expiringSoonDays, inactiveAfterDays int) []MemberView {
	out := make([]MemberView, 0, len(views))
	for _, v := range views {
		if Matches(v, f, now, expiringSoonDays, inactiveAfterDays) {
			out = append(out, v)
		}
	}
	return out
}
