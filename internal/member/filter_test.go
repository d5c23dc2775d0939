package member

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDaysInactive(t *testing.T) {
	now := time.Date(2025, 12, 9, 12, 0, 0, 0, time.UTC)

	assert.Nil(t, DaysInactive(nil, now))

	same := now
	d := DaysInactive(&same, now)
	if assert.NotNil(t, d) {
		assert.Equal(t, 0, *d)
	}

	eightDaysAgo := now.AddDate(0, 0, -8)
	d = DaysInactive(&eightDaysAgo, now)
	if assert.NotNil(t, d) {
		assert.Equal(t, 8, *d)
	}

	// Yukarı yuvarlama: 6.5 gün = 7 gün
	sixAndHalf := now.Add(-156 * time.Hour)
	d = DaysInactive(&sixAndHalf, now)
	if assert.NotNil(t, d) {
		assert.Equal(t, 7, *d)
	}
}

func sampleViews(now time.Time) []MemberView {
	active := now.AddDate(0, 1, 0)
	expiring := now.AddDate(0, 0, 10)
	lapsed := now.AddDate(0, 0, -5)
	recentVisit := now.AddDate(0, 0, -1)
	oldVisit := now.AddDate(0, 0, -10)

	return []MemberView{
		{ID: 1, FirstName: "Ali", LastName: "Yılmaz", Email: "ali@example.com", Username: "aliy", Phone: "05551112233", MembershipStatus: "active", EndDate: &active, LastCheckIn: &recentVisit},
		{ID: 2, FirstName: "Ayşe", LastName: "Demir", Email: "ayse@example.com", Username: "aysed", Phone: "05554445566", MembershipStatus: "active", EndDate: &expiring, LastCheckIn: &oldVisit},
		{ID: 3, FirstName: "Mehmet", LastName: "Kaya", Email: "mehmet@example.com", Username: "mehmetk", Phone: "05557778899", MembershipStatus: "expired", EndDate: &lapsed, LastCheckIn: nil},
		{ID: 4, FirstName: "Zeynep", LastName: "Şahin", Email: "zeynep@example.com", Username: "zeyneps", Phone: "", MembershipStatus: "", EndDate: nil, LastCheckIn: nil},
	}
}

func TestFilterMembers(t *testing.T) {
	now := time.Date(2025, 12, 9, 12, 0, 0, 0, time.UTC)
	views := sampleViews(now)

	t.Run("all + boş arama girdiyi sırasıyla aynen döner", func(t *testing.T) {
		got := FilterMembers(views, Filter{Category: "all", Search: ""}, now, 20, 7)
		assert.Equal(t, views, got)
	})

	t.Run("active kategorisi ham duruma bakar", func(t *testing.T) {
		got := FilterMembers(views, Filter{Category: "active"}, now, 20, 7)
		assert.Len(t, got, 2)
		assert.Equal(t, uint(1), got[0].ID)
		assert.Equal(t, uint(2), got[1].ID)
	})

	t.Run("expired kategorisi", func(t *testing.T) {
		got := FilterMembers(views, Filter{Category: "expired"}, now, 20, 7)
		assert.Len(t, got, 1)
		assert.Equal(t, uint(3), got[0].ID)
	})

	t.Run("expiring kategorisi pencere içindekileri seçer", func(t *testing.T) {
		got := FilterMembers(views, Filter{Category: "expiring"}, now, 20, 7)
		assert.Len(t, got, 1)
		assert.Equal(t, uint(2), got[0].ID)
	})

	t.Run("inactive kategorisi 7+ gün girmeyenleri seçer, hiç girmeyenleri değil", func(t *testing.T) {
		got := FilterMembers(views, Filter{Category: "inactive"}, now, 20, 7)
		assert.Len(t, got, 1)
		assert.Equal(t, uint(2), got[0].ID)
	})

	t.Run("arama email, username, telefon ve ad soyad üstünde çalışır", func(t *testing.T) {
		got := FilterMembers(views, Filter{Category: "all", Search: "ayse@"}, now, 20, 7)
		assert.Len(t, got, 1)
		assert.Equal(t, uint(2), got[0].ID)

		got = FilterMembers(views, Filter{Category: "all", Search: "mehmet kaya"}, now, 20, 7)
		assert.Len(t, got, 1)
		assert.Equal(t, uint(3), got[0].ID)

		got = FilterMembers(views, Filter{Category: "all", Search: "0555111"}, now, 20, 7)
		assert.Len(t, got, 1)
		assert.Equal(t, uint(1), got[0].ID)
	})

	t.Run("arama büyük-küçük harf duyarsız", func(t *testing.T) {
		got := FilterMembers(views, Filter{Category: "all", Search: "ALIY"}, now, 20, 7)
		assert.Len(t, got, 1)
		assert.Equal(t, uint(1), got[0].ID)
	})

	t.Run("kategori VE arama birlikte uygulanır", func(t *testing.T) {
		// Ayşe expiring, ama arama Ali'yi istiyor: kesişim boş
		got := FilterMembers(views, Filter{Category: "expiring", Search: "ali@"}, now, 20, 7)
		assert.Empty(t, got)
	})

	t.Run("üyeliği olmayan üye sadece all ile gelir", func(t *testing.T) {
		got := FilterMembers(views, Filter{Category: "active", Search: "zeynep"}, now, 20, 7)
		assert.Empty(t, got)

		got = FilterMembers(views, Filter{Category: "all", Search: "zeynep"}, now, 20, 7)
		assert.Len(t, got, 1)
	})
}
