package membership

import (
	"testing"
	"time"

	"gymsync-backend/internal/models"

	"github.com/stretchr/testify/assert"
)

const expiringSoonDays = 20

func membershipWith(status models.MembershipStatus, endDate time.Time) *models.Membership {
	return &models.Membership{
		Status:    status,
		StartDate: endDate.AddDate(0, -1, 0),
		EndDate:   endDate,
	}
}

func TestComputeStatus(t *testing.T) {
	now := time.Date(2025, 12, 9, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		m    *models.Membership
		want DerivedStatus
	}{
		{
			name: "kayıt yoksa No Membership",
			m:    nil,
			want: StatusNoMembership,
		},
		{
			name: "ham durum expired ise tarih ne olursa olsun Expired",
			m:    membershipWith(models.MembershipExpired, now.AddDate(1, 0, 0)),
			want: StatusExpired,
		},
		{
			name: "bitişe tam 20 gün kala Expiring Soon (sınır)",
			m:    membershipWith(models.MembershipActive, now.AddDate(0, 0, expiringSoonDays)),
			want: StatusExpiringSoon,
		},
		{
			name: "bitişe 21 gün kala Active (sınırın dışı)",
			m:    membershipWith(models.MembershipActive, now.AddDate(0, 0, expiringSoonDays+1)),
			want: StatusActive,
		},
		{
			name: "bitişe 5 gün kala Expiring Soon",
			m:    membershipWith(models.MembershipActive, now.AddDate(0, 0, 5)),
			want: StatusExpiringSoon,
		},
		{
			name: "end_date geçmiş ama ham durum hala active ise Expired",
			m:    membershipWith(models.MembershipActive, now.AddDate(0, 0, -3)),
			want: StatusExpired,
		},
		{
			name: "end_date tam şu an ise Expired",
			m:    membershipWith(models.MembershipActive, now),
			want: StatusExpired,
		},
		{
			name: "pending durumu pencere dışındaysa olduğu gibi döner",
			m:    membershipWith(models.MembershipPending, now.AddDate(0, 1, 0)),
			want: DerivedStatus("pending"),
		},
		{
			name: "cancelled durumu pencere dışındaysa olduğu gibi döner",
			m:    membershipWith(models.MembershipCancelled, now.AddDate(0, 1, 0)),
			want: DerivedStatus("cancelled"),
		},
		{
			name: "durum boşsa Unknown",
			m: &models.Membership{
				Status: "",
				// EndDate sıfır değer: tarih heuristiği atlanır
			},
			want: StatusUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeStatus(tt.m, now, expiringSoonDays)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDaysUntilEnd(t *testing.T) {
	now := time.Date(2025, 12, 9, 12, 0, 0, 0, time.UTC)

	// Yukarı yuvarlama: yarım gün kalmışsa 1 gün sayılır
	assert.Equal(t, 1, DaysUntilEnd(now.Add(12*time.Hour), now))
	assert.Equal(t, 1, DaysUntilEnd(now.Add(24*time.Hour), now))
	assert.Equal(t, 2, DaysUntilEnd(now.Add(25*time.Hour), now))
	assert.Equal(t, 0, DaysUntilEnd(now, now))
	assert.Equal(t, -1, DaysUntilEnd(now.Add(-36*time.Hour), now))
}

func TestAdmits(t *testing.T) {
	assert.True(t, StatusActive.Admits())
	assert.True(t, StatusExpiringSoon.Admits())
	assert.False(t, StatusExpired.Admits())
	assert.False(t, StatusNoMembership.Admits())
	assert.False(t, StatusUnknown.Admits())
	assert.False(t, DerivedStatus("pending").Admits())
}

func TestCurrentMembership(t *testing.T) {
	assert.Nil(t, CurrentMembership(nil))

	old := models.Membership{ID: 1, StartDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	recent := models.Membership{ID: 2, StartDate: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)}

	got := CurrentMembership([]models.Membership{old, recent})
	assert.Equal(t, uint(2), got.ID)
}
