package checkin

import (
	"testing"
	"time"

	"gymsync-backend/internal/membership"
	"gymsync-backend/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestEvaluate(t *testing.T) {
	now := time.Date(2025, 12, 9, 12, 0, 0, 0, time.UTC)
	cooldown := 2 * time.Hour

	validCred := &models.CheckInCredential{
		ID:        1,
		MemberID:  1,
		Token:     "tok",
		ExpiresAt: now.Add(5 * time.Minute),
	}
	expiredCred := &models.CheckInCredential{
		ID:        2,
		MemberID:  1,
		Token:     "tok2",
		ExpiresAt: now.Add(-1 * time.Minute),
	}

	recentCheckIn := now.Add(-30 * time.Minute)
	oldCheckIn := now.Add(-3 * time.Hour)

	tests := []struct {
		name        string
		cred        *models.CheckInCredential
		status      membership.DerivedStatus
		last        *time.Time
		wantSuccess bool
	}{
		{"kod yoksa red", nil, membership.StatusActive, nil, false},
		{"süresi dolmuş kod red", expiredCred, membership.StatusActive, nil, false},
		{"bekleme süresi içinde red", validCred, membership.StatusActive, &recentCheckIn, false},
		{"bekleme süresi geçmişse girer", validCred, membership.StatusActive, &oldCheckIn, true},
		{"aktif üyelik girer", validCred, membership.StatusActive, nil, true},
		{"yakında bitecek üyelik girer", validCred, membership.StatusExpiringSoon, nil, true},
		{"bitmiş üyelik red", validCred, membership.StatusExpired, nil, false},
		{"üyeliği olmayan red", validCred, membership.StatusNoMembership, nil, false},
		{"pending üyelik red", validCred, membership.DerivedStatus("pending"), nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate(tt.cred, tt.status, tt.last, now, cooldown)
			assert.Equal(t, tt.wantSuccess, got.Success)
			if !tt.wantSuccess {
				assert.NotEmpty(t, got.Message, "red sonucu okunabilir mesaj taşımalı")
			}
		})
	}
}

func TestEvaluateChecksCredentialBeforeStatus(t *testing.T) {
	// Süresi dolmuş kod + bitmiş üyelik: ilk takılan kontrol kodun süresi olmalı
	now := time.Date(2025, 12, 9, 12, 0, 0, 0, time.UTC)
	expired := &models.CheckInCredential{ExpiresAt: now.Add(-time.Minute)}

	got := Evaluate(expired, membership.StatusExpired, nil, now, time.Hour)
	assert.False(t, got.Success)
	assert.Contains(t, got.Message, "süresi dolmuş")
}
