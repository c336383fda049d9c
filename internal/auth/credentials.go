package auth

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"gorm.io/gorm"

	"flowdeck/internal/models"
)

const passwordAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%"

// GeneratePassword returns a random 12-character password for admin-created
// accounts and password resets.
func GeneratePassword() (string, error) {
	var b strings.Builder
	for i := 0; i < 12; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(passwordAlphabet))))
		if err != nil {
			return "", err
		}
		b.WriteByte(passwordAlphabet[n.Int64()])
	}
	return b.String(), nil
}

// DeriveLoginID builds an org-unique login id from a full name: the
// lowercased name with spaces removed, plus a numeric suffix on collision
// ("janedoe", "janedoe1", ...).
func DeriveLoginID(tx *gorm.DB, orgID int64, fullName string) (string, error) {
	base := strings.ToLower(strings.Join(strings.Fields(fullName), ""))
	if base == "" {
		base = "user"
	}

	loginID := base
	for counter := 1; ; counter++ {
		var count int64
		err := tx.Model(&models.User{}).
			Where("org_id = ? AND login_id = ?", orgID, loginID).
			Count(&count).Error
		if err != nil {
			return "", err
		}
		if count == 0 {
			return loginID, nil
		}
		loginID = fmt.Sprintf("%s%d", base, counter)
	}
}
