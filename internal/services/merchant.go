package services

import (
	"errors"

	"gorm.io/gorm"

	"reckon/internal/models"
)

// resolveMerchant finds or creates the user's merchant for a normalized
// name and returns its id. The raw statement description is appended to
// the merchant's RawNames the first time it is seen. An empty name
// resolves to nil without error.
func resolveMerchant(db *gorm.DB, userID, normalizedName, rawDescription string) (*string, error) {
	if normalizedName == "" {
		return nil, nil
	}

	var merchant models.Merchant
	err := db.Where("user_id = ? AND normalized_name = ?", userID, normalizedName).First(&merchant).Error
	if err == nil {
		if rawDescription != "" && !containsString(merchant.RawNames, rawDescription) {
			merchant.RawNames = append(merchant.RawNames, rawDescription)
			if err := db.Save(&merchant).Error; err != nil {
				return nil, err
			}
		}
		return &merchant.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	merchant = models.Merchant{
		UserID:         userID,
		NormalizedName: normalizedName,
	}
	if rawDescription != "" {
		merchant.RawNames = models.StringList{rawDescription}
	}
	if err := db.Create(&merchant).Error; err != nil {
		return nil, err
	}
	return &merchant.ID, nil
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
