package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bitbucket.org/arcadeworks/arcade_backend/config"
	"bitbucket.org/arcadeworks/arcade_backend/utils"
	"github.com/google/uuid"
)

// Business is the operator company (the tenant). Every domain table is
// scoped by its id.
type Business struct {
	ID          uuid.UUID `gorm:"primary_key" json:"id"`
	LogoUrl     string    `json:"logo_url"`
	Name        string    `gorm:"index;size:100;not null" json:"name" binding:"required"`
	ContactName string    `gorm:"size:100" json:"contact_name"`
	Email       string    `gorm:"size:255" json:"email"`
	Phone       string    `gorm:"size:20" json:"phone"`
	Website     string    `gorm:"size:255" json:"website"`
	Address     string    `gorm:"type:text" json:"address"`
	Country     string    `gorm:"size:100"  json:"country"`
	City        string    `gorm:"size:100"  json:"city"`
	Timezone    string    `gorm:"size:50" json:"timezone"`
	IsActive    *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewBusiness struct {
	LogoUrl     string `json:"logo_url"`
	Name        string `json:"name" binding:"required"`
	ContactName string `json:"contact_name"`
	Email       string `json:"email" binding:"required"`
	Phone       string `json:"phone"`
	Website     string `json:"website"`
	Address     string `json:"address"`
	Country     string `json:"country"`
	City        string `json:"city"`
	Timezone    string `json:"timezone"`
}

func (business *Business) StoreRedis() error {
	return config.SetRedisObject("Business:"+fmt.Sprint(business.ID), business, 0)
}

func (business *Business) RemoveRedis() error {
	return config.RemoveRedisKey("Business:" + fmt.Sprint(business.ID))
}

// get business, redis or db, cache result
func GetBusinessById(ctx context.Context, businessId string) (*Business, error) {
	var business Business
	exists, err := config.GetRedisObject("Business:"+businessId, &business)
	if err != nil {
		return nil, err
	}
	if !exists {
		db := config.GetDB()
		if err := db.WithContext(ctx).Where("id = ?", businessId).First(&business).Error; err != nil {
			return nil, utils.ErrorRecordNotFound
		}
		if err := business.StoreRedis(); err != nil {
			return nil, err
		}
	}
	return &business, nil
}

func CreateBusiness(ctx context.Context, input *NewBusiness) (*Business, error) {
	if input.Email != "" && !utils.IsValidEmail(input.Email) {
		return nil, errors.New("invalid email address")
	}
	if input.Phone != "" {
		if err := utils.ValidatePhoneNumber(input.Phone, utils.CountryCode); err != nil {
			return nil, err
		}
	}

	business := Business{
		ID:          uuid.New(),
		LogoUrl:     input.LogoUrl,
		Name:        input.Name,
		ContactName: input.ContactName,
		Email:       input.Email,
		Phone:       input.Phone,
		Website:     input.Website,
		Address:     input.Address,
		Country:     input.Country,
		City:        input.City,
		Timezone:    input.Timezone,
		IsActive:    utils.NewTrue(),
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&business).Error; err != nil {
		return nil, err
	}
	return &business, nil
}

func UpdateBusiness(ctx context.Context, businessId string, input *NewBusiness) (*Business, error) {
	db := config.GetDB()

	var business Business
	if err := db.WithContext(ctx).Where("id = ?", businessId).First(&business).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}

	err := db.WithContext(ctx).Model(&business).Updates(map[string]interface{}{
		"LogoUrl":     input.LogoUrl,
		"Name":        input.Name,
		"ContactName": input.ContactName,
		"Email":       input.Email,
		"Phone":       input.Phone,
		"Website":     input.Website,
		"Address":     input.Address,
		"Country":     input.Country,
		"City":        input.City,
		"Timezone":    input.Timezone,
	}).Error
	if err != nil {
		return nil, err
	}

	if err := business.RemoveRedis(); err != nil {
		return nil, err
	}
	return &business, nil
}
