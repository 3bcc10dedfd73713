package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"bitbucket.org/arcadeworks/arcade_backend/config"
	"bitbucket.org/arcadeworks/arcade_backend/utils"
	"github.com/shopspring/decimal"
)

type Venue struct {
	ID                   int             `gorm:"primary_key" json:"id"`
	BusinessId           string          `gorm:"index;not null" json:"business_id"`
	Name                 string          `gorm:"size:100;not null" json:"name" binding:"required"`
	Address              string          `gorm:"type:text" json:"address"`
	City                 string          `gorm:"size:100" json:"city"`
	ContactName          string          `gorm:"size:100" json:"contact_name"`
	ContactPhone         string          `gorm:"size:20" json:"contact_phone"`
	ContactEmail         string          `gorm:"size:100" json:"contact_email"`
	CommissionPercentage decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0" json:"commission_percentage"`
	LogoUrl              string          `json:"logo_url"`
	IsActive             *bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt            time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (obj Venue) GetBusinessId() string {
	return obj.BusinessId
}

type NewVenue struct {
	Name                 string          `json:"name" binding:"required"`
	Address              string          `json:"address"`
	City                 string          `json:"city"`
	ContactName          string          `json:"contact_name"`
	ContactPhone         string          `json:"contact_phone"`
	ContactEmail         string          `json:"contact_email"`
	CommissionPercentage decimal.Decimal `json:"commission_percentage"`
	LogoUrl              string          `json:"logo_url"`
}

// validate input for both create & update. (id = 0 for create)

func (input *NewVenue) validate(ctx context.Context, businessId string, id int) error {
	// name
	if err := utils.ValidateUnique[Venue](ctx, businessId, "name", input.Name, id); err != nil {
		return err
	}
	// commission is a percentage of money collected
	if input.CommissionPercentage.IsNegative() || input.CommissionPercentage.GreaterThan(decimal.NewFromInt(100)) {
		return errors.New("commission percentage must be between 0 and 100")
	}
	// contact phone
	if len(strings.TrimSpace(input.ContactPhone)) > 0 {
		if err := utils.ValidatePhoneNumber(input.ContactPhone, utils.CountryCode); err != nil {
			return errors.New("invalid contact phone")
		}
	}
	// contact email
	if len(strings.TrimSpace(input.ContactEmail)) > 0 && !utils.IsValidEmail(input.ContactEmail) {
		return errors.New("invalid contact email")
	}
	return nil
}

func CreateVenue(ctx context.Context, input *NewVenue) (*Venue, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if err := input.validate(ctx, businessId, 0); err != nil {
		return nil, err
	}

	venue := Venue{
		BusinessId:           businessId,
		Name:                 input.Name,
		Address:              input.Address,
		City:                 input.City,
		ContactName:          input.ContactName,
		ContactPhone:         input.ContactPhone,
		ContactEmail:         input.ContactEmail,
		CommissionPercentage: input.CommissionPercentage,
		LogoUrl:              input.LogoUrl,
		IsActive:             utils.NewTrue(),
	}

	// db action
	db := config.GetDB()
	err := db.WithContext(ctx).Create(&venue).Error
	if err != nil {
		return nil, err
	}

	if err := venue.RemoveAllRedis(); err != nil {
		return nil, err
	}
	return &venue, nil
}

func UpdateVenue(ctx context.Context, id int, input *NewVenue) (*Venue, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if err := input.validate(ctx, businessId, id); err != nil {
		return nil, err
	}

	venue, err := utils.FetchModel[Venue](ctx, businessId, id)
	if err != nil {
		return nil, err
	}

	// db action
	db := config.GetDB()
	err = db.WithContext(ctx).Model(&venue).Updates(map[string]interface{}{
		"Name":                 input.Name,
		"Address":              input.Address,
		"City":                 input.City,
		"ContactName":          input.ContactName,
		"ContactPhone":         input.ContactPhone,
		"ContactEmail":         input.ContactEmail,
		"CommissionPercentage": input.CommissionPercentage,
		"LogoUrl":              input.LogoUrl,
	}).Error
	if err != nil {
		return nil, err
	}

	if err := RemoveRedisBoth(*venue); err != nil {
		return nil, err
	}
	return venue, nil
}

func DeleteVenue(ctx context.Context, id int) (*Venue, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	db := config.GetDB()
	result, err := utils.FetchModel[Venue](ctx, businessId, id)
	if err != nil {
		return nil, err
	}

	// check if venue still has machines
	var count int64
	if err := db.WithContext(ctx).Model(&Machine{}).
		Where("venue_id = ?", id).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, errors.New("venue has machines")
	}

	// db action
	err = db.WithContext(ctx).Delete(&result).Error
	if err != nil {
		return nil, err
	}

	if err := RemoveRedisBoth(*result); err != nil {
		return nil, err
	}
	return result, nil
}

func GetVenue(ctx context.Context, id int) (*Venue, error) {
	return GetResource[Venue](ctx, id)
}

func ListVenue(ctx context.Context, name *string) ([]*Venue, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	db := config.GetDB()
	var results []*Venue

	dbCtx := db.WithContext(ctx).Where("business_id = ?", businessId)
	if name != nil && len(*name) > 0 {
		dbCtx = dbCtx.Where("name LIKE ?", "%"+*name+"%")
	}
	// db query
	err := dbCtx.Order("name").Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func ListAllVenue(ctx context.Context) ([]*AllVenue, error) {
	return ListAllResource[Venue, AllVenue](ctx, "name")
}

func ToggleActiveVenue(ctx context.Context, id int, isActive bool) (*Venue, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	return ToggleActiveModel[Venue](ctx, businessId, id, isActive)
}
