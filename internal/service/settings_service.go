package service

import (
	"context"
	"strings"

	"chezben/internal/domain"
	"chezben/internal/models"
	"chezben/internal/repository"
)

const (
	SettingSiteName     = "site_name"
	SettingContactEmail = "contact_email"
	SettingContactPhone = "contact_phone"
	SettingAddress      = "address"
	SettingCreditPrice  = "credit_price_xaf"
	SettingCommission   = "commission_percentage"
	SettingMaintenance  = "maintenance_mode"
)

const DefaultCreditPrice = 100

// DefaultSettings are inserted at startup when missing.
func DefaultSettings() []models.PlatformSetting {
	return []models.PlatformSetting{
		{Key: SettingSiteName, Value: "Chez-BEN2", Description: "Nom du site"},
		{Key: SettingContactEmail, Value: "contact@chez-ben2.com", Description: "E-mail de contact"},
		{Key: SettingContactPhone, Value: "+237 600 000 000", Description: "Téléphone de contact"},
		{Key: SettingAddress, Value: "Douala, Cameroun", Description: "Adresse"},
		{Key: SettingCreditPrice, Value: "100", Description: "Prix d'un crédit en XAF"},
		{Key: SettingCommission, Value: "5.00", Description: "Commission en pourcentage"},
		{Key: SettingMaintenance, Value: "false", Description: "Mode maintenance"},
	}
}

type SettingsService struct {
	repo *repository.SettingRepository
}

func NewSettingsService(repo *repository.SettingRepository) *SettingsService {
	return &SettingsService{repo: repo}
}

func (s *SettingsService) Seed() error {
	return s.repo.SeedDefaults(DefaultSettings())
}

// All returns the settings as a key/value map.
func (s *SettingsService) All(ctx context.Context) (map[string]string, error) {
	list, err := s.repo.GetAll()
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(list))
	for _, st := range list {
		out[st.Key] = st.Value
	}
	return out, nil
}

// Update upserts every given key and returns the resulting settings.
func (s *SettingsService) Update(ctx context.Context, caller domain.Caller, values map[string]string) (map[string]string, error) {
	if !caller.IsAdmin() {
		return nil, forbidden("admin role required")
	}
	if len(values) == 0 {
		return nil, invalid("no settings given")
	}
	for k, v := range values {
		k = strings.TrimSpace(k)
		if k == "" || len(k) > 100 {
			return nil, invalid("invalid setting key %q", k)
		}
		if err := s.repo.Set(k, v); err != nil {
			return nil, err
		}
	}
	return s.All(ctx)
}
