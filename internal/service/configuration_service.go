package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/edu-portal-api/internal/dto"
	"github.com/noah-isme/edu-portal-api/internal/models"
	appErrors "github.com/noah-isme/edu-portal-api/pkg/errors"
)

// Setting keys.
const (
	SettingPrimaryColor   = "theme_primary_color"
	SettingSecondaryColor = "theme_secondary_color"
	SettingAccentColor    = "theme_accent_color"
	SettingSiteName       = "site_name"
	SettingShowMentors    = "show_mentor_directory"
)

type configurationRepository interface {
	ListByKeys(ctx context.Context, keys []string) ([]models.Configuration, error)
	Get(ctx context.Context, key string) (*models.Configuration, error)
	Upsert(ctx context.Context, cfg *models.Configuration) error
	BulkUpsert(ctx context.Context, cfgs []models.Configuration) error
}

type allowedConfiguration struct {
	Key         string
	Type        models.ConfigurationType
	Description string
}

var allowedConfigurationKeys = []string{
	SettingSiteName,
	SettingPrimaryColor,
	SettingSecondaryColor,
	SettingAccentColor,
	SettingShowMentors,
}

var allowedConfigurations = map[string]allowedConfiguration{
	SettingSiteName:       {Key: SettingSiteName, Type: models.ConfigurationTypeString, Description: "Site name shown in the header"},
	SettingPrimaryColor:   {Key: SettingPrimaryColor, Type: models.ConfigurationTypeColor, Description: "Primary theme color"},
	SettingSecondaryColor: {Key: SettingSecondaryColor, Type: models.ConfigurationTypeColor, Description: "Secondary theme color"},
	SettingAccentColor:    {Key: SettingAccentColor, Type: models.ConfigurationTypeColor, Description: "Accent theme color"},
	SettingShowMentors:    {Key: SettingShowMentors, Type: models.ConfigurationTypeBoolean, Description: "Show the public mentor directory"},
}

var builtinConfigurationDefaults = map[string]string{
	SettingSiteName:       "Edu Portal",
	SettingPrimaryColor:   "#1d4ed8",
	SettingSecondaryColor: "#0f172a",
	SettingAccentColor:    "#f59e0b",
	SettingShowMentors:    "true",
}

// ConfigurationServiceConfig tunes runtime behaviour.
type ConfigurationServiceConfig struct {
	Defaults                map[string]string
	TestRegistrationEnabled bool
}

// ConfigurationService manages the site settings, including the theme.
type ConfigurationService struct {
	repo        configurationRepository
	audit       auditLogger
	validator   *validator.Validate
	logger      *zap.Logger
	defaults    map[string]string
	testEnabled bool
}

// NewConfigurationService constructs a ConfigurationService.
func NewConfigurationService(repo configurationRepository, audit auditLogger, validate *validator.Validate, logger *zap.Logger, cfg ConfigurationServiceConfig) *ConfigurationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	defaults := make(map[string]string, len(builtinConfigurationDefaults))
	for key, value := range builtinConfigurationDefaults {
		defaults[key] = value
	}
	for key, value := range cfg.Defaults {
		if value == "" {
			continue
		}
		defaults[key] = value
	}
	return &ConfigurationService{
		repo:        repo,
		audit:       audit,
		validator:   validate,
		logger:      logger,
		defaults:    defaults,
		testEnabled: cfg.TestRegistrationEnabled,
	}
}

// List returns configuration items scoped to allowed keys, filling gaps with defaults.
func (s *ConfigurationService) List(ctx context.Context) ([]dto.ConfigurationItem, error) {
	keys := allowedKeys()
	rows, err := s.repo.ListByKeys(ctx, keys)
	if err != nil {
		return nil, internalError(err, "failed to list configurations")
	}
	existing := make(map[string]models.Configuration, len(rows))
	for _, row := range rows {
		existing[row.Key] = row
	}

	items := make([]dto.ConfigurationItem, 0, len(keys))
	for _, key := range keys {
		meta := allowedConfigurations[key]
		item := dto.ConfigurationItem{
			Key:         key,
			Type:        string(meta.Type),
			Description: meta.Description,
		}
		if row, ok := existing[key]; ok {
			item.Value = row.Value
			if row.Description != nil && *row.Description != "" {
				item.Description = *row.Description
			}
		} else if def, ok := s.defaultValue(key); ok {
			item.Value = def
		}
		items = append(items, item)
	}
	return items, nil
}

// Theme assembles the typed theme object from the persisted settings.
func (s *ConfigurationService) Theme(ctx context.Context) (*dto.ThemeSettings, error) {
	items, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	theme := themeFrom(items)
	return &theme, nil
}

// SiteSettings returns the public settings payload: theme, feature toggles and raw items.
func (s *ConfigurationService) SiteSettings(ctx context.Context) (*dto.SiteSettings, error) {
	items, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return &dto.SiteSettings{
		Theme:                   themeFrom(items),
		TestRegistrationEnabled: s.testEnabled,
		Items:                   items,
	}, nil
}

func themeFrom(items []dto.ConfigurationItem) dto.ThemeSettings {
	var theme dto.ThemeSettings
	for _, item := range items {
		switch item.Key {
		case SettingPrimaryColor:
			theme.PrimaryColor = item.Value
		case SettingSecondaryColor:
			theme.SecondaryColor = item.Value
		case SettingAccentColor:
			theme.AccentColor = item.Value
		case SettingSiteName:
			theme.SiteName = item.Value
		}
	}
	return theme
}

// Get retrieves a single configuration.
func (s *ConfigurationService) Get(ctx context.Context, key string) (*dto.ConfigurationItem, error) {
	meta, err := s.requireAllowedKey(key)
	if err != nil {
		return nil, err
	}
	cfg, err := s.repo.Get(ctx, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			if def, ok := s.defaultValue(key); ok {
				return &dto.ConfigurationItem{
					Key:         key,
					Value:       def,
					Type:        string(meta.Type),
					Description: meta.Description,
				}, nil
			}
			return nil, appErrors.Clone(appErrors.ErrNotFound, "configuration not found")
		}
		return nil, internalError(err, "failed to get configuration")
	}
	description := meta.Description
	if cfg.Description != nil && *cfg.Description != "" {
		description = *cfg.Description
	}
	return &dto.ConfigurationItem{
		Key:         cfg.Key,
		Value:       cfg.Value,
		Type:        string(cfg.Type),
		Description: description,
	}, nil
}

// Update upserts a configuration entry.
func (s *ConfigurationService) Update(ctx context.Context, key string, value string, actor *models.JWTClaims) (*dto.ConfigurationItem, error) {
	meta, err := s.requireAllowedKey(key)
	if err != nil {
		return nil, err
	}
	value, err = s.validateValue(meta, value)
	if err != nil {
		return nil, err
	}

	prev, err := s.repo.Get(ctx, key)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, internalError(err, "failed to fetch configuration")
	}
	if prev != nil && prev.Type != meta.Type {
		return nil, appErrors.Clone(appErrors.ErrValidation, "configuration type mismatch")
	}

	cfg := &models.Configuration{
		Key:         key,
		Value:       value,
		Type:        meta.Type,
		Description: strPtr(meta.Description),
		UpdatedBy:   userIDPtr(actor),
	}
	if err := s.repo.Upsert(ctx, cfg); err != nil {
		return nil, internalError(err, "failed to update configuration")
	}

	s.emitAudit(ctx, actor, key, prevValue(prev), value)

	return &dto.ConfigurationItem{
		Key:         key,
		Value:       value,
		Type:        string(meta.Type),
		Description: meta.Description,
	}, nil
}

// BulkUpdate validates every item before writing any of them.
func (s *ConfigurationService) BulkUpdate(ctx context.Context, req dto.BulkUpdateConfigurationRequest, actor *models.JWTClaims) ([]dto.ConfigurationItem, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid bulk payload")
	}
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}

	keys := make([]string, 0, len(req.Items))
	for _, item := range req.Items {
		keys = append(keys, item.Key)
	}
	existing, err := s.repo.ListByKeys(ctx, keys)
	if err != nil {
		return nil, internalError(err, "failed to load existing configurations")
	}
	existingMap := make(map[string]models.Configuration, len(existing))
	for _, cfg := range existing {
		existingMap[cfg.Key] = cfg
	}

	toUpsert := make([]models.Configuration, 0, len(req.Items))
	for _, item := range req.Items {
		meta, err := s.requireAllowedKey(item.Key)
		if err != nil {
			return nil, err
		}
		normalizedValue, err := s.validateValue(meta, item.Value)
		if err != nil {
			return nil, err
		}
		if prev, ok := existingMap[item.Key]; ok && prev.Type != meta.Type {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("configuration type mismatch for %s", item.Key))
		}
		toUpsert = append(toUpsert, models.Configuration{
			Key:         item.Key,
			Value:       normalizedValue,
			Type:        meta.Type,
			Description: strPtr(meta.Description),
			UpdatedBy:   userIDPtr(actor),
		})
	}

	if err := s.repo.BulkUpsert(ctx, toUpsert); err != nil {
		return nil, internalError(err, "failed to bulk update configurations")
	}

	result := make([]dto.ConfigurationItem, 0, len(toUpsert))
	for _, cfg := range toUpsert {
		result = append(result, dto.ConfigurationItem{
			Key:         cfg.Key,
			Value:       cfg.Value,
			Type:        string(cfg.Type),
			Description: allowedConfigurations[cfg.Key].Description,
		})
		var prev *models.Configuration
		if row, ok := existingMap[cfg.Key]; ok {
			prev = &row
		}
		s.emitAudit(ctx, actor, cfg.Key, prevValue(prev), cfg.Value)
	}
	return result, nil
}

func (s *ConfigurationService) requireAllowedKey(key string) (allowedConfiguration, error) {
	meta, ok := allowedConfigurations[key]
	if !ok {
		return allowedConfiguration{}, appErrors.Clone(appErrors.ErrValidation, "unsupported configuration key")
	}
	return meta, nil
}

func (s *ConfigurationService) validateValue(meta allowedConfiguration, value string) (string, error) {
	value = strings.TrimSpace(value)
	switch meta.Type {
	case models.ConfigurationTypeBoolean:
		switch strings.ToLower(value) {
		case "true":
			return "true", nil
		case "false":
			return "false", nil
		default:
			return "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s expects boolean value", meta.Key))
		}
	case models.ConfigurationTypeColor:
		if err := s.validator.Var(value, "required,hexcolor"); err != nil {
			return "", validationError(err, fmt.Sprintf("%s expects a hex color such as #1d4ed8", meta.Key))
		}
		return strings.ToLower(value), nil
	case models.ConfigurationTypeString:
		if value == "" {
			return "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s must not be empty", meta.Key))
		}
		return value, nil
	default:
		return "", appErrors.Clone(appErrors.ErrValidation, "unsupported configuration type")
	}
}

func (s *ConfigurationService) emitAudit(ctx context.Context, actor *models.JWTClaims, key, oldValue, newValue string) {
	if s.audit == nil {
		return
	}
	oldBytes, _ := json.Marshal(map[string]string{"key": key, "value": oldValue})
	newBytes, _ := json.Marshal(map[string]string{"key": key, "value": newValue})
	log := &models.AuditLog{
		UserID:     userIDPtr(actor),
		Action:     models.AuditActionSettingsUpdate,
		Resource:   "configuration",
		ResourceID: &key,
		OldValues:  oldBytes,
		NewValues:  newBytes,
		IPAddress:  "system",
		UserAgent:  "configuration-service",
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to record configuration audit", zap.Error(err))
	}
}

func (s *ConfigurationService) defaultValue(key string) (string, bool) {
	value, ok := s.defaults[key]
	return value, ok
}

func allowedKeys() []string {
	keys := make([]string, len(allowedConfigurationKeys))
	copy(keys, allowedConfigurationKeys)
	return keys
}

func prevValue(cfg *models.Configuration) string {
	if cfg == nil {
		return ""
	}
	return cfg.Value
}

func strPtr(value string) *string {
	if value == "" {
		return nil
	}
	result := value
	return &result
}
