package storage

import (
	"errors"
	"fmt"
	"log/slog"

	"gorm.io/gorm"
)

// Toggle selects one boolean feature switch of GroupSettings.
type Toggle int

const (
	ToggleWelcome Toggle = iota
	ToggleForceJoin
	ToggleAntiSpam
	ToggleAntiLink
	ToggleWordFilter
	ToggleAntiFlood
	ToggleMuteNewMembers
	ToggleAIModerator
)

// GetSettings retrieves the settings row for a chat.
// Returns ErrNotFound when the chat has no settings yet.
func (s *Storage) GetSettings(chatID int64) (*GroupSettings, error) {
	var settings GroupSettings
	result := s.db.Where("chat_id = ?", chatID).First(&settings)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if result.Error != nil {
		slog.Error("storage: Failed to get settings", "error", result.Error, "chat_id", chatID)
		return nil, fmt.Errorf("failed to get settings: %w", result.Error)
	}
	return &settings, nil
}

// EnsureSettings retrieves the settings row for a chat, creating it with
// defaults when absent.
func (s *Storage) EnsureSettings(chatID int64) (*GroupSettings, error) {
	settings, err := s.GetSettings(chatID)
	if err == nil {
		return settings, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	slog.Debug("storage: Settings not found, creating defaults", "chat_id", chatID)

	settings = DefaultSettings(chatID)
	if err := s.db.Create(settings).Error; err != nil {
		slog.Error("storage: Failed to create default settings", "error", err, "chat_id", chatID)
		return nil, fmt.Errorf("failed to create default settings: %w", err)
	}
	return settings, nil
}

// SaveSettings persists a modified settings row.
func (s *Storage) SaveSettings(settings *GroupSettings) error {
	result := s.db.Save(settings)
	if result.Error != nil {
		slog.Error("storage: Failed to save settings", "error", result.Error, "chat_id", settings.ChatID)
		return fmt.Errorf("failed to save settings: %w", result.Error)
	}
	return nil
}

// ToggleSetting flips one feature switch and returns the updated row.
func (s *Storage) ToggleSetting(chatID int64, toggle Toggle) (*GroupSettings, error) {
	settings, err := s.EnsureSettings(chatID)
	if err != nil {
		return nil, err
	}

	switch toggle {
	case ToggleWelcome:
		settings.WelcomeEnabled = !settings.WelcomeEnabled
	case ToggleForceJoin:
		settings.ForceJoinEnabled = !settings.ForceJoinEnabled
	case ToggleAntiSpam:
		settings.AntiSpamEnabled = !settings.AntiSpamEnabled
	case ToggleAntiLink:
		settings.AntiLinkEnabled = !settings.AntiLinkEnabled
	case ToggleWordFilter:
		settings.WordFilterEnabled = !settings.WordFilterEnabled
	case ToggleAntiFlood:
		settings.AntiFloodEnabled = !settings.AntiFloodEnabled
	case ToggleMuteNewMembers:
		settings.MuteNewMembers = !settings.MuteNewMembers
	case ToggleAIModerator:
		settings.AIModeratorEnabled = !settings.AIModeratorEnabled
	default:
		return nil, fmt.Errorf("unknown settings toggle %d", toggle)
	}

	if err := s.SaveSettings(settings); err != nil {
		return nil, err
	}
	return settings, nil
}

// UpdateSettings applies a partial update to a chat's settings. Keys use the
// JSON field names of GroupSettings; unknown keys and wrongly-typed values
// are rejected. Fields absent from the patch keep their current values.
func (s *Storage) UpdateSettings(chatID int64, patch map[string]any) (*GroupSettings, error) {
	settings, err := s.EnsureSettings(chatID)
	if err != nil {
		return nil, err
	}

	for key, value := range patch {
		if err := applyPatchField(settings, key, value); err != nil {
			return nil, err
		}
	}

	if err := s.SaveSettings(settings); err != nil {
		return nil, err
	}
	return settings, nil
}

func applyPatchField(settings *GroupSettings, key string, value any) error {
	switch key {
	case "welcomeEnabled":
		return patchBool(key, value, &settings.WelcomeEnabled)
	case "welcomeMessage":
		return patchString(key, value, &settings.WelcomeMessage)
	case "forceJoinEnabled":
		return patchBool(key, value, &settings.ForceJoinEnabled)
	case "forceJoinChannels":
		return patchStringSlice(key, value, &settings.ForceJoinChannels)
	case "antiSpamEnabled":
		return patchBool(key, value, &settings.AntiSpamEnabled)
	case "antiSpamMaxMessages":
		return patchInt(key, value, &settings.AntiSpamMaxMessages)
	case "antiLinkEnabled":
		return patchBool(key, value, &settings.AntiLinkEnabled)
	case "wordFilterEnabled":
		return patchBool(key, value, &settings.WordFilterEnabled)
	case "bannedWords":
		return patchStringSlice(key, value, &settings.BannedWords)
	case "antiFloodEnabled":
		return patchBool(key, value, &settings.AntiFloodEnabled)
	case "antiFloodMessages":
		return patchInt(key, value, &settings.AntiFloodMessages)
	case "antiFloodSeconds":
		return patchInt(key, value, &settings.AntiFloodSeconds)
	case "warnLimit":
		return patchInt(key, value, &settings.WarnLimit)
	case "warnAction":
		if err := patchString(key, value, &settings.WarnAction); err != nil {
			return err
		}
		switch settings.WarnAction {
		case WarnActionMute, WarnActionKick, WarnActionBan:
			return nil
		}
		return fmt.Errorf("invalid warnAction %q", settings.WarnAction)
	case "muteNewMembers":
		return patchBool(key, value, &settings.MuteNewMembers)
	case "muteNewMembersDuration":
		return patchInt(key, value, &settings.MuteNewMembersDuration)
	case "aiModeratorEnabled":
		return patchBool(key, value, &settings.AIModeratorEnabled)
	}
	return fmt.Errorf("unknown settings field %q", key)
}

func patchBool(key string, value any, dst *bool) error {
	v, ok := value.(bool)
	if !ok {
		return fmt.Errorf("field %q expects a boolean", key)
	}
	*dst = v
	return nil
}

func patchString(key string, value any, dst *string) error {
	v, ok := value.(string)
	if !ok {
		return fmt.Errorf("field %q expects a string", key)
	}
	*dst = v
	return nil
}

func patchInt(key string, value any, dst *int) error {
	// JSON numbers decode as float64.
	switch v := value.(type) {
	case float64:
		*dst = int(v)
	case int:
		*dst = v
	default:
		return fmt.Errorf("field %q expects a number", key)
	}
	return nil
}

func patchStringSlice(key string, value any, dst *[]string) error {
	switch v := value.(type) {
	case []string:
		*dst = v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return fmt.Errorf("field %q expects an array of strings", key)
			}
			out = append(out, s)
		}
		*dst = out
	default:
		return fmt.Errorf("field %q expects an array of strings", key)
	}
	return nil
}
