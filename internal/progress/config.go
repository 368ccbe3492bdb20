package progress

import (
	"fmt"

	"github.com/pavelanni/codequest/internal/model"
	"github.com/pavelanni/codequest/internal/validate"
)

// Config holds the engine's scoring and league tunables.
type Config struct {
	MaxHearts     int `mapstructure:"max-hearts" validate:"gte=1,lte=100"`
	BaseXP        int `mapstructure:"base-xp" validate:"gte=0"`
	BonusXP       int `mapstructure:"bonus-xp" validate:"gtefield=BaseXP"`
	BonusStreak   int `mapstructure:"bonus-streak" validate:"gte=1"`
	PromotionZone int `mapstructure:"promotion-zone" validate:"gte=0"`
	DemotionZone  int `mapstructure:"demotion-zone" validate:"gte=0"`
}

// DefaultConfig returns the standard tunables.
func DefaultConfig() Config {
	return Config{
		MaxHearts:     model.DefaultMaxHearts,
		BaseXP:        10,
		BonusXP:       15,
		BonusStreak:   3,
		PromotionZone: 3,
		DemotionZone:  3,
	}
}

// Validate checks the tunables for consistency.
func (c Config) Validate() error {
	v, err := validate.Default()
	if err != nil {
		return fmt.Errorf("init validator: %w", err)
	}
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid engine config: %w", err)
	}
	return nil
}
