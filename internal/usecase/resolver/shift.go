package resolver

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/LavaJover/shvark-payout-service/internal/domain"
)

const (
	KeyDayShiftStartHour      = "disputeDayShiftStartHour"
	KeyDayShiftEndHour        = "disputeDayShiftEndHour"
	KeyDayShiftTimeoutMinutes = "disputeDayShiftTimeoutMinutes"
	KeyNightShiftTimeoutMins  = "disputeNightShiftTimeoutMinutes"
)

// ShiftConfig - сколько ждать ответа по спору днём и ночью
type ShiftConfig struct {
	DayStartHour int
	DayEndHour   int
	DayTimeout   time.Duration
	NightTimeout time.Duration
}

func DefaultShiftConfig() ShiftConfig {
	return ShiftConfig{
		DayStartHour: 9,
		DayEndHour:   21,
		DayTimeout:   30 * time.Minute,
		NightTimeout: 60 * time.Minute,
	}
}

// IsDay - дневная смена: start <= час < end.
// При start > end окно переходит через полночь (например 22 -> 6).
func (c ShiftConfig) IsDay(t time.Time) bool {
	h := t.Hour()
	if c.DayStartHour > c.DayEndHour {
		return h >= c.DayStartHour || h < c.DayEndHour
	}
	return h >= c.DayStartHour && h < c.DayEndHour
}

// Deadline - момент, после которого спор закрывается автоматически.
// Смена определяется по времени открытия спора в часовом поясе loc.
func (c ShiftConfig) Deadline(createdAt time.Time, loc *time.Location) time.Time {
	if c.IsDay(createdAt.In(loc)) {
		return createdAt.Add(c.DayTimeout)
	}
	return createdAt.Add(c.NightTimeout)
}

// LoadShiftConfig читает настройки смен из system_config.
// Отсутствующие или битые значения заменяются значениями по умолчанию.
func LoadShiftConfig(ctx context.Context, store domain.ConfigStore, defaults ShiftConfig) (ShiftConfig, error) {
	if store == nil {
		return defaults, nil
	}
	values, err := store.GetValues(ctx,
		KeyDayShiftStartHour,
		KeyDayShiftEndHour,
		KeyDayShiftTimeoutMinutes,
		KeyNightShiftTimeoutMins,
	)
	if err != nil {
		return defaults, fmt.Errorf("read shift config: %w", err)
	}

	cfg := defaults
	cfg.DayStartHour = intValue(values, KeyDayShiftStartHour, defaults.DayStartHour, 0, 23)
	cfg.DayEndHour = intValue(values, KeyDayShiftEndHour, defaults.DayEndHour, 0, 24)
	cfg.DayTimeout = time.Duration(intValue(values, KeyDayShiftTimeoutMinutes, int(defaults.DayTimeout/time.Minute), 1, 24*60)) * time.Minute
	cfg.NightTimeout = time.Duration(intValue(values, KeyNightShiftTimeoutMins, int(defaults.NightTimeout/time.Minute), 1, 24*60)) * time.Minute
	return cfg, nil
}

func intValue(values map[string]string, key string, def, lo, hi int) int {
	raw, ok := values[key]
	if !ok {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < lo || v > hi {
		return def
	}
	return v
}
