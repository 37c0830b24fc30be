package repository

import (
	"errors"

	"gorm.io/gorm"
)

// notFound подменяет gorm.ErrRecordNotFound доменной ошибкой
func notFound(err, domainErr error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domainErr
	}
	return err
}
