package repository

import (
	"errors"

	"github.com/brickfoundation/referral-service/internal/domain"
	"gorm.io/gorm"
)

// translate maps driver errors onto domain errors. notFound is returned for
// gorm.ErrRecordNotFound, conflict for unique violations.
func translate(err, notFound, conflict error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound) && notFound != nil:
		return notFound
	case errors.Is(err, gorm.ErrDuplicatedKey) && conflict != nil:
		return conflict
	case errors.Is(err, gorm.ErrCheckConstraintViolated):
		return errors.Join(domain.ErrIntegrity, err)
	}
	return err
}
