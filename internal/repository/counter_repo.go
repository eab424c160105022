package repository

import (
	"context"
	"errors"

	"backend/internal/model"

	"gorm.io/gorm"
)

type CounterRepository interface {
	// Next increments the counter stored under key and returns the new value.
	// Must be called inside the same transaction as the write that consumes
	// the number, otherwise concurrent creates can mint duplicates.
	Next(ctx context.Context, key string) (int, error)
}

type counterRepository struct {
	db *gorm.DB
}

func NewCounterRepository(db *gorm.DB) CounterRepository {
	return &counterRepository{db: db}
}

func (r *counterRepository) Next(ctx context.Context, key string) (int, error) {
	db := GetDB(ctx, r.db)

	var counter model.Counter
	err := lockForUpdate(db).First(&counter, "id = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		counter = model.Counter{ID: key, LastNumber: 1}
		if err := db.Create(&counter).Error; err != nil {
			return 0, err
		}
		return counter.LastNumber, nil
	}
	if err != nil {
		return 0, err
	}

	counter.LastNumber++
	if err := db.Save(&counter).Error; err != nil {
		return 0, err
	}
	return counter.LastNumber, nil
}
