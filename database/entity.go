package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"gorm.io/gorm"
)

// ErrSubjectNotFound is returned when an update or delete targets a missing row.
var ErrSubjectNotFound = errors.New("subject not found")

// Entity applies create/update/delete payloads to the table of T. Payload
// keys are matched against json tags; unknown keys are an error.
type Entity[T any] struct {
	db       *gorm.DB
	validate *validator.Validate
}

func NewEntity[T any](db *gorm.DB, validate *validator.Validate) *Entity[T] {
	if validate == nil {
		validate = validator.New()
	}
	return &Entity[T]{db: db, validate: validate}
}

func (e *Entity[T]) Create(ctx context.Context, payload map[string]any) error {
	var m T
	if err := decode(payload, &m); err != nil {
		return err
	}
	if err := e.validate.Struct(&m); err != nil {
		return err
	}
	return Conn(ctx, e.db).Create(&m).Error
}

func (e *Entity[T]) Update(ctx context.Context, key string, changes map[string]any) error {
	if _, ok := changes["id"]; ok {
		return errors.New("the primary key cannot be changed")
	}
	conn := Conn(ctx, e.db)

	var m T
	if err := conn.First(&m, "id = ?", key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: %s", ErrSubjectNotFound, key)
		}
		return err
	}
	if err := decode(changes, &m); err != nil {
		return err
	}
	if err := e.validate.Struct(&m); err != nil {
		return err
	}
	return conn.Save(&m).Error
}

func (e *Entity[T]) Delete(ctx context.Context, key string) error {
	res := Conn(ctx, e.db).Delete(new(T), "id = ?", key)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrSubjectNotFound, key)
	}
	return nil
}

// Find loads a single row by primary key.
func (e *Entity[T]) Find(ctx context.Context, key string) (*T, error) {
	var m T
	if err := Conn(ctx, e.db).First(&m, "id = ?", key).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// List returns rows in primary key order.
func (e *Entity[T]) List(ctx context.Context, limit, offset int) ([]T, error) {
	q := Conn(ctx, e.db).Order("id")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	out := make([]T, 0)
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func decode(payload map[string]any, dst any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		Result:           dst,
	})
	if err != nil {
		return err
	}
	return dec.Decode(payload)
}
