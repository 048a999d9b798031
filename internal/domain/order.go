package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Order is one customer's laundry request, tracked from pending to completed.
type Order struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	ClothesCount  int        `json:"clothesCount"`
	DateAdded     time.Time  `json:"dateAdded"`
	ReadyDate     time.Time  `json:"readyDate"`
	Completed     bool       `json:"completed"`
	CompletedDate *time.Time `json:"completedDate"`
}

// NewOrder validates the input and builds a pending order. The name is stored trimmed.
func NewOrder(name string, clothesCount int, now, readyDate time.Time) (Order, error) {
	name, err := ValidateInput(name, clothesCount)
	if err != nil {
		return Order{}, err
	}
	id, err := NewID()
	if err != nil {
		return Order{}, err
	}
	if readyDate.Before(now) {
		readyDate = now
	}
	return Order{
		ID:           id,
		Name:         name,
		ClothesCount: clothesCount,
		DateAdded:    now,
		ReadyDate:    readyDate,
	}, nil
}

// ValidateInput returns the trimmed name or a validation error.
func ValidateInput(name string, clothesCount int) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrInvalidName
	}
	if clothesCount < 1 {
		return "", ErrInvalidClothesCount
	}
	return name, nil
}

// NewID returns a time-ordered identifier, so ids sort in creation order.
func NewID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// Complete marks the order done. It reports false when the order was already completed.
func (o *Order) Complete(now time.Time) bool {
	if o.Completed {
		return false
	}
	o.Completed = true
	t := now
	o.CompletedDate = &t
	return true
}

// Clone returns a copy that does not share the CompletedDate pointer.
func (o Order) Clone() Order {
	if o.CompletedDate != nil {
		t := *o.CompletedDate
		o.CompletedDate = &t
	}
	return o
}
