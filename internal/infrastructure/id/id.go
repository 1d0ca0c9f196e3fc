package id

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
)

type UUIDGenerator struct{}

func NewUUIDGenerator() UUIDGenerator { return UUIDGenerator{} }

func (UUIDGenerator) NewID() string { return uuid.NewString() }

// OrderNumbers builds numbers of the form MM + yyyymmdd + four random digits.
// Uniqueness is enforced by the order store; callers retry on collision.
type OrderNumbers struct {
	rand func(n int) int
}

func NewOrderNumbers() *OrderNumbers {
	return &OrderNumbers{rand: rand.IntN}
}

func (g *OrderNumbers) Next(now time.Time) string {
	return fmt.Sprintf("MM%s%04d", now.UTC().Format("20060102"), g.rand(10000))
}
