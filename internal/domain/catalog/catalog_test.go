package catalog

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestServiceValidate(t *testing.T) {
	svc := Service{ID: "s1", Name: "Hair Cutting", Price: decimal.RequireFromString("25.00")}
	assert.NoError(t, svc.Validate())

	svc.Name = "   "
	assert.ErrorIs(t, svc.Validate(), ErrEmptyName)

	svc.Name = "Hair Cutting"
	svc.Price = decimal.RequireFromString("-1")
	assert.ErrorIs(t, svc.Validate(), ErrInvalidPrice)

	svc.Price = decimal.Zero
	assert.NoError(t, svc.Validate(), "free promotional services are allowed")
}

func TestBarberValidate(t *testing.T) {
	assert.NoError(t, Barber{ID: "b1", Name: "Nassim"}.Validate())
	assert.ErrorIs(t, Barber{ID: "b1"}.Validate(), ErrEmptyName)
}
